package hasher

import (
	"bytes"
	"crypto/sha256"
	"testing"
)

func TestSum256MatchesManualDouble(t *testing.T) {
	data := []byte("the quick brown fox")
	first := sha256.Sum256(data)
	want := sha256.Sum256(first[:])
	if got := Sum256(data); got != want {
		t.Fatalf("Sum256 mismatch: got %x want %x", got, want)
	}
}

func TestStreamingMatchesOneShot(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	h := New()
	h.Write(data[:3])
	h.Write(data[3:])
	if got, want := h.Sum(), Sum256(data); got != want {
		t.Fatalf("streaming mismatch: got %x want %x", got, want)
	}
}

func TestWriteUint32MatchesRawBytes(t *testing.T) {
	a := New()
	a.WriteUint32(0x01020304)

	b := New()
	b.Write([]byte{0x04, 0x03, 0x02, 0x01})

	if a.Sum() != b.Sum() {
		t.Fatal("WriteUint32 did not produce byte-identical stream to raw little-endian write")
	}
}

func TestSnapshotForkIndependence(t *testing.T) {
	prefix := []byte("prefix-bytes-before-the-fork-point")

	base := New()
	base.Write(prefix)
	snap, err := base.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	forkA, err := Fork(snap)
	if err != nil {
		t.Fatalf("Fork A: %v", err)
	}
	forkB, err := Fork(snap)
	if err != nil {
		t.Fatalf("Fork B: %v", err)
	}

	forkA.WriteUint32(1)
	forkB.WriteUint32(2)

	sumA := forkA.Sum()
	sumB := forkB.Sum()
	if sumA == sumB {
		t.Fatal("forks of the same snapshot diverged inputs but produced the same sum")
	}

	want := Sum256(append(append([]byte{}, prefix...), 1, 0, 0, 0))
	if sumA != want {
		t.Fatalf("forkA sum mismatch: got %x want %x", sumA, want)
	}

	// re-forking the same snapshot a second time must reproduce forkA's
	// result exactly: the snapshot itself must be unmutated by forking.
	forkA2, err := Fork(snap)
	if err != nil {
		t.Fatalf("Fork A2: %v", err)
	}
	forkA2.WriteUint32(1)
	if got := forkA2.Sum(); got != sumA {
		t.Fatalf("re-fork mismatch: got %x want %x", got, sumA)
	}
}

func TestResetClearsState(t *testing.T) {
	h := New()
	h.Write([]byte("garbage"))
	h.Reset()
	if got, want := h.Sum(), Sum256(nil); got != want {
		t.Fatalf("Reset did not restore empty state: got %x want %x", got, want)
	}
}

func TestSumDoesNotMutateAccumulator(t *testing.T) {
	h := New()
	h.Write([]byte("abc"))
	first := h.Sum()
	h.Write([]byte("def"))
	second := h.Sum()
	if bytes.Equal(first[:], second[:]) {
		t.Fatal("writing more data after Sum produced an identical digest")
	}
	if want := Sum256([]byte("abcdef")); second != want {
		t.Fatalf("continued write mismatch: got %x want %x", second, want)
	}
}
