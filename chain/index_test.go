package chain

import (
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/btcforknode/headerchain/hash32"
	"github.com/btcforknode/headerchain/header"
	"github.com/btcforknode/headerchain/powtarget"
)

func testLogger() *logrus.Entry {
	return logrus.NewEntry(logrus.New())
}

func mustMine(t *testing.T, h *header.Header) {
	t.Helper()
	target, ok := powtarget.CompactToTarget(h.Bits)
	if !ok {
		t.Fatalf("bad bits %08x", h.Bits)
	}
	clockTime := h.Time
	if !h.Mine(target, 10_000_000, func() uint32 { return clockTime }) {
		t.Fatalf("failed to mine header at trivial difficulty")
	}
}

func TestIndexEmptyHeight(t *testing.T) {
	idx, err := NewIndex(t.TempDir(), &Regtest, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	if idx.Height() != -1 {
		t.Fatalf("expected -1 for empty index, got %d", idx.Height())
	}
	if idx.Tip() != nil {
		t.Fatalf("expected nil tip for empty index")
	}
}

func TestIndexAddGenesis(t *testing.T) {
	idx, err := NewIndex(t.TempDir(), &Regtest, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	g := Regtest.Genesis
	if err := idx.Add(&g); err != nil {
		t.Fatalf("adding genesis failed: %v", err)
	}
	if idx.Height() != 0 {
		t.Fatalf("expected height 0, got %d", idx.Height())
	}
}

func TestIndexRejectsBadPrevBlock(t *testing.T) {
	idx, err := NewIndex(t.TempDir(), &Regtest, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	g := Regtest.Genesis
	if err := idx.Add(&g); err != nil {
		t.Fatal(err)
	}

	bogus := &header.Header{
		Version:   1,
		PrevBlock: hash32.Nil,
		Bits:      Regtest.PowLimitBits,
		Time:      g.Time + 1,
	}
	mustMine(t, bogus)

	err = idx.Add(bogus)
	if _, ok := err.(*ErrReorg); !ok {
		t.Fatalf("expected *ErrReorg, got %v", err)
	}
}

func TestIndexPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	idx, err := NewIndex(dir, &Regtest, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	g := Regtest.Genesis
	if err := idx.Add(&g); err != nil {
		t.Fatal(err)
	}
	if err := idx.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewIndex(dir, &Regtest, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	if reopened.Height() != 0 {
		t.Fatalf("expected height 0 after reopen, got %d", reopened.Height())
	}
	if reopened.Tip().Hash() != g.Hash() {
		t.Fatalf("tip hash mismatch after reopen")
	}
}

func TestIndexRewind(t *testing.T) {
	idx, err := NewIndex(t.TempDir(), &Regtest, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	g := Regtest.Genesis
	if err := idx.Add(&g); err != nil {
		t.Fatal(err)
	}

	if err := idx.Rewind(-1); err != nil {
		t.Fatal(err)
	}
	if idx.Height() != -1 {
		t.Fatalf("expected height -1 after rewind to -1, got %d", idx.Height())
	}
}

func TestByNameUnrecognized(t *testing.T) {
	if ByName("not-a-real-network") != nil {
		t.Fatalf("expected nil for unrecognized network")
	}
}

func TestByNameDefaultsToMainnet(t *testing.T) {
	if ByName("") != &Mainnet {
		t.Fatalf("expected empty name to resolve to Mainnet")
	}
}
