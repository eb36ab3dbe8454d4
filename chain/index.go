// Copyright (c) 2019-2020 The Zcash developers
// Distributed under the MIT software license, see the accompanying
// file COPYING or https://www.opensource.org/licenses/mit-license.php .

// Package chain maintains the accepted header chain: an in-memory,
// disk-mirrored sequence of headers that have each passed proof-of-work
// verification and extend the current tip.
package chain

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"

	"github.com/btcforknode/headerchain/hash32"
	"github.com/btcforknode/headerchain/header"
)

var (
	headersAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chain_headers_accepted_total",
		Help: "Total number of headers accepted onto the chain tip.",
	})
	headersRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chain_headers_rejected_total",
		Help: "Total number of headers rejected, by reason.",
	}, []string{"reason"})
	chainHeightGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chain_height",
		Help: "Height of the current chain tip (-1 if empty).",
	})
)

// ErrReorg is returned by Add when a header's PrevBlock does not match
// the current tip's hash: the peer has sent a header for a competing
// branch. Index does not rewind automatically; it leaves reorg
// handling to the caller (the ingest loop), since picking the correct
// branch requires comparing cumulative work across more than the
// single header this call has in hand.
type ErrReorg struct {
	Want hash32.T // the tip's hash, what PrevBlock should have been
	Got  hash32.T // the header's actual PrevBlock
}

func (e *ErrReorg) Error() string {
	return fmt.Sprintf("chain: reorg detected: tip is %s, header's prev_block is %s",
		hash32.Encode(hash32.Reverse(e.Want)), hash32.Encode(hash32.Reverse(e.Got)))
}

// ErrInvalidProofOfWork is returned by Add when the header fails
// Verify's proof-of-work predicate.
var ErrInvalidProofOfWork = fmt.Errorf("chain: header fails proof-of-work verification")

// ErrBadDifficulty is returned by Add when a header lands on a retarget
// boundary but its Bits does not match NextWorkRequired's recomputation.
var ErrBadDifficulty = fmt.Errorf("chain: header's bits does not match the expected retarget")

// Index is an append-only, disk-mirrored sequence of accepted headers.
// Every record is exactly header.Size bytes, so no separate lengths
// file is needed to locate a record — its offset is height*header.Size.
type Index struct {
	mu      sync.RWMutex
	path    string
	file    *os.File
	headers []*header.Header
	net     *Network
	log     *logrus.Entry
}

// NewIndex opens (creating if necessary) a header index backed by a
// single flat file at filepath.Join(dataDir, "headers.dat"), replaying
// any headers already on disk into memory. net supplies the
// proof-of-work limit and retarget cadence Add validates new headers
// against.
func NewIndex(dataDir string, net *Network, log *logrus.Entry) (*Index, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if net == nil {
		net = &Mainnet
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("chain: creating data dir: %w", err)
	}
	path := filepath.Join(dataDir, "headers.dat")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("chain: opening %s: %w", path, err)
	}

	idx := &Index{path: path, file: f, net: net, log: log}
	if err := idx.replay(); err != nil {
		f.Close()
		return nil, err
	}
	chainHeightGauge.Set(float64(idx.Height()))
	return idx, nil
}

func (idx *Index) replay() error {
	buf := make([]byte, header.Size)
	for {
		n, err := idx.file.Read(buf)
		if n == header.Size {
			h, _, perr := header.Parse(buf)
			if perr != nil {
				idx.log.WithFields(logrus.Fields{"error": perr}).Warning("chain: truncating corrupt tail record")
				if terr := idx.file.Truncate(int64(len(idx.headers) * header.Size)); terr != nil {
					return fmt.Errorf("chain: truncating corrupt tail: %w", terr)
				}
				break
			}
			idx.headers = append(idx.headers, h)
			continue
		}
		if n > 0 {
			// Partial trailing record: an earlier write was cut short.
			if terr := idx.file.Truncate(int64(len(idx.headers) * header.Size)); terr != nil {
				return fmt.Errorf("chain: truncating partial tail: %w", terr)
			}
			if _, serr := idx.file.Seek(int64(len(idx.headers)*header.Size), io.SeekStart); serr != nil {
				return fmt.Errorf("chain: seeking past partial tail: %w", serr)
			}
		}
		break
	}
	idx.log.WithFields(logrus.Fields{"count": len(idx.headers)}).Info("chain: loaded headers from disk")
	return nil
}

// Height returns the height of the tip (the number of accepted headers
// minus one), or -1 if the chain is empty (mirroring
// BlockCache.GetLatestHeight's sentinel).
func (idx *Index) Height() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if len(idx.headers) == 0 {
		return -1
	}
	return len(idx.headers) - 1
}

// Tip returns the most recently accepted header, or nil if empty.
func (idx *Index) Tip() *header.Header {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if len(idx.headers) == 0 {
		return nil
	}
	return idx.headers[len(idx.headers)-1]
}

// At returns the header at the given height, or nil if out of range.
func (idx *Index) At(height int) *header.Header {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if height < 0 || height >= len(idx.headers) {
		return nil
	}
	return idx.headers[height]
}

// Add verifies h's proof-of-work and that it extends the current tip,
// then appends it to the chain and disk mirror. The genesis case (empty
// index) accepts any header whose PrevBlock is all-zero.
func (idx *Index) Add(h *header.Header) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if !h.Verify() {
		headersRejected.WithLabelValues("pow").Inc()
		idx.log.WithFields(logrus.Fields{"bits": h.Bits}).Warning("chain: rejecting header, invalid proof-of-work")
		return ErrInvalidProofOfWork
	}

	var want hash32.T
	if len(idx.headers) > 0 {
		want = idx.headers[len(idx.headers)-1].Hash()
	}
	if !bytes.Equal(h.PrevBlock[:], want[:]) {
		headersRejected.WithLabelValues("reorg").Inc()
		return &ErrReorg{Want: want, Got: h.PrevBlock}
	}

	height := len(idx.headers)
	if height > 0 && height%RetargetInterval == 0 {
		firstTime := idx.headers[height-RetargetInterval].Time
		lastTime := idx.headers[height-1].Time
		expected := NextWorkRequired(idx.net, height-1, idx.headers[height-1].Bits, firstTime, lastTime)
		if h.Bits != expected {
			headersRejected.WithLabelValues("difficulty").Inc()
			idx.log.WithFields(logrus.Fields{"height": height, "got": h.Bits, "want": expected}).Warning("chain: rejecting header, bad retarget")
			return ErrBadDifficulty
		}
	}

	ser, err := h.MarshalBinary()
	if err != nil {
		return fmt.Errorf("chain: marshaling header: %w", err)
	}
	if _, err := idx.file.Write(ser); err != nil {
		return fmt.Errorf("chain: writing header: %w", err)
	}

	idx.headers = append(idx.headers, h)
	headersAccepted.Inc()
	chainHeightGauge.Set(float64(len(idx.headers) - 1))
	idx.log.WithFields(logrus.Fields{
		"height": len(idx.headers) - 1,
		"hash":   hash32.Encode(hash32.Reverse(h.Hash())),
	}).Info("chain: accepted header")
	return nil
}

// Rewind truncates the chain back to height, discarding everything
// above it. Used by the ingest loop once a reorg's common ancestor has
// been located.
func (idx *Index) Rewind(height int) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if height < -1 || height >= len(idx.headers) {
		return fmt.Errorf("chain: rewind height %d out of range", height)
	}
	newLen := height + 1
	idx.headers = idx.headers[:newLen]
	if err := idx.file.Truncate(int64(newLen * header.Size)); err != nil {
		return fmt.Errorf("chain: truncating: %w", err)
	}
	if _, err := idx.file.Seek(int64(newLen*header.Size), io.SeekStart); err != nil {
		return fmt.Errorf("chain: seeking: %w", err)
	}
	chainHeightGauge.Set(float64(newLen - 1))
	idx.log.WithFields(logrus.Fields{"height": height}).Warning("chain: rewound")
	return nil
}

// Close flushes and closes the backing file.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.file == nil {
		return nil
	}
	if err := idx.file.Sync(); err != nil {
		return err
	}
	err := idx.file.Close()
	idx.file = nil
	return err
}
