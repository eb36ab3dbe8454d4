// Package ingest pulls raw block headers from a bitcoind-compatible RPC
// node and feeds them into a chain.Index, the untrusted-peer surface
// the header-validating core is designed to sit behind.
package ingest

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/rpcclient"
	"github.com/sirupsen/logrus"

	"github.com/btcforknode/headerchain/chain"
	"github.com/btcforknode/headerchain/common"
	"github.com/btcforknode/headerchain/header"
)

// Client wraps a JSON-RPC connection to a bitcoind-compatible node,
// fetching raw header bytes via the getblockheader method.
type Client struct {
	rpc *rpcclient.Client
	log *logrus.Entry
}

// Config holds the RPC endpoint credentials, populated from
// common.Options by cmd/root.go.
type Config struct {
	Host       string
	User       string
	Pass       string
	DisableTLS bool
}

// New connects to a bitcoind-compatible node over HTTP POST, the only
// mode available without websocket notifications.
func New(cfg Config, log *logrus.Entry) (*Client, error) {
	connCfg := &rpcclient.ConnConfig{
		Host:         cfg.Host,
		User:         cfg.User,
		Pass:         cfg.Pass,
		HTTPPostMode: true,
		DisableTLS:   cfg.DisableTLS,
	}
	rpc, err := rpcclient.New(connCfg, nil)
	if err != nil {
		return nil, fmt.Errorf("ingest: connecting to %s: %w", cfg.Host, err)
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Client{rpc: rpc, log: log}, nil
}

// HeaderAt fetches the raw 80-byte header at the given height by first
// resolving the block hash, then requesting the non-verbose header hex.
func (c *Client) HeaderAt(height int) (*header.Header, error) {
	hashParam, err := json.Marshal(height)
	if err != nil {
		return nil, err
	}
	hashResult, err := c.rpc.RawRequest("getblockhash", []json.RawMessage{hashParam})
	if err != nil {
		return nil, fmt.Errorf("ingest: getblockhash %d: %w", height, err)
	}
	var blockHash string
	if err := json.Unmarshal(hashResult, &blockHash); err != nil {
		return nil, fmt.Errorf("ingest: decoding getblockhash reply: %w", err)
	}

	return c.HeaderByHash(blockHash)
}

// HeaderByHash fetches the raw 80-byte header for the given block hash
// (hex, display order), parsing it with header.Parse.
func (c *Client) HeaderByHash(blockHashHex string) (*header.Header, error) {
	hashParam, err := json.Marshal(blockHashHex)
	if err != nil {
		return nil, err
	}
	verboseParam := json.RawMessage("false")
	result, err := c.rpc.RawRequest("getblockheader", []json.RawMessage{hashParam, verboseParam})
	if err != nil {
		return nil, fmt.Errorf("ingest: getblockheader %s: %w", blockHashHex, err)
	}

	var headerHex string
	if err := json.Unmarshal(result, &headerHex); err != nil {
		return nil, fmt.Errorf("ingest: decoding getblockheader reply: %w", err)
	}

	raw, err := hex.DecodeString(headerHex)
	if err != nil {
		return nil, fmt.Errorf("ingest: decoding header hex: %w", err)
	}

	h, _, err := header.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("ingest: parsing header: %w", err)
	}
	return h, nil
}

// BestHeight returns the node's current chain tip height via
// getblockcount.
func (c *Client) BestHeight() (int, error) {
	result, err := c.rpc.RawRequest("getblockcount", []json.RawMessage{})
	if err != nil {
		return 0, fmt.Errorf("ingest: getblockcount: %w", err)
	}
	var height int
	if err := json.Unmarshal(result, &height); err != nil {
		return 0, fmt.Errorf("ingest: decoding getblockcount reply: %w", err)
	}
	return height, nil
}

// Run polls the node for new headers beyond idx's current tip and
// appends each to idx, sleeping between polls when already caught up.
// It runs until stop is closed.
func (c *Client) Run(idx *chain.Index, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}

		best, err := c.BestHeight()
		if err != nil {
			c.log.WithFields(logrus.Fields{"error": err}).Warning("ingest: getblockcount failed, retrying")
			common.Time.Sleep(5 * time.Second)
			continue
		}

		next := idx.Height() + 1
		if next > best {
			common.Time.Sleep(2 * time.Second)
			continue
		}

		h, err := c.HeaderAt(next)
		if err != nil {
			c.log.WithFields(logrus.Fields{"height": next, "error": err}).Warning("ingest: fetch failed, retrying")
			common.Time.Sleep(2 * time.Second)
			continue
		}

		if err := idx.Add(h); err != nil {
			if reorg, ok := err.(*chain.ErrReorg); ok {
				c.log.WithFields(logrus.Fields{"error": reorg}).Warning("ingest: reorg detected, rewinding")
				if rerr := idx.Rewind(idx.Height() - 1); rerr != nil {
					c.log.WithFields(logrus.Fields{"error": rerr}).Error("ingest: rewind failed")
				}
				continue
			}
			c.log.WithFields(logrus.Fields{"height": next, "error": err}).Warning("ingest: header rejected")
			common.Time.Sleep(2 * time.Second)
			continue
		}
	}
}
