package cmd

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/btcforknode/headerchain/chain"
	"github.com/btcforknode/headerchain/hash32"
	"github.com/btcforknode/headerchain/header"
	"github.com/btcforknode/headerchain/powtarget"
)

var mineOpts struct {
	prevBlock  string
	merkleRoot string
	bits       uint32
	limit      uint64
	network    string
}

// mineCmd searches for a nonce satisfying a header's proof-of-work target.
var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "search for a nonce satisfying a header's proof-of-work target",
	Run: func(cmd *cobra.Command, args []string) {
		h := &header.Header{
			Version: 1,
			Bits:    mineOpts.bits,
		}

		net := chain.ByName(mineOpts.network)
		if net != nil && mineOpts.bits == 0 {
			h.Bits = net.PowLimitBits
		}

		if mineOpts.prevBlock != "" {
			prev, err := hash32.Decode(mineOpts.prevBlock)
			if err != nil {
				fmt.Println("invalid --prev-block:", err)
				return
			}
			h.PrevBlock = hash32.Reverse(prev)
		}
		if mineOpts.merkleRoot != "" {
			root, err := hash32.Decode(mineOpts.merkleRoot)
			if err != nil {
				fmt.Println("invalid --merkle-root:", err)
				return
			}
			h.MerkleRoot = hash32.Reverse(root)
		}

		target, ok := powtarget.CompactToTarget(h.Bits)
		if !ok {
			fmt.Println("bits does not decode to a valid target")
			return
		}

		clock := func() uint32 { return uint32(time.Now().Unix()) }
		found := h.Mine(target, mineOpts.limit, clock)
		if !found {
			fmt.Println("exhausted limit without finding a valid nonce")
			return
		}

		raw, err := h.MarshalBinary()
		if err != nil {
			fmt.Println("marshal failed:", err)
			return
		}

		fmt.Println("header:", hex.EncodeToString(raw))
		fmt.Println("hash:  ", hash32.Encode(hash32.Reverse(h.Hash())))
		fmt.Println("nonce: ", h.Nonce)
		fmt.Println("time:  ", h.Time)
	},
}

func init() {
	mineCmd.Flags().StringVar(&mineOpts.prevBlock, "prev-block", "", "previous block hash, display order hex (default all zero)")
	mineCmd.Flags().StringVar(&mineOpts.merkleRoot, "merkle-root", "", "merkle root, display order hex (default all zero)")
	mineCmd.Flags().Uint32Var(&mineOpts.bits, "bits", 0, "compact target (defaults to --network's proof-of-work limit)")
	mineCmd.Flags().Uint64Var(&mineOpts.limit, "limit", 0, "maximum nonce attempts, 0 for unlimited")
	mineCmd.Flags().StringVar(&mineOpts.network, "network", "regtest", "network whose proof-of-work limit to use when --bits is unset")
}
