package cmd

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/btcforknode/headerchain/hash32"
	"github.com/btcforknode/headerchain/header"
	"github.com/btcforknode/headerchain/powtarget"
)

// verifyCmd decodes a raw 80-byte header from a hex argument or stdin and
// prints its decoded fields and whether its proof-of-work is valid, a command-line
// counterpart to api.Server's /verify route.
var verifyCmd = &cobra.Command{
	Use:   "verify [hex-header]",
	Short: "parse and verify an 80-byte block header given as hex",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var input string
		if len(args) == 1 {
			input = args[0]
		} else {
			scanner := bufio.NewScanner(os.Stdin)
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil && err != io.EOF {
					fmt.Println("reading stdin:", err)
				}
				fmt.Println("no header provided")
				return
			}
			input = scanner.Text()
		}
		input = strings.TrimSpace(input)

		raw, err := hex.DecodeString(input)
		if err != nil {
			fmt.Println("invalid hex:", err)
			return
		}

		h, rest, err := header.Parse(raw)
		if err != nil {
			fmt.Println("parse failed:", err)
			return
		}
		if len(rest) != 0 {
			fmt.Printf("warning: %d trailing bytes after header\n", len(rest))
		}

		target, ok := powtarget.CompactToTarget(h.Bits)

		fmt.Println("version:    ", h.Version)
		fmt.Println("prev_block: ", hash32.Encode(hash32.Reverse(h.PrevBlock)))
		fmt.Println("merkle_root:", hash32.Encode(hash32.Reverse(h.MerkleRoot)))
		fmt.Println("time:       ", h.Time)
		fmt.Println("bits:       ", fmt.Sprintf("%08x", h.Bits))
		fmt.Println("nonce:      ", h.Nonce)
		fmt.Println("hash:       ", hash32.Encode(hash32.Reverse(h.Hash())))
		if ok {
			fmt.Println("target:     ", hex.EncodeToString(target[:]))
		} else {
			fmt.Println("target:      <bits does not decode to a valid target>")
		}
		fmt.Println("valid:      ", h.Verify())
	},
}
