package chain

import (
	"github.com/btcforknode/headerchain/hash32"
	"github.com/btcforknode/headerchain/header"
)

// Network describes the genesis header and proof-of-work bounds of one
// of the chains this index can track. Modeled on chaincfg.Params-style
// structs, trimmed to the fields a headers-only engine needs.
type Network struct {
	Name         string
	Genesis      header.Header
	PowLimitBits uint32 // compact encoding of the easiest allowed target
}

// Mainnet is the production Bitcoin network.
var Mainnet = Network{
	Name: "mainnet",
	Genesis: header.Header{
		Version:    1,
		PrevBlock:  hash32.Nil,
		MerkleRoot: mustHash32("4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b"),
		Time:       1231006505,
		Bits:       0x1d00ffff,
		Nonce:      2083236893,
	},
	PowLimitBits: 0x1d00ffff,
}

// Regtest is a local-only network with a trivial, instantly-mineable
// proof-of-work target, used for development and the mine subcommand.
var Regtest = Network{
	Name: "regtest",
	Genesis: header.Header{
		Version:    1,
		PrevBlock:  hash32.Nil,
		MerkleRoot: mustHash32("4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b"),
		Time:       1296688602,
		Bits:       0x207fffff,
		Nonce:      2,
	},
	PowLimitBits: 0x207fffff,
}

// ByName returns the built-in network with the given name, or nil if
// unrecognized.
func ByName(name string) *Network {
	switch name {
	case "mainnet", "":
		return &Mainnet
	case "regtest":
		return &Regtest
	default:
		return nil
	}
}

func mustHash32(s string) hash32.T {
	// GenesisBlock's canonical merkle root is stored in its internal
	// (reversed-display) byte order; the display-order hex constant is
	// decoded and reversed once here, at package init.
	h, err := hash32.Decode(s)
	if err != nil {
		panic(err)
	}
	return hash32.Reverse(h)
}
