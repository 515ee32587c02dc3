package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tolelom/arcadechain/core"
	"github.com/tolelom/arcadechain/crypto"
)

// GenesisHash is a canonical all-zeros previous hash for the genesis block.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// ApplyGenesis writes the genesis parameters, game registry and allocations
// into state without committing. owner is used when the genesis carries no
// explicit owner.
func ApplyGenesis(gen *GenesisConfig, state core.State, owner string) error {
	params := core.DefaultParams()
	if gen.Params != nil {
		p := *gen.Params
		params = &p
	}
	if params.Owner == "" {
		params.Owner = owner
	}
	if err := params.Validate(); err != nil {
		return fmt.Errorf("genesis params: %w", err)
	}
	if err := state.SetParams(params); err != nil {
		return err
	}
	for _, gt := range core.DefaultGameTypes() {
		if err := state.SetGameType(gt); err != nil {
			return err
		}
	}

	// Credit all alloc accounts in address order so the result is deterministic.
	addrs := make(map[string]struct{}, len(gen.Alloc)+len(gen.TokenAlloc))
	for a := range gen.Alloc {
		addrs[a] = struct{}{}
	}
	for a := range gen.TokenAlloc {
		addrs[a] = struct{}{}
	}
	sorted := make([]string, 0, len(addrs))
	for a := range addrs {
		sorted = append(sorted, a)
	}
	sort.Strings(sorted)

	var supply uint64
	for _, pubkeyHex := range sorted {
		tokens := gen.TokenAlloc[pubkeyHex]
		var err error
		if supply, err = core.AddAmounts(supply, tokens); err != nil {
			return err
		}
		acc := &core.Account{
			Address: pubkeyHex,
			Balance: gen.Alloc[pubkeyHex],
			Tokens:  tokens,
		}
		if err := state.SetAccount(acc); err != nil {
			return err
		}
	}
	if supply > params.MaxSupply {
		return fmt.Errorf("%w: genesis tokens %d exceed max supply %d", core.ErrOverflow, supply, params.MaxSupply)
	}
	return state.SetGlobals(&core.Globals{TotalSupply: supply})
}

// CreateGenesisBlock builds and signs block #0 from the genesis config and
// commits the initial state.
func CreateGenesisBlock(cfg *Config, state core.State, proposerPriv crypto.PrivateKey) (*core.Block, error) {
	proposerPub := proposerPriv.Public()

	if err := ApplyGenesis(&cfg.Genesis, state, proposerPub.Hex()); err != nil {
		return nil, err
	}
	stateRoot := state.ComputeRoot()
	if err := state.Commit(); err != nil {
		return nil, err
	}

	block := core.NewBlock(0, GenesisHash, proposerPub.Hex(), nil)
	block.Header.StateRoot = stateRoot
	// Embed chain ID via TxRoot for identification
	block.Header.TxRoot = crypto.Hash([]byte(cfg.Genesis.ChainID))
	block.Sign(proposerPriv)
	return block, nil
}

// IsGenesisHash returns true if the hash is the canonical genesis prev-hash.
func IsGenesisHash(h string) bool {
	return strings.Count(h, "0") == len(h) && len(h) == 64
}
