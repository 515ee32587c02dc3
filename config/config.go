package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/tolelom/arcadechain/core"
)

// GenesisConfig describes the chain's initial state.
type GenesisConfig struct {
	ChainID    string            `json:"chain_id" toml:"chain_id"`
	Alloc      map[string]uint64 `json:"alloc" toml:"alloc"`             // pubkey hex → initial native balance
	TokenAlloc map[string]uint64 `json:"token_alloc" toml:"token_alloc"` // pubkey hex → initial tokens
	// Params seeds the economic parameters and roles; nil means core.DefaultParams
	// with the sequencer as owner.
	Params *core.Params `json:"params,omitempty" toml:"params,omitempty"`
}

// LogConfig controls the node's structured logger.
type LogConfig struct {
	Level  string `json:"level" toml:"level"`   // logrus level name
	Format string `json:"format" toml:"format"` // "text" or "json"
}

// Config holds all node configuration.
type Config struct {
	NodeID        string        `json:"node_id" toml:"node_id"`
	DataDir       string        `json:"data_dir" toml:"data_dir"`
	RPCPort       int           `json:"rpc_port" toml:"rpc_port"`
	RPCAuthToken  string        `json:"rpc_auth_token,omitempty" toml:"rpc_auth_token,omitempty"` // empty → no auth
	MaxBlockTxs   int           `json:"max_block_txs" toml:"max_block_txs"`                       // max transactions per block; 0 → 500
	BlockInterval int           `json:"block_interval" toml:"block_interval"`                     // seconds between blocks
	Sequencer     string        `json:"sequencer" toml:"sequencer"`                               // authorised producer pubkey hex
	Log           LogConfig     `json:"log" toml:"log"`
	Genesis       GenesisConfig `json:"genesis" toml:"genesis"`
}

// DefaultConfig returns a single-node development configuration.
func DefaultConfig() *Config {
	return &Config{
		NodeID:        "node0",
		DataDir:       "./data",
		RPCPort:       8545,
		MaxBlockTxs:   500,
		BlockInterval: 2,
		Log:           LogConfig{Level: "info", Format: "text"},
		Genesis: GenesisConfig{
			ChainID:    "arcadechain-dev",
			Alloc:      map[string]uint64{},
			TokenAlloc: map[string]uint64{},
		},
	}
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Load reads a config file from path. Files ending in .toml are decoded as
// TOML, everything else as JSON.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if isTOML(path) {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to path, as TOML for .toml paths and formatted JSON
// otherwise.
func Save(cfg *Config, path string) error {
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
