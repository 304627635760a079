// Package config loads and validates the marketd configuration.
package config

import "path/filepath"

// Config is the complete marketd configuration.
type Config struct {
	Server   ServerConfig   `toml:"server" mapstructure:"server"`
	Database DatabaseConfig `toml:"database" mapstructure:"database"`
	History  HistoryConfig  `toml:"history" mapstructure:"history"`
	Market   MarketConfig   `toml:"market" mapstructure:"market"`
	Swap     SwapConfig     `toml:"swap" mapstructure:"swap"`

	// Debug raises the log level; DebugLogfile adds a JSON log file.
	Debug        bool   `toml:"debug" mapstructure:"debug"`
	DebugLogfile string `toml:"debug_logfile" mapstructure:"debug_logfile"`

	configPath string `toml:"-" mapstructure:"-"`
}

// ServerConfig controls the JSON-RPC and WebSocket listener.
type ServerConfig struct {
	Host string `toml:"host" mapstructure:"host"`
	Port int    `toml:"port" mapstructure:"port"`
}

// DatabaseConfig selects the key-value backend for ledger state.
type DatabaseConfig struct {
	// Backend is "pebble", "leveldb", or "memory".
	Backend string `toml:"backend" mapstructure:"backend"`
	Path    string `toml:"path" mapstructure:"path"`
}

// HistoryConfig selects the relational trade-history store.
type HistoryConfig struct {
	// Driver is "sqlite" or "postgres". An empty driver disables history.
	Driver string `toml:"driver" mapstructure:"driver"`
	DSN    string `toml:"dsn" mapstructure:"dsn"`
}

// MarketConfig holds the marketplace parameters.
type MarketConfig struct {
	// Admin may change fee settings. FeeRecipient receives sale fees and
	// defaults to the admin.
	Admin        string `toml:"admin" mapstructure:"admin"`
	FeeRecipient string `toml:"fee_recipient" mapstructure:"fee_recipient"`
	FeePercent   uint8  `toml:"fee_percent" mapstructure:"fee_percent"`

	// MarketplaceAddress custodies token payments between collection and
	// payout.
	MarketplaceAddress string `toml:"marketplace_address" mapstructure:"marketplace_address"`

	// EditionContract is the edition-token contract recorded on listings.
	EditionContract string `toml:"edition_contract" mapstructure:"edition_contract"`

	// AcceptedTokens lists the ERC20-style payment token contracts.
	AcceptedTokens []string `toml:"accepted_tokens" mapstructure:"accepted_tokens"`
}

// SwapConfig holds the split-swap utility parameters for standalone runs.
type SwapConfig struct {
	// Rates maps token address to units of token per unit of native asset
	// for the built-in development router.
	Rates map[string]uint64 `toml:"rates" mapstructure:"rates"`
}

// DefaultConfigPath is where marketd looks for its config file.
const DefaultConfigPath = "marketd.toml"

// ConfigPathFromDir returns the config path inside a directory.
func ConfigPathFromDir(dir string) string {
	return filepath.Join(dir, DefaultConfigPath)
}

// Path returns where the configuration was loaded from, if anywhere.
func (c *Config) Path() string { return c.configPath }
