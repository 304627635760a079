package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testAdmin = "0x00000000000000000000000000000000000000a1"

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "marketd.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
[market]
admin = "`+testAdmin+`"
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, "127.0.0.1", cfg.Server.Host)
	require.Equal(t, 7256, cfg.Server.Port)
	require.Equal(t, "pebble", cfg.Database.Backend)
	require.Equal(t, "data", cfg.Database.Path)
	require.Equal(t, "sqlite", cfg.History.Driver)
	require.Equal(t, "data/history.db", cfg.History.DSN)
	require.Equal(t, uint8(0), cfg.Market.FeePercent)
	require.False(t, cfg.Debug)
	require.Equal(t, path, cfg.Path())
}

func TestLoadConfigReadsFile(t *testing.T) {
	path := writeConfigFile(t, `
debug = true

[server]
host = "0.0.0.0"
port = 9000

[database]
backend = "memory"

[history]
driver = ""

[market]
admin = "`+testAdmin+`"
fee_percent = 2
accepted_tokens = ["0x00000000000000000000000000000000000000b2"]
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, 9000, cfg.Server.Port)
	require.Equal(t, "memory", cfg.Database.Backend)
	require.Equal(t, "", cfg.History.Driver)
	require.Equal(t, uint8(2), cfg.Market.FeePercent)
	require.Len(t, cfg.Market.AcceptedTokens, 1)
	require.True(t, cfg.Debug)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "does not exist")
}

func TestLoadConfigDefaultPathMayBeAbsent(t *testing.T) {
	// Without a config file the loader still runs on defaults plus
	// environment; only validation may complain.
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { os.Chdir(wd) })

	t.Setenv("MARKETD_MARKET_ADMIN", testAdmin)
	cfg, err := LoadConfig(DefaultConfigPath)
	require.NoError(t, err)
	require.Equal(t, testAdmin, cfg.Market.Admin)
	require.Equal(t, "", cfg.Path())
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
[server]
port = 9000

[market]
admin = "`+testAdmin+`"
`)
	t.Setenv("MARKETD_SERVER_PORT", "9100")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 9100, cfg.Server.Port)
}

func TestLoadConfigRejectsMalformedTOML(t *testing.T) {
	path := writeConfigFile(t, `this is not toml = = =`)
	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Host: "127.0.0.1", Port: 7256},
			Database: DatabaseConfig{Backend: "memory"},
			Market:   MarketConfig{Admin: testAdmin},
		}
	}

	require.NoError(t, ValidateConfig(valid()))

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port zero", func(c *Config) { c.Server.Port = 0 }},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }},
		{"unknown backend", func(c *Config) { c.Database.Backend = "rocksdb" }},
		{"pebble without path", func(c *Config) { c.Database.Backend = "pebble"; c.Database.Path = "" }},
		{"unknown history driver", func(c *Config) { c.History.Driver = "mysql" }},
		{"history without dsn", func(c *Config) { c.History.Driver = "sqlite"; c.History.DSN = "" }},
		{"missing admin", func(c *Config) { c.Market.Admin = "" }},
		{"bad admin", func(c *Config) { c.Market.Admin = "not-an-address" }},
		{"bad fee recipient", func(c *Config) { c.Market.FeeRecipient = "0x123" }},
		{"bad marketplace address", func(c *Config) { c.Market.MarketplaceAddress = "xyz" }},
		{"bad edition contract", func(c *Config) { c.Market.EditionContract = "xyz" }},
		{"fee above hundred", func(c *Config) { c.Market.FeePercent = 101 }},
		{"bad accepted token", func(c *Config) { c.Market.AcceptedTokens = []string{"bogus"} }},
		{"bad swap rate key", func(c *Config) { c.Swap.Rates = map[string]uint64{"bogus": 1} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			require.Error(t, ValidateConfig(cfg))
		})
	}
}
