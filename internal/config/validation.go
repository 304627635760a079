package config

import (
	"fmt"

	"github.com/plip123/nft-marketplace/internal/core/types"
)

// ValidateConfig checks the configuration for values the daemon cannot run
// with. Addresses are parsed here so startup fails before any store opens.
func ValidateConfig(c *Config) error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}

	switch c.Database.Backend {
	case "pebble", "leveldb", "memory":
	default:
		return fmt.Errorf("database.backend %q must be pebble, leveldb, or memory", c.Database.Backend)
	}
	if c.Database.Backend != "memory" && c.Database.Path == "" {
		return fmt.Errorf("database.path required for backend %q", c.Database.Backend)
	}

	switch c.History.Driver {
	case "", "sqlite", "postgres":
	default:
		return fmt.Errorf("history.driver %q must be sqlite or postgres", c.History.Driver)
	}
	if c.History.Driver != "" && c.History.DSN == "" {
		return fmt.Errorf("history.dsn required for driver %q", c.History.Driver)
	}

	if c.Market.Admin == "" {
		return fmt.Errorf("market.admin is required")
	}
	if _, err := types.ParseAddress(c.Market.Admin); err != nil {
		return fmt.Errorf("market.admin: %w", err)
	}
	if c.Market.FeeRecipient != "" {
		if _, err := types.ParseAddress(c.Market.FeeRecipient); err != nil {
			return fmt.Errorf("market.fee_recipient: %w", err)
		}
	}
	if c.Market.MarketplaceAddress != "" {
		if _, err := types.ParseAddress(c.Market.MarketplaceAddress); err != nil {
			return fmt.Errorf("market.marketplace_address: %w", err)
		}
	}
	if c.Market.EditionContract != "" {
		if _, err := types.ParseAddress(c.Market.EditionContract); err != nil {
			return fmt.Errorf("market.edition_contract: %w", err)
		}
	}
	if c.Market.FeePercent > 100 {
		return fmt.Errorf("market.fee_percent %d must be between 0 and 100", c.Market.FeePercent)
	}
	for _, t := range c.Market.AcceptedTokens {
		if _, err := types.ParseAddress(t); err != nil {
			return fmt.Errorf("market.accepted_tokens entry %q: %w", t, err)
		}
	}
	for t := range c.Swap.Rates {
		if _, err := types.ParseAddress(t); err != nil {
			return fmt.Errorf("swap.rates entry %q: %w", t, err)
		}
	}
	return nil
}
