package config

import "github.com/spf13/viper"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 7256)

	v.SetDefault("database.backend", "pebble")
	v.SetDefault("database.path", "data")

	v.SetDefault("history.driver", "sqlite")
	v.SetDefault("history.dsn", "data/history.db")

	// Empty defaults register the keys with viper so environment-only
	// values survive Unmarshal.
	v.SetDefault("market.admin", "")
	v.SetDefault("market.fee_recipient", "")
	v.SetDefault("market.marketplace_address", "")
	v.SetDefault("market.edition_contract", "")
	v.SetDefault("market.fee_percent", 0)
	v.SetDefault("market.accepted_tokens", []string{})

	v.SetDefault("debug", false)
	v.SetDefault("debug_logfile", "")
}
