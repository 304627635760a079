// Package cli defines the marketd command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/plip123/nft-marketplace/internal/server"
)

var (
	configFile string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "marketd",
	Short: "marketd - multi-edition token marketplace daemon",
	Long: `marketd runs a marketplace for multi-edition tokens: holders list
quantities for sale at a fixed unit price, buyers purchase with the native
asset or accepted payment tokens, and a configurable percentage fee is
forwarded to the fee recipient. A companion swap utility splits an inbound
native payment across destination tokens by weight.`,
	Version: server.Version,
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable normally suppressed debug logging")
}
