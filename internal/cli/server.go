package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/plip123/nft-marketplace/internal/config"
	"github.com/plip123/nft-marketplace/internal/log"
	"github.com/plip123/nft-marketplace/internal/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the marketplace daemon",
	Long: `Start marketd, which provides:
- HTTP JSON-RPC API for marketplace and swap operations
- WebSocket event stream for marketplace events
- Persistent ledger state, event journal, and trade history`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)
	rootCmd.RunE = runServer
}

func runServer(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = config.DefaultConfigPath
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return err
	}
	if debug {
		cfg.Debug = true
	}
	log.NewLogger(cfg.DebugLogfile, cfg.Debug)

	node, err := server.NewNode(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return node.Run(ctx)
}
