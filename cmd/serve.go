package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the inspection endpoints",
	Long: `Build the tree and serve /tree, /namespaces/{path}, /healthz and /metrics
until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveAddr != "" {
			cfg.Inspect.Addr = serveAddr
		}
		cfg.Inspect.Enabled = true

		a, err := newApplication()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return a.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: $REGISTRY_INSPECT_ADDR)")
	rootCmd.AddCommand(serveCmd)
}
