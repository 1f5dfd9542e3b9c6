package cli

import (
	"github.com/spf13/cobra"

	"github.com/plateful/plateful-go/internal/application/startup"
)

// ServeCmd returns the serve command, which boots the dashboard server
// and blocks until shutdown completes.
func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the restaurant dashboard server",
		Long: `Boots the multi-tenant dashboard server: loads the tenant registry,
pre-activates tenants, warms catalog caches from snapshots, and serves
the admin API until SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return startup.Initialize()
		},
	}
}
