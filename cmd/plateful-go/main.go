package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/plateful/plateful-go/internal/cli"
	"github.com/plateful/plateful-go/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "plateful-go",
		Short:   "Plateful - multi-tenant restaurant dashboard server",
		Version: version.String(),
		Long: `Plateful serves the admin dashboard API for restaurant storefronts:
menu catalog, orders, customers, and weekday scheduling of specials,
with per-tenant SQLite or hosted libsql databases.`,
	}

	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.DoctorCmd())
	rootCmd.AddCommand(cli.VersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
