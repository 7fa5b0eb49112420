package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gosession-server",
		Short: "Session-backed bearer authentication server",
		Long: `gosession-server issues opaque session tokens on POST /login, resolves them
on GET /me and invalidates them on DELETE /logout.

Sessions live in memory or in Redis; users come from the YAML config file.`,
		SilenceUsage: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newHashPasswordCmd())
	return root
}
