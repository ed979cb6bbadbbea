package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/branchline/todotree/cmd/configure/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "todotree-configure",
		Short: "Operator tool for the todotree API",
		Long:  "CLI tool for managing database-stored operator settings (CORS, rate limits) and running migrations",
	}

	rootCmd.AddCommand(commands.NewCorsCmd())
	rootCmd.AddCommand(commands.NewRatelimitCmd())
	rootCmd.AddCommand(commands.NewMigrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
