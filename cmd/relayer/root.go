package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the relayer's cobra command tree, mirroring
// cmd/puniversald's NewRootCmd + InitRootCmd split.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "relayer",
		Short: "USDC lock-and-release bridge relayer",
	}

	rootCmd.AddCommand(NewStartCmd())
	return rootCmd
}
