// Command relayer runs the USDC lock-and-release bridge relayer: the
// gateway's stake call surface, and one direction.Runner per configured
// direction (E2S, S2E), grounded on cmd/puniversald's cobra root-command
// bootstrap (NewRootCmd + .env loading) generalized to the relayer's
// single "start" operation.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(rootCmd.OutOrStderr(), err)
		os.Exit(1)
	}
}
