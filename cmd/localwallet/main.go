// Command localwallet runs the single-user local wallet service and offers
// offline keystore inspection.
package main

import (
	"os"

	_ "github.com/AlexZinkM/evm-local-wallet/docs"

	"github.com/awnumar/memguard"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "localwallet",
	Short: "Single-user local EVM wallet.",
	Long: "Single-user local EVM wallet.\n" +
		"\nImports a Web3 Secret Storage keystore into memory, reports balances and\n" +
		"sends ERC-20 transfers through a JSON-RPC node. Key material never touches disk.\n",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, inspectCmd)
}

func main() {
	err := rootCmd.Execute()
	memguard.Purge()
	if err != nil {
		os.Exit(1)
	}
}
