package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/btcforknode/headerchain/common"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display headerchaind version",
	Long:  `Display headerchaind version.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("headerchaind version", common.Version)
	},
}
