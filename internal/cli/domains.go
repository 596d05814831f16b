package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Draphar/redditrip/internal/fetch"
)

var domainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "List the supported media domains",
	Run: func(_ *cobra.Command, _ []string) {
		for _, domain := range fetch.SupportedDomains() {
			fmt.Println(domain)
		}
	},
}

func init() {
	rootCmd.AddCommand(domainsCmd)
}
