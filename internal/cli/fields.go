package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Draphar/redditrip/internal/title"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "Explain the file name template syntax",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Print(title.FormattingHelp())
	},
}

func init() {
	rootCmd.AddCommand(fieldsCmd)
}
