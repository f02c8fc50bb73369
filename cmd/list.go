package cmd

import (
	"os"

	"github.com/janbar/picpro150/chipdb"
	"github.com/spf13/cobra"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list {all|<substring>}",
	Short: "List chips known to the database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := args[0]
		if filter == "all" {
			filter = ""
		}
		return chipdb.List(os.Stdout, datPath(), filter)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
