package cmd

import (
	"github.com/spf13/cobra"
)

// eraseCmd represents the erase command
var eraseCmd = &cobra.Command{
	Use:   "erase",
	Short: "Erase the whole chip",
	RunE: func(cmd *cobra.Command, args []string) error {
		prog, closeSession, err := openSession()
		if err != nil {
			return err
		}
		defer closeSession()

		if err := prog.Erase(); err != nil {
			return err
		}
		log.Info("Erasure succeeded.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eraseCmd)
}
