package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// pingCmd represents the ping command
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check the programmer answers on the serial port",
	RunE: func(cmd *cobra.Command, args []string) error {
		prog := newProgrammer()
		if err := prog.Connect(); err != nil {
			return err
		}
		defer prog.Disconnect()

		fmt.Printf("Programmer %s speaks protocol %s.\n", prog.Version().Name(), prog.Protocol())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pingCmd)
}
