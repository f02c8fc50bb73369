package cmd

import (
	"github.com/janbar/picpro150/hexfile"
	"github.com/janbar/picpro150/programmer"
	"github.com/spf13/cobra"
)

// programCmd represents the program command
var programCmd = &cobra.Command{
	Use:   "program {all|rom|eeprom|config}",
	Short: "Program the chip from the -i HEX file and verify it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		regions, err := parseRegions(args[0], "all", "rom", "eeprom", "config")
		if err != nil {
			return err
		}

		store, err := hexfile.Parse(flagInput)
		if err != nil {
			return err
		}
		id, err := parseID()
		if err != nil {
			return err
		}

		prog, closeSession, err := openSession()
		if err != nil {
			return err
		}
		defer closeSession()

		data, err := programmer.BuildChipData(store, prog.Properties(), id)
		if err != nil {
			return err
		}

		if err := prog.ProgramChip(data, regions); err != nil {
			return err
		}
		log.Info("Operation succeeded.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(programCmd)
}
