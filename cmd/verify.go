package cmd

import (
	"github.com/janbar/picpro150/hexfile"
	"github.com/janbar/picpro150/programmer"
	"github.com/spf13/cobra"
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify {all|rom|eeprom}",
	Short: "Compare the chip's memory against the -i HEX file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		regions, err := parseRegions(args[0], "all", "rom", "eeprom")
		if err != nil {
			return err
		}
		// config is verified while programming only
		regions.Config = false

		store, err := hexfile.Parse(flagInput)
		if err != nil {
			return err
		}

		prog, closeSession, err := openSession()
		if err != nil {
			return err
		}
		defer closeSession()

		data, err := programmer.BuildChipData(store, prog.Properties(), nil)
		if err != nil {
			return err
		}

		if err := prog.VerifyChip(data, regions); err != nil {
			return err
		}
		log.Info("Verification succeeded.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
