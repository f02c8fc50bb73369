package cmd

import (
	"fmt"
	"os"

	"github.com/janbar/picpro150/hexfile"
	"github.com/janbar/picpro150/programmer"
	"github.com/spf13/cobra"
)

// dryrunCmd represents the dryrun command
var dryrunCmd = &cobra.Command{
	Use:   "dryrun {all|rom|eeprom|config}",
	Short: "Show what program would send, without a programmer",
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
		chip, err := loadChip()
		if err != nil {
			return err
		}
		props, err := programmer.Resolve(chip)
		if err != nil {
			return err
		}
		id, err := parseID()
		if err != nil {
			return err
		}

		data, err := programmer.BuildChipData(store, props, id)
		if err != nil {
			return err
		}

		if flagICSP || props.SocketHint == "" {
			fmt.Println("\nAccessing chip connected to ICSP port.")
		} else {
			fmt.Printf("\nInsert chip into socket with pin 1 at %s.\n", props.SocketHint)
		}

		if regions.ROM {
			fmt.Printf("\nProgramming ROM (%06X : %dKB)\n", props.ROMBase, props.ROMSize>>9)
			hexdump(os.Stdout, data.ROM)
		}
		if regions.EEPROM && props.EEPROMSize > 0 {
			fmt.Printf("\nProgramming EEPROM (%06X : %dB)\n", props.EEPROMBase, props.EEPROMSize)
			hexdump(os.Stdout, data.EEPROM)
		}
		if regions.Config {
			fmt.Println("\nProgramming ID")
			hexdump(os.Stdout, data.ID)
			fmt.Printf("\nProgramming fuses (%06X : %dB)\n", props.ConfigBase, 2*len(data.Fuses))
			for _, f := range data.Fuses {
				fmt.Printf("%04X ", f)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dryrunCmd)
}
