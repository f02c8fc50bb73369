package cmd

import (
	"fmt"
	"os"

	"github.com/janbar/picpro150/hexfile"
	"github.com/janbar/picpro150/programmer"
	"github.com/janbar/picpro150/protocol"
	"github.com/spf13/cobra"
)

// dumpCmd represents the dump command
var dumpCmd = &cobra.Command{
	Use:   "dump {hex|all|rom|eeprom|config}",
	Short: "Dump an input HEX file, or read the chip's memory",
	Long: `With the hex argument, parse the -i file and print its segments.
With a region argument, read that region from the chip; the result goes
to the -o HEX file, or hexdumped to standard output without -o.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if args[0] == "hex" {
			store, err := hexfile.Parse(flagInput)
			if err != nil {
				return err
			}
			for _, seg := range store.Segments() {
				fmt.Printf("%06X :\n", seg.Addr)
				hexdump(os.Stdout, seg.Data)
			}
			return nil
		}

		regions, err := parseRegions(args[0], "all", "rom", "eeprom", "config")
		if err != nil {
			return err
		}

		prog, closeSession, err := openSession()
		if err != nil {
			return err
		}
		defer closeSession()

		img, err := prog.ReadChip(regions)
		if err != nil {
			return err
		}

		if img.Config != nil {
			printConfig(prog.Properties(), img.Config)
		}

		if flagOutput != "" {
			store, err := img.Store(prog.Properties())
			if err != nil {
				return err
			}
			return store.Save(flagOutput)
		}

		if img.ROM != nil {
			hexdump(os.Stdout, img.ROM)
		}
		if img.EEPROM != nil {
			hexdump(os.Stdout, img.EEPROM)
		}
		return nil
	},
}

// printConfig reports the configuration space on stderr the way the
// read went: chip ID, ID bytes, calibration when the chip carries one,
// then the fuse words read from the chip, as many as the catalog lists.
func printConfig(props *programmer.Properties, cfg *protocol.ChipConfig) {
	fmt.Fprintf(os.Stderr, "Chip ID: %04X\n", cfg.ChipID)
	fmt.Fprintf(os.Stderr, "IDs    : % X\n", cfg.ID)
	if props.CalibrationInROM {
		fmt.Fprintf(os.Stderr, "Cal    : %04X\n", cfg.Calibration)
	}
	fmt.Fprint(os.Stderr, "Fuses  :")
	for i := range props.FuseBlank {
		fmt.Fprintf(os.Stderr, " %04X", cfg.Fuses[i])
	}
	fmt.Fprintln(os.Stderr)
}

func init() {
	rootCmd.AddCommand(dumpCmd)
}
