package cmd

import (
	"fmt"
	"os"

	"github.com/janbar/picpro150/hexfile"
	"github.com/spf13/cobra"
)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert {raw2hex|hex2raw}",
	Short: "Convert between raw binary and Intel HEX",
	Long: `hex2raw extracts the --range window of the -i HEX file to a raw -o
file, filling holes with the --blank word. raw2hex wraps up to the
--range window of the raw -i file into a HEX segment at the range
start. --swab swaps byte pairs either way.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if args[0] != "raw2hex" && args[0] != "hex2raw" {
			return fmt.Errorf("invalid argument (%s)", args[0])
		}

		beg, end, err := parseRange()
		if err != nil {
			return err
		}
		if flagInput == "" || flagOutput == "" || end == 0 {
			return fmt.Errorf("missing arguments")
		}
		blank, err := parseBlank()
		if err != nil {
			return err
		}

		if args[0] == "hex2raw" {
			store, err := hexfile.Parse(flagInput)
			if err != nil {
				return err
			}
			log.Infof("Converting HEX segment from address %X to raw data.", beg)

			// range ends are included, i.e. 0000-0FFF counts 0x1000 bytes
			data := store.Range(beg, (end-beg+1)/2, blank, flagSwab)
			if err := os.WriteFile(flagOutput, data, 0644); err != nil {
				return err
			}
		} else {
			raw, err := os.ReadFile(flagInput)
			if err != nil {
				return err
			}
			log.Infof("Converting raw data to HEX at address %X.", beg)

			size := 2 * ((end - beg + 1) / 2)
			if len(raw) > size {
				raw = raw[:size]
			}
			if len(raw)%2 != 0 {
				return fmt.Errorf("the bytes count must be even (%d)", len(raw))
			}

			store := hexfile.NewStore()
			if err := store.LoadRaw(beg, raw, flagSwab); err != nil {
				return err
			}
			if err := store.Save(flagOutput); err != nil {
				return err
			}
		}

		log.Info("Operation succeeded.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
}
