package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// isblankCmd represents the isblank command
var isblankCmd = &cobra.Command{
	Use:   "isblank {rom|eeprom}",
	Short: "Check a memory region is in the erased state",
	Long: `Read the selected region and compare it against the erased image.
The firmware's own blank check answers unreliably on observed hardware,
so the check always reads the memory back. Prints TRUE or FALSE.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		regions, err := parseRegions(args[0], "rom", "eeprom")
		if err != nil {
			return err
		}

		prog, closeSession, err := openSession()
		if err != nil {
			return err
		}
		defer closeSession()

		result, err := prog.BlankCheck(regions)
		if err != nil {
			return err
		}

		blank := result.ROM
		if regions.EEPROM {
			blank = result.EEPROM
		}
		if blank {
			fmt.Println("TRUE")
		} else {
			fmt.Println("FALSE")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(isblankCmd)
}
