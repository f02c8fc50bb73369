package cmd

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version is the release string, overridable at link time.
var Version = "1.0.0"

var log = logrus.New()

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "picpro",
	Short: "Drive K128/K149/K150 serial PIC programmers",
	Long: `picpro drives the K128, K149-A, K149-B and K150 family of serial PIC
programmers: it reads, erases, blank-checks, programs and verifies a
target chip's ROM, EEPROM, configuration fuses, ID bytes and
calibration word, using the picpro.dat chip database and Intel HEX
files as the external data format.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetOutput(os.Stderr)
		log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
		if flagDebug {
			log.SetLevel(logrus.DebugLevel)
		}
	},
}

var (
	flagPort   string
	flagChip   string
	flagInput  string
	flagOutput string
	flagData   string
	flagICSP   bool
	flagSwab   bool
	flagDebug  bool
	flagID     string
	flagRange  string
	flagBlank  string
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagPort, "port", "p", "/dev/ttyUSB0", "serial device of the programmer")
	pf.StringVarP(&flagChip, "type", "t", "", "chip name, e.g. 16F628")
	pf.StringVarP(&flagInput, "input", "i", "", "input file (Intel HEX or raw)")
	pf.StringVarP(&flagOutput, "output", "o", "", "output file (Intel HEX or raw)")
	pf.StringVarP(&flagData, "data", "d", "", "chip database file (default picpro.dat next to the executable)")
	pf.BoolVar(&flagICSP, "icsp", false, "program through the ICSP connector")
	pf.BoolVar(&flagSwab, "swab", false, "swap byte pairs on raw conversion")
	pf.BoolVar(&flagDebug, "debug", false, "log wire traffic and internals")
	pf.StringVar(&flagID, "id", "", "ID bytes as hex digits, e.g. --id=01020304")
	pf.StringVar(&flagRange, "range", "", "address range as BEG-END in hex, bounds included")
	pf.StringVar(&flagBlank, "blank", "", "blank word as a hex value")
}

// Execute runs the CLI. Any failure exits non-zero.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

// datPath resolves the chip database location: the -d flag, or
// picpro.dat in the executable's directory.
func datPath() string {
	if flagData != "" {
		return flagData
	}
	exe, err := os.Executable()
	if err != nil {
		return "picpro.dat"
	}
	return filepath.Join(filepath.Dir(exe), "picpro.dat")
}
