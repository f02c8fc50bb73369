package cmd

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/janbar/picpro150/chipdb"
	"github.com/janbar/picpro150/programmer"
	"github.com/janbar/picpro150/serialport"
	"github.com/schollz/progressbar/v3"
)

// logBridge adapts logrus to the engine's Logger interface.
type logBridge struct{}

func (logBridge) Debug(msg string, kv ...interface{}) {
	log.Debug(append([]interface{}{msg}, kv...)...)
}
func (logBridge) Info(msg string, kv ...interface{}) { log.Info(append([]interface{}{msg}, kv...)...) }
func (logBridge) Error(msg string, kv ...interface{}) {
	log.Error(append([]interface{}{msg}, kv...)...)
}

// progressRenderer draws one stderr bar per transfer phase.
type progressRenderer struct {
	phase string
	bar   *progressbar.ProgressBar
}

func (r *progressRenderer) update(p programmer.Progress) {
	if r.bar == nil || r.phase != p.Phase {
		r.phase = p.Phase
		r.bar = progressbar.NewOptions(p.Total,
			progressbar.OptionSetDescription(p.Phase),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetWidth(20),
			progressbar.OptionShowBytes(true),
			progressbar.OptionClearOnFinish(),
		)
	}
	_ = r.bar.Set(p.Done)
}

// newProgrammer builds the engine on the configured serial device.
func newProgrammer() *programmer.Programmer {
	renderer := &progressRenderer{}
	return programmer.New(serialport.New(flagPort),
		programmer.WithLogger(logBridge{}),
		programmer.WithProgressCallback(renderer.update),
		programmer.WithICSP(flagICSP),
	)
}

// loadChip fetches the -t chip from the database and logs the match.
func loadChip() (*chipdb.Chip, error) {
	if flagChip == "" {
		return nil, fmt.Errorf("missing chip type, use -t")
	}
	chip, err := chipdb.Load(datPath(), flagChip)
	if err != nil {
		return nil, err
	}
	log.Infof("Chip type %s found in database with ID %s.", chip.Name, chip.ChipID)
	return chip, nil
}

// openSession loads the chip, configures the engine for it and connects
// to the board. The returned close function disconnects.
func openSession() (*programmer.Programmer, func(), error) {
	chip, err := loadChip()
	if err != nil {
		return nil, nil, err
	}

	prog := newProgrammer()
	if err := prog.Configure(chip); err != nil {
		return nil, nil, err
	}

	log.Infof("Initializing programmer on port '%s'.", flagPort)
	if err := prog.Connect(); err != nil {
		return nil, nil, err
	}
	return prog, prog.Disconnect, nil
}

// parseID decodes the --id flag: hex digits, even length, at most eight
// bytes.
func parseID() ([]byte, error) {
	if flagID == "" {
		return nil, nil
	}
	if len(flagID)%2 != 0 || len(flagID) > 16 {
		return nil, fmt.Errorf("invalid length for ID (%d)", len(flagID))
	}
	id, err := hex.DecodeString(flagID)
	if err != nil {
		return nil, fmt.Errorf("invalid format for ID (%s)", flagID)
	}
	return id, nil
}

// parseRange decodes the --range flag as BEG-END hex bounds, both
// included.
func parseRange() (beg, end int, err error) {
	if flagRange == "" {
		return 0, 0, nil
	}
	lo, hi, ok := strings.Cut(flagRange, "-")
	if !ok {
		return 0, 0, fmt.Errorf("invalid format for range (%s)", flagRange)
	}
	b, err := strconv.ParseUint(lo, 16, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range (%s)", flagRange)
	}
	e, err := strconv.ParseUint(hi, 16, 32)
	if err != nil || e <= b {
		return 0, 0, fmt.Errorf("invalid range (%s)", flagRange)
	}
	return int(b), int(e), nil
}

// parseBlank decodes the --blank flag as a 16-bit hex word.
func parseBlank() (uint16, error) {
	if flagBlank == "" {
		return 0, nil
	}
	w, err := strconv.ParseUint(flagBlank, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid format for word blank (%s)", flagBlank)
	}
	return uint16(w), nil
}

// parseRegions maps a region argument onto the selection, restricted to
// the allowed names.
func parseRegions(arg string, allowed ...string) (programmer.Regions, error) {
	ok := false
	for _, a := range allowed {
		if arg == a {
			ok = true
			break
		}
	}
	if !ok {
		return programmer.Regions{}, fmt.Errorf("invalid argument (%s)", arg)
	}

	switch arg {
	case "all":
		return programmer.Regions{ROM: true, EEPROM: true, Config: true}, nil
	case "rom":
		return programmer.Regions{ROM: true}, nil
	case "eeprom":
		return programmer.Regions{EEPROM: true}, nil
	case "config":
		return programmer.Regions{Config: true}, nil
	}
	return programmer.Regions{}, fmt.Errorf("invalid argument (%s)", arg)
}

// hexdump prints data to w in the classic offset / hex / ASCII layout.
func hexdump(w *os.File, data []byte) {
	for idx := 0; idx < len(data); idx += 16 {
		end := idx + 16
		if end > len(data) {
			end = len(data)
		}
		fmt.Fprintf(w, "%08X:  ", idx)
		for i := idx; i < idx+16; i++ {
			if i < end {
				fmt.Fprintf(w, "%02x ", data[i])
			} else {
				fmt.Fprint(w, "   ")
			}
		}
		fmt.Fprint(w, " ")
		for i := idx; i < end; i++ {
			if data[i] > 32 && data[i] < 127 {
				fmt.Fprintf(w, "%c", data[i])
			} else {
				fmt.Fprint(w, ".")
			}
		}
		fmt.Fprintln(w)
	}
}
