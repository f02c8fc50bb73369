// Package chipdb reads the plain-text chip parameter database shipped
// with the programmer software (picpro.dat).
//
// The file is a sequence of KEY=VALUE lines, optionally double-quoted.
// A chip record starts at a CHIPNAME line and runs to the next blank
// line; lines starting with LIST carry UI metadata and are skipped.
package chipdb

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Chip is one parsed catalog record. Fields keep the catalog's units:
// ROMSize counts words, EEPROMSize counts bytes.
type Chip struct {
	Name          string
	ChipID        string
	SocketImage   string
	EraseMode     int
	PowerSequence string
	ProgramDelay  int
	ProgramTries  int
	OverProgram   int
	CoreType      string
	ROMSize       int
	EEPROMSize    int
	FuseBlank     []uint16

	Include   bool
	FlashChip bool
	CPWarn    bool
	CalWord   bool
	BandGap   bool
	ICSPOnly  bool
}

// Load looks chipName up in the catalog at path. The match is case
// insensitive and the first matching record wins.
func Load(path, chipName string) (*Chip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open DAT file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return LoadReader(f, chipName)
}

// LoadReader looks chipName up in a catalog stream.
func LoadReader(r io.Reader, chipName string) (*Chip, error) {
	chip := &Chip{Name: strings.ToUpper(chipName)}
	found := false

	br := bufio.NewReader(r)
	for {
		line, eof := readLine(br)

		if line == "" {
			// blank separator ends the record
			if found {
				break
			}
			if eof {
				break
			}
			continue
		}

		if !strings.HasPrefix(line, "LIST") {
			if key, value, ok := splitKeyValue(line); ok {
				if !found {
					if key == "CHIPNAME" && strings.ToUpper(unwrap(value)) == chip.Name {
						found = true
					}
				} else {
					chip.setField(key, unwrap(value))
				}
			}
		}

		if eof {
			break
		}
	}

	if !found {
		return nil, &NotFoundError{Name: chip.Name}
	}
	return chip, nil
}

// List writes every CHIPNAME in the catalog at path to w, filtered by a
// case-insensitive substring match. An empty filter lists everything.
func List(w io.Writer, path, filter string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open DAT file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ListReader(w, f, filter)
}

// ListReader writes every CHIPNAME in a catalog stream to w.
func ListReader(w io.Writer, r io.Reader, filter string) error {
	filter = strings.ToUpper(filter)

	br := bufio.NewReader(r)
	for {
		line, eof := readLine(br)

		if key, value, ok := splitKeyValue(line); ok && key == "CHIPNAME" {
			name := strings.ToUpper(unwrap(value))
			if filter == "" || strings.Contains(name, filter) {
				if _, err := fmt.Fprintln(w, name); err != nil {
					return err
				}
			}
		}

		if eof {
			return nil
		}
	}
}

// setField assigns one KEY=VALUE pair. Unknown keys are ignored.
func (c *Chip) setField(key, value string) {
	switch key {
	case "CHIPID":
		c.ChipID = value
	case "SOCKETIMAGE":
		c.SocketImage = strings.ToUpper(value)
	case "ERASEMODE":
		c.EraseMode = atoi(value)
	case "POWERSEQUENCE":
		c.PowerSequence = strings.ToUpper(value)
	case "PROGRAMDELAY":
		c.ProgramDelay = atoi(value)
	case "PROGRAMTRIES":
		c.ProgramTries = atoi(value)
	case "OVERPROGRAM":
		c.OverProgram = atoi(value)
	case "CORETYPE":
		c.CoreType = strings.ToUpper(value)
	case "ROMSIZE":
		c.ROMSize = hextoi(value)
	case "EEPROMSIZE":
		c.EEPROMSize = hextoi(value)
	case "FUSEBLANK":
		c.FuseBlank = c.FuseBlank[:0]
		for _, word := range strings.Fields(value) {
			c.FuseBlank = append(c.FuseBlank, uint16(hextoi(word)))
		}
	case "INCLUDE":
		c.Include = isYes(value)
	case "FLASHCHIP":
		c.FlashChip = isYes(value)
	case "CPWARN":
		c.CPWarn = isYes(value)
	case "CALWORD":
		c.CalWord = isYes(value)
	case "BANDGAP":
		c.BandGap = isYes(value)
	case "ICSPONLY":
		c.ICSPOnly = isYes(value)
	}
}

// readLine reads one catalog line. Leading and repeated spaces collapse,
// bytes outside printable ASCII are dropped, LF ends the line. The
// second result reports end of stream.
func readLine(br *bufio.Reader) (string, bool) {
	var buf []byte
	blank := true
	for {
		c, err := br.ReadByte()
		if err != nil {
			return strings.TrimRight(string(buf), " "), true
		}
		if c == '\n' {
			return strings.TrimRight(string(buf), " "), false
		}
		if c >= 0x20 && c <= 0x7F {
			if !blank || c != ' ' {
				if c == ' ' && len(buf) > 0 && buf[len(buf)-1] == ' ' {
					continue
				}
				blank = false
				buf = append(buf, c)
			}
		}
	}
}

// splitKeyValue splits on the first '='. Keys match case-insensitively.
func splitKeyValue(line string) (key, value string, ok bool) {
	i := strings.IndexByte(line, '=')
	if i < 0 {
		return "", "", false
	}
	return strings.ToUpper(strings.TrimSpace(line[:i])), line[i+1:], true
}

// unwrap strips one level of outer double quotes.
func unwrap(s string) string {
	f := strings.IndexByte(s, '"')
	if f < 0 {
		return s
	}
	l := strings.LastIndexByte(s, '"')
	if l <= f {
		return s
	}
	return s[f+1 : l]
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

// hextoi parses a hexadecimal value written without a 0x prefix.
func hextoi(s string) int {
	n, _ := strconv.ParseInt(strings.TrimSpace(s), 16, 32)
	return int(n)
}

func isYes(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "Y")
}
