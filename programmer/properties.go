package programmer

import (
	"github.com/janbar/picpro150/chipdb"
)

// Properties holds the resolved numeric parameters the protocol engine
// sends to the board. Built from a catalog record by Resolve.
type Properties struct {
	SocketHint string

	ROMBase  int
	ROMSize  int
	ROMBlank uint16

	EEPROMBase int
	EEPROMSize int

	ConfigBase int

	CoreType byte
	CoreBits int

	ProgramDelay  int
	PowerSequence int
	EraseMode     int
	ProgramTries  int
	PanelSizing   int

	FuseBlank []uint16

	CalibrationInROM bool
	BandGapFuse      bool
	SinglePanel18F   bool
	VCCVPPDelay      bool
	FlashChip        bool
}

// coreType carries the memory layout of a silicon family class.
type coreType struct {
	name       string
	code       byte
	bits       int
	romBase    int
	eepromBase int
	configBase int
}

var coreTypes = []coreType{
	{"BIT16_C", 0, 16, 0x000000, 0xF00000, 0x300000},
	{"BIT16_A", 1, 16, 0x000000, 0xF00000, 0x300000},
	{"BIT16_B", 2, 16, 0x000000, 0xF00000, 0x300000},
	{"BIT14_G", 3, 14, 0x000000, 0x004200, 0x00400E},
	{"BIT12_A", 4, 12, 0x000000, 0x004200, 0x00400E},
	{"BIT14_A", 5, 14, 0x000000, 0x004200, 0x00400E},
	{"BIT14_B", 6, 14, 0x000000, 0x004200, 0x00400E},
	{"BIT14_C", 7, 14, 0x000000, 0x004200, 0x00400E},
	{"BIT12_B", 8, 14, 0x000000, 0x004200, 0x00400E},
	{"BIT14_E", 9, 14, 0x000000, 0x004200, 0x00400E},
	{"BIT14_F", 10, 14, 0x000000, 0x004200, 0x00400E},
	{"BIT12_C", 11, 12, 0x000000, 0x004200, 0x001FFE},
}

// powerSequence maps a sequence name to its wire code; the FAST variants
// additionally request a VCC/VPP delay.
type powerSequence struct {
	name  string
	code  int
	delay bool
}

var powerSequences = []powerSequence{
	{"VCC", 0, false},
	{"VCCVPP1", 1, false},
	{"VCCVPP2", 2, false},
	{"VPP1VCC", 3, false},
	{"VPP2VCC", 4, false},
	{"VCCFASTVPP1", 1, true},
	{"VCCFASTVPP2", 2, true},
}

// socketHints maps a socket image to the pin-1 instruction shown to the
// user.
var socketHints = map[string]string{
	"0PIN":   "",
	"8PIN":   "socket pin 13",
	"14PIN":  "socket pin 13",
	"18PIN":  "socket pin 2",
	"28NPIN": "socket pin 1",
	"40PIN":  "socket pin 1",
}

// Resolve maps a catalog record to the numeric Properties consumed by
// the engine. It fails on enumerator names absent from the tables.
func Resolve(chip *chipdb.Chip) (*Properties, error) {
	props := &Properties{
		ROMSize:          chip.ROMSize,
		EEPROMSize:       chip.EEPROMSize,
		ProgramDelay:     chip.ProgramDelay,
		ProgramTries:     chip.ProgramTries,
		EraseMode:        chip.EraseMode,
		PanelSizing:      chip.OverProgram,
		FuseBlank:        chip.FuseBlank,
		CalibrationInROM: chip.CalWord,
		BandGapFuse:      chip.BandGap,
		FlashChip:        chip.FlashChip,
	}

	core, ok := findCoreType(chip.CoreType)
	if !ok {
		return nil, &UnsupportedCoreTypeError{Name: chip.CoreType}
	}
	props.CoreType = core.code
	props.CoreBits = core.bits
	props.ROMBase = core.romBase
	props.EEPROMBase = core.eepromBase
	props.ConfigBase = core.configBase
	props.ROMBlank = uint16(^(0xFFFF << core.bits) & 0xFFFF)
	// only BIT16_A parts use single panel access
	props.SinglePanel18F = core.code == 1

	seq, ok := findPowerSequence(chip.PowerSequence)
	if !ok {
		return nil, &UnsupportedPowerSequenceError{Name: chip.PowerSequence}
	}
	props.PowerSequence = seq.code
	props.VCCVPPDelay = seq.delay

	if !chip.ICSPOnly {
		hint, ok := socketHints[chip.SocketImage]
		if !ok {
			return nil, &UnknownSocketError{Name: chip.SocketImage}
		}
		props.SocketHint = hint
	}

	return props, nil
}

func findCoreType(name string) (coreType, bool) {
	for _, ct := range coreTypes {
		if ct.name == name {
			return ct, true
		}
	}
	return coreType{}, false
}

func findPowerSequence(name string) (powerSequence, bool) {
	for _, ps := range powerSequences {
		if ps.name == name {
			return ps, true
		}
	}
	return powerSequence{}, false
}
