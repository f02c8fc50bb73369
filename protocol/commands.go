package protocol

import "fmt"

// InitFlags composes the flags byte of the init-variables request.
//
// Bit assignment:
//
//	bit 0: calibration value stored in ROM
//	bit 1: band gap fuse
//	bit 2: 18F single panel access mode
//	bit 3: VCC/VPP delay
func InitFlags(calWord, bandGap, singlePanel, vccVppDelay bool) byte {
	var flags byte
	if calWord {
		flags |= 1 << 0
	}
	if bandGap {
		flags |= 1 << 1
	}
	if singlePanel {
		flags |= 1 << 2
	}
	if vccVppDelay {
		flags |= 1 << 3
	}
	return flags
}

// ICSPPowerSequence maps a power sequence code to its in-circuit
// equivalent. Sequences 2 and 4 select VPP2, which is not routed to the
// ICSP connector, so the firmware is told to use VPP1 instead.
func ICSPPowerSequence(seq byte) byte {
	switch seq {
	case 2:
		return 1
	case 4:
		return 3
	default:
		return seq
	}
}

// BuildInitVarsCmd constructs the init-variables request.
//
// Request layout:
//
//	[CMD][ROMSIZE_H][ROMSIZE_L][EESIZE_H][EESIZE_L][CORE][FLAGS]
//	[DELAY][POWERSEQ][ERASEMODE][TRIES][PANEL]
func BuildInitVarsCmd(romSize, eepromSize uint16, coreType, flags, programDelay, powerSequence, eraseMode, programTries, panelSizing byte) []byte {
	return []byte{
		CmdInitVars,
		byte(romSize >> 8), byte(romSize),
		byte(eepromSize >> 8), byte(eepromSize),
		coreType,
		flags,
		programDelay,
		powerSequence,
		eraseMode,
		programTries,
		panelSizing,
	}
}

// BuildProgramROMCmd constructs the program-ROM request header. The word
// count is followed on the wire by the data in ROMChunkSize chunks.
func BuildProgramROMCmd(wordCount uint16) []byte {
	return []byte{CmdProgramROM, byte(wordCount >> 8), byte(wordCount)}
}

// BuildProgramEEPROMCmd constructs the program-EEPROM request header. The
// byte count is followed on the wire by the data in EEPROMChunkSize chunks
// and a two-byte zero trailer.
func BuildProgramEEPROMCmd(byteCount uint16) []byte {
	return []byte{CmdProgramEEPROM, byte(byteCount >> 8), byte(byteCount)}
}

// BuildConfigCmd constructs the program-config request carrying the ID
// bytes and fuse words. The payload shape depends on the core width:
//
//	16-bit: '0' '0' ID(8, zero padded) FUSE0..FUSE6 (LE words)
//	12/14-bit: '0' '0' ID(4, zero padded) 'F' 'F' 'F' 'F' FUSE0 (LE word) 0xFF*12
//
// 16-bit cores require exactly FuseCount16 fuses; narrower cores accept
// one or two (the second is stored on chip by a separate calibration
// write and is not part of this payload).
func BuildConfigCmd(coreBits int, id []byte, fuses []uint16) ([]byte, error) {
	if len(id) > MaxIDSize {
		return nil, fmt.Errorf("ID too long: got %d bytes, maximum is %d", len(id), MaxIDSize)
	}

	msg := make([]byte, 0, 27)
	msg = append(msg, CmdProgramConfig, '0', '0')

	switch coreBits {
	case 16:
		if len(fuses) != FuseCount16 {
			return nil, &FuseCountError{CoreBits: coreBits, Count: len(fuses)}
		}
		idData := make([]byte, MaxIDSize)
		copy(idData, id)
		msg = append(msg, idData...)
		for _, f := range fuses {
			msg = append(msg, byte(f), byte(f>>8))
		}

	case 12, 14:
		// 16F88 is a 14-bit part yet carries two fuse words
		if len(fuses) == 0 || len(fuses) > MaxFuseCount14 {
			return nil, &FuseCountError{CoreBits: coreBits, Count: len(fuses)}
		}
		idData := make([]byte, 4)
		copy(idData, id)
		msg = append(msg, idData...)
		msg = append(msg, 'F', 'F', 'F', 'F')
		msg = append(msg, byte(fuses[0]), byte(fuses[0]>>8))
		for i := 0; i < 12; i++ {
			msg = append(msg, 0xFF)
		}

	default:
		return nil, fmt.Errorf("unsupported core width %d", coreBits)
	}

	return msg, nil
}

// BuildCalibrationCmd constructs the program-calibration request. Both
// words travel big-endian.
func BuildCalibrationCmd(cal, fuse uint16) []byte {
	return []byte{
		CmdProgramCalibration,
		byte(cal >> 8), byte(cal),
		byte(fuse >> 8), byte(fuse),
	}
}

// BuildBlankCheckROMCmd constructs the ROM blank check request. The
// firmware only needs the high byte of the blank word.
func BuildBlankCheckROMCmd(romBlank uint16) []byte {
	return []byte{CmdBlankCheckROM, byte(romBlank >> 8)}
}
