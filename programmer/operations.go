package programmer

import (
	"bytes"
	"fmt"
	"time"

	"github.com/janbar/picpro150/hexfile"
	"github.com/janbar/picpro150/protocol"
)

// Regions selects which memory regions an operation touches.
type Regions struct {
	ROM    bool
	EEPROM bool
	Config bool
}

// ChipData holds the byte images shaped for the device from a segment
// store: ROM little-endian by word, EEPROM packed per core width, and
// the fuse words to program.
type ChipData struct {
	ROM    []byte
	EEPROM []byte
	ID     []byte
	Fuses  []uint16
}

// Image holds the regions read back from a chip, in device order.
type Image struct {
	ROM    []byte
	EEPROM []byte
	Config *protocol.ChipConfig
}

// BlankResult reports the outcome of a blank check per region; only the
// requested regions are meaningful.
type BlankResult struct {
	ROM    bool
	EEPROM bool
}

// BuildChipData shapes the device images for props out of a store.
//
// ROM words are stored big-endian and programmed little-endian, so the
// extraction swaps. On 12/14-bit cores the EEPROM carries one byte per
// word and only the low byte of each stored word is kept; on 16-bit
// cores the EEPROM is byte-addressable and copied as is. Fuse values
// start from the catalog blanks with word 0 overridden from the config
// segment when present.
func BuildChipData(store *hexfile.Store, props *Properties, id []byte) (*ChipData, error) {
	data := &ChipData{
		ROM: store.Range(props.ROMBase, props.ROMSize, props.ROMBlank, true),
		ID:  id,
	}

	switch props.CoreBits {
	case 12, 14:
		tmp := store.Range(props.EEPROMBase, props.EEPROMSize, 0xFFFF, false)
		data.EEPROM = make([]byte, 0, props.EEPROMSize)
		for i := 0; i < len(tmp); i += 2 {
			data.EEPROM = append(data.EEPROM, tmp[i])
		}
	case 16:
		data.EEPROM = store.Range(props.EEPROMBase, props.EEPROMSize/2, 0xFFFF, false)
	default:
		return nil, fmt.Errorf("core width %d is not supported", props.CoreBits)
	}

	data.Fuses = append([]uint16(nil), props.FuseBlank...)
	if len(data.Fuses) > 0 {
		raw := store.Range(props.ConfigBase, len(data.Fuses), props.ROMBlank, true)
		data.Fuses[0] = uint16(raw[0])<<8 | uint16(raw[1])
	}
	return data, nil
}

// Store re-encodes a read image into a segment store at the chip's base
// addresses, ready for HEX output.
func (img *Image) Store(props *Properties) (*hexfile.Store, error) {
	store := hexfile.NewStore()

	if img.ROM != nil {
		// ROM words are little-endian on the wire, swap back to storage
		if err := store.LoadRaw(props.ROMBase, img.ROM, true); err != nil {
			return nil, err
		}
	}

	if img.EEPROM != nil {
		switch props.CoreBits {
		case 12, 14:
			if err := store.LoadRawLE8(props.EEPROMBase, img.EEPROM); err != nil {
				return nil, err
			}
		case 16:
			if err := store.LoadRaw(props.EEPROMBase, img.EEPROM, false); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("core width %d is not supported", props.CoreBits)
		}
	}

	if img.Config != nil {
		fuses := make([]byte, 0, 2*len(props.FuseBlank))
		for i := range props.FuseBlank {
			fuses = append(fuses, byte(img.Config.Fuses[i]>>8), byte(img.Config.Fuses[i]))
		}
		if len(fuses) > 0 {
			if err := store.LoadRaw(props.ConfigBase, fuses, true); err != nil {
				return nil, err
			}
		}
	}

	return store, nil
}

// setupChip runs the common prelude of every device operation: load the
// programming variables, have the user seat the chip when it lives in
// the socket, and raise the programming voltages.
func (p *Programmer) setupChip() error {
	if !p.connected {
		return ErrNotConnected
	}
	if err := p.InitVars(); err != nil {
		return err
	}

	if p.config.ICSP || p.props.SocketHint == "" {
		p.logInfo("accessing chip connected to ICSP port")
	} else {
		p.logInfo("waiting for chip", "hint", "insert with pin 1 at "+p.props.SocketHint)
		if err := p.WaitChipInSocket(); err != nil {
			return err
		}
		time.Sleep(p.config.SettleDelay)
	}

	return p.SetVoltages(true)
}

// ReadChip reads the selected regions into an Image.
func (p *Programmer) ReadChip(regions Regions) (*Image, error) {
	if err := p.setupChip(); err != nil {
		return nil, err
	}

	img := &Image{}
	var firstErr error

	if regions.ROM {
		rom, err := p.ReadROM()
		if err != nil {
			firstErr = err
		}
		img.ROM = rom
	}
	if regions.EEPROM && firstErr == nil {
		eeprom, err := p.ReadEEPROM()
		if err != nil {
			firstErr = err
		}
		img.EEPROM = eeprom
	}
	if regions.Config && firstErr == nil {
		cfg, err := p.ReadConfig()
		if err != nil {
			firstErr = err
		}
		img.Config = cfg
	}

	if err := p.SetVoltages(false); err != nil && firstErr == nil {
		firstErr = err
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return img, nil
}

// Erase runs a full chip erase.
func (p *Programmer) Erase() error {
	if err := p.setupChip(); err != nil {
		return err
	}

	eraseErr := p.EraseChip()
	if eraseErr != nil {
		p.logError("erasure failed", "error", eraseErr)
	}

	if err := p.SetVoltages(false); err != nil && eraseErr == nil {
		return err
	}
	return eraseErr
}

// ProgramChip programs the selected regions from data and verifies each
// one by reading it back. A verify mismatch does not stop the remaining
// regions; it is reported at the end as a VerifyError.
//
// Flash chips being fully reprogrammed are erased first, followed by a
// voltage cycle, the way the board expects.
func (p *Programmer) ProgramChip(data *ChipData, regions Regions) error {
	if err := p.setupChip(); err != nil {
		return err
	}

	if err := p.programRegions(data, regions); err != nil {
		_ = p.SetVoltages(false)
		return err
	}

	failed, err := p.verifyRegions(data, regions, true)
	if err != nil {
		_ = p.SetVoltages(false)
		return err
	}

	if err := p.SetVoltages(false); err != nil {
		return err
	}
	if len(failed) > 0 {
		return &VerifyError{Regions: failed}
	}
	return nil
}

// VerifyChip compares the chip content against data for the selected
// regions.
func (p *Programmer) VerifyChip(data *ChipData, regions Regions) error {
	if err := p.setupChip(); err != nil {
		return err
	}

	failed, err := p.verifyRegions(data, regions, false)
	if err != nil {
		_ = p.SetVoltages(false)
		return err
	}

	if err := p.SetVoltages(false); err != nil {
		return err
	}
	if len(failed) > 0 {
		return &VerifyError{Regions: failed}
	}
	return nil
}

// BlankCheck reads the selected regions and compares them against the
// synthetic blank image. The firmware's own blank check commands answer
// unreliably on observed hardware, so they are not used here.
func (p *Programmer) BlankCheck(regions Regions) (*BlankResult, error) {
	if err := p.setupChip(); err != nil {
		return nil, err
	}

	result := &BlankResult{}
	blank := hexfile.NewStore()
	var firstErr error

	if regions.ROM {
		want := blank.Range(p.props.ROMBase, p.props.ROMSize, p.props.ROMBlank, true)
		got, err := p.ReadROM()
		if err != nil {
			firstErr = err
		} else {
			result.ROM = bytes.Equal(got, want)
		}
	}
	if regions.EEPROM && firstErr == nil && p.props.EEPROMSize > 0 {
		want := bytes.Repeat([]byte{0xFF}, p.props.EEPROMSize)
		got, err := p.ReadEEPROM()
		if err != nil {
			firstErr = err
		} else {
			result.EEPROM = bytes.Equal(got, want)
		}
	}

	if err := p.SetVoltages(false); err != nil && firstErr == nil {
		firstErr = err
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return result, nil
}

// programRegions writes the selected regions, erasing flash chips first
// when everything is being replaced.
func (p *Programmer) programRegions(data *ChipData, regions Regions) error {
	if p.props.FlashChip && regions.ROM && regions.EEPROM && regions.Config {
		p.logInfo("erasing chip")
		if err := p.EraseChip(); err != nil {
			p.logError("erasure failed", "error", err)
		}
		if err := p.CycleVoltages(); err != nil {
			return err
		}
	}

	if regions.ROM {
		p.logInfo("programming ROM")
		if err := p.ProgramROM(data.ROM); err != nil {
			p.logError("ROM programming failed", "error", err)
		}
	}
	if regions.EEPROM && p.props.EEPROMSize > 0 {
		p.logInfo("programming EEPROM")
		if err := p.ProgramEEPROM(data.EEPROM); err != nil {
			p.logError("EEPROM programming failed", "error", err)
		}
	}
	if regions.Config {
		p.logInfo("programming ID and fuses")
		if err := p.ProgramConfig(data.ID, data.Fuses); err != nil {
			p.logError("programming ID and fuses failed", "error", err)
		}
	}
	return nil
}

// verifyRegions reads back the selected regions and collects the names
// of those that do not match. With commit set, 16-bit cores get their
// fuses committed before the config read-back.
func (p *Programmer) verifyRegions(data *ChipData, regions Regions, commit bool) ([]string, error) {
	var failed []string

	if regions.ROM {
		p.logInfo("verifying ROM")
		buf, err := p.ReadROM()
		if err != nil {
			return nil, err
		}
		if !bytes.Equal(buf, data.ROM) {
			failed = append(failed, "ROM")
		}
	}

	if regions.EEPROM && p.props.EEPROMSize > 0 {
		p.logInfo("verifying EEPROM")
		buf, err := p.ReadEEPROM()
		if err != nil {
			return nil, err
		}
		if !bytes.Equal(buf, data.EEPROM) {
			failed = append(failed, "EEPROM")
		}
	}

	if regions.Config && commit {
		if p.props.CoreBits == 16 {
			p.logInfo("committing fuse data")
			if err := p.CommitFuses18F(); err != nil {
				return nil, err
			}
		}
		p.logInfo("verifying config")
		cfg, err := p.ReadConfig()
		if err != nil {
			return nil, err
		}
		for i, want := range data.Fuses {
			if cfg.Fuses[i] != want {
				failed = append(failed, "CONFIG")
				break
			}
		}
	}

	return failed, nil
}
