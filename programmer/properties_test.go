package programmer

import (
	"errors"
	"testing"

	"github.com/janbar/picpro150/chipdb"
)

func sampleChip() *chipdb.Chip {
	return &chipdb.Chip{
		Name:          "16F628",
		SocketImage:   "18PIN",
		EraseMode:     1,
		PowerSequence: "VCCVPP2",
		ProgramDelay:  10,
		ProgramTries:  2,
		OverProgram:   3,
		CoreType:      "BIT14_B",
		ROMSize:       0x800,
		EEPROMSize:    0x80,
		FuseBlank:     []uint16{0x3FFF},
		FlashChip:     true,
	}
}

func TestResolve(t *testing.T) {
	props, err := Resolve(sampleChip())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if props.CoreType != 6 || props.CoreBits != 14 {
		t.Errorf("core = %d/%d bits, want 6/14", props.CoreType, props.CoreBits)
	}
	if props.ROMBase != 0x000000 || props.EEPROMBase != 0x004200 || props.ConfigBase != 0x00400E {
		t.Errorf("bases = %06X/%06X/%06X", props.ROMBase, props.EEPROMBase, props.ConfigBase)
	}
	if props.ROMBlank != 0x3FFF {
		t.Errorf("ROMBlank = %04X, want 3FFF", props.ROMBlank)
	}
	if props.PowerSequence != 2 || props.VCCVPPDelay {
		t.Errorf("power sequence = %d delay %v, want 2 false", props.PowerSequence, props.VCCVPPDelay)
	}
	if props.SocketHint != "socket pin 2" {
		t.Errorf("SocketHint = %q, want %q", props.SocketHint, "socket pin 2")
	}
	if props.PanelSizing != 3 {
		t.Errorf("PanelSizing = %d, want 3", props.PanelSizing)
	}
	if props.SinglePanel18F {
		t.Error("SinglePanel18F set for a 14-bit core")
	}
	if !props.FlashChip {
		t.Error("FlashChip not carried over")
	}
}

func TestResolveROMBlankPerCore(t *testing.T) {
	tests := []struct {
		core string
		want uint16
	}{
		{"BIT12_A", 0x0FFF},
		{"BIT14_B", 0x3FFF},
		{"BIT16_C", 0xFFFF},
	}
	for _, tt := range tests {
		chip := sampleChip()
		chip.CoreType = tt.core
		props, err := Resolve(chip)
		if err != nil {
			t.Fatalf("Resolve(%s) error = %v", tt.core, err)
		}
		if props.ROMBlank != tt.want {
			t.Errorf("ROMBlank for %s = %04X, want %04X", tt.core, props.ROMBlank, tt.want)
		}
	}
}

func TestResolveSinglePanelFlag(t *testing.T) {
	chip := sampleChip()
	chip.CoreType = "BIT16_A"
	props, err := Resolve(chip)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !props.SinglePanel18F {
		t.Error("SinglePanel18F not set for BIT16_A")
	}

	chip.CoreType = "BIT16_B"
	props, err = Resolve(chip)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if props.SinglePanel18F {
		t.Error("SinglePanel18F set for BIT16_B")
	}
}

func TestResolveFastPowerSequence(t *testing.T) {
	chip := sampleChip()
	chip.PowerSequence = "VCCFASTVPP1"
	props, err := Resolve(chip)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if props.PowerSequence != 1 || !props.VCCVPPDelay {
		t.Errorf("power sequence = %d delay %v, want 1 true", props.PowerSequence, props.VCCVPPDelay)
	}
}

func TestResolveICSPOnlyClearsSocketHint(t *testing.T) {
	chip := sampleChip()
	chip.ICSPOnly = true
	chip.SocketImage = "NOSUCH"
	props, err := Resolve(chip)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if props.SocketHint != "" {
		t.Errorf("SocketHint = %q, want empty", props.SocketHint)
	}
}

func TestResolveErrors(t *testing.T) {
	chip := sampleChip()
	chip.CoreType = "BIT18_X"
	var coreErr *UnsupportedCoreTypeError
	if _, err := Resolve(chip); !errors.As(err, &coreErr) {
		t.Errorf("expected UnsupportedCoreTypeError, got %v", err)
	}

	chip = sampleChip()
	chip.PowerSequence = "VPPVPP"
	var seqErr *UnsupportedPowerSequenceError
	if _, err := Resolve(chip); !errors.As(err, &seqErr) {
		t.Errorf("expected UnsupportedPowerSequenceError, got %v", err)
	}

	chip = sampleChip()
	chip.SocketImage = "64PIN"
	var sockErr *UnknownSocketError
	if _, err := Resolve(chip); !errors.As(err, &sockErr) {
		t.Errorf("expected UnknownSocketError, got %v", err)
	}
}
