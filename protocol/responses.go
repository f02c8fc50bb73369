package protocol

import "fmt"

// ParseConfigResponse decodes the ConfigResponseSize-byte block returned
// after the AckConfig byte of CmdReadConfig.
//
// Block layout:
//
//	[CHIPID_L][CHIPID_H][ID0..ID7][FUSE0_L][FUSE0_H]..[FUSE6_L][FUSE6_H][CAL_L][CAL_H]
func ParseConfigResponse(data []byte) (*ChipConfig, error) {
	if len(data) != ConfigResponseSize {
		return nil, fmt.Errorf("config response must be %d bytes, got %d", ConfigResponseSize, len(data))
	}

	cfg := &ChipConfig{
		ChipID:      uint16(data[0]) | uint16(data[1])<<8,
		Calibration: uint16(data[24]) | uint16(data[25])<<8,
	}
	copy(cfg.ID[:], data[2:10])
	for i := 0; i < FuseCount16; i++ {
		cfg.Fuses[i] = uint16(data[10+2*i]) | uint16(data[11+2*i])<<8
	}
	return cfg, nil
}

// ParseVersion validates the power-on handshake and returns the version
// byte. The board greets with AckBusy followed by its hardware version.
func ParseVersion(data []byte) (Version, error) {
	if len(data) < 2 {
		return 0, fmt.Errorf("handshake must be at least 2 bytes, got %d", len(data))
	}
	if data[0] != AckBusy {
		return 0, &ProtocolError{Operation: "handshake", Got: data[0], Want: AckBusy}
	}
	return Version(data[1]), nil
}
