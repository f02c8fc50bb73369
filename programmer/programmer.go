package programmer

import (
	"fmt"

	"github.com/janbar/picpro150/chipdb"
	"github.com/janbar/picpro150/protocol"
)

// readRetryLimit bounds how many empty port reads are tolerated before a
// command is declared dead. At a 100 ms port timeout this is about five
// seconds.
const readRetryLimit = 50

// Programmer drives one P18A board over a serial port.
//
// A Programmer is strictly sequential: one command is on the wire at a
// time and every intermediate acknowledgement is drained before the next
// command starts. It is not safe for concurrent use.
type Programmer struct {
	port   Port
	config Config

	version   protocol.Version
	protoName string
	props     *Properties

	connected bool
	vppOn     bool
}

// New creates a new Programmer on the given port.
//
// Example:
//
//	port := serialport.New("/dev/ttyUSB0")
//	prog := programmer.New(port,
//	    programmer.WithLogger(myLogger),
//	    programmer.WithICSP(true),
//	)
func New(port Port, opts ...Option) *Programmer {
	if port == nil {
		panic("port cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Programmer{
		port:   port,
		config: cfg,
	}
}

// Connect opens and resets the port, consumes the power-on handshake and
// verifies the board speaks the supported protocol.
func (p *Programmer) Connect() error {
	if err := p.port.Open(); err != nil {
		return fmt.Errorf("open port: %w", err)
	}
	if err := p.port.Reset(); err != nil {
		return fmt.Errorf("reset board: %w", err)
	}

	greeting := make([]byte, 2)
	if err := p.readFull(greeting); err != nil {
		return fmt.Errorf("handshake: %w", err)
	}
	version, err := protocol.ParseVersion(greeting)
	if err != nil {
		return err
	}
	p.version = version

	if err := p.commandStart(); err != nil {
		return err
	}
	if err := p.port.Write([]byte{protocol.CmdQueryProtocol}); err != nil {
		return fmt.Errorf("query protocol: %w", err)
	}
	name := make([]byte, 4)
	if err := p.readFull(name); err != nil {
		return fmt.Errorf("query protocol: %w", err)
	}
	p.protoName = string(name)
	if p.protoName != protocol.ProtocolName {
		return &protocol.UnsupportedProtocolError{Protocol: p.protoName}
	}
	if err := p.commandEnd(); err != nil {
		return err
	}

	p.connected = true
	p.logInfo("connected", "board", p.version.Name(), "protocol", p.protoName)
	return nil
}

// Disconnect closes the port. Any running command is abandoned.
func (p *Programmer) Disconnect() {
	_ = p.port.Close()
	p.connected = false
	p.vppOn = false
}

// Version returns the board version reported on connect.
func (p *Programmer) Version() protocol.Version { return p.version }

// Protocol returns the protocol name reported on connect.
func (p *Programmer) Protocol() string { return p.protoName }

// Configure resolves the catalog record into the programming parameters
// used by all subsequent device operations.
func (p *Programmer) Configure(chip *chipdb.Chip) error {
	props, err := Resolve(chip)
	if err != nil {
		return err
	}
	p.props = props
	p.logInfo("chip configured", "chip", chip.Name, "core", props.CoreType, "bits", props.CoreBits)
	return nil
}

// Properties returns the parameters resolved by Configure, or nil.
func (p *Programmer) Properties() *Properties { return p.props }

// commandStart enters the firmware jump table: the start byte is sent,
// any number of pending handshake bytes are drained until the firmware
// signals ready, then the jump table is engaged.
func (p *Programmer) commandStart() error {
	if err := p.port.Write([]byte{protocol.CommandStart}); err != nil {
		return fmt.Errorf("command start: %w", err)
	}
	for {
		b, err := p.readByte()
		if err != nil {
			return fmt.Errorf("command start: %w", err)
		}
		if b == protocol.AckEnd {
			break
		}
	}

	if err := p.port.Write([]byte{protocol.JumpTableAck}); err != nil {
		return fmt.Errorf("command start: %w", err)
	}
	b, err := p.readByte()
	if err != nil {
		return fmt.Errorf("command start: %w", err)
	}
	if b != protocol.JumpTableAck {
		return &protocol.ProtocolError{Operation: "command start", Got: b, Want: protocol.JumpTableAck}
	}
	return nil
}

// commandEnd leaves the jump table.
func (p *Programmer) commandEnd() error {
	if err := p.port.Write([]byte{protocol.CommandStart}); err != nil {
		return fmt.Errorf("command end: %w", err)
	}
	b, err := p.readByte()
	if err != nil {
		return fmt.Errorf("command end: %w", err)
	}
	if b != protocol.AckEnd {
		return &protocol.ProtocolError{Operation: "command end", Got: b, Want: protocol.AckEnd}
	}
	return nil
}

// command brackets fn between commandStart and commandEnd. When fn fails
// the end byte is still sent on a best-effort basis so the firmware
// leaves the jump table.
func (p *Programmer) command(fn func() error) error {
	if err := p.commandStart(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		_ = p.commandEnd()
		return err
	}
	return p.commandEnd()
}

// expectAck reads one byte and matches it against want.
func (p *Programmer) expectAck(op string, want byte) error {
	b, err := p.readByte()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if b != want {
		return &protocol.ProtocolError{Operation: op, Got: b, Want: want}
	}
	return nil
}

// InitVars sends the chip's programming variables to the board. In ICSP
// mode the power sequence is remapped onto the ICSP connector.
func (p *Programmer) InitVars() error {
	if p.props == nil {
		return ErrNotConfigured
	}

	seq := byte(p.props.PowerSequence)
	if p.config.ICSP {
		seq = protocol.ICSPPowerSequence(seq)
	}
	flags := protocol.InitFlags(
		p.props.CalibrationInROM,
		p.props.BandGapFuse,
		p.props.SinglePanel18F,
		p.props.VCCVPPDelay,
	)
	msg := protocol.BuildInitVarsCmd(
		uint16(p.props.ROMSize),
		uint16(p.props.EEPROMSize),
		p.props.CoreType,
		flags,
		byte(p.props.ProgramDelay),
		seq,
		byte(p.props.EraseMode),
		byte(p.props.ProgramTries),
		byte(p.props.PanelSizing),
	)

	return p.command(func() error {
		if err := p.port.Write(msg); err != nil {
			return fmt.Errorf("init variables: %w", err)
		}
		return p.expectAck("init variables", protocol.AckInit)
	})
}

// SetVoltages switches the programming voltages on or off.
func (p *Programmer) SetVoltages(on bool) error {
	op, want := byte(protocol.CmdVoltagesOff), byte(protocol.AckVoltagesOff)
	if on {
		op, want = protocol.CmdVoltagesOn, protocol.AckVoltagesOn
	}

	err := p.command(func() error {
		if err := p.port.Write([]byte{op}); err != nil {
			return fmt.Errorf("set voltages: %w", err)
		}
		return p.expectAck("set voltages", want)
	})
	if err != nil {
		return err
	}
	p.vppOn = on
	return nil
}

// CycleVoltages switches the programming voltages off then on again.
func (p *Programmer) CycleVoltages() error {
	err := p.command(func() error {
		if err := p.port.Write([]byte{protocol.CmdCycleVoltages}); err != nil {
			return fmt.Errorf("cycle voltages: %w", err)
		}
		return p.expectAck("cycle voltages", protocol.AckVoltagesOn)
	})
	if err != nil {
		p.vppOn = false
		return err
	}
	p.vppOn = true
	return nil
}

// ProgramROM writes data into program memory. The buffer must be a
// multiple of the ROM chunk size and fit the chip; the word layout is
// little-endian as the device expects.
func (p *Programmer) ProgramROM(data []byte) error {
	p.mustVPP()

	words := len(data) / 2
	if words > p.props.ROMSize || len(data)%protocol.ROMChunkSize != 0 {
		return &SizeError{Region: "ROM", Size: len(data)}
	}

	return p.command(func() error {
		if err := p.port.Write(protocol.BuildProgramROMCmd(uint16(words))); err != nil {
			return fmt.Errorf("program ROM: %w", err)
		}
		if err := p.expectAck("program ROM", protocol.AckOK); err != nil {
			return err
		}

		for v := 0; v < len(data); v += protocol.ROMChunkSize {
			if err := p.port.Write(data[v : v+protocol.ROMChunkSize]); err != nil {
				return fmt.Errorf("program ROM: %w", err)
			}
			if err := p.expectAck("program ROM", protocol.AckOK); err != nil {
				return err
			}
			p.reportProgress(Progress{Phase: "programming ROM", Done: v + protocol.ROMChunkSize, Total: len(data)})
		}

		return p.expectAck("program ROM", protocol.AckDone)
	})
}

// ProgramEEPROM writes data into data memory. The buffer length must be
// even and fit the chip.
func (p *Programmer) ProgramEEPROM(data []byte) error {
	p.mustVPP()

	if len(data) > p.props.EEPROMSize || len(data)%2 != 0 {
		return &SizeError{Region: "EEPROM", Size: len(data)}
	}

	return p.command(func() error {
		if err := p.port.Write(protocol.BuildProgramEEPROMCmd(uint16(len(data)))); err != nil {
			return fmt.Errorf("program EEPROM: %w", err)
		}
		if err := p.expectAck("program EEPROM", protocol.AckOK); err != nil {
			return err
		}

		for v := 0; v < len(data); v += protocol.EEPROMChunkSize {
			if err := p.port.Write(data[v : v+protocol.EEPROMChunkSize]); err != nil {
				return fmt.Errorf("program EEPROM: %w", err)
			}
			if err := p.expectAck("program EEPROM", protocol.AckOK); err != nil {
				return err
			}
			p.reportProgress(Progress{Phase: "programming EEPROM", Done: v + protocol.EEPROMChunkSize, Total: len(data)})
		}

		if err := p.port.Write([]byte{0, 0}); err != nil {
			return fmt.Errorf("program EEPROM: %w", err)
		}
		return p.expectAck("program EEPROM", protocol.AckDone)
	})
}

// ProgramConfig writes the ID bytes and fuse words.
func (p *Programmer) ProgramConfig(id []byte, fuses []uint16) error {
	p.mustVPP()

	msg, err := protocol.BuildConfigCmd(p.props.CoreBits, id, fuses)
	if err != nil {
		return err
	}

	return p.command(func() error {
		if err := p.port.Write(msg); err != nil {
			return fmt.Errorf("program config: %w", err)
		}
		return p.expectAck("program config", protocol.AckOK)
	})
}

// CommitFuses18F finalizes the fuses after config programming. It is a
// no-op for anything but 16-bit cores.
func (p *Programmer) CommitFuses18F() error {
	p.mustVPP()

	if p.props.CoreBits != 16 {
		return nil
	}
	return p.command(func() error {
		if err := p.port.Write([]byte{protocol.CmdCommitFuses18F}); err != nil {
			return fmt.Errorf("commit fuses: %w", err)
		}
		return p.expectAck("commit fuses", protocol.AckOK)
	})
}

// ProgramCalibration writes the calibration word and its fuse.
func (p *Programmer) ProgramCalibration(cal, fuse uint16) error {
	p.mustVPP()

	return p.command(func() error {
		if err := p.port.Write(protocol.BuildCalibrationCmd(cal, fuse)); err != nil {
			return fmt.Errorf("program calibration: %w", err)
		}
		b, err := p.readByte()
		if err != nil {
			return fmt.Errorf("program calibration: %w", err)
		}
		switch b {
		case protocol.AckOK:
			return nil
		case protocol.AckConfig:
			return protocol.ErrCalibrationFailed
		case protocol.AckFuseFail:
			return protocol.ErrFuseFailed
		default:
			return &protocol.ProtocolError{Operation: "program calibration", Got: b, Want: protocol.AckOK}
		}
	})
}

// EraseChip performs a full chip erase.
func (p *Programmer) EraseChip() error {
	p.mustVPP()

	return p.command(func() error {
		if err := p.port.Write([]byte{protocol.CmdEraseChip}); err != nil {
			return fmt.Errorf("erase chip: %w", err)
		}
		return p.expectAck("erase chip", protocol.AckOK)
	})
}

// BlankCheckROMDirect asks the firmware whether program memory is blank.
// Known firmware revisions answer unreliably; the orchestrated blank
// check reads the memory back instead. Kept as a diagnostic.
func (p *Programmer) BlankCheckROMDirect() (bool, error) {
	if p.props == nil {
		return false, ErrNotConfigured
	}

	blank := false
	err := p.command(func() error {
		if err := p.port.Write(protocol.BuildBlankCheckROMCmd(p.props.ROMBlank)); err != nil {
			return fmt.Errorf("blank check ROM: %w", err)
		}
		for {
			b, err := p.readByte()
			if err != nil {
				return fmt.Errorf("blank check ROM: %w", err)
			}
			switch b {
			case protocol.AckBusy:
				continue
			case protocol.AckOK:
				blank = true
				return nil
			case protocol.AckNo:
				return nil
			default:
				return &protocol.ProtocolError{Operation: "blank check ROM", Got: b, Want: protocol.AckOK}
			}
		}
	})
	return blank, err
}

// BlankCheckEEPROMDirect asks the firmware whether data memory is blank.
// Diagnostic only, see BlankCheckROMDirect.
func (p *Programmer) BlankCheckEEPROMDirect() (bool, error) {
	blank := false
	err := p.command(func() error {
		if err := p.port.Write([]byte{protocol.CmdBlankCheckEEPROM}); err != nil {
			return fmt.Errorf("blank check EEPROM: %w", err)
		}
		b, err := p.readByte()
		if err != nil {
			return fmt.Errorf("blank check EEPROM: %w", err)
		}
		switch b {
		case protocol.AckOK:
			blank = true
			return nil
		case protocol.AckNo:
			return nil
		default:
			return &protocol.ProtocolError{Operation: "blank check EEPROM", Got: b, Want: protocol.AckOK}
		}
	})
	return blank, err
}

// ReadConfig reads the chip's configuration space. On a refused command
// the programming voltages are switched off before reporting, so a chip
// is never left powered in a half-known state.
func (p *Programmer) ReadConfig() (*protocol.ChipConfig, error) {
	p.mustVPP()

	if err := p.commandStart(); err != nil {
		return nil, err
	}
	if err := p.port.Write([]byte{protocol.CmdReadConfig}); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	b, err := p.readByte()
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if b != protocol.AckConfig {
		_ = p.commandEnd()
		_ = p.SetVoltages(false)
		return nil, &protocol.ProtocolError{Operation: "read config", Got: b, Want: protocol.AckConfig}
	}

	buf := make([]byte, protocol.ConfigResponseSize)
	if err := p.readFull(buf); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := p.commandEnd(); err != nil {
		return nil, err
	}
	return protocol.ParseConfigResponse(buf)
}

// ReadROM streams back the whole program memory, 2 bytes per word in
// device order.
func (p *Programmer) ReadROM() ([]byte, error) {
	p.mustVPP()

	data := make([]byte, 2*p.props.ROMSize)
	err := p.command(func() error {
		if err := p.port.Write([]byte{protocol.CmdReadROM}); err != nil {
			return fmt.Errorf("read ROM: %w", err)
		}
		return p.readBulk(data, "reading ROM")
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// ReadEEPROM streams back the whole data memory.
func (p *Programmer) ReadEEPROM() ([]byte, error) {
	p.mustVPP()

	data := make([]byte, p.props.EEPROMSize)
	err := p.command(func() error {
		if err := p.port.Write([]byte{protocol.CmdReadEEPROM}); err != nil {
			return fmt.Errorf("read EEPROM: %w", err)
		}
		return p.readBulk(data, "reading EEPROM")
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// WaitChipInSocket blocks until the user seats a chip. Chips without a
// socket hint are wired, not seated, and return immediately.
func (p *Programmer) WaitChipInSocket() error {
	return p.waitSocket(protocol.CmdWaitChipInserted, "wait chip inserted")
}

// WaitChipOutOfSocket blocks until the socket is empty.
func (p *Programmer) WaitChipOutOfSocket() error {
	return p.waitSocket(protocol.CmdWaitChipRemoved, "wait chip removed")
}

func (p *Programmer) waitSocket(op byte, name string) error {
	if p.props == nil {
		return ErrNotConfigured
	}
	if p.props.SocketHint == "" {
		return nil
	}

	return p.command(func() error {
		if err := p.port.Write([]byte{op}); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		b, err := p.readByte()
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if b != protocol.AckWaiting {
			return &protocol.ProtocolError{Operation: name, Got: b, Want: protocol.AckWaiting}
		}
		// the result byte arrives whenever the user acts
		b, err = p.waitByte()
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if b != protocol.AckOK {
			return &protocol.ProtocolError{Operation: name, Got: b, Want: protocol.AckOK}
		}
		return nil
	})
}

// mustVPP guards the device-touching commands; driving them without the
// programming voltages is a caller bug, not a runtime condition.
func (p *Programmer) mustVPP() {
	if !p.vppOn {
		panic("programming voltages must be on")
	}
	if p.props == nil {
		panic("no chip is configured")
	}
}

// readFull fills buf, looping over the port's short read timeouts. The
// retry budget resets whenever bytes arrive.
func (p *Programmer) readFull(buf []byte) error {
	got := 0
	attempts := 0
	for got < len(buf) {
		n, err := p.port.Read(buf[got:])
		if err != nil {
			return err
		}
		if n == 0 {
			attempts++
			if attempts >= readRetryLimit {
				return ErrReadTimeout
			}
			continue
		}
		attempts = 0
		got += n
	}
	p.logWire(buf)
	return nil
}

// readBulk fills buf like readFull while reporting progress.
func (p *Programmer) readBulk(buf []byte, phase string) error {
	got := 0
	attempts := 0
	for got < len(buf) {
		n, err := p.port.Read(buf[got:])
		if err != nil {
			return err
		}
		if n == 0 {
			attempts++
			if attempts >= readRetryLimit {
				return ErrReadTimeout
			}
			continue
		}
		attempts = 0
		got += n
		p.reportProgress(Progress{Phase: phase, Done: got, Total: len(buf)})
	}
	return nil
}

// readByte reads a single byte within the retry budget.
func (p *Programmer) readByte() (byte, error) {
	var b [1]byte
	if err := p.readFull(b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// waitByte reads a single byte with no retry budget; used where the
// firmware answers only after a user action.
func (p *Programmer) waitByte() (byte, error) {
	var b [1]byte
	for {
		n, err := p.port.Read(b[:])
		if err != nil {
			return 0, err
		}
		if n > 0 {
			p.logWire(b[:])
			return b[0], nil
		}
	}
}

func (p *Programmer) reportProgress(progress Progress) {
	if p.config.ProgressCallback != nil {
		p.config.ProgressCallback(progress)
	}
}

func (p *Programmer) logWire(data []byte) {
	if p.config.Logger != nil {
		p.config.Logger.Debug("recv", "data", fmt.Sprintf("% X", data))
	}
}

func (p *Programmer) logInfo(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Info(msg, keysAndValues...)
	}
}

func (p *Programmer) logError(msg string, keysAndValues ...interface{}) {
	if p.config.Logger != nil {
		p.config.Logger.Error(msg, keysAndValues...)
	}
}
