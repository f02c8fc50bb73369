// Package serialport adapts a go.bug.st/serial port to the programmer's
// Port interface: 19200 baud 8-N-1 with short blocking reads, and a
// DTR/RTS pulse reset for the board's controller.
package serialport

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// ReadTimeout bounds a single blocking read. The engine loops short
// reads until a response is complete.
const ReadTimeout = 100 * time.Millisecond

// resetPulse is how long the modem control lines are held during Reset.
const resetPulse = 100 * time.Millisecond

// Port is a serial device speaking to the programmer board.
type Port struct {
	device string
	port   serial.Port
}

// New creates a port for the named serial device, e.g. /dev/ttyUSB0.
// The device is not opened until Open.
func New(device string) *Port {
	return &Port{device: device}
}

// Open opens the device at 19200 baud, 8 data bits, no parity, one stop
// bit, and arms the read timeout.
func (p *Port) Open() error {
	if p.port != nil {
		return nil
	}

	mode := &serial.Mode{
		BaudRate: 19200,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(p.device, mode)
	if err != nil {
		return fmt.Errorf("open %s: %w", p.device, err)
	}
	if err := port.SetReadTimeout(ReadTimeout); err != nil {
		_ = port.Close()
		return fmt.Errorf("set read timeout: %w", err)
	}

	p.port = port
	return nil
}

// Close closes the device. Closing a closed port is a no-op.
func (p *Port) Close() error {
	if p.port == nil {
		return nil
	}
	err := p.port.Close()
	p.port = nil
	return err
}

// IsOpen reports whether the device is open.
func (p *Port) IsOpen() bool {
	return p.port != nil
}

// Reset pulses DTR and RTS to restart the board's controller. Stale
// input is dropped first so the next bytes read are the power-on
// greeting.
func (p *Port) Reset() error {
	if p.port == nil {
		return fmt.Errorf("port %s is not open", p.device)
	}

	if err := p.port.ResetInputBuffer(); err != nil {
		return fmt.Errorf("reset input buffer: %w", err)
	}
	if err := p.port.SetDTR(true); err != nil {
		return fmt.Errorf("set DTR: %w", err)
	}
	if err := p.port.SetRTS(true); err != nil {
		return fmt.Errorf("set RTS: %w", err)
	}
	time.Sleep(resetPulse)
	if err := p.port.SetDTR(false); err != nil {
		return fmt.Errorf("clear DTR: %w", err)
	}
	if err := p.port.SetRTS(false); err != nil {
		return fmt.Errorf("clear RTS: %w", err)
	}
	return nil
}

// Write queues data on the transmit stream.
func (p *Port) Write(data []byte) error {
	if p.port == nil {
		return fmt.Errorf("port %s is not open", p.device)
	}
	for len(data) > 0 {
		n, err := p.port.Write(data)
		if err != nil {
			return fmt.Errorf("write %s: %w", p.device, err)
		}
		data = data[n:]
	}
	return nil
}

// Read blocks up to the read timeout. Returning 0 bytes without error
// means nothing arrived in time.
func (p *Port) Read(buf []byte) (int, error) {
	if p.port == nil {
		return 0, fmt.Errorf("port %s is not open", p.device)
	}
	return p.port.Read(buf)
}
