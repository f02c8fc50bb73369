package programmer

// Port is the byte-oriented duplex channel to the programmer board.
//
// Read blocks for at most the port's read timeout and returns the bytes
// received so far; returning 0 bytes with a nil error means the timeout
// elapsed quietly and is not a failure. Any non-nil error is fatal to
// the session.
//
// Implementations are expected to configure the link as 19200 baud
// 8-N-1 without flow control, and Reset must pulse the modem control
// lines so the board's controller restarts.
type Port interface {
	Open() error
	Close() error
	IsOpen() bool
	Reset() error
	Write(data []byte) error
	Read(buf []byte) (int, error)
}
