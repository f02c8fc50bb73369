package programmer

import "time"

// Config holds the programmer configuration.
type Config struct {
	// ProgressCallback is called during bulk transfers (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// ICSP selects in-circuit programming: socket prompts are skipped
	// and the power sequence is remapped onto the ICSP connector
	ICSP bool

	// SettleDelay is the pause after a chip is seated in the socket
	SettleDelay time.Duration
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		SettleDelay: time.Second,
	}
}

// Option is a functional option for configuring the Programmer.
type Option func(*Config)

// WithProgressCallback sets a callback to track bulk transfer progress.
//
// Example:
//
//	prog := programmer.New(port,
//	    programmer.WithProgressCallback(func(p programmer.Progress) {
//	        fmt.Fprintf(os.Stderr, "%s %d/%d\r", p.Phase, p.Done, p.Total)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for the programmer operations.
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithICSP selects in-circuit programming mode.
func WithICSP(icsp bool) Option {
	return func(c *Config) {
		c.ICSP = icsp
	}
}

// WithSettleDelay sets the pause between chip insertion and the first
// programming voltage change.
func WithSettleDelay(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.SettleDelay = d
		}
	}
}
