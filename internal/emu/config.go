package emu

import "time"

// Config contains settings that affect emulation behavior.
type Config struct {
	TickRate       int           // logical updates per second
	StallThreshold time.Duration // host gaps longer than this drop ticks instead of queueing them
	EventCapacity  int           // gamepad event log size
	SampleRate     int           // audio sample rate in Hz
	Palette        string        // preset applied on reset; "" keeps the console default
	Trace          bool          // echo guest trace output to stdout
}

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.TickRate <= 0 {
		c.TickRate = 10
	}
	if c.StallThreshold <= 0 {
		c.StallThreshold = 200 * time.Millisecond
	}
	if c.EventCapacity <= 0 {
		c.EventCapacity = 4096
	}
	if c.SampleRate <= 0 {
		c.SampleRate = 44100
	}
}

// TickDuration is the fixed scheduler quantum.
func (c Config) TickDuration() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}
