package ui

import "github.com/FabianRolfMatthiasNoll/FixedConsole/internal/storage"

// Config contains window/input/audio related settings.
type Config struct {
	Title       string  // window title
	Scale       int     // integer upscaling factor
	Palette     string  // palette preset name
	AudioStereo bool    // if true, output true stereo; if false, fold to mono
	AudioMs     int     // oto player buffer in ms (approx)
	Volume      float64 // 0..1
	Muted       bool
	Record      bool   // record live input from boot
	DataDir     string // root of the on-disk store
	Fullscreen  bool
	ShowFPS     bool
}

// Defaults fills missing fields with reasonable defaults.
func (c *Config) Defaults() {
	if c.Title == "" {
		c.Title = "fcrun"
	}
	if c.Scale <= 0 {
		c.Scale = 3
	}
	if c.Palette == "" {
		c.Palette = "default"
	}
	if c.AudioMs <= 0 {
		c.AudioMs = 60
	}
	if c.Volume <= 0 || c.Volume > 1 {
		c.Volume = 1
	}
}

// ApplySettings copies persisted preferences over the config.
func (c *Config) ApplySettings(s *storage.Settings) {
	c.Scale = s.Scale
	c.Palette = s.Palette
	c.Volume = s.Volume
	c.Muted = s.Muted
	c.Record = s.Record
}

// Settings returns the persisted form of the config. Fields the config does
// not own are taken from base.
func (c Config) Settings(base *storage.Settings) *storage.Settings {
	s := *base
	s.Scale = c.Scale
	s.Palette = c.Palette
	s.Volume = c.Volume
	s.Muted = c.Muted
	s.Record = c.Record
	return &s
}
