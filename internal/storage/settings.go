package storage

import (
	"errors"
	"os"
)

// Settings are the host preferences kept between runs.
type Settings struct {
	Version  int     `json:"version"`
	Scale    int     `json:"scale"`
	Palette  string  `json:"palette"`
	Volume   float64 `json:"volume"`
	Muted    bool    `json:"muted"`
	Record   bool    `json:"record"`
	LastCart string  `json:"lastCart,omitempty"`
	Slot     int     `json:"slot"`
}

func DefaultSettings() *Settings {
	return &Settings{
		Version: 1,
		Scale:   3,
		Palette: "default",
		Volume:  1.0,
		Record:  true,
	}
}

// normalize repairs values a hand-edited file may have broken.
func (s *Settings) normalize() {
	d := DefaultSettings()
	if s.Version <= 0 {
		s.Version = d.Version
	}
	if s.Scale <= 0 || s.Scale > 10 {
		s.Scale = d.Scale
	}
	if s.Palette == "" {
		s.Palette = d.Palette
	}
	if s.Volume < 0 || s.Volume > 1 {
		s.Volume = d.Volume
	}
	if s.Slot < 0 || s.Slot >= Slots {
		s.Slot = 0
	}
}

// LoadSettings reads settings from path. A missing file yields defaults; a
// corrupted one is an error.
func LoadSettings(path string) (*Settings, error) {
	s := DefaultSettings()
	if err := ReadJSON(path, s); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultSettings(), nil
		}
		return nil, err
	}
	s.normalize()
	return s, nil
}

func SaveSettings(path string, s *Settings) error {
	return AtomicWriteJSON(path, s)
}
