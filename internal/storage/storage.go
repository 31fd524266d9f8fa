// Package storage keeps everything the runtime writes to disk: cart disks,
// save-state slots, gamepad recordings, screenshots and settings.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
)

const (
	disksDir       = "disks"
	statesDir      = "states"
	recordingsDir  = "recordings"
	screenshotsDir = "screenshots"
	settingsFile   = "settings.json"
)

// Slots is the number of save-state slots per cart.
const Slots = 10

var ErrSlot = errors.New("save-state slot out of range")

// Store roots all files under one directory.
type Store struct {
	root string
}

// DefaultRoot returns the per-user data directory for appName.
// Example paths:
// - macOS: ~/Library/Application Support/<appName>
// - Linux: $XDG_DATA_HOME/<appName> or ~/.local/share/<appName>
// - Windows: %APPDATA%/<appName>
func DefaultRoot(appName string) (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, "Library", "Application Support", appName), nil
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		return filepath.Join(appData, appName), nil
	default:
		if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
			return filepath.Join(dataHome, appName), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, ".local", "share", appName), nil
	}
}

// New creates the directory layout under root.
func New(root string) (*Store, error) {
	for _, dir := range []string{root, disksDir, statesDir, recordingsDir, screenshotsDir} {
		if dir != root {
			dir = filepath.Join(root, dir)
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return &Store{root: root}, nil
}

func (s *Store) Root() string { return s.root }

var unsafeID = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// cleanID maps a cart id onto a file name.
func cleanID(id string) string {
	id = unsafeID.ReplaceAllString(id, "_")
	if id == "" || id == "." || id == ".." {
		return "_"
	}
	return id
}

func (s *Store) DiskPath(cartID string) string {
	return filepath.Join(s.root, disksDir, cleanID(cartID)+".disk")
}

// LoadDisk returns the stored disk for a cart, or nil if there is none.
func (s *Store) LoadDisk(cartID string) ([]byte, error) {
	return FileDisk(s.DiskPath(cartID)).LoadDisk(cartID)
}

// SaveDisk stores a cart's disk. An empty disk removes the file.
func (s *Store) SaveDisk(cartID string, data []byte) error {
	return FileDisk(s.DiskPath(cartID)).SaveDisk(cartID, data)
}

// FileDisk stores a single disk at a fixed path, usually next to the cart.
type FileDisk string

func (f FileDisk) LoadDisk(string) ([]byte, error) {
	data, err := os.ReadFile(string(f))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

func (f FileDisk) SaveDisk(_ string, data []byte) error {
	if len(data) == 0 {
		if err := os.Remove(string(f)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
	return AtomicWrite(string(f), data)
}

func (s *Store) StatePath(cartID string, slot int) (string, error) {
	if slot < 0 || slot >= Slots {
		return "", fmt.Errorf("%w: %d", ErrSlot, slot)
	}
	return filepath.Join(s.root, statesDir, cleanID(cartID), fmt.Sprintf("slot%d.state", slot)), nil
}

func (s *Store) SaveState(cartID string, slot int, state []byte) error {
	path, err := s.StatePath(cartID, slot)
	if err != nil {
		return err
	}
	return AtomicWrite(path, state)
}

func (s *Store) LoadState(cartID string, slot int) ([]byte, error) {
	path, err := s.StatePath(cartID, slot)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// RecordingPath names a recording by cart and session seed.
func (s *Store) RecordingPath(cartID string, seed uint32, ext string) string {
	return filepath.Join(s.root, recordingsDir, fmt.Sprintf("%s-%d%s", cleanID(cartID), seed, ext))
}

func (s *Store) RecordingsDir() string { return filepath.Join(s.root, recordingsDir) }

func (s *Store) ScreenshotDir() string { return filepath.Join(s.root, screenshotsDir) }

func (s *Store) SettingsPath() string { return filepath.Join(s.root, settingsFile) }

// AtomicWrite writes data to a temporary file first, then renames it over
// path so readers never see a partial file.
func AtomicWrite(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tempFile := path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// AtomicWriteJSON writes data as indented JSON through AtomicWrite.
func AtomicWriteJSON(path string, data any) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return AtomicWrite(path, jsonData)
}

// ReadJSON reads and unmarshals a JSON file.
func ReadJSON(path string, data any) error {
	jsonData, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(jsonData, data); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}
