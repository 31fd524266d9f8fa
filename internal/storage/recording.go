package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/input"
)

// Recording file extensions. Anything that is not Z85 text or JSON is read
// as raw wire bytes.
const (
	ExtWire = ".bin"
	ExtZ85  = ".z85"
	ExtJSON = ".json"
)

// recordingJSON is the human-readable export.
type recordingJSON struct {
	Count  int           `json:"count"`
	Events []input.Event `json:"events"`
}

// maxRecordingFile bounds a recording read from disk. A full default log is
// well under this in either form.
const maxRecordingFile = 1 << 20

var ErrRecordingTooLarge = errors.New("recording file too large")

// WriteRecording stores events at path in the format its extension names:
// Z85 text for .z85, readable JSON for .json, wire bytes otherwise.
func WriteRecording(path string, events []input.Event) error {
	switch ext := filepath.Ext(path); {
	case strings.EqualFold(ext, ExtZ85):
		return AtomicWrite(path, []byte(input.MarshalZ85(events)+"\n"))
	case strings.EqualFold(ext, ExtJSON):
		if events == nil {
			events = []input.Event{}
		}
		return AtomicWriteJSON(path, recordingJSON{Count: len(events), Events: events})
	default:
		return AtomicWrite(path, input.Marshal(events))
	}
}

// ReadRecording loads a file written by WriteRecording.
func ReadRecording(path string) ([]input.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxRecordingFile+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxRecordingFile {
		return nil, fmt.Errorf("%w: %s", ErrRecordingTooLarge, path)
	}
	return ParseRecording(filepath.Ext(path), data)
}

// ParseRecording decodes recording bytes. ext selects the format the way
// file names do; text input with an unknown extension is tried as Z85.
func ParseRecording(ext string, data []byte) ([]input.Event, error) {
	switch {
	case strings.EqualFold(ext, ExtJSON):
		var r recordingJSON
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("recording: %w", err)
		}
		if r.Count != len(r.Events) {
			return nil, fmt.Errorf("%w: count %d, %d events", input.ErrWireLength, r.Count, len(r.Events))
		}
		return r.Events, nil
	case strings.EqualFold(ext, ExtZ85) || (ext == "" && isText(data)):
		return input.UnmarshalZ85(strings.TrimSpace(string(data)))
	default:
		return input.Unmarshal(data)
	}
}

func isText(data []byte) bool {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || len(data)%5 != 0 {
		return false
	}
	for _, c := range data {
		if c < 0x21 || c > 0x7e {
			return false
		}
	}
	return true
}
