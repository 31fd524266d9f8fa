// Package wavdump captures the synth's output to a WAV file. Samples are
// buffered in memory and written when the writer is closed, so it suits
// headless runs and tests rather than long sessions.
package wavdump

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/logger"
)

const (
	channels = 2
	bitDepth = 16
	pcm      = 1 // WAVE_FORMAT_PCM
)

// Writer accumulates interleaved stereo int16 frames.
type Writer struct {
	filename   string
	sampleRate int
	samples    []int
}

func New(filename string, sampleRate int) *Writer {
	return &Writer{filename: filename, sampleRate: sampleRate}
}

// Append takes one buffer from the synth. It matches apu.Synth.SetTap.
func (w *Writer) Append(buf []int16) {
	for _, v := range buf {
		w.samples = append(w.samples, int(v))
	}
}

// Frames is the number of stereo frames captured so far.
func (w *Writer) Frames() int { return len(w.samples) / channels }

// Close writes the file.
func (w *Writer) Close() (rerr error) {
	f, err := os.Create(w.filename)
	if err != nil {
		return fmt.Errorf("wavdump: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil && rerr == nil {
			rerr = fmt.Errorf("wavdump: %w", err)
		}
	}()
	logger.Logf("wavdump", "writing %d frames to %s", w.Frames(), w.filename)
	return Encode(f, w.sampleRate, w.samples)
}

// Encode writes interleaved stereo 16-bit samples as a PCM WAV stream.
func Encode(ws io.WriteSeeker, sampleRate int, samples []int) error {
	enc := wav.NewEncoder(ws, sampleRate, bitDepth, channels, pcm)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wavdump: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("wavdump: %w", err)
	}
	return nil
}
