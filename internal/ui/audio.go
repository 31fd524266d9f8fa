package ui

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// oto allows a single context per process.
var (
	otoCtx      *oto.Context
	otoInitOnce sync.Once
	otoInitErr  error
	otoRate     int
)

func ensureOtoContext(sampleRate int) (*oto.Context, error) {
	otoInitOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 2,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   50 * time.Millisecond,
		}
		var ready chan struct{}
		otoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr != nil {
			return
		}
		otoRate = sampleRate
		<-ready
	})
	if otoInitErr == nil && otoRate != sampleRate {
		return nil, fmt.Errorf("audio context already running at %d Hz", otoRate)
	}
	return otoCtx, otoInitErr
}

// monoFold reads interleaved stereo int16 frames and replaces each pair
// with its average.
type monoFold struct {
	r io.Reader
}

func (m monoFold) Read(p []byte) (int, error) {
	n, err := m.r.Read(p)
	for i := 0; i+3 < n; i += 4 {
		l := int16(binary.LittleEndian.Uint16(p[i:]))
		r := int16(binary.LittleEndian.Uint16(p[i+2:]))
		v := uint16(int16((int32(l) + int32(r)) / 2))
		binary.LittleEndian.PutUint16(p[i:], v)
		binary.LittleEndian.PutUint16(p[i+2:], v)
	}
	return n, err
}

// startAudio plays the synth's output buffer. Failure leaves the app silent.
func (a *App) startAudio() error {
	synth := a.sched.Machine().APU()
	ctx, err := ensureOtoContext(synth.SampleRate())
	if err != nil {
		return fmt.Errorf("oto audio not available: %w", err)
	}
	var src io.Reader = synth.Output()
	if !a.cfg.AudioStereo {
		src = monoFold{r: src}
	}
	a.player = ctx.NewPlayer(src)
	a.applyPlayerBufferSize()
	a.player.SetVolume(a.cfg.Volume)
	synth.Output().SetMuted(a.cfg.Muted)
	a.player.Play()
	return nil
}

// applyPlayerBufferSize trims the player's internal buffer to roughly
// AudioMs of stereo 16-bit audio.
func (a *App) applyPlayerBufferSize() {
	if a.player == nil {
		return
	}
	rate := a.sched.Machine().APU().SampleRate()
	a.player.SetBufferSize(rate * 4 * a.cfg.AudioMs / 1000)
}

func (a *App) setMuted(m bool) {
	a.cfg.Muted = m
	a.sched.Machine().APU().Output().SetMuted(m)
}

func (a *App) stopAudio() {
	if a.player != nil {
		_ = a.player.Close()
		a.player = nil
	}
}
