package apu

import (
	"encoding/binary"
	"sync/atomic"
)

// Output hands finished tick buffers from the simulation thread to the audio
// callback. The synth only publishes complete buffers and never touches them
// afterwards; the reader only ever sees whole buffers. When the reader falls
// behind, the oldest queued buffer is dropped.
type Output struct {
	queue chan []int16
	cur   []int16 // reader side only
	muted atomic.Bool

	underruns atomic.Int64
	dropped   atomic.Int64
}

// NewOutput queues up to depth tick buffers.
func NewOutput(depth int) *Output {
	if depth < 2 {
		depth = 2
	}
	return &Output{queue: make(chan []int16, depth)}
}

func (o *Output) publish(buf []int16) {
	for {
		select {
		case o.queue <- buf:
			return
		default:
		}
		select {
		case <-o.queue:
			o.dropped.Add(1)
		default:
		}
	}
}

func (o *Output) SetMuted(m bool) { o.muted.Store(m) }
func (o *Output) Muted() bool     { return o.muted.Load() }

// Underruns counts reads that had to be padded with silence.
func (o *Output) Underruns() int64 { return o.underruns.Load() }

// Dropped counts buffers discarded because the reader fell behind.
func (o *Output) Dropped() int64 { return o.dropped.Load() }

// Read implements io.Reader as 16-bit little-endian interleaved stereo. It
// never blocks: missing samples are filled with silence.
func (o *Output) Read(p []byte) (int, error) {
	n := len(p) &^ 3
	if n == 0 {
		clear(p)
		return len(p), nil
	}
	i := 0
	for i < n {
		if len(o.cur) == 0 {
			select {
			case buf := <-o.queue:
				o.cur = buf
			default:
			}
		}
		if len(o.cur) == 0 {
			clear(p[i:n])
			o.underruns.Add(1)
			break
		}
		for i+3 < n && len(o.cur) >= 2 {
			l, r := o.cur[0], o.cur[1]
			if o.muted.Load() {
				l, r = 0, 0
			}
			binary.LittleEndian.PutUint16(p[i:], uint16(l))
			binary.LittleEndian.PutUint16(p[i+2:], uint16(r))
			o.cur = o.cur[2:]
			i += 4
		}
	}
	return n, nil
}
