package apu

import "math"

// DefaultSampleRate is used when the host does not ask for another rate.
const DefaultSampleRate = 44100

// Channels: two pulse waves, a triangle and noise.
const (
	ChPulse1 = iota
	ChPulse2
	ChTriangle
	ChNoise
	channelCount
)

// Pan positions.
const (
	PanCenter = 0
	PanLeft   = 1
	PanRight  = 2
)

const maxVolume = 0.25 // per channel, so four channels at peak cannot clip

var dutyTable = [4]float64{0.125, 0.25, 0.5, 0.75}

// Tone is a decoded tone() call.
type Tone struct {
	Freq1, Freq2 float64 // Hz; Freq2 == 0 means no slide
	Attack       uint8   // ticks
	Decay        uint8
	Sustain      uint8
	Release      uint8
	Peak         uint8 // 0..100
	Level        uint8 // sustain level, 0..100
	Channel      int
	Duty         int // pulse channels only
	Pan          int
	Note         bool
}

// DecodeTone unpacks the four tone() arguments.
func DecodeTone(frequency, duration, volume, flags uint32) Tone {
	t := Tone{
		Sustain: uint8(duration),
		Release: uint8(duration >> 8),
		Decay:   uint8(duration >> 16),
		Attack:  uint8(duration >> 24),
		Level:   min(uint8(volume), 100),
		Peak:    min(uint8(volume>>8), 100),
		Channel: int(flags & 0x3),
		Duty:    int(flags>>2) & 0x3,
		Pan:     int(flags>>4) & 0x3,
		Note:    flags&0x40 != 0,
	}
	f1, f2 := frequency&0xffff, frequency>>16
	if t.Note {
		t.Freq1 = midiFreq(uint8(f1), uint8(f1>>8))
		if f2 != 0 {
			t.Freq2 = midiFreq(uint8(f2), uint8(f2>>8))
		}
	} else {
		t.Freq1, t.Freq2 = float64(f1), float64(f2)
	}
	return t
}

// midiFreq converts a MIDI note plus a 1/256 semitone bend to Hz.
func midiFreq(note, bend uint8) float64 {
	return 440 * math.Pow(2, (float64(note)-69+float64(bend)/256)/12)
}

type channel struct {
	freq1, freq2 float64
	start        int64 // sample clock positions
	attackEnd    int64
	decayEnd     int64
	sustainEnd   int64
	releaseEnd   int64
	endTick      uint64
	peak         float64
	level        float64
	duty         float64
	pan          int
	phase        float64

	// noise only
	seed uint16
	last float64
}

// Synth renders tone() calls into interleaved stereo int16 samples, one tick
// of audio per call to Tick. It runs on the simulation thread only; finished
// buffers reach the audio callback through an Output.
type Synth struct {
	sampleRate     int
	samplesPerTick int
	clock          int64 // samples rendered so far
	ticks          uint64
	ch             [channelCount]channel
	out            *Output
	tap            func([]int16)
}

// New creates a synth rendering tickRate buffers per second.
func New(sampleRate, tickRate int) *Synth {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if tickRate <= 0 {
		tickRate = 10
	}
	s := &Synth{
		sampleRate:     sampleRate,
		samplesPerTick: sampleRate / tickRate,
		out:            NewOutput(4),
	}
	s.Reset()
	return s
}

func (s *Synth) SampleRate() int     { return s.sampleRate }
func (s *Synth) SamplesPerTick() int { return s.samplesPerTick }

// Output is the consumer side handed to the audio player.
func (s *Synth) Output() *Output { return s.out }

// SetTap registers fn to receive every rendered buffer on the simulation
// thread, in addition to the Output. Pass nil to remove it.
func (s *Synth) SetTap(fn func([]int16)) { s.tap = fn }

// Reset silences every channel.
func (s *Synth) Reset() {
	s.clock = 0
	s.ticks = 0
	for i := range s.ch {
		s.ch[i] = channel{seed: 1}
	}
}

// Play starts a tone on its channel, replacing whatever it was playing.
func (s *Synth) Play(t Tone) {
	if t.Channel < 0 || t.Channel >= channelCount {
		return
	}
	c := &s.ch[t.Channel]

	// Restart the phase only if the channel had gone quiet.
	if s.clock > c.releaseEnd && s.ticks != c.endTick {
		c.phase = 0
		if t.Channel == ChTriangle {
			c.phase = 0.25
		}
	}

	perTick := int64(s.samplesPerTick)
	c.freq1, c.freq2 = t.Freq1, t.Freq2
	c.start = s.clock
	c.attackEnd = c.start + perTick*int64(t.Attack)
	c.decayEnd = c.attackEnd + perTick*int64(t.Decay)
	c.sustainEnd = c.decayEnd + perTick*int64(t.Sustain)
	c.releaseEnd = c.sustainEnd + perTick*int64(t.Release)
	c.endTick = s.ticks + uint64(t.Attack) + uint64(t.Decay) + uint64(t.Sustain) + uint64(t.Release)
	c.level = maxVolume * float64(t.Level) / 100
	c.peak = maxVolume
	if t.Peak != 0 {
		c.peak = maxVolume * float64(t.Peak) / 100
	}
	c.pan = t.Pan
	switch t.Channel {
	case ChPulse1, ChPulse2:
		c.duty = dutyTable[t.Duty]
	case ChTriangle:
		// A short tail keeps an instant stop from clicking.
		if t.Release == 0 {
			c.releaseEnd += int64(s.sampleRate / 1000)
		}
	}
}

// Active reports whether channel i is still sounding.
func (s *Synth) Active(i int) bool {
	return i >= 0 && i < channelCount && s.clock < s.ch[i].releaseEnd
}

func ramp(clock, start, end int64, from, to float64) float64 {
	if end <= start {
		return to
	}
	t := float64(clock-start) / float64(end-start)
	return from + (to-from)*t
}

func (c *channel) frequency(clock int64) float64 {
	if c.freq2 > 0 {
		return ramp(clock, c.start, c.releaseEnd, c.freq1, c.freq2)
	}
	return c.freq1
}

func (c *channel) volume(clock int64) float64 {
	switch {
	case clock >= c.sustainEnd:
		return ramp(clock, c.sustainEnd, c.releaseEnd, c.level, 0)
	case clock >= c.decayEnd:
		return c.level
	case clock >= c.attackEnd:
		return ramp(clock, c.attackEnd, c.decayEnd, c.peak, c.level)
	default:
		return ramp(clock, c.start, c.attackEnd, 0, c.peak)
	}
}

func (s *Synth) sample(i int, c *channel) float64 {
	freq := c.frequency(s.clock)
	vol := c.volume(s.clock)
	rate := float64(s.sampleRate)

	switch i {
	case ChNoise:
		// The noise clock runs at freq^2 scaled so 1kHz-ish inputs sound right.
		c.phase += freq * freq / (1000000.0 / 44100 * rate)
		for c.phase > 0 {
			c.phase--
			c.seed ^= c.seed >> 7
			c.seed ^= c.seed << 9
			c.seed ^= c.seed >> 13
			c.last = float64(2*(c.seed&1)) - 1
		}
		return vol * c.last
	case ChTriangle:
		c.phase += freq / rate
		if c.phase >= 1 {
			c.phase -= math.Floor(c.phase)
		}
		return vol * (2*math.Abs(2*c.phase-1) - 1)
	default:
		c.phase += freq / rate
		if c.phase >= 1 {
			c.phase -= math.Floor(c.phase)
		}
		if c.phase < c.duty {
			return vol
		}
		return -vol
	}
}

// Tick renders one tick of audio, publishes it to the Output and returns it.
// The returned slice is never written again.
func (s *Synth) Tick() []int16 {
	buf := make([]int16, s.samplesPerTick*2)
	for n := 0; n < s.samplesPerTick; n++ {
		var l, r float64
		for i := range s.ch {
			c := &s.ch[i]
			if s.clock >= c.releaseEnd {
				continue
			}
			v := s.sample(i, c)
			if c.pan != PanRight {
				l += v
			}
			if c.pan != PanLeft {
				r += v
			}
		}
		buf[2*n] = toPCM(l)
		buf[2*n+1] = toPCM(r)
		s.clock++
	}
	s.ticks++
	s.out.publish(buf)
	if s.tap != nil {
		s.tap(buf)
	}
	return buf
}

func toPCM(v float64) int16 {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int16(v * 32767)
}
