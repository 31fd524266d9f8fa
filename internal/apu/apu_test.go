package apu

import (
	"math"
	"testing"
)

func TestDecodeTone(t *testing.T) {
	tone := DecodeTone(
		200|800<<16,
		4<<24|3<<16|2<<8|1,
		30|90<<8,
		ChTriangle|2<<2|PanLeft<<4,
	)
	if tone.Freq1 != 200 || tone.Freq2 != 800 {
		t.Fatalf("freq %v..%v", tone.Freq1, tone.Freq2)
	}
	if tone.Attack != 4 || tone.Decay != 3 || tone.Release != 2 || tone.Sustain != 1 {
		t.Fatalf("envelope %+v", tone)
	}
	if tone.Level != 30 || tone.Peak != 90 {
		t.Fatalf("volume %d/%d", tone.Level, tone.Peak)
	}
	if tone.Channel != ChTriangle || tone.Duty != 2 || tone.Pan != PanLeft || tone.Note {
		t.Fatalf("flags %+v", tone)
	}

	clamped := DecodeTone(100, 1, 250|250<<8, 0)
	if clamped.Level != 100 || clamped.Peak != 100 {
		t.Fatalf("volume not clamped: %+v", clamped)
	}
}

func TestDecodeToneNoteMode(t *testing.T) {
	tone := DecodeTone(69|(81<<16), 1, 50, 0x40)
	if !tone.Note || tone.Freq1 != 440 {
		t.Fatalf("A4 = %v", tone.Freq1)
	}
	if math.Abs(tone.Freq2-880) > 1e-9 {
		t.Fatalf("A5 = %v", tone.Freq2)
	}
	bent := DecodeTone(69|128<<8, 1, 50, 0x40)
	if bent.Freq1 <= 440 || bent.Freq1 >= 466.2 {
		t.Fatalf("half-semitone bend gave %v", bent.Freq1)
	}
}

func TestSilentWithoutTones(t *testing.T) {
	s := New(8000, 10)
	buf := s.Tick()
	if len(buf) != 2*800 {
		t.Fatalf("tick buffer len %d", len(buf))
	}
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("sample %d = %d", i, v)
		}
	}
}

func TestToneEnvelopeAndDuration(t *testing.T) {
	s := New(8000, 10)
	s.Play(DecodeTone(440, 2, 100, ChPulse1|2<<2))

	if !s.Active(ChPulse1) {
		t.Fatalf("channel should be active after Play")
	}
	buf := s.Tick()
	peak := int16(0)
	for _, v := range buf {
		if v > peak {
			peak = v
		}
	}
	want := toPCM(maxVolume)
	if peak != want {
		t.Fatalf("sustain peak %d, want %d", peak, want)
	}
	s.Tick()
	if s.Active(ChPulse1) {
		t.Fatalf("two-tick tone still active after two ticks")
	}
	for _, v := range s.Tick() {
		if v != 0 {
			t.Fatalf("expected silence after the tone ended")
		}
	}
}

func TestPanRoutesChannels(t *testing.T) {
	s := New(8000, 10)
	s.Play(DecodeTone(440, 1, 100, ChPulse2|PanRight<<4))
	buf := s.Tick()
	var left, right int
	for i := 0; i < len(buf); i += 2 {
		if buf[i] != 0 {
			left++
		}
		if buf[i+1] != 0 {
			right++
		}
	}
	if left != 0 || right == 0 {
		t.Fatalf("right pan leaked: left=%d right=%d", left, right)
	}
}

func TestNoiseIsDeterministic(t *testing.T) {
	render := func() []int16 {
		s := New(8000, 10)
		s.Play(DecodeTone(1000, 1, 100, ChNoise))
		return s.Tick()
	}
	a, b := render(), render()
	nonzero := false
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("noise differs at %d", i)
		}
		if a[i] != 0 {
			nonzero = true
		}
	}
	if !nonzero {
		t.Fatalf("noise channel produced silence")
	}
}

func TestOutputHandsOverWholeBuffers(t *testing.T) {
	s := New(8000, 10)
	out := s.Output()
	s.Play(DecodeTone(440, 5, 100, ChPulse1))
	first := s.Tick()

	p := make([]byte, 4*10)
	n, err := out.Read(p)
	if err != nil || n != len(p) {
		t.Fatalf("read %d %v", n, err)
	}
	if int16(uint16(p[0])|uint16(p[1])<<8) != first[0] {
		t.Fatalf("first sample mismatch")
	}

	// Drain the rest, then an empty queue reads as silence.
	rest := make([]byte, 4*len(first))
	out.Read(rest)
	before := out.Underruns()
	n, _ = out.Read(p)
	if n != len(p) || out.Underruns() <= before {
		t.Fatalf("empty queue should pad with silence and count an underrun")
	}
	for _, b := range p {
		if b != 0 {
			t.Fatalf("expected silence")
		}
	}
}

func TestOutputDropsOldestWhenFull(t *testing.T) {
	s := New(8000, 10)
	for i := 0; i < 10; i++ {
		s.Tick()
	}
	if s.Output().Dropped() != 6 {
		t.Fatalf("dropped %d, want 6", s.Output().Dropped())
	}
}
