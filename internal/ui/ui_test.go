package ui

import (
	"bytes"
	"encoding/binary"
	"image"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/bus"
	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/storage"
)

func keysDown(keys ...ebiten.Key) func(ebiten.Key) bool {
	set := map[ebiten.Key]bool{}
	for _, k := range keys {
		set[k] = true
	}
	return func(k ebiten.Key) bool { return set[k] }
}

func TestPadsFromKeys(t *testing.T) {
	tests := []struct {
		name string
		keys []ebiten.Key
		want [bus.Players]byte
	}{
		{"none", nil, [bus.Players]byte{}},
		{"p1 action", []ebiten.Key{ebiten.KeySpace, ebiten.KeyY}, [bus.Players]byte{bus.ButtonX | bus.ButtonZ}},
		{"p1 dpad", []ebiten.Key{ebiten.KeyArrowLeft, ebiten.KeyArrowDown}, [bus.Players]byte{bus.ButtonLeft | bus.ButtonDown}},
		{"p2", []ebiten.Key{ebiten.KeyQ, ebiten.KeyE, ebiten.KeyF}, [bus.Players]byte{0, bus.ButtonZ | bus.ButtonUp | bus.ButtonRight}},
		{"both", []ebiten.Key{ebiten.KeyX, ebiten.KeyTab}, [bus.Players]byte{bus.ButtonX, bus.ButtonX}},
	}
	for _, tt := range tests {
		if got := padsFromKeys(keysDown(tt.keys...)); got != tt.want {
			t.Errorf("%s: pads = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestGameRectAndMouse(t *testing.T) {
	r := gameRect(500, 400)
	if r != image.Rect(90, 40, 410, 360) {
		t.Fatalf("gameRect = %v", r)
	}
	tests := []struct {
		cx, cy int
		x, y   int16
	}{
		{90, 40, 0, 0},
		{91, 41, 0, 0},
		{409, 359, 159, 159},
		{410, 360, 160, 160},
		{89, 39, -1, -1},
	}
	for _, tt := range tests {
		x, y := toLogical(tt.cx, tt.cy, r)
		if x != tt.x || y != tt.y {
			t.Errorf("toLogical(%d,%d) = %d,%d, want %d,%d", tt.cx, tt.cy, x, y, tt.x, tt.y)
		}
	}
	if r := gameRect(100, 100); r.Dx() != 160 || r.Min != (image.Point{}) {
		t.Fatalf("small screen rect = %v", r)
	}
}

func TestTextHelpers(t *testing.T) {
	if got := truncateText("hello world", 8); got != "hello..." {
		t.Errorf("truncateText = %q", got)
	}
	if got := truncateText("hi", 8); got != "hi" {
		t.Errorf("truncateText short = %q", got)
	}
	got := wrapText("the quick brown fox jumps", 10)
	want := []string{"the quick", "brown fox", "jumps"}
	if len(got) != len(want) {
		t.Fatalf("wrapText = %q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("wrapText = %q, want %q", got, want)
		}
	}
	if got := wrapText("abcdefghij", 4); len(got) != 3 || got[2] != "ij" {
		t.Fatalf("long word = %q", got)
	}
}

func TestConfigSettingsRoundTrip(t *testing.T) {
	var c Config
	c.Defaults()
	base := storage.DefaultSettings()
	base.LastCart = "snake.lua"
	c.Scale = 5
	c.Palette = "sepia"
	c.Muted = true
	s := c.Settings(base)
	if s.LastCart != "snake.lua" || s.Scale != 5 || s.Palette != "sepia" || !s.Muted {
		t.Fatalf("settings = %+v", s)
	}
	if base.Scale != 3 {
		t.Fatalf("base settings modified")
	}
	var back Config
	back.ApplySettings(s)
	if back.Scale != 5 || back.Palette != "sepia" || !back.Muted || back.Record != s.Record {
		t.Fatalf("config = %+v", back)
	}
}

func TestMonoFold(t *testing.T) {
	var src bytes.Buffer
	for _, v := range []int16{100, 300, -50, -150} {
		_ = binary.Write(&src, binary.LittleEndian, v)
	}
	p := make([]byte, 8)
	n, err := monoFold{r: &src}.Read(p)
	if err != nil || n != 8 {
		t.Fatalf("read = %d, %v", n, err)
	}
	got := make([]int16, 4)
	for i := range got {
		got[i] = int16(binary.LittleEndian.Uint16(p[2*i:]))
	}
	if got[0] != 200 || got[1] != 200 || got[2] != -100 || got[3] != -100 {
		t.Fatalf("folded = %v", got)
	}
}
