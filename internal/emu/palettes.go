package emu

import (
	"sort"
	"strings"

	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/cart"
)

// DefaultPalette is the console's power-on palette.
var DefaultPalette = [4]uint32{0xe0f8cf, 0x86c06c, 0x306850, 0x071821}

// palettePresets are host-side alternatives a player can cycle through. Carts
// still own the palette memory and may overwrite it at any time.
var palettePresets = map[string][4]uint32{
	"default": DefaultPalette,
	"sepia":   {0xfff6d3, 0xf9a875, 0xeb6b6f, 0x7c3f58},
	"blue":    {0xe0f0fc, 0x8cb4e0, 0x3c64a8, 0x0c1c4c},
	"red":     {0xfcece0, 0xf0a08c, 0xa83c3c, 0x3c0c0c},
	"pastel":  {0xf8e8f8, 0xd0a8e0, 0x8870b0, 0x302850},
	"gray":    {0xffffff, 0xaaaaaa, 0x555555, 0x000000},
	"2bit":    {0xe0f8d0, 0x88c070, 0x346856, 0x081820},
}

// PaletteNames lists the presets in a stable order with the default first.
func PaletteNames() []string {
	names := make([]string, 0, len(palettePresets))
	for n := range palettePresets {
		if n != "default" {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return append([]string{"default"}, names...)
}

// PaletteByName looks up a preset, ignoring case.
func PaletteByName(name string) ([4]uint32, bool) {
	p, ok := palettePresets[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// NextPalette returns the preset after name, wrapping around. dir < 0 steps
// backwards.
func NextPalette(name string, dir int) string {
	names := PaletteNames()
	i := 0
	for j, n := range names {
		if n == strings.ToLower(name) {
			i = j
			break
		}
	}
	step := 1
	if dir < 0 {
		step = len(names) - 1
	}
	return names[(i+step)%len(names)]
}

// PaletteFromHeader picks the preset a cart asks for with a "palette" header
// line. Returns ("", false) when the cart has no usable preference.
func PaletteFromHeader(h *cart.Header) (string, bool) {
	if h == nil {
		return "", false
	}
	name := strings.ToLower(strings.TrimSpace(h.Extra["palette"]))
	if _, ok := palettePresets[name]; !ok {
		return "", false
	}
	return name, true
}
