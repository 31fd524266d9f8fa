package ui

import (
	"image/color"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/logger"
)

const (
	glyphW    = 7
	rowHeight = 14
	toastTime = 2 * time.Second
)

var (
	overlayFace = text.NewGoXFace(basicfont.Face7x13)
	shade       = color.RGBA{0, 0, 0, 160}
	ink         = color.RGBA{0xf0, 0xf0, 0xf0, 0xff}
)

func drawText(screen *ebiten.Image, s string, x, y int) {
	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(x), float64(y))
	op.ColorScale.ScaleWithColor(ink)
	text.Draw(screen, s, overlayFace, op)
}

// toast shows a short message at the bottom of the window and logs it.
func (a *App) toast(msg string) {
	a.toastMsg = msg
	a.toastUntil = time.Now().Add(toastTime)
	logger.Log("ui", msg)
}

func (a *App) drawToast(screen *ebiten.Image) {
	if a.toastMsg == "" || time.Now().After(a.toastUntil) {
		return
	}
	msg := truncateText(a.toastMsg, a.maxCharsForText(10))
	y := a.curH - rowHeight - 6
	vector.DrawFilledRect(screen, 0, float32(y-2), float32(a.curW), rowHeight+4, shade, false)
	drawText(screen, msg, 10, y)
}

// drawShade darkens the whole screen under a menu.
func (a *App) drawShade(screen *ebiten.Image) {
	vector.DrawFilledRect(screen, 0, 0, float32(a.curW), float32(a.curH), shade, false)
}

// maxCharsForText is how many glyphs fit between the left margin and the
// right edge of the window.
func (a *App) maxCharsForText(margin int) int {
	n := (a.curW - 2*margin) / glyphW
	if n < 1 {
		n = 1
	}
	return n
}

func truncateText(s string, maxChars int) string {
	r := []rune(s)
	if len(r) <= maxChars {
		return s
	}
	if maxChars <= 3 {
		return string(r[:maxChars])
	}
	return string(r[:maxChars-3]) + "..."
}

// wrapText breaks s at spaces so no line exceeds maxChars. Words longer
// than a line are cut.
func wrapText(s string, maxChars int) []string {
	if maxChars < 1 {
		maxChars = 1
	}
	var lines []string
	var cur strings.Builder
	for _, w := range strings.Fields(s) {
		for len([]rune(w)) > maxChars {
			if cur.Len() > 0 {
				lines = append(lines, cur.String())
				cur.Reset()
			}
			r := []rune(w)
			lines = append(lines, string(r[:maxChars]))
			w = string(r[maxChars:])
		}
		if cur.Len() > 0 && len([]rune(cur.String()))+1+len([]rune(w)) > maxChars {
			lines = append(lines, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(w)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}
