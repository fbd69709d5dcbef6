package main

import (
	"image/color"
	"math"
	"strconv"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"

	"cyclotron/core"
)

const (
	ringRadius = 5
	ringWidth  = ringRadius*4 + 4
	helpLine   = "space start/stop  r ramp-up  d ramp-down  c/x direction  +/- speed  1-5 level  p pattern  q quit"
)

// canvas is the part of tcell.Screen the renderer needs.
type canvas interface {
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
}

var (
	offStyle   = tcell.StyleDefault.Foreground(tcell.ColorDimGray)
	labelStyle = tcell.StyleDefault.Foreground(tcell.ColorSilver)
)

// ringCell returns the cell of LED k on a ring of n centered at (cx, cy).
// LED 0 is at the top and indices increase clockwise. Columns are doubled
// to make the circle round in a terminal.
func ringCell(cx, cy, k, n int) (int, int) {
	theta := 2 * math.Pi * float64(k) / float64(n)
	x := cx + int(math.Round(2*ringRadius*math.Sin(theta)))
	y := cy - int(math.Round(ringRadius*math.Cos(theta)))
	return x, y
}

// pixelCell picks the glyph and style for one ring pixel, dimmer glyphs
// for dimmer pixels.
func pixelCell(p color.RGBA) (rune, tcell.Style) {
	if p.R == 0 && p.G == 0 && p.B == 0 {
		return '·', offStyle
	}
	c, _ := colorful.MakeColor(p)
	_, _, v := c.Hsv()
	glyph := '•'
	if v >= 0.5 {
		glyph = '●'
	}
	style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(p.R), int32(p.G), int32(p.B)))
	return glyph, style
}

// elementColor runs from green at the bottom of a bargraph to red at the
// top.
func elementColor(e, n int) tcell.Color {
	hue := 120.0
	if n > 1 {
		hue = 120 * (1 - float64(e)/float64(n-1))
	}
	r, g, b := colorful.Hsv(hue, 1, 1).RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

func drawText(c canvas, x, y int, s string, style tcell.Style) {
	for _, r := range s {
		c.SetContent(x, y, r, nil, style)
		x++
	}
}

// Draw renders every ring side by side, segment displays underneath and
// the status lines at the bottom.
func (s *Sim) Draw(c canvas, width, height int) {
	x := 0
	for _, reg := range s.d.Regions() {
		if reg.Kind != core.KindRing {
			continue
		}
		if x+ringWidth > width {
			break
		}
		cx, cy := x+ringWidth/2, ringRadius+1
		for k, p := range reg.Pixels {
			px, py := ringCell(cx, cy, k, len(reg.Pixels))
			glyph, style := pixelCell(p)
			c.SetContent(px, py, glyph, nil, style)
		}
		drawText(c, cx-1, cy, "#"+strconv.Itoa(int(reg.ID)), labelStyle)
		x += ringWidth
	}

	y := 2*ringRadius + 3
	for _, reg := range s.d.Regions() {
		if reg.Kind != core.KindSegment || y >= height-2 {
			continue
		}
		drawText(c, 0, y, "#"+strconv.Itoa(int(reg.ID)), labelStyle)
		n := len(reg.Elements)
		for e, on := range reg.Elements {
			if on {
				c.SetContent(4+e, y, '█', nil, tcell.StyleDefault.Foreground(elementColor(e, n)))
			} else {
				c.SetContent(4+e, y, '░', nil, offStyle)
			}
		}
		y += 2
	}

	if height >= 2 {
		drawText(c, 0, height-2, s.Status(), tcell.StyleDefault)
		drawText(c, 0, height-1, helpLine, labelStyle)
	}
}
