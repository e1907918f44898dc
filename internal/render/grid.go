// Package render draws habit history grids as PNG images for the weekly
// briefing.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"
	"strings"
)

const (
	cellSize = 18
	cellGap  = 4
	padding  = 8
)

var (
	background = color.RGBA{R: 0x1e, G: 0x1e, B: 0x2e, A: 0xff}
	emptyCell  = color.RGBA{R: 0x3a, G: 0x3a, B: 0x4e, A: 0xff}
	futureCell = color.RGBA{R: 0x2a, G: 0x2a, B: 0x3a, A: 0xff}
	fallback   = color.RGBA{R: 0x3b, G: 0x5b, B: 0xdb, A: 0xff}
)

// Cell is one day of one habit.
type Cell struct {
	Done   bool
	Future bool
}

// Row is one habit: its display color and a cell per day.
type Row struct {
	Color string
	Cells []Cell
}

// ErrEmpty is returned when there is nothing to draw.
var ErrEmpty = errors.New("render: no rows")

// HabitGrid draws one row of squares per habit. Done days use the habit's
// color, missed days a neutral tone, future days a darker tone.
func HabitGrid(rows []Row) ([]byte, error) {
	if len(rows) == 0 {
		return nil, ErrEmpty
	}
	cols := 0
	for _, r := range rows {
		if len(r.Cells) > cols {
			cols = len(r.Cells)
		}
	}
	if cols == 0 {
		return nil, ErrEmpty
	}

	width := 2*padding + cols*cellSize + (cols-1)*cellGap
	height := 2*padding + len(rows)*cellSize + (len(rows)-1)*cellGap
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: background}, image.Point{}, draw.Src)

	for y, r := range rows {
		done := ParseHexColor(r.Color)
		for x, c := range r.Cells {
			fill := emptyCell
			switch {
			case c.Future:
				fill = futureCell
			case c.Done:
				fill = done
			}
			x0 := padding + x*(cellSize+cellGap)
			y0 := padding + y*(cellSize+cellGap)
			rect := image.Rect(x0, y0, x0+cellSize, y0+cellSize)
			draw.Draw(img, rect, &image.Uniform{C: fill}, image.Point{}, draw.Src)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseHexColor reads #rrggbb; anything else yields the default task color.
func ParseHexColor(s string) color.RGBA {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return fallback
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return fallback
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}
