// Package track holds the occupancy grid agents drive on.
package track

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
)

type Cell uint8

const (
	Open Cell = iota
	Wall
)

var ErrEmptyGrid = errors.New("grid has no cells")

// Grid is a row-major width×height occupancy map. It is never modified after
// construction, so it can be shared between agents and renderers.
type Grid struct {
	width  int
	height int
	cells  []Cell
}

func NewGrid(width, height int, cells []Cell) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrEmptyGrid, width, height)
	}
	if len(cells) != width*height {
		return nil, fmt.Errorf("grid %dx%d needs %d cells, got %d", width, height, width*height, len(cells))
	}
	return &Grid{
		width:  width,
		height: height,
		cells:  append([]Cell(nil), cells...),
	}, nil
}

func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }

// At returns the cell at (x, y). ok is false outside the grid.
func (g *Grid) At(x, y int) (Cell, bool) {
	if x < 0 || y < 0 || x >= g.width || y >= g.height {
		return Wall, false
	}
	return g.cells[y*g.width+x], true
}

// Blocked reports whether (x, y) is a wall or lies outside the grid.
func (g *Grid) Blocked(x, y int) bool {
	cell, ok := g.At(x, y)
	return !ok || cell == Wall
}

// BlockedAt is Blocked for continuous coordinates, using the cell that
// contains the point.
func (g *Grid) BlockedAt(x, y float64) bool {
	return g.Blocked(int(math.Floor(x)), int(math.Floor(y)))
}

// OpenCount returns the number of open cells.
func (g *Grid) OpenCount() int {
	n := 0
	for _, c := range g.cells {
		if c == Open {
			n++
		}
	}
	return n
}

// String renders the grid in the text format read by Parse.
func (g *Grid) String() string {
	var b strings.Builder
	b.Grow((g.width + 1) * g.height)
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			if g.cells[y*g.width+x] == Wall {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Parse reads a text grid: '#' is a wall, '.' or ' ' is open, one row per
// line. Short rows are padded with walls to the longest row.
func Parse(r io.Reader) (*Grid, error) {
	var rows []string
	width := 0
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		for i, ch := range line {
			switch ch {
			case '#', '.', ' ':
			default:
				return nil, fmt.Errorf("line %d col %d: unexpected cell %q", lineNo, i+1, ch)
			}
		}
		rows = append(rows, line)
		if len(line) > width {
			width = len(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	for len(rows) > 0 && strings.TrimSpace(rows[len(rows)-1]) == "" {
		rows = rows[:len(rows)-1]
	}
	if len(rows) == 0 || width == 0 {
		return nil, ErrEmptyGrid
	}

	cells := make([]Cell, 0, width*len(rows))
	for _, row := range rows {
		for x := 0; x < width; x++ {
			if x < len(row) && row[x] != '#' {
				cells = append(cells, Open)
			} else {
				cells = append(cells, Wall)
			}
		}
	}
	return NewGrid(width, len(rows), cells)
}

func Load(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	g, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse track %s: %w", path, err)
	}
	return g, nil
}
