package main

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"time"

	"neurodrive/internal/sim"
	"neurodrive/internal/track"
)

const (
	ansiHome      = "\x1b[H"
	ansiClear     = "\x1b[2J"
	ansiReset     = "\x1b[0m"
	ansiWall      = "\x1b[48;5;235m"
	ansiAgent     = "\x1b[38;5;46m"
	ansiAgentDead = "\x1b[38;5;196m"
)

// terminalRenderer redraws the whole track on every call. Walls are shaded
// cells and agents are drawn as a heading glyph, green while alive.
type terminalRenderer struct {
	out        *bufio.Writer
	pace       time.Duration
	population int
	cleared    bool
}

func newTerminalRenderer(w io.Writer, population int, pace time.Duration) *terminalRenderer {
	return &terminalRenderer{out: bufio.NewWriter(w), pace: pace, population: population}
}

func (r *terminalRenderer) Render(s sim.Snapshot) error {
	if !r.cleared {
		r.out.WriteString(ansiClear)
		r.cleared = true
	}
	r.out.WriteString(ansiHome)
	fmt.Fprintf(r.out, " Gen: %d | Frame: %d | Alive: %d/%d | Best: %.1f | All-time: %.1f \n",
		s.Generation, s.Frame, s.AliveCount, r.population, s.BestFitness, s.AllTimeBest)
	r.out.WriteString(drawFrame(s.Grid, s.Agents, true))
	if err := r.out.Flush(); err != nil {
		return err
	}
	if r.pace > 0 {
		time.Sleep(r.pace)
	}
	return nil
}

// drawFrame lays the agents over the grid. Later agents overwrite earlier
// ones in the same cell.
func drawFrame(grid *track.Grid, agents []sim.AgentView, color bool) string {
	if grid == nil {
		return ""
	}
	w, h := grid.Width(), grid.Height()
	cells := make([][]string, h)
	for y := 0; y < h; y++ {
		cells[y] = make([]string, w)
		for x := 0; x < w; x++ {
			cell, _ := grid.At(x, y)
			switch {
			case cell == track.Wall && color:
				cells[y][x] = ansiWall + " " + ansiReset
			case cell == track.Wall:
				cells[y][x] = "#"
			default:
				cells[y][x] = " "
			}
		}
	}

	for _, a := range agents {
		gx, gy := int(math.Floor(a.X)), int(math.Floor(a.Y))
		if gx < 0 || gx >= w || gy < 0 || gy >= h {
			continue
		}
		glyph := string(headingGlyph(a.Heading))
		if color {
			tint := ansiAgentDead
			if a.Alive {
				tint = ansiAgent
			}
			glyph = tint + glyph + ansiReset
		}
		cells[gy][gx] = glyph
	}

	var b []byte
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			b = append(b, cells[y][x]...)
		}
		b = append(b, '\n')
	}
	return string(b)
}

// headingGlyph maps a heading in radians to one of four arrows. Screen y
// grows downward, so a positive heading points down.
func headingGlyph(heading float64) byte {
	a := math.Remainder(heading, 2*math.Pi)
	switch {
	case a >= -math.Pi/4 && a <= math.Pi/4:
		return '>'
	case a > math.Pi/4 && a <= 3*math.Pi/4:
		return 'v'
	case a >= -3*math.Pi/4 && a < -math.Pi/4:
		return '^'
	default:
		return '<'
	}
}
