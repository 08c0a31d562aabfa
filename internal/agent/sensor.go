package agent

import (
	"math"

	"neurodrive/internal/track"
)

// Sensor is a fan of distance rays fixed relative to the agent heading.
type Sensor struct {
	// Offsets are ray angles in radians relative to the heading.
	Offsets []float64
	Length  float64
	Step    float64
}

func DefaultSensor() Sensor {
	return Sensor{
		Offsets: []float64{-math.Pi / 3, -math.Pi / 6, 0, math.Pi / 6, math.Pi / 3},
		Length:  15,
		Step:    0.5,
	}
}

// Cast marches one ray from (x, y) at the absolute angle and returns
// 1 - d/Length for the first blocked sample at distance d, or 0 when the ray
// reaches no wall. Readings near 1 mean an obstacle is close.
func (s Sensor) Cast(grid *track.Grid, x, y, angle float64) float64 {
	if s.Step <= 0 || s.Length <= 0 {
		return 0
	}
	dx, dy := math.Cos(angle), math.Sin(angle)
	steps := int(s.Length / s.Step)
	for i := 1; i < steps; i++ {
		d := float64(i) * s.Step
		if grid.BlockedAt(x+dx*d, y+dy*d) {
			return 1 - d/s.Length
		}
	}
	return 0
}

// Read casts every ray in offset order.
func (s Sensor) Read(grid *track.Grid, x, y, heading float64) []float64 {
	out := make([]float64, len(s.Offsets))
	for i, offset := range s.Offsets {
		out[i] = s.Cast(grid, x, y, heading+offset)
	}
	return out
}
