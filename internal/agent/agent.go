// Package agent models a single car-like driver: its ray sensors, its
// kinematics and the fitness it accumulates while moving forward.
package agent

import (
	"errors"
	"fmt"
	"math"

	"neurodrive/internal/track"
)

var ErrOutputSize = errors.New("brain returned too few outputs")

// Brain maps sensor inputs to [throttle, turn] outputs.
type Brain interface {
	Predict(inputs []float64) ([]float64, error)
}

type Physics struct {
	MaxAccel          float64
	MaxTurnRate       float64
	Friction          float64
	SpeedNorm         float64
	ProgressThreshold float64
	Radius            float64
}

func DefaultPhysics() Physics {
	return Physics{
		MaxAccel:          15,
		MaxTurnRate:       5,
		Friction:          0.95,
		SpeedNorm:         2,
		ProgressThreshold: 0.1,
		Radius:            0.8,
	}
}

type Pose struct {
	X       float64
	Y       float64
	Heading float64
}

// Body is everything except the brain needed to build an agent.
type Body struct {
	Physics Physics
	Sensor  Sensor
	Spawn   Pose
}

// DefaultBody spawns at x=5 on the vertical middle of a grid of the given
// height, facing +x.
func DefaultBody(height int) Body {
	return Body{
		Physics: DefaultPhysics(),
		Sensor:  DefaultSensor(),
		Spawn:   Pose{X: 5, Y: float64(height) / 2},
	}
}

// Inputs is the controller input width for this body: one per ray plus
// normalized speed.
func (b Body) Inputs() int {
	return len(b.Sensor.Offsets) + 1
}

type Agent struct {
	ID string

	X               float64
	Y               float64
	Heading         float64
	LinearVelocity  float64
	AngularVelocity float64

	Alive    bool
	Fitness  float64
	Distance float64
	Readings []float64

	body  Body
	brain Brain
}

func New(id string, body Body, brain Brain) *Agent {
	a := &Agent{ID: id, body: body, brain: brain}
	a.Reset()
	return a
}

func (a *Agent) Brain() Brain {
	return a.brain
}

func (a *Agent) Body() Body {
	return a.body
}

// Reset puts the agent back on its spawn pose, at rest and alive, with no
// fitness.
func (a *Agent) Reset() {
	a.X = a.body.Spawn.X
	a.Y = a.body.Spawn.Y
	a.Heading = a.body.Spawn.Heading
	a.LinearVelocity = 0
	a.AngularVelocity = 0
	a.Alive = true
	a.Fitness = 0
	a.Distance = 0
	a.Readings = make([]float64, len(a.body.Sensor.Offsets))
}

// Update advances the agent by dt seconds on grid. Dead agents are left as
// they are. A brain failure is returned and leaves the agent unchanged.
func (a *Agent) Update(dt float64, grid *track.Grid) error {
	if !a.Alive {
		return nil
	}
	p := a.body.Physics

	readings := a.body.Sensor.Read(grid, a.X, a.Y, a.Heading)
	inputs := make([]float64, 0, len(readings)+1)
	inputs = append(inputs, readings...)
	inputs = append(inputs, a.LinearVelocity/p.SpeedNorm)

	out, err := a.brain.Predict(inputs)
	if err != nil {
		return fmt.Errorf("agent %s predict: %w", a.ID, err)
	}
	if len(out) < 2 {
		return fmt.Errorf("agent %s: %w: got=%d want>=2", a.ID, ErrOutputSize, len(out))
	}
	a.Readings = readings

	a.LinearVelocity += out[0] * p.MaxAccel * dt
	// Turn rate is set, not accumulated.
	a.AngularVelocity = out[1] * p.MaxTurnRate
	a.LinearVelocity *= p.Friction

	a.Heading += a.AngularVelocity * dt
	a.X += math.Cos(a.Heading) * a.LinearVelocity * dt
	a.Y += math.Sin(a.Heading) * a.LinearVelocity * dt

	if a.LinearVelocity > p.ProgressThreshold {
		a.Distance += a.LinearVelocity * dt
		a.Fitness = a.Distance
	}

	if grid.BlockedAt(a.X, a.Y) {
		a.Alive = false
	}
	return nil
}
