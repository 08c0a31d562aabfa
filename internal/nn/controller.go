package nn

import (
	"errors"
	"fmt"
	"math/rand"

	"neurodrive/internal/mat"
)

var ErrInputSize = errors.New("controller input size mismatch")

// Controller is a fixed-topology feedforward network with one hidden layer.
// Both layers use the same activation.
type Controller struct {
	inputs  int
	hidden  int
	outputs int

	weightsIH *mat.Matrix
	weightsHO *mat.Matrix
	biasH     *mat.Matrix
	biasO     *mat.Matrix

	activation string
	act        ActivationFunc
}

// NewController draws every weight and bias uniformly from [-1, 1] and uses
// the default activation.
func NewController(rng *rand.Rand, inputs, hidden, outputs int) (*Controller, error) {
	return NewControllerWithActivation(rng, inputs, hidden, outputs, DefaultActivation)
}

func NewControllerWithActivation(rng *rand.Rand, inputs, hidden, outputs int, activation string) (*Controller, error) {
	if inputs <= 0 || hidden <= 0 || outputs <= 0 {
		return nil, fmt.Errorf("invalid controller shape %d-%d-%d", inputs, hidden, outputs)
	}
	if activation == "" {
		activation = DefaultActivation
	}
	act, err := GetActivation(activation)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		inputs:     inputs,
		hidden:     hidden,
		outputs:    outputs,
		activation: activation,
		act:        act,
	}
	if c.weightsIH, err = mat.Random(rng, hidden, inputs, -1, 1); err != nil {
		return nil, err
	}
	if c.weightsHO, err = mat.Random(rng, outputs, hidden, -1, 1); err != nil {
		return nil, err
	}
	if c.biasH, err = mat.Random(rng, hidden, 1, -1, 1); err != nil {
		return nil, err
	}
	if c.biasO, err = mat.Random(rng, outputs, 1, -1, 1); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Controller) Shape() (inputs, hidden, outputs int) {
	return c.inputs, c.hidden, c.outputs
}

func (c *Controller) Activation() string {
	return c.activation
}

// Predict runs a forward pass. It does not modify the controller.
func (c *Controller) Predict(inputs []float64) ([]float64, error) {
	if len(inputs) != c.inputs {
		return nil, fmt.Errorf("%w: got=%d want=%d", ErrInputSize, len(inputs), c.inputs)
	}
	x, err := mat.FromColumn(inputs)
	if err != nil {
		return nil, err
	}
	hidden, err := c.layer(c.weightsIH, c.biasH, x)
	if err != nil {
		return nil, fmt.Errorf("hidden layer: %w", err)
	}
	out, err := c.layer(c.weightsHO, c.biasO, hidden)
	if err != nil {
		return nil, fmt.Errorf("output layer: %w", err)
	}
	return out.Values(), nil
}

func (c *Controller) layer(weights, bias, x *mat.Matrix) (*mat.Matrix, error) {
	z, err := mat.Product(weights, x)
	if err != nil {
		return nil, err
	}
	z, err = z.AddMatrix(bias)
	if err != nil {
		return nil, err
	}
	return z.Map(c.act), nil
}

func (c *Controller) Clone() *Controller {
	return &Controller{
		inputs:     c.inputs,
		hidden:     c.hidden,
		outputs:    c.outputs,
		weightsIH:  c.weightsIH.Clone(),
		weightsHO:  c.weightsHO.Clone(),
		biasH:      c.biasH.Clone(),
		biasO:      c.biasO.Clone(),
		activation: c.activation,
		act:        c.act,
	}
}

// Mutate perturbs each weight and bias with probability rate by a sample
// from N(0, strength). The controller is changed in place.
func (c *Controller) Mutate(rng *rand.Rand, rate, strength float64) {
	perturb := func(v float64) float64 {
		if rng.Float64() < rate {
			return v + rng.NormFloat64()*strength
		}
		return v
	}
	c.weightsIH = c.weightsIH.Map(perturb)
	c.weightsHO = c.weightsHO.Map(perturb)
	c.biasH = c.biasH.Map(perturb)
	c.biasO = c.biasO.Map(perturb)
}

// Equal reports whether both controllers have the same shape and
// bit-identical parameters.
func (c *Controller) Equal(other *Controller) bool {
	if other == nil {
		return false
	}
	return c.inputs == other.inputs &&
		c.hidden == other.hidden &&
		c.outputs == other.outputs &&
		c.weightsIH.Equal(other.weightsIH) &&
		c.weightsHO.Equal(other.weightsHO) &&
		c.biasH.Equal(other.biasH) &&
		c.biasO.Equal(other.biasO)
}

// Parameters returns all weights and biases in a fixed order: input-hidden
// weights, hidden biases, hidden-output weights, output biases.
func (c *Controller) Parameters() []float64 {
	out := make([]float64, 0, c.hidden*c.inputs+c.hidden+c.outputs*c.hidden+c.outputs)
	out = append(out, c.weightsIH.Values()...)
	out = append(out, c.biasH.Values()...)
	out = append(out, c.weightsHO.Values()...)
	out = append(out, c.biasO.Values()...)
	return out
}
