// Package mat provides the small dense matrix value type used by the
// controller networks. Every operation returns a fresh Matrix and leaves its
// operands untouched.
package mat

import (
	"errors"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

var ErrShapeMismatch = errors.New("matrix shape mismatch")

// Matrix is a rows×cols array of float64 values. The shape is fixed at
// construction.
type Matrix struct {
	dense *mat.Dense
}

// New returns a zero-filled rows×cols matrix.
func New(rows, cols int) (*Matrix, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("new %dx%d: %w", rows, cols, ErrShapeMismatch)
	}
	return &Matrix{dense: mat.NewDense(rows, cols, nil)}, nil
}

// Random returns a rows×cols matrix with every cell drawn uniformly from
// [low, high].
func Random(rng *rand.Rand, rows, cols int, low, high float64) (*Matrix, error) {
	if rng == nil {
		return nil, errors.New("random source is required")
	}
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("random %dx%d: %w", rows, cols, ErrShapeMismatch)
	}
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = low + rng.Float64()*(high-low)
	}
	return &Matrix{dense: mat.NewDense(rows, cols, data)}, nil
}

// FromColumn builds a len(values)×1 column vector.
func FromColumn(values []float64) (*Matrix, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("column of length 0: %w", ErrShapeMismatch)
	}
	data := append([]float64(nil), values...)
	return &Matrix{dense: mat.NewDense(len(values), 1, data)}, nil
}

func (m *Matrix) Rows() int {
	r, _ := m.dense.Dims()
	return r
}

func (m *Matrix) Cols() int {
	_, c := m.dense.Dims()
	return c
}

func (m *Matrix) At(i, j int) float64 {
	return m.dense.At(i, j)
}

// Values returns the cells in row-major order.
func (m *Matrix) Values() []float64 {
	rows, cols := m.dense.Dims()
	out := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		out = append(out, m.dense.RawRowView(i)...)
	}
	return out
}

func (m *Matrix) Clone() *Matrix {
	return &Matrix{dense: mat.DenseCopyOf(m.dense)}
}

// Equal reports whether both matrices have the same shape and bit-identical
// cells.
func (m *Matrix) Equal(other *Matrix) bool {
	if other == nil {
		return false
	}
	return mat.Equal(m.dense, other.dense)
}

func (m *Matrix) AddMatrix(other *Matrix) (*Matrix, error) {
	if err := sameShape("add", m, other); err != nil {
		return nil, err
	}
	out := m.empty()
	out.dense.Add(m.dense, other.dense)
	return out, nil
}

func (m *Matrix) AddScalar(s float64) *Matrix {
	return m.Map(func(v float64) float64 { return v + s })
}

// MulElem is the Hadamard product.
func (m *Matrix) MulElem(other *Matrix) (*Matrix, error) {
	if err := sameShape("mul", m, other); err != nil {
		return nil, err
	}
	out := m.empty()
	out.dense.MulElem(m.dense, other.dense)
	return out, nil
}

func (m *Matrix) Scale(s float64) *Matrix {
	out := m.empty()
	out.dense.Scale(s, m.dense)
	return out
}

// Product computes the matrix product lhs·rhs.
func Product(lhs, rhs *Matrix) (*Matrix, error) {
	if lhs == nil || rhs == nil {
		return nil, fmt.Errorf("product with nil operand: %w", ErrShapeMismatch)
	}
	lr, lc := lhs.dense.Dims()
	rr, rc := rhs.dense.Dims()
	if lc != rr {
		return nil, fmt.Errorf("product %dx%d · %dx%d: %w", lr, lc, rr, rc, ErrShapeMismatch)
	}
	out := mat.NewDense(lr, rc, nil)
	out.Mul(lhs.dense, rhs.dense)
	return &Matrix{dense: out}, nil
}

// Map applies f to every cell and returns the result as a new matrix.
func (m *Matrix) Map(f func(float64) float64) *Matrix {
	out := m.empty()
	out.dense.Apply(func(_, _ int, v float64) float64 { return f(v) }, m.dense)
	return out
}

func (m *Matrix) String() string {
	return fmt.Sprintf("%v", mat.Formatted(m.dense, mat.Squeeze()))
}

func (m *Matrix) empty() *Matrix {
	rows, cols := m.dense.Dims()
	return &Matrix{dense: mat.NewDense(rows, cols, nil)}
}

func sameShape(op string, a, b *Matrix) error {
	if b == nil {
		return fmt.Errorf("%s with nil operand: %w", op, ErrShapeMismatch)
	}
	ar, ac := a.dense.Dims()
	br, bc := b.dense.Dims()
	if ar != br || ac != bc {
		return fmt.Errorf("%s %dx%d with %dx%d: %w", op, ar, ac, br, bc, ErrShapeMismatch)
	}
	return nil
}
