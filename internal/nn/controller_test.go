package nn

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestNewControllerShapeAndRange(t *testing.T) {
	c, err := NewController(rand.New(rand.NewSource(1)), 6, 8, 2)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	in, hid, out := c.Shape()
	if in != 6 || hid != 8 || out != 2 {
		t.Fatalf("unexpected shape: %d-%d-%d", in, hid, out)
	}
	params := c.Parameters()
	if len(params) != 8*6+8+2*8+2 {
		t.Fatalf("unexpected parameter count: %d", len(params))
	}
	for _, p := range params {
		if p < -1 || p > 1 {
			t.Fatalf("parameter out of [-1,1]: %f", p)
		}
	}
	if c.Activation() != "tanh" {
		t.Fatalf("expected tanh default, got=%s", c.Activation())
	}
}

func TestNewControllerRejectsBadShape(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if _, err := NewController(rng, 0, 8, 2); err == nil {
		t.Fatal("expected error for zero inputs")
	}
	if _, err := NewController(rng, 6, 8, -1); err == nil {
		t.Fatal("expected error for negative outputs")
	}
	if _, err := NewControllerWithActivation(rng, 6, 8, 2, "nope"); !errors.Is(err, ErrActivationNotFound) {
		t.Fatalf("expected ErrActivationNotFound, got: %v", err)
	}
}

func TestPredictOutputsBoundedAndPure(t *testing.T) {
	c, err := NewController(rand.New(rand.NewSource(5)), 6, 8, 2)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	before := c.Clone()
	in := []float64{0.2, 0, 0.9, 0.1, 0, 1.5}
	first, err := c.Predict(in)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	second, err := c.Predict(in)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("expected 2 outputs, got=%d", len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("predict is not deterministic: %v vs %v", first, second)
		}
		if first[i] <= -1 || first[i] >= 1 {
			t.Fatalf("tanh output out of (-1,1): %f", first[i])
		}
	}
	if !c.Equal(before) {
		t.Fatal("predict modified controller parameters")
	}
}

func TestPredictMatchesManualForwardPass(t *testing.T) {
	c, err := NewController(rand.New(rand.NewSource(9)), 2, 3, 1)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	p := c.Parameters()
	wih, bh, who, bo := p[0:6], p[6:9], p[9:12], p[12]
	x := []float64{0.5, -0.25}

	want := bo
	for h := 0; h < 3; h++ {
		z := wih[h*2]*x[0] + wih[h*2+1]*x[1] + bh[h]
		want += who[h] * math.Tanh(z)
	}
	want = math.Tanh(want)

	got, err := c.Predict(x)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if math.Abs(got[0]-want) > 1e-12 {
		t.Fatalf("unexpected forward pass: got=%f want=%f", got[0], want)
	}
}

func TestPredictInputSizeMismatch(t *testing.T) {
	c, err := NewController(rand.New(rand.NewSource(1)), 6, 8, 2)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	if _, err := c.Predict([]float64{1, 2, 3}); !errors.Is(err, ErrInputSize) {
		t.Fatalf("expected ErrInputSize, got: %v", err)
	}
}

func TestCloneIsDeepCopy(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	c, err := NewController(rng, 6, 8, 2)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	clone := c.Clone()
	if !clone.Equal(c) {
		t.Fatal("expected clone to equal source")
	}
	clone.Mutate(rng, 1, 0.5)
	if clone.Equal(c) {
		t.Fatal("expected mutated clone to diverge")
	}
	source := c.Parameters()
	again := c.Clone().Parameters()
	for i := range source {
		if source[i] != again[i] {
			t.Fatal("mutating clone changed source controller")
		}
	}
}

func TestMutateRateBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	c, err := NewController(rng, 6, 8, 2)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}

	unchanged := c.Clone()
	unchanged.Mutate(rng, 0, 0.5)
	if !unchanged.Equal(c) {
		t.Fatal("rate 0 must not change parameters")
	}

	zeroStrength := c.Clone()
	zeroStrength.Mutate(rng, 1, 0)
	if !zeroStrength.Equal(c) {
		t.Fatal("strength 0 must not change parameters")
	}

	all := c.Clone()
	all.Mutate(rng, 1, 0.5)
	before, after := c.Parameters(), all.Parameters()
	changed := 0
	for i := range before {
		if before[i] != after[i] {
			changed++
		}
	}
	if changed != len(before) {
		t.Fatalf("rate 1 should perturb every parameter: changed=%d total=%d", changed, len(before))
	}
}

func TestMutateIsReproducibleForSeed(t *testing.T) {
	base, err := NewController(rand.New(rand.NewSource(4)), 6, 8, 2)
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	a := base.Clone()
	b := base.Clone()
	a.Mutate(rand.New(rand.NewSource(99)), 0.1, 0.5)
	b.Mutate(rand.New(rand.NewSource(99)), 0.1, 0.5)
	if !a.Equal(b) {
		t.Fatal("expected identical mutation for identical seeds")
	}
}
