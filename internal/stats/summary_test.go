package stats

import (
	"math"
	"testing"
)

func TestSummarizeBest(t *testing.T) {
	s, err := SummarizeBest([]float64{2, 8, 4, 6})
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if s.Initial != 2 || s.Final != 6 || s.Max != 8 || s.Min != 2 || s.Mean != 5 || s.Improvement != 4 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if math.Abs(s.Std-math.Sqrt(5)) > 1e-12 {
		t.Fatalf("unexpected std: %f", s.Std)
	}
}

func TestSummarizeBestEmpty(t *testing.T) {
	if _, err := SummarizeBest(nil); err == nil {
		t.Fatal("expected empty history error")
	}
}
