package stats

import (
	"fmt"

	"neurodrive/internal/nn"
)

// Summary describes a best-fitness-per-generation series.
type Summary struct {
	Initial     float64 `json:"initial"`
	Final       float64 `json:"final"`
	Mean        float64 `json:"mean"`
	Std         float64 `json:"std"`
	Max         float64 `json:"max"`
	Min         float64 `json:"min"`
	Improvement float64 `json:"improvement"`
}

func SummarizeBest(history []float64) (Summary, error) {
	if len(history) == 0 {
		return Summary{}, fmt.Errorf("fitness history is empty")
	}
	mean, err := nn.Avg(history)
	if err != nil {
		return Summary{}, err
	}
	std, err := nn.Std(history)
	if err != nil {
		return Summary{}, err
	}
	s := Summary{
		Initial: history[0],
		Final:   history[len(history)-1],
		Mean:    mean,
		Std:     std,
		Max:     history[0],
		Min:     history[0],
	}
	for _, v := range history[1:] {
		if v > s.Max {
			s.Max = v
		}
		if v < s.Min {
			s.Min = v
		}
	}
	s.Improvement = s.Final - s.Initial
	return s, nil
}
