package stats

import (
	"fmt"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"neurodrive/internal/model"
)

const fitnessPlotFile = "fitness.png"

// FitnessPlotPath is where a run's fitness chart lives inside its
// artifact directory.
func FitnessPlotPath(baseDir, runID string) string {
	return filepath.Join(baseDir, runID, fitnessPlotFile)
}

// PlotFitnessHistory draws best and mean fitness against generation and
// saves the chart to path. The image format follows the file extension.
func PlotFitnessHistory(generations []model.GenerationSummary, title, path string) error {
	if len(generations) == 0 {
		return fmt.Errorf("no generations to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Fitness"

	bestPts := make(plotter.XYs, len(generations))
	meanPts := make(plotter.XYs, len(generations))
	for i, g := range generations {
		bestPts[i].X = float64(g.Generation)
		bestPts[i].Y = g.BestFitness
		meanPts[i].X = float64(g.Generation)
		meanPts[i].Y = g.MeanFitness
	}

	bestLine, err := plotter.NewLine(bestPts)
	if err != nil {
		return err
	}
	meanLine, err := plotter.NewLine(meanPts)
	if err != nil {
		return err
	}
	meanLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	p.Add(plotter.NewGrid(), bestLine, meanLine)
	p.Legend.Add("best", bestLine)
	p.Legend.Add("mean", meanLine)
	p.Legend.Top = true
	p.Legend.Left = true

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
