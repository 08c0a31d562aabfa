package track

import "math"

// SineTrack carves a winding tunnel whose centre line follows a sine wave
// and whose width breathes with a cosine. The first ten columns around the
// vertical middle are cleared as a start pocket.
func SineTrack(width, height int) (*Grid, error) {
	cells := filled(width, height, Wall)
	if cells == nil {
		return nil, ErrEmptyGrid
	}
	mid := float64(height) / 2
	amp := float64(height)/3 - 2
	for x := 0; x < width; x++ {
		center := int(mid + math.Sin(float64(x)*0.15)*amp)
		half := 3 + int(math.Cos(float64(x)*0.1)+1)
		for y := center - half; y < center+half; y++ {
			if y > 0 && y < height-1 {
				cells[y*width+x] = Open
			}
		}
	}

	start := height / 2
	for x := 0; x < 10 && x < width; x++ {
		for y := start - 3; y < start+3; y++ {
			if y >= 0 && y < height {
				cells[y*width+x] = Open
			}
		}
	}
	return NewGrid(width, height, cells)
}

// Arena is an open rectangle surrounded by a one-cell wall border.
func Arena(width, height int) (*Grid, error) {
	cells := filled(width, height, Open)
	if cells == nil {
		return nil, ErrEmptyGrid
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x == 0 || y == 0 || x == width-1 || y == height-1 {
				cells[y*width+x] = Wall
			}
		}
	}
	return NewGrid(width, height, cells)
}

func filled(width, height int, c Cell) []Cell {
	if width <= 0 || height <= 0 {
		return nil
	}
	cells := make([]Cell, width*height)
	for i := range cells {
		cells[i] = c
	}
	return cells
}
