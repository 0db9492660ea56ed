package analyzer

import (
	"image"

	"gonum.org/v1/gonum/stat"
)

// LaplacianVariance computes the variance of the 4-neighbour Laplacian
// [0 1 0; 1 -4 1; 0 1 0] over every pixel, replicating the border. Uniform
// frames score 0; the score grows with fine detail and has no upper bound.
func (mc *metricsCalculator) LaplacianVariance(gray *image.Gray) float64 {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	total := width * height
	if total < 2 {
		return 0
	}

	// Get reusable slice from pool
	data := mc.slicePool.Get().([]float64)
	if cap(data) < total {
		data = make([]float64, total)
	}
	data = data[:total]
	defer mc.slicePool.Put(data[:0])

	at := func(x, y int) float64 {
		if x < 0 {
			x = 0
		} else if x >= width {
			x = width - 1
		}
		if y < 0 {
			y = 0
		} else if y >= height {
			y = height - 1
		}
		return float64(gray.Pix[gray.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)])
	}

	// Strips write disjoint ranges of data.
	mapStrips(width, height, func(startY, endY int) struct{} {
		for y := startY; y < endY; y++ {
			for x := 0; x < width; x++ {
				data[y*width+x] = at(x, y-1) + at(x, y+1) + at(x-1, y) + at(x+1, y) - 4*at(x, y)
			}
		}
		return struct{}{}
	})

	v := stat.Variance(data, nil)
	if v < 0 {
		return 0
	}
	return v
}
