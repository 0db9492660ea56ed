package analyzer

import (
	"image"
)

// edgeThreshold is the gradient magnitude a pixel must exceed to count as an edge.
const edgeThreshold = 50

// EdgeCount counts pixels whose gradient magnitude exceeds edgeThreshold.
// Gradients are forward differences, gx = I(x+1,y)-I(x,y) and
// gy = I(x,y+1)-I(x,y), with the border replicated so the last column has
// gx = 0 and the last row gy = 0. Every pixel is evaluated; the result is a raw
// count in [0, width*height].
func (mc *metricsCalculator) EdgeCount(gray *image.Gray) int {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return 0
	}

	partials := mapStrips(width, height, func(startY, endY int) int {
		edges := 0
		for y := startY; y < endY; y++ {
			row := gray.Pix[gray.PixOffset(bounds.Min.X, bounds.Min.Y+y):]
			var below []uint8
			if y+1 < height {
				below = gray.Pix[gray.PixOffset(bounds.Min.X, bounds.Min.Y+y+1):]
			}
			for x := 0; x < width; x++ {
				c := int(row[x])
				gx, gy := 0, 0
				if x+1 < width {
					gx = int(row[x+1]) - c
				}
				if below != nil {
					gy = int(below[x]) - c
				}
				if gx*gx+gy*gy > edgeThreshold*edgeThreshold {
					edges++
				}
			}
		}
		return edges
	})

	total := 0
	for _, e := range partials {
		total += e
	}
	return total
}
