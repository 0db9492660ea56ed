package analyzer

import (
	"fmt"
	"image"

	"gonum.org/v1/gonum/stat"

	apperrors "github.com/anime-shed/media-inspector-go/internal/errors"
)

// MeanAbsDiff returns the mean absolute intensity difference between two
// equally sized planes, normalized by 255 into [0,1].
func (mc *metricsCalculator) MeanAbsDiff(a, b *image.Gray) float64 {
	ab, bb := a.Bounds(), b.Bounds()
	width, height := ab.Dx(), ab.Dy()
	if width == 0 || height == 0 {
		return 0
	}

	partials := mapStrips(width, height, func(startY, endY int) uint64 {
		var sum uint64
		for y := startY; y < endY; y++ {
			rowA := a.Pix[a.PixOffset(ab.Min.X, ab.Min.Y+y):]
			rowB := b.Pix[b.PixOffset(bb.Min.X, bb.Min.Y+y):]
			for x := 0; x < width; x++ {
				d := int(rowA[x]) - int(rowB[x])
				if d < 0 {
					d = -d
				}
				sum += uint64(d)
			}
		}
		return sum
	})

	var total uint64
	for _, s := range partials {
		total += s
	}
	return clamp(float64(total)/float64(width*height)/255, 0, 1)
}

// MotionScore averages MeanAbsDiff over consecutive pairs of the ordered
// sampled planes. Fewer than two planes yield 0. Planes of differing size mean
// the frame source is broken and are reported as a decode error.
func MotionScore(mc MetricsCalculator, planes []*image.Gray) (float64, error) {
	if len(planes) < 2 {
		return 0, nil
	}
	want := planes[0].Bounds().Size()
	pairs := make([]float64, 0, len(planes)-1)
	for i := 1; i < len(planes); i++ {
		if got := planes[i].Bounds().Size(); got != want {
			return 0, apperrors.NewDecodeError(
				fmt.Sprintf("sampled frame %d is %dx%d, expected %dx%d", i, got.X, got.Y, want.X, want.Y), nil)
		}
		pairs = append(pairs, mc.MeanAbsDiff(planes[i-1], planes[i]))
	}
	return clamp(stat.Mean(pairs, nil), 0, 1), nil
}
