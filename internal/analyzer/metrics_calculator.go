package analyzer

import (
	"runtime"
	"sync"
)

// metricsCalculator implements MetricsCalculator. Row-parallel reductions split
// the frame into horizontal strips and collect per-strip partials by index, so
// results do not depend on goroutine scheduling.
type metricsCalculator struct {
	slicePool sync.Pool
}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator() MetricsCalculator {
	return &metricsCalculator{
		slicePool: sync.Pool{
			New: func() interface{} {
				return make([]float64, 0, 1024)
			},
		},
	}
}

// minParallelPixels is the frame size below which strips run sequentially.
const minParallelPixels = 64 * 1024

type rowRange struct {
	startY, endY int
}

// rowStrips splits height rows into at most NumCPU contiguous strips.
func rowStrips(width, height int) []rowRange {
	numWorkers := runtime.NumCPU()
	if width*height < minParallelPixels {
		numWorkers = 1
	}
	if height < numWorkers {
		numWorkers = height
	}
	if numWorkers <= 0 {
		numWorkers = 1
	}
	rowsPerWorker := (height + numWorkers - 1) / numWorkers // ceil division

	strips := make([]rowRange, 0, numWorkers)
	for startY := 0; startY < height; startY += rowsPerWorker {
		endY := startY + rowsPerWorker
		if endY > height {
			endY = height
		}
		strips = append(strips, rowRange{startY, endY})
	}
	return strips
}

// mapStrips runs fn over every strip and returns the partials in strip order.
func mapStrips[T any](width, height int, fn func(startY, endY int) T) []T {
	strips := rowStrips(width, height)
	results := make([]T, len(strips))
	if len(strips) == 1 {
		results[0] = fn(strips[0].startY, strips[0].endY)
		return results
	}

	var wg sync.WaitGroup
	for i, s := range strips {
		wg.Add(1)
		go func(i int, s rowRange) {
			defer wg.Done()
			results[i] = fn(s.startY, s.endY)
		}(i, s)
	}
	wg.Wait()
	return results
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
