package analyzer

import (
	"math"
	"sort"

	"github.com/anime-shed/media-inspector-go/internal/frame"
	"github.com/anime-shed/media-inspector-go/pkg/models"
)

const (
	// maxPaletteSamples bounds the pixels visited by palette extraction.
	maxPaletteSamples = 65536
	// bucketBits is the per-channel precision of the seeding partition.
	bucketBits = 4
	// lloydIterations is the fixed number of k-means refinement passes.
	lloydIterations = 6
)

type bucketStat struct {
	key        int
	count      int
	firstSeen  int
	sumR, sumG int
	sumB       int
}

func bucketKey(r, g, b uint8) int {
	shift := 8 - bucketBits
	return int(r>>shift)<<(2*bucketBits) | int(g>>shift)<<bucketBits | int(b>>shift)
}

// DominantColors returns up to k representative colors sorted by descending
// coverage. Seeds come from the k most populated cells of a 4-bit-per-channel
// partition, then a fixed number of Lloyd passes refines them. No randomness is
// involved, so a given frame always yields the same palette.
func (mc *metricsCalculator) DominantColors(buf *frame.Buffer, k int) []models.Color {
	if k <= 0 {
		return []models.Color{}
	}

	samples := samplePixels(buf)
	n := len(samples) / 3

	// Seed from the partition.
	buckets := make(map[int]*bucketStat)
	order := make([]*bucketStat, 0, 64)
	for i := 0; i < n; i++ {
		r, g, b := samples[i*3], samples[i*3+1], samples[i*3+2]
		key := bucketKey(r, g, b)
		bs, ok := buckets[key]
		if !ok {
			bs = &bucketStat{key: key, firstSeen: len(order)}
			buckets[key] = bs
			order = append(order, bs)
		}
		bs.count++
		bs.sumR += int(r)
		bs.sumG += int(g)
		bs.sumB += int(b)
	}
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].count > order[j].count
	})
	if k > len(order) {
		k = len(order)
	}

	centroids := make([][3]float64, k)
	for i := 0; i < k; i++ {
		bs := order[i]
		c := float64(bs.count)
		centroids[i] = [3]float64{float64(bs.sumR) / c, float64(bs.sumG) / c, float64(bs.sumB) / c}
	}

	members := make([]int, k)
	for iter := 0; iter <= lloydIterations; iter++ {
		sums := make([][3]float64, k)
		for i := range members {
			members[i] = 0
		}
		for i := 0; i < n; i++ {
			r, g, b := float64(samples[i*3]), float64(samples[i*3+1]), float64(samples[i*3+2])
			c := nearestCentroid(centroids, r, g, b)
			members[c]++
			sums[c][0] += r
			sums[c][1] += g
			sums[c][2] += b
		}
		// The final pass only counts memberships against the refined centroids.
		if iter == lloydIterations {
			break
		}
		for c := range centroids {
			if members[c] == 0 {
				continue
			}
			m := float64(members[c])
			centroids[c] = [3]float64{sums[c][0] / m, sums[c][1] / m, sums[c][2] / m}
		}
	}

	palette := make([]models.Color, 0, k)
	for c, centroid := range centroids {
		if members[c] == 0 {
			continue
		}
		palette = append(palette, models.Color{
			R:      toU8(centroid[0]),
			G:      toU8(centroid[1]),
			B:      toU8(centroid[2]),
			Weight: float64(members[c]) / float64(n),
		})
	}
	sortPalette(palette)
	return palette
}

// samplePixels returns interleaved RGB triplets for every stride-th pixel,
// where the stride keeps the sample at or below maxPaletteSamples.
func samplePixels(buf *frame.Buffer) []uint8 {
	total := buf.PixelCount()
	stride := (total + maxPaletteSamples - 1) / maxPaletteSamples
	if stride < 1 {
		stride = 1
	}
	samples := make([]uint8, 0, ((total+stride-1)/stride)*3)
	for i := 0; i < total; i += stride {
		r, g, b := buf.RGBAt(i)
		samples = append(samples, r, g, b)
	}
	return samples
}

// nearestCentroid returns the index of the closest centroid by squared
// Euclidean distance; ties go to the lower index.
func nearestCentroid(centroids [][3]float64, r, g, b float64) int {
	best := 0
	bestDist := math.MaxFloat64
	for i, c := range centroids {
		dr, dg, db := r-c[0], g-c[1], b-c[2]
		d := dr*dr + dg*dg + db*db
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// mergePalettes combines per-frame palettes into one. Each frame contributes
// weight/frames; colors falling into the same partition cell are merged with a
// weight-averaged color and a summed weight. The k heaviest entries are kept.
func mergePalettes(palettes [][]models.Color, k int) []models.Color {
	if len(palettes) == 0 || k <= 0 {
		return []models.Color{}
	}
	scale := 1 / float64(len(palettes))

	type acc struct {
		r, g, b, w float64
	}
	cells := make(map[int]*acc)
	var order []int
	for _, palette := range palettes {
		for _, c := range palette {
			w := c.Weight * scale
			key := bucketKey(c.R, c.G, c.B)
			a, ok := cells[key]
			if !ok {
				a = &acc{}
				cells[key] = a
				order = append(order, key)
			}
			a.r += float64(c.R) * w
			a.g += float64(c.G) * w
			a.b += float64(c.B) * w
			a.w += w
		}
	}

	merged := make([]models.Color, 0, len(order))
	for _, key := range order {
		a := cells[key]
		if a.w <= 0 {
			continue
		}
		merged = append(merged, models.Color{
			R:      toU8(a.r / a.w),
			G:      toU8(a.g / a.w),
			B:      toU8(a.b / a.w),
			Weight: a.w,
		})
	}
	sortPalette(merged)
	if len(merged) > k {
		merged = merged[:k]
	}
	return merged
}

// sortPalette orders by descending weight, keeping insertion order for ties.
func sortPalette(palette []models.Color) {
	sort.SliceStable(palette, func(i, j int) bool {
		return palette[i].Weight > palette[j].Weight
	})
}

func toU8(v float64) uint8 {
	return uint8(clamp(math.Round(v), 0, 255))
}
