package analyzer

import (
	"github.com/anime-shed/media-inspector-go/internal/frame"
)

const (
	// grayTolerance is the largest max(R,G,B)-min(R,G,B) a neutral pixel may have.
	grayTolerance = 8
	// grayCoveragePercent is the share of neutral pixels a grayscale frame needs.
	grayCoveragePercent = 99
)

// IsGrayscale reports whether the frame carries no meaningful color. One-channel
// frames are always grayscale; RGB frames are grayscale when at least 99% of
// their pixels are neutral, which tolerates isolated noisy pixels.
func (mc *metricsCalculator) IsGrayscale(buf *frame.Buffer) bool {
	if buf.Channels() == frame.Gray {
		return true
	}

	width, height := buf.Width(), buf.Height()
	pix := buf.Pix()
	ch := buf.Channels()

	partials := mapStrips(width, height, func(startY, endY int) int {
		neutral := 0
		for off := startY * width * ch; off < endY*width*ch; off += ch {
			r, g, b := pix[off], pix[off+1], pix[off+2]
			if maxU8(r, g, b)-minU8(r, g, b) <= grayTolerance {
				neutral++
			}
		}
		return neutral
	})

	neutral := 0
	for _, n := range partials {
		neutral += n
	}
	return neutral*100 >= grayCoveragePercent*width*height
}

// AverageBrightness returns the mean luma of all pixels in [0,255]. Channel
// sums are accumulated as integers and the luma weights applied to the means,
// which equals the per-pixel luma mean since luma is linear.
func (mc *metricsCalculator) AverageBrightness(buf *frame.Buffer) float64 {
	width, height := buf.Width(), buf.Height()
	pix := buf.Pix()
	ch := buf.Channels()

	type channelSums struct {
		r, g, b uint64
	}

	partials := mapStrips(width, height, func(startY, endY int) channelSums {
		var s channelSums
		if ch == frame.Gray {
			for _, v := range pix[startY*width : endY*width] {
				s.r += uint64(v)
			}
			return s
		}
		for off := startY * width * ch; off < endY*width*ch; off += ch {
			s.r += uint64(pix[off])
			s.g += uint64(pix[off+1])
			s.b += uint64(pix[off+2])
		}
		return s
	})

	var total channelSums
	for _, p := range partials {
		total.r += p.r
		total.g += p.g
		total.b += p.b
	}

	n := float64(width * height)
	if ch == frame.Gray {
		return clamp(float64(total.r)/n, 0, 255)
	}
	luma := frame.LumaFromMeans(float64(total.r)/n, float64(total.g)/n, float64(total.b)/n)
	return clamp(luma, 0, 255)
}

func maxU8(a, b, c uint8) uint8 {
	if b > a {
		a = b
	}
	if c > a {
		a = c
	}
	return a
}

func minU8(a, b, c uint8) uint8 {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
