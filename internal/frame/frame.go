// Package frame holds the canonical in-memory representation of one decoded
// frame: row-major 8-bit samples with 1 (gray) or 3 (RGB) interleaved channels.
package frame

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

const (
	// Gray is the channel count of a single-plane intensity frame.
	Gray = 1
	// RGB is the channel count of an interleaved R,G,B frame.
	RGB = 3
)

// Luma weights (ITU-R BT.601).
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

var (
	// ErrInvalidGeometry is returned when width or height is not positive.
	ErrInvalidGeometry = errors.New("frame: width and height must be positive")

	// ErrBufferSize is returned when the pixel buffer does not match the geometry.
	ErrBufferSize = errors.New("frame: pixel buffer length does not match geometry")
)

// Buffer is an immutable decoded frame. Analyzers receive it by pointer and
// must treat Pix as read-only.
type Buffer struct {
	width    int
	height   int
	channels int
	pix      []byte
}

// New validates the geometry and wraps pix. The slice becomes owned by the
// returned Buffer; callers must not modify it afterwards.
//
// Any positive channel count is accepted so that decoders can hand over the
// layout they produced; analyzers reject layouts other than Gray and RGB.
func New(width, height, channels int, pix []byte) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidGeometry
	}
	if channels <= 0 {
		return nil, fmt.Errorf("frame: channel count must be positive (got %d)", channels)
	}
	if len(pix) != width*height*channels {
		return nil, fmt.Errorf("%w: want %d, got %d", ErrBufferSize, width*height*channels, len(pix))
	}
	return &Buffer{width: width, height: height, channels: channels, pix: pix}, nil
}

// Width returns the frame width in pixels.
func (b *Buffer) Width() int { return b.width }

// Height returns the frame height in pixels.
func (b *Buffer) Height() int { return b.height }

// Channels returns the number of interleaved samples per pixel.
func (b *Buffer) Channels() int { return b.channels }

// Pix returns the underlying samples. Read-only.
func (b *Buffer) Pix() []byte { return b.pix }

// PixelCount returns width×height.
func (b *Buffer) PixelCount() int { return b.width * b.height }

// SameGeometry reports whether o has the same width, height and channel count.
func (b *Buffer) SameGeometry(o *Buffer) bool {
	return b.width == o.width && b.height == o.height && b.channels == o.channels
}

// RGBAt returns the color of pixel i (row-major index). Gray frames return the
// intensity replicated across the three components.
func (b *Buffer) RGBAt(i int) (r, g, bl uint8) {
	if b.channels == Gray {
		v := b.pix[i]
		return v, v, v
	}
	off := i * b.channels
	return b.pix[off], b.pix[off+1], b.pix[off+2]
}

// Luma returns the BT.601 luma of an RGB triplet.
func Luma(r, g, b uint8) float64 {
	return lumaR*float64(r) + lumaG*float64(g) + lumaB*float64(b)
}

// LumaFromMeans applies the luma weights to per-channel means.
func LumaFromMeans(r, g, b float64) float64 {
	return lumaR*r + lumaG*g + lumaB*b
}

// GrayImage converts the frame into a single-channel luma plane. Gray frames
// are copied as-is; RGB frames are weighted and rounded to the nearest level.
func (b *Buffer) GrayImage() *image.Gray {
	gray := image.NewGray(image.Rect(0, 0, b.width, b.height))
	n := b.PixelCount()
	if b.channels == Gray {
		copy(gray.Pix, b.pix)
		return gray
	}
	for i := 0; i < n; i++ {
		off := i * b.channels
		v := Luma(b.pix[off], b.pix[off+1], b.pix[off+2]) + 0.5
		if v > 255 {
			v = 255
		}
		gray.Pix[i] = uint8(v)
	}
	return gray
}

// Image returns a standard library view of the frame, for encoding.
func (b *Buffer) Image() image.Image {
	rect := image.Rect(0, 0, b.width, b.height)
	if b.channels == Gray {
		gray := image.NewGray(rect)
		copy(gray.Pix, b.pix)
		return gray
	}
	rgba := image.NewRGBA(rect)
	for i := 0; i < b.PixelCount(); i++ {
		r, g, bl := b.RGBAt(i)
		rgba.Pix[i*4] = r
		rgba.Pix[i*4+1] = g
		rgba.Pix[i*4+2] = bl
		rgba.Pix[i*4+3] = 0xff
	}
	return rgba
}

// FromImage converts a decoded image into a Buffer. Gray images keep one
// channel; every other color model is flattened to RGB with alpha dropped.
func FromImage(img image.Image) (*Buffer, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, ErrInvalidGeometry
	}

	switch src := img.(type) {
	case *image.Gray:
		pix := make([]byte, w*h)
		for y := 0; y < h; y++ {
			start := (y+bounds.Min.Y-src.Rect.Min.Y)*src.Stride + (bounds.Min.X - src.Rect.Min.X)
			copy(pix[y*w:(y+1)*w], src.Pix[start:start+w])
		}
		return New(w, h, Gray, pix)
	case *image.Gray16:
		pix := make([]byte, w*h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				pix[y*w+x] = uint8(src.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y >> 8)
			}
		}
		return New(w, h, Gray, pix)
	case *image.RGBA:
		pix := make([]byte, w*h*RGB)
		for y := 0; y < h; y++ {
			row := src.Pix[(y+bounds.Min.Y-src.Rect.Min.Y)*src.Stride:]
			for x := 0; x < w; x++ {
				s := (x + bounds.Min.X - src.Rect.Min.X) * 4
				d := (y*w + x) * RGB
				pix[d], pix[d+1], pix[d+2] = row[s], row[s+1], row[s+2]
			}
		}
		return New(w, h, RGB, pix)
	}

	pix := make([]byte, w*h*RGB)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.RGBA)
			d := (y*w + x) * RGB
			pix[d], pix[d+1], pix[d+2] = c.R, c.G, c.B
		}
	}
	return New(w, h, RGB, pix)
}
