package analyzer

import (
	"image"

	"github.com/anime-shed/media-inspector-go/pkg/models"
)

// frameStats holds the per-frame results the video pipeline reduces
type frameStats struct {
	brightness  float64
	isGrayscale bool
	palette     []models.Color
	gray        *image.Gray
}
