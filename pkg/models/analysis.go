package models

// Color is one entry of a dominant-color palette. Weight is the fraction of
// sampled pixels the color covers.
type Color struct {
	R      uint8   `json:"r"`
	G      uint8   `json:"g"`
	B      uint8   `json:"b"`
	Weight float64 `json:"weight"`
}

// ImageAnalysisResult is the feature record for a single still image.
// Field names are part of the external contract.
type ImageAnalysisResult struct {
	Width             int     `json:"width"`
	Height            int     `json:"height"`
	IsGrayscale       bool    `json:"is_grayscale"`
	AverageBrightness float64 `json:"average_brightness"`
	Channels          int     `json:"channels"`
	EdgeCount         int     `json:"edge_count"`
	DominantColors    []Color `json:"dominant_colors"`
	BlurScore         float64 `json:"blur_score"`
}

// VideoAnalysisResult is the feature record for a clip, aggregated over the
// sampled frames. Field names are part of the external contract.
type VideoAnalysisResult struct {
	FrameCount        int     `json:"frame_count"`
	FPS               float64 `json:"fps"`
	Width             int     `json:"width"`
	Height            int     `json:"height"`
	DurationSeconds   float64 `json:"duration_seconds"`
	AverageBrightness float64 `json:"average_brightness"`
	IsGrayscale       bool    `json:"is_grayscale"`
	MotionScore       float64 `json:"motion_score"`
	DominantColors    []Color `json:"dominant_colors"`
}

// StreamMetadata describes a decoded video stream as reported by the decoder.
type StreamMetadata struct {
	FrameCount  int     `json:"frame_count"`
	FPS         float64 `json:"fps"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Channels    int     `json:"channels"`
	Codec       string  `json:"codec,omitempty"`
	PixelFormat string  `json:"pixel_format,omitempty"`
}

// MediaType classifies a file as image, video or neither
type MediaType string

const (
	MediaTypeImage   MediaType = "image"
	MediaTypeVideo   MediaType = "video"
	MediaTypeUnknown MediaType = "unknown"
)

// MediaMetadata describes fetched media bytes before decoding
type MediaMetadata struct {
	ContentType   string `json:"content_type"`
	ContentLength int64  `json:"content_length"`
	Source        string `json:"source"`
}
