package models

// AnalyzeImageRequest is the JSON body of POST /analyze/image
type AnalyzeImageRequest struct {
	URL         string `json:"url" binding:"required,url"`
	Preset      string `json:"preset,omitempty"`
	PaletteSize int    `json:"palette_size,omitempty"`
}

// AnalyzeVideoRequest is the JSON body of POST /analyze/video
type AnalyzeVideoRequest struct {
	URL         string `json:"url" binding:"required,url"`
	Preset      string `json:"preset,omitempty"`
	SampleCount int    `json:"sample_count,omitempty"`
	PaletteSize int    `json:"palette_size,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}
