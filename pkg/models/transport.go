package models

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status    string       `json:"status"`
	Version   string       `json:"version"`
	Timestamp string       `json:"timestamp"`
	Model     ModelSummary `json:"model"`
}

// ModelSummary describes the loaded artifact bundle
type ModelSummary struct {
	Source              string   `json:"source"`
	Features            int      `json:"features"`
	ELAQuality          int      `json:"ela_quality"`
	ThresholdMultiplier float64  `json:"threshold_multiplier"`
	MinRegionSize       int      `json:"min_region_size"`
	EnhancementStrength float64  `json:"enhancement_strength"`
	FeatureNames        []string `json:"feature_names,omitempty"`
}
