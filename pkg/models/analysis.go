package models

// AnalysisResponse is the body returned for one analyzed upload
type AnalysisResponse struct {
	RequestID      string         `json:"request_id,omitempty"`
	ImagePanel     ImagePanel     `json:"image_panel"`
	AnalysisPanel  AnalysisPanel  `json:"analysis_panel"`
	Explainability Explainability `json:"explainability"`
	ProcessingTime float64        `json:"processing_time_sec"`
}

// ImagePanel echoes the uploaded image
type ImagePanel struct {
	Filename       string `json:"filename"`
	PreviewDataURL string `json:"preview_data_url"`
}

// AnalysisPanel carries the verdict
type AnalysisPanel struct {
	Label           string        `json:"label"`
	Probabilities   Probabilities `json:"probabilities"`
	FakeProbability float64       `json:"fake_probability"`
	IsFake          bool          `json:"is_fake"`
}

// Probabilities are the class probabilities; they sum to 1
type Probabilities struct {
	Real float64 `json:"real"`
	Fake float64 `json:"fake"`
}

// Explainability holds the rendered overlays and the numbers behind them
type Explainability struct {
	OriginalWithBoxes string         `json:"original_with_boxes"`
	ELAHeatmap        string         `json:"ela_heatmap"`
	ELAWithBoxes      string         `json:"ela_with_boxes"`
	TopBoxes          []Box          `json:"top_boxes"`
	Threshold         float64        `json:"threshold"`
	FeatureSummary    FeatureSummary `json:"feature_summary"`
}

// Box is a rendered region in image pixel coordinates
type Box struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// FeatureSummary is the human-readable subset of the feature vector
type FeatureSummary struct {
	MeanError            float64 `json:"mean_error"`
	MaxError             float64 `json:"max_error"`
	StdError             float64 `json:"std_error"`
	MedianError          float64 `json:"median_error"`
	Threshold            float64 `json:"threshold"`
	SuspiciousPixels     int     `json:"suspicious_pixels"`
	SuspiciousPercentage float64 `json:"suspicious_percentage"`
	NumRegions           int     `json:"num_regions"`
}
