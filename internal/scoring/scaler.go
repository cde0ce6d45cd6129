package scoring

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// StandardScaler applies (x - mean) / scale per feature
type StandardScaler struct {
	mean  []float64
	scale []float64
}

type scalerExport struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// NewStandardScaler validates the parameters. A zero scale means the feature
// was constant during fitting and is left unscaled.
func NewStandardScaler(mean, scale []float64) (*StandardScaler, error) {
	if len(mean) == 0 {
		return nil, fmt.Errorf("scaler has no features")
	}
	if len(mean) != len(scale) {
		return nil, fmt.Errorf("scaler mean has %d values but scale has %d", len(mean), len(scale))
	}
	s := &StandardScaler{
		mean:  append([]float64(nil), mean...),
		scale: append([]float64(nil), scale...),
	}
	for i := range s.scale {
		if !isFinite(s.mean[i]) || !isFinite(s.scale[i]) {
			return nil, fmt.Errorf("scaler parameter %d is not finite", i)
		}
		if s.scale[i] == 0 {
			s.scale[i] = 1
		}
	}
	return s, nil
}

// ParseStandardScaler decodes the JSON export {"mean": [...], "scale": [...]}
func ParseStandardScaler(data []byte) (*StandardScaler, error) {
	var export scalerExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("decode scaler: %w", err)
	}
	return NewStandardScaler(export.Mean, export.Scale)
}

// NumFeatures returns the expected vector length
func (s *StandardScaler) NumFeatures() int {
	return len(s.mean)
}

// Transform returns a standardized copy of x
func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.mean) {
		return nil, fmt.Errorf("scaler expects %d features, got %d", len(s.mean), len(x))
	}
	out := make([]float64, len(x))
	floats.SubTo(out, x, s.mean)
	floats.Div(out, s.scale)
	return out, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
