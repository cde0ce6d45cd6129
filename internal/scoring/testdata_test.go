package scoring

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"go-ela-inspector/internal/analyzer"
)

// testForestJSON returns a two-tree forest over 29 features. Tree one splits
// feature 0 at 0.5; tree two is a single even leaf.
func testForestJSON(t *testing.T, nFeatures int) []byte {
	t.Helper()
	export := forestExport{
		NFeatures: nFeatures,
		Classes:   []int{0, 1},
		Trees: []treeExport{
			{
				ChildrenLeft:  []int{1, -1, -1},
				ChildrenRight: []int{2, -1, -1},
				Feature:       []int{0, -2, -2},
				Threshold:     []float64{0.5, -2, -2},
				Value:         [][]float64{{3, 5}, {3, 1}, {0, 4}},
			},
			{
				ChildrenLeft:  []int{-1},
				ChildrenRight: []int{-1},
				Feature:       []int{-2},
				Threshold:     []float64{-2},
				Value:         [][]float64{{1, 1}},
			},
		},
	}
	data, err := json.Marshal(export)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

// identityScalerJSON returns a scaler that leaves vectors unchanged
func identityScalerJSON(n int) []byte {
	mean := make([]string, n)
	scale := make([]string, n)
	for i := range mean {
		mean[i] = "0"
		scale[i] = "1"
	}
	return []byte(fmt.Sprintf(`{"mean":[%s],"scale":[%s]}`, strings.Join(mean, ","), strings.Join(scale, ",")))
}

func featureConfigJSON(t *testing.T, withNames bool) []byte {
	t.Helper()
	cfg := map[string]interface{}{
		"ela_quality":          90,
		"threshold_multiplier": 2.0,
		"min_region_size":      50,
		"enhancement_strength": 1.0,
	}
	if withNames {
		cfg["feature_names"] = analyzer.FeatureNames[:]
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return data
}
