package scoring

import (
	"fmt"
	"math"

	"go-ela-inspector/internal/analyzer"
)

// Labels returned by Classify
const (
	LabelReal = "REAL"
	LabelFake = "FAKE"
)

const probabilityTolerance = 1e-6

// ClassificationResult is the verdict for one feature vector
type ClassificationResult struct {
	Label           string
	Prediction      int
	RealProbability float64
	FakeProbability float64
}

// IsFake reports whether the image was classified as manipulated
func (r ClassificationResult) IsFake() bool {
	return r.Label == LabelFake
}

// Classify scales features and scores them. The label is FAKE exactly when the
// scorer predicts class 1.
func Classify(scorer Scorer, features analyzer.FeatureVector) (ClassificationResult, error) {
	scaled, err := scorer.Scale(features.Slice())
	if err != nil {
		return ClassificationResult{}, fmt.Errorf("scale features: %w", err)
	}
	prediction, err := scorer.Predict(scaled)
	if err != nil {
		return ClassificationResult{}, fmt.Errorf("predict: %w", err)
	}
	proba, err := scorer.PredictProba(scaled)
	if err != nil {
		return ClassificationResult{}, fmt.Errorf("predict probabilities: %w", err)
	}

	for _, p := range proba {
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 || p > 1 {
			return ClassificationResult{}, fmt.Errorf("invalid probability %g", p)
		}
	}
	if sum := proba[0] + proba[1]; math.Abs(sum-1) > probabilityTolerance {
		return ClassificationResult{}, fmt.Errorf("probabilities sum to %g", sum)
	}

	label := LabelReal
	switch prediction {
	case 1:
		label = LabelFake
	case 0:
	default:
		return ClassificationResult{}, fmt.Errorf("unexpected class %d", prediction)
	}

	return ClassificationResult{
		Label:           label,
		Prediction:      prediction,
		RealProbability: proba[0],
		FakeProbability: proba[1],
	}, nil
}
