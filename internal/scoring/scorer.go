package scoring

// Scorer is the opaque capability the pipeline scores feature vectors with
type Scorer interface {
	Scale(features []float64) ([]float64, error)
	Predict(scaled []float64) (int, error)
	PredictProba(scaled []float64) ([2]float64, error)
}

// Classifier predicts a class and class probabilities from scaled features
type Classifier interface {
	Predict(x []float64) (int, error)
	PredictProba(x []float64) ([2]float64, error)
	NumFeatures() int
}

// Scaler standardizes raw feature vectors
type Scaler interface {
	Transform(x []float64) ([]float64, error)
	NumFeatures() int
}

// Bundle holds the loaded artifacts. It is immutable after loading and safe
// for concurrent use.
type Bundle struct {
	classifier Classifier
	scaler     Scaler
	config     ELAConfig
}

// NewBundle assembles a bundle from already-parsed artifacts
func NewBundle(classifier Classifier, scaler Scaler, config ELAConfig) *Bundle {
	return &Bundle{classifier: classifier, scaler: scaler, config: config}
}

// Config returns the analysis configuration the model was trained with
func (b *Bundle) Config() ELAConfig {
	return b.config
}

// Scale implements Scorer
func (b *Bundle) Scale(features []float64) ([]float64, error) {
	return b.scaler.Transform(features)
}

// Predict implements Scorer
func (b *Bundle) Predict(scaled []float64) (int, error) {
	return b.classifier.Predict(scaled)
}

// PredictProba implements Scorer
func (b *Bundle) PredictProba(scaled []float64) ([2]float64, error) {
	return b.classifier.PredictProba(scaled)
}
