package classify

import (
	"context"
	"fmt"

	"github.com/signlabs/signvoice/internal/labels"
	"github.com/signlabs/signvoice/internal/recognize"
	"github.com/signlabs/signvoice/internal/vision"
)

// ModelInfo describes the loaded model's contract, discovered once at
// startup.
type ModelInfo struct {
	InputSize  int `json:"input_size"`
	NumClasses int `json:"num_classes"`
}

// Classifier abstracts inference backends. Predict returns one probability
// per known class for a prepared tensor.
type Classifier interface {
	Describe() ModelInfo
	Predict(ctx context.Context, tensor vision.Tensor) ([]float32, error)
}

// Adapter resolves raw probability vectors into labeled observations.
type Adapter struct {
	classifier Classifier
	labels     *labels.Set
}

func NewAdapter(classifier Classifier, set *labels.Set) *Adapter {
	return &Adapter{classifier: classifier, labels: set}
}

func (a *Adapter) Describe() ModelInfo {
	return a.classifier.Describe()
}

// Classify runs inference and maps the arg-max class to its label.
// Inference errors propagate uncaught; the loop driver owns the policy.
func (a *Adapter) Classify(ctx context.Context, tensor vision.Tensor) (recognize.Observation, error) {
	probs, err := a.classifier.Predict(ctx, tensor)
	if err != nil {
		return recognize.Observation{}, err
	}
	if len(probs) == 0 {
		return recognize.Observation{}, fmt.Errorf("classifier returned empty probability vector")
	}
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return recognize.Observation{
		Label:      a.labels.Resolve(best),
		Confidence: float64(probs[best]),
	}, nil
}
