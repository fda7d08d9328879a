package classify

import (
	"context"

	"github.com/signlabs/signvoice/internal/vision"
)

type mockClassifier struct {
	info    ModelInfo
	scripts [][]float32
	cursor  int
}

// NewMockClassifier returns scripted probability vectors in order,
// repeating the last one once the script is exhausted. With no script it
// always reports class 0 at full confidence.
func NewMockClassifier(info ModelInfo, scripts ...[]float32) Classifier {
	return &mockClassifier{info: info, scripts: scripts}
}

func (m *mockClassifier) Describe() ModelInfo {
	return m.info
}

func (m *mockClassifier) Predict(_ context.Context, _ vision.Tensor) ([]float32, error) {
	if len(m.scripts) == 0 {
		probs := make([]float32, m.info.NumClasses)
		if len(probs) > 0 {
			probs[0] = 1
		}
		return probs, nil
	}
	probs := m.scripts[m.cursor]
	if m.cursor < len(m.scripts)-1 {
		m.cursor++
	}
	return probs, nil
}
