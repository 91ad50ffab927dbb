// Package scorer wraps the trained attack classifier. The engine consumes it
// as an opaque capability: feature vector in, label and class probabilities
// out. Loading happens once at startup; a load failure is fatal, never a
// per-record condition.
package scorer

import (
	"math"

	"github.com/crimson-sun/warden/internal/engine/features"
	"github.com/crimson-sun/warden/internal/model"
)

// Scorer classifies feature vectors. Implementations must be safe for
// concurrent use after construction.
type Scorer interface {
	// Score returns the winning label and the full class distribution.
	// The probabilities sum to 1.
	Score(vec features.Vector) (model.Label, map[model.Label]float64, error)
	Close() error
}

// softmax converts raw class scores into a probability distribution.
func softmax(scores []float64) []float64 {
	max := scores[0]
	for _, s := range scores[1:] {
		if s > max {
			max = s
		}
	}
	out := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		out[i] = math.Exp(s - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// distribution pairs softmaxed scores with the fixed label order and picks
// the argmax, breaking ties toward the earlier label.
func distribution(scores []float64) (model.Label, map[model.Label]float64) {
	labels := model.Labels()
	probs := softmax(scores)

	dist := make(map[model.Label]float64, len(labels))
	best := 0
	for i, l := range labels {
		dist[l] = probs[i]
		if probs[i] > probs[best] {
			best = i
		}
	}
	return labels[best], dist
}
