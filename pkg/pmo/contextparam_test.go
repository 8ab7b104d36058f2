package pmo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextParameterUpdateFeatureFallsBackAtOrigin(t *testing.T) {
	tp := NewTemplatePatch(3, 0, Diamond)
	m := NewContextParameterMap(5, 5, tp)

	feature := m.UpdateFeature(Point{})
	assert.Equal(t, float64(pixelBits), feature)
	assert.Equal(t, float64(pixelBits), m.At(Point{}).Feature())
}

func TestContextParameterUpdateFeatureIsWeightedAverage(t *testing.T) {
	tp := NewTemplatePatch(3, 0, Diamond)
	m := NewContextParameterMap(5, 5, tp)

	for _, p := range tp.Points() {
		q := Point{X: 2, Y: 2}.Add(p)
		if q.IsIn(Point{}, Point{X: 5, Y: 5}) {
			m.UpdateEntropy(q, 4.0)
		}
	}

	feature := m.UpdateFeature(Point{X: 2, Y: 2})
	assert.InDelta(t, 4.0, feature, 1e-9)
}

func TestContextParameterUpdateEntropyPersists(t *testing.T) {
	m := NewContextParameterMap(2, 2, NewTemplatePatch(2, 0, Diamond))
	m.UpdateEntropy(Point{X: 1, Y: 1}, 2.5)
	require.Equal(t, 2.5, m.At(Point{X: 1, Y: 1}).Entropy())
}
