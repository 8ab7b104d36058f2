package pmo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplatePatchOffsetsAreStrictlyCausal(t *testing.T) {
	tp := NewTemplatePatch(3, 0, Diamond)
	require.NotZero(t, tp.Size())

	for _, p := range tp.Points() {
		causal := p.Y < 0 || (p.Y == 0 && p.X < 0)
		assert.True(t, causal, "non-causal offset %v", p)
	}
}

func TestTemplatePatchWeightsNormalize(t *testing.T) {
	tp := NewTemplatePatch(4, 0, Diamond)

	var sum float64
	for _, w := range tp.Weights() {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestTemplatePatchRadius(t *testing.T) {
	tp := NewTemplatePatchXY(6.7, 1.3, 0, Ellipse, 1.25)
	assert.Equal(t, 6, tp.Radius())
}
