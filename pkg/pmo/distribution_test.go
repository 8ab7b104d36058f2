package pmo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMixtureDistributionEmptyIsUniform(t *testing.T) {
	d := NewMixtureDistribution(nil, modelIni, 0, false)
	p := d.Probability(42)
	assert.InDelta(t, 1.0/Levels, p.Value, 1e-12)
}

func TestMixtureDistributionSumsToApproximatelyOne(t *testing.T) {
	basicParams := []BasicParameter{
		{Cost: 0.1, Peak: 100, Flag: 0},
		{Cost: 0.5, Peak: 120, Flag: 1},
		{Cost: 0.3, Peak: 90, Flag: 0},
	}
	d := NewMixtureDistribution(basicParams, modelIni, 0, false)

	var sum float64
	for f := 0; f < Levels; f++ {
		sum += d.Probability(f).Value
	}
	assert.InDelta(t, 1.0, sum, 0.01)
}

func TestMixtureDistributionPeakIsMostProbable(t *testing.T) {
	basicParams := []BasicParameter{{Cost: 0.1, Peak: 128, Flag: 0}}
	d := NewMixtureDistribution(basicParams, modelIni, 0, false)

	peakProb := d.Probability(128).Value
	tailProb := d.Probability(0).Value
	assert.Greater(t, peakProb, tailProb)
}

func TestMixtureDistributionHistogramFloorsAtOne(t *testing.T) {
	basicParams := []BasicParameter{{Cost: 0.1, Peak: 0, Flag: 0}}
	d := NewMixtureDistribution(basicParams, modelIni, 0, false)

	hist := d.Histogram()
	for f, v := range hist {
		assert.GreaterOrEqual(t, v, uint64(1), "symbol %d must remain encodable", f)
	}

	var cumFreq uint64
	for _, v := range hist {
		cumFreq += v
	}
	assert.Greater(t, cumFreq, uint64(0))
}

func TestMixtureDistributionGradientIsPopulatedWhenRequested(t *testing.T) {
	basicParams := []BasicParameter{
		{Cost: 0.2, Peak: 100, Flag: 0},
		{Cost: 0.4, Peak: 150, Flag: 1},
	}
	d := NewMixtureDistribution(basicParams, modelIni, 0, true)
	require.Len(t, d.components, 2)

	result := d.Probability(100)

	var gradNonZero bool
	for _, g := range result.Grad {
		if g != 0 {
			gradNonZero = true
		}
	}
	assert.True(t, gradNonZero, "gradient should be non-trivial near a component's peak")
}

func TestMixtureDistributionNoGradientLeavesGradZero(t *testing.T) {
	basicParams := []BasicParameter{{Cost: 0.2, Peak: 100, Flag: 0}}
	d := NewMixtureDistribution(basicParams, modelIni, 0, false)
	result := d.Probability(100)
	assert.Equal(t, [NumModelParameters]float64{}, result.Grad)
}
