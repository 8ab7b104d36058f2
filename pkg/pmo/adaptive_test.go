package pmo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredictorGaussJordanSolvesKnownLinearSystem(t *testing.T) {
	// 2x + y = 5
	//  x + 3y = 10
	// => x = 1, y = 3
	pr := &Predictor{
		numCoeffs: 2,
		rowOrder:  make([]int, 2),
		coeffs:    make([]float64, 2),
		matrix: [][]float64{
			{2, 1, 5},
			{1, 3, 10},
		},
	}

	pr.gaussJordan()

	require.Len(t, pr.coeffs, 2)
	assert.InDelta(t, 1.0, pr.coeffs[0], 1e-9)
	assert.InDelta(t, 3.0, pr.coeffs[1], 1e-9)
}

func TestPredictorEstimateOnSmoothImageFitsWell(t *testing.T) {
	img := buildTestImage(12, 12, func(x, y int) uint8 { return uint8(3*x + 2*y) })
	tp := NewTemplatePatch(2, 0, Diamond)
	basicParams := NewBasicParameterMap(12, 12, 8)

	pr := NewPredictor(img, tp, basicParams)
	target := Point{X: 6, Y: 6}
	pr.Estimate(target, 8, 4)

	params := basicParams.At(target).Params()
	require.NotEmpty(t, params, "a linear predictor should fit a smooth ramp well enough to be inserted")

	got := params[0]
	want := float64(img.At(target))
	assert.InDelta(t, want, got.Peak, 3.0)
	assert.Equal(t, 1.0, got.Flag)
}

func TestPredictorCalcPeakClampsToValidRange(t *testing.T) {
	img := buildTestImage(4, 4, func(x, y int) uint8 { return 255 })
	tp := NewTemplatePatch(1, 0, Diamond)
	basicParams := NewBasicParameterMap(4, 4, 2)
	pr := NewPredictor(img, tp, basicParams)

	for i := range pr.coeffs {
		pr.coeffs[i] = 1000
	}
	peak := pr.calcPeak(Point{X: 2, Y: 2})
	assert.LessOrEqual(t, peak, float64(Levels))
	assert.GreaterOrEqual(t, peak, 0.0)
}

func TestAdaptivePredictionRunsFullBank(t *testing.T) {
	img := buildTestImage(10, 10, func(x, y int) uint8 { return uint8(x + y) })
	basicParams := NewBasicParameterMap(10, 10, 64)

	ap := NewAdaptivePrediction(img, basicParams, false)
	target := Point{X: 5, Y: 5}
	ap.Estimate(target, 64, 6)

	assert.NotEmpty(t, basicParams.At(target).Params())
}

func TestAdaptivePredictionParallelMatchesSequentialCount(t *testing.T) {
	buildAndRun := func(parallel bool) int {
		img := buildTestImage(10, 10, func(x, y int) uint8 { return uint8((x * 5) % 256) })
		basicParams := NewBasicParameterMap(10, 10, 64)
		ap := NewAdaptivePrediction(img, basicParams, parallel)
		target := Point{X: 5, Y: 5}
		ap.Estimate(target, 64, 6)
		return len(basicParams.At(target).Params())
	}

	assert.Equal(t, buildAndRun(false), buildAndRun(true))
}
