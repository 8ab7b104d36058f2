package pmo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildOptimizerFixture(t *testing.T) (*Optimizer, *ModelParameterMap) {
	t.Helper()

	const h, w = 6, 6
	img := buildTestImage(h, w, func(x, y int) uint8 { return uint8(10 + x*5 + y*3) })
	tp := NewTemplatePatch(2, 0, Diamond)

	basicParams := NewBasicParameterMap(h, w, 4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := Point{X: x, Y: y}
			// a single, exact-peak candidate makes the pixel trivially codeable.
			basicParams.At(p).Insert(BasicParameter{Cost: 0, Peak: float64(img.At(p)), Flag: 0}, 4)
		}
	}

	modelParams := NewModelParameterMap(h, w, 4)
	contextParams := NewContextParameterMap(h, w, tp)

	opt := NewOptimizer(img, basicParams, modelParams, contextParams, nil)
	return opt, modelParams
}

func TestOptimizerOptimizeReturnsFiniteNonNegativeCost(t *testing.T) {
	opt, _ := buildOptimizerFixture(t)
	cost := opt.Optimize()

	assert.True(t, isFinite(cost))
	assert.GreaterOrEqual(t, cost, 0.0)
}

func TestOptimizerOptimizeDoesNotIncreaseCostComparedToInitialSegmentation(t *testing.T) {
	opt, _ := buildOptimizerFixture(t)
	initial := opt.updateUnitArrange()

	final := opt.Optimize()

	assert.LessOrEqual(t, final, initial+1e-6)
}

func TestOptimizerQuasiNewtonConvergesToFiniteParams(t *testing.T) {
	opt, modelParams := buildOptimizerFixture(t)
	opt.updateUnitArrange()

	for unitID := 0; unitID < modelParams.NumUnits(); unitID++ {
		if modelParams.NumPix(unitID) > 0 {
			opt.quasiNewtonMethod(unitID)
		}
		params := modelParams.Unit(unitID).Params()
		for _, v := range params {
			require.False(t, math.IsNaN(v))
			require.False(t, math.IsInf(v, 0))
		}
	}
}
