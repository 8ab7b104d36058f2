package pmo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestImage(height, width int, fn func(x, y int) uint8) *Image {
	img := NewImage(height, width)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(Point{X: x, Y: y}, fn(x, y))
		}
	}
	return img
}

func TestExampleSearchEstimateKeepsCandidatesSortedWithExampleFlag(t *testing.T) {
	img := buildTestImage(8, 8, func(x, y int) uint8 { return uint8(x + y*8) })
	tp := NewTemplatePatch(2, 0, Diamond)
	basicParams := NewBasicParameterMap(8, 8, 32)

	es := NewExampleSearch(16, img, tp, basicParams)

	target := Point{X: 4, Y: 4}
	es.Estimate(target, 3, 0.01)

	params := basicParams.At(target).Params()
	require.NotEmpty(t, params)

	for i := 1; i < len(params); i++ {
		assert.LessOrEqual(t, params[i-1].Cost, params[i].Cost, "candidates must be kept sorted by cost")
	}
	for _, p := range params {
		assert.Equal(t, 0.0, p.Flag)
	}
}

func TestExampleSearchCalcCostIsZeroForIdenticalNeighborhoods(t *testing.T) {
	img := buildTestImage(8, 8, func(x, y int) uint8 { return 100 })
	tp := NewTemplatePatch(2, 0, Diamond)
	basicParams := NewBasicParameterMap(8, 8, 8)
	es := NewExampleSearch(8, img, tp, basicParams)

	p := Point{X: 4, Y: 4}
	q := Point{X: 3, Y: 3}
	es.calcTemplate(p)
	es.calcTemplate(q)

	assert.InDelta(t, 0.0, es.calcCost(p, q), 1e-9)
}

func TestExampleSearchUpdateTemplateTracksLatestPoint(t *testing.T) {
	img := buildTestImage(6, 6, func(x, y int) uint8 { return uint8(x*7 + y*3) })
	tp := NewTemplatePatch(2, 0, Diamond)
	basicParams := NewBasicParameterMap(6, 6, 4)
	es := NewExampleSearch(4, img, tp, basicParams)

	es.calcTemplate(Point{X: 0, Y: 0})
	es.UpdateTemplate(Point{X: 0, Y: 0})

	es.calcTemplate(Point{X: 1, Y: 0})
	es.UpdateTemplate(Point{X: 1, Y: 0})

	// border templates are clipped against the latest coded point.
	assert.Equal(t, Point{X: 1, Y: 0}, es.latest)
}
