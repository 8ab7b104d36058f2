package pmo

import "math"

// TemplateShape selects the geometric test used to admit a causal offset
// into a TemplatePatch.
type TemplateShape int

const (
	// Diamond admits points within an L1 ball, intersected with the unit
	// ellipse test.
	Diamond TemplateShape = iota
	// Ellipse admits points within a (possibly rotated, possibly
	// non-circular) ellipse.
	Ellipse
)

// TemplatePatch is an immutable, causally-restricted, weighted neighborhood
// shape shared by the example-search and adaptive-prediction estimators.
// Offsets are strictly causal: y < 0, or y == 0 and x < 0.
type TemplatePatch struct {
	radiusX, radiusY float64
	radian           float64
	points           []Point
	weights          []float64
}

// NewTemplatePatch builds a circular (radiusX == radiusY) template.
func NewTemplatePatch(radius float64, radian float64, shape TemplateShape) *TemplatePatch {
	return NewTemplatePatchXY(radius, radius, radian, shape, 1.25)
}

// NewTemplatePatchXY builds a possibly-elliptical, rotated template with an
// explicit weight standard deviation.
func NewTemplatePatchXY(radiusX, radiusY, radian float64, shape TemplateShape, weightSD float64) *TemplatePatch {
	t := &TemplatePatch{}
	t.Reset(radiusX, radiusY, radian, shape, weightSD)
	return t
}

// Reset rebuilds the template's points and weights in place.
func (t *TemplatePatch) Reset(radiusX, radiusY, radian float64, shape TemplateShape, weightSD float64) {
	t.radiusX, t.radiusY, t.radian = radiusX, radiusY, radian
	t.points = nil
	t.weights = nil

	rangeR := int(math.Max(radiusX, radiusY))

	for y := -rangeR; y < 1; y++ {
		for x := -rangeR; x < rangeR+1; x++ {
			if !(x < 0 && y == 0) && !(y < 0) {
				continue
			}
			if shape == Diamond && absInt(x)+absInt(y) > rangeR {
				continue
			}
			if t.ellipseTest(x, y) > 1 {
				continue
			}
			t.points = append(t.points, Point{x, y})
		}
	}

	weightScale := 1 / (2 * weightSD * weightSD)
	sum := 0.0
	t.weights = make([]float64, len(t.points))
	for i, p := range t.points {
		r := float64(absInt(p.X) + absInt(p.Y))
		w := EXP(-r * r * weightScale)
		t.weights[i] = w
		sum += w
	}
	for i := range t.weights {
		t.weights[i] /= sum
	}
}

func (t *TemplatePatch) ellipseTest(x, y int) float64 {
	rp := Point{x, y}.Rotated(t.radian)
	return (rp.X/t.radiusX)*(rp.X/t.radiusX) + (rp.Y/t.radiusY)*(rp.Y/t.radiusY)
}

// Size returns the number of causal offsets in the template.
func (t *TemplatePatch) Size() int { return len(t.points) }

// Radius returns the template's integer bounding radius, i.e. max(rx, ry)
// rounded via truncation, matching the original C++ int() cast.
func (t *TemplatePatch) Radius() int {
	return int(math.Max(t.radiusX, t.radiusY))
}

// Points returns the template's causal offsets, row-major over
// y in [-R, 0], x in [-R, R]; this order is part of the bitstream contract.
func (t *TemplatePatch) Points() []Point { return t.points }

// Weights returns the template's normalized per-offset weights, aligned
// with Points.
func (t *TemplatePatch) Weights() []float64 { return t.weights }

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
