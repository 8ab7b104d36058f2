package pmo

import "math"

// ExampleSearch is the non-local, causal-window estimator: it proposes a
// BasicParameter for every candidate pixel q found within a causal search
// window around the target p, scored by template dissimilarity plus a
// Manhattan-distance penalty, predicting the mean-restored value at q.
type ExampleSearch struct {
	maxNum       int
	image        *Image
	causalArea   *CausalArea
	template     *TemplatePatch
	basicParams  *BasicParameterMap
	templateMap  [][]float64
	templateMean []float64
	latest       Point
}

// NewExampleSearch builds an estimator proposing up to maxNum candidates per
// call to Estimate, searching image under template, recording results into
// basicParams.
func NewExampleSearch(maxNum int, image *Image, template *TemplatePatch, basicParams *BasicParameterMap) *ExampleSearch {
	n := image.Height() * image.Width()
	e := &ExampleSearch{
		maxNum:       maxNum,
		image:        image,
		causalArea:   NewCausalArea(image.Height(), image.Width()),
		template:     template,
		basicParams:  basicParams,
		templateMap:  make([][]float64, n),
		templateMean: make([]float64, n),
	}
	size := template.Size()
	for i := range e.templateMap {
		e.templateMap[i] = make([]float64, size)
	}
	return e
}

func (e *ExampleSearch) idx(p Point) int { return p.Y*e.image.Width() + p.X }

// Estimate searches the causal window of radius windowSize around p and
// inserts one BasicParameter (flag 0) per visited causal pixel q into p's
// BasicParameterUnit, applying penalty per unit of Manhattan distance
// between p and q.
func (e *ExampleSearch) Estimate(p Point, windowSize int, penalty float64) {
	const flag = 0.0

	maxNum := e.maxNum + len(e.basicParams.At(p).Params())
	e.calcTemplate(p)

	e.causalArea.Locate(p, windowSize).ForEach(func(q Point) {
		dx := absInt(p.X - q.X)
		dy := absInt(p.Y - q.Y)

		param := BasicParameter{
			Cost: e.calcCost(p, q) + penalty*float64(dx+dy),
			Peak: e.calcPeak(p, q),
			Flag: flag,
		}
		e.basicParams.At(p).Insert(param, maxNum)
	})
}

// UpdateTemplate records p as the latest coded point and refreshes the
// cached mean-subtracted templates whose border clipping depends on it: on
// row 0, those of the row-0 points from p.X-(radius-1) to p.X; in column 0,
// p's own. Templates of other points are left as Estimate computed them.
func (e *ExampleSearch) UpdateTemplate(p Point) {
	e.latest = p

	if p.Y == 0 {
		for x := p.X - (e.template.Radius() - 1); x <= p.X; x++ {
			if x >= 0 {
				e.calcTemplate(Point{X: x, Y: 0})
			}
		}
	}

	if p.X == 0 {
		e.calcTemplate(p)
	}
}

func (e *ExampleSearch) templateValue(p, r Point) float64 {
	bound := Point{e.image.Width(), e.image.Height()}
	if !r.IsIn(Point{}, bound) {
		r = r.ClipMin(Point{})
		if p.Y == 0 || p.X == 0 {
			r = r.ClipMax(e.latest)
		} else {
			r = r.ClipMax(Point{e.image.Width() - 1, e.image.Height() - 1})
		}
	}
	return float64(e.image.At(r))
}

func (e *ExampleSearch) calcTemplate(p Point) {
	f := e.templateMap[e.idx(p)]
	w := e.template.Weights()
	r := e.template.Points()

	for i, ri := range r {
		f[i] = e.templateValue(p, p.Add(ri))
	}

	var mean float64
	for i := range f {
		mean += f[i] * w[i]
	}
	for i := range f {
		f[i] -= mean
	}

	e.templateMean[e.idx(p)] = mean
}

func (e *ExampleSearch) calcCost(p, q Point) float64 {
	fp := e.templateMap[e.idx(p)]
	fq := e.templateMap[e.idx(q)]
	w := e.template.Weights()

	var diff float64
	for i := range w {
		d := fq[i] - fp[i]
		diff += w[i] * d * d
	}
	return math.Sqrt(diff)
}

func (e *ExampleSearch) calcPeak(p, q Point) float64 {
	mp := e.templateMean[e.idx(p)]
	mq := e.templateMean[e.idx(q)]
	return float64(e.image.At(q)) - mq + mp
}
