package pmo

import "math"

// affineBias is the constant input value appended to a Predictor's template
// vector as its intercept regressor, equal to half the representable range
// of an 8-bit sample.
const affineBias = 128.0

// Predictor is a single fixed-shape weighted-least-squares linear predictor:
// it fits a0..a_{L-1} (plus an intercept) against the causal window around a
// pixel, weighted by each training pixel's template similarity to the
// target, then proposes the fitted prediction as a BasicParameter.
type Predictor struct {
	image       *Image
	causalArea  *CausalArea
	template    *TemplatePatch
	basicParams *BasicParameterMap

	numCoeffs int
	matrix    [][]float64 // numCoeffs x (numCoeffs+1), augmented
	rowOrder  []int
	coeffs    []float64

	weights       []float64
	weightIndices []int

	buf1, buf2 []float64

	isAffine              bool
	isSamplingTrainPix    bool
	isVariableTrainWindow bool

	latest Point
}

// NewPredictor builds a Predictor over image using template as its fixed
// shape, recording results into basicParams.
func NewPredictor(image *Image, template *TemplatePatch, basicParams *BasicParameterMap) *Predictor {
	isAffine := true
	numCoeffs := template.Size()
	if isAffine {
		numCoeffs++
	}

	p := &Predictor{
		image:                 image,
		causalArea:            NewCausalArea(image.Height(), image.Width()),
		template:              template,
		basicParams:           basicParams,
		numCoeffs:             numCoeffs,
		rowOrder:              make([]int, numCoeffs),
		coeffs:                make([]float64, numCoeffs),
		buf1:                  make([]float64, numCoeffs),
		buf2:                  make([]float64, numCoeffs),
		isAffine:              isAffine,
		isSamplingTrainPix:    true,
		isVariableTrainWindow: true,
	}
	p.matrix = make([][]float64, numCoeffs)
	for i := range p.matrix {
		p.matrix[i] = make([]float64, numCoeffs+1)
	}
	return p
}

// Estimate fits the predictor's coefficients over the causal window around p
// (sized to the coefficient count when variable train windows are enabled,
// else windowSize) and, if at least 3 training pixels are available,
// inserts the fitted BasicParameter (flag 1) into p's parameter list.
func (pr *Predictor) Estimate(p Point, maxNum, windowSize int) {
	const flag = 1.0
	const lambda = 1.0 / (10 * 6)
	const sampleMax = 128

	if pr.isVariableTrainWindow {
		windowSize = pr.numCoeffs
	}

	pr.causalArea.Locate(p, windowSize)
	pr.resetWeights()

	if pr.countTrainPix() > 2 {
		pr.calcWeights(p)

		if pr.isSamplingTrainPix {
			pr.sampleTrainPix(sampleMax)
		}

		pr.leastSquaresMethod(p, lambda)

		param := BasicParameter{Cost: pr.calcCost(), Peak: pr.calcPeak(p), Flag: flag}
		pr.basicParams.At(p).Insert(param, maxNum)
	}

	pr.latest = p
}

func (pr *Predictor) templateValue(r Point) float64 {
	bound := Point{pr.image.Width(), pr.image.Height()}
	if !r.IsIn(Point{}, bound) {
		return 0
	}
	return float64(pr.image.At(r))
}

func (pr *Predictor) calcTemplate(p Point, buf []float64) []float64 {
	r := pr.template.Points()
	i := 0
	for ; i < len(r); i++ {
		buf[i] = pr.templateValue(p.Add(r[i]))
	}
	if pr.isAffine {
		buf[i] = affineBias
	}
	return buf
}

func (pr *Predictor) calcSquaredError(a, b []float64) float64 {
	const minError = 1.0 / 64
	l := pr.template.Size()

	var errSum float64
	for i := 0; i < l; i++ {
		d := a[i] - b[i]
		errSum += d * d
	}
	return math.Max(minError, errSum/float64(l))
}

func (pr *Predictor) resetWeights() {
	n := pr.causalArea.Size()
	if cap(pr.weights) < n {
		pr.weights = make([]float64, n)
	} else {
		pr.weights = pr.weights[:n]
	}
	for i := range pr.weights {
		pr.weights[i] = 1
	}
}

func (pr *Predictor) calcWeights(p Point) {
	fp := pr.calcTemplate(p, pr.buf1)

	index := 0
	pr.causalArea.ForEach(func(q Point) {
		fq := pr.calcTemplate(q, pr.buf2)
		errVal := pr.calcSquaredError(fp, fq)
		pr.weights[index] = 1 / errVal
		index++
	})
}

func (pr *Predictor) countTrainPix() int {
	count := 0
	for _, w := range pr.weights {
		if w > 0 {
			count++
		}
	}
	return count
}

func (pr *Predictor) sampleTrainPix(sampleMax int) {
	n := len(pr.weights)
	if n <= sampleMax {
		return
	}

	if cap(pr.weightIndices) < n {
		pr.weightIndices = make([]int, n)
	} else {
		pr.weightIndices = pr.weightIndices[:n]
	}
	for i := range pr.weightIndices {
		pr.weightIndices[i] = i
	}

	indices := pr.weightIndices
	weights := pr.weights
	sortIntsByFloatDesc(indices, func(i int) float64 { return weights[i] })

	i := 0
	for ; i < sampleMax; i++ {
		weights[indices[i]] = math.Abs(weights[indices[i]])
	}
	for ; i < n; i++ {
		weights[indices[i]] = -math.Abs(weights[indices[i]])
	}
}

func sortIntsByFloatDesc(indices []int, key func(int) float64) {
	for i := 1; i < len(indices); i++ {
		v := indices[i]
		kv := key(v)
		j := i - 1
		for j >= 0 && key(indices[j]) < kv {
			indices[j+1] = indices[j]
			j--
		}
		indices[j+1] = v
	}
}

func (pr *Predictor) sumWeights() float64 {
	var sum float64
	for _, w := range pr.weights {
		if w > 0 {
			sum += w
		}
	}
	return sum
}

func (pr *Predictor) resetMatrix() {
	for i := range pr.matrix {
		row := pr.matrix[i]
		for j := range row {
			row[j] = 0
		}
	}
}

func (pr *Predictor) regularizeMatrix(lambda float64) {
	for i := 0; i < pr.numCoeffs; i++ {
		pr.matrix[i][i] += lambda
	}
}

func (pr *Predictor) calcMatrix(p Point) {
	n := pr.numCoeffs

	index := 0
	pr.causalArea.ForEach(func(q Point) {
		weight := pr.weights[index]
		index++

		if weight > 0 {
			fq := pr.calcTemplate(q, pr.buf2)
			trueValue := float64(pr.image.At(q))

			for i := 0; i < n; i++ {
				weighted := weight * fq[i]

				for j := i; j < n; j++ {
					pr.matrix[i][j] += weighted * fq[j]
				}
				pr.matrix[i][n] += weighted * trueValue
			}
		}
	})

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			pr.matrix[j][i] = pr.matrix[i][j]
		}
	}
}

// gaussJordan solves the augmented coefficient matrix in place with partial
// pivoting via a permuted row index, preserving the original's choice of
// swapping index labels rather than physical rows.
func (pr *Predictor) gaussJordan() {
	const valMin = 1e-10

	n := pr.numCoeffs
	matrix := pr.matrix
	row := pr.rowOrder
	for i := range row {
		row[i] = i
	}

	for i := 0; i < n; i++ {
		pivot := -1
		valMax := valMin

		for j := i; j < n; j++ {
			val := matrix[row[j]][i]
			if math.Abs(val) > valMax {
				pivot = j
				valMax = math.Abs(val)
			}
		}

		if pivot == -1 {
			continue
		}

		row[i], row[pivot] = row[pivot], row[i]

		val := matrix[row[i]][i]
		for j := i; j < n+1; j++ {
			matrix[row[i]][j] /= val
		}

		for k := 0; k < n; k++ {
			val := matrix[row[k]][i]
			if k != i && math.Abs(val) > valMin {
				for j := i; j < n+1; j++ {
					matrix[row[k]][j] -= val * matrix[row[i]][j]
				}
			}
		}
	}

	for k := 0; k < n; k++ {
		pr.coeffs[k] = matrix[row[k]][n]
	}
}

func (pr *Predictor) leastSquaresMethod(p Point, lambda float64) {
	pr.resetMatrix()
	pr.regularizeMatrix(lambda)
	pr.calcMatrix(p)
	pr.gaussJordan()
}

func (pr *Predictor) predict(p Point) float64 {
	input := pr.calcTemplate(p, pr.buf2)
	var sum float64
	for i, c := range pr.coeffs {
		sum += c * input[i]
	}
	return sum
}

func (pr *Predictor) calcResidualError(p Point) float64 {
	trueValue := float64(pr.image.At(p))
	pred := pr.predict(p)
	d := trueValue - pred
	return d * d
}

func (pr *Predictor) calcCost() float64 {
	var cost float64
	index := 0
	pr.causalArea.ForEach(func(q Point) {
		weight := pr.weights[index]
		index++
		if weight > 0 {
			cost += weight * pr.calcResidualError(q)
		}
	})
	return math.Sqrt(cost / pr.sumWeights())
}

func (pr *Predictor) calcPeak(p Point) float64 {
	pred := pr.predict(p)
	return math.Min(math.Max(0, pred), Levels)
}

// adaptiveShapes are the 25 fixed template geometries (diamond/ellipse,
// radii and rotation) that make up the adaptive-prediction estimator bank.
func adaptiveShapes() []*TemplatePatch {
	return []*TemplatePatch{
		NewTemplatePatch(3.0, PI*0/9, Diamond),
		NewTemplatePatchXY(6.7, 1.3, PI*0/9, Ellipse, 1.25),
		NewTemplatePatchXY(6.7, 1.3, PI*1/9, Ellipse, 1.25),
		NewTemplatePatchXY(6.7, 1.3, PI*2/9, Ellipse, 1.25),
		NewTemplatePatchXY(6.7, 1.3, PI*3/9, Ellipse, 1.25),

		NewTemplatePatchXY(6.7, 1.3, PI*4/9, Ellipse, 1.25),
		NewTemplatePatchXY(6.7, 1.3, PI*5/9, Ellipse, 1.25),
		NewTemplatePatchXY(6.7, 1.3, PI*6/9, Ellipse, 1.25),
		NewTemplatePatchXY(6.7, 1.3, PI*7/9, Ellipse, 1.25),
		NewTemplatePatchXY(6.7, 1.3, PI*8/9, Ellipse, 1.25),

		NewTemplatePatch(2.5, PI*0/9, Ellipse),
		NewTemplatePatchXY(4.9, 0.99, PI*0/9, Ellipse, 1.25),
		NewTemplatePatchXY(4.9, 0.99, PI*1/9, Ellipse, 1.25),
		NewTemplatePatchXY(4.9, 0.99, PI*2/9, Ellipse, 1.25),
		NewTemplatePatchXY(4.9, 0.99, PI*3/9, Ellipse, 1.25),

		NewTemplatePatchXY(4.9, 0.99, PI*4/9, Ellipse, 1.25),
		NewTemplatePatchXY(4.9, 0.99, PI*5/9, Ellipse, 1.25),
		NewTemplatePatchXY(4.9, 0.99, PI*6/9, Ellipse, 1.25),
		NewTemplatePatchXY(4.9, 0.99, PI*7/9, Ellipse, 1.25),
		NewTemplatePatchXY(4.9, 0.99, PI*8/9, Ellipse, 1.25),

		NewTemplatePatch(1.5, PI*0/4, Ellipse),
		NewTemplatePatchXY(3.0, 0.99, PI*0/4, Ellipse, 1.25),
		NewTemplatePatchXY(3.0, 0.99, PI*1/4, Ellipse, 1.25),
		NewTemplatePatchXY(3.0, 0.99, PI*2/4, Ellipse, 1.25),
		NewTemplatePatchXY(3.0, 0.99, PI*3/4, Ellipse, 1.25),
	}
}

// AdaptivePrediction runs the full 25-shape Predictor bank against a target
// pixel, each proposing its own BasicParameter. Evaluation is sequential
// unless the bank was built with isParallel set, in which case the
// predictors run concurrently.
type AdaptivePrediction struct {
	shapes     []*TemplatePatch
	predictors []*Predictor
	isParallel bool
}

// NewAdaptivePrediction builds the fixed 25-predictor bank over image,
// recording results into basicParams. isParallel selects whether the bank
// is evaluated with one goroutine per predictor. Insertion is serialized by
// BasicParameterMap's shared mutex, so parallel runs yield the same costs
// as sequential ones; but entries of equal cost are ordered, and at a full
// list kept or dropped, by the order in which goroutines take the lock,
// which is not reproducible between runs.
func NewAdaptivePrediction(image *Image, basicParams *BasicParameterMap, isParallel bool) *AdaptivePrediction {
	shapes := adaptiveShapes()
	predictors := make([]*Predictor, len(shapes))
	for i, shape := range shapes {
		predictors[i] = NewPredictor(image, shape, basicParams)
	}
	return &AdaptivePrediction{shapes: shapes, predictors: predictors, isParallel: isParallel}
}

// Estimate runs every predictor in the bank against p.
func (a *AdaptivePrediction) Estimate(p Point, maxNum, windowSize int) {
	if a.isParallel {
		done := make(chan struct{}, len(a.predictors))
		for _, pr := range a.predictors {
			go func(pr *Predictor) {
				pr.Estimate(p, maxNum, windowSize)
				done <- struct{}{}
			}(pr)
		}
		for range a.predictors {
			<-done
		}
		return
	}

	for _, pr := range a.predictors {
		pr.Estimate(p, maxNum, windowSize)
	}
}
