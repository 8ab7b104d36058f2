package pmo

import (
	"log/slog"
	"math"
)

// penaltyLambda is the L2 weight pulling each unit's optimized parameters
// back toward modelIni, keeping rarely-assigned units from drifting to
// extreme values.
const penaltyLambda = 0.1

// Optimizer fits each context unit's model parameters to the pixels
// currently assigned to it by a per-unit BFGS quasi-Newton search, then
// re-segments the image before moving to the next unit.
type Optimizer struct {
	image          *Image
	basicParamMap  *BasicParameterMap
	modelParamMap  *ModelParameterMap
	contextParamMap *ContextParameterMap
	logger         *slog.Logger
}

// NewOptimizer builds an Optimizer over the given image and parameter maps.
// logger may be nil, in which case slog.Default() is used.
func NewOptimizer(image *Image, basicParamMap *BasicParameterMap, modelParamMap *ModelParameterMap, contextParamMap *ContextParameterMap, logger *slog.Logger) *Optimizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Optimizer{
		image:           image,
		basicParamMap:   basicParamMap,
		modelParamMap:   modelParamMap,
		contextParamMap: contextParamMap,
		logger:          logger,
	}
}

// Optimize re-segments the image, then fits each unit's parameters in
// descending unit-id order, broadcasting each freshly quantized unit's
// parameters to every still-unoptimized (lower-id) unit before
// re-segmenting again. It returns the total coding cost, in bits, of the
// final segmentation.
func (o *Optimizer) Optimize() float64 {
	cost := o.updateUnitArrange()

	for unitID := o.modelParamMap.NumUnits() - 1; unitID >= 0; unitID-- {
		unit := o.modelParamMap.Unit(unitID)

		o.printOptimizingProcess(unitID)

		if o.modelParamMap.NumPix(unitID) > 0 {
			o.quasiNewtonMethod(unitID)
		}

		indices := unit.Quantize()
		unit.Restore(indices)

		for unoptimized := 0; unoptimized < unitID; unoptimized++ {
			o.modelParamMap.Unit(unoptimized).SetParams(unit.Params())
		}

		cost = o.updateUnitArrange()
	}

	return cost
}

func (o *Optimizer) calcProbability(p Point, modelParams [NumModelParameters]float64, withGradient bool) ValueWithGradient {
	basicParams := o.basicParamMap.At(p).Params()
	contextParam := o.contextParamMap.At(p).Feature()

	dist := NewMixtureDistribution(basicParams, modelParams, contextParam, withGradient)
	return dist.Probability(int(o.image.At(p)))
}

func (o *Optimizer) calcPenalty(modelParams [NumModelParameters]float64, withGradient bool) ValueWithGradient {
	var costWithGrad ValueWithGradient
	var diff [NumModelParameters]float64
	for i := range diff {
		diff[i] = modelParams[i] - modelIni[i]
	}

	var sq float64
	for _, d := range diff {
		sq += d * d
	}
	costWithGrad.Value += penaltyLambda * sq

	if withGradient {
		for i := range costWithGrad.Grad {
			costWithGrad.Grad[i] += 2 * penaltyLambda * diff[i]
		}
	}

	return costWithGrad
}

func (o *Optimizer) calcCost(unitID int, modelParams [NumModelParameters]float64, withGradient bool) ValueWithGradient {
	var costWithGrad ValueWithGradient

	for y := 0; y < o.contextParamMap.Height(); y++ {
		for x := 0; x < o.contextParamMap.Width(); x++ {
			p := Point{X: x, Y: y}

			if o.modelParamMap.UnitID(p) == unitID {
				probWithGrad := o.calcProbability(p, modelParams, withGradient)

				costWithGrad.Value += -LOG2(probWithGrad.Value)

				if withGradient {
					for i := 0; i < NumModelParameters; i++ {
						costWithGrad.Grad[i] += -probWithGrad.Grad[i] / probWithGrad.Value
					}
				}
			}
		}
	}

	if withGradient {
		const invLn2 = 1.4426950408889634
		for i := range costWithGrad.Grad {
			costWithGrad.Grad[i] *= invLn2
		}
	}

	penalty := o.calcPenalty(modelParams, withGradient)
	costWithGrad.Value += penalty.Value
	for i := range costWithGrad.Grad {
		costWithGrad.Grad[i] += penalty.Grad[i]
	}

	return costWithGrad
}

// calcStepSize performs an Armijo-Goldstein backtracking line search along
// searchDirection from the current iterate params, starting from alpha=0.5
// and halving up to 100 times.
func (o *Optimizer) calcStepSize(unitID int, params [NumModelParameters]float64, searchDirection [NumModelParameters]float64, costWithGrad ValueWithGradient) float64 {
	const itrMax = 100
	const alphaIni = 0.5
	const c = 0.0001
	const tau = 0.5

	cost := costWithGrad.Value
	grad := costWithGrad.Grad

	var m float64
	for i := range searchDirection {
		m += searchDirection[i] * grad[i]
	}
	t := -c * m

	alpha := alphaIni
	var tmp [NumModelParameters]float64

	for itr := 0; itr < itrMax; itr++ {
		for i := range tmp {
			tmp[i] = params[i] + alpha*searchDirection[i]
		}

		tmpCost := o.calcCost(unitID, tmp, false).Value

		if cost-tmpCost > alpha*t {
			break
		}

		alpha *= tau
	}

	return alpha
}

// updateInverseHessian applies the BFGS rank-2 update to the running
// inverse-Hessian approximation H, in place:
// H += (s·y + y·Hy) s sᵀ / (s·y)² − (Hy sᵀ + s (Hy)ᵀ) / (s·y), with y = newGrad − grad.
func (o *Optimizer) updateInverseHessian(grad, newGrad, s [NumModelParameters]float64, H *[NumModelParameters][NumModelParameters]float64) {
	var y, Hy [NumModelParameters]float64
	for i := range y {
		y[i] = newGrad[i] - grad[i]
	}

	for i := 0; i < NumModelParameters; i++ {
		var sum float64
		for k := 0; k < NumModelParameters; k++ {
			sum += y[k] * H[i][k]
		}
		Hy[i] = sum
	}

	var ys float64
	for i := range y {
		ys += y[i] * s[i]
	}
	invYs := 1 / ys

	var yHy float64
	for i := range y {
		yHy += y[i] * Hy[i]
	}

	for i := 0; i < NumModelParameters; i++ {
		for j := i; j < NumModelParameters; j++ {
			H[i][j] += (ys+yHy)*s[i]*s[j]*invYs*invYs - (Hy[i]*s[j]+Hy[j]*s[i])*invYs
			H[j][i] = H[i][j]
		}
	}
}

// quasiNewtonMethod fits unitID's model parameters in place via BFGS
// with an Armijo line search, for up to 30 iterations or until convergence.
func (o *Optimizer) quasiNewtonMethod(unitID int) {
	const itrMax = 30
	convergence := float64(NumModelParameters) * 1e-6

	unit := o.modelParamMap.Unit(unitID)
	params := unit.Params()

	costWithGrad := o.calcCost(unitID, params, true)
	cost := costWithGrad.Value
	grad := costWithGrad.Grad

	var searchDirection [NumModelParameters]float64
	var inverseHessian [NumModelParameters][NumModelParameters]float64
	for i := range inverseHessian {
		inverseHessian[i][i] = 1
	}

	for itr := 0; itr < itrMax; itr++ {
		for i := 0; i < NumModelParameters; i++ {
			var sum float64
			for k := 0; k < NumModelParameters; k++ {
				sum += grad[k] * inverseHessian[i][k]
			}
			searchDirection[i] = -sum
		}

		if itr == 0 {
			o.printModelParameterAndSearchDirection(cost, params, searchDirection)
		}

		if norm(searchDirection) < convergence {
			break
		}

		stepSize := o.calcStepSize(unitID, params, searchDirection, costWithGrad)

		for i := range searchDirection {
			searchDirection[i] *= stepSize
		}

		for i := range params {
			params[i] += searchDirection[i]
		}

		newCostWithGrad := o.calcCost(unitID, params, true)
		newCost := newCostWithGrad.Value
		newGrad := newCostWithGrad.Grad

		if !isFinite(newCost) || cost-newCost < convergence {
			break
		}
		if norm(searchDirection) < convergence {
			break
		}

		o.updateInverseHessian(grad, newGrad, searchDirection, &inverseHessian)

		cost = newCost
		grad = newGrad
		costWithGrad = newCostWithGrad

		o.printModelParameterAndSearchDirection(cost, params, searchDirection)
	}

	unit.SetParams(params)
}

// updateUnitArrange recomputes every pixel's context feature, re-assigns
// its unit, records its coding entropy, and returns the image's total
// coding cost in bits.
func (o *Optimizer) updateUnitArrange() float64 {
	var cost float64

	for y := 0; y < o.contextParamMap.Height(); y++ {
		for x := 0; x < o.contextParamMap.Width(); x++ {
			p := Point{X: x, Y: y}

			feature := o.contextParamMap.UpdateFeature(p)
			o.modelParamMap.SetUnit(p, feature)

			modelParams := o.modelParamMap.At(p).Params()
			probability := o.calcProbability(p, modelParams, false).Value
			entropy := -LOG2(probability)
			o.contextParamMap.UpdateEntropy(p, entropy)

			cost += entropy
		}
	}

	return cost
}

func (o *Optimizer) printOptimizingProcess(unitID int) {
	numPix := float64(o.modelParamMap.NumPix(unitID))
	numImage := float64(o.modelParamMap.Height() * o.modelParamMap.Width())
	o.logger.Debug("optimizing unit",
		"unit", unitID,
		"pels_per_image_pct", 100*numPix/numImage,
	)
}

func (o *Optimizer) printModelParameterAndSearchDirection(cost float64, params, searchDirection [NumModelParameters]float64) {
	o.logger.Debug("quasi-newton step",
		"cost", cost,
		"params", params,
		"direction", searchDirection,
	)
}

func norm(v [NumModelParameters]float64) float64 {
	var sq float64
	for _, x := range v {
		sq += x * x
	}
	return math.Sqrt(sq)
}

func isFinite(x float64) bool {
	return !math.IsInf(x, 0) && !math.IsNaN(x)
}
