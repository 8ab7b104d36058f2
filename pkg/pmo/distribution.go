package pmo

import "math"

// epsilon is the probability floor applied to every coded symbol and to the
// logistic components' normalizing mass, preventing the range coder from
// ever seeing a zero-frequency symbol.
const epsilon = 1.0 / (1 << 20)

// ValueWithGradient is a scalar mixture probability together with its
// gradient with respect to a unit's 5 model parameters.
type ValueWithGradient struct {
	Value float64
	Grad  [NumModelParameters]float64
}

// distributionComponent is one basic-parameter-derived logistic component
// of a MixtureDistribution: its mixture weight, precision, peak, and the
// partial derivatives needed to back-propagate into the unit's parameters.
type distributionComponent struct {
	peak, height, width   float64
	sumProbability        float64
	sumProbabilityGrad    float64
	grad                  [NumModelParameters]float64
}

// sigmoid is the logistic CDF, evaluated in two branches so that EXP only
// ever sees a non-positive argument, avoiding overflow for large |x|.
func sigmoid(x float64) float64 {
	if x > 0 {
		return 1 / (1 + EXP(-x))
	}
	return EXP(x) / (1 + EXP(x))
}

type logisticResult struct {
	value float64
	grad  float64
}

// logistic evaluates a single logistic component's probability mass (and,
// if withGradient, its precision-gradient) over the half-open sample
// interval [xLhs-0.5, xRhs+0.5) centered at peak, scaled by precision.
func logistic(xLhs, xRhs, peak, precision float64, withGradient bool) logisticResult {
	xLhs = xLhs - peak - 0.5
	xRhs = xRhs - peak + 0.5
	cdfLhs := sigmoid(xLhs * precision)
	cdfRhs := sigmoid(xRhs * precision)

	if withGradient {
		cdfLhsGrad := xLhs * cdfLhs * (1 - cdfLhs)
		cdfRhsGrad := xRhs * cdfRhs * (1 - cdfRhs)
		return logisticResult{value: cdfRhs - cdfLhs, grad: cdfRhsGrad - cdfLhsGrad}
	}
	return logisticResult{value: cdfRhs - cdfLhs}
}

// MixtureDistribution is the per-pixel probability model: a softmax mixture
// of logistic components, one per proposed BasicParameter, weighted and
// shaped by a context unit's shared model parameters (a0..a4).
type MixtureDistribution struct {
	components   []distributionComponent
	withGradient bool
}

// NewMixtureDistribution builds the mixture for one pixel from its proposed
// basic parameters and the model parameters of its assigned context unit.
// contextParam is accepted for interface parity with the context-segmented
// parameter maps but does not otherwise influence the mixture. withGradient
// additionally populates per-component gradients for use by the optimizer.
func NewMixtureDistribution(basicParams []BasicParameter, modelParams [NumModelParameters]float64, contextParam float64, withGradient bool) *MixtureDistribution {
	_ = contextParam

	d := &MixtureDistribution{withGradient: withGradient}
	num := len(basicParams)
	if num == 0 {
		return d
	}
	d.components = make([]distributionComponent, num)

	a0, a1, a2, a3, a4 := modelParams[0], modelParams[1], modelParams[2], modelParams[3], modelParams[4]

	mixWeights := make([]float64, num)
	for i, p := range basicParams {
		mixWeights[i] = -p.Cost*a2 - p.Flag*a4
	}
	mixWeightsMax := mixWeights[0]
	for _, w := range mixWeights[1:] {
		if w > mixWeightsMax {
			mixWeightsMax = w
		}
	}
	for i, w := range mixWeights {
		mixWeights[i] = EXP(w - mixWeightsMax)
	}

	var mixWeightsSum float64
	for _, w := range mixWeights {
		mixWeightsSum += w
	}

	var mixWeightsGradA2, mixWeightsGradA4 []float64
	var mixWeightsGradA2Sum, mixWeightsGradA4Sum float64
	if withGradient {
		mixWeightsGradA2 = make([]float64, num)
		mixWeightsGradA4 = make([]float64, num)
		for i, p := range basicParams {
			mixWeightsGradA2[i] = -p.Cost * mixWeights[i]
			mixWeightsGradA4[i] = -p.Flag * mixWeights[i]
			mixWeightsGradA2Sum += mixWeightsGradA2[i]
			mixWeightsGradA4Sum += mixWeightsGradA4[i]
		}
	}

	for m, p := range basicParams {
		c := &d.components[m]
		peak, cost, flag := p.Peak, p.Cost, p.Flag
		mixWeight := mixWeights[m] / mixWeightsSum
		precision := EXP(a0 - cost*a1 - flag*a3)

		sum := logistic(0, Levels-1, peak, precision, withGradient)

		c.peak = peak
		c.height = mixWeight
		c.width = precision
		c.sumProbability = sum.value

		if withGradient {
			gradA0 := precision
			gradA1 := -cost * precision
			gradA2 := (mixWeightsGradA2[m] - mixWeight*mixWeightsGradA2Sum) / mixWeightsSum
			gradA3 := -flag * precision
			gradA4 := (mixWeightsGradA4[m] - mixWeight*mixWeightsGradA4Sum) / mixWeightsSum

			c.sumProbabilityGrad = sum.grad
			c.grad = [NumModelParameters]float64{gradA0, gradA1, gradA2, gradA3, gradA4}
		}
	}

	return d
}

// Probability returns the mixture's probability mass at symbol f, and its
// gradient with respect to a0..a4 if the distribution was built with
// gradients enabled. Note the asymmetric scaling of components 2 and 4:
// they are weighted directly by the component probability rather than by
// height*probability_grad, matching the upstream formula exactly.
func (d *MixtureDistribution) Probability(f int) ValueWithGradient {
	var mix ValueWithGradient

	if len(d.components) == 0 {
		mix.Value = 1.0 / Levels
		return mix
	}

	for _, c := range d.components {
		sumProbability := math.Max(epsilon, c.sumProbability)

		l := logistic(float64(f), float64(f), c.peak, c.width, d.withGradient)
		probability := l.value / sumProbability

		mix.Value += c.height * probability

		if d.withGradient {
			probabilityGrad := (l.grad - probability*c.sumProbabilityGrad) / sumProbability

			mix.Grad[0] += c.grad[0] * c.height * probabilityGrad
			mix.Grad[1] += c.grad[1] * c.height * probabilityGrad
			mix.Grad[2] += c.grad[2] * probability
			mix.Grad[3] += c.grad[3] * c.height * probabilityGrad
			mix.Grad[4] += c.grad[4] * probability
		}
	}

	mix.Value = math.Max(epsilon, mix.Value)
	return mix
}

// Histogram quantizes the mixture's probability mass function into a
// per-symbol integer frequency table for the range coder, floored at 1 so
// every symbol remains encodable.
func (d *MixtureDistribution) Histogram() [Levels]uint64 {
	var dist [Levels]float64
	var hist [Levels]uint64

	var sumDist float64
	for f := 0; f < Levels; f++ {
		dist[f] = d.Probability(f).Value
		sumDist += dist[f]
	}

	scale := 1.0 / epsilon
	norm := scale / sumDist

	for f := 0; f < Levels; f++ {
		v := uint64(norm * dist[f])
		if v < 1 {
			v = 1
		}
		hist[f] = v
	}

	return hist
}
