package pmo

import "math"

// NumModelParameters is the dimensionality of a unit's mixture-model
// parameter vector (a0..a4). Treated as a build-time constant throughout
// the codec, matching the original's NUM_MODEL_PARAMETERS typedef knot.
const NumModelParameters = 5

// Levels is the number of representable pixel intensities (8-bit grayscale).
const Levels = 256

// PI is used, rather than math.Pi, to keep the 25-shape predictor bank's
// angles bit-for-bit aligned with the constant the original source defines.
const PI = 3.14159265358979323846

// EXP is a saturating exponential: argument values above 200 are clamped
// before exponentiating, guarding against overflow in the mixture weights
// and precisions, which can otherwise run away during optimization.
func EXP(x float64) float64 {
	if x < 200 {
		return math.Exp(x)
	}
	return math.Exp(200)
}

// LOG2 is base-2 logarithm, used throughout for entropy in bits.
func LOG2(x float64) float64 {
	return math.Log2(x)
}
