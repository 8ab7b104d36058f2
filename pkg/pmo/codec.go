package pmo

import (
	"fmt"
	"log/slog"

	"github.com/pmo-codec/pmo/pkg/pmo/rangecoder"
)

// Encoder drives the range encoder across a fully-estimated and
// fully-optimized image: it writes the bitstream header, every context
// unit's quantized model parameters, and then one coded symbol per pixel.
type Encoder struct {
	enc *rangecoder.Encoder

	image           *Image
	template        *TemplatePatch
	basicParamMap   *BasicParameterMap
	modelParamMap   *ModelParameterMap
	contextParamMap *ContextParameterMap

	logger *slog.Logger

	headerBytes int
	paramBytes  int
}

// NewEncoder builds an Encoder over an already-estimated, already-optimized
// set of parameter maps. logger may be nil.
func NewEncoder(image *Image, template *TemplatePatch, basicParamMap *BasicParameterMap, modelParamMap *ModelParameterMap, contextParamMap *ContextParameterMap, logger *slog.Logger) *Encoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Encoder{
		enc:             rangecoder.NewEncoder(),
		image:           image,
		template:        template,
		basicParamMap:   basicParamMap,
		modelParamMap:   modelParamMap,
		contextParamMap: contextParamMap,
		logger:          logger,
	}
}

// EncodeStart writes the bitstream header: image dimensions, per-pixel
// parameter capacity, template radius, and context unit count.
func (e *Encoder) EncodeStart() {
	ud4 := NewUniformDistribution(16)
	ud8 := NewUniformDistribution(256)
	ud16 := NewUniformDistribution(65536)

	e.headerBytes += e.enc.Encode(ud16, e.image.Width()-1)
	e.headerBytes += e.enc.Encode(ud16, e.image.Height()-1)

	e.headerBytes += e.enc.Encode(ud8, e.basicParamMap.NumDists()-1)

	e.headerBytes += e.enc.Encode(ud4, e.template.Radius()-1)

	e.headerBytes += e.enc.Encode(ud4, e.modelParamMap.NumUnits()-1)

	e.logger.Debug("header encoded",
		"width", e.image.Width(), "height", e.image.Height(),
		"num_dists", e.basicParamMap.NumDists(),
		"template_radius", e.template.Radius(),
		"num_units", e.modelParamMap.NumUnits(),
	)
}

// EncodeModelParameter writes unitID's model parameters, preceded by a flag
// marking whether the unit has any assigned pixels (an empty unit's
// parameters are never transmitted).
func (e *Encoder) EncodeModelParameter(unitID int) {
	ud1 := NewUniformDistribution(2)

	hasPix := e.modelParamMap.NumPix(unitID) > 0
	e.paramBytes += e.enc.Encode(ud1, boolToInt(hasPix))

	if hasPix {
		unit := e.modelParamMap.Unit(unitID)
		indices := unit.Quantize()
		unit.Restore(indices)

		for i := 0; i < NumModelParameters; i++ {
			precision := int(modelPrecision[i])
			udN := NewUniformDistribution(precision)
			e.paramBytes += e.enc.Encode(udN, int(indices[i]))
		}
	}
}

// EncodePix re-segments target's context unit, builds its mixture
// distribution, and range-codes its true pixel value against that
// distribution's histogram.
func (e *Encoder) EncodePix(target Point) {
	feature := e.contextParamMap.UpdateFeature(target)
	e.modelParamMap.SetUnit(target, feature)

	basicParams := e.basicParamMap.At(target).Params()
	modelParams := e.modelParamMap.At(target).Params()
	contextParam := e.contextParamMap.At(target).Feature()

	dist := NewMixtureDistribution(basicParams, modelParams, contextParam, false)

	histogram := dist.Histogram()
	freqTable := NewFreqTable(histogram)

	e.enc.Encode(freqTable, int(e.image.At(target)))

	probability := dist.Probability(int(e.image.At(target))).Value
	entropy := -LOG2(probability)
	e.contextParamMap.UpdateEntropy(target, entropy)
}

// EncodeFinish flushes the range encoder and returns the complete bitstream.
func (e *Encoder) EncodeFinish() []byte {
	data := e.enc.Finish()

	numPix := e.image.Height() * e.image.Width()
	e.logger.Info("encode finished",
		"header_bits", 8*e.headerBytes,
		"param_bits", 8*e.paramBytes,
		"image_bits", 8*(len(data)-e.headerBytes-e.paramBytes),
		"coding_rate_bits_per_pel", 8*float64(len(data))/float64(numPix),
	)

	return data
}

// Decoder mirrors Encoder, reconstructing an image from a bitstream
// produced by it.
type Decoder struct {
	dec *rangecoder.Decoder

	image           *Image
	template        *TemplatePatch
	basicParamMap   *BasicParameterMap
	modelParamMap   *ModelParameterMap
	contextParamMap *ContextParameterMap

	logger *slog.Logger
}

// NewDecoder builds a Decoder over data, the encoded bitstream, populating
// image, template, and the three parameter maps from the header once
// DecodeStart is called. logger may be nil.
func NewDecoder(data []byte, image *Image, template *TemplatePatch, basicParamMap *BasicParameterMap, modelParamMap *ModelParameterMap, contextParamMap *ContextParameterMap, logger *slog.Logger) *Decoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Decoder{
		dec:             rangecoder.NewDecoder(data),
		image:           image,
		template:        template,
		basicParamMap:   basicParamMap,
		modelParamMap:   modelParamMap,
		contextParamMap: contextParamMap,
		logger:          logger,
	}
}

// DecodeStart reads the bitstream header and resizes every parameter map to
// match.
func (d *Decoder) DecodeStart() {
	ud4 := NewUniformDistribution(16)
	ud8 := NewUniformDistribution(256)
	ud16 := NewUniformDistribution(65536)

	width := d.dec.Decode(ud16) + 1
	height := d.dec.Decode(ud16) + 1

	numDists := d.dec.Decode(ud8) + 1

	radius := d.dec.Decode(ud4) + 1

	numUnits := d.dec.Decode(ud4) + 1

	d.image.Reset(height, width)
	d.template.Reset(float64(radius), float64(radius), 0, Diamond, 1.25)
	d.basicParamMap.Reset(height, width, numDists)
	d.modelParamMap.Reset(height, width, numUnits)
	d.contextParamMap.Reset(height, width)

	d.logger.Debug("header decoded",
		"width", width, "height", height,
		"num_dists", numDists,
		"template_radius", radius,
		"num_units", numUnits,
	)
}

// DecodeModelParameter reads unitID's has-pixels flag and, if it is set,
// the unit's model parameters.
func (d *Decoder) DecodeModelParameter(unitID int) {
	ud1 := NewUniformDistribution(2)

	hasPix := d.dec.Decode(ud1)

	if hasPix != 0 {
		var indices [NumModelParameters]uint64

		for i := 0; i < NumModelParameters; i++ {
			precision := int(modelPrecision[i])
			udN := NewUniformDistribution(precision)
			indices[i] = uint64(d.dec.Decode(udN))
		}

		d.modelParamMap.Unit(unitID).Restore(indices)
	}
}

// DecodePix re-segments target's context unit, builds its mixture
// distribution, and range-decodes its pixel value against that
// distribution's histogram.
func (d *Decoder) DecodePix(target Point) {
	feature := d.contextParamMap.UpdateFeature(target)
	d.modelParamMap.SetUnit(target, feature)

	basicParams := d.basicParamMap.At(target).Params()
	modelParams := d.modelParamMap.At(target).Params()
	contextParam := d.contextParamMap.At(target).Feature()

	dist := NewMixtureDistribution(basicParams, modelParams, contextParam, false)

	histogram := dist.Histogram()
	freqTable := NewFreqTable(histogram)

	value := d.dec.Decode(freqTable)
	d.image.Set(target, uint8(value))

	probability := dist.Probability(value).Value
	entropy := -LOG2(probability)
	d.contextParamMap.UpdateEntropy(target, entropy)
}

// DecodeFinish is a no-op retained for symmetry with Encoder.
func (d *Decoder) DecodeFinish() {}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// EstimationParams bundles the estimator tunables shared by the encoder and
// decoder drivers so both sides estimate identical basic parameters from
// identical causal data.
type EstimationParams struct {
	NumExamples      int
	NumPredictors    int
	SearchWindow     int
	TrainWindow      int
	Penalty          float64
	ParallelPredictors bool
}

// EstimatePixel runs the example-search and adaptive-prediction estimators
// against target, in the order the bitstream contract requires, then
// advances the example-search template cache past target.
func EstimatePixel(target Point, es *ExampleSearch, ap *AdaptivePrediction, params EstimationParams) {
	es.Estimate(target, params.SearchWindow, params.Penalty)
	ap.Estimate(target, params.NumExamples+params.NumPredictors, params.TrainWindow)
	es.UpdateTemplate(target)
}

// ErrInvalidImage reports an unusable input image (zero dimensions or an
// otherwise malformed header), surfaced by callers before any estimation
// or coding work begins.
var ErrInvalidImage = fmt.Errorf("pmo: invalid input image")
