package pmo

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"time"
)

// Config bundles every tunable the encoder and decoder drivers need to agree
// on to stay in lockstep: estimator window sizes and counts, context
// segmentation count, template radius, and the example-search distance
// penalty.
type Config struct {
	SearchWindow       int // ex_win
	NumExamples        int // ex_num
	TrainWindow        int // pr_win
	NumPredictors      int // pr_num
	NumContextSegments int // cs_num
	TemplateRadius     int // tp_rad
	Penalty            float64 // tp_wgt
	ParallelPredictors bool
}

// estimationParams derives the shared EstimationParams from cfg.
func (cfg Config) estimationParams() EstimationParams {
	return EstimationParams{
		NumExamples:        cfg.NumExamples,
		NumPredictors:      cfg.NumPredictors,
		SearchWindow:       cfg.SearchWindow,
		TrainWindow:        cfg.TrainWindow,
		Penalty:            cfg.Penalty,
		ParallelPredictors: cfg.ParallelPredictors,
	}
}

// EncodeImage runs the full pipeline — basic parameter estimation, model
// parameter optimization, and range coding — over img and returns the
// encoded bitstream.
func EncodeImage(img *image.Gray, cfg Config, logger *slog.Logger) ([]byte, error) {
	if logger == nil {
		logger = slog.Default()
	}

	bounds := img.Bounds()
	height, width := bounds.Dy(), bounds.Dx()
	if height == 0 || width == 0 {
		return nil, fmt.Errorf("pmo: %w: zero-sized image", ErrInvalidImage)
	}

	buf := NewImage(height, width)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			buf.Set(Point{X: x, Y: y}, img.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
		}
	}

	template := NewTemplatePatch(float64(cfg.TemplateRadius), 0, Diamond)
	basicParamMap := NewBasicParameterMap(height, width, cfg.NumExamples+cfg.NumPredictors)
	modelParamMap := NewModelParameterMap(height, width, cfg.NumContextSegments)
	contextParamMap := NewContextParameterMap(height, width, template)

	estParams := cfg.estimationParams()

	estimateStart := time.Now()
	es := NewExampleSearch(cfg.NumExamples, buf, template, basicParamMap)
	ap := NewAdaptivePrediction(buf, basicParamMap, cfg.ParallelPredictors)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			EstimatePixel(Point{X: x, Y: y}, es, ap, estParams)
		}
	}
	logger.Info("basic parameter estimation finished", "elapsed", time.Since(estimateStart))

	optimizeStart := time.Now()
	optimizer := NewOptimizer(buf, basicParamMap, modelParamMap, contextParamMap, logger)
	optimizer.Optimize()
	logger.Info("model parameter optimization finished", "elapsed", time.Since(optimizeStart))

	encodeStart := time.Now()
	enc := NewEncoder(buf, template, basicParamMap, modelParamMap, contextParamMap, logger)
	enc.EncodeStart()

	for unitID := 0; unitID < modelParamMap.NumUnits(); unitID++ {
		enc.EncodeModelParameter(unitID)
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			enc.EncodePix(Point{X: x, Y: y})
		}
	}

	data := enc.EncodeFinish()
	logger.Info("encode finished", "elapsed", time.Since(encodeStart))

	return data, nil
}

// DecodeImage reconstructs an image.Gray from data, a bitstream produced by
// EncodeImage. cfg's NumExamples, NumPredictors, SearchWindow, TrainWindow,
// and Penalty must match the values used to encode data; the template
// radius, context segment count, and image dimensions are read back from
// the bitstream header itself.
func DecodeImage(data []byte, cfg Config, logger *slog.Logger) (*image.Gray, error) {
	if logger == nil {
		logger = slog.Default()
	}

	buf := NewImage(0, 0)
	template := NewTemplatePatch(1, 0, Diamond)
	basicParamMap := NewBasicParameterMap(0, 0, 0)
	modelParamMap := NewModelParameterMap(0, 0, 0)
	contextParamMap := NewContextParameterMap(0, 0, template)

	dec := NewDecoder(data, buf, template, basicParamMap, modelParamMap, contextParamMap, logger)
	dec.DecodeStart()

	for unitID := 0; unitID < modelParamMap.NumUnits(); unitID++ {
		dec.DecodeModelParameter(unitID)
	}

	estParams := cfg.estimationParams()
	es := NewExampleSearch(cfg.NumExamples, buf, template, basicParamMap)
	ap := NewAdaptivePrediction(buf, basicParamMap, cfg.ParallelPredictors)

	for y := 0; y < buf.Height(); y++ {
		for x := 0; x < buf.Width(); x++ {
			target := Point{X: x, Y: y}

			es.Estimate(target, estParams.SearchWindow, estParams.Penalty)
			ap.Estimate(target, estParams.NumExamples+estParams.NumPredictors, estParams.TrainWindow)

			dec.DecodePix(target)

			es.UpdateTemplate(target)
		}
	}
	dec.DecodeFinish()

	out := image.NewGray(image.Rect(0, 0, buf.Width(), buf.Height()))
	for y := 0; y < buf.Height(); y++ {
		for x := 0; x < buf.Width(); x++ {
			out.SetGray(x, y, color.Gray{Y: buf.At(Point{X: x, Y: y})})
		}
	}

	return out, nil
}
