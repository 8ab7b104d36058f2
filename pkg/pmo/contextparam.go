package pmo

// pixelBits is the bit depth of the coded sample type, used as
// update_feature's fallback value when a pixel has no causal template
// neighbors inside the image (only ever the top-left corner).
const pixelBits = 8

// ContextParameterUnit holds one pixel's entropy estimate (its own coding
// cost in bits) and the weighted-neighbor-entropy feature derived from it.
type ContextParameterUnit struct {
	entropy float64
	feature float64
}

// Entropy returns the unit's stored entropy.
func (u *ContextParameterUnit) Entropy() float64 { return u.entropy }

// Feature returns the unit's stored feature.
func (u *ContextParameterUnit) Feature() float64 { return u.feature }

// ContextParameterMap holds one ContextParameterUnit per pixel and derives
// each pixel's context-segmentation feature from a causal template of
// already-decoded neighbor entropies.
type ContextParameterMap struct {
	height, width int
	units         []ContextParameterUnit
	template      *TemplatePatch
}

// NewContextParameterMap allocates a map sized to height x width, driven
// by template for the weighted-neighbor-entropy feature.
func NewContextParameterMap(height, width int, template *TemplatePatch) *ContextParameterMap {
	m := &ContextParameterMap{template: template}
	m.Reset(height, width)
	return m
}

// Reset resizes the map, discarding all previously recorded entropies.
func (m *ContextParameterMap) Reset(height, width int) {
	m.height, m.width = height, width
	m.units = make([]ContextParameterUnit, height*width)
}

// Height returns the map's row count.
func (m *ContextParameterMap) Height() int { return m.height }

// Width returns the map's column count.
func (m *ContextParameterMap) Width() int { return m.width }

// At returns the ContextParameterUnit for pixel p.
func (m *ContextParameterMap) At(p Point) *ContextParameterUnit {
	return &m.units[p.Y*m.width+p.X]
}

// UpdateEntropy records p's own coding cost, in bits, as its entropy.
func (m *ContextParameterMap) UpdateEntropy(p Point, entropy float64) {
	m.At(p).entropy = entropy
}

// UpdateFeature recomputes and records p's context-segmentation feature as
// the template-weighted average of its causal neighbors' entropies,
// falling back to the full bit depth when p has no in-image neighbors.
func (m *ContextParameterMap) UpdateFeature(p Point) float64 {
	points := m.template.Points()
	weights := m.template.Weights()

	var feature, weightsSum float64
	for i, r := range points {
		q := p.Add(r)
		if q.IsIn(Point{0, 0}, Point{m.width, m.height}) {
			feature += weights[i] * m.At(q).entropy
			weightsSum += weights[i]
		}
	}

	if weightsSum == 0 {
		feature = float64(pixelBits)
	} else {
		feature /= weightsSum
	}

	m.At(p).feature = feature
	return feature
}
