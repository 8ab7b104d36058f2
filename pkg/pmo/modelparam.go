package pmo

// modelMin, modelIni, modelMax, modelPrecision are the compile-time bounds,
// initial value, and quantization precision of a unit's 5 mixture
// parameters (a0..a4), matching distribution_logistic.h's
// ModelParameterUnit_<N> static arrays exactly.
var (
	modelMin       = [NumModelParameters]float64{-10, -10, -10, -10, -10}
	modelIni       = [NumModelParameters]float64{-0.5, 0.1, 0.5, 0.0, 0.0}
	modelMax       = [NumModelParameters]float64{10, 10, 10, 10, 10}
	modelPrecision = [NumModelParameters]uint64{1 << 12, 1 << 12, 1 << 12, 1 << 12, 1 << 12}
)

// ModelParameterUnit is a context segment's shared mixture-model parameter
// vector a = (a0..a4).
type ModelParameterUnit struct {
	UnitID int
	params [NumModelParameters]float64
}

// NewModelParameterUnit returns a unit initialized to modelIni.
func NewModelParameterUnit(unitID int) *ModelParameterUnit {
	return &ModelParameterUnit{UnitID: unitID, params: modelIni}
}

// Params returns the unit's current real-valued parameter vector.
func (u *ModelParameterUnit) Params() [NumModelParameters]float64 {
	return u.params
}

// SetParams overwrites the unit's parameter vector.
func (u *ModelParameterUnit) SetParams(p [NumModelParameters]float64) {
	u.params = p
}

// Quantize maps the unit's real-valued parameters to their discrete
// bitstream indices. The (PRE[i]-0.5) multiplier is intentional: it skews
// the mapping by half a bucket relative to Restore's (idx+0.5)/PRE, so the
// round trip is near- but not exactly-centered. Preserve as specified.
func (u *ModelParameterUnit) Quantize() [NumModelParameters]uint64 {
	var idx [NumModelParameters]uint64
	for i := 0; i < NumModelParameters; i++ {
		frac := (u.params[i] - modelMin[i]) / (modelMax[i] - modelMin[i])
		frac = clampFloat(frac, 0, 1)
		idx[i] = uint64((float64(modelPrecision[i]) - 0.5) * frac)
	}
	return idx
}

// Restore reconstructs the unit's real-valued parameters from quantization
// indices and returns them.
func (u *ModelParameterUnit) Restore(idx [NumModelParameters]uint64) [NumModelParameters]float64 {
	for i := 0; i < NumModelParameters; i++ {
		u.params[i] = modelMin[i] + (modelMax[i]-modelMin[i])*(float64(idx[i])+0.5)/float64(modelPrecision[i])
	}
	return u.params
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ModelParameterMap is a many-to-one mapping from pixels to K mutable
// ModelParameterUnits. Units are stored in a flat slice and referenced by
// index (the original's shared_ptr reference-counting is replaced by an
// explicit per-unit pixel count, per spec §9's recommended redesign).
type ModelParameterMap struct {
	height, width int
	units         []*ModelParameterUnit
	assign        []int // unit index per pixel
	count         []int // population per unit
}

// NewModelParameterMap allocates a map sized to height x width with
// numUnits context units, all pixels initially assigned to the last unit
// (matching the original's reset-time assignment).
func NewModelParameterMap(height, width, numUnits int) *ModelParameterMap {
	m := &ModelParameterMap{}
	m.Reset(height, width, numUnits)
	return m
}

// Reset resizes the map and reinitializes all units to modelIni.
func (m *ModelParameterMap) Reset(height, width, numUnits int) {
	m.height, m.width = height, width

	m.units = make([]*ModelParameterUnit, numUnits)
	for i := range m.units {
		m.units[i] = NewModelParameterUnit(i)
	}

	m.assign = make([]int, height*width)
	m.count = make([]int, numUnits)
	lastUnit := numUnits - 1
	for i := range m.assign {
		m.assign[i] = lastUnit
	}
	if numUnits > 0 {
		m.count[lastUnit] = len(m.assign)
	}
}

// Height returns the map's row count.
func (m *ModelParameterMap) Height() int { return m.height }

// Width returns the map's column count.
func (m *ModelParameterMap) Width() int { return m.width }

// NumUnits returns the number of context units.
func (m *ModelParameterMap) NumUnits() int { return len(m.units) }

// Unit returns the unitID-th ModelParameterUnit.
func (m *ModelParameterMap) Unit(unitID int) *ModelParameterUnit {
	return m.units[unitID]
}

// At returns the ModelParameterUnit currently assigned to pixel p.
func (m *ModelParameterMap) At(p Point) *ModelParameterUnit {
	return m.units[m.assign[p.Y*m.width+p.X]]
}

// UnitID returns the unit index currently assigned to pixel p.
func (m *ModelParameterMap) UnitID(p Point) int {
	return m.assign[p.Y*m.width+p.X]
}

// NumPix returns how many pixels currently reference unitID.
func (m *ModelParameterMap) NumPix(unitID int) int {
	return m.count[unitID]
}

// SetUnit assigns pixel p to the unit determined by the context feature
// scalar: unit_id = floor((K-1) * min(1, feature/7.5)).
func (m *ModelParameterMap) SetUnit(p Point, feature float64) {
	const maxFeature = 7.5
	numUnits := len(m.units)
	unitID := int(float64(numUnits-1) * minFloat(1, feature/maxFeature))
	m.setUnit(p, unitID)
}

func (m *ModelParameterMap) setUnit(p Point, unitID int) {
	idx := p.Y*m.width + p.X
	old := m.assign[idx]
	if old == unitID {
		return
	}
	m.count[old]--
	m.count[unitID]++
	m.assign[idx] = unitID
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
