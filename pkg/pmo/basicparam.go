package pmo

import "sync"

// BasicParameter is one (cost, peak, flag) triple proposed by an estimator:
// flag 0 marks an example-search origin, flag 1 an adaptive-prediction
// origin; peak is the predicted intensity; cost is a non-negative
// dissimilarity/residual measure, smaller is better.
type BasicParameter struct {
	Cost, Peak, Flag float64
}

// BasicParameterUnit is the bounded, cost-sorted list of BasicParameters
// proposed for a single pixel. Insertion is serialized by a mutex shared
// with the whole BasicParameterMap, so concurrent predictor goroutines can
// insert safely; a new entry goes before existing entries of equal cost.
type BasicParameterUnit struct {
	mu     *sync.Mutex
	params []BasicParameter
}

// Params returns the unit's current sorted parameter list.
func (u *BasicParameterUnit) Params() []BasicParameter {
	return u.params
}

// Insert inserts param into the unit, keeping it sorted ascending by Cost
// and bounded to maxNum entries: if the list is already full and param's
// cost is no worse than the current worst, the worst is evicted first.
func (u *BasicParameterUnit) Insert(param BasicParameter, maxNum int) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if len(u.params) == maxNum {
		if param.Cost <= u.params[len(u.params)-1].Cost {
			u.params = u.params[:len(u.params)-1]
		} else {
			return
		}
	}

	if len(u.params) == 0 || param.Cost > u.params[len(u.params)-1].Cost {
		u.params = append(u.params, param)
		return
	}

	point := 0
	for point < len(u.params) && param.Cost > u.params[point].Cost {
		point++
	}
	u.params = append(u.params, BasicParameter{})
	copy(u.params[point+1:], u.params[point:])
	u.params[point] = param
}

// BasicParameterMap holds one BasicParameterUnit per pixel, all sharing a
// single write-exclusive mutex (the original's "mutable singleton" lock
// pattern), sized once per image.
type BasicParameterMap struct {
	height, width int
	numDists      int
	mu            sync.Mutex
	units         []BasicParameterUnit
}

// NewBasicParameterMap allocates a map sized to height x width, with
// per-pixel capacity numDists.
func NewBasicParameterMap(height, width, numDists int) *BasicParameterMap {
	m := &BasicParameterMap{}
	m.Reset(height, width, numDists)
	return m
}

// Reset resizes the map, discarding all previously accumulated parameters.
func (m *BasicParameterMap) Reset(height, width, numDists int) {
	m.height, m.width, m.numDists = height, width, numDists
	m.units = make([]BasicParameterUnit, height*width)
	for i := range m.units {
		m.units[i].mu = &m.mu
	}
}

// Height returns the map's row count.
func (m *BasicParameterMap) Height() int { return m.height }

// Width returns the map's column count.
func (m *BasicParameterMap) Width() int { return m.width }

// NumDists returns the per-pixel parameter capacity.
func (m *BasicParameterMap) NumDists() int { return m.numDists }

// At returns the BasicParameterUnit for pixel p.
func (m *BasicParameterMap) At(p Point) *BasicParameterUnit {
	return &m.units[p.Y*m.width+p.X]
}
