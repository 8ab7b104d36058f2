package pmo

import "github.com/pmo-codec/pmo/pkg/pmo/rangecoder"

var (
	_ rangecoder.PModel = UniformDistribution{}
	_ rangecoder.PModel = (*FreqTable)(nil)
)

// UniformDistribution is a rangecoder.PModel over [0, level) with equal
// per-symbol frequency; used for the header and model-parameter fields,
// which carry no prior skew.
type UniformDistribution struct {
	level int
}

// NewUniformDistribution returns a uniform model over level symbols.
func NewUniformDistribution(level int) UniformDistribution {
	return UniformDistribution{level: level}
}

func (u UniformDistribution) CFreq(int) uint64    { return 1 }
func (u UniformDistribution) CumFreq(i int) uint64 { return uint64(i) }
func (u UniformDistribution) MinIndex() int        { return 0 }
func (u UniformDistribution) MaxIndex() int        { return u.level - 1 }

// FreqTable is a rangecoder.PModel backed by an explicit per-symbol
// frequency histogram, as produced by MixtureDistribution.Histogram.
type FreqTable struct {
	cFreq   [Levels]uint64
	cumFreq [Levels]uint64
}

// NewFreqTable builds cumulative frequencies from a per-symbol histogram.
func NewFreqTable(hist [Levels]uint64) *FreqTable {
	t := &FreqTable{cFreq: hist}
	for i := 0; i < Levels-1; i++ {
		t.cumFreq[i+1] = t.cumFreq[i] + t.cFreq[i]
	}
	return t
}

func (t *FreqTable) CFreq(i int) uint64    { return t.cFreq[i] }
func (t *FreqTable) CumFreq(i int) uint64  { return t.cumFreq[i] }
func (t *FreqTable) MinIndex() int         { return 0 }
func (t *FreqTable) MaxIndex() int         { return Levels - 1 }
