package rangecoder

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// uniform is a minimal fixed-width PModel used to exercise the coder in
// isolation from pmo's distributions.
type uniform struct{ level int }

func (u uniform) CFreq(int) uint64    { return 1 }
func (u uniform) CumFreq(i int) uint64 { return uint64(i) }
func (u uniform) MinIndex() int        { return 0 }
func (u uniform) MaxIndex() int        { return u.level - 1 }

func TestEncodeDecodeRoundTrip(t *testing.T) {
	model := uniform{level: 256}
	symbols := []int{0, 1, 255, 128, 64, 200, 7, 7, 7, 3}

	enc := NewEncoder()
	for _, s := range symbols {
		enc.Encode(model, s)
	}
	data := enc.Finish()
	require.NotEmpty(t, data)

	dec := NewDecoder(data)
	for _, want := range symbols {
		got := dec.Decode(model)
		require.Equal(t, want, got)
	}
}

func TestEncodeDecodeWithSkewedFrequencies(t *testing.T) {
	// a model whose first symbol is heavily favored, forcing many
	// renormalization passes per code step.
	hist := [4]uint64{1000, 1, 1, 1}
	var cum [4]uint64
	for i := 1; i < 4; i++ {
		cum[i] = cum[i-1] + hist[i-1]
	}
	model := freqTable{cFreq: hist, cumFreq: cum}

	symbols := []int{0, 0, 3, 0, 1, 2, 0, 0}

	enc := NewEncoder()
	for _, s := range symbols {
		enc.Encode(model, s)
	}
	data := enc.Finish()

	dec := NewDecoder(data)
	for _, want := range symbols {
		require.Equal(t, want, dec.Decode(model))
	}
}

type freqTable struct {
	cFreq, cumFreq [4]uint64
}

func (t freqTable) CFreq(i int) uint64   { return t.cFreq[i] }
func (t freqTable) CumFreq(i int) uint64 { return t.cumFreq[i] }
func (t freqTable) MinIndex() int        { return 0 }
func (t freqTable) MaxIndex() int        { return 3 }

func TestTotalFreq(t *testing.T) {
	model := uniform{level: 10}
	require.Equal(t, uint64(10), TotalFreq(model))
}
