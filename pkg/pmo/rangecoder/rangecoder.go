// Package rangecoder implements a 64-bit, carryless, byte-at-a-time range
// coder driven by an arbitrary finite PModel.
package rangecoder

const (
	top8  = uint64(1) << (64 - 8)
	top16 = uint64(1) << (64 - 16)
)

// PModel is a finite discrete probability model exposing cumulative and
// instantaneous frequencies to the range coder. Implementations must satisfy
// cum_freq(max_index)+c_freq(max_index) == total_freq(), and every index in
// [MinIndex, MaxIndex] must have c_freq > 0 for symbols that can occur.
type PModel interface {
	// CFreq returns the frequency of index.
	CFreq(index int) uint64
	// CumFreq returns the accumulated frequency of [MinIndex, index).
	CumFreq(index int) uint64
	// MinIndex returns the first valid index.
	MinIndex() int
	// MaxIndex returns the last valid index.
	MaxIndex() int
}

// TotalFreq returns the model's total frequency mass.
func TotalFreq(m PModel) uint64 {
	return m.CumFreq(m.MaxIndex()) + m.CFreq(m.MaxIndex())
}

type coreState struct {
	lower uint64
	rng   uint64
}

func newCoreState() coreState {
	return coreState{lower: 0, rng: ^uint64(0)}
}

func (c *coreState) updateParam(cFreq, cumFreq, totalFreq uint64) []byte {
	var bytes []byte

	rangePerTotal := c.rng / totalFreq
	c.rng = rangePerTotal * cFreq
	c.lower += rangePerTotal * cumFreq

	for (c.lower ^ (c.lower + c.rng)) < top8 {
		bytes = append(bytes, c.shiftByte())
	}
	for c.rng < top16 {
		c.rng = (^c.lower) & (top16 - 1)
		bytes = append(bytes, c.shiftByte())
	}

	return bytes
}

func (c *coreState) shiftByte() byte {
	b := byte(c.lower >> (64 - 8))
	c.rng <<= 8
	c.lower <<= 8
	return b
}

// Encoder is a range encoder accumulating an output byte stream.
type Encoder struct {
	coreState
	bytes []byte
}

// NewEncoder returns a fresh range encoder.
func NewEncoder() *Encoder {
	return &Encoder{coreState: newCoreState()}
}

// Encode codes index under model, appending any emitted bytes to the
// encoder's output, and returns how many bytes were emitted. It is a fatal
// programming error to call Encode with a model whose TotalFreq is zero or
// whose CFreq(index) is zero.
func (e *Encoder) Encode(model PModel, index int) int {
	bytes := e.updateParam(model.CFreq(index), model.CumFreq(index), TotalFreq(model))
	e.bytes = append(e.bytes, bytes...)
	return len(bytes)
}

// Finish flushes the remaining 8 bytes of lower bound and returns the
// complete encoded byte stream.
func (e *Encoder) Finish() []byte {
	for i := 0; i < 8; i++ {
		e.bytes = append(e.bytes, e.shiftByte())
	}
	return e.bytes
}

// Decoder decodes a byte stream produced by Encoder, symbol by symbol,
// against the same sequence of PModels used to encode it.
type Decoder struct {
	coreState
	data  []byte
	pos   int
	value uint64
}

// NewDecoder starts a decoder over an encoded byte stream.
func NewDecoder(data []byte) *Decoder {
	d := &Decoder{coreState: newCoreState(), data: data}
	for i := 0; i < 8; i++ {
		d.shiftByteIn()
	}
	return d
}

func (d *Decoder) shiftByteIn() {
	var b byte
	if d.pos < len(d.data) {
		b = d.data[d.pos]
	}
	d.pos++
	d.value = (d.value << 8) | uint64(b)
}

// Decode returns the index that was encoded under model, per the same
// sequence of PModels used by the matching Encoder.
func (d *Decoder) Decode(model PModel) int {
	index := d.binarySearch(model)
	bytes := d.updateParam(model.CFreq(index), model.CumFreq(index), TotalFreq(model))
	for range bytes {
		d.shiftByteIn()
	}
	return index
}

func (d *Decoder) binarySearch(model PModel) int {
	left, right := model.MinIndex(), model.MaxIndex()
	rangePerTotal := d.rng / TotalFreq(model)
	f := (d.value - d.lower) / rangePerTotal

	for left < right {
		mid := (left + right) / 2
		if model.CumFreq(mid+1) <= f {
			left = mid + 1
		} else {
			right = mid
		}
	}
	return left
}
