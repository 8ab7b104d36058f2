package pnm

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEncodeRoundTrip(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 4, 3))
	for i := range src.Pix {
		src.Pix[i] = byte(i * 17)
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, src))

	got, err := Decode(&buf)
	require.NoError(t, err)

	require.Equal(t, src.Bounds(), got.Bounds())
	assert.Equal(t, src.Pix, got.Pix)
}

func TestDecodeSkipsComments(t *testing.T) {
	raw := "P5\n# a comment\n2 2\n# another\n255\n" + string([]byte{1, 2, 3, 4})
	img, err := Decode(strings.NewReader(raw))
	require.NoError(t, err)

	assert.Equal(t, 2, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())
	assert.Equal(t, color.Gray{Y: 1}, img.GrayAt(0, 0))
	assert.Equal(t, color.Gray{Y: 4}, img.GrayAt(1, 1))
}

func TestDecodeRejectsUnsupportedMagic(t *testing.T) {
	_, err := Decode(strings.NewReader("P6\n1 1\n255\n\x00"))
	assert.Error(t, err)
}

func TestDecodeRejectsUnsupportedMaxVal(t *testing.T) {
	_, err := Decode(strings.NewReader("P5\n1 1\n15\n\x00"))
	assert.Error(t, err)
}

func TestDecodeRejectsInvalidDimensions(t *testing.T) {
	_, err := Decode(strings.NewReader("P5\n0 1\n255\n"))
	assert.Error(t, err)
}

func TestEncodeHandlesSubImages(t *testing.T) {
	full := image.NewGray(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			full.SetGray(x, y, color.Gray{Y: byte(x + y*4)})
		}
	}
	sub := full.SubImage(image.Rect(1, 1, 3, 3)).(*image.Gray)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sub))

	got, err := Decode(&buf)
	require.NoError(t, err)

	assert.Equal(t, sub.GrayAt(1, 1), got.GrayAt(0, 0))
	assert.Equal(t, sub.GrayAt(2, 2), got.GrayAt(1, 1))
}
