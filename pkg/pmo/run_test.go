package pmo

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		SearchWindow:       3,
		NumExamples:        4,
		TrainWindow:        3,
		NumPredictors:      4,
		NumContextSegments: 2,
		TemplateRadius:     2,
		Penalty:            0.03,
		ParallelPredictors: false,
	}
}

func grayImage(height, width int, fn func(x, y int) uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray(x, y, color.Gray{Y: fn(x, y)})
		}
	}
	return img
}

func TestEncodeDecodeImageIsLossless(t *testing.T) {
	src := grayImage(6, 6, func(x, y int) uint8 { return uint8(20 + x*7 + y*11) })

	data, err := EncodeImage(src, testConfig(), nil)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	got, err := DecodeImage(data, testConfig(), nil)
	require.NoError(t, err)

	require.Equal(t, src.Bounds(), got.Bounds())
	assert.Equal(t, src.Pix, got.Pix)
}

func TestEncodeDecodeImageHandlesFlatImage(t *testing.T) {
	src := grayImage(4, 4, func(x, y int) uint8 { return 128 })

	data, err := EncodeImage(src, testConfig(), nil)
	require.NoError(t, err)

	got, err := DecodeImage(data, testConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, src.Pix, got.Pix)
}

func TestEncodeImageRejectsZeroSizedImage(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 0, 0))
	_, err := EncodeImage(src, testConfig(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestEncodeDecodeImageSingleRowAndColumn(t *testing.T) {
	row := grayImage(1, 8, func(x, y int) uint8 { return uint8(x * 30) })
	data, err := EncodeImage(row, testConfig(), nil)
	require.NoError(t, err)
	got, err := DecodeImage(data, testConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, row.Pix, got.Pix)

	col := grayImage(8, 1, func(x, y int) uint8 { return uint8(y * 30) })
	data, err = EncodeImage(col, testConfig(), nil)
	require.NoError(t, err)
	got, err = DecodeImage(data, testConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, col.Pix, got.Pix)
}
