// Package pnm decodes and encodes 8-bit grayscale PGM (P5) images to and
// from the standard library's image.Gray, the only sample format the
// codec's drivers accept or produce.
package pnm

import (
	"bufio"
	"fmt"
	"image"
	"io"
)

// Decode parses a binary PGM (P5) image from r. It accepts the standard
// whitespace-separated header (magic, width, height, maxval) with '#'
// comments skipped anywhere a token is expected, and requires maxval == 255.
func Decode(r io.Reader) (*image.Gray, error) {
	br := bufio.NewReader(r)

	magic, err := readToken(br)
	if err != nil {
		return nil, fmt.Errorf("pnm: reading magic: %w", err)
	}
	if magic != "P5" {
		return nil, fmt.Errorf("pnm: unsupported magic %q, only P5 is supported", magic)
	}

	width, err := readInt(br)
	if err != nil {
		return nil, fmt.Errorf("pnm: reading width: %w", err)
	}
	height, err := readInt(br)
	if err != nil {
		return nil, fmt.Errorf("pnm: reading height: %w", err)
	}
	maxVal, err := readInt(br)
	if err != nil {
		return nil, fmt.Errorf("pnm: reading maxval: %w", err)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("pnm: invalid dimensions %dx%d", width, height)
	}
	if maxVal != 255 {
		return nil, fmt.Errorf("pnm: unsupported maxval %d, only 255 is supported", maxVal)
	}

	img := image.NewGray(image.Rect(0, 0, width, height))
	if _, err := io.ReadFull(br, img.Pix); err != nil {
		return nil, fmt.Errorf("pnm: reading pixel data: %w", err)
	}

	return img, nil
}

// Encode serializes img as a binary PGM (P5) file to w.
func Encode(w io.Writer, img *image.Gray) error {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintf(bw, "P5\n%d %d\n255\n", width, height); err != nil {
		return fmt.Errorf("pnm: writing header: %w", err)
	}

	if img.Stride == width && bounds.Min.X == 0 && bounds.Min.Y == 0 {
		if _, err := bw.Write(img.Pix[:width*height]); err != nil {
			return fmt.Errorf("pnm: writing pixel data: %w", err)
		}
	} else {
		row := make([]byte, width)
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				row[x-bounds.Min.X] = img.GrayAt(x, y).Y
			}
			if _, err := bw.Write(row); err != nil {
				return fmt.Errorf("pnm: writing pixel data: %w", err)
			}
		}
	}

	return bw.Flush()
}

func readToken(br *bufio.Reader) (string, error) {
	if err := skipWhitespaceAndComments(br); err != nil {
		return "", err
	}

	var token []byte
	for {
		b, err := br.ReadByte()
		if err != nil {
			if len(token) > 0 {
				break
			}
			return "", err
		}
		if isSpace(b) {
			break
		}
		token = append(token, b)
	}
	return string(token), nil
}

func readInt(br *bufio.Reader) (int, error) {
	token, err := readToken(br)
	if err != nil {
		return 0, err
	}
	var v int
	if _, err := fmt.Sscanf(token, "%d", &v); err != nil {
		return 0, fmt.Errorf("expected integer, got %q", token)
	}
	return v, nil
}

func skipWhitespaceAndComments(br *bufio.Reader) error {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return err
		}
		switch {
		case b == '#':
			for {
				c, err := br.ReadByte()
				if err != nil {
					return err
				}
				if c == '\n' {
					break
				}
			}
		case isSpace(b):
			continue
		default:
			return br.UnreadByte()
		}
	}
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
}
