package commands

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/draw"
)

// DefaultMaxPixels bounds width*height of any image a command decodes or renders
const DefaultMaxPixels = 50_000_000

var ErrTooManyPixels = errors.New("image exceeds pixel limit")

var (
	pngSignature  = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	jpegSignature = []byte{0xFF, 0xD8, 0xFF}
)

// HasPngSignature reports whether data begins with the PNG magic bytes
func HasPngSignature(data []byte) bool {
	return bytes.HasPrefix(data, pngSignature)
}

// HasJpegSignature reports whether data begins with a JPEG SOI marker
func HasJpegSignature(data []byte) bool {
	return bytes.HasPrefix(data, jpegSignature)
}

func decodePNG(data []byte) (image.Image, error) {
	if err := checkEncodedSize(data, DefaultMaxPixels); err != nil {
		return nil, err
	}
	return png.Decode(bytes.NewReader(data))
}

// checkEncodedSize reads only the image header, so oversized inputs are refused before
// their pixel buffer is allocated
func checkEncodedSize(data []byte, maxPixels int) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to read image header: %w", err)
	}
	return checkPixels(cfg.Width, cfg.Height, maxPixels)
}

func checkPixels(width, height, maxPixels int) error {
	if int64(width)*int64(height) > int64(maxPixels) {
		return fmt.Errorf("%w: %dx%d is more than %d pixels", ErrTooManyPixels, width, height, maxPixels)
	}
	return nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func createTargetCanvas(w, h int, bg color.Color) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)
	return dst
}
