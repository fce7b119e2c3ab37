package commands

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"log/slog"

	"github.com/jo-hoe/gosolve/internal/backend/commandstructure"
)

const defaultJpegQuality = 90

// JpegConverterCommand encodes an image as baseline JPEG.
// Transparent pixels are composited onto white since JPEG has no alpha channel.
type JpegConverterCommand struct {
	name    string
	quality int
}

// NewJpegConverterCommand creates a new JPEG converter command
func NewJpegConverterCommand(params map[string]any) (commandstructure.Command, error) {
	quality := commandstructure.GetIntParam(params, "quality", defaultJpegQuality)
	return NewJpegConverterCommandWithQuality(quality)
}

// NewJpegConverterCommandWithQuality creates a new JPEG converter with an explicit quality in [1,100]
func NewJpegConverterCommandWithQuality(quality int) (*JpegConverterCommand, error) {
	if quality < 1 || quality > 100 {
		return nil, fmt.Errorf("quality must be between 1 and 100, got %d", quality)
	}
	return &JpegConverterCommand{name: "JpegConverterCommand", quality: quality}, nil
}

// Name returns the command name
func (c *JpegConverterCommand) Name() string {
	return c.name
}

// Quality returns the configured encoder quality
func (c *JpegConverterCommand) Quality() int {
	return c.quality
}

// Execute re-encodes the image to JPEG
func (c *JpegConverterCommand) Execute(imageData []byte) ([]byte, error) {
	if err := checkEncodedSize(imageData, DefaultMaxPixels); err != nil {
		slog.Error("JpegConverterCommand: rejecting image", "error", err)
		return nil, err
	}

	img, format, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		slog.Error("JpegConverterCommand: failed to decode image", "error", err)
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	slog.Debug("JpegConverterCommand: encoding",
		"source_format", format,
		"quality", c.quality,
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy())

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flattenOnWhite(img), &jpeg.Options{Quality: c.quality}); err != nil {
		slog.Error("JpegConverterCommand: failed to encode JPEG", "error", err)
		return nil, fmt.Errorf("failed to encode JPEG image: %w", err)
	}
	return buf.Bytes(), nil
}

func flattenOnWhite(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}

	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	parallelFor(bounds.Dy(), func(y int) {
		for x := 0; x < bounds.Dx(); x++ {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			a := uint32(c.A)
			blend := func(v uint8) uint8 {
				return uint8((uint32(v)*a + 255*(255-a) + 127) / 255)
			}
			dst.SetRGBA(x, y, color.RGBA{R: blend(c.R), G: blend(c.G), B: blend(c.B), A: 255})
		}
	})
	return dst
}

func init() {
	if err := commandstructure.DefaultRegistry.Register("JpegConverterCommand", NewJpegConverterCommand); err != nil {
		panic(fmt.Sprintf("failed to register JpegConverterCommand: %v", err))
	}
}
