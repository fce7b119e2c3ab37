package commands

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"

	"github.com/jo-hoe/gosolve/internal/backend/commandstructure"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// PngConverterCommand normalises any supported upload (jpeg, png, gif, bmp, tiff, webp, svg) to PNG
type PngConverterCommand struct {
	name              string
	svgFallbackWidth  int
	svgFallbackHeight int
	maxPixels         int
}

// NewPngConverterCommand creates a new PNG converter command
func NewPngConverterCommand(params map[string]any) (commandstructure.Command, error) {
	// Only used when an SVG has neither width/height nor a viewBox
	w := commandstructure.GetIntParam(params, "svgFallbackWidth", 800)
	h := commandstructure.GetIntParam(params, "svgFallbackHeight", 800)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("svg fallback size must be positive, got %dx%d", w, h)
	}
	maxPixels := commandstructure.GetIntParam(params, "maxPixels", DefaultMaxPixels)
	if maxPixels <= 0 {
		return nil, fmt.Errorf("maxPixels must be positive, got %d", maxPixels)
	}

	return &PngConverterCommand{
		name:              "PngConverterCommand",
		svgFallbackWidth:  w,
		svgFallbackHeight: h,
		maxPixels:         maxPixels,
	}, nil
}

// Name returns the command name
func (c *PngConverterCommand) Name() string {
	return c.name
}

// Execute converts the input to PNG bytes
func (c *PngConverterCommand) Execute(imageData []byte) ([]byte, error) {
	if !HasPngSignature(imageData) && isSVGData(imageData) {
		return c.convertSVG(imageData)
	}

	if err := checkEncodedSize(imageData, c.maxPixels); err != nil {
		slog.Warn("PngConverterCommand: rejecting image", "error", err)
		return nil, err
	}

	if HasPngSignature(imageData) {
		slog.Debug("PngConverterCommand: PNG detected; returning original bytes")
		return imageData, nil
	}

	img, format, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		slog.Error("PngConverterCommand: failed to decode image", "error", err)
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	slog.Debug("PngConverterCommand: decoded raster image",
		"format", format,
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy())

	out, err := encodePNG(img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image to PNG: %w", err)
	}
	return out, nil
}

func (c *PngConverterCommand) convertSVG(imageData []byte) ([]byte, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(imageData))
	if err != nil {
		slog.Error("PngConverterCommand: failed to parse SVG", "error", err)
		return nil, fmt.Errorf("failed to parse SVG: %w", err)
	}

	w := int(math.Ceil(icon.ViewBox.W))
	h := int(math.Ceil(icon.ViewBox.H))
	if w <= 0 || h <= 0 {
		slog.Debug("PngConverterCommand: SVG has no intrinsic size; using fallback",
			"width", c.svgFallbackWidth, "height", c.svgFallbackHeight)
		w, h = c.svgFallbackWidth, c.svgFallbackHeight
	}
	if err := checkPixels(w, h, c.maxPixels); err != nil {
		slog.Warn("PngConverterCommand: rejecting SVG", "error", err)
		return nil, err
	}

	icon.SetTarget(0, 0, float64(w), float64(h))
	dst := createTargetCanvas(w, h, color.RGBA{255, 255, 255, 255})
	scanner := rasterx.NewScannerGV(w, h, dst, dst.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1.0)

	out, err := encodePNG(dst)
	if err != nil {
		return nil, fmt.Errorf("failed to encode rendered SVG as PNG: %w", err)
	}
	return out, nil
}

// isSVGData inspects the first 4KB for an <svg> root or the SVG namespace
func isSVGData(data []byte) bool {
	n := len(data)
	if n == 0 {
		return false
	}
	if n > 4096 {
		n = 4096
	}
	header := bytes.ToLower(data[:n])
	return bytes.Contains(header, []byte("<svg")) ||
		bytes.Contains(header, []byte("http://www.w3.org/2000/svg"))
}

func init() {
	if err := commandstructure.DefaultRegistry.Register("PngConverterCommand", NewPngConverterCommand); err != nil {
		panic(fmt.Sprintf("failed to register PngConverterCommand: %v", err))
	}
}
