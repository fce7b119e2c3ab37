package commands

import (
	"fmt"
	"image"
	"log/slog"
	"math"

	"github.com/jo-hoe/gosolve/internal/backend/commandstructure"
	"golang.org/x/image/draw"
)

// FitParams bounds the output size
type FitParams struct {
	Width  int
	Height int
}

// NewFitParamsFromMap creates FitParams from a generic map
func NewFitParamsFromMap(params map[string]any) (*FitParams, error) {
	if err := commandstructure.ValidateRequiredParams(params, []string{"height", "width"}); err != nil {
		return nil, err
	}

	width := commandstructure.GetIntParam(params, "width", 0)
	height := commandstructure.GetIntParam(params, "height", 0)
	if width <= 0 {
		return nil, fmt.Errorf("width must be positive, got %d", width)
	}
	if height <= 0 {
		return nil, fmt.Errorf("height must be positive, got %d", height)
	}

	return &FitParams{Width: width, Height: height}, nil
}

// FitCommand shrinks a PNG so it fits inside a bounding box, preserving the aspect ratio.
// Images that already fit are returned untouched; nothing is ever upscaled.
type FitCommand struct {
	name   string
	params *FitParams
}

// NewFitCommand creates a new fit command from configuration parameters
func NewFitCommand(params map[string]any) (commandstructure.Command, error) {
	typedParams, err := NewFitParamsFromMap(params)
	if err != nil {
		return nil, err
	}
	return &FitCommand{name: "FitCommand", params: typedParams}, nil
}

// NewFitCommandWithParams creates a new fit command from concrete typed parameters
func NewFitCommandWithParams(width, height int) (*FitCommand, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("bounding box must be positive, got %dx%d", width, height)
	}
	return &FitCommand{name: "FitCommand", params: &FitParams{Width: width, Height: height}}, nil
}

// Name returns the command name
func (c *FitCommand) Name() string {
	return c.name
}

// GetParams returns the typed parameters
func (c *FitCommand) GetParams() *FitParams {
	return c.params
}

// Execute scales the image down into the bounding box
func (c *FitCommand) Execute(imageData []byte) ([]byte, error) {
	img, err := decodePNG(imageData)
	if err != nil {
		slog.Error("FitCommand: failed to decode PNG image", "error", err)
		return nil, fmt.Errorf("failed to decode PNG image: %w", err)
	}

	bounds := img.Bounds()
	w, h := fitDimensions(bounds.Dx(), bounds.Dy(), c.params.Width, c.params.Height)
	if w == bounds.Dx() && h == bounds.Dy() {
		slog.Debug("FitCommand: image already fits; skipping",
			"width", w, "height", h)
		return imageData, nil
	}

	slog.Debug("FitCommand: scaling image",
		"original_width", bounds.Dx(),
		"original_height", bounds.Dy(),
		"scaled_width", w,
		"scaled_height", h)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)

	out, err := encodePNG(dst)
	if err != nil {
		slog.Error("FitCommand: failed to encode scaled image", "error", err)
		return nil, fmt.Errorf("failed to encode scaled PNG image: %w", err)
	}
	return out, nil
}

// fitDimensions returns the largest size with the original aspect ratio that fits inside
// maxWidth x maxHeight without exceeding the original size.
func fitDimensions(width, height, maxWidth, maxHeight int) (int, int) {
	if width <= maxWidth && height <= maxHeight {
		return width, height
	}
	scale := math.Min(float64(maxWidth)/float64(width), float64(maxHeight)/float64(height))

	w := int(math.Round(float64(width) * scale))
	h := int(math.Round(float64(height) * scale))
	w = max(1, min(w, maxWidth))
	h = max(1, min(h, maxHeight))
	return w, h
}

func init() {
	if err := commandstructure.DefaultRegistry.Register("FitCommand", NewFitCommand); err != nil {
		panic(fmt.Sprintf("failed to register FitCommand: %v", err))
	}
}
