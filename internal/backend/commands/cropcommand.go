package commands

import (
	"fmt"
	"image"
	"log/slog"
	"math"

	"github.com/jo-hoe/gosolve/internal/backend/commandstructure"
	"golang.org/x/image/draw"
)

// CropParams describes a rectangular region. When DisplayWidth and DisplayHeight are set,
// the region is expressed in on-screen coordinates of an image rendered at that size and
// is scaled to the source image's native resolution before cropping.
type CropParams struct {
	X             int
	Y             int
	Width         int
	Height        int
	DisplayWidth  int
	DisplayHeight int
}

// NewCropParamsFromMap creates CropParams from a generic map
func NewCropParamsFromMap(params map[string]any) (*CropParams, error) {
	if err := commandstructure.ValidateRequiredParams(params, []string{"width", "height"}); err != nil {
		return nil, err
	}

	p := &CropParams{
		X:             roundedParam(params, "x"),
		Y:             roundedParam(params, "y"),
		Width:         roundedParam(params, "width"),
		Height:        roundedParam(params, "height"),
		DisplayWidth:  roundedParam(params, "displayWidth"),
		DisplayHeight: roundedParam(params, "displayHeight"),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// roundedParam reads a coordinate that may be fractional, as browsers report them
func roundedParam(params map[string]any, key string) int {
	return int(math.Round(commandstructure.GetFloatParam(params, key, 0)))
}

// Validate checks the region is well formed
func (p *CropParams) Validate() error {
	if p.Width <= 0 {
		return fmt.Errorf("width must be positive, got %d", p.Width)
	}
	if p.Height <= 0 {
		return fmt.Errorf("height must be positive, got %d", p.Height)
	}
	if p.X < 0 || p.Y < 0 {
		return fmt.Errorf("crop origin must not be negative, got (%d,%d)", p.X, p.Y)
	}
	if (p.DisplayWidth == 0) != (p.DisplayHeight == 0) {
		return fmt.Errorf("displayWidth and displayHeight must be set together")
	}
	if p.DisplayWidth < 0 || p.DisplayHeight < 0 {
		return fmt.Errorf("display size must not be negative, got %dx%d", p.DisplayWidth, p.DisplayHeight)
	}
	return nil
}

// SourceRect maps the region onto an image of the given native size and clamps it to the bounds
func (p *CropParams) SourceRect(nativeWidth, nativeHeight int) image.Rectangle {
	scaleX, scaleY := 1.0, 1.0
	if p.DisplayWidth > 0 && p.DisplayHeight > 0 {
		scaleX = float64(nativeWidth) / float64(p.DisplayWidth)
		scaleY = float64(nativeHeight) / float64(p.DisplayHeight)
	}

	x0 := int(math.Round(float64(p.X) * scaleX))
	y0 := int(math.Round(float64(p.Y) * scaleY))
	w := int(math.Round(float64(p.Width) * scaleX))
	h := int(math.Round(float64(p.Height) * scaleY))

	return image.Rect(x0, y0, x0+w, y0+h).Intersect(image.Rect(0, 0, nativeWidth, nativeHeight))
}

// CropCommand cuts a region out of a PNG image
type CropCommand struct {
	name   string
	params *CropParams
}

// NewCropCommand creates a new crop command from configuration parameters
func NewCropCommand(params map[string]any) (commandstructure.Command, error) {
	typedParams, err := NewCropParamsFromMap(params)
	if err != nil {
		return nil, err
	}
	return &CropCommand{name: "CropCommand", params: typedParams}, nil
}

// NewCropCommandWithParams creates a new crop command from typed parameters
func NewCropCommandWithParams(params CropParams) (*CropCommand, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &CropCommand{name: "CropCommand", params: &params}, nil
}

// Name returns the command name
func (c *CropCommand) Name() string {
	return c.name
}

// GetParams returns the typed parameters
func (c *CropCommand) GetParams() *CropParams {
	return c.params
}

// Execute crops the image to the configured region at native resolution
func (c *CropCommand) Execute(imageData []byte) ([]byte, error) {
	img, err := decodePNG(imageData)
	if err != nil {
		slog.Error("CropCommand: failed to decode PNG image", "error", err)
		return nil, fmt.Errorf("failed to decode PNG image: %w", err)
	}

	bounds := img.Bounds()
	rect := c.params.SourceRect(bounds.Dx(), bounds.Dy())
	if rect.Empty() {
		return nil, fmt.Errorf("crop region %+v lies outside the %dx%d image", *c.params, bounds.Dx(), bounds.Dy())
	}

	slog.Debug("CropCommand: cropping",
		"original_width", bounds.Dx(),
		"original_height", bounds.Dy(),
		"crop_x", rect.Min.X,
		"crop_y", rect.Min.Y,
		"crop_width", rect.Dx(),
		"crop_height", rect.Dy())

	if rect.Eq(image.Rect(0, 0, bounds.Dx(), bounds.Dy())) {
		return imageData, nil
	}

	cropped := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(cropped, cropped.Bounds(), img, bounds.Min.Add(rect.Min), draw.Src)

	out, err := encodePNG(cropped)
	if err != nil {
		slog.Error("CropCommand: failed to encode cropped image", "error", err)
		return nil, fmt.Errorf("failed to encode cropped PNG image: %w", err)
	}
	return out, nil
}

func init() {
	if err := commandstructure.DefaultRegistry.Register("CropCommand", NewCropCommand); err != nil {
		panic(fmt.Sprintf("failed to register CropCommand: %v", err))
	}
}
