package commands

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func TestNewJpegConverterCommand_Quality(t *testing.T) {
	command, err := NewJpegConverterCommand(map[string]any{})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if q := command.(*JpegConverterCommand).Quality(); q != defaultJpegQuality {
		t.Errorf("Expected default quality %d, got %d", defaultJpegQuality, q)
	}

	for _, q := range []int{0, 101, -3} {
		if _, err := NewJpegConverterCommandWithQuality(q); err == nil {
			t.Errorf("Expected error for quality %d", q)
		}
	}
}

func TestJpegConverterCommand_EncodesJPEG(t *testing.T) {
	command, _ := NewJpegConverterCommandWithQuality(80)

	out, err := command.Execute(createTestPNG(t, 64, 48))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !HasJpegSignature(out) {
		t.Fatal("Expected output to start with a JPEG marker")
	}
	w, h, format := imageSize(t, out)
	if format != "jpeg" || w != 64 || h != 48 {
		t.Errorf("Expected 64x48 jpeg, got %dx%d %s", w, h, format)
	}
}

func TestJpegConverterCommand_FlattensTransparencyOnWhite(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	// Fully transparent everywhere
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}

	command, _ := NewJpegConverterCommandWithQuality(100)
	out, err := command.Execute(buf.Bytes())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	decoded, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	r, g, b, _ := decoded.At(8, 8).RGBA()
	if r>>8 < 245 || g>>8 < 245 || b>>8 < 245 {
		t.Errorf("Expected transparent pixels to become white, got (%d,%d,%d)", r>>8, g>>8, b>>8)
	}
}

func TestFlattenOnWhite_HalfAlpha(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{A: 0})
	img.SetNRGBA(1, 0, color.NRGBA{R: 0, G: 0, B: 0, A: 128})

	out := flattenOnWhite(img).(*image.RGBA)
	if got := out.RGBAAt(0, 0); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("Expected white for transparent pixel, got %v", got)
	}
	if got := out.RGBAAt(1, 0); got.R < 125 || got.R > 128 || got.A != 255 {
		t.Errorf("Expected mid grey for half-transparent black, got %v", got)
	}
}

func TestJpegConverterCommand_InvalidInput(t *testing.T) {
	command, _ := NewJpegConverterCommandWithQuality(90)
	if _, err := command.Execute([]byte("garbage")); err == nil {
		t.Error("Expected error for undecodable input")
	}
}
