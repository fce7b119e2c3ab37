package commands

import (
	"bytes"
	"errors"
	"testing"
)

func TestNewFitCommand_InvalidParams(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]any
	}{
		{"missing width", map[string]any{"height": 800}},
		{"missing height", map[string]any{"width": 800}},
		{"zero width", map[string]any{"width": 0, "height": 800}},
		{"negative height", map[string]any{"width": 800, "height": -5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewFitCommand(tt.params); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestFitDimensions(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantW, wantH  int
	}{
		{"already fits", 640, 480, 640, 480},
		{"exact box", 800, 800, 800, 800},
		{"landscape", 1600, 1200, 800, 600},
		{"portrait", 1000, 4000, 200, 800},
		{"extreme strip", 10000, 5, 800, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := fitDimensions(tt.width, tt.height, 800, 800)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("fitDimensions(%d,%d) = %dx%d, want %dx%d", tt.width, tt.height, w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestFitCommand_ScalesDown(t *testing.T) {
	command, err := NewFitCommandWithParams(800, 800)
	if err != nil {
		t.Fatalf("Failed to create command: %v", err)
	}

	out, err := command.Execute(createTestPNG(t, 1600, 1200))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	w, h, _ := imageSize(t, out)
	if w != 800 || h != 600 {
		t.Errorf("Expected 800x600, got %dx%d", w, h)
	}
}

func TestFitCommand_DoesNotUpscale(t *testing.T) {
	command, _ := NewFitCommand(map[string]any{"width": 800, "height": 800})
	imageData := createTestPNG(t, 120, 90)

	out, err := command.Execute(imageData)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !bytes.Equal(out, imageData) {
		t.Error("Expected small image to pass through unchanged")
	}
}

func TestFitCommand_RejectsNonPNG(t *testing.T) {
	command, _ := NewFitCommandWithParams(800, 800)
	if _, err := command.Execute(createTestJPEG(t, 10, 10)); err == nil {
		t.Error("Expected error for non-PNG input")
	}
}

func TestFitCommand_RejectsOversizedInput(t *testing.T) {
	command, err := NewFitCommandWithParams(800, 800)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := command.Execute(pngHeaderOnly(60000, 60000)); !errors.Is(err, ErrTooManyPixels) {
		t.Fatalf("Expected ErrTooManyPixels, got %v", err)
	}
}
