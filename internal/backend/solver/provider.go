package solver

import (
	"context"
	"errors"
)

var ErrEmptyResponse = errors.New("provider returned no text")

// Prompt is what gets sent to a model: instruction text plus an optional image
type Prompt struct {
	Text     string
	Image    []byte
	MIMEType string
}

// SolutionProvider answers a prompt with text containing $...$ / $$...$$ math markup
type SolutionProvider interface {
	Name() string
	Solve(ctx context.Context, prompt Prompt) (string, error)
}
