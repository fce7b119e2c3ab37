package solver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	DefaultModel   = "gemini-1.5-flash"
	DefaultTimeout = 60 * time.Second
)

// GeminiProvider calls the Gemini API once per Solve. Failures are not retried.
type GeminiProvider struct {
	apiKey  string
	model   string
	timeout time.Duration
}

func NewGeminiProvider(apiKey, model string, timeout time.Duration) *GeminiProvider {
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &GeminiProvider{
		apiKey:  strings.TrimSpace(apiKey),
		model:   model,
		timeout: timeout,
	}
}

func (g *GeminiProvider) Name() string  { return "gemini" }
func (g *GeminiProvider) Model() string { return g.model }

func (g *GeminiProvider) Solve(ctx context.Context, prompt Prompt) (string, error) {
	if g.apiKey == "" {
		return "", errors.New("gemini: API key is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cl, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return "", fmt.Errorf("gemini: failed to create client: %w", err)
	}
	defer func() {
		_ = cl.Close()
	}()

	m := cl.GenerativeModel(g.model)
	configureModel(m)

	start := time.Now()
	resp, err := m.GenerateContent(ctx, promptParts(prompt)...)
	if err != nil {
		slog.Error("GeminiProvider: generate content failed",
			"model", g.model,
			"elapsed", time.Since(start),
			"error", err)
		return "", fmt.Errorf("gemini: %w", err)
	}

	txt := firstText(resp)
	if txt == "" {
		return "", fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}
	slog.Debug("GeminiProvider: received solution",
		"model", g.model,
		"elapsed", time.Since(start),
		"length", len(txt))
	return txt, nil
}

func configureModel(m *genai.GenerativeModel) {
	m.SetTemperature(0.4)
	m.SetTopK(32)
	m.SetTopP(1)
	m.SetMaxOutputTokens(2048)
	m.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockMediumAndAbove},
	}
}

func promptParts(p Prompt) []genai.Part {
	parts := []genai.Part{genai.Text(p.Text)}
	if len(p.Image) > 0 {
		mime := p.MIMEType
		if mime == "" {
			mime = "image/jpeg"
		}
		parts = append(parts, genai.Blob{MIMEType: mime, Data: p.Image})
	}
	return parts
}

// firstText concatenates the text parts of the first candidate that has any
func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
		if sb.Len() > 0 {
			return sb.String()
		}
	}
	return ""
}
