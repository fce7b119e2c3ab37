package solver

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
)

func TestBuildPrompt_TextOnly(t *testing.T) {
	p := BuildPrompt("What is $2+2$?", nil)

	want := "Please solve this math or science problem and provide a detailed explanation. " +
		"Format mathematical expressions using LaTeX notation ($...$ for inline math and $$...$$ for display math): " +
		"What is $2+2$?"
	if p.Text != want {
		t.Errorf("unexpected prompt text:\n got %q\nwant %q", p.Text, want)
	}
	if p.Image != nil || p.MIMEType != "" {
		t.Errorf("expected no image, got %d bytes (%s)", len(p.Image), p.MIMEType)
	}
}

func TestBuildPrompt_WithImage(t *testing.T) {
	img := []byte{0xFF, 0xD8, 0xFF, 0x00}
	p := BuildPrompt("q", img)
	if p.MIMEType != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %q", p.MIMEType)
	}
	if len(p.Image) != 4 {
		t.Errorf("expected image to be attached")
	}
}

func TestPromptParts(t *testing.T) {
	parts := promptParts(Prompt{Text: "hello"})
	if len(parts) != 1 {
		t.Fatalf("expected 1 part, got %d", len(parts))
	}
	if txt, ok := parts[0].(genai.Text); !ok || string(txt) != "hello" {
		t.Errorf("expected text part, got %#v", parts[0])
	}

	parts = promptParts(Prompt{Text: "hello", Image: []byte{1, 2}})
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	blob, ok := parts[1].(genai.Blob)
	if !ok {
		t.Fatalf("expected blob part, got %#v", parts[1])
	}
	if blob.MIMEType != "image/jpeg" {
		t.Errorf("expected default MIME image/jpeg, got %q", blob.MIMEType)
	}
}

func TestConfigureModel(t *testing.T) {
	m := &genai.GenerativeModel{}
	configureModel(m)

	if m.Temperature == nil || *m.Temperature != 0.4 {
		t.Errorf("expected temperature 0.4, got %v", m.Temperature)
	}
	if m.TopK == nil || *m.TopK != 32 {
		t.Errorf("expected topK 32, got %v", m.TopK)
	}
	if m.TopP == nil || *m.TopP != 1 {
		t.Errorf("expected topP 1, got %v", m.TopP)
	}
	if m.MaxOutputTokens == nil || *m.MaxOutputTokens != 2048 {
		t.Errorf("expected maxOutputTokens 2048, got %v", m.MaxOutputTokens)
	}
	if len(m.SafetySettings) != 1 {
		t.Fatalf("expected one safety setting, got %d", len(m.SafetySettings))
	}
	s := m.SafetySettings[0]
	if s.Category != genai.HarmCategoryHarassment || s.Threshold != genai.HarmBlockMediumAndAbove {
		t.Errorf("unexpected safety setting %+v", s)
	}
}

func TestFirstText(t *testing.T) {
	if got := firstText(nil); got != "" {
		t.Errorf("expected empty for nil response, got %q", got)
	}
	if got := firstText(&genai.GenerateContentResponse{}); got != "" {
		t.Errorf("expected empty for no candidates, got %q", got)
	}

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: nil},
			{Content: &genai.Content{Parts: []genai.Part{genai.Text("$x=1$"), genai.Text(" done")}}},
		},
	}
	if got := firstText(resp); got != "$x=1$ done" {
		t.Errorf("unexpected text %q", got)
	}
}

func TestNewGeminiProvider_Defaults(t *testing.T) {
	g := NewGeminiProvider(" key ", "", 0)
	if g.Model() != DefaultModel {
		t.Errorf("expected default model, got %q", g.Model())
	}
	if g.timeout != DefaultTimeout {
		t.Errorf("expected default timeout, got %v", g.timeout)
	}
	if g.apiKey != "key" {
		t.Errorf("expected trimmed api key, got %q", g.apiKey)
	}

	g = NewGeminiProvider("k", "gemini-2.0-flash", 5*time.Second)
	if g.Model() != "gemini-2.0-flash" || g.timeout != 5*time.Second {
		t.Errorf("expected overrides to be kept, got %s %v", g.Model(), g.timeout)
	}
}

func TestGeminiProvider_EmptyKey(t *testing.T) {
	g := NewGeminiProvider("", "", 0)
	_, err := g.Solve(context.Background(), BuildPrompt("q", nil))
	if err == nil || !strings.Contains(err.Error(), "API key") {
		t.Errorf("expected API key error, got %v", err)
	}
}
