package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
	"time"

	"github.com/jo-hoe/gosolve/internal/backend/database"
)

// APIError is a non-200 answer from the server
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Client talks to the problems API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = strings.TrimRight(baseURL, "/")
}

// Upload is an image part of a submission
type Upload struct {
	Filename string
	Data     []byte
}

// SubmitProblem posts a multipart submission to /api/problems
func (c *Client) SubmitProblem(ctx context.Context, question string, image *Upload) (*database.Problem, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("question", question); err != nil {
		return nil, fmt.Errorf("build request failed: %w", err)
	}
	if image != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filepath.Base(image.Filename)))
		h.Set("Content-Type", imageContentType(image))
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, fmt.Errorf("build request failed: %w", err)
		}
		if _, err := part.Write(image.Data); err != nil {
			return nil, fmt.Errorf("build request failed: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("build request failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/problems", &body)
	if err != nil {
		return nil, fmt.Errorf("build request failed: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.doProblem(req)
}

// GetProblem fetches a stored problem by id
func (c *Client) GetProblem(ctx context.Context, id int64) (*database.Problem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/api/problems/%d", c.baseURL, id), nil)
	if err != nil {
		return nil, fmt.Errorf("build request failed: %w", err)
	}
	return c.doProblem(req)
}

func (c *Client) doProblem(req *http.Request) (*database.Problem, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(raw))
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: e.Error}
	}

	var problem database.Problem
	if err := json.Unmarshal(raw, &problem); err != nil {
		return nil, fmt.Errorf("decode response failed: %w", err)
	}
	problem.State = database.StatePending
	if problem.Solution != nil {
		problem.State = database.StateSolved
		if problem.Solution.Error != "" {
			problem.State = database.StateFailed
		}
	}
	return &problem, nil
}

func imageContentType(u *Upload) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(u.Filename))); strings.HasPrefix(ct, "image/") {
		return ct
	}
	if ct := http.DetectContentType(u.Data); strings.HasPrefix(ct, "image/") {
		return ct
	}
	return "image/jpeg"
}
