package backend

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/jo-hoe/gosolve/internal/backend/commands"
	"github.com/jo-hoe/gosolve/internal/backend/database"
	"github.com/jo-hoe/gosolve/internal/core"
	"github.com/labstack/echo/v4"
)

var ErrImageTooLarge = errors.New("image exceeds upload limit")

type APIService struct {
	coreService *core.CoreService
	config      *core.ServiceConfig
}

// ProblemForm is the multipart body of a submission. The crop fields are either all
// absent or describe a region, optionally in display coordinates with the display size.
type ProblemForm struct {
	Question      string `form:"question" validate:"notblank"`
	CropX         string `form:"cropX" validate:"omitempty,numeric"`
	CropY         string `form:"cropY" validate:"omitempty,numeric"`
	CropWidth     string `form:"cropWidth" validate:"omitempty,numeric"`
	CropHeight    string `form:"cropHeight" validate:"omitempty,numeric"`
	DisplayWidth  string `form:"displayWidth" validate:"omitempty,numeric"`
	DisplayHeight string `form:"displayHeight" validate:"omitempty,numeric"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewAPIService(config *core.ServiceConfig, coreService *core.CoreService) *APIService {
	return &APIService{
		coreService: coreService,
		config:      config,
	}
}

func (s *APIService) SetRoutes(e *echo.Echo) {
	e.GET("/probe", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	api := e.Group("/api", recoverAsBadRequest)
	api.POST("/problems", s.createProblemHandler)
	api.GET("/problems/:id", s.getProblemHandler)
}

// recoverAsBadRequest reports panics in API handlers as 400 with an error body
func recoverAsBadRequest(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("api: recovered from panic", "panic", r, "path", ctx.Path())
				err = writeError(ctx, http.StatusBadRequest, fmt.Errorf("unexpected error: %v", r))
			}
		}()
		return next(ctx)
	}
}

func (s *APIService) createProblemHandler(ctx echo.Context) error {
	submission, err := ParseSubmission(ctx, s.config.MaxUploadBytes)
	if err != nil {
		slog.Warn("createProblemHandler: invalid request", "status", http.StatusBadRequest, "error", err)
		return writeError(ctx, http.StatusBadRequest, err)
	}

	problem, err := s.coreService.SubmitProblem(ctx.Request().Context(), *submission)
	if err != nil {
		slog.Warn("createProblemHandler: submission rejected", "status", http.StatusBadRequest, "error", err)
		return writeError(ctx, http.StatusBadRequest, err)
	}
	return ctx.JSON(http.StatusOK, problem)
}

func (s *APIService) getProblemHandler(ctx echo.Context) error {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id < 1 {
		return writeError(ctx, http.StatusBadRequest, fmt.Errorf("invalid problem id %q", ctx.Param("id")))
	}

	problem, err := s.coreService.GetProblem(id)
	if errors.Is(err, database.ErrProblemNotFound) {
		return writeError(ctx, http.StatusNotFound, err)
	}
	if err != nil {
		slog.Error("getProblemHandler: failed to load problem", "id", id, "error", err)
		return writeError(ctx, http.StatusInternalServerError, err)
	}
	return ctx.JSON(http.StatusOK, problem)
}

// ParseSubmission binds and validates the multipart form and reads the optional image.
// It is shared with the htmx frontend.
func ParseSubmission(ctx echo.Context, maxUploadBytes int64) (*core.Submission, error) {
	var form ProblemForm
	if err := ctx.Bind(&form); err != nil {
		return nil, fmt.Errorf("%w: malformed form: %v", core.ErrValidation, err)
	}
	form.Question = strings.TrimSpace(form.Question)
	if form.Question == "" {
		return nil, fmt.Errorf("%w: question is required", core.ErrValidation)
	}
	if err := ctx.Validate(&form); err != nil {
		return nil, fmt.Errorf("%w: crop fields must be numeric", core.ErrValidation)
	}

	crop, err := form.cropParams()
	if err != nil {
		return nil, fmt.Errorf("%w: invalid crop region: %v", core.ErrValidation, err)
	}
	submission := &core.Submission{Question: form.Question, Crop: crop}

	file, err := ctx.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return submission, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read image: %v", core.ErrValidation, err)
	}

	image, err := readImage(file, maxUploadBytes)
	if err != nil {
		return nil, err
	}
	submission.Image = image
	return submission, nil
}

func (f *ProblemForm) cropParams() (*commands.CropParams, error) {
	if f.CropWidth == "" && f.CropHeight == "" {
		return nil, nil
	}
	params := map[string]any{}
	for key, value := range map[string]string{
		"x":             f.CropX,
		"y":             f.CropY,
		"width":         f.CropWidth,
		"height":        f.CropHeight,
		"displayWidth":  f.DisplayWidth,
		"displayHeight": f.DisplayHeight,
	} {
		if value != "" {
			params[key] = value
		}
	}
	return commands.NewCropParamsFromMap(params)
}

func readImage(file *multipart.FileHeader, maxUploadBytes int64) ([]byte, error) {
	if maxUploadBytes > 0 && file.Size > maxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrImageTooLarge, file.Size, maxUploadBytes)
	}
	contentType := file.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: unsupported file type %q", core.ErrValidation, contentType)
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			slog.Error("readImage: failed to close uploaded file reader", "error", cerr, "filename", file.Filename)
		}
	}()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	return data, nil
}

// NewErrorHandler reports errors raised outside the API handlers, such as the body limit,
// with the same {error} body. Routes outside /api keep the fallback handler.
func NewErrorHandler(fallback echo.HTTPErrorHandler) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		if ctx.Response().Committed || !strings.HasPrefix(ctx.Request().URL.Path, "/api/") {
			fallback(err, ctx)
			return
		}

		status := http.StatusInternalServerError
		message := err.Error()
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			status = httpErr.Code
			message = fmt.Sprint(httpErr.Message)
		}
		if werr := writeError(ctx, status, errors.New(message)); werr != nil {
			slog.Error("api: failed to write error response", "error", werr, "original_error", err)
		}
	}
}

func writeError(ctx echo.Context, status int, err error) error {
	return ctx.JSON(status, errorResponse{Error: err.Error()})
}
