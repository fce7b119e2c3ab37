package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jo-hoe/gosolve/internal/backend/commands"
	"github.com/jo-hoe/gosolve/internal/backend/commandstructure"
	"github.com/jo-hoe/gosolve/internal/backend/database"
	"github.com/jo-hoe/gosolve/internal/core"
)

type State int

const (
	Idle State = iota
	ImageSelected
	Cropping
	Submitting
	Solved
	Errored
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ImageSelected:
		return "image-selected"
	case Cropping:
		return "cropping"
	case Submitting:
		return "submitting"
	case Solved:
		return "solved"
	case Errored:
		return "errored"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var ErrInvalidTransition = errors.New("invalid workflow transition")

// Size is the on-screen size an image was shown at while a region was selected
type Size struct {
	Width  int
	Height int
}

// Region is a crop rectangle in display coordinates
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Workflow mirrors the browser form: a question, an optional image that is cropped
// before sending, and the outcome of the last submission. It is not safe for
// concurrent use.
type Workflow struct {
	client *Client

	state        State
	question     string
	image        *Upload
	cropped      *Upload
	last         *database.Problem
	notification string
}

func NewWorkflow(client *Client) *Workflow {
	return &Workflow{client: client}
}

func (w *Workflow) State() State                   { return w.state }
func (w *Workflow) Question() string               { return w.question }
func (w *Workflow) HasImage() bool                 { return w.image != nil }
func (w *Workflow) IsCropped() bool                { return w.cropped != nil }
func (w *Workflow) LastProblem() *database.Problem { return w.last }
func (w *Workflow) Notification() string           { return w.notification }

func (w *Workflow) DismissNotification() {
	w.notification = ""
}

func (w *Workflow) SetQuestion(question string) {
	w.question = question
}

// SelectImageFile reads an image from disk and opens the crop step
func (w *Workflow) SelectImageFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read image %s: %w", path, err)
	}
	return w.SelectImage(filepath.Base(path), data)
}

// SelectImage attaches an image and opens the crop step. An empty question is
// pre-filled with a generic hint.
func (w *Workflow) SelectImage(filename string, data []byte) error {
	if w.state == Submitting {
		return fmt.Errorf("%w: cannot select an image while submitting", ErrInvalidTransition)
	}
	if len(data) == 0 {
		return errors.New("image is empty")
	}

	w.image = &Upload{Filename: filename, Data: data}
	w.cropped = nil
	w.state = ImageSelected
	if strings.TrimSpace(w.question) == "" {
		w.question = core.DefaultQuestionHint
	}
	w.state = Cropping
	return nil
}

// CancelCrop closes the crop step; the full image is sent on submit
func (w *Workflow) CancelCrop() error {
	if w.state != Cropping {
		return fmt.Errorf("%w: no crop in progress", ErrInvalidTransition)
	}
	w.cropped = nil
	w.state = ImageSelected
	return nil
}

// ConfirmCrop rasterises the selected region at the image's native resolution as JPEG
// and submits it.
func (w *Workflow) ConfirmCrop(ctx context.Context, region Region, display Size) (*database.Problem, error) {
	if w.state != Cropping {
		return nil, fmt.Errorf("%w: no crop in progress", ErrInvalidTransition)
	}

	data, err := cropToJPEG(w.image.Data, commands.CropParams{
		X:             region.X,
		Y:             region.Y,
		Width:         region.Width,
		Height:        region.Height,
		DisplayWidth:  display.Width,
		DisplayHeight: display.Height,
	})
	if err != nil {
		w.fail(fmt.Sprintf("Crop failed: %v", err))
		return nil, err
	}

	w.cropped = &Upload{Filename: croppedName(w.image.Filename), Data: data}
	return w.Submit(ctx)
}

// Submit sends the question and the cropped or full image, if any. On success the form
// is cleared. When the request fails or the solver reports an error the form is kept so
// the user can retry; the failed record is still returned in the latter case.
func (w *Workflow) Submit(ctx context.Context) (*database.Problem, error) {
	if w.state == Submitting {
		return nil, fmt.Errorf("%w: already submitting", ErrInvalidTransition)
	}
	question := strings.TrimSpace(w.question)
	if question == "" {
		w.fail("Please enter a question.")
		return nil, fmt.Errorf("%w: question is required", core.ErrValidation)
	}

	upload := w.cropped
	if upload == nil {
		upload = w.image
	}

	w.state = Submitting
	slog.Debug("Workflow: submitting", "has_image", upload != nil, "cropped", w.cropped != nil)

	problem, err := w.client.SubmitProblem(ctx, question, upload)
	if err != nil {
		slog.Warn("Workflow: submission failed", "error", err)
		// form and crop are kept so a retry sends the same request
		w.fail(notificationFor(err))
		return nil, err
	}

	w.last = problem
	if problem.Solution != nil && problem.Solution.Error != "" {
		slog.Warn("Workflow: solver failed", "id", problem.ID, "error", problem.Solution.Error)
		w.fail("The solver failed: " + problem.Solution.Error)
		return problem, nil
	}

	w.question = ""
	w.image = nil
	w.cropped = nil
	w.notification = ""
	w.state = Solved
	return problem, nil
}

func (w *Workflow) fail(message string) {
	w.notification = message
	w.state = Errored
}

func cropToJPEG(data []byte, params commands.CropParams) ([]byte, error) {
	png, err := commands.NewPngConverterCommand(nil)
	if err != nil {
		return nil, err
	}
	crop, err := commands.NewCropCommandWithParams(params)
	if err != nil {
		return nil, err
	}
	jpeg, err := commands.NewJpegConverterCommandWithQuality(90)
	if err != nil {
		return nil, err
	}
	return commandstructure.NewCommandInvoker([]commandstructure.Command{png, crop, jpeg}).Execute(data)
}

func croppedName(filename string) string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	if base == "" {
		base = "image"
	}
	return base + "-cropped.jpg"
}

func notificationFor(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return "Could not reach the server."
}
