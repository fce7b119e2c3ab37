package frontend

import (
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jo-hoe/gosolve/internal/backend"
	"github.com/jo-hoe/gosolve/internal/backend/database"
	"github.com/jo-hoe/gosolve/internal/core"
	"github.com/jo-hoe/gosolve/internal/mathtext"
	"github.com/labstack/echo/v4"
)

const (
	MainPageName = "index.html"

	// htmx event fired on success; the page resets the form and reloads the history
	solvedEvent = "problemSolved"
	// fired when the solver fails; only the history reloads
	failedEvent = "problemFailed"
)

type FrontendService struct {
	coreService *core.CoreService
	config      *core.ServiceConfig
}

type indexData struct {
	DefaultQuestion string
	MaxUploadMiB    int64
}

func NewFrontendService(config *core.ServiceConfig, coreService *core.CoreService) *FrontendService {
	return &FrontendService{
		coreService: coreService,
		config:      config,
	}
}

// rootRedirectHandler redirects root path to index.html
func (service *FrontendService) rootRedirectHandler(ctx echo.Context) error {
	return ctx.Redirect(http.StatusMovedPermanently, "/"+MainPageName)
}

func (service *FrontendService) SetRoutes(e *echo.Echo) {
	e.Renderer = newTemplate()

	e.GET("/", service.rootRedirectHandler)
	e.GET("/"+MainPageName, service.indexHandler)
	e.POST("/htmx/problems", service.htmxSubmitProblemHandler)
	e.GET("/htmx/problems", service.htmxListProblemsHandler)

	e.GET("/icon.svg", service.iconHandler)
}

func (service *FrontendService) indexHandler(ctx echo.Context) error {
	return ctx.Render(http.StatusOK, MainPageName, indexData{
		DefaultQuestion: core.DefaultQuestionHint,
		MaxUploadMiB:    max(1, service.config.MaxUploadBytes>>20),
	})
}

func (service *FrontendService) htmxSubmitProblemHandler(ctx echo.Context) error {
	submission, err := backend.ParseSubmission(ctx, service.config.MaxUploadBytes)
	if err != nil {
		slog.Warn("htmxSubmitProblemHandler: invalid request", "error", err)
		return service.notify(ctx, userMessage(err))
	}

	problem, err := service.coreService.SubmitProblem(ctx.Request().Context(), *submission)
	if err != nil {
		slog.Warn("htmxSubmitProblemHandler: submission rejected", "error", err)
		return service.notify(ctx, userMessage(err))
	}

	var b strings.Builder
	if problem.Solution != nil && problem.Solution.Error != "" {
		// the form keeps its question and image for a retry
		ctx.Response().Header().Set("HX-Trigger", failedEvent)
		b.WriteString(`<div id="notifications" hx-swap-oob="afterbegin">`)
		b.WriteString(notificationHTML("The solver failed: " + problem.Solution.Error))
		b.WriteString(`</div>`)
	} else {
		ctx.Response().Header().Set("HX-Trigger", solvedEvent)
	}
	b.WriteString(solutionHTML(problem))

	service.setNoCache(ctx)
	return ctx.HTML(http.StatusOK, b.String())
}

func (service *FrontendService) htmxListProblemsHandler(ctx echo.Context) error {
	problems, err := service.coreService.ListProblems()
	if err != nil {
		slog.Error("htmxListProblemsHandler: failed to list problems",
			"status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to list problems")
	}

	service.setNoCache(ctx)
	return ctx.HTML(http.StatusOK, historyHTML(problems))
}

func (service *FrontendService) iconHandler(ctx echo.Context) error {
	data, err := assetsFS.ReadFile("views/icon.svg")
	if err != nil {
		slog.Error("iconHandler: failed to read icon.svg", "status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to load icon")
	}
	// Cache for 7 days
	ctx.Response().Header().Set("Cache-Control", "public, max-age=604800, immutable")
	return ctx.Blob(http.StatusOK, "image/svg+xml", data)
}

// notify swaps a dismissible notification into the page and leaves the form untouched
func (service *FrontendService) notify(ctx echo.Context, message string) error {
	ctx.Response().Header().Set("HX-Retarget", "#notifications")
	ctx.Response().Header().Set("HX-Reswap", "afterbegin")
	return ctx.HTML(http.StatusOK, notificationHTML(message))
}

func (service *FrontendService) setNoCache(ctx echo.Context) {
	ctx.Response().Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	ctx.Response().Header().Set("Pragma", "no-cache")
	ctx.Response().Header().Set("Expires", "0")
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, backend.ErrImageTooLarge):
		return "The image is too large."
	case errors.Is(err, core.ErrPreprocessing):
		return "The image could not be processed. Please try a different file."
	case errors.Is(err, core.ErrValidation):
		return "Please enter a question."
	default:
		return "Something went wrong. Please try again."
	}
}

func notificationHTML(message string) string {
	return fmt.Sprintf(`<article class="notification" role="alert"><button type="button" class="secondary outline" aria-label="Dismiss">&times;</button>%s</article>`,
		html.EscapeString(message))
}

func solutionHTML(problem *database.Problem) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<article class="solution" data-id="%d"><header><strong>Problem #%d</strong><p>%s</p>`,
		problem.ID, problem.ID, mathtext.RenderHTML(mathtext.Tokenize(problem.Question)))
	if problem.ImageURL != nil {
		fmt.Fprintf(&b, `<img src="%s" alt="Submitted image" style="max-width:100%%;height:auto">`, html.EscapeString(*problem.ImageURL))
	}
	b.WriteString(`</header>`)
	if problem.Solution != nil {
		b.WriteString(`<div class="solution-text">`)
		b.WriteString(mathtext.RenderHTML(mathtext.Tokenize(problem.Solution.Text)))
		b.WriteString(`</div>`)
	} else {
		b.WriteString(`<p><em>Pending</em></p>`)
	}
	b.WriteString(`</article>`)
	return b.String()
}

func historyHTML(problems []*database.Problem) string {
	if len(problems) == 0 {
		return `<p>No problems solved yet.</p>`
	}
	var b strings.Builder
	b.WriteString(`<div class="vertical-list">`)
	for _, p := range problems {
		b.WriteString(`<details><summary>`)
		fmt.Fprintf(&b, "#%d %s", p.ID, html.EscapeString(truncate(p.Question, 80)))
		b.WriteString(`</summary>`)
		b.WriteString(solutionHTML(p))
		b.WriteString(`</details>`)
	}
	b.WriteString(`</div>`)
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
