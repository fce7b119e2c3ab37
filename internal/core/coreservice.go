package core

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jo-hoe/gosolve/internal/backend/commands"
	"github.com/jo-hoe/gosolve/internal/backend/commandstructure"
	"github.com/jo-hoe/gosolve/internal/backend/database"
	"github.com/jo-hoe/gosolve/internal/backend/solver"
)

// FailedSolutionText replaces the solution text when the provider fails
const FailedSolutionText = "Unable to process request"

// DefaultQuestionHint is suggested when an image is selected without a question
const DefaultQuestionHint = "Please solve this math problem"

// DefaultCommands is the pipeline used when the configuration names none
var DefaultCommands = []commandstructure.CommandConfig{
	{Name: "PngConverterCommand"},
	{Name: "FitCommand", Params: map[string]any{"width": 800, "height": 800}},
	{Name: "JpegConverterCommand", Params: map[string]any{"quality": 90}},
}

// Submission is one user request. Crop, when set, is applied to Image before fitting.
type Submission struct {
	Question string
	Image    []byte
	Crop     *commands.CropParams
}

type CoreService struct {
	config          *ServiceConfig
	databaseService database.DatabaseService
	provider        solver.SolutionProvider
	commandConfigs  []commandstructure.CommandConfig
}

func NewCoreService(config *ServiceConfig, provider solver.SolutionProvider) (*CoreService, error) {
	databaseService, err := getDatabaseService(config)
	if err != nil {
		return nil, err
	}
	return newCoreService(config, databaseService, provider)
}

func newCoreService(config *ServiceConfig, databaseService database.DatabaseService, provider solver.SolutionProvider) (*CoreService, error) {
	commandConfigs := config.CommandConfigs()
	if len(commandConfigs) == 0 {
		commandConfigs = DefaultCommands
	}
	// Fail at startup rather than on the first upload
	if _, err := commandstructure.NewCommandInvokerFromConfig(commandstructure.DefaultRegistry, commandConfigs); err != nil {
		_ = databaseService.Close()
		return nil, fmt.Errorf("invalid command pipeline: %w", err)
	}

	return &CoreService{
		config:          config,
		databaseService: databaseService,
		provider:        provider,
		commandConfigs:  commandConfigs,
	}, nil
}

// SubmitProblem validates and preprocesses the submission, stores it, asks the provider
// for a solution and records the outcome. A provider failure is stored on the problem
// and is not returned as an error.
func (service *CoreService) SubmitProblem(ctx context.Context, submission Submission) (*database.Problem, error) {
	question := strings.TrimSpace(submission.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", ErrValidation)
	}

	var (
		jpegData []byte
		imageURL *string
	)
	if len(submission.Image) > 0 {
		var err error
		jpegData, err = service.preprocess(submission.Image, submission.Crop)
		if err != nil {
			slog.Warn("CoreService: image preprocessing failed", "error", err)
			return nil, fmt.Errorf("%w: %w", ErrPreprocessing, err)
		}
		url := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpegData)
		imageURL = &url
	}

	problem, err := service.databaseService.CreateProblem(question, imageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to store problem: %w", err)
	}
	slog.Info("CoreService: problem created", "id", problem.ID, "has_image", imageURL != nil)

	solution := database.Solution{}
	text, err := service.provider.Solve(ctx, solver.BuildPrompt(question, jpegData))
	if err != nil {
		slog.Error("CoreService: provider failed",
			"id", problem.ID,
			"provider", service.provider.Name(),
			"error", err)
		solution.Text = FailedSolutionText
		solution.Error = err.Error()
	} else {
		solution.Text = text
	}

	resolved, err := service.databaseService.ResolveProblem(problem.ID, solution)
	if err != nil {
		return nil, fmt.Errorf("failed to store solution for problem %d: %w", problem.ID, err)
	}
	return resolved, nil
}

func (service *CoreService) GetProblem(id int64) (*database.Problem, error) {
	return service.databaseService.GetProblem(id)
}

// ListProblems returns the configured number of most recent problems
func (service *CoreService) ListProblems() ([]*database.Problem, error) {
	return service.databaseService.ListProblems(service.config.HistoryLimit)
}

func (service *CoreService) Close() error {
	return service.databaseService.Close()
}

func (service *CoreService) preprocess(imageData []byte, crop *commands.CropParams) ([]byte, error) {
	invoker, err := service.buildInvoker(crop)
	if err != nil {
		return nil, err
	}
	out, err := invoker.Execute(imageData)
	if err != nil {
		return nil, err
	}
	if !commands.HasJpegSignature(out) {
		return nil, fmt.Errorf("pipeline did not produce a JPEG")
	}
	return out, nil
}

// buildInvoker creates a fresh pipeline, inserting the crop right after PNG conversion
func (service *CoreService) buildInvoker(crop *commands.CropParams) (*commandstructure.CommandInvoker, error) {
	invoker, err := commandstructure.NewCommandInvokerFromConfig(commandstructure.DefaultRegistry, service.commandConfigs)
	if err != nil {
		return nil, err
	}
	if crop == nil {
		return invoker, nil
	}

	cropCommand, err := commands.NewCropCommandWithParams(*crop)
	if err != nil {
		return nil, fmt.Errorf("invalid crop region: %w", err)
	}

	pipeline := invoker.Commands()
	at := 0
	for i, cmd := range pipeline {
		if cmd.Name() == "PngConverterCommand" {
			at = i + 1
			break
		}
	}
	pipeline = append(pipeline[:at], append([]commandstructure.Command{cropCommand}, pipeline[at:]...)...)
	return commandstructure.NewCommandInvoker(pipeline), nil
}

func getDatabaseService(config *ServiceConfig) (database.DatabaseService, error) {
	databaseService, err := database.NewDatabase(config.Database.Type, config.Database.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("CoreService: database initialized", "type", config.Database.Type)
	return databaseService, nil
}
