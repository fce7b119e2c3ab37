package database

import "errors"

var (
	ErrProblemNotFound = errors.New("problem not found")
	ErrAlreadyResolved = errors.New("problem already resolved")
	ErrEmptyQuestion   = errors.New("question must not be empty")
)

type DatabaseService interface {
	CreateDatabase() error
	Close() error

	// CreateProblem stores a pending problem under the next sequential id, starting at 1.
	CreateProblem(question string, imageURL *string) (*Problem, error)
	GetProblem(id int64) (*Problem, error)
	// ResolveProblem moves a pending problem to solved or failed. It succeeds at most once per id.
	ResolveProblem(id int64, solution Solution) (*Problem, error)
	// ListProblems returns up to limit problems, newest first. limit <= 0 means all.
	ListProblems(limit int) ([]*Problem, error)
}
