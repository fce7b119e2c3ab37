package database

import (
	"encoding/json"
	"strings"
)

// SolutionState tracks whether a problem has been answered
type SolutionState string

const (
	StatePending SolutionState = "pending"
	StateSolved  SolutionState = "solved"
	StateFailed  SolutionState = "failed"
)

// Solution is the provider's answer. Error is set when the provider failed,
// in which case Text holds a placeholder.
type Solution struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// Problem is a stored submission
type Problem struct {
	ID       int64         `json:"id"`
	Question string        `json:"question"`
	ImageURL *string       `json:"imageUrl"`
	State    SolutionState `json:"-"`
	Solution *Solution     `json:"solution"`
}

// MarshalJSON keeps the solution null until the problem is resolved
func (p Problem) MarshalJSON() ([]byte, error) {
	type wire Problem
	w := wire(p)
	if p.State == StatePending {
		w.Solution = nil
	}
	return json.Marshal(w)
}

func (p *Problem) clone() *Problem {
	c := *p
	if p.ImageURL != nil {
		url := *p.ImageURL
		c.ImageURL = &url
	}
	if p.Solution != nil {
		s := *p.Solution
		c.Solution = &s
	}
	return &c
}

func stateFor(solution Solution) SolutionState {
	if solution.Error != "" {
		return StateFailed
	}
	return StateSolved
}

func validateQuestion(question string) error {
	if strings.TrimSpace(question) == "" {
		return ErrEmptyQuestion
	}
	return nil
}
