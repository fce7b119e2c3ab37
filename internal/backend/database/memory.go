package database

import (
	"sort"
	"sync"
)

// MemoryDatabase keeps problems in a map. Records are lost on restart.
type MemoryDatabase struct {
	mu       sync.RWMutex
	problems map[int64]*Problem
	nextID   int64
}

func NewMemoryDatabase() *MemoryDatabase {
	return &MemoryDatabase{problems: make(map[int64]*Problem)}
}

func (m *MemoryDatabase) CreateDatabase() error {
	return nil
}

func (m *MemoryDatabase) Close() error {
	return nil
}

func (m *MemoryDatabase) CreateProblem(question string, imageURL *string) (*Problem, error) {
	if err := validateQuestion(question); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	p := &Problem{
		ID:       m.nextID,
		Question: question,
		ImageURL: imageURL,
		State:    StatePending,
	}
	m.problems[p.ID] = p.clone()
	return p.clone(), nil
}

func (m *MemoryDatabase) GetProblem(id int64) (*Problem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.problems[id]
	if !ok {
		return nil, ErrProblemNotFound
	}
	return p.clone(), nil
}

func (m *MemoryDatabase) ResolveProblem(id int64, solution Solution) (*Problem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.problems[id]
	if !ok {
		return nil, ErrProblemNotFound
	}
	if p.State != StatePending {
		return nil, ErrAlreadyResolved
	}
	p.State = stateFor(solution)
	p.Solution = &solution
	return p.clone(), nil
}

func (m *MemoryDatabase) ListProblems(limit int) ([]*Problem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	problems := make([]*Problem, 0, len(m.problems))
	for _, p := range m.problems {
		problems = append(problems, p.clone())
	}
	sort.Slice(problems, func(i, j int) bool { return problems[i].ID > problems[j].ID })

	if limit > 0 && len(problems) > limit {
		problems = problems[:limit]
	}
	return problems, nil
}
