package database

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

type SQLiteDatabase struct {
	db               *sql.DB
	connectionString string
}

func NewSQLiteDatabase(connectionString string) (DatabaseService, error) {
	db, err := sql.Open("sqlite", connectionString)
	if err != nil {
		return nil, err
	}
	// Each connection to ":memory:" would otherwise see its own empty database
	db.SetMaxOpenConns(1)

	return &SQLiteDatabase{
		db:               db,
		connectionString: connectionString,
	}, nil
}

func (s *SQLiteDatabase) CreateDatabase() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS problems (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		question TEXT NOT NULL,
		image_url TEXT,
		state TEXT NOT NULL DEFAULT 'pending',
		solution_text TEXT,
		solution_error TEXT
	)`)
	return err
}

func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteDatabase) CreateProblem(question string, imageURL *string) (*Problem, error) {
	if err := validateQuestion(question); err != nil {
		return nil, err
	}

	res, err := s.db.Exec("INSERT INTO problems (question, image_url, state) VALUES (?, ?, ?)",
		question, nullString(imageURL), string(StatePending))
	if err != nil {
		return nil, fmt.Errorf("failed to insert problem: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read problem id: %w", err)
	}

	return &Problem{ID: id, Question: question, ImageURL: imageURL, State: StatePending}, nil
}

func (s *SQLiteDatabase) GetProblem(id int64) (*Problem, error) {
	row := s.db.QueryRow(`SELECT id, question, image_url, state, solution_text, solution_error
		FROM problems WHERE id = ?`, id)
	p, err := scanProblem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProblemNotFound
	}
	return p, err
}

func (s *SQLiteDatabase) ResolveProblem(id int64, solution Solution) (*Problem, error) {
	res, err := s.db.Exec(`UPDATE problems SET state = ?, solution_text = ?, solution_error = ?
		WHERE id = ? AND state = 'pending'`,
		string(stateFor(solution)), solution.Text, solution.Error, id)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve problem: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// Either unknown or already resolved
		if _, err := s.GetProblem(id); err != nil {
			return nil, err
		}
		return nil, ErrAlreadyResolved
	}
	return s.GetProblem(id)
}

func (s *SQLiteDatabase) ListProblems(limit int) ([]*Problem, error) {
	query := `SELECT id, question, image_url, state, solution_text, solution_error
		FROM problems ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	problems := []*Problem{}
	for rows.Next() {
		p, err := scanProblem(rows)
		if err != nil {
			return nil, err
		}
		problems = append(problems, p)
	}
	return problems, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProblem(row rowScanner) (*Problem, error) {
	var (
		p             Problem
		imageURL      sql.NullString
		state         string
		solutionText  sql.NullString
		solutionError sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Question, &imageURL, &state, &solutionText, &solutionError); err != nil {
		return nil, err
	}
	if imageURL.Valid {
		p.ImageURL = &imageURL.String
	}
	p.State = SolutionState(state)
	if p.State != StatePending {
		p.Solution = &Solution{Text: solutionText.String, Error: solutionError.String}
	}
	return &p, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
