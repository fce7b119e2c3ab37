package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "gosolve:problem"
	redisSeqKey    = "gosolve:problem:seq"
	redisTimeout   = 5 * time.Second
)

// Returns 1 on success, 0 when missing, -1 when no longer pending
var resolveScript = redis.NewScript(`
local state = redis.call("HGET", KEYS[1], "state")
if not state then
  return 0
end
if state ~= "pending" then
  return -1
end
redis.call("HSET", KEYS[1], "state", ARGV[1], "solution_text", ARGV[2], "solution_error", ARGV[3])
return 1
`)

// RedisDatabase stores one hash per problem and allocates ids with INCR
type RedisDatabase struct {
	client *redis.Client
}

// NewRedisDatabase accepts either a redis:// URL or a bare host:port
func NewRedisDatabase(connectionString string) (DatabaseService, error) {
	connectionString = strings.TrimSpace(connectionString)
	if connectionString == "" {
		return nil, errors.New("redis connection string is required")
	}

	var opts *redis.Options
	if strings.Contains(connectionString, "://") {
		parsed, err := redis.ParseURL(connectionString)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: connectionString}
	}
	return &RedisDatabase{client: redis.NewClient(opts)}, nil
}

func (r *RedisDatabase) CreateDatabase() error {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	return r.client.Ping(ctx).Err()
}

func (r *RedisDatabase) Close() error {
	return r.client.Close()
}

func (r *RedisDatabase) CreateProblem(question string, imageURL *string) (*Problem, error) {
	if err := validateQuestion(question); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	id, err := r.client.Incr(ctx, redisSeqKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to allocate problem id: %w", err)
	}

	fields := map[string]any{
		"question": question,
		"state":    string(StatePending),
	}
	if imageURL != nil {
		fields["image_url"] = *imageURL
	}
	if err := r.client.HSet(ctx, problemKey(id), fields).Err(); err != nil {
		return nil, fmt.Errorf("failed to store problem: %w", err)
	}

	return &Problem{ID: id, Question: question, ImageURL: imageURL, State: StatePending}, nil
}

func (r *RedisDatabase) GetProblem(id int64) (*Problem, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	return r.getProblem(ctx, id)
}

func (r *RedisDatabase) getProblem(ctx context.Context, id int64) (*Problem, error) {
	values, err := r.client.HGetAll(ctx, problemKey(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, ErrProblemNotFound
	}

	p := &Problem{
		ID:       id,
		Question: values["question"],
		State:    SolutionState(values["state"]),
	}
	if url, ok := values["image_url"]; ok {
		p.ImageURL = &url
	}
	if p.State != StatePending {
		p.Solution = &Solution{Text: values["solution_text"], Error: values["solution_error"]}
	}
	return p, nil
}

func (r *RedisDatabase) ResolveProblem(id int64, solution Solution) (*Problem, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	res, err := resolveScript.Run(ctx, r.client, []string{problemKey(id)},
		string(stateFor(solution)), solution.Text, solution.Error).Int64()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve problem: %w", err)
	}
	switch res {
	case 0:
		return nil, ErrProblemNotFound
	case -1:
		return nil, ErrAlreadyResolved
	}
	return r.getProblem(ctx, id)
}

func (r *RedisDatabase) ListProblems(limit int) ([]*Problem, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	last, err := r.client.Get(ctx, redisSeqKey).Int64()
	if errors.Is(err, redis.Nil) {
		return []*Problem{}, nil
	}
	if err != nil {
		return nil, err
	}

	problems := []*Problem{}
	for id := last; id >= 1; id-- {
		if limit > 0 && len(problems) >= limit {
			break
		}
		p, err := r.getProblem(ctx, id)
		if errors.Is(err, ErrProblemNotFound) {
			// id allocated but the hash write failed
			continue
		}
		if err != nil {
			return nil, err
		}
		problems = append(problems, p)
	}
	return problems, nil
}

func problemKey(id int64) string {
	return redisKeyPrefix + ":" + strconv.FormatInt(id, 10)
}
