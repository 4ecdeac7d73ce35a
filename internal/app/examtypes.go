package app

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/redis/go-redis/v9"
)

const examTypesKeyTpl = "examtypes:%s" // examtypes:${owner}

// ExamTypeRegistry is the single process-wide home for exam type names,
// replacing the ad-hoc per-dialog storage of earlier clients. Defaults come
// from config; per-owner additions live in a Redis set, or in memory when
// Redis is not configured.
type ExamTypeRegistry struct {
	defaults []string
	redis    *redis.Client

	mu    sync.Mutex
	local map[string]map[string]bool
}

func NewExamTypeRegistry(config *Config) (*ExamTypeRegistry, error) {
	defaults := config.Exams.DefaultTypes
	if len(defaults) == 0 {
		defaults = []string{"Quiz", "Assignment", "Midterm", "Final"}
	}

	r := &ExamTypeRegistry{
		defaults: defaults,
		local:    make(map[string]map[string]bool),
	}

	if config.Cache.RedisURL == "" {
		return r, nil
	}

	opt, err := redis.ParseURL(config.Cache.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	r.redis = redis.NewClient(opt)

	return r, nil
}

func (r *ExamTypeRegistry) Close() error {
	if r.redis != nil {
		return r.redis.Close()
	}
	return nil
}

// List returns the defaults plus the owner's custom types, sorted.
func (r *ExamTypeRegistry) List(ctx context.Context, owner string) ([]string, error) {
	custom, err := r.customTypes(ctx, owner)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	types := []string{}
	for _, t := range append(append([]string{}, r.defaults...), custom...) {
		if !seen[t] {
			seen[t] = true
			types = append(types, t)
		}
	}
	sort.Strings(types)
	return types, nil
}

func (r *ExamTypeRegistry) Add(ctx context.Context, owner, examType string) error {
	if examType == "" {
		return fmt.Errorf("exam type must not be empty")
	}

	if r.redis == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.local[owner] == nil {
			r.local[owner] = make(map[string]bool)
		}
		r.local[owner][examType] = true
		return nil
	}

	key := fmt.Sprintf(examTypesKeyTpl, owner)
	if err := r.redis.SAdd(ctx, key, examType).Err(); err != nil {
		return fmt.Errorf("failed to add exam type: %w", err)
	}
	return nil
}

// Remove deletes a custom exam type. Defaults cannot be removed.
func (r *ExamTypeRegistry) Remove(ctx context.Context, owner, examType string) error {
	for _, d := range r.defaults {
		if d == examType {
			return fmt.Errorf("cannot remove default exam type %q", examType)
		}
	}

	if r.redis == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.local[owner], examType)
		return nil
	}

	key := fmt.Sprintf(examTypesKeyTpl, owner)
	if err := r.redis.SRem(ctx, key, examType).Err(); err != nil {
		return fmt.Errorf("failed to remove exam type: %w", err)
	}
	return nil
}

func (r *ExamTypeRegistry) customTypes(ctx context.Context, owner string) ([]string, error) {
	if r.redis == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		types := []string{}
		for t := range r.local[owner] {
			types = append(types, t)
		}
		return types, nil
	}

	key := fmt.Sprintf(examTypesKeyTpl, owner)
	types, err := r.redis.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list exam types: %w", err)
	}
	return types, nil
}
