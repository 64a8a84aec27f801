package services

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"intervia-backend/internal/models"
	"intervia-backend/internal/store"
	"intervia-backend/internal/timeutil"
)

// QuestionSelector picks the question for a new session: uniform random
// over the plan-visible catalog, excluding questions already practiced
// today. If the whole visible pool was practiced today it falls back to
// the full pool — repetition is preferred over refusing to start.
type QuestionSelector struct {
	catalog store.QuestionCatalog

	mu  sync.Mutex
	rng *rand.Rand
}

func NewQuestionSelector(catalog store.QuestionCatalog, rng *rand.Rand) *QuestionSelector {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &QuestionSelector{catalog: catalog, rng: rng}
}

// Pick selects a question for the user's plan, avoiding same-day repeats
// when possible. history is the user's completed-session history.
func (s *QuestionSelector) Pick(ctx context.Context, plan string, history []models.CompletedSession, now time.Time) (models.Question, error) {
	candidates, err := s.catalog.GetByPlan(ctx, plan)
	if err != nil {
		return models.Question{}, err
	}
	if len(candidates) == 0 {
		return models.Question{}, &NotFoundError{Message: "No questions available for this plan"}
	}

	practicedToday := make(map[string]bool)
	for _, cs := range history {
		if timeutil.SameDay(cs.StartTime, now) {
			practicedToday[cs.QuestionID.String()] = true
		}
	}

	fresh := make([]models.Question, 0, len(candidates))
	for _, q := range candidates {
		if !practicedToday[q.ID.String()] {
			fresh = append(fresh, q)
		}
	}

	// Everything visible was already practiced today: allow repetition
	// rather than fail.
	pool := fresh
	if len(pool) == 0 {
		pool = candidates
	}

	s.mu.Lock()
	idx := s.rng.Intn(len(pool))
	s.mu.Unlock()

	return pool[idx], nil
}
