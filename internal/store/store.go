package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"intervia-backend/internal/models"
)

// ErrNotFound is returned when a record does not exist, regardless of
// backing store.
var ErrNotFound = errors.New("record not found")

// Store is the persistence collaborator for user and session records.
// The core treats it as a get/save contract; any backing store
// (Postgres, in-memory map) can satisfy it.
type Store interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	SaveUser(ctx context.Context, user *models.User) error
	ListActiveUsers(ctx context.Context) ([]models.User, error)
	GetSessionsForUser(ctx context.Context, userID uuid.UUID) ([]models.CompletedSession, error)
	SaveCompletedSession(ctx context.Context, s *models.CompletedSession) error
}

// QuestionCatalog is the read-only question lookup, filterable by plan tier.
type QuestionCatalog interface {
	GetByPlan(ctx context.Context, plan string) ([]models.Question, error)
}
