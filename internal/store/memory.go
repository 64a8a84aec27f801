package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"intervia-backend/internal/models"
)

// MemoryStore is an in-memory Store used in tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]models.User
	sessions map[uuid.UUID][]models.CompletedSession
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[uuid.UUID]models.User),
		sessions: make(map[uuid.UUID][]models.CompletedSession),
	}
}

func (m *MemoryStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (m *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Plan == "" {
		user.Plan = models.PlanBasic
	}
	user.IsActive = true
	m.users[user.ID] = *user
	return nil
}

func (m *MemoryStore) SaveUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.ID]; !ok {
		return ErrNotFound
	}
	m.users[user.ID] = *user
	return nil
}

func (m *MemoryStore) ListActiveUsers(ctx context.Context) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]models.User, 0, len(m.users))
	for _, user := range m.users {
		if user.IsActive {
			users = append(users, user)
		}
	}
	return users, nil
}

func (m *MemoryStore) GetSessionsForUser(ctx context.Context, userID uuid.UUID) ([]models.CompletedSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.CompletedSession, len(m.sessions[userID]))
	copy(out, m.sessions[userID])
	return out, nil
}

func (m *MemoryStore) SaveCompletedSession(ctx context.Context, cs *models.CompletedSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[cs.UserID] = append(m.sessions[cs.UserID], *cs)
	return nil
}

// MemoryCatalog is a static in-memory QuestionCatalog.
type MemoryCatalog struct {
	questions []models.Question
}

func NewMemoryCatalog(questions []models.Question) *MemoryCatalog {
	return &MemoryCatalog{questions: questions}
}

func (c *MemoryCatalog) GetByPlan(ctx context.Context, plan string) ([]models.Question, error) {
	visible := make([]models.Question, 0, len(c.questions))
	for _, q := range c.questions {
		if models.PlanAllows(plan, q.PlanRequired) {
			visible = append(visible, q)
		}
	}
	return visible, nil
}
