package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"intervia-backend/internal/models"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const userColumns = `id, email, password_hash, full_name, is_active, plan, streak,
	streak_freeze_used_at, last_session_date, trial_ends_at, created_at, last_login_at`

func (s *PostgresStore) scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.FullName, &user.IsActive,
		&user.Plan, &user.Streak, &user.StreakFreezeUsedAt, &user.LastSessionDate,
		&user.TrialEndsAt, &user.CreatedAt, &user.LastLoginAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, full_name, is_active, plan)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	user.ID = uuid.New()
	if user.Plan == "" {
		user.Plan = models.PlanBasic
	}
	user.IsActive = true

	return s.pool.QueryRow(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.FullName, user.IsActive, user.Plan,
	).Scan(&user.CreatedAt)
}

func (s *PostgresStore) SaveUser(ctx context.Context, user *models.User) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE users
		SET email = $1, full_name = $2, is_active = $3, plan = $4, streak = $5,
			streak_freeze_used_at = $6, last_session_date = $7, trial_ends_at = $8,
			last_login_at = $9
		WHERE id = $10`,
		user.Email, user.FullName, user.IsActive, user.Plan, user.Streak,
		user.StreakFreezeUsedAt, user.LastSessionDate, user.TrialEndsAt,
		user.LastLoginAt, user.ID,
	)
	return err
}

func (s *PostgresStore) ListActiveUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE is_active = TRUE`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		var user models.User
		if scanErr := rows.Scan(
			&user.ID, &user.Email, &user.PasswordHash, &user.FullName, &user.IsActive,
			&user.Plan, &user.Streak, &user.StreakFreezeUsedAt, &user.LastSessionDate,
			&user.TrialEndsAt, &user.CreatedAt, &user.LastLoginAt,
		); scanErr != nil {
			return nil, scanErr
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

func (s *PostgresStore) GetSessionsForUser(ctx context.Context, userID uuid.UUID) ([]models.CompletedSession, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, question_id, question_title, category, difficulty,
			start_time, end_time, duration_seconds, rating, perceived_difficulty,
			notes, pressure_mode_used, auto_submitted
		FROM completed_sessions
		WHERE user_id = $1
		ORDER BY start_time ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.CompletedSession, 0)
	for rows.Next() {
		var cs models.CompletedSession
		if scanErr := rows.Scan(
			&cs.ID, &cs.UserID, &cs.QuestionID, &cs.QuestionTitle, &cs.Category,
			&cs.Difficulty, &cs.StartTime, &cs.EndTime, &cs.DurationSeconds,
			&cs.Rating, &cs.PerceivedDifficulty, &cs.Notes, &cs.PressureModeUsed,
			&cs.AutoSubmitted,
		); scanErr != nil {
			return nil, scanErr
		}
		sessions = append(sessions, cs)
	}

	return sessions, rows.Err()
}

func (s *PostgresStore) SaveCompletedSession(ctx context.Context, cs *models.CompletedSession) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO completed_sessions (id, user_id, question_id, question_title,
			category, difficulty, start_time, end_time, duration_seconds, rating,
			perceived_difficulty, notes, pressure_mode_used, auto_submitted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		cs.ID, cs.UserID, cs.QuestionID, cs.QuestionTitle, cs.Category,
		cs.Difficulty, cs.StartTime, cs.EndTime, cs.DurationSeconds, cs.Rating,
		cs.PerceivedDifficulty, cs.Notes, cs.PressureModeUsed, cs.AutoSubmitted,
	)
	return err
}

type PostgresCatalog struct {
	pool *pgxpool.Pool
}

func NewPostgresCatalog(pool *pgxpool.Pool) *PostgresCatalog {
	return &PostgresCatalog{pool: pool}
}

func (c *PostgresCatalog) GetByPlan(ctx context.Context, plan string) ([]models.Question, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT id, title, category, difficulty, plan_required
		FROM questions
		ORDER BY category, title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := make([]models.Question, 0)
	for rows.Next() {
		var q models.Question
		if scanErr := rows.Scan(&q.ID, &q.Title, &q.Category, &q.Difficulty, &q.PlanRequired); scanErr != nil {
			return nil, scanErr
		}
		if models.PlanAllows(plan, q.PlanRequired) {
			questions = append(questions, q)
		}
	}

	return questions, rows.Err()
}
