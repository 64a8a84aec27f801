package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"intervia-backend/internal/models"
	"intervia-backend/internal/store"
)

func sessionAt(userID uuid.UUID, start time.Time) models.CompletedSession {
	return models.CompletedSession{
		ID:                  uuid.New(),
		UserID:              userID,
		QuestionID:          uuid.New(),
		Category:            "algorithms",
		StartTime:           start,
		EndTime:             start.Add(30 * time.Minute),
		DurationSeconds:     1800,
		Rating:              3,
		PerceivedDifficulty: "medium",
	}
}

func TestQuotaAllows(t *testing.T) {
	// 2025-03-12 is a Wednesday; the week window is Sun Mar 9 to Sun Mar 16.
	now := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		plan       string
		startTimes []time.Time
		wantQuota  bool
	}{
		{
			name: "basic under cap",
			plan: models.PlanBasic,
			startTimes: []time.Time{
				time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
				time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC),
			},
			wantQuota: false,
		},
		{
			name: "basic at cap",
			plan: models.PlanBasic,
			startTimes: []time.Time{
				time.Date(2025, 3, 9, 9, 0, 0, 0, time.UTC),
				time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
				time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC),
			},
			wantQuota: true,
		},
		{
			name: "last week does not count",
			plan: models.PlanBasic,
			startTimes: []time.Time{
				time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC),
				time.Date(2025, 3, 6, 9, 0, 0, 0, time.UTC),
				time.Date(2025, 3, 7, 9, 0, 0, 0, time.UTC),
				time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
			},
			wantQuota: false,
		},
		{
			name: "premium unlimited",
			plan: models.PlanPremium,
			startTimes: []time.Time{
				time.Date(2025, 3, 9, 9, 0, 0, 0, time.UTC),
				time.Date(2025, 3, 9, 11, 0, 0, 0, time.UTC),
				time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
				time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC),
				time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC),
			},
			wantQuota: false,
		},
		{
			name: "pro unlimited",
			plan: models.PlanPro,
			startTimes: []time.Time{
				time.Date(2025, 3, 9, 9, 0, 0, 0, time.UTC),
				time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
				time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC),
				time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC),
			},
			wantQuota: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			st := store.NewMemoryStore()
			user := &models.User{Email: "quota@example.com", Plan: tc.plan}
			if err := st.CreateUser(context.Background(), user); err != nil {
				t.Fatalf("Failed to create user: %v", err)
			}
			for _, start := range tc.startTimes {
				cs := sessionAt(user.ID, start)
				if err := st.SaveCompletedSession(context.Background(), &cs); err != nil {
					t.Fatalf("Failed to save session: %v", err)
				}
			}

			err := NewQuotaEnforcer(st).Allows(context.Background(), user.ID, tc.plan, now)
			var quotaErr *QuotaExceededError
			if tc.wantQuota && !errors.As(err, &quotaErr) {
				t.Errorf("Expected QuotaExceededError, got %v", err)
			}
			if !tc.wantQuota && err != nil {
				t.Errorf("Expected quota to allow, got %v", err)
			}
		})
	}
}

func TestCountInWeek_Boundaries(t *testing.T) {
	now := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)
	userID := uuid.New()

	sessions := []models.CompletedSession{
		// Exactly at week start: counts.
		sessionAt(userID, time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)),
		// One second before week start: previous week.
		sessionAt(userID, time.Date(2025, 3, 8, 23, 59, 59, 0, time.UTC)),
		// Exactly at next week start: next week.
		sessionAt(userID, time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC)),
	}

	if got := CountInWeek(sessions, now); got != 1 {
		t.Errorf("Expected 1 session in week, got %d", got)
	}
}
