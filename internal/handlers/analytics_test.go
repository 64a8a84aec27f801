package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"intervia-backend/internal/models"
)

func seedRatedSession(t *testing.T, userID uuid.UUID, st sessionSaver, start time.Time, rating int, category string) {
	t.Helper()
	cs := models.CompletedSession{
		ID:                  uuid.New(),
		UserID:              userID,
		QuestionID:          uuid.New(),
		Category:            category,
		StartTime:           start,
		EndTime:             start.Add(30 * time.Minute),
		DurationSeconds:     1800,
		Rating:              rating,
		PerceivedDifficulty: "medium",
	}
	if err := st.SaveCompletedSession(context.Background(), &cs); err != nil {
		t.Fatalf("Failed to seed session: %v", err)
	}
}

type sessionSaver interface {
	SaveCompletedSession(ctx context.Context, cs *models.CompletedSession) error
}

func TestStreakEndpoint(t *testing.T) {
	api, userID, st := newTestEnv(t, models.PlanBasic)

	for i := 0; i < 3; i++ {
		seedRatedSession(t, userID, st, testNow.AddDate(0, 0, -i), 4, "algorithms")
	}

	rr := httptest.NewRecorder()
	api.ServeHTTP(rr, authedRequest(http.MethodGet, "/analytics/streak", nil, userID, models.PlanBasic))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}

	var resp map[string]int
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp["streak"] != 3 {
		t.Errorf("Expected streak 3, got %d", resp["streak"])
	}
}

func TestWeeklyEndpoint(t *testing.T) {
	api, userID, st := newTestEnv(t, models.PlanBasic)

	// Wednesday testNow: Mon/Tue this week plus one last week.
	seedRatedSession(t, userID, st, testNow.AddDate(0, 0, -1), 5, "algorithms")
	seedRatedSession(t, userID, st, testNow.AddDate(0, 0, -2), 4, "system design")
	seedRatedSession(t, userID, st, testNow.AddDate(0, 0, -7), 3, "behavioral")

	rr := httptest.NewRecorder()
	api.ServeHTTP(rr, authedRequest(http.MethodGet, "/analytics/weekly", nil, userID, models.PlanBasic))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}

	var stats models.WeeklyStats
	if err := json.NewDecoder(rr.Body).Decode(&stats); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if stats.SessionsCompleted != 2 {
		t.Errorf("Expected 2 sessions this week, got %d", stats.SessionsCompleted)
	}
	if stats.ComparisonToPrevWeek.SessionsDelta != 1 {
		t.Errorf("Expected sessions delta 1, got %d", stats.ComparisonToPrevWeek.SessionsDelta)
	}
}

func TestCategoriesEndpoint(t *testing.T) {
	api, userID, st := newTestEnv(t, models.PlanBasic)

	seedRatedSession(t, userID, st, testNow.AddDate(0, 0, -1), 5, "algorithms")
	seedRatedSession(t, userID, st, testNow.AddDate(0, 0, -2), 2, "system design")

	rr := httptest.NewRecorder()
	api.ServeHTTP(rr, authedRequest(http.MethodGet, "/analytics/categories", nil, userID, models.PlanBasic))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}

	var resp struct {
		Categories []models.CategoryPerformance `json:"categories"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(resp.Categories) != 2 {
		t.Fatalf("Expected 2 categories, got %d", len(resp.Categories))
	}

	weakest := 0
	for _, c := range resp.Categories {
		if c.IsWeakest {
			weakest++
			if c.Category != "system design" {
				t.Errorf("Expected system design weakest, got %q", c.Category)
			}
		}
	}
	if weakest != 1 {
		t.Errorf("Expected exactly one weakest flag, got %d", weakest)
	}
}

func TestWeakestCategoryEndpoint_NoData(t *testing.T) {
	api, userID, _ := newTestEnv(t, models.PlanBasic)

	rr := httptest.NewRecorder()
	api.ServeHTTP(rr, authedRequest(http.MethodGet, "/analytics/weakest-category", nil, userID, models.PlanBasic))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Error.Code != "NO_DATA" {
		t.Errorf("Expected NO_DATA, got %q", resp.Error.Code)
	}
}
