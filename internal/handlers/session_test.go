package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"intervia-backend/internal/middleware"
	"intervia-backend/internal/models"
	"intervia-backend/internal/services"
	"intervia-backend/internal/store"
	"intervia-backend/internal/timeutil"
)

var testNow = time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T, plan string) (http.Handler, uuid.UUID, *store.MemoryStore) {
	t.Helper()

	st := store.NewMemoryStore()
	user := &models.User{Email: "api@example.com", FullName: "API User", Plan: plan}
	if err := st.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	catalog := store.NewMemoryCatalog([]models.Question{
		{ID: uuid.New(), Title: "Two Sum", Category: "algorithms", Difficulty: "easy", PlanRequired: models.PlanBasic},
		{ID: uuid.New(), Title: "Merge Intervals", Category: "algorithms", Difficulty: "medium", PlanRequired: models.PlanBasic},
		{ID: uuid.New(), Title: "LRU Cache", Category: "algorithms", Difficulty: "medium", PlanRequired: models.PlanPremium},
		{ID: uuid.New(), Title: "Design a News Feed", Category: "system design", Difficulty: "hard", PlanRequired: models.PlanPro},
	})

	clock := timeutil.FixedClock{T: testNow}
	quota := services.NewQuotaEnforcer(st)
	selector := services.NewQuestionSelector(catalog, rand.New(rand.NewSource(1)))
	sessions := services.NewSessionService(st, quota, selector, clock, nil)
	analytics := services.NewAnalyticsService(st, clock)

	sessionHandler := NewSessionHandler(sessions, nil)
	analyticsHandler := NewAnalyticsHandler(analytics)

	r := chi.NewRouter()
	r.Post("/sessions/start", sessionHandler.Start)
	r.Get("/sessions/active", sessionHandler.Active)
	r.Get("/sessions/eligibility", sessionHandler.Eligibility)
	r.Get("/sessions/{id}/remaining", sessionHandler.Remaining)
	r.Post("/sessions/{id}/end", sessionHandler.End)
	r.Get("/analytics/streak", analyticsHandler.Streak)
	r.Get("/analytics/weekly", analyticsHandler.Weekly)
	r.Get("/analytics/categories", analyticsHandler.Categories)
	r.Get("/analytics/weakest-category", analyticsHandler.WeakestCategory)

	return r, user.ID, st
}

func authedRequest(method, target string, body []byte, userID uuid.UUID, plan string) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.Header.Set("Content-Type", "application/json")

	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
	ctx = context.WithValue(ctx, middleware.PlanKey, plan)
	return req.WithContext(ctx)
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	return resp
}

func TestStartEndpoint(t *testing.T) {
	api, userID, _ := newTestEnv(t, models.PlanBasic)

	rr := httptest.NewRecorder()
	api.ServeHTTP(rr, authedRequest(http.MethodPost, "/sessions/start", nil, userID, models.PlanBasic))

	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Session models.Session `json:"session"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Session.TimeRemainingSeconds != 2700 {
		t.Errorf("Expected 2700 seconds remaining, got %d", resp.Session.TimeRemainingSeconds)
	}
}

func TestStartEndpoint_SecondStartConflicts(t *testing.T) {
	api, userID, _ := newTestEnv(t, models.PlanBasic)

	rr := httptest.NewRecorder()
	api.ServeHTTP(rr, authedRequest(http.MethodPost, "/sessions/start", nil, userID, models.PlanBasic))
	if rr.Code != http.StatusCreated {
		t.Fatalf("First start failed: %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	api.ServeHTTP(rr, authedRequest(http.MethodPost, "/sessions/start", nil, userID, models.PlanBasic))
	if rr.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Error.Code != "ACTIVE_SESSION_EXISTS" {
		t.Errorf("Expected ACTIVE_SESSION_EXISTS, got %q", resp.Error.Code)
	}
}

func TestStartEndpoint_QuotaExceeded(t *testing.T) {
	api, userID, st := newTestEnv(t, models.PlanBasic)

	for i := 0; i < 3; i++ {
		cs := models.CompletedSession{
			ID:                  uuid.New(),
			UserID:              userID,
			QuestionID:          uuid.New(),
			Category:            "algorithms",
			StartTime:           testNow.Add(-time.Duration(i+1) * time.Hour),
			EndTime:             testNow,
			Rating:              3,
			PerceivedDifficulty: "medium",
		}
		if err := st.SaveCompletedSession(context.Background(), &cs); err != nil {
			t.Fatalf("Failed to seed session: %v", err)
		}
	}

	rr := httptest.NewRecorder()
	api.ServeHTTP(rr, authedRequest(http.MethodPost, "/sessions/start", nil, userID, models.PlanBasic))

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429, got %d", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Error.Code != "QUOTA_EXCEEDED" {
		t.Errorf("Expected QUOTA_EXCEEDED, got %q", resp.Error.Code)
	}
}

func TestActiveEndpoint_NoneRunning(t *testing.T) {
	api, userID, _ := newTestEnv(t, models.PlanBasic)

	rr := httptest.NewRecorder()
	api.ServeHTTP(rr, authedRequest(http.MethodGet, "/sessions/active", nil, userID, models.PlanBasic))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Error.Code != "NO_ACTIVE_SESSION" {
		t.Errorf("Expected NO_ACTIVE_SESSION, got %q", resp.Error.Code)
	}
}

func TestEndEndpoint(t *testing.T) {
	api, userID, _ := newTestEnv(t, models.PlanBasic)

	rr := httptest.NewRecorder()
	api.ServeHTTP(rr, authedRequest(http.MethodPost, "/sessions/start", nil, userID, models.PlanBasic))
	var started struct {
		Session models.Session `json:"session"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&started); err != nil {
		t.Fatalf("Failed to decode start response: %v", err)
	}

	t.Run("invalid rating", func(t *testing.T) {
		body, _ := json.Marshal(models.SessionFeedback{Rating: 9, PerceivedDifficulty: "medium"})
		rr := httptest.NewRecorder()
		api.ServeHTTP(rr, authedRequest(http.MethodPost, "/sessions/"+started.Session.ID.String()+"/end", body, userID, models.PlanBasic))

		if rr.Code != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d", rr.Code)
		}
		resp := decodeError(t, rr)
		if resp.Error.Code != "VALIDATION_ERROR" {
			t.Errorf("Expected VALIDATION_ERROR, got %q", resp.Error.Code)
		}
		if _, ok := resp.Error.Fields["rating"]; !ok {
			t.Errorf("Expected a rating field error, got %v", resp.Error.Fields)
		}
	})

	t.Run("valid feedback", func(t *testing.T) {
		body, _ := json.Marshal(models.SessionFeedback{Rating: 4, PerceivedDifficulty: "hard", Notes: "close"})
		rr := httptest.NewRecorder()
		api.ServeHTTP(rr, authedRequest(http.MethodPost, "/sessions/"+started.Session.ID.String()+"/end", body, userID, models.PlanBasic))

		if rr.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
		}
		var resp struct {
			Session models.CompletedSession `json:"session"`
		}
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("Failed to decode end response: %v", err)
		}
		if resp.Session.Rating != 4 || resp.Session.AutoSubmitted {
			t.Errorf("Unexpected completed session: %+v", resp.Session)
		}
	})
}

func TestEligibilityEndpoint(t *testing.T) {
	api, userID, _ := newTestEnv(t, models.PlanBasic)

	rr := httptest.NewRecorder()
	api.ServeHTTP(rr, authedRequest(http.MethodGet, "/sessions/eligibility", nil, userID, models.PlanBasic))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}

	var resp map[string]bool
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !resp["eligible"] {
		t.Errorf("Expected eligible=true before any sessions")
	}

	// Start a session; eligibility flips without erroring.
	api.ServeHTTP(httptest.NewRecorder(), authedRequest(http.MethodPost, "/sessions/start", nil, userID, models.PlanBasic))

	rr = httptest.NewRecorder()
	api.ServeHTTP(rr, authedRequest(http.MethodGet, "/sessions/eligibility", nil, userID, models.PlanBasic))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp["eligible"] {
		t.Errorf("Expected eligible=false while a session runs")
	}
}

func TestRemainingEndpoint(t *testing.T) {
	api, userID, _ := newTestEnv(t, models.PlanBasic)

	rr := httptest.NewRecorder()
	api.ServeHTTP(rr, authedRequest(http.MethodPost, "/sessions/start", nil, userID, models.PlanBasic))
	var started struct {
		Session models.Session `json:"session"`
	}
	json.NewDecoder(rr.Body).Decode(&started)

	rr = httptest.NewRecorder()
	api.ServeHTTP(rr, authedRequest(http.MethodGet, "/sessions/"+started.Session.ID.String()+"/remaining", nil, userID, models.PlanBasic))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}

	var resp struct {
		TimeRemainingSeconds int  `json:"time_remaining_seconds"`
		Ended                bool `json:"ended"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.TimeRemainingSeconds != 2700 || resp.Ended {
		t.Errorf("Expected (2700, running), got (%d, %v)", resp.TimeRemainingSeconds, resp.Ended)
	}
}
