package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"intervia-backend/internal/models"
	"intervia-backend/internal/store"
	"intervia-backend/internal/timeutil"
)

// SessionEventsChannel is the Redis pub/sub channel carrying
// terminal-state session events for the websocket hub.
const SessionEventsChannel = "events:sessions"

var validDifficulties = map[string]bool{
	"easy":   true,
	"medium": true,
	"hard":   true,
}

// SessionService owns the lifecycle of in-progress sessions:
// Created -> Running -> Ended. Running sessions live in memory; only the
// immutable CompletedSession record is persisted.
//
// All mutating operations are serialized per user, so concurrent starts
// for the same user cannot both succeed and a manual end cannot race the
// expiry transition — whichever claims the running entry first wins.
type SessionService struct {
	store    store.Store
	quota    *QuotaEnforcer
	selector *QuestionSelector
	clock    timeutil.Clock
	events   *redis.Client // optional; nil disables event publishing

	mu     sync.Mutex
	active map[uuid.UUID]*activeSession
	locks  map[uuid.UUID]*sync.Mutex
}

// activeSession pairs a running session with a snapshot of its question,
// so completion does not depend on the catalog still containing it.
type activeSession struct {
	session  models.Session
	question models.Question
}

func NewSessionService(st store.Store, quota *QuotaEnforcer, selector *QuestionSelector, clock timeutil.Clock, events *redis.Client) *SessionService {
	return &SessionService{
		store:    st,
		quota:    quota,
		selector: selector,
		clock:    clock,
		events:   events,
		active:   make(map[uuid.UUID]*activeSession),
		locks:    make(map[uuid.UUID]*sync.Mutex),
	}
}

// ComputeRemaining recomputes the seconds left from elapsed wall-clock
// time. Ticks never decrement a counter, so delayed or missed ticks
// self-correct instead of drifting.
func ComputeRemaining(s *models.Session, now time.Time) int {
	elapsed := int(now.Sub(s.StartTime).Seconds())
	if elapsed < 0 {
		elapsed = 0
	}
	remaining := models.SessionLengthSeconds - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (s *SessionService) userLock(userID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}

func (s *SessionService) getActive(userID uuid.UUID) *activeSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active[userID]
}

func (s *SessionService) setActive(userID uuid.UUID, entry *activeSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry == nil {
		delete(s.active, userID)
		return
	}
	s.active[userID] = entry
}

// Start begins a new session for the user: quota check, question
// selection, 45-minute time box.
func (s *SessionService) Start(ctx context.Context, userID uuid.UUID, plan string, pressureMode bool) (*models.Session, error) {
	if !models.ValidPlan(plan) {
		return nil, &ValidationError{Fields: map[string]string{"plan": "Unknown plan: " + plan}}
	}

	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	now := s.clock.Now()

	if entry := s.getActive(userID); entry != nil {
		if ComputeRemaining(&entry.session, now) > 0 {
			return nil, &ActiveSessionExistsError{Message: "A session is already in progress"}
		}
		// Expired but not yet swept: finalize before admitting a new one.
		if err := s.finalizeExpired(ctx, entry); err != nil {
			return nil, err
		}
	}

	if err := s.quota.Allows(ctx, userID, plan, now); err != nil {
		return nil, err
	}

	history, err := s.store.GetSessionsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	question, err := s.selector.Pick(ctx, plan, history, now)
	if err != nil {
		return nil, err
	}

	session := models.Session{
		ID:                   uuid.New(),
		UserID:               userID,
		QuestionID:           question.ID,
		StartTime:            now,
		TimeRemainingSeconds: models.SessionLengthSeconds,
		PressureModeEnabled:  pressureMode,
	}
	s.setActive(userID, &activeSession{session: session, question: question})

	out := session
	return &out, nil
}

// End finishes the user's running session with self-assessment feedback
// and persists the resulting CompletedSession. If the session expired
// before the call, the expiry transition wins: the session is
// auto-submitted and the caller gets NoActiveSessionError.
func (s *SessionService) End(ctx context.Context, userID, sessionID uuid.UUID, feedback models.SessionFeedback) (*models.CompletedSession, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	now := s.clock.Now()

	entry := s.getActive(userID)
	if entry == nil || entry.session.ID != sessionID {
		return nil, &NoActiveSessionError{Message: "No active session to end"}
	}

	if ComputeRemaining(&entry.session, now) == 0 {
		if err := s.finalizeExpired(ctx, entry); err != nil {
			return nil, err
		}
		return nil, &NoActiveSessionError{Message: "Session time expired and was auto-submitted"}
	}

	fieldErrors := make(map[string]string)
	if feedback.Rating < 1 || feedback.Rating > 5 {
		fieldErrors["rating"] = "Rating must be between 1 and 5"
	}
	if !validDifficulties[feedback.PerceivedDifficulty] {
		fieldErrors["perceived_difficulty"] = "Perceived difficulty must be easy, medium, or hard"
	}
	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	cs := s.buildCompleted(entry, now, feedback, false)
	if err := s.store.SaveCompletedSession(ctx, cs); err != nil {
		return nil, err
	}

	s.setActive(userID, nil)
	s.touchUser(ctx, userID, now)
	s.publishEnded(ctx, cs)

	return cs, nil
}

// Tick recomputes remaining time for the user's running session and
// performs the expiry transition when it has run out. Hosts call this at
// whatever cadence they like (canonically 1 Hz).
func (s *SessionService) Tick(ctx context.Context, userID uuid.UUID) (remaining int, ended bool, err error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	entry := s.getActive(userID)
	if entry == nil {
		return 0, false, &NoActiveSessionError{Message: "No active session"}
	}

	now := s.clock.Now()
	remaining = ComputeRemaining(&entry.session, now)
	if remaining == 0 {
		if err := s.finalizeExpired(ctx, entry); err != nil {
			return 0, false, err
		}
		return 0, true, nil
	}
	return remaining, false, nil
}

// Active returns the user's running session with its remaining time
// refreshed, plus the question snapshot. Expired sessions are finalized
// and reported as NoActiveSessionError.
func (s *SessionService) Active(ctx context.Context, userID uuid.UUID) (*models.Session, *models.Question, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	entry := s.getActive(userID)
	if entry == nil {
		return nil, nil, &NoActiveSessionError{Message: "No active session"}
	}

	now := s.clock.Now()
	remaining := ComputeRemaining(&entry.session, now)
	if remaining == 0 {
		if err := s.finalizeExpired(ctx, entry); err != nil {
			return nil, nil, err
		}
		return nil, nil, &NoActiveSessionError{Message: "Session time expired and was auto-submitted"}
	}

	session := entry.session
	session.TimeRemainingSeconds = remaining
	question := entry.question
	return &session, &question, nil
}

// RevealHint marks the running session's hint as revealed and returns
// the question snapshot for hint generation.
func (s *SessionService) RevealHint(ctx context.Context, userID, sessionID uuid.UUID) (models.Question, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	entry := s.getActive(userID)
	if entry == nil || entry.session.ID != sessionID {
		return models.Question{}, &NoActiveSessionError{Message: "No active session"}
	}
	if ComputeRemaining(&entry.session, s.clock.Now()) == 0 {
		if err := s.finalizeExpired(ctx, entry); err != nil {
			return models.Question{}, err
		}
		return models.Question{}, &NoActiveSessionError{Message: "Session time expired and was auto-submitted"}
	}

	entry.session.HintRevealed = true
	return entry.question, nil
}

// CanStart is the non-erroring eligibility pre-check for UIs: quota not
// exhausted and no session currently running.
func (s *SessionService) CanStart(ctx context.Context, userID uuid.UUID, plan string) (bool, error) {
	if !models.ValidPlan(plan) {
		return false, nil
	}

	now := s.clock.Now()
	if entry := s.getActive(userID); entry != nil && ComputeRemaining(&entry.session, now) > 0 {
		return false, nil
	}

	err := s.quota.Allows(ctx, userID, plan, now)
	if err != nil {
		var quotaErr *QuotaExceededError
		if errors.As(err, &quotaErr) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// SweepExpired finalizes every running session whose time box has run
// out. Returns the number of sessions auto-submitted.
func (s *SessionService) SweepExpired(ctx context.Context) int {
	s.mu.Lock()
	userIDs := make([]uuid.UUID, 0, len(s.active))
	for id := range s.active {
		userIDs = append(userIDs, id)
	}
	s.mu.Unlock()

	swept := 0
	for _, userID := range userIDs {
		lock := s.userLock(userID)
		lock.Lock()
		entry := s.getActive(userID)
		if entry != nil && ComputeRemaining(&entry.session, s.clock.Now()) == 0 {
			if err := s.finalizeExpired(ctx, entry); err != nil {
				log.Printf("session sweep: failed to finalize session %s: %v", entry.session.ID, err)
			} else {
				swept++
			}
		}
		lock.Unlock()
	}
	return swept
}

// finalizeExpired performs the auto-submit transition: the session ends
// exactly at its time-box boundary with a synthetic neutral
// self-assessment. Expiry always produces a terminal state.
// Caller must hold the user lock.
func (s *SessionService) finalizeExpired(ctx context.Context, entry *activeSession) error {
	end := entry.session.StartTime.Add(models.SessionLengthSeconds * time.Second)
	cs := s.buildCompleted(entry, end, models.SessionFeedback{
		Rating:              3,
		PerceivedDifficulty: "medium",
	}, true)

	if err := s.store.SaveCompletedSession(ctx, cs); err != nil {
		return err
	}

	s.setActive(entry.session.UserID, nil)
	s.touchUser(ctx, entry.session.UserID, end)
	s.publishEnded(ctx, cs)
	return nil
}

func (s *SessionService) buildCompleted(entry *activeSession, end time.Time, feedback models.SessionFeedback, auto bool) *models.CompletedSession {
	duration := int(end.Sub(entry.session.StartTime).Seconds())
	if duration < 0 {
		duration = 0
	}

	return &models.CompletedSession{
		ID:                  entry.session.ID,
		UserID:              entry.session.UserID,
		QuestionID:          entry.question.ID,
		QuestionTitle:       entry.question.Title,
		Category:            entry.question.Category,
		Difficulty:          entry.question.Difficulty,
		StartTime:           entry.session.StartTime,
		EndTime:             end,
		DurationSeconds:     duration,
		Rating:              feedback.Rating,
		PerceivedDifficulty: feedback.PerceivedDifficulty,
		Notes:               feedback.Notes,
		PressureModeUsed:    entry.session.PressureModeEnabled,
		AutoSubmitted:       auto,
	}
}

// touchUser refreshes the cached last-session date. Cache write failures
// are logged, not surfaced: the CompletedSession record is already safe.
func (s *SessionService) touchUser(ctx context.Context, userID uuid.UUID, at time.Time) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		log.Printf("session: failed to load user %s for cache update: %v", userID, err)
		return
	}

	day := timeutil.StartOfDay(at)
	user.LastSessionDate = &day
	if err := s.store.SaveUser(ctx, user); err != nil {
		log.Printf("session: failed to update last session date for user %s: %v", userID, err)
	}
}

func (s *SessionService) publishEnded(ctx context.Context, cs *models.CompletedSession) {
	if s.events == nil {
		return
	}

	payload, err := json.Marshal(models.SessionEndedEvent{
		SessionID:     cs.ID,
		UserID:        cs.UserID,
		AutoSubmitted: cs.AutoSubmitted,
	})
	if err != nil {
		return
	}

	if err := s.events.Publish(ctx, SessionEventsChannel, payload).Err(); err != nil {
		log.Printf("session: failed to publish ended event for %s: %v", cs.ID, err)
	}
}
