package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"intervia-backend/internal/models"
	"intervia-backend/internal/store"
	"intervia-backend/internal/timeutil"
)

// WeeklySessionCap is the number of sessions a Basic-plan user may start
// per calendar week. Premium and Pro are unlimited.
const WeeklySessionCap = 3

// QuotaEnforcer gates session admission on the weekly cap.
type QuotaEnforcer struct {
	store store.Store
}

func NewQuotaEnforcer(st store.Store) *QuotaEnforcer {
	return &QuotaEnforcer{store: st}
}

// Allows returns nil when the user may start a session at now, or a
// QuotaExceededError when the Basic weekly cap is reached.
func (q *QuotaEnforcer) Allows(ctx context.Context, userID uuid.UUID, plan string, now time.Time) error {
	if plan != models.PlanBasic {
		return nil
	}

	sessions, err := q.store.GetSessionsForUser(ctx, userID)
	if err != nil {
		return err
	}

	if CountInWeek(sessions, now) >= WeeklySessionCap {
		return &QuotaExceededError{
			Message: fmt.Sprintf("Weekly limit of %d sessions reached. Upgrade for unlimited practice.", WeeklySessionCap),
		}
	}
	return nil
}

// CountInWeek counts sessions whose start time falls inside the week
// window containing now. Shared with weekly stats via the same
// timeutil.WeekWindow definition.
func CountInWeek(sessions []models.CompletedSession, now time.Time) int {
	start, end := timeutil.WeekWindow(now)
	count := 0
	for _, s := range sessions {
		if !s.StartTime.Before(start) && s.StartTime.Before(end) {
			count++
		}
	}
	return count
}
