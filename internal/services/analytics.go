package services

import (
	"context"
	"log"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"

	"intervia-backend/internal/models"
	"intervia-backend/internal/store"
	"intervia-backend/internal/timeutil"
)

// Readiness score weights and thresholds.
const (
	readinessActivityWeight    = 0.4
	readinessPerformanceWeight = 0.4
	readinessConsistencyWeight = 0.2
	consistencyTargetDays      = 30
)

// AnalyticsService derives streaks, weekly stats, category performance
// and the readiness score from completed-session history. The
// computations themselves are pure package-level functions; the service
// only loads history and maintains the cached values on the user record.
type AnalyticsService struct {
	store store.Store
	clock timeutil.Clock
}

func NewAnalyticsService(st store.Store, clock timeutil.Clock) *AnalyticsService {
	return &AnalyticsService{store: st, clock: clock}
}

// CalculateStreak counts consecutive calendar days with at least one
// session, walking backward from the most recent session day. Multiple
// sessions on one day count once. A session yesterday keeps the streak
// alive; a gap of more than one day breaks it unless a streak freeze
// bridges exactly one missing day.
func CalculateStreak(sessions []models.CompletedSession, now time.Time, freezeAvailable bool) (streak int, freezeConsumed bool) {
	if len(sessions) == 0 {
		return 0, false
	}

	daySet := make(map[time.Time]bool)
	var lastDay time.Time
	for _, s := range sessions {
		day := timeutil.StartOfDay(s.StartTime)
		daySet[day] = true
		if day.After(lastDay) {
			lastDay = day
		}
	}

	gap := timeutil.DaysBetween(lastDay, now)
	if gap > 1 {
		if !freezeAvailable || gap != 2 {
			return 0, false
		}
		// One missing day between the last session and today: the
		// freeze covers it and counts as a practiced day.
		freezeAvailable = false
		freezeConsumed = true
		streak++
	}

	day := lastDay
	for {
		if daySet[day] {
			streak++
		} else if freezeAvailable && daySet[day.AddDate(0, 0, -1)] {
			// The freeze only bridges to a real earlier practiced day;
			// it never pads the tail of the history.
			freezeAvailable = false
			freezeConsumed = true
			streak++
		} else {
			break
		}
		day = day.AddDate(0, 0, -1)
	}

	return streak, freezeConsumed
}

// WeeklyStatsFor buckets sessions into the current and previous week
// using the same window definition as quota enforcement.
func WeeklyStatsFor(sessions []models.CompletedSession, now time.Time) models.WeeklyStats {
	weekStart, weekEnd := timeutil.WeekWindow(now)
	prevStart := weekStart.AddDate(0, 0, -7)

	var current, previous []models.CompletedSession
	for _, s := range sessions {
		switch {
		case !s.StartTime.Before(weekStart) && s.StartTime.Before(weekEnd):
			current = append(current, s)
		case !s.StartTime.Before(prevStart) && s.StartTime.Before(weekStart):
			previous = append(previous, s)
		}
	}

	categorySet := make(map[string]bool)
	for _, s := range current {
		categorySet[s.Category] = true
	}
	categories := make([]string, 0, len(categorySet))
	for c := range categorySet {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	currentAvg := averageRating(current)
	previousAvg := averageRating(previous)

	return models.WeeklyStats{
		SessionsCompleted:   len(current),
		AverageRating:       currentAvg,
		CategoriesPracticed: categories,
		ComparisonToPrevWeek: models.WeekComparison{
			SessionsDelta: len(current) - len(previous),
			RatingDelta:   currentAvg - previousAvg,
		},
	}
}

// PerformanceByCategory groups sessions by category with per-group
// counts and rating averages. Exactly one non-empty group carries
// IsWeakest: the minimum average, ties broken by lexicographically
// smallest category name. Output is sorted by category.
func PerformanceByCategory(sessions []models.CompletedSession) []models.CategoryPerformance {
	groups := make(map[string][]models.CompletedSession)
	for _, s := range sessions {
		groups[s.Category] = append(groups[s.Category], s)
	}

	out := make([]models.CategoryPerformance, 0, len(groups))
	for category, group := range groups {
		out = append(out, models.CategoryPerformance{
			Category:      category,
			SessionsCount: len(group),
			AverageRating: averageRating(group),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })

	weakest := -1
	for i := range out {
		if weakest == -1 || out[i].AverageRating < out[weakest].AverageRating {
			weakest = i
		}
	}
	if weakest >= 0 {
		out[weakest].IsWeakest = true
	}

	return out
}

// ReadinessScoreFor blends recent activity, overall performance and
// streak consistency into a 0-100 composite.
func ReadinessScoreFor(sessions []models.CompletedSession, streak int, now time.Time) models.ReadinessScore {
	weekAgo := now.AddDate(0, 0, -7)
	recentCount := 0
	for _, s := range sessions {
		if s.StartTime.After(weekAgo) {
			recentCount++
		}
	}

	recentActivity := math.Min(100, float64(recentCount)/7*100)
	performance := averageRating(sessions) / 5 * 100
	consistency := math.Min(100, float64(streak)/consistencyTargetDays*100)

	overall := int(math.Round(
		readinessActivityWeight*recentActivity +
			readinessPerformanceWeight*performance +
			readinessConsistencyWeight*consistency,
	))

	var recommendations []string
	if recentActivity < 50 {
		recommendations = append(recommendations, "Practice more often this week to build momentum.")
	}
	if performance < 60 {
		recommendations = append(recommendations, "Revisit fundamentals in your weakest categories.")
	}
	if consistency < 50 {
		recommendations = append(recommendations, "Practice a little every day to grow your streak.")
	}
	if overall >= 80 {
		recommendations = append(recommendations, "You are interview-ready. Keep the routine going.")
	}

	return models.ReadinessScore{
		Overall:         overall,
		RecentActivity:  recentActivity,
		Performance:     performance,
		Consistency:     consistency,
		Recommendations: recommendations,
	}
}

// WeakestCategory returns the category flagged weakest by
// PerformanceByCategory. Empty history is an EmptyDataError.
func WeakestCategory(sessions []models.CompletedSession) (models.CategoryPerformance, error) {
	if len(sessions) == 0 {
		return models.CategoryPerformance{}, &EmptyDataError{Message: "No completed sessions to analyze"}
	}

	for _, perf := range PerformanceByCategory(sessions) {
		if perf.IsWeakest {
			return perf, nil
		}
	}
	// Unreachable: non-empty input always flags one group.
	return models.CategoryPerformance{}, &EmptyDataError{Message: "No completed sessions to analyze"}
}

func averageRating(sessions []models.CompletedSession) float64 {
	if len(sessions) == 0 {
		return 0
	}

	ratings := make([]float64, len(sessions))
	for i, s := range sessions {
		ratings[i] = float64(s.Rating)
	}

	mean, err := stats.Mean(ratings)
	if err != nil {
		return 0
	}
	return mean
}

// Streak loads the user's history, applies the Pro streak freeze when
// one is available for the current week, persists freeze consumption and
// the refreshed streak cache, and returns the streak.
func (a *AnalyticsService) Streak(ctx context.Context, userID uuid.UUID) (int, error) {
	user, err := a.store.GetUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	sessions, err := a.store.GetSessionsForUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	now := a.clock.Now()
	streak, consumed := CalculateStreak(sessions, now, a.freezeAvailable(user, now))

	changed := user.Streak != streak
	user.Streak = streak
	if consumed {
		usedAt := now
		user.StreakFreezeUsedAt = &usedAt
		changed = true
	}
	if changed {
		if err := a.store.SaveUser(ctx, user); err != nil {
			log.Printf("analytics: failed to cache streak for user %s: %v", userID, err)
		}
	}

	return streak, nil
}

// freezeAvailable reports whether the user holds an unused streak freeze
// for the week containing now. Freezes are Pro-only and reset when the
// week window rolls over.
func (a *AnalyticsService) freezeAvailable(user *models.User, now time.Time) bool {
	if user.Plan != models.PlanPro {
		return false
	}
	if user.StreakFreezeUsedAt == nil {
		return true
	}
	weekStart, _ := timeutil.WeekWindow(now)
	return user.StreakFreezeUsedAt.Before(weekStart)
}

func (a *AnalyticsService) WeeklyStats(ctx context.Context, userID uuid.UUID) (models.WeeklyStats, error) {
	sessions, err := a.store.GetSessionsForUser(ctx, userID)
	if err != nil {
		return models.WeeklyStats{}, err
	}
	return WeeklyStatsFor(sessions, a.clock.Now()), nil
}

func (a *AnalyticsService) Categories(ctx context.Context, userID uuid.UUID) ([]models.CategoryPerformance, error) {
	sessions, err := a.store.GetSessionsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return PerformanceByCategory(sessions), nil
}

func (a *AnalyticsService) Readiness(ctx context.Context, userID uuid.UUID) (models.ReadinessScore, error) {
	streak, err := a.Streak(ctx, userID)
	if err != nil {
		return models.ReadinessScore{}, err
	}

	sessions, err := a.store.GetSessionsForUser(ctx, userID)
	if err != nil {
		return models.ReadinessScore{}, err
	}

	return ReadinessScoreFor(sessions, streak, a.clock.Now()), nil
}

func (a *AnalyticsService) Weakest(ctx context.Context, userID uuid.UUID) (models.CategoryPerformance, error) {
	sessions, err := a.store.GetSessionsForUser(ctx, userID)
	if err != nil {
		return models.CategoryPerformance{}, err
	}
	return WeakestCategory(sessions)
}
