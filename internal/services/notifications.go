package services

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"intervia-backend/internal/store"
)

const (
	weeklyDigestInterval     = 7 * 24 * time.Hour
	practiceReminderInterval = 72 * time.Hour
	notificationPollInterval = 1 * time.Hour
)

// NotificationScheduler sends weekly digests and practice reminders.
// Redis keys with a TTL record what was already sent, so restarts do not
// double-send.
type NotificationScheduler struct {
	store     store.Store
	analytics *AnalyticsService
	email     *EmailService
	redis     *redis.Client
	stopChan  chan struct{}
}

func NewNotificationScheduler(st store.Store, analytics *AnalyticsService, email *EmailService, redisClient *redis.Client) *NotificationScheduler {
	return &NotificationScheduler{
		store:     st,
		analytics: analytics,
		email:     email,
		redis:     redisClient,
		stopChan:  make(chan struct{}),
	}
}

func (s *NotificationScheduler) Start() {
	if s.store == nil || s.email == nil || s.redis == nil {
		return
	}

	go s.loop(s.sendWeeklyDigests)
	go s.loop(s.sendPracticeReminders)

	log.Printf("Notification scheduler started")
}

func (s *NotificationScheduler) Stop() {
	select {
	case <-s.stopChan:
		return
	default:
		close(s.stopChan)
	}
}

func (s *NotificationScheduler) loop(runFn func(ctx context.Context, now time.Time)) {
	// Run on startup as well as by interval.
	runFn(context.Background(), time.Now().UTC())

	ticker := time.NewTicker(notificationPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			runFn(context.Background(), time.Now().UTC())
		}
	}
}

func (s *NotificationScheduler) sendWeeklyDigests(ctx context.Context, now time.Time) {
	users, err := s.store.ListActiveUsers(ctx)
	if err != nil {
		log.Printf("weekly digest: failed to list users: %v", err)
		return
	}

	for _, user := range users {
		claimed, err := s.redis.SetNX(ctx, "digest_sent:"+user.ID.String(), now.Format(time.RFC3339), weeklyDigestInterval).Result()
		if err != nil || !claimed {
			continue
		}

		stats, statsErr := s.analytics.WeeklyStats(ctx, user.ID)
		if statsErr != nil {
			log.Printf("weekly digest: failed to load stats for user %s: %v", user.ID, statsErr)
			continue
		}

		if stats.SessionsCompleted == 0 {
			continue
		}

		if err := s.email.SendWeeklyDigestEmail(user.Email, user.FullName, stats, user.Streak); err != nil {
			log.Printf("weekly digest: failed to send to %s: %v", user.Email, err)
		}
	}
}

func (s *NotificationScheduler) sendPracticeReminders(ctx context.Context, now time.Time) {
	users, err := s.store.ListActiveUsers(ctx)
	if err != nil {
		log.Printf("practice reminders: failed to list users: %v", err)
		return
	}

	for _, user := range users {
		reference := user.CreatedAt
		if user.LastSessionDate != nil && !user.LastSessionDate.IsZero() {
			reference = *user.LastSessionDate
		}
		if now.Sub(reference.UTC()) < practiceReminderInterval {
			continue
		}

		claimed, err := s.redis.SetNX(ctx, "reminder_sent:"+user.ID.String(), now.Format(time.RFC3339), practiceReminderInterval).Result()
		if err != nil || !claimed {
			continue
		}

		if err := s.email.SendPracticeReminderEmail(user.Email, user.FullName, user.LastSessionDate); err != nil {
			log.Printf("practice reminders: failed to send to %s: %v", user.Email, err)
		}
	}
}
