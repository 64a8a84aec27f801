package worker

import (
	"context"
	"log"
	"time"

	"intervia-backend/internal/services"
)

// Sweeper drives the server-side countdown: a 1 Hz tick that
// auto-submits any running session whose time box has run out, whether
// or not the client is still connected.
type Sweeper struct {
	sessions *services.SessionService
	interval time.Duration
	stopChan chan struct{}
}

func NewSweeper(sessions *services.SessionService) *Sweeper {
	return &Sweeper{
		sessions: sessions,
		interval: time.Second,
		stopChan: make(chan struct{}),
	}
}

func (s *Sweeper) Start() {
	go s.run()
	log.Printf("Session sweeper started (interval %s)", s.interval)
}

func (s *Sweeper) Stop() {
	select {
	case <-s.stopChan:
		return
	default:
		close(s.stopChan)
	}
}

func (s *Sweeper) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			if swept := s.sessions.SweepExpired(context.Background()); swept > 0 {
				log.Printf("Session sweeper auto-submitted %d session(s)", swept)
			}
		}
	}
}
