package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"intervia-backend/internal/config"
	"intervia-backend/internal/database"
	"intervia-backend/internal/handlers"
	"intervia-backend/internal/middleware"
	"intervia-backend/internal/router"
	"intervia-backend/internal/services"
	"intervia-backend/internal/store"
	"intervia-backend/internal/timeutil"
	"intervia-backend/internal/websocket"
	"intervia-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting Intervia Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Store ────
	st := store.NewPostgresStore(pool)
	catalog := store.NewPostgresCatalog(pool)

	// ──── Initialize Services ────
	clock := timeutil.SystemClock{}
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	authService := services.NewAuthService(st, redisClients.Queue, jwtAuth)
	quota := services.NewQuotaEnforcer(st)
	selector := services.NewQuestionSelector(catalog, nil)
	sessionService := services.NewSessionService(st, quota, selector, clock, redisClients.Queue)
	analyticsService := services.NewAnalyticsService(st, clock)
	emailService := services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.FrontendURL)

	hintService, err := services.NewHintService(cfg.GeminiAPIKey, cfg.GeminiConcurrentReqs, redisClients.Queue)
	if err != nil {
		log.Fatalf("✗ Hint service initialization failed: %v", err)
	}
	defer hintService.Close()
	log.Println("✓ Gemini hint coach initialized")

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService)
	sessionHandler := handlers.NewSessionHandler(sessionService, hintService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	userHandler := handlers.NewUserHandler(st)

	// ──── Step 5: Start Session Sweeper ────
	sweeper := worker.NewSweeper(sessionService)
	sweeper.Start()

	notificationScheduler := services.NewNotificationScheduler(st, analyticsService, emailService, redisClients.Queue)
	notificationScheduler.Start()

	// ──── Step 6: Start WebSocket Hub ────
	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	wsHub := websocket.NewHub(redisClients.PubSub, cfg.JWTSecret)
	go wsHub.Run(hubCtx)
	log.Println("✓ WebSocket hub started")

	// ──── Step 7: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		authHandler,
		sessionHandler,
		analyticsHandler,
		userHandler,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		sweeper.Stop()
		notificationScheduler.Stop()
		hubCancel()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Intervia Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
