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

	"studytrack-backend/internal/config"
	"studytrack-backend/internal/database"
	"studytrack-backend/internal/handlers"
	"studytrack-backend/internal/middleware"
	"studytrack-backend/internal/plan"
	"studytrack-backend/internal/repository"
	"studytrack-backend/internal/router"
	"studytrack-backend/internal/services"
	"studytrack-backend/internal/websocket"
	"studytrack-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting StudyTrack Backend...")

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
	if err := database.RunMigrations(pool); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	sessionRepo := repository.NewSessionRepo(pool)
	studyLogRepo := repository.NewStudyLogRepo(pool)
	coachRepo := repository.NewCoachRepo(pool)
	weakTopicRepo := repository.NewWeakTopicRepo(pool)
	planRepo := repository.NewPlanRepo(pool)

	// ──── Step 5: Seed Study Plan ────
	weeks, err := plan.Weeks()
	if err != nil {
		log.Fatalf("✗ Embedded study plan is invalid: %v", err)
	}
	if err := planRepo.SeedWeeks(context.Background(), weeks); err != nil {
		log.Fatalf("✗ Study plan seeding failed: %v", err)
	}
	log.Printf("✓ Study plan seeded (%d weeks)", len(weeks))

	// ──── Step 6: Initialize Coach Service ────
	coachService, err := services.NewCoachService(
		cfg.GeminiAPIKey,
		cfg.GeminiConcurrentReqs,
		coachRepo,
		studyLogRepo,
		sessionRepo,
		weakTopicRepo,
		redisClients.Queue,
	)
	if err != nil {
		log.Fatalf("✗ Coach service initialization failed: %v", err)
	}
	defer coachService.Close()
	log.Println("✓ AI coach initialized")

	// ──── Initialize Services & Handlers ────
	jwtAuth := middleware.NewJWTAuth(cfg.AuthJWTSecret)
	events := services.NewEventPublisher(redisClients.Queue, redisClients.PubSub)

	sessionHandler := handlers.NewSessionHandler(sessionRepo, events)
	studyLogHandler := handlers.NewStudyLogHandler(studyLogRepo, events)
	coachHandler := handlers.NewCoachHandler(coachService, events)
	weakTopicHandler := handlers.NewWeakTopicHandler(weakTopicRepo)
	planHandler := handlers.NewPlanHandler(planRepo)

	// ──── Step 7: Start Job Worker Pool ────
	workerPool := worker.NewPool(redisClients.Queue, coachService, coachRepo, cfg.WorkerCount)
	workerPool.Start()
	log.Printf("✓ Worker pool started (%d goroutines)", cfg.WorkerCount)

	// ──── Step 8: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth)
	log.Println("✓ WebSocket hub started")

	// ──── Step 9: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		sessionHandler,
		studyLogHandler,
		coachHandler,
		weakTopicHandler,
		planHandler,
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
		workerPool.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ StudyTrack Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
