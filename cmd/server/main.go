package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"kaab_hub/internal/api"
	"kaab_hub/internal/app/service"
	"kaab_hub/internal/app/worker"
	"kaab_hub/internal/common/security"
	"kaab_hub/internal/domain/repository"
	"kaab_hub/internal/platform/config"
	"kaab_hub/internal/platform/database"
	"kaab_hub/internal/platform/logger"
	"kaab_hub/internal/platform/metrics"
	"kaab_hub/internal/platform/queue"
	"kaab_hub/internal/platform/realtime"
	"kaab_hub/internal/platform/storage"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const poolStatsInterval = 15 * time.Second

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	appLog := logger.New("kaab-hub", cfg.LogLevel)
	appLog.Info("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Initialize Database
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		appLog.WithError(err).Fatal("Could not connect to Postgres")
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		appLog.WithError(err).Fatal("Could not apply migrations")
	}
	appLog.Info("Database connected and migrated")

	// 3. Initialize Redis
	rdb, err := queue.Connect(ctx, cfg)
	if err != nil {
		appLog.WithError(err).Fatal("Could not connect to Redis")
	}
	defer rdb.Close()
	appLog.Info("Redis connected")

	// 4. Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// 5. Object storage (optional)
	var pictures service.PictureStore
	if cfg.StorageEnabled() {
		store, err := storage.NewS3StoreFromConfig(ctx, cfg)
		if err != nil {
			appLog.WithError(err).Fatal("Could not configure object storage")
		}
		pictures = store
		appLog.WithField("bucket", cfg.S3Bucket).Info("Profile picture storage enabled")
	} else {
		appLog.Warn("S3_BUCKET not set, profile picture uploads are disabled")
	}

	// 6. Initialize Repositories
	userRepo := repository.NewPgUserRepository(db)
	questionRepo := repository.NewPgQuestionRepository(db)
	answerRepo := repository.NewPgAnswerRepository(db)
	voteRepo := repository.NewPgVoteRepository(db)
	tagRepo := repository.NewPgTagRepository(db)
	notificationRepo := repository.NewPgNotificationRepository(db)

	// 7. Initialize Services
	tokens := security.NewTokenManager(cfg.JWTKey, cfg.JWTExp)
	notifications := queue.NewNotificationQueue(rdb, cfg.NotificationQueueName)
	publisher := realtime.NewPublisher(rdb, cfg.RealtimeChannelPrefix)

	services := api.Services{
		Auth:          service.NewAuthService(userRepo, tokens),
		Users:         service.NewUserService(userRepo, questionRepo, answerRepo, pictures),
		Questions:     service.NewQuestionService(db, questionRepo, answerRepo, tagRepo),
		Answers:       service.NewAnswerService(db, answerRepo, questionRepo, notifications, publisher, appLog.Entry),
		Votes:         service.NewVoteService(db, questionRepo, answerRepo, voteRepo, userRepo, m, notifications, publisher, appLog.Entry),
		Opportunities: service.NewOpportunityService(repository.NewPgOpportunityRepository(db)),
		Tags:          service.NewTagService(tagRepo, questionRepo),
		Search:        service.NewSearchService(questionRepo, answerRepo),
		Notifications: service.NewNotificationService(notificationRepo),
		Mentors:       service.NewMentorService(repository.NewPgMentorRepository(db)),
	}

	// 8. Background workers, tracked so the pools outlive them on shutdown
	var wg sync.WaitGroup
	notificationWorker := worker.NewNotificationWorker(notifications, userRepo, notificationRepo, m, appLog.Entry)
	background(&wg, func() { notificationWorker.Start(ctx) })

	hub := realtime.NewHub(appLog.Entry, cfg.FrontendURL)
	subscriber := realtime.NewSubscriber(rdb, hub, cfg.RealtimeChannelPrefix, appLog.Entry)
	background(&wg, func() {
		if err := subscriber.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			appLog.WithError(err).Error("Realtime subscriber stopped")
		}
	})

	background(&wg, func() {
		t := time.NewTicker(poolStatsInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				m.RecordDBPoolStats(db.Stats())
			}
		}
	})

	// 9. Initialize Router & HTTP Server
	router := api.NewRouter(api.RouterConfig{
		FrontendURL:    cfg.FrontendURL,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Tokens:         tokens,
		Users:          userRepo,
		Log:            appLog.Entry,
		Metrics:        m,
		Realtime:       http.HandlerFunc(hub.ServeWS),
	}, services)

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 65 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 10. Graceful Shutdown
	go func() {
		appLog.WithField("port", cfg.APIPort).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.WithError(err).Fatal("Could not listen")
		}
	}()

	<-ctx.Done()
	appLog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLog.WithError(err).Error("Server shutdown failed")
	}
	if !waitFor(shutdownCtx, &wg) {
		appLog.Warn("Background workers did not stop before the shutdown deadline")
	}
	appLog.Info("Server and workers stopped")
}

// background runs fn on its own goroutine and tracks it in wg.
func background(wg *sync.WaitGroup, fn func()) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		fn()
	}()
}

// waitFor blocks until wg drains or ctx ends and reports whether wg drained.
func waitFor(ctx context.Context, wg *sync.WaitGroup) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
