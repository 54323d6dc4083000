package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vedran77/feedline/internal/config"
	"github.com/vedran77/feedline/internal/database"
	"github.com/vedran77/feedline/internal/repository"
	"github.com/vedran77/feedline/internal/repository/memory"
	postgresrepo "github.com/vedran77/feedline/internal/repository/postgres"
	"github.com/vedran77/feedline/internal/seed"
	"github.com/vedran77/feedline/internal/service"
	"github.com/vedran77/feedline/internal/transport/http/router"
	"github.com/vedran77/feedline/internal/transport/ws"
	"github.com/vedran77/feedline/internal/upload"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Repositories
	var (
		userRepo repository.UserRepository
		postRepo repository.PostRepository
	)
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := database.Connect(ctx, cfg)
		if err != nil {
			log.Fatal(err)
		}
		defer pool.Close()
		log.Println("Connected to database")

		if err := database.Migrate(ctx, pool); err != nil {
			log.Fatal(err)
		}
		userRepo = postgresrepo.NewUserRepo(pool)
		postRepo = postgresrepo.NewPostRepo(pool)
	default:
		log.Println("Using in-memory store; data is lost on restart")
		userRepo = memory.NewUserRepo()
		postRepo = memory.NewPostRepo()
	}

	// Services
	images := upload.NewImageStore(cfg.UploadDir, cfg.MaxUploadBytes)
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL)
	postService := service.NewPostService(postRepo, userRepo, images)

	if err := seed.Apply(ctx, authService, postService, cfg.AdonayPassword, cfg.WellPassword); err != nil {
		log.Fatalf("seed: %v", err)
	}

	// Live feed
	hub := ws.NewHub()
	go hub.Run(ctx)
	postService.SetNotifier(ws.NewHubNotifier(hub))

	srv := &http.Server{
		Addr: fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router.New(router.Deps{
			AuthService:    authService,
			PostService:    postService,
			Hub:            hub,
			UploadDir:      cfg.UploadDir,
			MaxUploadBytes: cfg.MaxUploadBytes,
			CORSOrigins:    cfg.CORSOrigins,
			AccessLog:      os.Stdout,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR shutdown: %v", err)
	}
}
