package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apodboard/backend/internal/config"
	"github.com/apodboard/backend/internal/handlers"
	"github.com/apodboard/backend/internal/services"
	"github.com/apodboard/backend/internal/storage"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.StoreDriver, err)
	}
	defer store.Close(context.Background())

	tokens, err := services.NewTokenService(cfg.JWTSecret, cfg.JWTExpiration)
	if err != nil {
		log.Fatalf("Failed to initialize token service: %v", err)
	}
	templates, err := handlers.LoadTemplates()
	if err != nil {
		log.Fatalf("Failed to load templates: %v", err)
	}

	// Initialize services
	userService := services.NewUserService(store, services.NewPasswordHasher(cfg.PasswordSalt))
	policy := services.NewAccessPolicy(store)
	voteService := services.NewVoteService(store)
	postService := services.NewPostService(store)
	nasa := services.NewNASAClient(cfg.NASAAPIKey, cfg.NASAAPIURL, cfg.NASATimeout)
	apodService := services.NewApodService(store, nasa)

	router := handlers.NewRouter(handlers.Deps{
		Tokens: tokens,
		Policy: policy,
		Auth:   handlers.NewAuthHandler(userService, tokens, cfg.CookieSecure),
		Posts:  handlers.NewPostHandler(postService),
		Votes:  handlers.NewVoteHandler(voteService),
		Apod:   handlers.NewApodHandler(apodService),
		Admin:  handlers.NewAdminHandler(userService),
		Pages:  handlers.NewPageHandler(policy, voteService, templates),
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("APOD server starting on %s (store=%s)", cfg.ServerAddress, cfg.StoreDriver)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed to start: %v", err)
	}
}
