package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dom/english-proficiency-api/internal/api"
	"github.com/dom/english-proficiency-api/internal/config"
	"github.com/dom/english-proficiency-api/internal/payment"
	"github.com/dom/english-proficiency-api/internal/repository"
	"github.com/dom/english-proficiency-api/internal/repository/postgres"
	"github.com/dom/english-proficiency-api/internal/service"
	"github.com/dom/english-proficiency-api/internal/token"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Initialize database
	db, err := postgres.NewConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	// Initialize repositories
	repos := postgres.NewRepositories(db)
	txm := postgres.NewTxManager(db)

	// Token issuer checks the secure random source at startup
	issuer, err := token.NewIssuer()
	if err != nil {
		log.Fatalf("failed to initialize token issuer: %v", err)
	}

	verifier := payment.NewPaystackVerifier(cfg.PaystackBaseURL, cfg.PaystackSecretKey)

	// Initialize services
	services := service.NewServices(repos, txm, verifier, issuer, cfg)

	// Background cleanup of expired tokens and temp registrations
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go runSweeper(sweepCtx, repos, cfg.SweepInterval)

	// Initialize router
	router := api.NewRouter(services, cfg)

	// Create server
	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// runSweeper periodically deletes expired tokens and temp registrations.
// Expiry is also enforced lazily on every read, so a missed sweep only delays
// reclamation, never correctness.
func runSweeper(ctx context.Context, repos *repository.Repositories, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			if err := repos.Token.DeleteExpired(ctx, now); err != nil {
				log.Printf("ERROR [sweeper] deleting expired tokens: %v", err)
			}
			if err := repos.TempRegistration.DeleteExpired(ctx, now); err != nil {
				log.Printf("ERROR [sweeper] deleting expired registrations: %v", err)
			}
		}
	}
}
