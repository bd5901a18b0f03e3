// Socratic Tutor chat server.
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

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/tutorlab/socratic-tutor/api"
	"github.com/tutorlab/socratic-tutor/config"
	"github.com/tutorlab/socratic-tutor/llm"
	"github.com/tutorlab/socratic-tutor/store"
	"github.com/tutorlab/socratic-tutor/tutor"
	"github.com/tutorlab/socratic-tutor/web"
	"github.com/tutorlab/socratic-tutor/ws"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using environment variables")
	}

	cfg := config.Load()

	log.Printf("Starting tutor server...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Store backend: %s", cfg.StoreBackend)
	log.Printf("Model: %s", cfg.Model)

	// Initialize store
	db, err := newStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer db.Close()

	// Initialize LLM client
	llmClient := llm.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.LLMTimeout)

	// Initialize service and handlers
	svc := tutor.New(db, llmClient, cfg)
	h := api.NewHandler(svc, db)
	wsH := ws.NewHandler(svc)

	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Routes
	h.RegisterRoutes(e)
	wsH.RegisterRoutes(e)
	web.RegisterRoutes(e)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Server started on port %d", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}

	log.Println("Server stopped")
}

// newStore builds the configured store backend.
func newStore(cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendSQLite:
		return store.NewSQLiteStore(cfg.DatabaseURL)
	case config.BackendMemory:
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %q", cfg.StoreBackend)
	}
}
