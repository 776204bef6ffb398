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

	"github.com/joho/godotenv"

	"github.com/greenpaw/ecobuddies/backend/internal/config"
	"github.com/greenpaw/ecobuddies/backend/internal/handler"
	"github.com/greenpaw/ecobuddies/backend/internal/model/catalog"
	"github.com/greenpaw/ecobuddies/backend/internal/service/ai"
	"github.com/greenpaw/ecobuddies/backend/internal/service/flow"
	sessionservice "github.com/greenpaw/ecobuddies/backend/internal/service/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// The companion catalog is fixed at startup; malformed seed data is a
	// programming error worth dying over.
	catalogStore, err := catalog.NewMemoryStore(catalog.Seed())
	if err != nil {
		log.Fatalf("failed to load companion catalog: %v", err)
	}

	sessionSvc := sessionservice.NewService()

	// Initialize the language model gateway. Without credentials the app
	// still runs: navigation, points and the catalog all work, and only
	// generation-backed pages report the gateway as unavailable.
	var aiSvc *ai.Service
	var gateway flow.Gateway
	if cfg.AI.Enabled() {
		aiSvc, err = ai.NewService(ctx, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize AI gateway: %v", err)
			log.Println("continuing without generated dialogue - check the Ark environment variables")
		} else {
			gateway = aiSvc
			log.Println("AI gateway initialized successfully")
		}
	} else {
		log.Println("Ark credentials not configured, skipping AI gateway")
	}

	machine := flow.NewMachine(sessionSvc, catalogStore, gateway)
	router := handler.NewRouter(catalogStore, machine, aiSvc)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("EcoBuddies backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
