package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	apiConfig "fre_viewer/pkg/api/config"
	"fre_viewer/pkg/api/documents"
	"fre_viewer/pkg/core/app"
	"fre_viewer/pkg/core/config"
)

func main() {
	configPath := flag.String("config", "", "config file (default: $FRE_CONFIG or config/fre.yaml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("[FATAL] %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		fmt.Printf("[FATAL] %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	mux := http.NewServeMux()

	// Document endpoints
	documents.NewHandler(a.Pipeline).Register(mux)

	// Config endpoints
	configHandler := apiConfig.NewHandler(a.Agents, cfg.Summary.Backend)
	mux.HandleFunc("/api/config", configHandler.HandleConfig)
	mux.HandleFunc("/api/config/switch", configHandler.HandleSwitch)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{Addr: addr, Handler: mux}

	fmt.Printf("API server starting on %s...\n", addr)
	fmt.Println("  - GET  /api/companies?q=")
	fmt.Println("  - GET  /api/items")
	fmt.Println("  - GET  /api/document?company=&item=")
	fmt.Println("  - GET  /api/document/url?company=&item=")
	fmt.Println("  - POST /api/summary")
	fmt.Println("  - GET  /api/enrichment?company=")
	fmt.Println("  - POST /api/catalog/refresh")
	fmt.Println("  - GET  /api/history")
	fmt.Println("  - DELETE /api/session")
	fmt.Println("  - GET  /api/config")
	fmt.Println("  - POST /api/config/switch")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[App] shutdown: %v", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Printf("[FATAL] Server failed to start: %v\n", err)
		os.Exit(1)
	}
}
