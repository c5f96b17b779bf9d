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

	"github.com/gin-gonic/gin"
	"github.com/rbuysse/quizbox/internal/config"
	"github.com/rbuysse/quizbox/internal/edge"
)

func main() {
	cfg, err := config.GenerateEdge(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	server, err := edge.NewServer(edge.NewClient(cfg.BackendURL), edge.NewSessions(cfg.SessionSecret, cfg.CookieSecure))
	if err != nil {
		log.Fatalf("Failed to load templates: %v", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.Bind,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	fmt.Printf("Edge server is running on http://%s\n"+
		"Backend is %s\n",
		cfg.Bind, cfg.BackendURL)

	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
