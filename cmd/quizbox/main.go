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

	"github.com/rbuysse/quizbox/internal/api"
	"github.com/rbuysse/quizbox/internal/config"
	"github.com/rbuysse/quizbox/internal/service"
	"github.com/rbuysse/quizbox/internal/store"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Generate(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	db, err := store.Open(cfg.DatabaseDriver, cfg.DatabaseDSN, cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close(db)

	if n, err := service.NewThemeService(db).SeedDefaults(ctx); err != nil {
		return err
	} else if n > 0 {
		log.Printf("Seeded %d default themes", n)
	}

	if cfg.SeedDefaults {
		n, err := service.NewAdminService(db).SeedDefaultQuizzes(ctx)
		if err != nil {
			return err
		}
		log.Printf("Inserted %d default quizzes", n)
		return nil
	}

	sessions, cleanup, err := openSessionStore(ctx, cfg, db)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr: cfg.Bind,
		Handler: api.NewServer(db, sessions, api.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			CookieSecure:   cfg.CookieSecure,
		}).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.Debug {
		fmt.Println("Debug mode is enabled")
	}

	fmt.Printf("Server is running on http://%s\n"+
		"Database driver is %s\n"+
		"Sessions are stored in %s\n",
		cfg.Bind, cfg.DatabaseDriver, cfg.SessionStore)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if cleanup != nil {
		g.Go(func() error {
			cleanup(ctx)
			return nil
		})
	}

	return g.Wait()
}

// openSessionStore returns the configured store and, for the database store,
// a loop that removes expired sessions every hour.
func openSessionStore(ctx context.Context, cfg config.Config, db *gorm.DB) (service.SessionStore, func(context.Context), error) {
	if cfg.SessionStore == config.SessionStoreRedis {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		return service.NewRedisSessionStore(client), nil, nil
	}

	sessions := service.NewDBSessionStore(db)
	cleanup := func(ctx context.Context) {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := sessions.CleanupExpired(ctx)
				if err != nil {
					log.Printf("Error cleaning up expired sessions: %v", err)
				} else if n > 0 {
					log.Printf("Removed %d expired sessions", n)
				}
			}
		}
	}
	return sessions, cleanup, nil
}
