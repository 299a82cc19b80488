// Package server wires the AR content backend together: it opens the
// database, applies migrations, builds the services and runs the HTTP API
// until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dmitrijs2005/arcms/internal/logging"
	"github.com/dmitrijs2005/arcms/internal/server/auth"
	"github.com/dmitrijs2005/arcms/internal/server/config"
	"github.com/dmitrijs2005/arcms/internal/server/httpapi"
	"github.com/dmitrijs2005/arcms/internal/server/metrics"
	"github.com/dmitrijs2005/arcms/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/arcms/internal/server/services"
	"github.com/dmitrijs2005/arcms/internal/server/storage"
)

const tokenPurgeInterval = time.Hour

var (
	// openDB is a seam for tests.
	openDB = func(dsn string) (*sql.DB, error) {
		return sql.Open("pgx", dsn)
	}

	// newRepositoryManager is a seam for tests.
	newRepositoryManager = repomanager.NewPostgresRepositoryManager

	// newS3Storage is a seam for tests.
	newS3Storage = storage.NewS3Storage
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	userService *services.UserService
	handler     http.Handler
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := newRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	var uploader services.Uploader
	if c.StorageEnabled() {
		s3, err := newS3Storage(ctx, storage.Options{
			Endpoint:        c.StorageEndpoint(),
			Region:          c.R2Region,
			AccessKeyID:     c.R2AccessKeyID,
			SecretAccessKey: c.R2SecretAccessKey,
			Bucket:          c.R2Bucket,
			PublicURL:       c.R2PublicURL,
		})
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("storage init error: %w", err)
		}
		uploader = s3
	} else {
		logger.Warn(ctx, "Object storage is not configured, upload URLs are disabled")
	}

	issuer := auth.NewIssuer(c.JWTSecret, c.JWTRefreshSecret, c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration)

	us := services.NewUserService(db, rm, issuer)
	ps := services.NewProjectService(db, rm)
	ss := services.NewSceneService(db, rm, uploader,
		services.LimitsFromMB(c.MaxFileSizeMB, c.MaxTriggerImageSizeMB, c.MaxAudioSizeMB))

	h := httpapi.NewHandler(us, ps, ss, issuer, logger, c.ViewerURL)
	router := httpapi.NewRouter(h, httpapi.Options{
		AllowedOrigins:  c.AllowedOrigins,
		RateLimitMax:    c.RateLimitMax,
		RateLimitWindow: c.RateLimitWindow,
		Development:     c.IsDevelopment(),
	})

	return &App{config: c, logger: logger, db: db, userService: us, handler: router}, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(app.config.Addr(), app.handler, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// purgeExpiredTokens drops refresh token rows past their expiry once per
// tokenPurgeInterval until ctx is done.
func (app *App) purgeExpiredTokens(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := app.userService.PurgeExpiredTokens(ctx)
			if err != nil {
				app.logger.Error(ctx, "Refresh token purge failed", "error", err.Error())
				continue
			}
			metrics.RefreshTokensPurged(n)
			if n > 0 {
				app.logger.Info(ctx, "Purged expired refresh tokens", "count", n)
			}
		}
	}
}

// Run serves until SIGINT/SIGTERM/SIGQUIT or ctx cancellation, then closes
// the database.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "environment", app.config.Environment)

	app.initSignalHandler(ctx, cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.purgeExpiredTokens(ctx, tokenPurgeInterval)
	}()

	wg.Wait()

	app.logger.Info(context.Background(), "App stopped")
	return app.db.Close()
}
