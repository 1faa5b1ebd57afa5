// Package server wires configuration, storage, external collaborators and
// services together and runs the HTTP API and the gRPC health probe until
// a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/otpauth/internal/logging"
	"github.com/dmitrijs2005/otpauth/internal/server/auth"
	"github.com/dmitrijs2005/otpauth/internal/server/config"
	"github.com/dmitrijs2005/otpauth/internal/server/geo"
	"github.com/dmitrijs2005/otpauth/internal/server/models"
	"github.com/dmitrijs2005/otpauth/internal/server/notify"
	"github.com/dmitrijs2005/otpauth/internal/server/repositories/blacklist"
	"github.com/dmitrijs2005/otpauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/otpauth/internal/server/rest"
	"github.com/dmitrijs2005/otpauth/internal/server/security"
	"github.com/dmitrijs2005/otpauth/internal/server/services"
	"github.com/dmitrijs2005/otpauth/internal/server/storage"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/otpauth/internal/server/grpc"
)

type App struct {
	config         *config.Config
	logger         logging.Logger
	db             *sql.DB
	redis          redis.UniversalClient
	authService    *services.AuthService
	profileService *services.ProfileService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger, err := logging.New(c.LogBackend, os.Stdout)
	if err != nil {
		return nil, err
	}

	if c.SecretKey == "" {
		return nil, errors.New("secret key is not configured")
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db}

	var bl blacklist.Store
	if c.RedisAddr != "" {
		app.redis = redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		bl = blacklist.NewRedisStore(app.redis)
		logger.Info(ctx, "refresh-token blacklist in redis", "address", c.RedisAddr)
	} else {
		bl = rm.Blacklist(db)
	}

	hasher, err := security.NewPasswordHasher(c.PasswordHasher)
	if err != nil {
		app.Close()
		return nil, err
	}

	var notifier notify.Notifier
	if c.SMTPHost != "" {
		notifier = notify.NewSMTPNotifier(c.SMTPHost, c.SMTPPort, c.SMTPUsername, c.SMTPPassword, c.SMTPFrom, c.OTPValidityDuration)
	} else {
		logger.Warn(ctx, "SMTP is not configured, codes are written to the log")
		notifier = notify.NewLogNotifier(logger, c.OTPValidityDuration)
	}

	images, err := storage.NewS3Storage(ctx, c)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("s3 init error: %w", err)
	}

	tokens := auth.NewTokenAuthority([]byte(c.SecretKey), c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration, bl)
	locator := geo.NewIPAPIClient(c.GeoIPBaseURL, c.GeoIPTimeout, logger)

	app.authService = services.NewAuthService(db, rm, hasher, tokens, notifier, locator, logger, c)
	app.profileService = services.NewProfileService(db, rm, images, logger)

	return app, nil
}

// Close releases the database and Redis connections.
func (app *App) Close() {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error(context.Background(), "redis close error", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(context.Background(), "db close error", "error", err)
	}
}

// CreateSuperuser creates an admin identity; it backs cmd/createsuperuser.
func (app *App) CreateSuperuser(ctx context.Context, email, fullName, password string) (*models.User, error) {
	return app.authService.CreateSuperuser(ctx, services.RegisterParams{
		Email:    email,
		Password: password,
		FullName: fullName,
	})
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	h := rest.NewHandler(app.authService, app.profileService, app.logger)
	s := rest.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, h)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.db)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.Close()
	app.logger.Info(context.Background(), "App stopped")
}
