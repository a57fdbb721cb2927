// Command server runs the workshop authentication API.
//
// @title                       Workshop API
// @version                     1.0
// @description                 Staff and client authentication and client account management for the repair shop.
// @BasePath                    /api
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	_ "github.com/repairshop/workshop/docs"
	"github.com/repairshop/workshop/internal/api"
	"github.com/repairshop/workshop/internal/api/handler"
	"github.com/repairshop/workshop/internal/api/metrics"
	"github.com/repairshop/workshop/internal/core/domain"
	"github.com/repairshop/workshop/internal/core/ports"
	"github.com/repairshop/workshop/internal/core/service"
	"github.com/repairshop/workshop/internal/infrastructure/config"
	mongodb "github.com/repairshop/workshop/internal/infrastructure/db/mongo"
	redisdb "github.com/repairshop/workshop/internal/infrastructure/db/redis"
	"github.com/repairshop/workshop/internal/infrastructure/fieldcrypt"
	"github.com/repairshop/workshop/internal/infrastructure/notify"
	"github.com/repairshop/workshop/internal/infrastructure/queue"
	"github.com/repairshop/workshop/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: cfg.AppName,
	})

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	codec, err := fieldcrypt.NewCodec(cfg.Auth.AESKey, fieldcrypt.WithObserver(func(o fieldcrypt.Outcome) {
		metrics.FieldDecryptTotal.WithLabelValues(string(o)).Inc()
	}))
	if err != nil {
		log.Fatal().Err(err).Msg("field encryption key rejected")
	}

	tokens, err := service.NewTokenService([]byte(cfg.Auth.JWTSecret), cfg.Auth.JWTTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("token service")
	}

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connect")
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connect")
	}
	defer func() { _ = rdb.Close() }()

	// Repositories
	clientRepo := mongodb.NewClientRepository(db, codec)
	staffRepo := mongodb.NewStaffRepository(db, codec)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return clientRepo.EnsureIndexes(gctx) })
	g.Go(func() error { return staffRepo.EnsureIndexes(gctx) })
	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("ensure indexes")
	}

	// Credential notices
	mailer := notify.NewLogMailer(logger.Component("mailer"), cfg.AppName, cfg.FrontendURL)
	dispatcher := queue.NewDispatcher(cfg.Notify.Workers, mailer, clientRepo, logger.Component("dispatcher"))
	dispatcher.Start(ctx)

	// Services
	hasher := service.BcryptHasher{}
	throttle := redisdb.NewLoginThrottle(rdb, cfg.Auth.MaxFailures, cfg.Auth.FailureWindow)
	authSvc := service.NewAuthService(clientRepo, staffRepo, hasher, tokens,
		service.WithThrottle(throttle),
		service.WithAuthLogger(logger.Component("auth")),
	)
	clientSvc := service.NewClientService(clientRepo, hasher, dispatcher, logger.Component("clients"))
	staffSvc := service.NewStaffService(staffRepo, hasher)

	bootstrapAdmin(ctx, staffSvc, cfg.Bootstrap, log)

	e := api.NewRouter(api.Deps{
		Log:      log,
		Auth:     authSvc,
		Clients:  clientSvc,
		Staff:    staffSvc,
		Tokens:   tokens,
		Resolver: service.NewPrincipalResolver(clientRepo, staffRepo),
		Cookie: handler.CookieConfig{
			Name:   cfg.Auth.CookieName,
			MaxAge: cfg.Auth.CookieMaxAge,
			Secure: cfg.IsProduction(),
		},
		Health: map[string]handler.PingFunc{
			"mongodb": func(ctx context.Context) error { return mongodb.Ping(ctx, mongoClient) },
			"redis":   func(ctx context.Context) error { return redisdb.Ping(ctx, rdb) },
		},
		LoginRate:  rate.Limit(cfg.Auth.LoginRate),
		LoginBurst: cfg.Auth.LoginBurst,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("listening")
		errCh <- e.Start(":" + cfg.Port)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			stop()
			os.Exit(1)
		}
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// bootstrapAdmin creates the configured ADMIN account unless it exists.
func bootstrapAdmin(ctx context.Context, staff ports.StaffService, cfg config.BootstrapConfig, log zerolog.Logger) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return
	}
	_, err := staff.CreateStaff(ctx, ports.CreateStaffInput{
		FirstName: "Admin",
		LastName:  "Admin",
		Email:     cfg.AdminEmail,
		Password:  cfg.AdminPassword,
		Role:      string(domain.RoleAdmin),
	})
	switch {
	case err == nil:
		log.Info().Str("email", cfg.AdminEmail).Msg("bootstrap admin created")
	case errors.Is(err, domain.ErrAlreadyExists):
		log.Debug().Msg("bootstrap admin already present")
	default:
		log.Fatal().Err(err).Msg("bootstrap admin")
	}
}
