package di

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"auth_backend/internal/app/config"
	"auth_backend/internal/app/router"
	authhandler "auth_backend/internal/feature/auth/transport/handler"
	"auth_backend/internal/feature/auth/usecase"
	"auth_backend/internal/platform/cache"
	"auth_backend/internal/platform/clock"
	infrahandler "auth_backend/internal/platform/http/handler"
	jwtmw "auth_backend/internal/platform/jwt"
	"auth_backend/internal/platform/mail"
	"auth_backend/internal/platform/metrics"
	"auth_backend/internal/platform/password"
	infraredis "auth_backend/internal/platform/redis"
	"auth_backend/internal/platform/resettoken"
	"auth_backend/internal/platform/sessioncookie"
	"auth_backend/internal/shared/ratelimiter"
)

// App is the assembled service.
type App struct {
	Router   *gin.Engine
	Store    *Store
	Sessions usecase.SessionRepository

	redis         *redis.Client
	notifications notificationWaiter
}

// notificationWaiter waits for reset emails sent after the response.
type notificationWaiter interface {
	WaitForNotifications(ctx context.Context) error
}

// Build connects to the configured backends and wires the HTTP service.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	clk := clock.Real()

	// db
	store, err := OpenStore(ctx, cfg, clk)
	if err != nil {
		return nil, err
	}
	if cfg.RunMigrations {
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close(ctx)
			return nil, err
		}
	}
	app := &App{Store: store}

	// Redis
	var rdb redis.Cmdable
	if cfg.RedisAddr != "" {
		client, err := infraredis.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			logger.Warn("Redis unavailable. Running without cache.", "error", err)
		} else {
			app.redis = client
			rdb = client
		}
	}

	// Repository
	var users usecase.UserRepository = store.Users
	if rdb != nil {
		// Redisキャッシュでラップ
		users = cache.NewCachingUserRepository(rdb, cfg.UserCacheTTL, users, "users")
	}
	sessions := NewSessionRepository(rdb, store.Sessions, clk)
	app.Sessions = sessions

	var notifier usecase.ResetNotifier
	if cfg.EmailEnabled() {
		ses, err := mail.NewSESNotifier(ctx, cfg.SESRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.EmailTimeout)
		if err != nil {
			_ = app.Close(ctx)
			return nil, err
		}
		notifier = ses
	} else {
		if cfg.IsProduction() {
			logger.Warn("SES_FROM_EMAIL is not set. Reset links are only logged.")
		}
		notifier = mail.NewLogNotifier(logger)
	}

	var limiterStore ratelimiter.Store = ratelimiter.NewMemoryStore(clk)
	if rdb != nil {
		limiterStore = ratelimiter.NewRedisStore(rdb, "ratelimit")
	}

	// Usecase
	authUC := usecase.NewAuthUsecase(usecase.Dependencies{
		Users:    users,
		Sessions: sessions,
		Hasher:   password.NewBcryptHasher(cfg.BcryptCost, 0),
		Resets:   resettoken.NewGenerator(cfg.ResetTokenTTL, clk),
		Tokens:   jwtmw.NewManager(cfg.JWTSecret, clk),
		Notifier: notifier,
		Clock:    clk,
	}, usecase.Options{
		SessionTTL:          cfg.SessionTTL,
		MaxSessionsPerUser:  cfg.MaxSessionsPerUser,
		NotificationTimeout: cfg.EmailTimeout,
	})
	app.notifications = authUC

	// Handler
	m := metrics.New()
	authH := authhandler.NewAuthHandler(
		authUC,
		sessioncookie.NewIssuer(cfg.CookieSecure, cfg.CookieDomain, clk),
		m,
		authhandler.Options{Production: cfg.IsProduction(), ResetBaseURL: cfg.AppBaseURL},
	)

	checks := map[string]infrahandler.Check{"store": store.Ping}
	if app.redis != nil {
		client := app.redis
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}

	// ルータ生成
	r, err := router.NewRouter(router.Deps{
		Auth:           authH,
		Sessions:       authUC,
		Limiters:       router.NewLimiters(limiterStore, clk),
		Metrics:        m,
		Logger:         logger,
		Health:         checks,
		Production:     cfg.IsProduction(),
		TrustedProxies: cfg.TrustedProxies,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		StaticDir:      cfg.StaticDir,
		MaxBodyBytes:   cfg.MaxBodyBytes,
	})
	if err != nil {
		_ = app.Close(ctx)
		return nil, err
	}
	app.Router = r
	return app, nil
}

// PruneExpiredSessions deletes sessions past their expiry from the session store.
func (a *App) PruneExpiredSessions(ctx context.Context) (int64, error) {
	return a.Sessions.DeleteExpired(ctx)
}

// WaitForNotifications blocks until reset emails already accepted have been sent or ctx is done.
func (a *App) WaitForNotifications(ctx context.Context) error {
	if a.notifications == nil {
		return nil
	}
	return a.notifications.WaitForNotifications(ctx)
}

// Close waits for pending reset emails, then releases the store and Redis connections.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.WaitForNotifications(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close(ctx))
	}
	return errors.Join(errs...)
}
