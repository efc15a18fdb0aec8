package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/medrx/medrx/internal/config"
	"github.com/medrx/medrx/internal/domain/admin"
	"github.com/medrx/medrx/internal/domain/doctor"
	"github.com/medrx/medrx/internal/domain/identity"
	"github.com/medrx/medrx/internal/domain/prescribing"
	"github.com/medrx/medrx/internal/domain/scheduling"
	"github.com/medrx/medrx/internal/platform/apperror"
	"github.com/medrx/medrx/internal/platform/auth"
	"github.com/medrx/medrx/internal/platform/db"
	"github.com/medrx/medrx/internal/platform/memstore"
	"github.com/medrx/medrx/internal/platform/middleware"
	"github.com/medrx/medrx/pkg/clock"
)

const bodyLimit = "1M"

// storage is the set of repositories the server runs on, either all on
// Postgres or all on the in-memory store.
type storage struct {
	users         identity.UserRepository
	doctors       doctor.ProfileRepository
	appointments  scheduling.AppointmentRepository
	prescriptions prescribing.PrescriptionRepository
	stats         admin.StatsRepository
	tx            db.Transactor
	pool          *pgxpool.Pool
}

func memoryStorage() *storage {
	s := memstore.New()
	return &storage{
		users:         s.Users(),
		doctors:       s.Doctors(),
		appointments:  s.Appointments(),
		prescriptions: s.Prescriptions(),
		stats:         s.Stats(),
		tx:            s,
	}
}

func postgresStorage(pool *pgxpool.Pool) *storage {
	return &storage{
		users:         identity.NewUserRepoPG(pool),
		doctors:       doctor.NewProfileRepoPG(pool),
		appointments:  scheduling.NewAppointmentRepoPG(pool),
		prescriptions: prescribing.NewPrescriptionRepoPG(pool),
		stats:         admin.NewStatsRepoPG(pool),
		tx:            db.NewTransactor(pool),
		pool:          pool,
	}
}

// deps is everything newServer needs that is not derived from config.
type deps struct {
	store   *storage
	limiter middleware.Limiter
	clock   clock.Clock
	secret  []byte
}

// resolveJWTSecret returns the configured secret. Development may run
// without one, in which case a random key is generated and every restart
// invalidates outstanding tokens.
func resolveJWTSecret(cfg *config.Config, logger zerolog.Logger) ([]byte, error) {
	if cfg.JWTSecret != "" {
		return []byte(cfg.JWTSecret), nil
	}
	if !cfg.IsDev() {
		return nil, fmt.Errorf("JWT_SECRET is required outside development")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate JWT secret: %w", err)
	}
	logger.Warn().Msg("JWT_SECRET not set; using a random key, tokens will not survive a restart")
	return key, nil
}

func rateLimitConfig(cfg *config.Config) middleware.RateLimitConfig {
	rc := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rc.RequestsPerSecond <= 0 || rc.BurstSize <= 0 {
		return middleware.DefaultRateLimitConfig()
	}
	return rc
}

func newServer(cfg *config.Config, d deps, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apperror.HTTPErrorHandler(logger)

	rateCfg := rateLimitConfig(cfg)
	limiter := d.limiter
	if limiter == nil {
		limiter = middleware.NewMemoryLimiter(rateCfg)
	}

	st := d.store
	tokens := auth.NewTokenService(d.secret, cfg.JWTIssuer, cfg.AccessTokenTTL, d.clock)

	identitySvc := identity.NewService(st.users, auth.NewBcryptHasher(cfg.BcryptCost), tokens, d.clock,
		identity.Options{AllowAdminSignup: cfg.AllowAdminSignup})
	doctorSvc := doctor.NewService(st.doctors, d.clock)
	schedulingSvc := scheduling.NewService(st.appointments, st.tx, d.clock)
	prescribingSvc := prescribing.NewService(st.prescriptions, schedulingSvc, st.tx, d.clock)
	adminSvc := admin.NewService(st.stats)

	var authn auth.Authenticator = auth.NewGuard(tokens, identitySvc)
	if cfg.UsesRemoteAuth() {
		authn = auth.NewRemoteValidator(cfg.AuthServiceURL, nil)
	}

	// Global middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Recovery(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders:  []string{echo.HeaderAuthorization, echo.HeaderContentType, middleware.RequestIDHeader},
		ExposeHeaders: []string{"X-Total-Count", middleware.RequestIDHeader},
	}))
	e.Use(middleware.SecurityHeaders(cfg.TLSEnabled))
	e.Use(middleware.BodyLimit(bodyLimit))
	e.Use(middleware.RateLimit(limiter, rateCfg, logger))
	e.Use(auth.Authenticate(authn, auth.AuthSkipper))
	e.Use(middleware.Audit(logger))

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"message": "medrx appointment and e-prescription API",
			"version": version,
		})
	})
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
			"storage": cfg.Storage,
		})
	})
	if st.pool != nil {
		e.GET("/health/db", db.HealthHandler(st.pool, logger))
	}

	api := e.Group("")
	identity.NewHandler(identitySvc).RegisterRoutes(api)
	doctor.NewHandler(doctorSvc).RegisterRoutes(api)
	scheduling.NewHandler(schedulingSvc).RegisterRoutes(api)
	prescribing.NewHandler(prescribingSvc).RegisterRoutes(api)
	admin.NewHandler(adminSvc).RegisterRoutes(api)

	return e
}

func runServer(cfg *config.Config, logger zerolog.Logger) error {
	ctx := context.Background()

	secret, err := resolveJWTSecret(cfg, logger)
	if err != nil {
		return err
	}

	var st *storage
	switch cfg.Storage {
	case "memory":
		logger.Warn().Msg("using in-memory storage; data is lost on restart")
		st = memoryStorage()
	default:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns, logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer pool.Close()
		logger.Info().Msg("connected to database")
		st = postgresStorage(pool)
	}

	d := deps{store: st, clock: clock.Real(), secret: secret}
	if cfg.RedisURL != "" {
		client, err := middleware.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		d.limiter = middleware.NewRedisLimiter(client, rateLimitConfig(cfg))
		logger.Info().Msg("rate limiting through redis")
	}

	e := newServer(cfg, d, logger)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("storage", cfg.Storage).Str("auth_mode", cfg.AuthMode).Msg("starting server")
		var err error
		if cfg.TLSEnabled {
			err = e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = e.Start(addr)
		}
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}
