package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/VaibhavAI05/TasteRail/internal/application/auth"
	"github.com/VaibhavAI05/TasteRail/internal/audit"
	"github.com/VaibhavAI05/TasteRail/internal/config"
	"github.com/VaibhavAI05/TasteRail/internal/infrastructure/db/migrations"
	"github.com/VaibhavAI05/TasteRail/internal/infrastructure/db/postgres"
	"github.com/VaibhavAI05/TasteRail/internal/infrastructure/email"
	"github.com/VaibhavAI05/TasteRail/internal/infrastructure/media"
	"github.com/VaibhavAI05/TasteRail/internal/infrastructure/memory"
	rabbitmq_pub "github.com/VaibhavAI05/TasteRail/internal/infrastructure/messaging/rabbitmq"
	"github.com/VaibhavAI05/TasteRail/internal/infrastructure/redis"
	"github.com/VaibhavAI05/TasteRail/internal/infrastructure/security"
	"github.com/VaibhavAI05/TasteRail/internal/logger"
	http_handlers "github.com/VaibhavAI05/TasteRail/internal/transport/http/handlers"
	"github.com/VaibhavAI05/TasteRail/internal/transport/http/middleware"
	"github.com/VaibhavAI05/TasteRail/internal/transport/http/response"
	"github.com/VaibhavAI05/TasteRail/internal/transport/http/router"
)

/*
========================
 Public entry (prod)
========================
*/

func NewServer() (*http.Server, func(), error) {
	return newServer(defaultDeps())
}

// NewServerWithDeps allows injecting dependencies for testing
func NewServerWithDeps(deps Deps) (*http.Server, func(), error) {
	return newServer(deps)
}

/*
========================
 Dependency injection
========================
*/

type Deps struct {
	LoadConfig func() (*config.Config, error)

	NewDB   func(addr string, debug bool) (*sql.DB, error)
	Migrate func(ctx context.Context, db *sql.DB) error

	NewRedis func(addr, password string, db int) RedisClient

	NewMailer func(cfg *config.Config, lg zerolog.Logger) (auth.Mailer, error)
	NewMedia  func(ctx context.Context, cfg *config.Config, lg zerolog.Logger) (auth.MediaStore, error)

	NewRouter func(router.Deps) (http.Handler, error)
}

type RedisClient interface {
	Ping(ctx context.Context) error
	Close() error
}

/*
========================
 Core bootstrap logic
========================
*/

func newServer(deps Deps) (*http.Server, func(), error) {
	lg := logger.Logger

	// 0) config
	cfg, err := deps.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	var cleanupFns []func()
	fail := func(err error) (*http.Server, func(), error) {
		runCleanup(cleanupFns)
		return nil, nil, err
	}

	// 1) credential store: postgres, or memory in dev without DB_ADDR
	var (
		baseRepo auth.UserRepo
		seedRepo postgres.SeederRepo
		readyDB  http_handlers.Pinger
	)
	if cfg.DBAddr != "" {
		db, err := deps.NewDB(cfg.DBAddr, cfg.IsDev())
		if err != nil {
			return fail(err)
		}
		cleanupFns = append(cleanupFns, func() { _ = db.Close() })

		if cfg.DBMigrate && deps.Migrate != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			err := deps.Migrate(ctx, db)
			cancel()
			if err != nil {
				return fail(err)
			}
			lg.Info().Msg("database migrations applied")
		}

		repo := postgres.NewUserRepo(db)
		baseRepo, seedRepo = repo, repo
		readyDB = http_handlers.PingFunc(db.PingContext)
	} else {
		if !cfg.IsDev() {
			return fail(errors.New("bootstrap: DB_ADDR is required outside dev"))
		}
		lg.Warn().Msg("DB_ADDR not set; using in-memory credential store")
		repo := memory.NewUserRepo()
		baseRepo, seedRepo = repo, repo
	}

	// 2) redis (best-effort)
	var redisCli RedisClient
	if cfg.RedisAddr != "" && deps.NewRedis != nil {
		c := deps.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := c.Ping(ctx)
		cancel()

		if err != nil {
			lg.Warn().Err(err).Msg("redis unavailable; cache disabled")
			_ = c.Close()
		} else {
			lg.Info().Msg("redis connected")
			redisCli = c
			cleanupFns = append(cleanupFns, func() { _ = c.Close() })
		}
	}

	// wrap repo with cache
	userRepo := baseRepo
	var readyRedis http_handlers.Pinger
	if rc, ok := redisCli.(*redis.Client); ok {
		userRepo = redis.NewCachedUserRepo(baseRepo, rc, cfg.AccountCacheTTL).WithLogger(lg)
		readyRedis = rc
	}

	// 3) notifications
	mailer, err := deps.NewMailer(cfg, lg)
	if err != nil {
		if !cfg.IsDev() {
			return fail(err)
		}
		lg.Warn().Err(err).Str("transport", cfg.MailTransport).Msg("mailer unavailable; logging notifications instead")
		mailer = email.NewLogMailer(lg)
	}
	if c, ok := mailer.(interface{ Close() error }); ok {
		cleanupFns = append(cleanupFns, func() { _ = c.Close() })
	}

	// 4) media
	mediaStore, err := deps.NewMedia(context.Background(), cfg, lg)
	if err != nil {
		return fail(err)
	}

	// 5) security
	hasher := security.NewBcryptHasher(cfg.BcryptCost)
	signer := security.NewJWTSigner(cfg.SecretKey, security.DefaultIssuer)

	// seed (dev only)
	if cfg.IsDev() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		postgres.SeedUsers(ctx, seedRepo, hasher, lg)
		cancel()
	}

	// 6) service
	auditLog := audit.New(lg)
	authSvc := auth.NewService(
		userRepo,
		hasher,
		signer,
		mailer,
		mediaStore,
		auth.Config{
			SessionTTL:      cfg.SessionTTL,
			VerificationTTL: cfg.VerificationTTL,
			ResetTTL:        cfg.ResetTTL,
			FrontendURL:     cfg.FrontendURL,
		},
	).WithAudit(auditLog.Record).WithLogger(lg)

	// 7) handlers + middleware
	secureCookies := !cfg.IsDev()

	accountH := http_handlers.NewAccountHandler(authSvc, secureCookies, cfg.MaxUploadSize)
	healthH := http_handlers.NewHealthHandler(map[string]http_handlers.Pinger{
		"database": readyDB,
		"redis":    readyRedis,
	})

	var rateLimitMW func(http.Handler) http.Handler
	if cfg.RLEnabled && cfg.RLLimit > 0 {
		rateLimitMW = middleware.RateLimitByIP(cfg.RLLimit, cfg.RLWindow, response.WriteError)
	}

	// 8) router
	mux, err := deps.NewRouter(router.Deps{
		Health:      healthH,
		Account:     accountH,
		RequestIDMW: middleware.RequestID,
		AccessLogMW: middleware.AccessLog,
		MetricsMW:   middleware.Metrics,
		AuthMW:      middleware.Auth(signer, response.WriteError),
		RateLimitMW: rateLimitMW,
	})
	if err != nil {
		return fail(err)
	}

	// 9) server
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	cleanup := func() {
		runCleanup(cleanupFns)
	}

	return srv, cleanup, nil
}

/*
========================
 Default deps (prod)
========================
*/

func defaultDeps() Deps {
	return Deps{
		LoadConfig: config.Load,
		NewDB:      config.NewDB,
		Migrate:    migrations.Up,
		NewRedis: func(addr, password string, db int) RedisClient {
			return redis.New(addr, password, db)
		},
		NewMailer: newMailer,
		NewMedia:  newMedia,
		NewRouter: router.New,
	}
}

func newMailer(cfg *config.Config, lg zerolog.Logger) (auth.Mailer, error) {
	switch cfg.MailTransport {
	case "smtp":
		return email.NewSMTPMailer(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPass,
			From:     cfg.SMTPFrom,
			Timeout:  cfg.SMTPTimeout,
			Insecure: cfg.SMTPInsecure,

			VerificationTTL: cfg.VerificationTTL,
			ResetTTL:        cfg.ResetTTL,
		}, lg), nil
	case "rabbitmq":
		pub, err := rabbitmq_pub.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange, lg)
		if err != nil {
			return nil, err
		}
		return pub, nil
	default:
		return email.NewLogMailer(lg), nil
	}
}

func newMedia(ctx context.Context, cfg *config.Config, lg zerolog.Logger) (auth.MediaStore, error) {
	if cfg.MediaDriver != "s3" {
		return media.NewNoopStore(cfg.MaxUploadSize), nil
	}
	store, err := media.NewS3Store(ctx, media.S3Config{
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
		Bucket:          cfg.S3Bucket,
		UsePathStyle:    cfg.S3UsePathStyle,
		PublicBaseURL:   cfg.MediaPublicBaseURL,
		MaxUploadSize:   cfg.MaxUploadSize,
	}, lg)
	if err != nil {
		return nil, err
	}
	return store, nil
}

/*
========================
 helpers
========================
*/

func runCleanup(fns []func()) {
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}
