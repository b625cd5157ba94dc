package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VaibhavAI05/TasteRail/internal/application/auth"
	"github.com/VaibhavAI05/TasteRail/internal/config"
	"github.com/VaibhavAI05/TasteRail/internal/infrastructure/email"
	"github.com/VaibhavAI05/TasteRail/internal/infrastructure/redis"
	"github.com/VaibhavAI05/TasteRail/internal/infrastructure/security"
	"github.com/VaibhavAI05/TasteRail/internal/transport/http/router"
)

func devConfig() *config.Config {
	return &config.Config{
		Env:             "dev",
		HTTPAddr:        ":0",
		SecretKey:       "wire-test-secret",
		SessionTTL:      time.Hour,
		BcryptCost:      4,
		FrontendURL:     "http://frontend.test",
		VerificationTTL: 24 * time.Hour,
		ResetTTL:        time.Hour,
		AccountCacheTTL: time.Minute,
		MailTransport:   "log",
		MediaDriver:     "noop",
		MaxUploadSize:   1 << 20,
	}
}

// testDeps wires everything in memory; tests override single fields.
func testDeps(cfg *config.Config) Deps {
	return Deps{
		LoadConfig: func() (*config.Config, error) { return cfg, nil },
		NewDB: func(string, bool) (*sql.DB, error) {
			return nil, errors.New("NewDB must not be called")
		},
		NewRedis: func(addr, password string, db int) RedisClient {
			return redis.New(addr, password, db)
		},
		NewMailer: func(*config.Config, zerolog.Logger) (auth.Mailer, error) {
			return email.NewLogMailer(zerolog.Nop()), nil
		},
		NewMedia:  newMedia,
		NewRouter: router.New,
	}
}

func do(t *testing.T, h http.Handler, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestNewServer_ConfigLoadFails(t *testing.T) {
	deps := testDeps(devConfig())
	deps.LoadConfig = func() (*config.Config, error) { return nil, errors.New("missing SECRET_KEY") }

	srv, cleanup, err := NewServerWithDeps(deps)
	require.Error(t, err)
	assert.Nil(t, srv)
	assert.Nil(t, cleanup)
}

func TestNewServer_DevWithoutDB_UsesMemoryStore(t *testing.T) {
	srv, cleanup, err := NewServerWithDeps(testDeps(devConfig()))
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, ":0", srv.Addr)

	rr := do(t, srv.Handler, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rr.Code, "no dependencies to check")

	rr = do(t, srv.Handler, http.MethodPost, "/api/v1/user/signup",
		`{"fullname":"alice","email":"a@x.io","password":"pw1"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("X-Request-Id"))

	var session *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == security.SessionCookieName {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.False(t, session.Secure, "dev cookies are not Secure")

	rr = do(t, srv.Handler, http.MethodGet, "/api/v1/user/check-auth", "", session)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"fullname":"alice"`)
}

func TestNewServer_RateLimit_OffByDefault_OptIn(t *testing.T) {
	login := `{"fullname":"ghost","password":"pw"}`

	srv, cleanup, err := NewServerWithDeps(testDeps(devConfig()))
	require.NoError(t, err)
	for i := 0; i < 30; i++ {
		rr := do(t, srv.Handler, http.MethodPost, "/api/v1/user/login", login)
		require.NotEqual(t, http.StatusTooManyRequests, rr.Code, "attempt %d", i+1)
	}
	cleanup()

	cfg := devConfig()
	cfg.RLEnabled = true
	cfg.RLLimit = 2
	cfg.RLWindow = time.Minute
	srv, cleanup, err = NewServerWithDeps(testDeps(cfg))
	require.NoError(t, err)
	defer cleanup()

	for i := 0; i < 2; i++ {
		rr := do(t, srv.Handler, http.MethodPost, "/api/v1/user/login", login)
		require.Equal(t, http.StatusNotFound, rr.Code, rr.Body.String())
	}
	rr := do(t, srv.Handler, http.MethodPost, "/api/v1/user/login", login)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Contains(t, rr.Body.String(), `"rate_limited"`)
}

func TestNewServer_DevSeedsDemoAccounts(t *testing.T) {
	srv, cleanup, err := NewServerWithDeps(testDeps(devConfig()))
	require.NoError(t, err)
	defer cleanup()

	rr := do(t, srv.Handler, http.MethodPost, "/api/v1/user/login",
		`{"fullname":"demo","password":"DemoPassword123!"}`)
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}

func TestNewServer_ProdWithoutDB_Fails(t *testing.T) {
	cfg := devConfig()
	cfg.Env = "prod"

	_, _, err := NewServerWithDeps(testDeps(cfg))
	assert.Error(t, err)
}

func TestNewServer_DBOpenFails(t *testing.T) {
	cfg := devConfig()
	cfg.DBAddr = "postgres://u:p@localhost:1/db"
	deps := testDeps(cfg)
	deps.NewDB = func(string, bool) (*sql.DB, error) { return nil, errors.New("connection refused") }

	_, _, err := NewServerWithDeps(deps)
	assert.ErrorContains(t, err, "connection refused")
}

func TestNewServer_MigrationFailure_ClosesDB(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	cfg := devConfig()
	cfg.DBAddr = "postgres://u:p@localhost:5432/db"
	cfg.DBMigrate = true
	deps := testDeps(cfg)
	deps.NewDB = func(string, bool) (*sql.DB, error) { return db, nil }
	deps.Migrate = func(context.Context, *sql.DB) error { return errors.New("dirty schema") }

	_, _, err = NewServerWithDeps(deps)
	assert.ErrorContains(t, err, "dirty schema")
	assert.NoError(t, mock.ExpectationsWereMet(), "db must be closed on bootstrap failure")
}

func TestNewServer_ReadyzPingsDatabase(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	cfg := devConfig()
	cfg.Env = "prod"
	cfg.DBAddr = "postgres://u:p@localhost:5432/db"
	deps := testDeps(cfg)
	deps.NewDB = func(string, bool) (*sql.DB, error) { return db, nil }

	srv, _, err := NewServerWithDeps(deps)
	require.NoError(t, err)

	mock.ExpectPing().WillReturnError(errors.New("db down"))
	rr := do(t, srv.Handler, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewServer_MailerFailure_DevFallsBack_ProdFails(t *testing.T) {
	broken := func(*config.Config, zerolog.Logger) (auth.Mailer, error) {
		return nil, errors.New("amqp dial failed")
	}

	deps := testDeps(devConfig())
	deps.NewMailer = broken
	srv, cleanup, err := NewServerWithDeps(deps)
	require.NoError(t, err)
	cleanup()
	assert.NotNil(t, srv)

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	cfg := devConfig()
	cfg.Env = "prod"
	cfg.DBAddr = "postgres://u:p@localhost:5432/db"
	deps = testDeps(cfg)
	deps.NewDB = func(string, bool) (*sql.DB, error) { return db, nil }
	deps.NewMailer = broken

	_, _, err = NewServerWithDeps(deps)
	assert.ErrorContains(t, err, "amqp dial failed")
}

func TestNewServer_RedisUnavailable_Degrades(t *testing.T) {
	cfg := devConfig()
	cfg.RedisAddr = "127.0.0.1:1"

	srv, cleanup, err := NewServerWithDeps(testDeps(cfg))
	require.NoError(t, err)
	defer cleanup()

	rr := do(t, srv.Handler, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rr.Code, "redis is optional")
}

func TestNewServer_RedisAvailable_CachesAccounts(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := devConfig()
	cfg.RedisAddr = mr.Addr()

	srv, cleanup, err := NewServerWithDeps(testDeps(cfg))
	require.NoError(t, err)
	defer cleanup()

	rr := do(t, srv.Handler, http.MethodPost, "/api/v1/user/signup",
		`{"fullname":"carol","email":"c@x.io","password":"pw1"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	session := rr.Result().Cookies()[0]

	rr = do(t, srv.Handler, http.MethodGet, "/api/v1/user/check-auth", "", session)
	require.Equal(t, http.StatusOK, rr.Code)

	assert.NotEmpty(t, mr.Keys(), "check-auth should populate the account cache")
	rr = do(t, srv.Handler, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}
