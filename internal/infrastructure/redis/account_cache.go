package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/VaibhavAI05/TasteRail/internal/application/auth"
	"github.com/VaibhavAI05/TasteRail/internal/domain"
)

// CachedUserRepo decorates an auth.UserRepo with a Redis cache for the
// hash-free account projection returned by FindByID.
// - Read path: Redis -> DB fallback -> Redis set
// - Write path (Save / Update): DB -> Redis INCR of the account generation (best effort)
// Entries are keyed by generation, so a fill racing a write lands on a key
// that is never read again. Redis errors never fail a request.
type CachedUserRepo struct {
	inner   auth.UserRepo
	rdb     *goredis.Client
	ttl     time.Duration
	keyPref string
	log     zerolog.Logger
}

func NewCachedUserRepo(inner auth.UserRepo, client *Client, ttl time.Duration) *CachedUserRepo {
	var rdb *goredis.Client
	if client != nil {
		rdb = client.rdb
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedUserRepo{
		inner:   inner,
		rdb:     rdb,
		ttl:     ttl,
		keyPref: "account:",
		log:     zerolog.Nop(),
	}
}

func (c *CachedUserRepo) WithLogger(lg zerolog.Logger) *CachedUserRepo {
	c.log = lg.With().Str("component", "account_cache").Logger()
	return c
}

func (c *CachedUserRepo) key(userID string, gen int64) string {
	return fmt.Sprintf("%s%s:v%d", c.keyPref, userID, gen)
}

func (c *CachedUserRepo) genKey(userID string) string {
	return c.keyPref + userID + ":gen"
}

// generation returns the current cache generation of an account; ok is false
// when redis cannot be read.
func (c *CachedUserRepo) generation(ctx context.Context, userID string) (gen int64, ok bool) {
	gen, err := c.rdb.Get(ctx, c.genKey(userID)).Int64()
	switch {
	case err == nil:
		return gen, true
	case errors.Is(err, goredis.Nil):
		return 0, true
	default:
		c.log.Debug().Err(err).Msg("account cache generation read failed")
		return 0, false
	}
}

// cachedAccount is the cached wire form. Token pairs are cached too so a
// cached read is indistinguishable from a DB read.
type cachedAccount struct {
	User          domain.User          `json:"user"`
	Verification  *domain.OneTimeToken `json:"verification,omitempty"`
	PasswordReset *domain.OneTimeToken `json:"password_reset,omitempty"`
}

func (c *CachedUserRepo) FindByID(ctx context.Context, id string) (domain.User, error) {
	// 1) Try Redis at the current generation
	var (
		gen     int64
		cacheOK bool
	)
	if c.rdb != nil {
		gen, cacheOK = c.generation(ctx, id)
	}
	if cacheOK {
		raw, err := c.rdb.Get(ctx, c.key(id, gen)).Bytes()
		switch {
		case err == nil:
			var ca cachedAccount
			if jerr := json.Unmarshal(raw, &ca); jerr == nil {
				u := ca.User
				u.Verification = ca.Verification
				u.PasswordReset = ca.PasswordReset
				return u, nil
			}
			// corrupt entry -> fall back to DB
		case !errors.Is(err, goredis.Nil):
			c.log.Debug().Err(err).Msg("account cache read failed")
		}
	}

	// 2) DB source of truth
	u, err := c.inner.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	// 3) Best-effort cache fill under the generation read before the DB
	if cacheOK {
		c.fill(ctx, u, gen)
	}
	return u, nil
}

func (c *CachedUserRepo) fill(ctx context.Context, u domain.User, gen int64) {
	u.PasswordHash = ""
	b, err := json.Marshal(cachedAccount{User: u, Verification: u.Verification, PasswordReset: u.PasswordReset})
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.key(u.ID, gen), b, c.ttl).Err(); err != nil {
		c.log.Debug().Err(err).Msg("account cache fill failed")
	}
}

// invalidate bumps the generation. The generation key outlives every entry
// written under it.
func (c *CachedUserRepo) invalidate(ctx context.Context, id string) {
	if c.rdb == nil {
		return
	}
	k := c.genKey(id)
	_, err := c.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Incr(ctx, k)
		pipe.Expire(ctx, k, 2*c.ttl)
		return nil
	})
	if err != nil {
		c.log.Warn().Err(err).Str("user_id", id).Msg("account cache invalidation failed")
	}
}

func (c *CachedUserRepo) Save(ctx context.Context, u domain.User) error {
	if err := c.inner.Save(ctx, u); err != nil {
		return err
	}
	c.invalidate(ctx, u.ID)
	return nil
}

func (c *CachedUserRepo) Update(ctx context.Context, id string, patch domain.ProfilePatch) (domain.User, error) {
	u, err := c.inner.Update(ctx, id, patch)
	if err != nil {
		return domain.User{}, err
	}
	c.invalidate(ctx, id)
	return u, nil
}

/*
Below: delegate the remaining auth.UserRepo methods to inner.
Credential and token lookups always go to the DB.
*/

func (c *CachedUserRepo) FindByName(ctx context.Context, fullName string) (domain.User, error) {
	return c.inner.FindByName(ctx, fullName)
}
func (c *CachedUserRepo) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	return c.inner.FindByEmail(ctx, email)
}
func (c *CachedUserRepo) FindByVerificationToken(ctx context.Context, tokenHash string, now time.Time) (domain.User, error) {
	return c.inner.FindByVerificationToken(ctx, tokenHash, now)
}
func (c *CachedUserRepo) FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (domain.User, error) {
	return c.inner.FindByResetToken(ctx, tokenHash, now)
}
func (c *CachedUserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	return c.inner.Create(ctx, u)
}
