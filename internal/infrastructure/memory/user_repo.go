package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/VaibhavAI05/TasteRail/internal/domain"
)

// UserRepo is the in-memory account store used in dev when no DB_ADDR is set.
// Full names are unique; emails are not.
type UserRepo struct {
	mu     sync.RWMutex
	byID   map[string]domain.User
	byName map[string]string // full name -> userID
	now    func() time.Time
}

func NewUserRepo() *UserRepo {
	return &UserRepo{
		byID:   make(map[string]domain.User),
		byName: make(map[string]string),
		now:    time.Now,
	}
}

func projection(u domain.User) domain.User {
	u.PasswordHash = ""
	return u
}

func (r *UserRepo) FindByName(ctx context.Context, fullName string) (domain.User, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return domain.User{}, domain.ErrMissingField("fullname")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byName[fullName]
	if !ok {
		return domain.User{}, domain.ErrNotFound()
	}
	return r.byID[id], nil
}

// FindByEmail returns the oldest account registered with email.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return domain.User{}, domain.ErrMissingField("email")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := r.filter(func(u domain.User) bool { return u.Email == email })
	if len(matches) == 0 {
		return domain.User{}, domain.ErrNotFound()
	}
	return projection(matches[0]), nil
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound()
	}
	return projection(u), nil
}

func (r *UserRepo) FindByVerificationToken(ctx context.Context, tokenHash string, now time.Time) (domain.User, error) {
	return r.findByToken(tokenHash, now, func(u domain.User) *domain.OneTimeToken { return u.Verification })
}

func (r *UserRepo) FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (domain.User, error) {
	return r.findByToken(tokenHash, now, func(u domain.User) *domain.OneTimeToken { return u.PasswordReset })
}

func (r *UserRepo) findByToken(tokenHash string, now time.Time, pick func(domain.User) *domain.OneTimeToken) (domain.User, error) {
	if tokenHash == "" {
		return domain.User{}, domain.ErrNotFound()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := r.filter(func(u domain.User) bool {
		t := pick(u)
		return t != nil && t.Hash == tokenHash && t.Valid(now)
	})
	if len(matches) == 0 {
		return domain.User{}, domain.ErrNotFound()
	}
	return projection(matches[0]), nil
}

func (r *UserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	u.FullName = strings.TrimSpace(u.FullName)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.ID == "" {
		return domain.User{}, domain.ErrMissingField("id")
	}
	if u.FullName == "" {
		return domain.User{}, domain.ErrMissingField("fullname")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[u.FullName]; exists {
		return domain.User{}, domain.ErrDuplicateUser()
	}
	if _, exists := r.byID[u.ID]; exists {
		return domain.User{}, domain.ErrDuplicateUser()
	}

	now := r.now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	r.byID[u.ID] = u
	r.byName[u.FullName] = u.ID
	return projection(u), nil
}

// Save keeps the stored hash when u.PasswordHash is empty.
func (r *UserRepo) Save(ctx context.Context, u domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[u.ID]
	if !ok {
		return domain.ErrNotFound()
	}

	cur.IsVerified = u.IsVerified
	cur.Verification = cloneToken(u.Verification)
	cur.PasswordReset = cloneToken(u.PasswordReset)
	cur.LastLogin = u.LastLogin
	if u.PasswordHash != "" {
		cur.PasswordHash = u.PasswordHash
	}
	cur.UpdatedAt = r.now()

	r.byID[u.ID] = cur
	return nil
}

func (r *UserRepo) Update(ctx context.Context, id string, patch domain.ProfilePatch) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound()
	}
	if patch.Empty() {
		return projection(cur), nil
	}

	oldName := cur.FullName
	patch.Apply(&cur)
	cur.FullName = strings.TrimSpace(cur.FullName)
	if cur.FullName != oldName {
		if owner, taken := r.byName[cur.FullName]; taken && owner != id {
			return domain.User{}, domain.ErrDuplicateUser()
		}
		delete(r.byName, oldName)
		r.byName[cur.FullName] = id
	}
	cur.UpdatedAt = r.now()

	r.byID[id] = cur
	return projection(cur), nil
}

// filter returns matching users ordered by creation time. Caller holds the lock.
func (r *UserRepo) filter(keep func(domain.User) bool) []domain.User {
	var out []domain.User
	for _, u := range r.byID {
		if keep(u) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func cloneToken(t *domain.OneTimeToken) *domain.OneTimeToken {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
