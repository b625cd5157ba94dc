package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/VaibhavAI05/TasteRail/internal/domain"
)

/*
Shared audit capture
*/

type auditEntry struct {
	action string
	fields map[string]string
}

/*
Fakes for ports
*/

type fakeUserRepo struct {
	mu sync.Mutex

	byID map[string]domain.User

	// injected errors (if set, method returns error)
	findErr   error
	createErr error
	saveErr   error
	updateErr error

	// record calls
	saves []domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: map[string]domain.User{}}
}

func withoutHash(u domain.User) domain.User {
	u.PasswordHash = ""
	return u
}

func (f *fakeUserRepo) FindByName(ctx context.Context, fullName string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.findErr != nil {
		return domain.User{}, f.findErr
	}
	for _, u := range f.byID {
		if u.FullName == fullName {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrNotFound()
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.findErr != nil {
		return domain.User{}, f.findErr
	}
	for _, u := range f.byID {
		if u.Email == email {
			return withoutHash(u), nil
		}
	}
	return domain.User{}, domain.ErrNotFound()
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.findErr != nil {
		return domain.User{}, f.findErr
	}
	u, ok := f.byID[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound()
	}
	return withoutHash(u), nil
}

func (f *fakeUserRepo) FindByVerificationToken(ctx context.Context, tokenHash string, now time.Time) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.byID {
		if u.Verification != nil && u.Verification.Hash == tokenHash && u.Verification.Valid(now) {
			return withoutHash(u), nil
		}
	}
	return domain.User{}, domain.ErrNotFound()
}

func (f *fakeUserRepo) FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.byID {
		if u.PasswordReset != nil && u.PasswordReset.Hash == tokenHash && u.PasswordReset.Valid(now) {
			return withoutHash(u), nil
		}
	}
	return domain.User{}, domain.ErrNotFound()
}

func (f *fakeUserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return domain.User{}, f.createErr
	}
	for _, existing := range f.byID {
		if existing.FullName == u.FullName {
			return domain.User{}, domain.ErrDuplicateUser()
		}
	}
	f.byID[u.ID] = u
	return withoutHash(u), nil
}

func (f *fakeUserRepo) Save(ctx context.Context, u domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.saveErr != nil {
		return f.saveErr
	}
	cur, ok := f.byID[u.ID]
	if !ok {
		return domain.ErrNotFound()
	}
	if u.PasswordHash == "" {
		u.PasswordHash = cur.PasswordHash
	}
	f.byID[u.ID] = u
	f.saves = append(f.saves, u)
	return nil
}

func (f *fakeUserRepo) Update(ctx context.Context, id string, patch domain.ProfilePatch) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updateErr != nil {
		return domain.User{}, f.updateErr
	}
	u, ok := f.byID[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound()
	}
	patch.Apply(&u)
	f.byID[id] = u
	return withoutHash(u), nil
}

func (f *fakeUserRepo) get(id string) domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[id]
}

type fakeHasher struct {
	hashFn    func(pw string) (string, error)
	compareFn func(hash, pw string) error
}

func (h *fakeHasher) Hash(password string) (string, error) {
	if h.hashFn != nil {
		return h.hashFn(password)
	}
	return "hash:" + password, nil
}

func (h *fakeHasher) Compare(hash string, password string) error {
	if h.compareFn != nil {
		return h.compareFn(hash, password)
	}
	if hash == "hash:"+password {
		return nil
	}
	return errors.New("mismatch")
}

type fakeSigner struct {
	signFn func(userID string, ttl time.Duration) (string, error)
}

func (s *fakeSigner) SignSessionToken(userID string, ttl time.Duration) (string, error) {
	if s.signFn != nil {
		return s.signFn(userID, ttl)
	}
	return fmt.Sprintf("jwt(%s,%s)", userID, ttl), nil
}

// VerifySessionToken accepts tokens minted by SignSessionToken.
func (s *fakeSigner) VerifySessionToken(token string) (SessionClaims, error) {
	inner, ok := strings.CutPrefix(token, "jwt(")
	if !ok {
		return SessionClaims{}, errors.New("malformed token")
	}
	userID, _, ok := strings.Cut(inner, ",")
	if !ok || userID == "" {
		return SessionClaims{}, errors.New("malformed token")
	}
	return SessionClaims{UserID: userID}, nil
}

type sentMail struct {
	kind  string
	email string
	arg   string
}

// fakeMailer records every send; errs makes the named send fail.
type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	errs map[string]error
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{errs: map[string]error{}}
}

func (m *fakeMailer) record(kind, email, arg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{kind: kind, email: email, arg: arg})
	return m.errs[kind]
}

func (m *fakeMailer) SendVerification(ctx context.Context, email, code string) error {
	return m.record("verification", email, code)
}

func (m *fakeMailer) SendWelcome(ctx context.Context, email, name string) error {
	return m.record("welcome", email, name)
}

func (m *fakeMailer) SendPasswordReset(ctx context.Context, email, link string) error {
	return m.record("password_reset", email, link)
}

func (m *fakeMailer) SendResetSuccess(ctx context.Context, email string) error {
	return m.record("reset_success", email, "")
}

func (m *fakeMailer) last(t *testing.T, kind string) sentMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].kind == kind {
			return m.sent[i]
		}
	}
	t.Fatalf("no %s mail sent (sent=%+v)", kind, m.sent)
	return sentMail{}
}

type fakeMedia struct {
	url      string
	err      error
	uploaded []string
}

func (m *fakeMedia) Upload(ctx context.Context, raw string) (string, error) {
	m.uploaded = append(m.uploaded, raw)
	if m.err != nil {
		return "", m.err
	}
	return m.url, nil
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	cur time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(d)
}

type testDeps struct {
	users  *fakeUserRepo
	hasher *fakeHasher
	signer *fakeSigner
	mailer *fakeMailer
	media  *fakeMedia
	clock  *fakeClock
	audits *[]auditEntry
}

func newSvcForTest(t *testing.T) (*Service, testDeps) {
	t.Helper()

	d := testDeps{
		users:  newFakeUserRepo(),
		hasher: &fakeHasher{},
		signer: &fakeSigner{},
		mailer: newFakeMailer(),
		media:  &fakeMedia{url: "https://cdn.test/avatars/a.png"},
		clock:  &fakeClock{cur: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)},
		audits: &[]auditEntry{},
	}
	cfg := Config{
		SessionTTL:      24 * time.Hour,
		VerificationTTL: 24 * time.Hour,
		ResetTTL:        time.Hour,
		FrontendURL:     "https://fe.test/",
	}

	var mu sync.Mutex
	svc := NewService(d.users, d.hasher, d.signer, d.mailer, d.media, cfg).
		WithClock(d.clock.Now).
		WithAudit(func(_ context.Context, action string, fields map[string]string) {
			cp := map[string]string{}
			for k, v := range fields {
				cp[k] = v
			}
			mu.Lock()
			*d.audits = append(*d.audits, auditEntry{action: action, fields: cp})
			mu.Unlock()
		})

	if svc == nil {
		t.Fatalf("svc is nil")
	}
	return svc, d
}

func hasAudit(audits []auditEntry, action string) bool {
	for _, a := range audits {
		if a.action == action {
			return true
		}
	}
	return false
}
