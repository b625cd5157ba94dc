package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/VaibhavAI05/TasteRail/internal/domain"
)

func signupAlice(t *testing.T, svc *Service) AuthResult {
	t.Helper()
	res, err := svc.Signup(context.Background(), SignupInput{
		FullName: "alice",
		Email:    "a@x.io",
		Password: "pw1",
		Contact:  "5551234",
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	return res
}

func TestSignup_EmptyFields_ReturnsMissingField(t *testing.T) {
	t.Parallel()

	svc, _ := newSvcForTest(t)

	cases := []SignupInput{
		{Email: "a@x.io", Password: "pw"},
		{FullName: "alice", Password: "pw"},
		{FullName: "alice", Email: "a@x.io"},
	}
	for _, in := range cases {
		_, err := svc.Signup(context.Background(), in)
		requireErrCode(t, err, "missing_field")
	}
}

func TestSignup_HashFail_ReturnsHashFailed(t *testing.T) {
	t.Parallel()

	svc, d := newSvcForTest(t)
	d.hasher.hashFn = func(pw string) (string, error) { return "", errors.New("boom") }

	_, err := svc.Signup(context.Background(), SignupInput{FullName: "alice", Email: "a@x.io", Password: "pw"})
	requireErrCode(t, err, "hash_failed")
	if len(d.users.byID) != 0 {
		t.Fatalf("expected nothing stored")
	}
}

func TestSignup_PasswordOver72Bytes_ReturnsInvalidField(t *testing.T) {
	t.Parallel()

	svc, d := newSvcForTest(t)
	hashed := false
	d.hasher.hashFn = func(pw string) (string, error) { hashed = true; return "h", nil }

	// 40 runes, 80 bytes
	_, err := svc.Signup(context.Background(), SignupInput{FullName: "alice", Email: "a@x.io", Password: strings.Repeat("é", 40)})
	requireErrCode(t, err, "invalid_field")
	var de *domain.Error
	if !errors.As(err, &de) || de.Kind != domain.KindValidation || de.Meta["field"] != "password" {
		t.Fatalf("unexpected error: %#v", err)
	}
	if hashed || len(d.users.byID) != 0 {
		t.Fatalf("expected no hashing and nothing stored")
	}
}

func TestSignup_HasherValidationError_PassesThrough(t *testing.T) {
	t.Parallel()

	svc, _ := newSvcForTest(t)
	svc.hasher = &fakeHasher{hashFn: func(string) (string, error) {
		return "", domain.ErrInvalidField("password", "too long")
	}}

	_, err := svc.Signup(context.Background(), SignupInput{FullName: "alice", Email: "a@x.io", Password: "pw"})
	requireErrCode(t, err, "invalid_field")
}

func TestSignup_Success_PersistsUnverifiedUser_AndMailsCode(t *testing.T) {
	t.Parallel()

	svc, d := newSvcForTest(t)

	res := signupAlice(t, svc)
	if res.Account.ID == "" {
		t.Fatalf("expected user ID set")
	}
	if res.Account.IsVerified {
		t.Fatalf("new account must be unverified")
	}
	if res.SessionToken == "" {
		t.Fatalf("expected session token")
	}
	if res.Account.Email != "a@x.io" || res.Account.Contact != "5551234" {
		t.Fatalf("unexpected account: %+v", res.Account)
	}

	stored := d.users.get(res.Account.ID)
	if stored.PasswordHash != "hash:pw1" {
		t.Fatalf("expected hashed password stored, got %q", stored.PasswordHash)
	}
	if stored.Verification == nil {
		t.Fatalf("expected verification pair set")
	}
	if want := d.clock.Now().Add(svc.verificationTTL); !stored.Verification.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, stored.Verification.ExpiresAt)
	}

	mail := d.mailer.last(t, "verification")
	if mail.email != "a@x.io" || len(mail.arg) != 6 {
		t.Fatalf("unexpected verification mail %+v", mail)
	}
	if stored.Verification.Hash == mail.arg {
		t.Fatalf("raw code must not be stored")
	}
	if stored.Verification.Hash != Digest(TokenVerifyEmail, mail.arg) {
		t.Fatalf("stored digest does not match mailed code")
	}
	if !hasAudit(*d.audits, "signup") {
		t.Fatalf("expected signup audit")
	}
}

func TestSignup_DuplicateName_ReturnsDuplicateUser_RegardlessOfEmail(t *testing.T) {
	t.Parallel()

	svc, d := newSvcForTest(t)
	signupAlice(t, svc)

	_, err := svc.Signup(context.Background(), SignupInput{FullName: "alice", Email: "other@x.io", Password: "pw2"})
	requireErrCode(t, err, domain.CodeDuplicateUser)
	if len(d.users.byID) != 1 {
		t.Fatalf("expected a single stored account, got %d", len(d.users.byID))
	}
}

func TestSignup_StoreRejectsDuplicate_Propagates(t *testing.T) {
	t.Parallel()

	svc, d := newSvcForTest(t)
	d.users.createErr = domain.ErrDuplicateUser()

	_, err := svc.Signup(context.Background(), SignupInput{FullName: "bob", Email: "b@x.io", Password: "pw"})
	requireErrCode(t, err, domain.CodeDuplicateUser)
	if len(d.mailer.sent) != 0 {
		t.Fatalf("no mail may be sent when the write fails")
	}
}

func TestSignup_StoreDown_ReturnsUpstream(t *testing.T) {
	t.Parallel()

	svc, d := newSvcForTest(t)
	d.users.findErr = domain.ErrStoreUnavailable(errors.New("conn refused"))

	_, err := svc.Signup(context.Background(), SignupInput{FullName: "bob", Email: "b@x.io", Password: "pw"})
	requireErrCode(t, err, domain.CodeUpstreamFailure)
}

func TestSignup_MailFailure_DoesNotFailSignup(t *testing.T) {
	t.Parallel()

	svc, d := newSvcForTest(t)
	d.mailer.errs["verification"] = errors.New("smtp down")

	res := signupAlice(t, svc)
	if _, ok := d.users.byID[res.Account.ID]; !ok {
		t.Fatalf("account must be stored even when mail fails")
	}
	if !hasAudit(*d.audits, "notification_failed") {
		t.Fatalf("expected notification_failed audit")
	}
}

func TestLogin_EmptyFields_MissingField(t *testing.T) {
	t.Parallel()

	svc, _ := newSvcForTest(t)

	_, err := svc.Login(context.Background(), "", "pw")
	requireErrCode(t, err, "missing_field")
	_, err = svc.Login(context.Background(), "alice", "")
	requireErrCode(t, err, "missing_field")
}

func TestLogin_UnknownName_ReturnsNotFound(t *testing.T) {
	t.Parallel()

	svc, d := newSvcForTest(t)

	_, err := svc.Login(context.Background(), "ghost", "pw")
	requireErrCode(t, err, domain.CodeNotFound)
	if !hasAudit(*d.audits, "login_failed") {
		t.Fatalf("expected login_failed audit")
	}
}

func TestLogin_WrongPassword_ReturnsInvalidCredentials(t *testing.T) {
	t.Parallel()

	svc, _ := newSvcForTest(t)
	signupAlice(t, svc)

	_, err := svc.Login(context.Background(), "alice", "nope")
	requireErrCode(t, err, domain.CodeInvalidCredentials)
}

func TestLogin_Success_UpdatesLastLogin_AndKeepsHash(t *testing.T) {
	t.Parallel()

	svc, d := newSvcForTest(t)
	signup := signupAlice(t, svc)

	d.clock.Advance(5 * time.Minute)
	res, err := svc.Login(context.Background(), "alice", "pw1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.SessionToken == "" {
		t.Fatalf("expected session token")
	}
	if res.Account.ID != signup.Account.ID {
		t.Fatalf("unexpected account %+v", res.Account)
	}
	if !res.Account.LastLogin.Equal(d.clock.Now()) {
		t.Fatalf("expected lastLogin=%v, got %v", d.clock.Now(), res.Account.LastLogin)
	}

	stored := d.users.get(signup.Account.ID)
	if !stored.LastLogin.Equal(d.clock.Now()) {
		t.Fatalf("lastLogin not persisted")
	}
	if stored.PasswordHash != "hash:pw1" {
		t.Fatalf("login must not change the stored hash, got %q", stored.PasswordHash)
	}
}

func TestLogin_SignFail_ReturnsTokenSignFailed(t *testing.T) {
	t.Parallel()

	svc, d := newSvcForTest(t)
	signupAlice(t, svc)
	d.signer.signFn = func(string, time.Duration) (string, error) { return "", errors.New("boom") }

	_, err := svc.Login(context.Background(), "alice", "pw1")
	requireErrCode(t, err, "token_sign_failed")
}

func TestSignupVerifyLogin_AliceScenario(t *testing.T) {
	t.Parallel()

	svc, d := newSvcForTest(t)
	ctx := context.Background()

	res := signupAlice(t, svc)
	if res.Account.IsVerified {
		t.Fatalf("expected unverified after signup")
	}

	code := d.mailer.last(t, "verification").arg
	acc, err := svc.VerifyEmail(ctx, code)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !acc.IsVerified {
		t.Fatalf("expected verified account")
	}
	if d.mailer.last(t, "welcome").arg != "alice" {
		t.Fatalf("expected welcome mail addressed to alice")
	}

	login, err := svc.Login(ctx, "alice", "pw1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(login.SessionToken, res.Account.ID) {
		t.Fatalf("session token should carry the user id, got %q", login.SessionToken)
	}
	if login.Account.LastLogin.IsZero() {
		t.Fatalf("expected lastLogin set")
	}
}
