package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"golang.org/x/crypto/bcrypt"

	"taskkeeper/internal/common"
	"taskkeeper/internal/logging"
	"taskkeeper/internal/server/auth"
	"taskkeeper/internal/server/config"
)

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                  "test-secret",
		TokenValidityDuration:      24 * time.Hour,
		ResetTokenValidityDuration: time.Hour,
		ResetURLBase:               "https://app.example.com/reset-password",
	}
}

func newUserService(t *testing.T) (*UserService, *fakeRepoManager, *fakeNotifier, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	m := newFakeRepoManager()
	notifier := &fakeNotifier{}
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewUserService(db, m, notifier, logger, testConfig()), m, notifier, mock
}

func TestRegisterThenLogin(t *testing.T) {
	svc, _, _, _ := newUserService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, "alice@example.com", "password123", "Alice", "Smith")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if reg.User.ID == "" || reg.Token == "" {
		t.Fatalf("unexpected registration result: %+v", reg)
	}
	if reg.User.PasswordHash == "password123" {
		t.Fatalf("password stored in the clear")
	}

	claims, err := auth.ParseToken(reg.Token, []byte("test-secret"))
	if err != nil {
		t.Fatalf("ParseToken error: %v", err)
	}
	if claims.UserID != reg.User.ID || claims.Email != "alice@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	login, err := svc.Login(ctx, "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if login.User.ID != reg.User.ID {
		t.Fatalf("login resolved wrong user: %+v", login.User)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, _, _ := newUserService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice@example.com", "password123", "Alice", "Smith"); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	_, err := svc.Register(ctx, "ALICE@example.com", "other-password", "Alice", "Smith")
	if !errors.Is(err, common.ErrEmailAlreadyExists) {
		t.Fatalf("want common.ErrEmailAlreadyExists, got %v", err)
	}
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	svc, _, _, _ := newUserService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice@example.com", "password123", "Alice", "Smith"); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	_, wrongPassword := svc.Login(ctx, "alice@example.com", "nope")
	_, unknownEmail := svc.Login(ctx, "ghost@example.com", "nope")

	if !errors.Is(wrongPassword, common.ErrInvalidCredentials) {
		t.Fatalf("wrong password: want common.ErrInvalidCredentials, got %v", wrongPassword)
	}
	if !errors.Is(unknownEmail, common.ErrInvalidCredentials) {
		t.Fatalf("unknown email: want common.ErrInvalidCredentials, got %v", unknownEmail)
	}
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Fatalf("failure messages differ: %q vs %q", wrongPassword, unknownEmail)
	}
}

func TestSetPassword_AlwaysRehashes(t *testing.T) {
	svc, m, _, _ := newUserService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, "alice@example.com", "password123", "Alice", "Smith")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	if err := svc.SetPassword(ctx, reg.User.ID, "new-password"); err != nil {
		t.Fatalf("SetPassword error: %v", err)
	}

	stored, err := m.users.GetByID(ctx, reg.User.ID)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if stored.PasswordHash == "new-password" {
		t.Fatalf("password stored in the clear")
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("new-password")) != nil {
		t.Fatalf("stored hash does not verify the new password")
	}

	if _, err := svc.Login(ctx, "alice@example.com", "password123"); !errors.Is(err, common.ErrInvalidCredentials) {
		t.Fatalf("old password should no longer log in, got %v", err)
	}
}

func TestRequestPasswordReset_UnknownEmail(t *testing.T) {
	svc, m, notifier, _ := newUserService(t)

	ok, message, err := svc.RequestPasswordReset(context.Background(), "ghost@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset error: %v", err)
	}
	if ok {
		t.Fatalf("expected ok=false for unknown email")
	}
	if message != genericResetMessage {
		t.Fatalf("unknown email must get the generic message, got %q", message)
	}
	if len(notifier.sent) != 0 {
		t.Fatalf("no email should be sent for unknown addresses")
	}
	if m.resetTokens.count() != 0 {
		t.Fatalf("no token should be stored for unknown addresses")
	}
}

// resetLinkParams pulls userId and token out of the href in the sent mail.
func resetLinkParams(t *testing.T, body string) (string, string) {
	t.Helper()
	start := strings.Index(body, `href="`)
	if start < 0 {
		t.Fatalf("no link in body: %q", body)
	}
	rest := body[start+len(`href="`):]
	end := strings.Index(rest, `"`)
	if end < 0 {
		t.Fatalf("unterminated link in body: %q", body)
	}
	u, err := url.Parse(rest[:end])
	if err != nil {
		t.Fatalf("bad link %q: %v", rest[:end], err)
	}
	return u.Query().Get("userId"), u.Query().Get("token")
}

func TestPasswordResetFlow(t *testing.T) {
	svc, m, notifier, mock := newUserService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, "alice@example.com", "password123", "Alice", "Smith")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	mock.ExpectBegin()
	mock.ExpectCommit()

	ok, message, err := svc.RequestPasswordReset(ctx, "alice@example.com")
	if err != nil || !ok {
		t.Fatalf("RequestPasswordReset: ok=%v err=%v", ok, err)
	}
	if message != genericResetMessage {
		t.Fatalf("unexpected message %q", message)
	}
	if len(notifier.sent) != 1 || notifier.sent[0].to != "alice@example.com" {
		t.Fatalf("unexpected notifications: %+v", notifier.sent)
	}

	userID, token := resetLinkParams(t, notifier.sent[0].body)
	if userID != reg.User.ID || token == "" {
		t.Fatalf("bad link params: userID=%q token=%q", userID, token)
	}

	// the stored value is a digest of the mailed secret, not the secret
	if m.resetTokens.count() != 1 {
		t.Fatalf("expected 1 stored token, got %d", m.resetTokens.count())
	}
	if _, found := m.resetTokens.tokens[token]; found {
		t.Fatalf("reset token stored in the clear")
	}
	if _, found := m.resetTokens.tokens[hashResetToken(token)]; !found {
		t.Fatalf("digest of the mailed token not stored")
	}

	mock.ExpectBegin()
	mock.ExpectCommit()

	if err := svc.CompletePasswordReset(ctx, userID, token, "brand-new-pass"); err != nil {
		t.Fatalf("CompletePasswordReset error: %v", err)
	}

	if _, err := svc.Login(ctx, "alice@example.com", "brand-new-pass"); err != nil {
		t.Fatalf("login with reset password: %v", err)
	}
	if _, err := svc.Login(ctx, "alice@example.com", "password123"); !errors.Is(err, common.ErrInvalidCredentials) {
		t.Fatalf("old password should be rejected after reset, got %v", err)
	}

	// second use of the same token must fail
	mock.ExpectBegin()
	mock.ExpectRollback()

	err = svc.CompletePasswordReset(ctx, userID, token, "another-pass")
	if !errors.Is(err, common.ErrResetTokenInvalid) {
		t.Fatalf("want common.ErrResetTokenInvalid on reuse, got %v", err)
	}
}

func TestRequestPasswordReset_ReplacesPriorToken(t *testing.T) {
	svc, m, notifier, mock := newUserService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, "alice@example.com", "password123", "Alice", "Smith")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	mock.ExpectBegin()
	mock.ExpectCommit()
	if ok, _, err := svc.RequestPasswordReset(ctx, "alice@example.com"); err != nil || !ok {
		t.Fatalf("first request: ok=%v err=%v", ok, err)
	}
	_, firstToken := resetLinkParams(t, notifier.sent[0].body)

	mock.ExpectBegin()
	mock.ExpectCommit()
	if ok, _, err := svc.RequestPasswordReset(ctx, "alice@example.com"); err != nil || !ok {
		t.Fatalf("second request: ok=%v err=%v", ok, err)
	}
	_, secondToken := resetLinkParams(t, notifier.sent[1].body)

	if firstToken == secondToken {
		t.Fatalf("tokens must be unique per request")
	}
	if m.resetTokens.count() != 1 {
		t.Fatalf("issuing a new token must invalidate prior ones, have %d", m.resetTokens.count())
	}

	mock.ExpectBegin()
	mock.ExpectRollback()
	err = svc.CompletePasswordReset(ctx, reg.User.ID, firstToken, "new-pass")
	if !errors.Is(err, common.ErrResetTokenInvalid) {
		t.Fatalf("superseded token should be invalid, got %v", err)
	}
}

func TestCompletePasswordReset_Expired(t *testing.T) {
	svc, m, _, mock := newUserService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, "alice@example.com", "password123", "Alice", "Smith")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	token := "expired-token"
	if err := m.resetTokens.Create(ctx, reg.User.ID, hashResetToken(token), time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("seeding token: %v", err)
	}

	mock.ExpectBegin()
	mock.ExpectRollback()

	err = svc.CompletePasswordReset(ctx, reg.User.ID, token, "new-pass")
	if !errors.Is(err, common.ErrResetTokenInvalid) {
		t.Fatalf("want common.ErrResetTokenInvalid for expired token, got %v", err)
	}
	if _, err := svc.Login(ctx, "alice@example.com", "password123"); err != nil {
		t.Fatalf("password must be unchanged after failed reset: %v", err)
	}
}

func TestCompletePasswordReset_ForeignUser(t *testing.T) {
	svc, _, notifier, mock := newUserService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice@example.com", "password123", "Alice", "Smith"); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	bob, err := svc.Register(ctx, "bob@example.com", "password456", "Bob", "Jones")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	mock.ExpectBegin()
	mock.ExpectCommit()
	if ok, _, err := svc.RequestPasswordReset(ctx, "alice@example.com"); err != nil || !ok {
		t.Fatalf("RequestPasswordReset: ok=%v err=%v", ok, err)
	}
	_, token := resetLinkParams(t, notifier.sent[0].body)

	// bob cannot redeem alice's token
	mock.ExpectBegin()
	mock.ExpectRollback()
	err = svc.CompletePasswordReset(ctx, bob.User.ID, token, "new-pass")
	if !errors.Is(err, common.ErrResetTokenInvalid) {
		t.Fatalf("want common.ErrResetTokenInvalid, got %v", err)
	}
}

func TestRequestPasswordReset_DeliveryFailureKeepsToken(t *testing.T) {
	svc, m, notifier, mock := newUserService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice@example.com", "password123", "Alice", "Smith"); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	notifier.sendErr = errors.New("smtp down")

	mock.ExpectBegin()
	mock.ExpectCommit()

	ok, _, err := svc.RequestPasswordReset(ctx, "alice@example.com")
	if err != nil || !ok {
		t.Fatalf("delivery failure must not fail the request: ok=%v err=%v", ok, err)
	}
	if m.resetTokens.count() != 1 {
		t.Fatalf("token must stay stored when delivery fails")
	}
}
