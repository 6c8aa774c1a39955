// Package services contains server-side business logic. This file implements
// UserService: registration, login, password management and the
// password-reset flow.
package services

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"time"

	"golang.org/x/crypto/bcrypt"

	"taskkeeper/internal/common"
	"taskkeeper/internal/dbx"
	"taskkeeper/internal/logging"
	"taskkeeper/internal/server/auth"
	"taskkeeper/internal/server/config"
	"taskkeeper/internal/server/models"
	"taskkeeper/internal/server/repositories/repomanager"
)

// Notifier delivers outbound mail. Delivery is fire-and-forget from the
// core's perspective: a send failure never rolls back token issuance.
type Notifier interface {
	SendEmail(ctx context.Context, to string, subject string, htmlBody string) error
}

// AuthResult bundles the signed access token with the authenticated user.
type AuthResult struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

// resetTokenBytes is the amount of random material behind a reset token.
const resetTokenBytes = 32

// dummyPasswordHash is compared against when login hits an unknown email, so
// that path costs the same bcrypt work as a real mismatch and timing cannot
// reveal whether an address is registered.
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// genericResetMessage is returned for every reset request, known email or
// not.
const genericResetMessage = "If this email is registered, a password reset link has been sent."

// UserService provides authentication-related operations:
// - Register: create users and mint a token
// - Login: verify credentials and mint a token
// - RequestPasswordReset / CompletePasswordReset: single-use reset tokens
// - SetPassword: re-hash and store a new password
type UserService struct {
	db                 *sql.DB
	repomanager        repomanager.RepositoryManager
	notifier           Notifier
	logger             logging.Logger
	jwtSecret          []byte
	tokenValidity      time.Duration
	resetTokenValidity time.Duration
	storageTimeout     time.Duration
	resetURLBase       string
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, notifier Notifier, logger logging.Logger, cfg *config.Config) *UserService {
	return &UserService{
		db:                 db,
		repomanager:        m,
		notifier:           notifier,
		logger:             logger,
		jwtSecret:          []byte(cfg.SecretKey),
		tokenValidity:      cfg.TokenValidityDuration,
		resetTokenValidity: cfg.ResetTokenValidityDuration,
		storageTimeout:     cfg.StorageTimeout,
		resetURLBase:       cfg.ResetURLBase,
	}
}

// Register creates a new user and returns it together with a signed token.
// A duplicate email (decided by the storage-level unique constraint, so
// concurrent registrations cannot race past it) yields ErrEmailAlreadyExists.
func (s *UserService) Register(ctx context.Context, email, password, firstName, lastName string) (*AuthResult, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, common.ErrorInternal
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    firstName,
		LastName:     lastName,
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	repo := s.repomanager.Users(s.db)
	user, err = repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrEmailAlreadyExists) {
			return nil, common.ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return s.issueToken(user)
}

// Login verifies the credentials and, on success, returns a signed token.
// Unknown email and wrong password are indistinguishable: same error value,
// same message, and the unknown-email path still performs a bcrypt compare.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// burn the same hashing cost as a real comparison
			_ = bcrypt.CompareHashAndPassword([]byte(dummyPasswordHash), []byte(password))
			return nil, common.ErrInvalidCredentials
		}
		return nil, common.ErrorInternal
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, common.ErrInvalidCredentials
	}

	return s.issueToken(user)
}

// FindByEmail returns the user registered under the given address, or
// common.ErrorNotFound.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.repomanager.Users(s.db).GetByEmail(ctx, email)
}

// SetPassword re-hashes newPassword and stores the hash. Callers can never
// supply a pre-hashed value.
func (s *UserService) SetPassword(ctx context.Context, userID string, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return common.ErrorInternal
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.repomanager.Users(s.db).UpdatePasswordHash(ctx, userID, string(hash))
}

// RequestPasswordReset issues a single-use reset token for the given email
// and hands the reset link to the notifier. Issuing a new token invalidates
// prior ones. The returned message is the same whether or not the email is
// registered; only the ok flag differs (see DESIGN.md on this policy).
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) (bool, string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, genericResetMessage, nil
		}
		return false, "", common.ErrorInternal
	}

	token, err := common.MakeRandURLString(resetTokenBytes)
	if err != nil {
		return false, "", common.ErrorInternal
	}

	expiresAt := time.Now().Add(s.resetTokenValidity)
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.ResetTokens(tx)
		if err := repoTx.DeleteForUser(ctx, user.ID); err != nil {
			return err
		}
		return repoTx.Create(ctx, user.ID, hashResetToken(token), expiresAt)
	}); err != nil {
		return false, "", fmt.Errorf("error storing reset token: %w", err)
	}

	link := s.resetLink(user, token)
	subject := "Reset your TaskKeeper password"
	body := fmt.Sprintf(`Click <a href="%s">here</a> to reset your password.`, link)
	if err := s.notifier.SendEmail(ctx, user.Email, subject, body); err != nil {
		// the token stays valid even if delivery fails
		s.logger.Warn(ctx, "reset email delivery failed", "error", err)
	}

	return true, genericResetMessage, nil
}

// CompletePasswordReset consumes a reset token and stores the new password
// hash in the same transaction, so a token can succeed at most once. Missing,
// foreign, already-used and expired tokens all yield ErrResetTokenInvalid.
func (s *UserService) CompletePasswordReset(ctx context.Context, userID string, token string, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return common.ErrorInternal
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		expiresAt, err := s.repomanager.ResetTokens(tx).Consume(ctx, userID, hashResetToken(token))
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrResetTokenInvalid
			}
			return err
		}
		if expiresAt.Before(time.Now()) {
			return common.ErrResetTokenInvalid
		}
		return s.repomanager.Users(tx).UpdatePasswordHash(ctx, userID, string(hash))
	}); err != nil {
		if errors.Is(err, common.ErrResetTokenInvalid) {
			return common.ErrResetTokenInvalid
		}
		return fmt.Errorf("error completing password reset: %w", err)
	}

	return nil
}

// --- helpers below ---

func (s *UserService) issueToken(user *models.User) (*AuthResult, error) {
	now := time.Now()
	token, err := auth.GenerateToken(user, s.jwtSecret, s.tokenValidity)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: now.Add(s.tokenValidity)}, nil
}

func (s *UserService) resetLink(user *models.User, token string) string {
	v := url.Values{}
	v.Set("userId", user.ID)
	v.Set("token", token)
	return s.resetURLBase + "?" + v.Encode()
}

func (s *UserService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.storageTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.storageTimeout)
}

// hashResetToken digests the secret before storage so a leaked table cannot
// be replayed.
func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
