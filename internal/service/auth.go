// Package service contains the business logic layer of the server.
//
// Handlers parse HTTP and write responses; services validate, enforce
// rules, and orchestrate repositories — they never see a request or a
// status code. Every dependency arrives through the constructor as an
// interface, so the tests in this package run against in-memory fakes.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/excel-finder/internal/apperror"
	"github.com/sakif/excel-finder/internal/auth"
	"github.com/sakif/excel-finder/internal/mailer"
	"github.com/sakif/excel-finder/internal/model"
	"github.com/sakif/excel-finder/internal/repository"
)

// otpTTL is how long an issued recovery code stays redeemable.
const otpTTL = time.Hour

// AuthService implements registration, login, and the password-recovery
// flow (forgot-password → OTP → reset).
type AuthService struct {
	users     repository.UserRepository
	resets    repository.ResetRepository
	passwords *auth.PasswordService
	tokens    *auth.TokenService
	mail      mailer.Mailer
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	resets repository.ResetRepository,
	passwords *auth.PasswordService,
	tokens *auth.TokenService,
	mail mailer.Mailer,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		resets:    resets,
		passwords: passwords,
		tokens:    tokens,
		mail:      mail,
		logger:    logger,
	}
}

// Register creates a new account. The email must be unused; the caller
// gets apperror.ErrConflict otherwise. The new user is returned without
// being logged in — the client sends the user back to the login form.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: creating user %s: %w", email, err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("email", user.Email),
	)
	return user, nil
}

// Login verifies credentials and returns the account.
//
// Unknown email, wrong password, and deactivated account all collapse to
// ErrInvalidCredentials so a caller cannot probe which addresses exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, error) {
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("credentials", "email and password are required")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, apperror.New(apperror.ErrInvalidCredentials, "Invalid email or password")
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.New(apperror.ErrInvalidCredentials, "Invalid email or password")
	}
	if !user.Active {
		return nil, apperror.New(apperror.ErrInvalidCredentials, "Account is deactivated")
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return user, nil
}

// ForgotResult is the outcome of a forgot-password request.
//
// When EmailSent is false the raw OTP is exposed to the caller instead
// of being silently lost. This keeps the recovery flow usable while
// outbound email is unconfigured, at the cost of revealing the code to
// whoever made the request — a degraded/testing mode, not something to
// leave on in production.
type ForgotResult struct {
	OTP       string
	EmailSent bool
}

// ForgotPassword issues a recovery OTP for the account and tries to
// email it. Unknown emails fail with ErrNotFound.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (*ForgotResult, error) {
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: forgot password for %s: %w", email, err)
	}

	otp, err := auth.GenerateOTP()
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	now := time.Now()
	reset := &model.PasswordReset{
		Email:     user.Email,
		OTP:       otp,
		CreatedAt: now,
		ExpiresAt: now.Add(otpTTL),
	}
	if err := s.resets.CreateReset(ctx, reset); err != nil {
		return nil, fmt.Errorf("service/auth: storing reset: %w", err)
	}

	if !s.mail.Configured() {
		s.logger.Warn("mailer not configured, returning otp to caller",
			slog.String("email", user.Email),
		)
		return &ForgotResult{OTP: otp, EmailSent: false}, nil
	}

	subject := "Password Reset OTP - Excel Finder"
	body := fmt.Sprintf(
		"Hello %s,\n\n"+
			"You requested a password reset for your Excel Finder account.\n\n"+
			"Your OTP is: %s\n\n"+
			"This OTP will expire in 1 hour.\n\n"+
			"If you didn't request this password reset, please ignore this email.\n\n"+
			"Best regards,\nExcel Finder Team\n",
		user.Name, otp,
	)
	if err := s.mail.Send(user.Email, subject, body); err != nil {
		s.logger.Warn("sending reset email failed, returning otp to caller",
			slog.String("email", user.Email),
			slog.String("error", err.Error()),
		)
		return &ForgotResult{OTP: otp, EmailSent: false}, nil
	}

	s.logger.Info("reset otp emailed", slog.String("email", user.Email))
	return &ForgotResult{EmailSent: true}, nil
}

// VerifyOTP checks a recovery code and, when valid, returns a signed
// reset token the client presents to ResetPassword. The OTP itself stays
// redeemable until the reset completes, so a failed reset can retry.
func (s *AuthService) VerifyOTP(ctx context.Context, email, otp string) (string, error) {
	if email == "" || otp == "" {
		return "", apperror.ValidationFailed("otp", "email and otp are required")
	}

	if _, err := s.resets.FindValidReset(ctx, email, strings.TrimSpace(otp), time.Now()); err != nil {
		return "", apperror.New(apperror.ErrInvalidOTP, "Invalid or expired OTP")
	}

	token, err := s.tokens.GenerateReset(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", fmt.Errorf("service/auth: issuing reset token: %w", err)
	}
	return token, nil
}

// ResetPassword redeems a reset token and replaces the account password.
// All outstanding OTPs for the account are invalidated afterwards.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	if token == "" || password == "" {
		return apperror.ValidationFailed("password", "token and password are required")
	}

	email, err := s.tokens.ValidateReset(token)
	if err != nil {
		return apperror.New(apperror.ErrResetFailed, "Invalid or expired token")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return fmt.Errorf("service/auth: hashing new password: %w", err)
	}
	if err := s.users.UpdateUserPassword(ctx, email, hash); err != nil {
		return fmt.Errorf("service/auth: updating password for %s: %w", email, err)
	}
	if err := s.resets.MarkResetsUsed(ctx, email); err != nil {
		return fmt.Errorf("service/auth: invalidating resets for %s: %w", email, err)
	}

	s.logger.Info("password reset", slog.String("email", email))
	return nil
}
