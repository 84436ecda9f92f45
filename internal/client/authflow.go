package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/sakif/excel-finder/internal/apperror"
)

// Stage is the position in the password-recovery flow. Transitions are
// strictly forward (Idle, OTPSent, OTPVerified); GoBack steps backwards
// one stage at a time and a completed reset returns to Idle.
type Stage int

const (
	StageIdle Stage = iota
	StageOTPSent
	StageOTPVerified
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageOTPSent:
		return "otp_sent"
	case StageOTPVerified:
		return "otp_verified"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// AuthFlowController drives login, registration, and password recovery.
// It owns the recovery stage machine and is the only writer of the
// session store.
//
// While a network call is outstanding the controller is busy: a second
// operation started during that window fails immediately with ErrBusy
// instead of queuing, so duplicate in-flight requests cannot happen.
type AuthFlowController struct {
	gateway  Gateway
	sessions *SessionStore

	mu         sync.Mutex
	busy       bool
	stage      Stage
	email      string
	resetToken string
}

// NewAuthFlowController creates a controller at StageIdle.
func NewAuthFlowController(gateway Gateway, sessions *SessionStore) *AuthFlowController {
	return &AuthFlowController{gateway: gateway, sessions: sessions}
}

// Stage returns the current recovery stage.
func (c *AuthFlowController) Stage() Stage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stage
}

// Busy reports whether a network call is outstanding.
func (c *AuthFlowController) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// begin claims the busy flag, failing fast when an operation is already
// outstanding.
func (c *AuthFlowController) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return apperror.Busy("authentication")
	}
	c.busy = true
	return nil
}

func (c *AuthFlowController) end() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}

// Register creates an account. All fields are validated locally first;
// a mismatch or empty field never reaches the network. Success does not
// log the user in.
func (c *AuthFlowController) Register(ctx context.Context, name, email, password, confirmPassword string) error {
	if name == "" || email == "" || password == "" || confirmPassword == "" {
		return apperror.ValidationFailed("registration", "All fields are required")
	}
	if password != confirmPassword {
		return apperror.ValidationFailed("confirmPassword", "Passwords do not match")
	}

	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	return c.gateway.Register(ctx, name, email, password)
}

// Login verifies credentials and, on success, persists the session.
// On failure the session store is left untouched.
func (c *AuthFlowController) Login(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("credentials", "Email and password are required")
	}

	if err := c.begin(); err != nil {
		return nil, err
	}
	defer c.end()

	user, err := c.gateway.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := c.sessions.Save(user); err != nil {
		return nil, err
	}
	return &Session{LoggedIn: true, User: user}, nil
}

// Logout clears the persisted session and resets the recovery flow.
func (c *AuthFlowController) Logout() error {
	c.mu.Lock()
	c.stage = StageIdle
	c.email = ""
	c.resetToken = ""
	c.mu.Unlock()
	return c.sessions.Clear()
}

// StartRecovery requests a recovery OTP for email and advances to
// StageOTPSent. The returned challenge carries the raw OTP when the
// server could not deliver it by email.
func (c *AuthFlowController) StartRecovery(ctx context.Context, email string) (*RecoveryChallenge, error) {
	if email == "" {
		return nil, apperror.ValidationFailed("email", "Email is required")
	}

	if err := c.begin(); err != nil {
		return nil, err
	}
	defer c.end()

	challenge, err := c.gateway.ForgotPassword(ctx, email)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.stage = StageOTPSent
	c.email = email
	c.resetToken = ""
	c.mu.Unlock()
	return challenge, nil
}

// SubmitOTP verifies the recovery code and advances to StageOTPVerified.
// On failure the stage is unchanged so the user can retry.
func (c *AuthFlowController) SubmitOTP(ctx context.Context, code string) error {
	if code == "" {
		return apperror.ValidationFailed("otp", "OTP is required")
	}

	c.mu.Lock()
	if c.stage != StageOTPSent {
		c.mu.Unlock()
		return apperror.ValidationFailed("stage", "No OTP has been requested")
	}
	email := c.email
	c.mu.Unlock()

	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	token, err := c.gateway.VerifyOTP(ctx, email, code)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.stage = StageOTPVerified
	c.resetToken = token
	c.mu.Unlock()
	return nil
}

// ResetPassword completes the recovery flow. It is rejected without a
// network call unless the stage is StageOTPVerified. Success clears the
// whole flow back to StageIdle; failure stays at StageOTPVerified so
// the user can retry.
func (c *AuthFlowController) ResetPassword(ctx context.Context, newPassword string) error {
	if newPassword == "" {
		return apperror.ValidationFailed("password", "New password is required")
	}

	c.mu.Lock()
	if c.stage != StageOTPVerified {
		c.mu.Unlock()
		return apperror.ValidationFailed("stage", "OTP must be verified first")
	}
	token := c.resetToken
	c.mu.Unlock()

	if err := c.begin(); err != nil {
		return err
	}
	defer c.end()

	if err := c.gateway.ResetPassword(ctx, token, newPassword); err != nil {
		return err
	}

	c.mu.Lock()
	c.stage = StageIdle
	c.email = ""
	c.resetToken = ""
	c.mu.Unlock()
	return nil
}

// GoBack steps the recovery flow one stage backwards. It is a pure
// state transition, never a network call. At StageIdle it is a no-op;
// the caller decides whether to leave the recovery view.
func (c *AuthFlowController) GoBack() Stage {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.stage {
	case StageOTPVerified:
		c.stage = StageOTPSent
		c.resetToken = ""
	case StageOTPSent:
		c.stage = StageIdle
		c.email = ""
	}
	return c.stage
}
