package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/excel-finder/internal/service"
)

// AuthHandler exposes registration, login, and password recovery.
//
// Routes:
//   - POST /api/auth/register
//   - POST /api/auth/login
//   - POST /api/auth/forgot-password
//   - POST /api/auth/verify-otp
//   - POST /api/auth/reset-password
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(auth *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

// HandleRegister creates a new account.
//
// Request:  {"name": "...", "email": "...", "password": "..."}
// Response: 201 {"message": "...", "user": {...}}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Registration successful",
		"user":    user,
	})
}

// HandleLogin verifies credentials and returns the account profile. The
// client keeps its own session; there is no server-side session state.
//
// Request:  {"email": "...", "password": "..."}
// Response: 200 {"message": "...", "user": {...}}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Login successful",
		"user":    user,
	})
}

// HandleForgotPassword issues a recovery OTP and emails it.
//
// When email delivery is unavailable the response carries the OTP itself
// with email_sent=false, so recovery still works in environments without
// SMTP. That exposes the code to the caller; see the service docs.
//
// Request:  {"email": "..."}
// Response: 200 {"message": "...", "email_sent": bool, "otp": "..."?}
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.auth.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	body := map[string]interface{}{
		"email_sent": res.EmailSent,
	}
	if res.EmailSent {
		body["message"] = "OTP sent to your email"
	} else {
		body["message"] = "Email service unavailable, use the OTP below"
		body["otp"] = res.OTP
	}
	writeJSON(w, http.StatusOK, body)
}

// HandleVerifyOTP checks a recovery code and returns a short-lived reset
// token for the final step.
//
// Request:  {"email": "...", "otp": "..."}
// Response: 200 {"message": "...", "reset_token": "..."}
func (h *AuthHandler) HandleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	token, err := h.auth.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message":     "OTP verified successfully",
		"reset_token": token,
	})
}

// HandleResetPassword redeems a reset token and sets a new password.
//
// Request:  {"reset_token": "...", "new_password": "..."}
// Response: 200 {"message": "..."}
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ResetToken  string `json:"reset_token"`
		NewPassword string `json:"new_password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.auth.ResetPassword(r.Context(), req.ResetToken, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Password reset successful",
	})
}
