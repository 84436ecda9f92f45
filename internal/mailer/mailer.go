// Package mailer sends recovery OTP emails over SMTP.
//
// The auth service depends on the Mailer interface, not on this
// implementation, so tests substitute a fake and the forgot-password
// degraded mode (mailer unconfigured → OTP revealed in the response) is
// exercised without a mail server.
package mailer

import (
	"fmt"
	"net/smtp"
)

// Mailer delivers a plain-text message to one recipient.
type Mailer interface {
	// Send returns an error when delivery fails; Configured reports
	// whether sending is possible at all (credentials present).
	Send(to, subject, body string) error
	Configured() bool
}

// Config holds SMTP settings, typically from SMTP_* env vars.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
}

// SMTP is a Mailer over net/smtp with STARTTLS (the PLAIN auth upgrade
// path on port 587).
type SMTP struct {
	cfg Config
}

// New creates an SMTP mailer. An empty username or password leaves the
// mailer unconfigured; callers fall back to degraded mode.
func New(cfg Config) *SMTP {
	return &SMTP{cfg: cfg}
}

// Configured reports whether credentials are present.
func (m *SMTP) Configured() bool {
	return m.cfg.Username != "" && m.cfg.Password != ""
}

// Send delivers a plain-text message to one recipient.
func (m *SMTP) Send(to, subject, body string) error {
	if !m.Configured() {
		return fmt.Errorf("mailer: smtp credentials not configured")
	}

	msg := []byte(
		"From: " + m.cfg.Username + "\r\n" +
			"To: " + to + "\r\n" +
			"Subject: " + subject + "\r\n" +
			"\r\n" +
			body + "\r\n",
	)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	if err := smtp.SendMail(addr, auth, m.cfg.Username, []string{to}, msg); err != nil {
		return fmt.Errorf("mailer: sending to %s: %w", to, err)
	}
	return nil
}
