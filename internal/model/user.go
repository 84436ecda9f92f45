// Package model defines the data structures shared by the server and the
// client. Structs only — behavior lives in the service and client layers.
package model

import "time"

// User represents a registered account.
//
// ID is an opaque string generated server-side (xid). The client treats
// the whole struct as immutable identity data: it is returned by login,
// owned by the session store afterwards, and cleared on logout.
//
// PasswordHash never leaves the server — note the json:"-".
type User struct {
	ID           string    `json:"user_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"-"`
	Active       bool      `json:"-"`
}

// PasswordReset is one issued recovery OTP. A reset record is single-use
// and expires one hour after issuance.
type PasswordReset struct {
	ID        int64
	Email     string
	OTP       string
	CreatedAt time.Time
	ExpiresAt time.Time
	Used      bool
}

// Expired reports whether the reset record is past its expiry at now.
func (p *PasswordReset) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}
