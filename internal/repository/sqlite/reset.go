package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sakif/excel-finder/internal/apperror"
	"github.com/sakif/excel-finder/internal/model"
	"github.com/sakif/excel-finder/internal/repository"
)

var _ repository.ResetRepository = (*DB)(nil)

// CreateReset stores a newly issued recovery OTP.
func (db *DB) CreateReset(ctx context.Context, reset *model.PasswordReset) error {
	reset.Email = strings.ToLower(strings.TrimSpace(reset.Email))
	if reset.CreatedAt.IsZero() {
		reset.CreatedAt = time.Now()
	}

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO password_resets (email, otp, created_at, expires_at, used)
		 VALUES (?, ?, ?, ?, 0)`,
		reset.Email,
		reset.OTP,
		reset.CreatedAt,
		reset.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting password reset for %s: %w", reset.Email, err)
	}
	if id, err := res.LastInsertId(); err == nil {
		reset.ID = id
	}
	return nil
}

// FindValidReset returns the newest unused, unexpired reset matching the
// email and OTP. Expired or used codes report ErrNotFound — the caller
// translates that into an invalid-OTP failure.
func (db *DB) FindValidReset(ctx context.Context, email, otp string, now time.Time) (*model.PasswordReset, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var r model.PasswordReset
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, email, otp, created_at, expires_at, used
		 FROM password_resets
		 WHERE email = ? AND otp = ? AND used = 0 AND expires_at > ?
		 ORDER BY created_at DESC
		 LIMIT 1`,
		email, otp, now,
	).Scan(&r.ID, &r.Email, &r.OTP, &r.CreatedAt, &r.ExpiresAt, &r.Used)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("password reset", email)
		}
		return nil, fmt.Errorf("sqlite: finding password reset for %s: %w", email, err)
	}
	return &r, nil
}

// MarkResetsUsed invalidates every outstanding reset for the email.
// Called after a successful password reset so no issued OTP survives it.
func (db *DB) MarkResetsUsed(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	_, err := db.conn.ExecContext(ctx,
		`UPDATE password_resets SET used = 1 WHERE email = ? AND used = 0`,
		email,
	)
	if err != nil {
		return fmt.Errorf("sqlite: marking resets used for %s: %w", email, err)
	}
	return nil
}
