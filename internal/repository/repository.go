// Package repository defines the storage interfaces the service layer
// depends on. The sqlite subpackage implements them; tests substitute
// in-memory fakes.
package repository

import (
	"context"
	"time"

	"github.com/sakif/excel-finder/internal/model"
)

// UserRepository persists user accounts.
type UserRepository interface {
	// CreateUser inserts a new user. Returns apperror.ErrConflict when the
	// email is already registered.
	CreateUser(ctx context.Context, user *model.User) error
	// GetUserByEmail returns the user with the given email, or
	// apperror.ErrNotFound.
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// GetUserByID returns the user with the given ID, or apperror.ErrNotFound.
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	// UpdateUserPassword replaces the password hash for the given email.
	UpdateUserPassword(ctx context.Context, email, passwordHash string) error
}

// FileRepository persists uploaded spreadsheets and their parsed data.
type FileRepository interface {
	// CreateFile inserts a file record together with its parsed sheet JSON.
	CreateFile(ctx context.Context, file *model.StoredFile, sheetsJSON []byte) error
	// ListFilesByUser returns the active files owned by a user, newest first.
	ListFilesByUser(ctx context.Context, userID string) ([]model.StoredFile, error)
	// GetFileByID returns an active file record, or apperror.ErrNotFound.
	GetFileByID(ctx context.Context, fileID string) (*model.StoredFile, error)
	// GetFileData returns a file record and its parsed sheet JSON.
	GetFileData(ctx context.Context, fileID string) (*model.StoredFile, []byte, error)
	// DeactivateFile soft-deletes a file record.
	DeactivateFile(ctx context.Context, fileID string) error
}

// ResetRepository persists password-recovery OTPs.
type ResetRepository interface {
	// CreateReset stores a newly issued OTP.
	CreateReset(ctx context.Context, reset *model.PasswordReset) error
	// FindValidReset returns the unused, unexpired reset record matching the
	// email and OTP, or apperror.ErrNotFound.
	FindValidReset(ctx context.Context, email, otp string, now time.Time) (*model.PasswordReset, error)
	// MarkResetsUsed invalidates every outstanding reset for the email.
	MarkResetsUsed(ctx context.Context, email string) error
}
