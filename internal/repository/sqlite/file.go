package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/excel-finder/internal/apperror"
	"github.com/sakif/excel-finder/internal/model"
	"github.com/sakif/excel-finder/internal/repository"
)

var _ repository.FileRepository = (*DB)(nil)

// CreateFile inserts a file record along with its parsed sheet JSON.
// The caller (FileService) has already generated the file ID and written
// the bytes to disk.
func (db *DB) CreateFile(ctx context.Context, file *model.StoredFile, sheetsJSON []byte) error {
	if file.UploadedAt.IsZero() {
		file.UploadedAt = time.Now()
	}
	file.Active = true

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO files (id, user_id, filename, original_filename, path, size_bytes, sheets_json, uploaded_at, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		file.ID,
		file.UserID,
		file.Filename,
		file.OriginalFilename,
		file.Path,
		file.SizeBytes,
		string(sheetsJSON),
		file.UploadedAt,
		file.Active,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting file %s: %w", file.ID, err)
	}
	return nil
}

// ListFilesByUser returns the user's active files, newest first.
func (db *DB) ListFilesByUser(ctx context.Context, userID string) ([]model.StoredFile, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, filename, original_filename, path, size_bytes, uploaded_at, active
		 FROM files
		 WHERE user_id = ? AND active = 1
		 ORDER BY uploaded_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing files for user %s: %w", userID, err)
	}
	defer rows.Close()

	var files []model.StoredFile
	for rows.Next() {
		var f model.StoredFile
		if err := rows.Scan(&f.ID, &f.UserID, &f.Filename, &f.OriginalFilename, &f.Path, &f.SizeBytes, &f.UploadedAt, &f.Active); err != nil {
			return nil, fmt.Errorf("sqlite: scanning file row: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating file rows: %w", err)
	}
	return files, nil
}

// GetFileByID returns an active file record.
func (db *DB) GetFileByID(ctx context.Context, fileID string) (*model.StoredFile, error) {
	var f model.StoredFile
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, filename, original_filename, path, size_bytes, uploaded_at, active
		 FROM files WHERE id = ? AND active = 1`,
		fileID,
	).Scan(&f.ID, &f.UserID, &f.Filename, &f.OriginalFilename, &f.Path, &f.SizeBytes, &f.UploadedAt, &f.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("file", fileID)
		}
		return nil, fmt.Errorf("sqlite: getting file %s: %w", fileID, err)
	}
	return &f, nil
}

// GetFileData returns a file record and the persisted sheet JSON.
func (db *DB) GetFileData(ctx context.Context, fileID string) (*model.StoredFile, []byte, error) {
	var (
		f          model.StoredFile
		sheetsJSON string
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, filename, original_filename, path, size_bytes, sheets_json, uploaded_at, active
		 FROM files WHERE id = ? AND active = 1`,
		fileID,
	).Scan(&f.ID, &f.UserID, &f.Filename, &f.OriginalFilename, &f.Path, &f.SizeBytes, &sheetsJSON, &f.UploadedAt, &f.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, apperror.NotFound("file", fileID)
		}
		return nil, nil, fmt.Errorf("sqlite: getting file data %s: %w", fileID, err)
	}
	return &f, []byte(sheetsJSON), nil
}

// DeactivateFile soft-deletes a file record. The physical file is removed by
// the service layer; the row stays for audit.
func (db *DB) DeactivateFile(ctx context.Context, fileID string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE files SET active = 0 WHERE id = ?`,
		fileID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deactivating file %s: %w", fileID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperror.NotFound("file", fileID)
	}
	return nil
}
