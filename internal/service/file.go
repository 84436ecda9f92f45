package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/excel-finder/internal/apperror"
	"github.com/sakif/excel-finder/internal/model"
	"github.com/sakif/excel-finder/internal/repository"
	"github.com/sakif/excel-finder/internal/workbook"
)

// FileService handles spreadsheet uploads, retrieval, and deletion.
//
// An upload is accepted, written under uploadDir, parsed into the
// workbook model, and persisted (record + parsed JSON) in one pass. If
// parsing fails the stored file is removed again — a failed upload
// leaves no trace.
type FileService struct {
	files     repository.FileRepository
	users     repository.UserRepository
	uploadDir string
	logger    *slog.Logger
}

// NewFileService creates a FileService. uploadDir must exist.
func NewFileService(
	files repository.FileRepository,
	users repository.UserRepository,
	uploadDir string,
	logger *slog.Logger,
) *FileService {
	return &FileService{
		files:     files,
		users:     users,
		uploadDir: uploadDir,
		logger:    logger,
	}
}

// processingFailedDetails mirrors the guidance the web client shows when
// a spreadsheet cannot be decoded.
const processingFailedDetails = "Please ensure the file is a valid Excel file (.xlsx or .xls) and not corrupted. The file may contain unsupported formatting or be password protected."

// Upload stores and parses one uploaded spreadsheet for the given user.
//
// The filename must end in .xlsx or .xls; everything else is rejected
// before any bytes are read. Returns the stored record plus the parsed
// workbook for the response body.
func (s *FileService) Upload(ctx context.Context, userID, originalFilename string, content io.Reader) (*model.StoredFile, *model.Workbook, error) {
	if userID == "" {
		return nil, nil, apperror.ValidationFailed("user_id", "User ID is required")
	}
	if originalFilename == "" {
		return nil, nil, apperror.New(apperror.ErrNoFileSelected, "No file selected")
	}

	lower := strings.ToLower(originalFilename)
	if !strings.HasSuffix(lower, ".xlsx") && !strings.HasSuffix(lower, ".xls") {
		return nil, nil, apperror.New(apperror.ErrUnsupportedType, "Only Excel files are allowed")
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("service/file: looking up user %s: %w", userID, err)
	}

	fileID := xid.New().String()
	safeName := sanitizeFilename(originalFilename)
	if safeName == "" {
		safeName = "file_" + fileID + ".xlsx"
	}
	uniqueName := fileID + "_" + safeName
	path := filepath.Join(s.uploadDir, uniqueName)

	size, err := writeFile(path, content)
	if err != nil {
		return nil, nil, fmt.Errorf("service/file: storing upload: %w", err)
	}

	wb, err := workbook.ParseFile(path)
	if err != nil {
		// A failed parse must not leave the file behind.
		os.Remove(path)
		s.logger.Error("spreadsheet processing failed",
			slog.String("filename", originalFilename),
			slog.String("error", err.Error()),
		)
		return nil, nil, apperror.Newf(apperror.ErrRemoteProcessing,
			"Failed to process Excel file: %s", processingFailedDetails)
	}

	// The whole workbook (names + data) is persisted so sheet discovery
	// order survives the round-trip through storage.
	sheetsJSON, err := json.Marshal(wb)
	if err != nil {
		os.Remove(path)
		return nil, nil, fmt.Errorf("service/file: encoding sheets: %w", err)
	}

	stored := &model.StoredFile{
		ID:               fileID,
		UserID:           user.ID,
		Filename:         uniqueName,
		OriginalFilename: originalFilename,
		Path:             path,
		SizeBytes:        size,
	}
	if err := s.files.CreateFile(ctx, stored, sheetsJSON); err != nil {
		os.Remove(path)
		return nil, nil, fmt.Errorf("service/file: persisting upload: %w", err)
	}

	s.logger.Info("file uploaded",
		slog.String("fileID", fileID),
		slog.String("userID", user.ID),
		slog.String("filename", originalFilename),
		slog.Int("sheets", len(wb.SheetNames)),
	)
	return stored, wb, nil
}

// List returns the user's active files, newest first.
func (s *FileService) List(ctx context.Context, userID string) ([]model.StoredFile, error) {
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("service/file: looking up user %s: %w", userID, err)
	}
	files, err := s.files.ListFilesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/file: listing files: %w", err)
	}
	return files, nil
}

// Data returns a stored file together with its parsed workbook.
func (s *FileService) Data(ctx context.Context, fileID string) (*model.StoredFile, *model.Workbook, error) {
	stored, sheetsJSON, err := s.files.GetFileData(ctx, fileID)
	if err != nil {
		return nil, nil, fmt.Errorf("service/file: fetching data for %s: %w", fileID, err)
	}

	wb := model.NewWorkbook()
	if err := json.Unmarshal(sheetsJSON, wb); err != nil {
		return nil, nil, fmt.Errorf("service/file: decoding sheets for %s: %w", fileID, err)
	}
	return stored, wb, nil
}

// Delete removes the physical file and soft-deletes the record.
func (s *FileService) Delete(ctx context.Context, fileID string) error {
	stored, err := s.files.GetFileByID(ctx, fileID)
	if err != nil {
		return fmt.Errorf("service/file: looking up file %s: %w", fileID, err)
	}

	if err := os.Remove(stored.Path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("removing stored file failed",
			slog.String("path", stored.Path),
			slog.String("error", err.Error()),
		)
	}
	if err := s.files.DeactivateFile(ctx, fileID); err != nil {
		return fmt.Errorf("service/file: deactivating %s: %w", fileID, err)
	}

	s.logger.Info("file deleted", slog.String("fileID", fileID))
	return nil
}

// writeFile streams content to path and returns the byte count.
func writeFile(path string, content io.Reader) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	size, err := io.Copy(f, content)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return 0, err
	}
	return size, nil
}

// sanitizeFilename keeps only the base name and strips characters that
// have meaning to shells or filesystems. Returns "" when nothing
// printable survives.
func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	trimmed := strings.Trim(b.String(), "._")
	if trimmed == "" {
		return ""
	}
	return b.String()
}
