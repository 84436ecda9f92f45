package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/excel-finder/internal/apperror"
	"github.com/sakif/excel-finder/internal/model"
)

// createTestUser inserts a user to satisfy the files foreign key.
func createTestUser(t *testing.T, db *DB) *model.User {
	t.Helper()

	u := &model.User{Name: "Ada", Email: "ada@example.com", PasswordHash: "h"}
	if err := db.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("creating test user: %v", err)
	}
	return u
}

func TestCreateAndGetFile(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db)

	f := &model.StoredFile{
		ID:               "file-1",
		UserID:           user.ID,
		Filename:         "file-1_report.xlsx",
		OriginalFilename: "report.xlsx",
		Path:             "uploads/file-1_report.xlsx",
		SizeBytes:        1234,
	}
	sheets := []byte(`{"Sheet1":{"columns":["Name"],"rows":[{"Name":"Ada"}]}}`)
	if err := db.CreateFile(ctx, f, sheets); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if f.UploadedAt.IsZero() {
		t.Error("Create should stamp UploadedAt")
	}

	got, data, err := db.GetFileData(ctx, "file-1")
	if err != nil {
		t.Fatalf("GetData: %v", err)
	}
	if got.OriginalFilename != "report.xlsx" {
		t.Errorf("OriginalFilename = %q", got.OriginalFilename)
	}
	if string(data) != string(sheets) {
		t.Errorf("sheet JSON round-trip mismatch: %s", data)
	}
}

func TestListByUserNewestFirst(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db)

	older := &model.StoredFile{
		ID: "file-old", UserID: user.ID,
		Filename: "a", OriginalFilename: "a.xlsx", Path: "p/a",
		SizeBytes: 1, UploadedAt: time.Now().Add(-time.Hour),
	}
	newer := &model.StoredFile{
		ID: "file-new", UserID: user.ID,
		Filename: "b", OriginalFilename: "b.xlsx", Path: "p/b",
		SizeBytes: 2, UploadedAt: time.Now(),
	}
	for _, f := range []*model.StoredFile{older, newer} {
		if err := db.CreateFile(ctx, f, []byte(`{}`)); err != nil {
			t.Fatalf("Create %s: %v", f.ID, err)
		}
	}

	files, err := db.ListFilesByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("ListByUser returned %d files, want 2", len(files))
	}
	if files[0].ID != "file-new" || files[1].ID != "file-old" {
		t.Errorf("order = [%s, %s], want newest first", files[0].ID, files[1].ID)
	}
}

func TestDeactivateHidesFile(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db)

	f := &model.StoredFile{
		ID: "file-1", UserID: user.ID,
		Filename: "a", OriginalFilename: "a.xlsx", Path: "p/a", SizeBytes: 1,
	}
	if err := db.CreateFile(ctx, f, []byte(`{}`)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := db.DeactivateFile(ctx, "file-1"); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	if _, err := db.GetFileByID(ctx, "file-1"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID after deactivate = %v, want ErrNotFound", err)
	}
	files, err := db.ListFilesByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("deactivated file still listed: %+v", files)
	}

	if err := db.DeactivateFile(ctx, "missing"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Deactivate unknown = %v, want ErrNotFound", err)
	}
}
