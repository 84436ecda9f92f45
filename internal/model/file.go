package model

import "time"

// StoredFile is the server-side record of one uploaded spreadsheet.
// The parsed sheet data is persisted alongside it as JSON so that
// GET /api/files/{id}/data never has to re-parse the original file.
type StoredFile struct {
	ID               string    `json:"file_id"`
	UserID           string    `json:"-"`
	Filename         string    `json:"-"`        // unique on-disk name
	OriginalFilename string    `json:"filename"` // name as uploaded
	Path             string    `json:"-"`
	SizeBytes        int64     `json:"file_size"`
	UploadedAt       time.Time `json:"uploaded_at"`
	Active           bool      `json:"-"`
}

// UploadedFile describes a file the client user selected — name and
// metadata only, not content.
type UploadedFile struct {
	Name      string
	SizeBytes int64
	MIMEType  string
}
