package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/excel-finder/internal/apperror"
	"github.com/sakif/excel-finder/internal/model"
	"github.com/sakif/excel-finder/internal/service"
)

// maxUploadBytes caps an upload request at 50 MB. The client enforces
// the same ceiling before sending; this is the server-side backstop.
const maxUploadBytes = 50 << 20

// FileHandler exposes spreadsheet upload, listing, data, and deletion.
//
// Routes:
//   - POST   /api/upload
//   - GET    /api/files/{userID}
//   - GET    /api/files/{fileID}/data
//   - DELETE /api/files/{fileID}
type FileHandler struct {
	files  *service.FileService
	logger *slog.Logger
}

// NewFileHandler creates a FileHandler.
func NewFileHandler(files *service.FileService, logger *slog.Logger) *FileHandler {
	return &FileHandler{files: files, logger: logger}
}

// uploadResponse mirrors the workbook wire shape plus the stored record
// identifiers, so the client can render sheets straight from the upload
// response without a second request.
type uploadResponse struct {
	Message    string                 `json:"message"`
	FileID     string                 `json:"file_id"`
	Filename   string                 `json:"filename"`
	SheetNames []string               `json:"sheets"`
	Sheets     map[string]model.Sheet `json:"sheets_data"`
}

// HandleUpload accepts a multipart form with a "file" part and a
// "user_id" field, stores the spreadsheet, and returns the parsed
// contents.
//
// Response: 201 with uploadResponse.
func (h *FileHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, apperror.New(apperror.ErrFileTooLarge, "File too large (max 50MB)"))
			return
		}
		writeError(w, apperror.ValidationFailed("body", "invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, apperror.New(apperror.ErrNoFileSelected, "No file provided"))
		return
	}
	defer file.Close()

	userID := r.FormValue("user_id")

	stored, wb, err := h.files.Upload(r.Context(), userID, header.Filename, file)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, uploadResponse{
		Message:    "File uploaded and processed successfully",
		FileID:     stored.ID,
		Filename:   stored.OriginalFilename,
		SheetNames: wb.SheetNames,
		Sheets:     wb.Sheets,
	})
}

// HandleList returns the user's active files, newest first.
//
// Response: 200 {"files": [...]}
func (h *FileHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	files, err := h.files.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if files == nil {
		files = []model.StoredFile{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"files": files})
}

// HandleData returns the parsed sheets of one stored file.
//
// Response: 200 with uploadResponse minus the message.
func (h *FileHandler) HandleData(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")

	stored, wb, err := h.files.Data(r.Context(), fileID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"file_id":     stored.ID,
		"filename":    stored.OriginalFilename,
		"sheets":      wb.SheetNames,
		"sheets_data": wb.Sheets,
	})
}

// HandleDelete removes a stored file and its record.
//
// Response: 200 {"message": "..."}
func (h *FileHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")

	if err := h.files.Delete(r.Context(), fileID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "File deleted successfully",
	})
}
