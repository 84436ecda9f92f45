package client

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/sakif/excel-finder/internal/apperror"
	"github.com/sakif/excel-finder/internal/model"
	"github.com/sakif/excel-finder/internal/workbook"
)

// maxUploadBytes is the client-side ceiling for remote ingestion, the
// same 50 MB limit the server enforces.
const maxUploadBytes = 50 << 20

// allowedMIMETypes is the remote-mode allow-list. Note that a generic
// "application/zip" is not on it even though .xlsx is zip underneath;
// the browser-style detector must have identified a concrete type.
var allowedMIMETypes = map[string]bool{
	"application/pdf": true,
	"image/png":       true,
	"image/jpeg":      true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"text/csv": true,
}

// Ingester turns a selected file into a workbook. Two interchangeable
// implementations exist: RemoteIngester uploads through the gateway,
// LocalIngester decodes the spreadsheet in-process.
type Ingester interface {
	Ingest(ctx context.Context, file model.UploadedFile, content io.Reader, ownerID string, progress func(float64)) (*model.Workbook, error)
}

// RemoteIngester validates the file descriptor and uploads the content
// through the gateway. Size and type checks run before any bytes are
// transmitted.
type RemoteIngester struct {
	gateway Gateway
}

// NewRemoteIngester creates a gateway-backed ingester.
func NewRemoteIngester(gateway Gateway) *RemoteIngester {
	return &RemoteIngester{gateway: gateway}
}

// Ingest uploads the file and returns the server-parsed workbook.
func (r *RemoteIngester) Ingest(ctx context.Context, file model.UploadedFile, content io.Reader, ownerID string, progress func(float64)) (*model.Workbook, error) {
	if file.Name == "" {
		return nil, apperror.New(apperror.ErrNoFileSelected, "No file selected")
	}
	if file.SizeBytes > maxUploadBytes {
		return nil, apperror.New(apperror.ErrFileTooLarge, "File too large (max 50MB)")
	}
	if !allowedMIMETypes[file.MIMEType] {
		return nil, apperror.New(apperror.ErrUnsupportedType, "File type not supported")
	}

	wb, err := r.gateway.Upload(ctx, ownerID, file.Name, content, progress)
	if err != nil {
		return nil, err
	}
	return wb, nil
}

// LocalIngester decodes the spreadsheet without a backend. The whole
// content is read into memory first; the size/type allow-list is not
// enforced since nothing is transmitted.
type LocalIngester struct{}

// Ingest parses content as a workbook.
func (l *LocalIngester) Ingest(ctx context.Context, file model.UploadedFile, content io.Reader, ownerID string, progress func(float64)) (*model.Workbook, error) {
	if file.Name == "" {
		return nil, apperror.New(apperror.ErrNoFileSelected, "No file selected")
	}

	data, err := io.ReadAll(content)
	if err != nil {
		return nil, apperror.New(apperror.ErrNetwork, "Could not read the file")
	}
	if progress != nil {
		progress(1)
	}

	wb, err := workbook.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, apperror.Newf(apperror.ErrRemoteProcessing,
			"Failed to process Excel file: %s", "the file may be corrupted or password protected")
	}
	return wb, nil
}

// FileIngestionPipeline owns the selected file, runs ingestion through
// a configured strategy, and publishes the result to a SheetViewModel.
//
// At most one ingestion is in flight per pipeline: a second call while
// busy fails immediately with ErrBusy. On any failure the view model is
// reset to empty so stale or partial data is never shown. On success
// the onSuccess callback fires exactly once per ingestion.
type FileIngestionPipeline struct {
	ingester  Ingester
	view      *SheetViewModel
	onSuccess func()

	mu       sync.Mutex
	busy     bool
	selected *model.UploadedFile
}

// NewFileIngestionPipeline creates a pipeline feeding view through the
// given strategy. onSuccess may be nil.
func NewFileIngestionPipeline(ingester Ingester, view *SheetViewModel, onSuccess func()) *FileIngestionPipeline {
	return &FileIngestionPipeline{ingester: ingester, view: view, onSuccess: onSuccess}
}

// SelectFile records the picked file and clears any previous workbook.
// A nil file means the user cancelled the picker; everything resets to
// the empty state.
func (p *FileIngestionPipeline) SelectFile(file *model.UploadedFile) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.view.Reset()
	if file == nil {
		p.selected = nil
		return
	}
	copied := *file
	p.selected = &copied
}

// Selected returns the currently selected file descriptor, or nil.
func (p *FileIngestionPipeline) Selected() *model.UploadedFile {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.selected == nil {
		return nil
	}
	copied := *p.selected
	return &copied
}

// Busy reports whether an ingestion is outstanding.
func (p *FileIngestionPipeline) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.busy
}

// Ingest runs the selected file through the strategy and, on success,
// installs the workbook in the view model with the first sheet active.
func (p *FileIngestionPipeline) Ingest(ctx context.Context, content io.Reader, ownerID string, progress func(float64)) (*model.Workbook, error) {
	p.mu.Lock()
	if p.busy {
		p.mu.Unlock()
		return nil, apperror.Busy("ingestion")
	}
	if p.selected == nil {
		p.mu.Unlock()
		return nil, apperror.New(apperror.ErrNoFileSelected, "No file selected")
	}
	p.busy = true
	file := *p.selected
	p.mu.Unlock()

	wb, err := p.ingester.Ingest(ctx, file, content, ownerID, progress)

	p.mu.Lock()
	p.busy = false
	if err != nil {
		p.view.Reset()
		p.mu.Unlock()
		return nil, err
	}
	p.view.SetWorkbook(wb)
	p.mu.Unlock()

	if p.onSuccess != nil {
		p.onSuccess()
	}
	return wb, nil
}
