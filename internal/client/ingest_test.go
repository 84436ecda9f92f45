package client

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/sakif/excel-finder/internal/apperror"
	"github.com/sakif/excel-finder/internal/model"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func twoSheetWorkbook(t *testing.T) *model.Workbook {
	t.Helper()
	wb := model.NewWorkbook()
	if err := wb.AddSheet("Sheet1", model.Sheet{Columns: []string{"A"}, Rows: []map[string]string{{"A": "1"}}}); err != nil {
		t.Fatal(err)
	}
	if err := wb.AddSheet("Sheet2", model.Sheet{Columns: []string{"B"}, Rows: []map[string]string{{"B": "2"}}}); err != nil {
		t.Fatal(err)
	}
	return wb
}

func TestRemoteIngestRejectsDisallowedTypeBeforeNetwork(t *testing.T) {
	gw := newFakeGateway()
	ing := NewRemoteIngester(gw)

	file := model.UploadedFile{Name: "archive.zip", SizeBytes: 100, MIMEType: "application/zip"}
	_, err := ing.Ingest(context.Background(), file, strings.NewReader("zip"), "u1", nil)
	if !errors.Is(err, apperror.ErrUnsupportedType) {
		t.Fatalf("Ingest zip = %v, want ErrUnsupportedType", err)
	}
	if gw.callCount("upload") != 0 {
		t.Error("rejected file must never be transmitted")
	}
}

func TestRemoteIngestRejectsOversizeBeforeNetwork(t *testing.T) {
	gw := newFakeGateway()
	ing := NewRemoteIngester(gw)

	file := model.UploadedFile{Name: "big.xlsx", SizeBytes: maxUploadBytes + 1, MIMEType: xlsxMIME}
	_, err := ing.Ingest(context.Background(), file, strings.NewReader("x"), "u1", nil)
	if !errors.Is(err, apperror.ErrFileTooLarge) {
		t.Fatalf("Ingest oversize = %v, want ErrFileTooLarge", err)
	}
	if gw.callCount("upload") != 0 {
		t.Error("oversize file must never be transmitted")
	}
}

func TestRemoteIngestRejectsMissingFile(t *testing.T) {
	ing := NewRemoteIngester(newFakeGateway())

	_, err := ing.Ingest(context.Background(), model.UploadedFile{}, strings.NewReader(""), "u1", nil)
	if !errors.Is(err, apperror.ErrNoFileSelected) {
		t.Errorf("Ingest without file = %v, want ErrNoFileSelected", err)
	}
}

func TestRemoteIngestAllowedTypes(t *testing.T) {
	for _, mime := range []string{
		"application/pdf",
		"image/png",
		"image/jpeg",
		"application/vnd.ms-excel",
		xlsxMIME,
		"text/csv",
	} {
		gw := newFakeGateway()
		gw.uploadFn = func(userID, filename string, content io.Reader, progress func(float64)) (*model.Workbook, error) {
			return twoSheetWorkbook(t), nil
		}
		ing := NewRemoteIngester(gw)

		file := model.UploadedFile{Name: "f", SizeBytes: 10, MIMEType: mime}
		if _, err := ing.Ingest(context.Background(), file, strings.NewReader("x"), "u1", nil); err != nil {
			t.Errorf("Ingest(%s) = %v, want success", mime, err)
		}
	}
}

func TestLocalIngestParsesWorkbook(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "Name")
	f.SetCellValue("Sheet1", "B1", "Age")
	f.SetCellValue("Sheet1", "A2", "alice")
	// B2 left empty on purpose.
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	ing := &LocalIngester{}
	file := model.UploadedFile{Name: "people.xlsx", SizeBytes: int64(buf.Len()), MIMEType: xlsxMIME}

	var final float64
	wb, err := ing.Ingest(context.Background(), file, buf, "u1", func(frac float64) { final = frac })
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if final != 1 {
		t.Errorf("progress final = %v, want 1", final)
	}

	rows := wb.Sheets["Sheet1"].Rows
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	age, ok := rows[0]["Age"]
	if !ok {
		t.Fatal("empty cell must be present as a key")
	}
	if age != "" {
		t.Errorf("empty cell = %q, want \"\"", age)
	}
}

func TestLocalIngestRejectsGarbage(t *testing.T) {
	ing := &LocalIngester{}
	file := model.UploadedFile{Name: "bad.xlsx", SizeBytes: 3}

	_, err := ing.Ingest(context.Background(), file, strings.NewReader("bad"), "u1", nil)
	if !errors.Is(err, apperror.ErrRemoteProcessing) {
		t.Errorf("Ingest garbage = %v, want ErrRemoteProcessing", err)
	}
}

// blockingIngester parks until released, to hold the pipeline busy.
type blockingIngester struct {
	started chan struct{}
	release chan struct{}
	result  *model.Workbook
	err     error
}

func (b *blockingIngester) Ingest(ctx context.Context, file model.UploadedFile, content io.Reader, ownerID string, progress func(float64)) (*model.Workbook, error) {
	close(b.started)
	<-b.release
	return b.result, b.err
}

// stubIngester returns a fixed result.
type stubIngester struct {
	result *model.Workbook
	err    error
	calls  int
}

func (s *stubIngester) Ingest(ctx context.Context, file model.UploadedFile, content io.Reader, ownerID string, progress func(float64)) (*model.Workbook, error) {
	s.calls++
	return s.result, s.err
}

func TestPipelineSelectsFirstSheetOnSuccess(t *testing.T) {
	view := NewSheetViewModel()
	var successes int
	p := NewFileIngestionPipeline(&stubIngester{result: twoSheetWorkbook(t)}, view, func() { successes++ })

	p.SelectFile(&model.UploadedFile{Name: "f.xlsx", SizeBytes: 10, MIMEType: xlsxMIME})
	wb, err := p.Ingest(context.Background(), strings.NewReader("x"), "u1", nil)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if got := view.ActiveSheet(); got != "Sheet1" {
		t.Errorf("active sheet = %q, want Sheet1", got)
	}
	if len(wb.SheetNames) != 2 {
		t.Errorf("SheetNames = %v", wb.SheetNames)
	}
	if successes != 1 {
		t.Errorf("success signaled %d times, want exactly 1", successes)
	}
}

func TestPipelineRequiresSelection(t *testing.T) {
	p := NewFileIngestionPipeline(&stubIngester{}, NewSheetViewModel(), nil)

	_, err := p.Ingest(context.Background(), strings.NewReader("x"), "u1", nil)
	if !errors.Is(err, apperror.ErrNoFileSelected) {
		t.Errorf("Ingest without selection = %v, want ErrNoFileSelected", err)
	}
}

func TestPipelineCancelledPickerResets(t *testing.T) {
	view := NewSheetViewModel()
	p := NewFileIngestionPipeline(&stubIngester{result: twoSheetWorkbook(t)}, view, nil)

	p.SelectFile(&model.UploadedFile{Name: "f.xlsx", SizeBytes: 10, MIMEType: xlsxMIME})
	if _, err := p.Ingest(context.Background(), strings.NewReader("x"), "u1", nil); err != nil {
		t.Fatal(err)
	}

	// User reopens the picker and cancels.
	p.SelectFile(nil)
	if p.Selected() != nil {
		t.Error("cancelled picker should clear the selection")
	}
	if view.ActiveSheet() != "" || view.RowCount() != 0 {
		t.Error("cancelled picker should clear the view")
	}
}

func TestPipelineFailureResetsView(t *testing.T) {
	view := NewSheetViewModel()
	stub := &stubIngester{result: twoSheetWorkbook(t)}
	p := NewFileIngestionPipeline(stub, view, nil)

	p.SelectFile(&model.UploadedFile{Name: "f.xlsx", SizeBytes: 10, MIMEType: xlsxMIME})
	if _, err := p.Ingest(context.Background(), strings.NewReader("x"), "u1", nil); err != nil {
		t.Fatal(err)
	}
	if view.ActiveSheet() != "Sheet1" {
		t.Fatal("precondition: first ingest succeeded")
	}

	stub.result = nil
	stub.err = apperror.New(apperror.ErrRemoteProcessing, "Failed to process Excel file: bad")
	if _, err := p.Ingest(context.Background(), strings.NewReader("x"), "u1", nil); err == nil {
		t.Fatal("second ingest should fail")
	}

	// The view never shows stale data from the earlier success.
	if view.ActiveSheet() != "" {
		t.Errorf("active sheet after failure = %q, want empty", view.ActiveSheet())
	}
	if view.RowCount() != 0 || view.ColumnCount() != 0 {
		t.Error("view should be empty after a failed ingest")
	}
}

func TestPipelineBusyRejectsSecondIngest(t *testing.T) {
	view := NewSheetViewModel()
	blocking := &blockingIngester{
		started: make(chan struct{}),
		release: make(chan struct{}),
		result:  twoSheetWorkbook(t),
	}
	p := NewFileIngestionPipeline(blocking, view, nil)
	p.SelectFile(&model.UploadedFile{Name: "f.xlsx", SizeBytes: 10, MIMEType: xlsxMIME})

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = p.Ingest(context.Background(), strings.NewReader("x"), "u1", nil)
	}()

	<-blocking.started
	if !p.Busy() {
		t.Error("pipeline should report busy during ingestion")
	}
	_, err := p.Ingest(context.Background(), strings.NewReader("x"), "u1", nil)
	if !errors.Is(err, apperror.ErrBusy) {
		t.Errorf("second Ingest while busy = %v, want ErrBusy", err)
	}

	close(blocking.release)
	wg.Wait()
	if firstErr != nil {
		t.Fatalf("first Ingest: %v", firstErr)
	}
	// The first call's result is unaffected by the rejected second call.
	if view.ActiveSheet() != "Sheet1" {
		t.Errorf("active sheet = %q, want Sheet1", view.ActiveSheet())
	}
}
