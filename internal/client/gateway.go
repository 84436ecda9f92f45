// Package client implements the user-facing side of Excel Finder: the
// API gateway, the persisted session, the login/recovery state machine,
// and the spreadsheet ingestion pipeline feeding the sheet view.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/sakif/excel-finder/internal/apperror"
	"github.com/sakif/excel-finder/internal/model"
)

// Gateway is the sole channel to the remote service. Controllers depend
// on this interface, so tests substitute fakes and never open sockets.
type Gateway interface {
	Register(ctx context.Context, name, email, password string) error
	Login(ctx context.Context, email, password string) (*model.User, error)
	ForgotPassword(ctx context.Context, email string) (*RecoveryChallenge, error)
	VerifyOTP(ctx context.Context, email, otp string) (string, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
	Upload(ctx context.Context, userID, filename string, content io.Reader, progress func(float64)) (*model.Workbook, error)
	ListFiles(ctx context.Context, userID string) ([]model.StoredFile, error)
	FileData(ctx context.Context, fileID string) (*model.Workbook, error)
	DeleteFile(ctx context.Context, fileID string) error
}

// RecoveryChallenge is the outcome of a forgot-password call. OTP is
// populated only when the server could not email the code and returned
// it in the response instead.
type RecoveryChallenge struct {
	OTP       string
	EmailSent bool
}

// HTTPGateway talks JSON over HTTP to the Excel Finder API.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
}

// NewHTTPGateway creates a gateway for the API at baseURL, e.g.
// "http://localhost:5000". A nil httpClient gets a default with a
// 60-second timeout, long enough for a large upload.
func NewHTTPGateway(baseURL string, httpClient *http.Client) *HTTPGateway {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
	}
}

// Register creates an account. A 2xx means success; the body is ignored.
func (g *HTTPGateway) Register(ctx context.Context, name, email, password string) error {
	return g.postJSON(ctx, "/api/auth/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, nil, "registration")
}

// Login verifies credentials and returns the account profile.
func (g *HTTPGateway) Login(ctx context.Context, email, password string) (*model.User, error) {
	var res struct {
		User *model.User `json:"user"`
	}
	err := g.postJSON(ctx, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &res, "login")
	if err != nil {
		return nil, err
	}
	if res.User == nil {
		return nil, apperror.New(apperror.ErrNetwork, "login failed")
	}
	return res.User, nil
}

// ForgotPassword starts the recovery flow for email.
func (g *HTTPGateway) ForgotPassword(ctx context.Context, email string) (*RecoveryChallenge, error) {
	var res struct {
		OTP       string `json:"otp"`
		EmailSent bool   `json:"email_sent"`
	}
	err := g.postJSON(ctx, "/api/auth/forgot-password", map[string]string{
		"email": email,
	}, &res, "password recovery")
	if err != nil {
		return nil, err
	}
	return &RecoveryChallenge{OTP: res.OTP, EmailSent: res.EmailSent}, nil
}

// VerifyOTP redeems a recovery code for a reset token.
func (g *HTTPGateway) VerifyOTP(ctx context.Context, email, otp string) (string, error) {
	var res struct {
		ResetToken string `json:"reset_token"`
	}
	err := g.postJSON(ctx, "/api/auth/verify-otp", map[string]string{
		"email": email,
		"otp":   otp,
	}, &res, "OTP verification")
	if err != nil {
		return "", err
	}
	if res.ResetToken == "" {
		return "", apperror.New(apperror.ErrInvalidOTP, "OTP verification failed")
	}
	return res.ResetToken, nil
}

// ResetPassword completes the recovery flow.
func (g *HTTPGateway) ResetPassword(ctx context.Context, token, newPassword string) error {
	return g.postJSON(ctx, "/api/auth/reset-password", map[string]string{
		"reset_token":  token,
		"new_password": newPassword,
	}, nil, "password reset")
}

// Upload sends a spreadsheet as a multipart form and returns the parsed
// workbook from the response.
//
// progress, when non-nil, receives a monotonically increasing fraction
// in [0,1] as the request body is consumed, ending with exactly 1.
func (g *HTTPGateway) Upload(ctx context.Context, userID, filename string, content io.Reader, progress func(float64)) (*model.Workbook, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("client: building upload form: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("client: reading file: %w", err)
	}
	if err := mw.WriteField("user_id", userID); err != nil {
		return nil, fmt.Errorf("client: building upload form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("client: building upload form: %w", err)
	}

	var body io.Reader = &buf
	if progress != nil {
		body = newProgressReader(&buf, int64(buf.Len()), progress)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/upload", body)
	if err != nil {
		return nil, fmt.Errorf("client: building upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, apperror.New(apperror.ErrNetwork, "Could not reach the server")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, responseError(resp, "upload")
	}

	var wb model.Workbook
	if err := json.NewDecoder(resp.Body).Decode(&wb); err != nil {
		return nil, apperror.New(apperror.ErrNetwork, "upload failed")
	}
	return &wb, nil
}

// ListFiles returns the user's stored files.
func (g *HTTPGateway) ListFiles(ctx context.Context, userID string) ([]model.StoredFile, error) {
	var res struct {
		Files []model.StoredFile `json:"files"`
	}
	if err := g.getJSON(ctx, "/api/files/"+userID, &res, "file listing"); err != nil {
		return nil, err
	}
	return res.Files, nil
}

// FileData returns the parsed workbook of one stored file.
func (g *HTTPGateway) FileData(ctx context.Context, fileID string) (*model.Workbook, error) {
	var wb model.Workbook
	if err := g.getJSON(ctx, "/api/files/"+fileID+"/data", &wb, "file data"); err != nil {
		return nil, err
	}
	return &wb, nil
}

// DeleteFile removes one stored file.
func (g *HTTPGateway) DeleteFile(ctx context.Context, fileID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, g.baseURL+"/api/files/"+fileID, nil)
	if err != nil {
		return fmt.Errorf("client: building request: %w", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return apperror.New(apperror.ErrNetwork, "Could not reach the server")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return responseError(resp, "file deletion")
	}
	return nil
}

func (g *HTTPGateway) postJSON(ctx context.Context, path string, payload, dst interface{}, operation string) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("client: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("client: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return g.do(req, dst, operation)
}

func (g *HTTPGateway) getJSON(ctx context.Context, path string, dst interface{}, operation string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("client: building request: %w", err)
	}
	return g.do(req, dst, operation)
}

func (g *HTTPGateway) do(req *http.Request, dst interface{}, operation string) error {
	resp, err := g.client.Do(req)
	if err != nil {
		return apperror.New(apperror.ErrNetwork, "Could not reach the server")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return responseError(resp, operation)
	}
	if dst != nil {
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			return apperror.New(apperror.ErrNetwork, operation+" failed")
		}
	}
	return nil
}

// responseError turns a non-2xx response into a typed failure. The
// server's error type string selects the sentinel; the human message is
// taken from the body when present, else "<operation> failed". A body
// that is not JSON at all is tolerated and surfaced as raw text.
func responseError(resp *http.Response, operation string) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		msg := strings.TrimSpace(string(raw))
		if msg == "" {
			msg = operation + " failed"
		}
		return apperror.New(apperror.ErrNetwork, msg)
	}

	msg := body.Message
	if msg == "" {
		msg = operation + " failed"
	}

	sentinel := apperror.ErrNetwork
	switch body.Error {
	case "validation_error":
		sentinel = apperror.ErrValidation
	case "invalid_credentials":
		sentinel = apperror.ErrInvalidCredentials
	case "invalid_otp":
		sentinel = apperror.ErrInvalidOTP
	case "reset_failed":
		sentinel = apperror.ErrResetFailed
	case "not_found":
		sentinel = apperror.ErrNotFound
	case "conflict":
		sentinel = apperror.ErrConflict
	case "no_file_selected":
		sentinel = apperror.ErrNoFileSelected
	case "unsupported_type":
		sentinel = apperror.ErrUnsupportedType
	case "file_too_large":
		sentinel = apperror.ErrFileTooLarge
	case "processing_error":
		sentinel = apperror.ErrRemoteProcessing
	}
	return apperror.New(sentinel, msg)
}

// progressReader reports consumption of a fixed-size body as a fraction
// in [0,1]. Reported values never decrease, and 1 is reported exactly
// once at EOF.
type progressReader struct {
	r        io.Reader
	total    int64
	read     int64
	last     float64
	done     bool
	progress func(float64)
}

func newProgressReader(r io.Reader, total int64, progress func(float64)) *progressReader {
	return &progressReader{r: r, total: total, progress: progress}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)

	if p.total > 0 && !p.done {
		frac := float64(p.read) / float64(p.total)
		if frac >= 1 {
			frac = 1
			p.done = true
		}
		if frac > p.last {
			p.last = frac
			p.progress(frac)
		}
	}
	return n, err
}
