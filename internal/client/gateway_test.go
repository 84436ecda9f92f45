package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/excel-finder/internal/apperror"
)

func TestGatewayLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/login", r.URL.Path)
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "ada@example.com", req["email"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"Login successful","user":{"user_id":"u1","name":"Ada","email":"ada@example.com"}}`))
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, srv.Client())
	user, err := g.Login(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "Ada", user.Name)
}

func TestGatewayLoginInvalidCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid_credentials","message":"Invalid email or password"}`))
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, srv.Client())
	_, err := g.Login(context.Background(), "ada@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrInvalidCredentials))
	assert.Equal(t, "Invalid email or password", apperror.Message(err))
}

func TestGatewayToleratesNonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, srv.Client())
	err := g.Register(context.Background(), "Ada", "a@b.com", "pw")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrNetwork))
	assert.Equal(t, "upstream exploded", apperror.Message(err))
}

func TestGatewayEmptyErrorBodyGetsGenericMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, srv.Client())
	err := g.Register(context.Background(), "Ada", "a@b.com", "pw")
	require.Error(t, err)
	assert.Equal(t, "registration failed", apperror.Message(err))
}

func TestGatewayUnreachableServer(t *testing.T) {
	g := NewHTTPGateway("http://127.0.0.1:1", nil)
	_, err := g.Login(context.Background(), "a@b.com", "pw")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrNetwork))
}

func TestGatewayForgotPasswordFallbackOTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"Email service unavailable, use the OTP below","email_sent":false,"otp":"123456"}`))
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, srv.Client())
	challenge, err := g.ForgotPassword(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.False(t, challenge.EmailSent)
	assert.Equal(t, "123456", challenge.OTP)
}

func TestGatewayUploadProgress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Equal(t, "u1", r.FormValue("user_id"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "data.xlsx", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"sheets":["S1"],"sheets_data":{"S1":{"columns":["A"],"rows":[{"A":"1"}]}}}`))
	}))
	defer srv.Close()

	var fractions []float64
	g := NewHTTPGateway(srv.URL, srv.Client())
	wb, err := g.Upload(context.Background(), "u1", "data.xlsx",
		bytes.NewReader(bytes.Repeat([]byte("x"), 4096)),
		func(f float64) { fractions = append(fractions, f) },
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"S1"}, wb.SheetNames)

	require.NotEmpty(t, fractions)
	last := 0.0
	for _, f := range fractions {
		assert.GreaterOrEqual(t, f, last, "progress must never decrease")
		assert.LessOrEqual(t, f, 1.0)
		last = f
	}
	assert.Equal(t, 1.0, fractions[len(fractions)-1], "progress must finish at 1")
}

func TestGatewayUploadServerRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"processing_error","message":"Failed to process Excel file: bad"}`))
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, srv.Client())
	_, err := g.Upload(context.Background(), "u1", "data.xlsx", strings.NewReader("zzz"), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrRemoteProcessing))
}

func TestGatewayListAndDelete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/files/u1":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"files":[{"file_id":"f1","filename":"a.xlsx"}]}`))
		case r.Method == http.MethodDelete && r.URL.Path == "/api/files/f1":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"message":"File deleted successfully"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	g := NewHTTPGateway(srv.URL, srv.Client())

	files, err := g.ListFiles(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "f1", files[0].ID)

	require.NoError(t, g.DeleteFile(context.Background(), "f1"))
}
