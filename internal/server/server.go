// Package server wires the router, middleware, and all dependencies.
//
// This is the composition root: main.go hands over a Config and a
// logger, and everything else (database, mailer, services, handlers)
// is assembled here.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/excel-finder/internal/auth"
	"github.com/sakif/excel-finder/internal/handler"
	"github.com/sakif/excel-finder/internal/mailer"
	"github.com/sakif/excel-finder/internal/middleware"
	sqliteRepo "github.com/sakif/excel-finder/internal/repository/sqlite"
	"github.com/sakif/excel-finder/internal/service"
)

// Config holds everything the server needs to start.
type Config struct {
	Port        int
	DBPath      string
	UploadDir   string
	TokenSecret string
	SMTP        mailer.Config
}

// Server owns the router and the database connection. The connection is
// closed during graceful shutdown so the WAL is flushed.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain. Each layer receives only
// interfaces or services, never the layers below them.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir: %w", err)
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.TokenSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	authService := service.NewAuthService(
		s.db,
		s.db,
		auth.NewPasswordService(),
		tokens,
		mailer.New(s.config.SMTP),
		s.logger,
	)
	fileService := service.NewFileService(s.db, s.db, s.config.UploadDir, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	fileHandler := handler.NewFileHandler(fileService, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", handler.HandleHealth)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/login", authHandler.HandleLogin)
			r.Post("/forgot-password", authHandler.HandleForgotPassword)
			r.Post("/verify-otp", authHandler.HandleVerifyOTP)
			r.Post("/reset-password", authHandler.HandleResetPassword)
		})

		r.Post("/upload", fileHandler.HandleUpload)
		r.Get("/files/{userID}", fileHandler.HandleList)
		r.Get("/files/{fileID}/data", fileHandler.HandleData)
		r.Delete("/files/{fileID}", fileHandler.HandleDelete)
	})

	return nil
}

// Router exposes the configured handler, mainly for tests that drive the
// API through httptest without binding a port.
func (s *Server) Router() http.Handler {
	return s.router
}

// Close releases the database connection. Start does this itself; Close
// is for callers that use Router directly.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start runs the server until SIGINT or SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests, and
// close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
			slog.String("uploads", s.config.UploadDir),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}
	return nil
}
