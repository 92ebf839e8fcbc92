/*-------------------------------------------------------------------------
 *
 * pgEdge Sales Analyst
 *
 * Copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

// Package web serves the dashboard: login, question entry, SQL review,
// results, and session history. All pages are rendered server-side.
package web

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pgedge-sales-analyst/internal/auth"
	"pgedge-sales-analyst/internal/config"
	"pgedge-sales-analyst/internal/database"
	"pgedge-sales-analyst/internal/llm"
	"pgedge-sales-analyst/internal/logging"
	"pgedge-sales-analyst/internal/schema"
)

// Server wires the pipeline components behind the HTTP routes
type Server struct {
	cfg        *config.Config
	verifier   *auth.Verifier
	sessions   *auth.SessionManager
	translator *llm.Client
	executor   *database.Executor
	dbClient   *database.Client
	catalog    schema.SchemaDescriptor
}

// NewServer creates a dashboard server from its components
func NewServer(
	cfg *config.Config,
	verifier *auth.Verifier,
	sessions *auth.SessionManager,
	translator *llm.Client,
	executor *database.Executor,
	dbClient *database.Client,
	catalog schema.SchemaDescriptor,
) *Server {
	return &Server{
		cfg:        cfg,
		verifier:   verifier,
		sessions:   sessions,
		translator: translator,
		executor:   executor,
		dbClient:   dbClient,
		catalog:    catalog,
	}
}

// Router builds the chi router with all dashboard routes
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/login", s.LoginPage)
	r.Post("/login", s.LoginSubmit)
	r.Post("/logout", s.Logout)
	r.Get("/healthz", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSession(s.sessions))
		r.Get("/", s.Dashboard)
		r.Post("/generate", s.Generate)
		r.Post("/run", s.RunQuery)
		r.Post("/rerun", s.Rerun)
		r.Post("/clear", s.ClearHistory)
	})

	return r
}

// Run starts the HTTP or HTTPS listener and blocks until it fails
func (s *Server) Run() error {
	httpServer := &http.Server{
		Addr:              s.cfg.HTTP.Address,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.cfg.HTTP.TLS.Enabled {
		tlsConfig, err := loadTLSConfig(&s.cfg.HTTP.TLS)
		if err != nil {
			return fmt.Errorf("failed to load TLS config: %w", err)
		}
		httpServer.TLSConfig = tlsConfig

		logging.Info("Starting HTTPS server", "address", s.cfg.HTTP.Address)
		return httpServer.ListenAndServeTLS(s.cfg.HTTP.TLS.CertFile, s.cfg.HTTP.TLS.KeyFile)
	}

	logging.Info("Starting HTTP server", "address", s.cfg.HTTP.Address)
	return httpServer.ListenAndServe()
}

// HealthCheck reports liveness and database reachability
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	if err := s.dbClient.Ping(ctx); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintf(w, `{"status":"degraded","database":%q}`, err.Error())
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `{"status":"ok"}`)
}

// loadTLSConfig loads TLS certificates and creates a TLS configuration
func loadTLSConfig(cfg *config.TLSConfig) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load certificate and key: %w", err)
	}

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}

	if cfg.ChainFile != "" {
		chainData, err := os.ReadFile(cfg.ChainFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read certificate chain: %w", err)
		}

		cert.Certificate = append(cert.Certificate, chainData)
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}
