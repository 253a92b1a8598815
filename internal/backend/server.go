/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"golang.org/x/time/rate"
	"sitebuilder/internal/config"
	"sitebuilder/internal/domain"
	applog "sitebuilder/internal/log"
	"sitebuilder/internal/version"
)

// DefaultDesignName is used when a request names no design.
const DefaultDesignName = "default"

var designNameRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// DesignStore is the persistence behind the HTTP API. PGStore implements it.
type DesignStore interface {
	Ping(ctx context.Context) error
	LoadDesign(ctx context.Context, name string) (domain.Design, bool, error)
	SaveDesign(ctx context.Context, name string, d domain.Design) (int64, error)
	PublishDesign(ctx context.Context, name string, elems []domain.Element) (int64, error)
	LatestPublication(ctx context.Context, name string) ([]domain.Element, time.Time, bool, error)
}

// Options configures a Server. Zero values fall back to the defaults of config.Defaults().Server.
type Options struct {
	Secret         string
	WritesPerMin   int
	MaxBodyBytes   int64
	RequestTimeout time.Duration
	// IssueTokens serves POST /api/auth/token. It is forced on when Secret is empty, since the
	// dev secret is public anyway.
	IssueTokens bool
	Now         func() time.Time
}

// OptionsFrom maps the server section of the app config.
func OptionsFrom(cfg config.ServerConfig, secret string) Options {
	return Options{
		Secret:         secret,
		WritesPerMin:   cfg.WritesPerMin,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		RequestTimeout: time.Duration(cfg.RequestTimeout) * time.Millisecond,
		IssueTokens:    cfg.IssueTokens,
	}
}

// Server serves the design API over a DesignStore.
type Server struct {
	store  DesignStore
	opts   Options
	writes *rate.Limiter
	log    *slog.Logger
}

func NewServer(store DesignStore, opts Options) *Server {
	def := config.Defaults().Server
	l := applog.WithComponent("backend")
	if opts.Secret == "" {
		opts.Secret = devSecret
		opts.IssueTokens = true
		l.Warn(config.EnvAuthSecret + " not set; using insecure dev secret and issuing tokens to anyone")
	}
	if opts.WritesPerMin <= 0 {
		opts.WritesPerMin = def.WritesPerMin
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = def.MaxBodyBytes
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = time.Duration(def.RequestTimeout) * time.Millisecond
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Server{
		store:  store,
		opts:   opts,
		writes: rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.WritesPerMin)), opts.WritesPerMin),
		log:    l,
	}
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(version.String()))
	})
	if s.opts.IssueTokens {
		mux.HandleFunc("POST /api/auth/token", s.handleToken)
	}
	mux.HandleFunc("GET /api/design", s.withAuth(s.handleGetDesign))
	mux.HandleFunc("PUT /api/design", s.withAuth(s.throttled(s.handlePutDesign)))
	mux.HandleFunc("POST /api/publish", s.withAuth(s.throttled(s.handlePublish)))
	mux.HandleFunc("GET /api/published", s.handlePublished)
	return s.logged(mux)
}

func (s *Server) logged(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
		defer cancel()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))
		s.log.Debug("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("dur", time.Since(start)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) throttled(next authedHandler) authedHandler {
	return func(w http.ResponseWriter, r *http.Request, sub string) {
		if !s.writes.Allow() {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, errors.New("write rate exceeded"))
			return
		}
		next(w, r, sub)
	}
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("db not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleToken issues a signed token. Optional JSON body: { "subject": "name", "ttl_seconds": 3600 }
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Subject    string `json:"subject"`
		TTLSeconds int64  `json:"ttl_seconds"`
	}
	b, _ := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	_ = r.Body.Close()
	_ = json.Unmarshal(b, &req)
	if req.Subject == "" {
		req.Subject = "dev"
	}
	if req.TTLSeconds <= 0 || req.TTLSeconds > 24*3600 {
		req.TTLSeconds = 3600
	}
	exp := s.opts.Now().Add(time.Duration(req.TTLSeconds) * time.Second)
	tok, err := signToken(s.opts.Secret, req.Subject, exp)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":      tok,
		"expires_at": exp.UTC().Format(time.RFC3339),
	})
}

func designName(r *http.Request) (string, error) {
	name := r.URL.Query().Get("name")
	if name == "" {
		return DefaultDesignName, nil
	}
	if !designNameRe.MatchString(name) {
		return "", fmt.Errorf("invalid design name %q", name)
	}
	return name, nil
}

func (s *Server) handleGetDesign(w http.ResponseWriter, r *http.Request, sub string) {
	name, err := designName(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	d, ok, err := s.store.LoadDesign(r.Context(), name)
	if err != nil {
		s.log.Error("load design failed", slog.String("design", name), slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, errors.New("load failed"))
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("design %q not found", name))
		return
	}
	data, err := domain.EncodeDesign(d)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// readBody enforces the body limit; a too-large body yields 413.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, http.StatusRequestEntityTooLarge, err)
		} else {
			writeError(w, http.StatusBadRequest, err)
		}
		return nil, false
	}
	return body, true
}

func (s *Server) handlePutDesign(w http.ResponseWriter, r *http.Request, sub string) {
	name, err := designName(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	if err := domain.ValidateDesignJSON(body); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	d, issues, err := domain.DecodeDesign(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ver, err := s.store.SaveDesign(r.Context(), name, d)
	if err != nil {
		s.log.Error("save design failed", slog.String("design", name), slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, errors.New("save failed"))
		return
	}
	s.log.Info("design saved", slog.String("design", name), slog.String("subject", sub), slog.Int64("version", ver))
	writeJSON(w, http.StatusOK, map[string]any{"name": name, "version": ver, "issues": issues})
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request, sub string) {
	name, err := designName(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	if err := domain.ValidateElementsJSON(body); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	var d domain.Design
	if err := json.Unmarshal(body, &d.Elements); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	d.Normalize()
	id, err := s.store.PublishDesign(r.Context(), name, d.Elements)
	if err != nil {
		s.log.Error("publish failed", slog.String("design", name), slog.Any("err", err))
		writeError(w, http.StatusInternalServerError, errors.New("publish failed"))
		return
	}
	s.log.Info("design published", slog.String("design", name), slog.String("subject", sub), slog.Int("elements", len(d.Elements)))
	writeJSON(w, http.StatusOK, map[string]any{"name": name, "id": id, "elements": len(d.Elements)})
}

// handlePublished serves the latest published elements without auth; it is what a live site reads.
func (s *Server) handlePublished(w http.ResponseWriter, r *http.Request) {
	name, err := designName(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	elems, at, ok, err := s.store.LatestPublication(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, errors.New("load failed"))
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("design %q not published", name))
		return
	}
	if elems == nil {
		elems = []domain.Element{}
	}
	w.Header().Set("Last-Modified", at.UTC().Format(http.TimeFormat))
	writeJSON(w, http.StatusOK, elems)
}

// Start opens the Postgres pool, applies migrations and serves until ctx is cancelled.
func Start(ctx context.Context, cfg config.AppConfig) error {
	l := applog.WithComponent("backend")
	pool, err := OpenPool(ctx, cfg.Server.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	mctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = applyMigrations(mctx, pool)
	cancel()
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	store, err := NewPGStore(ctx, pool, cfg.Storage.KeepRevisions)
	if err != nil {
		return err
	}
	srv := NewServer(store, OptionsFrom(cfg.Server, config.AuthSecret()))
	hs := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		l.Info("design service listening", slog.String("addr", cfg.Server.Addr))
		errc <- hs.ListenAndServe()
	}()
	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer scancel()
	l.Info("shutting down")
	return hs.Shutdown(sctx)
}
