/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package telemetry sends anonymous, opt‑in usage events and crash reports.
// Nothing is sent unless the user opted in and an endpoint is configured.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	applog "sitebuilder/internal/log"
	"sitebuilder/internal/version"
)

// Event names sent by the editor. Properties never carry element content.
const (
	EventDesignSaved     = "design_saved"
	EventDesignPublished = "design_published"
	EventDesignExported  = "design_exported"
)

// Environment overrides read by FromEnv.
const (
	EnvOptIn     = "SB_TELEMETRY_OPT_IN"
	EnvEventsURL = "SB_TELEMETRY_URL"
	EnvCrashURL  = "SB_CRASH_UPLOAD_URL"
	EnvTimeoutMs = "SB_TELEMETRY_TIMEOUT_MS"
	EnvDebug     = "SB_TELEMETRY_DEBUG"
)

const (
	defaultTimeout = 1500 * time.Millisecond
	queueSize      = 64
	// Bursts of at most 10 events, refilled at 10 per second.
	eventEvery = 100 * time.Millisecond
	eventBurst = 10
)

// Config selects where events and crash reports go.
type Config struct {
	OptIn     bool
	EventsURL string
	CrashURL  string
	Timeout   time.Duration
	Debug     bool
}

// FromEnv reads the SB_TELEMETRY_* variables. Unset means disabled.
func FromEnv() Config {
	cfg := Config{
		OptIn:     parseBool(os.Getenv(EnvOptIn)),
		EventsURL: strings.TrimSpace(os.Getenv(EnvEventsURL)),
		CrashURL:  strings.TrimSpace(os.Getenv(EnvCrashURL)),
		Timeout:   defaultTimeout,
		Debug:     os.Getenv(EnvDebug) != "",
	}
	if ms, err := strconv.Atoi(strings.TrimSpace(os.Getenv(EnvTimeoutMs))); err == nil && ms > 0 {
		cfg.Timeout = time.Duration(ms) * time.Millisecond
	}
	return cfg
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// payload is the JSON body of one event.
type payload struct {
	Name    string         `json:"name"`
	TS      string         `json:"ts"`
	Version string         `json:"version"`
	OS      string         `json:"os"`
	Arch    string         `json:"arch"`
	Props   map[string]any `json:"props,omitempty"`
}

// Client queues events and posts them from one background goroutine.
// Event never blocks: a full queue or an exhausted rate budget drops the event.
type Client struct {
	cfg     Config
	log     *slog.Logger
	http    *http.Client
	queue   chan payload
	limit   *rate.Limiter
	pending sync.WaitGroup
	stop    chan struct{}
	stopped sync.Once
}

// New starts a client for cfg. Close releases its goroutine.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	c := &Client{
		cfg:   cfg,
		log:   applog.WithComponent("telemetry"),
		http:  &http.Client{Timeout: cfg.Timeout},
		queue: make(chan payload, queueSize),
		limit: rate.NewLimiter(rate.Every(eventEvery), eventBurst),
		stop:  make(chan struct{}),
	}
	go c.run()
	return c
}

// Enabled reports whether events will be sent.
func (c *Client) Enabled() bool { return c != nil && c.cfg.OptIn && c.cfg.EventsURL != "" }

// Event enqueues a named event. props must not carry user content.
func (c *Client) Event(name string, props map[string]any) {
	if !c.Enabled() || name == "" || !c.limit.Allow() {
		return
	}
	p := payload{
		Name:    name,
		TS:      time.Now().UTC().Format(time.RFC3339Nano),
		Version: version.String(),
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
		Props:   props,
	}
	c.pending.Add(1)
	select {
	case c.queue <- p:
	default:
		c.pending.Done()
	}
}

// Flush waits until every queued event was attempted, or ctx ends.
func (c *Client) Flush(ctx context.Context) {
	if c == nil {
		return
	}
	done := make(chan struct{})
	go func() {
		c.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// Close stops the sender. Queued events are dropped.
func (c *Client) Close() {
	if c != nil {
		c.stopped.Do(func() { close(c.stop) })
	}
}

func (c *Client) run() {
	for {
		select {
		case <-c.stop:
			return
		case p := <-c.queue:
			body, _ := json.Marshal(p)
			c.post(c.cfg.EventsURL, "application/json", body)
			c.pending.Done()
		}
	}
}

func (c *Client) post(url, contentType string, body []byte) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.http.Do(req)
	if err != nil {
		if c.cfg.Debug {
			c.log.Debug("telemetry post failed", slog.String("url", url), slog.Any("err", err))
		}
		return
	}
	_ = resp.Body.Close()
	if c.cfg.Debug {
		c.log.Debug("telemetry posted", slog.String("url", url), slog.Int("status", resp.StatusCode))
	}
}

// UploadCrash posts a crash report when opted in. It blocks for at most the client timeout,
// since the process exits right after a crash.
func (c *Client) UploadCrash(report []byte) {
	if c == nil || !c.cfg.OptIn || c.cfg.CrashURL == "" {
		return
	}
	c.post(c.cfg.CrashURL, "text/plain; charset=utf-8", report)
}

var (
	defaultMu     sync.Mutex
	defaultClient *Client
)

// Default returns the package client, creating it from the environment on first use.
func Default() *Client {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultClient == nil {
		defaultClient = New(FromEnv())
	}
	return defaultClient
}

// NewDefault replaces the package client with one built from cfg.
func NewDefault(cfg Config) {
	c := New(cfg)
	defaultMu.Lock()
	old := defaultClient
	defaultClient = c
	defaultMu.Unlock()
	old.Close()
}

// Enabled reports whether the package client sends events.
func Enabled() bool { return Default().Enabled() }

// Event sends through the package client.
func Event(name string, props map[string]any) { Default().Event(name, props) }

// UploadCrash uploads through the package client.
func UploadCrash(report []byte) { Default().UploadCrash(report) }

// Flush drains the package client if one exists.
func Flush(ctx context.Context) {
	defaultMu.Lock()
	c := defaultClient
	defaultMu.Unlock()
	c.Flush(ctx)
}

// DesignSaved reports a save through the given gateway kind ("file" or "http").
func DesignSaved(gateway string, elements, history int) {
	Event(EventDesignSaved, map[string]any{"gateway": gateway, "elements": elements, "history": history})
}

// DesignPublished reports a publish of n elements.
func DesignPublished(gateway string, elements int) {
	Event(EventDesignPublished, map[string]any{"gateway": gateway, "elements": elements})
}

// DesignExported reports an export in the given format.
func DesignExported(format, viewMode string, elements int) {
	Event(EventDesignExported, map[string]any{"format": format, "viewMode": viewMode, "elements": elements})
}
