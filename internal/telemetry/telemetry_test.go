/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// recorder collects request bodies per path.
type recorder struct {
	mu     sync.Mutex
	bodies map[string][][]byte
}

func newRecorder(t *testing.T) (*recorder, *httptest.Server) {
	t.Helper()
	rec := &recorder{bodies: map[string][][]byte{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		rec.mu.Lock()
		rec.bodies[r.URL.Path] = append(rec.bodies[r.URL.Path], b)
		rec.mu.Unlock()
	}))
	t.Cleanup(srv.Close)
	return rec, srv
}

func (r *recorder) get(path string) [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]byte(nil), r.bodies[path]...)
}

// resetDefault drops the package client so each test starts from first use.
func resetDefault(t *testing.T) {
	t.Helper()
	defaultMu.Lock()
	defaultClient = nil
	defaultMu.Unlock()
	t.Cleanup(func() {
		defaultMu.Lock()
		c := defaultClient
		defaultClient = nil
		defaultMu.Unlock()
		c.Close()
	})
}

func TestClientPostsEventAndCrashReport(t *testing.T) {
	rec, srv := newRecorder(t)
	c := New(Config{OptIn: true, EventsURL: srv.URL + "/events", CrashURL: srv.URL + "/crash", Timeout: time.Second})
	defer c.Close()

	c.Event(EventDesignSaved, map[string]any{"elements": 4})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c.Flush(ctx)

	events := rec.get("/events")
	if len(events) != 1 {
		t.Fatalf("events sent = %d, want 1", len(events))
	}
	var p payload
	if err := json.Unmarshal(events[0], &p); err != nil {
		t.Fatalf("bad event json: %v", err)
	}
	if p.Name != EventDesignSaved || p.TS == "" || p.Version == "" {
		t.Fatalf("payload = %+v", p)
	}
	if p.Props["elements"] != float64(4) {
		t.Fatalf("props = %v", p.Props)
	}

	c.UploadCrash([]byte("Panic: boom"))
	if got := rec.get("/crash"); len(got) != 1 || string(got[0]) != "Panic: boom" {
		t.Fatalf("crash uploads = %q", got)
	}
}

func TestNothingSentWhenDisabled(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { atomic.AddInt32(&hits, 1) }))
	defer srv.Close()

	tests := []struct {
		name  string
		cfg   Config
		event string
	}{
		{"opted out", Config{EventsURL: srv.URL, CrashURL: srv.URL}, EventDesignPublished},
		{"no endpoint", Config{OptIn: true}, EventDesignPublished},
		{"empty name", Config{OptIn: true, EventsURL: srv.URL}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.cfg)
			defer c.Close()
			c.Event(tt.event, nil)
			if tt.event != "" {
				c.UploadCrash([]byte("ignored"))
			}
			c.Flush(context.Background())
			if n := atomic.LoadInt32(&hits); n != 0 {
				t.Fatalf("%d requests sent", n)
			}
		})
	}
}

func TestFromEnv(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		optIn   bool
		timeout time.Duration
	}{
		{"unset", map[string]string{}, false, defaultTimeout},
		{"opted in", map[string]string{EnvOptIn: "Yes", EnvEventsURL: " http://t/e ", EnvTimeoutMs: "250"}, true, 250 * time.Millisecond},
		{"bad timeout", map[string]string{EnvOptIn: "off", EnvTimeoutMs: "soon"}, false, defaultTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{EnvOptIn, EnvEventsURL, EnvCrashURL, EnvTimeoutMs, EnvDebug} {
				t.Setenv(k, tt.env[k])
			}
			cfg := FromEnv()
			if cfg.OptIn != tt.optIn || cfg.Timeout != tt.timeout {
				t.Fatalf("FromEnv = %+v", cfg)
			}
			if tt.optIn && cfg.EventsURL != "http://t/e" {
				t.Fatalf("events url not trimmed: %q", cfg.EventsURL)
			}
		})
	}
}

func TestEventBurstIsThrottled(t *testing.T) {
	rec, srv := newRecorder(t)
	c := New(Config{OptIn: true, EventsURL: srv.URL + "/events", Timeout: time.Second})
	defer c.Close()
	for i := 0; i < 40; i++ {
		c.Event(EventDesignExported, nil)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c.Flush(ctx)
	if n := len(rec.get("/events")); n < eventBurst || n > eventBurst+2 {
		t.Fatalf("burst delivered %d events, want about %d", n, eventBurst)
	}
}

func TestPackageFunctionsBeforeSetupReturn(t *testing.T) {
	resetDefault(t)
	t.Setenv(EnvOptIn, "")
	t.Setenv(EnvEventsURL, "")
	t.Setenv(EnvCrashURL, "")

	done := make(chan struct{})
	go func() {
		Event(EventDesignSaved, nil)
		UploadCrash([]byte("report"))
		_ = Enabled()
		Flush(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("package telemetry calls blocked without NewDefault")
	}
	if Enabled() {
		t.Fatalf("default client enabled without opt-in")
	}
}

func TestDesignEventHelpers(t *testing.T) {
	resetDefault(t)
	rec, srv := newRecorder(t)
	_ = Enabled()
	NewDefault(Config{OptIn: true, EventsURL: srv.URL + "/events", Timeout: time.Second})

	DesignSaved("file", 3, 7)
	DesignPublished("http", 3)
	DesignExported("svg", "mobile", 3)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	Flush(ctx)

	var got []payload
	for _, b := range rec.get("/events") {
		var p payload
		if err := json.Unmarshal(b, &p); err != nil {
			t.Fatal(err)
		}
		got = append(got, p)
	}
	want := []string{EventDesignSaved, EventDesignPublished, EventDesignExported}
	if len(got) != len(want) {
		t.Fatalf("events = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Name != want[i] {
			t.Fatalf("event %d = %s, want %s", i, got[i].Name, want[i])
		}
	}
	if got[0].Props["gateway"] != "file" || got[0].Props["history"] != float64(7) {
		t.Fatalf("saved props = %v", got[0].Props)
	}
	if got[2].Props["viewMode"] != "mobile" || got[2].Props["format"] != "svg" {
		t.Fatalf("exported props = %v", got[2].Props)
	}
}

func TestFlushStopsAtContextDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { <-release }))
	defer srv.Close()
	defer close(release)

	c := New(Config{OptIn: true, EventsURL: srv.URL, Timeout: 5 * time.Second})
	defer c.Close()
	c.Event(EventDesignSaved, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	c.Flush(ctx)
	if time.Since(start) > time.Second {
		t.Fatalf("Flush ignored its context")
	}
}
