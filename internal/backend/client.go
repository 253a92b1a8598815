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
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sitebuilder/internal/config"
	"sitebuilder/internal/domain"
)

// ErrUnauthorized is returned when the server rejects the bearer token.
var ErrUnauthorized = errors.New("backend rejected credentials")

// StatusError carries a non-2xx response.
type StatusError struct {
	Method, Path string
	Code         int
	Message      string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server %s %s: %d %s", e.Method, e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("server %s %s: %d", e.Method, e.Path, e.Code)
}

// Client is the HTTP persistence gateway for the design service.
type Client struct {
	BaseURL string
	Token   string // bearer token
	// Design names the design on the server; empty means DefaultDesignName.
	Design string
	client *http.Client
}

// NewClient creates a client from the backend config section. The base URL may carry a trailing slash.
func NewClient(cfg config.BackendConfig, token string) *Client {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.TLSInsecure {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for local dev servers
	}
	return &Client{
		BaseURL: strings.TrimRight(cfg.BaseURL, "/"),
		Token:   token,
		client:  &http.Client{Timeout: cfg.Timeout(), Transport: tr},
	}
}

func (c *Client) designQuery() string {
	name := c.Design
	if name == "" {
		name = DefaultDesignName
	}
	return "?name=" + url.QueryEscape(name)
}

// do sends body (if any) and decodes a JSON response into dest (if non-nil).
func (c *Client) do(ctx context.Context, method, path string, body []byte, dest any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%s %s: %w", method, u.Path, ErrUnauthorized)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		se := &StatusError{Method: method, Path: u.Path, Code: resp.StatusCode}
		var e struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&e) == nil {
			se.Message = e.Error
		}
		return se
	}
	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

// LoadDesign fetches the design; a 404 means none was saved yet.
func (c *Client) LoadDesign(ctx context.Context) (domain.Design, bool, error) {
	var raw json.RawMessage
	err := c.do(ctx, http.MethodGet, "/api/design"+c.designQuery(), nil, &raw)
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return domain.Design{}, false, nil
	}
	if err != nil {
		return domain.Design{}, false, err
	}
	d, _, err := domain.DecodeDesign(raw)
	if err != nil {
		return domain.Design{}, false, err
	}
	return d, true, nil
}

// SaveDesign uploads the full design.
func (c *Client) SaveDesign(ctx context.Context, d domain.Design) error {
	body, err := domain.EncodeDesign(d)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPut, "/api/design"+c.designQuery(), body, nil)
}

// PublishDesign uploads the element list only.
func (c *Client) PublishDesign(ctx context.Context, elems []domain.Element) error {
	if elems == nil {
		elems = []domain.Element{}
	}
	body, err := json.Marshal(elems)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/api/publish"+c.designQuery(), body, nil)
}

// RequestToken asks the server for a signed token for subject.
func (c *Client) RequestToken(ctx context.Context, subject string, ttl time.Duration) (string, time.Time, error) {
	body, _ := json.Marshal(map[string]any{"subject": subject, "ttl_seconds": int64(ttl / time.Second)})
	var resp struct {
		Token     string `json:"token"`
		ExpiresAt string `json:"expires_at"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/token", body, &resp); err != nil {
		return "", time.Time{}, err
	}
	exp, _ := time.Parse(time.RFC3339, resp.ExpiresAt)
	return resp.Token, exp, nil
}
