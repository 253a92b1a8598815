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
	"sync"
	"time"

	"sitebuilder/internal/domain"
)

// memStore is an in-memory DesignStore for handler tests.
type memStore struct {
	mu        sync.Mutex
	designs   map[string]domain.Design
	versions  map[string]int64
	published map[string][]domain.Element
	pingErr   error
	saveErr   error
}

func newMemStore() *memStore {
	return &memStore{
		designs:   map[string]domain.Design{},
		versions:  map[string]int64{},
		published: map[string][]domain.Element{},
	}
}

func (m *memStore) Ping(context.Context) error { return m.pingErr }

func (m *memStore) LoadDesign(_ context.Context, name string) (domain.Design, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.designs[name]
	return d.Clone(), ok, nil
}

func (m *memStore) SaveDesign(_ context.Context, name string, d domain.Design) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return 0, m.saveErr
	}
	m.designs[name] = d.Clone()
	m.versions[name]++
	return m.versions[name], nil
}

func (m *memStore) PublishDesign(_ context.Context, name string, elems []domain.Element) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published[name] = append([]domain.Element(nil), elems...)
	return int64(len(m.published)), nil
}

func (m *memStore) LatestPublication(_ context.Context, name string) ([]domain.Element, time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	elems, ok := m.published[name]
	return elems, time.Unix(0, 0), ok, nil
}
