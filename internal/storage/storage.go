// Package storage is the durable key/value port used for session persistence.
//
// Values are opaque strings. A missing key is reported through the ok flag,
// never as an error.
package storage

import (
	"context"
	"sync"
)

// Keys owned by the session layer.
const (
	KeyToken      = "auth_token"
	KeyUser       = "auth_user"
	KeyStore      = "auth_store"
	KeyRole       = "auth_role"
	KeyActiveShop = "auth_active_shop"
)

// SessionKeys lists every key that logout must clear.
var SessionKeys = []string{KeyToken, KeyUser, KeyStore, KeyRole, KeyActiveShop}

// Storage reads, writes and clears string values.
type Storage interface {
	// Get returns the value and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes keys; missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
}

// Memory is an in-process Storage.
type Memory struct {
	mu sync.RWMutex
	m  map[string]string
}

// NewMemory returns an empty in-memory storage.
func NewMemory() *Memory { return &Memory{m: map[string]string{}} }

var _ Storage = (*Memory)(nil)

func (s *Memory) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *Memory) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

func (s *Memory) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.m, k)
	}
	return nil
}

// Len reports the number of stored keys.
func (s *Memory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}
