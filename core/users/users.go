/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Tablero Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package users resolves the domains a user may see.
package users

import "sync"

// Profile is a user and the domains they have access to.
type Profile struct {
	Name    string
	Domains []string
}

// UserStore defines the interface for accessing user profiles.
type UserStore interface {
	// GetUser returns a user profile by name, or nil if not found.
	GetUser(name string) *Profile
}

// HasDomain checks if a user has access to a given domain.
func HasDomain(user *Profile, domain string) bool {
	if user == nil {
		return false
	}
	for _, d := range user.Domains {
		if d == domain {
			return true
		}
	}
	return false
}

// HasAnyDomain checks if a user has access to any of the given domains.
func HasAnyDomain(user *Profile, domains []string) bool {
	if user == nil {
		return false
	}
	userDomains := make(map[string]bool, len(user.Domains))
	for _, d := range user.Domains {
		userDomains[d] = true
	}
	for _, d := range domains {
		if userDomains[d] {
			return true
		}
	}
	return false
}

// MemoryStore is a UserStore backed by a map.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]*Profile
}

// NewMemoryStore creates a store holding profiles, keyed by name.
func NewMemoryStore(profiles ...*Profile) *MemoryStore {
	s := &MemoryStore{users: make(map[string]*Profile, len(profiles))}
	for _, p := range profiles {
		s.Add(p)
	}
	return s
}

// Add registers or replaces a profile.
func (s *MemoryStore) Add(p *Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[p.Name] = p
}

// GetUser returns a user profile by name, or nil if not found.
func (s *MemoryStore) GetUser(name string) *Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users[name]
}
