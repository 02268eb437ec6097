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

// Package demo wires a tenant administration console out of the grid
// packages: a client-side tenants list, a server-paged audit log and a
// status screen with a flaky backend.
package demo

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/google/tablero/core/server"
)

// Screens returns the demo screens.
func Screens(log logr.Logger) ([]server.Screen, error) {
	store, err := NewTenantStore()
	if err != nil {
		return nil, fmt.Errorf("failed to load tenants: %w", err)
	}
	log.Info("loaded tenants", "count", store.Len())

	audit := NewAuditLog(AuditNumEvents)
	log.Info("generated audit log", "events", audit.Len())

	status, err := NewStatusScreen()
	if err != nil {
		return nil, fmt.Errorf("failed to load services: %w", err)
	}

	return []server.Screen{
		NewTenantsScreen(store, log),
		NewAuditScreen(audit),
		status,
	}, nil
}

// SetupDemoServer creates a server with the demo screens and users.
func SetupDemoServer(cfg server.Config) (*server.Server, error) {
	log := cfg.Logger
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	screens, err := Screens(log)
	if err != nil {
		return nil, err
	}
	srv, err := server.NewServer(cfg, screens...)
	if err != nil {
		return nil, err
	}
	store, err := LoadUsers()
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	srv.SetUserStore(store)
	return srv, nil
}
