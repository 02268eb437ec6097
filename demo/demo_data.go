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

package demo

import (
	"embed"
	"fmt"
	"sync"

	"github.com/google/tablero/core/protoloader"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

//go:embed data/*.json data/*.textproto data/*.csv
var dataFS embed.FS

// Tenant statuses.
const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
)

// TenantStore holds the demo tenants in memory. It is safe for concurrent use.
type TenantStore struct {
	mu      sync.Mutex
	tenants []*structpb.Struct
}

// NewTenantStore loads the embedded tenant list.
func NewTenantStore() (*TenantStore, error) {
	list, err := protoloader.LoadFS(dataFS, "data/tenants.json")
	if err != nil {
		return nil, err
	}
	s := &TenantStore{}
	for _, v := range list.GetValues() {
		s.tenants = append(s.tenants, v.GetStructValue())
	}
	return s, nil
}

// List returns a copy of every tenant.
func (s *TenantStore) List() []*structpb.Struct {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*structpb.Struct, len(s.tenants))
	for i, t := range s.tenants {
		out[i] = proto.Clone(t).(*structpb.Struct)
	}
	return out
}

// Len returns the number of tenants.
func (s *TenantStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tenants)
}

// Delete removes the tenant with id.
func (s *TenantStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.tenants {
		if tenantID(t) == id {
			s.tenants = append(s.tenants[:i], s.tenants[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("tenant %q not found", id)
}

// SetStatus changes the status of the tenant with id.
func (s *TenantStore) SetStatus(id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tenants {
		if tenantID(t) == id {
			t.Fields["status"] = structpb.NewStringValue(status)
			return nil
		}
	}
	return fmt.Errorf("tenant %q not found", id)
}

func tenantID(t *structpb.Struct) string {
	return t.GetFields()["id"].GetStringValue()
}
