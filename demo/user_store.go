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
	"fmt"
	"io/fs"

	"github.com/google/tablero/core/protoloader"
	"github.com/google/tablero/core/users"
)

// ProfileFileName is the embedded profile list.
const ProfileFileName = "data/users.textproto"

// LoadUsers builds a user store from the embedded profiles.
func LoadUsers() (*users.MemoryStore, error) {
	return LoadUsersFS(dataFS, ProfileFileName)
}

// LoadUsersFS builds a user store from a ListValue of profiles, each an
// object with a "name" string and a "domains" list.
func LoadUsersFS(fsys fs.FS, name string) (*users.MemoryStore, error) {
	list, err := protoloader.LoadFS(fsys, name)
	if err != nil {
		return nil, err
	}
	store := users.NewMemoryStore()
	for i, v := range list.GetValues() {
		fields := v.GetStructValue().GetFields()
		p := &users.Profile{Name: fields["name"].GetStringValue()}
		if p.Name == "" {
			return nil, fmt.Errorf("profile %d has no name", i)
		}
		for _, d := range fields["domains"].GetListValue().GetValues() {
			p.Domains = append(p.Domains, d.GetStringValue())
		}
		store.Add(p)
	}
	return store, nil
}
