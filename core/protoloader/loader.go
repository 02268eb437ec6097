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

// Package protoloader loads row sets stored as protobuf ListValue documents,
// in JSON or textproto form. The result feeds rows.Normalize directly.
package protoloader

import (
	"fmt"
	"io/fs"
	"path"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/types/known/structpb"
)

// ParseJSON parses a JSON array of objects.
func ParseJSON(data []byte) (*structpb.ListValue, error) {
	list := &structpb.ListValue{}
	if err := protojson.Unmarshal(data, list); err != nil {
		return nil, fmt.Errorf("failed to parse json: %w", err)
	}
	return list, checkObjects(list)
}

// ParseTextproto parses a google.protobuf.ListValue in text format.
func ParseTextproto(data []byte) (*structpb.ListValue, error) {
	list := &structpb.ListValue{}
	if err := prototext.Unmarshal(data, list); err != nil {
		return nil, fmt.Errorf("failed to parse textproto: %w", err)
	}
	return list, checkObjects(list)
}

// LoadFS reads name from fsys, choosing the format from its extension:
// .json, or .textproto / .txtpb.
func LoadFS(fsys fs.FS, name string) (*structpb.ListValue, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	switch ext := path.Ext(name); ext {
	case ".json":
		return ParseJSON(data)
	case ".textproto", ".txtpb":
		return ParseTextproto(data)
	default:
		return nil, fmt.Errorf("unsupported file type %q", ext)
	}
}

// checkObjects requires every element to be an object.
func checkObjects(list *structpb.ListValue) error {
	for i, v := range list.GetValues() {
		if v.GetStructValue() == nil {
			return fmt.Errorf("element %d is not an object", i)
		}
	}
	return nil
}
