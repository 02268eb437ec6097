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

package csvimport

import (
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestImportBasicCSV(t *testing.T) {
	csvData := `name,age,joined,admin
Alice,30,2021-03-04,yes
Bob,25,2022-11-30,no
Charlie,,2020-01-15,yes`

	got, err := ImportFromReader(strings.NewReader(csvData), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to import CSV: %v", err)
	}
	want := []map[string]any{
		{"name": "Alice", "age": 30.0, "joined": time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC), "admin": true},
		{"name": "Bob", "age": 25.0, "joined": time.Date(2022, 11, 30, 0, 0, 0, 0, time.UTC), "admin": false},
		{"name": "Charlie", "joined": time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC), "admin": true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestImportWithoutHeader(t *testing.T) {
	options := DefaultOptions()
	options.HasHeader = false

	got, err := ImportFromReader(strings.NewReader("Alice,30\nBob,25"), options)
	if err != nil {
		t.Fatalf("failed to import CSV: %v", err)
	}
	if len(got) != 2 || got[0]["column_1"] != "Alice" || got[1]["column_2"] != 25.0 {
		t.Errorf("unexpected records %v", got)
	}
}

func TestColumnSources(t *testing.T) {
	options := DefaultOptions()
	options.Delimiter = ';'
	options.ColumnSources["zip"] = ColumnSource{Name: "postal_code", Type: ColumnTypeString}

	got, err := ImportFromReader(strings.NewReader("city;zip\nZurich;8001\nBern;3011"), options)
	if err != nil {
		t.Fatalf("failed to import CSV: %v", err)
	}
	if got[0]["postal_code"] != "8001" {
		t.Errorf("zip should stay text under its configured name, got %v", got[0])
	}
}

func TestDetectColumnTypes(t *testing.T) {
	rows := [][]string{
		{"1.5", "x", "true", "2024-01-01T10:00:00Z", ""},
		{"2", "3", "false", "2024-01-02", ""},
	}
	got := detectColumnTypes([]string{"a", "b", "c", "d", "e"}, rows, 100, nil)
	want := []ColumnType{ColumnTypeNumber, ColumnTypeString, ColumnTypeBool, ColumnTypeDate, ColumnTypeString}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("types mismatch (-want +got):\n%s", diff)
	}

	// Only the sample decides.
	got = detectColumnTypes([]string{"a"}, [][]string{{"1"}, {"one"}}, 1, nil)
	if got[0] != ColumnTypeNumber {
		t.Errorf("sampled type = %v, want number", got[0])
	}
}

func TestImportErrors(t *testing.T) {
	if _, err := ImportFromReader(strings.NewReader(""), DefaultOptions()); err == nil {
		t.Error("empty input should fail")
	}
	if _, err := ImportFromReader(strings.NewReader("a,\"b\nc"), DefaultOptions()); err == nil {
		t.Error("malformed quoting should fail")
	}
	if _, err := ImportFromFS(fstest.MapFS{}, "missing.csv", DefaultOptions()); err == nil {
		t.Error("missing file should fail")
	}
}

func TestImportFromFS(t *testing.T) {
	fsys := fstest.MapFS{"svc.csv": {Data: []byte("service,up\napi,true\n")}}
	got, err := ImportFromFS(fsys, "svc.csv", DefaultOptions())
	if err != nil {
		t.Fatalf("ImportFromFS: %v", err)
	}
	if diff := cmp.Diff([]map[string]any{{"service": "api", "up": true}}, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}
