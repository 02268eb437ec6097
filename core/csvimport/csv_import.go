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

// Package csvimport reads CSV data into records for rows.Normalize,
// detecting a value type per column.
package csvimport

import (
	"encoding/csv"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"
	"time"
)

// ColumnType specifies the value type of a column.
type ColumnType int

const (
	// ColumnTypeAuto detects the type from a sample of the data (default).
	ColumnTypeAuto ColumnType = iota
	// ColumnTypeString keeps values as text.
	ColumnTypeString
	// ColumnTypeNumber parses values as float64.
	ColumnTypeNumber
	// ColumnTypeBool parses true/false and yes/no.
	ColumnTypeBool
	// ColumnTypeDate parses RFC 3339 timestamps and YYYY-MM-DD dates.
	ColumnTypeDate
)

// String returns the string representation of a ColumnType.
func (t ColumnType) String() string {
	switch t {
	case ColumnTypeAuto:
		return "auto"
	case ColumnTypeString:
		return "string"
	case ColumnTypeNumber:
		return "number"
	case ColumnTypeBool:
		return "bool"
	case ColumnTypeDate:
		return "date"
	default:
		return fmt.Sprintf("unknown(%d)", t)
	}
}

// ColumnSource configures how one CSV column is imported.
type ColumnSource struct {
	// Name is the record field (defaults to the header).
	Name string
	Type ColumnType
}

// ImportOptions configures CSV import behavior.
type ImportOptions struct {
	// HasHeader indicates whether the first row contains column headers.
	HasHeader bool
	// Delimiter is the field delimiter (defaults to comma).
	Delimiter rune
	// ColumnSources configures specific columns by header name.
	ColumnSources map[string]ColumnSource
	// SampleSize is the number of rows sampled for type detection.
	SampleSize int
}

// DefaultOptions returns default import options.
func DefaultOptions() ImportOptions {
	return ImportOptions{
		HasHeader:     true,
		Delimiter:     ',',
		ColumnSources: make(map[string]ColumnSource),
		SampleSize:    100,
	}
}

// ImportFromFS imports the CSV file name from fsys.
func ImportFromFS(fsys fs.FS, name string, options ImportOptions) ([]map[string]any, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return ImportFromReader(f, options)
}

// ImportFromReader imports CSV data and returns one record per data row.
// Empty cells are left out of the record.
func ImportFromReader(reader io.Reader, options ImportOptions) ([]map[string]any, error) {
	csvReader := csv.NewReader(reader)
	if options.Delimiter != 0 {
		csvReader.Comma = options.Delimiter
	}
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	var headers []string
	var dataRows [][]string
	if options.HasHeader {
		headers = records[0]
		dataRows = records[1:]
	} else {
		headers = make([]string, len(records[0]))
		for i := range headers {
			headers[i] = fmt.Sprintf("column_%d", i+1)
		}
		dataRows = records
	}

	sampleSize := options.SampleSize
	if sampleSize <= 0 {
		sampleSize = 100
	}
	types := detectColumnTypes(headers, dataRows, sampleSize, options.ColumnSources)

	names := make([]string, len(headers))
	for i, h := range headers {
		names[i] = strings.TrimSpace(h)
		if src, ok := options.ColumnSources[h]; ok && src.Name != "" {
			names[i] = src.Name
		}
	}

	out := make([]map[string]any, 0, len(dataRows))
	for _, row := range dataRows {
		rec := make(map[string]any, len(headers))
		for i := range headers {
			if i >= len(row) {
				continue
			}
			value := strings.TrimSpace(row[i])
			if value == "" {
				continue
			}
			rec[names[i]] = parseValue(types[i], value)
		}
		out = append(out, rec)
	}
	return out, nil
}

// parseValue converts value to t, keeping the text when it does not parse.
func parseValue(t ColumnType, value string) any {
	switch t {
	case ColumnTypeNumber:
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	case ColumnTypeBool:
		if b, ok := parseBool(value); ok {
			return b
		}
	case ColumnTypeDate:
		if d, ok := parseDate(value); ok {
			return d
		}
	}
	return value
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true", "yes", "y", "1":
		return true, true
	case "false", "no", "n", "0":
		return false, true
	}
	return false, false
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// detectColumnTypes picks, per column, the narrowest type every sampled
// non-empty value parses as: number, then date, then bool, else string.
func detectColumnTypes(headers []string, dataRows [][]string, sampleSize int, configs map[string]ColumnSource) []ColumnType {
	types := make([]ColumnType, len(headers))
	rowsToSample := min(sampleSize, len(dataRows))

	for i, header := range headers {
		if config, ok := configs[header]; ok && config.Type != ColumnTypeAuto {
			types[i] = config.Type
			continue
		}

		isNumber, isDate, isBool := true, true, true
		hasNonEmpty := false
		for j := 0; j < rowsToSample; j++ {
			if i >= len(dataRows[j]) {
				continue
			}
			value := strings.TrimSpace(dataRows[j][i])
			if value == "" {
				continue
			}
			hasNonEmpty = true
			if _, err := strconv.ParseFloat(value, 64); err != nil {
				isNumber = false
			}
			if _, ok := parseDate(value); !ok {
				isDate = false
			}
			if _, ok := parseBool(value); !ok {
				isBool = false
			}
		}

		switch {
		case !hasNonEmpty:
			types[i] = ColumnTypeString
		case isNumber:
			types[i] = ColumnTypeNumber
		case isDate:
			types[i] = ColumnTypeDate
		case isBool:
			types[i] = ColumnTypeBool
		default:
			types[i] = ColumnTypeString
		}
	}
	return types
}
