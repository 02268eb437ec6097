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

package rendering

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/google/tablero/core/columns"
	"github.com/google/tablero/core/rows"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// Format is an export format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
)

// ParseFormat maps a format name to a Format. The empty name is CSV.
func ParseFormat(name string) (Format, error) {
	switch name {
	case "", "csv":
		return FormatCSV, nil
	case "text", "txt":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown export format %q", name)
	}
}

// ContentType returns the HTTP content type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Extension returns the file extension of f.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatText:
		return "txt"
	default:
		return "csv"
	}
}

// Export writes rs as a table of the visible data columns. Actions
// columns and hidden hideable columns are left out; cells use their text
// form.
func Export(w io.Writer, f Format, cols []columns.Column, hidden map[string]bool, rs []rows.Row) error {
	var visible []columns.Column
	for _, c := range cols {
		if c.IsActions() || (c.Hideable && hidden[c.Field]) {
			continue
		}
		visible = append(visible, c)
	}
	header := make([]string, len(visible))
	for i, c := range visible {
		header[i] = c.HeaderName
	}
	record := func(r rows.Row) ([]string, error) {
		out := make([]string, len(visible))
		for i, c := range visible {
			text, err := c.SafeText(r)
			if err != nil {
				return nil, fmt.Errorf("row %q: %w", r.ID, err)
			}
			out[i] = text
		}
		return out, nil
	}

	if f == FormatCSV {
		cw := csv.NewWriter(w)
		if err := cw.Write(header); err != nil {
			return err
		}
		for _, r := range rs {
			rec, err := record(r)
			if err != nil {
				return err
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	}

	opts := []tablewriter.Option{tablewriter.WithHeaderAutoFormat(tw.Off)}
	if f == FormatMarkdown {
		opts = append(opts, tablewriter.WithRenderer(renderer.NewMarkdown()))
	}
	table := tablewriter.NewTable(w, opts...)
	table.Header(header)
	for _, r := range rs {
		rec, err := record(r)
		if err != nil {
			return err
		}
		if err := table.Append(rec); err != nil {
			return fmt.Errorf("row %q: %w", r.ID, err)
		}
	}
	return table.Render()
}
