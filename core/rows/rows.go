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

// Package rows canonicalizes caller-supplied row sets for the grid.
package rows

import (
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/google/tablero/core/diag"
	"google.golang.org/protobuf/types/known/structpb"
)

// IDField is the field used as row identifier when no extractor is supplied.
const IDField = "id"

const component = "rows"

// Row is a single record with a resolved identifier.
type Row struct {
	ID     string
	Values map[string]any
}

// Get returns the value of a field, or nil if absent.
func (r Row) Get(field string) any {
	if r.Values == nil {
		return nil
	}
	return r.Values[field]
}

// IDExtractor derives a row identifier from the raw field values.
// It returns false when the row has no usable identifier.
type IDExtractor func(values map[string]any) (any, bool)

// FieldExtractor returns an IDExtractor reading the named field.
func FieldExtractor(field string) IDExtractor {
	return func(values map[string]any) (any, bool) {
		v, ok := values[field]
		return v, ok
	}
}

// Normalize converts raw into a row set with unique identifiers.
//
// raw may be any slice or array whose elements are Row, map[string]any,
// map[string]string or *structpb.Struct, or a *structpb.ListValue.
// Anything else is rejected and yields an empty set.
// Rows without a resolvable identifier are dropped. When two rows share an
// identifier the first one wins.
func Normalize(raw any, extract IDExtractor, d *diag.Collector) []Row {
	if extract == nil {
		extract = FieldExtractor(IDField)
	}

	elems, ok := enumerate(raw)
	if !ok {
		d.Report(component, diag.CodeRowsNotEnumerable,
			fmt.Sprintf("rows of type %T are not a sequence", raw))
		return []Row{}
	}

	out := make([]Row, 0, len(elems))
	seen := make(map[string]int, len(elems))
	for i, elem := range elems {
		row, ok := toRow(elem, extract)
		if !ok {
			d.Report(component, diag.CodeRowIDUnresolved,
				fmt.Sprintf("row %d has no resolvable identifier", i), "index", i)
			continue
		}
		if first, dup := seen[row.ID]; dup {
			d.Report(component, diag.CodeDuplicateRowID,
				fmt.Sprintf("row %d repeats identifier %q first seen at row %d", i, row.ID, first),
				"index", i, "id", row.ID)
			continue
		}
		seen[row.ID] = i
		out = append(out, row)
	}
	return out
}

// IDs returns the identifiers of rs in order.
func IDs(rs []Row) []string {
	ids := make([]string, len(rs))
	for i, r := range rs {
		ids[i] = r.ID
	}
	return ids
}

// enumerate flattens raw into its elements. It returns false when raw is
// not a sequence.
func enumerate(raw any) ([]any, bool) {
	switch v := raw.(type) {
	case nil:
		return nil, false
	case []Row:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out, true
	case *structpb.ListValue:
		if v == nil {
			return nil, false
		}
		out := make([]any, 0, len(v.GetValues()))
		for _, item := range v.GetValues() {
			out = append(out, item.GetStructValue())
		}
		return out, true
	}

	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// toRow converts one element into a Row, resolving its identifier.
func toRow(elem any, extract IDExtractor) (Row, bool) {
	var values map[string]any
	switch e := elem.(type) {
	case Row:
		if e.ID != "" {
			return e, true
		}
		values = e.Values
	case *Row:
		if e == nil {
			return Row{}, false
		}
		if e.ID != "" {
			return *e, true
		}
		values = e.Values
	case map[string]any:
		values = e
	case map[string]string:
		values = make(map[string]any, len(e))
		for k, s := range e {
			values[k] = s
		}
	case *structpb.Struct:
		if e == nil {
			return Row{}, false
		}
		values = e.AsMap()
	default:
		return Row{}, false
	}
	if values == nil {
		return Row{}, false
	}

	raw, ok := extract(values)
	if !ok {
		return Row{}, false
	}
	id, ok := stringifyID(raw)
	if !ok {
		return Row{}, false
	}
	return Row{ID: id, Values: values}, true
}

// stringifyID renders scalar identifiers as strings. Empty strings, nil and
// non-scalar values are not identifiers.
func stringifyID(v any) (string, bool) {
	switch id := v.(type) {
	case nil:
		return "", false
	case string:
		return id, id != ""
	case fmt.Stringer:
		s := id.String()
		return s, s != ""
	case bool:
		return "", false
	case float64:
		// JSON and structpb numbers arrive as float64.
		if math.IsNaN(id) || math.IsInf(id, 0) {
			return "", false
		}
		if id == math.Trunc(id) && math.Abs(id) < 1<<53 {
			return strconv.FormatInt(int64(id), 10), true
		}
		return strconv.FormatFloat(id, 'g', -1, 64), true
	case float32:
		return stringifyID(float64(id))
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", id), true
	default:
		return "", false
	}
}
