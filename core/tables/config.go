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

package tables

// DefaultPageSize is used when neither the caller nor the configuration
// provides a page size.
const DefaultPageSize = 25

// MaxPageSize bounds the page size; larger sizes are clamped.
const MaxPageSize = 10_000

// DefaultPageSizeOptions are offered by the pagination footer.
var DefaultPageSizeOptions = []int{10, 25, 50, 100}

// PaginationConfig configures pagination. A nil *PaginationConfig enables
// client pagination with defaults.
type PaginationConfig struct {
	Disabled        bool
	Mode            Mode
	PageSize        int
	PageSizeOptions []int

	OnPageChange     func(pageIndex int)
	OnPageSizeChange func(pageSize int)
}

// SortingConfig configures sorting. Mode defaults to the pagination mode.
type SortingConfig struct {
	Disabled     bool
	Mode         Mode
	DefaultModel SortModel

	OnSortModelChange func(SortModel)
}

// FilteringConfig configures filtering. Mode defaults to the pagination mode.
type FilteringConfig struct {
	Disabled     bool
	Mode         Mode
	DefaultModel FilterModel

	OnFilterModelChange func(FilterModel)
}

// SelectionConfig configures row selection.
type SelectionConfig struct {
	Disabled bool

	OnSelectionChange func(SelectionModel)
}

// Config holds the feature configuration of one grid.
type Config struct {
	Pagination *PaginationConfig
	Sorting    *SortingConfig
	Filtering  *FilteringConfig
	Selection  *SelectionConfig
}

// Features reports which features are enabled and where they run.
type Features struct {
	Pagination bool
	Sorting    bool
	Filtering  bool
	Selection  bool

	PaginationMode Mode
	SortingMode    Mode
	FilteringMode  Mode
}

// resolved is Config with every default applied.
type resolved struct {
	Features
	pageSize        int
	pageSizeOptions []int
	defaultSort     SortModel
	defaultFilter   FilterModel

	onPageChange        func(int)
	onPageSizeChange    func(int)
	onSortModelChange   func(SortModel)
	onFilterModelChange func(FilterModel)
	onSelectionChange   func(SelectionModel)
}

func resolveConfig(cfg Config) resolved {
	r := resolved{
		pageSize:        DefaultPageSize,
		pageSizeOptions: DefaultPageSizeOptions,
	}

	r.Pagination = true
	r.PaginationMode = ModeClient
	if p := cfg.Pagination; p != nil {
		r.Pagination = !p.Disabled
		if p.Mode != ModeDefault {
			r.PaginationMode = p.Mode
		}
		if p.PageSize > 0 {
			r.pageSize = p.PageSize
		}
		if len(p.PageSizeOptions) > 0 {
			r.pageSizeOptions = p.PageSizeOptions
		}
		r.onPageChange = p.OnPageChange
		r.onPageSizeChange = p.OnPageSizeChange
	}

	r.Sorting = true
	r.SortingMode = r.PaginationMode
	if s := cfg.Sorting; s != nil {
		r.Sorting = !s.Disabled
		if s.Mode != ModeDefault {
			r.SortingMode = s.Mode
		}
		r.defaultSort = s.DefaultModel.Clone()
		r.onSortModelChange = s.OnSortModelChange
	}

	r.Filtering = true
	r.FilteringMode = r.PaginationMode
	if f := cfg.Filtering; f != nil {
		r.Filtering = !f.Disabled
		if f.Mode != ModeDefault {
			r.FilteringMode = f.Mode
		}
		r.defaultFilter = f.DefaultModel.Clone()
		r.onFilterModelChange = f.OnFilterModelChange
	}

	r.Selection = true
	if s := cfg.Selection; s != nil {
		r.Selection = !s.Disabled
		r.onSelectionChange = s.OnSelectionChange
	}
	return r
}

// Controlled carries caller-owned models. A nil field leaves the model to
// the controller.
type Controlled struct {
	PageIndex   *int
	PageSize    *int
	SortModel   *SortModel
	FilterModel *FilterModel
	Selection   *SelectionModel
}

// Int returns a pointer to v, for Controlled literals.
func Int(v int) *int { return &v }
