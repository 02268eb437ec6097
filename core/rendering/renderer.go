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

// Package rendering writes grid view models as HTML and as plain text.
package rendering

import (
	"embed"
	"io"

	"github.com/google/safehtml/template"
	"github.com/google/tablero/core/views"
)

//go:embed templates/*
var templateFS embed.FS

// GridRenderer renders grid and landing view models to HTML.
type GridRenderer struct {
	gridTemplate    *template.Template
	landingTemplate *template.Template
}

// NewGridRenderer parses the embedded templates.
func NewGridRenderer() (*GridRenderer, error) {
	trustedFS := template.TrustedFSFromEmbed(templateFS)

	gridTemplate, err := template.New("grid.html").ParseFS(trustedFS, "templates/grid.html")
	if err != nil {
		return nil, err
	}
	landingTemplate, err := template.New("landing.html").ParseFS(trustedFS, "templates/landing.html")
	if err != nil {
		return nil, err
	}

	return &GridRenderer{
		gridTemplate:    gridTemplate,
		landingTemplate: landingTemplate,
	}, nil
}

// Render renders a GridViewModel to the provided writer.
func (r *GridRenderer) Render(w io.Writer, vm *views.GridViewModel) error {
	return r.gridTemplate.Execute(w, vm)
}

// RenderLanding renders a LandingViewModel to the provided writer.
func (r *GridRenderer) RenderLanding(w io.Writer, vm views.LandingViewModel) error {
	return r.landingTemplate.Execute(w, vm)
}
