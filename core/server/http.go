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

package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	ep := s.cfg.Endpoints

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		if err := s.HandleLandingRequest(w, r.URL, w.Header().Set); err != nil {
			s.log.Error(err, "landing request failed")
		}
	})
	mux.HandleFunc("GET "+s.cfg.GridPath, func(w http.ResponseWriter, r *http.Request) {
		s.writeResult(w, r, s.HandleGridRequest(r.Context(), w, r.URL, w.Header().Set))
	})
	mux.HandleFunc("POST "+s.cfg.GridPath, func(w http.ResponseWriter, r *http.Request) {
		if !s.parseForm(w, r) {
			return
		}
		s.writeResult(w, r, s.HandleFormPost(r.URL, r.PostForm))
	})
	if ep.Action != "" {
		mux.HandleFunc("POST "+ep.Action, func(w http.ResponseWriter, r *http.Request) {
			if !s.parseForm(w, r) {
				return
			}
			s.writeResult(w, r, s.HandleAction(r.Context(), r.URL, r.PostForm))
		})
	}
	if ep.Confirm != "" {
		mux.HandleFunc("POST "+ep.Confirm, func(w http.ResponseWriter, r *http.Request) {
			s.writeResult(w, r, s.HandleConfirm(r.URL))
		})
	}
	if ep.Cancel != "" {
		mux.HandleFunc("POST "+ep.Cancel, func(w http.ResponseWriter, r *http.Request) {
			s.writeResult(w, r, s.HandleCancel(r.URL))
		})
	}
	if ep.Retry != "" {
		mux.HandleFunc("POST "+ep.Retry, func(w http.ResponseWriter, r *http.Request) {
			s.writeResult(w, r, s.HandleRetry(r.Context(), r.URL))
		})
	}
	if ep.Export != "" {
		mux.HandleFunc("GET "+ep.Export, func(w http.ResponseWriter, r *http.Request) {
			s.writeResult(w, r, s.HandleExport(r.Context(), w, r.URL, w.Header().Set))
		})
	}
	if s.cfg.MetricsPath != "" {
		mux.Handle("GET "+s.cfg.MetricsPath, promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	}
	return mux
}

func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return false
	}
	return true
}

// writeResult translates a handler result into an HTTP response. A nil
// result means the handler already wrote the response.
func (s *Server) writeResult(w http.ResponseWriter, r *http.Request, res *HandlerResult) {
	if res == nil {
		return
	}
	if res.Redirect != "" {
		http.Redirect(w, r, res.Redirect, res.StatusCode)
		return
	}
	if res.Error != nil {
		s.log.Info("request failed", "path", r.URL.Path, "status", res.StatusCode, "error", res.Error.Error())
	}
	if res.StatusCode == 0 {
		// The response is already partially written.
		return
	}
	http.Error(w, res.Message, res.StatusCode)
}
