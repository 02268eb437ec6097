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

package errclass

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

var _ net.Error = timeoutError{}

func TestHTTPClassifier(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Classification
	}{
		{"503", NewStatusError(503, nil), Classification{Message: "Service Unavailable", Retryable: true}},
		{"429 wrapped", fmt.Errorf("list tenants: %w", NewStatusError(429, nil)), Classification{Message: "Too Many Requests", Retryable: true}},
		{"404", NewStatusError(404, errors.New("no such tenant")), Classification{Message: "Not Found: no such tenant"}},
		{"403", NewStatusError(403, nil), Classification{Message: "Forbidden"}},
		{"unknown status", NewStatusError(599, nil), Classification{Message: "Request failed with status 599"}},
		{"deadline", fmt.Errorf("fetch: %w", context.DeadlineExceeded), Classification{Message: "The request timed out.", Retryable: true}},
		{"net timeout", &net.OpError{Op: "dial", Err: timeoutError{}}, Classification{Message: "The request timed out.", Retryable: true}},
		{"plain", errors.New("bad request body"), Classification{Message: "bad request body"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, HTTP.Classify(tt.err)); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClassifyFallbacks(t *testing.T) {
	got := Classify(nil, NewStatusError(502, nil))
	if !got.Retryable {
		t.Errorf("nil classifier should use HTTP, got %+v", got)
	}

	silent := ClassifierFunc(func(error) Classification { return Classification{Retryable: true} })
	got = Classify(silent, errors.New("x"))
	if got.Message == "" || !got.Retryable {
		t.Errorf("expected default message and caller's retry decision, got %+v", got)
	}
}

func TestStatusErrorUnwrap(t *testing.T) {
	cause := context.Canceled
	err := NewStatusError(500, cause)
	if !errors.Is(err, cause) {
		t.Error("StatusError must unwrap to its cause")
	}
}
