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

// Package errclass classifies data layer errors as retryable or terminal.
package errclass

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Classification is the user-facing view of an error.
type Classification struct {
	Message   string
	Retryable bool
}

// Classifier classifies errors reported by the data layer.
type Classifier interface {
	Classify(err error) Classification
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(err error) Classification

// Classify calls f(err).
func (f ClassifierFunc) Classify(err error) Classification {
	return f(err)
}

// StatusError is an error carrying an HTTP status code.
type StatusError struct {
	Code int
	Err  error
}

// NewStatusError returns a StatusError for code wrapping err, which may be nil.
func NewStatusError(code int, err error) *StatusError {
	return &StatusError{Code: code, Err: err}
}

func (e *StatusError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("status %d: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("status %d %s", e.Code, http.StatusText(e.Code))
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

var retryableStatus = map[int]bool{
	http.StatusRequestTimeout:      true,
	http.StatusTooEarly:            true,
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// RetryableStatus reports whether an HTTP status is worth retrying.
func RetryableStatus(code int) bool {
	return retryableStatus[code]
}

// HTTP is the default classifier. Status errors are retryable for timeouts,
// throttling and server-side failures; deadlines and network timeouts are
// retryable; everything else is terminal.
var HTTP Classifier = ClassifierFunc(classifyHTTP)

func classifyHTTP(err error) Classification {
	if err == nil {
		return Classification{}
	}
	var se *StatusError
	if errors.As(err, &se) {
		msg := http.StatusText(se.Code)
		if msg == "" {
			msg = fmt.Sprintf("Request failed with status %d", se.Code)
		}
		if se.Err != nil {
			msg = fmt.Sprintf("%s: %v", msg, se.Err)
		}
		return Classification{Message: msg, Retryable: RetryableStatus(se.Code)}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Classification{Message: "The request timed out.", Retryable: true}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return Classification{Message: "The request timed out.", Retryable: true}
	}
	return Classification{Message: err.Error()}
}

// Classify classifies err with c, falling back to HTTP when c is nil.
func Classify(c Classifier, err error) Classification {
	if c == nil {
		c = HTTP
	}
	cl := c.Classify(err)
	if cl.Message == "" {
		cl.Message = "Something went wrong while loading data."
	}
	return cl
}
