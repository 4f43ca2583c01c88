/*
 * Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

// Package resterror defines the error taxonomy the dispatch layer translates
// into HTTP responses. There is exactly one translation point, in the
// dispatch wrapper; components below it raise these kinds directly.
package resterror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/wso2/restkit/internal/response"
)

// Kind identifies a category of REST error with a fixed status code.
type Kind string

const (
	KindUnauthorized      Kind = "unauthorized"
	KindPermissionDenied  Kind = "permission_denied"
	KindMethodNotAllowed  Kind = "method_not_allowed"
	KindNotFound          Kind = "not_found"
	KindMultipleMatches   Kind = "multiple_matches"
	KindHydration         Kind = "hydration_error"
	KindUnsupportedFormat Kind = "unsupported_format"
	KindBadRequest        Kind = "bad_request"
	KindInvalidFilter     Kind = "invalid_filter"
	KindInvalidSort       Kind = "invalid_sort"
	KindValidation        Kind = "validation_failed"
	KindNotImplemented    Kind = "not_implemented"
	KindInternal          Kind = "internal_error"
)

var statusByKind = map[Kind]int{
	KindUnauthorized:      http.StatusUnauthorized,
	KindPermissionDenied:  http.StatusForbidden,
	KindMethodNotAllowed:  http.StatusMethodNotAllowed,
	KindNotFound:          http.StatusNotFound,
	KindMultipleMatches:   http.StatusMultipleChoices,
	KindHydration:         http.StatusInternalServerError,
	KindUnsupportedFormat: http.StatusNotAcceptable,
	KindBadRequest:        http.StatusBadRequest,
	KindInvalidFilter:     http.StatusBadRequest,
	KindInvalidSort:       http.StatusBadRequest,
	KindValidation:        http.StatusBadRequest,
	KindNotImplemented:    http.StatusNotImplemented,
	KindInternal:          http.StatusInternalServerError,
}

// Error is a REST-layer error carrying everything the render step needs.
type Error struct {
	Kind    Kind
	Message string
	Headers map[string]string
	// Errors holds the per-field error map for validation failures.
	Errors map[string][]string
	// Response, when set, is a fully-formed response the dispatch layer
	// must emit verbatim (auth challenges, validation rejections).
	Response *response.Response
	// Wrapped is the underlying cause, if any.
	Wrapped error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Wrapped }

// StatusCode returns the HTTP status for the error's kind.
func (e *Error) StatusCode() int {
	if status, ok := statusByKind[e.Kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Is makes BadRequest act as the parent of its subtypes so callers can match
// errors.Is(err, resterror.BadRequest("")) for any 400-class filter/sort
// error as well.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Kind == t.Kind {
		return true
	}
	if t.Kind == KindBadRequest {
		return e.Kind == KindInvalidFilter || e.Kind == KindInvalidSort || e.Kind == KindValidation
	}
	return false
}

// New creates an error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Unauthorized creates a 401 error; challenge, when non-empty, is attached
// as the WWW-Authenticate header.
func Unauthorized(challenge string) *Error {
	e := New(KindUnauthorized, "Unauthorized")
	if challenge != "" {
		e.Headers = map[string]string{"WWW-Authenticate": challenge}
	}
	return e
}

// PermissionDenied creates a 403 error.
func PermissionDenied(msg string) *Error {
	if msg == "" {
		msg = "Permission denied"
	}
	return New(KindPermissionDenied, msg)
}

// MethodNotAllowed creates a 405 error carrying the mandatory Allow header
// built from the given lower-case method names.
func MethodNotAllowed(allowed []string) *Error {
	upper := make([]string, len(allowed))
	for i, m := range allowed {
		upper[i] = strings.ToUpper(m)
	}
	e := Newf(KindMethodNotAllowed, "Allowed methods: %s", strings.Join(upper, ", "))
	e.Headers = map[string]string{"Allow": strings.Join(upper, ",")}
	return e
}

// NotFound creates a 404 error.
func NotFound(msg string) *Error {
	if msg == "" {
		msg = "Not found"
	}
	return New(KindNotFound, msg)
}

// MultipleMatches creates a 300 error.
func MultipleMatches(msg string) *Error {
	if msg == "" {
		msg = "More than one resource is found at this URI."
	}
	return New(KindMultipleMatches, msg)
}

// Hydration creates a 500 error for out-of-order hydration calls.
func Hydration(msg string) *Error {
	return New(KindHydration, msg)
}

// UnsupportedFormat creates a 406 error.
func UnsupportedFormat(msg string) *Error {
	return New(KindUnsupportedFormat, msg)
}

// BadRequest creates a 400 error whose message is surfaced to the user
// verbatim.
func BadRequest(msg string) *Error {
	return New(KindBadRequest, msg)
}

// InvalidFilter creates a 400 error for a non-whitelisted filter.
func InvalidFilter(msg string) *Error {
	return New(KindInvalidFilter, msg)
}

// InvalidSort creates a 400 error for a non-whitelisted ordering.
func InvalidSort(msg string) *Error {
	return New(KindInvalidSort, msg)
}

// Validation creates a 400 error carrying a per-field error map.
func Validation(errs map[string][]string) *Error {
	return &Error{Kind: KindValidation, Message: "Validation failed", Errors: errs}
}

// NotImplemented creates a 501 error.
func NotImplemented(msg string) *Error {
	return New(KindNotImplemented, msg)
}

// Internal wraps an unexpected failure as a 500 error.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "Sorry, this request could not be processed. Please try again later.", Wrapped: err}
}

// Immediate creates an error that interrupts processing to emit the given
// pre-built response verbatim.
func Immediate(resp *response.Response) *Error {
	return &Error{Kind: KindInternal, Message: "immediate response", Response: resp}
}

// AsError extracts a *Error from err, if it is one.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
