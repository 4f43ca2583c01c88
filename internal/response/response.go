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

// Package response provides the transport-neutral response value passed
// between verb handlers and the render step.
package response

import (
	"net/http"
	"strings"
)

// header stores the original-case name alongside the value so lookups are
// case-insensitive while output preserves the case the caller used.
type header struct {
	name  string
	value string
}

// Response carries a status code, headers and content that has not yet been
// serialized. A handler constructs it; the render step consumes it exactly
// once and turns it into a wire-level HTTP response.
type Response struct {
	StatusCode int

	// Content holds structured data awaiting serialization. When Raw is set
	// the render step writes it verbatim instead.
	Content    interface{}
	HasContent bool
	Raw        []byte

	headers map[string]header
}

// New creates a response with the given structured content and status.
func New(content interface{}, status int) *Response {
	return &Response{
		StatusCode: status,
		Content:    content,
		HasContent: content != nil,
		headers:    make(map[string]header),
	}
}

// Empty creates a bodyless response with the given status.
func Empty(status int) *Response {
	return New(nil, status)
}

// SetHeader sets a header, replacing any existing value under a
// case-insensitive match of the name.
func (r *Response) SetHeader(name, value string) *Response {
	if r.headers == nil {
		r.headers = make(map[string]header)
	}
	r.headers[strings.ToLower(name)] = header{name: name, value: value}
	return r
}

// Header returns the value for the named header, matched case-insensitively.
func (r *Response) Header(name string) (string, bool) {
	h, ok := r.headers[strings.ToLower(name)]
	return h.value, ok
}

// HasHeader reports whether the named header is set.
func (r *Response) HasHeader(name string) bool {
	_, ok := r.headers[strings.ToLower(name)]
	return ok
}

// WriteHeaders copies all headers onto the given http.Header in their
// original case.
func (r *Response) WriteHeaders(dst http.Header) {
	for _, h := range r.headers {
		dst.Set(h.name, h.value)
	}
}

// ErrorBody is the wire shape of an error response.
type ErrorBody struct {
	Code    int                 `json:"code"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
	Trace   string              `json:"trace,omitempty"`
}
