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

package codec

import (
	"io"
	"net/http"

	"github.com/wso2/restkit/internal/system/error/resterror"
)

// Body wraps a transport-level request and exposes its decoded body through
// a memoized accessor. The dispatch layer constructs one per request; the
// wrapped request is never mutated.
type Body struct {
	request *http.Request
	codecs  []Codec

	parsed    interface{}
	parseErr  error
	parseDone bool
}

// NewBody wraps r with the codec set used for input selection.
func NewBody(r *http.Request, codecs []Codec) *Body {
	return &Body{request: r, codecs: codecs}
}

// Parsed returns the decoded request body, reading and decoding it on first
// call and returning the memoized result afterwards.
func (b *Body) Parsed() (interface{}, error) {
	if b.parseDone {
		return b.parsed, b.parseErr
	}
	b.parseDone = true
	b.parsed, b.parseErr = b.parse()
	return b.parsed, b.parseErr
}

func (b *Body) parse() (interface{}, error) {
	c, err := SelectInput(b.codecs, b.request.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}

	raw, err := io.ReadAll(b.request.Body)
	if err != nil {
		return nil, resterror.BadRequest("Unable to read request body.")
	}
	if len(raw) == 0 {
		return nil, resterror.BadRequest("Empty request body.")
	}

	var out interface{}
	if err := c.Unmarshal(raw, &out); err != nil {
		return nil, resterror.BadRequest("Request body could not be decoded: " + err.Error())
	}
	return out, nil
}
