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

// Package paginator slices object lists into limit/offset windows and builds
// the navigation metadata clients use to walk them.
package paginator

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/wso2/restkit/internal/system/error/resterror"
)

// Meta is the pagination block returned alongside every list window.
type Meta struct {
	Limit      int     `json:"limit"`
	Offset     int     `json:"offset"`
	TotalCount int     `json:"total_count"`
	Previous   *string `json:"previous"`
	Next       *string `json:"next"`
}

// Page is one window of a paginated list.
type Page struct {
	Objects []interface{} `json:"objects"`
	Meta    Meta          `json:"meta"`
}

// Paginator computes pages from request query values.
type Paginator struct {
	// DefaultLimit applies when the request carries no limit parameter.
	DefaultLimit int
	// MaxLimit caps the requested limit; zero means uncapped.
	MaxLimit int
}

// Paginate slices objects into the window the query values request.
// resourceURI is the list endpoint path used to build previous/next links;
// when empty the links are omitted entirely.
func (p *Paginator) Paginate(values url.Values, objects []interface{}, resourceURI string) (*Page, error) {
	limit, err := p.limit(values)
	if err != nil {
		return nil, err
	}
	offset, err := p.offset(values)
	if err != nil {
		return nil, err
	}

	total := len(objects)

	window := objects
	if offset >= total {
		window = nil
	} else if limit == 0 {
		window = objects[offset:]
	} else if offset+limit >= total {
		window = objects[offset:]
	} else {
		window = objects[offset : offset+limit]
	}
	if window == nil {
		window = []interface{}{}
	}

	meta := Meta{Limit: limit, Offset: offset, TotalCount: total}
	if resourceURI != "" {
		if offset > 0 {
			prev := p.link(values, resourceURI, limit, maxInt(offset-limit, 0))
			meta.Previous = &prev
		}
		if limit > 0 && offset+limit < total {
			next := p.link(values, resourceURI, limit, offset+limit)
			meta.Next = &next
		}
	}

	return &Page{Objects: window, Meta: meta}, nil
}

func (p *Paginator) limit(values url.Values) (int, error) {
	raw := values.Get("limit")
	if raw == "" {
		return p.clamp(p.DefaultLimit), nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, resterror.BadRequest(fmt.Sprintf("Invalid limit '%s' provided. Please provide an integer.", raw))
	}
	if limit < 0 {
		return 0, resterror.BadRequest(fmt.Sprintf("Invalid limit '%s' provided. Please provide a positive integer >= 0.", raw))
	}
	return p.clamp(limit), nil
}

func (p *Paginator) clamp(limit int) int {
	if p.MaxLimit > 0 && (limit == 0 || limit > p.MaxLimit) {
		return p.MaxLimit
	}
	return limit
}

func (p *Paginator) offset(values url.Values) (int, error) {
	raw := values.Get("offset")
	if raw == "" {
		return 0, nil
	}
	offset, err := strconv.Atoi(raw)
	if err != nil {
		return 0, resterror.BadRequest(fmt.Sprintf("Invalid offset '%s' provided. Please provide an integer.", raw))
	}
	if offset < 0 {
		return 0, resterror.BadRequest(fmt.Sprintf("Invalid offset '%s' provided. Please provide a positive integer >= 0.", raw))
	}
	return offset, nil
}

// link rebuilds the query string around the new window, preserving every
// other request parameter.
func (p *Paginator) link(values url.Values, resourceURI string, limit, offset int) string {
	q := url.Values{}
	for k, vs := range values {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	return resourceURI + "?" + q.Encode()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
