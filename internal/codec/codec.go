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

// Package codec provides content-type aware marshaling and the
// content-negotiation logic that selects a wire format for a request,
// independent of any single format's encoder.
package codec

import (
	"strings"
)

// Codec provides content-type aware marshaling for one wire format.
type Codec interface {
	// ContentType returns the MIME type for this codec (e.g. "application/json").
	ContentType() string

	// Marshal encodes v into bytes.
	Marshal(v interface{}) ([]byte, error)

	// Unmarshal decodes data into v.
	Unmarshal(data []byte, v interface{}) error
}

// CanHandle reports whether the codec claims the given content type. The
// match is on type/subtype, ignoring parameters, with "*" wildcards allowed
// on either side of the requested type.
func CanHandle(c Codec, contentType string) bool {
	return MediaTypeMatches(c.ContentType(), contentType)
}

// MediaTypeMatches reports whether the served media type satisfies the
// requested one. Parameters (";charset=..." etc.) are stripped before
// comparison.
func MediaTypeMatches(served, requested string) bool {
	servedType, servedSub := splitMediaType(served)
	reqType, reqSub := splitMediaType(requested)

	if reqType == "" {
		return false
	}
	if reqType != "*" && reqType != servedType {
		return false
	}
	if reqSub != "*" && reqSub != servedSub {
		return false
	}
	return true
}

func splitMediaType(mt string) (string, string) {
	mt = strings.TrimSpace(mt)
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = mt[:i]
	}
	parts := strings.SplitN(strings.TrimSpace(strings.ToLower(mt)), "/", 2)
	if len(parts) != 2 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
