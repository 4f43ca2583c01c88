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
	"net/http"
	"strings"

	"github.com/wso2/restkit/internal/system/error/resterror"
)

// shortFormats maps the "format" query override values onto media types.
var shortFormats = map[string]string{
	"json": "application/json",
	"yaml": "application/yaml",
	"xml":  "application/xml",
}

// SelectOutput chooses the codec that renders the response. Precedence:
// the "format" query override, then the Accept header, then defaultFormat.
func SelectOutput(r *http.Request, codecs []Codec, defaultFormat string) (Codec, error) {
	if override := r.URL.Query().Get("format"); override != "" {
		requested := override
		if mt, ok := shortFormats[strings.ToLower(override)]; ok {
			requested = mt
		}
		if c := match(codecs, requested); c != nil {
			return c, nil
		}
		return nil, resterror.UnsupportedFormat("The format indicated '" + override + "' had no available serialization method.")
	}

	if accept := r.Header.Get("Accept"); accept != "" {
		for _, candidate := range strings.Split(accept, ",") {
			if c := match(codecs, candidate); c != nil {
				return c, nil
			}
		}
		// An Accept header that matches nothing still falls through to the
		// default when it allows anything at all; otherwise it is a 406.
		if !strings.Contains(accept, "*") {
			return nil, resterror.UnsupportedFormat("The format indicated in the Accept header had no available serialization method.")
		}
	}

	if c := match(codecs, defaultFormat); c != nil {
		return c, nil
	}
	return nil, resterror.UnsupportedFormat("No serialization method available for the default format '" + defaultFormat + "'.")
}

// SelectInput chooses the codec that decodes the request body: the first
// configured codec claiming the request's Content-Type. A missing header
// falls back to application/json.
func SelectInput(codecs []Codec, contentType string) (Codec, error) {
	if contentType == "" {
		contentType = "application/json"
	}
	for _, c := range codecs {
		if CanHandle(c, contentType) {
			return c, nil
		}
	}
	return nil, resterror.UnsupportedFormat("The format indicated '" + contentType + "' had no available parser.")
}

func match(codecs []Codec, requested string) Codec {
	for _, c := range codecs {
		if CanHandle(c, requested) {
			return c
		}
	}
	return nil
}

// DefaultCodecs returns the codec set resources use when none is configured.
func DefaultCodecs() []Codec {
	return []Codec{JSON(), YAML(), XML(), Form()}
}
