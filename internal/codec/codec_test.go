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
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/restkit/internal/system/error/resterror"
)

func TestMediaTypeMatches(t *testing.T) {
	tests := []struct {
		declared  string
		requested string
		want      bool
	}{
		{"application/json", "application/json", true},
		{"application/json", "application/json; charset=utf-8", true},
		{"application/json", "application/*", true},
		{"application/json", "*/*", true},
		{"application/json", "text/html", false},
		{"application/yaml", "application/json", false},
		{"application/xml", "APPLICATION/XML", true},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, MediaTypeMatches(tc.declared, tc.requested),
			"%s vs %s", tc.declared, tc.requested)
	}
}

func TestSelectOutputPrecedence(t *testing.T) {
	codecs := DefaultCodecs()

	t.Run("format override beats accept header", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/?format=yaml", nil)
		r.Header.Set("Accept", "application/json")
		c, err := SelectOutput(r, codecs, "application/json")
		require.NoError(t, err)
		assert.Equal(t, "application/yaml", c.ContentType())
	})

	t.Run("accept header beats default", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Accept", "application/xml")
		c, err := SelectOutput(r, codecs, "application/json")
		require.NoError(t, err)
		assert.Equal(t, "application/xml", c.ContentType())
	})

	t.Run("default applies when nothing requested", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		c, err := SelectOutput(r, codecs, "application/json")
		require.NoError(t, err)
		assert.Equal(t, "application/json", c.ContentType())
	})

	t.Run("unknown override is 406", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/?format=csv", nil)
		_, err := SelectOutput(r, codecs, "application/json")
		require.Error(t, err)
		restErr, ok := resterror.AsError(err)
		require.True(t, ok)
		assert.Equal(t, resterror.KindUnsupportedFormat, restErr.Kind)
	})

	t.Run("wildcard accept falls back to default", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Accept", "text/html, */*")
		c, err := SelectOutput(r, codecs, "application/json")
		require.NoError(t, err)
		assert.Equal(t, "application/json", c.ContentType())
	})
}

func TestSelectInput(t *testing.T) {
	codecs := DefaultCodecs()

	t.Run("missing content type defaults to json", func(t *testing.T) {
		c, err := SelectInput(codecs, "")
		require.NoError(t, err)
		assert.Equal(t, "application/json", c.ContentType())
	})

	t.Run("content type with parameters matches", func(t *testing.T) {
		c, err := SelectInput(codecs, "application/yaml; charset=utf-8")
		require.NoError(t, err)
		assert.Equal(t, "application/yaml", c.ContentType())
	})

	t.Run("unclaimed content type is 406", func(t *testing.T) {
		_, err := SelectInput(codecs, "application/msgpack")
		require.Error(t, err)
	})
}

func TestBodyMemoization(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`))
	r.Header.Set("Content-Type", "application/json")

	b := NewBody(r, DefaultCodecs())
	first, err := b.Parsed()
	require.NoError(t, err)
	// The underlying reader is exhausted; a second call must return the
	// memoized value, not re-read.
	second, err := b.Parsed()
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, first.(map[string]interface{})["a"])
}

func TestBodyEmpty(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	r.Header.Set("Content-Type", "application/json")

	_, err := NewBody(r, DefaultCodecs()).Parsed()
	require.Error(t, err)
	restErr, ok := resterror.AsError(err)
	require.True(t, ok)
	assert.Equal(t, resterror.KindBadRequest, restErr.Kind)
}

func TestXMLTypedRoundTrip(t *testing.T) {
	in := map[string]interface{}{
		"name":   "widget",
		"size":   int64(3),
		"weight": 1.5,
		"active": true,
		"notes":  nil,
		"tags":   []interface{}{"a", "b"},
	}

	data, err := XML().Marshal(in)
	require.NoError(t, err)

	var out interface{}
	require.NoError(t, XML().Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestFormRoundTrip(t *testing.T) {
	in := map[string]interface{}{"name": "widget", "size": "3"}

	data, err := Form().Marshal(in)
	require.NoError(t, err)

	var out interface{}
	require.NoError(t, Form().Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestYAMLDecodesToStringKeys(t *testing.T) {
	var out interface{}
	require.NoError(t, YAML().Unmarshal([]byte("name: widget\nsize: 3\n"), &out))
	m, ok := out.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "widget", m["name"])
}
