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

package resource

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/restkit/internal/auth"
	"github.com/wso2/restkit/internal/authz"
	"github.com/wso2/restkit/internal/cache"
	"github.com/wso2/restkit/internal/throttle"
)

func TestDispatchAuthentication(t *testing.T) {
	basic := &auth.Basic{
		Realm: "notes",
		Check: func(username, password string) bool {
			return username == "alice" && password == "secret"
		},
	}
	mux := serve(newNoteResource(t, Options{Authentication: basic}, fiveNotes()...))

	t.Run("missing credentials yield 401 with challenge", func(t *testing.T) {
		w := doJSON(t, mux, http.MethodGet, "/api/v1/notes/", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, `Basic realm="notes"`, w.Header().Get("WWW-Authenticate"))
	})

	t.Run("wrong credentials yield 401", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/notes/", nil)
		r.SetBasicAuth("alice", "wrong")
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid credentials pass", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/notes/", nil)
		r.SetBasicAuth("alice", "secret")
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestDispatchThrottling(t *testing.T) {
	th := throttle.NewWindow(2, time.Minute, cache.NewMemoryCache())
	mux := serve(newNoteResource(t, Options{Throttle: th}, fiveNotes()...))

	get := func() int {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/notes/", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, r)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, get())
	assert.Equal(t, http.StatusOK, get())
	// Third request exceeds the two-per-window limit.
	assert.Equal(t, http.StatusForbidden, get())
}

func TestDispatchThrottleDoesNotCountRejected(t *testing.T) {
	th := throttle.NewWindow(1, time.Minute, cache.NewMemoryCache())
	mux := serve(newNoteResource(t, Options{
		Throttle:           th,
		ListAllowedMethods: []string{"get"},
	}, fiveNotes()...))

	send := func(method string) int {
		r := httptest.NewRequest(method, "/api/v1/notes/", nil)
		r.RemoteAddr = "10.0.0.2:1234"
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, r)
		return w.Code
	}

	// A rejected method never reaches the handler, so it consumes no quota.
	assert.Equal(t, http.StatusBadRequest, send(http.MethodPost))
	assert.Equal(t, http.StatusOK, send(http.MethodGet))
}

func TestDispatchThrottleCountsErrorOutcomes(t *testing.T) {
	th := throttle.NewWindow(2, time.Minute, cache.NewMemoryCache())
	mux := serve(newNoteResource(t, Options{Throttle: th}, fiveNotes()...))

	get := func(path string) int {
		r := httptest.NewRequest(http.MethodGet, path, nil)
		r.RemoteAddr = "10.0.0.3:1234"
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, r)
		return w.Code
	}

	// A 404 still ran the handler, so it consumes quota like a success.
	assert.Equal(t, http.StatusNotFound, get("/api/v1/notes/99/"))
	assert.Equal(t, http.StatusNotFound, get("/api/v1/notes/99/"))
	assert.Equal(t, http.StatusForbidden, get("/api/v1/notes/1/"))
}

func TestDispatchAuthorizationChain(t *testing.T) {
	t.Run("read only policy denies writes", func(t *testing.T) {
		mux := serve(newNoteResource(t, Options{
			Authorizers: []authz.Authorizer{authz.ReadOnlyAuthorization{}},
		}, fiveNotes()...))

		w := doJSON(t, mux, http.MethodGet, "/api/v1/notes/", "")
		assert.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, mux, http.MethodPost, "/api/v1/notes/", `{"title":"x"}`)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("owner limits narrow the list", func(t *testing.T) {
		basic := &auth.Basic{Check: func(u, p string) bool { return p == "pw" }}
		m := newNoteResource(t, Options{
			Authentication: basic,
			OwnerField:     "title",
			Authorizers: []authz.Authorizer{authz.OwnerAuthorization{
				FieldValue: func(obj interface{}, field string) (interface{}, bool) {
					return getAttr(obj, field)
				},
			}},
		}, note{ID: 1, Title: "alice"}, note{ID: 2, Title: "bob"}, note{ID: 3, Title: "alice"})
		mux := serve(m)

		r := httptest.NewRequest(http.MethodGet, "/api/v1/notes/", nil)
		r.SetBasicAuth("alice", "pw")
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, r)
		require.Equal(t, http.StatusOK, w.Code)

		body := decodeBody(t, w)
		assert.Len(t, body["objects"].([]interface{}), 2)
	})
}
