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

package widget

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newModule(t *testing.T) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	Initialize(mux, nil)
	return mux
}

func do(t *testing.T, mux *http.ServeMux, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// createdID extracts the generated key from a 201 Location header.
func createdID(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	location := w.Header().Get("Location")
	require.NotEmpty(t, location)
	parts := strings.Split(strings.Trim(location, "/"), "/")
	return parts[len(parts)-1]
}

func TestWidgetLifecycle(t *testing.T) {
	mux := newModule(t)

	w := do(t, mux, http.MethodPost, "/api/v1/categories/", `{"name":"tools"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	categoryID := createdID(t, w)

	w = do(t, mux, http.MethodPost, "/api/v1/widgets/",
		`{"name":"anvil","size":10,"category":"/api/v1/categories/`+categoryID+`/"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	widgetID := createdID(t, w)

	w = do(t, mux, http.MethodGet, "/api/v1/widgets/"+widgetID+"/", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "anvil", body["name"])
	assert.Equal(t, float64(10), body["size"])
	assert.Equal(t, "/api/v1/categories/"+categoryID+"/", body["category"])
	assert.Equal(t, "/api/v1/widgets/"+widgetID+"/tags/", body["tags"])
	assert.NotEmpty(t, body["created_at"])

	// The nested to-one route renders the category itself.
	w = do(t, mux, http.MethodGet, "/api/v1/widgets/"+widgetID+"/category/", "")
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, "tools", body["name"])
	assert.Equal(t, "/api/v1/categories/"+categoryID+"/", body["resource_uri"])

	w = do(t, mux, http.MethodPut, "/api/v1/widgets/"+widgetID+"/", `{"name":"anvil mk2","size":12}`)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, mux, http.MethodDelete, "/api/v1/widgets/"+widgetID+"/", "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, mux, http.MethodGet, "/api/v1/widgets/"+widgetID+"/", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWidgetValidation(t *testing.T) {
	mux := newModule(t)

	w := do(t, mux, http.MethodPost, "/api/v1/widgets/", `{"size":-1}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	errs, ok := body["errors"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, errs, "name")
	assert.Contains(t, errs, "size")
}

func TestNestedTagListing(t *testing.T) {
	mux := newModule(t)

	w := do(t, mux, http.MethodPost, "/api/v1/widgets/", `{"name":"anvil"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	widgetID := createdID(t, w)

	for _, label := range []string{"heavy", "iron"} {
		w = do(t, mux, http.MethodPost, "/api/v1/tags/",
			`{"label":"`+label+`","widget_id":"`+widgetID+`"}`)
		require.Equal(t, http.StatusCreated, w.Code)
	}
	w = do(t, mux, http.MethodPost, "/api/v1/tags/", `{"label":"stray","widget_id":"other"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, mux, http.MethodGet, "/api/v1/widgets/"+widgetID+"/tags/", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	objects, ok := body["objects"].([]interface{})
	require.True(t, ok)
	assert.Len(t, objects, 2)
}

func TestRelationFilterTraversal(t *testing.T) {
	mux := newModule(t)

	w := do(t, mux, http.MethodPost, "/api/v1/categories/", `{"name":"tools"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	categoryID := createdID(t, w)

	w = do(t, mux, http.MethodPost, "/api/v1/widgets/",
		`{"name":"anvil","category":"/api/v1/categories/`+categoryID+`/"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	w = do(t, mux, http.MethodPost, "/api/v1/widgets/", `{"name":"bolt"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, mux, http.MethodGet, "/api/v1/widgets/?category__id="+categoryID, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	objects := body["objects"].([]interface{})
	require.Len(t, objects, 1)
	assert.Equal(t, "anvil", objects[0].(map[string]interface{})["name"])
}

func TestSchemaListsRelations(t *testing.T) {
	mux := newModule(t)

	w := do(t, mux, http.MethodGet, "/api/v1/widgets/schema/", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	fields := body["fields"].(map[string]interface{})
	assert.Contains(t, fields, "category")
	assert.Contains(t, fields, "tags")
	assert.Contains(t, fields, "created_at")
}
