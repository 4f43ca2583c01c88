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

import "net/http"

// Register mounts the resource's endpoints on the mux. Patterns carry no
// method so every verb reaches the dispatch method check, which owns the
// OPTIONS and not-allowed handling.
func (m *ModelResource) Register(mux *http.ServeMux) {
	base := m.meta.BasePath + "/" + m.meta.ResourceName

	mux.HandleFunc(base+"/{$}", func(w http.ResponseWriter, r *http.Request) {
		m.Dispatch(TypeList, w, r)
	})
	mux.HandleFunc(base+"/schema/{$}", func(w http.ResponseWriter, r *http.Request) {
		m.Dispatch(TypeSchema, w, r)
	})
	mux.HandleFunc(base+"/set/{ids}/{$}", func(w http.ResponseWriter, r *http.Request) {
		m.Dispatch(TypeMultiple, w, r)
	})
	mux.HandleFunc(base+"/{id}/{$}", func(w http.ResponseWriter, r *http.Request) {
		m.Dispatch(TypeDetail, w, r)
	})
	mux.HandleFunc(base+"/{id}/{related}/{$}", func(w http.ResponseWriter, r *http.Request) {
		m.Dispatch(TypeRelated, w, r)
	})
}
