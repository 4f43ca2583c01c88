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

	"github.com/wso2/restkit/internal/codec"
)

// Bundle is the per-request unit of work carrying a domain object and its
// wire-format data through the dehydrate/hydrate cycle. It lives for one
// request and is never shared.
type Bundle struct {
	// Request is the originating request, read-only.
	Request *http.Request
	// Body is the memoized parsed-body accessor for write requests.
	Body *codec.Body
	// Object is the domain object. May be nil until hydration creates one.
	Object interface{}
	// Data maps field names to wire values.
	Data map[string]interface{}

	// pendingM2M holds to-many values set aside during FullHydrate; they
	// need the object saved and identified before they can be attached.
	pendingM2M map[string]interface{}
	hydrated   bool
}

// SetData replaces the bundle's wire data.
func (b *Bundle) SetData(data map[string]interface{}) {
	b.Data = data
}
