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

// Package resource implements the REST resource core: declarative field
// schemas, the dispatch state machine, the dehydrate/hydrate cycle between
// domain objects and wire data, and the store-backed CRUD verb handlers.
package resource

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/wso2/restkit/internal/auth"
	"github.com/wso2/restkit/internal/codec"
	"github.com/wso2/restkit/internal/response"
	"github.com/wso2/restkit/internal/store"
	"github.com/wso2/restkit/internal/system/constants"
	"github.com/wso2/restkit/internal/system/error/resterror"
	"github.com/wso2/restkit/internal/system/log"
)

const loggerComponentName = "ResourceDispatch"

// Handler is one verb handler. A nil response with a nil error means
// "accepted, no body" and renders as 204.
type Handler func(r *http.Request, body *codec.Body) (*response.Response, error)

// DehydrateHook overrides one field's outbound value. It receives the value
// the generic path computed (nil when the field has no attribute).
type DehydrateHook func(b *Bundle, value interface{}) (interface{}, error)

// HydrateHook transforms one field's inbound value after generic coercion
// and before assignment onto the domain object.
type HydrateHook func(b *Bundle, value interface{}) (interface{}, error)

// BundleHook post-processes a whole bundle.
type BundleHook func(b *Bundle) error

// Resource holds one entity type's schema, policies, and verb handlers, and
// runs the dispatch state machine over them. Construction resolves all
// configuration; a Resource is immutable and safe for concurrent requests.
type Resource struct {
	meta       Options
	fields     []*Field
	fieldIndex map[string]*Field
	keyField   string
	factory    func() interface{}

	dehydrateHooks map[string]DehydrateHook
	hydrateHooks   map[string]HydrateHook
	afterDehydrate BundleHook
	afterHydrate   BundleHook

	// handlers is the static verb table: request type → method → handler.
	handlers map[RequestType]map[string]Handler

	// resolveByID fetches a domain object by key, for relation hydration.
	// The model binding installs it.
	resolveByID func(r *http.Request, id string) (interface{}, error)
	// listByScope lists objects under a scope with the resource's own
	// authorization limits and sorting applied. The model binding installs
	// it; nested related listings go through it.
	listByScope func(r *http.Request, scope store.Scope, values url.Values) ([]interface{}, error)

	logger *log.Logger
}

// New creates a resource from its schema. keyField names the declared field
// whose value identifies an object in detail URIs; factory produces a new
// empty domain object.
func New(opts Options, fields []*Field, keyField string, factory func() interface{}) *Resource {
	res := &Resource{
		meta:           opts.applyDefaults(),
		fields:         fields,
		fieldIndex:     make(map[string]*Field, len(fields)),
		keyField:       keyField,
		factory:        factory,
		dehydrateHooks: make(map[string]DehydrateHook),
		hydrateHooks:   make(map[string]HydrateHook),
		handlers:       make(map[RequestType]map[string]Handler),
		logger:         log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName)),
	}
	for _, f := range fields {
		res.fieldIndex[f.Name] = f
	}
	return res
}

// Meta returns the resolved configuration.
func (res *Resource) Meta() Options { return res.meta }

// Fields returns the declared fields in declaration order.
func (res *Resource) Fields() []*Field { return res.fields }

// OnDehydrate registers a per-field dehydrate override.
func (res *Resource) OnDehydrate(field string, hook DehydrateHook) {
	res.dehydrateHooks[field] = hook
}

// OnHydrate registers a per-field hydrate override.
func (res *Resource) OnHydrate(field string, hook HydrateHook) {
	res.hydrateHooks[field] = hook
}

// AfterDehydrate registers the whole-bundle dehydrate hook.
func (res *Resource) AfterDehydrate(hook BundleHook) { res.afterDehydrate = hook }

// AfterHydrate registers the whole-bundle hydrate hook.
func (res *Resource) AfterHydrate(hook BundleHook) { res.afterHydrate = hook }

// RegisterHandler installs a verb handler in the static dispatch table.
func (res *Resource) RegisterHandler(requestType RequestType, method string, h Handler) {
	if res.handlers[requestType] == nil {
		res.handlers[requestType] = make(map[string]Handler)
	}
	res.handlers[requestType][strings.ToLower(method)] = h
}

// ListURI returns the resource's list endpoint path.
func (res *Resource) ListURI() string {
	return res.meta.BasePath + "/" + res.meta.ResourceName + "/"
}

// DetailURI returns the detail endpoint path for the given object, or ""
// when the object's key cannot be resolved.
func (res *Resource) DetailURI(obj interface{}) string {
	key, ok := res.keyValue(obj)
	if !ok {
		return ""
	}
	return res.ListURI() + fmt.Sprintf("%v", key) + "/"
}

func (res *Resource) keyValue(obj interface{}) (interface{}, bool) {
	f, ok := res.fieldIndex[res.keyField]
	if !ok || f.Attribute == "" || obj == nil {
		return nil, false
	}
	v, ok := getAttr(obj, f.Attribute)
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// BuildBundle creates the per-request bundle around an object and/or its
// wire data.
func (res *Resource) BuildBundle(r *http.Request, body *codec.Body, obj interface{}, data map[string]interface{}) *Bundle {
	return &Bundle{Request: r, Body: body, Object: obj, Data: data}
}

// Dispatch runs the state machine for one request: method check, handler
// resolution, authentication, throttle check, handler invocation, access
// recording, response rendering. It is the single error→response
// translation point; nothing below it double-handles.
func (res *Resource) Dispatch(requestType RequestType, w http.ResponseWriter, r *http.Request) {
	resp, err := res.dispatch(requestType, r)
	if err != nil {
		resp = res.errorResponse(err)
	}
	res.Render(w, r, resp)
}

func (res *Resource) dispatch(requestType RequestType, r *http.Request) (*response.Response, error) {
	allowed := res.meta.allowedFor(requestType)

	method, err := methodCheck(r, requestType, allowed)
	if err != nil {
		return nil, err
	}

	handler := res.handlers[requestType][method]
	if handler == nil {
		return nil, resterror.NotImplemented(
			fmt.Sprintf("The '%s' operation on %s is not implemented.", method, requestType))
	}

	identity, err := res.meta.Authentication.Authenticate(r)
	if err != nil {
		return nil, err
	}
	r = r.WithContext(auth.WithIdentity(r.Context(), identity))

	identifier := res.meta.Authentication.Identifier(r)
	if throttled, wait := res.meta.Throttle.ShouldBeThrottled(identifier); throttled {
		res.logger.Warn("Request throttled",
			log.String("identifier", identifier),
			log.String("path", r.URL.Path),
			log.Any("retryAfter", wait))
		return nil, resterror.PermissionDenied("Sorry, your request has been throttled.")
	}

	resp, err := handler(r, codec.NewBody(r, res.meta.Codecs))

	// The handler ran, so the access counts against the quota whether it
	// succeeded or not. Only the short-circuits above are exempt.
	res.meta.Throttle.AccessRecorded(identifier)

	if err != nil {
		return nil, err
	}

	if resp == nil {
		resp = response.Empty(http.StatusNoContent)
	}
	return resp, nil
}

// methodCheck validates the HTTP method against the scope's allowed set.
// OPTIONS is always rejected with the Allow header; a known-but-disallowed
// method is a 400 naming the action.
func methodCheck(r *http.Request, requestType RequestType, allowed []string) (string, error) {
	method := strings.ToLower(r.Method)
	if method == "options" {
		return "", resterror.MethodNotAllowed(allowed)
	}
	for _, m := range allowed {
		if m == method {
			return method, nil
		}
	}
	return "", resterror.BadRequest(
		fmt.Sprintf("The '%s' method is not allowed for %s operations on this resource.",
			strings.ToUpper(method), requestType))
}

// errorResponse translates any error into a renderable response. Errors
// carrying a pre-built response emit it verbatim; store sentinels map to
// their taxonomy kinds; everything else is a 500 whose detail only surfaces
// in debug mode.
func (res *Resource) errorResponse(err error) *response.Response {
	switch {
	case errors.Is(err, store.ErrNotFound):
		err = resterror.NotFound("")
	case errors.Is(err, store.ErrMultiple):
		err = resterror.MultipleMatches("")
	}

	restErr, ok := resterror.AsError(err)
	if !ok {
		restErr = resterror.Internal(err)
	}
	if restErr.Response != nil {
		return restErr.Response
	}

	status := restErr.StatusCode()
	if status >= http.StatusInternalServerError {
		res.logger.Error("Request failed", log.Error(err))
	}

	body := response.ErrorBody{
		Code:    status,
		Message: restErr.Message,
		Errors:  restErr.Errors,
	}
	if res.meta.Debug && restErr.Wrapped != nil {
		body.Trace = restErr.Wrapped.Error()
	}

	resp := response.New(body, status)
	for name, value := range restErr.Headers {
		resp.SetHeader(name, value)
	}
	return resp
}

// Render serializes a response in the negotiated output format and writes
// it to the transport. It consumes the response exactly once.
func (res *Resource) Render(w http.ResponseWriter, r *http.Request, resp *response.Response) {
	if resp == nil {
		resp = response.Empty(http.StatusNoContent)
	}
	resp.WriteHeaders(w.Header())

	if resp.Raw != nil {
		w.WriteHeader(resp.StatusCode)
		w.Write(resp.Raw) //nolint:errcheck
		return
	}
	if !resp.HasContent {
		w.WriteHeader(resp.StatusCode)
		return
	}

	c, err := codec.SelectOutput(r, res.meta.Codecs, res.meta.DefaultFormat)
	if err != nil {
		// Negotiation failed for the error path too; fall back to JSON so
		// the caller still gets a structured body.
		restErr, _ := resterror.AsError(err)
		c = codec.JSON()
		resp = response.New(response.ErrorBody{
			Code:    restErr.StatusCode(),
			Message: restErr.Message,
		}, restErr.StatusCode())
	}

	payload, err := c.Marshal(resp.Content)
	if err != nil {
		res.logger.Error("Failed to serialize response", log.Error(err))
		c = codec.JSON()
		payload, _ = c.Marshal(response.ErrorBody{
			Code:    http.StatusInternalServerError,
			Message: "Sorry, this request could not be processed. Please try again later.",
		})
		resp.StatusCode = http.StatusInternalServerError
	}

	w.Header().Set(constants.ContentTypeHeaderName, c.ContentType())
	w.WriteHeader(resp.StatusCode)
	w.Write(payload) //nolint:errcheck
}
