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
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/wso2/restkit/internal/authz"
	"github.com/wso2/restkit/internal/codec"
	"github.com/wso2/restkit/internal/paginator"
	"github.com/wso2/restkit/internal/response"
	"github.com/wso2/restkit/internal/store"
	"github.com/wso2/restkit/internal/system/constants"
	"github.com/wso2/restkit/internal/system/error/resterror"
	"github.com/wso2/restkit/internal/system/log"
)

// ModelResource binds a Resource to a backing store, supplying the full CRUD
// verb-handler set. The core never depends on a concrete store; everything
// flows through the store.Store contract.
type ModelResource struct {
	*Resource
	store store.Store
}

// NewModel creates a store-backed resource and installs its verb handlers
// in the dispatch table.
func NewModel(opts Options, fields []*Field, keyField string, factory func() interface{}, st store.Store) *ModelResource {
	m := &ModelResource{Resource: New(opts, fields, keyField, factory), store: st}

	m.resolveByID = func(r *http.Request, id string) (interface{}, error) {
		return m.ObjGet(r, id)
	}
	m.listByScope = func(r *http.Request, scope store.Scope, values url.Values) ([]interface{}, error) {
		return m.objGetScoped(r, scope, values)
	}

	m.RegisterHandler(TypeList, "get", m.GetList)
	m.RegisterHandler(TypeList, "post", m.PostList)
	m.RegisterHandler(TypeList, "put", m.PutList)
	m.RegisterHandler(TypeList, "delete", m.DeleteList)
	m.RegisterHandler(TypeDetail, "get", m.GetDetail)
	m.RegisterHandler(TypeDetail, "put", m.PutDetail)
	m.RegisterHandler(TypeDetail, "delete", m.DeleteDetail)
	m.RegisterHandler(TypeRelated, "get", m.GetRelated)
	m.RegisterHandler(TypeMultiple, "get", m.GetMultiple)
	m.RegisterHandler(TypeSchema, "get", m.GetSchema)

	return m
}

// Store returns the backing store.
func (m *ModelResource) Store() store.Store { return m.store }

func (m *ModelResource) keyAttribute() string {
	if f, ok := m.fieldIndex[m.keyField]; ok {
		return f.Attribute
	}
	return m.keyField
}

func (m *ModelResource) keyScope(id string) store.Scope {
	return store.Where(m.keyAttribute(), store.OpExact, id)
}

func (m *ModelResource) paginator() *paginator.Paginator {
	return &paginator.Paginator{DefaultLimit: m.meta.Limit, MaxLimit: m.meta.MaxLimit}
}

// lookup fetches an object by key without authorization.
func (m *ModelResource) lookup(r *http.Request, id string) (interface{}, error) {
	col, err := m.store.Filter(r.Context(), m.keyScope(id))
	if err != nil {
		return nil, err
	}
	return col.GetSingle(r.Context())
}

// ObjGet fetches one object by key and authorizes the read against it.
func (m *ModelResource) ObjGet(r *http.Request, id string) (interface{}, error) {
	obj, err := m.lookup(r, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(m.meta.Authorizers, r, authz.ReadDetail, m.meta.Meta(), obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// CachedObjGet consults the cache before the store. The cache is advisory:
// a miss falls through to ObjGet, and authorization runs on hits too.
func (m *ModelResource) CachedObjGet(r *http.Request, id string) (interface{}, error) {
	key := m.meta.ResourceName + ":detail:" + id
	if cached, ok := m.meta.Cache.Get(key); ok {
		if err := authz.Authorize(m.meta.Authorizers, r, authz.ReadDetail, m.meta.Meta(), cached); err != nil {
			return nil, err
		}
		return cached, nil
	}
	obj, err := m.ObjGet(r, id)
	if err != nil {
		return nil, err
	}
	m.meta.Cache.Set(key, obj, m.meta.CacheTTL)
	return obj, nil
}

func (m *ModelResource) objGetScoped(r *http.Request, base store.Scope, values url.Values) ([]interface{}, error) {
	scope := store.And(base, authz.ApplyLimits(m.meta.Authorizers, r, authz.ReadList, m.meta.Meta()))

	col, err := m.store.Filter(r.Context(), scope)
	if err != nil {
		return nil, err
	}
	col, err = m.ApplySorting(col, values)
	if err != nil {
		return nil, err
	}
	return col.All(r.Context())
}

// ObjGetList lists objects matching the request's filters, narrowed by the
// authorization chain's limits and ordered per the order_by parameter.
func (m *ModelResource) ObjGetList(r *http.Request) ([]interface{}, error) {
	filters, err := m.BuildFilters(r.URL.Query())
	if err != nil {
		return nil, err
	}
	return m.objGetScoped(r, filters, r.URL.Query())
}

// CachedObjGetList consults the cache for an unfiltered, unsorted listing;
// any filter or ordering parameter bypasses it.
func (m *ModelResource) CachedObjGetList(r *http.Request) ([]interface{}, error) {
	cacheable := true
	for name := range r.URL.Query() {
		_, reserved := reservedParams[name]
		// The cached list carries whatever order it was stored with, so a
		// sorted request can neither serve nor populate it.
		if !reserved || name == "order_by" {
			cacheable = false
			break
		}
	}
	key := m.meta.ResourceName + ":list"
	if cacheable {
		if cached, ok := m.meta.Cache.Get(key); ok {
			if objs, valid := cached.([]interface{}); valid {
				return objs, nil
			}
		}
	}
	objs, err := m.ObjGetList(r)
	if err != nil {
		return nil, err
	}
	if cacheable {
		m.meta.Cache.Set(key, objs, m.meta.CacheTTL)
	}
	return objs, nil
}

// ObjCreate hydrates, authorizes, validates and persists a new object, then
// attaches its to-many relations.
func (m *ModelResource) ObjCreate(b *Bundle) error {
	return m.objCreate(b, "")
}

func (m *ModelResource) objCreate(b *Bundle, forcedKey string) error {
	if err := m.FullHydrate(b); err != nil {
		return err
	}
	if forcedKey != "" {
		if err := setAttr(b.Object, m.keyAttribute(), forcedKey); err != nil {
			return resterror.BadRequest(
				fmt.Sprintf("Invalid identifier '%s': %v", forcedKey, err))
		}
	}
	if err := authz.Authorize(m.meta.Authorizers, b.Request, authz.CreateDetail, m.meta.Meta(), b.Object); err != nil {
		return err
	}
	if errs := m.meta.Validator.Validate(b.Object); len(errs) > 0 {
		return resterror.Validation(errs)
	}
	if err := m.store.Save(b.Request.Context(), b.Object); err != nil {
		return err
	}
	return m.HydrateM2M(b)
}

// ObjUpdate hydrates the wire data onto the stored object identified by id
// and persists it.
func (m *ModelResource) ObjUpdate(b *Bundle, id string) error {
	existing, err := m.lookup(b.Request, id)
	if err != nil {
		return err
	}
	b.Object = existing

	if err := m.FullHydrate(b); err != nil {
		return err
	}
	// The path identifier wins over any key the body carries.
	if err := setAttr(b.Object, m.keyAttribute(), id); err != nil {
		return resterror.BadRequest(fmt.Sprintf("Invalid identifier '%s': %v", id, err))
	}
	if err := authz.Authorize(m.meta.Authorizers, b.Request, authz.UpdateDetail, m.meta.Meta(), b.Object); err != nil {
		return err
	}
	if errs := m.meta.Validator.Validate(b.Object); len(errs) > 0 {
		return resterror.Validation(errs)
	}
	if err := m.store.Save(b.Request.Context(), b.Object); err != nil {
		return err
	}
	m.meta.Cache.Delete(m.meta.ResourceName + ":detail:" + id)
	return m.HydrateM2M(b)
}

// ObjDelete removes the object identified by id.
func (m *ModelResource) ObjDelete(r *http.Request, id string) error {
	obj, err := m.lookup(r, id)
	if err != nil {
		return err
	}
	if err := authz.Authorize(m.meta.Authorizers, r, authz.DeleteDetail, m.meta.Meta(), obj); err != nil {
		return err
	}
	if err := m.store.Delete(r.Context(), obj); err != nil {
		return err
	}
	m.meta.Cache.Delete(m.meta.ResourceName + ":detail:" + id)
	return nil
}

// ObjDeleteList removes every object the request's filters select, within
// the authorization chain's limits.
func (m *ModelResource) ObjDeleteList(r *http.Request) error {
	if err := authz.Authorize(m.meta.Authorizers, r, authz.DeleteList, m.meta.Meta(), nil); err != nil {
		return err
	}
	filters, err := m.BuildFilters(r.URL.Query())
	if err != nil {
		return err
	}
	scope := store.And(filters, authz.ApplyLimits(m.meta.Authorizers, r, authz.DeleteList, m.meta.Meta()))
	col, err := m.store.Filter(r.Context(), scope)
	if err != nil {
		return err
	}
	return m.store.DeleteMany(r.Context(), col)
}

// Rollback deletes objects created earlier in a failed batch. The deletes
// are compensating actions, not a transaction: failures are logged and
// swallowed so they never mask the error that triggered the rollback.
func (m *ModelResource) Rollback(r *http.Request, created []interface{}) {
	for _, obj := range created {
		if err := m.store.Delete(r.Context(), obj); err != nil {
			m.logger.Warn("Rollback delete failed",
				log.String("resource", m.meta.ResourceName),
				log.Error(err))
		}
	}
}

// GetList handles GET on the list endpoint: filter, sort, paginate,
// dehydrate.
func (m *ModelResource) GetList(r *http.Request, body *codec.Body) (*response.Response, error) {
	objs, err := m.ObjGetList(r)
	if err != nil {
		return nil, err
	}

	page, err := m.paginator().Paginate(r.URL.Query(), objs, m.ListURI())
	if err != nil {
		return nil, err
	}

	dehydrated, err := m.dehydrateAll(r, body, page.Objects)
	if err != nil {
		return nil, err
	}
	return response.New(map[string]interface{}{
		"meta":    page.Meta,
		"objects": dehydrated,
	}, http.StatusOK), nil
}

func (m *ModelResource) dehydrateAll(r *http.Request, body *codec.Body, objs []interface{}) ([]interface{}, error) {
	out := make([]interface{}, 0, len(objs))
	for _, obj := range objs {
		b := m.BuildBundle(r, body, obj, nil)
		if err := m.FullDehydrate(b); err != nil {
			return nil, err
		}
		out = append(out, b.Data)
	}
	return out, nil
}

// GetDetail handles GET on the detail endpoint.
func (m *ModelResource) GetDetail(r *http.Request, body *codec.Body) (*response.Response, error) {
	obj, err := m.CachedObjGet(r, r.PathValue("id"))
	if err != nil {
		return nil, err
	}
	b := m.BuildBundle(r, body, obj, nil)
	if err := m.FullDehydrate(b); err != nil {
		return nil, err
	}
	return response.New(b.Data, http.StatusOK), nil
}

// PostList handles POST on the list endpoint: create one object.
func (m *ModelResource) PostList(r *http.Request, body *codec.Body) (*response.Response, error) {
	data, err := parsedMap(body)
	if err != nil {
		return nil, err
	}

	b := m.BuildBundle(r, body, nil, data)
	if err := m.ObjCreate(b); err != nil {
		return nil, err
	}

	var resp *response.Response
	if m.meta.AlwaysReturnData {
		if err := m.FullDehydrate(b); err != nil {
			return nil, err
		}
		resp = response.New(b.Data, http.StatusCreated)
	} else {
		resp = response.Empty(http.StatusCreated)
	}
	if uri := m.DetailURI(b.Object); uri != "" {
		resp.SetHeader(constants.LocationHeaderName, uri)
	}
	return resp, nil
}

// PutDetail handles PUT on the detail endpoint: update, or create at the
// given identifier when no object is there yet.
func (m *ModelResource) PutDetail(r *http.Request, body *codec.Body) (*response.Response, error) {
	id := r.PathValue("id")
	data, err := parsedMap(body)
	if err != nil {
		return nil, err
	}

	b := m.BuildBundle(r, body, nil, data)
	err = m.ObjUpdate(b, id)
	switch {
	case err == nil:
		if m.meta.AlwaysReturnData {
			if derr := m.FullDehydrate(b); derr != nil {
				return nil, derr
			}
			return response.New(b.Data, http.StatusAccepted), nil
		}
		return response.Empty(http.StatusNoContent), nil

	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrMultiple):
		created := m.BuildBundle(r, body, nil, data)
		if cerr := m.objCreate(created, id); cerr != nil {
			return nil, cerr
		}
		var resp *response.Response
		if m.meta.AlwaysReturnData {
			if derr := m.FullDehydrate(created); derr != nil {
				return nil, derr
			}
			resp = response.New(created.Data, http.StatusCreated)
		} else {
			resp = response.Empty(http.StatusCreated)
		}
		if uri := m.DetailURI(created.Object); uri != "" {
			resp.SetHeader(constants.LocationHeaderName, uri)
		}
		return resp, nil

	default:
		return nil, err
	}
}

// PutList handles PUT on the list endpoint: replace the filtered collection
// with the supplied batch. A failure while creating object N rolls back the
// N-1 objects created earlier in the same call.
func (m *ModelResource) PutList(r *http.Request, body *codec.Body) (*response.Response, error) {
	data, err := parsedMap(body)
	if err != nil {
		return nil, err
	}
	rawObjects, ok := data["objects"].([]interface{})
	if !ok {
		return nil, resterror.BadRequest("Invalid data sent: the body must contain an 'objects' list.")
	}

	if err := authz.Authorize(m.meta.Authorizers, r, authz.UpdateList, m.meta.Meta(), nil); err != nil {
		return nil, err
	}

	filters, err := m.BuildFilters(r.URL.Query())
	if err != nil {
		return nil, err
	}
	scope := store.And(filters, authz.ApplyLimits(m.meta.Authorizers, r, authz.UpdateList, m.meta.Meta()))
	col, err := m.store.Filter(r.Context(), scope)
	if err != nil {
		return nil, err
	}
	if err := m.store.DeleteMany(r.Context(), col); err != nil {
		return nil, err
	}

	var created []interface{}
	var bundles []*Bundle
	for i, raw := range rawObjects {
		itemData, ok := raw.(map[string]interface{})
		if !ok {
			m.Rollback(r, created)
			return nil, resterror.BadRequest(
				fmt.Sprintf("Invalid data sent: element %d of 'objects' is not a mapping.", i))
		}
		b := m.BuildBundle(r, body, nil, itemData)
		if err := m.ObjCreate(b); err != nil {
			m.Rollback(r, created)
			return nil, err
		}
		created = append(created, b.Object)
		bundles = append(bundles, b)
	}

	if m.meta.AlwaysReturnData {
		dehydrated := make([]interface{}, 0, len(bundles))
		for _, b := range bundles {
			if err := m.FullDehydrate(b); err != nil {
				return nil, err
			}
			dehydrated = append(dehydrated, b.Data)
		}
		return response.New(map[string]interface{}{"objects": dehydrated}, http.StatusAccepted), nil
	}
	return response.Empty(http.StatusNoContent), nil
}

// DeleteDetail handles DELETE on the detail endpoint.
func (m *ModelResource) DeleteDetail(r *http.Request, _ *codec.Body) (*response.Response, error) {
	if err := m.ObjDelete(r, r.PathValue("id")); err != nil {
		return nil, err
	}
	return response.Empty(http.StatusNoContent), nil
}

// DeleteList handles DELETE on the list endpoint.
func (m *ModelResource) DeleteList(r *http.Request, _ *codec.Body) (*response.Response, error) {
	if err := m.ObjDeleteList(r); err != nil {
		return nil, err
	}
	return response.Empty(http.StatusNoContent), nil
}

// GetSchema handles GET on the schema endpoint.
func (m *ModelResource) GetSchema(_ *http.Request, _ *codec.Body) (*response.Response, error) {
	return response.New(m.BuildSchema(), http.StatusOK), nil
}

// GetMultiple handles the bulk-get endpoint: a semicolon-delimited id list,
// fetched independently, with misses reported rather than failing the call.
func (m *ModelResource) GetMultiple(r *http.Request, body *codec.Body) (*response.Response, error) {
	raw := strings.Trim(r.PathValue("ids"), ";")
	if raw == "" {
		return nil, resterror.BadRequest("No identifiers provided.")
	}

	var objects []interface{}
	var notFound []string
	for _, id := range strings.Split(raw, ";") {
		obj, err := m.ObjGet(r, id)
		switch {
		case err == nil:
			b := m.BuildBundle(r, body, obj, nil)
			if derr := m.FullDehydrate(b); derr != nil {
				return nil, derr
			}
			objects = append(objects, b.Data)
		case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrMultiple):
			notFound = append(notFound, id)
		default:
			return nil, err
		}
	}

	content := map[string]interface{}{"objects": objects}
	if len(notFound) > 0 {
		content["not_found"] = notFound
	}
	return response.New(content, http.StatusOK), nil
}

// GetRelated handles GET on a nested related route. To-many fields render
// the related objects as a paginated list; to-one fields render the single
// related object the way its own detail endpoint would.
func (m *ModelResource) GetRelated(r *http.Request, body *codec.Body) (*response.Response, error) {
	relatedName := r.PathValue("related")
	f, ok := m.fieldIndex[relatedName]
	if !ok || !f.IsRelated() {
		return nil, resterror.NotFound(
			fmt.Sprintf("No related resource '%s' on '%s'.", relatedName, m.meta.ResourceName))
	}

	parent, err := m.ObjGet(r, r.PathValue("id"))
	if err != nil {
		return nil, err
	}

	if !f.ToMany {
		return m.getRelatedDetail(r, body, f, parent)
	}
	return m.getRelatedList(r, body, f, parent)
}

func (m *ModelResource) getRelatedDetail(r *http.Request, body *codec.Body, f *Field, parent interface{}) (*response.Response, error) {
	if f.Attribute == "" {
		return nil, resterror.NotImplemented(
			fmt.Sprintf("The related field '%s' declares no attribute.", f.Name))
	}
	raw, _ := getAttr(parent, f.Attribute)
	if raw == nil {
		return nil, resterror.NotFound(
			fmt.Sprintf("The '%s' relation is not set on this %s.", f.Name, m.meta.ResourceName))
	}

	// Resolve through the related resource's own lookup when it has one, so
	// the object is complete and its read authorization runs.
	obj := raw
	if f.Related.resolveByID != nil {
		if key, ok := f.Related.keyValue(raw); ok {
			fetched, err := f.Related.resolveByID(r, fmt.Sprintf("%v", key))
			if err != nil {
				return nil, err
			}
			obj = fetched
		}
	}

	b := f.Related.BuildBundle(r, body, obj, nil)
	if err := f.Related.FullDehydrate(b); err != nil {
		return nil, err
	}
	return response.New(b.Data, http.StatusOK), nil
}

func (m *ModelResource) getRelatedList(r *http.Request, body *codec.Body, f *Field, parent interface{}) (*response.Response, error) {
	relatedName := f.Name
	var err error
	var objs []interface{}
	switch {
	case f.Attribute != "":
		raw, _ := getAttr(parent, f.Attribute)
		objs = sliceOf(raw)
	case f.RelatedBy != "":
		key, ok := m.keyValue(parent)
		if !ok {
			return nil, resterror.Internal(fmt.Errorf("cannot resolve key of %T", parent))
		}
		if f.Related.listByScope == nil {
			return nil, resterror.NotImplemented(
				fmt.Sprintf("The related resource '%s' has no store binding.", relatedName))
		}
		objs, err = f.Related.listByScope(r, store.Where(f.RelatedBy, store.OpExact, fmt.Sprintf("%v", key)), r.URL.Query())
		if err != nil {
			return nil, err
		}
	default:
		return nil, resterror.NotImplemented(
			fmt.Sprintf("The related field '%s' declares neither an attribute nor a back reference.", relatedName))
	}

	relatedMeta := f.Related.Meta()
	pager := &paginator.Paginator{DefaultLimit: relatedMeta.Limit, MaxLimit: relatedMeta.MaxLimit}
	page, err := pager.Paginate(r.URL.Query(), objs, m.DetailURI(parent)+relatedName+"/")
	if err != nil {
		return nil, err
	}

	dehydrated := make([]interface{}, 0, len(page.Objects))
	for _, obj := range page.Objects {
		b := f.Related.BuildBundle(r, body, obj, nil)
		if err := f.Related.FullDehydrate(b); err != nil {
			return nil, err
		}
		dehydrated = append(dehydrated, b.Data)
	}
	return response.New(map[string]interface{}{
		"meta":    page.Meta,
		"objects": dehydrated,
	}, http.StatusOK), nil
}

func sliceOf(raw interface{}) []interface{} {
	if raw == nil {
		return nil
	}
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice {
		return []interface{}{raw}
	}
	out := make([]interface{}, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out = append(out, rv.Index(i).Interface())
	}
	return out
}

func parsedMap(body *codec.Body) (map[string]interface{}, error) {
	parsed, err := body.Parsed()
	if err != nil {
		return nil, err
	}
	data, ok := parsed.(map[string]interface{})
	if !ok {
		return nil, resterror.BadRequest("Invalid data sent: the body must be a mapping of field names to values.")
	}
	return data, nil
}
