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
	"fmt"
	"reflect"
	"strings"

	"github.com/wso2/restkit/internal/system/error/resterror"
)

// FullDehydrate computes every declared field's wire value off the bundle's
// object, in declaration order: per-field hooks override the generic path,
// relation fields render a URI or an inline sub-bundle per their Full flag,
// attribute-less relations synthesize nested-route reverse links, and the
// whole-bundle hook runs last. Two dehydrations of the same object produce
// the same data.
func (res *Resource) FullDehydrate(b *Bundle) error {
	b.Data = make(map[string]interface{}, len(res.fields)+1)

	for _, f := range res.fields {
		value, err := res.dehydrateField(b, f)
		if err != nil {
			return err
		}
		b.Data[f.Name] = value
	}

	// Attribute-less relations exist only as nested routes; their wire
	// value is the link to that route.
	for _, f := range res.fields {
		if f.IsRelated() && f.Attribute == "" && res.dehydrateHooks[f.Name] == nil {
			b.Data[f.Name] = res.DetailURI(b.Object) + f.Name + "/"
		}
	}

	if uri := res.DetailURI(b.Object); uri != "" {
		b.Data["resource_uri"] = uri
	}

	if res.afterDehydrate != nil {
		return res.afterDehydrate(b)
	}
	return nil
}

func (res *Resource) dehydrateField(b *Bundle, f *Field) (interface{}, error) {
	var base interface{}
	if f.Attribute != "" {
		raw, ok := getAttr(b.Object, f.Attribute)
		if !ok {
			if f.Default != nil {
				raw = f.Default
			} else if !f.Nullable {
				return nil, resterror.Internal(
					fmt.Errorf("object %T has no attribute %q for field '%s'", b.Object, f.Attribute, f.Name))
			}
		}
		base = raw
	}

	if hook := res.dehydrateHooks[f.Name]; hook != nil {
		return hook(b, base)
	}

	if f.IsRelated() {
		if f.Attribute == "" {
			return nil, nil
		}
		return res.dehydrateRelated(b, f, base)
	}
	if f.Attribute == "" {
		if f.Default != nil {
			return f.Default, nil
		}
		if f.Nullable {
			return nil, nil
		}
		return nil, resterror.Internal(
			fmt.Errorf("field '%s' has neither attribute, hook, default nor null", f.Name))
	}
	if base == nil {
		if f.Default != nil {
			base = f.Default
		} else {
			return nil, nil
		}
	}
	return f.Convert(base)
}

func (res *Resource) dehydrateRelated(b *Bundle, f *Field, value interface{}) (interface{}, error) {
	if value == nil {
		if !f.Nullable {
			return nil, resterror.Internal(
				fmt.Errorf("related field '%s' resolved to nil but is not nullable", f.Name))
		}
		return nil, nil
	}

	if !f.ToMany {
		return res.dehydrateRelatedOne(b, f, value)
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice {
		return nil, resterror.Internal(
			fmt.Errorf("to-many field '%s' attribute resolved to %T, want a slice", f.Name, value))
	}
	out := make([]interface{}, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		item, err := res.dehydrateRelatedOne(b, f, rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (res *Resource) dehydrateRelatedOne(b *Bundle, f *Field, obj interface{}) (interface{}, error) {
	if f.Full {
		sub := f.Related.BuildBundle(b.Request, nil, obj, nil)
		if err := f.Related.FullDehydrate(sub); err != nil {
			return nil, err
		}
		return sub.Data, nil
	}
	uri := f.Related.DetailURI(obj)
	if uri == "" {
		return nil, resterror.Internal(
			fmt.Errorf("related field '%s': cannot build URI for %T", f.Name, obj))
	}
	return uri, nil
}

// FullHydrate assigns every writable field's wire value onto the bundle's
// object, creating an empty object first when the bundle has none. To-many
// relation values are set aside for HydrateM2M; per-field hooks transform
// values before assignment; the whole-bundle hook runs last.
func (res *Resource) FullHydrate(b *Bundle) error {
	if b.Object == nil {
		b.Object = res.factory()
	}
	b.pendingM2M = make(map[string]interface{})

	for _, f := range res.fields {
		if f.Readonly || f.Attribute == "" {
			continue
		}

		raw, present := b.Data[f.Name]
		if !present {
			if f.Default == nil {
				continue
			}
			raw = f.Default
		}

		if f.IsRelated() && f.ToMany {
			b.pendingM2M[f.Name] = raw
			continue
		}

		value, err := res.hydrateField(b, f, raw)
		if err != nil {
			return err
		}
		if err := setAttr(b.Object, f.Attribute, value); err != nil {
			return resterror.BadRequest(
				fmt.Sprintf("Invalid value for field '%s': %v", f.Name, err))
		}
	}

	b.hydrated = true

	if res.afterHydrate != nil {
		return res.afterHydrate(b)
	}
	return nil
}

func (res *Resource) hydrateField(b *Bundle, f *Field, raw interface{}) (interface{}, error) {
	value, err := f.HydrateValue(raw)
	if err != nil {
		return nil, resterror.BadRequest(err.Error())
	}

	if f.IsRelated() && value != nil {
		value, err = res.resolveRelated(b, f, value)
		if err != nil {
			return nil, err
		}
	}

	if hook := res.hydrateHooks[f.Name]; hook != nil {
		return hook(b, value)
	}
	return value, nil
}

// HydrateM2M attaches the to-many values FullHydrate set aside. The storage
// layer calls it only after the primary save succeeds; calling it before
// FullHydrate is a programmer error.
func (res *Resource) HydrateM2M(b *Bundle) error {
	if !b.hydrated {
		return resterror.Hydration("hydrate_m2m invoked before full_hydrate; the object is not yet identified")
	}

	for name, raw := range b.pendingM2M {
		f := res.fieldIndex[name]

		items, ok := raw.([]interface{})
		if !ok {
			return resterror.BadRequest(
				fmt.Sprintf("The '%s' field must hold a list of related values.", name))
		}

		resolved := make([]interface{}, 0, len(items))
		for _, item := range items {
			obj, err := res.resolveRelated(b, f, item)
			if err != nil {
				return err
			}
			resolved = append(resolved, obj)
		}

		if err := res.assignMany(b.Object, f, resolved); err != nil {
			return err
		}
	}
	return nil
}

// assignMany sets a resolved to-many value onto the object as a typed slice.
func (res *Resource) assignMany(obj interface{}, f *Field, resolved []interface{}) error {
	target, ok := getAttr(obj, f.Attribute)
	if !ok {
		return resterror.Internal(fmt.Errorf("object %T has no attribute %q", obj, f.Attribute))
	}
	sliceType := reflect.TypeOf(target)
	if sliceType == nil || sliceType.Kind() != reflect.Slice {
		return resterror.Internal(
			fmt.Errorf("to-many field '%s' attribute is %T, want a slice", f.Name, target))
	}

	out := reflect.MakeSlice(sliceType, 0, len(resolved))
	for _, item := range resolved {
		iv := reflect.ValueOf(item)
		if iv.Type().AssignableTo(sliceType.Elem()) {
			out = reflect.Append(out, iv)
			continue
		}
		if iv.Kind() == reflect.Ptr && iv.Elem().Type().AssignableTo(sliceType.Elem()) {
			out = reflect.Append(out, iv.Elem())
			continue
		}
		return resterror.Internal(
			fmt.Errorf("to-many field '%s': cannot place %T into %s", f.Name, item, sliceType))
	}

	if err := setAttr(obj, f.Attribute, out.Interface()); err != nil {
		return resterror.Internal(err)
	}
	return nil
}

// resolveRelated turns one wire-side relation value into a domain object: a
// string is a resource URI resolved through the related resource's lookup,
// a map is an embedded representation hydrated in place.
func (res *Resource) resolveRelated(b *Bundle, f *Field, value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case string:
		id, err := f.Related.idFromURI(v)
		if err != nil {
			return nil, err
		}
		if f.Related.resolveByID == nil {
			return nil, resterror.Internal(
				fmt.Errorf("related field '%s' cannot resolve URIs: no store binding", f.Name))
		}
		obj, err := f.Related.resolveByID(b.Request, id)
		if err != nil {
			return nil, err
		}
		return obj, nil
	case map[string]interface{}:
		sub := f.Related.BuildBundle(b.Request, nil, nil, v)
		if err := f.Related.FullHydrate(sub); err != nil {
			return nil, err
		}
		return sub.Object, nil
	default:
		return nil, resterror.BadRequest(
			fmt.Sprintf("The '%s' field expects a resource URI or an embedded object.", f.Name))
	}
}

// idFromURI extracts the key segment from a detail URI of this resource.
func (res *Resource) idFromURI(uri string) (string, error) {
	trimmed := strings.TrimSuffix(uri, "/")
	prefix := res.ListURI()
	if !strings.HasPrefix(trimmed, prefix) {
		return "", resterror.BadRequest(
			fmt.Sprintf("'%s' is not a valid resource URI for '%s'.", uri, res.meta.ResourceName))
	}
	id := strings.TrimPrefix(trimmed, prefix)
	if id == "" || strings.Contains(id, "/") {
		return "", resterror.BadRequest(
			fmt.Sprintf("'%s' is not a valid resource URI for '%s'.", uri, res.meta.ResourceName))
	}
	return id, nil
}
