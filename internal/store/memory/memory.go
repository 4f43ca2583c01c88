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

// Package memory provides an in-memory store.Store implementation. It keeps
// insertion order, guards all access with a mutex, and resolves field paths
// off the stored objects by reflection. Intended for tests and demos.
package memory

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/cast"

	"github.com/wso2/restkit/internal/store"
)

// Store is an in-memory object set keyed by one identity field.
type Store struct {
	mu       sync.RWMutex
	keyField string
	objects  []interface{}
}

// New creates a store whose object identity is the given field name.
func New(keyField string) *Store {
	return &Store{keyField: keyField}
}

// Save inserts obj, or replaces the stored object with the same key.
func (s *Store) Save(_ context.Context, obj interface{}) error {
	key, ok := FieldValue(obj, s.keyField)
	if !ok {
		return fmt.Errorf("memory store: object %T has no field %q", obj, s.keyField)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.objects {
		if existingKey, ok := FieldValue(existing, s.keyField); ok && equalValues(existingKey, key) {
			s.objects[i] = obj
			return nil
		}
	}
	s.objects = append(s.objects, obj)
	return nil
}

// Delete removes the stored object with the same key as obj. Deleting an
// absent object is not an error.
func (s *Store) Delete(_ context.Context, obj interface{}) error {
	key, ok := FieldValue(obj, s.keyField)
	if !ok {
		return fmt.Errorf("memory store: object %T has no field %q", obj, s.keyField)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.objects {
		if existingKey, ok := FieldValue(existing, s.keyField); ok && equalValues(existingKey, key) {
			s.objects = append(s.objects[:i], s.objects[i+1:]...)
			return nil
		}
	}
	return nil
}

// DeleteMany removes every object in the given view.
func (s *Store) DeleteMany(ctx context.Context, c store.Collection) error {
	objs, err := c.All(ctx)
	if err != nil {
		return err
	}
	for _, obj := range objs {
		if err := s.Delete(ctx, obj); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) snapshot() []interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]interface{}, len(s.objects))
	copy(out, s.objects)
	return out
}

// Filter returns a view restricted by the given scope.
func (s *Store) Filter(ctx context.Context, scope store.Scope) (store.Collection, error) {
	return view{objects: s.snapshot()}.Filter(ctx, scope)
}

// OrderBy returns a view sorted by the given specs.
func (s *Store) OrderBy(specs ...store.OrderSpec) (store.Collection, error) {
	return view{objects: s.snapshot()}.OrderBy(specs...)
}

// Count returns the number of stored objects.
func (s *Store) Count(ctx context.Context) (int, error) {
	return view{objects: s.snapshot()}.Count(ctx)
}

// Exists reports whether the store holds any object.
func (s *Store) Exists(ctx context.Context) (bool, error) {
	return view{objects: s.snapshot()}.Exists(ctx)
}

// GetSingle returns the only stored object.
func (s *Store) GetSingle(ctx context.Context) (interface{}, error) {
	return view{objects: s.snapshot()}.GetSingle(ctx)
}

// All returns all stored objects in insertion order.
func (s *Store) All(ctx context.Context) ([]interface{}, error) {
	return view{objects: s.snapshot()}.All(ctx)
}

// view is an immutable filtered/sorted snapshot.
type view struct {
	objects []interface{}
}

func (v view) Filter(_ context.Context, scope store.Scope) (store.Collection, error) {
	if scope.IsAllowAll() {
		return v, nil
	}
	if scope.IsDenyAll() {
		return view{}, nil
	}
	var out []interface{}
	for _, obj := range v.objects {
		ok, err := matchScope(obj, scope)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, obj)
		}
	}
	return view{objects: out}, nil
}

func (v view) OrderBy(specs ...store.OrderSpec) (store.Collection, error) {
	if len(specs) == 0 {
		return v, nil
	}
	out := make([]interface{}, len(v.objects))
	copy(out, v.objects)
	sort.SliceStable(out, func(i, j int) bool {
		for _, spec := range specs {
			a, _ := FieldValue(out[i], spec.Field)
			b, _ := FieldValue(out[j], spec.Field)
			c := compareValues(a, b)
			if c == 0 {
				continue
			}
			if spec.Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	return view{objects: out}, nil
}

func (v view) Count(context.Context) (int, error) {
	return len(v.objects), nil
}

func (v view) Exists(context.Context) (bool, error) {
	return len(v.objects) > 0, nil
}

func (v view) GetSingle(context.Context) (interface{}, error) {
	switch len(v.objects) {
	case 0:
		return nil, store.ErrNotFound
	case 1:
		return v.objects[0], nil
	default:
		return nil, store.ErrMultiple
	}
}

func (v view) All(context.Context) ([]interface{}, error) {
	out := make([]interface{}, len(v.objects))
	copy(out, v.objects)
	return out, nil
}

func matchScope(obj interface{}, scope store.Scope) (bool, error) {
	switch scope.Kind {
	case store.ScopeAllowAll:
		return true, nil
	case store.ScopeDenyAll:
		return false, nil
	}
	if scope.Leaf != nil {
		return matchPredicate(obj, *scope.Leaf)
	}
	for _, child := range scope.Children {
		ok, err := matchScope(obj, child)
		if err != nil {
			return false, err
		}
		if scope.Op == store.ScopeAnd && !ok {
			return false, nil
		}
		if scope.Op == store.ScopeOr && ok {
			return true, nil
		}
	}
	return scope.Op == store.ScopeAnd, nil
}

func matchPredicate(obj interface{}, p store.Predicate) (bool, error) {
	val, _ := FieldValue(obj, p.Field)

	switch p.Operator {
	case store.OpExact:
		return equalValues(val, p.Value), nil
	case store.OpIExact:
		return strings.EqualFold(cast.ToString(val), cast.ToString(p.Value)), nil
	case store.OpContains:
		return strings.Contains(cast.ToString(val), cast.ToString(p.Value)), nil
	case store.OpIContains:
		return strings.Contains(strings.ToLower(cast.ToString(val)), strings.ToLower(cast.ToString(p.Value))), nil
	case store.OpStartsWith:
		return strings.HasPrefix(cast.ToString(val), cast.ToString(p.Value)), nil
	case store.OpEndsWith:
		return strings.HasSuffix(cast.ToString(val), cast.ToString(p.Value)), nil
	case store.OpGt:
		return compareValues(val, p.Value) > 0, nil
	case store.OpGte:
		return compareValues(val, p.Value) >= 0, nil
	case store.OpLt:
		return compareValues(val, p.Value) < 0, nil
	case store.OpLte:
		return compareValues(val, p.Value) <= 0, nil
	case store.OpIn:
		items, err := cast.ToSliceE(p.Value)
		if err != nil {
			return false, fmt.Errorf("memory store: 'in' filter needs a list value: %w", err)
		}
		for _, item := range items {
			if equalValues(val, item) {
				return true, nil
			}
		}
		return false, nil
	case store.OpRange:
		bounds, err := cast.ToSliceE(p.Value)
		if err != nil || len(bounds) != 2 {
			return false, fmt.Errorf("memory store: 'range' filter needs a two-element list value")
		}
		return compareValues(val, bounds[0]) >= 0 && compareValues(val, bounds[1]) <= 0, nil
	case store.OpIsNull:
		wantNull := cast.ToBool(p.Value)
		return (val == nil) == wantNull, nil
	default:
		return false, fmt.Errorf("memory store: unsupported operator %q", p.Operator)
	}
}

func equalValues(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == b
	}
	if reflect.DeepEqual(a, b) {
		return true
	}
	// Wire values arrive as strings or json numbers; fall back to a
	// stringified comparison so "7" matches int 7.
	return cast.ToString(a) == cast.ToString(b)
}

func compareValues(a, b interface{}) int {
	af, aerr := cast.ToFloat64E(a)
	bf, berr := cast.ToFloat64E(b)
	if aerr == nil && berr == nil {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(cast.ToString(a), cast.ToString(b))
}

// FieldValue resolves a possibly dotted field path off an object by
// reflection. Struct fields match on name (case-insensitive) or on the
// first segment of their db/json tag.
func FieldValue(obj interface{}, path string) (interface{}, bool) {
	current := obj
	for _, segment := range strings.Split(path, ".") {
		v := reflect.ValueOf(current)
		for v.Kind() == reflect.Ptr {
			if v.IsNil() {
				return nil, false
			}
			v = v.Elem()
		}
		switch v.Kind() {
		case reflect.Struct:
			field, ok := structField(v, segment)
			if !ok {
				return nil, false
			}
			current = field
		case reflect.Map:
			mv := v.MapIndex(reflect.ValueOf(segment))
			if !mv.IsValid() {
				return nil, false
			}
			current = mv.Interface()
		default:
			return nil, false
		}
	}
	return current, true
}

func structField(v reflect.Value, name string) (interface{}, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if strings.EqualFold(f.Name, name) || tagName(f, "db") == name || tagName(f, "json") == name {
			fv := v.Field(i)
			if fv.Kind() == reflect.Ptr {
				if fv.IsNil() {
					return nil, true
				}
				return fv.Elem().Interface(), true
			}
			return fv.Interface(), true
		}
	}
	return nil, false
}

func tagName(f reflect.StructField, tag string) string {
	raw := f.Tag.Get(tag)
	if raw == "" {
		return ""
	}
	if i := strings.Index(raw, ","); i >= 0 {
		raw = raw[:i]
	}
	return raw
}
