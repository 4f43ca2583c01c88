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
	"time"

	"github.com/spf13/cast"
)

// getAttr resolves a possibly dotted attribute path off a domain object.
// Struct fields match on name (case-insensitive) or on the first segment of
// their db/json tag. A nil pointer along the path resolves to (nil, true) so
// nullable relations dehydrate to null instead of erroring.
func getAttr(obj interface{}, path string) (interface{}, bool) {
	current := obj
	for _, segment := range strings.Split(path, ".") {
		v := reflect.ValueOf(current)
		for v.Kind() == reflect.Ptr {
			if v.IsNil() {
				return nil, true
			}
			v = v.Elem()
		}

		switch v.Kind() {
		case reflect.Struct:
			f := structField(v, segment)
			if !f.IsValid() {
				return nil, false
			}
			current = f.Interface()
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
	// A nil pointer in the final segment is still null, not a typed nil.
	if rv := reflect.ValueOf(current); rv.Kind() == reflect.Ptr && rv.IsNil() {
		return nil, true
	}
	return current, true
}

// setAttr writes a value onto a domain object at the given attribute path,
// converting wire-typed values to the target's Go type. Only the last path
// segment is assigned; intermediate nil pointers are allocated.
func setAttr(obj interface{}, path string, value interface{}) error {
	v := reflect.ValueOf(obj)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("cannot assign %q on non-pointer object %T", path, obj)
	}
	v = v.Elem()

	segments := strings.Split(path, ".")
	for i, segment := range segments {
		for v.Kind() == reflect.Ptr {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		if v.Kind() != reflect.Struct {
			return fmt.Errorf("cannot traverse %q segment %q on %s", path, segment, v.Kind())
		}
		f := structField(v, segment)
		if !f.IsValid() {
			return fmt.Errorf("no attribute %q on %s", segment, v.Type())
		}
		if i == len(segments)-1 {
			return assign(f, value)
		}
		if !f.CanAddr() {
			return fmt.Errorf("attribute %q on %s is not addressable", segment, v.Type())
		}
		v = f
	}
	return nil
}

func structField(v reflect.Value, name string) reflect.Value {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		if strings.EqualFold(sf.Name, name) {
			return v.Field(i)
		}
		for _, tag := range []string{"db", "json"} {
			if tagName := strings.SplitN(sf.Tag.Get(tag), ",", 2)[0]; tagName == name {
				return v.Field(i)
			}
		}
	}
	return reflect.Value{}
}

func assign(f reflect.Value, value interface{}) error {
	if !f.CanSet() {
		return fmt.Errorf("attribute of type %s is not settable", f.Type())
	}

	if value == nil {
		f.Set(reflect.Zero(f.Type()))
		return nil
	}

	// Already-typed values assign directly, before any pointer wrapping;
	// resolved relations arrive as *T for both *T and T targets.
	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(f.Type()) {
		f.Set(rv)
		return nil
	}
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			f.Set(reflect.Zero(f.Type()))
			return nil
		}
		if rv.Elem().Type().AssignableTo(f.Type()) {
			f.Set(rv.Elem())
			return nil
		}
	}

	target := f
	if f.Kind() == reflect.Ptr {
		p := reflect.New(f.Type().Elem())
		if err := assign(p.Elem(), value); err != nil {
			return err
		}
		f.Set(p)
		return nil
	}

	if rv.Type().ConvertibleTo(target.Type()) && rv.Kind() != reflect.String {
		target.Set(rv.Convert(target.Type()))
		return nil
	}

	switch target.Kind() {
	case reflect.String:
		target.SetString(cast.ToString(value))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := cast.ToInt64E(value)
		if err != nil {
			return err
		}
		target.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := cast.ToUint64E(value)
		if err != nil {
			return err
		}
		target.SetUint(n)
	case reflect.Float32, reflect.Float64:
		n, err := cast.ToFloat64E(value)
		if err != nil {
			return err
		}
		target.SetFloat(n)
	case reflect.Bool:
		b, err := cast.ToBoolE(value)
		if err != nil {
			return err
		}
		target.SetBool(b)
	case reflect.Struct:
		if target.Type() == reflect.TypeOf(time.Time{}) {
			ts, err := cast.ToTimeE(value)
			if err != nil {
				return err
			}
			target.Set(reflect.ValueOf(ts))
			return nil
		}
		return fmt.Errorf("cannot assign %T to %s", value, target.Type())
	default:
		return fmt.Errorf("cannot assign %T to %s", value, target.Type())
	}
	return nil
}
