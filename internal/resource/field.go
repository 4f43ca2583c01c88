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
	"time"

	"github.com/spf13/cast"
)

// FieldType is the wire-type tag reported in the schema and used to coerce
// values in both directions.
type FieldType string

const (
	FieldString   FieldType = "string"
	FieldInteger  FieldType = "integer"
	FieldFloat    FieldType = "float"
	FieldBoolean  FieldType = "boolean"
	FieldDatetime FieldType = "datetime"
	FieldList     FieldType = "list"
	FieldDict     FieldType = "dict"
	FieldRelated  FieldType = "related"
)

// Field is an immutable schema descriptor mediating between one domain
// attribute and one wire value. Fields are declared once at resource
// construction; per-request state lives in the Bundle, never here.
type Field struct {
	// Name is the wire key.
	Name string
	// Attribute is the dotted path into the domain object. Empty means no
	// direct mapping: the value comes from a hook, or the field is a
	// nested-route relation rendered as a reverse link.
	Attribute string
	Type      FieldType
	Nullable  bool
	Readonly  bool
	// Default applies when the attribute or wire value is absent.
	Default  interface{}
	HelpText string

	// Related points at the resource the field nests; nil for plain fields.
	Related *Resource
	// ToMany distinguishes to-many from to-one relations.
	ToMany bool
	// Full renders the related object inline instead of as a URI.
	Full bool
	// RelatedBy names the related resource's attribute that points back at
	// this resource's key, for attribute-less nested-route relations.
	RelatedBy string
}

// IsRelated reports whether the field nests another resource.
func (f *Field) IsRelated() bool { return f.Related != nil }

// Convert coerces an attribute value to the field's wire type.
func (f *Field) Convert(value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	switch f.Type {
	case FieldString:
		return cast.ToString(value), nil
	case FieldInteger:
		n, err := cast.ToInt64E(value)
		if err != nil {
			return nil, fmt.Errorf("field '%s': %w", f.Name, err)
		}
		return n, nil
	case FieldFloat:
		n, err := cast.ToFloat64E(value)
		if err != nil {
			return nil, fmt.Errorf("field '%s': %w", f.Name, err)
		}
		return n, nil
	case FieldBoolean:
		b, err := cast.ToBoolE(value)
		if err != nil {
			return nil, fmt.Errorf("field '%s': %w", f.Name, err)
		}
		return b, nil
	case FieldDatetime:
		ts, err := cast.ToTimeE(value)
		if err != nil {
			return nil, fmt.Errorf("field '%s': %w", f.Name, err)
		}
		return ts.Format(time.RFC3339), nil
	default:
		return value, nil
	}
}

// HydrateValue coerces a wire value towards the domain attribute. Datetimes
// parse to time.Time; other coercion happens at assignment.
func (f *Field) HydrateValue(value interface{}) (interface{}, error) {
	if value == nil {
		if !f.Nullable && f.Default == nil {
			return nil, fmt.Errorf("field '%s' does not accept null", f.Name)
		}
		return nil, nil
	}
	if f.Type == FieldDatetime {
		ts, err := cast.ToTimeE(value)
		if err != nil {
			return nil, fmt.Errorf("field '%s': %w", f.Name, err)
		}
		return ts, nil
	}
	return value, nil
}
