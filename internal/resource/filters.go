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
	"net/url"
	"strings"

	"github.com/wso2/restkit/internal/store"
	"github.com/wso2/restkit/internal/system/error/resterror"
)

// reservedParams never participate in filtering.
var reservedParams = map[string]struct{}{
	"limit":    {},
	"offset":   {},
	"format":   {},
	"order_by": {},
}

var knownOperators = map[string]store.Operator{
	"exact":      store.OpExact,
	"iexact":     store.OpIExact,
	"contains":   store.OpContains,
	"icontains":  store.OpIContains,
	"startswith": store.OpStartsWith,
	"endswith":   store.OpEndsWith,
	"gt":         store.OpGt,
	"gte":        store.OpGte,
	"lt":         store.OpLt,
	"lte":        store.OpLte,
	"in":         store.OpIn,
	"range":      store.OpRange,
	"isnull":     store.OpIsNull,
}

// BuildFilters turns query parameters into a store scope. Parameter names
// follow the field__lookup convention; the trailing segment selects the
// operator (exact when absent), leading segments traverse relations. Every
// filter passes CheckFiltering before any predicate is built, so nothing
// unvetted ever reaches the store.
func (res *Resource) BuildFilters(values url.Values) (store.Scope, error) {
	scope := store.AllowAll()

	for name, vals := range values {
		if _, reserved := reservedParams[name]; reserved || len(vals) == 0 {
			continue
		}

		segments := strings.Split(name, "__")
		op := store.OpExact
		if len(segments) > 1 {
			if known, ok := knownOperators[segments[len(segments)-1]]; ok {
				op = known
				segments = segments[:len(segments)-1]
			}
		}

		// Query parameters that do not start with a declared field are not
		// filters at all and pass through untouched.
		field, ok := res.fieldIndex[segments[0]]
		if !ok {
			continue
		}

		if err := res.CheckFiltering(segments, op); err != nil {
			return store.Scope{}, err
		}

		path, err := res.attributePath(field, segments)
		if err != nil {
			return store.Scope{}, err
		}

		value := coerceFilterValue(vals[0], op)
		scope = store.And(scope, store.Where(path, op, value))
	}
	return scope, nil
}

// CheckFiltering enforces the per-field operator whitelist. It rejects any
// declared field absent from the filtering configuration, any relation
// traversal the field's spec does not permit, and any operator outside the
// field's allowed set.
func (res *Resource) CheckFiltering(segments []string, op store.Operator) error {
	name := segments[0]
	spec, ok := res.meta.Filtering[name]
	if !ok {
		return resterror.InvalidFilter(
			fmt.Sprintf("The '%s' field does not allow filtering.", name))
	}
	if len(segments) > 1 && !spec.WithRelations {
		return resterror.InvalidFilter(
			fmt.Sprintf("Lookups are not allowed more than one level deep on the '%s' field.", name))
	}
	if !spec.allows(op) {
		return resterror.InvalidFilter(
			fmt.Sprintf("'%s' is not an allowed filter on the '%s' field.", op, name))
	}
	return nil
}

// attributePath maps a wire-side filter path onto the store-side attribute
// path, translating each segment through the declared fields.
func (res *Resource) attributePath(field *Field, segments []string) (string, error) {
	if field.Attribute == "" {
		return "", resterror.InvalidFilter(
			fmt.Sprintf("The '%s' field has no direct attribute and cannot be filtered.", field.Name))
	}
	path := field.Attribute

	current := field
	for _, segment := range segments[1:] {
		if !current.IsRelated() {
			return "", resterror.InvalidFilter(
				fmt.Sprintf("The '%s' field does not support nested lookups.", current.Name))
		}
		next, ok := current.Related.fieldIndex[segment]
		if !ok || next.Attribute == "" {
			return "", resterror.InvalidFilter(
				fmt.Sprintf("The '%s' field is not filterable through '%s'.", segment, current.Name))
		}
		path = path + "." + next.Attribute
		current = next
	}
	return path, nil
}

// coerceFilterValue applies the wire-side conventions: true/false/none
// literals, and comma-splitting for in/range lookups.
func coerceFilterValue(raw string, op store.Operator) interface{} {
	if op == store.OpIn || op == store.OpRange {
		parts := strings.Split(raw, ",")
		out := make([]interface{}, len(parts))
		for i, p := range parts {
			out[i] = coerceFilterValue(p, store.OpExact)
		}
		return out
	}
	switch raw {
	case "true", "True":
		return true
	case "false", "False":
		return false
	case "none", "None":
		return nil
	}
	return raw
}

// ApplySorting applies the order_by query parameter to a collection,
// enforcing the ordering whitelist. A leading '-' sorts descending.
func (res *Resource) ApplySorting(col store.Collection, values url.Values) (store.Collection, error) {
	raw := values.Get("order_by")
	if raw == "" {
		return col, nil
	}

	var specs []store.OrderSpec
	for _, term := range strings.Split(raw, ",") {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		descending := strings.HasPrefix(term, "-")
		name := strings.TrimPrefix(term, "-")

		if !res.orderingAllowed(name) {
			return nil, resterror.InvalidSort(
				fmt.Sprintf("The '%s' field does not allow ordering.", name))
		}
		field, ok := res.fieldIndex[name]
		if !ok || field.Attribute == "" {
			return nil, resterror.InvalidSort(
				fmt.Sprintf("The '%s' field has no attribute to order by.", name))
		}
		specs = append(specs, store.OrderSpec{Field: field.Attribute, Descending: descending})
	}

	if len(specs) == 0 {
		return col, nil
	}
	return col.OrderBy(specs...)
}

func (res *Resource) orderingAllowed(name string) bool {
	for _, allowed := range res.meta.Ordering {
		if allowed == name {
			return true
		}
	}
	return false
}
