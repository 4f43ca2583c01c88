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

// Package store defines the contract the resource layer expects from a
// backing data source. The resource core depends only on these interfaces;
// concrete stores (memory, sqlstore) plug in underneath without the core
// knowing about them.
package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by GetSingle when no object matches.
	ErrNotFound = errors.New("store: object not found")
	// ErrMultiple is returned by GetSingle when more than one object matches.
	ErrMultiple = errors.New("store: multiple objects match")
)

// Operator names a filter lookup. Stores translate these to their native
// query language; the resource layer whitelists them per field before any
// predicate reaches a store.
type Operator string

const (
	OpExact      Operator = "exact"
	OpIExact     Operator = "iexact"
	OpContains   Operator = "contains"
	OpIContains  Operator = "icontains"
	OpStartsWith Operator = "startswith"
	OpEndsWith   Operator = "endswith"
	OpGt         Operator = "gt"
	OpGte        Operator = "gte"
	OpLt         Operator = "lt"
	OpLte        Operator = "lte"
	OpIn         Operator = "in"
	OpRange      Operator = "range"
	OpIsNull     Operator = "isnull"
)

// Predicate is a single field-path + operator + value triple.
type Predicate struct {
	Field    string
	Operator Operator
	Value    interface{}
}

// OrderSpec describes one ordering term.
type OrderSpec struct {
	Field      string
	Descending bool
}

// ScopeKind distinguishes the three states of a scope expression.
type ScopeKind int

const (
	// ScopeAllowAll places no restriction on the object list.
	ScopeAllowAll ScopeKind = iota
	// ScopeDenyAll restricts the object list to nothing.
	ScopeDenyAll
	// ScopePredicate restricts the object list with a predicate tree.
	ScopePredicate
)

// ScopeOp is the boolean connective of a composite predicate scope.
type ScopeOp int

const (
	ScopeAnd ScopeOp = iota
	ScopeOr
)

// Scope is a three-valued restriction expression: allow-all, deny-all, or a
// predicate tree. The zero value is allow-all.
type Scope struct {
	Kind ScopeKind

	// For ScopePredicate: either a leaf predicate...
	Leaf *Predicate
	// ...or a composite of sub-scopes joined by Op. Children are always
	// predicate-kinded; the combinators collapse the sentinel states before
	// building composites.
	Op       ScopeOp
	Children []Scope
}

// AllowAll returns the scope placing no restriction.
func AllowAll() Scope { return Scope{Kind: ScopeAllowAll} }

// DenyAll returns the scope matching nothing.
func DenyAll() Scope { return Scope{Kind: ScopeDenyAll} }

// Where returns a leaf predicate scope.
func Where(field string, op Operator, value interface{}) Scope {
	return Scope{Kind: ScopePredicate, Leaf: &Predicate{Field: field, Operator: op, Value: value}}
}

// And combines two scopes under three-valued conjunction:
// deny-all absorbs, allow-all is the identity.
func And(a, b Scope) Scope {
	if a.Kind == ScopeDenyAll || b.Kind == ScopeDenyAll {
		return DenyAll()
	}
	if a.Kind == ScopeAllowAll {
		return b
	}
	if b.Kind == ScopeAllowAll {
		return a
	}
	return Scope{Kind: ScopePredicate, Op: ScopeAnd, Children: []Scope{a, b}}
}

// Or combines two scopes under three-valued disjunction:
// allow-all absorbs, deny-all is the identity.
func Or(a, b Scope) Scope {
	if a.Kind == ScopeAllowAll || b.Kind == ScopeAllowAll {
		return AllowAll()
	}
	if a.Kind == ScopeDenyAll {
		return b
	}
	if b.Kind == ScopeDenyAll {
		return a
	}
	return Scope{Kind: ScopePredicate, Op: ScopeOr, Children: []Scope{a, b}}
}

// IsAllowAll reports whether the scope places no restriction.
func (s Scope) IsAllowAll() bool { return s.Kind == ScopeAllowAll }

// IsDenyAll reports whether the scope matches nothing.
func (s Scope) IsDenyAll() bool { return s.Kind == ScopeDenyAll }

// Collection is an immutable, chainable view over an ordered set of objects.
// Filter and OrderBy return derived views; the receiver is never mutated.
type Collection interface {
	Filter(ctx context.Context, scope Scope) (Collection, error)
	OrderBy(specs ...OrderSpec) (Collection, error)
	Count(ctx context.Context) (int, error)
	Exists(ctx context.Context) (bool, error)
	// GetSingle returns the only object in the view, ErrNotFound when the
	// view is empty and ErrMultiple when it holds more than one object.
	GetSingle(ctx context.Context) (interface{}, error)
	All(ctx context.Context) ([]interface{}, error)
}

// Store is a Collection rooted at a full object set, adding mutation.
type Store interface {
	Collection
	Save(ctx context.Context, obj interface{}) error
	Delete(ctx context.Context, obj interface{}) error
	// DeleteMany removes every object in the given view.
	DeleteMany(ctx context.Context, c Collection) error
}
