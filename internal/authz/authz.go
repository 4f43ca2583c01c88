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

// Package authz decides whether an authenticated caller may perform an
// action on a resource. Authorizers are composed as an ordered chain: the
// first decisive vote wins, and a chain where everyone abstains denies.
// Resource metadata is passed in explicitly; authorizers hold no reference
// back to the resource that uses them.
package authz

import (
	"net/http"
	"strings"

	"github.com/wso2/restkit/internal/auth"
	"github.com/wso2/restkit/internal/response"
	"github.com/wso2/restkit/internal/store"
	"github.com/wso2/restkit/internal/system/error/resterror"
)

// Action names one authorizable operation.
type Action string

const (
	ReadList     Action = "read_list"
	ReadDetail   Action = "read_detail"
	CreateList   Action = "create_list"
	CreateDetail Action = "create_detail"
	UpdateList   Action = "update_list"
	UpdateDetail Action = "update_detail"
	DeleteList   Action = "delete_list"
	DeleteDetail Action = "delete_detail"
)

// IsRead reports whether the action only reads data.
func (a Action) IsRead() bool {
	return a == ReadList || a == ReadDetail
}

// Vote is one authorizer's verdict.
type Vote int

const (
	// Abstain defers to the rest of the chain.
	Abstain Vote = iota
	Allow
	Deny
)

// Decision is a vote, optionally replaced by an immediate response the
// dispatch layer must emit verbatim.
type Decision struct {
	Vote     Vote
	Response *response.Response
}

// ResourceMeta is the fragment of resource configuration authorizers need.
type ResourceMeta struct {
	ResourceName string
	// OwnerField names the attribute holding the owning username, for
	// row-level policies. Empty when the resource has no owner.
	OwnerField string
}

// Authorizer votes on a single action.
type Authorizer interface {
	IsAuthorized(r *http.Request, action Action, meta ResourceMeta, object interface{}) Decision
}

// Limiter is an optional extension narrowing list results. The and clause
// must hold for every returned object; the or clause widens an otherwise
// restricted set.
type Limiter interface {
	Limits(r *http.Request, action Action, meta ResourceMeta) (and store.Scope, or store.Scope, hasOr bool)
}

// Authorize runs the chain for the action. The first decisive vote wins;
// a chain of abstentions denies. Immediate responses surface as
// resterror.Immediate.
func Authorize(chain []Authorizer, r *http.Request, action Action, meta ResourceMeta, object interface{}) error {
	for _, a := range chain {
		d := a.IsAuthorized(r, action, meta, object)
		if d.Response != nil {
			return resterror.Immediate(d.Response)
		}
		switch d.Vote {
		case Allow:
			return nil
		case Deny:
			return resterror.PermissionDenied("You are not allowed to access that resource.")
		}
	}
	return resterror.PermissionDenied("You are not allowed to access that resource.")
}

// ApplyLimits folds every limiter's clauses into one scope: and clauses
// conjoin, or clauses disjoin, and the or disjunction (when any limiter
// supplied one) conjoins with the and side.
func ApplyLimits(chain []Authorizer, r *http.Request, action Action, meta ResourceMeta) store.Scope {
	andScope := store.AllowAll()
	orScope := store.DenyAll()
	hasAnyOr := false

	for _, a := range chain {
		l, ok := a.(Limiter)
		if !ok {
			continue
		}
		and, or, hasOr := l.Limits(r, action, meta)
		andScope = store.And(andScope, and)
		if hasOr {
			orScope = store.Or(orScope, or)
			hasAnyOr = true
		}
	}

	if hasAnyOr {
		return store.And(andScope, orScope)
	}
	return andScope
}

// NoAuthorization allows everything. It is the default policy.
type NoAuthorization struct{}

func (NoAuthorization) IsAuthorized(*http.Request, Action, ResourceMeta, interface{}) Decision {
	return Decision{Vote: Allow}
}

// ReadOnlyAuthorization allows read actions and denies the rest.
type ReadOnlyAuthorization struct{}

func (ReadOnlyAuthorization) IsAuthorized(_ *http.Request, action Action, _ ResourceMeta, _ interface{}) Decision {
	if action.IsRead() {
		return Decision{Vote: Allow}
	}
	return Decision{Vote: Deny}
}

// OwnerAuthorization is a row-level policy: detail actions require the
// object's owner field to match the authenticated username, and list
// results are limited to the caller's own rows.
type OwnerAuthorization struct {
	// FieldValue resolves an attribute on a domain object. The memory
	// store's reflection resolver satisfies this.
	FieldValue func(obj interface{}, field string) (interface{}, bool)
}

func (o OwnerAuthorization) IsAuthorized(r *http.Request, action Action, meta ResourceMeta, object interface{}) Decision {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok || id.Anonymous {
		return Decision{Vote: Deny}
	}
	if object == nil || meta.OwnerField == "" {
		// List-scope actions are decided by Limits.
		return Decision{Vote: Allow}
	}

	owner, ok := o.FieldValue(object, meta.OwnerField)
	if !ok {
		return Decision{Vote: Deny}
	}
	if s, ok := owner.(string); ok && strings.EqualFold(s, id.Username) {
		return Decision{Vote: Allow}
	}
	return Decision{Vote: Deny}
}

func (o OwnerAuthorization) Limits(r *http.Request, _ Action, meta ResourceMeta) (store.Scope, store.Scope, bool) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok || id.Anonymous || meta.OwnerField == "" {
		return store.DenyAll(), store.Scope{}, false
	}
	return store.Where(meta.OwnerField, store.OpExact, id.Username), store.Scope{}, false
}
