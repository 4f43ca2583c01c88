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
	"time"

	"github.com/wso2/restkit/internal/auth"
	"github.com/wso2/restkit/internal/authz"
	"github.com/wso2/restkit/internal/cache"
	"github.com/wso2/restkit/internal/codec"
	"github.com/wso2/restkit/internal/store"
	"github.com/wso2/restkit/internal/system/constants"
	"github.com/wso2/restkit/internal/throttle"
	"github.com/wso2/restkit/internal/validation"
)

// RequestType names the dispatch scope a request targets.
type RequestType string

const (
	TypeList     RequestType = "list"
	TypeDetail   RequestType = "detail"
	TypeRelated  RequestType = "related"
	TypeMultiple RequestType = "multiple"
	TypeSchema   RequestType = "schema"
)

// FilterSpec whitelists the operators a field may be filtered by. The zero
// value allows nothing.
type FilterSpec struct {
	// All allows every operator on the field.
	All bool
	// WithRelations additionally allows lookups that traverse into the
	// field's related resource.
	WithRelations bool
	Operators     []store.Operator
}

// FilterAll allows every operator on a field.
var FilterAll = FilterSpec{All: true}

// FilterAllWithRelations allows every operator, including lookups spanning
// into the field's relation.
var FilterAllWithRelations = FilterSpec{All: true, WithRelations: true}

func (s FilterSpec) allows(op store.Operator) bool {
	if s.All {
		return true
	}
	for _, allowed := range s.Operators {
		if allowed == op {
			return true
		}
	}
	return false
}

// Options is the per-resource configuration record. It is resolved once by
// applyDefaults at construction and treated as immutable afterwards.
type Options struct {
	ResourceName string
	// BasePath prefixes every URI the resource emits.
	BasePath string

	Codecs        []codec.Codec
	DefaultFormat string

	Authentication auth.Authenticator
	// Authorizers compose left to right; the first decisive vote wins.
	Authorizers []authz.Authorizer
	// OwnerField feeds row-level policies through ResourceMeta.
	OwnerField string

	Cache    cache.Cache
	CacheTTL time.Duration
	Throttle throttle.Throttle
	Validator validation.Validator

	// AllowedMethods is the base method set; the per-scope sets default to
	// it when unset.
	AllowedMethods         []string
	ListAllowedMethods     []string
	DetailAllowedMethods   []string
	RelatedAllowedMethods  []string
	MultipleAllowedMethods []string

	Limit    int
	MaxLimit int

	// Filtering whitelists filterable fields; anything absent is rejected.
	Filtering map[string]FilterSpec
	// Ordering whitelists sortable field names.
	Ordering []string

	// AlwaysReturnData echoes the dehydrated object on writes (201/202)
	// instead of returning an empty 204.
	AlwaysReturnData bool
	// Debug includes failure detail in 500 bodies.
	Debug bool
}

func (o Options) applyDefaults() Options {
	if o.BasePath == "" {
		o.BasePath = constants.APIBasePath
	}
	if len(o.Codecs) == 0 {
		o.Codecs = codec.DefaultCodecs()
	}
	if o.DefaultFormat == "" {
		o.DefaultFormat = "application/json"
	}
	if o.Authentication == nil {
		o.Authentication = auth.Anonymous{}
	}
	if len(o.Authorizers) == 0 {
		o.Authorizers = []authz.Authorizer{authz.NoAuthorization{}}
	}
	if o.Cache == nil {
		o.Cache = cache.NoCache{}
	}
	if o.CacheTTL == 0 {
		o.CacheTTL = time.Minute
	}
	if o.Throttle == nil {
		o.Throttle = throttle.NoThrottle{}
	}
	if o.Validator == nil {
		o.Validator = validation.NoValidation{}
	}
	if len(o.AllowedMethods) == 0 {
		o.AllowedMethods = []string{"get", "post", "put", "delete"}
	}
	if len(o.ListAllowedMethods) == 0 {
		o.ListAllowedMethods = o.AllowedMethods
	}
	if len(o.DetailAllowedMethods) == 0 {
		o.DetailAllowedMethods = o.AllowedMethods
	}
	if len(o.RelatedAllowedMethods) == 0 {
		o.RelatedAllowedMethods = []string{"get"}
	}
	if len(o.MultipleAllowedMethods) == 0 {
		o.MultipleAllowedMethods = []string{"get"}
	}
	if o.Limit == 0 {
		o.Limit = constants.DefaultPageSize
	}
	if o.MaxLimit == 0 {
		o.MaxLimit = constants.MaxPageSize
	}
	return o
}

func (o Options) allowedFor(requestType RequestType) []string {
	switch requestType {
	case TypeList:
		return o.ListAllowedMethods
	case TypeDetail:
		return o.DetailAllowedMethods
	case TypeRelated:
		return o.RelatedAllowedMethods
	case TypeMultiple:
		return o.MultipleAllowedMethods
	case TypeSchema:
		return []string{"get"}
	default:
		return nil
	}
}

// Meta returns the metadata fragment handed to authorization policies.
func (o Options) Meta() authz.ResourceMeta {
	return authz.ResourceMeta{ResourceName: o.ResourceName, OwnerField: o.OwnerField}
}
