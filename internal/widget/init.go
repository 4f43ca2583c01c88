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

// Package widget wires the widget, category, and tag resources end to end:
// stores, relations, validation, authorization, and route registration.
package widget

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/wso2/restkit/internal/auth"
	"github.com/wso2/restkit/internal/authz"
	"github.com/wso2/restkit/internal/cache"
	"github.com/wso2/restkit/internal/resource"
	"github.com/wso2/restkit/internal/store"
	"github.com/wso2/restkit/internal/store/memory"
	"github.com/wso2/restkit/internal/system/config"
	"github.com/wso2/restkit/internal/system/database/provider"
	"github.com/wso2/restkit/internal/throttle"
	"github.com/wso2/restkit/internal/validation"
	"github.com/wso2/restkit/internal/widget/model"
)

// Resources bundles the module's registered resources for callers that need
// direct access, such as tests and seed scripts.
type Resources struct {
	Widgets    *resource.ModelResource
	Categories *resource.ModelResource
	Tags       *resource.ModelResource
}

// Initialize builds the widget module's resources and registers their routes.
// A nil dbClient selects the in-memory store.
func Initialize(mux *http.ServeMux, dbClient provider.DBClientInterface) *Resources {
	cfg := config.Get()

	categories := resource.NewModel(resource.Options{
		ResourceName: "categories",
		Filtering: map[string]resource.FilterSpec{
			"name": resource.FilterAll,
		},
		Ordering:  []string{"name"},
		Validator: validation.NewTagValidator(),
	}, []*resource.Field{
		{Name: "id", Attribute: "id", Type: resource.FieldString, Readonly: true},
		{Name: "name", Attribute: "name", Type: resource.FieldString},
	}, "id", func() interface{} { return &model.Category{} }, newCategoryStore(dbClient))
	categories.AfterHydrate(assignID(func(obj interface{}) *string {
		return &obj.(*model.Category).ID
	}))

	tags := resource.NewModel(resource.Options{
		ResourceName: "tags",
		Filtering: map[string]resource.FilterSpec{
			"label":     resource.FilterAll,
			"widget_id": {Operators: []store.Operator{store.OpExact}},
		},
		Ordering:  []string{"label"},
		Validator: validation.NewTagValidator(),
	}, []*resource.Field{
		{Name: "id", Attribute: "id", Type: resource.FieldString, Readonly: true},
		{Name: "label", Attribute: "label", Type: resource.FieldString},
		{Name: "widget_id", Attribute: "widget_id", Type: resource.FieldString},
	}, "id", func() interface{} { return &model.Tag{} }, newTagStore(dbClient))
	tags.AfterHydrate(assignID(func(obj interface{}) *string {
		return &obj.(*model.Tag).ID
	}))

	widgets := resource.NewModel(widgetOptions(cfg), []*resource.Field{
		{Name: "id", Attribute: "id", Type: resource.FieldString, Readonly: true},
		{Name: "name", Attribute: "name", Type: resource.FieldString, HelpText: "Display name."},
		{Name: "size", Attribute: "size", Type: resource.FieldInteger, Default: 0},
		{Name: "owner", Attribute: "owner", Type: resource.FieldString, Readonly: true},
		{Name: "created_at", Attribute: "created_at", Type: resource.FieldDatetime, Readonly: true},
		{Name: "category", Attribute: "category", Type: resource.FieldRelated,
			Related: categories.Resource, Nullable: true},
		{Name: "tags", Type: resource.FieldRelated, Related: tags.Resource,
			ToMany: true, RelatedBy: "widget_id"},
	}, "id", func() interface{} { return &model.Widget{} }, newWidgetStore(dbClient))

	widgets.AfterHydrate(func(b *resource.Bundle) error {
		w := b.Object.(*model.Widget)
		if w.ID == "" {
			w.ID = uuid.New().String()
		}
		if w.CreatedAt.IsZero() {
			w.CreatedAt = time.Now().UTC()
		}
		if w.Owner == "" {
			if identity, ok := auth.IdentityFrom(b.Request.Context()); ok {
				w.Owner = identity.Username
			}
		}
		return nil
	})

	widgets.Register(mux)
	categories.Register(mux)
	tags.Register(mux)

	return &Resources{Widgets: widgets, Categories: categories, Tags: tags}
}

// widgetOptions derives the widget resource configuration from the loaded
// deployment configuration, with sane defaults when none was loaded.
func widgetOptions(cfg *config.Config) resource.Options {
	opts := resource.Options{
		ResourceName: "widgets",
		OwnerField:   "owner",
		Filtering: map[string]resource.FilterSpec{
			"name":     resource.FilterAll,
			"size":     resource.FilterAll,
			"owner":    {Operators: []store.Operator{store.OpExact}},
			"category": resource.FilterAllWithRelations,
		},
		Ordering:  []string{"name", "size", "created_at"},
		Validator: validation.NewTagValidator(),
	}
	if cfg == nil {
		return opts
	}

	opts.Limit = cfg.API.DefaultLimit
	opts.MaxLimit = cfg.API.MaxLimit
	opts.DefaultFormat = cfg.API.DefaultFormat
	opts.Debug = cfg.API.Debug

	if cfg.Security.IsBasicAuthEnabled() {
		opts.Authentication = &auth.Basic{Realm: "restkit", Check: cfg.Security.ValidateUser}
		opts.Authorizers = []authz.Authorizer{authz.OwnerAuthorization{FieldValue: memory.FieldValue}}
	}
	if cfg.API.ThrottleLimit > 0 {
		timeframe := time.Duration(cfg.API.ThrottleTimeframe) * time.Second
		opts.Throttle = throttle.NewWindow(cfg.API.ThrottleLimit, timeframe, cache.NewMemoryCache())
	}
	return opts
}

// assignID fills a generated UUID into the object's key field on create.
func assignID(field func(obj interface{}) *string) resource.BundleHook {
	return func(b *resource.Bundle) error {
		if id := field(b.Object); *id == "" {
			*id = uuid.New().String()
		}
		return nil
	}
}
