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

package widget

import (
	"time"

	"github.com/spf13/cast"

	"github.com/wso2/restkit/internal/store"
	"github.com/wso2/restkit/internal/store/memory"
	"github.com/wso2/restkit/internal/store/sqlstore"
	"github.com/wso2/restkit/internal/system/database/provider"
	"github.com/wso2/restkit/internal/widget/model"
)

// newWidgetStore returns a SQL-backed store when a database client is
// available, falling back to the in-memory store otherwise.
func newWidgetStore(dbClient provider.DBClientInterface) store.Store {
	if dbClient == nil {
		return memory.New("id")
	}
	return sqlstore.New(dbClient, sqlstore.Options{
		Table:     "WIDGET",
		KeyColumn: "ID",
		Columns:   []string{"ID", "NAME", "SIZE", "OWNER", "CREATED_AT", "CATEGORY_ID"},
		ColumnByField: map[string]string{
			"id":          "ID",
			"name":        "NAME",
			"size":        "SIZE",
			"owner":       "OWNER",
			"created_at":  "CREATED_AT",
			"category.id": "CATEGORY_ID",
		},
		Mapper: sqlstore.Mapper{
			FromRow: func(row map[string]interface{}) (interface{}, error) {
				w := &model.Widget{
					ID:    cast.ToString(row["ID"]),
					Name:  cast.ToString(row["NAME"]),
					Size:  cast.ToInt(row["SIZE"]),
					Owner: cast.ToString(row["OWNER"]),
				}
				if ts, err := cast.ToTimeE(row["CREATED_AT"]); err == nil {
					w.CreatedAt = ts
				}
				if categoryID := cast.ToString(row["CATEGORY_ID"]); categoryID != "" {
					w.Category = &model.Category{ID: categoryID}
				}
				return w, nil
			},
			ToRow: func(obj interface{}) (map[string]interface{}, error) {
				w := obj.(*model.Widget)
				row := map[string]interface{}{
					"ID":         w.ID,
					"NAME":       w.Name,
					"SIZE":       w.Size,
					"OWNER":      w.Owner,
					"CREATED_AT": w.CreatedAt.UTC().Format(time.RFC3339),
				}
				if w.Category != nil {
					row["CATEGORY_ID"] = w.Category.ID
				} else {
					row["CATEGORY_ID"] = nil
				}
				return row, nil
			},
		},
	})
}

func newCategoryStore(dbClient provider.DBClientInterface) store.Store {
	if dbClient == nil {
		return memory.New("id")
	}
	return sqlstore.New(dbClient, sqlstore.Options{
		Table:     "CATEGORY",
		KeyColumn: "ID",
		Columns:   []string{"ID", "NAME"},
		ColumnByField: map[string]string{
			"id":   "ID",
			"name": "NAME",
		},
		Mapper: sqlstore.Mapper{
			FromRow: func(row map[string]interface{}) (interface{}, error) {
				return &model.Category{
					ID:   cast.ToString(row["ID"]),
					Name: cast.ToString(row["NAME"]),
				}, nil
			},
			ToRow: func(obj interface{}) (map[string]interface{}, error) {
				c := obj.(*model.Category)
				return map[string]interface{}{"ID": c.ID, "NAME": c.Name}, nil
			},
		},
	})
}

func newTagStore(dbClient provider.DBClientInterface) store.Store {
	if dbClient == nil {
		return memory.New("id")
	}
	return sqlstore.New(dbClient, sqlstore.Options{
		Table:     "TAG",
		KeyColumn: "ID",
		Columns:   []string{"ID", "LABEL", "WIDGET_ID"},
		ColumnByField: map[string]string{
			"id":        "ID",
			"label":     "LABEL",
			"widget_id": "WIDGET_ID",
		},
		Mapper: sqlstore.Mapper{
			FromRow: func(row map[string]interface{}) (interface{}, error) {
				return &model.Tag{
					ID:       cast.ToString(row["ID"]),
					Label:    cast.ToString(row["LABEL"]),
					WidgetID: cast.ToString(row["WIDGET_ID"]),
				}, nil
			},
			ToRow: func(obj interface{}) (map[string]interface{}, error) {
				t := obj.(*model.Tag)
				return map[string]interface{}{"ID": t.ID, "LABEL": t.Label, "WIDGET_ID": t.WidgetID}, nil
			},
		},
	})
}
