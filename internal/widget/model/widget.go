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

// Package model holds the widget domain entities.
package model

import "time"

// Widget is the primary demo entity.
type Widget struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name" validate:"required"`
	Size      int       `db:"size" json:"size" validate:"gte=0"`
	Owner     string    `db:"owner" json:"owner"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	// Category is resolved through the category resource; the database row
	// carries only its ID.
	Category *Category `db:"-" json:"-"`
}

// Category groups widgets. Widgets reference it to-one.
type Category struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name" validate:"required"`
}

// Tag labels a widget. Tags reference their widget, so the widget resource
// exposes them as a nested route rather than an embedded attribute.
type Tag struct {
	ID       string `db:"id" json:"id"`
	Label    string `db:"label" json:"label" validate:"required"`
	WidgetID string `db:"widget_id" json:"widget_id"`
}
