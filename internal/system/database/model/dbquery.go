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

package model

// DBQueryInterface identifies a named query and yields the SQL text for a
// given database type.
type DBQueryInterface interface {
	GetID() string
	GetQuery(dbType string) string
}

var _ DBQueryInterface = (*DBQuery)(nil)

// DBQuery is one named query with per-database variants. The default text is
// MySQL syntax; a variant overrides it for that database type.
type DBQuery struct {
	// ID uniquely names the query, for logging and tracing.
	ID string `json:"id"`
	// Query is the default (MySQL) text.
	Query string `json:"query"`
	// PostgresQuery overrides Query on PostgreSQL.
	PostgresQuery string `json:"postgres_query,omitempty"`
}

// GetID returns the query's name.
func (d *DBQuery) GetID() string {
	return d.ID
}

// GetQuery returns the variant for dbType, falling back to the default text
// when no variant is declared.
func (d *DBQuery) GetQuery(dbType string) string {
	switch dbType {
	case "postgres", "postgresql":
		if d.PostgresQuery != "" {
			return d.PostgresQuery
		}
	}
	return d.Query
}
