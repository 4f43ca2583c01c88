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

package provider

import (
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	dbmodel "github.com/wso2/restkit/internal/system/database/model"
	dbutils "github.com/wso2/restkit/internal/system/database/utils"
	"github.com/wso2/restkit/internal/system/log"
)

// DBClientInterface defines the operations stores perform against a
// datasource. Identified queries carry an ID for debug logging; raw variants
// exist for dynamically assembled statements.
type DBClientInterface interface {
	Query(query dbmodel.DBQueryInterface, args ...interface{}) ([]map[string]interface{}, error)
	Exec(query dbmodel.DBQueryInterface, args ...interface{}) (sql.Result, error)
	QueryRaw(query string, args ...interface{}) ([]map[string]interface{}, error)
	ExecRaw(query string, args ...interface{}) (sql.Result, error)
	BeginTx() (dbmodel.TxInterface, error)
	GetDBType() string
}

type dbClient struct {
	db     *sqlx.DB
	dbType string
}

// NewDBClient creates a database client over the given connection.
func NewDBClient(db *sqlx.DB, dbType string) DBClientInterface {
	return &dbClient{db: db, dbType: dbType}
}

func (c *dbClient) GetDBType() string {
	return c.dbType
}

func (c *dbClient) Query(query dbmodel.DBQueryInterface, args ...interface{}) ([]map[string]interface{}, error) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "DBClient"))
	logger.Debug("Executing query", log.String("query_id", query.GetID()))

	return c.QueryRaw(query.GetQuery(c.dbType), args...)
}

func (c *dbClient) Exec(query dbmodel.DBQueryInterface, args ...interface{}) (sql.Result, error) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "DBClient"))
	logger.Debug("Executing statement", log.String("query_id", query.GetID()))

	return c.ExecRaw(query.GetQuery(c.dbType), args...)
}

func (c *dbClient) QueryRaw(query string, args ...interface{}) ([]map[string]interface{}, error) {
	query = c.translate(query)

	rows, err := c.db.Queryx(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var results []map[string]interface{}
	for rows.Next() {
		row := make(map[string]interface{})
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("row scan failed: %w", err)
		}
		// MySQL drivers hand back []byte for text columns.
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	return results, nil
}

func (c *dbClient) ExecRaw(query string, args ...interface{}) (sql.Result, error) {
	query = c.translate(query)

	result, err := c.db.Exec(query, args...)
	if err != nil {
		return nil, fmt.Errorf("exec failed: %w", err)
	}
	return result, nil
}

func (c *dbClient) BeginTx() (dbmodel.TxInterface, error) {
	tx, err := c.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return dbmodel.NewTx(tx), nil
}

func (c *dbClient) translate(query string) string {
	if c.dbType == "postgres" || c.dbType == "postgresql" {
		return dbutils.ConvertToPostgresParams(query)
	}
	return query
}
