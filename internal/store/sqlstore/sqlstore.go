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

// Package sqlstore provides a store.Store implementation over a SQL table,
// translating resource predicates into parameterized WHERE clauses. Field
// names reach SQL only through the configured column map, so a predicate on
// an unmapped field fails before touching the database.
package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/wso2/restkit/internal/store"
	"github.com/wso2/restkit/internal/system/database/provider"
	dbutils "github.com/wso2/restkit/internal/system/database/utils"
)

// Mapper converts between result rows and domain objects.
type Mapper struct {
	// FromRow builds a domain object from a scanned row.
	FromRow func(row map[string]interface{}) (interface{}, error)
	// ToRow flattens a domain object into column → value pairs.
	ToRow func(obj interface{}) (map[string]interface{}, error)
}

// Store is a SQL-table-backed object store.
type Store struct {
	client    provider.DBClientInterface
	table     string
	keyColumn string
	// columns lists the selected columns in a fixed order.
	columns []string
	// columnByField maps resource attribute names onto columns.
	columnByField map[string]string
	mapper        Mapper
}

// Options configures a SQL store.
type Options struct {
	Table         string
	KeyColumn     string
	Columns       []string
	ColumnByField map[string]string
	Mapper        Mapper
}

// New creates a SQL store over the given client.
func New(client provider.DBClientInterface, opts Options) *Store {
	return &Store{
		client:        client,
		table:         opts.Table,
		keyColumn:     opts.KeyColumn,
		columns:       opts.Columns,
		columnByField: opts.ColumnByField,
		mapper:        opts.Mapper,
	}
}

// Save inserts the object, or replaces the row with the same key.
func (s *Store) Save(_ context.Context, obj interface{}) error {
	row, err := s.mapper.ToRow(obj)
	if err != nil {
		return err
	}

	cols := make([]string, 0, len(s.columns))
	args := make([]interface{}, 0, len(s.columns))
	for _, col := range s.columns {
		if v, ok := row[col]; ok {
			cols = append(cols, col)
			args = append(args, v)
		}
	}
	if len(cols) == 0 {
		return fmt.Errorf("sqlstore: object %T produced no columns", obj)
	}

	assignments := make([]string, 0, len(cols))
	for _, col := range cols {
		if col == s.keyColumn {
			continue
		}
		assignments = append(assignments, fmt.Sprintf("%s = VALUES(%s)", col, col))
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON DUPLICATE KEY UPDATE %s",
		s.table,
		strings.Join(cols, ", "),
		dbutils.Placeholders(len(cols)),
		strings.Join(assignments, ", "),
	)

	_, err = s.client.ExecRaw(query, args...)
	return err
}

// Delete removes the row matching the object's key.
func (s *Store) Delete(_ context.Context, obj interface{}) error {
	row, err := s.mapper.ToRow(obj)
	if err != nil {
		return err
	}
	key, ok := row[s.keyColumn]
	if !ok {
		return fmt.Errorf("sqlstore: object %T has no key column %q", obj, s.keyColumn)
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", s.table, s.keyColumn)
	_, err = s.client.ExecRaw(query, key)
	return err
}

// DeleteMany removes every row in the given view with one statement when the
// view originates from this store, falling back to per-object deletes.
func (s *Store) DeleteMany(ctx context.Context, c store.Collection) error {
	if v, ok := c.(queryView); ok && v.store == s {
		condition, args, err := v.whereClause()
		if err != nil {
			return err
		}
		query := dbutils.BuildWhereQuery(fmt.Sprintf("DELETE FROM %s", s.table), condition)
		_, err = s.client.ExecRaw(query, args...)
		return err
	}

	objs, err := c.All(ctx)
	if err != nil {
		return err
	}
	for _, obj := range objs {
		if err := s.Delete(ctx, obj); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) root() queryView {
	return queryView{store: s, scope: store.AllowAll()}
}

// Filter returns a view restricted by the given scope.
func (s *Store) Filter(ctx context.Context, scope store.Scope) (store.Collection, error) {
	return s.root().Filter(ctx, scope)
}

// OrderBy returns a view ordered by the given specs.
func (s *Store) OrderBy(specs ...store.OrderSpec) (store.Collection, error) {
	return s.root().OrderBy(specs...)
}

// Count returns the number of rows in the table.
func (s *Store) Count(ctx context.Context) (int, error) { return s.root().Count(ctx) }

// Exists reports whether the table has any row.
func (s *Store) Exists(ctx context.Context) (bool, error) { return s.root().Exists(ctx) }

// GetSingle returns the only row in the table.
func (s *Store) GetSingle(ctx context.Context) (interface{}, error) { return s.root().GetSingle(ctx) }

// All returns every row of the table.
func (s *Store) All(ctx context.Context) ([]interface{}, error) { return s.root().All(ctx) }

// queryView is an immutable accumulated query over the store's table.
type queryView struct {
	store *Store
	scope store.Scope
	order []store.OrderSpec
}

func (v queryView) Filter(_ context.Context, scope store.Scope) (store.Collection, error) {
	return queryView{store: v.store, scope: store.And(v.scope, scope), order: v.order}, nil
}

func (v queryView) OrderBy(specs ...store.OrderSpec) (store.Collection, error) {
	order := make([]store.OrderSpec, 0, len(v.order)+len(specs))
	order = append(order, v.order...)
	order = append(order, specs...)
	return queryView{store: v.store, scope: v.scope, order: order}, nil
}

func (v queryView) Count(context.Context) (int, error) {
	if v.scope.IsDenyAll() {
		return 0, nil
	}
	condition, args, err := v.whereClause()
	if err != nil {
		return 0, err
	}
	query := dbutils.BuildWhereQuery(fmt.Sprintf("SELECT COUNT(*) AS cnt FROM %s", v.store.table), condition)
	rows, err := v.store.client.QueryRaw(query, args...)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return toInt(rows[0]["cnt"]), nil
}

func (v queryView) Exists(ctx context.Context) (bool, error) {
	count, err := v.Count(ctx)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (v queryView) GetSingle(ctx context.Context) (interface{}, error) {
	objs, err := v.All(ctx)
	if err != nil {
		return nil, err
	}
	switch len(objs) {
	case 0:
		return nil, store.ErrNotFound
	case 1:
		return objs[0], nil
	default:
		return nil, store.ErrMultiple
	}
}

func (v queryView) All(context.Context) ([]interface{}, error) {
	if v.scope.IsDenyAll() {
		return nil, nil
	}
	condition, args, err := v.whereClause()
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(v.store.columns, ", "), v.store.table)
	query = dbutils.BuildWhereQuery(query, condition)

	for _, spec := range v.order {
		col, err := v.store.column(spec.Field)
		if err != nil {
			return nil, err
		}
		query = dbutils.BuildOrderByQuery(query, col, !spec.Descending)
		break
	}
	if len(v.order) > 1 {
		// Secondary terms append after the primary ORDER BY clause.
		var extra []string
		for _, spec := range v.order[1:] {
			col, err := v.store.column(spec.Field)
			if err != nil {
				return nil, err
			}
			dir := "ASC"
			if spec.Descending {
				dir = "DESC"
			}
			extra = append(extra, fmt.Sprintf("%s %s", col, dir))
		}
		query = query + ", " + strings.Join(extra, ", ")
	}

	rows, err := v.store.client.QueryRaw(query, args...)
	if err != nil {
		return nil, err
	}

	objs := make([]interface{}, 0, len(rows))
	for _, row := range rows {
		obj, err := v.store.mapper.FromRow(row)
		if err != nil {
			return nil, err
		}
		objs = append(objs, obj)
	}
	return objs, nil
}

func (v queryView) whereClause() (string, []interface{}, error) {
	if v.scope.IsAllowAll() {
		return "", nil, nil
	}
	if v.scope.IsDenyAll() {
		return "1 = 0", nil, nil
	}
	return v.store.scopeSQL(v.scope)
}

func (s *Store) column(field string) (string, error) {
	if s.columnByField != nil {
		if col, ok := s.columnByField[field]; ok {
			return col, nil
		}
		return "", fmt.Errorf("sqlstore: field %q has no column mapping", field)
	}
	return field, nil
}

func (s *Store) scopeSQL(scope store.Scope) (string, []interface{}, error) {
	switch scope.Kind {
	case store.ScopeAllowAll:
		return "1 = 1", nil, nil
	case store.ScopeDenyAll:
		return "1 = 0", nil, nil
	}
	if scope.Leaf != nil {
		return s.predicateSQL(*scope.Leaf)
	}

	connective := " AND "
	if scope.Op == store.ScopeOr {
		connective = " OR "
	}
	var parts []string
	var args []interface{}
	for _, child := range scope.Children {
		sql, childArgs, err := s.scopeSQL(child)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, "("+sql+")")
		args = append(args, childArgs...)
	}
	return strings.Join(parts, connective), args, nil
}

func (s *Store) predicateSQL(p store.Predicate) (string, []interface{}, error) {
	col, err := s.column(p.Field)
	if err != nil {
		return "", nil, err
	}

	switch p.Operator {
	case store.OpExact:
		return col + " = ?", []interface{}{p.Value}, nil
	case store.OpIExact:
		return "LOWER(" + col + ") = LOWER(?)", []interface{}{p.Value}, nil
	case store.OpContains:
		return col + " LIKE ?", []interface{}{"%" + fmt.Sprintf("%v", p.Value) + "%"}, nil
	case store.OpIContains:
		return "LOWER(" + col + ") LIKE LOWER(?)", []interface{}{"%" + fmt.Sprintf("%v", p.Value) + "%"}, nil
	case store.OpStartsWith:
		return col + " LIKE ?", []interface{}{fmt.Sprintf("%v", p.Value) + "%"}, nil
	case store.OpEndsWith:
		return col + " LIKE ?", []interface{}{"%" + fmt.Sprintf("%v", p.Value)}, nil
	case store.OpGt:
		return col + " > ?", []interface{}{p.Value}, nil
	case store.OpGte:
		return col + " >= ?", []interface{}{p.Value}, nil
	case store.OpLt:
		return col + " < ?", []interface{}{p.Value}, nil
	case store.OpLte:
		return col + " <= ?", []interface{}{p.Value}, nil
	case store.OpIn:
		items, ok := p.Value.([]interface{})
		if !ok || len(items) == 0 {
			return "", nil, fmt.Errorf("sqlstore: 'in' filter needs a non-empty list value")
		}
		return col + " IN (" + dbutils.Placeholders(len(items)) + ")", items, nil
	case store.OpRange:
		bounds, ok := p.Value.([]interface{})
		if !ok || len(bounds) != 2 {
			return "", nil, fmt.Errorf("sqlstore: 'range' filter needs a two-element list value")
		}
		return col + " BETWEEN ? AND ?", bounds, nil
	case store.OpIsNull:
		if isTruthy(p.Value) {
			return col + " IS NULL", nil, nil
		}
		return col + " IS NOT NULL", nil, nil
	default:
		return "", nil, fmt.Errorf("sqlstore: unsupported operator %q", p.Operator)
	}
}

func isTruthy(v interface{}) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val == "true" || val == "True" || val == "1"
	default:
		return v != nil
	}
}

func toInt(v interface{}) int {
	switch val := v.(type) {
	case int64:
		return int(val)
	case int:
		return val
	case string:
		var n int
		fmt.Sscanf(val, "%d", &n)
		return n
	case []byte:
		var n int
		fmt.Sscanf(string(val), "%d", &n)
		return n
	default:
		return 0
	}
}
