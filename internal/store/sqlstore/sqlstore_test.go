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

package sqlstore

import (
	"context"
	"database/sql/driver"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/restkit/internal/store"
	"github.com/wso2/restkit/internal/system/database/provider"
)

type widget struct {
	ID    int
	Name  string
	Size  int
	Owner string
}

func widgetMapper() Mapper {
	return Mapper{
		FromRow: func(row map[string]interface{}) (interface{}, error) {
			return &widget{
				ID:    cast.ToInt(row["id"]),
				Name:  cast.ToString(row["name"]),
				Size:  cast.ToInt(row["size"]),
				Owner: cast.ToString(row["owner"]),
			}, nil
		},
		ToRow: func(obj interface{}) (map[string]interface{}, error) {
			w := obj.(*widget)
			return map[string]interface{}{
				"id":    w.ID,
				"name":  w.Name,
				"size":  w.Size,
				"owner": w.Owner,
			}, nil
		},
	}
}

func newTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	client := provider.NewDBClient(sqlx.NewDb(db, "mysql"), "mysql")
	s := New(client, Options{
		Table:     "widgets",
		KeyColumn: "id",
		Columns:   []string{"id", "name", "size", "owner"},
		ColumnByField: map[string]string{
			"id":    "id",
			"name":  "name",
			"size":  "size",
			"owner": "owner",
		},
		Mapper: widgetMapper(),
	})
	return s, mock
}

func widgetRows(ws ...widget) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "name", "size", "owner"})
	for _, w := range ws {
		rows.AddRow(w.ID, w.Name, w.Size, w.Owner)
	}
	return rows
}

func TestSaveUpsert(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec("INSERT INTO widgets (id, name, size, owner) VALUES (?, ?, ?, ?) "+
		"ON DUPLICATE KEY UPDATE name = VALUES(name), size = VALUES(size), owner = VALUES(owner)").
		WithArgs(1, "anvil", 10, "alice").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := s.Save(context.Background(), &widget{ID: 1, Name: "anvil", Size: 10, Owner: "alice"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteByKey(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec("DELETE FROM widgets WHERE id = ?").
		WithArgs(2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.Delete(context.Background(), &widget{ID: 2})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllWithPredicates(t *testing.T) {
	tests := []struct {
		name  string
		scope store.Scope
		query string
		args  []driver.Value
	}{
		{
			"exact",
			store.Where("name", store.OpExact, "bolt"),
			"SELECT id, name, size, owner FROM widgets WHERE name = ?",
			[]driver.Value{"bolt"},
		},
		{
			"iexact",
			store.Where("name", store.OpIExact, "BOLT"),
			"SELECT id, name, size, owner FROM widgets WHERE LOWER(name) = LOWER(?)",
			[]driver.Value{"BOLT"},
		},
		{
			"contains",
			store.Where("name", store.OpContains, "olt"),
			"SELECT id, name, size, owner FROM widgets WHERE name LIKE ?",
			[]driver.Value{"%olt%"},
		},
		{
			"startswith",
			store.Where("name", store.OpStartsWith, "b"),
			"SELECT id, name, size, owner FROM widgets WHERE name LIKE ?",
			[]driver.Value{"b%"},
		},
		{
			"gt",
			store.Where("size", store.OpGt, 5),
			"SELECT id, name, size, owner FROM widgets WHERE size > ?",
			[]driver.Value{5},
		},
		{
			"in",
			store.Where("id", store.OpIn, []interface{}{1, 3}),
			"SELECT id, name, size, owner FROM widgets WHERE id IN (?, ?)",
			[]driver.Value{1, 3},
		},
		{
			"range",
			store.Where("size", store.OpRange, []interface{}{2, 7}),
			"SELECT id, name, size, owner FROM widgets WHERE size BETWEEN ? AND ?",
			[]driver.Value{2, 7},
		},
		{
			"isnull",
			store.Where("owner", store.OpIsNull, true),
			"SELECT id, name, size, owner FROM widgets WHERE owner IS NULL",
			nil,
		},
		{
			"isnotnull",
			store.Where("owner", store.OpIsNull, false),
			"SELECT id, name, size, owner FROM widgets WHERE owner IS NOT NULL",
			nil,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, mock := newTestStore(t)

			expect := mock.ExpectQuery(tc.query)
			if len(tc.args) > 0 {
				expect.WithArgs(tc.args...)
			}
			expect.WillReturnRows(widgetRows(widget{ID: 2, Name: "bolt", Size: 2, Owner: "bob"}))

			col, err := s.Filter(context.Background(), tc.scope)
			require.NoError(t, err)
			objs, err := col.All(context.Background())
			require.NoError(t, err)
			require.Len(t, objs, 1)
			assert.Equal(t, "bolt", objs[0].(*widget).Name)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAllWithCompositeScope(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery("SELECT id, name, size, owner FROM widgets WHERE (owner = ?) AND ((size > ?) OR (name = ?))").
		WithArgs("alice", 5, "bolt").
		WillReturnRows(widgetRows())

	scope := store.And(
		store.Where("owner", store.OpExact, "alice"),
		store.Or(
			store.Where("size", store.OpGt, 5),
			store.Where("name", store.OpExact, "bolt"),
		),
	)
	col, err := s.Filter(context.Background(), scope)
	require.NoError(t, err)
	objs, err := col.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, objs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAllWithOrdering(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery("SELECT id, name, size, owner FROM widgets ORDER BY size DESC, name ASC").
		WillReturnRows(widgetRows(
			widget{ID: 1, Name: "anvil", Size: 10, Owner: "alice"},
			widget{ID: 3, Name: "sprocket", Size: 5, Owner: "alice"},
		))

	col, err := s.OrderBy(
		store.OrderSpec{Field: "size", Descending: true},
		store.OrderSpec{Field: "name"},
	)
	require.NoError(t, err)
	objs, err := col.All(context.Background())
	require.NoError(t, err)
	require.Len(t, objs, 2)
	assert.Equal(t, 10, objs[0].(*widget).Size)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCount(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery("SELECT COUNT(*) AS cnt FROM widgets WHERE owner = ?").
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"cnt"}).AddRow(int64(2)))

	col, err := s.Filter(context.Background(), store.Where("owner", store.OpExact, "alice"))
	require.NoError(t, err)
	count, err := col.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSingleSentinels(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectQuery("SELECT id, name, size, owner FROM widgets WHERE id = ?").
		WithArgs(99).
		WillReturnRows(widgetRows())

	col, err := s.Filter(context.Background(), store.Where("id", store.OpExact, 99))
	require.NoError(t, err)
	_, err = col.GetSingle(context.Background())
	assert.ErrorIs(t, err, store.ErrNotFound)

	mock.ExpectQuery("SELECT id, name, size, owner FROM widgets WHERE owner = ?").
		WithArgs("alice").
		WillReturnRows(widgetRows(
			widget{ID: 1, Name: "anvil", Size: 10, Owner: "alice"},
			widget{ID: 3, Name: "sprocket", Size: 5, Owner: "alice"},
		))

	col, err = s.Filter(context.Background(), store.Where("owner", store.OpExact, "alice"))
	require.NoError(t, err)
	_, err = col.GetSingle(context.Background())
	assert.ErrorIs(t, err, store.ErrMultiple)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteManyWithOneStatement(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec("DELETE FROM widgets WHERE owner = ?").
		WithArgs("alice").
		WillReturnResult(sqlmock.NewResult(0, 2))

	col, err := s.Filter(context.Background(), store.Where("owner", store.OpExact, "alice"))
	require.NoError(t, err)
	require.NoError(t, s.DeleteMany(context.Background(), col))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDenyAllSkipsTheDatabase(t *testing.T) {
	s, mock := newTestStore(t)

	col, err := s.Filter(context.Background(), store.DenyAll())
	require.NoError(t, err)

	objs, err := col.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, objs)

	count, err := col.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)

	// No expectations were set; any query would have failed the test.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnmappedFieldIsRejected(t *testing.T) {
	s, mock := newTestStore(t)

	col, err := s.Filter(context.Background(), store.Where("owner; DROP TABLE widgets", store.OpExact, "x"))
	require.NoError(t, err)
	_, err = col.All(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no column mapping")
	assert.NoError(t, mock.ExpectationsWereMet())
}
