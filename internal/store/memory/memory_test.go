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

package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/restkit/internal/store"
)

type item struct {
	ID    int    `db:"id"`
	Name  string `db:"name"`
	Size  int    `db:"size"`
	Owner string `db:"owner"`
}

func seeded(t *testing.T) *Store {
	t.Helper()
	s := New("id")
	ctx := context.Background()
	for _, it := range []item{
		{ID: 1, Name: "anvil", Size: 10, Owner: "alice"},
		{ID: 2, Name: "bolt", Size: 2, Owner: "bob"},
		{ID: 3, Name: "sprocket", Size: 5, Owner: "alice"},
		{ID: 4, Name: "Sprocket Pro", Size: 7, Owner: "carol"},
	} {
		it := it
		require.NoError(t, s.Save(ctx, &it))
	}
	return s
}

func TestSaveReplacesByKey(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, &item{ID: 2, Name: "bolt v2", Size: 3}))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	col, err := s.Filter(ctx, store.Where("id", store.OpExact, 2))
	require.NoError(t, err)
	obj, err := col.GetSingle(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bolt v2", obj.(*item).Name)
}

func TestFilterOperators(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		scope store.Scope
		want  int
	}{
		{"exact", store.Where("name", store.OpExact, "bolt"), 1},
		{"iexact", store.Where("name", store.OpIExact, "BOLT"), 1},
		{"contains", store.Where("name", store.OpContains, "Sprocket"), 1},
		{"icontains", store.Where("name", store.OpIContains, "sprocket"), 2},
		{"startswith", store.Where("name", store.OpStartsWith, "s"), 1},
		{"endswith", store.Where("name", store.OpEndsWith, "t"), 2},
		{"gt", store.Where("size", store.OpGt, 5), 2},
		{"gte", store.Where("size", store.OpGte, 5), 3},
		{"lt", store.Where("size", store.OpLt, 5), 1},
		{"lte", store.Where("size", store.OpLte, 5), 2},
		{"in", store.Where("id", store.OpIn, []interface{}{1, 3}), 2},
		{"range", store.Where("size", store.OpRange, []interface{}{2, 7}), 3},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			col, err := s.Filter(ctx, tc.scope)
			require.NoError(t, err)
			count, err := col.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, tc.want, count)
		})
	}
}

func TestScopeAlgebra(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	t.Run("and narrows", func(t *testing.T) {
		scope := store.And(
			store.Where("owner", store.OpExact, "alice"),
			store.Where("size", store.OpGt, 4),
		)
		col, err := s.Filter(ctx, scope)
		require.NoError(t, err)
		obj, err := col.GetSingle(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, obj.(*item).ID)
	})

	t.Run("or widens", func(t *testing.T) {
		scope := store.Or(
			store.Where("owner", store.OpExact, "bob"),
			store.Where("owner", store.OpExact, "carol"),
		)
		col, err := s.Filter(ctx, scope)
		require.NoError(t, err)
		count, err := col.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("deny all matches nothing", func(t *testing.T) {
		col, err := s.Filter(ctx, store.DenyAll())
		require.NoError(t, err)
		exists, err := col.Exists(ctx)
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("allow all is the identity", func(t *testing.T) {
		col, err := s.Filter(ctx, store.AllowAll())
		require.NoError(t, err)
		count, err := col.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, count)
	})
}

func TestGetSingleSentinels(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	col, err := s.Filter(ctx, store.Where("id", store.OpExact, 99))
	require.NoError(t, err)
	_, err = col.GetSingle(ctx)
	assert.ErrorIs(t, err, store.ErrNotFound)

	col, err = s.Filter(ctx, store.Where("owner", store.OpExact, "alice"))
	require.NoError(t, err)
	_, err = col.GetSingle(ctx)
	assert.ErrorIs(t, err, store.ErrMultiple)
}

func TestOrderBy(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	col, err := s.OrderBy(store.OrderSpec{Field: "size", Descending: true})
	require.NoError(t, err)
	objs, err := col.All(ctx)
	require.NoError(t, err)
	require.Len(t, objs, 4)
	assert.Equal(t, 10, objs[0].(*item).Size)
	assert.Equal(t, 2, objs[3].(*item).Size)
}

func TestViewsAreImmutable(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	narrowed, err := s.Filter(ctx, store.Where("owner", store.OpExact, "alice"))
	require.NoError(t, err)

	// Filtering a view never alters its parent.
	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	narrowedCount, err := narrowed.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, narrowedCount)
}

func TestDeleteMany(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	col, err := s.Filter(ctx, store.Where("owner", store.OpExact, "alice"))
	require.NoError(t, err)
	require.NoError(t, s.DeleteMany(ctx, col))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestDottedPathResolution(t *testing.T) {
	type inner struct {
		Label string `db:"label"`
	}
	type outer struct {
		ID    int    `db:"id"`
		Inner *inner `db:"inner"`
	}

	s := New("id")
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, &outer{ID: 1, Inner: &inner{Label: "x"}}))
	require.NoError(t, s.Save(ctx, &outer{ID: 2}))

	col, err := s.Filter(ctx, store.Where("inner.label", store.OpExact, "x"))
	require.NoError(t, err)
	count, err := col.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
