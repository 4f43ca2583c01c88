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
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wso2/restkit/internal/store/memory"
	"github.com/wso2/restkit/internal/system/error/resterror"
)

func testRequest() *http.Request {
	return httptest.NewRequest(http.MethodGet, "/api/v1/notes/", nil)
}

// plainNoteResource has no hooks, so hydration effects are purely the
// declared fields' own.
func plainNoteResource() *ModelResource {
	return NewModel(Options{ResourceName: "notes"}, noteFields(), "id",
		func() interface{} { return &note{} }, memory.New("id"))
}

func TestDehydrateHydrateRoundTrip(t *testing.T) {
	m := plainNoteResource()
	original := &note{ID: 7, Title: "round trip", Body: "content", Public: true}

	out := m.BuildBundle(testRequest(), nil, original, nil)
	require.NoError(t, m.FullDehydrate(out))

	in := m.BuildBundle(testRequest(), nil, nil, out.Data)
	require.NoError(t, m.FullHydrate(in))

	got := in.Object.(*note)
	// Every writable field survives the round trip; id is readonly and
	// stays zero until the store or the path assigns it.
	assert.Equal(t, original.Title, got.Title)
	assert.Equal(t, original.Body, got.Body)
	assert.Equal(t, original.Public, got.Public)
	assert.Zero(t, got.ID)
}

func TestFullDehydrateDeterminism(t *testing.T) {
	m := plainNoteResource()
	obj := &note{ID: 1, Title: "t", Body: "b", Public: true}

	first := m.BuildBundle(testRequest(), nil, obj, nil)
	require.NoError(t, m.FullDehydrate(first))
	second := m.BuildBundle(testRequest(), nil, obj, nil)
	require.NoError(t, m.FullDehydrate(second))

	assert.Equal(t, first.Data, second.Data)
	assert.Equal(t, "/api/v1/notes/1/", first.Data["resource_uri"])
}

func TestDehydrateHookOverridesField(t *testing.T) {
	m := plainNoteResource()
	m.OnDehydrate("title", func(b *Bundle, value interface{}) (interface{}, error) {
		return strings.ToUpper(value.(string)), nil
	})

	b := m.BuildBundle(testRequest(), nil, &note{ID: 1, Title: "quiet"}, nil)
	require.NoError(t, m.FullDehydrate(b))
	assert.Equal(t, "QUIET", b.Data["title"])
}

func TestHydrateHookTransformsValue(t *testing.T) {
	m := plainNoteResource()
	m.OnHydrate("title", func(b *Bundle, value interface{}) (interface{}, error) {
		return strings.TrimSpace(value.(string)), nil
	})

	b := m.BuildBundle(testRequest(), nil, nil, map[string]interface{}{"title": "  padded  "})
	require.NoError(t, m.FullHydrate(b))
	assert.Equal(t, "padded", b.Object.(*note).Title)
}

func TestHydrateSkipsReadonlyFields(t *testing.T) {
	m := plainNoteResource()
	b := m.BuildBundle(testRequest(), nil, nil, map[string]interface{}{
		"id":    99,
		"title": "x",
	})
	require.NoError(t, m.FullHydrate(b))
	assert.Zero(t, b.Object.(*note).ID)
}

func TestHydrateAppliesDefaults(t *testing.T) {
	m := plainNoteResource()
	b := m.BuildBundle(testRequest(), nil, nil, map[string]interface{}{"title": "x"})
	require.NoError(t, m.FullHydrate(b))
	assert.False(t, b.Object.(*note).Public)
}

func TestHydrateM2MBeforeFullHydrateFails(t *testing.T) {
	m := plainNoteResource()
	b := m.BuildBundle(testRequest(), nil, nil, map[string]interface{}{"title": "x"})

	err := m.HydrateM2M(b)
	require.Error(t, err)
	restErr, ok := resterror.AsError(err)
	require.True(t, ok)
	assert.Equal(t, resterror.KindHydration, restErr.Kind)
}

type author struct {
	ID   int    `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

type post struct {
	ID     int     `db:"id" json:"id"`
	Title  string  `db:"title" json:"title"`
	Author *author `db:"author" json:"author"`
	Tags   []tag   `db:"tags" json:"tags"`
}

type tag struct {
	ID   int    `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

func newAuthorResource(t *testing.T, authors ...author) *ModelResource {
	t.Helper()
	st := memory.New("id")
	for i := range authors {
		a := authors[i]
		require.NoError(t, st.Save(context.Background(), &a))
	}
	fields := []*Field{
		{Name: "id", Attribute: "id", Type: FieldInteger, Readonly: true},
		{Name: "name", Attribute: "name", Type: FieldString},
	}
	return NewModel(Options{ResourceName: "authors"}, fields, "id", func() interface{} { return &author{} }, st)
}

func newTagResource(t *testing.T, tags ...tag) *ModelResource {
	t.Helper()
	st := memory.New("id")
	for i := range tags {
		tg := tags[i]
		require.NoError(t, st.Save(context.Background(), &tg))
	}
	fields := []*Field{
		{Name: "id", Attribute: "id", Type: FieldInteger, Readonly: true},
		{Name: "name", Attribute: "name", Type: FieldString},
	}
	return NewModel(Options{ResourceName: "tags"}, fields, "id", func() interface{} { return &tag{} }, st)
}

func newPostResource(t *testing.T, authorRes, tagRes *ModelResource, full bool) *ModelResource {
	t.Helper()
	fields := []*Field{
		{Name: "id", Attribute: "id", Type: FieldInteger, Readonly: true},
		{Name: "title", Attribute: "title", Type: FieldString},
		{Name: "author", Attribute: "author", Type: FieldRelated, Related: authorRes.Resource, Full: full, Nullable: true},
		{Name: "tags", Attribute: "tags", Type: FieldRelated, Related: tagRes.Resource, ToMany: true, Full: full, Nullable: true},
	}
	return NewModel(Options{ResourceName: "posts"}, fields, "id", func() interface{} { return &post{} }, memory.New("id"))
}

func TestDehydrateRelatedAsURI(t *testing.T) {
	authorRes := newAuthorResource(t, author{ID: 9, Name: "ann"})
	tagRes := newTagResource(t, tag{ID: 1, Name: "go"}, tag{ID: 2, Name: "rest"})
	postRes := newPostResource(t, authorRes, tagRes, false)

	obj := &post{
		ID:     1,
		Title:  "hello",
		Author: &author{ID: 9, Name: "ann"},
		Tags:   []tag{{ID: 1, Name: "go"}, {ID: 2, Name: "rest"}},
	}
	b := postRes.BuildBundle(testRequest(), nil, obj, nil)
	require.NoError(t, postRes.FullDehydrate(b))

	assert.Equal(t, "/api/v1/authors/9/", b.Data["author"])
	assert.Equal(t, []interface{}{"/api/v1/tags/1/", "/api/v1/tags/2/"}, b.Data["tags"])
}

func TestDehydrateRelatedFull(t *testing.T) {
	authorRes := newAuthorResource(t, author{ID: 9, Name: "ann"})
	tagRes := newTagResource(t)
	postRes := newPostResource(t, authorRes, tagRes, true)

	obj := &post{ID: 1, Title: "hello", Author: &author{ID: 9, Name: "ann"}}
	b := postRes.BuildBundle(testRequest(), nil, obj, nil)
	require.NoError(t, postRes.FullDehydrate(b))

	inline := b.Data["author"].(map[string]interface{})
	assert.Equal(t, "ann", inline["name"])
	assert.Equal(t, "/api/v1/authors/9/", inline["resource_uri"])
}

func TestDehydrateNullableRelation(t *testing.T) {
	authorRes := newAuthorResource(t)
	tagRes := newTagResource(t)
	postRes := newPostResource(t, authorRes, tagRes, false)

	b := postRes.BuildBundle(testRequest(), nil, &post{ID: 1, Title: "solo"}, nil)
	require.NoError(t, postRes.FullDehydrate(b))
	assert.Nil(t, b.Data["author"])
}

func TestHydrateRelatedByURI(t *testing.T) {
	authorRes := newAuthorResource(t, author{ID: 9, Name: "ann"})
	tagRes := newTagResource(t, tag{ID: 1, Name: "go"}, tag{ID: 2, Name: "rest"})
	postRes := newPostResource(t, authorRes, tagRes, false)

	b := postRes.BuildBundle(testRequest(), nil, nil, map[string]interface{}{
		"title":  "hello",
		"author": "/api/v1/authors/9/",
		"tags":   []interface{}{"/api/v1/tags/1/", "/api/v1/tags/2/"},
	})
	require.NoError(t, postRes.FullHydrate(b))

	got := b.Object.(*post)
	require.NotNil(t, got.Author)
	assert.Equal(t, "ann", got.Author.Name)
	// To-many values wait for the object to be saved and identified.
	assert.Empty(t, got.Tags)

	require.NoError(t, postRes.HydrateM2M(b))
	require.Len(t, got.Tags, 2)
	assert.Equal(t, "go", got.Tags[0].Name)
	assert.Equal(t, "rest", got.Tags[1].Name)
}

func TestHydrateRelatedEmbedded(t *testing.T) {
	authorRes := newAuthorResource(t)
	tagRes := newTagResource(t)
	postRes := newPostResource(t, authorRes, tagRes, true)

	b := postRes.BuildBundle(testRequest(), nil, nil, map[string]interface{}{
		"title":  "hello",
		"author": map[string]interface{}{"name": "embedded"},
	})
	require.NoError(t, postRes.FullHydrate(b))
	require.NotNil(t, b.Object.(*post).Author)
	assert.Equal(t, "embedded", b.Object.(*post).Author.Name)
}

// A resolved relation arrives as *author; both *author and author targets
// must accept it.
func TestHydrateRelatedValueTarget(t *testing.T) {
	type entry struct {
		ID     int    `db:"id" json:"id"`
		Author author `db:"author" json:"author"`
	}
	authorRes := newAuthorResource(t, author{ID: 9, Name: "ann"})
	fields := []*Field{
		{Name: "id", Attribute: "id", Type: FieldInteger, Readonly: true},
		{Name: "author", Attribute: "author", Type: FieldRelated, Related: authorRes.Resource},
	}
	res := NewModel(Options{ResourceName: "entries"}, fields, "id",
		func() interface{} { return &entry{} }, memory.New("id"))

	b := res.BuildBundle(testRequest(), nil, nil, map[string]interface{}{
		"author": "/api/v1/authors/9/",
	})
	require.NoError(t, res.FullHydrate(b))
	assert.Equal(t, "ann", b.Object.(*entry).Author.Name)
}

func TestGetRelatedDetail(t *testing.T) {
	authorRes := newAuthorResource(t, author{ID: 9, Name: "ann"})
	tagRes := newTagResource(t, tag{ID: 1, Name: "go"})
	postRes := newPostResource(t, authorRes, tagRes, false)
	mux := serve(postRes)

	t.Run("to-one renders the single object", func(t *testing.T) {
		// The stored relation is only a key stub; the route resolves the
		// complete object through the related resource.
		require.NoError(t, postRes.Store().Save(context.Background(),
			&post{ID: 1, Title: "hello", Author: &author{ID: 9}}))

		w := doJSON(t, mux, http.MethodGet, "/api/v1/posts/1/author/", "")
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "ann", body["name"])
		assert.Equal(t, "/api/v1/authors/9/", body["resource_uri"])
	})

	t.Run("unset to-one is 404", func(t *testing.T) {
		require.NoError(t, postRes.Store().Save(context.Background(),
			&post{ID: 2, Title: "solo"}))

		w := doJSON(t, mux, http.MethodGet, "/api/v1/posts/2/author/", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("to-many renders the list envelope", func(t *testing.T) {
		require.NoError(t, postRes.Store().Save(context.Background(),
			&post{ID: 3, Title: "tagged", Tags: []tag{{ID: 1, Name: "go"}}}))

		w := doJSON(t, mux, http.MethodGet, "/api/v1/posts/3/tags/", "")
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		require.Contains(t, body, "meta")
		assert.Len(t, body["objects"].([]interface{}), 1)
	})
}

func TestHydrateRelatedBadURI(t *testing.T) {
	authorRes := newAuthorResource(t)
	tagRes := newTagResource(t)
	postRes := newPostResource(t, authorRes, tagRes, false)

	b := postRes.BuildBundle(testRequest(), nil, nil, map[string]interface{}{
		"title":  "hello",
		"author": "/api/v1/somewhere/9/",
	})
	err := postRes.FullHydrate(b)
	require.Error(t, err)
	restErr, ok := resterror.AsError(err)
	require.True(t, ok)
	assert.Equal(t, resterror.KindBadRequest, restErr.Kind)
}
