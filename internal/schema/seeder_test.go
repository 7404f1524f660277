package schema

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/idwiden/internal/catalog"
	"github.com/koustreak/idwiden/internal/database"
	"github.com/koustreak/idwiden/internal/errs"
)

type fakeDB struct {
	schema *database.Schema
	err    error
}

func (f *fakeDB) Ping(context.Context) error { return nil }
func (f *fakeDB) Close()                     {}

func (f *fakeDB) ListTables(context.Context) ([]string, error) {
	return f.schema.TableNames(), f.err
}

func (f *fakeDB) InspectSchema(context.Context) (*database.Schema, error) {
	return f.schema, f.err
}

func table(name string, pk []string, cols map[string]string, fks ...*database.ForeignKey) *database.TableInfo {
	t := &database.TableInfo{Name: name, PrimaryKey: pk, ForeignKeys: fks}
	for c, typ := range cols {
		t.Columns = append(t.Columns, &database.ColumnInfo{Name: c, DataType: typ})
	}
	return t
}

func TestClassify(t *testing.T) {
	tests := []struct {
		in   string
		want catalog.Width
		ok   bool
	}{
		{"bigint", catalog.Wide, true},
		{"BIGINT", catalog.Wide, true},
		{"bigint unsigned", catalog.Wide, true},
		{"int8", catalog.Wide, true},
		{"integer", catalog.Narrow, true},
		{"int(11)", catalog.Narrow, true},
		{"smallint", catalog.Narrow, true},
		{"mediumint", catalog.Narrow, true},
		{"uuid", 0, false},
		{"character varying", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			w, ok := Classify(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, w)
		})
	}
}

func TestSeed(t *testing.T) {
	db := &fakeDB{schema: &database.Schema{Tables: map[string]*database.TableInfo{
		"article": table("article", []string{"id"}, map[string]string{"id": "bigint", "article_type_id": "integer"},
			&database.ForeignKey{Column: "article_type_id", RefTable: "article_type", RefColumn: "id"}),
		"article_type":    table("article_type", []string{"id"}, map[string]string{"id": "bigint"}),
		"Styles":          table("Styles", []string{"Id"}, map[string]string{"Id": "int"}),
		"order_line":      table("order_line", []string{"order_id", "line"}, map[string]string{"order_id": "bigint", "line": "int"}),
		"session":         table("session", []string{"token"}, map[string]string{"token": "uuid"}),
		"audit_log":       table("audit_log", nil, map[string]string{"at": "timestamp"}),
		"product_comment": table("product_comment", []string{"id"}, map[string]string{"id": "bigint"}),
	}}}

	res, err := NewSeeder(db, nil).Seed(context.Background(), []string{"Article", "ArticleType", "Style"})
	require.NoError(t, err)

	assert.Equal(t, []catalog.Entity{
		{Name: "Article", PrimaryKeyWidth: catalog.Wide},
		{Name: "ArticleType", PrimaryKeyWidth: catalog.Wide},
		{Name: "ProductComment", PrimaryKeyWidth: catalog.Wide},
		{Name: "Style", PrimaryKeyWidth: catalog.Narrow},
	}, res.Entities)

	assert.Len(t, res.Skipped, 3)
	assert.Contains(t, res.Skipped, "order_line: composite primary key")
	assert.Contains(t, res.Skipped, "audit_log: no primary key")
	assert.Contains(t, res.Skipped, "session: non-integer primary key uuid")

	assert.Equal(t, []string{"article.article_type_id is integer but references article_type.id"}, res.Drift)
}

func TestSeed_DuplicateMapping(t *testing.T) {
	db := &fakeDB{schema: &database.Schema{Tables: map[string]*database.TableInfo{
		"article":  table("article", []string{"id"}, map[string]string{"id": "bigint"}),
		"articles": table("articles", []string{"id"}, map[string]string{"id": "int"}),
	}}}

	res, err := NewSeeder(db, nil).Seed(context.Background(), []string{"Article"})
	require.NoError(t, err)
	require.Len(t, res.Entities, 1)
	assert.Equal(t, catalog.Wide, res.Entities[0].PrimaryKeyWidth)
	assert.Equal(t, []string{"articles: maps to Article, already taken by article"}, res.Skipped)
}

func TestSeed_Error(t *testing.T) {
	db := &fakeDB{
		schema: &database.Schema{},
		err:    errs.New(errs.ErrKindConnectionFailed, "down"),
	}
	_, err := NewSeeder(db, nil).Seed(context.Background(), nil)
	assert.True(t, errs.IsConnectionFailed(err))
}
