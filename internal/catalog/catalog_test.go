package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/idwiden/internal/errs"
)

func testTable(t *testing.T) *Table {
	t.Helper()
	table, err := NewTable([]Entity{
		{Name: "Article", PrimaryKeyWidth: Wide},
		{Name: "ArticleType", PrimaryKeyWidth: Wide},
		{Name: "Style", PrimaryKeyWidth: Narrow},
	}, []string{"Dto", "Model", "ViewModel", "Response"})
	require.NoError(t, err)
	return table
}

func TestTable_WidthOf(t *testing.T) {
	table := testTable(t)

	w, ok := table.WidthOf("Article")
	assert.True(t, ok)
	assert.Equal(t, Wide, w)

	w, ok = table.WidthOf("Style")
	assert.True(t, ok)
	assert.Equal(t, Narrow, w)

	_, ok = table.WidthOf("Ghost")
	assert.False(t, ok)
}

func TestTable_Resolve(t *testing.T) {
	table := testTable(t)

	tests := []struct {
		typeName string
		want     string
		ok       bool
	}{
		{"Article", "Article", true},
		{"ArticleDto", "Article", true},
		{"ArticleViewModel", "Article", true},
		{"ArticleTypeResponse", "ArticleType", true},
		{"Dto", "", false},
		{"OrderDto", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.typeName, func(t *testing.T) {
			e, ok := table.Resolve(tt.typeName)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, e.Name)
		})
	}
}

func TestNewTable_Invalid(t *testing.T) {
	_, err := NewTable([]Entity{
		{Name: "Article", PrimaryKeyWidth: Wide},
		{Name: "Article", PrimaryKeyWidth: Narrow},
	}, nil)
	assert.True(t, errs.IsConfiguration(err))

	_, err = NewTable([]Entity{{Name: "Article"}}, nil)
	assert.True(t, errs.IsConfiguration(err))

	_, err = NewTable([]Entity{{Name: " ", PrimaryKeyWidth: Wide}}, nil)
	assert.True(t, errs.IsConfiguration(err))
}

func TestNewRegistry_UnknownEntity(t *testing.T) {
	_, err := NewRegistry(testTable(t), []Rule{
		{Name: "GhostId", Match: Suffix, Role: ForeignKey, Entity: "Ghost"},
	})
	require.Error(t, err)
	assert.True(t, errs.IsConfiguration(err))
	assert.Contains(t, err.Error(), "GhostId")
	assert.Contains(t, err.Error(), "Ghost")
}

func TestNewRegistry_Validation(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
	}{
		{"empty name", Rule{Role: PrimaryKey}},
		{"no role", Rule{Name: "Id"}},
		{"fk without entity", Rule{Name: "XId", Role: ForeignKey}},
		{"fk self with entity", Rule{Name: "ParentId", Role: ForeignKey, Self: true, Entity: "Article"}},
		{"pk with entity", Rule{Name: "Id", Role: PrimaryKey, Entity: "Article"}},
		{"plain without width", Rule{Name: "Id", Match: Suffix, Role: PlainField}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(testTable(t), []Rule{tt.rule})
			assert.True(t, errs.IsConfiguration(err), "got %v", err)
		})
	}
}

func TestNewRegistry_Duplicates(t *testing.T) {
	fk := Rule{Name: "ArticleId", Match: Suffix, Role: ForeignKey, Entity: "Article"}

	reg, err := NewRegistry(testTable(t), []Rule{fk, fk})
	require.NoError(t, err)
	assert.Len(t, reg.Rules(), 1)
	assert.Len(t, reg.Warnings(), 1)

	conflicting := fk
	conflicting.Entity = "ArticleType"
	_, err = NewRegistry(testTable(t), []Rule{fk, conflicting})
	assert.True(t, errs.IsConfiguration(err))
}

func TestRegistry_SpecificityOrder(t *testing.T) {
	reg, err := NewRegistry(testTable(t), []Rule{
		{Name: "Id", Match: Suffix, Role: PlainField, Width: Wide},
		{Name: "TypeId", Match: Suffix, Role: PlainField, Width: Narrow},
		{Name: "ArticleTypeId", Match: Suffix, Role: ForeignKey, Entity: "ArticleType"},
		{Name: "ArticleTypeId", Match: Exact, Role: ForeignKey, Entity: "Article"},
	})
	require.NoError(t, err)

	got := reg.RulesFor("ArticleTypeId")
	require.Len(t, got, 4)
	assert.Equal(t, Exact, got[0].Match)
	assert.Equal(t, "Article", got[0].Entity)
	assert.Equal(t, "ArticleTypeId", got[1].Name)
	assert.Equal(t, "TypeId", got[2].Name)
	assert.Equal(t, "Id", got[3].Name)

	assert.Empty(t, reg.RulesFor("Count"))
}

func TestRegistry_Target(t *testing.T) {
	reg, err := NewRegistry(testTable(t), []Rule{
		{Name: "Id", Role: PrimaryKey},
		{Name: "ParentId", Role: ForeignKey, Self: true},
		{Name: "ArticleTypeId", Match: Suffix, Role: ForeignKey, Entity: "ArticleType"},
		{Name: "StyleId", Role: ForeignKey, Entity: "Style"},
		{Name: "Id", Match: Suffix, Role: PlainField, Width: Wide},
	})
	require.NoError(t, err)

	rules := reg.Rules()
	byName := func(name string, m MatchKind) Rule {
		for _, r := range rules {
			if r.Name == name && r.Match == m {
				return r
			}
		}
		t.Fatalf("rule %s not found", name)
		return Rule{}
	}

	w, ok := reg.Target(byName("Id", Exact), "ArticleDto")
	assert.True(t, ok)
	assert.Equal(t, Wide, w)

	_, ok = reg.Target(byName("Id", Exact), "Order")
	assert.False(t, ok, "undeclared owner must not be guessed")

	w, ok = reg.Target(byName("ParentId", Exact), "Style")
	assert.True(t, ok)
	assert.Equal(t, Narrow, w)

	w, _ = reg.Target(byName("ArticleTypeId", Suffix), "Anything")
	assert.Equal(t, Wide, w, "foreign key follows the referenced entity, not the owner")

	w, _ = reg.Target(byName("StyleId", Exact), "Article")
	assert.Equal(t, Narrow, w)

	w, _ = reg.Target(byName("Id", Suffix), "Order")
	assert.Equal(t, Wide, w)
}

func TestNullability_Allows(t *testing.T) {
	assert.True(t, AnyNullability.Allows(true))
	assert.True(t, AnyNullability.Allows(false))
	assert.True(t, Optional.Allows(true))
	assert.False(t, Optional.Allows(false))
	assert.True(t, Required.Allows(false))
	assert.False(t, Required.Allows(true))
}

func TestDefaultCatalog_Builds(t *testing.T) {
	cat, err := Build(DefaultFile())
	require.NoError(t, err)

	assert.Equal(t, "long", cat.Types.Wide)
	assert.True(t, cat.Types.IsNarrow("int"))
	assert.Empty(t, cat.Registry.Warnings())

	w, ok := cat.Table.WidthOf("ArticleType")
	assert.True(t, ok)
	assert.Equal(t, Wide, w)

	rules := cat.Registry.Rules()
	require.NotEmpty(t, rules)
	assert.Equal(t, "Id", rules[0].Name, "exact primary key rule comes first")
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"ghost entity", `
entities: [{name: Article, key: wide}]
rules: [{name: GhostId, role: foreign_key, entity: Ghost}]`},
		{"wide listed as narrow", `
types: {narrow: [int, long], wide: long}`},
		{"bad width", `
entities: [{name: Article, key: huge}]`},
		{"bad role", `
rules: [{name: Id, role: key}]`},
		{"bad match", `
rules: [{name: Id, role: primary_key, match: regex}]`},
		{"bad nullable", `
rules: [{name: Id, role: primary_key, nullable: maybe}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.yaml))
			require.NoError(t, err)
			_, err = Build(f)
			assert.True(t, errs.IsConfiguration(err), "got %v", err)
		})
	}
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte("rules: [{name: Id, role: primary_key, entty: Article}]"))
	assert.True(t, errs.IsConfiguration(err))
}

func TestParse_Empty(t *testing.T) {
	f, err := Parse(nil)
	require.NoError(t, err)
	cat, err := Build(f)
	require.NoError(t, err)
	assert.Equal(t, 0, cat.Table.Len())
}

func TestLoad(t *testing.T) {
	f, err := Load("")
	require.NoError(t, err)
	assert.NotEmpty(t, f.Entities)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
entities:
  - {name: Order, key: narrow}
rules:
  - {name: Id, role: pk}
`), 0o644))

	f, err = Load(path)
	require.NoError(t, err)
	cat, err := Build(f)
	require.NoError(t, err)
	w, _ := cat.Table.WidthOf("Order")
	assert.Equal(t, Narrow, w)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errs.IsConfiguration(err))
}

func TestFile_Override(t *testing.T) {
	f := &File{Entities: []EntityFile{
		{Name: "Article", Key: "narrow"},
		{Name: "Product", Key: "wide"},
	}}

	notes := f.Override([]Entity{
		{Name: "Article", PrimaryKeyWidth: Wide},
		{Name: "Product", PrimaryKeyWidth: Wide},
		{Name: "Order", PrimaryKeyWidth: Narrow},
	})

	require.Len(t, notes, 1)
	assert.Contains(t, notes[0], "Article")

	cat, err := Build(f)
	require.NoError(t, err)
	w, _ := cat.Table.WidthOf("Article")
	assert.Equal(t, Wide, w)
	w, ok := cat.Table.WidthOf("Order")
	assert.True(t, ok)
	assert.Equal(t, Narrow, w)
}
