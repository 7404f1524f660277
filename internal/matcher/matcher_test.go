package matcher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/idwiden/internal/catalog"
)

const testCatalog = `
suffixes: [Dto, Response]
entities:
  - {name: Article, key: wide}
  - {name: ArticleType, key: wide}
  - {name: Style, key: narrow}
rules:
  - {name: Id, role: primary_key}
  - {name: ParentId, role: foreign_key, self: true}
  - {name: ArticleTypeId, match: suffix, role: foreign_key, entity: ArticleType}
  - {name: StyleId, match: suffix, role: foreign_key, entity: Style}
  - {name: ArticleId, match: suffix, role: foreign_key, entity: Article}
`

func testMatcher(t *testing.T) *Matcher {
	t.Helper()
	f, err := catalog.Parse([]byte(testCatalog))
	require.NoError(t, err)
	cat, err := catalog.Build(f)
	require.NoError(t, err)
	return New(cat)
}

func TestScan_Scenarios(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		wantSpan string
		field    string
		nullable bool
		ok       bool
	}{
		{
			name:     "primary key of wide entity",
			src:      "public class Article\n{\n    public int Id { get; set; }\n}\n",
			wantSpan: "int",
			field:    "Article.Id",
			ok:       true,
		},
		{
			name:     "nullable foreign key",
			src:      "public class Product\n{\n    public int? ArticleTypeId { get; set; }\n}\n",
			wantSpan: "int?",
			field:    "Product.ArticleTypeId",
			nullable: true,
			ok:       true,
		},
		{
			name: "already wide",
			src:  "public class Article\n{\n    public long Id { get; set; }\n}\n",
		},
		{
			name: "no rule for name",
			src:  "public class Article\n{\n    public int Count { get; set; }\n}\n",
		},
		{
			name: "narrow entity primary key",
			src:  "public class Style\n{\n    public int Id { get; set; }\n}\n",
		},
		{
			name: "foreign key to narrow entity",
			src:  "public class Article\n{\n    public int StyleId { get; set; }\n}\n",
		},
		{
			name: "unclassified owner",
			src:  "public class Order\n{\n    public int Id { get; set; }\n}\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := testMatcher(t).FindAll("a.cs", []byte(tt.src))
			if !tt.ok {
				assert.Empty(t, matches)
				return
			}
			require.Len(t, matches, 1)
			m := matches[0]
			assert.Equal(t, tt.wantSpan, tt.src[m.Start:m.End])
			assert.Equal(t, tt.field, m.QualifiedField())
			assert.Equal(t, tt.nullable, m.CurrentNullable)
			assert.Equal(t, "long", m.TargetType)
			assert.Equal(t, 3, m.Line)
		})
	}
}

func TestScan_IgnoresCommentsAndStrings(t *testing.T) {
	src := `public class Article
{
    // public int Id { get; set; }
    /* public int ArticleTypeId { get; set; } */
    public string Sql = "public int ArticleId;";
    public int Id { get; set; }
}
`
	matches := testMatcher(t).FindAll("a.cs", []byte(src))
	require.Len(t, matches, 1)
	assert.Equal(t, "Id", matches[0].Field)
	assert.Equal(t, 6, matches[0].Line)
}

func TestScan_OwnerThroughSuffix(t *testing.T) {
	src := `namespace CMS.Dto
{
    public class ArticleDto
    {
        public int Id { get; set; }
        public int? ParentId { get; set; }
    }

    public class StyleResponse
    {
        public int Id { get; set; }
        public int ParentId { get; set; }
        public int ArticleId { get; set; }
    }
}
`
	matches := testMatcher(t).FindAll("dto.cs", []byte(src))
	var got []string
	for _, m := range matches {
		got = append(got, m.QualifiedField())
	}
	assert.Equal(t, []string{"ArticleDto.Id", "ArticleDto.ParentId", "StyleResponse.ArticleId"}, got)
}

func TestScan_NestedTypes(t *testing.T) {
	src := `public class Style
{
    public int Id { get; set; }
    public class Article
    {
        public int Id { get; set; }
    }
    public int ParentId { get; set; }
}
`
	matches := testMatcher(t).FindAll("n.cs", []byte(src))
	require.Len(t, matches, 1)
	assert.Equal(t, "Article.Id", matches[0].QualifiedField())
	assert.Equal(t, 6, matches[0].Line)
}

func TestScan_Specificity(t *testing.T) {
	f, err := catalog.Parse([]byte(`
entities:
  - {name: Article, key: wide}
  - {name: Style, key: narrow}
rules:
  - {name: Id, match: suffix, role: plain_field, width: wide}
  - {name: StyleId, role: foreign_key, entity: Style}
`))
	require.NoError(t, err)
	cat, err := catalog.Build(f)
	require.NoError(t, err)

	src := "class X {\n public int StyleId { get; set; }\n public int OrderId { get; set; }\n}\n"
	matches := New(cat).FindAll("x.cs", []byte(src))
	require.Len(t, matches, 1, "exact StyleId rule must shadow the generic suffix rule")
	assert.Equal(t, "OrderId", matches[0].Field)
	assert.Equal(t, catalog.PlainField, matches[0].Rule.Role)
}

func TestScan_NullabilityPrecondition(t *testing.T) {
	f, err := catalog.Parse([]byte(`
entities:
  - {name: Article, key: wide}
rules:
  - {name: ArticleId, role: foreign_key, entity: Article, nullable: optional}
`))
	require.NoError(t, err)
	cat, err := catalog.Build(f)
	require.NoError(t, err)

	src := "class A {\n public int ArticleId { get; set; }\n}\nclass B {\n public int? ArticleId { get; set; }\n}\n"
	matches := New(cat).FindAll("x.cs", []byte(src))
	require.Len(t, matches, 1)
	assert.Equal(t, "B", matches[0].Owner)
	assert.True(t, matches[0].CurrentNullable)
}

func TestScan_Shapes(t *testing.T) {
	src := `public record ArticleDto(int Id, [property: Required] int? ArticleTypeId, string Title = "x, int ArticleId");

public class Article
{
    private readonly int ArticleTypeId = 0;
    public static int ArticleId;
    public int Id => 5;
    public const int StyleId = 3;
    public bool Same(int Id) => Id == 0;
}
`
	matches := testMatcher(t).FindAll("r.cs", []byte(src))
	var got []string
	for _, m := range matches {
		got = append(got, m.Shape+":"+m.QualifiedField()+":"+src[m.Start:m.End])
	}
	assert.Equal(t, []string{
		"record-parameter:ArticleDto.Id:int",
		"record-parameter:ArticleDto.ArticleTypeId:int?",
		"field:Article.ArticleTypeId:int",
		"field:Article.ArticleId:int",
	}, got)
}

func TestScan_QualifiedTypeTokens(t *testing.T) {
	src := "class Article {\n public Int32 Id { get; set; }\n public System.Int32? ArticleTypeId { get; init; }\n}\n"
	matches := testMatcher(t).FindAll("q.cs", []byte(src))
	require.Len(t, matches, 2)
	assert.Equal(t, "Int32", src[matches[0].Start:matches[0].End])
	assert.Equal(t, "System.Int32?", src[matches[1].Start:matches[1].End])
	assert.Equal(t, "long?", matches[1].Replacement())
}

func TestScanner_SinglePass(t *testing.T) {
	sc := testMatcher(t).Scan("a.cs", []byte("class Article { public int Id { get; set; } }"))
	require.True(t, sc.Next())
	assert.Equal(t, "Id", sc.Match().Field)
	assert.False(t, sc.Next())
	assert.False(t, sc.Next())
	assert.Equal(t, Match{}, sc.Match())
}

func TestMask(t *testing.T) {
	src := "a // x\nb /* y\nz */ c \"s\\\"t\" @\"v\"\"w\" 'q' \"\"\"raw\"\"\" d"
	m := NewMask([]byte(src))
	assert.Len(t, m.Blank(), len(src))
	sp := func(n int) string { return strings.Repeat(" ", n) }
	assert.Equal(t, "a"+sp(5)+"\nb"+sp(5)+"\n"+sp(5)+"c"+sp(30)+"d", string(m.Blank()))
}

func TestFindScopes(t *testing.T) {
	src := "namespace N { public record Pos(int Id); public class A { class B { } } }"
	scopes := FindScopes(NewMask([]byte(src)))
	require.Len(t, scopes, 3)

	owner, ok := scopes.OwnerAt(len("namespace N { public record Pos(i"))
	assert.True(t, ok)
	assert.Equal(t, "Pos", owner)

	owner, _ = scopes.OwnerAt(len("namespace N { public record Pos(int Id); public class A { class B { "))
	assert.Equal(t, "B", owner)

	_, ok = scopes.OwnerAt(2)
	assert.False(t, ok)
}

func TestScan_AdjacentDeclarations(t *testing.T) {
	tests := map[string]string{
		"fields":     "class Article {\n    public int Id;public int? ArticleTypeId;\n}\n",
		"properties": "class Article {\n    public int Id { get; set; }public int? ArticleTypeId { get; set; }\n}\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			matches := testMatcher(t).FindAll("a.cs", []byte(src))
			require.Len(t, matches, 2)
			assert.Equal(t, "Article.Id", matches[0].QualifiedField())
			assert.Equal(t, "Article.ArticleTypeId", matches[1].QualifiedField())
			assert.Equal(t, "int?", src[matches[1].Start:matches[1].End])
		})
	}
}

func TestScan_GenericConstraints(t *testing.T) {
	src := `public class Article<T, U>
    where T : class
    where U : notnull, struct
{
    public int Id { get; set; }
}
`
	scopes := FindScopes(NewMask([]byte(src)))
	require.Len(t, scopes, 1)
	assert.Equal(t, "Article", scopes[0].Name)

	matches := testMatcher(t).FindAll("a.cs", []byte(src))
	require.Len(t, matches, 1)
	assert.Equal(t, "Article.Id", matches[0].QualifiedField())
}
