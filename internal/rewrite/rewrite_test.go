package rewrite

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/idwiden/internal/catalog"
	"github.com/koustreak/idwiden/internal/errs"
	"github.com/koustreak/idwiden/internal/matcher"
)

func testMatcher(t *testing.T) *matcher.Matcher {
	t.Helper()
	f, err := catalog.Parse([]byte(`
entities:
  - {name: Article, key: wide}
  - {name: ArticleType, key: wide}
rules:
  - {name: Id, role: primary_key}
  - {name: ArticleTypeId, match: suffix, role: foreign_key, entity: ArticleType}
`))
	require.NoError(t, err)
	cat, err := catalog.Build(f)
	require.NoError(t, err)
	return matcher.New(cat)
}

const article = `using System;

namespace CMS.Data
{
    /// <summary>Article</summary>
    public class Article
    {
        public int Id { get; set; }   // primary key
        public int? ArticleTypeId { get; set; }
        public int  Count { get; set; }
        public string Title { get; set; } = "int Id";
    }
}
`

func TestApply(t *testing.T) {
	m := testMatcher(t)
	res, err := Apply("Article.cs", []byte(article), m.FindAll("Article.cs", []byte(article)))
	require.NoError(t, err)

	want := strings.Replace(article, "public int Id", "public long Id", 1)
	want = strings.Replace(want, "public int? ArticleTypeId", "public long? ArticleTypeId", 1)
	assert.Equal(t, want, string(res.Content))

	require.Len(t, res.Changes, 2)
	assert.Equal(t, "Article.Id", res.Changes[0].Field)
	assert.Equal(t, "int", res.Changes[0].From)
	assert.Equal(t, "long", res.Changes[0].To)
	assert.Equal(t, 8, res.Changes[0].Line)
	assert.Equal(t, "Article.ArticleTypeId", res.Changes[1].Field)
	assert.Equal(t, "int?", res.Changes[1].From)
	assert.Equal(t, "long?", res.Changes[1].To)
}

func TestApply_Idempotent(t *testing.T) {
	m := testMatcher(t)
	once, err := Apply("a.cs", []byte(article), m.FindAll("a.cs", []byte(article)))
	require.NoError(t, err)
	require.True(t, once.Changed())

	again := m.FindAll("a.cs", once.Content)
	assert.Empty(t, again)

	twice, err := Apply("a.cs", once.Content, again)
	require.NoError(t, err)
	assert.Equal(t, once.Content, twice.Content)
	assert.False(t, twice.Changed())
}

func TestApply_Locality(t *testing.T) {
	src := "class Article {\r\n\tpublic  int   Id  {get;set;}\t// int\r\n\tpublic int Other { get; set; }\r\n}"
	m := testMatcher(t)
	res, err := Apply("a.cs", []byte(src), m.FindAll("a.cs", []byte(src)))
	require.NoError(t, err)
	assert.Equal(t, "class Article {\r\n\tpublic  long   Id  {get;set;}\t// int\r\n\tpublic int Other { get; set; }\r\n}", string(res.Content))
}

func TestApply_UnsortedInput(t *testing.T) {
	m := testMatcher(t)
	matches := m.FindAll("a.cs", []byte(article))
	require.Len(t, matches, 2)
	matches[0], matches[1] = matches[1], matches[0]

	res, err := Apply("a.cs", []byte(article), matches)
	require.NoError(t, err)
	assert.Equal(t, "Article.Id", res.Changes[0].Field)
}

func TestApply_Overlap(t *testing.T) {
	m := testMatcher(t)
	matches := m.FindAll("a.cs", []byte(article))
	require.NotEmpty(t, matches)
	dup := matches[0]
	dup.Field = "Shadow"

	res, err := Apply("a.cs", []byte(article), append(matches, dup))
	require.Error(t, err)
	assert.True(t, errs.IsAmbiguousDeclaration(err))
	assert.Equal(t, article, string(res.Content))
	assert.Empty(t, res.Changes)
}

func TestApply_StaleSpan(t *testing.T) {
	m := testMatcher(t)
	matches := m.FindAll("a.cs", []byte(article))
	require.NotEmpty(t, matches)

	changed := strings.Replace(article, "public int Id", "public Int Id", 1)
	_, err := Apply("a.cs", []byte(changed), matches)
	assert.True(t, errs.IsInvalidInput(err))

	bad := matches[0]
	bad.End = len(article) + 10
	_, err = Apply("a.cs", []byte(article), []matcher.Match{bad})
	assert.True(t, errs.IsInvalidInput(err))
}

func TestApply_NoMatches(t *testing.T) {
	res, err := Apply("a.cs", []byte(article), nil)
	require.NoError(t, err)
	assert.Equal(t, article, string(res.Content))
	assert.False(t, res.Changed())
}
