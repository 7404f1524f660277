// Package schema derives entity key widths from a live database, so the
// entity table can follow the database instead of a hand-kept list.
package schema

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/koustreak/idwiden/internal/catalog"
	"github.com/koustreak/idwiden/internal/database"
	"github.com/koustreak/idwiden/internal/logger"
)

// Classify maps an information_schema data type to a key width. ok is false
// for types that are not integer keys (uuid, varchar, ...).
func Classify(dataType string) (w catalog.Width, ok bool) {
	t := strings.ToLower(strings.TrimSpace(dataType))
	t, _, _ = strings.Cut(t, "(")
	t = strings.TrimSuffix(strings.TrimSpace(t), " unsigned")
	switch t {
	case "bigint", "int8", "bigserial", "serial8":
		return catalog.Wide, true
	case "integer", "int", "int4", "serial", "serial4", "smallint", "int2", "mediumint", "tinyint", "smallserial":
		return catalog.Narrow, true
	}
	return 0, false
}

// Result is what a seeding pass found.
type Result struct {
	// Entities are the classified tables, named after the catalog entity
	// they map to when there is one.
	Entities []catalog.Entity

	// Skipped lists tables that could not be classified, with the reason.
	Skipped []string

	// Drift lists foreign-key columns narrower than the key they reference:
	// the database itself has not finished the migration.
	Drift []string
}

// Seeder reads a live schema through database.DB.
type Seeder struct {
	db  database.DB
	log *logger.Logger
}

// NewSeeder returns a seeder over db.
func NewSeeder(db database.DB, log *logger.Logger) *Seeder {
	if log == nil {
		log = logger.Nop()
	}
	return &Seeder{db: db, log: log.Component("schema")}
}

// Seed introspects the database and classifies every table with a
// single-column integer primary key. known are the entity names already in
// the catalog; a table maps to one of them when the names are equal ignoring
// case, underscores and a plural "s". Other tables are named in PascalCase.
func (s *Seeder) Seed(ctx context.Context, known []string) (*Result, error) {
	sch, err := s.db.InspectSchema(ctx)
	if err != nil {
		return nil, err
	}

	index := make(map[string]string, len(known))
	for _, name := range known {
		index[normalize(name)] = name
	}

	res := &Result{}
	widths := make(map[string]catalog.Width)
	seen := make(map[string]string)

	for _, tableName := range sch.TableNames() {
		table := sch.Tables[tableName]
		w, reason := keyWidth(table)
		if reason != "" {
			res.Skipped = append(res.Skipped, fmt.Sprintf("%s: %s", tableName, reason))
			continue
		}
		widths[tableName] = w

		entity := entityName(tableName, index)
		if prev, dup := seen[entity]; dup {
			res.Skipped = append(res.Skipped, fmt.Sprintf("%s: maps to %s, already taken by %s", tableName, entity, prev))
			continue
		}
		seen[entity] = tableName
		res.Entities = append(res.Entities, catalog.Entity{Name: entity, PrimaryKeyWidth: w})
	}

	for _, tableName := range sch.TableNames() {
		for _, fk := range sch.Tables[tableName].ForeignKeys {
			ref, ok := widths[fk.RefTable]
			if !ok || ref != catalog.Wide {
				continue
			}
			col := sch.Tables[tableName].Column(fk.Column)
			if col == nil {
				continue
			}
			if w, ok := Classify(col.DataType); ok && w == catalog.Narrow {
				res.Drift = append(res.Drift, fmt.Sprintf("%s.%s is %s but references %s.%s",
					tableName, fk.Column, col.DataType, fk.RefTable, fk.RefColumn))
			}
		}
	}

	sort.Slice(res.Entities, func(i, j int) bool { return res.Entities[i].Name < res.Entities[j].Name })
	s.log.InfoWith("schema seeded", map[string]any{
		"entities": len(res.Entities),
		"skipped":  len(res.Skipped),
		"drift":    len(res.Drift),
	})
	for _, d := range res.Drift {
		s.log.Warnf("foreign key drift: %s", d)
	}
	return res, nil
}

// keyWidth returns the width of a table's primary key, or why it has none.
func keyWidth(t *database.TableInfo) (catalog.Width, string) {
	switch len(t.PrimaryKey) {
	case 0:
		return 0, "no primary key"
	case 1:
	default:
		return 0, "composite primary key"
	}
	col := t.Column(t.PrimaryKey[0])
	if col == nil {
		return 0, "primary key column not found"
	}
	w, ok := Classify(col.DataType)
	if !ok {
		return 0, "non-integer primary key " + col.DataType
	}
	return w, ""
}

func entityName(table string, index map[string]string) string {
	n := normalize(table)
	if name, ok := index[n]; ok {
		return name
	}
	if stem, ok := strings.CutSuffix(n, "s"); ok {
		if name, ok := index[stem]; ok {
			return name
		}
	}
	return pascal(table)
}

func normalize(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "_", ""))
}

// pascal turns article_type into ArticleType; names without underscores keep
// their casing apart from the first letter.
func pascal(s string) string {
	var b strings.Builder
	for _, part := range strings.Split(s, "_") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}
