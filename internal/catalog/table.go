// Package catalog holds the two read-only knowledge bases the rewrite engine
// consults: the entity classification table (which entities use the wide type
// for their primary key) and the field pattern registry (which field names are
// keys, and which entity they point at).
//
// Both are built once at startup from a catalog file and never mutated; a
// *Catalog is safe to share between goroutines.
package catalog

import (
	"sort"
	"strings"

	"github.com/koustreak/idwiden/internal/errs"
)

// Width is the numeric width of an entity's primary key.
type Width int

const (
	Narrow Width = iota + 1
	Wide
)

func (w Width) String() string {
	switch w {
	case Narrow:
		return "narrow"
	case Wide:
		return "wide"
	default:
		return "unset"
	}
}

// ParseWidth accepts "narrow" or "wide" (case-insensitive).
func ParseWidth(s string) (Width, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "narrow":
		return Narrow, nil
	case "wide":
		return Wide, nil
	}
	return 0, errs.Newf(errs.ErrKindConfiguration, "invalid width %q (want narrow or wide)", s)
}

// Entity describes one persisted entity and the width of its primary key.
type Entity struct {
	Name            string
	PrimaryKeyWidth Width
}

// Table is the entity classification table. Lookups are O(1); there is no
// mutation API.
type Table struct {
	byName   map[string]Entity
	suffixes []string
}

// NewTable indexes entities by name. Model suffixes (e.g. "Dto") are stripped
// by Resolve when mapping a declaring type back to its entity.
func NewTable(entities []Entity, suffixes []string) (*Table, error) {
	t := &Table{
		byName:   make(map[string]Entity, len(entities)),
		suffixes: append([]string(nil), suffixes...),
	}
	for _, e := range entities {
		if strings.TrimSpace(e.Name) == "" {
			return nil, errs.New(errs.ErrKindConfiguration, "entity with empty name")
		}
		if e.PrimaryKeyWidth != Narrow && e.PrimaryKeyWidth != Wide {
			return nil, errs.Newf(errs.ErrKindConfiguration, "entity %q has no primary key width", e.Name)
		}
		if _, dup := t.byName[e.Name]; dup {
			return nil, errs.Newf(errs.ErrKindConfiguration, "entity %q declared twice", e.Name)
		}
		t.byName[e.Name] = e
	}
	// Longest suffix first so "ViewModel" wins over "Model".
	sort.SliceStable(t.suffixes, func(i, j int) bool {
		return len(t.suffixes[i]) > len(t.suffixes[j])
	})
	return t, nil
}

// WidthOf returns the primary-key width of the named entity.
func (t *Table) WidthOf(name string) (Width, bool) {
	e, ok := t.byName[name]
	return e.PrimaryKeyWidth, ok
}

// Has reports whether the entity is classified.
func (t *Table) Has(name string) bool {
	_, ok := t.byName[name]
	return ok
}

// Resolve maps a declaring type name (class, record, struct) to an entity.
// The exact name is tried first, then the name with one model suffix removed,
// so ArticleDto and ArticleResponse both resolve to Article.
func (t *Table) Resolve(typeName string) (Entity, bool) {
	if e, ok := t.byName[typeName]; ok {
		return e, true
	}
	for _, suffix := range t.suffixes {
		base, found := strings.CutSuffix(typeName, suffix)
		if !found || base == "" {
			continue
		}
		if e, ok := t.byName[base]; ok {
			return e, true
		}
	}
	return Entity{}, false
}

// Entities returns all entities sorted by name.
func (t *Table) Entities() []Entity {
	out := make([]Entity, 0, len(t.byName))
	for _, e := range t.byName {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of classified entities.
func (t *Table) Len() int {
	return len(t.byName)
}
