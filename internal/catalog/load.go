package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/koustreak/idwiden/internal/errs"
)

//go:embed default.yaml
var defaultCatalog []byte

// File is the on-disk catalog format.
//
//	types:
//	  narrow: [int, Int32]
//	  wide: long
//	suffixes: [Dto, Response]
//	entities:
//	  - {name: Article, key: wide}
//	rules:
//	  - {name: Id, role: primary_key}
//	  - {name: ArticleTypeId, match: suffix, role: foreign_key, entity: ArticleType}
type File struct {
	Types    TypesFile    `yaml:"types"`
	Suffixes []string     `yaml:"suffixes"`
	Entities []EntityFile `yaml:"entities"`
	Rules    []RuleFile   `yaml:"rules"`
}

type TypesFile struct {
	Narrow []string `yaml:"narrow"`
	Wide   string   `yaml:"wide"`
}

type EntityFile struct {
	Name string `yaml:"name"`
	Key  string `yaml:"key"`
}

type RuleFile struct {
	Name     string `yaml:"name"`
	Match    string `yaml:"match,omitempty"`
	Role     string `yaml:"role"`
	Entity   string `yaml:"entity,omitempty"`
	Self     bool   `yaml:"self,omitempty"`
	Width    string `yaml:"width,omitempty"`
	Nullable string `yaml:"nullable,omitempty"`
}

// Catalog bundles the immutable knowledge the matcher consults.
type Catalog struct {
	Types    Types
	Table    *Table
	Registry *Registry
}

// Parse decodes a catalog file. Unknown keys are rejected so that a typo in a
// rule does not silently drop it.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, errs.Wrap(errs.ErrKindConfiguration, "parsing catalog", err)
	}
	return &f, nil
}

// LoadFile reads and parses the catalog at path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConfiguration, fmt.Sprintf("reading catalog %s", path), err)
	}
	return Parse(data)
}

// DefaultFile returns the built-in catalog: the merged entity and foreign-key
// lists of the CMS int -> long migration.
func DefaultFile() *File {
	f, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded default is invalid: %v", err))
	}
	return f
}

// Load returns the catalog file at path, or the built-in one when path is empty.
func Load(path string) (*File, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultFile(), nil
	}
	return LoadFile(path)
}

// Override replaces or adds entity widths (e.g. from a live database) before
// the catalog is built. It returns one note per entity whose width changed.
func (f *File) Override(entities []Entity) []string {
	index := make(map[string]int, len(f.Entities))
	for i, e := range f.Entities {
		index[e.Name] = i
	}

	var notes []string
	for _, e := range entities {
		key := e.PrimaryKeyWidth.String()
		i, ok := index[e.Name]
		if !ok {
			f.Entities = append(f.Entities, EntityFile{Name: e.Name, Key: key})
			index[e.Name] = len(f.Entities) - 1
			continue
		}
		if !strings.EqualFold(f.Entities[i].Key, key) {
			notes = append(notes, fmt.Sprintf("entity %s: catalog says %s, database says %s",
				e.Name, f.Entities[i].Key, key))
			f.Entities[i].Key = key
		}
	}
	return notes
}

// Build validates f and assembles the immutable Catalog.
func Build(f *File) (*Catalog, error) {
	types := DefaultTypes()
	if len(f.Types.Narrow) > 0 {
		types.Narrow = append([]string(nil), f.Types.Narrow...)
	}
	if f.Types.Wide != "" {
		types.Wide = f.Types.Wide
	}
	if err := types.validate(); err != nil {
		return nil, err
	}

	entities := make([]Entity, 0, len(f.Entities))
	for _, ef := range f.Entities {
		w, err := ParseWidth(ef.Key)
		if err != nil {
			return nil, errs.Wrap(errs.ErrKindConfiguration, fmt.Sprintf("entity %q", ef.Name), err)
		}
		entities = append(entities, Entity{Name: ef.Name, PrimaryKeyWidth: w})
	}
	table, err := NewTable(entities, f.Suffixes)
	if err != nil {
		return nil, err
	}

	rules := make([]Rule, 0, len(f.Rules))
	for _, rf := range f.Rules {
		r, err := rf.rule()
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	reg, err := NewRegistry(table, rules)
	if err != nil {
		return nil, err
	}

	return &Catalog{Types: types, Table: table, Registry: reg}, nil
}

func (rf RuleFile) rule() (Rule, error) {
	wrap := func(err error) error {
		return errs.Wrap(errs.ErrKindConfiguration, fmt.Sprintf("rule %q", rf.Name), err)
	}
	role, err := ParseRole(rf.Role)
	if err != nil {
		return Rule{}, wrap(err)
	}
	match, err := ParseMatchKind(rf.Match)
	if err != nil {
		return Rule{}, wrap(err)
	}
	nullable, err := ParseNullability(rf.Nullable)
	if err != nil {
		return Rule{}, wrap(err)
	}
	var width Width
	if rf.Width != "" {
		if width, err = ParseWidth(rf.Width); err != nil {
			return Rule{}, wrap(err)
		}
	}
	return Rule{
		Name:     strings.TrimSpace(rf.Name),
		Match:    match,
		Role:     role,
		Entity:   strings.TrimSpace(rf.Entity),
		Self:     rf.Self,
		Width:    width,
		Nullable: nullable,
	}, nil
}
