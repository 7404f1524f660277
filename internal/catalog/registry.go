package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/koustreak/idwiden/internal/errs"
)

// Types names the source type tokens that count as the narrow type and the
// token written for the wide type.
type Types struct {
	Narrow []string
	Wide   string
}

// DefaultTypes is int -> long.
func DefaultTypes() Types {
	return Types{
		Narrow: []string{"int", "Int32", "System.Int32"},
		Wide:   "long",
	}
}

// IsNarrow reports whether tok is one of the narrow type tokens.
func (t Types) IsNarrow(tok string) bool {
	for _, n := range t.Narrow {
		if n == tok {
			return true
		}
	}
	return false
}

// validate rejects token sets under which a rewritten declaration would match
// a source precondition again.
func (t Types) validate() error {
	if len(t.Narrow) == 0 {
		return errs.New(errs.ErrKindConfiguration, "no narrow type tokens configured")
	}
	if strings.TrimSpace(t.Wide) == "" {
		return errs.New(errs.ErrKindConfiguration, "no wide type token configured")
	}
	if t.IsNarrow(t.Wide) {
		return errs.Newf(errs.ErrKindConfiguration, "wide type %q is also listed as a narrow type", t.Wide)
	}
	return nil
}

// Registry is the ordered field pattern registry.
type Registry struct {
	table    *Table
	rules    []Rule
	warnings []string
}

// NewRegistry validates rules against table and orders them by specificity:
// exact names first, then suffixes from longest to shortest, declaration order
// breaking ties.
//
// A foreign-key rule whose entity is missing from table is a configuration
// error; the engine must not guess a width. Identical duplicate rules are
// merged (and reported through Warnings); duplicates that disagree on the
// target are rejected.
func NewRegistry(table *Table, rules []Rule) (*Registry, error) {
	reg := &Registry{table: table}
	seen := make(map[string]Rule, len(rules))

	for i, r := range rules {
		r.order = i
		if strings.TrimSpace(r.Name) == "" {
			return nil, errs.Newf(errs.ErrKindConfiguration, "rule #%d has an empty name", i+1)
		}
		if r.Match == 0 {
			r.Match = Exact
		}
		if err := reg.check(r); err != nil {
			return nil, err
		}
		if prev, dup := seen[r.key()]; dup {
			if !prev.sameTarget(r) {
				return nil, errs.Newf(errs.ErrKindConfiguration,
					"conflicting rules for %s %q: %s vs %s", r.Match, r.Name, prev, r)
			}
			reg.warnings = append(reg.warnings, fmt.Sprintf("duplicate rule %s ignored", r))
			continue
		}
		seen[r.key()] = r
		reg.rules = append(reg.rules, r)
	}

	sort.SliceStable(reg.rules, func(i, j int) bool {
		a, b := reg.rules[i], reg.rules[j]
		if a.Match != b.Match {
			return a.Match == Exact
		}
		if a.Match == Suffix && len(a.Name) != len(b.Name) {
			return len(a.Name) > len(b.Name)
		}
		return a.order < b.order
	})
	return reg, nil
}

func (reg *Registry) check(r Rule) error {
	switch r.Role {
	case PrimaryKey:
		if r.Entity != "" {
			return errs.Newf(errs.ErrKindConfiguration,
				"primary key rule %q must not name an entity; the declaring type decides", r.Name)
		}
	case ForeignKey:
		if r.Self {
			if r.Entity != "" {
				return errs.Newf(errs.ErrKindConfiguration, "rule %q sets both self and entity %q", r.Name, r.Entity)
			}
			return nil
		}
		if r.Entity == "" {
			return errs.Newf(errs.ErrKindConfiguration, "foreign key rule %q references no entity", r.Name)
		}
		if !reg.table.Has(r.Entity) {
			return errs.Newf(errs.ErrKindConfiguration,
				"rule %q references unknown entity %q", r.Name, r.Entity)
		}
	case PlainField:
		if r.Width != Narrow && r.Width != Wide {
			return errs.Newf(errs.ErrKindConfiguration, "plain field rule %q has no width", r.Name)
		}
	default:
		return errs.Newf(errs.ErrKindConfiguration, "rule %q has no role", r.Name)
	}
	return nil
}

// RulesFor returns, in specificity order, every rule whose name pattern
// matches field.
func (reg *Registry) RulesFor(field string) []Rule {
	var out []Rule
	for _, r := range reg.rules {
		if r.Matches(field) {
			out = append(out, r)
		}
	}
	return out
}

// Target resolves the width a rule demands for a field declared inside owner.
// ok is false when the width cannot be determined (owner is not a classified
// entity).
func (reg *Registry) Target(r Rule, owner string) (w Width, ok bool) {
	switch {
	case r.Role == PlainField:
		return r.Width, true
	case r.Role == ForeignKey && !r.Self:
		return reg.table.WidthOf(r.Entity)
	default:
		e, found := reg.table.Resolve(owner)
		if !found {
			return 0, false
		}
		return e.PrimaryKeyWidth, true
	}
}

// Rules returns the rules in specificity order.
func (reg *Registry) Rules() []Rule {
	return append([]Rule(nil), reg.rules...)
}

// Warnings lists non-fatal findings from construction (merged duplicates).
func (reg *Registry) Warnings() []string {
	return append([]string(nil), reg.warnings...)
}
