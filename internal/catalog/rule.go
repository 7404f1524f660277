package catalog

import (
	"fmt"
	"strings"

	"github.com/koustreak/idwiden/internal/errs"
)

// Role is the semantic role of a field matched by a rule.
type Role int

const (
	PrimaryKey Role = iota + 1
	ForeignKey
	PlainField
)

func (r Role) String() string {
	switch r {
	case PrimaryKey:
		return "primary_key"
	case ForeignKey:
		return "foreign_key"
	case PlainField:
		return "plain_field"
	default:
		return "unset"
	}
}

// ParseRole accepts primary_key, foreign_key or plain_field (also pk/fk/plain).
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "primary_key", "pk":
		return PrimaryKey, nil
	case "foreign_key", "fk":
		return ForeignKey, nil
	case "plain_field", "plain":
		return PlainField, nil
	}
	return 0, errs.Newf(errs.ErrKindConfiguration, "invalid role %q", s)
}

// MatchKind controls how a rule's name is compared with a field name.
type MatchKind int

const (
	Exact MatchKind = iota + 1
	Suffix
)

func (m MatchKind) String() string {
	switch m {
	case Exact:
		return "exact"
	case Suffix:
		return "suffix"
	default:
		return "unset"
	}
}

// ParseMatchKind accepts exact or suffix. Empty means exact.
func ParseMatchKind(s string) (MatchKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exact":
		return Exact, nil
	case "suffix":
		return Suffix, nil
	}
	return 0, errs.Newf(errs.ErrKindConfiguration, "invalid match kind %q", s)
}

// Nullability is the source-nullability precondition of a rule.
type Nullability int

const (
	AnyNullability Nullability = iota
	Required                   // declared without the nullable marker
	Optional                   // declared with the nullable marker
)

func (n Nullability) String() string {
	switch n {
	case Required:
		return "required"
	case Optional:
		return "optional"
	default:
		return "any"
	}
}

// ParseNullability accepts any, required or optional. Empty means any.
func ParseNullability(s string) (Nullability, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any":
		return AnyNullability, nil
	case "required", "false":
		return Required, nil
	case "optional", "true":
		return Optional, nil
	}
	return 0, errs.Newf(errs.ErrKindConfiguration, "invalid nullability %q", s)
}

// Allows reports whether a declaration with the given nullability satisfies n.
func (n Nullability) Allows(nullable bool) bool {
	switch n {
	case Required:
		return !nullable
	case Optional:
		return nullable
	default:
		return true
	}
}

// Rule associates a field-name pattern with a role.
//
// For ForeignKey rules the target width comes from Entity (or from the
// declaring entity when Self is set); for PrimaryKey rules it comes from the
// declaring entity; PlainField rules carry an explicit Width.
type Rule struct {
	Name     string
	Match    MatchKind
	Role     Role
	Entity   string
	Self     bool
	Width    Width
	Nullable Nullability

	order int
}

// Matches reports whether field satisfies the rule's name pattern.
func (r Rule) Matches(field string) bool {
	switch r.Match {
	case Suffix:
		return strings.HasSuffix(field, r.Name)
	default:
		return field == r.Name
	}
}

// key identifies a rule's name pattern for duplicate detection.
func (r Rule) key() string {
	return r.Match.String() + ":" + r.Name
}

// sameTarget reports whether two rules with the same pattern would resolve to
// the same target.
func (r Rule) sameTarget(o Rule) bool {
	return r.Role == o.Role && r.Entity == o.Entity && r.Self == o.Self &&
		r.Width == o.Width && r.Nullable == o.Nullable
}

func (r Rule) String() string {
	target := ""
	switch {
	case r.Role == PlainField:
		target = " -> " + r.Width.String()
	case r.Self:
		target = " -> (self)"
	case r.Entity != "":
		target = " -> " + r.Entity
	}
	return fmt.Sprintf("%s %s [%s, %s]%s", r.Match, r.Name, r.Role, r.Nullable, target)
}
