package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Message(t *testing.T) {
	cause := errors.New("permission denied")

	assert.Equal(t, "[read] open Article.cs", New(ErrKindRead, "open Article.cs").Error())
	assert.Equal(t, "[write] rename: permission denied", Wrap(ErrKindWrite, "rename", cause).Error())
	assert.Equal(t, `[configuration] rule "GhostId" references unknown entity "Ghost"`,
		Newf(ErrKindConfiguration, "rule %q references unknown entity %q", "GhostId", "Ghost").Error())
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		pred func(error) bool
	}{
		{"configuration", New(ErrKindConfiguration, "x"), IsConfiguration},
		{"read", New(ErrKindRead, "x"), IsRead},
		{"ambiguous", New(ErrKindAmbiguousDeclaration, "x"), IsAmbiguousDeclaration},
		{"write", New(ErrKindWrite, "x"), IsWrite},
		{"not found", New(ErrKindNotFound, "x"), IsNotFound},
		{"timeout", New(ErrKindTimeout, "x"), IsTimeout},
		{"connection", New(ErrKindConnectionFailed, "x"), IsConnectionFailed},
		{"query", New(ErrKindQueryFailed, "x"), IsQueryFailed},
		{"input", New(ErrKindInvalidInput, "x"), IsInvalidInput},
		{"permission", New(ErrKindPermissionDenied, "x"), IsPermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.pred(tt.err))
			assert.True(t, tt.pred(fmt.Errorf("outer: %w", tt.err)), "predicate must see through wrapping")
		})
	}
}

func TestKindOf_ForeignError(t *testing.T) {
	assert.Equal(t, ErrKindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, ErrKindUnknown, KindOf(nil))
	assert.Equal(t, "unknown", ErrKindUnknown.String())
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(ErrKindWrite, "write Article.cs", cause)
	assert.ErrorIs(t, err, cause)
}
