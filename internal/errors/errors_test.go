package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMalformed(t *testing.T) {
	err := Malformed("method %s references %s", "save", "R")
	require.NotNil(t, err)
	assert.Equal(t, "method save references R", err.Error())
	assert.True(t, Is(err, ErrMalformedDeclaration))
	assert.False(t, Is(err, ErrUnsupportedPattern))
	assert.False(t, IsFatal(err))
	assert.True(t, IsRecoverable(err))
}

func TestMarkSurvivesWrap(t *testing.T) {
	err := Wrap(Malformed("bad"), "analyzing Repo")
	assert.True(t, Is(err, ErrMalformedDeclaration))
	assert.Contains(t, err.Error(), "analyzing Repo")
}

func TestCountMismatchIsFatal(t *testing.T) {
	err := Wrapf(CountMismatch("method %s: %d != %d", "map", 1, 2), "planning %s", "Repo")
	assert.True(t, Is(err, ErrParameterCountMismatch))
	assert.True(t, IsFatal(err))
	assert.False(t, IsRecoverable(err))
}

func TestUnsupported(t *testing.T) {
	err := Unsupported("recursive-bound")
	assert.True(t, Is(err, ErrUnsupportedPattern))
	assert.Contains(t, err.Error(), "recursive-bound")
	assert.False(t, IsFatal(err))
}

func TestUnresolvable(t *testing.T) {
	err := Unresolvable("no default for %s", "Instant")
	assert.True(t, Is(err, ErrUnresolvableDefault))
	assert.True(t, IsRecoverable(err))
}

func TestHints(t *testing.T) {
	err := WithHint(Malformed("unknown type parameter Tt"), "did you mean T?")
	assert.Equal(t, []string{"did you mean T?"}, GetAllHints(err))
	assert.True(t, Is(err, ErrMalformedDeclaration))
}

func TestNilIsNeitherFatalNorRecoverable(t *testing.T) {
	assert.False(t, IsFatal(nil))
	assert.False(t, IsRecoverable(nil))
}

func TestWithMember(t *testing.T) {
	err := Wrapf(WithMember(Malformed("unknown type parameter R"), "save"), "analyzing %s", "Repo")
	assert.Equal(t, "save", Member(err))
	assert.Equal(t, "analyzing Repo: unknown type parameter R", err.Error())
	assert.True(t, Is(err, ErrMalformedDeclaration))

	assert.Empty(t, Member(Malformed("bad")))
	assert.Nil(t, WithMember(nil, "save"))
	plain := Malformed("bad")
	assert.Equal(t, plain, WithMember(plain, ""))
}
