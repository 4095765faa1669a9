package simerror

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesKindThroughWrap(t *testing.T) {
	base := errors.New("singular matrix")
	wrapped := Wrap(LinearSolveFailed, base, "factoring Jacobian")

	assert.True(t, Is(wrapped, LinearSolveFailed))
	assert.False(t, Is(wrapped, DidNotConverge))
}

func TestWrapOfNilIsNil(t *testing.T) {
	assert.Nil(t, Wrap(ParseError, nil, "ignored"))
}

func TestErrorMessageIncludesKindAndCause(t *testing.T) {
	err := Wrap(ICFailed, errors.New("boom"), "consistent IC")
	assert.Contains(t, err.Error(), "ICFailed")
	assert.Contains(t, err.Error(), "consistent IC")
	assert.Contains(t, err.Error(), "boom")
}
