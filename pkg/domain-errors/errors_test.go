package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	t.Run("nil passes through", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeInternal, "should not appear"))
	})

	t.Run("cause stays reachable through the chain", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Wrap(cause, CodeUnavailable, "agent unreachable")

		require.Error(t, err)
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestHasCode(t *testing.T) {
	err := New(CodeNotFound, "no such session")

	assert.True(t, HasCode(err, CodeNotFound))
	assert.False(t, HasCode(err, CodeConflict))
	assert.False(t, HasCode(errors.New("plain"), CodeNotFound))
	assert.False(t, HasCode(nil, CodeNotFound))
}

func TestHasCodeThroughFmtWrap(t *testing.T) {
	inner := New(CodeConflict, "already claimed")
	outer := fmt.Errorf("claim step: %w", inner)

	assert.True(t, HasCode(outer, CodeConflict))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeUnauthorized, CodeOf(New(CodeUnauthorized, "bad token")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("uncoded")))
	assert.Equal(t, CodeInternal, CodeOf(nil))
}

func TestNewf(t *testing.T) {
	err := Newf(CodeInvalidInput, "unknown route %q", "/exn/other")
	assert.Equal(t, `invalid_input: unknown route "/exn/other"`, err.Error())
}
