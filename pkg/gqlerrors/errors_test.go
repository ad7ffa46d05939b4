package gqlerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMissing(t *testing.T) {
	err := Missing("Conference:1", "name")
	assert.True(t, IsMissing(err))
	assert.False(t, IsMissing(Network("boom", nil)))
	assert.False(t, IsMissing(errors.New("plain error")))
}

func TestIsWithKind(t *testing.T) {
	assert.True(t, Is(Decode("bad json", nil), KindDecode))
	assert.False(t, Is(Decode("bad json", nil), KindNetwork))
}

func TestWrapPreservesGqlerrorsKind(t *testing.T) {
	original := Network("dial failed", errors.New("connection refused"))
	wrapped := Wrap(original, "transport stage")

	e := AsError(wrapped)
	if assert.NotNil(t, e) {
		assert.Equal(t, KindNetwork, e.Kind)
		assert.Contains(t, e.Message, "transport stage")
	}
}

func TestWrapPlainErrorBecomesProgramming(t *testing.T) {
	wrapped := Wrap(errors.New("unexpected nil"), "selection walk")
	e := AsError(wrapped)
	if assert.NotNil(t, e) {
		assert.Equal(t, KindProgramming, e.Kind)
	}
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("root cause")
	err := Network("failed", cause)
	assert.ErrorIs(t, err, cause)
}
