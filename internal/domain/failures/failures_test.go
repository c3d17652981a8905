package failures

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap_KeepsCauseAndKind(t *testing.T) {
	cause := errors.New("connection refused")

	err := Wrap(EmbeddingFailure, cause, "embedding question")

	require.Error(t, err)
	assert.Equal(t, EmbeddingFailure, KindOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "EmbeddingFailure: embedding question: connection refused", err.Error())
}

func TestWrap_NilErr(t *testing.T) {
	assert.NoError(t, Wrap(SearchFailure, nil, "searching"))
}

func TestKindOf_SeesThroughFmtWrapping(t *testing.T) {
	err := fmt.Errorf("handling request: %w", New(InvalidInput, "question must not be empty"))

	assert.True(t, Is(err, InvalidInput))
	assert.False(t, Is(err, CompletionFailure))
	assert.Equal(t, "question must not be empty", DetailOf(err))
}

func TestKindOf_Unclassified(t *testing.T) {
	err := errors.New("plain")

	assert.Equal(t, Kind(""), KindOf(err))
	assert.Equal(t, "plain", DetailOf(err))
	assert.False(t, Is(nil, InvalidInput))
}

func TestNewf(t *testing.T) {
	err := Newf(UnsupportedFormat, "unsupported file type %q", ".exe")

	assert.Equal(t, `UnsupportedFormat: unsupported file type ".exe"`, err.Error())
}
