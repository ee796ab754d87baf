package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAs_FindsWrappedError(t *testing.T) {
	base := NotFound("Listing not found")
	wrapped := fmt.Errorf("get listing: %w", base)

	e, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, e.Status)
	assert.Equal(t, "Listing not found", e.Message)
}

func TestInternal_UnwrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	e := Internal("Server error", cause)
	assert.ErrorIs(t, e, cause)
	assert.Equal(t, "Server error: connection reset", e.Error())
}

func TestAs_PlainError(t *testing.T) {
	_, ok := As(errors.New("boom"))
	assert.False(t, ok)
}
