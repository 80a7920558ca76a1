package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBcryptHasher_Hash_and_Compare(t *testing.T) {
	h := NewBcryptHasher(4)
	hash, err := h.Hash("cancel-token")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "cancel-token", hash)

	require.NoError(t, h.Compare(hash, "cancel-token"))
	assert.Error(t, h.Compare(hash, "other-token"))
}

func TestBcryptHasher_LongSecrets(t *testing.T) {
	h := NewBcryptHasher(4)
	base := strings.Repeat("a", 100)
	hash, err := h.Hash(base + "1")
	require.NoError(t, err)

	assert.Error(t, h.Compare(hash, base+"2"))
}
