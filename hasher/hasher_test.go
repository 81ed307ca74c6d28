package hasher_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/redq/hasher"
)

func TestHashAndCompare(t *testing.T) {
	hash, err := hasher.Hash("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.True(t, hasher.Compare("s3cret", hash))
	assert.False(t, hasher.Compare("other", hash))
	assert.False(t, hasher.Compare("s3cret", "not-a-hash"))
}
