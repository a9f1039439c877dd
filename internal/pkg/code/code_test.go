package code

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_ShapeAlwaysValid(t *testing.T) {
	for i := 0; i < 100; i++ {
		c, err := Generate()
		require.NoError(t, err)
		assert.Len(t, c, Length)
		assert.True(t, Valid(c), "generated %q", c)
	}
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("0000"))
	assert.True(t, Valid("4821"))

	assert.False(t, Valid(""))
	assert.False(t, Valid("123"))
	assert.False(t, Valid("12345"))
	assert.False(t, Valid("12a4"))
	assert.False(t, Valid("12 4"))
	assert.False(t, Valid("١٢٣٤")) // non-ASCII digits
}
