package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_ContainsAllClasses(t *testing.T) {
	for i := 0; i < 50; i++ {
		secret, err := Generate(MinLength)
		require.NoError(t, err)

		assert.Len(t, secret, MinLength)
		assert.True(t, strings.ContainsAny(secret, lower), "missing lowercase: %q", secret)
		assert.True(t, strings.ContainsAny(secret, upper), "missing uppercase: %q", secret)
		assert.True(t, strings.ContainsAny(secret, digits), "missing digit: %q", secret)
		assert.True(t, strings.ContainsAny(secret, symbols), "missing symbol: %q", secret)
	}
}

func TestGenerate_RaisesShortLengths(t *testing.T) {
	secret, err := Generate(4)
	require.NoError(t, err)
	assert.Len(t, secret, MinLength)
}

func TestGenerate_LongerLengths(t *testing.T) {
	secret, err := Generate(32)
	require.NoError(t, err)
	assert.Len(t, secret, 32)
}

func TestGenerate_OnlyAlphabetCharacters(t *testing.T) {
	secret, err := Generate(20)
	require.NoError(t, err)

	for _, c := range secret {
		assert.Contains(t, alphabet, string(c))
	}
}

func TestGenerate_NotDeterministic(t *testing.T) {
	a, err := Generate(MinLength)
	require.NoError(t, err)
	b, err := Generate(MinLength)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}
