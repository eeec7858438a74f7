package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTokenID(t *testing.T) {
	id, err := ParseTokenID("42")
	require.NoError(t, err)
	assert.Equal(t, TokenID(42), id)
	assert.Equal(t, "42", id.String())
	assert.False(t, id.IsNil())

	_, err = ParseTokenID("0")
	assert.Error(t, err, "zero is the nil sentinel")

	_, err = ParseTokenID("abc")
	assert.Error(t, err)

	_, err = ParseTokenID("-1")
	assert.Error(t, err)
}

func TestAddressNormalization(t *testing.T) {
	assert.Equal(t, Address("alice"), NewAddress("  Alice "))
	assert.Equal(t, NewAddress("ALICE"), NewAddress("alice"))

	assert.True(t, NewAddress("   ").IsZero())
	assert.True(t, ZeroAddress.IsZero())
	assert.False(t, NewAddress("bob").IsZero())
}
