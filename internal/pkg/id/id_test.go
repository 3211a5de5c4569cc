package id

import (
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_IsParseableAndUnique(t *testing.T) {
	a, b := New(), New()
	assert.NotEqual(t, a, b)
	_, err := ulid.Parse(a)
	require.NoError(t, err)
}

func TestPrefixed(t *testing.T) {
	v := Prefixed("payload")
	require.True(t, strings.HasPrefix(v, "payload_"))
	_, err := ulid.Parse(strings.TrimPrefix(v, "payload_"))
	assert.NoError(t, err)
}

func TestNew_SortsInCreationOrder(t *testing.T) {
	prev := New()
	for i := 0; i < 1000; i++ {
		next := New()
		require.Less(t, prev, next)
		prev = next
	}
}
