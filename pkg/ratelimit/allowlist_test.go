package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAllowlist(t *testing.T) {
	t.Run("Should accept IPs and CIDR ranges", func(t *testing.T) {
		a, err := NewAllowlist([]string{"127.0.0.1", "10.0.0.0/8", "::1"})

		require.NoError(t, err)
		assert.Equal(t, 3, a.Size())
	})

	t.Run("Should skip blank entries", func(t *testing.T) {
		a, err := NewAllowlist([]string{"", "  ", "127.0.0.1"})

		require.NoError(t, err)
		assert.Equal(t, 1, a.Size())
	})

	t.Run("Should reject an invalid IP", func(t *testing.T) {
		_, err := NewAllowlist([]string{"office-gateway"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid allowlist IP")
	})

	t.Run("Should reject an invalid CIDR", func(t *testing.T) {
		_, err := NewAllowlist([]string{"10.0.0.0/99"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid allowlist CIDR")
	})
}

func TestAllowlist_Contains(t *testing.T) {
	a, err := NewAllowlist([]string{"127.0.0.1", "10.0.0.0/8", "::1"})
	require.NoError(t, err)

	t.Run("Should match an exact IP", func(t *testing.T) {
		assert.True(t, a.Contains("127.0.0.1"))
		assert.True(t, a.Contains("::1"))
	})

	t.Run("Should match an address inside a CIDR range", func(t *testing.T) {
		assert.True(t, a.Contains("10.20.30.40"))
	})

	t.Run("Should not match outside addresses", func(t *testing.T) {
		assert.False(t, a.Contains("192.168.1.1"))
	})

	t.Run("Should never match an unparseable address", func(t *testing.T) {
		assert.False(t, a.Contains("not-an-ip"))
		assert.False(t, a.Contains(""))
	})

	t.Run("Should treat a nil allowlist as empty", func(t *testing.T) {
		var nilList *Allowlist
		assert.False(t, nilList.Contains("127.0.0.1"))
		assert.Zero(t, nilList.Size())
	})
}
