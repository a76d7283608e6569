package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeASCII(t *testing.T) {
	t.Parallel()

	t.Run("passes plain ascii through", func(t *testing.T) {
		require.Equal(t, "connection refused", SanitizeASCII("connection refused"))
	})

	t.Run("strips non-ascii runes", func(t *testing.T) {
		require.Equal(t, "error:  timeout", SanitizeASCII("error: üß timeout"))
	})

	t.Run("strips control characters", func(t *testing.T) {
		require.Equal(t, "ab", SanitizeASCII("a\x00\x1b\nb"))
	})

	t.Run("trims surrounding whitespace", func(t *testing.T) {
		require.Equal(t, "detail", SanitizeASCII("  detail \r\n"))
	})
}
