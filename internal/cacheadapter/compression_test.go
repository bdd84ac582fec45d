package cacheadapter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressor_SmallPayloadPassesThrough(t *testing.T) {
	c := NewCompressor(1024)
	small := []byte("short value")
	got := c.Compress(small)
	assert.Equal(t, small, got)
	assert.False(t, isGzip(got))
}

func TestCompressor_LargePayloadRoundTrips(t *testing.T) {
	c := NewCompressor(16)
	large := []byte(strings.Repeat("a highly compressible payload ", 100))

	compressed := c.Compress(large)
	assert.True(t, isGzip(compressed))
	assert.Less(t, len(compressed), len(large))

	out, err := c.Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, large, out)
}

func TestCompressor_IncompressibleDataKeptUncompressed(t *testing.T) {
	c := NewCompressor(4)
	// Random-looking short data that gzip would expand, not shrink.
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	compressed := c.Compress(data)
	// gzip overhead makes 5 bytes larger, so Compress keeps the original;
	// Decompress must still round-trip it.
	assert.Equal(t, data, compressed)
	out, err := c.Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}
