package cache

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"printora-backend/pkg/errors"
)

func TestCodec_Encode(t *testing.T) {
	t.Run("Should skip compression below the threshold", func(t *testing.T) {
		codec := NewCodec(100, zap.NewNop())

		data := []byte(`{"id":"tpl-1"}`)
		encoded, method, err := codec.Encode(data)

		assert.NoError(t, err)
		assert.Equal(t, CompressionNone, method)
		assert.Equal(t, data, encoded)
	})

	t.Run("Should compress compressible payloads with gzip", func(t *testing.T) {
		codec := NewCodec(100, zap.NewNop())

		data := []byte(strings.Repeat(`{"sku":"poster-a2","price":1999}`, 50))
		encoded, method, err := codec.Encode(data)

		assert.NoError(t, err)
		assert.Equal(t, CompressionGzip, method)
		assert.Less(t, len(encoded), len(data))
	})

	t.Run("Should store incompressible payloads uncompressed", func(t *testing.T) {
		codec := NewCodec(100, zap.NewNop())

		data := make([]byte, 4096)
		rng := rand.New(rand.NewSource(42))
		rng.Read(data)

		encoded, method, err := codec.Encode(data)

		assert.NoError(t, err)
		assert.Equal(t, CompressionNone, method)
		assert.Equal(t, data, encoded)
	})
}

func TestCodec_RoundTrip(t *testing.T) {
	t.Run("Should round trip through gzip", func(t *testing.T) {
		codec := NewCodec(10, zap.NewNop())

		data := []byte(strings.Repeat("printora template catalog ", 40))
		encoded, method, err := codec.Encode(data)
		require.NoError(t, err)
		require.Equal(t, CompressionGzip, method)

		decoded, err := codec.Decode(encoded, method)
		require.NoError(t, err)
		assert.Equal(t, data, decoded)
	})

	t.Run("Should round trip through snappy", func(t *testing.T) {
		comp := snappyCompressor{}

		data := []byte(strings.Repeat("order status pending ", 30))
		encoded, err := comp.Compress(data)
		require.NoError(t, err)

		codec := NewCodec(10, zap.NewNop())
		decoded, err := codec.Decode(encoded, CompressionSnappy)
		require.NoError(t, err)
		assert.Equal(t, data, decoded)
	})

	t.Run("Should pass uncompressed data through untouched", func(t *testing.T) {
		codec := NewCodec(10, zap.NewNop())

		data := []byte(`{"plain":true}`)
		decoded, err := codec.Decode(data, CompressionNone)

		assert.NoError(t, err)
		assert.Equal(t, data, decoded)
	})
}

func TestCodec_Decode(t *testing.T) {
	t.Run("Should reject an unknown method", func(t *testing.T) {
		codec := NewCodec(10, zap.NewNop())

		_, err := codec.Decode([]byte("data"), CompressionMethod("zstd"))

		assert.Error(t, err)
		assert.True(t, errors.IsCompressionFailure(err))
	})

	t.Run("Should surface corrupt gzip data as a compression failure", func(t *testing.T) {
		codec := NewCodec(10, zap.NewNop())

		_, err := codec.Decode([]byte("definitely not gzip"), CompressionGzip)

		assert.Error(t, err)
		assert.True(t, errors.IsCompressionFailure(err))
	})

	t.Run("Should surface corrupt snappy data as a compression failure", func(t *testing.T) {
		codec := NewCodec(10, zap.NewNop())

		_, err := codec.Decode([]byte{0xff, 0x06, 0x00, 0x00}, CompressionSnappy)

		assert.Error(t, err)
		assert.True(t, errors.IsCompressionFailure(err))
	})
}
