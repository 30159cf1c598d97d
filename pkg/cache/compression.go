package cache

import (
	"bytes"
	"fmt"
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"printora-backend/pkg/errors"
)

// CompressionMethod identifies how an entry's bytes were encoded. The method
// is recorded on every entry so decompression dispatches on what was actually
// stored, never on current configuration.
type CompressionMethod string

const (
	CompressionNone   CompressionMethod = "none"
	CompressionGzip   CompressionMethod = "gzip"
	CompressionSnappy CompressionMethod = "snappy"
)

// DefaultCompressionThreshold is the payload size in bytes below which
// compression is skipped entirely.
const DefaultCompressionThreshold = 4000

// compressor is one strategy in the codec chain.
type compressor interface {
	Method() CompressionMethod
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

type gzipCompressor struct{}

func (gzipCompressor) Method() CompressionMethod { return CompressionGzip }

func (gzipCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, fmt.Errorf("gzip write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gzip close: %w", err)
	}
	return buf.Bytes(), nil
}

func (gzipCompressor) Decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip reader: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gzip read: %w", err)
	}
	return out, nil
}

type snappyCompressor struct{}

func (snappyCompressor) Method() CompressionMethod { return CompressionSnappy }

func (snappyCompressor) Compress(data []byte) ([]byte, error) {
	return snappy.Encode(nil, data), nil
}

func (snappyCompressor) Decompress(data []byte) ([]byte, error) {
	out, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("snappy decode: %w", err)
	}
	return out, nil
}

// Codec compresses payloads above a size threshold by trying an ordered list
// of strategies. The first strategy that succeeds and actually shrinks the
// payload wins; when every strategy fails the payload is kept uncompressed
// and the failure is reported alongside the still-usable result.
type Codec struct {
	threshold int
	chain     []compressor
	logger    *zap.Logger
}

// NewCodec creates a codec with the gzip-then-snappy strategy chain.
func NewCodec(threshold int, logger *zap.Logger) *Codec {
	if threshold <= 0 {
		threshold = DefaultCompressionThreshold
	}
	return &Codec{
		threshold: threshold,
		chain:     []compressor{gzipCompressor{}, snappyCompressor{}},
		logger:    logger,
	}
}

// Threshold returns the minimum payload size that triggers compression.
func (c *Codec) Threshold() int { return c.threshold }

// Encode returns the bytes to store and the method that produced them.
// A non-nil error with a usable result means every strategy failed and the
// payload is stored uncompressed; callers log it and carry on.
func (c *Codec) Encode(data []byte) ([]byte, CompressionMethod, error) {
	if len(data) < c.threshold {
		return data, CompressionNone, nil
	}

	var lastErr error
	for _, comp := range c.chain {
		encoded, err := comp.Compress(data)
		if err != nil {
			lastErr = errors.NewCompressionFailureError(string(comp.Method()), err)
			c.logger.Warn("Compression strategy failed",
				zap.String("method", string(comp.Method())),
				zap.Int("size", len(data)),
				zap.Error(err),
			)
			continue
		}
		if len(encoded) >= len(data) {
			// Incompressible payload; storing the original is smaller.
			return data, CompressionNone, nil
		}
		return encoded, comp.Method(), nil
	}

	return data, CompressionNone, lastErr
}

// Decode reverses Encode for the recorded method. An unknown method is an
// explicit error, never a silent pass-through.
func (c *Codec) Decode(data []byte, method CompressionMethod) ([]byte, error) {
	if method == CompressionNone {
		return data, nil
	}
	for _, comp := range c.chain {
		if comp.Method() != method {
			continue
		}
		out, err := comp.Decompress(data)
		if err != nil {
			return nil, errors.NewCompressionFailureError(string(method), err)
		}
		return out, nil
	}
	return nil, errors.NewUnknownCompressionMethodError(string(method))
}
