package cacheadapter

import (
	"bytes"
	"compress/gzip"
	"io"
)

// gzipMagic is the two leading bytes of every gzip stream, used to
// detect whether a stored payload was compressed without needing a
// sidecar flag.
var gzipMagic = []byte{0x1f, 0x8b}

// maxDecompressedBytes guards against decompression bombs.
const maxDecompressedBytes = 100 << 20

// Compressor gzips payloads above a size threshold; payloads at or
// below the threshold are stored as-is.
type Compressor struct {
	thresholdBytes int
}

func NewCompressor(thresholdBytes int) *Compressor {
	if thresholdBytes <= 0 {
		thresholdBytes = 1024
	}
	return &Compressor{thresholdBytes: thresholdBytes}
}

// Compress returns data unchanged when it's at or below the threshold,
// otherwise a gzip-compressed copy — unless compression didn't
// actually shrink it, in which case the original is kept.
func (c *Compressor) Compress(data []byte) []byte {
	if len(data) <= c.thresholdBytes {
		return data
	}

	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gzip.BestSpeed)
	if err != nil {
		return data
	}
	if _, err := w.Write(data); err != nil {
		return data
	}
	if err := w.Close(); err != nil {
		return data
	}

	if buf.Len() >= len(data) {
		return data
	}
	return buf.Bytes()
}

// Decompress reverses Compress, detecting whether the payload is gzip
// by its magic bytes rather than trusting a side channel.
func (c *Compressor) Decompress(data []byte) ([]byte, error) {
	if !isGzip(data) {
		return data, nil
	}

	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return io.ReadAll(io.LimitReader(r, maxDecompressedBytes))
}

func isGzip(data []byte) bool {
	return len(data) >= 2 && data[0] == gzipMagic[0] && data[1] == gzipMagic[1]
}
