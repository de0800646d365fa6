package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"trailerpos/internal/core/apperror"
)

// magic prefixes every encoded snapshot.
var magic = []byte("TPS1")

// Single-threaded encoder so equal documents encode to equal bytes.
var (
	encoder, _ = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1))
	decoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
)

// Encode serializes doc as JSON compressed with zstd behind a magic header.
func Encode(doc *Document) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}

	out := make([]byte, 0, len(magic)+len(raw)/4)
	out = append(out, magic...)
	return encoder.EncodeAll(raw, out), nil
}

// Decode parses a blob produced by Encode.
// A malformed blob is a validation error; nothing is partially applied.
func Decode(blob []byte) (*Document, error) {
	if !bytes.HasPrefix(blob, magic) {
		return nil, apperror.NewValidation("not a snapshot").
			WithDetail("reason", "missing header")
	}

	raw, err := decoder.DecodeAll(blob[len(magic):], nil)
	if err != nil {
		return nil, apperror.NewValidation("snapshot is corrupted").WithCause(err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, apperror.NewValidation("snapshot is not readable").WithCause(err)
	}
	if doc.Version != FormatVersion {
		return nil, apperror.NewValidation("unsupported snapshot version").
			WithDetail("version", doc.Version).
			WithDetail("supported", FormatVersion)
	}
	return &doc, nil
}
