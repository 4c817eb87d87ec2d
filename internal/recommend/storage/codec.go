// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package storage

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"io"
)

// encodedArtifact is one artifact ready to be written.
type encodedArtifact struct {
	// Data is the gzip-compressed gob payload.
	Data []byte

	// Checksum is the hex SHA-256 of the uncompressed gob payload.
	Checksum string
}

// encodeArtifact serializes v with gob, checksums it and compresses it.
func encodeArtifact(v interface{}) (*encodedArtifact, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	rawData := buf.Bytes()
	hash := sha256.Sum256(rawData)

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(rawData); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return nil, fmt.Errorf("finalize compression: %w", err)
	}

	return &encodedArtifact{
		Data:     compressed.Bytes(),
		Checksum: hex.EncodeToString(hash[:]),
	}, nil
}

// decodeArtifact decompresses data, verifies it against checksum and decodes
// it into target.
func decodeArtifact(data []byte, checksum string, target interface{}) error {
	gzr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decompress: %w", err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // error on gzip close after read is not actionable

	rawData, err := io.ReadAll(gzr)
	if err != nil {
		return fmt.Errorf("read decompressed data: %w", err)
	}

	hash := sha256.Sum256(rawData)
	if got := hex.EncodeToString(hash[:]); got != checksum {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", checksum, got)
	}

	if err := gob.NewDecoder(bytes.NewReader(rawData)).Decode(target); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
