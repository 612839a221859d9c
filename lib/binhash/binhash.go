// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package binhash fingerprints workload executables. The launcher
// logs the digest of the binary it starts and stamps it into the power
// trace header, so a trace can be tied to the exact build that
// produced it.
//
// Digests are 32-byte BLAKE3 hashes of the file content, rendered as
// lowercase hex.
package binhash

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// HashFile returns the BLAKE3 digest of the file at path.
func HashFile(path string) ([32]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return [32]byte{}, fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return [32]byte{}, fmt.Errorf("hashing %s: %w", path, err)
	}

	var digest [32]byte
	copy(digest[:], hasher.Sum(nil))
	return digest, nil
}

// FormatDigest returns the lowercase hex form of digest.
func FormatDigest(digest [32]byte) string {
	return hex.EncodeToString(digest[:])
}
