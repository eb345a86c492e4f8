// digest.go: sha256 digests and the module allowlist
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package modfactory

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileDigest returns the hex encoded sha256 of the file at path.
func FileDigest(path string) (string, error) {
	file, err := os.Open(filepath.Clean(path)) // #nosec G304 - path comes from the scanned module directory
	if err != nil {
		return "", err
	}
	defer func() { _ = file.Close() }()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// DigestAllowlist maps a module file base name to its expected sha256 digest.
// An empty allowlist admits every file.
type DigestAllowlist map[string]string

// Enabled reports whether the allowlist restricts anything.
func (a DigestAllowlist) Enabled() bool {
	return len(a) > 0
}

// Verify checks digest for the file at path. Files missing from a non-empty
// allowlist are rejected as well.
func (a DigestAllowlist) Verify(path, digest string) error {
	if !a.Enabled() {
		return nil
	}
	expected, ok := a[filepath.Base(path)]
	if !ok || !strings.EqualFold(expected, digest) {
		return NewDigestMismatchError(path, expected, digest)
	}
	return nil
}
