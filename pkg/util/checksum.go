// SPDX-License-Identifier: Apache-2.0
package util

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// VerifySHA256 checks filePath against the entry for name in sums
func VerifySHA256(filePath, name string, sums map[string]string) error {
	log.Debugf("Verifying SHA256 checksum for %s", name)

	expected, found := sums[name]
	if !found {
		return fmt.Errorf("file %s not found in checksums", name)
	}

	actual, err := CalculateSHA256(filePath)
	if err != nil {
		return fmt.Errorf("failed to calculate file hash: %w", err)
	}

	if !strings.EqualFold(actual, expected) {
		return fmt.Errorf("checksum mismatch for %s: expected %s, got %s", name, expected, actual)
	}

	log.Debugf("Checksum verified for %s", name)
	return nil
}

// CalculateSHA256 calculates the SHA256 hash of a file
func CalculateSHA256(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", fmt.Errorf("failed to calculate hash: %w", err)
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}

// ParseSHA256SUMS reads "hash  filename" lines into filename -> hash.
// A leading '*' on the filename (binary mode) is dropped.
func ParseSHA256SUMS(r io.Reader) (map[string]string, error) {
	checksums := make(map[string]string)
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		checksums[strings.TrimPrefix(parts[1], "*")] = parts[0]
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read checksums: %w", err)
	}
	return checksums, nil
}
