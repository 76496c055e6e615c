// SPDX-License-Identifier: Apache-2.0
package util

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/ulikunitz/xz"
)

// DecompressXZ decompresses an xz file to dst
func DecompressXZ(src, dst string, mode os.FileMode) error {
	return DecompressXZWithProgress(src, dst, mode, nil)
}

// DecompressXZWithProgress decompresses src to dst, reporting the
// fraction of compressed input consumed
func DecompressXZWithProgress(src, dst string, mode os.FileMode, progressCallback func(float64)) error {
	log.Debugf("Decompressing %s to %s", src, dst)

	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open compressed file: %w", err)
	}
	defer srcFile.Close()

	var reader io.Reader = srcFile
	if progressCallback != nil {
		info, err := srcFile.Stat()
		if err != nil {
			return fmt.Errorf("failed to stat compressed file: %w", err)
		}
		if info.Size() > 0 {
			reader = &progressReader{
				reader:   srcFile,
				total:    info.Size(),
				callback: progressCallback,
				lastPct:  -1,
			}
		}
	}

	xzReader, err := xz.NewReader(reader)
	if err != nil {
		return fmt.Errorf("failed to create xz reader: %w", err)
	}

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if _, err := io.Copy(dstFile, xzReader); err != nil {
		dstFile.Close()
		os.Remove(dst)
		return fmt.Errorf("failed to decompress: %w", err)
	}
	if err := dstFile.Close(); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	log.Debugf("Decompressed %s", dst)
	return nil
}

// progressReader reports progress in whole-percent steps
type progressReader struct {
	reader   io.Reader
	total    int64
	read     int64
	callback func(float64)
	lastPct  float64
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	pr.read += int64(n)
	pct := float64(pr.read) / float64(pr.total)
	if pct-pr.lastPct >= 0.01 || (err == io.EOF && pct != pr.lastPct) {
		pr.lastPct = pct
		pr.callback(pct)
	}
	return n, err
}
