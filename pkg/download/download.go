// SPDX-License-Identifier: Apache-2.0
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// ProgressCallback is called as bytes arrive.
// percent is a float between 0 and 1.
type ProgressCallback func(percent float64)

// Options configures the download
type Options struct {
	ProgressCallback ProgressCallback
	Headers          map[string]string
	Client           *http.Client
}

// File downloads url to dest with an optional progress callback
func File(ctx context.Context, url, dest string, progressCallback ProgressCallback) error {
	return FileWithOptions(ctx, url, dest, &Options{
		ProgressCallback: progressCallback,
	})
}

// FileWithOptions downloads url to dest. The body is written to a
// temporary file next to dest and renamed into place once complete, so
// dest never holds a partial download.
func FileWithOptions(ctx context.Context, url, dest string, opts *Options) error {
	log.Debugf("Downloading %s to %s", url, dest)

	if opts == nil {
		opts = &Options{}
	}
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	out, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".part-*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	tmp := out.Name()
	defer os.Remove(tmp)

	var body io.Reader = resp.Body
	if opts.ProgressCallback != nil && resp.ContentLength > 0 {
		body = &progressReader{
			reader:   resp.Body,
			total:    resp.ContentLength,
			callback: opts.ProgressCallback,
		}
	}

	if _, err := io.Copy(out, body); err != nil {
		out.Close()
		return fmt.Errorf("failed to save: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to save: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		return fmt.Errorf("failed to move download into place: %w", err)
	}

	if opts.ProgressCallback != nil {
		opts.ProgressCallback(1)
	}
	log.Debugf("Download complete: %s", dest)
	return nil
}

// progressReader reports the fraction of total read so far
type progressReader struct {
	reader   io.Reader
	total    int64
	read     int64
	callback ProgressCallback
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.read += int64(n)
		pct := float64(pr.read) / float64(pr.total)
		if pct > 1 {
			pct = 1
		}
		pr.callback(pct)
	}
	return n, err
}
