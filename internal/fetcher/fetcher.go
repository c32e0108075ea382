// Package fetcher downloads the agreements workbook and decodes it into a
// raw table.
package fetcher

import (
	"bytes"
	"context"
	"io"

	"github.com/rotisserie/eris"
)

// Fetcher defines the interface for downloading remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to the given path.
	// Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}

// xlsxMagic is the ZIP local-file-header signature; every xlsx container
// starts with it. Google Drive answers bad file ids with an HTML error
// page and status 200, so structural validation happens before decoding.
var xlsxMagic = []byte("PK\x03\x04")

// ErrNotWorkbook marks a downloaded blob that is not an xlsx container.
var ErrNotWorkbook = eris.New("fetcher: downloaded file is not an xlsx workbook")

// ValidateWorkbook checks the blob's leading magic bytes.
func ValidateWorkbook(blob []byte) error {
	if len(blob) < len(xlsxMagic) || !bytes.HasPrefix(blob, xlsxMagic) {
		return ErrNotWorkbook
	}
	return nil
}
