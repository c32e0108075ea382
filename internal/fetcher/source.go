package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Ntqsdigital/renewal/internal/config"
)

// Source resolves the configured workbook location (Google Drive file id,
// plain http(s) URL, or ftp URL), downloads it to the local cache path and
// validates the container structure. Any failure here is fatal to the run.
type Source struct {
	http Fetcher
	ftp  Fetcher
	cfg  config.SourceConfig
}

// NewSource creates a Source with default HTTP and FTP fetchers.
func NewSource(cfg config.SourceConfig) *Source {
	return &Source{
		http: NewHTTPFetcher(HTTPOptions{}),
		ftp:  NewFTPFetcher(FTPOptions{}),
		cfg:  cfg,
	}
}

// Fetch downloads the workbook and returns the local cache path.
func (s *Source) Fetch(ctx context.Context) (string, error) {
	if dir := filepath.Dir(s.cfg.CachePath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", eris.Wrap(err, "source: create cache dir")
		}
	}

	blob, err := s.download(ctx)
	if err != nil {
		return "", err
	}

	if err := ValidateWorkbook(blob); err != nil {
		return "", err
	}

	if err := os.WriteFile(s.cfg.CachePath, blob, 0o644); err != nil {
		return "", eris.Wrap(err, "source: write cache file")
	}

	zap.L().Info("workbook downloaded",
		zap.String("path", s.cfg.CachePath),
		zap.Int("bytes", len(blob)),
	)
	return s.cfg.CachePath, nil
}

func (s *Source) download(ctx context.Context) ([]byte, error) {
	if s.cfg.DriveFileID != "" {
		return s.downloadDrive(ctx, s.cfg.DriveFileID)
	}
	if s.cfg.URL == "" {
		return nil, eris.New("source: neither drive_file_id nor url configured")
	}

	u, err := url.Parse(s.cfg.URL)
	if err != nil {
		return nil, eris.Wrap(err, "source: parse url")
	}
	fetcher := s.http
	if u.Scheme == "ftp" {
		fetcher = s.ftp
	}
	return readAll(ctx, fetcher, s.cfg.URL)
}

// downloadDrive fetches a Drive file, retrying once through the virus-scan
// interstitial when the first response is not a workbook.
func (s *Source) downloadDrive(ctx context.Context, fileID string) ([]byte, error) {
	blob, err := readAll(ctx, s.http, DriveURL(fileID))
	if err != nil {
		return nil, err
	}
	if ValidateWorkbook(blob) == nil {
		return blob, nil
	}

	confirmURL := DriveConfirmURL(fileID, blob)
	if confirmURL == "" {
		return nil, eris.Wrapf(ErrNotWorkbook, "drive file %s", fileID)
	}

	zap.L().Debug("drive interstitial page, retrying with confirm token",
		zap.String("file_id", fileID),
	)
	return readAll(ctx, s.http, confirmURL)
}

func readAll(ctx context.Context, f Fetcher, url string) ([]byte, error) {
	body, err := f.Download(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck

	blob, err := io.ReadAll(body)
	if err != nil {
		return nil, eris.Wrap(err, "source: read body")
	}
	return blob, nil
}
