package fetcher

import (
	"fmt"
	"net/url"
	"regexp"
)

// DriveURL builds the direct-download URL for a Google Drive file id.
func DriveURL(fileID string) string {
	return fmt.Sprintf("https://drive.google.com/uc?id=%s&export=download", url.QueryEscape(fileID))
}

// driveConfirmRe extracts the virus-scan confirmation token Drive embeds
// in the interstitial HTML page it serves for larger files.
var driveConfirmRe = regexp.MustCompile(`confirm=([0-9A-Za-z_-]+)`)

// DriveConfirmURL returns the retry URL for an interstitial page, or ""
// when the page carries no confirmation token (e.g. a plain error page for
// a bad file id).
func DriveConfirmURL(fileID string, page []byte) string {
	m := driveConfirmRe.FindSubmatch(page)
	if m == nil {
		return ""
	}
	return fmt.Sprintf("https://drive.google.com/uc?id=%s&export=download&confirm=%s",
		url.QueryEscape(fileID), string(m[1]))
}
