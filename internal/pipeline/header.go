package pipeline

import (
	"strings"

	"go.uber.org/zap"
)

// headerTokens are the coarse markers that identify a header row. Any one
// of them appearing anywhere in the joined, lower-cased row text is enough;
// the locator takes the first matching row without scoring.
var headerTokens = []string{
	"expiry", "email", "name", "file", "due", "end",
	"expires", "client", "contact", "service", "business", "path",
}

// DefaultMaxHeaderScan bounds how many leading rows the locator inspects.
const DefaultMaxHeaderScan = 50

// LocateHeader finds the row most likely to be the header by scanning at
// most maxScan leading rows for known column tokens. Returns the row index
// and whether the match is confident. When no row matches, row 0 is used
// as a best-effort header and confident is false; callers log this at warn
// and proceed.
func LocateHeader(rows [][]string, maxScan int) (int, bool) {
	if maxScan <= 0 {
		maxScan = DefaultMaxHeaderScan
	}
	if maxScan > len(rows) {
		maxScan = len(rows)
	}

	for i := 0; i < maxScan; i++ {
		joined := strings.ToLower(strings.Join(rows[i], " "))
		for _, tok := range headerTokens {
			if strings.Contains(joined, tok) {
				zap.L().Debug("header located",
					zap.Int("row", i),
					zap.String("token", tok),
				)
				return i, true
			}
		}
	}

	return 0, false
}
