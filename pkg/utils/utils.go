package utils

import (
	"net/url"
	"regexp"
)

var numericRegex = regexp.MustCompile(`^\d+$`)

// GetURLPattern collapses numeric query values to "~" so URLs that differ
// only by an ID count as one pattern for crawl dedup.
func GetURLPattern(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	q := u.Query()
	if len(q) == 0 {
		return rawURL
	}

	for k, v := range q {
		if len(v) > 0 && numericRegex.MatchString(v[0]) {
			q.Set(k, "~")
		}
	}

	u.RawQuery = q.Encode()
	// Encode escapes "~"; decode so patterns stay readable
	decoded, _ := url.QueryUnescape(u.String())
	return decoded
}
