package paths

import (
	"regexp"
	"strings"
)

// Protocol-style prefixes emitted by bundlers, mapped to plain directories.
// Order matters only for readability; at most one prefix can anchor a string.
var protocolDirs = []struct {
	prefix string
	dir    string
}{
	{"webpack://", "webpack/"},
	{"rollup://", "rollup/"},
	{"file://", "file/"},
}

var (
	vmPrefixRegex = regexp.MustCompile(`(?i)^vm://`)
	httpURLRegex  = regexp.MustCompile(`^https?://`)
)

// DefaultScriptName names generated scripts that carry no usable URL.
const DefaultScriptName = "anonymous.js"

// DefaultSourceName completes sourcemap entries that denote a directory.
const DefaultSourceName = "index.txt"

// ScriptURLToPath maps a generated script's URL to a relative filesystem
// path. Script URLs are network locations, so the scheme is dropped and the
// host becomes the top-level directory.
func ScriptURLToPath(scriptURL string) string {
	p := scriptURL
	for _, pd := range protocolDirs {
		if strings.HasPrefix(p, pd.prefix) {
			p = pd.dir + strings.TrimPrefix(p[len(pd.prefix):], "./")
			break
		}
	}
	p = vmPrefixRegex.ReplaceAllString(p, "vm/")
	p = strings.TrimPrefix(p, "http://")
	p = strings.TrimPrefix(p, "https://")

	// drop query string and fragment
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}

	if p == "" {
		return DefaultScriptName
	}
	return p
}

// NormalizeSourcePath maps a sourcemap source entry to a relative filesystem
// path. Entries are path-like (often relative or repo-rooted) rather than
// network locations, which is why this is not ScriptURLToPath: conflating the
// two would corrupt either webpack-style module paths or real URLs.
//
// Protocol prefixes are stripped before directory completion; that order is
// load-bearing for output naming.
func NormalizeSourcePath(rawSource string) string {
	p := rawSource
	for _, pd := range protocolDirs {
		if strings.HasPrefix(p, pd.prefix) {
			p = pd.dir + p[len(pd.prefix):]
			break
		}
	}
	p = strings.TrimPrefix(p, "./")

	if httpURLRegex.MatchString(p) {
		p = httpURLRegex.ReplaceAllString(p, "")
	}
	p = strings.TrimLeft(p, "/")

	if p == "" || strings.HasSuffix(p, "/") {
		p += DefaultSourceName
	}
	return p
}
