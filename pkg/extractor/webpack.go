package extractor

import (
	"regexp"
	"strings"
)

// WebpackExtractor mines webpack chunk tables out of JS bodies so the crawler
// can visit lazily-loaded chunks and find their sourcemaps too.
type WebpackExtractor struct {
	// chunk maps look like {0:"e12a",1:"f34b"} or {"app":"abcd"}; heuristic,
	// verified below before use
	chunkMapRegex   *regexp.Regexp
	publicPathRegex *regexp.Regexp
	hashRegex       *regexp.Regexp
	keyRegex        *regexp.Regexp
}

func NewWebpackExtractor() *WebpackExtractor {
	return &WebpackExtractor{
		chunkMapRegex:   regexp.MustCompile(`\{(?:\s*(?:\d+|"[^"]+")\s*:\s*"[0-9a-fA-F]{4,}"\s*,?)+\}`),
		publicPathRegex: regexp.MustCompile(`__webpack_require__\.p\s*=\s*["']([^"']*)["']`),
		hashRegex:       regexp.MustCompile(`:"([0-9a-fA-F]+)"`),
		keyRegex:        regexp.MustCompile(`(?:\{|,)(\d+|"[^"]+"):`),
	}
}

// ExtractChunks returns candidate chunk URLs found in a script body,
// prefixed with the bundle's publicPath when one is declared.
func (w *WebpackExtractor) ExtractChunks(body string) []string {
	var chunks []string

	publicPath := ""
	if match := w.publicPathRegex.FindStringSubmatch(body); len(match) > 1 {
		publicPath = match[1]
	}

	// usually a single table per bundle
	matches := w.chunkMapRegex.FindAllString(body, 5)
	for _, match := range matches {
		clean := strings.ReplaceAll(match, " ", "")
		clean = strings.ReplaceAll(clean, "\n", "")

		hashMatches := w.hashRegex.FindAllStringSubmatch(clean, -1)
		keyMatches := w.keyRegex.FindAllStringSubmatch(clean, -1)
		if len(hashMatches) == 0 || len(keyMatches) != len(hashMatches) {
			continue
		}

		for i, hm := range hashMatches {
			id := strings.Trim(keyMatches[i][1], `"`)
			filename := id + "." + hm[1] + ".js"

			if publicPath != "" {
				chunks = append(chunks, strings.TrimSuffix(publicPath, "/")+"/"+filename)
			} else {
				chunks = append(chunks, filename, "js/"+filename, "static/js/"+filename)
			}
		}
	}

	return dedupe(chunks)
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
