package extractor

import (
	"net/http"
	"strings"

	"github.com/dlclark/regexp2"
)

// SourceMapDetector finds the sourcemap reference attached to a script.
type SourceMapDetector struct {
	mapRegex *regexp2.Regexp
}

func NewSourceMapDetector() *SourceMapDetector {
	return &SourceMapDetector{
		// sourceMappingURL comment; RightToLeft so the last directive in the
		// body wins, matching browser behavior
		mapRegex: regexp2.MustCompile(`(?m)^//[#@]\s*sourceMappingURL=(\S+)\s*$`, regexp2.RightToLeft),
	}
}

// FromBody extracts the sourceMappingURL comment from a script body.
func (d *SourceMapDetector) FromBody(body string) string {
	m, err := d.mapRegex.FindStringMatch(body)
	if err != nil || m == nil {
		return ""
	}
	if len(m.Groups()) > 1 {
		return strings.TrimSpace(m.Groups()[1].String())
	}
	return ""
}

// FromHeaders probes the SourceMap and legacy X-SourceMap response headers.
func (d *SourceMapDetector) FromHeaders(h http.Header) string {
	if h == nil {
		return ""
	}
	if m := h.Get("SourceMap"); m != "" {
		return m
	}
	return h.Get("X-SourceMap")
}
