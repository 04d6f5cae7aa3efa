package extractor

import (
	"net/url"
	"strings"
)

// absolutePrefixes are sourcemap references that need no resolution against
// the script location.
var absolutePrefixes = []string{"http://", "https://", "data:", "file:", "webpack://"}

// ResolveMapURL computes the fetchable location of a script's sourcemap.
// Relative references resolve against an http(s) script URL; an empty result
// means the reference is unresolvable and the script must be skipped. A
// reference paired with a non-HTTP script URL is returned as-is, best-effort.
func ResolveMapURL(mapRef, scriptURL string) string {
	for _, p := range absolutePrefixes {
		if strings.HasPrefix(mapRef, p) {
			return mapRef
		}
	}

	if strings.HasPrefix(scriptURL, "http://") || strings.HasPrefix(scriptURL, "https://") {
		base, err := url.Parse(scriptURL)
		if err != nil {
			return ""
		}
		ref, err := url.Parse(mapRef)
		if err != nil {
			return ""
		}
		return base.ResolveReference(ref).String()
	}

	return mapRef
}
