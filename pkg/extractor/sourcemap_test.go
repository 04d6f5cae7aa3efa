package extractor

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromBody(t *testing.T) {
	d := NewSourceMapDetector()

	body := "var x = 1;\n//# sourceMappingURL=app.js.map\n"
	assert.Equal(t, "app.js.map", d.FromBody(body))

	// legacy @ marker
	assert.Equal(t, "old.map", d.FromBody("//@ sourceMappingURL=old.map\n"))

	assert.Equal(t, "", d.FromBody("var y = 2;"))
}

func TestFromBodyLastDirectiveWins(t *testing.T) {
	d := NewSourceMapDetector()

	body := "//# sourceMappingURL=first.map\nvar x;\n//# sourceMappingURL=second.map\n"
	assert.Equal(t, "second.map", d.FromBody(body))
}

func TestFromBodyDataURI(t *testing.T) {
	d := NewSourceMapDetector()

	body := "x;\n//# sourceMappingURL=data:application/json;base64,e30=\n"
	assert.Equal(t, "data:application/json;base64,e30=", d.FromBody(body))
}

func TestFromHeaders(t *testing.T) {
	d := NewSourceMapDetector()

	h := http.Header{}
	assert.Equal(t, "", d.FromHeaders(h))
	assert.Equal(t, "", d.FromHeaders(nil))

	h.Set("X-SourceMap", "legacy.map")
	assert.Equal(t, "legacy.map", d.FromHeaders(h))

	// SourceMap takes precedence over the legacy header
	h.Set("SourceMap", "modern.map")
	assert.Equal(t, "modern.map", d.FromHeaders(h))
}
