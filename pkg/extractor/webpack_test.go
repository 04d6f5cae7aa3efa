package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractChunksWithPublicPath(t *testing.T) {
	w := NewWebpackExtractor()

	body := `__webpack_require__.p = "/static/";` +
		`var map = {0:"e12a3f",1:"f34b7c"};`

	chunks := w.ExtractChunks(body)
	assert.Contains(t, chunks, "/static/0.e12a3f.js")
	assert.Contains(t, chunks, "/static/1.f34b7c.js")
}

func TestExtractChunksWithoutPublicPath(t *testing.T) {
	w := NewWebpackExtractor()

	chunks := w.ExtractChunks(`var map = {"app":"abcd12"};`)
	assert.Contains(t, chunks, "app.abcd12.js")
	assert.Contains(t, chunks, "js/app.abcd12.js")
	assert.Contains(t, chunks, "static/js/app.abcd12.js")
}

func TestExtractChunksNoTable(t *testing.T) {
	w := NewWebpackExtractor()
	assert.Empty(t, w.ExtractChunks(`var x = {a: 1, b: 2};`))
}
