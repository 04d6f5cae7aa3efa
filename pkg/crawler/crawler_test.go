package crawler

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/omergulen/sourcemap-harvest/pkg/fetcher"
	"github.com/omergulen/sourcemap-harvest/pkg/store"
)

func TestDefaultUserAgentShared(t *testing.T) {
	// crawl and extraction phases present the same identity by default
	c := New(store.New(), 2, 10)
	assert.Equal(t, fetcher.DefaultUserAgent, c.UserAgent)
	assert.Equal(t, fetcher.DefaultUserAgent, fetcher.New(0, "").UserAgent)
}

func TestShouldVisit(t *testing.T) {
	c := New(store.New(), 2, 10)

	assert.False(t, c.shouldVisit("mailto:a@b.test"))
	assert.False(t, c.shouldVisit("javascript:void(0)"))
	assert.False(t, c.shouldVisit("data:text/plain,x"))
	assert.False(t, c.shouldVisit("https://site.test/logout"))
	assert.False(t, c.shouldVisit("https://www.google-analytics.com/ga.js"))
	assert.False(t, c.shouldVisit("https://site.test/logo.png"))

	assert.True(t, c.shouldVisit("https://site.test/static/app.js"))
	assert.True(t, c.shouldVisit("https://site.test/page"))
}

func TestShouldVisitPatternCap(t *testing.T) {
	c := New(store.New(), 2, 10)

	// same pattern (numeric query collapsed) stops being visited after 10
	for i := 0; i < 10; i++ {
		assert.True(t, c.shouldVisit("https://site.test/item?id=1"))
	}
	assert.False(t, c.shouldVisit("https://site.test/item?id=2"))
}

func TestIsBinary(t *testing.T) {
	assert.True(t, isBinary("https://site.test/font.woff2"))
	assert.True(t, isBinary("https://site.test/pic.png?v=3"))

	// scripts and sourcemaps must stay visitable
	assert.False(t, isBinary("https://site.test/app.js"))
	assert.False(t, isBinary("https://site.test/app.js.map"))
	assert.False(t, isBinary("https://site.test/page.html"))
}

func TestResolveURL(t *testing.T) {
	base, _ := url.Parse("https://site.test/static/js/app.js")

	assert.Equal(t, "https://site.test/static/js/0.abcd.js", resolveURL(base, "0.abcd.js"))
	assert.Equal(t, "https://site.test/chunks/1.js", resolveURL(base, "/chunks/1.js"))
	assert.Equal(t, "https://cdn.test/x.js", resolveURL(base, "https://cdn.test/x.js"))
}
