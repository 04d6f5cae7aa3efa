package paths

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScriptURLToPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"webpack://./src/index.js", "webpack/src/index.js"},
		{"rollup://bundle/mod.js", "rollup/bundle/mod.js"},
		{"file:///opt/app/main.js", "file//opt/app/main.js"},
		{"vm://module/x.js", "vm/module/x.js"},
		{"VM://module/x.js", "vm/module/x.js"},
		{"https://example.com/static/app.js", "example.com/static/app.js"},
		{"http://example.com/a.js?v=123", "example.com/a.js"},
		{"https://example.com/a.js#frag", "example.com/a.js"},
		{"", "anonymous.js"},
		{"https://", "anonymous.js"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ScriptURLToPath(tt.in), "input %q", tt.in)
	}
}

func TestNormalizeSourcePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://example.com/src/app.js", "example.com/src/app.js"},
		{"http://example.com/src/app.js", "example.com/src/app.js"},
		{"webpack://myapp/src/store.js", "webpack/myapp/src/store.js"},
		{"./src/a.js", "src/a.js"},
		{"../shared/a.js", "../shared/a.js"}, // relative ascent is resolved at write time
		{"/rooted/b.js", "rooted/b.js"},
		{"src/dir/", "src/dir/index.txt"},
		{"", "index.txt"},
		{"https://example.com/", "example.com/index.txt"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeSourcePath(tt.in), "input %q", tt.in)
	}
}

func TestNormalizeSourcePathIdempotent(t *testing.T) {
	inputs := []string{
		"https://example.com/src/app.js",
		"webpack://myapp/src/store.js",
		"./src/a.js",
		"../shared/a.js",
		"/rooted/b.js",
		"src/dir/",
		"",
	}

	for _, in := range inputs {
		once := NormalizeSourcePath(in)
		assert.Equal(t, once, NormalizeSourcePath(once), "input %q", in)
	}
}

func TestNormalizeSourcePathAlwaysNamesAFile(t *testing.T) {
	for _, in := range []string{"", "/", "a/", "https://host/", "webpack://x/"} {
		got := NormalizeSourcePath(in)
		assert.NotEmpty(t, got)
		assert.False(t, got[len(got)-1] == '/', "input %q yielded directory path %q", in, got)
	}
}
