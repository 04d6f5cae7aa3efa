package paths

import (
	"fmt"
	"path/filepath"
	"strings"
)

// upMarker replaces a ".." segment that would climb above the output root.
const upMarker = "_up_"

// PathEscapeError reports a resolved path that fell outside the output root.
// Sanitize guarantees this cannot happen; SafeJoin still verifies it.
type PathEscapeError struct {
	Base string
	Path string
}

func (e *PathEscapeError) Error() string {
	return fmt.Sprintf("path %q escapes output root %q", e.Path, e.Base)
}

// Sanitize turns an arbitrary candidate path into a relative segment that is
// guaranteed to stay inside whatever base it is later joined to. It never
// fails: "." segments are dropped, ".." cancels a previously accumulated
// segment when one exists and otherwise degrades into a literal upMarker
// directory.
func Sanitize(raw string) string {
	raw = strings.TrimLeft(raw, "/\\")

	segs := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '/' || r == '\\'
	})

	out := make([]string, 0, len(segs))
	for _, seg := range segs {
		switch seg {
		case "", ".":
			continue
		case "..":
			if n := len(out); n > 0 && out[n-1] != upMarker {
				out = out[:n-1]
			} else {
				out = append(out, upMarker)
			}
		default:
			out = append(out, seg)
		}
	}

	return filepath.Join(out...)
}

// SafeJoin resolves raw inside baseDir and re-verifies that the result is a
// strict descendant of it. The trailing separator on both sides of the prefix
// check keeps "/base2" from matching "/base".
func SafeJoin(baseDir, raw string) (string, error) {
	base, err := filepath.Abs(baseDir)
	if err != nil {
		return "", err
	}

	joined := filepath.Join(base, Sanitize(raw))

	sep := string(filepath.Separator)
	if !strings.HasPrefix(joined+sep, base+sep) || joined == base {
		return "", &PathEscapeError{Base: base, Path: joined}
	}
	return joined, nil
}
