package extractor

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/omergulen/sourcemap-harvest/pkg/models"
	"github.com/omergulen/sourcemap-harvest/pkg/paths"
	"github.com/omergulen/sourcemap-harvest/pkg/store"
	"github.com/omergulen/sourcemap-harvest/pkg/ui"
)

// ContentFetcher resolves a URL to raw bytes. Satisfied by fetcher.Fetcher.
type ContentFetcher interface {
	Fetch(rawURL string) ([]byte, error)
}

// ParseError is a sourcemap document that is not valid JSON.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse sourcemap %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Extractor walks the script registry, resolves and fetches each script's
// sourcemap and writes the recovered sources under the output root. Scripts
// are processed strictly sequentially, in registry insertion order, so the
// tallies stay race-free and disk writes are deterministic.
type Extractor struct {
	fetcher   ContentFetcher
	store     *store.Store
	OutputDir string
	Filters   []string

	Stats models.HarvestStats
	Saved []models.SavedFile

	// called after each script record is handled
	OnProgress func(processed, total int, current string)

	processedMaps []string
}

func New(f ContentFetcher, st *store.Store, outputDir string, filters []string) *Extractor {
	return &Extractor{
		fetcher:   f,
		store:     st,
		OutputDir: outputDir,
		Filters:   filters,
	}
}

// Run processes every observed script. Per-script failures are counted, never
// fatal: the run always completes.
func (e *Extractor) Run() error {
	records := e.store.Records()
	e.Stats.ScriptsObserved = len(records)

	for i, rec := range records {
		e.processScript(rec)
		if e.OnProgress != nil {
			e.OnProgress(i+1, len(records), rec.URL)
		}
	}

	return e.writeMapIndex()
}

func (e *Extractor) processScript(rec models.ScriptRecord) {
	if rec.SourceMapURL == "" {
		e.Stats.SkippedNoMapRef++
		return
	}

	mapURL := ResolveMapURL(rec.SourceMapURL, rec.URL)
	if mapURL == "" {
		e.Stats.SkippedFetchFailed++
		return
	}

	raw, err := e.fetcher.Fetch(mapURL)
	if err != nil {
		e.Stats.SkippedFetchFailed++
		return
	}

	m, err := parseMap(mapURL, raw)
	if err != nil {
		e.Stats.SkippedInvalid++
		return
	}

	// base for resolving sources that need a network fetch; absent for
	// data: and other non-HTTP map locations, where only embedded content
	// can satisfy an entry
	var base *url.URL
	if u, err := url.Parse(mapURL); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		base = u
	}

	for i, src := range m.Sources {
		content, origin, ok := e.sourceContent(m, i, src, base)
		if !ok {
			continue
		}
		if e.persist(src, paths.NormalizeSourcePath(src), content, origin) {
			e.Stats.SavedCount++
		}
	}

	e.processedMaps = append(e.processedMaps, mapURL)
}

func parseMap(mapURL string, raw []byte) (*models.SourceMap, error) {
	var m models.SourceMap
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, &ParseError{URL: mapURL, Err: err}
	}
	return &m, nil
}

// sourceContent picks the content for sources[i]: embedded wins over fetch,
// fetch needs a base URL, anything else is silently unavailable.
func (e *Extractor) sourceContent(m *models.SourceMap, i int, src string, base *url.URL) ([]byte, string, bool) {
	if i < len(m.SourcesContent) && m.SourcesContent[i] != nil {
		return []byte(*m.SourcesContent[i]), "embedded", true
	}

	if base == nil {
		return nil, "", false
	}
	ref, err := url.Parse(src)
	if err != nil {
		return nil, "", false
	}
	content, err := e.fetcher.Fetch(base.ResolveReference(ref).String())
	if err != nil {
		return nil, "", false
	}
	return content, "fetched", true
}

// SaveScripts writes the generated (as-served) script bodies captured by the
// crawler. Missing bodies are best-effort and skipped without a tally.
func (e *Extractor) SaveScripts() {
	for _, rec := range e.store.Records() {
		body, err := e.store.Body(rec.ScriptID)
		if err != nil {
			continue
		}
		if e.persist(rec.URL, paths.ScriptURLToPath(rec.URL), body, "script") {
			e.Stats.SavedScripts++
		}
	}
}

func (e *Extractor) persist(source, relPath string, content []byte, origin string) bool {
	if !e.keep(relPath) {
		e.Stats.FilteredOut++
		return false
	}

	dest, err := paths.SafeJoin(e.OutputDir, relPath)
	if err != nil {
		// unreachable if Sanitize holds; still fatal only to this entry
		ui.PrintError("path escape blocked: %v", err)
		return false
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		ui.PrintError("create dir for %s: %v", relPath, err)
		return false
	}
	if err := os.WriteFile(dest, content, 0644); err != nil {
		ui.PrintError("write %s: %v", relPath, err)
		return false
	}

	e.Saved = append(e.Saved, models.SavedFile{
		Path:   relPath,
		Source: source,
		Origin: origin,
		Size:   len(content),
	})
	return true
}

// keep applies the substring allow-list. Filters are matched against both
// the bare path and its /-prefixed form so patterns written either way work.
func (e *Extractor) keep(relPath string) bool {
	if len(e.Filters) == 0 {
		return true
	}
	slashed := strings.ReplaceAll(relPath, string(filepath.Separator), "/")
	for _, f := range e.Filters {
		if strings.Contains(slashed, f) || strings.Contains("/"+slashed, f) {
			return true
		}
	}
	return false
}

// writeMapIndex appends the processed sourcemap URLs to _sourcemaps.txt in
// the output root, one per line.
func (e *Extractor) writeMapIndex() error {
	if len(e.processedMaps) == 0 {
		return nil
	}
	if err := os.MkdirAll(e.OutputDir, 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(e.OutputDir, "_sourcemaps.txt"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, m := range e.processedMaps {
		if _, err := f.WriteString(m + "\n"); err != nil {
			return err
		}
	}
	return nil
}
