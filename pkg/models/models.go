package models

// ScriptRecord is one observed script. Later events for the same ID
// overwrite the record; records are never deleted during a run.
type ScriptRecord struct {
	ScriptID     string `json:"script_id"`
	URL          string `json:"url"`
	SourceMapURL string `json:"source_map_url"`
}

// SourceMap is the subset of the sourcemap format this tool consumes.
// sources and sourcesContent are index-aligned; indices past the end of
// sourcesContent mean the content is not embedded.
type SourceMap struct {
	Sources        []string  `json:"sources"`
	SourcesContent []*string `json:"sourcesContent"`
}

// SavedFile is one manifest entry for a file written under the output root.
type SavedFile struct {
	Path   string `json:"path"`
	Source string `json:"source"`
	Origin string `json:"origin"` // "embedded", "fetched" or "script"
	Size   int    `json:"size"`
}

// HarvestStats aggregates the run-level tallies.
type HarvestStats struct {
	ScriptsObserved    int    `json:"scripts_observed"`
	SavedCount         int    `json:"saved_count"`
	SavedScripts       int    `json:"saved_scripts"`
	SkippedNoMapRef    int    `json:"skipped_no_map_ref"`
	SkippedFetchFailed int    `json:"skipped_fetch_failed"`
	SkippedInvalid     int    `json:"skipped_invalid"`
	FilteredOut        int    `json:"filtered_out"`
	Duration           string `json:"duration,omitempty"`
	StartTime          string `json:"start_time,omitempty"`
}
