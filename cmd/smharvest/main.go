package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/omergulen/sourcemap-harvest/pkg/crawler"
	"github.com/omergulen/sourcemap-harvest/pkg/extractor"
	"github.com/omergulen/sourcemap-harvest/pkg/fetcher"
	"github.com/omergulen/sourcemap-harvest/pkg/models"
	"github.com/omergulen/sourcemap-harvest/pkg/store"
	"github.com/omergulen/sourcemap-harvest/pkg/ui"
)

var (
	targetURL    string
	outputDir    string
	maxDepth     int
	concurrency  int
	timeout      int
	userAgent    string
	proxy        string
	pathFilters  []string
	manifestFile string
	saveManifest string
	noScripts    bool
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "smharvest",
		Short: "smharvest - rebuild a site's source tree from its sourcemaps",
		Long: `smharvest crawls a website, discovers JavaScript sourcemaps and writes the
original sources they reference into a local directory tree. Paths taken from
sourcemaps are sanitized so nothing can be written outside the output root.`,
		Run: runHarvest,
	}

	rootCmd.Flags().StringVarP(&targetURL, "url", "u", "", "target URL")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "harvested_sources", "output root directory")
	rootCmd.Flags().IntVarP(&maxDepth, "depth", "d", 2, "crawl depth")
	rootCmd.Flags().IntVarP(&concurrency, "concurrency", "c", 10, "crawl parallelism")
	rootCmd.Flags().IntVarP(&timeout, "timeout", "t", 15, "request timeout in seconds")
	rootCmd.Flags().StringVar(&userAgent, "user-agent", "", "override the User-Agent header")
	rootCmd.Flags().StringVar(&proxy, "proxy", "", "proxy URL")
	rootCmd.Flags().StringSliceVarP(&pathFilters, "filter", "f", nil, "substring allow-list for saved paths (empty keeps everything)")
	rootCmd.Flags().StringVarP(&manifestFile, "manifest", "m", "", "manifest file (json or csv) - overwrite mode")
	rootCmd.Flags().StringVarP(&saveManifest, "save-manifest", "s", "", "manifest file (json or csv) - append mode")
	rootCmd.Flags().BoolVar(&noScripts, "no-scripts", false, "do not save the as-served script bodies")

	rootCmd.MarkFlagRequired("url")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runHarvest(cmd *cobra.Command, args []string) {
	ui.PrintBanner()
	ui.PrintSuccess("target: %s", targetURL)
	ui.PrintInfo("depth=%d, concurrency=%d, output=%s", maxDepth, concurrency, outputDir)

	st := store.New()

	c := crawler.New(st, maxDepth, concurrency)
	c.Timeout = timeout
	if userAgent != "" {
		c.UserAgent = userAgent
	}
	if proxy != "" {
		c.Proxy = proxy
	}

	start := time.Now()

	crawlProgress := ui.NewProgress(0)
	c.OnProgress = func(crawled, total int, currentURL string) {
		crawlProgress.SetTotal(total)
		crawlProgress.Update(crawled, currentURL)
	}
	c.Crawl(targetURL)
	crawlProgress.Stop()

	crawled, total, errs := c.Stats()
	ui.PrintSuccess("crawl done: %d/%d pages, %d errors, %d scripts observed", crawled, total, errs, st.Len())

	f := fetcher.New(time.Duration(timeout)*time.Second, proxy)
	if userAgent != "" {
		f.UserAgent = userAgent
	}

	ex := extractor.New(f, st, outputDir, pathFilters)

	extractProgress := ui.NewProgress(st.Len())
	ex.OnProgress = func(processed, total int, current string) {
		extractProgress.Update(processed, current)
	}
	if err := ex.Run(); err != nil {
		ui.PrintWarning("write sourcemap index: %v", err)
	}
	if !noScripts {
		ex.SaveScripts()
	}
	extractProgress.Stop()

	ex.Stats.Duration = time.Since(start).Round(time.Second).String()
	ex.Stats.StartTime = start.Format("2006-01-02 15:04:05")

	printSummary(ex)

	if manifestFile != "" {
		exportManifest(ex, manifestFile, false)
	}
	if saveManifest != "" {
		exportManifest(ex, saveManifest, true)
	}
}

func printSummary(ex *extractor.Extractor) {
	ui.PrintSection("Summary")

	// group saved files by top-level directory (usually the host)
	groups := make(map[string]int)
	var order []string
	for _, sf := range ex.Saved {
		top := sf.Path
		if i := strings.IndexAny(top, "/\\"); i >= 0 {
			top = top[:i]
		}
		if _, seen := groups[top]; !seen {
			order = append(order, top)
		}
		groups[top]++
	}
	sort.Strings(order)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Tree", "Files"})
	table.SetRowLine(true)
	table.SetColWidth(60)
	for _, top := range order {
		table.Append([]string{top, fmt.Sprintf("%d", groups[top])})
	}
	table.Render()

	s := ex.Stats
	ui.PrintSuccess("sources saved: %d, script bodies saved: %d", s.SavedCount, s.SavedScripts)
	ui.PrintInfo("skipped: %d without map reference, %d fetch failures, %d invalid maps", s.SkippedNoMapRef, s.SkippedFetchFailed, s.SkippedInvalid)
	if s.FilteredOut > 0 {
		ui.PrintInfo("filtered out: %d", s.FilteredOut)
	}
	ui.PrintSuccess("done in %s", s.Duration)
}

// manifest is the exported run record: tallies plus every file written.
type manifest struct {
	Stats models.HarvestStats `json:"stats"`
	Files []models.SavedFile  `json:"files"`
}

func exportManifest(ex *extractor.Extractor, filename string, appendMode bool) {
	if strings.HasSuffix(filename, ".csv") {
		saveCSV(ex, filename, appendMode)
	} else {
		saveJSON(ex, filename, appendMode)
	}
}

func saveJSON(ex *extractor.Extractor, filename string, appendMode bool) {
	var runs []manifest

	if appendMode {
		if data, err := os.ReadFile(filename); err == nil && len(data) > 0 {
			var existing []manifest
			if err := json.Unmarshal(data, &existing); err != nil {
				ui.PrintWarning("cannot parse existing file %s, overwriting", filename)
			} else {
				runs = append(runs, existing...)
			}
		}
	}

	runs = append(runs, manifest{Stats: ex.Stats, Files: ex.Saved})

	file, err := os.Create(filename)
	if err != nil {
		ui.PrintError("create manifest: %v", err)
		return
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(runs); err != nil {
		ui.PrintError("write JSON: %v", err)
		return
	}
	if appendMode {
		ui.PrintSuccess("manifest appended to: %s", filename)
	} else {
		ui.PrintSuccess("manifest saved to: %s", filename)
	}
}

func saveCSV(ex *extractor.Extractor, filename string, appendMode bool) {
	fileExists := false
	if _, err := os.Stat(filename); err == nil {
		fileExists = true
	}

	flags := os.O_RDWR | os.O_CREATE | os.O_TRUNC
	if appendMode {
		flags = os.O_RDWR | os.O_CREATE | os.O_APPEND
	}

	file, err := os.OpenFile(filename, flags, 0644)
	if err != nil {
		ui.PrintError("open CSV: %v", err)
		return
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if !appendMode || !fileExists {
		writer.Write([]string{"Path", "Source", "Origin", "Size"})
	}

	for _, sf := range ex.Saved {
		writer.Write([]string{
			sf.Path,
			sf.Source,
			sf.Origin,
			fmt.Sprintf("%d", sf.Size),
		})
	}

	if appendMode {
		ui.PrintSuccess("manifest appended to CSV: %s", filename)
	} else {
		ui.PrintSuccess("manifest saved to CSV: %s", filename)
	}
}
