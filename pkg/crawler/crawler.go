package crawler

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/twmb/murmur3"

	"github.com/omergulen/sourcemap-harvest/pkg/extractor"
	"github.com/omergulen/sourcemap-harvest/pkg/fetcher"
	"github.com/omergulen/sourcemap-harvest/pkg/models"
	"github.com/omergulen/sourcemap-harvest/pkg/store"
	"github.com/omergulen/sourcemap-harvest/pkg/utils"
)

// Crawler walks a site and feeds the script registry: external scripts with
// their bodies, inline scripts by page, plus webpack chunks mined from JS.
// It is the concurrent front half of a run; extraction happens afterwards,
// sequentially, over whatever ended up in the store.
type Crawler struct {
	store           *store.Store
	detector        *extractor.SourceMapDetector
	webpack         *extractor.WebpackExtractor
	MaxDepth        int
	Concurrency     int
	Timeout         int
	UserAgent       string
	Proxy           string
	visitedPatterns sync.Map
	crawledCount    int32
	totalCount      int32
	errorCount      int32
	OnProgress      func(crawled, total int, currentURL string)
	startTime       time.Time
}

func New(st *store.Store, maxDepth, concurrency int) *Crawler {
	return &Crawler{
		store:       st,
		detector:    extractor.NewSourceMapDetector(),
		webpack:     extractor.NewWebpackExtractor(),
		MaxDepth:    maxDepth,
		Concurrency: concurrency,
		Timeout:     15,
		UserAgent:   fetcher.DefaultUserAgent,
	}
}

// Stats reports crawl-side counters.
func (c *Crawler) Stats() (crawled, total, errors int) {
	return int(atomic.LoadInt32(&c.crawledCount)),
		int(atomic.LoadInt32(&c.totalCount)),
		int(atomic.LoadInt32(&c.errorCount))
}

// Crawl visits startURL and everything reachable within MaxDepth, recording
// observed scripts into the store. It blocks until the crawl drains.
func (c *Crawler) Crawl(startURL string) {
	c.startTime = time.Now()

	transport := &http.Transport{
		TLSClientConfig:       &tls.Config{InsecureSkipVerify: true},
		ResponseHeaderTimeout: time.Duration(c.Timeout) * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        c.Concurrency * 2,
		MaxIdleConnsPerHost: c.Concurrency,
		IdleConnTimeout:     30 * time.Second,
	}

	if c.Proxy != "" {
		if proxyURL, err := url.Parse(c.Proxy); err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	col := colly.NewCollector(
		colly.MaxDepth(c.MaxDepth),
		colly.Async(true),
		colly.IgnoreRobotsTxt(),
	)

	col.WithTransport(transport)
	col.SetRequestTimeout(time.Duration(c.Timeout) * time.Second)

	col.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: c.Concurrency,
		RandomDelay: 100 * time.Millisecond,
	})

	col.OnRequest(func(r *colly.Request) {
		if !c.shouldVisit(r.URL.String()) {
			r.Abort()
			return
		}

		r.Headers.Set("User-Agent", c.UserAgent)
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

		atomic.AddInt32(&c.totalCount, 1)

		if c.OnProgress != nil {
			c.OnProgress(int(atomic.LoadInt32(&c.crawledCount)), int(atomic.LoadInt32(&c.totalCount)), r.URL.String())
		}
	})

	col.OnResponse(func(r *colly.Response) {
		if len(r.Body) > 10*1024*1024 {
			return
		}
		if isJavaScript(r) {
			c.processScript(r)
		} else if strings.Contains(r.Headers.Get("Content-Type"), "text/html") {
			c.processPage(r)
		}
		atomic.AddInt32(&c.crawledCount, 1)
	})

	col.OnError(func(r *colly.Response, err error) {
		atomic.AddInt32(&c.errorCount, 1)
	})

	col.OnHTML("a[href], script[src], link[href], iframe[src]", func(e *colly.HTMLElement) {
		link := e.Attr("href")
		if link == "" {
			link = e.Attr("src")
		}
		if link != "" && c.shouldVisit(e.Request.AbsoluteURL(link)) {
			e.Request.Visit(link)
		}
	})

	col.Visit(startURL)
	col.Wait()
}

// processScript records an external script body and its sourcemap reference.
func (c *Crawler) processScript(r *colly.Response) {
	scriptURL := r.Request.URL.String()
	body := string(r.Body)

	mapRef := ""
	if r.Headers != nil {
		mapRef = c.detector.FromHeaders(*r.Headers)
	}
	if mapRef == "" {
		mapRef = c.detector.FromBody(body)
	}

	c.store.Observe(models.ScriptRecord{
		ScriptID:     scriptURL,
		URL:          scriptURL,
		SourceMapURL: mapRef,
	})
	c.store.SetBody(scriptURL, r.Body)

	// lazily loaded chunks carry their own sourcemaps
	for _, chunk := range c.webpack.ExtractChunks(body) {
		if abs := resolveURL(r.Request.URL, chunk); abs != "" && c.shouldVisit(abs) {
			r.Request.Visit(abs)
		}
	}
}

// processPage registers inline scripts. Their bodies are not kept: an inline
// script is not independently retrievable, only its sourcemap reference is
// useful.
func (c *Crawler) processPage(r *colly.Response) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(r.Body)))
	if err != nil {
		return
	}

	pageURL := r.Request.URL.String()
	doc.Find("script").Each(func(i int, sel *goquery.Selection) {
		if _, external := sel.Attr("src"); external {
			return
		}
		body := sel.Text()
		if strings.TrimSpace(body) == "" {
			return
		}

		mapRef := c.detector.FromBody(body)
		if mapRef == "" {
			return
		}

		id := fmt.Sprintf("inline:%08x", murmur3.Sum32([]byte(pageURL+body)))
		c.store.Observe(models.ScriptRecord{
			ScriptID:     id,
			URL:          pageURL,
			SourceMapURL: mapRef,
		})
	})
}

func isJavaScript(r *colly.Response) bool {
	ct := r.Headers.Get("Content-Type")
	if strings.Contains(ct, "javascript") || strings.Contains(ct, "ecmascript") {
		return true
	}
	return strings.HasSuffix(r.Request.URL.Path, ".js")
}

func resolveURL(base *url.URL, ref string) string {
	refURL, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return base.ResolveReference(refURL).String()
}

func (c *Crawler) shouldVisit(link string) bool {
	link = strings.ToLower(link)

	if strings.HasPrefix(link, "mailto:") ||
		strings.HasPrefix(link, "tel:") ||
		strings.HasPrefix(link, "javascript:") ||
		strings.HasPrefix(link, "data:") ||
		strings.HasPrefix(link, "#") {
		return false
	}

	if strings.Contains(link, "logout") || strings.Contains(link, "signout") {
		return false
	}

	thirdParty := []string{
		"google-analytics.com", "googletagmanager.com", "hm.baidu.com",
		"cnzz.com", "doubleclick.net", "facebook.com",
		"twitter.com", "linkedin.com", "youtube.com",
	}
	for _, domain := range thirdParty {
		if strings.Contains(link, domain) {
			return false
		}
	}

	if isBinary(link) {
		return false
	}

	pattern := utils.GetURLPattern(link)
	val, _ := c.visitedPatterns.LoadOrStore(pattern, new(int32))
	count := atomic.AddInt32(val.(*int32), 1)
	return count <= 10
}

// isBinary filters extensions that cannot contain scripts. Unlike a generic
// crawler, .js stays visitable: scripts are the whole point here.
func isBinary(path string) bool {
	exts := []string{
		".png", ".jpg", ".jpeg", ".gif", ".ico", ".svg", ".bmp", ".webp",
		".woff", ".woff2", ".ttf", ".eot", ".otf",
		".mp3", ".mp4", ".avi", ".mov", ".wav", ".webm", ".flv",
		".zip", ".tar", ".gz", ".rar", ".7z", ".pdf", ".doc", ".docx",
		".xls", ".xlsx", ".ppt", ".pptx",
		".iso", ".bin", ".exe", ".dll", ".so", ".dmg", ".apk",
	}

	if idx := strings.Index(path, "?"); idx != -1 {
		path = path[:idx]
	}

	for _, ext := range exts {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
