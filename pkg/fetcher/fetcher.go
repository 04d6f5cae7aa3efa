package fetcher

import (
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxRedirects bounds the redirect chain. The hop count is deliberately
// explicit instead of relying on net/http's implicit following, since each
// Location header is resolved against the current URL by hand.
const maxRedirects = 10

// FetchError is any failure to turn a URL into bytes: transport errors,
// non-200 statuses and over-long redirect chains.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher retrieves raw bytes for http(s) URLs and data: URIs.
type Fetcher struct {
	client    *http.Client
	UserAgent string
}

// New builds a fetcher with the crawler's transport defaults.
func New(timeout time.Duration, proxy string) *Fetcher {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	}
	if proxy != "" {
		if proxyURL, err := url.Parse(proxy); err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}
	client := &http.Client{
		Transport: transport,
		Timeout:   timeout,
		// redirects are followed manually in fetchHTTP
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &Fetcher{client: client, UserAgent: DefaultUserAgent}
}

// DefaultUserAgent is shared by the crawl and extraction phases so the two
// cannot drift apart.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Fetch resolves rawURL to its content. data: URIs are decoded in-process;
// everything else goes over the wire.
func (f *Fetcher) Fetch(rawURL string) ([]byte, error) {
	if strings.HasPrefix(rawURL, "data:") {
		return decodeDataURI(rawURL)
	}
	return f.fetchHTTP(rawURL, 0)
}

func (f *Fetcher) fetchHTTP(rawURL string, hops int) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", f.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		loc := resp.Header.Get("Location")
		if loc == "" {
			return nil, &FetchError{URL: rawURL, Status: resp.StatusCode}
		}
		if hops >= maxRedirects {
			return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("more than %d redirects", maxRedirects)}
		}
		next, err := resp.Request.URL.Parse(loc)
		if err != nil {
			return nil, &FetchError{URL: rawURL, Err: err}
		}
		return f.fetchHTTP(next.String(), hops+1)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: rawURL, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	return body, nil
}

// decodeDataURI handles data:[<mediatype>][;base64],<payload> without any
// network I/O.
func decodeDataURI(uri string) ([]byte, error) {
	rest := strings.TrimPrefix(uri, "data:")
	comma := strings.Index(rest, ",")
	if comma < 0 {
		return nil, &FetchError{URL: uri, Err: fmt.Errorf("malformed data URI")}
	}
	meta, payload := rest[:comma], rest[comma+1:]

	if strings.Contains(meta, ";base64") {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, &FetchError{URL: uri, Err: err}
		}
		return decoded, nil
	}

	// PathUnescape, not QueryUnescape: "+" is a literal in data URIs
	decoded, err := url.PathUnescape(payload)
	if err != nil {
		return nil, &FetchError{URL: uri, Err: err}
	}
	return []byte(decoded), nil
}
