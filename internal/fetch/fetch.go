// Package fetch provides URL fetching and HTML-to-text processing for résumé
// downloads and career pages.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/career-path/internal/errs"
)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// DefaultUserAgent is the user agent string for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; CareerPath/1.0)"

// DefaultMaxBytes caps response bodies.
const DefaultMaxBytes = 20 << 20

// Result holds the raw content from a URL fetch.
type Result struct {
	URL         string
	Body        []byte
	ContentType string
	StatusCode  int
}

// Options configures the fetch behavior.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	MaxBytes  int64
	Headers   map[string]string
	Client    *http.Client // overrides Timeout when set
}

// DefaultOptions returns sensible defaults for fetching.
func DefaultOptions() *Options {
	return &Options{
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
		MaxBytes:  DefaultMaxBytes,
	}
}

// IsURL reports whether location is an http or https URL.
func IsURL(location string) bool {
	lower := strings.ToLower(location)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// URL retrieves the body at urlStr. A 404 is a NotFoundError, other failures
// are UpstreamErrors and malformed URLs are InputErrors.
func URL(ctx context.Context, urlStr string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, &errs.InputError{Message: fmt.Sprintf("invalid URL %q", urlStr), Cause: err}
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, &errs.InputError{Message: "failed to create request", Cause: err}
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &errs.UpstreamError{Message: fmt.Sprintf("HTTP request to %s failed", urlStr), Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, &errs.UpstreamError{Message: "failed to read response body", Cause: err}
	}
	if int64(len(body)) > maxBytes {
		return nil, &errs.InputError{Message: fmt.Sprintf("%s exceeds %d bytes", urlStr, maxBytes)}
	}

	result := &Result{
		URL:         urlStr,
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return result, &errs.NotFoundError{Resource: "url", ID: urlStr}
	case resp.StatusCode != http.StatusOK:
		return result, &errs.UpstreamError{Message: fmt.Sprintf("HTTP status %d from %s", resp.StatusCode, urlStr)}
	}
	return result, nil
}

// Page is the readable content of an HTML document.
type Page struct {
	Title   string
	Heading string // first <h1>
	Text    string
}

// ExtractPage parses HTML and returns its title, first heading and main body text.
// It removes noise elements, then finds content using contentSelectors.
// If no content selectors match, it falls back to the body element.
func ExtractPage(html string, contentSelectors ...string) (Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Page{}, &errs.InputError{Message: "failed to parse HTML", Cause: err}
	}

	page := Page{
		Title:   cleanWhitespace(doc.Find("title").First().Text()),
		Heading: cleanWhitespace(doc.Find("h1").First().Text()),
	}

	// Remove common unwanted elements (nav, footer, scripts, ads, etc.)
	doc.Find("nav, footer, header, script, style, noscript, .ad, .advertisement, .ads, .sidebar, .cookie-banner, .popup").Remove()

	if len(contentSelectors) == 0 {
		contentSelectors = DefaultTextSelectors()
	}
	var mainContent *goquery.Selection
	for _, selector := range contentSelectors {
		if selection := doc.Find(selector); selection.Length() > 0 {
			mainContent = selection.First()
			break
		}
	}
	if mainContent == nil {
		mainContent = doc.Find("body")
	}

	page.Text = cleanWhitespace(mainContent.Text())
	return page, nil
}

// DefaultTextSelectors returns standard selectors for general web content.
func DefaultTextSelectors() []string {
	return []string{
		"main",
		"article",
		".content",
		"#content",
		".main-content",
		"#main-content",
	}
}

// cleanWhitespace trims every line and drops blank ones.
func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
