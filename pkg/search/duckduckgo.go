package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DuckDuckGo implements the Provider interface by scraping the
// keyless HTML endpoint. No API key required, which makes it the
// default backend.
type DuckDuckGo struct {
	endpoint   string
	httpClient *http.Client
}

// NewDuckDuckGo creates a DuckDuckGo provider.
func NewDuckDuckGo() *DuckDuckGo {
	return &DuckDuckGo{
		endpoint: "https://html.duckduckgo.com/html/",
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (d *DuckDuckGo) Name() string { return "duckduckgo" }

func (d *DuckDuckGo) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	count := opts.Count
	if count == 0 {
		count = 5
	}

	form := url.Values{"q": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; valet/1.0)")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("duckduckgo: HTTP %d: %s", resp.StatusCode, string(body))
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: parse response: %w", err)
	}

	results := parseResults(doc)
	if len(results) > count {
		results = results[:count]
	}
	return results, nil
}

// parseResults walks the DOM collecting result blocks. The HTML
// endpoint marks each hit with class "result", the link with
// "result__a" and the snippet with "result__snippet".
func parseResults(doc *html.Node) []Result {
	var results []Result

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Div && hasClass(n, "result") {
			if r, ok := parseResultBlock(n); ok {
				results = append(results, r)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return results
}

func parseResultBlock(block *html.Node) (Result, bool) {
	var r Result

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A && hasClass(n, "result__a") {
			r.Title = strings.TrimSpace(textContent(n))
			r.URL = cleanURL(attr(n, "href"))
		}
		if n.Type == html.ElementNode && hasClass(n, "result__snippet") {
			r.Snippet = strings.TrimSpace(textContent(n))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(block)

	if r.Title == "" || r.URL == "" {
		return Result{}, false
	}
	return r, true
}

// cleanURL unwraps DuckDuckGo's redirect links (/l/?uddg=<target>).
func cleanURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return raw
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}
