// Package importer pulls story prose out of HTML pages and files.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const (
	maxBodyBytes = 5 * 1024 * 1024
	maxTextBytes = 64 * 1024
)

// ErrNoText is returned when a document has no readable text
var ErrNoText = errors.New("no text content found")

// skipTags holds elements whose text is never prose
var skipTags = map[string]bool{
	"script": true, "style": true, "nav": true,
	"header": true, "footer": true, "aside": true,
	"noscript": true, "iframe": true, "form": true, "head": true,
}

// blockTags end a paragraph
var blockTags = map[string]bool{
	"p": true, "div": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "li": true, "br": true,
	"blockquote": true, "article": true, "section": true,
}

// DefaultClient is used by FetchText when no client is given
var DefaultClient = &http.Client{Timeout: 30 * time.Second}

// FetchText downloads an HTML page and returns its readable text
func FetchText(ctx context.Context, client *http.Client, rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme == "" {
		u, err = url.Parse("https://" + strings.TrimSpace(rawURL))
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}

	if client == nil {
		client = DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "memoir/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	return ReadText(io.LimitReader(resp.Body, maxBodyBytes))
}

// IsURL checks if a string looks like a URL
func IsURL(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "http://") ||
		strings.HasPrefix(s, "https://") ||
		strings.HasPrefix(s, "www.")
}

// ReadText parses HTML from r and returns its paragraphs separated by blank
// lines, with whitespace inside each paragraph collapsed.
func ReadText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var paragraphs []string
	var cur strings.Builder

	flush := func() {
		if p := strings.Join(strings.Fields(cur.String()), " "); p != "" {
			paragraphs = append(paragraphs, p)
		}
		cur.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipTags[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			cur.WriteString(n.Data)
			cur.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockTags[n.Data] {
			flush()
		}
	}
	walk(doc)
	flush()

	text := strings.Join(paragraphs, "\n\n")
	if text == "" {
		return "", ErrNoText
	}
	return truncate(text, maxTextBytes), nil
}

// truncate cuts s to at most max bytes without splitting a word
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := strings.LastIndexAny(s[:max], " \n")
	if cut <= 0 {
		cut = max
	}
	return strings.TrimRight(s[:cut], " \n")
}
