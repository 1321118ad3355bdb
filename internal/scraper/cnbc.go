package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"

	"github.com/sahamlab/sinyal/internal/domain"
)

// CNBCSource scrapes market and investment news from CNBC Indonesia.
type CNBCSource struct {
	client   *Client
	baseURL  string
	listings []string
	log      zerolog.Logger
}

// NewCNBCSource creates the CNBC Indonesia source adapter
func NewCNBCSource(client *Client, baseURL string, log zerolog.Logger) *CNBCSource {
	base := strings.TrimSuffix(baseURL, "/")
	return &CNBCSource{
		client:  client,
		baseURL: base,
		listings: []string{
			base + "/market",
			base + "/investment",
		},
		log: log.With().Str("source", "cnbc").Logger(),
	}
}

// Name identifies the source in logs and stored articles
func (s *CNBCSource) Name() string {
	return "cnbc_indonesia"
}

// Fetch collects up to limit article candidates from the listing pages.
// A listing page that fails to load is skipped; an article page that fails
// is logged and skipped. Only a fully unreachable source returns an error.
func (s *CNBCSource) Fetch(ctx context.Context, limit int) ([]domain.Candidate, error) {
	seen := make(map[string]struct{})
	var links []string

	listingErrors := 0
	for _, listing := range s.listings {
		body, err := s.client.Get(ctx, listing)
		if err != nil {
			listingErrors++
			s.log.Warn().Err(err).Str("listing", listing).Msg("Failed to fetch listing page")
			continue
		}

		for _, link := range s.extractArticleLinks(body) {
			canonical, err := CanonicalURL(link)
			if err != nil {
				continue
			}
			if _, dup := seen[canonical]; dup {
				continue
			}
			seen[canonical] = struct{}{}
			links = append(links, canonical)
		}
	}

	if listingErrors == len(s.listings) {
		return nil, fmt.Errorf("source unreachable: all %d listing pages failed", listingErrors)
	}

	if len(links) > limit {
		links = links[:limit]
	}

	var candidates []domain.Candidate
	for _, link := range links {
		if ctx.Err() != nil {
			return candidates, ctx.Err()
		}

		candidate, err := s.fetchArticle(ctx, link)
		if err != nil {
			s.log.Warn().Err(err).Str("url", link).Msg("Failed to fetch article, skipping")
			continue
		}
		candidates = append(candidates, candidate)
	}

	s.log.Info().Int("links", len(links)).Int("articles", len(candidates)).Msg("Fetch complete")
	return candidates, nil
}

func (s *CNBCSource) fetchArticle(ctx context.Context, articleURL string) (domain.Candidate, error) {
	body, err := s.client.Get(ctx, articleURL)
	if err != nil {
		return domain.Candidate{}, err
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return domain.Candidate{}, fmt.Errorf("failed to parse article html: %w", err)
	}

	title := metaContent(doc, "property", "og:title")
	if title == "" {
		title = firstElementText(doc, "h1")
	}
	if title == "" {
		return domain.Candidate{}, fmt.Errorf("article has no title")
	}

	content := CleanText(articleBodyText(doc))
	if len(content) < 100 {
		return domain.Candidate{}, fmt.Errorf("article body too short (%d chars)", len(content))
	}

	published := parsePublished(doc)
	if published.IsZero() {
		published = time.Now().UTC()
	}

	return domain.Candidate{
		URL:         articleURL,
		Title:       CleanText(title),
		Content:     content,
		Summary:     CleanText(metaContent(doc, "property", "og:description")),
		Author:      CleanText(metaContent(doc, "name", "author")),
		Category:    categoryFromURL(articleURL),
		Source:      s.Name(),
		PublishedAt: published,
	}, nil
}

// extractArticleLinks pulls article anchors from a listing page. CNBC
// article paths look like /market/20260830123456-17-123456/judul-berita.
func (s *CNBCSource) extractArticleLinks(body []byte) []string {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var links []string
	walk(doc, func(n *html.Node) {
		if n.Type != html.ElementNode || n.Data != "a" {
			return
		}
		href := attr(n, "href")
		if href == "" {
			return
		}
		if strings.HasPrefix(href, "/") {
			href = s.baseURL + href
		}
		if !strings.HasPrefix(href, s.baseURL) {
			return
		}
		if isArticlePath(href) {
			links = append(links, href)
		}
	})
	return links
}

func isArticlePath(link string) bool {
	// Article URLs carry a numeric id segment between section and slug:
	// /market/20260830123456-17-123456/judul-berita
	segments := pathSegments(link)
	if len(segments) < 3 {
		return false
	}
	digits := 0
	for _, r := range segments[1] {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 8
}

func parsePublished(doc *html.Node) time.Time {
	if raw := metaContent(doc, "property", "article:published_time"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t
		}
	}
	if raw := firstElementText(doc, "time"); raw != "" {
		if t := ParseIndonesianDate(raw); !t.IsZero() {
			return t
		}
	}
	return time.Time{}
}

func categoryFromURL(link string) string {
	segments := pathSegments(link)
	if len(segments) > 0 {
		return segments[0]
	}
	return ""
}

func pathSegments(link string) []string {
	u, err := url.Parse(link)
	if err != nil {
		return nil
	}
	var segments []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// html traversal helpers

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func metaContent(doc *html.Node, attrKey, attrVal string) string {
	var content string
	walk(doc, func(n *html.Node) {
		if content != "" || n.Type != html.ElementNode || n.Data != "meta" {
			return
		}
		if attr(n, attrKey) == attrVal {
			content = attr(n, "content")
		}
	})
	return content
}

func firstElementText(doc *html.Node, element string) string {
	var text string
	walk(doc, func(n *html.Node) {
		if text != "" || n.Type != html.ElementNode || n.Data != element {
			return
		}
		text = nodeText(n)
	})
	return strings.TrimSpace(text)
}

// articleBodyText joins paragraph text inside the article container,
// falling back to all paragraphs when no container is found.
func articleBodyText(doc *html.Node) string {
	container := doc
	walk(doc, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		if n.Data == "article" || (n.Data == "div" && strings.Contains(strings.ToLower(attr(n, "class")), "detail")) {
			if container == doc {
				container = n
			}
		}
	})

	var parts []string
	walk(container, func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "p" {
			if t := strings.TrimSpace(nodeText(n)); t != "" {
				parts = append(parts, t)
			}
		}
	})
	return strings.Join(parts, " ")
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	})
	return sb.String()
}
