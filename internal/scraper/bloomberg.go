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

// nonArticleSections are Bloomberg path fragments that never lead to a
// news article (index pages, channel pages, media galleries).
var nonArticleSections = []string{"/indeks/", "/kanal/", "/foto", "/video", "/infografis", "/z-zone"}

// BloombergSource scrapes market news from Bloomberg Technoz.
type BloombergSource struct {
	client  *Client
	baseURL string
	listing string
	log     zerolog.Logger
}

// NewBloombergSource creates the Bloomberg Technoz source adapter
func NewBloombergSource(client *Client, baseURL string, log zerolog.Logger) *BloombergSource {
	base := strings.TrimSuffix(baseURL, "/")
	return &BloombergSource{
		client:  client,
		baseURL: base,
		listing: base + "/kanal/market",
		log:     log.With().Str("source", "bloomberg").Logger(),
	}
}

// Name identifies the source in logs and stored articles
func (s *BloombergSource) Name() string {
	return "bloomberg"
}

// Fetch collects up to limit article candidates from the market listing.
// An article page that fails is logged and skipped; only an unreachable
// listing returns an error.
func (s *BloombergSource) Fetch(ctx context.Context, limit int) ([]domain.Candidate, error) {
	body, err := s.client.Get(ctx, s.listing)
	if err != nil {
		return nil, fmt.Errorf("source unreachable: %w", err)
	}

	seen := make(map[string]struct{})
	var links []string
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

func (s *BloombergSource) fetchArticle(ctx context.Context, articleURL string) (domain.Candidate, error) {
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

	category := metaContent(doc, "property", "article:section")
	if category == "" {
		category = categoryFromURL(articleURL)
	}

	return domain.Candidate{
		URL:         articleURL,
		Title:       CleanText(title),
		Content:     content,
		Summary:     CleanText(metaContent(doc, "property", "og:description")),
		Author:      CleanText(metaContent(doc, "name", "author")),
		Category:    category,
		Source:      s.Name(),
		PublishedAt: published,
	}, nil
}

// extractArticleLinks pulls article anchors from the listing page.
// Bloomberg article URLs contain /detail-news/ or /market/ followed by id
// and slug segments.
func (s *BloombergSource) extractArticleLinks(body []byte) []string {
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
		if isBloombergArticlePath(href) {
			links = append(links, href)
		}
	})
	return links
}

func isBloombergArticlePath(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	for _, section := range nonArticleSections {
		if strings.Contains(u.Path, section) {
			return false
		}
	}
	if !strings.Contains(u.Path, "/detail-news/") && !strings.Contains(u.Path, "/market/") {
		return false
	}
	return len(pathSegments(link)) >= 2
}
