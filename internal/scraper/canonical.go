package scraper

import (
	"fmt"
	"net/url"
	"strings"
)

// trackingParams are query parameters stripped during canonicalization:
// they vary per referral without changing the physical article.
var trackingParams = map[string]struct{}{
	"fbclid":       {},
	"gclid":        {},
	"igshid":       {},
	"mc_cid":       {},
	"mc_eid":       {},
	"ref":          {},
	"ref_src":      {},
	"source":       {},
	"twclid":       {},
	"_ga":          {},
	"amp":          {},
	"page":         {},
	"yclid":        {},
	"spm":          {},
	"share_source": {},
}

// CanonicalURL normalizes an article URL into its deduplication key:
// lowercase scheme and host, no fragment, no tracking query parameters, no
// trailing slash. The same physical article always canonicalizes to the
// same identifier regardless of incidental URL variation.
func CanonicalURL(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("failed to parse url %q: %w", rawURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("url %q is not absolute", rawURL)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for param := range q {
		lower := strings.ToLower(param)
		if _, tracked := trackingParams[lower]; tracked || strings.HasPrefix(lower, "utm_") {
			q.Del(param)
		}
	}
	u.RawQuery = q.Encode()

	u.Path = strings.TrimSuffix(u.Path, "/")

	return u.String(), nil
}

func hostOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse url %q: %w", rawURL, err)
	}
	return u.Host, nil
}
