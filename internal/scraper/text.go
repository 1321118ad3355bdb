package scraper

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// CleanText collapses whitespace runs and trims the result
func CleanText(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// TruncateText shortens text to at most maxLen bytes on a word boundary,
// appending an ellipsis when something was cut. The cut never splits a
// multi-byte character.
func TruncateText(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	for maxLen > 0 && !utf8.RuneStart(text[maxLen]) {
		maxLen--
	}
	cut := text[:maxLen]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}

var indonesianMonths = map[string]time.Month{
	"januari": time.January, "jan": time.January,
	"februari": time.February, "feb": time.February,
	"maret": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"mei":  time.May,
	"juni": time.June, "jun": time.June,
	"juli": time.July, "jul": time.July,
	"agustus": time.August, "agu": time.August, "agt": time.August,
	"september": time.September, "sep": time.September,
	"oktober": time.October, "okt": time.October,
	"november": time.November, "nov": time.November,
	"desember": time.December, "des": time.December,
}

var (
	dayNameRe  = regexp.MustCompile(`^[A-Za-z]+,\s*`)
	dateRe     = regexp.MustCompile(`(?i)(\d{1,2})\s+([A-Za-z]+)\s+(\d{4})`)
	clockRe    = regexp.MustCompile(`(\d{1,2}):(\d{2})`)
	jakartaLoc = time.FixedZone("WIB", 7*60*60)
)

// ParseIndonesianDate parses date strings like "28 Januari 2026" or
// "Selasa, 28 Jan 2026 15:30" into a WIB timestamp. Returns the zero time
// when the string is not recognized.
func ParseIndonesianDate(s string) time.Time {
	s = dayNameRe.ReplaceAllString(strings.TrimSpace(s), "")

	m := dateRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}
	}

	day := atoi(m[1])
	month, ok := indonesianMonths[strings.ToLower(m[2])]
	if !ok {
		return time.Time{}
	}
	year := atoi(m[3])

	hour, minute := 0, 0
	if c := clockRe.FindStringSubmatch(s); c != nil {
		hour, minute = atoi(c[1]), atoi(c[2])
	}

	return time.Date(year, month, day, hour, minute, 0, 0, jakartaLoc)
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}
