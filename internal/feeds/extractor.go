package feeds

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
)

const (
	// minSummaryWords is the threshold below which an RSS summary is
	// considered too short to carry the story and worth expanding.
	minSummaryWords = 40

	// maxSummaryWords caps an expanded summary so a single long article
	// cannot dominate the analysis prompt.
	maxSummaryWords = 300
)

// browserHeaders sets browser-like request headers so sites that check
// Accept or User-Agent don't reject the request.
func browserHeaders(r *http.Request) {
	r.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	r.Header.Set("User-Agent", "Mozilla/5.0 (compatible; newsadvisor/1.0)")
}

// extractFullText fetches the web page at the given URL and returns its main
// readable text content using go-readability.
func extractFullText(url string, timeout time.Duration) (string, error) {
	article, err := readability.FromURL(url, timeout, browserHeaders)
	if err != nil {
		return "", fmt.Errorf("readability extraction: %w", err)
	}
	return article.TextContent, nil
}

// summaryTooShort reports whether the summary has fewer words than the
// expansion threshold.
func summaryTooShort(s string) bool {
	return len(strings.Fields(s)) < minSummaryWords
}

// truncateWords returns the first maxWords whitespace-delimited words from s.
// If s contains fewer than maxWords words, it is returned unchanged.
func truncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ")
}
