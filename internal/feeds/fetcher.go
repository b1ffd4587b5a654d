// Package feeds wraps RSS fetching and normalization for the two news
// categories the pipeline consumes. Each category maps to one configured
// feed URL; fetching returns only items published on the current date.
package feeds

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"newsadvisor/internal/config"
	"newsadvisor/internal/models"
)

const httpTimeout = 30 * time.Second

// Fetcher retrieves and normalizes RSS feed items per category.
type Fetcher struct {
	client          *http.Client
	urls            map[models.FeedCategory]string
	expandSummaries bool
}

// NewFetcher creates a Fetcher for the configured category feed URLs with a
// 30-second timeout HTTP client.
func NewFetcher(cfg config.FeedsConfig) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: httpTimeout,
			Transport: &userAgentTransport{
				base: http.DefaultTransport,
			},
		},
		urls: map[models.FeedCategory]string{
			models.CategoryPolitical: cfg.PoliticalURL,
			models.CategoryMarket:    cfg.MarketURL,
		},
		expandSummaries: cfg.ExpandSummaries,
	}
}

// userAgentTransport wraps an http.RoundTripper to inject browser-like
// headers on every request, since some news sites reject obvious bots.
type userAgentTransport struct {
	base http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "application/rss+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	return t.base.RoundTrip(req)
}

// FetchToday retrieves the feed for the given category and returns the items
// published on the current date, in feed order.
func (f *Fetcher) FetchToday(ctx context.Context, category models.FeedCategory) ([]models.FeedItem, error) {
	feedURL, ok := f.urls[category]
	if !ok {
		return nil, fmt.Errorf("no feed URL configured for category %q", category)
	}

	fp := gofeed.NewParser()
	fp.Client = f.client

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %q: %w", feedURL, err)
	}

	items := parseFeedItems(feed, category, time.Now())

	if f.expandSummaries {
		for i := range items {
			f.expandSummary(&items[i])
		}
	}

	slog.Info("fetched feed", "category", category, "items", len(items))
	return items, nil
}

// expandSummary replaces a short RSS summary with the linked article's full
// text. Extraction failures leave the RSS summary in place.
func (f *Fetcher) expandSummary(item *models.FeedItem) {
	if !summaryTooShort(item.Summary) || item.Link == "" {
		return
	}

	text, err := extractFullText(item.Link, httpTimeout)
	if err != nil {
		slog.Debug("summary expansion failed, keeping RSS summary",
			"link", item.Link,
			"error", err,
		)
		return
	}

	item.Summary = truncateWords(text, maxSummaryWords)
}
