package feeds

import (
	"html"
	"regexp"
	"strings"

	"time"

	"github.com/mmcdole/gofeed"

	"newsadvisor/internal/models"
)

var htmlTagPattern = regexp.MustCompile("<[^>]*>")

// parseFeedItems converts gofeed items into FeedItems for the given
// category, keeping only items published on the same calendar date as now.
// Items with an empty title or an unparseable publication date are skipped.
func parseFeedItems(feed *gofeed.Feed, category models.FeedCategory, now time.Time) []models.FeedItem {
	var items []models.FeedItem
	for _, item := range feed.Items {
		if item.Title == "" || item.PublishedParsed == nil {
			continue
		}

		published := *item.PublishedParsed
		if !sameDate(published, now) {
			continue
		}

		items = append(items, models.FeedItem{
			Title:       item.Title,
			Link:        item.Link,
			Summary:     stripHTML(item.Description),
			Category:    category,
			PublishedAt: published,
		})
	}

	return items
}

// sameDate reports whether a and b fall on the same calendar date in the
// local time zone.
func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// stripHTML removes HTML tags from s, unescapes HTML entities, and trims
// surrounding whitespace.
func stripHTML(s string) string {
	clean := htmlTagPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(html.UnescapeString(clean))
}
