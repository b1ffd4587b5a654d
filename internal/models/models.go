// Package models defines the domain records shared across the pipeline:
// feed items discovered from RSS, portfolio holdings, the persisted
// prompt/response exchange, and the trading recommendations recovered from
// the analysis response.
package models

import "time"

// FeedCategory classifies a news feed item by its source feed.
type FeedCategory string

const (
	CategoryPolitical FeedCategory = "POLITICAL"
	CategoryMarket    FeedCategory = "MARKET"
)

// Segment is the news segment a recommendation references.
type Segment string

const (
	SegmentMarketNews    Segment = "MARKET_NEWS"
	SegmentPoliticalNews Segment = "POLITICAL_NEWS"
)

// FeedItem is a single news item discovered from an RSS feed. ContentHash is
// the SHA-256 hex digest of the title and serves as the item's stable
// identity: two items with the same hash are the same logical item. Processed
// flips to true exactly once, after the item has contributed to a successful
// analysis pass.
type FeedItem struct {
	ID          string       `json:"id,omitempty"`
	Title       string       `json:"title"`
	Link        string       `json:"link"`
	Summary     string       `json:"summary"`
	Category    FeedCategory `json:"category"`
	ContentHash string       `json:"content_hash"`
	Processed   bool         `json:"processed"`
	PublishedAt time.Time    `json:"published_at"`
	CreatedAt   time.Time    `json:"created_at,omitempty"`
	UpdatedAt   time.Time    `json:"updated_at,omitempty"`
}

// Holding is one instrument position in the broker portfolio, enriched with
// the latest quote so the analysis prompt can state current performance.
type Holding struct {
	Symbol         string  `json:"symbol"`
	InstrumentName string  `json:"instrument_name"`
	Quantity       float64 `json:"quantity"`
	AveragePrice   float64 `json:"average_price"`
	CurrentPrice   float64 `json:"current_price"`
	PnL            float64 `json:"pnl"`
	PnLPercentage  float64 `json:"pnl_percentage"`
}

// RequestResponseRecord is the persisted audit record of one analysis
// exchange: the exact prompt sent to the language model and the raw response
// text. Append-only; never mutated after creation.
type RequestResponseRecord struct {
	ID             string    `json:"id,omitempty"`
	Prompt         string    `json:"prompt"`
	PromptResponse string    `json:"prompt_response"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
	UpdatedAt      time.Time `json:"updated_at,omitempty"`
}

// Recommendation is a single structured trading suggestion recovered from
// the raw analysis response. It is derived on demand and never persisted on
// its own; the response text is the unit of persistence.
type Recommendation struct {
	NewsSummaryReferenced string  `json:"news_summary_referenced"`
	NewsSummarySegment    Segment `json:"news_summary_segment"`
	TradingIdea           string  `json:"trading_idea"`
	Confidence            int     `json:"confidence_on_trading_idea"`
}
