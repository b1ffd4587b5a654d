package extract

import (
	"strings"
	"testing"

	"newsadvisor/internal/models"
)

const validBuyFragment = `{
  "news_summary_referenced": "Index closes at a record high.",
  "news_summary_segment": "MARKET_NEWS",
  "trading_idea": "Buy Acme Industries at 100, exit at 120.",
  "confidence_on_trading_idea": 8
}`

const validSellFragment = `{
  "news_summary_referenced": "Parliament passes the new budget.",
  "news_summary_segment": "POLITICAL_NEWS",
  "trading_idea": "Sell Widget Corp at 50 to cut losses.",
  "confidence_on_trading_idea": 6
}`

func fence(s string) string {
	return "```json\n" + s + "\n```"
}

func TestParse_FencedBlocks(t *testing.T) {
	raw := "Here is my analysis.\n\n" + fence(validBuyFragment) + "\n\nAnd a sell idea:\n\n" + fence(validSellFragment) + "\n"

	result := Parse(raw)

	if len(result.Buy) != 1 {
		t.Fatalf("len(Buy) = %d, want 1", len(result.Buy))
	}
	if len(result.Sell) != 1 {
		t.Fatalf("len(Sell) = %d, want 1", len(result.Sell))
	}
	if result.Buy[0].NewsSummaryReferenced != "Index closes at a record high." {
		t.Errorf("Buy[0].NewsSummaryReferenced = %q", result.Buy[0].NewsSummaryReferenced)
	}
	if result.Buy[0].NewsSummarySegment != models.SegmentMarketNews {
		t.Errorf("Buy[0].NewsSummarySegment = %q, want MARKET_NEWS", result.Buy[0].NewsSummarySegment)
	}
	if result.Buy[0].Confidence != 8 {
		t.Errorf("Buy[0].Confidence = %d, want 8", result.Buy[0].Confidence)
	}
	if result.Sell[0].Confidence != 6 {
		t.Errorf("Sell[0].Confidence = %d, want 6", result.Sell[0].Confidence)
	}
	if result.Raw != raw {
		t.Error("Raw not preserved verbatim")
	}
}

func TestParse_ToleratesMalformedFragments(t *testing.T) {
	trailingComma := `{
  "news_summary_referenced": "Summary one.",
  "news_summary_segment": "MARKET_NEWS",
  "trading_idea": "Buy the index fund.",
  "confidence_on_trading_idea": 7,
}`
	malformed := `{ "news_summary_referenced": "broken" "no_commas": true `

	raw := fence(validBuyFragment) + "\n" + fence(trailingComma) + "\n" + fence(malformed+"}")

	result := Parse(raw)

	// The valid fragment and the trailing-comma fragment are recovered;
	// the truly malformed one is skipped without error.
	if got := len(result.Buy) + len(result.Sell); got != 2 {
		t.Fatalf("recovered %d recommendations, want 2", got)
	}
}

func TestParse_MissingRequiredFieldDiscarded(t *testing.T) {
	missing := `{
  "news_summary_referenced": "Summary.",
  "news_summary_segment": "MARKET_NEWS",
  "trading_idea": "Buy something."
}`
	result := Parse(fence(missing))

	if len(result.Buy) != 0 || len(result.Sell) != 0 {
		t.Errorf("candidate missing confidence field not discarded: buy=%d sell=%d",
			len(result.Buy), len(result.Sell))
	}
}

func TestParse_BraceScanFallback(t *testing.T) {
	raw := "No code fences here, just an inline object " + validBuyFragment + " in prose."

	result := Parse(raw)

	if len(result.Buy) != 1 {
		t.Fatalf("len(Buy) = %d, want 1", len(result.Buy))
	}
	if result.Buy[0].TradingIdea != "Buy Acme Industries at 100, exit at 120." {
		t.Errorf("TradingIdea = %q", result.Buy[0].TradingIdea)
	}
}

func TestParse_BraceScanOneNestedLevel(t *testing.T) {
	nested := `{
  "news_summary_referenced": "Summary.",
  "news_summary_segment": "MARKET_NEWS",
  "trading_idea": "Buy at support.",
  "confidence_on_trading_idea": 5,
  "levels": {"entry": 100, "exit": 120}
}`
	result := Parse("analysis: " + nested)

	if len(result.Buy) != 1 {
		t.Fatalf("object with one nested level not matched: len(Buy) = %d, want 1", len(result.Buy))
	}
}

func TestParse_BraceScanIgnoresUnmarkedObjects(t *testing.T) {
	raw := `Some JSON without the marker: {"foo": "bar"} and nothing else.`

	result := Parse(raw)

	if len(result.Buy) != 0 || len(result.Sell) != 0 {
		t.Errorf("unmarked object extracted: buy=%d sell=%d", len(result.Buy), len(result.Sell))
	}
}

func TestParse_ClassificationPrecedence(t *testing.T) {
	// An idea containing both keyword families must classify SELL: the sell
	// check runs first.
	both := `{
  "news_summary_referenced": "Summary.",
  "news_summary_segment": "MARKET_NEWS",
  "trading_idea": "Sell Widget Corp and buy the dip in Acme.",
  "confidence_on_trading_idea": 5
}`
	result := Parse(fence(both))

	if len(result.Sell) != 1 || len(result.Buy) != 0 {
		t.Errorf("idea with buy and sell keywords: buy=%d sell=%d, want sell only",
			len(result.Buy), len(result.Sell))
	}
}

func TestParse_ClassificationKeywords(t *testing.T) {
	tests := []struct {
		name     string
		idea     string
		wantSell bool
	}{
		{"sell keyword", "Time to sell this position.", true},
		{"exit keyword", "Exit the position near resistance.", true},
		{"redeploy keyword", "Redeploy capital into bonds.", true},
		{"buy keyword", "Buy on weakness.", false},
		{"purchase keyword", "Purchase more shares.", false},
		{"enter keyword", "Enter a long position.", false},
		{"no keyword defaults to buy", "Hold and watch the chart.", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fragment := `{
  "news_summary_referenced": "Summary.",
  "news_summary_segment": "MARKET_NEWS",
  "trading_idea": "` + tt.idea + `",
  "confidence_on_trading_idea": 5
}`
			result := Parse(fence(fragment))

			if tt.wantSell {
				if len(result.Sell) != 1 {
					t.Errorf("idea %q: sell=%d, want 1", tt.idea, len(result.Sell))
				}
			} else {
				if len(result.Buy) != 1 {
					t.Errorf("idea %q: buy=%d, want 1", tt.idea, len(result.Buy))
				}
			}
		})
	}
}

func TestParse_SectionHeadingContext(t *testing.T) {
	// The idea itself has no side keywords; the heading in the 200 chars
	// before the fragment decides the side.
	neutral := `{
  "news_summary_referenced": "Summary.",
  "news_summary_segment": "POLITICAL_NEWS",
  "trading_idea": "Reduce exposure to rate-sensitive sectors.",
  "confidence_on_trading_idea": 4
}`
	raw := "### SELL Opportunities\n\n" + fence(neutral)

	result := Parse(raw)

	if len(result.Sell) != 1 || len(result.Buy) != 0 {
		t.Errorf("sell heading context: buy=%d sell=%d, want sell only", len(result.Buy), len(result.Sell))
	}
}

func TestParse_CaseShiftingUnicodeProse(t *testing.T) {
	// Lowercasing can change byte lengths (the Kelvin sign lowers from three
	// bytes to one), so long runs of such characters before a fragment must
	// not break the context-window slicing.
	prose := strings.Repeat("\u212a", 200) + "\n\n### SELL Opportunities\n\n"
	neutral := `{
  "news_summary_referenced": "Summary.",
  "news_summary_segment": "MARKET_NEWS",
  "trading_idea": "Reduce exposure to rate-sensitive sectors.",
  "confidence_on_trading_idea": 4
}`
	result := Parse(prose + fence(neutral))

	if len(result.Sell) != 1 || len(result.Buy) != 0 {
		t.Errorf("unicode prose before fragment: buy=%d sell=%d, want sell only",
			len(result.Buy), len(result.Sell))
	}
}

func TestParse_EmptyAndNoCandidates(t *testing.T) {
	for _, raw := range []string{"", "Plain prose with no JSON at all."} {
		result := Parse(raw)
		if len(result.Buy) != 0 || len(result.Sell) != 0 {
			t.Errorf("Parse(%q): buy=%d sell=%d, want both empty", raw, len(result.Buy), len(result.Sell))
		}
		if result.Raw != raw {
			t.Errorf("Parse(%q): raw text not preserved", raw)
		}
	}
}

func TestParse_FirstSeenOrder(t *testing.T) {
	first := strings.Replace(validBuyFragment, "record high", "first item", 1)
	second := strings.Replace(validBuyFragment, "record high", "second item", 1)

	result := Parse(fence(first) + "\n" + fence(second))

	if len(result.Buy) != 2 {
		t.Fatalf("len(Buy) = %d, want 2", len(result.Buy))
	}
	if !strings.Contains(result.Buy[0].NewsSummaryReferenced, "first item") {
		t.Errorf("Buy[0] = %q, want first-seen fragment first", result.Buy[0].NewsSummaryReferenced)
	}
}

func TestStripTrailingCommas(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"a": 1,}`, `{"a": 1}`},
		{`{"a": [1, 2,],}`, `{"a": [1, 2]}`},
		{"{\"a\": 1,\n}", "{\"a\": 1\n}"},
		{`{"a": 1, "b": 2}`, `{"a": 1, "b": 2}`},
	}

	for _, tt := range tests {
		if got := stripTrailingCommas(tt.in); got != tt.want {
			t.Errorf("stripTrailingCommas(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormat(t *testing.T) {
	result := Parse(fence(validBuyFragment) + "\n" + fence(validSellFragment))

	report := Format(result)

	if !strings.Contains(report, "BUY RECOMMENDATIONS") {
		t.Error("report missing buy section")
	}
	if !strings.Contains(report, "SELL RECOMMENDATIONS") {
		t.Error("report missing sell section")
	}
	if !strings.Contains(report, "Confidence: 8/10") {
		t.Error("report missing confidence line")
	}
}
