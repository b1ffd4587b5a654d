package ai

import (
	"fmt"
	"strconv"
	"strings"

	"newsadvisor/internal/models"
)

// BuildAnalysisPrompt assembles the analysis request text from the current
// portfolio holdings and the categorized news lists. It is a pure function:
// identical input always yields byte-identical output. Each section is
// omitted entirely when its source list is empty; the fixed instruction
// block describing the expected output schema is always appended.
func BuildAnalysisPrompt(holdings []models.Holding, political, market []models.FeedItem) string {
	var b strings.Builder

	if len(holdings) > 0 {
		b.WriteString("PORTFOLIO HOLDINGS:\n\n")
		for i, h := range holdings {
			fmt.Fprintf(&b, "%d. I have invested in %s which has average price %s, my pnl percentage for this asset is %.2f%%, and quantity is %s\n",
				i+1, h.InstrumentName, formatNumber(h.AveragePrice), h.PnLPercentage, formatNumber(h.Quantity))
		}
		b.WriteString("\n")
	}

	if len(political) > 0 {
		b.WriteString("POLITICAL NEWS:\n\n")
		for i, item := range political {
			fmt.Fprintf(&b, "%d. %s\n", i+1, item.Summary)
		}
		b.WriteString("\n")
	}

	if len(market) > 0 {
		b.WriteString("MARKET NEWS:\n\n")
		for i, item := range market {
			fmt.Fprintf(&b, "%d. %s\n", i+1, item.Summary)
		}
		b.WriteString("\n")
	}

	banner := strings.Repeat("=", 80)
	b.WriteString(banner + "\n")
	b.WriteString("INVESTMENT ANALYSIS REQUEST\n")
	b.WriteString(banner + "\n\n")

	b.WriteString("Based on the above portfolio holdings, market news, and political news, please provide the following analysis:\n\n")

	b.WriteString("1. INVESTING OPPORTUNITIES:\n")
	b.WriteString("   Identify good investing opportunities that align with:\n")
	b.WriteString("   - Your current portfolio composition and performance\n")
	b.WriteString("   - Market trends and news\n")
	b.WriteString("   - Political developments that may impact markets\n")
	b.WriteString("   - Risk diversification opportunities\n\n")

	b.WriteString("2. ASSETS TO BUY:\n")
	b.WriteString("   Recommend specific assets to purchase with:\n")
	b.WriteString("   - Exact entry price (target buy price)\n")
	b.WriteString("   - Exit price (target sell price for profit taking)\n")
	b.WriteString("   - Rationale based on portfolio analysis and news\n")
	b.WriteString("   - Consider portfolio diversification and risk management\n\n")

	b.WriteString("3. ASSETS TO SELL:\n")
	b.WriteString("   Recommend specific assets from your current portfolio to sell with:\n")
	b.WriteString("   - Exact entry price (current or average price)\n")
	b.WriteString("   - Exit price (target sell price)\n")
	b.WriteString("   - Rationale based on portfolio performance, news impact, or risk management\n")
	b.WriteString("   - Consider cutting losses or taking profits strategically\n\n")

	b.WriteString("OUTPUT FORMAT:\n")
	b.WriteString("For each recommendation (buy or sell), provide the information in the following JSON format:\n\n")
	b.WriteString("{\n")
	b.WriteString("  \"news_summary_referenced\": \"<exact news summary text that supports this recommendation>\",\n")
	b.WriteString("  \"news_summary_segment\": \"MARKET_NEWS\" or \"POLITICAL_NEWS\",\n")
	b.WriteString("  \"trading_idea\": \"<detailed trading idea including asset name, entry price, exit price, and rationale>\",\n")
	b.WriteString("  \"confidence_on_trading_idea\": <number between 1 and 10>\n")
	b.WriteString("}\n\n")

	b.WriteString("IMPORTANT INSTRUCTIONS:\n")
	b.WriteString("- Provide multiple recommendations (at least 2-3 buy opportunities and 1-2 sell recommendations if applicable)\n")
	b.WriteString("- Each recommendation must reference specific news items from the provided market or political news\n")
	b.WriteString("- Confidence score should reflect: 1-3 (low confidence), 4-6 (moderate), 7-8 (high), 9-10 (very high)\n")
	b.WriteString("- Consider portfolio diversification - avoid over-concentration in similar sectors\n")
	b.WriteString("- Entry and exit prices should be realistic and based on current market conditions\n")
	b.WriteString("- For sell recommendations, prioritize assets with negative PnL or those that may be impacted by news\n")
	b.WriteString("- For buy recommendations, consider assets that complement your existing portfolio\n")
	b.WriteString("- Always provide clear rationale connecting the news to your trading idea\n\n")

	b.WriteString("Please provide your analysis now:\n")

	return b.String()
}

// formatNumber renders a float without a fixed precision, so whole-number
// quantities print as "10" rather than "10.000000".
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
