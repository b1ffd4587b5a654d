// Package extract recovers structured trading recommendations from the raw
// analysis response text. The text mixes prose with JSON fragments, some of
// which may be malformed; extraction is tolerant and skips anything it
// cannot recover rather than failing the batch.
package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"newsadvisor/internal/models"
)

// markerField must appear inside a bare JSON object for the brace scanner to
// treat it as a recommendation candidate.
const markerField = `"news_summary_referenced"`

// contextWindow is how far back from a candidate the classifier looks for
// BUY/SELL section headings.
const contextWindow = 200

var (
	sellKeywords = []string{"sell", "exit", "redeploy"}
	buyKeywords  = []string{"buy", "purchase", "enter"}

	sellMarkers = []string{"sell recommendation", "### sell", "#### sell"}
	buyMarkers  = []string{"buy recommendation", "### buy", "#### buy"}
)

// Result holds the recommendations recovered from one response, partitioned
// by side in first-seen order, plus the original text verbatim for audit.
type Result struct {
	Buy  []models.Recommendation
	Sell []models.Recommendation
	Raw  string
}

// candidate is one potential JSON fragment found in the response, together
// with the offset of its opening brace in the source text. The offset is
// needed for classification: section headings immediately preceding the
// fragment decide BUY vs SELL when the idea text itself is ambiguous.
type candidate struct {
	text  string
	start int
}

// rawRecommendation mirrors the JSON schema requested from the model.
// Pointer fields distinguish "absent" from "zero"; a candidate missing any
// required field is discarded.
type rawRecommendation struct {
	NewsSummaryReferenced *string  `json:"news_summary_referenced"`
	NewsSummarySegment    *string  `json:"news_summary_segment"`
	TradingIdea           *string  `json:"trading_idea"`
	Confidence            *float64 `json:"confidence_on_trading_idea"`
}

// Parse extracts zero or more recommendations from the raw response text.
// Candidates come from fenced ```json blocks when any exist, otherwise from
// a brace-balanced scan of the whole text. Malformed or incomplete
// candidates are skipped silently; Parse never fails. Zero valid candidates
// yields empty Buy and Sell slices.
func Parse(raw string) *Result {
	result := &Result{Raw: raw}

	candidates := fencedCandidates(raw)
	if len(candidates) == 0 {
		candidates = braceCandidates(raw)
	}

	for _, cand := range candidates {
		cleaned := stripTrailingCommas(strings.TrimSpace(cand.text))

		var rec rawRecommendation
		if err := json.Unmarshal([]byte(cleaned), &rec); err != nil {
			continue
		}
		if rec.NewsSummaryReferenced == nil || rec.NewsSummarySegment == nil ||
			rec.TradingIdea == nil || rec.Confidence == nil {
			continue
		}

		r := models.Recommendation{
			NewsSummaryReferenced: *rec.NewsSummaryReferenced,
			NewsSummarySegment:    models.Segment(*rec.NewsSummarySegment),
			TradingIdea:           *rec.TradingIdea,
			Confidence:            int(*rec.Confidence),
		}

		if classifySell(raw, cand, *rec.TradingIdea) {
			result.Sell = append(result.Sell, r)
		} else {
			result.Buy = append(result.Buy, r)
		}
	}

	return result
}

// classifySell decides whether a candidate is a SELL recommendation. The
// SELL check runs before the BUY check, so an idea containing both keyword
// families classifies SELL. Anything matching neither defaults to BUY.
//
// The context window is sliced from the original text before lowercasing:
// candidate offsets are byte positions into raw, and ToLower can change byte
// lengths for some Unicode characters.
func classifySell(raw string, cand candidate, idea string) bool {
	ideaLower := strings.ToLower(idea)

	ctxStart := cand.start - contextWindow
	if ctxStart < 0 {
		ctxStart = 0
	}
	contextBefore := strings.ToLower(raw[ctxStart:cand.start])

	return containsAny(ideaLower, sellKeywords) || containsAny(contextBefore, sellMarkers)
}

// containsAny reports whether s contains any of the given substrings.
func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// fencedCandidates scans for markdown code blocks tagged "json" and returns
// the brace-delimited object inside each. Blocks whose trimmed content is
// not a single {...} object are ignored, as is an unterminated final fence.
func fencedCandidates(raw string) []candidate {
	var candidates []candidate

	const openTag = "```json"
	const closeTag = "```"

	pos := 0
	for {
		open := strings.Index(raw[pos:], openTag)
		if open < 0 {
			break
		}
		contentStart := pos + open + len(openTag)

		closing := strings.Index(raw[contentStart:], closeTag)
		if closing < 0 {
			break
		}
		contentEnd := contentStart + closing

		inner := strings.TrimSpace(raw[contentStart:contentEnd])
		if strings.HasPrefix(inner, "{") && strings.HasSuffix(inner, "}") {
			braceStart := contentStart + strings.Index(raw[contentStart:contentEnd], "{")
			candidates = append(candidates, candidate{text: inner, start: braceStart})
		}

		pos = contentEnd + len(closeTag)
	}

	return candidates
}

// braceCandidates is the fallback scan for responses without fenced blocks.
// It walks the text tracking brace depth and emits each balanced {...}
// substring that contains the marker field. Exactly one level of internal
// nesting is tolerated: a fragment that opens a third brace level is
// abandoned and scanning resumes after it.
func braceCandidates(raw string) []candidate {
	var candidates []candidate

	depth := 0
	start := -1

	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
			if depth > 2 {
				// Too deeply nested to be one of our fragments.
				depth = 0
				start = -1
			}
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				text := raw[start : i+1]
				if strings.Contains(text, markerField) {
					candidates = append(candidates, candidate{text: text, start: start})
				}
				start = -1
			}
		}
	}

	return candidates
}

// stripTrailingCommas removes commas that directly precede a closing brace
// or bracket (ignoring whitespace). Model output frequently contains these,
// and the standard JSON parser rejects them.
func stripTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			j := i + 1
			for j < len(s) && isSpace(s[j]) {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue // drop the comma
			}
		}
		b.WriteByte(s[i])
	}

	return b.String()
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// Format renders a parsed result as a readable report for logs.
func Format(result *Result) string {
	var out []string
	banner := strings.Repeat("=", 80)

	writeSection := func(title string, recs []models.Recommendation) {
		out = append(out, banner, title, banner)
		for i, rec := range recs {
			news := rec.NewsSummaryReferenced
			if len(news) > 100 {
				news = news[:100]
			}
			out = append(out,
				fmt.Sprintf("\n%d. %s", i+1, rec.TradingIdea),
				fmt.Sprintf("   News: %s...", news),
				fmt.Sprintf("   Segment: %s", rec.NewsSummarySegment),
				fmt.Sprintf("   Confidence: %d/10", rec.Confidence),
			)
		}
	}

	if len(result.Buy) > 0 {
		writeSection("BUY RECOMMENDATIONS", result.Buy)
	}
	if len(result.Sell) > 0 {
		if len(out) > 0 {
			out = append(out, "")
		}
		writeSection("SELL RECOMMENDATIONS", result.Sell)
	}

	return strings.Join(out, "\n")
}
