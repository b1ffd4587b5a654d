// Package pipeline implements the orchestration core: one pass fetches
// today's categorized news, deduplicates it against history, builds the
// analysis prompt, calls the language model, extracts recommendations for
// audit, and commits the pass's effects to the store.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"newsadvisor/internal/ai"
	"newsadvisor/internal/extract"
	"newsadvisor/internal/models"
	"newsadvisor/internal/portfolio"
	"newsadvisor/internal/storage"
)

// FeedSource fetches today's normalized feed items for one category.
type FeedSource interface {
	FetchToday(ctx context.Context, category models.FeedCategory) ([]models.FeedItem, error)
}

// Pipeline wires the collaborators for one analysis pass. Broker may be nil,
// in which case passes run without portfolio context.
type Pipeline struct {
	store       storage.Store
	source      FeedSource
	provider    ai.Provider
	broker      portfolio.Client
	instruments map[string]string
}

// New creates a Pipeline over the given collaborators.
func New(store storage.Store, source FeedSource, provider ai.Provider, broker portfolio.Client, instruments map[string]string) *Pipeline {
	return &Pipeline{
		store:       store,
		source:      source,
		provider:    provider,
		broker:      broker,
		instruments: instruments,
	}
}

// RunPass executes one complete orchestration pass. Collaborator failures on
// the data-gathering side (portfolio, feeds) degrade to reduced input and
// never abort the pass. A gateway failure aborts the pass before any
// mutation: no feed item is marked processed and no exchange record is
// written. Feed items inserted by deduplication stay persisted either way;
// a later pass re-discovers them as unprocessed work.
func (p *Pipeline) RunPass(ctx context.Context) error {
	holdings := p.gatherHoldings(ctx)
	political := p.fetchCategory(ctx, models.CategoryPolitical)
	market := p.fetchCategory(ctx, models.CategoryMarket)

	newPolitical, err := dedup(ctx, p.store, political)
	if err != nil {
		return fmt.Errorf("deduplicating political news: %w", err)
	}
	newMarket, err := dedup(ctx, p.store, market)
	if err != nil {
		return fmt.Errorf("deduplicating market news: %w", err)
	}

	if len(newPolitical) == 0 && len(newMarket) == 0 {
		slog.Info("no new feed items, skipping analysis")
		return nil
	}

	slog.Info("running analysis",
		"political", len(newPolitical),
		"market", len(newMarket),
		"holdings", len(holdings),
	)

	prompt := ai.BuildAnalysisPrompt(holdings, newPolitical, newMarket)

	response, err := p.provider.Complete(ctx, prompt)
	if err != nil {
		return fmt.Errorf("analysis call failed: %w", err)
	}

	result := extract.Parse(response)
	slog.Info("extracted recommendations",
		"buy", len(result.Buy),
		"sell", len(result.Sell),
	)
	if report := extract.Format(result); report != "" {
		slog.Debug("recommendation report", "report", report)
	}

	hashes := make([]string, 0, len(newPolitical)+len(newMarket))
	for _, item := range newPolitical {
		hashes = append(hashes, item.ContentHash)
	}
	for _, item := range newMarket {
		hashes = append(hashes, item.ContentHash)
	}

	return p.commitPass(ctx, hashes, prompt, response)
}

// commitPass records the effects of a successful analysis call: every
// contributing feed item is marked processed and one exchange record holding
// the prompt and raw response is appended. It runs only after the gateway
// call succeeded.
func (p *Pipeline) commitPass(ctx context.Context, hashes []string, prompt, response string) error {
	if err := p.store.MarkFeedsProcessed(ctx, hashes); err != nil {
		return fmt.Errorf("marking feeds processed: %w", err)
	}

	rec := &models.RequestResponseRecord{
		Prompt:         prompt,
		PromptResponse: response,
	}
	if err := p.store.SaveRequestResponse(ctx, rec); err != nil {
		return fmt.Errorf("saving exchange record: %w", err)
	}

	slog.Info("pass committed", "items", len(hashes), "record", rec.ID)
	return nil
}

// gatherHoldings returns the enriched portfolio holdings, or nil when no
// broker is configured or the holdings fetch fails. Failures degrade: the
// pass continues without portfolio context.
func (p *Pipeline) gatherHoldings(ctx context.Context) []models.Holding {
	if p.broker == nil {
		return nil
	}

	positions, err := p.broker.Holdings(ctx)
	if err != nil {
		slog.Warn("holdings fetch failed, continuing without portfolio context", "error", err)
		return nil
	}

	return portfolio.EnrichHoldings(ctx, p.broker, positions, p.instruments)
}

// fetchCategory returns today's feed items for one category, or nil when the
// fetch fails. Failures degrade: the pass continues with the other category.
func (p *Pipeline) fetchCategory(ctx context.Context, category models.FeedCategory) []models.FeedItem {
	items, err := p.source.FetchToday(ctx, category)
	if err != nil {
		slog.Warn("feed fetch failed, continuing without category",
			"category", category,
			"error", err,
		)
		return nil
	}
	return items
}
