// Package portfolio wraps the broker API behind a small interface and
// enriches raw positions with live quotes for the analysis prompt.
package portfolio

import (
	"context"
	"log/slog"

	"newsadvisor/internal/models"
)

// Position is one raw holding as reported by the broker.
type Position struct {
	TradingSymbol string  `json:"trading_symbol"`
	Quantity      float64 `json:"quantity"`
	AveragePrice  float64 `json:"average_price"`
}

// Quote is the latest market quote for an instrument.
type Quote struct {
	LastPrice float64 `json:"last_price"`
}

// Client is the broker interface the pipeline depends on.
type Client interface {
	Holdings(ctx context.Context) ([]Position, error)
	Quote(ctx context.Context, tradingSymbol string) (*Quote, error)
}

// EnrichHoldings converts raw broker positions into prompt-ready holdings by
// looking up the current quote for each. A failed quote lookup skips that
// position and continues; the pass proceeds with reduced data. The
// instruments map translates trading symbols into display names; symbols
// without a mapping keep the raw symbol.
func EnrichHoldings(ctx context.Context, client Client, positions []Position, instruments map[string]string) []models.Holding {
	holdings := make([]models.Holding, 0, len(positions))

	for _, pos := range positions {
		quote, err := client.Quote(ctx, pos.TradingSymbol)
		if err != nil {
			slog.Warn("quote lookup failed, skipping holding",
				"symbol", pos.TradingSymbol,
				"error", err,
			)
			continue
		}

		name := pos.TradingSymbol
		if n, ok := instruments[pos.TradingSymbol]; ok {
			name = n
		}

		currentPrice := quote.LastPrice
		pnl := (currentPrice - pos.AveragePrice) * pos.Quantity
		var pnlPct float64
		if pos.AveragePrice > 0 {
			pnlPct = (currentPrice - pos.AveragePrice) / pos.AveragePrice * 100
		}

		holdings = append(holdings, models.Holding{
			Symbol:         pos.TradingSymbol,
			InstrumentName: name,
			Quantity:       pos.Quantity,
			AveragePrice:   pos.AveragePrice,
			CurrentPrice:   currentPrice,
			PnL:            pnl,
			PnLPercentage:  pnlPct,
		})
	}

	return holdings
}
