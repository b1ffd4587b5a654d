package portfolio

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// fakeClient returns canned positions and quotes; symbols listed in
// failQuotes return an error from Quote.
type fakeClient struct {
	positions  []Position
	quotes     map[string]float64
	failQuotes map[string]bool
}

func (f *fakeClient) Holdings(ctx context.Context) ([]Position, error) {
	return f.positions, nil
}

func (f *fakeClient) Quote(ctx context.Context, symbol string) (*Quote, error) {
	if f.failQuotes[symbol] {
		return nil, errors.New("quote service unavailable")
	}
	return &Quote{LastPrice: f.quotes[symbol]}, nil
}

func TestEnrichHoldings_ComputesPnL(t *testing.T) {
	client := &fakeClient{
		positions: []Position{
			{TradingSymbol: "ACME", Quantity: 10, AveragePrice: 100},
		},
		quotes: map[string]float64{"ACME": 110},
	}

	holdings := EnrichHoldings(context.Background(), client, client.positions,
		map[string]string{"ACME": "Acme Industries"})

	if len(holdings) != 1 {
		t.Fatalf("len(holdings) = %d, want 1", len(holdings))
	}
	h := holdings[0]
	if h.InstrumentName != "Acme Industries" {
		t.Errorf("InstrumentName = %q, want mapped name", h.InstrumentName)
	}
	if h.PnL != 100 {
		t.Errorf("PnL = %v, want 100", h.PnL)
	}
	if math.Abs(h.PnLPercentage-10) > 1e-9 {
		t.Errorf("PnLPercentage = %v, want 10", h.PnLPercentage)
	}
}

func TestEnrichHoldings_SkipsFailedQuotes(t *testing.T) {
	client := &fakeClient{
		positions: []Position{
			{TradingSymbol: "GOOD", Quantity: 5, AveragePrice: 50},
			{TradingSymbol: "BAD", Quantity: 5, AveragePrice: 50},
		},
		quotes:     map[string]float64{"GOOD": 55},
		failQuotes: map[string]bool{"BAD": true},
	}

	holdings := EnrichHoldings(context.Background(), client, client.positions, nil)

	if len(holdings) != 1 {
		t.Fatalf("len(holdings) = %d, want 1 (failed quote skipped)", len(holdings))
	}
	if holdings[0].Symbol != "GOOD" {
		t.Errorf("Symbol = %q, want %q", holdings[0].Symbol, "GOOD")
	}
	// No mapping provided, so the symbol doubles as the display name.
	if holdings[0].InstrumentName != "GOOD" {
		t.Errorf("InstrumentName = %q, want raw symbol", holdings[0].InstrumentName)
	}
}

func TestEnrichHoldings_ZeroAveragePrice(t *testing.T) {
	client := &fakeClient{
		positions: []Position{
			{TradingSymbol: "FREE", Quantity: 1, AveragePrice: 0},
		},
		quotes: map[string]float64{"FREE": 10},
	}

	holdings := EnrichHoldings(context.Background(), client, client.positions, nil)

	if len(holdings) != 1 {
		t.Fatalf("len(holdings) = %d, want 1", len(holdings))
	}
	if holdings[0].PnLPercentage != 0 {
		t.Errorf("PnLPercentage = %v, want 0 for zero average price", holdings[0].PnLPercentage)
	}
}

func TestLoadInstruments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "instruments.csv")
	content := "exchange,trading_symbol,name,segment\nNSE,ACME,Acme Industries,CASH\nNSE,WIDG,Widget Corp,CASH\nNSE,,Nameless,CASH\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing instruments file: %v", err)
	}

	instruments, err := LoadInstruments(path)
	if err != nil {
		t.Fatalf("LoadInstruments() error: %v", err)
	}

	if len(instruments) != 2 {
		t.Errorf("len(instruments) = %d, want 2", len(instruments))
	}
	if instruments["ACME"] != "Acme Industries" {
		t.Errorf("instruments[ACME] = %q, want %q", instruments["ACME"], "Acme Industries")
	}
}

func TestLoadInstruments_MissingColumns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "instruments.csv")
	if err := os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644); err != nil {
		t.Fatalf("writing instruments file: %v", err)
	}

	if _, err := LoadInstruments(path); err == nil {
		t.Fatal("LoadInstruments() expected error for missing columns, got nil")
	}
}
