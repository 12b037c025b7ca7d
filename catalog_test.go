package foresight

import "testing"

func TestHoldingsFor(t *testing.T) {
	tests := []struct {
		id      Identity
		symbols []string
	}{
		{"user1", []string{"AAPL", "MSFT", "GOOGL", "AMZN"}},
		{"user2", []string{"TSLA", "NVDA"}},
		{"user3", []string{"BTC", "ETH", "COIN"}},
		{"nobody", nil},
		{"", nil},
	}
	for _, tt := range tests {
		got := DefaultCatalog.HoldingsFor(tt.id)
		if len(got) != len(tt.symbols) {
			t.Errorf("HoldingsFor(%q) returned %d holdings, want %d", tt.id, len(got), len(tt.symbols))
			continue
		}
		for i, h := range got {
			if h.Symbol != tt.symbols[i] {
				t.Errorf("HoldingsFor(%q)[%d].Symbol = %q, want %q", tt.id, i, h.Symbol, tt.symbols[i])
			}
		}
	}
}

func TestHoldingsForReturnsACopy(t *testing.T) {
	hs := DefaultCatalog.HoldingsFor("user1")
	hs[0].Symbol = "XXX"
	if got := DefaultCatalog.HoldingsFor("user1")[0].Symbol; got != "AAPL" {
		t.Errorf("HoldingsFor() shares its storage: first symbol = %q, want AAPL", got)
	}
}

func TestLookup(t *testing.T) {
	h, ok := DefaultCatalog.Lookup("user1", "aapl")
	if !ok {
		t.Fatal("Lookup(user1, aapl) not found")
	}
	if h.DisplayName != "Apple Inc." {
		t.Errorf("Lookup(user1, aapl).DisplayName = %q, want %q", h.DisplayName, "Apple Inc.")
	}
	if _, ok := DefaultCatalog.Lookup("user2", "AAPL"); ok {
		t.Error("Lookup(user2, AAPL) found, want not found")
	}
}

func TestHoldingValues(t *testing.T) {
	h, _ := DefaultCatalog.Lookup("user1", "AAPL")
	if got, want := h.MarketValue().String(), "$2,587.50"; got != want {
		t.Errorf("MarketValue() = %q, want %q", got, want)
	}
	if got, want := h.Gain().String(), "$409.50"; got != want {
		t.Errorf("Gain() = %q, want %q", got, want)
	}
	amzn, _ := DefaultCatalog.Lookup("user1", "AMZN")
	if got, want := amzn.Change.SignedString(), "-4.1%"; got != want {
		t.Errorf("Change.SignedString() = %q, want %q", got, want)
	}
	btc, _ := DefaultCatalog.Lookup("user3", "BTC")
	if got, want := btc.MarketValue().String(), "$21,000.00"; got != want {
		t.Errorf("MarketValue() = %q, want %q", got, want)
	}
}

func TestSymbols(t *testing.T) {
	got := DefaultCatalog.Symbols()
	if len(got) != 9 {
		t.Errorf("Symbols() returned %d symbols, want 9: %v", len(got), got)
	}
}
