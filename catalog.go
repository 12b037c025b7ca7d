package foresight

import (
	"maps"
	"slices"
	"strings"
)

// Holding is one position of a mock portfolio.
type Holding struct {
	Symbol       string
	DisplayName  string
	Quantity     Quantity
	AverageCost  Money
	CurrentPrice Money
	Change       Percent
}

// MarketValue returns the position value at the current price.
func (h Holding) MarketValue() Money { return h.CurrentPrice.Mul(h.Quantity) }

// Gain returns the unrealized gain of the position against its average cost.
func (h Holding) Gain() Money { return h.CurrentPrice.Sub(h.AverageCost).Mul(h.Quantity) }

// Catalog is the static, read-only mapping of identities to their holdings.
type Catalog struct {
	holdings map[Identity][]Holding
}

// NewCatalog returns a Catalog holding a copy of holdings.
func NewCatalog(holdings map[Identity][]Holding) *Catalog {
	c := &Catalog{holdings: make(map[Identity][]Holding, len(holdings))}
	for id, hs := range holdings {
		c.holdings[id] = slices.Clone(hs)
	}
	return c
}

// HoldingsFor returns the holdings of id in their configured order, or nil when id
// has no portfolio. The returned slice is a copy.
func (c *Catalog) HoldingsFor(id Identity) []Holding {
	return slices.Clone(c.holdings[id])
}

// Lookup returns the holding of id for symbol, the comparison ignores case.
func (c *Catalog) Lookup(id Identity, symbol string) (Holding, bool) {
	for _, h := range c.holdings[id] {
		if strings.EqualFold(h.Symbol, symbol) {
			return h, true
		}
	}
	return Holding{}, false
}

// Symbols returns every symbol known to the catalog, sorted and without duplicates.
func (c *Catalog) Symbols() []string {
	set := make(map[string]struct{})
	for _, hs := range c.holdings {
		for _, h := range hs {
			set[h.Symbol] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(set))
}

func usd(v float64) Money { return M(v, "USD") }

// DefaultCatalog is the sample portfolio table shipped with the application.
var DefaultCatalog = NewCatalog(map[Identity][]Holding{
	"user1": {
		{Symbol: "AAPL", DisplayName: "Apple Inc.", Quantity: Q(15), AverageCost: usd(145.20), CurrentPrice: usd(172.50), Change: 18.8},
		{Symbol: "MSFT", DisplayName: "Microsoft", Quantity: Q(10), AverageCost: usd(280.50), CurrentPrice: usd(315.20), Change: 12.4},
		{Symbol: "GOOGL", DisplayName: "Alphabet Inc.", Quantity: Q(8), AverageCost: usd(130.00), CurrentPrice: usd(138.40), Change: 6.5},
		{Symbol: "AMZN", DisplayName: "Amazon", Quantity: Q(20), AverageCost: usd(135.00), CurrentPrice: usd(129.50), Change: -4.1},
	},
	"user2": {
		{Symbol: "TSLA", DisplayName: "Tesla Inc.", Quantity: Q(50), AverageCost: usd(210.00), CurrentPrice: usd(245.30), Change: 16.8},
		{Symbol: "NVDA", DisplayName: "NVIDIA", Quantity: Q(12), AverageCost: usd(350.00), CurrentPrice: usd(460.10), Change: 31.4},
	},
	"user3": {
		{Symbol: "BTC", DisplayName: "Bitcoin", Quantity: Q(0.5), AverageCost: usd(35000), CurrentPrice: usd(42000), Change: 20.0},
		{Symbol: "ETH", DisplayName: "Ethereum", Quantity: Q(5), AverageCost: usd(2100), CurrentPrice: usd(2250), Change: 7.1},
		{Symbol: "COIN", DisplayName: "Coinbase", Quantity: Q(100), AverageCost: usd(85.00), CurrentPrice: usd(140.20), Change: 64.9},
	},
})
