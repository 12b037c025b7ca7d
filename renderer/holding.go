package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/foresight"
)

// HoldingsMarkdown renders the portfolio of id with the value of each position.
func HoldingsMarkdown(id foresight.Identity, holdings []foresight.Holding) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Portfolio of %s\n\n", id)
	if len(holdings) == 0 {
		fmt.Fprintln(&b, "_No portfolio configured for this identity._")
		return b.String()
	}

	fmt.Fprintln(&b, "| # | Symbol | Name | Quantity | Avg. Price | Current | Change | Gain | Total Value |")
	fmt.Fprintln(&b, "|---:|:---|:---|---:|---:|---:|---:|---:|---:|")

	total, gain := foresight.M(0, ""), foresight.M(0, "")
	for i, h := range holdings {
		value := h.MarketValue()
		total = total.Add(value)
		gain = gain.Add(h.Gain())
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s | %s | %s | %s |\n",
			i+1,
			h.Symbol,
			h.DisplayName,
			h.Quantity,
			h.AverageCost,
			h.CurrentPrice,
			change(h.Change),
			h.Gain().SignedString(),
			value,
		)
	}
	fmt.Fprintf(&b, "| | **Total** | | | | | | **%s** | **%s** |\n", gain.SignedString(), total)
	return b.String()
}

// change renders a daily change with the direction of the move, e.g. "▼ -4.1%".
func change(p foresight.Percent) string {
	switch {
	case p.Equal(0):
		return p.SignedString()
	case p.IsNegative():
		return "▼ " + p.SignedString()
	default:
		return "▲ " + p.SignedString()
	}
}

// LoginError is the message of the login surface after a refused attempt.
const LoginError = "Invalid credentials. Try user1/pass1"
