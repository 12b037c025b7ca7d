package renderer

import (
	"github.com/etnz/foresight"
	"github.com/etnz/foresight/session"
	"github.com/shopspring/decimal"
)

// Analysis is the template view of a session snapshot.
type Analysis struct {
	Identity string
	State    string
	Loading  bool
	Error    string
	Ticker   string
	Window   string

	CurrentPrice  string
	PredictedHigh string
	RiskScore     string
	Volatility    string

	Model   string
	Extras  []Extra
	Points  []Point
	Omitted int // number of older points not rendered
}

// Extra is an optional metric returned by the analysis service.
type Extra struct {
	Name  string
	Value string
}

// Point is a rendered series point.
type Point struct {
	Date      string
	Actual    string
	Predicted string
}

// NewAnalysis builds the view of s keeping at most rows recent points, all of them if rows <= 0.
func NewAnalysis(s session.Snapshot, rows int) *Analysis {
	a := &Analysis{
		Identity:      s.Identity.String(),
		State:         s.State.String(),
		Loading:       s.Loading,
		Error:         s.Error,
		CurrentPrice:  dollars(s.Metrics.CurrentPrice),
		PredictedHigh: dollars(s.Metrics.PredictedHigh),
		RiskScore:     s.Metrics.RiskScore,
		Volatility:    s.Metrics.Volatility,
		Model:         s.Result.Model,
	}
	if s.Request.Ticker != "" {
		a.Ticker = s.Request.Ticker
		a.Window = s.Request.Start.String() + " to " + s.Request.End.String()
	}

	for _, x := range []struct {
		name  string
		value decimal.NullDecimal
	}{
		{"RMSE", s.Result.RMSE},
		{"MAPE", s.Result.MAPE},
		{"VaR (95%)", s.Result.VaR95},
		{"Sharpe Ratio", s.Result.SharpeRatio},
	} {
		if x.value.Valid {
			a.Extras = append(a.Extras, Extra{Name: x.name, Value: x.value.Decimal.StringFixed(4)})
		}
	}

	series := s.Series
	if rows > 0 && len(series) > rows {
		a.Omitted = len(series) - rows
		series = series[a.Omitted:]
	}
	for _, p := range series {
		a.Points = append(a.Points, Point{Date: p.Date, Actual: optional(p.Actual), Predicted: optional(p.Predicted)})
	}
	return a
}

// dollars prefixes a formatted price, placeholders are left as is.
func dollars(v string) string {
	if v == foresight.Placeholder {
		return v
	}
	return "$" + v
}

func optional(v decimal.NullDecimal) string {
	if !v.Valid {
		return foresight.Placeholder
	}
	return v.Decimal.StringFixed(2)
}
