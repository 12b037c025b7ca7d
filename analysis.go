package foresight

import (
	"fmt"
	"strings"

	"github.com/etnz/foresight/date"
	"github.com/shopspring/decimal"
)

// ValidationError reports a request that is rejected locally, before any round trip.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AnalysisRequest is the forecast query sent to the analysis service.
type AnalysisRequest struct {
	Ticker string
	Start  date.Date
	End    date.Date
}

// NewAnalysisRequest returns a request with a trimmed, upper-cased ticker.
func NewAnalysisRequest(ticker string, start, end date.Date) AnalysisRequest {
	return AnalysisRequest{
		Ticker: strings.ToUpper(strings.TrimSpace(ticker)),
		Start:  start,
		End:    end,
	}
}

// LastYearRequest returns the request for ticker over the year that ends on today.
func LastYearRequest(ticker string, today date.Date) AnalysisRequest {
	r := date.YearTo(today)
	return NewAnalysisRequest(ticker, r.From, r.To)
}

// Validate checks what can be checked locally. The ordering of Start and End is left
// to the analysis service.
func (r AnalysisRequest) Validate() error {
	if r.Ticker == "" {
		return &ValidationError{Field: "ticker", Reason: "must not be empty"}
	}
	if r.Start.IsZero() {
		return &ValidationError{Field: "start date", Reason: "is missing"}
	}
	if r.End.IsZero() {
		return &ValidationError{Field: "end date", Reason: "is missing"}
	}
	return nil
}

func (r AnalysisRequest) String() string {
	return fmt.Sprintf("%s %s..%s", r.Ticker, r.Start, r.End)
}

// SeriesPoint is one point of the forecast chart. Either value may be absent.
type SeriesPoint struct {
	Date      string              `json:"date"`
	Actual    decimal.NullDecimal `json:"actual"`
	Predicted decimal.NullDecimal `json:"predicted"`
}

// AnalysisResult is the normalized response of the analysis service.
type AnalysisResult struct {
	Ticker        string
	Model         string
	CurrentPrice  decimal.Decimal // rounded to 2 decimals
	PredictedHigh decimal.Decimal // rounded to 2 decimals
	RiskScore     decimal.Decimal // rounded to 1 decimal
	Volatility    string
	Series        []SeriesPoint

	// Auxiliary metrics, only set when the service sends them.
	RMSE        decimal.NullDecimal
	MAPE        decimal.NullDecimal
	VaR95       decimal.NullDecimal
	SharpeRatio decimal.NullDecimal
}

// Placeholder is displayed in place of a metric that has no value yet.
const Placeholder = "-"

// DerivedMetrics are the render-ready metrics of an analysis.
type DerivedMetrics struct {
	CurrentPrice  string
	PredictedHigh string
	RiskScore     string
	Volatility    string
}

// NoMetrics returns the metrics displayed before any analysis resolved.
func NoMetrics() DerivedMetrics {
	return DerivedMetrics{
		CurrentPrice:  Placeholder,
		PredictedHigh: Placeholder,
		RiskScore:     Placeholder,
		Volatility:    Placeholder,
	}
}

// Metrics formats the result: prices with 2 decimals, risk score with 1.
func (r AnalysisResult) Metrics() DerivedMetrics {
	m := DerivedMetrics{
		CurrentPrice:  r.CurrentPrice.StringFixed(2),
		PredictedHigh: r.PredictedHigh.StringFixed(2),
		RiskScore:     r.RiskScore.StringFixed(1),
		Volatility:    r.Volatility,
	}
	if m.Volatility == "" {
		m.Volatility = Placeholder
	}
	return m
}
