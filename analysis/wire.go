package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/foresight"
	"github.com/etnz/foresight/date"
	"github.com/shopspring/decimal"
)

// predictRequest is the body of POST /predict.
type predictRequest struct {
	Ticker    string    `json:"ticker"`
	StartDate date.Date `json:"start_date"`
	EndDate   date.Date `json:"end_date"`
}

func encodeRequest(r foresight.AnalysisRequest) ([]byte, error) {
	return json.Marshal(predictRequest{Ticker: r.Ticker, StartDate: r.Start, EndDate: r.End})
}

// Sample of a /predict response:
//
//	{
//	  "ticker": "AAPL",
//	  "model": "XGBoost",
//	  "metrics": {"RMSE": 2.1, "MAPE": 0.011, "VaR_95": -0.027, "Sharpe_Ratio": 1.3,
//	              "Decision_Score": 0.46, "Volatility": "Medium"},
//	  "chart_data": [{"date": "2022-08-01", "actual": 161.51, "predicted": 160.02}, ...],
//	  "current_price": 129.93,
//	  "predicted_high": 176.3
//	}
const (
	pathChartData     = "$.chart_data"
	pathCurrentPrice  = "$.current_price"
	pathPredictedHigh = "$.predicted_high"
	pathDecisionScore = "$.metrics.Decision_Score"
	pathVolatility    = "$.metrics.Volatility"
)

// decodeResponse validates the required fields of body and returns the normalized result.
func decodeResponse(body []byte) (foresight.AnalysisResult, error) {
	var res foresight.AnalysisResult

	// numbers are kept as json.Number so that prices are parsed exactly.
	var jobj any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&jobj); err != nil {
		return res, &MalformedResponseError{Path: "$", Err: err}
	}
	if _, ok := jobj.(map[string]any); !ok {
		return res, &MalformedResponseError{Path: "$", Err: fmt.Errorf("not an object: %T", jobj)}
	}

	var err error
	if res.CurrentPrice, err = requiredNumber(jobj, pathCurrentPrice); err != nil {
		return res, err
	}
	if res.PredictedHigh, err = requiredNumber(jobj, pathPredictedHigh); err != nil {
		return res, err
	}
	if res.RiskScore, err = requiredNumber(jobj, pathDecisionScore); err != nil {
		return res, err
	}
	if res.Volatility, err = requiredString(jobj, pathVolatility); err != nil {
		return res, err
	}
	if res.Series, err = requiredSeries(jobj); err != nil {
		return res, err
	}

	res.CurrentPrice = res.CurrentPrice.Round(2)
	res.PredictedHigh = res.PredictedHigh.Round(2)
	res.RiskScore = res.RiskScore.Round(1)

	// informative fields, a missing or odd value is not an error.
	res.Ticker, _ = optionalString(jobj, "$.ticker")
	res.Model, _ = optionalString(jobj, "$.model")
	res.RMSE = optionalNumber(jobj, "$.metrics.RMSE")
	res.MAPE = optionalNumber(jobj, "$.metrics.MAPE")
	res.VaR95 = optionalNumber(jobj, "$.metrics.VaR_95")
	res.SharpeRatio = optionalNumber(jobj, "$.metrics.Sharpe_Ratio")
	return res, nil
}

// get returns the value at path.
func get(jobj any, path string) (any, error) {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return nil, &MalformedResponseError{Path: path, Err: err}
	}
	return jval, nil
}

func requiredNumber(jobj any, path string) (decimal.Decimal, error) {
	jval, err := get(jobj, path)
	if err != nil {
		return decimal.Decimal{}, err
	}
	d, err := toDecimal(jval)
	if err != nil {
		return decimal.Decimal{}, &MalformedResponseError{Path: path, Err: err}
	}
	return d, nil
}

func requiredString(jobj any, path string) (string, error) {
	jval, err := get(jobj, path)
	if err != nil {
		return "", err
	}
	s, ok := jval.(string)
	if !ok {
		return "", &MalformedResponseError{Path: path, Err: fmt.Errorf("want a string got %T", jval)}
	}
	return s, nil
}

func optionalString(jobj any, path string) (string, bool) {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return "", false
	}
	s, ok := jval.(string)
	return s, ok
}

func optionalNumber(jobj any, path string) decimal.NullDecimal {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return decimal.NullDecimal{}
	}
	d, err := toDecimal(jval)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// requiredSeries reads chart_data, points are passed through in the order received.
func requiredSeries(jobj any) ([]foresight.SeriesPoint, error) {
	jval, err := get(jobj, pathChartData)
	if err != nil {
		return nil, err
	}
	items, ok := jval.([]any)
	if !ok {
		return nil, &MalformedResponseError{Path: pathChartData, Err: fmt.Errorf("want an array got %T", jval)}
	}
	series := make([]foresight.SeriesPoint, 0, len(items))
	for i, item := range items {
		path := fmt.Sprintf("%s[%d]", pathChartData, i)
		point, ok := item.(map[string]any)
		if !ok {
			return nil, &MalformedResponseError{Path: path, Err: fmt.Errorf("want an object got %T", item)}
		}
		label, ok := point["date"].(string)
		if !ok {
			return nil, &MalformedResponseError{Path: path + ".date", Err: fmt.Errorf("want a string got %T", point["date"])}
		}
		actual, err := nullableNumber(point["actual"])
		if err != nil {
			return nil, &MalformedResponseError{Path: path + ".actual", Err: err}
		}
		predicted, err := nullableNumber(point["predicted"])
		if err != nil {
			return nil, &MalformedResponseError{Path: path + ".predicted", Err: err}
		}
		series = append(series, foresight.SeriesPoint{Date: label, Actual: actual, Predicted: predicted})
	}
	return series, nil
}

// nullableNumber accepts a number, null, or a missing key.
func nullableNumber(jval any) (decimal.NullDecimal, error) {
	if jval == nil {
		return decimal.NullDecimal{}, nil
	}
	d, err := toDecimal(jval)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

var errNotANumber = errors.New("not a number")

func toDecimal(jval any) (decimal.Decimal, error) {
	switch v := jval.(type) {
	case json.Number:
		return decimal.NewFromString(v.String())
	case float64:
		return decimal.NewFromFloat(v), nil
	default:
		return decimal.Decimal{}, fmt.Errorf("%w: got %T", errNotANumber, jval)
	}
}
