package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/etnz/foresight"
	"github.com/etnz/foresight/date"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

const sampleResponse = `{
	"ticker": "AAPL",
	"model": "XGBoost",
	"metrics": {"RMSE": 2.13, "MAPE": 0.011, "VaR_95": -0.027, "Sharpe_Ratio": 1.31, "Decision_Score": 0.46, "Volatility": "Medium"},
	"chart_data": [
		{"date": "2022-12-29", "actual": 129.61, "predicted": 130.02},
		{"date": "2022-12-30", "actual": 129.93, "predicted": null},
		{"date": "2023-01-03", "actual": null, "predicted": 131.5}
	],
	"current_price": 172.5012,
	"predicted_high": 176.2961
}`

func sampleRequest() foresight.AnalysisRequest {
	return foresight.NewAnalysisRequest("aapl", date.MustParse("2020-01-01"), date.MustParse("2023-01-01"))
}

// newService starts a fake analysis service answering status and body, it counts the hits.
func newService(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestAnalyzeWireFormat(t *testing.T) {
	var got map[string]string
	var method, path, contentType, requestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		contentType = r.Header.Get("Content-Type")
		requestID = r.Header.Get(RequestIDHeader)
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("request body is not a JSON object of strings: %v", err)
		}
		io.WriteString(w, sampleResponse)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL+"/").Analyze(context.Background(), sampleRequest()); err != nil {
		t.Fatalf("Analyze() unexpected error = %v", err)
	}
	if method != http.MethodPost || path != "/predict" {
		t.Errorf("Analyze() sent %s %s, want POST /predict", method, path)
	}
	if contentType != "application/json" {
		t.Errorf("Analyze() Content-Type = %q, want application/json", contentType)
	}
	if requestID == "" {
		t.Errorf("Analyze() did not send a %s header", RequestIDHeader)
	}
	want := map[string]string{"ticker": "AAPL", "start_date": "2020-01-01", "end_date": "2023-01-01"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Analyze() request body mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyzeSuccess(t *testing.T) {
	srv, _ := newService(t, http.StatusOK, sampleResponse)

	res, err := NewClient(srv.URL).Analyze(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("Analyze() unexpected error = %v", err)
	}

	if got := res.CurrentPrice.String(); got != "172.5" {
		t.Errorf("Analyze().CurrentPrice = %s, want 172.5", got)
	}
	if got := res.Metrics().CurrentPrice; got != "172.50" {
		t.Errorf("Analyze().Metrics().CurrentPrice = %q, want %q", got, "172.50")
	}
	if got := res.Metrics().PredictedHigh; got != "176.30" {
		t.Errorf("Analyze().Metrics().PredictedHigh = %q, want %q", got, "176.30")
	}
	if got := res.Metrics().RiskScore; got != "0.5" {
		t.Errorf("Analyze().Metrics().RiskScore = %q, want %q", got, "0.5")
	}
	if res.Volatility != "Medium" || res.Model != "XGBoost" || res.Ticker != "AAPL" {
		t.Errorf("Analyze() = volatility %q model %q ticker %q, want Medium XGBoost AAPL", res.Volatility, res.Model, res.Ticker)
	}
	if !res.SharpeRatio.Valid || res.SharpeRatio.Decimal.String() != "1.31" {
		t.Errorf("Analyze().SharpeRatio = %v, want 1.31", res.SharpeRatio)
	}

	wantSeries := []foresight.SeriesPoint{
		{Date: "2022-12-29", Actual: decimal.NewNullDecimal(decimal.RequireFromString("129.61")), Predicted: decimal.NewNullDecimal(decimal.RequireFromString("130.02"))},
		{Date: "2022-12-30", Actual: decimal.NewNullDecimal(decimal.RequireFromString("129.93"))},
		{Date: "2023-01-03", Predicted: decimal.NewNullDecimal(decimal.RequireFromString("131.5"))},
	}
	if len(res.Series) != len(wantSeries) {
		t.Fatalf("Analyze().Series has %d points, want %d", len(res.Series), len(wantSeries))
	}
	for i, want := range wantSeries {
		got := res.Series[i]
		if got.Date != want.Date || got.Actual.Valid != want.Actual.Valid || got.Predicted.Valid != want.Predicted.Valid ||
			!got.Actual.Decimal.Equal(want.Actual.Decimal) || !got.Predicted.Decimal.Equal(want.Predicted.Decimal) {
			t.Errorf("Analyze().Series[%d] = %+v, want %+v", i, got, want)
		}
	}
}

func TestAnalyzeOptionalMetricsMissing(t *testing.T) {
	srv, _ := newService(t, http.StatusOK, `{
		"metrics": {"Decision_Score": 1, "Volatility": "Low"},
		"chart_data": [],
		"current_price": 10,
		"predicted_high": 11
	}`)
	res, err := NewClient(srv.URL).Analyze(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("Analyze() unexpected error = %v", err)
	}
	if res.RMSE.Valid || res.Model != "" {
		t.Errorf("Analyze() = RMSE %v model %q, want both absent", res.RMSE, res.Model)
	}
	if res.Ticker != "AAPL" {
		t.Errorf("Analyze().Ticker = %q, want the requested AAPL", res.Ticker)
	}
	if len(res.Series) != 0 {
		t.Errorf("Analyze().Series = %v, want empty", res.Series)
	}
}

func TestAnalyzeStatusError(t *testing.T) {
	for _, status := range []int{http.StatusInternalServerError, http.StatusNotFound, http.StatusBadRequest} {
		srv, _ := newService(t, status, `{"detail":"boom"}`)
		_, err := NewClient(srv.URL).Analyze(context.Background(), sampleRequest())
		var nerr *NetworkError
		if !errors.As(err, &nerr) {
			t.Errorf("Analyze() with status %d error = %v, want *NetworkError", status, err)
			continue
		}
		if nerr.StatusCode != status || nerr.Timeout {
			t.Errorf("Analyze() with status %d = %+v, want StatusCode %d", status, nerr, status)
		}
	}
}

func TestAnalyzeUnreachable(t *testing.T) {
	srv, _ := newService(t, http.StatusOK, sampleResponse)
	addr := srv.URL
	srv.Close()

	_, err := NewClient(addr).Analyze(context.Background(), sampleRequest())
	var nerr *NetworkError
	if !errors.As(err, &nerr) {
		t.Fatalf("Analyze() on a closed server error = %v, want *NetworkError", err)
	}
	if nerr.StatusCode != 0 || nerr.Err == nil {
		t.Errorf("Analyze() on a closed server = %+v, want a transport error", nerr)
	}
}

func TestAnalyzeTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	c.Timeout = 50 * time.Millisecond
	_, err := c.Analyze(context.Background(), sampleRequest())
	var nerr *NetworkError
	if !errors.As(err, &nerr) || !nerr.Timeout {
		t.Fatalf("Analyze() error = %v, want a timeout *NetworkError", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Analyze() error = %v, want it to wrap context.DeadlineExceeded", err)
	}
}

func TestAnalyzeMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
		path string
	}{
		{"not json", `<html>oops</html>`, "$"},
		{"not an object", `[1, 2]`, "$"},
		{"missing current price", `{"predicted_high": 1, "metrics": {"Decision_Score": 1, "Volatility": "Low"}, "chart_data": []}`, pathCurrentPrice},
		{"string current price", `{"current_price": "1", "predicted_high": 1, "metrics": {"Decision_Score": 1, "Volatility": "Low"}, "chart_data": []}`, pathCurrentPrice},
		{"null predicted high", `{"current_price": 1, "predicted_high": null, "metrics": {"Decision_Score": 1, "Volatility": "Low"}, "chart_data": []}`, pathPredictedHigh},
		{"missing metrics", `{"current_price": 1, "predicted_high": 1, "chart_data": []}`, pathDecisionScore},
		{"numeric volatility", `{"current_price": 1, "predicted_high": 1, "metrics": {"Decision_Score": 1, "Volatility": 0.2}, "chart_data": []}`, pathVolatility},
		{"missing chart", `{"current_price": 1, "predicted_high": 1, "metrics": {"Decision_Score": 1, "Volatility": "Low"}}`, pathChartData},
		{"chart not an array", `{"current_price": 1, "predicted_high": 1, "metrics": {"Decision_Score": 1, "Volatility": "Low"}, "chart_data": {}}`, pathChartData},
		{"point without date", `{"current_price": 1, "predicted_high": 1, "metrics": {"Decision_Score": 1, "Volatility": "Low"}, "chart_data": [{"actual": 1}]}`, "$.chart_data[0].date"},
		{"point with text value", `{"current_price": 1, "predicted_high": 1, "metrics": {"Decision_Score": 1, "Volatility": "Low"}, "chart_data": [{"date": "d", "actual": "x"}]}`, "$.chart_data[0].actual"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newService(t, http.StatusOK, tt.body)
			_, err := NewClient(srv.URL).Analyze(context.Background(), sampleRequest())
			var merr *MalformedResponseError
			if !errors.As(err, &merr) {
				t.Fatalf("Analyze() error = %v, want *MalformedResponseError", err)
			}
			if merr.Path != tt.path {
				t.Errorf("Analyze() malformed path = %q, want %q", merr.Path, tt.path)
			}
		})
	}
}

func TestAnalyzeValidatesBeforeDispatch(t *testing.T) {
	srv, hits := newService(t, http.StatusOK, sampleResponse)

	req := foresight.NewAnalysisRequest(" ", date.MustParse("2020-01-01"), date.MustParse("2023-01-01"))
	_, err := NewClient(srv.URL).Analyze(context.Background(), req)
	var verr *foresight.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Analyze() error = %v, want *foresight.ValidationError", err)
	}
	if hits.Load() != 0 {
		t.Errorf("Analyze() reached the service %d times, want 0", hits.Load())
	}
}

func TestAnalyzeDailyCache(t *testing.T) {
	srv, hits := newService(t, http.StatusOK, sampleResponse)

	c := NewClient(srv.URL)
	c.HTTP = NewHTTPClient(t.TempDir())
	for i := 0; i < 2; i++ {
		res, err := c.Analyze(context.Background(), sampleRequest())
		if err != nil {
			t.Fatalf("Analyze() #%d unexpected error = %v", i, err)
		}
		if got := res.Metrics().CurrentPrice; got != "172.50" {
			t.Errorf("Analyze() #%d CurrentPrice = %q, want 172.50", i, got)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("service hit %d times, want 1", hits.Load())
	}

	// another window is another entry.
	other := foresight.NewAnalysisRequest("AAPL", date.MustParse("2021-01-01"), date.MustParse("2023-01-01"))
	if _, err := c.Analyze(context.Background(), other); err != nil {
		t.Fatalf("Analyze() unexpected error = %v", err)
	}
	if hits.Load() != 2 {
		t.Errorf("service hit %d times, want 2", hits.Load())
	}
}

func TestAnalyzeDailyCacheSkipsFailures(t *testing.T) {
	srv, hits := newService(t, http.StatusInternalServerError, `{}`)

	c := NewClient(srv.URL)
	c.HTTP = NewHTTPClient(t.TempDir())
	for i := 0; i < 2; i++ {
		if _, err := c.Analyze(context.Background(), sampleRequest()); err == nil {
			t.Fatalf("Analyze() #%d error = nil, want a *NetworkError", i)
		}
	}
	if hits.Load() != 2 {
		t.Errorf("service hit %d times, want 2", hits.Load())
	}
}

func TestAnalyzeDailyCacheSkipsMalformed(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if hits.Add(1) == 1 {
			io.WriteString(w, `{"oops": true}`)
			return
		}
		io.WriteString(w, sampleResponse)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL)
	c.HTTP = NewHTTPClient(t.TempDir())
	var malformed *MalformedResponseError
	if _, err := c.Analyze(context.Background(), sampleRequest()); !errors.As(err, &malformed) {
		t.Fatalf("Analyze() #0 error = %v, want a *MalformedResponseError", err)
	}
	for i := 1; i < 3; i++ {
		res, err := c.Analyze(context.Background(), sampleRequest())
		if err != nil {
			t.Fatalf("Analyze() #%d unexpected error = %v", i, err)
		}
		if got := res.Metrics().CurrentPrice; got != "172.50" {
			t.Errorf("Analyze() #%d CurrentPrice = %q, want 172.50", i, got)
		}
	}
	// the malformed answer is not reused, the valid one is.
	if hits.Load() != 2 {
		t.Errorf("service hit %d times, want 2", hits.Load())
	}
}
