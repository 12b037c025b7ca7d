package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/foresight"
	"github.com/etnz/foresight/date"
	"github.com/etnz/foresight/renderer"
	"github.com/etnz/foresight/session"
	"github.com/google/subcommands"
)

// analyzeCmd holds the flags for the 'analyze' subcommand.
type analyzeCmd struct {
	user     string
	password string
	start    string
	end      string
	rows     int
	explain  bool
}

func (*analyzeCmd) Name() string     { return "analyze" }
func (*analyzeCmd) Synopsis() string { return "forecast the price of a ticker" }
func (*analyzeCmd) Usage() string {
	return `fcs analyze -u <user> -p <password> [-start <date>] [-end <date>] [-explain] <ticker>

  Asks the analysis service for a forecast of <ticker> over the window and prints
  the metrics and the forecast against the actual prices.

  Without -start and -end, the window is the year that ends today. A ticker from
  the portfolio of the user can be analyzed that way with 'fcs analyze -u user1 -p pass1 AAPL'.
`
}

func (c *analyzeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "u", os.Getenv("FCS_USER"), "user name, defaults to $FCS_USER")
	f.StringVar(&c.password, "p", os.Getenv("FCS_PASSWORD"), "password, defaults to $FCS_PASSWORD")
	f.StringVar(&c.start, "start", "", "first day of the window (YYYY-MM-DD), defaults to a year before -end")
	f.StringVar(&c.end, "end", "", "last day of the window (YYYY-MM-DD), defaults to today")
	f.IntVar(&c.rows, "rows", 0, "number of forecast rows to display, 0 to use the configuration")
	f.BoolVar(&c.explain, "explain", false, "ask Gemini to comment the forecast (requires GEMINI_API_KEY)")
}

func (c *analyzeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: analyze requires exactly one ticker")
		return subcommands.ExitUsageError
	}
	req, err := c.request(f.Arg(0), date.Today())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing dates: %v\n", err)
		return subcommands.ExitUsageError
	}

	cfg, err := settings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitUsageError
	}
	if c.rows > 0 {
		cfg.Display.Rows = c.rows
	}

	ctrl := newController(cfg)
	if status := login(ctrl, c.user, c.password); status != subcommands.ExitSuccess {
		return status
	}
	defer ctrl.Logout()

	task, err := ctrl.SubmitAnalysis(ctx, req)
	var verr *foresight.ValidationError
	if errors.As(err, &verr) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", verr)
		return subcommands.ExitUsageError
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error submitting analysis: %v\n", err)
		return subcommands.ExitFailure
	}
	cause := task.Wait(ctx)

	snap := ctrl.Snapshot()
	printMarkdown(cfg, renderer.RenderSnapshot(snap, renderer.AnalysisRenderOptions{SeriesRows: cfg.Display.Rows}))
	if snap.State == session.Failed {
		fmt.Fprintf(os.Stderr, "Error analyzing %v: %v\n", req, cause)
		return subcommands.ExitFailure
	}

	if c.explain {
		answer, err := newExplainer(cfg)(ctx, renderer.RenderSnapshot(snap, renderer.AnalysisRenderOptions{}))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error explaining the forecast: %v\n", err)
			return subcommands.ExitFailure
		}
		printMarkdown(cfg, answer)
	}
	return subcommands.ExitSuccess
}

// request builds the analysis request of ticker from the window flags.
func (c *analyzeCmd) request(ticker string, today date.Date) (foresight.AnalysisRequest, error) {
	end := today
	if c.end != "" {
		var err error
		if end, err = date.Parse(c.end); err != nil {
			return foresight.AnalysisRequest{}, err
		}
	}
	if c.start == "" {
		return foresight.LastYearRequest(ticker, end), nil
	}
	start, err := date.Parse(c.start)
	if err != nil {
		return foresight.AnalysisRequest{}, err
	}
	return foresight.NewAnalysisRequest(ticker, start, end), nil
}
