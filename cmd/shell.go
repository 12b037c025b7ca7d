package cmd

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/etnz/foresight"
	"github.com/etnz/foresight/date"
	"github.com/etnz/foresight/renderer"
	"github.com/etnz/foresight/session"
	"github.com/google/subcommands"
)

const shellPrompt = "fcs> "

const shellHelp = `Commands:

- login USER PASSWORD
- logout
- holdings
- analyze TICKER [START END]
- select SYMBOL
- show
- explain
- help
- bye
`

// shellCmd runs the interactive session.
type shellCmd struct {
	rows int
}

func (*shellCmd) Name() string     { return "shell" }
func (*shellCmd) Synopsis() string { return "start an interactive session" }
func (*shellCmd) Usage() string {
	return `fcs shell [-rows <n>] [<command>...]

  Starts an interactive session. Each argument is run as a command before reading
  the standard input, for instance:

    fcs shell "login user1 pass1" "select AAPL"

  Type 'help' in the session for the list of commands, 'bye' to exit.
`
}

func (c *shellCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.rows, "rows", 0, "number of forecast rows to display, 0 to use the configuration")
}

func (c *shellCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := settings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitUsageError
	}
	if c.rows > 0 {
		cfg.Display.Rows = c.rows
	}

	sh := newShell(os.Stdout, os.Stdin, cfg, newController(cfg))
	sh.explain = newExplainer(cfg)
	if err := sh.Run(ctx, f.Args()...); err != nil {
		fmt.Fprintf(os.Stderr, "Error in shell: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// shell reads commands and prints the session view after each of them.
type shell struct {
	w       io.Writer
	r       *bufio.Reader
	cfg     *Config
	ctrl    *session.Controller
	explain func(ctx context.Context, report string) (string, error)
}

func newShell(w io.Writer, r io.Reader, cfg *Config, ctrl *session.Controller) *shell {
	return &shell{
		w:    w,
		r:    bufio.NewReader(r),
		cfg:  cfg,
		ctrl: ctrl,
	}
}

// Run starts the REPL. prompts are run first, as if typed by the user.
func (s *shell) Run(ctx context.Context, prompts ...string) error {
	defer s.ctrl.Logout()
	unsubscribe := s.ctrl.Subscribe(s.onChange)
	defer unsubscribe()
	fmt.Fprintln(s.w, "Welcome to fcs. Type 'help' for the commands, 'bye' to exit.")

	for {
		fmt.Fprint(s.w, shellPrompt)
		var input string

		// Flush prompts from the list and then ask for the user.
		if len(prompts) > 0 {
			input, prompts = prompts[0], prompts[1:]
			input = strings.TrimSpace(input)
			if input == "" {
				continue
			}
			fmt.Fprintln(s.w, input)
		} else {
			var err error
			input, err = s.r.ReadString('\n')
			if err != nil && (err != io.EOF || input == "") {
				if err == io.EOF {
					fmt.Fprintln(s.w)
					return nil // Clean exit on Ctrl+D
				}
				return err
			}
		}

		if quit := s.handle(ctx, strings.Fields(input)); quit {
			return nil
		}
	}
}

// handle runs one command and reports whether the session is over.
func (s *shell) handle(ctx context.Context, args []string) (quit bool) {
	if len(args) == 0 {
		return false
	}
	verb, args := strings.ToLower(args[0]), args[1:]
	switch verb {
	case "bye", "exit", "quit":
		return true
	case "help":
		s.print(shellHelp)
	case "login":
		s.login(args)
	case "logout":
		s.ctrl.Logout()
	case "holdings":
		if s.requireLogin() {
			snap := s.ctrl.Snapshot()
			s.print(renderer.HoldingsMarkdown(snap.Identity, s.ctrl.Holdings()))
		}
	case "analyze":
		s.analyze(ctx, args)
	case "select":
		if len(args) != 1 {
			fmt.Fprintln(s.w, "Usage: select SYMBOL")
			return false
		}
		if s.ctrl.Snapshot().LoggedIn() && !s.holds(args[0]) {
			symbol := strings.ToUpper(args[0])
			fmt.Fprintf(s.w, "%s is not in your portfolio, use 'analyze %s' instead.\n", symbol, symbol)
			return false
		}
		s.submit(ctx, func() (*session.Task, error) { return s.ctrl.SelectHolding(ctx, args[0]) })
	case "show":
		if s.requireLogin() {
			s.show()
		}
	case "explain":
		s.explainSnapshot(ctx)
	default:
		fmt.Fprintf(s.w, "Unknown command %q. Type 'help' for the list of commands.\n", verb)
	}
	return false
}

func (s *shell) print(md string) { fprintMarkdown(s.w, s.cfg, md) }

// onChange reports the transitions the user triggers. It runs under the
// controller lock, in the goroutine of the intent.
func (s *shell) onChange(snap session.Snapshot) {
	switch snap.State {
	case session.Loading:
		fmt.Fprintf(s.w, "Analyzing %v...\n", snap.Request)
	case session.LoggedOut:
		fmt.Fprintln(s.w, "Signed out.")
	}
}

// holds reports whether symbol is in the portfolio of the signed-in user.
func (s *shell) holds(symbol string) bool {
	for _, h := range s.ctrl.Holdings() {
		if strings.EqualFold(h.Symbol, symbol) {
			return true
		}
	}
	return false
}

func (s *shell) show() {
	s.print(renderer.RenderSnapshot(s.ctrl.Snapshot(), renderer.AnalysisRenderOptions{SeriesRows: s.cfg.Display.Rows}))
}

func (s *shell) requireLogin() bool {
	if s.ctrl.Snapshot().LoggedIn() {
		return true
	}
	fmt.Fprintln(s.w, "Please login first: login USER PASSWORD")
	return false
}

func (s *shell) login(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(s.w, "Usage: login USER PASSWORD")
		return
	}
	err := s.ctrl.Login(args[0], args[1])
	switch {
	case errors.Is(err, foresight.ErrInvalidCredentials):
		fmt.Fprintln(s.w, renderer.LoginError)
		return
	case errors.Is(err, session.ErrAlreadyLoggedIn):
		fmt.Fprintf(s.w, "Already signed in as %s, logout first.\n", s.ctrl.Snapshot().Identity)
		return
	case err != nil:
		fmt.Fprintf(s.w, "Error: %v\n", err)
		return
	}
	snap := s.ctrl.Snapshot()
	s.print(renderer.HoldingsMarkdown(snap.Identity, s.ctrl.Holdings()))
}

func (s *shell) analyze(ctx context.Context, args []string) {
	var req foresight.AnalysisRequest
	switch len(args) {
	case 1:
		req = foresight.LastYearRequest(args[0], date.Today())
	case 3:
		start, err := date.Parse(args[1])
		if err != nil {
			fmt.Fprintf(s.w, "Error parsing start date: %v\n", err)
			return
		}
		end, err := date.Parse(args[2])
		if err != nil {
			fmt.Fprintf(s.w, "Error parsing end date: %v\n", err)
			return
		}
		if !(date.Range{From: start, To: end}).Ordered() {
			fmt.Fprintf(s.w, "Warning: start date %v is after end date %v, the service may reject the window.\n", start, end)
		}
		req = foresight.NewAnalysisRequest(args[0], start, end)
	default:
		fmt.Fprintln(s.w, "Usage: analyze TICKER [START END]")
		return
	}
	s.submit(ctx, func() (*session.Task, error) { return s.ctrl.SubmitAnalysis(ctx, req) })
}

// submit issues a request and waits for it before showing the session.
func (s *shell) submit(ctx context.Context, issue func() (*session.Task, error)) {
	task, err := issue()
	var verr *foresight.ValidationError
	switch {
	case errors.Is(err, session.ErrNotLoggedIn):
		s.requireLogin()
		return
	case errors.As(err, &verr):
		fmt.Fprintf(s.w, "Error: %v\n", verr)
		return
	case err != nil:
		fmt.Fprintf(s.w, "Error: %v\n", err)
		return
	}
	if err := task.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			task.Cancel()
			fmt.Fprintf(s.w, "Analysis of %v cancelled: %v\n", task.Request(), err)
			return
		}
		// the session view shows the failure, the cause goes to the log.
		log.Printf("analysis of %v failed: %v", task.Request(), err)
	}
	if task.Stale() {
		return
	}
	s.show()
}

func (s *shell) explainSnapshot(ctx context.Context) {
	if !s.requireLogin() {
		return
	}
	snap := s.ctrl.Snapshot()
	if !snap.HasData() {
		fmt.Fprintln(s.w, "Nothing to explain yet, run 'analyze' or 'select' first.")
		return
	}
	if s.explain == nil {
		fmt.Fprintln(s.w, "Explanations are not available.")
		return
	}
	report := renderer.RenderSnapshot(snap, renderer.AnalysisRenderOptions{})
	answer, err := s.explain(ctx, report)
	if err != nil {
		fmt.Fprintf(s.w, "Error: %v\n", err)
		return
	}
	s.print(answer)
}
