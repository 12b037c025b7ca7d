package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/foresight"
	"github.com/etnz/foresight/renderer"
	"github.com/etnz/foresight/session"
	"github.com/google/subcommands"
)

// holdingsCmd holds the flags for the 'holdings' subcommand.
type holdingsCmd struct {
	user     string
	password string
}

func (*holdingsCmd) Name() string     { return "holdings" }
func (*holdingsCmd) Synopsis() string { return "display the portfolio of a user" }
func (*holdingsCmd) Usage() string {
	return `fcs holdings -u <user> -p <password>

  Displays the holdings of the user with their market value.
`
}

func (c *holdingsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "u", os.Getenv("FCS_USER"), "user name, defaults to $FCS_USER")
	f.StringVar(&c.password, "p", os.Getenv("FCS_PASSWORD"), "password, defaults to $FCS_PASSWORD")
}

func (c *holdingsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := settings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitUsageError
	}

	ctrl := newController(cfg)
	if status := login(ctrl, c.user, c.password); status != subcommands.ExitSuccess {
		return status
	}
	defer ctrl.Logout()

	printMarkdown(cfg, renderer.HoldingsMarkdown(ctrl.Snapshot().Identity, ctrl.Holdings()))
	return subcommands.ExitSuccess
}

// login signs in ctrl, reporting failures on stderr.
func login(ctrl *session.Controller, user, password string) subcommands.ExitStatus {
	if user == "" {
		fmt.Fprintln(os.Stderr, "Error: -u is required")
		return subcommands.ExitUsageError
	}
	err := ctrl.Login(user, password)
	if errors.Is(err, foresight.ErrInvalidCredentials) {
		fmt.Fprintln(os.Stderr, renderer.LoginError)
		return subcommands.ExitFailure
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error signing in: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
