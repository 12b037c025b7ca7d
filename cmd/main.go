package cmd

import (
	"github.com/etnz/foresight"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Commands lists the subcommands of the application.
var Commands = []subcommands.Command{
	&shellCmd{},
	&holdingsCmd{},
	&analyzeCmd{},
}

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	for _, cmd := range Commands {
		c.Register(cmd, "")
	}
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")
}

// Completion describes the command line for shell completion.
// Install it with 'COMP_INSTALL=1 fcs'.
func Completion() *complete.Command {
	users := predict.Set(foresight.DefaultCredentials.Identities())
	symbols := predict.Set(foresight.DefaultCatalog.Symbols())
	styles := predict.Set{"auto", "dark", "light", "notty", "dracula", "tokyo-night", "pink", rawStyle}
	return &complete.Command{
		Sub: map[string]*complete.Command{
			"shell": {
				Flags: map[string]complete.Predictor{
					"rows": predict.Nothing,
				},
			},
			"holdings": {
				Flags: map[string]complete.Predictor{
					"u": users,
					"p": predict.Nothing,
				},
			},
			"analyze": {
				Flags: map[string]complete.Predictor{
					"u":       users,
					"p":       predict.Nothing,
					"start":   predict.Something,
					"end":     predict.Something,
					"rows":    predict.Something,
					"explain": predict.Nothing,
				},
				Args: symbols,
			},
			"help":     {},
			"flags":    {},
			"commands": {},
		},
		Flags: map[string]complete.Predictor{
			"config":  predict.Files("*.yaml"),
			"env":     predict.Files("*"),
			"backend": predict.Something,
			"timeout": predict.Something,
			"cache":   predict.Dirs("*"),
			"style":   styles,
			"v":       predict.Nothing,
		},
	}
}

// IsCommand reports whether name is a builtin subcommand, otherwise it may be an extension.
func IsCommand(name string) bool {
	switch name {
	case "help", "flags", "commands":
		return true
	}
	for _, c := range Commands {
		if c.Name() == name {
			return true
		}
	}
	return false
}
