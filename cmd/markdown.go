package cmd

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/charmbracelet/glamour"
)

// rawStyle prints markdown as is.
const rawStyle = "raw"

// printMarkdown prints md on the standard output with the style of the command line.
func printMarkdown(cfg *Config, md string) {
	fprintMarkdown(os.Stdout, cfg, md)
}

// fprintMarkdown renders md for a terminal using glamour and writes it to w.
// It falls back to the raw markdown if it cannot be rendered.
func fprintMarkdown(w io.Writer, cfg *Config, md string) {
	if cfg.Display.Style == rawStyle {
		fmt.Fprint(w, md)
		return
	}
	styleOpt := glamour.WithAutoStyle()
	if cfg.Display.Style != "auto" {
		styleOpt = glamour.WithStandardStyle(cfg.Display.Style)
	}
	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(cfg.Display.Width))
	if err != nil {
		log.Printf("cannot create markdown renderer for style %q: %v", cfg.Display.Style, err)
		fmt.Fprint(w, md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		log.Printf("cannot render markdown: %v", err)
		fmt.Fprint(w, md)
		return
	}
	fmt.Fprint(w, out)
}
