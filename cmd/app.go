// Package cmd implements the CLI application to sign in, browse the sample
// portfolio and forecast prices with the analysis service.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/etnz/foresight"
	"github.com/etnz/foresight/agent"
	"github.com/etnz/foresight/analysis"
	"github.com/etnz/foresight/session"
	"github.com/joho/godotenv"
	"google.golang.org/genai"
	"gopkg.in/yaml.v3"
)

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	configFile = flag.String("config", "fcs.yaml", "Path to the optional YAML configuration file")
	envFile    = flag.String("env", ".env", "Path to the optional dotenv file loaded before reading FCS_* variables")
	backendURL = flag.String("backend", "", "Base URL of the analysis service (default "+DefaultBackendURL+")")
	timeout    = flag.Duration("timeout", 0, "Time limit of an analysis request (default 30s)")
	cacheDir   = flag.String("cache", "", "Folder where successful analyses are cached for the day, empty to disable")
	style      = flag.String("style", "", "glamour style used to print markdown, 'raw' to print it unformatted")

	// Verbose enables log output.
	Verbose = flag.Bool("v", false, "Print the log lines (requests, session changes) on stderr")
)

// Environment variables read by LoadConfig. They override the configuration file and are
// overridden by the command line flags.
const (
	EnvBackendURL  = "FCS_BACKEND_URL"
	EnvTimeout     = "FCS_TIMEOUT"
	EnvCacheDir    = "FCS_CACHE_DIR"
	EnvStyle       = "FCS_STYLE"
	EnvWidth       = "FCS_WIDTH"
	EnvGeminiModel = "FCS_GEMINI_MODEL"
)

// DefaultBackendURL is where the analysis service listens when run locally.
const DefaultBackendURL = "http://localhost:8081"

// Config holds all application configuration.
type Config struct {
	Backend struct {
		URL     string        `yaml:"url"`
		Timeout time.Duration `yaml:"timeout"`
		Cache   string        `yaml:"cache"`
	} `yaml:"backend"`
	Display struct {
		Style string `yaml:"style"`
		Width int    `yaml:"width"`
		Rows  int    `yaml:"rows"`
	} `yaml:"display"`
	Gemini struct {
		Model string `yaml:"model"`
	} `yaml:"gemini"`
}

// LoadConfig reads config from a YAML file, then applies environment variable overrides
// and defaults. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %q: %w", path, err)
		}
	}

	if v := os.Getenv(EnvBackendURL); v != "" {
		cfg.Backend.URL = v
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", EnvTimeout, err)
		}
		cfg.Backend.Timeout = d
	}
	if v := os.Getenv(EnvCacheDir); v != "" {
		cfg.Backend.Cache = v
	}
	if v := os.Getenv(EnvStyle); v != "" {
		cfg.Display.Style = v
	}
	if v := os.Getenv(EnvWidth); v != "" {
		w, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", EnvWidth, err)
		}
		cfg.Display.Width = w
	}
	if v := os.Getenv(EnvGeminiModel); v != "" {
		cfg.Gemini.Model = v
	}

	// Defaults
	if cfg.Backend.URL == "" {
		cfg.Backend.URL = DefaultBackendURL
	}
	if cfg.Backend.Timeout == 0 {
		cfg.Backend.Timeout = analysis.DefaultTimeout
	}
	if cfg.Display.Style == "" {
		cfg.Display.Style = "auto"
	}
	if cfg.Display.Width == 0 {
		cfg.Display.Width = 100
	}
	if cfg.Display.Rows == 0 {
		cfg.Display.Rows = 15
	}
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = agent.DefaultModel
	}
	return cfg, nil
}

// Validate checks that the configuration can be used.
func (c *Config) Validate() error {
	if c.Backend.URL == "" {
		return fmt.Errorf("backend.url is required")
	}
	if c.Backend.Timeout < 0 {
		return fmt.Errorf("backend.timeout must be positive")
	}
	if c.Display.Rows < 0 {
		return fmt.Errorf("display.rows must be positive")
	}
	return nil
}

// loadDotEnv sets the variables of the dotenv file at path that are not already set.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// settings returns the application configuration: dotenv, then the configuration file,
// then the environment and finally the flags set on the command line.
func settings() (*Config, error) {
	if err := loadDotEnv(*envFile); err != nil {
		return nil, fmt.Errorf("loading %q: %w", *envFile, err)
	}
	cfg, err := LoadConfig(*configFile)
	if err != nil {
		return nil, err
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			cfg.Backend.URL = *backendURL
		case "timeout":
			cfg.Backend.Timeout = *timeout
		case "cache":
			cfg.Backend.Cache = *cacheDir
		case "style":
			cfg.Display.Style = *style
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Printf("using analysis service %s (timeout %v, cache %q)", cfg.Backend.URL, cfg.Backend.Timeout, cfg.Backend.Cache)
	return cfg, nil
}

// newController returns a logged out Controller using the analysis service of cfg.
func newController(cfg *Config) *session.Controller {
	client := analysis.NewClient(cfg.Backend.URL)
	client.HTTP = analysis.NewHTTPClient(cfg.Backend.Cache)
	client.Timeout = cfg.Backend.Timeout
	return session.New(client, foresight.DefaultCredentials, foresight.DefaultCatalog)
}

// newExplainer returns a function that asks Gemini to comment a report. The client
// is created on first use so that commands work without an API key until then.
func newExplainer(cfg *Config) func(ctx context.Context, report string) (string, error) {
	analyst := agent.NewAnalyst(cfg.Gemini.Model)
	var client *genai.Client
	return func(ctx context.Context, report string) (string, error) {
		if client == nil {
			c, err := genai.NewClient(ctx, nil)
			if err != nil {
				return "", fmt.Errorf("initializing Gemini's client: %w", err)
			}
			client = c
		}
		return agent.Explain(ctx, client, analyst, report)
	}
}
