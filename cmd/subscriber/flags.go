package main

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
)

// version is injected at build time with -ldflags "-X main.version=...". Defaults to dev.
var version = "dev"

// cliConfig holds user supplied flag values prior to translation into
// orchestrator.Config.
type cliConfig struct {
	rtmpURL     string
	streamKey   string
	kasURL      string
	kasToken    string
	rewrapPath  string
	logLevel    string
	showVersion bool
}

func parseFlags(args []string) (*cliConfig, error) {
	fs := flag.NewFlagSet("subscriber", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	cfg := &cliConfig{}
	fs.StringVar(&cfg.rtmpURL, "rtmp-url", "", "RTMP play URL base (rtmp://host/app)")
	fs.StringVar(&cfg.streamKey, "stream-key", "", "Stream key/name to play")
	fs.StringVar(&cfg.kasURL, "kas-url", "", "KAS base URL")
	fs.StringVar(&cfg.kasToken, "kas-token", "", "KAS bearer token")
	fs.StringVar(&cfg.rewrapPath, "rewrap-path", "/kas/v2/rewrap", "KAS rewrap endpoint path")
	fs.StringVar(&cfg.logLevel, "log-level", "info", "Log level: debug|info|warn|error")
	fs.BoolVar(&cfg.showVersion, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if cfg.showVersion {
		return cfg, nil
	}

	if cfg.rtmpURL == "" {
		return nil, errors.New("-rtmp-url is required")
	}
	if _, err := url.Parse(cfg.rtmpURL); err != nil {
		return nil, fmt.Errorf("invalid -rtmp-url: %w", err)
	}
	if cfg.streamKey == "" {
		return nil, errors.New("-stream-key is required")
	}
	if cfg.kasURL == "" {
		return nil, errors.New("-kas-url is required")
	}
	switch cfg.logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log-level %q", cfg.logLevel)
	}

	return cfg, nil
}
