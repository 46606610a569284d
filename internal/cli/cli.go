// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/jeranaias/rigchat/internal/config"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdServe
	CmdVersion
	CmdHelp
	CmdInit
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	ConfigPath string
	BackendURL string
	Model      string
	Verbose    bool
	Quiet      bool

	// serve
	ListenAddr string
	RecordsDir string
	OllamaURL  string

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `rigchat - terminal chat client for a local LLM backend

Usage:
  rigchat [flags]            Start the full-screen client (default)
  rigchat tui [flags]        Same as above
  rigchat chat [flags]       Line-mode chat
  rigchat serve [flags]      Run the backend service
  rigchat init [flags]       Write a default config file (flags are applied)
  rigchat version            Show version information
  rigchat help               Show this help

Flags:
  -c, --config FILE          Config file (default: ~/.rigchat/config.toml)
  -b, --backend URL          Backend base URL (client commands)
  -m, --model NAME           Model to start with
  -v, --verbose              Debug logging
  -q, --quiet                Errors only

Serve flags:
  -l, --listen ADDR          Listen address (default: 0.0.0.0:5000)
  -r, --records DIR          Chat record directory (default: chat_records)
  --ollama URL               Ollama base URL (default: http://127.0.0.1:11434)

Full-screen keys:
  Enter send    ^N new chat    ^S save    ^T switch model
  ^R retry      ^L refresh     Tab chats  ^C quit
  In the chat list: Enter load, d delete, r rename

Line-mode commands:
  /new, /save <name>, /load <file>, /delete <file>, /rename <file> <name>,
  /model [name], /chats, /history, /export <file>, /retry, /help, /quit

Environment:
  RIGCHAT_BACKEND_URL, RIGCHAT_MODEL, RIGCHAT_MODELS, RIGCHAT_LISTEN_ADDR,
  RIGCHAT_RECORDS_DIR, RIGCHAT_OLLAMA_URL, RIGCHAT_LOG_LEVEL, ...
  A .env file in the working directory is read first.
`

// PrintUsage writes the usage text.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, usageText)
}

// PrintVersion writes version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "rigchat %s\n", Version)
	fmt.Fprintf(w, "  commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  built:  %s\n", BuildDate)
	fmt.Fprintf(w, "  go:     %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Parse parses argv (without the program name).
func Parse(argv []string) (Command, Args, error) {
	remaining, args, err := parseFlags(argv)
	if err != nil {
		return CmdHelp, args, err
	}

	if len(remaining) == 0 {
		return CmdTUI, args, nil
	}

	cmd := strings.ToLower(remaining[0])
	args.Raw = remaining[1:]

	switch cmd {
	case "tui":
		return CmdTUI, args, nil
	case "chat":
		return CmdChat, args, nil
	case "serve", "server":
		return CmdServe, args, nil
	case "version":
		return CmdVersion, args, nil
	case "init":
		return CmdInit, args, nil
	case "help":
		return CmdHelp, args, nil
	default:
		return CmdHelp, args, fmt.Errorf("unknown command %q", remaining[0])
	}
}

// parseFlags extracts flags anywhere in argv and returns the rest.
func parseFlags(argv []string) ([]string, Args, error) {
	var remaining []string
	var args Args

	for i := 0; i < len(argv); i++ {
		arg := argv[i]

		name, value, hasValue := strings.Cut(arg, "=")
		if !strings.HasPrefix(name, "-") {
			remaining = append(remaining, arg)
			continue
		}

		// next returns the flag value from --flag=value or the following arg.
		next := func() (string, error) {
			if hasValue {
				return value, nil
			}
			if i+1 >= len(argv) {
				return "", fmt.Errorf("flag %s needs a value", name)
			}
			i++
			return argv[i], nil
		}

		var err error
		switch name {
		case "-c", "--config":
			args.ConfigPath, err = next()
		case "-b", "--backend":
			args.BackendURL, err = next()
		case "-m", "--model":
			args.Model, err = next()
		case "-l", "--listen":
			args.ListenAddr, err = next()
		case "-r", "--records":
			args.RecordsDir, err = next()
		case "--ollama":
			args.OllamaURL, err = next()
		case "-v", "--verbose":
			args.Verbose = true
		case "-q", "--quiet":
			args.Quiet = true
		case "-h", "--help":
			remaining = append([]string{"help"}, remaining...)
		case "--version":
			remaining = append([]string{"version"}, remaining...)
		default:
			return nil, args, fmt.Errorf("unknown flag %s", name)
		}
		if err != nil {
			return nil, args, err
		}
	}

	return remaining, args, nil
}

// Apply overlays command-line flags onto cfg. Flags win over the config
// file and the environment.
func (a Args) Apply(cfg *config.Config) {
	if a.BackendURL != "" {
		cfg.Client.BackendURL = a.BackendURL
	}
	if a.Model != "" {
		cfg.Client.DefaultModel = a.Model
	}
	if a.ListenAddr != "" {
		cfg.Server.ListenAddr = a.ListenAddr
	}
	if a.RecordsDir != "" {
		cfg.Server.RecordsDir = a.RecordsDir
	}
	if a.OllamaURL != "" {
		cfg.Server.OllamaURL = a.OllamaURL
	}
	switch {
	case a.Verbose:
		cfg.Logging.Level = "debug"
	case a.Quiet:
		cfg.Logging.Level = "error"
	}
}

// InitConfig writes the default configuration, with the flags applied, to
// --config or the default path. An existing file is never overwritten.
func (a Args) InitConfig() (string, error) {
	path := a.ConfigPath
	if path == "" {
		var err error
		if path, err = config.ConfigPathTOML(); err != nil {
			return "", err
		}
	}
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config file %s already exists", path)
	}

	cfg := config.Default()
	a.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return "", fmt.Errorf("invalid flags: %w", err)
	}
	if err := config.SaveTOML(cfg, path); err != nil {
		return "", err
	}
	return path, nil
}

// LoadConfig loads the config file named by --config (or the default one)
// and applies the flags.
func (a Args) LoadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if a.ConfigPath != "" {
		cfg, err = config.LoadFromPath(a.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	a.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}
