package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/germanamz/azllm/pkg/engine"
)

// commonFlags are shared by every subcommand.
type commonFlags struct {
	envFile    string
	configPath string
	verbose    bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.envFile, "env", ".env", "path to .env file (ignored if missing)")
	fs.StringVar(&c.configPath, "config", "", "path to YAML configuration file (default: environment only)")
	fs.BoolVar(&c.verbose, "verbose", false, "log requests to stderr")
}

// loadConfig loads the .env file and builds the Config, from the YAML file
// when one was given and from the environment otherwise.
func (c *commonFlags) loadConfig() (engine.Config, error) {
	if err := engine.LoadDotEnv(c.envFile); err != nil {
		return engine.Config{}, err
	}

	if c.configPath != "" {
		return engine.LoadConfig(c.configPath)
	}

	return engine.FromEnv(), nil
}

func (c *commonFlags) logger() *slog.Logger {
	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// readInput joins args with spaces, or reads all of stdin when no args are given.
func readInput(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}

	return string(data), nil
}

// isTerminal reports whether w is a terminal, in which case output is styled.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int on all supported platforms
}

// fmtTokens formats a token count for display (e.g. 1.2k, 3.4M).
func fmtTokens(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fk", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}
