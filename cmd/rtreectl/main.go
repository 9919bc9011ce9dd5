// Command rtreectl is an interactive shell over an in-memory R-tree.
//
// With no -script flag, commands are read from stdin: through a line editor
// with history when stdin is a terminal, or line by line otherwise.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	rtree "github.com/peterstace/dynrtree"
	"github.com/peterstace/dynrtree/internal/config"
	"github.com/peterstace/dynrtree/internal/logger"
	"github.com/peterstace/dynrtree/internal/shell"
	"github.com/peterstace/dynrtree/internal/telemetry"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "rtreectl:", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("rtreectl", flag.ContinueOnError)
	configFile := fs.String("config", "", "YAML configuration file")
	script := fs.String("script", "", "file of commands to run instead of reading stdin")
	minEntries := fs.Int("min", 0, "minimum entries per node (overrides config)")
	maxEntries := fs.Int("max", 0, "maximum entries per node (overrides config)")
	split := fs.String("split", "", "node split policy, quadratic or linear (overrides config)")
	logLevel := fs.String("log-level", "", "log level (overrides config)")
	metricsAddr := fs.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9464")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.Default()
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			return err
		}
	}
	if *minEntries != 0 {
		cfg.Tree.MinEntries = *minEntries
	}
	if *maxEntries != 0 {
		cfg.Tree.MaxEntries = *maxEntries
	}
	if *split != "" {
		cfg.Tree.Split = *split
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *metricsAddr != "" {
		cfg.Telemetry.Enabled = true
		cfg.Telemetry.Addr = *metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, level, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	tel, shutdown, err := telemetry.New(cfg.Telemetry, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	opts, err := cfg.Tree.Options()
	if err != nil {
		return err
	}
	opts = append(opts, rtree.WithLogger(log), rtree.WithMeter(tel.Meter))
	tr, err := rtree.New[string, string](cfg.Tree.MinEntries, cfg.Tree.MaxEntries, opts...)
	if err != nil {
		return err
	}
	log.Info("tree created",
		zap.Int("min_entries", cfg.Tree.MinEntries),
		zap.Int("max_entries", cfg.Tree.MaxEntries),
		zap.String("split", cfg.Tree.Split))

	if *script != "" {
		f, err := os.Open(*script)
		if err != nil {
			return err
		}
		defer f.Close()
		s := shell.New(tr, shell.Config{Out: stdout, Log: log, Level: &level})
		if err := s.Run(shell.NewScanner(f), true); err != nil {
			return fmt.Errorf("%s: %w", *script, err)
		}
		return nil
	}

	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		rl, err := shell.NewTerminal(cfg.Shell.HistoryFile)
		if err != nil {
			return err
		}
		defer rl.Close()
		s := shell.New(tr, shell.Config{Out: rl.Stdout(), Log: log, Level: &level, Color: cfg.Shell.Color})
		fmt.Fprintln(rl.Stdout(), "rtreectl (interactive mode). Type 'help' for commands, 'quit' to leave.")
		return s.Run(rl, false)
	}

	s := shell.New(tr, shell.Config{Out: stdout, Log: log, Level: &level})
	return s.Run(shell.NewScanner(stdin), false)
}
