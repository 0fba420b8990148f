// ============================================================================
// lox - Lox language front end
// ============================================================================
//
// Package:     cmd
// Description: Root command, global flags and shared application setup
// Author:      msto63
// Created:     2025-12-06
// Modified:    2026-10-19
// License:     MIT
// ============================================================================

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	mdwlog "github.com/msto63/lox/foundation/core/log"
	"github.com/msto63/lox/internal/frontend/service"
	"github.com/msto63/lox/internal/store"
	"github.com/msto63/lox/pkg/core/config"
	"github.com/msto63/lox/pkg/core/logging"
	"github.com/spf13/cobra"
)

// Exit codes
const (
	ExitOK          = 0
	ExitError       = 1
	ExitUsage       = 64 // EX_USAGE
	ExitDiagnostics = 65 // EX_DATAERR
)

var (
	cfgFile string
	verbose bool
	record  bool
)

// app holds what the subcommands share for one invocation
var app struct {
	cfg     *config.Config
	logger  *mdwlog.Logger
	store   *store.Store
	closers []io.Closer
}

var rootCmd = &cobra.Command{
	Use:   "lox",
	Short: "Lox scanner and expression parser",
	Long: `lox turns Lox source text into tokens and expression trees.

Commands:
  scan     - tokenize source
  parse    - parse one expression
  repl     - interactive scan/parse shell
  serve    - gRPC and HTTP front-end service
  history  - recorded runs and logs
  config   - show or validate configuration`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) { teardown() },
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $LOX_CONFIG or ./configs/lox.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&record, "record", false, "record runs and logs in the history store")
}

// exitError carries a process exit code; a nil err means the message
// was already printed
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// errDiagnostics signals that diagnostics were printed
var errDiagnostics = &exitError{code: ExitDiagnostics}

// Execute runs the CLI and returns the process exit code
func Execute() int {
	err := rootCmd.Execute()
	teardown()
	if err == nil {
		return ExitOK
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			printError(ee.err)
		}
		return ee.code
	}

	printError(err)
	return ExitError
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

// setup loads configuration, opens the store when recording and builds
// the logger
func setup(cmd *cobra.Command, args []string) error {
	var err error
	if cfgFile != "" {
		app.cfg, err = config.Load(cfgFile)
	} else {
		app.cfg, err = config.LoadDefault()
	}
	if err != nil {
		return &exitError{code: ExitUsage, err: err}
	}
	if err := app.cfg.Validate(); err != nil {
		return &exitError{code: ExitUsage, err: err}
	}

	level := app.cfg.General.LogLevel
	if verbose {
		level = "debug"
	}

	logCfg := logging.LoggerConfig{
		ServiceName: app.cfg.General.Name,
		Level:       level,
		Format:      app.cfg.General.LogFormat,
	}

	if record || (cmd.Name() == "serve" && app.cfg.Store.Enabled) {
		if err := openStore(); err != nil {
			return err
		}
		logCfg.Sink = app.store
	}

	logger, closer := logging.NewLogger(logCfg)
	app.logger = logger
	// the log sink flushes before the store closes
	app.closers = append([]io.Closer{closer}, app.closers...)
	mdwlog.SetDefault(logger)

	return nil
}

func openStore() error {
	if app.store != nil {
		return nil
	}
	st, err := store.Open(store.Config{Path: app.cfg.Store.Path})
	if err != nil {
		return err
	}
	app.store = st
	app.closers = append(app.closers, st)
	return nil
}

func teardown() {
	for _, c := range app.closers {
		c.Close()
	}
	app.closers = nil
	app.store = nil
}

// newService builds the front-end service; runs are recorded when the
// store is open
func newService() *service.Service {
	cfg := service.Config{
		MaxSourceBytes: app.cfg.Frontend.MaxSourceBytes,
		MaxDepth:       app.cfg.Frontend.MaxDepth,
	}
	if app.store != nil {
		return service.NewService(cfg, app.logger, app.store)
	}
	return service.NewService(cfg, app.logger, nil)
}
