//
// nose - an automated schema and index advisor for wide-column stores
//
//  Copyright (c) 2026 The NoSE Authors. All rights reserved.
//

// Package cli builds the advisor's cobra command tree, grounded on
// cmd/weaviate-cli/main.go's root-command-plus-persistent-flags shape
// (global --config/--log-level flags here play the role of that
// command's --endpoint/--api-key).
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nose-project/nose/adapters/cassandra"
	"github.com/nose-project/nose/entities/nerr"
	"github.com/nose-project/nose/entities/observability"
	"github.com/nose-project/nose/usecases/advisor"
	"github.com/nose-project/nose/usecases/config"
	"github.com/nose-project/nose/usecases/metrics"
	"github.com/nose-project/nose/usecases/workloaddsl"
)

// Exit codes per spec.md §6.
const (
	ExitSuccess       = 0
	ExitParseFailure  = 2
	ExitNoSolution    = 3
	ExitInvalidInput  = 4
)

var (
	configFile string
	logLevel   string
	ddl        bool
)

// NewRootCmd builds the nose command tree. workloadLoader loads the
// model and workload for the input source named on the command line
// (cmd/nose looks the name up in its registry of built-in workloads —
// the DSL itself has no textual form of its own, see
// usecases/workloaddsl).
func NewRootCmd(workloadLoader func(source string) (*workloaddsl.Builder, error)) *cobra.Command {
	root := &cobra.Command{
		Use:   "nose",
		Short: "nose - automated schema advisor for wide-column stores",
		Long: `nose enumerates candidate indexes for a workload, plans every
query and mutation against them, and solves for the minimum-cost
schema that fits a storage budget.`,
	}

	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "advisor configuration YAML file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(newAdviseCmd(workloadLoader))
	return root
}

func newAdviseCmd(workloadLoader func(source string) (*workloaddsl.Builder, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "advise [workload-source]",
		Short: "Enumerate, plan, and select a schema for a workload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdvise(cmd, args[0], workloadLoader)
		},
	}
	cmd.Flags().BoolVar(&ddl, "ddl", false, "also print generated CQL DDL")
	return cmd
}

func newLogger() *logrus.Entry {
	log := logrus.New()
	if lvl, err := logrus.ParseLevel(logLevel); err == nil {
		log.SetLevel(lvl)
	}
	return logrus.NewEntry(log)
}

func runAdvise(cmd *cobra.Command, source string, workloadLoader func(string) (*workloaddsl.Builder, error)) error {
	log := newLogger()

	cfg, err := config.Load(configFile)
	if err != nil {
		return exitError(ExitInvalidInput, err)
	}

	builder, err := workloadLoader(source)
	if err != nil {
		return exitError(ExitInvalidInput, err)
	}
	m, w, err := builder.Build()
	if err != nil {
		return classifyBuildError(err)
	}

	mc := metrics.NewCollector(prometheus.NewRegistry())
	a := advisor.New(m, cfg, log, mc)

	var schemas map[string]*observability.ChosenSchema
	if w.TimeVarying() {
		perMix, err := a.RunTimeVarying(context.Background(), w)
		if err != nil {
			return classifyRunError(err)
		}
		schemas = perMix
	} else {
		s, err := a.Run(context.Background(), w)
		if err != nil {
			return classifyRunError(err)
		}
		schemas = map[string]*observability.ChosenSchema{"default": s}
	}

	for mix, schema := range schemas {
		out, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "=== %s ===\n%s\n", mix, out)
		if ddl {
			for _, stmt := range cassandra.CreateTableStatements(schema) {
				fmt.Fprintln(cmd.OutOrStdout(), stmt)
			}
		}
	}
	return nil
}

// exitCodeError carries a process exit code alongside the underlying
// error, so main can translate it without re-inspecting error types.
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string { return e.err.Error() }
func (e *exitCodeError) Unwrap() error { return e.err }

func exitError(code int, err error) error {
	return &exitCodeError{code: code, err: err}
}

func classifyBuildError(err error) error {
	var parseErr nerr.ParseFailed
	if errors.As(err, &parseErr) {
		return exitError(ExitParseFailure, err)
	}
	return exitError(ExitInvalidInput, err)
}

func classifyRunError(err error) error {
	var noSolution nerr.NoSolution
	if errors.As(err, &noSolution) {
		return exitError(ExitNoSolution, err)
	}
	return exitError(ExitInvalidInput, err)
}

// ExitCode extracts the process exit code from an error returned by
// the command tree: ExitSuccess if err is nil, ExitInvalidInput if it
// carries no exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ece *exitCodeError
	if errors.As(err, &ece) {
		return ece.code
	}
	return ExitInvalidInput
}

// Execute runs root and returns the process exit code to use.
func Execute(root *cobra.Command) int {
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitCode(err)
	}
	return ExitSuccess
}
