package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/alanxyzhou/spreadsheet/internal/config"
	"github.com/alanxyzhou/spreadsheet/internal/logging"
	"github.com/alanxyzhou/spreadsheet/packages/spreadsheet"
)

// cliState is shared by every command of one invocation
type cliState struct {
	inR  io.Reader
	outW io.Writer
	errW io.Writer

	configPath string
	logLevel   string
	logFormat  string
	pruneStale bool
	keepGoing  bool

	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd(inR io.Reader, outW, errW io.Writer) *cobra.Command {
	state := &cliState{inR: inR, outW: outW, errW: errW}

	root := &cobra.Command{
		Use:           "sheet",
		Short:         "Evaluate reactive cell formulas",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return state.configure(cmd)
		},
	}
	root.SetIn(inR)
	root.SetOut(outW)
	root.SetErr(errW)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &ExitError{Code: 2, Message: fmt.Sprintf("%v\n%s", err, cmd.UsageString())}
	})

	flags := root.PersistentFlags()
	flags.StringVar(&state.configPath, "config", "", "path to a YAML config file")
	flags.StringVar(&state.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&state.logFormat, "log-format", "", "log format: text or json")
	flags.BoolVar(&state.pruneStale, "prune-stale", false, "unsubscribe rewritten cells from references they dropped")

	root.AddCommand(
		newRunCmd(state),
		newEvalCmd(state),
		newMetricsCmd(state),
		newConfigCmd(state),
	)
	return root
}

// configure loads the config file and applies flag overrides
func (s *cliState) configure(cmd *cobra.Command) error {
	cfg, err := config.Load(s.configPath)
	if err != nil {
		return spreadsheet.NewApplicationError(spreadsheet.FailedPrecondition, err.Error())
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Logging.Level = s.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = s.logFormat
	}
	if flags.Changed("prune-stale") {
		cfg.Engine.PruneStaleSubscriptions = s.pruneStale
	}
	if err := cfg.Validate(); err != nil {
		return &ExitError{Code: 2, Message: err.Error()}
	}

	s.cfg = cfg
	s.logger = logging.New(cfg.Logging.Level, cfg.Logging.Format, s.errW)
	return nil
}

func (s *cliState) newSheet() *spreadsheet.Spreadsheet {
	return spreadsheet.NewSpreadsheet(
		spreadsheet.WithLogger(s.logger),
		spreadsheet.WithPruneStaleSubscriptions(s.cfg.Engine.PruneStaleSubscriptions),
		spreadsheet.WithMetricsNamespace(s.cfg.Metrics.Namespace),
	)
}

// openScript returns the script named by args, or stdin when there is
// none or it is "-"
func (s *cliState) openScript(args []string) (io.Reader, func(), error) {
	if len(args) == 0 || args[0] == "-" {
		return s.inR, func() {}, nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open script: %w", err)
	}
	return f, func() { f.Close() }, nil
}

func (s *cliState) runScript(sheet *spreadsheet.Spreadsheet, args []string) error {
	r, closeFn, err := s.openScript(args)
	if err != nil {
		return err
	}
	defer closeFn()

	script := NewScript(sheet, s.outW, s.logger)
	script.KeepGoing = s.keepGoing
	return script.Execute(r)
}

func newRunCmd(state *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Run a sheet script from a file or stdin",
		Long: `Run executes a script one line at a time against a fresh sheet.

Lines:
  set <cell> <formula...>   assign a formula
  <cell> = <formula...>     same as set
  get <cell>                print "<cell> = <value>"
  deps <cell>               print subscribers and precedents
  recalc                    re-evaluate every cell
  dump                      print every cell
  # ...                     comment`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return state.runScript(state.newSheet(), args)
		},
	}
	cmd.Flags().BoolVar(&state.keepGoing, "keep-going", false, "report failing lines and continue")
	return cmd
}

func newEvalCmd(state *cliState) *cobra.Command {
	var (
		printIDs []string
		recalc   bool
	)

	cmd := &cobra.Command{
		Use:   "eval <cell>=<formula>...",
		Short: "Apply assignments in order and print cells",
		Example: `  sheet eval A1=3 "B1=A1 + 4" --print B1
  sheet eval A1=1 B1=A1 A1=5 --print A1,B1`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			assignments := make([]spreadsheet.Assignment, 0, len(args))
			for _, arg := range args {
				a, err := spreadsheet.ParseAssignment(arg)
				if err != nil {
					return &ExitError{Code: 2, Message: err.Error()}
				}
				assignments = append(assignments, a)
			}

			printLn := func(line string) { fmt.Fprintln(state.outW, line) }
			runner := spreadsheet.WrapSpreadsheet(state.newSheet(), printLn).
				SetBatch(assignments).
				If(recalc, func(r *spreadsheet.RunnableSpreadsheet) *spreadsheet.RunnableSpreadsheet {
					return r.Recalculate()
				}).
				OnError(func(err error) error {
					return fmt.Errorf("eval: %w", err)
				})
			if len(printIDs) == 0 {
				printIDs = []string{assignments[len(assignments)-1].ID}
			}
			for _, id := range printIDs {
				runner.Log(strings.TrimSpace(id))
			}
			_, err := runner.Run()
			return err
		},
	}
	cmd.Flags().StringSliceVar(&printIDs, "print", nil, "cells to print (default: the last assigned cell)")
	cmd.Flags().BoolVar(&recalc, "recalc", false, "re-evaluate every cell after the assignments")
	return cmd
}

func newMetricsCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics [file]",
		Short: "Run a script and print the sheet metrics in Prometheus text format",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sheet := state.newSheet()
			scriptOut := state.outW
			state.outW = io.Discard
			err := state.runScript(sheet, args)
			state.outW = scriptOut
			if err != nil {
				return err
			}

			families, err := sheet.Metrics().Registry().Gather()
			if err != nil {
				return fmt.Errorf("failed to gather metrics: %w", err)
			}
			for _, mf := range families {
				if _, err := expfmt.MetricFamilyToText(state.outW, mf); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newConfigCmd(state *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := state.cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = state.outW.Write(data)
			return err
		},
	}
}
