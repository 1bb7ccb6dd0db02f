package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/alanxyzhou/spreadsheet/packages/spreadsheet"
)

// ScriptError ties a failure to the script line that caused it
type ScriptError struct {
	Line int
	Text string
	Err  error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("line %d: %q: %v", e.Line, e.Text, e.Err)
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}

// Script executes line-oriented sheet scripts
type Script struct {
	sheet  *spreadsheet.Spreadsheet
	outW   io.Writer
	logger *slog.Logger

	// KeepGoing reports failing lines to the log and continues instead of
	// stopping at the first one
	KeepGoing bool
}

func NewScript(sheet *spreadsheet.Spreadsheet, outW io.Writer, logger *slog.Logger) *Script {
	return &Script{sheet: sheet, outW: outW, logger: logger}
}

// Execute runs every line of r. with KeepGoing set, the returned error
// joins all line failures.
func (s *Script) Execute(r io.Reader) error {
	var failures []error

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		if err := s.executeLine(text); err != nil {
			scriptErr := &ScriptError{Line: lineNo, Text: text, Err: err}
			if !s.KeepGoing {
				return scriptErr
			}
			s.logger.Error("script line failed", "line", lineNo, "error", err)
			failures = append(failures, scriptErr)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}

	return errors.Join(failures...)
}

func (s *Script) executeLine(text string) error {
	fields := strings.Fields(text)

	// "<cell> = ..." wins over command words so cells may be named get or dump
	if strings.Contains(fields[0], "=") || (len(fields) > 1 && strings.HasPrefix(fields[1], "=")) {
		a, err := spreadsheet.ParseAssignment(text)
		if err != nil {
			return err
		}
		return s.sheet.SetCell(a.ID, a.Formula)
	}

	switch fields[0] {
	case "set":
		if len(fields) < 3 {
			return usageError("set <cell> <formula...>")
		}
		formula := strings.TrimSpace(strings.TrimPrefix(text, "set"))
		formula = strings.TrimSpace(strings.TrimPrefix(formula, fields[1]))
		return s.sheet.SetCell(fields[1], formula)
	case "get":
		if len(fields) != 2 {
			return usageError("get <cell>")
		}
		fmt.Fprintf(s.outW, "%s = %d\n", fields[1], s.sheet.GetCellValue(fields[1]))
		return nil
	case "deps":
		if len(fields) != 2 {
			return usageError("deps <cell>")
		}
		fmt.Fprintf(s.outW, "%s: subscribers=[%s] precedents=[%s]\n",
			fields[1],
			strings.Join(s.sheet.Dependents(fields[1]), " "),
			strings.Join(s.sheet.Precedents(fields[1]), " "))
		return nil
	case "recalc":
		return s.sheet.Recalculate()
	case "dump":
		values := s.sheet.Values()
		for _, id := range s.sheet.CellIDs() {
			fmt.Fprintf(s.outW, "%s = %d\n", id, values[id])
		}
		return nil
	}

	return spreadsheet.NewApplicationError(spreadsheet.InvalidArgument,
		fmt.Sprintf("unknown command %q", fields[0]))
}

func usageError(usage string) error {
	return spreadsheet.NewApplicationError(spreadsheet.InvalidArgument, "usage: "+usage)
}
