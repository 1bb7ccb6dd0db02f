package spreadsheet

import (
	"fmt"
	"strings"
)

// Assignment is one formula write, used for ordered batches
type Assignment struct {
	ID      string
	Formula string
}

// ParseAssignment splits "A1=B1 + 2" into its identifier and formula
func ParseAssignment(s string) (Assignment, error) {
	id, formula, found := strings.Cut(s, "=")
	id = strings.TrimSpace(id)
	if !found || id == "" {
		return Assignment{}, NewApplicationError(InvalidArgument,
			fmt.Sprintf("invalid assignment %q: want <cell>=<formula>", s))
	}
	return Assignment{ID: id, Formula: strings.TrimSpace(formula)}, nil
}

// RunnableSpreadsheet provides a chainable interface for
// spreadsheet operations. wraps the standard Spreadsheet and tracks
// errors internally
type RunnableSpreadsheet struct {
	spreadsheet *Spreadsheet
	err         error
	printLn     func(string)
}

// NewRunnableSpreadsheet creates a new RunnableSpreadsheet. printLn is
// required and is used by Log
func NewRunnableSpreadsheet(printLn func(string), opts ...Option) *RunnableSpreadsheet {
	return WrapSpreadsheet(NewSpreadsheet(opts...), printLn)
}

// WrapSpreadsheet builds a RunnableSpreadsheet around an existing sheet
func WrapSpreadsheet(s *Spreadsheet, printLn func(string)) *RunnableSpreadsheet {
	return &RunnableSpreadsheet{
		spreadsheet: s,
		err:         nil,
		printLn:     printLn,
	}
}

// Set writes a formula to a cell (chainable)
func (r *RunnableSpreadsheet) Set(id string, formula string) *RunnableSpreadsheet {
	if r.err != nil {
		return r // no-op if there's already an error
	}
	r.err = r.spreadsheet.SetCell(id, formula)
	return r
}

// SetBatch applies assignments in order, stopping at the first error
// (chainable)
func (r *RunnableSpreadsheet) SetBatch(assignments []Assignment) *RunnableSpreadsheet {
	for _, a := range assignments {
		if r.Set(a.ID, a.Formula); r.err != nil {
			return r
		}
	}
	return r
}

// Recalculate re-evaluates the whole sheet (chainable)
func (r *RunnableSpreadsheet) Recalculate() *RunnableSpreadsheet {
	if r.err != nil {
		return r // no-op if there's already an error
	}
	r.err = r.spreadsheet.Recalculate()
	return r
}

// Run returns the spreadsheet and any error. typically the last method in
// the chain
func (r *RunnableSpreadsheet) Run() (*Spreadsheet, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.spreadsheet, nil
}

// Error returns the current error state
func (r *RunnableSpreadsheet) Error() error {
	return r.err
}

// Reset clears the error state (chainable)
func (r *RunnableSpreadsheet) Reset() *RunnableSpreadsheet {
	r.err = nil
	return r
}

// OnError allows error handling in the chain
func (r *RunnableSpreadsheet) OnError(fn func(error) error) *RunnableSpreadsheet {
	if r.err != nil {
		r.err = fn(r.err)
	}
	return r
}

// If allows conditional operations in the chain
func (r *RunnableSpreadsheet) If(condition bool, fn func(*RunnableSpreadsheet) *RunnableSpreadsheet) *RunnableSpreadsheet {
	if r.err != nil || !condition {
		return r
	}
	return fn(r)
}

// Value is a helper to get a single value from the chain. returns 0 once
// the chain has failed.
// example: val := NewRunnableSpreadsheet(print).Set("A1", "10").Set("A2", "A1 + 2").Value("A2")
func (r *RunnableSpreadsheet) Value(id string) int64 {
	if r.err != nil {
		return 0
	}
	return r.spreadsheet.GetCellValue(id)
}

// Log prints the value of a cell using the provided PrintLn function
// (chainable)
func (r *RunnableSpreadsheet) Log(id string) *RunnableSpreadsheet {
	if r.err != nil {
		return r // no-op if there's already an error
	}
	r.printLn(fmt.Sprintf("%s = %d", id, r.spreadsheet.GetCellValue(id)))
	return r
}
