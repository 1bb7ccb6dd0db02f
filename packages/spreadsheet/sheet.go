package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// AppErrorCode represents gRPC-style error codes for application-level errors.
// note that we are skipping error codes that don't make sense for our use-case,
// like unauthenticated, or permission denied.
type AppErrorCode int

const (
	// InvalidArgument indicates client specified an invalid argument.
	InvalidArgument AppErrorCode = 3

	// FailedPrecondition indicates operation was rejected because the
	// system is not in a state required for the operation's execution.
	FailedPrecondition AppErrorCode = 9
)

// AppError represents errors at the application level (not formula
// errors)
type AppError struct {
	Code    AppErrorCode
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

// NewApplicationError creates a new application error
func NewApplicationError(code AppErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// IsAppErrorCode reports whether err is an *AppError carrying code
func IsAppErrorCode(err error, code AppErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// Option configures a Spreadsheet
type Option func(*Spreadsheet)

// WithLogger sets the logger used for write and propagation events
func WithLogger(logger *slog.Logger) Option {
	return func(s *Spreadsheet) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPruneStaleSubscriptions makes a rewrite unsubscribe the cell from
// every cell its previous formula referenced. off by default: a rewrite
// that drops a reference keeps the old subscription, and the cell keeps
// being recomputed when the dropped cell changes.
func WithPruneStaleSubscriptions(prune bool) Option {
	return func(s *Spreadsheet) {
		s.pruneStale = prune
	}
}

// WithMetricsNamespace sets the Prometheus namespace of the sheet metrics
func WithMetricsNamespace(namespace string) Option {
	return func(s *Spreadsheet) {
		s.metricsNamespace = namespace
	}
}

// WithSheetID overrides the generated sheet id used in logs and metrics
func WithSheetID(id string) Option {
	return func(s *Spreadsheet) {
		if id != "" {
			s.id = id
		}
	}
}

// WithRecomputeObserver registers fn to be called for every subscriber
// recomputed during propagation, in propagation order. fn runs with the
// sheet locked and must not call back into it.
func WithRecomputeObserver(fn func(id string, value int64)) Option {
	return func(s *Spreadsheet) {
		s.observer = fn
	}
}

// Spreadsheet is the sheet registry and propagation engine. each instance
// is independent; all operations are serialized by a single lock so a
// write's cascade never interleaves with another call.
type Spreadsheet struct {
	mu      sync.Mutex
	storage *Storage
	metrics *Metrics
	logger  *slog.Logger

	id               string
	pruneStale       bool
	metricsNamespace string
	observer         func(id string, value int64)
}

// NewSpreadsheet creates a new, empty sheet
func NewSpreadsheet(opts ...Option) *Spreadsheet {
	s := &Spreadsheet{
		storage:          NewStorage(),
		logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
		id:               uuid.NewString(),
		metricsNamespace: "sheet",
	}
	for _, opt := range opts {
		opt(s)
	}

	s.metrics = newMetrics(s.metricsNamespace, s.id,
		func() float64 {
			s.mu.Lock()
			defer s.mu.Unlock()
			return float64(s.storage.identifiers.Count())
		},
		func() float64 {
			s.mu.Lock()
			defer s.mu.Unlock()
			return float64(s.storage.dependencyGraph.EdgeCount())
		},
	)
	s.logger = s.logger.With("sheet_id", s.id)

	return s
}

type SpreadsheetInterface interface {
	SetCell(id string, formula string) error
	GetCellValue(id string) int64
	Recalculate() error
}

var _ SpreadsheetInterface = (*Spreadsheet)(nil)

// ID returns the sheet instance id
func (s *Spreadsheet) ID() string {
	return s.id
}

// Metrics returns the sheet's metrics
func (s *Spreadsheet) Metrics() *Metrics {
	return s.metrics
}

// GetCellValue returns the cached value of id. an unseen cell is created
// with value 0. an id no formula could reference reads as 0 and is not
// created.
func (s *Spreadsheet) GetCellValue(id string) int64 {
	if !IsValidIdentifier(id) {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.storage.CellValue(id)
}

// SetCell parses formula and assigns it to id. the target and every
// referenced cell are created if needed, the target is evaluated, every
// transitive subscriber is recomputed once, and only then is the target
// subscribed to the cells its formula references.
//
// a formula that would make id depend on itself, directly or through
// other cells, is rejected with a *CycleError and the sheet is left as it
// was.
func (s *Spreadsheet) SetCell(id string, formula string) error {
	if !IsValidIdentifier(id) {
		return NewApplicationError(InvalidArgument, fmt.Sprintf("invalid cell identifier %q", id))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.storage.GetOrCreateCell(id)

	expr, refs, err := ParseFormula(formula)
	if err != nil {
		s.metrics.parseErrorsTotal.Inc()
		s.logger.Debug("formula rejected", "cell", id, "formula", formula, "error", err)
		return fmt.Errorf("set %s: %w", id, err)
	}

	refCells := make([]*Cell, 0, len(refs))
	for _, ref := range refs {
		refCells = append(refCells, s.storage.GetOrCreateCell(ref))
	}

	if cycleErr := s.checkCycle(target, refCells); cycleErr != nil {
		s.metrics.cycleErrorsTotal.Inc()
		s.logger.Warn("circular reference rejected", "cell", id, "formula", formula, "path", cycleErr.Path)
		return fmt.Errorf("set %s: %w", id, cycleErr)
	}

	// ordered before any mutation so a failure leaves the sheet as it was.
	// pruning only drops target's own subscriptions, which cannot change it
	order, err := s.propagationOrder(target)
	if err != nil {
		return fmt.Errorf("set %s: %w", id, err)
	}

	if s.pruneStale {
		pruned := s.storage.dependencyGraph.ClearPrecedents(target.cellID)
		s.metrics.prunedEdgesTotal.Add(float64(len(pruned)))
	}

	target.assign(expr, formula)
	recomputed := s.recompute(order)

	for _, ref := range refCells {
		ref.AddSubscriber(target)
	}

	s.metrics.writesTotal.Inc()
	s.logger.Debug("cell set",
		"cell", id,
		"formula", formula,
		"value", target.value,
		"recomputed", recomputed)

	return nil
}

// checkCycle rejects refs that are the target itself or that already
// depend on the target through subscription edges
func (s *Spreadsheet) checkCycle(target *Cell, refs []*Cell) *CycleError {
	for _, ref := range refs {
		if ref == target {
			return &CycleError{Cell: target.id, Path: []string{target.id, target.id}}
		}
		path := s.storage.dependencyGraph.FindPath(target.cellID, ref.cellID)
		if path != nil {
			names := s.storage.names(path)
			return &CycleError{Cell: target.id, Path: append(names, target.id)}
		}
	}
	return nil
}

// Recalculate re-evaluates every cell with precedents before dependents
func (s *Spreadsheet) Recalculate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	graph := s.storage.dependencyGraph
	order, hasCycle := graph.GetCalculationOrder()
	if hasCycle {
		cycleErr := s.cycleError(graph.FindCycle(order))
		s.logger.Error("cycle found during recalculation", "cell", cycleErr.Cell, "path", cycleErr.Path)
		return cycleErr
	}

	changed := 0
	for _, cellID := range order {
		if cell := s.storage.cellByID(cellID); cell != nil && cell.recompute() {
			changed++
		}
	}

	s.logger.Debug("recalculated", "cells", len(order), "changed", changed)
	return nil
}

// Formula returns the raw formula last written to id
func (s *Spreadsheet) Formula(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cell, exists := s.storage.GetCell(id)
	if !exists || !cell.IsAssigned() {
		return "", false
	}
	return cell.Formula(), true
}

// Dependents returns the direct subscribers of id
func (s *Spreadsheet) Dependents(id string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	cell, exists := s.storage.GetCell(id)
	if !exists {
		return nil
	}
	return cell.Subscribers()
}

// AllDependents returns every cell recomputed when id changes
func (s *Spreadsheet) AllDependents(id string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	cellID, exists := s.storage.identifiers.Contains(id)
	if !exists {
		return nil
	}
	return sortedNames(s.storage.names(s.storage.dependencyGraph.GetAllDependents(cellID)))
}

// Precedents returns the cells id is subscribed to
func (s *Spreadsheet) Precedents(id string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	cellID, exists := s.storage.identifiers.Contains(id)
	if !exists {
		return nil
	}
	return sortedNames(s.storage.names(s.storage.dependencyGraph.GetDirectPrecedents(cellID)))
}

// CalculationOrder returns every cell ordered so precedents come first
func (s *Spreadsheet) CalculationOrder() ([]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, hasCycle := s.storage.dependencyGraph.GetCalculationOrder()
	return s.storage.names(order), hasCycle
}

// HasCycle checks if the subscription graph contains a cycle
func (s *Spreadsheet) HasCycle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.storage.dependencyGraph.HasCycle()
}

// CellCount returns the number of cells created so far
func (s *Spreadsheet) CellCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.storage.cells)
}

// Values returns a snapshot of every cell value
func (s *Spreadsheet) Values() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	values := make(map[string]int64, len(s.storage.cells))
	for _, cell := range s.storage.cells {
		values[cell.id] = cell.value
	}
	return values
}

// CellIDs returns every known cell identifier, sorted
func (s *Spreadsheet) CellIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.storage.cells))
	for _, cell := range s.storage.cells {
		ids = append(ids, cell.id)
	}
	sort.Strings(ids)
	return ids
}

func sortedNames(names []string) []string {
	sort.Strings(names)
	return names
}
