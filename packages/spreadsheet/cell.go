package spreadsheet

import "sort"

// Cell is a named unit holding the last assigned expression and the cached
// result of evaluating it. subscribers live in the dependency graph and
// are reached through storage.
type Cell struct {
	id         string
	cellID     CellID
	expression ASTNode
	formula    string // raw text of the last write, empty before the first
	value      int64
	assigned   bool // false until the first explicit write
	storage    *Storage
}

func newCell(storage *Storage, id string, cellID CellID) *Cell {
	return &Cell{
		id:         id,
		cellID:     cellID,
		expression: &LiteralNode{Value: 0},
		storage:    storage,
	}
}

// ID returns the cell identifier
func (c *Cell) ID() string {
	return c.id
}

// Value returns the cached value without re-evaluating
func (c *Cell) Value() int64 {
	return c.value
}

// Formula returns the raw formula of the last write
func (c *Cell) Formula() string {
	return c.formula
}

// Expression returns the stored expression; Literal 0 before any write
func (c *Cell) Expression() ASTNode {
	return c.expression
}

// IsAssigned reports whether the cell has been written explicitly
func (c *Cell) IsAssigned() bool {
	return c.assigned
}

// AddSubscriber makes other recompute whenever this cell changes. adding
// the same subscriber twice is a no-op; returns whether an edge was added.
func (c *Cell) AddSubscriber(other *Cell) bool {
	return c.storage.dependencyGraph.AddCellDependency(other.cellID, c.cellID)
}

// RemoveSubscriber drops other from the subscribers of this cell
func (c *Cell) RemoveSubscriber(other *Cell) bool {
	return c.storage.dependencyGraph.RemoveCellDependency(other.cellID, c.cellID)
}

// Subscribers returns the identifiers of the cells subscribed to this
// cell, sorted
func (c *Cell) Subscribers() []string {
	ids := c.storage.dependencyGraph.GetDirectDependents(c.cellID)
	names := c.storage.identifiers.Names(ids)
	sort.Strings(names)
	return names
}

// assign stores a new expression from an explicit write and evaluates it
func (c *Cell) assign(expr ASTNode, formula string) {
	c.expression = expr
	c.formula = formula
	c.assigned = true
	c.recompute()
}

// recompute re-derives the value from the cell's own stored expression
// and reports whether it changed
func (c *Cell) recompute() bool {
	previous := c.value
	c.value = c.expression.Eval(c.storage)
	return c.value != previous
}
