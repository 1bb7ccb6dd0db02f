package spreadsheet

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrCycle is the sentinel matched by every *CycleError
var ErrCycle = errors.New("dependency cycle")

// CycleError reports a write that would make a cell depend on itself.
// Path lists the cells of the cycle starting and ending at Cell.
type CycleError struct {
	Cell string
	Path []string
}

func (e *CycleError) Error() string {
	if e.Cell == "" {
		return "circular reference in sheet"
	}
	if len(e.Path) == 0 {
		return fmt.Sprintf("circular reference at %s", e.Cell)
	}
	return fmt.Sprintf("circular reference at %s: %s", e.Cell, strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error {
	return ErrCycle
}

// DependencyNode represents a cell in the dependency graph
type DependencyNode struct {
	ID CellID

	Precedents map[CellID]*DependencyNode // cells this cell depends on
	Dependents map[CellID]*DependencyNode // cells that depend on this cell (subscribers)
}

// DependencyGraph holds the subscription edges between cells. an edge
// from -> to means "from" references "to", so "from" is one of the
// subscribers of "to".
type DependencyGraph struct {
	nodes map[CellID]*DependencyNode
}

// NewDependencyGraph creates a new dependency graph
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes: make(map[CellID]*DependencyNode),
	}
}

// GetOrCreateNode gets an existing node or creates a new one
func (dg *DependencyGraph) GetOrCreateNode(id CellID) *DependencyNode {
	if node, exists := dg.nodes[id]; exists {
		return node
	}

	node := &DependencyNode{
		ID:         id,
		Precedents: make(map[CellID]*DependencyNode),
		Dependents: make(map[CellID]*DependencyNode),
	}
	dg.nodes[id] = node
	return node
}

// AddCellDependency records that from depends on to. returns false when
// the edge already existed.
func (dg *DependencyGraph) AddCellDependency(from, to CellID) bool {
	fromNode := dg.GetOrCreateNode(from)
	toNode := dg.GetOrCreateNode(to)

	if _, exists := toNode.Dependents[from]; exists {
		return false
	}

	fromNode.Precedents[to] = toNode
	toNode.Dependents[from] = fromNode
	return true
}

// RemoveCellDependency removes a cell-to-cell dependency. nodes are kept
// since cells are never destroyed.
func (dg *DependencyGraph) RemoveCellDependency(from, to CellID) bool {
	fromNode, fromExists := dg.nodes[from]
	toNode, toExists := dg.nodes[to]

	if !fromExists || !toExists {
		return false
	}
	if _, exists := toNode.Dependents[from]; !exists {
		return false
	}

	delete(fromNode.Precedents, to)
	delete(toNode.Dependents, from)
	return true
}

// ClearPrecedents removes every edge from id to the cells it depends on
// and returns the cells it was detached from
func (dg *DependencyGraph) ClearPrecedents(id CellID) []CellID {
	node, exists := dg.nodes[id]
	if !exists {
		return nil
	}

	removed := sortedKeys(node.Precedents)
	for _, precedent := range removed {
		dg.RemoveCellDependency(id, precedent)
	}
	return removed
}

// GetDirectDependents returns cells directly depending on this cell
func (dg *DependencyGraph) GetDirectDependents(id CellID) []CellID {
	node, exists := dg.nodes[id]
	if !exists {
		return nil
	}
	return sortedKeys(node.Dependents)
}

// GetDirectPrecedents returns cells this cell directly depends on
func (dg *DependencyGraph) GetDirectPrecedents(id CellID) []CellID {
	node, exists := dg.nodes[id]
	if !exists {
		return nil
	}
	return sortedKeys(node.Precedents)
}

// GetAllDependents returns all cells affected by this cell (transitive
// closure), not including the cell itself
func (dg *DependencyGraph) GetAllDependents(id CellID) []CellID {
	visited := make(map[CellID]struct{})
	var result []CellID

	dg.collectDependents(id, visited, &result)
	slices.Sort(result)
	return result
}

// collectDependents recursively collects all dependents
func (dg *DependencyGraph) collectDependents(id CellID, visited map[CellID]struct{}, result *[]CellID) {
	if _, alreadyVisited := visited[id]; alreadyVisited {
		return
	}
	visited[id] = struct{}{}

	node, exists := dg.nodes[id]
	if !exists {
		return
	}

	for dependent := range node.Dependents {
		if _, alreadyVisited := visited[dependent]; !alreadyVisited {
			*result = append(*result, dependent)
			dg.collectDependents(dependent, visited, result)
		}
	}
}

// FindPath returns a path from -> ... -> to following dependent edges, or
// nil when to is not reachable. a cell always reaches itself.
func (dg *DependencyGraph) FindPath(from, to CellID) []CellID {
	if from == to {
		return []CellID{from}
	}

	parent := map[CellID]CellID{from: 0}
	queue := []CellID{from}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		node, exists := dg.nodes[current]
		if !exists {
			continue
		}
		for _, next := range sortedKeys(node.Dependents) {
			if _, seen := parent[next]; seen {
				continue
			}
			parent[next] = current
			if next == to {
				return buildPath(parent, from, to)
			}
			queue = append(queue, next)
		}
	}
	return nil
}

// FindCycle returns the first cycle through one of candidates, in
// candidate order, as a path that starts and ends at the same cell. nil
// when none of them is on a cycle.
func (dg *DependencyGraph) FindCycle(candidates []CellID) []CellID {
	for _, id := range candidates {
		node, exists := dg.nodes[id]
		if !exists {
			continue
		}
		for _, dependent := range sortedKeys(node.Dependents) {
			if path := dg.FindPath(dependent, id); path != nil {
				return append([]CellID{id}, path...)
			}
		}
	}
	return nil
}

func buildPath(parent map[CellID]CellID, from, to CellID) []CellID {
	path := []CellID{to}
	for current := to; current != from; {
		current = parent[current]
		path = append(path, current)
	}
	slices.Reverse(path)
	return path
}

// PropagationOrder returns the transitive dependents of origin in an order
// where every cell comes after all of its precedents inside the set. ok is
// false when the dependents of origin contain a cycle or lead back to
// origin; the returned order then holds only the cells that could be
// ordered.
func (dg *DependencyGraph) PropagationOrder(origin CellID) (order []CellID, ok bool) {
	closure := dg.GetAllDependents(origin)
	if len(closure) == 0 {
		return nil, true
	}

	inClosure := make(map[CellID]struct{}, len(closure))
	for _, id := range closure {
		inClosure[id] = struct{}{}
	}

	// in-degree counts only edges coming from inside the closure; edges
	// from origin or unrelated cells are already satisfied
	inDegree := make(map[CellID]int, len(closure))
	for _, id := range closure {
		node := dg.nodes[id]
		if _, loops := node.Dependents[origin]; loops {
			return nil, false
		}
		for precedent := range node.Precedents {
			if _, inside := inClosure[precedent]; inside {
				inDegree[id]++
			}
		}
	}

	ready := make([]CellID, 0, len(closure))
	for _, id := range closure {
		if inDegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	order = make([]CellID, 0, len(closure))
	for len(ready) > 0 {
		slices.Sort(ready)
		batch := ready
		ready = nil
		for _, id := range batch {
			order = append(order, id)
			for dependent := range dg.nodes[id].Dependents {
				if _, inside := inClosure[dependent]; !inside {
					continue
				}
				inDegree[dependent]--
				if inDegree[dependent] == 0 {
					ready = append(ready, dependent)
				}
			}
		}
	}

	return order, len(order) == len(closure)
}

// GetCalculationOrder returns every node with precedents before
// dependents. hasCycle reports whether a back edge was found; the order
// is still complete but not meaningful for the cells on the cycle.
func (dg *DependencyGraph) GetCalculationOrder() ([]CellID, bool) {
	// three states: unvisited (not in map), visiting (false), visited (true)
	state := make(map[CellID]bool)
	var order []CellID
	hasCycle := false

	var visit func(id CellID) bool
	visit = func(id CellID) bool {
		if completed, exists := state[id]; exists {
			if !completed {
				// currently visiting - cycle detected
				return true
			}
			return false
		}

		state[id] = false

		if node, exists := dg.nodes[id]; exists {
			for _, precedent := range sortedKeys(node.Precedents) {
				if visit(precedent) {
					hasCycle = true
				}
			}
		}

		state[id] = true
		order = append(order, id)
		return false
	}

	for _, id := range sortedKeys(dg.nodes) {
		if _, visited := state[id]; !visited {
			if visit(id) {
				hasCycle = true
			}
		}
	}

	return order, hasCycle
}

// HasCycle checks if there are circular dependencies
func (dg *DependencyGraph) HasCycle() bool {
	_, hasCycle := dg.GetCalculationOrder()
	return hasCycle
}

// NodeCount returns the number of nodes in the graph
func (dg *DependencyGraph) NodeCount() int {
	return len(dg.nodes)
}

// EdgeCount returns the number of subscription edges in the graph
func (dg *DependencyGraph) EdgeCount() int {
	count := 0
	for _, node := range dg.nodes {
		count += len(node.Dependents)
	}
	return count
}

func sortedKeys[V any](m map[CellID]V) []CellID {
	keys := make([]CellID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
