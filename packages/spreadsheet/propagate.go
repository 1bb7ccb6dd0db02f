package spreadsheet

// propagationOrder returns every transitive subscriber of origin with a
// cell's precedents always ahead of the cell
func (s *Spreadsheet) propagationOrder(origin *Cell) ([]CellID, error) {
	graph := s.storage.dependencyGraph

	order, ok := graph.PropagationOrder(origin.cellID)
	if !ok {
		// writes that close a cycle are rejected up front, so reaching
		// this means the graph was corrupted
		candidates := append([]CellID{origin.cellID}, graph.GetAllDependents(origin.cellID)...)
		cycleErr := s.cycleError(graph.FindCycle(candidates))
		s.metrics.cycleErrorsTotal.Inc()
		s.logger.Error("cycle found during propagation", "cell", origin.id, "path", cycleErr.Path)
		return nil, cycleErr
	}
	return order, nil
}

// recompute re-evaluates each cell of order once, from its own stored
// expression. returns the number of cells recomputed.
func (s *Spreadsheet) recompute(order []CellID) int {
	for _, cellID := range order {
		cell := s.storage.cellByID(cellID)
		cell.recompute()
		if s.observer != nil {
			s.observer(cell.id, cell.value)
		}
	}

	s.metrics.recomputedTotal.Add(float64(len(order)))
	s.metrics.cascadeSize.Observe(float64(len(order)))
	return len(order)
}

// cycleError names the cells of path, which starts and ends at the same
// cell
func (s *Spreadsheet) cycleError(path []CellID) *CycleError {
	if len(path) == 0 {
		return &CycleError{}
	}
	names := s.storage.names(path)
	return &CycleError{Cell: names[0], Path: names}
}
