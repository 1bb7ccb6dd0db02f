package spreadsheet

// Storage holds the tables shared by every operation on one sheet: the
// interned identifiers, the cells themselves and the subscription graph.
// it is not safe for concurrent use; Spreadsheet serializes access.
type Storage struct {
	identifiers     *IdentifierTable
	cells           map[CellID]*Cell
	dependencyGraph *DependencyGraph
}

// NewStorage creates empty storage
func NewStorage() *Storage {
	return &Storage{
		identifiers:     NewIdentifierTable(),
		cells:           make(map[CellID]*Cell),
		dependencyGraph: NewDependencyGraph(),
	}
}

// GetOrCreateCell resolves id to its cell, creating a default cell with
// value 0 on first reference
func (st *Storage) GetOrCreateCell(id string) *Cell {
	cellID := st.identifiers.Intern(id)
	if cell, exists := st.cells[cellID]; exists {
		return cell
	}

	cell := newCell(st, id, cellID)
	st.cells[cellID] = cell
	st.dependencyGraph.GetOrCreateNode(cellID)
	return cell
}

// GetCell returns the cell for id without creating it
func (st *Storage) GetCell(id string) (*Cell, bool) {
	cellID, exists := st.identifiers.Contains(id)
	if !exists {
		return nil, false
	}
	cell, exists := st.cells[cellID]
	return cell, exists
}

// CellValue implements EvalContext. unknown cells read as 0 and are
// created, matching an empty spreadsheet cell.
func (st *Storage) CellValue(id string) int64 {
	return st.GetOrCreateCell(id).Value()
}

func (st *Storage) cellByID(cellID CellID) *Cell {
	return st.cells[cellID]
}

func (st *Storage) names(ids []CellID) []string {
	return st.identifiers.Names(ids)
}
