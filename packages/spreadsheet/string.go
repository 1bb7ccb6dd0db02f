package spreadsheet

// CellID is the interned form of a cell identifier. 0 is never assigned.
type CellID uint32

// IdentifierTable interns cell identifiers so the dependency graph can be
// keyed by small integers. cells are never destroyed, so neither are
// their identifiers.
type IdentifierTable struct {
	ids        map[string]CellID
	reverseMap map[CellID]string
	nextID     CellID
}

// NewIdentifierTable creates a new identifier table
func NewIdentifierTable() *IdentifierTable {
	return &IdentifierTable{
		ids:        make(map[string]CellID),
		reverseMap: make(map[CellID]string),
		nextID:     1, // start at 1, reserve 0 for no cell
	}
}

// Intern returns the ID of s, adding it to the table if needed
func (it *IdentifierTable) Intern(s string) CellID {
	if id, exists := it.ids[s]; exists {
		return id
	}

	id := it.nextID
	it.ids[s] = id
	it.reverseMap[id] = s
	it.nextID++

	return id
}

// GetString retrieves an identifier by its ID
func (it *IdentifierTable) GetString(id CellID) (string, bool) {
	s, exists := it.reverseMap[id]
	return s, exists
}

// Contains checks if an identifier exists in the table and returns its ID
func (it *IdentifierTable) Contains(s string) (CellID, bool) {
	id, exists := it.ids[s]
	return id, exists
}

// Names resolves a list of IDs, skipping unknown ones
func (it *IdentifierTable) Names(ids []CellID) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if s, ok := it.reverseMap[id]; ok {
			names = append(names, s)
		}
	}
	return names
}

// Count returns the number of identifiers in the table
func (it *IdentifierTable) Count() int {
	return len(it.ids)
}
