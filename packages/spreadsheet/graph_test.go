package spreadsheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chain builds 1 <- 2 <- 3 ... where each id depends on the previous one
func chain(n CellID) *DependencyGraph {
	dg := NewDependencyGraph()
	for id := CellID(2); id <= n; id++ {
		dg.AddCellDependency(id, id-1)
	}
	return dg
}

func TestAddCellDependencyIsIdempotent(t *testing.T) {
	dg := NewDependencyGraph()
	assert.True(t, dg.AddCellDependency(2, 1))
	assert.False(t, dg.AddCellDependency(2, 1))
	assert.Equal(t, 1, dg.EdgeCount())
	assert.Equal(t, 2, dg.NodeCount())

	assert.Equal(t, []CellID{2}, dg.GetDirectDependents(1))
	assert.Equal(t, []CellID{1}, dg.GetDirectPrecedents(2))
}

func TestRemoveAndClearPrecedents(t *testing.T) {
	dg := NewDependencyGraph()
	dg.AddCellDependency(3, 1)
	dg.AddCellDependency(3, 2)
	dg.AddCellDependency(4, 3)

	assert.True(t, dg.RemoveCellDependency(4, 3))
	assert.False(t, dg.RemoveCellDependency(4, 3))
	assert.False(t, dg.RemoveCellDependency(9, 3))

	assert.Equal(t, []CellID{1, 2}, dg.ClearPrecedents(3))
	assert.Empty(t, dg.GetDirectDependents(1))
	assert.Empty(t, dg.GetDirectPrecedents(3))
	assert.Nil(t, dg.ClearPrecedents(42))
	assert.Equal(t, 4, dg.NodeCount(), "nodes survive edge removal")
}

func TestGetAllDependents(t *testing.T) {
	dg := chain(5)
	dg.AddCellDependency(6, 2)

	assert.Equal(t, []CellID{2, 3, 4, 5, 6}, dg.GetAllDependents(1))
	assert.Equal(t, []CellID{5}, dg.GetAllDependents(4))
	assert.Empty(t, dg.GetAllDependents(5))
	assert.Empty(t, dg.GetAllDependents(99))
}

func TestFindPath(t *testing.T) {
	dg := chain(4)

	assert.Equal(t, []CellID{1, 2, 3, 4}, dg.FindPath(1, 4))
	assert.Equal(t, []CellID{3}, dg.FindPath(3, 3))
	assert.Nil(t, dg.FindPath(4, 1))
}

func TestPropagationOrderDiamond(t *testing.T) {
	// 2 and 3 read 1; 4 reads 2 and 3; 5 reads 4 and 1
	dg := NewDependencyGraph()
	dg.AddCellDependency(2, 1)
	dg.AddCellDependency(3, 1)
	dg.AddCellDependency(4, 2)
	dg.AddCellDependency(4, 3)
	dg.AddCellDependency(5, 4)
	dg.AddCellDependency(5, 1)

	order, ok := dg.PropagationOrder(1)
	require.True(t, ok)
	assert.Equal(t, []CellID{2, 3, 4, 5}, order)

	order, ok = dg.PropagationOrder(3)
	require.True(t, ok)
	assert.Equal(t, []CellID{4, 5}, order)

	order, ok = dg.PropagationOrder(5)
	require.True(t, ok)
	assert.Empty(t, order)
}

func TestPropagationOrderDetectsLoop(t *testing.T) {
	dg := chain(3)
	dg.AddCellDependency(1, 3)

	_, ok := dg.PropagationOrder(1)
	assert.False(t, ok)
	assert.True(t, dg.HasCycle())
}

func TestGetCalculationOrder(t *testing.T) {
	dg := NewDependencyGraph()
	dg.AddCellDependency(3, 1)
	dg.AddCellDependency(3, 2)
	dg.AddCellDependency(2, 1)

	order, hasCycle := dg.GetCalculationOrder()
	assert.False(t, hasCycle)
	assert.Equal(t, []CellID{1, 2, 3}, order)
	assert.False(t, dg.HasCycle())
}

func TestIdentifierTable(t *testing.T) {
	it := NewIdentifierTable()
	a := it.Intern("A1")
	b := it.Intern("B1")

	assert.Equal(t, a, it.Intern("A1"))
	assert.NotEqual(t, CellID(0), a)
	assert.Equal(t, 2, it.Count())

	name, ok := it.GetString(b)
	require.True(t, ok)
	assert.Equal(t, "B1", name)

	_, ok = it.Contains("C1")
	assert.False(t, ok)
	assert.Equal(t, []string{"B1", "A1"}, it.Names([]CellID{b, 99, a}))
}

func TestFindCycle(t *testing.T) {
	dg := chain(3)
	assert.Nil(t, dg.FindCycle([]CellID{1, 2, 3}))

	dg.AddCellDependency(1, 3)
	assert.Equal(t, []CellID{2, 3, 1, 2}, dg.FindCycle([]CellID{2, 1}))
	assert.Nil(t, dg.FindCycle([]CellID{42}))
}
