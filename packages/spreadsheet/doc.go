// Package spreadsheet is a small reactive cell engine. cells hold an
// integer literal or an addition over other cells; writing a cell
// recomputes every cell that transitively references it before SetCell
// returns.
//
//	s := spreadsheet.NewSpreadsheet()
//	_ = s.SetCell("A1", "3")
//	_ = s.SetCell("B1", "A1 + 4")
//	_ = s.SetCell("A1", "10")
//	s.GetCellValue("B1") // 14
//
// Formulas are whitespace separated tokens: decimal literals, cell
// identifiers (a letter followed by letters, digits or '_') and '+'.
// Formulas that would make a cell depend on itself are rejected with a
// *CycleError.
package spreadsheet
