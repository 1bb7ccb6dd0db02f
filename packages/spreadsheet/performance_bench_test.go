package spreadsheet

import (
	"fmt"
	"strconv"
	"testing"
)

func BenchmarkLargeCellPopulation(b *testing.B) {
	for i := 0; i < b.N; i++ {
		s := NewSpreadsheet()

		for row := 1; row <= 100; row++ {
			for col := 1; col <= 26; col++ {
				id := fmt.Sprintf("%c%d", 'A'+col-1, row)
				_ = s.SetCell(id, strconv.Itoa(row*col))
			}
		}
	}
}

func BenchmarkFormulaDependencyChain(b *testing.B) {
	s := NewSpreadsheet()

	_ = s.SetCell("A1", "1")
	for i := 2; i <= 100; i++ {
		_ = s.SetCell(fmt.Sprintf("A%d", i), fmt.Sprintf("A%d + 1", i-1))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = s.SetCell("A1", strconv.Itoa(i))
	}
}

func BenchmarkWideDependencyFanOut(b *testing.B) {
	s := NewSpreadsheet()

	_ = s.SetCell("A1", "100")
	for i := 2; i <= 500; i++ {
		_ = s.SetCell(fmt.Sprintf("B%d", i), "A1 + A1")
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = s.SetCell("A1", strconv.Itoa(i))
	}
}

func BenchmarkDiamondLayers(b *testing.B) {
	s := NewSpreadsheet()

	// every cell of a layer reads two cells of the layer before it
	_ = s.SetCell("L0_0", "1")
	_ = s.SetCell("L0_1", "1")
	for layer := 1; layer <= 20; layer++ {
		for j := 0; j < 2; j++ {
			formula := fmt.Sprintf("L%d_0 + L%d_1", layer-1, layer-1)
			_ = s.SetCell(fmt.Sprintf("L%d_%d", layer, j), formula)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = s.SetCell("L0_0", strconv.Itoa(i))
	}
}

func BenchmarkRecalculate(b *testing.B) {
	s := NewSpreadsheet()

	_ = s.SetCell("A1", "1")
	for i := 2; i <= 1000; i++ {
		_ = s.SetCell(fmt.Sprintf("A%d", i), fmt.Sprintf("A%d + A1", i-1))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = s.Recalculate()
	}
}

func BenchmarkParseFormula(b *testing.B) {
	formula := "A1 + B1 + 42 + total_7 + C9 + 1000000"
	for i := 0; i < b.N; i++ {
		if _, _, err := ParseFormula(formula); err != nil {
			b.Fatal(err)
		}
	}
}
