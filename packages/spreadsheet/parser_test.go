package spreadsheet

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapContext map[string]int64

func (m mapContext) CellValue(id string) int64 {
	return m[id]
}

func TestLexerTokens(t *testing.T) {
	tests := []struct {
		input string
		want  []Token
	}{
		{
			input: "42",
			want: []Token{
				{Type: TokenNumber, Value: "42", Pos: 0},
				{Type: TokenEOF, Pos: 2},
			},
		},
		{
			input: "A1 + 7",
			want: []Token{
				{Type: TokenCell, Value: "A1", Pos: 0},
				{Type: TokenPlus, Value: "+", Pos: 3},
				{Type: TokenNumber, Value: "7", Pos: 5},
				{Type: TokenEOF, Pos: 6},
			},
		},
		{
			input: "1 +5",
			want: []Token{
				{Type: TokenNumber, Value: "1", Pos: 0},
				{Type: TokenPlus, Value: "+", Pos: 2},
				{Type: TokenNumber, Value: "5", Pos: 3},
				{Type: TokenEOF, Pos: 4},
			},
		},
		{
			input: "\ttotal_2  +\tB1 ",
			want: []Token{
				{Type: TokenCell, Value: "total_2", Pos: 1},
				{Type: TokenPlus, Value: "+", Pos: 10},
				{Type: TokenCell, Value: "B1", Pos: 12},
				{Type: TokenEOF, Pos: 15},
			},
		},
		{
			input: "   ",
			want:  []Token{{Type: TokenEOF, Pos: 3}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NewLexer(tt.input).Tokenize()
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Tokenize(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestLexerErrors(t *testing.T) {
	tests := []struct {
		input   string
		wantPos int
	}{
		{input: "-5", wantPos: 0},
		{input: "1 + 2x", wantPos: 5},
		{input: "A1+B1", wantPos: 2},
		{input: "B1 + $C1", wantPos: 5},
		{input: "A-1", wantPos: 1},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := NewLexer(tt.input).Tokenize()
			require.ErrorIs(t, err, ErrParse)

			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr))
			assert.Equal(t, tt.wantPos, parseErr.Pos)
			assert.Equal(t, tt.input, parseErr.Formula)
		})
	}
}

func TestParseFormula(t *testing.T) {
	tests := []struct {
		formula  string
		wantAST  ASTNode
		wantRefs []string
	}{
		{
			formula: "7",
			wantAST: &LiteralNode{Value: 7, Position: NodePosition{0, 1}},
		},
		{
			formula:  "A1",
			wantAST:  &CellRefNode{ID: "A1", Position: NodePosition{0, 2}},
			wantRefs: []string{"A1"},
		},
		{
			formula: "A1 + 7",
			wantAST: &AdditionNode{
				Left:     &CellRefNode{ID: "A1", Position: NodePosition{0, 2}},
				Right:    &LiteralNode{Value: 7, Position: NodePosition{5, 6}},
				Position: NodePosition{0, 6},
			},
			wantRefs: []string{"A1"},
		},
		{
			formula: "1 + 2 + B1",
			wantAST: &AdditionNode{
				Left: &AdditionNode{
					Left:     &LiteralNode{Value: 1, Position: NodePosition{0, 1}},
					Right:    &LiteralNode{Value: 2, Position: NodePosition{4, 5}},
					Position: NodePosition{0, 5},
				},
				Right:    &CellRefNode{ID: "B1", Position: NodePosition{8, 10}},
				Position: NodePosition{0, 10},
			},
			wantRefs: []string{"B1"},
		},
		{
			formula: "1 +5",
			wantAST: &AdditionNode{
				Left:     &LiteralNode{Value: 1, Position: NodePosition{0, 1}},
				Right:    &LiteralNode{Value: 5, Position: NodePosition{3, 4}},
				Position: NodePosition{0, 4},
			},
		},
		{
			formula:  "B1 + A1 + B1",
			wantRefs: []string{"B1", "A1"},
			wantAST: &AdditionNode{
				Left: &AdditionNode{
					Left:     &CellRefNode{ID: "B1", Position: NodePosition{0, 2}},
					Right:    &CellRefNode{ID: "A1", Position: NodePosition{5, 7}},
					Position: NodePosition{0, 7},
				},
				Right:    &CellRefNode{ID: "B1", Position: NodePosition{10, 12}},
				Position: NodePosition{0, 12},
			},
		},
		{
			// a second leaf without '+' replaces the first
			formula:  "A1 9",
			wantAST:  &LiteralNode{Value: 9, Position: NodePosition{3, 4}},
			wantRefs: []string{"A1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.formula, func(t *testing.T) {
			ast, refs, err := ParseFormula(tt.formula)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.wantAST, ast); diff != "" {
				t.Errorf("ParseFormula(%q) AST mismatch (-want +got):\n%s", tt.formula, diff)
			}
			if diff := cmp.Diff(tt.wantRefs, refs); diff != "" {
				t.Errorf("ParseFormula(%q) refs mismatch (-want +got):\n%s", tt.formula, diff)
			}
		})
	}
}

func TestParseFormulaErrors(t *testing.T) {
	tests := []struct {
		formula     string
		wantPos     int
		wantMessage string
	}{
		{formula: "", wantPos: 0, wantMessage: "empty formula"},
		{formula: "  ", wantPos: 0, wantMessage: "empty formula"},
		{formula: "+ 1", wantPos: 0, wantMessage: "missing left operand for '+'"},
		{formula: "A1 +", wantPos: 3, wantMessage: "expected operand after '+'"},
		{formula: "1 + + 2", wantPos: 4, wantMessage: "expected operand after '+'"},
		{formula: "9223372036854775808", wantPos: 0, wantMessage: "number literal out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.formula, func(t *testing.T) {
			_, _, err := ParseFormula(tt.formula)
			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, tt.wantPos, parseErr.Pos)
			assert.Equal(t, tt.wantMessage, parseErr.Message)
			assert.ErrorIs(t, err, ErrParse)
		})
	}
}

func TestEvalNestedAddition(t *testing.T) {
	ctx := mapContext{"A1": 3, "B1": 4}
	node := &AdditionNode{
		Left: &LiteralNode{Value: 1},
		Right: &AdditionNode{
			Left:  &CellRefNode{ID: "A1"},
			Right: &CellRefNode{ID: "B1"},
		},
	}

	assert.Equal(t, int64(8), node.Eval(ctx))
	assert.Equal(t, "1 + (A1 + B1)", node.ToString())
	assert.Equal(t, []string{"A1", "B1"}, ReferencedCells(node))
}

func TestEvalUnknownCellReadsZero(t *testing.T) {
	ast, _, err := ParseFormula("missing + 2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), ast.Eval(mapContext{}))
	assert.Equal(t, "missing + 2", ast.ToString())
}
