package spreadsheet

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrParse is the sentinel matched by every *ParseError
var ErrParse = errors.New("parse error")

// ParseError reports a formula that could not be tokenized or parsed.
// Pos is a byte offset into Formula.
type ParseError struct {
	Formula string
	Pos     int
	Token   string
	Message string
}

func (e *ParseError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("parse error at %d near %q: %s", e.Pos, e.Token, e.Message)
	}
	return fmt.Sprintf("parse error at %d: %s", e.Pos, e.Message)
}

func (e *ParseError) Unwrap() error {
	return ErrParse
}

type NodePosition struct {
	Start int
	End   int
}

// EvalContext is the read side of the sheet registry that expressions are
// evaluated against. CellValue creates the cell with value 0 when it does
// not exist yet.
type EvalContext interface {
	CellValue(id string) int64
}

// ASTNode is an immutable expression node. the parser only produces
// left-folded chains of additions over leaves, but any node may appear
// on either side of an AdditionNode.
type ASTNode interface {
	Eval(ctx EvalContext) int64
	GetPosition() NodePosition
	ToString() string
}

// LiteralNode represents an integer literal
type LiteralNode struct {
	Value    int64
	Position NodePosition
}

func (n *LiteralNode) Eval(ctx EvalContext) int64 {
	return n.Value
}

func (n *LiteralNode) GetPosition() NodePosition {
	return n.Position
}

func (n *LiteralNode) ToString() string {
	return strconv.FormatInt(n.Value, 10)
}

// CellRefNode represents a reference to another cell by identifier
type CellRefNode struct {
	ID       string
	Position NodePosition
}

func (n *CellRefNode) Eval(ctx EvalContext) int64 {
	return ctx.CellValue(n.ID)
}

func (n *CellRefNode) GetPosition() NodePosition {
	return n.Position
}

func (n *CellRefNode) ToString() string {
	return n.ID
}

// AdditionNode adds two sub-expressions. overflow wraps, following int64
// arithmetic.
type AdditionNode struct {
	Left     ASTNode
	Right    ASTNode
	Position NodePosition
}

func (n *AdditionNode) Eval(ctx EvalContext) int64 {
	return n.Left.Eval(ctx) + n.Right.Eval(ctx)
}

func (n *AdditionNode) GetPosition() NodePosition {
	return n.Position
}

func (n *AdditionNode) ToString() string {
	right := n.Right.ToString()
	if _, nested := n.Right.(*AdditionNode); nested {
		right = "(" + right + ")"
	}
	return n.Left.ToString() + " + " + right
}

// ReferencedCells returns the identifiers referenced anywhere in node,
// deduplicated, in first-seen order
func ReferencedCells(node ASTNode) []string {
	seen := make(map[string]struct{})
	var refs []string

	var walk func(n ASTNode)
	walk = func(n ASTNode) {
		switch v := n.(type) {
		case *CellRefNode:
			if _, ok := seen[v.ID]; !ok {
				seen[v.ID] = struct{}{}
				refs = append(refs, v.ID)
			}
		case *AdditionNode:
			walk(v.Left)
			walk(v.Right)
		case *LiteralNode, nil:
			// leaves without references
		}
	}
	walk(node)
	return refs
}

// Parser turns a token stream into an AST plus the set of cells it
// references
type Parser struct {
	formula string
	tokens  []Token
	pos     int
}

// NewParser creates a new parser over tokens produced by a Lexer for
// formula
func NewParser(formula string, tokens []Token) *Parser {
	return &Parser{
		formula: formula,
		tokens:  tokens,
		pos:     0,
	}
}

// ParseFormula lexes and parses raw in one step
func ParseFormula(raw string) (ASTNode, []string, error) {
	tokens, err := NewLexer(raw).Tokenize()
	if err != nil {
		return nil, nil, err
	}
	return NewParser(raw, tokens).Parse()
}

// Parse walks the tokens left to right. a leaf seen while not expecting
// an operand replaces the accumulated expression; a leaf after '+' is
// folded into it as the right operand. every cell leaf is recorded as a
// reference, including ones that end up replaced.
func (p *Parser) Parse() (ASTNode, []string, error) {
	var (
		acc       ASTNode
		expecting bool
		plusTok   Token
		refs      []string
		seen      = make(map[string]struct{})
	)

	for ; p.pos < len(p.tokens); p.pos++ {
		tok := p.tokens[p.pos]
		if tok.Type == TokenEOF {
			break
		}

		if tok.Type == TokenPlus {
			if expecting {
				return nil, nil, p.errorAt(tok, "expected operand after '+'")
			}
			if acc == nil {
				return nil, nil, p.errorAt(tok, "missing left operand for '+'")
			}
			expecting = true
			plusTok = tok
			continue
		}

		leaf, err := p.parseLeaf(tok)
		if err != nil {
			return nil, nil, err
		}
		if ref, ok := leaf.(*CellRefNode); ok {
			if _, dup := seen[ref.ID]; !dup {
				seen[ref.ID] = struct{}{}
				refs = append(refs, ref.ID)
			}
		}

		if expecting {
			acc = &AdditionNode{
				Left:  acc,
				Right: leaf,
				Position: NodePosition{
					Start: acc.GetPosition().Start,
					End:   leaf.GetPosition().End,
				},
			}
			expecting = false
		} else {
			acc = leaf
		}
	}

	if expecting {
		return nil, nil, p.errorAt(plusTok, "expected operand after '+'")
	}
	if acc == nil {
		return nil, nil, &ParseError{Formula: p.formula, Pos: 0, Message: "empty formula"}
	}

	return acc, refs, nil
}

// parseLeaf converts a number or cell token into its node
func (p *Parser) parseLeaf(tok Token) (ASTNode, error) {
	position := NodePosition{Start: tok.Pos, End: tok.Pos + len(tok.Value)}

	switch tok.Type {
	case TokenNumber:
		value, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			return nil, p.errorAt(tok, "number literal out of range")
		}
		return &LiteralNode{Value: value, Position: position}, nil
	case TokenCell:
		return &CellRefNode{ID: tok.Value, Position: position}, nil
	}
	return nil, p.errorAt(tok, fmt.Sprintf("unexpected %s token", tok.Type))
}

func (p *Parser) errorAt(tok Token, message string) *ParseError {
	return &ParseError{
		Formula: p.formula,
		Pos:     tok.Pos,
		Token:   tok.Value,
		Message: message,
	}
}
