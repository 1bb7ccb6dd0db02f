package spreadsheet

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// TokenType represents different types of tokens in formulas
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenNumber
	TokenCell
	TokenPlus
)

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenNumber:
		return "number"
	case TokenCell:
		return "cell"
	case TokenPlus:
		return "plus"
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// character classification constants. slightly easier to read.
const (
	charPlus       = '+'
	charUnderscore = '_'
)

// Token represents a lexical token with position information
type Token struct {
	Type  TokenType
	Value string
	Pos   int // byte position in input
}

// Lexer tokenizes formula expressions. tokens are separated by whitespace;
// a token starting with '+' is an addition separator, and anything glued
// to the '+' is lexed as a token of its own ("+5" is "+" then "5").
type Lexer struct {
	input  string
	pos    int
	tokens []Token
}

// NewLexer creates a new lexer for the given formula input
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		pos:    0,
		tokens: []Token{},
	}
}

// Tokenize tokenizes the entire input. the returned slice always ends with
// a TokenEOF token when err is nil.
func (l *Lexer) Tokenize() ([]Token, error) {
	for {
		l.skipWhitespace()
		if l.pos >= len(l.input) {
			break
		}

		start := l.pos
		end := l.wordEnd()
		if err := l.scanWord(start, end); err != nil {
			return nil, err
		}
		l.pos = end
	}

	l.tokens = append(l.tokens, Token{Type: TokenEOF, Pos: l.pos})
	return l.tokens, nil
}

// scanWord splits one whitespace-delimited word into tokens
func (l *Lexer) scanWord(start, end int) error {
	pos := start
	for pos < end {
		ch, size := utf8.DecodeRuneInString(l.input[pos:])
		switch {
		case ch == charPlus:
			l.tokens = append(l.tokens, Token{Type: TokenPlus, Value: "+", Pos: pos})
			pos += size
		case l.isDigit(ch):
			tok, err := l.scanNumber(pos, end)
			if err != nil {
				return err
			}
			l.tokens = append(l.tokens, tok)
			return nil
		case unicode.IsLetter(ch):
			tok, err := l.scanCell(pos, end)
			if err != nil {
				return err
			}
			l.tokens = append(l.tokens, tok)
			return nil
		default:
			return &ParseError{
				Formula: l.input,
				Pos:     pos,
				Token:   l.input[pos:end],
				Message: fmt.Sprintf("unexpected character %q", ch),
			}
		}
	}
	return nil
}

// scanNumber scans a decimal integer literal that must span the rest of
// the word
func (l *Lexer) scanNumber(start, end int) (Token, error) {
	for i, ch := range l.input[start:end] {
		if !l.isDigit(ch) {
			return Token{}, &ParseError{
				Formula: l.input,
				Pos:     start + i,
				Token:   l.input[start:end],
				Message: "invalid number literal",
			}
		}
	}
	return Token{Type: TokenNumber, Value: l.input[start:end], Pos: start}, nil
}

// scanCell scans a cell identifier: a letter followed by letters, digits
// or underscores
func (l *Lexer) scanCell(start, end int) (Token, error) {
	for i, ch := range l.input[start:end] {
		if !l.isAlphaNumeric(ch) {
			return Token{}, &ParseError{
				Formula: l.input,
				Pos:     start + i,
				Token:   l.input[start:end],
				Message: fmt.Sprintf("invalid character %q in cell identifier", ch),
			}
		}
	}
	return Token{Type: TokenCell, Value: l.input[start:end], Pos: start}, nil
}

// wordEnd returns the byte offset of the end of the word at l.pos
func (l *Lexer) wordEnd() int {
	end := l.pos
	for end < len(l.input) {
		ch, size := utf8.DecodeRuneInString(l.input[end:])
		if unicode.IsSpace(ch) {
			break
		}
		end += size
	}
	return end
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		ch, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !unicode.IsSpace(ch) {
			return
		}
		l.pos += size
	}
}

func (l *Lexer) isDigit(ch rune) bool {
	return isDigit(ch)
}

func (l *Lexer) isAlphaNumeric(ch rune) bool {
	return isIdentifierRune(ch)
}

// IsValidIdentifier reports whether id can be referenced from a formula:
// a letter followed by letters, digits or underscores
func IsValidIdentifier(id string) bool {
	first, _ := utf8.DecodeRuneInString(id)
	if id == "" || !unicode.IsLetter(first) {
		return false
	}
	for _, ch := range id {
		if !isIdentifierRune(ch) {
			return false
		}
	}
	return true
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentifierRune(ch rune) bool {
	return unicode.IsLetter(ch) || isDigit(ch) || ch == charUnderscore
}
