// Package sqlref provides best-effort lexical analysis of SQL model bodies:
// normalization for cosmetic-change detection and extraction of referenced
// column names. It deliberately stops short of full parsing; callers treat
// its results as informational signal, never as the authoritative contract
// check.
package sqlref

import (
	"fmt"
	"strings"
	"unicode"
)

// tokenKind classifies scanner output.
type tokenKind int

const (
	tokenIdent tokenKind = iota
	tokenNumber
	tokenString
	tokenSymbol
)

// sqlToken is one lexical unit of a SQL body.
type sqlToken struct {
	kind    tokenKind
	literal string // case-normalized for identifiers
}

// scanner tokenizes SQL input, skipping whitespace and comments.
type scanner struct {
	input string
	pos   int
}

// scan tokenizes the whole input. It returns an error for unterminated
// strings or block comments, the signal callers map to their conservative
// defaults.
func scan(input string) ([]sqlToken, error) {
	s := &scanner{input: input}
	var tokens []sqlToken
	for {
		tok, ok, err := s.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return tokens, nil
		}
		tokens = append(tokens, tok)
	}
}

func (s *scanner) next() (sqlToken, bool, error) {
	if err := s.skipWhitespaceAndComments(); err != nil {
		return sqlToken{}, false, err
	}
	if s.pos >= len(s.input) {
		return sqlToken{}, false, nil
	}

	ch := s.input[s.pos]
	switch {
	case ch == '\'' || ch == '"' || ch == '`':
		lit, err := s.readQuoted(ch)
		if err != nil {
			return sqlToken{}, false, err
		}
		if ch == '\'' {
			return sqlToken{kind: tokenString, literal: lit}, true, nil
		}
		// Double quotes and backticks delimit identifiers.
		return sqlToken{kind: tokenIdent, literal: strings.ToLower(lit)}, true, nil
	case isIdentStart(ch):
		return sqlToken{kind: tokenIdent, literal: strings.ToLower(s.readIdent())}, true, nil
	case ch >= '0' && ch <= '9':
		return sqlToken{kind: tokenNumber, literal: s.readNumber()}, true, nil
	default:
		s.pos++
		return sqlToken{kind: tokenSymbol, literal: string(ch)}, true, nil
	}
}

func (s *scanner) skipWhitespaceAndComments() error {
	for s.pos < len(s.input) {
		ch := s.input[s.pos]
		switch {
		case unicode.IsSpace(rune(ch)):
			s.pos++
		case ch == '-' && s.pos+1 < len(s.input) && s.input[s.pos+1] == '-':
			for s.pos < len(s.input) && s.input[s.pos] != '\n' {
				s.pos++
			}
		case ch == '/' && s.pos+1 < len(s.input) && s.input[s.pos+1] == '*':
			end := strings.Index(s.input[s.pos+2:], "*/")
			if end < 0 {
				return fmt.Errorf("unterminated block comment at offset %d", s.pos)
			}
			s.pos += end + 4
		default:
			return nil
		}
	}
	return nil
}

func (s *scanner) readQuoted(quote byte) (string, error) {
	start := s.pos
	s.pos++ // opening quote
	var sb strings.Builder
	for s.pos < len(s.input) {
		ch := s.input[s.pos]
		if ch == quote {
			// Doubled quote is an escape.
			if s.pos+1 < len(s.input) && s.input[s.pos+1] == quote {
				sb.WriteByte(quote)
				s.pos += 2
				continue
			}
			s.pos++
			return sb.String(), nil
		}
		sb.WriteByte(ch)
		s.pos++
	}
	return "", fmt.Errorf("unterminated quoted literal at offset %d", start)
}

func (s *scanner) readIdent() string {
	start := s.pos
	for s.pos < len(s.input) && isIdentPart(s.input[s.pos]) {
		s.pos++
	}
	return s.input[start:s.pos]
}

func (s *scanner) readNumber() string {
	start := s.pos
	for s.pos < len(s.input) {
		ch := s.input[s.pos]
		if (ch < '0' || ch > '9') && ch != '.' && ch != 'e' && ch != 'E' {
			break
		}
		s.pos++
	}
	return s.input[start:s.pos]
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9')
}
