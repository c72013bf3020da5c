package cypher

import (
	"strings"
	"unicode"
	"unicode/utf8"

	kgerrors "kgcheck/pkg/errors"
)

// TokenKind identifies a lexical token.
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokIdent
	TokString
	TokNumber
	TokParam
	TokLParen
	TokRParen
	TokLBrace
	TokRBrace
	TokLBracket
	TokRBracket
	TokColon
	TokComma
	TokDash
	TokLt
	TokGt
	TokSemicolon
	TokDot
	TokOther
)

// Token is one lexical token. Text holds the decoded contents for strings
// and the source text otherwise.
type Token struct {
	Kind TokenKind
	Text string
	Line int
	// Quoted is set for backtick-quoted identifiers.
	Quoted bool
}

func (t Token) is(kind TokenKind) bool { return t.Kind == kind }

// isKeyword compares an unquoted identifier against a keyword. Keywords are
// case-sensitive.
func (t Token) isKeyword(kw string) bool {
	return t.Kind == TokIdent && !t.Quoted && t.Text == kw
}

type lexer struct {
	src   string
	pos   int
	line  int
	toks  []Token
	diags []error
}

// Lex splits src into tokens. Comments and whitespace are dropped.
// Unterminated strings and block comments run to the end of input and are
// reported as diagnostics rather than failing the whole file.
func Lex(src string) ([]Token, []error) {
	l := &lexer{src: src, line: 1}
	l.run()
	return l.toks, l.diags
}

func (l *lexer) emit(kind TokenKind, text string, line int) {
	l.toks = append(l.toks, Token{Kind: kind, Text: text, Line: line})
}

func (l *lexer) peekByte(off int) byte {
	if l.pos+off < len(l.src) {
		return l.src[l.pos+off]
	}
	return 0
}

func (l *lexer) run() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\n':
			l.line++
			l.pos++
		case c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v':
			l.pos++
		case c == '/' && l.peekByte(1) == '/':
			l.skipLineComment()
		case c == '/' && l.peekByte(1) == '*':
			l.skipBlockComment()
		case c == '"' || c == '\'':
			l.lexString(c)
		case c == '`':
			l.lexQuotedIdent()
		case c == '$':
			l.lexParam()
		case isDigit(c):
			l.lexNumber()
		case c == '.' && isDigit(l.peekByte(1)):
			l.lexNumber()
		default:
			r, size := utf8.DecodeRuneInString(l.src[l.pos:])
			if r == '_' || unicode.IsLetter(r) {
				l.lexIdent()
				continue
			}
			l.emit(punctuation(c), l.src[l.pos:l.pos+size], l.line)
			l.pos += size
		}
	}
	l.emit(TokEOF, "", l.line)
}

func punctuation(c byte) TokenKind {
	switch c {
	case '(':
		return TokLParen
	case ')':
		return TokRParen
	case '{':
		return TokLBrace
	case '}':
		return TokRBrace
	case '[':
		return TokLBracket
	case ']':
		return TokRBracket
	case ':':
		return TokColon
	case ',':
		return TokComma
	case '-':
		return TokDash
	case '<':
		return TokLt
	case '>':
		return TokGt
	case ';':
		return TokSemicolon
	case '.':
		return TokDot
	}
	return TokOther
}

func (l *lexer) skipLineComment() {
	for l.pos < len(l.src) && l.src[l.pos] != '\n' {
		l.pos++
	}
}

func (l *lexer) skipBlockComment() {
	start := l.line
	l.pos += 2
	for l.pos < len(l.src) {
		if l.src[l.pos] == '*' && l.peekByte(1) == '/' {
			l.pos += 2
			return
		}
		if l.src[l.pos] == '\n' {
			l.line++
		}
		l.pos++
	}
	l.diags = append(l.diags, kgerrors.NewUnterminated("block comment", start))
}

// lexString decodes a single- or double-quoted literal. Only quote and
// backslash escapes are decoded; any other escape is kept verbatim so that
// LaTeX such as "\theta" or "\nabla" survives.
func (l *lexer) lexString(quote byte) {
	start := l.line
	l.pos++
	var b strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == quote:
			l.pos++
			l.emit(TokString, b.String(), start)
			return
		case c == '\\' && l.pos+1 < len(l.src):
			next := l.src[l.pos+1]
			if next == '\\' || next == '"' || next == '\'' {
				b.WriteByte(next)
			} else {
				b.WriteByte(c)
				b.WriteByte(next)
			}
			if next == '\n' {
				l.line++
			}
			l.pos += 2
		default:
			if c == '\n' {
				l.line++
			}
			b.WriteByte(c)
			l.pos++
		}
	}
	l.diags = append(l.diags, kgerrors.NewUnterminated("string", start))
	l.emit(TokString, b.String(), start)
}

func (l *lexer) lexQuotedIdent() {
	start := l.line
	l.pos++
	end := strings.IndexByte(l.src[l.pos:], '`')
	if end < 0 {
		l.diags = append(l.diags, kgerrors.NewUnterminated("quoted identifier", start))
		end = len(l.src) - l.pos
	}
	text := l.src[l.pos : l.pos+end]
	l.line += strings.Count(text, "\n")
	l.toks = append(l.toks, Token{Kind: TokIdent, Text: text, Line: start, Quoted: true})
	l.pos += end
	if l.pos < len(l.src) {
		l.pos++
	}
}

func (l *lexer) lexParam() {
	start := l.pos
	l.pos++
	for l.pos < len(l.src) && isIdentByte(l.src[l.pos]) {
		l.pos++
	}
	l.emit(TokParam, l.src[start:l.pos], l.line)
}

func (l *lexer) lexNumber() {
	start := l.pos
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	if l.peekByte(0) == '.' && isDigit(l.peekByte(1)) {
		l.pos++
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	if c := l.peekByte(0); c == 'e' || c == 'E' {
		off := 1
		if s := l.peekByte(1); s == '+' || s == '-' {
			off = 2
		}
		if isDigit(l.peekByte(off)) {
			l.pos += off
			for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
				l.pos++
			}
		}
	}
	// Trailing identifier characters make this a word like "20A4", not a number.
	if l.pos < len(l.src) && isIdentByte(l.src[l.pos]) {
		for l.pos < len(l.src) && isIdentByte(l.src[l.pos]) {
			l.pos++
		}
		l.emit(TokIdent, l.src[start:l.pos], l.line)
		return
	}
	l.emit(TokNumber, l.src[start:l.pos], l.line)
}

func (l *lexer) lexIdent() {
	start := l.pos
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		l.pos += size
	}
	l.emit(TokIdent, l.src[start:l.pos], l.line)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentByte(c byte) bool {
	return c == '_' || isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
