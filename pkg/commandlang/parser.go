package commandlang

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SegmentType defines the type of a parsed segment. The numeric values are
// stable and may be stored.
type SegmentType int

const (
	// SegmentLiteral is plain text, escapes already resolved.
	SegmentLiteral SegmentType = iota
	// SegmentIf is an [if expr](body) block.
	SegmentIf
	// SegmentElif is an [elif expr](body) block.
	SegmentElif
	// SegmentElse is an [else](body) block.
	SegmentElse
	// SegmentSubstitution is a {inner} block.
	SegmentSubstitution
)

func (t SegmentType) String() string {
	switch t {
	case SegmentLiteral:
		return "literal"
	case SegmentIf:
		return "if"
	case SegmentElif:
		return "elif"
	case SegmentElse:
		return "else"
	case SegmentSubstitution:
		return "substitution"
	default:
		return "unknown"
	}
}

// IsConditional reports whether t is one of if, elif or else.
func (t SegmentType) IsConditional() bool {
	return t == SegmentIf || t == SegmentElif || t == SegmentElse
}

// Segment represents a piece of the parsed template string.
type Segment struct {
	Type SegmentType
	// Content is the literal text for SegmentLiteral and the raw text between
	// the braces for SegmentSubstitution.
	Content string
	// Expression is the condition of an if or elif block.
	Expression string
	// Body is the raw text between the parentheses of a conditional. It is
	// rendered recursively, so escapes inside it are kept as written.
	Body string
}

// templateParser holds the state of one left-to-right scan.
type templateParser struct {
	input    string
	pos      int
	parens   int // literal '(' still open at the top level
	literal  strings.Builder
	segments []Segment
}

// ParseTemplate splits a template into literal, conditional and
// substitution segments. For example, "Hi {a:n}[if 1=1](!)" parses into:
//   - Segment{Type: SegmentLiteral, Content: "Hi "}
//   - Segment{Type: SegmentSubstitution, Content: "a:n"}
//   - Segment{Type: SegmentIf, Expression: "1=1", Body: "!"}
//
// A backslash makes the next character literal. Brackets, braces and
// parentheses must balance; anything else is a syntax error.
func ParseTemplate(template string) ([]Segment, error) {
	p := &templateParser{input: template}
	if err := p.parse(); err != nil {
		return nil, err
	}
	return p.segments, nil
}

func (p *templateParser) parse() error {
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		switch c {
		case '\\':
			p.pos++
			if p.pos >= len(p.input) {
				// A trailing backslash has nothing to escape.
				p.literal.WriteByte('\\')
				continue
			}
			_, size := utf8.DecodeRuneInString(p.input[p.pos:])
			p.literal.WriteString(p.input[p.pos : p.pos+size])
			p.pos += size
		case '[':
			p.flushLiteral()
			if err := p.parseConditional(); err != nil {
				return err
			}
		case '{':
			p.flushLiteral()
			if err := p.parseSubstitution(); err != nil {
				return err
			}
		case '(':
			p.parens++
			p.literal.WriteByte(c)
			p.pos++
		case ')':
			if p.parens == 0 {
				return syntaxError(ErrUnbalanced, "unexpected ')' at position %d", p.pos)
			}
			p.parens--
			p.literal.WriteByte(c)
			p.pos++
		case ']', '}':
			return syntaxError(ErrUnbalanced, "unexpected '%c' at position %d", c, p.pos)
		default:
			p.literal.WriteByte(c)
			p.pos++
		}
	}
	if p.parens != 0 {
		return syntaxError(ErrUnbalanced, "%d unclosed '(' in text", p.parens)
	}
	p.flushLiteral()
	return nil
}

func (p *templateParser) flushLiteral() {
	if p.literal.Len() == 0 {
		return
	}
	p.segments = append(p.segments, Segment{Type: SegmentLiteral, Content: p.literal.String()})
	p.literal.Reset()
}

// parseConditional consumes "[kind expr?](body)" starting at '['.
func (p *templateParser) parseConditional() error {
	start := p.pos
	p.pos++

	header, err := p.scanHeader(start)
	if err != nil {
		return err
	}
	if p.pos >= len(p.input) || p.input[p.pos] != '(' {
		return syntaxError(ErrMissingBody, "conditional at position %d has no (body)", start)
	}
	body, err := p.scanBlock(start, ')')
	if err != nil {
		return err
	}

	seg, err := parseHeader(header, start)
	if err != nil {
		return err
	}
	seg.Body = body
	p.segments = append(p.segments, seg)
	return nil
}

// scanHeader reads the expression portion up to the closing ']'. Quoted
// spans are opaque and parentheses inside the expression must balance.
func (p *templateParser) scanHeader(start int) (string, error) {
	var quote byte
	depth := 0
	headerStart := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if quote != 0 {
			if c == '\\' {
				p.pos++
			} else if c == quote {
				quote = 0
			}
			p.pos++
			continue
		}
		switch c {
		case '\\':
			p.pos++
		case '"', '\'':
			quote = c
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return "", syntaxError(ErrUnbalanced, "unexpected ')' in conditional at position %d", p.pos)
			}
		case '[', '{', '}':
			return "", syntaxError(ErrUnbalanced, "unexpected '%c' in conditional at position %d", c, p.pos)
		case ']':
			if depth != 0 {
				return "", syntaxError(ErrUnbalanced, "unclosed '(' in conditional at position %d", start)
			}
			header := p.input[headerStart:p.pos]
			p.pos++
			return header, nil
		}
		p.pos++
	}
	if quote != 0 {
		return "", syntaxError(ErrUnterminatedString, "conditional at position %d", start)
	}
	return "", syntaxError(ErrUnbalanced, "unterminated conditional at position %d", start)
}

// scanBlock reads from the opening bracket at p.pos to its matching closer
// and returns the raw text in between. Every bracket kind counts toward the
// depth; escaped characters do not.
func (p *templateParser) scanBlock(start int, closer byte) (string, error) {
	depth := 1
	p.pos++
	contentStart := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		switch c {
		case '\\':
			p.pos++
			if p.pos < len(p.input) {
				_, size := utf8.DecodeRuneInString(p.input[p.pos:])
				p.pos += size
			}
			continue
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth == 0 {
				if c != closer {
					return "", syntaxError(ErrUnbalanced, "block at position %d closed by '%c', expected '%c'", start, c, closer)
				}
				content := p.input[contentStart:p.pos]
				p.pos++
				return content, nil
			}
		}
		p.pos++
	}
	return "", syntaxError(ErrUnbalanced, "unterminated block at position %d", start)
}

// parseSubstitution consumes "{inner}" starting at '{'.
func (p *templateParser) parseSubstitution() error {
	inner, err := p.scanBlock(p.pos, '}')
	if err != nil {
		return err
	}
	p.segments = append(p.segments, Segment{Type: SegmentSubstitution, Content: inner})
	return nil
}

// parseHeader validates "kind expr?" and builds the conditional segment.
func parseHeader(header string, pos int) (Segment, error) {
	head := strings.TrimSpace(header)
	kind, expr := head, ""
	if i := strings.IndexFunc(head, unicode.IsSpace); i >= 0 {
		kind, expr = head[:i], strings.TrimSpace(head[i:])
	}

	var seg Segment
	switch kind {
	case "if":
		seg.Type = SegmentIf
	case "elif":
		seg.Type = SegmentElif
	case "else":
		seg.Type = SegmentElse
	default:
		return seg, syntaxError(ErrInvalidKind, "%q at position %d", kind, pos)
	}

	if seg.Type == SegmentElse && expr != "" {
		return seg, syntaxError(ErrUnexpectedExpr, "[else %s] at position %d", expr, pos)
	}
	if seg.Type != SegmentElse && expr == "" {
		return seg, syntaxError(ErrMissingExpression, "[%s] at position %d", kind, pos)
	}
	seg.Expression = expr
	return seg, nil
}

// splitAttribute splits substitution text at its first unescaped ':'.
// Both halves come back unescaped.
func splitAttribute(inner string) (object, attribute string, ok bool) {
	for i := 0; i < len(inner); i++ {
		switch inner[i] {
		case '\\':
			i++
		case ':':
			return unescape(inner[:i]), unescape(inner[i+1:]), true
		}
	}
	return "", "", false
}

// unescape drops each escaping backslash, keeping the character after it.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}
