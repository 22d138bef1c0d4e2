package commandlang

/*
Expressions are evaluated in two phases:

1. Tokenizing:
   - Splits the expression at every non-word character, keeping the
     delimiters as tokens of their own
   - Quoted spans become single tokens (quotes kept, escapes consumed)
   - Whitespace is dropped

2. Reduction:
   - An operator stack and an operand stack, shunting-yard style
   - A new binary operator first reduces every stacked operator whose
     priority is at least its own, so equal priorities go left to right
   - Operands are resolved through the Resolver as they are read
*/

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokenize splits an expression into operand and operator tokens.
//
//	Tokenize(`a:n = "Ann Lee" and not 0`)
//	// ["a" ":" "n" "=" "\"Ann Lee\"" "and" "not" "0"]
//
// Decimal literals such as 2.5 stay one token.
func Tokenize(expression string) ([]string, error) {
	estimated := len(expression) / 2
	if estimated < 4 {
		estimated = 4
	}
	tokens := make([]string, 0, estimated)

	var word strings.Builder
	flush := func() {
		if word.Len() > 0 {
			tokens = append(tokens, word.String())
			word.Reset()
		}
	}

	for pos := 0; pos < len(expression); {
		r, size := utf8.DecodeRuneInString(expression[pos:])
		switch {
		case r == '"' || r == '\'':
			flush()
			tok, next, err := scanQuoted(expression, pos)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			pos = next
			continue
		case r == '\\':
			// The escaped character loses any special meaning and joins the
			// surrounding operand.
			pos += size
			if pos >= len(expression) {
				continue
			}
			r, size = utf8.DecodeRuneInString(expression[pos:])
			word.WriteRune(r)
		case isWordRune(r):
			word.WriteRune(r)
		case r == '.' && continuesDecimal(word.String(), expression[pos+size:]):
			word.WriteRune(r)
		case unicode.IsSpace(r):
			flush()
		default:
			flush()
			tokens = append(tokens, expression[pos:pos+size])
		}
		pos += size
	}
	flush()
	return tokens, nil
}

// scanQuoted reads the quoted span starting at pos. The returned token keeps
// its surrounding quotes; escapes inside it are consumed.
func scanQuoted(expression string, pos int) (string, int, error) {
	quote := expression[pos]
	var sb strings.Builder
	sb.WriteByte(quote)
	for i := pos + 1; i < len(expression); i++ {
		c := expression[i]
		switch {
		case c == '\\' && i+1 < len(expression):
			i++
			sb.WriteByte(expression[i])
		case c == quote:
			sb.WriteByte(quote)
			return sb.String(), i + 1, nil
		default:
			sb.WriteByte(c)
		}
	}
	return "", 0, syntaxError(ErrUnterminatedString, "starting at position %d", pos)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// continuesDecimal reports whether a '.' sits between an all-digit word and
// another digit.
func continuesDecimal(word, rest string) bool {
	if word == "" || rest == "" || rest[0] < '0' || rest[0] > '9' {
		return false
	}
	for i := 0; i < len(word); i++ {
		if word[i] < '0' || word[i] > '9' {
			return false
		}
	}
	return true
}

// evaluator carries the two stacks of one reduction.
type evaluator struct {
	inv      Invocation
	resolver Resolver
	ops      []string
	values   []Value
}

// Evaluate reduces an expression to a single Value using the default
// resolver.
func Evaluate(inv Invocation, expression string) (Value, error) {
	return defaultRenderer.Evaluate(inv, expression)
}

func evaluateExpression(inv Invocation, resolver Resolver, expression string) (Value, error) {
	tokens, err := Tokenize(expression)
	if err != nil {
		return Nil, err
	}
	return evaluateTokens(inv, resolver, tokens)
}

func evaluateTokens(inv Invocation, resolver Resolver, tokens []string) (Value, error) {
	ev := &evaluator{
		inv:      inv,
		resolver: resolver,
		ops:      make([]string, 0, len(tokens)/2+1),
		values:   make([]Value, 0, len(tokens)/2+1),
	}
	for _, tok := range tokens {
		if err := ev.push(tok); err != nil {
			return Nil, err
		}
	}
	return ev.drain()
}

func (ev *evaluator) push(tok string) error {
	info, isOp := operatorTable[tok]
	if !isOp {
		ev.values = append(ev.values, ev.resolver.Resolve(ev.inv, tok))
		return nil
	}

	switch {
	case tok == "(":
		ev.ops = append(ev.ops, tok)
		return nil
	case tok == ")":
		for len(ev.ops) > 0 && ev.top() != "(" {
			if err := ev.apply(); err != nil {
				return err
			}
		}
		if len(ev.ops) == 0 {
			return evalError(ErrUnbalanced, "unmatched ')' in expression")
		}
		ev.ops = ev.ops[:len(ev.ops)-1]
		return nil
	case info.arity == 1:
		// A prefix operator has no left operand to claim, so it never
		// reduces what is already stacked.
		ev.ops = append(ev.ops, tok)
		return nil
	}

	for len(ev.ops) > 0 {
		top := ev.top()
		if top == "(" || operatorTable[top].priority < info.priority {
			break
		}
		if err := ev.apply(); err != nil {
			return err
		}
	}
	ev.ops = append(ev.ops, tok)
	return nil
}

func (ev *evaluator) drain() (Value, error) {
	for len(ev.ops) > 0 {
		if ev.top() == "(" {
			return Nil, evalError(ErrUnbalanced, "unclosed '(' in expression")
		}
		if err := ev.apply(); err != nil {
			return Nil, err
		}
	}
	if len(ev.values) != 1 {
		return Nil, evalError(ErrInvalidExpression, "expression left %d values", len(ev.values))
	}
	return ev.values[0], nil
}

func (ev *evaluator) top() string {
	return ev.ops[len(ev.ops)-1]
}

// apply pops the top operator and its operands and pushes the result.
func (ev *evaluator) apply() error {
	op := ev.top()
	ev.ops = ev.ops[:len(ev.ops)-1]
	info := operatorTable[op]

	if len(ev.values) < info.arity {
		if info.arity == 1 {
			return evalError(ErrArity, "%q needs an operand", op)
		}
		return evalError(ErrArity, "%q needs two operands, got %d", op, len(ev.values))
	}

	var (
		result Value
		err    error
	)
	n := len(ev.values)
	if info.arity == 1 {
		result, err = info.unary(ev.values[n-1])
		ev.values = ev.values[:n-1]
	} else {
		result, err = info.binary(ev.values[n-2], ev.values[n-1])
		ev.values = ev.values[:n-2]
	}
	if err != nil {
		return err
	}
	ev.values = append(ev.values, result)
	return nil
}
