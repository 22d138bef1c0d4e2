package commandlang

import (
	"math"
)

// operatorInfo describes one entry of the operator table.
type operatorInfo struct {
	priority int
	arity    int // 0 for the structural parentheses
	unary    func(x Value) (Value, error)
	binary   func(x, y Value) (Value, error)
}

// operatorTable maps each operator token to its priority and semantics.
// Higher priority binds tighter.
var operatorTable = map[string]operatorInfo{
	"(":   {priority: -1},
	")":   {priority: -1},
	"=":   {priority: 0, arity: 2, binary: equals},
	"is":  {priority: 0, arity: 2, binary: identical},
	"or":  {priority: 10, arity: 2, binary: logicalOr},
	"+":   {priority: 10, arity: 2, binary: add},
	"-":   {priority: 10, arity: 2, binary: subtract},
	"and": {priority: 20, arity: 2, binary: logicalAnd},
	"*":   {priority: 20, arity: 2, binary: multiply},
	"/":   {priority: 20, arity: 2, binary: divide},
	"^":   {priority: 30, arity: 2, binary: power},
	"not": {priority: 30, arity: 1, unary: logicalNot},
	":":   {priority: 40, arity: 2, binary: getAttribute},
}

// IsOperator reports whether token is a CommandLang operator.
func IsOperator(token string) bool {
	_, ok := operatorTable[token]
	return ok
}

// equals implements '=': 1 when both sides hold the same kind and payload.
func equals(x, y Value) (Value, error) {
	return Bool(x.Equal(y)), nil
}

// identical implements 'is'. Objects must be the very same object; other
// kinds fall back to payload equality.
func identical(x, y Value) (Value, error) {
	if x.kind == ValueObject && y.kind == ValueObject {
		return Bool(sameObject(x.obj, y.obj)), nil
	}
	return Bool(x.Equal(y)), nil
}

func logicalOr(x, y Value) (Value, error) {
	return Bool(x.Truthy() || y.Truthy()), nil
}

func logicalAnd(x, y Value) (Value, error) {
	return Bool(x.Truthy() && y.Truthy()), nil
}

func logicalNot(x Value) (Value, error) {
	return Bool(!x.Truthy()), nil
}

// add sums two numbers, or concatenates when either side is a string.
func add(x, y Value) (Value, error) {
	if x.kind == ValueString || y.kind == ValueString {
		return String(x.String() + y.String()), nil
	}
	l, r, err := numericOperands("+", x, y)
	if err != nil {
		return Nil, err
	}
	return Number(l + r), nil
}

func subtract(x, y Value) (Value, error) {
	l, r, err := numericOperands("-", x, y)
	if err != nil {
		return Nil, err
	}
	return Number(l - r), nil
}

func multiply(x, y Value) (Value, error) {
	l, r, err := numericOperands("*", x, y)
	if err != nil {
		return Nil, err
	}
	return Number(l * r), nil
}

func divide(x, y Value) (Value, error) {
	l, r, err := numericOperands("/", x, y)
	if err != nil {
		return Nil, err
	}
	if r == 0 {
		return Nil, evalError(ErrDivideByZero, "%s / %s", x.String(), y.String())
	}
	return Number(l / r), nil
}

func power(x, y Value) (Value, error) {
	l, r, err := numericOperands("^", x, y)
	if err != nil {
		return Nil, err
	}
	return Number(math.Pow(l, r)), nil
}

func numericOperands(op string, x, y Value) (float64, float64, error) {
	l, lok := x.Num()
	r, rok := y.Num()
	if !lok || !rok {
		return 0, 0, evalError(ErrUnsupportedOperand, "cannot apply %q to %s and %s", op, x.kind, y.kind)
	}
	return l, r, nil
}

// getAttribute implements ':'. The left side must be an object and the
// right side the name of one of the known fields. Colours come back in
// their display form rather than as raw numbers.
func getAttribute(x, y Value) (Value, error) {
	name, ok := y.Str()
	if !ok {
		return Nil, evalError(ErrInvalidAttribute, "attribute name must be a string, got %s", y.kind)
	}
	field, ok := ParseField(name)
	if !ok {
		return Nil, evalError(ErrInvalidAttribute, "unknown attribute %q", name)
	}
	obj, ok := x.Obj()
	if !ok {
		return Nil, evalError(ErrInvalidAttribute, "cannot access %q of %s value", name, x.kind)
	}
	raw, ok := obj.Field(field)
	if !ok {
		return Nil, evalError(ErrInvalidAttribute, "%v has no attribute %q", obj, name)
	}
	if field == FieldColour {
		return colourValue(raw), nil
	}
	return valueOf(raw), nil
}
