package commandlang

import (
	"fmt"
	"math"
	"strconv"
)

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	ValueNil ValueKind = iota
	ValueNumber
	ValueString
	ValueObject
)

func (k ValueKind) String() string {
	switch k {
	case ValueNil:
		return "nil"
	case ValueNumber:
		return "number"
	case ValueString:
		return "string"
	case ValueObject:
		return "object"
	default:
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
}

// Value is an operand of the expression evaluator. Booleans are carried as
// the numbers 1 and 0.
type Value struct {
	kind ValueKind
	num  float64
	str  string
	obj  Object
}

// Nil is the zero Value. It is produced when a context field is absent.
var Nil = Value{}

// Number returns a numeric Value.
func Number(f float64) Value { return Value{kind: ValueNumber, num: f} }

// String returns a string Value.
func String(s string) Value { return Value{kind: ValueString, str: s} }

// ObjectValue wraps a context object. A nil object yields Nil.
func ObjectValue(o Object) Value {
	if o == nil {
		return Nil
	}
	return Value{kind: ValueObject, obj: o}
}

// Bool returns Number(1) for true and Number(0) for false.
func Bool(b bool) Value {
	if b {
		return Number(1)
	}
	return Number(0)
}

func (v Value) Kind() ValueKind { return v.kind }

// Num returns the numeric payload and whether v is a number.
func (v Value) Num() (float64, bool) { return v.num, v.kind == ValueNumber }

// Str returns the string payload and whether v is a string.
func (v Value) Str() (string, bool) { return v.str, v.kind == ValueString }

// Obj returns the object payload and whether v is an object.
func (v Value) Obj() (Object, bool) { return v.obj, v.kind == ValueObject }

// Truthy reports whether v counts as true in a condition.
func (v Value) Truthy() bool {
	switch v.kind {
	case ValueNumber:
		return v.num != 0 && !math.IsNaN(v.num)
	case ValueString:
		return v.str != ""
	case ValueObject:
		return true
	default:
		return false
	}
}

// String renders v the way it appears in template output.
func (v Value) String() string {
	switch v.kind {
	case ValueNumber:
		return formatNumber(v.num)
	case ValueString:
		return v.str
	case ValueObject:
		return fmt.Sprint(v.obj)
	default:
		return ""
	}
}

// GoString makes test failures readable.
func (v Value) GoString() string {
	switch v.kind {
	case ValueNumber:
		return "Number(" + formatNumber(v.num) + ")"
	case ValueString:
		return "String(" + strconv.Quote(v.str) + ")"
	case ValueObject:
		return fmt.Sprintf("Object(%v)", v.obj)
	default:
		return "Nil"
	}
}

// Equal reports value equality for the '=' operator. Objects compare by
// identity, numbers and strings by payload. Values of different kinds are
// never equal.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case ValueNumber:
		return v.num == other.num
	case ValueString:
		return v.str == other.str
	case ValueObject:
		return sameObject(v.obj, other.obj)
	default:
		return true
	}
}

func sameObject(a, b Object) (same bool) {
	defer func() {
		// Objects backed by uncomparable types (maps, slices) are never the same.
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}

func formatNumber(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// valueOf converts a field value handed out by an Object into a Value.
func valueOf(raw interface{}) Value {
	switch v := raw.(type) {
	case nil:
		return Nil
	case Value:
		return v
	case Object:
		return ObjectValue(v)
	case string:
		return String(v)
	case bool:
		return Bool(v)
	case float64:
		return Number(v)
	case float32:
		return Number(float64(v))
	case int:
		return intValue(int64(v))
	case int32:
		return Number(float64(v))
	case int64:
		return intValue(v)
	case uint:
		return uintValue(uint64(v))
	case uint32:
		return Number(float64(v))
	case uint64:
		return uintValue(v)
	case fmt.Stringer:
		return String(v.String())
	default:
		return String(fmt.Sprint(v))
	}
}

// maxExactInt is the largest integer a float64 holds without rounding.
const maxExactInt = 1 << 53

// intValue keeps integers a float64 cannot hold exactly, such as 64-bit chat
// IDs, as their decimal string.
func intValue(n int64) Value {
	if n > maxExactInt || n < -maxExactInt {
		return String(strconv.FormatInt(n, 10))
	}
	return Number(float64(n))
}

func uintValue(n uint64) Value {
	if n > maxExactInt {
		return String(strconv.FormatUint(n, 10))
	}
	return Number(float64(n))
}

// Colour is a 24-bit RGB colour. Its display form is the lowercase hex
// triplet used by chat clients, e.g. "#1abc9c".
type Colour uint32

func (c Colour) String() string {
	return fmt.Sprintf("#%06x", uint32(c)&0xffffff)
}

// colourValue converts a raw colour field into its canonical display string.
func colourValue(raw interface{}) Value {
	switch v := raw.(type) {
	case nil:
		return Nil
	case Colour:
		return String(v.String())
	case int:
		return String(Colour(v).String())
	case int64:
		return String(Colour(v).String())
	case uint32:
		return String(Colour(v).String())
	case uint64:
		return String(Colour(v).String())
	case float64:
		return String(Colour(uint32(v)).String())
	case fmt.Stringer:
		return String(v.String())
	default:
		return String(fmt.Sprint(v))
	}
}
