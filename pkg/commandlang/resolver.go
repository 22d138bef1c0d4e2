package commandlang

import (
	"strconv"
	"unicode"
	"unicode/utf8"
)

// Field names an attribute reachable through the ':' operator or from the
// invocation root. The set is closed; anything else is an invalid attribute.
type Field string

const (
	FieldAuthor        Field = "author"
	FieldRole          Field = "role"
	FieldChannel       Field = "channel"
	FieldCategory      Field = "category"
	FieldName          Field = "name"
	FieldDiscriminator Field = "discriminator"
	FieldColour        Field = "colour"
	FieldID            Field = "id"
	FieldNick          Field = "nick"
	FieldDisplayName   Field = "display_name"
)

var knownFields = map[string]Field{
	"author":        FieldAuthor,
	"role":          FieldRole,
	"channel":       FieldChannel,
	"category":      FieldCategory,
	"name":          FieldName,
	"discriminator": FieldDiscriminator,
	"colour":        FieldColour,
	"color":         FieldColour,
	"id":            FieldID,
	"nick":          FieldNick,
	"display_name":  FieldDisplayName,
}

// ParseField maps an attribute name onto its Field. "color" is accepted as an
// alias of "colour".
func ParseField(name string) (Field, bool) {
	f, ok := knownFields[name]
	return f, ok
}

// Object is implemented by every context value that exposes attributes.
// Field returns false when the object does not carry the attribute.
type Object interface {
	Field(f Field) (interface{}, bool)
}

// Invocation is the caller-owned context of a render pass. Its root fields
// are author, role, channel and category.
type Invocation interface {
	Object
}

// Resolver turns an operand token into a Value.
type Resolver interface {
	Resolve(inv Invocation, token string) Value
}

// ContextResolver is the default Resolver. It understands numeric literals,
// quoted strings and the short mnemonics below; every other token is
// returned unchanged as a string.
//
//	a, author    invoking user
//	r, role      invoking user's top role
//	ch, channel  current channel
//	cat, category  current channel's category
//	n            "name"
//	d, disc      "discriminator"
//	c            "colour"
//	display      "display_name"
type ContextResolver struct{}

func (ContextResolver) Resolve(inv Invocation, token string) Value {
	if v, ok := parseNumber(token); ok {
		return v
	}
	switch token {
	case "a", "author":
		return rootField(inv, FieldAuthor)
	case "r", "role":
		return rootField(inv, FieldRole)
	case "ch", "channel":
		return rootField(inv, FieldChannel)
	case "cat", "category":
		return rootField(inv, FieldCategory)
	case "n":
		return String(string(FieldName))
	case "d", "disc":
		return String(string(FieldDiscriminator))
	case "c":
		return String(string(FieldColour))
	case "display":
		return String(string(FieldDisplayName))
	}
	if s, ok := unquote(token); ok {
		return String(s)
	}
	return String(token)
}

// LiteralResolver ignores the invocation entirely: numbers and quoted
// strings are decoded, every other token is its own string. It backs
// renders that run without a user, such as scheduled events.
type LiteralResolver struct{}

func (LiteralResolver) Resolve(_ Invocation, token string) Value {
	if v, ok := parseNumber(token); ok {
		return v
	}
	if s, ok := unquote(token); ok {
		return String(s)
	}
	return String(token)
}

func rootField(inv Invocation, f Field) Value {
	if inv == nil {
		return Nil
	}
	raw, ok := inv.Field(f)
	if !ok {
		return Nil
	}
	return valueOf(raw)
}

// parseNumber accepts anything strconv.ParseFloat accepts except the
// spelled-out forms (inf, nan), which stay ordinary words. Integer literals
// too large for a float64 stay exact, matching how valueOf hands out IDs.
func parseNumber(token string) (Value, bool) {
	if token == "" {
		return Nil, false
	}
	r, _ := utf8.DecodeRuneInString(token)
	if unicode.IsLetter(r) {
		return Nil, false
	}
	if n, err := strconv.ParseUint(token, 10, 64); err == nil && n > maxExactInt {
		return String(strconv.FormatUint(n, 10)), true
	}
	f, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return Nil, false
	}
	return Number(f), true
}

// unquote strips one pair of matching quotes wrapping the whole token.
func unquote(token string) (string, bool) {
	if len(token) < 2 {
		return "", false
	}
	q := token[0]
	if (q != '"' && q != '\'') || token[len(token)-1] != q {
		return "", false
	}
	return token[1 : len(token)-1], true
}
