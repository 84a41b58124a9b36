package cubescript

import (
	"strconv"
	"strings"

	"github.com/OctaForge/libcubescript-sub000/internal/strpool"
)

// Tag identifies the payload kind carried by a Value.
type Tag uint8

// The six value tags of the language's dynamic type system.
const (
	TagNull Tag = iota
	TagInt
	TagFloat
	TagString
	TagCode
	TagIdent
)

func (t Tag) String() string {
	switch t {
	case TagNull:
		return "null"
	case TagInt:
		return "int"
	case TagFloat:
		return "float"
	case TagString:
		return "string"
	case TagCode:
		return "code"
	case TagIdent:
		return "ident"
	default:
		return "invalid"
	}
}

// IntValue and FloatValue fix the implementation-chosen widths that
// spec's §9 open question leaves to the implementer: 64-bit signed
// integer and 64-bit float, since nothing in this embedding demands
// narrower words and the 24-bit inline-literal limit in the bytecode
// format only requires "wider than 24 bits".
type (
	IntValue   = int64
	FloatValue = float64
)

// Value is a tagged union over null, integer, float, interned string,
// bytecode, and ident-pointer payloads. The zero Value is a valid null.
//
// A Value owns a reference on its Code or *strpool.Str payload (if any);
// moving a Value (via Take) transfers that ownership and leaves the
// source Null, mirroring the refcounted-handle discipline the bytecode
// heap and string pool both depend on.
type Value struct {
	tag Tag
	i   int64
	f   float64
	s   *strpool.Str
	c   *Code
	id  Ident
}

// Null is the zero value, provided for readability at call sites.
var Null = Value{}

// IntVal constructs an INT value.
func IntVal(i IntValue) Value { return Value{tag: TagInt, i: i} }

// FloatVal constructs a FLOAT value.
func FloatVal(f FloatValue) Value { return Value{tag: TagFloat, f: f} }

// StringVal constructs a STRING value, taking a pool reference on s.
func StringVal(pool *strpool.Pool, bytes string) Value {
	return Value{tag: TagString, s: pool.Intern(bytes)}
}

// stringValFromStr wraps an already-referenced *strpool.Str without
// taking a further reference; callers transfer ownership of the ref.
func stringValFromStr(s *strpool.Str) Value { return Value{tag: TagString, s: s} }

// CodeVal constructs a CODE value, taking a ref on c.
func CodeVal(c *Code) Value {
	if c != nil {
		c.Ref()
	}
	return Value{tag: TagCode, c: c}
}

// IdentVal constructs a non-owning IDENT value.
func IdentVal(id Ident) Value { return Value{tag: TagIdent, id: id} }

// Tag reports v's current tag.
func (v Value) Tag() Tag { return v.tag }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.tag == TagNull }

// Take moves v's payload into the return value and resets v to Null,
// transferring ownership of any owned Code/string reference.
func (v *Value) Take() Value {
	out := *v
	*v = Value{}
	return out
}

// Release drops v's owned reference (if any) and resets it to Null.
func (v *Value) Release(pool *strpool.Pool) {
	switch v.tag {
	case TagString:
		pool.Unref(v.s)
	case TagCode:
		v.c.Unref()
	}
	*v = Value{}
}

// Clone returns an independent copy of v, taking a fresh reference on
// any owned payload.
func (v Value) Clone() Value {
	switch v.tag {
	case TagString:
		if v.s != nil {
			v.s.Pool().Ref(v.s)
		}
	case TagCode:
		if v.c != nil {
			v.c.Ref()
		}
	}
	return v
}

// --- coercion: non-destructive ---

// AsInt parses v as an integer without mutating it.
func (v Value) AsInt() IntValue {
	switch v.tag {
	case TagInt:
		return v.i
	case TagFloat:
		return IntValue(v.f)
	case TagString:
		n, _, _ := parseInt(v.s.Bytes())
		return n
	case TagIdent, TagNull:
		return 0
	default:
		return 0
	}
}

// AsFloat parses v as a float without mutating it.
func (v Value) AsFloat() FloatValue {
	switch v.tag {
	case TagInt:
		return FloatValue(v.i)
	case TagFloat:
		return v.f
	case TagString:
		f, _, _ := parseFloat(v.s.Bytes())
		return f
	default:
		return 0
	}
}

// AsString renders v as a string without mutating it. The returned
// string is not interned; callers that need an owned STRING value
// should use ForceString or StringVal.
func (v Value) AsString() string {
	switch v.tag {
	case TagNull:
		return ""
	case TagInt:
		return strconv.FormatInt(v.i, 10)
	case TagFloat:
		return formatFloat(v.f)
	case TagString:
		return v.s.Bytes()
	case TagCode:
		return v.c.Source()
	case TagIdent:
		if v.id != nil {
			return v.id.Name()
		}
		return ""
	default:
		return ""
	}
}

// AsBool implements the §4.2 boolean coercion: null is false; int/float
// are nonzero; a string is true if it parses as a whole-string nonzero
// number, else true iff it is nonempty and not a zero literal.
func (v Value) AsBool() bool {
	switch v.tag {
	case TagNull:
		return false
	case TagInt:
		return v.i != 0
	case TagFloat:
		return v.f != 0
	case TagString:
		s := v.s.Bytes()
		if s == "" {
			return false
		}
		if n, rest, ok := parseInt(s); ok && strings.TrimSpace(rest) == "" {
			return n != 0
		}
		if f, rest, ok := parseFloat(s); ok && strings.TrimSpace(rest) == "" {
			return f != 0
		}
		return true
	default:
		return true
	}
}

// --- coercion: destructive ---

// ForceInt converts v in place to TagInt and returns the new payload.
func (v *Value) ForceInt() IntValue {
	n := v.AsInt()
	v.Release(v.s.Pool())
	*v = IntVal(n)
	return n
}

// ForceFloat converts v in place to TagFloat and returns the new payload.
func (v *Value) ForceFloat() FloatValue {
	f := v.AsFloat()
	v.Release(v.s.Pool())
	*v = FloatVal(f)
	return f
}

// ForceString converts v in place to an interned TagString and returns
// the new payload.
func (v *Value) ForceString(pool *strpool.Pool) string {
	s := v.AsString()
	v.Release(pool)
	*v = StringVal(pool, s)
	return s
}

// formatFloat implements §6.3's numeric format: one decimal place if the
// value is integral, else a 7-significant-digit representation.
func formatFloat(f FloatValue) string {
	if f == float64(int64(f)) {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strconv.FormatFloat(f, 'g', 7, 64)
}
