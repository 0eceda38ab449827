package marshal

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/retroenv/pycgodisasm/internal/pyver"
)

// Kind identifies the variant of a decoded marshal value.
type Kind int

// Value kinds.
const (
	KindNull Kind = iota
	KindNone
	KindStopIteration
	KindEllipsis
	KindBool
	KindInt
	KindLong
	KindFloat
	KindComplex
	KindBytes
	KindString
	KindTuple
	KindList
	KindSet
	KindDict
	KindCode
)

// Value is a single decoded marshal value.
type Value interface {
	Kind() Kind
}

// Null is the internal null sentinel, only valid as a dict terminator.
type Null struct{}

// None is the Python None singleton.
type None struct{}

// StopIteration is the StopIteration sentinel.
type StopIteration struct{}

// Ellipsis is the Ellipsis singleton.
type Ellipsis struct{}

// Bool is a boolean value.
type Bool bool

// Int is a fixed width integer, covering both the 32 and 64 bit tags.
type Int int64

// Long is an arbitrary precision integer.
type Long struct {
	Value *big.Int
}

// Float is a 64 bit IEEE float.
type Float float64

// Complex is a complex number value.
type Complex complex128

// Bytes is a raw byte string.
type Bytes []byte

// String is a unicode string. The ascii and short-ascii tags are length
// optimized encodings of the same semantic value.
type String string

// Tuple is an immutable ordered sequence.
type Tuple struct {
	Items []Value
}

// List is a mutable ordered sequence. Mutability is a semantic property
// of the source format; consumers must not rely on identity semantics.
type List struct {
	Items []Value
}

// Set is a set of values. Insertion order is preserved from the stream
// but carries no meaning.
type Set struct {
	Items  []Value
	Frozen bool
}

// DictEntry is a single key/value pair of a Dict.
type DictEntry struct {
	Key   Value
	Value Value
}

// Dict is a mapping, kept as insertion ordered entries since marshal
// keys can be of any value type.
type Dict struct {
	Entries []DictEntry
}

// Code is one compiled function or module body: bytecode, constant pool,
// name pools and line metadata. It is constructed once by the decoder
// and immutable afterwards.
type Code struct {
	ArgCount        int
	PosOnlyArgCount int // 3.8+
	KwOnlyArgCount  int
	NLocals         int
	StackSize       int
	Flags           int

	Code     []byte // raw bytecode
	Consts   *Tuple
	Names    *Tuple
	VarNames *Tuple
	FreeVars *Tuple
	CellVars *Tuple

	Filename    string
	Name        string
	FirstLineNo int
	LNoTab      []byte // delta compressed offset to line table

	Version pyver.Version
}

func (Null) Kind() Kind          { return KindNull }
func (None) Kind() Kind          { return KindNone }
func (StopIteration) Kind() Kind { return KindStopIteration }
func (Ellipsis) Kind() Kind      { return KindEllipsis }
func (Bool) Kind() Kind          { return KindBool }
func (Int) Kind() Kind           { return KindInt }
func (*Long) Kind() Kind         { return KindLong }
func (Float) Kind() Kind         { return KindFloat }
func (Complex) Kind() Kind       { return KindComplex }
func (Bytes) Kind() Kind         { return KindBytes }
func (String) Kind() Kind        { return KindString }
func (*Tuple) Kind() Kind        { return KindTuple }
func (*List) Kind() Kind         { return KindList }
func (*Set) Kind() Kind          { return KindSet }
func (*Dict) Kind() Kind         { return KindDict }
func (*Code) Kind() Kind         { return KindCode }

// StringItems returns the string items of the tuple, used for the name
// pools of a code object. Non-string items render through Repr.
func (t *Tuple) StringItems() []string {
	if t == nil {
		return nil
	}
	items := make([]string, 0, len(t.Items))
	for _, item := range t.Items {
		if s, ok := item.(String); ok {
			items = append(items, string(s))
		} else {
			items = append(items, Repr(item))
		}
	}
	return items
}

// Repr returns the canonical textual form of a value, following Python
// repr conventions.
func Repr(v Value) string {
	switch val := v.(type) {
	case nil, Null:
		return "NULL"
	case None:
		return "None"
	case StopIteration:
		return "StopIteration"
	case Ellipsis:
		return "Ellipsis"
	case Bool:
		if val {
			return "True"
		}
		return "False"
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case *Long:
		return val.Value.String()
	case Float:
		return formatFloat(float64(val))
	case Complex:
		return formatComplex(complex128(val))
	case Bytes:
		return "b" + pyQuote(string(val))
	case String:
		return pyQuote(string(val))
	case *Tuple:
		return reprSequence("(", val.Items, ")", len(val.Items) == 1)
	case *List:
		return reprSequence("[", val.Items, "]", false)
	case *Set:
		if val.Frozen {
			return "frozenset(" + reprSequence("{", val.Items, "}", false) + ")"
		}
		return reprSequence("{", val.Items, "}", false)
	case *Dict:
		var sb strings.Builder
		sb.WriteByte('{')
		for i, entry := range val.Entries {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(Repr(entry.Key))
			sb.WriteString(": ")
			sb.WriteString(Repr(entry.Value))
		}
		sb.WriteByte('}')
		return sb.String()
	case *Code:
		return fmt.Sprintf("<code object %s, file \"%s\", line %d>",
			val.Name, val.Filename, val.FirstLineNo)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func reprSequence(opening string, items []Value, closing string, trailingComma bool) string {
	var sb strings.Builder
	sb.WriteString(opening)
	for i, item := range items {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(Repr(item))
	}
	if trailingComma {
		sb.WriteByte(',')
	}
	sb.WriteString(closing)
	return sb.String()
}

// formatFloat renders a float the way Python repr does, with ".0"
// appended to integral values.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") && !strings.Contains(s, "inf") &&
		!strings.Contains(s, "NaN") {
		s += ".0"
	}
	return s
}

func formatComplex(c complex128) string {
	re := real(c)
	im := imag(c)
	if re == 0 {
		return formatFloat(im) + "j"
	}
	sign := "+"
	if im < 0 {
		sign = "-"
		im = -im
	}
	return "(" + formatFloat(re) + sign + formatFloat(im) + "j)"
}

// pyQuote quotes a string with single quotes in Python repr style.
func pyQuote(s string) string {
	var sb strings.Builder
	sb.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'':
			sb.WriteString("\\'")
		case '\\':
			sb.WriteString("\\\\")
		case '\n':
			sb.WriteString("\\n")
		case '\r':
			sb.WriteString("\\r")
		case '\t':
			sb.WriteString("\\t")
		default:
			if r < 0x20 || r == 0x7f {
				sb.WriteString(fmt.Sprintf("\\x%02x", r))
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('\'')
	return sb.String()
}
