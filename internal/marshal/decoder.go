// Package marshal decodes the binary serialization format that embeds a
// value graph, including code objects, inside a compiled artifact.
package marshal

import (
	"math"
	"strconv"

	"github.com/retroenv/pycgodisasm/internal/pyver"
)

// Type tags of the serialization format. The top bit of an incoming tag
// byte is the reference flag and is masked off before dispatch.
const (
	typeNull          = '0'
	typeNone          = 'N'
	typeFalse         = 'F'
	typeTrue          = 'T'
	typeStopIter      = 'S'
	typeEllipsis      = '.'
	typeInt           = 'i'
	typeInt64         = 'I'
	typeFloat         = 'f'
	typeBinaryFloat   = 'g'
	typeComplex       = 'x'
	typeBinaryComplex = 'y'
	typeLong          = 'l'
	typeString        = 's'
	typeInterned      = 't'
	typeStringRef     = 'R'
	typeRef           = 'r'
	typeTuple         = '('
	typeList          = '['
	typeDict          = '{'
	typeCode          = 'c'
	typeUnicode       = 'u'
	typeSet           = '<'
	typeFrozenSet     = '>'

	typeAscii              = 'a'
	typeAsciiInterned      = 'A'
	typeSmallTuple         = ')'
	typeShortAscii         = 'z'
	typeShortAsciiInterned = 'Z'

	flagRef = 0x80
)

// Decoder decodes a marshal byte stream into a value tree. Each decoder
// owns its own cursor, reference table and intern table; decoding is
// strictly sequential and single pass, later back-references depend on
// earlier registrations having completed.
type Decoder struct {
	cursor  *Cursor
	version pyver.Version

	refs     []Value // reference table, indexed by decode order
	interned []Bytes // interning table for the interned string tags
}

// NewDecoder returns a decoder for the given buffer, which has to be
// positioned past any container header.
func NewDecoder(data []byte, version pyver.Version) *Decoder {
	return &Decoder{
		cursor:  NewCursor(data),
		version: version,
	}
}

// Decode decodes a single value graph from the buffer.
func Decode(data []byte, version pyver.Version) (Value, error) {
	return NewDecoder(data, version).ReadValue()
}

// ReadValue decodes the next value from the stream.
func (d *Decoder) ReadValue() (Value, error) {
	tagOffset := d.cursor.Pos()
	tag, err := d.cursor.ReadU8()
	if err != nil {
		return nil, err
	}

	referenceable := tag&flagRef != 0
	tag &^= flagRef

	switch tag {
	case typeNull:
		return Null{}, nil
	case typeNone:
		return None{}, nil
	case typeStopIter:
		return StopIteration{}, nil
	case typeEllipsis:
		return Ellipsis{}, nil
	case typeFalse:
		return Bool(false), nil
	case typeTrue:
		return Bool(true), nil

	case typeInt:
		v, err := d.cursor.ReadI32()
		if err != nil {
			return nil, err
		}
		return d.register(Int(v), referenceable), nil

	case typeInt64:
		v, err := d.cursor.ReadI64()
		if err != nil {
			return nil, err
		}
		return d.register(Int(v), referenceable), nil

	case typeLong:
		v, err := readLong(d.cursor)
		if err != nil {
			return nil, err
		}
		return d.register(&Long{Value: v}, referenceable), nil

	case typeFloat:
		v, err := d.readFloatText()
		if err != nil {
			return nil, err
		}
		return d.register(Float(v), referenceable), nil

	case typeBinaryFloat:
		v, err := d.readFloatBinary()
		if err != nil {
			return nil, err
		}
		return d.register(Float(v), referenceable), nil

	case typeComplex:
		re, err := d.readFloatText()
		if err != nil {
			return nil, err
		}
		im, err := d.readFloatText()
		if err != nil {
			return nil, err
		}
		return d.register(Complex(complex(re, im)), referenceable), nil

	case typeBinaryComplex:
		re, err := d.readFloatBinary()
		if err != nil {
			return nil, err
		}
		im, err := d.readFloatBinary()
		if err != nil {
			return nil, err
		}
		return d.register(Complex(complex(re, im)), referenceable), nil

	case typeString, typeInterned:
		b, err := d.readSized(false)
		if err != nil {
			return nil, err
		}
		val := Bytes(b)
		if tag == typeInterned {
			d.interned = append(d.interned, val)
		}
		return d.register(val, referenceable), nil

	case typeStringRef:
		return d.readStringRef()

	case typeUnicode, typeAscii, typeAsciiInterned:
		b, err := d.readSized(false)
		if err != nil {
			return nil, err
		}
		return d.register(String(b), referenceable), nil

	case typeShortAscii, typeShortAsciiInterned:
		b, err := d.readSized(true)
		if err != nil {
			return nil, err
		}
		return d.register(String(b), referenceable), nil

	case typeTuple:
		return d.readTuple(referenceable, false)
	case typeSmallTuple:
		return d.readTuple(referenceable, true)
	case typeList:
		return d.readList(referenceable)
	case typeSet:
		return d.readSet(referenceable, false)
	case typeFrozenSet:
		return d.readSet(referenceable, true)
	case typeDict:
		return d.readDict(referenceable)
	case typeCode:
		return d.readCode(referenceable)
	case typeRef:
		return d.readRef()

	default:
		return nil, errOffset(tagOffset, ErrUnknownTypeTag, "tag 0x%02x (%q)", tag, tag)
	}
}

// register appends a fully decoded value to the reference table if the
// incoming tag carried the reference flag.
func (d *Decoder) register(v Value, referenceable bool) Value {
	if referenceable {
		d.refs = append(d.refs, v)
	}
	return v
}

// readCount reads and validates a structural element count. Every
// element needs at least one tag byte, so a count exceeding the
// remaining buffer is malformed and rejected before any allocation.
func (d *Decoder) readCount(what string) (int, error) {
	offset := d.cursor.Pos()
	n, err := d.cursor.ReadI32()
	if err != nil {
		return 0, err
	}
	if n < 0 || int(n) > d.cursor.Remaining() {
		return 0, errOffset(offset, ErrMalformedContainer,
			"%s size %d out of range, %d bytes remaining", what, n, d.cursor.Remaining())
	}
	return int(n), nil
}

// readSized reads a length prefixed byte sequence. Short variants use a
// single length byte instead of a 32 bit count.
func (d *Decoder) readSized(short bool) ([]byte, error) {
	var n int
	if short {
		b, err := d.cursor.ReadU8()
		if err != nil {
			return nil, err
		}
		n = int(b)
	} else {
		count, err := d.readCount("string")
		if err != nil {
			return nil, err
		}
		n = count
	}
	return d.cursor.ReadBytes(n)
}

// readFloatText reads the legacy ASCII decimal float encoding.
func (d *Decoder) readFloatText() (float64, error) {
	n, err := d.cursor.ReadU8()
	if err != nil {
		return 0, err
	}
	offset := d.cursor.Pos()
	b, err := d.cursor.ReadBytes(int(n))
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return 0, errOffset(offset, ErrMalformedContainer, "invalid float literal %q", b)
	}
	return v, nil
}

func (d *Decoder) readFloatBinary() (float64, error) {
	bits, err := d.cursor.ReadU64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

func (d *Decoder) readStringRef() (Value, error) {
	offset := d.cursor.Pos()
	n, err := d.cursor.ReadI32()
	if err != nil {
		return nil, err
	}
	if n < 0 || int(n) >= len(d.interned) {
		return nil, errOffset(offset, ErrDanglingReference,
			"string reference %d, %d interned strings", n, len(d.interned))
	}
	return d.interned[n], nil
}

func (d *Decoder) readRef() (Value, error) {
	offset := d.cursor.Pos()
	n, err := d.cursor.ReadI32()
	if err != nil {
		return nil, err
	}
	if n < 0 || int(n) >= len(d.refs) {
		return nil, errOffset(offset, ErrDanglingReference,
			"reference %d, %d registered values", n, len(d.refs))
	}
	return d.refs[n], nil
}

// readTuple decodes a tuple. The container is registered in the
// reference table before its children are decoded, so a tuple can
// contain a back-reference to itself.
func (d *Decoder) readTuple(referenceable, small bool) (Value, error) {
	var n int
	if small {
		b, err := d.cursor.ReadU8()
		if err != nil {
			return nil, err
		}
		n = int(b)
	} else {
		count, err := d.readCount("tuple")
		if err != nil {
			return nil, err
		}
		n = count
	}

	tuple := &Tuple{Items: make([]Value, n)}
	d.register(tuple, referenceable)
	for i := range tuple.Items {
		item, err := d.ReadValue()
		if err != nil {
			return nil, err
		}
		tuple.Items[i] = item
	}
	return tuple, nil
}

func (d *Decoder) readList(referenceable bool) (Value, error) {
	n, err := d.readCount("list")
	if err != nil {
		return nil, err
	}

	list := &List{Items: make([]Value, n)}
	d.register(list, referenceable)
	for i := range list.Items {
		item, err := d.ReadValue()
		if err != nil {
			return nil, err
		}
		list.Items[i] = item
	}
	return list, nil
}

func (d *Decoder) readSet(referenceable, frozen bool) (Value, error) {
	n, err := d.readCount("set")
	if err != nil {
		return nil, err
	}

	set := &Set{Items: make([]Value, n), Frozen: frozen}
	d.register(set, referenceable)
	for i := range set.Items {
		item, err := d.ReadValue()
		if err != nil {
			return nil, err
		}
		set.Items[i] = item
	}
	return set, nil
}

// readDict decodes alternating key/value pairs terminated by a null tag
// in key position. A null in value position is malformed.
func (d *Decoder) readDict(referenceable bool) (Value, error) {
	dict := &Dict{}
	d.register(dict, referenceable)

	for {
		key, err := d.ReadValue()
		if err != nil {
			return nil, err
		}
		if key.Kind() == KindNull {
			return dict, nil
		}

		offset := d.cursor.Pos()
		value, err := d.ReadValue()
		if err != nil {
			return nil, err
		}
		if value.Kind() == KindNull {
			return nil, errOffset(offset, ErrMalformedContainer, "null value in dict")
		}
		dict.Entries = append(dict.Entries, DictEntry{Key: key, Value: value})
	}
}

// readCode decodes a code object. The sub-field order is fixed by the
// format version: scalar counts are raw 32 bit values, the remaining
// fields are tagged values.
func (d *Decoder) readCode(referenceable bool) (Value, error) {
	code := &Code{Version: d.version}
	d.register(code, referenceable)

	scalars := []*int{
		&code.ArgCount,
	}
	if d.version.AtLeast(3, 8) {
		scalars = append(scalars, &code.PosOnlyArgCount)
	}
	scalars = append(scalars,
		&code.KwOnlyArgCount,
		&code.NLocals,
		&code.StackSize,
		&code.Flags,
	)
	for _, field := range scalars {
		v, err := d.cursor.ReadU32()
		if err != nil {
			return nil, err
		}
		*field = int(v)
	}

	var err error
	if code.Code, err = d.readCodeBytes("code"); err != nil {
		return nil, err
	}
	if code.Consts, err = d.readCodeTuple("consts"); err != nil {
		return nil, err
	}
	if code.Names, err = d.readCodeTuple("names"); err != nil {
		return nil, err
	}
	if code.VarNames, err = d.readCodeTuple("varnames"); err != nil {
		return nil, err
	}
	if code.FreeVars, err = d.readCodeTuple("freevars"); err != nil {
		return nil, err
	}
	if code.CellVars, err = d.readCodeTuple("cellvars"); err != nil {
		return nil, err
	}
	if code.Filename, err = d.readCodeString("filename"); err != nil {
		return nil, err
	}
	if code.Name, err = d.readCodeString("name"); err != nil {
		return nil, err
	}

	firstLine, err := d.cursor.ReadU32()
	if err != nil {
		return nil, err
	}
	code.FirstLineNo = int(firstLine)

	if code.LNoTab, err = d.readCodeBytes("lnotab"); err != nil {
		return nil, err
	}
	return code, nil
}

func (d *Decoder) readCodeBytes(field string) ([]byte, error) {
	offset := d.cursor.Pos()
	v, err := d.ReadValue()
	if err != nil {
		return nil, err
	}
	switch val := v.(type) {
	case Bytes:
		return val, nil
	case String:
		return []byte(val), nil
	default:
		return nil, errOffset(offset, ErrMalformedContainer,
			"code field %s: expected bytes, got %T", field, v)
	}
}

func (d *Decoder) readCodeTuple(field string) (*Tuple, error) {
	offset := d.cursor.Pos()
	v, err := d.ReadValue()
	if err != nil {
		return nil, err
	}
	tuple, ok := v.(*Tuple)
	if !ok {
		return nil, errOffset(offset, ErrMalformedContainer,
			"code field %s: expected tuple, got %T", field, v)
	}
	return tuple, nil
}

func (d *Decoder) readCodeString(field string) (string, error) {
	offset := d.cursor.Pos()
	v, err := d.ReadValue()
	if err != nil {
		return "", err
	}
	switch val := v.(type) {
	case String:
		return string(val), nil
	case Bytes:
		return string(val), nil
	default:
		return "", errOffset(offset, ErrMalformedContainer,
			"code field %s: expected string, got %T", field, v)
	}
}
