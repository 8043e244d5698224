package dbus

import (
	"github.com/creachadair/mds/mapset"
)

// maxSignatureLength is the largest signature the wire format allows:
// the length prefix of a signature is a single byte.
const maxSignatureLength = 255

// basicTypeCodes is the set of signature bytes that name a DBus basic
// type: every type that can appear as a dict-entry key, and every
// type a Variant can directly carry without further nesting.
var basicTypeCodes = mapset.New[byte]('y', 'b', 'n', 'q', 'i', 'u', 'x', 't', 'd', 's', 'o', 'g')

func isBasicTypeCode(c byte) bool {
	return basicTypeCodes.Has(c)
}

// A Signature is a validated DBus type signature: a string over the
// alphabet {y,b,n,q,i,u,x,t,d,s,o,g,v,a,(,),,,{,}} describing the
// type of a value, or the types of a sequence of values.
//
// A Signature's zero value is the empty signature, which describes a
// void value (for example, a message body with no Signature header
// field).
type Signature string

// ParseSignature validates sig against the DBus type grammar and
// returns it as a Signature. It rejects unbalanced grouping, unknown
// type codes, dict-entry types outside an array, non-basic dict keys,
// and signatures longer than 255 bytes.
func ParseSignature(sig string) (Signature, error) {
	if len(sig) > maxSignatureLength {
		return "", newError(InvalidSignature, "signature %d bytes long, exceeds the %d byte limit", len(sig), maxSignatureLength)
	}
	rest := sig
	for rest != "" {
		next, err := consumeOneType(rest)
		if err != nil {
			return "", err
		}
		rest = next
	}
	return Signature(sig), nil
}

// String returns the wire encoding of the signature.
func (s Signature) String() string {
	return string(s)
}

// IsZero reports whether s is the empty signature, describing a void
// value.
func (s Signature) IsZero() bool {
	return s == ""
}

// Align returns the alignment, in bytes, of the first top-level type
// in s. The zero signature aligns to 1.
func (s Signature) Align() int {
	if s == "" {
		return 1
	}
	return alignmentForCode(s[0])
}

// Split returns the top-level sequence of complete types in s. For
// example, Signature("yvs").Split() returns {"y", "v", "s"}, and
// Signature("(yv)s").Split() returns {"(yv)", "s"}.
func (s Signature) Split() ([]Signature, error) {
	var parts []Signature
	rest := string(s)
	for rest != "" {
		next, err := consumeOneType(rest)
		if err != nil {
			return nil, err
		}
		parts = append(parts, Signature(rest[:len(rest)-len(next)]))
		rest = next
	}
	return parts, nil
}

// Elem returns the element type of an array signature "aT", i.e. T.
// It panics if s does not describe an array.
func (s Signature) Elem() Signature {
	if len(s) < 2 || s[0] != 'a' {
		panic("dbus: Elem called on non-array signature " + string(s))
	}
	return s[1:]
}

// IsDict reports whether s describes a dict-entry array, a{kv}.
func (s Signature) IsDict() bool {
	return len(s) > 2 && s[0] == 'a' && s[1] == '{'
}

// DictKeyValue returns the key and value types of a dict signature
// a{kv}. It panics if s is not a dict signature.
func (s Signature) DictKeyValue() (key, value Signature) {
	if !s.IsDict() {
		panic("dbus: DictKeyValue called on non-dict signature " + string(s))
	}
	inner := s[2 : len(s)-1] // strip "a{" and "}"
	next, err := consumeOneType(string(inner))
	if err != nil {
		panic("dbus: corrupt dict signature " + string(s))
	}
	keyLen := len(inner) - len(next)
	return inner[:keyLen], inner[keyLen:]
}

// StructFields returns the field types of a struct signature "(...)".
// It panics if s does not describe a struct.
func (s Signature) StructFields() []Signature {
	if len(s) < 2 || s[0] != '(' {
		panic("dbus: StructFields called on non-struct signature " + string(s))
	}
	inner := Signature(s[1 : len(s)-1])
	fields, err := inner.Split()
	if err != nil {
		panic("dbus: corrupt struct signature " + string(s))
	}
	return fields
}

func alignmentForCode(c byte) int {
	switch c {
	case 'y', 'g', 'v':
		return 1
	case 'n', 'q':
		return 2
	case 'b', 'i', 'u', 'a':
		return 4
	case 'x', 't', 'd':
		return 8
	case 's', 'o':
		return 4
	case '(', '{':
		return 8
	default:
		return 1
	}
}

// consumeOneType strips one complete type off the front of sig and
// returns the remainder. It is the single recursive-descent step that
// both ParseSignature and Split are built on.
func consumeOneType(sig string) (rest string, err error) {
	if sig == "" {
		return "", newError(InvalidSignature, "expected a type code, got end of signature")
	}
	c := sig[0]
	switch {
	case isBasicTypeCode(c) || c == 'v':
		return sig[1:], nil

	case c == 'a':
		if len(sig) < 2 {
			return "", newError(InvalidSignature, "'a' with no following element type")
		}
		if sig[1] == '{' {
			return consumeDictEntry(sig[1:])
		}
		return consumeOneType(sig[1:])

	case c == '(':
		rest = sig[1:]
		for rest != "" && rest[0] != ')' {
			rest, err = consumeOneType(rest)
			if err != nil {
				return "", err
			}
		}
		if rest == "" {
			return "", newError(InvalidSignature, "unterminated struct, missing ')'")
		}
		return rest[1:], nil

	case c == '{':
		return "", newError(InvalidSignature, "dict-entry type '{' found outside an array")

	case c == ')' || c == '}':
		return "", newError(InvalidSignature, "unexpected closing %q with no matching open", c)

	default:
		return "", newError(InvalidSignature, "unknown type code %q", c)
	}
}

// consumeDictEntry parses a dict-entry "{kv}" that has already been
// confirmed to follow an 'a'. sig starts at the '{'.
func consumeDictEntry(sig string) (rest string, err error) {
	rest = sig[1:]
	if rest == "" {
		return "", newError(InvalidSignature, "unterminated dict-entry, missing key type")
	}
	if !isBasicTypeCode(rest[0]) {
		return "", newError(InvalidSignature, "dict-entry key type %q is not a basic type", rest[0])
	}
	rest, err = consumeOneType(rest)
	if err != nil {
		return "", err
	}
	if rest == "" || rest[0] == '}' {
		return "", newError(InvalidSignature, "dict-entry is missing its value type")
	}
	rest, err = consumeOneType(rest)
	if err != nil {
		return "", err
	}
	if rest == "" || rest[0] != '}' {
		return "", newError(InvalidSignature, "unterminated dict-entry, missing '}'")
	}
	return rest[1:], nil
}
