package dbus

import (
	"fmt"
	"sort"
)

// Kind identifies which case of the DBus value sum a Value holds.
type Kind byte

const (
	KindByte Kind = iota
	KindBoolean
	KindInt16
	KindUint16
	KindInt32
	KindUint32
	KindInt64
	KindUint64
	KindDouble
	KindString
	KindObjectPath
	KindSignature
	KindVariant
	KindStruct
	KindArray
	KindDict
)

func (k Kind) String() string {
	switch k {
	case KindByte:
		return "byte"
	case KindBoolean:
		return "boolean"
	case KindInt16:
		return "int16"
	case KindUint16:
		return "uint16"
	case KindInt32:
		return "int32"
	case KindUint32:
		return "uint32"
	case KindInt64:
		return "int64"
	case KindUint64:
		return "uint64"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindObjectPath:
		return "object path"
	case KindSignature:
		return "signature"
	case KindVariant:
		return "variant"
	case KindStruct:
		return "struct"
	case KindArray:
		return "array"
	case KindDict:
		return "dict"
	default:
		return "unknown"
	}
}

// Value is the closed sum over every type the DBus wire format can
// carry: one concrete Go type per case, rather than a single struct
// with a field per possible payload. Callers switch on the concrete
// type (or call Kind, when a quick tag check is enough) to inspect a
// decoded value.
type Value interface {
	Kind() Kind
	// signature reports the DBus type signature of this value. It is
	// used to write the type header of a Variant, whose inner value
	// doesn't otherwise carry its own signature once decoded.
	signature() Signature
}

type (
	Byte    uint8
	Boolean bool
	Int16   int16
	Uint16  uint16
	Int32   int32
	Uint32  uint32
	Int64   int64
	Uint64  uint64
	Double  float64
	String  string
)

func (Byte) Kind() Kind    { return KindByte }
func (Boolean) Kind() Kind { return KindBoolean }
func (Int16) Kind() Kind   { return KindInt16 }
func (Uint16) Kind() Kind  { return KindUint16 }
func (Int32) Kind() Kind   { return KindInt32 }
func (Uint32) Kind() Kind  { return KindUint32 }
func (Int64) Kind() Kind   { return KindInt64 }
func (Uint64) Kind() Kind  { return KindUint64 }
func (Double) Kind() Kind  { return KindDouble }
func (String) Kind() Kind  { return KindString }

func (Byte) signature() Signature    { return "y" }
func (Boolean) signature() Signature { return "b" }
func (Int16) signature() Signature   { return "n" }
func (Uint16) signature() Signature  { return "q" }
func (Int32) signature() Signature   { return "i" }
func (Uint32) signature() Signature  { return "u" }
func (Int64) signature() Signature   { return "x" }
func (Uint64) signature() Signature  { return "t" }
func (Double) signature() Signature  { return "d" }
func (String) signature() Signature  { return "s" }

func (ObjectPath) Kind() Kind      { return KindObjectPath }
func (ObjectPath) signature() Signature { return "o" }

func (Signature) Kind() Kind      { return KindSignature }
func (Signature) signature() Signature { return "g" }

// Variant is a self-describing value: a signature followed by a
// value conforming to it.
type Variant struct {
	Inner Value
}

func (Variant) Kind() Kind           { return KindVariant }
func (Variant) signature() Signature { return "v" }

// Struct is an ordered, fixed-arity, heterogeneous product of values.
type Struct []Value

func (Struct) Kind() Kind { return KindStruct }

func (s Struct) signature() Signature {
	sig := "("
	for _, f := range s {
		sig += string(f.signature())
	}
	return Signature(sig + ")")
}

// Array is a homogeneous sequence of values of a single element type.
// Elem is recorded explicitly (rather than inferred from Values[0])
// so that an empty array still knows, and can re-encode, its element
// type.
type Array struct {
	Elem   Signature
	Values []Value
}

func (Array) Kind() Kind { return KindArray }

func (a Array) signature() Signature {
	return "a" + a.Elem
}

// Dict is a DBus dict-entry array (a{kv}) decoded as a mapping. Keys
// are always a basic type; duplicate keys encountered while decoding
// are resolved last-write-wins.
type Dict struct {
	KeySig   Signature
	ValueSig Signature

	entries map[any]dictEntry
}

type dictEntry struct {
	key   Value
	value Value
}

// NewDict returns an empty Dict for the given key and value types.
func NewDict(keySig, valueSig Signature) *Dict {
	return &Dict{KeySig: keySig, ValueSig: valueSig, entries: map[any]dictEntry{}}
}

func (*Dict) Kind() Kind { return KindDict }

func (d *Dict) signature() Signature {
	return Signature("a{" + string(d.KeySig) + string(d.ValueSig) + "}")
}

// Set stores value under key, overwriting any existing entry for an
// equal key.
func (d *Dict) Set(key, value Value) {
	if d.entries == nil {
		d.entries = map[any]dictEntry{}
	}
	d.entries[nativeKey(key)] = dictEntry{key, value}
}

// Get returns the value stored under key, if any.
func (d *Dict) Get(key Value) (Value, bool) {
	e, ok := d.entries[nativeKey(key)]
	return e.value, ok
}

// Len returns the number of entries in the dict.
func (d *Dict) Len() int {
	return len(d.entries)
}

// Range calls f for every entry in the dict, in ascending key order,
// stopping early if f returns false.
func (d *Dict) Range(f func(key, value Value) bool) {
	keys := make([]Value, 0, len(d.entries))
	for _, e := range d.entries {
		keys = append(keys, e.key)
	}
	sort.Slice(keys, func(i, j int) bool { return compareValues(keys[i], keys[j]) < 0 })
	for _, k := range keys {
		e := d.entries[nativeKey(k)]
		if !f(e.key, e.value) {
			return
		}
	}
}

// nativeKey converts a basic-type Value into a Go-comparable value
// suitable for use as a map key.
func nativeKey(v Value) any {
	switch v := v.(type) {
	case Byte:
		return v
	case Boolean:
		return v
	case Int16:
		return v
	case Uint16:
		return v
	case Int32:
		return v
	case Uint32:
		return v
	case Int64:
		return v
	case Uint64:
		return v
	case Double:
		return v
	case String:
		return v
	case ObjectPath:
		return v
	case Signature:
		return v
	default:
		panic(fmt.Sprintf("dbus: %T is not a valid dict key type", v))
	}
}

// compareValues orders two basic-type Values of the same kind, for
// deterministic dict iteration and encoding.
func compareValues(a, b Value) int {
	switch a := a.(type) {
	case Byte:
		return int(a) - int(b.(Byte))
	case Boolean:
		return boolCompare(bool(a), bool(b.(Boolean)))
	case Int16:
		return int(a) - int(b.(Int16))
	case Uint16:
		return int(a) - int(b.(Uint16))
	case Int32:
		return int(a) - int(b.(Int32))
	case Uint32:
		return int(a) - int(b.(Uint32))
	case Int64:
		switch bi := b.(Int64); {
		case a < bi:
			return -1
		case a > bi:
			return 1
		default:
			return 0
		}
	case Uint64:
		au, bu := uint64(a), uint64(b.(Uint64))
		switch {
		case au < bu:
			return -1
		case au > bu:
			return 1
		default:
			return 0
		}
	case Double:
		switch {
		case a < b.(Double):
			return -1
		case a > b.(Double):
			return 1
		default:
			return 0
		}
	case String:
		return compareStrings(string(a), string(b.(String)))
	case ObjectPath:
		return compareStrings(string(a), string(b.(ObjectPath)))
	case Signature:
		return compareStrings(string(a), string(b.(Signature)))
	default:
		panic(fmt.Sprintf("dbus: %T is not a valid dict key type", a))
	}
}

func boolCompare(a, b bool) int {
	switch {
	case a == b:
		return 0
	case b:
		return -1
	default:
		return 1
	}
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
