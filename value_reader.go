package dbus

import (
	"errors"

	"github.com/hollowpine/dbuswire/fragments"
)

// wrapEncodingErr turns a fragments-level string/signature validation
// failure into an InvalidEncoding Error, passing ErrNeedMore through
// unchanged so the caller can still treat it as a retry signal.
func wrapEncodingErr(err error) error {
	if err == nil || errors.Is(err, fragments.ErrNeedMore) {
		return err
	}
	var derr *Error
	if errors.As(err, &derr) {
		return err
	}
	return newError(InvalidEncoding, "%s", err)
}

// readValue decodes a single DBusValue conforming to sig from r. It is
// the one recursive function the whole value grammar is read through;
// every container case dispatches back into it rather than having its
// own copy of the basic-type switch.
//
// On a NeedMore, r's underlying buffer is left exactly as it would be
// after the partial reads already performed: callers that need an
// all-or-nothing parse establish their own buffer savepoint before
// calling in, per the Message Reader's transactional contract.
func readValue(r *fragments.Reader, sig Signature) (Value, error) {
	if sig == "" {
		return nil, newError(InvalidSignature, "cannot read a value with an empty signature")
	}
	switch sig[0] {
	case 'y':
		v, err := r.Uint8()
		if err != nil {
			return nil, err
		}
		return Byte(v), nil

	case 'b':
		v, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		if v != 0 && v != 1 {
			return nil, newError(InvalidEncoding, "boolean value %d is neither 0 nor 1", v)
		}
		return Boolean(v == 1), nil

	case 'n':
		v, err := r.Uint16()
		if err != nil {
			return nil, err
		}
		return Int16(v), nil

	case 'q':
		v, err := r.Uint16()
		if err != nil {
			return nil, err
		}
		return Uint16(v), nil

	case 'i':
		v, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		return Int32(v), nil

	case 'u':
		v, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		return Uint32(v), nil

	case 'x':
		v, err := r.Uint64()
		if err != nil {
			return nil, err
		}
		return Int64(v), nil

	case 't':
		v, err := r.Uint64()
		if err != nil {
			return nil, err
		}
		return Uint64(v), nil

	case 'd':
		v, err := r.Float64()
		if err != nil {
			return nil, err
		}
		return Double(v), nil

	case 's':
		s, err := r.String()
		if err != nil {
			return nil, wrapEncodingErr(err)
		}
		return String(s), nil

	case 'o':
		s, err := r.String()
		if err != nil {
			return nil, wrapEncodingErr(err)
		}
		p := ObjectPath(s)
		if err := p.Validate(); err != nil {
			return nil, err
		}
		return p, nil

	case 'g':
		s, err := r.SignatureString()
		if err != nil {
			return nil, wrapEncodingErr(err)
		}
		g, err := ParseSignature(s)
		if err != nil {
			return nil, err
		}
		return g, nil

	case 'v':
		return readVariant(r)

	case '(':
		return readStruct(r, sig)

	case 'a':
		if sig.IsDict() {
			return readDict(r, sig)
		}
		return readArray(r, sig)

	default:
		return nil, newError(InvalidSignature, "unknown type code %q", sig[0])
	}
}

func readVariant(r *fragments.Reader) (Value, error) {
	sigStr, err := r.SignatureString()
	if err != nil {
		return nil, wrapEncodingErr(err)
	}
	sig, err := ParseSignature(sigStr)
	if err != nil {
		return nil, err
	}
	inner, err := readValue(r, sig)
	if err != nil {
		return nil, err
	}
	return Variant{Inner: inner}, nil
}

func readStruct(r *fragments.Reader, sig Signature) (Value, error) {
	if err := r.Pad(8); err != nil {
		return nil, err
	}
	fields := sig.StructFields()
	values := make(Struct, 0, len(fields))
	for _, f := range fields {
		v, err := readValue(r, f)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

// readArray reads an array of sig's element type. The length prefix
// counts bytes, not elements, and the alignment padding to the
// element's boundary is mandatory even when the array is empty.
func readArray(r *fragments.Reader, sig Signature) (Value, error) {
	elemSig := sig.Elem()
	n, err := r.ArrayLength(elemSig.Align())
	if err != nil {
		return nil, err
	}
	end := r.Offset() + int(n)
	var values []Value
	for r.Offset() < end {
		v, err := readValue(r, elemSig)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	if r.Offset() != end {
		return nil, newError(InvalidEncoding, "array body of length %d overshoots its declared end", n)
	}
	return Array{Elem: elemSig, Values: values}, nil
}

// readDict reads a dict-entry array a{KV} as a mapping. Dict entries
// align like a struct (8 bytes) regardless of K's own alignment.
func readDict(r *fragments.Reader, sig Signature) (Value, error) {
	keySig, valueSig := sig.DictKeyValue()
	n, err := r.ArrayLength(8)
	if err != nil {
		return nil, err
	}
	end := r.Offset() + int(n)
	dict := NewDict(keySig, valueSig)
	for r.Offset() < end {
		if err := r.Pad(8); err != nil {
			return nil, err
		}
		key, err := readValue(r, keySig)
		if err != nil {
			return nil, err
		}
		val, err := readValue(r, valueSig)
		if err != nil {
			return nil, err
		}
		dict.Set(key, val)
	}
	if r.Offset() != end {
		return nil, newError(InvalidEncoding, "dict body of length %d overshoots its declared end", n)
	}
	return dict, nil
}
