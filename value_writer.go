package dbus

import (
	"fmt"

	"github.com/hollowpine/dbuswire/fragments"
)

// writeValue appends v's wire encoding to w. It is the encoder-side
// mirror of readValue: one function dispatching on v's concrete type,
// rather than on a signature byte, since an already-constructed Value
// carries its own type.
func writeValue(w *fragments.Writer, v Value) error {
	switch v := v.(type) {
	case Byte:
		w.Uint8(uint8(v))
	case Boolean:
		if v {
			w.Uint32(1)
		} else {
			w.Uint32(0)
		}
	case Int16:
		w.Uint16(uint16(v))
	case Uint16:
		w.Uint16(uint16(v))
	case Int32:
		w.Uint32(uint32(v))
	case Uint32:
		w.Uint32(uint32(v))
	case Int64:
		w.Uint64(uint64(v))
	case Uint64:
		w.Uint64(uint64(v))
	case Double:
		w.Float64(float64(v))
	case String:
		w.String(string(v))
	case ObjectPath:
		if err := v.Validate(); err != nil {
			return err
		}
		w.String(string(v))
	case Signature:
		if _, err := ParseSignature(string(v)); err != nil {
			return err
		}
		w.SignatureString(string(v))
	case Variant:
		return writeVariant(w, v)
	case Struct:
		return writeStruct(w, v)
	case Array:
		return writeArray(w, v)
	case *Dict:
		return writeDict(w, v)
	default:
		return fmt.Errorf("dbus: %T is not an encodable value", v)
	}
	return nil
}

func writeVariant(w *fragments.Writer, v Variant) error {
	w.SignatureString(string(v.Inner.signature()))
	return writeValue(w, v.Inner)
}

func writeStruct(w *fragments.Writer, s Struct) error {
	w.Pad(8)
	for _, f := range s {
		if err := writeValue(w, f); err != nil {
			return err
		}
	}
	return nil
}

func writeArray(w *fragments.Writer, a Array) error {
	patch := w.ArrayLength(a.Elem.Align())
	for _, v := range a.Values {
		if err := writeValue(w, v); err != nil {
			return err
		}
	}
	patch()
	return nil
}

func writeDict(w *fragments.Writer, d *Dict) error {
	patch := w.ArrayLength(8)
	var rangeErr error
	d.Range(func(key, value Value) bool {
		w.Pad(8)
		if err := writeValue(w, key); err != nil {
			rangeErr = err
			return false
		}
		if err := writeValue(w, value); err != nil {
			rangeErr = err
			return false
		}
		return true
	})
	patch()
	return rangeErr
}
