package dbus_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	dbus "github.com/hollowpine/dbuswire"
	"github.com/hollowpine/dbuswire/fragments"
)

// dictCompare lets cmp.Diff see into a *dbus.Dict through its exported
// Range/Get API instead of panicking on its unexported entry map.
var dictCompare cmp.Option

func init() {
	dictCompare = cmp.Comparer(func(a, b *dbus.Dict) bool {
		if a.Len() != b.Len() {
			return false
		}
		equal := true
		a.Range(func(k, v dbus.Value) bool {
			bv, ok := b.Get(k)
			if !ok || !cmp.Equal(v, bv, dictCompare) {
				equal = false
				return false
			}
			return true
		})
		return equal
	})
}

// encodeDecodeBody exercises the package's unexported
// readValue/writeValue dispatch indirectly, through a message body,
// since the value codec isn't part of the public API on its own.
func encodeDecodeBody(t *testing.T, body []dbus.Value) []dbus.Value {
	t.Helper()
	msg := &dbus.Message{
		Type:   dbus.MethodCall,
		Serial: 1,
		Path:   "/a",
		Member: "M",
		Body:   body,
	}
	raw, err := dbus.EncodeMessage(msg, fragments.LittleEndian)
	if err != nil {
		t.Fatalf("EncodeMessage() error: %v", err)
	}
	var buf fragments.Buffer
	buf.Append(raw)
	got, err := dbus.ReadMessage(&buf)
	if err != nil {
		t.Fatalf("ReadMessage() error: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("buf.Len() = %d after ReadMessage, want 0", buf.Len())
	}
	return got.Body
}

func TestValueRoundTripBasic(t *testing.T) {
	body := []dbus.Value{
		dbus.Byte(7),
		dbus.Boolean(true),
		dbus.Int16(-100),
		dbus.Uint16(100),
		dbus.Int32(-100000),
		dbus.Uint32(100000),
		dbus.Int64(-1 << 40),
		dbus.Uint64(1 << 40),
		dbus.Double(3.25),
		dbus.String("hello, world"),
		dbus.ObjectPath("/org/freedesktop/DBus"),
	}
	got := encodeDecodeBody(t, body)
	if len(got) != len(body) {
		t.Fatalf("got %d values, want %d", len(got), len(body))
	}
	for i := range body {
		if got[i] != body[i] {
			t.Errorf("value %d = %#v, want %#v", i, got[i], body[i])
		}
	}
}

func TestValueRoundTripStruct(t *testing.T) {
	want := dbus.Struct{
		dbus.Byte(1),
		dbus.Int16(-2),
		dbus.String("three"),
		dbus.Struct{dbus.Boolean(true), dbus.Array{Elem: "i", Values: []dbus.Value{dbus.Int32(1), dbus.Int32(2)}}},
	}
	got := encodeDecodeBody(t, []dbus.Value{want})
	if diff := cmp.Diff(want, got[0]); diff != "" {
		t.Errorf("struct round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestValueRoundTripVariant(t *testing.T) {
	want := dbus.Variant{Inner: dbus.Int32(42)}
	got := encodeDecodeBody(t, []dbus.Value{want})
	if diff := cmp.Diff(want, got[0]); diff != "" {
		t.Errorf("variant round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestValueRoundTripEmptyArray(t *testing.T) {
	body := []dbus.Value{
		dbus.Array{Elem: "u"},
	}
	got := encodeDecodeBody(t, body)
	arr, ok := got[0].(dbus.Array)
	if !ok {
		t.Fatalf("got %#v, want an Array", got[0])
	}
	if len(arr.Values) != 0 {
		t.Errorf("got %d elements, want 0", len(arr.Values))
	}
}

func TestValueRoundTripDict(t *testing.T) {
	want := dbus.NewDict("s", "v")
	want.Set(dbus.String("foo"), dbus.Variant{Inner: dbus.Int32(1)})
	want.Set(dbus.String("bar"), dbus.Variant{Inner: dbus.String("x")})

	got := encodeDecodeBody(t, []dbus.Value{want})
	gotDict, ok := got[0].(*dbus.Dict)
	if !ok {
		t.Fatalf("got %#v, want a *Dict", got[0])
	}
	if diff := cmp.Diff(want, gotDict, dictCompare); diff != "" {
		t.Errorf("dict round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDictDuplicateKeyLastWriteWins(t *testing.T) {
	dict := dbus.NewDict("y", "s")
	dict.Set(dbus.Byte(1), dbus.String("first"))
	dict.Set(dbus.Byte(1), dbus.String("second"))
	if dict.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", dict.Len())
	}
	v, ok := dict.Get(dbus.Byte(1))
	if !ok || v != dbus.String("second") {
		t.Fatalf("Get(1) = %#v, %v, want String(\"second\"), true", v, ok)
	}
}
