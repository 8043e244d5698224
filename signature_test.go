package dbus_test

import (
	"testing"

	dbus "github.com/hollowpine/dbuswire"
)

func TestParseSignatureOK(t *testing.T) {
	tests := []string{
		"", "y", "b", "n", "q", "i", "u", "x", "t", "d", "s", "o", "g", "v",
		"ay", "a(yv)", "a{sv}", "(yv)", "(a(ii))", "a{sa{sv}}", "((y)(y))",
	}
	for _, sig := range tests {
		if _, err := dbus.ParseSignature(sig); err != nil {
			t.Errorf("ParseSignature(%q) = %v, want nil error", sig, err)
		}
	}
}

func TestParseSignatureErrors(t *testing.T) {
	tests := []string{
		"(", ")", "{sv}", "a{vs}", "a", "Z", "((y)", "a{s}", string(make([]byte, 256)),
	}
	for _, sig := range tests {
		if _, err := dbus.ParseSignature(sig); err == nil {
			t.Errorf("ParseSignature(%q) succeeded, want error", sig)
		}
	}
}

func TestSignatureSplit(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"yvs", []string{"y", "v", "s"}},
		{"(yv)s", []string{"(yv)", "s"}},
		{"", nil},
		{"a(ii)ai", []string{"a(ii)", "ai"}},
	}
	for _, tc := range tests {
		sig, err := dbus.ParseSignature(tc.in)
		if err != nil {
			t.Fatalf("ParseSignature(%q) error: %v", tc.in, err)
		}
		parts, err := sig.Split()
		if err != nil {
			t.Fatalf("Split(%q) error: %v", tc.in, err)
		}
		if len(parts) != len(tc.want) {
			t.Fatalf("Split(%q) = %v, want %v", tc.in, parts, tc.want)
		}
		for i, p := range parts {
			if string(p) != tc.want[i] {
				t.Errorf("Split(%q)[%d] = %q, want %q", tc.in, i, p, tc.want[i])
			}
		}
	}
}

func TestSignatureAlign(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"y", 1}, {"g", 1}, {"v", 1},
		{"n", 2}, {"q", 2},
		{"b", 4}, {"i", 4}, {"u", 4}, {"ay", 4},
		{"x", 8}, {"t", 8}, {"d", 8}, {"(yv)", 8}, {"a{sv}", 4},
	}
	for _, tc := range tests {
		sig, err := dbus.ParseSignature(tc.in)
		if err != nil {
			t.Fatalf("ParseSignature(%q) error: %v", tc.in, err)
		}
		if got := sig.Align(); got != tc.want {
			t.Errorf("Align(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestDictKeyValue(t *testing.T) {
	sig, err := dbus.ParseSignature("a{sv}")
	if err != nil {
		t.Fatalf("ParseSignature error: %v", err)
	}
	key, value := sig.DictKeyValue()
	if key != "s" || value != "v" {
		t.Fatalf("DictKeyValue() = (%q, %q), want (%q, %q)", key, value, "s", "v")
	}
}
