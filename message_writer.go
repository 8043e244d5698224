package dbus

import (
	"sort"

	"github.com/hollowpine/dbuswire/fragments"
)

// EncodeMessage returns the wire encoding of msg using the given byte
// order. msg.Serial must already be set to a nonzero value; the
// Signature and body length header fields are computed from msg.Body
// rather than taken from the caller.
func EncodeMessage(msg *Message, order fragments.ByteOrder) ([]byte, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	bodyW := &fragments.Writer{Order: order}
	for _, v := range msg.Body {
		if err := writeValue(bodyW, v); err != nil {
			return nil, err
		}
	}

	sig, err := bodySignature(msg.Body)
	if err != nil {
		return nil, err
	}

	w := &fragments.Writer{Order: order}
	w.ByteOrderFlag()
	w.Uint8(byte(msg.Type))
	w.Uint8(msg.Flags)
	w.Uint8(protocolVersion)
	w.Uint32(uint32(len(bodyW.Out)))
	w.Uint32(msg.Serial)

	fields := headerFieldArray(msg, sig)
	if err := writeValue(w, fields); err != nil {
		return nil, err
	}

	w.Pad(8)
	w.Write(bodyW.Out)

	return w.Out, nil
}

// bodySignature computes the Signature header field value for a
// message body, by concatenating the wire signature of each top-level
// value.
func bodySignature(body []Value) (Signature, error) {
	sig := ""
	for _, v := range body {
		sig += string(v.signature())
	}
	return ParseSignature(sig)
}

// headerFieldArray builds the a(yv) header field array for msg, in a
// fixed, predictable order. Unknown fields stashed on decode are
// re-emitted using their original code.
func headerFieldArray(msg *Message, sig Signature) Array {
	var entries []Value
	add := func(code HeaderField, v Value) {
		entries = append(entries, Struct{Byte(code), Variant{Inner: v}})
	}

	if msg.Path != "" {
		add(FieldPath, msg.Path)
	}
	if msg.Interface != "" {
		add(FieldInterface, String(msg.Interface))
	}
	if msg.Member != "" {
		add(FieldMember, String(msg.Member))
	}
	if msg.ErrorName != "" {
		add(FieldErrorName, String(msg.ErrorName))
	}
	if msg.ReplySerial != 0 {
		add(FieldReplySerial, Uint32(msg.ReplySerial))
	}
	if msg.Destination != "" {
		add(FieldDestination, String(msg.Destination))
	}
	if msg.Sender != "" {
		add(FieldSender, String(msg.Sender))
	}
	if !sig.IsZero() {
		add(FieldSignature, sig)
	}
	if msg.UnixFds != 0 {
		add(FieldUnixFds, Uint32(msg.UnixFds))
	}
	unknownCodes := make([]HeaderField, 0, len(msg.Unknown))
	for code := range msg.Unknown {
		unknownCodes = append(unknownCodes, code)
	}
	sort.Slice(unknownCodes, func(i, j int) bool { return unknownCodes[i] < unknownCodes[j] })
	for _, code := range unknownCodes {
		add(code, msg.Unknown[code].Inner)
	}

	return Array{Elem: "(yv)", Values: entries}
}
