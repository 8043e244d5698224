package dbus

import (
	"github.com/hollowpine/dbuswire/fragments"
)

// headerFieldsSignature is the fixed signature of the header field
// array every message carries, regardless of its own Signature header
// field: an array of (code, variant) structs.
const headerFieldsSignature = Signature("a(yv)")

// ReadMessage attempts to decode one complete Message from buf.
//
// It is fully transactional: on any error, including ErrNeedMore, buf
// is left exactly as it was found, with no bytes consumed. On success,
// the bytes making up the message are consumed from buf.
func ReadMessage(buf *fragments.Buffer) (*Message, error) {
	mark := buf.Savepoint()
	msg, err := readMessage(buf)
	if err != nil {
		buf.Rollback(mark)
		return nil, err
	}
	return msg, nil
}

func readMessage(buf *fragments.Buffer) (*Message, error) {
	if _, err := buf.Peek(12); err != nil {
		return nil, err
	}

	r := fragments.NewReader(buf, fragments.LittleEndian)

	if err := r.ByteOrderFlag(); err != nil {
		return nil, newError(MalformedHeader, "%s", err)
	}
	typeByte, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	if !messageTypes.Has(MessageType(typeByte)) {
		return nil, newError(MalformedHeader, "unknown message type %d", typeByte)
	}
	flags, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	version, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	if version != protocolVersion {
		return nil, newError(MalformedHeader, "unsupported protocol version %d", version)
	}
	bodyLength, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	serial, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	if serial == 0 {
		return nil, newError(MalformedHeader, "message has a zero serial")
	}

	msg := &Message{
		Order:  r.Order,
		Type:   MessageType(typeByte),
		Flags:  flags,
		Serial: serial,
	}

	fieldsValue, err := readValue(r, headerFieldsSignature)
	if err != nil {
		return nil, err
	}
	fields := fieldsValue.(Array)
	for _, entry := range fields.Values {
		s := entry.(Struct)
		code := HeaderField(s[0].(Byte))
		variant := s[1].(Variant)
		if err := setHeaderField(msg, code, variant); err != nil {
			return nil, err
		}
	}

	if err := r.Pad(8); err != nil {
		return nil, err
	}

	if _, err := buf.Peek(int(bodyLength)); err != nil {
		return nil, err
	}
	bodyStart := r.Offset()

	if msg.Signature.IsZero() {
		if bodyLength != 0 {
			return nil, newError(InvalidEncoding, "message has no Signature header field but a nonzero body length %d", bodyLength)
		}
	} else {
		parts, err := msg.Signature.Split()
		if err != nil {
			return nil, err
		}
		for _, part := range parts {
			v, err := readValue(r, part)
			if err != nil {
				return nil, err
			}
			msg.Body = append(msg.Body, v)
		}
		if consumed := r.Offset() - bodyStart; consumed != int(bodyLength) {
			return nil, newError(InvalidEncoding, "body consumed %d bytes, header declared %d", consumed, bodyLength)
		}
	}

	if err := msg.Validate(); err != nil {
		return nil, err
	}

	return msg, nil
}
