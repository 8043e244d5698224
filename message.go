package dbus

import (
	"github.com/creachadair/mds/mapset"

	"github.com/hollowpine/dbuswire/fragments"
)

// MessageType is the type of a DBus message.
type MessageType byte

const (
	MethodCall   MessageType = 1
	MethodReturn MessageType = 2
	MsgError     MessageType = 3
	Signal       MessageType = 4
)

func (t MessageType) String() string {
	switch t {
	case MethodCall:
		return "method call"
	case MethodReturn:
		return "method return"
	case MsgError:
		return "error"
	case Signal:
		return "signal"
	default:
		return "unknown message type"
	}
}

// Message flag bits.
const (
	FlagNoReplyExpected byte = 1 << 0
	FlagNoAutoStart     byte = 1 << 1
	FlagAllowInteractive byte = 1 << 2
)

// HeaderField identifies one of the well-known DBus header fields.
type HeaderField byte

const (
	FieldPath        HeaderField = 1
	FieldInterface   HeaderField = 2
	FieldMember      HeaderField = 3
	FieldErrorName   HeaderField = 4
	FieldReplySerial HeaderField = 5
	FieldDestination HeaderField = 6
	FieldSender      HeaderField = 7
	FieldSignature   HeaderField = 8
	FieldUnixFds     HeaderField = 9
)

// protocolVersion is the only DBus wire protocol version this package
// understands. Any other value in a message header is a
// MalformedHeader.
const protocolVersion = 1

// Message is a fully decoded DBus message: the fixed header, the
// header-field array reduced to its well-known fields (plus whatever
// the sender included that this package doesn't recognize), and the
// body, decoded according to the Signature header field.
type Message struct {
	Order fragments.ByteOrder

	Type  MessageType
	Flags byte
	Serial uint32

	Path        ObjectPath
	Interface   string
	Member      string
	ErrorName   string
	ReplySerial uint32
	Destination string
	Sender      string
	Signature   Signature
	UnixFds     uint32

	// Unknown collects header fields this package doesn't assign a
	// named struct field to, keyed by their wire code.
	Unknown map[HeaderField]Variant

	Body []Value
}

// WantReply reports whether this message requires a response.
func (m *Message) WantReply() bool {
	return m.Type == MethodCall && m.Flags&FlagNoReplyExpected == 0
}

// CanInteract reports whether the sender is prepared to wait for an
// interactive authorization prompt.
func (m *Message) CanInteract() bool {
	return m.Type == MethodCall && m.Flags&FlagAllowInteractive != 0
}

// Validate checks that the message has the header fields its type
// requires, per the DBus specification.
func (m *Message) Validate() error {
	if m.Serial == 0 {
		return newError(MalformedHeader, "message has a zero serial")
	}
	switch m.Type {
	case MethodCall:
		if m.Path == "" {
			return newError(MalformedHeader, "method call is missing the Path header field")
		}
		if m.Member == "" {
			return newError(MalformedHeader, "method call is missing the Member header field")
		}
	case MethodReturn:
		if m.ReplySerial == 0 {
			return newError(MalformedHeader, "method return is missing the ReplySerial header field")
		}
	case MsgError:
		if m.ReplySerial == 0 {
			return newError(MalformedHeader, "error is missing the ReplySerial header field")
		}
		if m.ErrorName == "" {
			return newError(MalformedHeader, "error is missing the ErrorName header field")
		}
	case Signal:
		if m.Path == "" {
			return newError(MalformedHeader, "signal is missing the Path header field")
		}
		if m.Interface == "" {
			return newError(MalformedHeader, "signal is missing the Interface header field")
		}
		if m.Member == "" {
			return newError(MalformedHeader, "signal is missing the Member header field")
		}
	default:
		return newError(MalformedHeader, "unknown message type %d", m.Type)
	}
	if m.Path != "" {
		if err := m.Path.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// messageTypes is the set of MessageType values this package
// recognizes, used by the Message Reader to reject anything else
// without a cascade of equality checks.
var messageTypes = mapset.New(MethodCall, MethodReturn, MsgError, Signal)

// headerFieldSetters dispatches a decoded (code, variant) header field
// onto the matching Message field. A code with no entry here is not a
// wire error: it is stashed in Message.Unknown by the caller instead
// of being rejected, since the DBus spec requires unrecognized header
// fields to be ignored rather than fatal.
var headerFieldSetters = map[HeaderField]func(*Message, Value) error{
	FieldPath: func(m *Message, v Value) error {
		p, ok := v.(ObjectPath)
		if !ok {
			return newError(MalformedHeader, "Path header field has type %T, want object path", v)
		}
		m.Path = p
		return nil
	},
	FieldInterface: func(m *Message, v Value) error {
		s, ok := v.(String)
		if !ok {
			return newError(MalformedHeader, "Interface header field has type %T, want string", v)
		}
		m.Interface = string(s)
		return nil
	},
	FieldMember: func(m *Message, v Value) error {
		s, ok := v.(String)
		if !ok {
			return newError(MalformedHeader, "Member header field has type %T, want string", v)
		}
		m.Member = string(s)
		return nil
	},
	FieldErrorName: func(m *Message, v Value) error {
		s, ok := v.(String)
		if !ok {
			return newError(MalformedHeader, "ErrorName header field has type %T, want string", v)
		}
		m.ErrorName = string(s)
		return nil
	},
	FieldReplySerial: func(m *Message, v Value) error {
		u, ok := v.(Uint32)
		if !ok {
			return newError(MalformedHeader, "ReplySerial header field has type %T, want uint32", v)
		}
		m.ReplySerial = uint32(u)
		return nil
	},
	FieldDestination: func(m *Message, v Value) error {
		s, ok := v.(String)
		if !ok {
			return newError(MalformedHeader, "Destination header field has type %T, want string", v)
		}
		m.Destination = string(s)
		return nil
	},
	FieldSender: func(m *Message, v Value) error {
		s, ok := v.(String)
		if !ok {
			return newError(MalformedHeader, "Sender header field has type %T, want string", v)
		}
		m.Sender = string(s)
		return nil
	},
	FieldSignature: func(m *Message, v Value) error {
		g, ok := v.(Signature)
		if !ok {
			return newError(MalformedHeader, "Signature header field has type %T, want signature", v)
		}
		m.Signature = g
		return nil
	},
	FieldUnixFds: func(m *Message, v Value) error {
		u, ok := v.(Uint32)
		if !ok {
			return newError(MalformedHeader, "UnixFds header field has type %T, want uint32", v)
		}
		m.UnixFds = uint32(u)
		return nil
	},
}

// setHeaderField applies a decoded header field to m, either through
// headerFieldSetters or, for a code this package doesn't recognize, by
// recording it in m.Unknown.
func setHeaderField(m *Message, code HeaderField, value Variant) error {
	if set, ok := headerFieldSetters[code]; ok {
		return set(m, value.Inner)
	}
	if m.Unknown == nil {
		m.Unknown = make(map[HeaderField]Variant)
	}
	m.Unknown[code] = value
	return nil
}
