package dbus

import "fmt"

// ErrorKind classifies the ways a decode can fail, matching the
// fatal/non-fatal distinction the stream driver needs: everything
// except NeedMore ends the session.
type ErrorKind int

const (
	// NeedMore is not really an error: it means the input seen so far
	// doesn't yet contain a complete message, line, or value, and the
	// same read should be retried once more bytes have arrived. It is
	// exposed as [fragments.ErrNeedMore]; ErrorKind never reports it,
	// since a NeedMore condition carries no session-ending Error value.
	NeedMore ErrorKind = iota
	// MalformedHeader covers an unsupported protocol version, an
	// unrecognized endianness flag, a zero serial, or a message type
	// missing one of its required header fields.
	MalformedHeader
	// InvalidSignature covers unbalanced grouping, an unknown type
	// code, a signature longer than 255 bytes, a dict-entry type
	// outside an array, or a dict key that isn't a basic type.
	InvalidSignature
	// InvalidEncoding covers non-UTF-8 strings, embedded NULs, object
	// paths that don't match the grammar, booleans outside {0,1}, and
	// arrays whose byte length overshoots or misaligns the body end.
	InvalidEncoding
	// AuthFailure covers a malformed AUTH-phase line, or a REJECTED
	// response with no mechanisms left to try. Driver checks neither
	// condition: it hands every complete auth line, REJECTED included,
	// to its Sink without examining it, and does not return this kind
	// because of a line's content.
	AuthFailure
	// TransportClosed covers the upstream stream ending mid-message.
	// Nothing in this package returns it: Driver has no end-of-stream
	// call, so a transport that closes mid-message is not reported.
	TransportClosed
)

func (k ErrorKind) String() string {
	switch k {
	case MalformedHeader:
		return "malformed header"
	case InvalidSignature:
		return "invalid signature"
	case InvalidEncoding:
		return "invalid encoding"
	case AuthFailure:
		return "auth failure"
	case TransportClosed:
		return "transport closed"
	default:
		return "need more data"
	}
}

// Error is a fatal decode error: one of the kinds in ErrorKind, with
// the detail that triggered it. A session that produces an Error
// transitions to the Failed state and is never resumed; unlike
// fragments.ErrNeedMore, it is not meant to be retried.
type Error struct {
	Kind   ErrorKind
	Reason error
}

func (e *Error) Error() string {
	return fmt.Sprintf("dbus: %s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Reason
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Reason: fmt.Errorf(format, args...)}
}
