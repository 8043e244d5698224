package dbus

import (
	"errors"
	"log"
	"strings"

	"github.com/kr/pretty"

	"github.com/hollowpine/dbuswire/fragments"
)

// DriverState is the Stream Driver's position in its two-phase
// handshake.
type DriverState int

const (
	// StateAuth is the textual AUTH negotiation phase.
	StateAuth DriverState = iota
	// StateBinary is the binary message phase.
	StateBinary
	// StateFailed is the terminal state entered on any fatal decode
	// error. No further bytes are processed once reached.
	StateFailed
)

func (s DriverState) String() string {
	switch s {
	case StateAuth:
		return "auth"
	case StateBinary:
		return "binary"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Sink receives everything a Driver produces: auth-phase lines in the
// order they arrive, decoded messages in the order they arrive, and a
// single terminal call once the session ends, successfully or not.
type Sink interface {
	AuthLine(line string)
	Message(msg *Message)
	Closed(err error)
}

// Driver owns the two-phase decode state machine described in the
// package's message reading algorithm: an AUTH text phase followed by
// a binary message phase, both fed by arbitrarily-chunked transport
// reads. It is not safe for concurrent use; Feed must be called from a
// single goroutine, same as a single in-flight read loop would.
type Driver struct {
	buf   *fragments.Buffer
	sink  Sink
	state DriverState
	err   error

	// Debug, if set, dumps a pretty-printed failure cause through log
	// once the driver transitions to StateFailed.
	Debug bool

	sawOK              bool
	consumedLeadingNUL bool
}

// NewDriver returns a Driver in the AUTH phase, delivering output to
// sink.
func NewDriver(sink Sink) *Driver {
	return &Driver{
		buf:   &fragments.Buffer{},
		sink:  sink,
		state: StateAuth,
	}
}

// State reports the driver's current phase.
func (d *Driver) State() DriverState { return d.state }

// Feed appends a chunk of bytes received from the transport and drives
// the state machine as far as the buffered data allows, emitting auth
// lines and messages to the sink as they complete. It returns the
// fatal error, if any, that ended the session; once a Feed call
// returns an error, every subsequent call returns the same error
// without consuming its argument.
func (d *Driver) Feed(chunk []byte) error {
	if d.state == StateFailed {
		return d.err
	}
	d.buf.Append(chunk)

	if d.state == StateAuth {
		if err := d.runAuth(); err != nil {
			d.fail(err)
			return err
		}
	}
	if d.state == StateBinary {
		if err := d.runBinary(); err != nil {
			d.fail(err)
			return err
		}
	}
	return nil
}

// runAuth drains as many complete CRLF-terminated lines as are
// currently buffered. A client-role peer's inbound stream never
// literally carries the BEGIN line it sent itself, so alongside the
// literal "BEGIN" marker this also treats an OK response with no
// further line available as the end of the text phase: once the
// buffered bytes have been exhausted without producing another
// complete line, and an OK has been seen, whatever remains is assumed
// to be the start of the binary phase rather than a partial line.
func (d *Driver) runAuth() error {
	if !d.consumedLeadingNUL {
		b, err := d.buf.Peek(1)
		if err == nil {
			d.consumedLeadingNUL = true
			if b[0] == 0 {
				d.buf.Consume(1)
			}
		}
	}

	r := fragments.NewReader(d.buf, fragments.LittleEndian)
	for d.state == StateAuth {
		line, err := r.ReadLine()
		if err != nil {
			if errors.Is(err, fragments.ErrNeedMore) {
				if d.sawOK {
					d.state = StateBinary
				}
				return nil
			}
			return newError(AuthFailure, "%s", err)
		}
		d.sink.AuthLine(line)

		switch {
		case line == "BEGIN":
			d.state = StateBinary
		case strings.HasPrefix(line, "OK "):
			d.sawOK = true
		}
	}
	return nil
}

// runBinary decodes and emits as many complete messages as are
// currently buffered, compacting the buffer after each one so that
// resident memory tracks roughly one in-flight message.
func (d *Driver) runBinary() error {
	for {
		msg, err := ReadMessage(d.buf)
		if err != nil {
			if errors.Is(err, fragments.ErrNeedMore) {
				d.buf.Compact()
				return nil
			}
			return err
		}
		d.sink.Message(msg)
		d.buf.Compact()
	}
}

func (d *Driver) fail(err error) {
	d.state = StateFailed
	d.err = err
	if d.Debug {
		log.Printf("dbus: session failed: %# v", pretty.Formatter(err))
	}
	d.sink.Closed(err)
}
