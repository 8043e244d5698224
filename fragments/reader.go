package fragments

import (
	"bytes"
	"fmt"
	"math"
	"unicode/utf8"
)

// A Reader reads DBus primitive values out of a Buffer, tracking the
// byte offset within the current message so that alignment padding
// can be computed correctly.
//
// Unlike an io.Reader based decoder, every Reader method is
// synchronous and non-blocking: if the Buffer doesn't yet hold enough
// bytes to satisfy a read, the method returns ErrNeedMore and leaves
// the Buffer's cursor untouched. Callers that need transactional
// all-or-nothing semantics across several Reader calls should take a
// [Buffer.Savepoint] first and [Buffer.Rollback] on any error.
type Reader struct {
	// Order is the byte order used to decode multi-byte values.
	Order ByteOrder
	// Buf is the input the Reader reads from.
	Buf *Buffer

	// offset is the number of bytes read by this Reader so far,
	// counting from the start of the enclosing message. DBus
	// alignment is always relative to the start of the message, not
	// to any inner container, so a single running counter is
	// sufficient.
	offset int
}

// NewReader returns a Reader over buf, with its offset counter
// starting at zero. Use ResetOffset to reuse a Reader across
// messages.
func NewReader(buf *Buffer, order ByteOrder) *Reader {
	return &Reader{Order: order, Buf: buf}
}

// ResetOffset zeroes the Reader's internal alignment counter. Call it
// when starting to decode a new message.
func (r *Reader) ResetOffset() {
	r.offset = 0
}

// Offset returns the number of bytes read so far, relative to the
// start of the current message.
func (r *Reader) Offset() int {
	return r.offset
}

// Pad advances past padding bytes as needed to bring the next read to
// a multiple of align bytes, relative to the start of the message.
// Padding bytes are not validated: the DBus wire format requires them
// to be zero on the wire, but a lenient reader does not reject
// non-zero padding.
func (r *Reader) Pad(align int) error {
	extra := r.offset % align
	if extra == 0 {
		return nil
	}
	skip := align - extra
	if _, err := r.Buf.Peek(skip); err != nil {
		return err
	}
	r.Buf.Consume(skip)
	r.offset += skip
	return nil
}

// Read returns the next n bytes verbatim, with no alignment.
func (r *Reader) Read(n int) ([]byte, error) {
	bs, err := r.Buf.Peek(n)
	if err != nil {
		return nil, err
	}
	r.Buf.Consume(n)
	r.offset += n
	out := make([]byte, n)
	copy(out, bs)
	return out, nil
}

// Uint8 reads an unaligned uint8.
func (r *Reader) Uint8() (uint8, error) {
	bs, err := r.Read(1)
	if err != nil {
		return 0, err
	}
	return bs[0], nil
}

// Uint16 reads a uint16, aligned to a 2-byte boundary.
func (r *Reader) Uint16() (uint16, error) {
	mark, savedOffset := r.Buf.Savepoint(), r.offset
	if err := r.Pad(2); err != nil {
		return 0, err
	}
	bs, err := r.Read(2)
	if err != nil {
		r.Buf.Rollback(mark)
		r.offset = savedOffset
		return 0, err
	}
	return r.Order.Uint16(bs), nil
}

// Uint32 reads a uint32, aligned to a 4-byte boundary.
func (r *Reader) Uint32() (uint32, error) {
	mark, savedOffset := r.Buf.Savepoint(), r.offset
	if err := r.Pad(4); err != nil {
		return 0, err
	}
	bs, err := r.Read(4)
	if err != nil {
		r.Buf.Rollback(mark)
		r.offset = savedOffset
		return 0, err
	}
	return r.Order.Uint32(bs), nil
}

// Uint64 reads a uint64, aligned to an 8-byte boundary.
func (r *Reader) Uint64() (uint64, error) {
	mark, savedOffset := r.Buf.Savepoint(), r.offset
	if err := r.Pad(8); err != nil {
		return 0, err
	}
	bs, err := r.Read(8)
	if err != nil {
		r.Buf.Rollback(mark)
		r.offset = savedOffset
		return 0, err
	}
	return r.Order.Uint64(bs), nil
}

// Float64 reads an IEEE-754 binary64, aligned to an 8-byte boundary.
func (r *Reader) Float64() (float64, error) {
	bits, err := r.Uint64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

// String reads a DBus string: a uint32 byte length, that many bytes
// of UTF-8, and a trailing NUL not counted in the length.
func (r *Reader) String() (string, error) {
	mark := r.Buf.Savepoint()
	savedOffset := r.offset

	n, err := r.Uint32()
	if err != nil {
		return "", err
	}
	bs, err := r.Read(int(n) + 1)
	if err != nil {
		r.Buf.Rollback(mark)
		r.offset = savedOffset
		return "", err
	}
	if bs[len(bs)-1] != 0 {
		return "", fmt.Errorf("dbus/fragments: string is missing trailing NUL")
	}
	s := bs[:len(bs)-1]
	if !utf8.Valid(s) {
		return "", fmt.Errorf("dbus/fragments: string is not valid UTF-8")
	}
	if bytes.IndexByte(s, 0) >= 0 {
		return "", fmt.Errorf("dbus/fragments: string contains an embedded NUL")
	}
	return string(s), nil
}

// SignatureString reads a DBus signature: a uint8 byte length, that
// many bytes, and a trailing NUL not counted in the length.
func (r *Reader) SignatureString() (string, error) {
	mark := r.Buf.Savepoint()
	savedOffset := r.offset

	n, err := r.Uint8()
	if err != nil {
		return "", err
	}
	bs, err := r.Read(int(n) + 1)
	if err != nil {
		r.Buf.Rollback(mark)
		r.offset = savedOffset
		return "", err
	}
	if bs[len(bs)-1] != 0 {
		return "", fmt.Errorf("dbus/fragments: signature is missing trailing NUL")
	}
	return string(bs[:len(bs)-1]), nil
}

// ArrayLength reads a DBus array's uint32 byte-length prefix, then
// pads to elemAlign. Padding happens even for a zero-length array:
// the array header is always aligned to its element type, regardless
// of whether the array turns out to be empty.
func (r *Reader) ArrayLength(elemAlign int) (uint32, error) {
	mark := r.Buf.Savepoint()
	savedOffset := r.offset

	n, err := r.Uint32()
	if err != nil {
		return 0, err
	}
	if err := r.Pad(elemAlign); err != nil {
		r.Buf.Rollback(mark)
		r.offset = savedOffset
		return 0, err
	}
	return n, nil
}

// ByteOrderFlag reads the DBus byte order flag byte ('l' or 'B') and
// sets Order to match it.
func (r *Reader) ByteOrderFlag() error {
	bs, err := r.Buf.Peek(1)
	if err != nil {
		return err
	}
	ord, ok := ByteOrderForFlag(bs[0])
	if !ok {
		return fmt.Errorf("dbus/fragments: unknown byte order flag %q", bs[0])
	}
	r.Buf.Consume(1)
	r.offset++
	r.Order = ord
	return nil
}

// ReadLine scans for a CRLF-terminated ASCII line, used by the AUTH
// text phase. It returns the line without its terminator, consuming
// the line and the terminator. It returns ErrNeedMore until a CRLF
// has arrived in the buffer.
//
// ReadLine does not participate in message alignment and does not
// advance the Reader's offset counter.
func (r *Reader) ReadLine() (string, error) {
	bs, err := r.Buf.Peek(r.Buf.Len())
	if err != nil {
		// Len() bytes are always available by construction; this
		// branch only exists to satisfy the Peek contract.
		return "", ErrNeedMore
	}
	for i := 0; i+1 < len(bs); i++ {
		if bs[i] == '\r' && bs[i+1] == '\n' {
			line := string(bs[:i])
			r.Buf.Consume(i + 2)
			return line, nil
		}
	}
	return "", ErrNeedMore
}
