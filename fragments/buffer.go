package fragments

import "fmt"

// ErrNeedMore is returned by any Buffer or Reader operation that
// cannot complete because the requested bytes have not yet arrived
// from the transport. It is not a protocol error: callers should
// retry the same operation once more bytes have been appended to the
// Buffer.
//
// Operations that return ErrNeedMore never consume any input. The
// read cursor is left exactly where it was before the call.
var ErrNeedMore = fmt.Errorf("dbus/fragments: need more data")

// A Buffer is a growable window of bytes with a read cursor, fed
// incrementally by a transport and drained incrementally by a
// decoder.
//
// Buffer is the owner of the memory backing a decode session: chunks
// arrive via Append, and bytes already consumed by the cursor are
// reclaimed by Compact. A Buffer is not safe for concurrent use; it is
// meant to be owned by a single decoding loop.
type Buffer struct {
	buf    []byte
	cursor int
}

// Append adds bs to the tail of the buffer. The slice is copied; the
// caller may reuse bs after Append returns.
func (b *Buffer) Append(bs []byte) {
	b.buf = append(b.buf, bs...)
}

// Len reports the number of unconsumed bytes remaining in the buffer.
func (b *Buffer) Len() int {
	return len(b.buf) - b.cursor
}

// Peek returns the next n unconsumed bytes without advancing the
// cursor. It returns ErrNeedMore if fewer than n bytes are available.
//
// The returned slice aliases the Buffer's internal storage and is
// only valid until the next Append or Compact call.
func (b *Buffer) Peek(n int) ([]byte, error) {
	if n < 0 {
		panic("fragments: negative Peek length")
	}
	if b.Len() < n {
		return nil, ErrNeedMore
	}
	return b.buf[b.cursor : b.cursor+n], nil
}

// Consume advances the cursor by n bytes. It panics if n exceeds the
// number of unconsumed bytes; callers must Peek (or otherwise know
// the data is present) before consuming it.
func (b *Buffer) Consume(n int) {
	if n < 0 || n > b.Len() {
		panic("fragments: Consume past end of buffer")
	}
	b.cursor += n
}

// Mark is a savepoint for the Buffer's read cursor, produced by
// [Buffer.Savepoint] and consumed by [Buffer.Rollback].
type Mark int

// Savepoint returns a Mark representing the current cursor position.
// A parse that may fail partway through should take a Savepoint
// first, and Rollback to it on failure, so that a failed parse
// consumes no bytes.
func (b *Buffer) Savepoint() Mark {
	return Mark(b.cursor)
}

// Rollback restores the cursor to a previously taken Mark, undoing
// any Consume calls made since. Bytes are never un-appended; Rollback
// only rewinds the read cursor.
func (b *Buffer) Rollback(m Mark) {
	b.cursor = int(m)
}

// Compact discards bytes before the cursor and resets the cursor to
// zero. Callers should Compact after each fully emitted message, to
// bound resident memory to roughly one message in flight.
func (b *Buffer) Compact() {
	if b.cursor == 0 {
		return
	}
	n := copy(b.buf, b.buf[b.cursor:])
	b.buf = b.buf[:n]
	b.cursor = 0
}
