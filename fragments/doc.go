// Package fragments provides the low-level, wire-format-agnostic
// pieces used to decode and encode DBus messages: a growable byte
// buffer with a transactional read cursor, and primitive readers and
// writers for the fixed-width integers, floats, and length-prefixed
// strings that make up the DBus type system.
//
// This package knows nothing about DBus messages, signatures, or
// values. It exists so that the decoder can be driven incrementally
// by whatever bytes a transport has made available so far: a Reader
// method that runs out of bytes returns [ErrNeedMore] and leaves its
// input unconsumed. Methods that validate what they read (strings,
// signatures, the byte order flag) can also fail with other errors.
package fragments
