// Package dbus decodes and encodes DBus wire messages: the fixed
// 12-byte header, the header-field array, and a body whose shape is
// described by a type signature.
//
// Unlike a reflection-driven marshaler that maps Go struct types onto
// DBus signatures, this package represents every decoded value as a
// [Value]: a closed sum with one concrete Go type per DBus type. Code
// that handles a decoded value type-switches on it, the same way it
// would pattern-match a sum type.
//
// [Driver] drives the two-phase session a DBus transport actually
// speaks: a textual AUTH exchange followed by the binary message
// stream, fed by whatever-sized chunks the transport happens to
// deliver. [ReadMessage] and [EncodeMessage] are the single-message
// primitives underneath it, usable directly by anything that has
// already completed its own handshake.
//
// The package never blocks waiting for more input. Every decode
// operation either succeeds or reports that more bytes are needed,
// via [fragments.ErrNeedMore], leaving its input exactly as found.
package dbus
