// Package value defines the typed values carried by network table topics.
//
// # Overview
//
// Every topic in the shared key-value namespace has a declared type. This package
// models that type as a Tag and the payload as a Value, a closed tagged union whose
// variant is fixed when the value is constructed:
//
//	v := value.Int(1)        // Tag() == TagInt
//	d := value.Double(1)     // Tag() == TagDouble, same literal, different topic type
//	e := value.Zero(value.TagStringArray) // empty array with a known element type
//
// Callers pick the constructor, so whole-number doubles, float-vs-double and empty
// arrays are never guessed from magnitude or contents.
//
// # Shape Tagging
//
// TagOf maps a Go runtime value onto a Tag. It is total over the supported shapes
// (bool, numbers, string, []byte, homogeneous slices and Value itself) and fails with
// ErrUnsupportedShape for everything else, including mixed []any slices and empty
// []any slices whose element type cannot be known.
//
// # Timestamps
//
// Timestamps are microseconds since the Unix epoch. Now mints one from the wall clock
// for local publishes; values read from the backend keep the backend's timestamp.
//
// # Wire Format
//
// A Timestamped value encodes as
//
//	{"type":"Double","value":1.5,"timestamp":1700000000000000}
//
// Decoding trusts the "type" field and accepts the backend's alias names
// (Boolean, ByteArray, BooleanArray, Protobuf).
package value
