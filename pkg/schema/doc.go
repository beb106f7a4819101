// Package schema declares tool argument schemas and validates arguments
// against them.
//
// Every tool describes its arguments with Field descriptors (name, type tag,
// wire width, required flag, nested fields). One routine, Validate, interprets
// all of them, and the same descriptors render the JSON Schema advertised to
// clients, so the advertised and enforced contracts cannot drift apart.
//
// Integers are checked against the width of the backend wire type: an int32
// port of 2^31 or a negative uint64 size is a ValidationError, never clamped.
// Raw arguments are decoded with json.Number so 64-bit values keep full
// precision.
package schema
