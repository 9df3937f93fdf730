// Package builtin provides built-in functions for use in shapespec suite files.
//
// Available functions:
//   - isoDate(year, month, day, hours, minutes, seconds, ms): ISO 8601 UTC timestamp
//     of a local date; missing or zero parts default to 2000-01-01 00:00:00.000
//   - now(): Current time in RFC 3339
//   - timestamp(), timestampMs(): Current Unix time
//   - uuid(): Random UUID v4
//   - upper(value), lower(value): Change case
//   - base64(value), sha256(value): Encode a string
//   - env(name): Environment variable value
//
// Functions are invoked using the {{functionName(args)}} syntax in suite values.
package builtin
