// Package output renders filter objects as JSON or YAML, reads them back
// from either format, and writes results to stdout or files.
//
//   - Rendering (format.go): deterministic JSON/YAML with sorted keys.
//
//   - Reading (format.go): JSON or YAML documents decoded into a filter
//     object with JSON-compatible value types.
//
//   - Writers (writer.go): Pluggable output destinations via the [Writer]
//     interface, with [StdoutWriter] and [FileWriter] implementations.
package output
