// Package query implements the query-string side of filter synchronization.
//
// [Values] is an ordered, mutable list of key/value pairs as found after the
// "?" of a URL. Each value holds the JSON literal of a filter field, so the
// string "bar" travels as the five characters "bar" including quotes while
// booleans and numbers travel as barewords.
//
// [Decode] rebuilds a filter object from Values: defaults form the base and
// every pair that parses and passes its field validator overrides them.
// Anything else is dropped without error.
package query
