// Package filter implements the reconciliation engine that keeps a filter
// object in sync with a query representation.
//
// The [Engine] owns the authoritative filter object. The query string is the
// source of truth on construction; the in-memory object is the source of
// truth after [Engine.Apply] and [Engine.Reset]. Writes to the query string
// are lazy: [Engine.Data] checks for divergence on every call and commits
// the object back through the caller's [CommitFunc] only when the two
// disagree. Once committed, the next read finds no divergence, so
// reconciliation converges.
//
// [Profile] describes a filter schema declaratively (field kinds, defaults,
// countable and persistent fields) and builds engines from it.
package filter
