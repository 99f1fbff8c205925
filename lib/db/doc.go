// Package db provides the bounded in-memory building blocks every session of
// the store is made of.
//
// The package focuses on:
//   - Canonical identifiers for all keys (NormalizeID)
//   - Fixed memory per collection through hard capacities
//   - Silent least-recently-used eviction instead of write errors
//
// Key Components:
//
//   - NormalizeID: Converts integers and strings into the canonical string
//     key. Integers are rendered in decimal, strings longer than the maximum
//     id length and all other types are rejected with ErrInvalidIdentifier.
//
//   - Table: A generic, capacity-bounded collection of records. Records get
//     decimal ids from a counter that starts at 1 and is never reused. Inserts
//     and reads move a record to the most recently used position, an insert
//     that overshoots the capacity evicts the least recently used record.
//     Listing operations return records in insertion (id) order and never
//     affect recency.
//
//   - LinkIndex: A capacity-bounded, ordered set of directed edges between
//     ids (follows, favorites). Re-adding an edge refreshes it, adding to a
//     full index drops the oldest edge. Capacity zero disables the index.
//
//   - Error: A structured error carrying a RetCode. errors.Is matches by
//     code, so callers can test against the exported sentinels.
//
// Recency tracking for both Table and LinkIndex is backed by
// github.com/hashicorp/golang-lru/simplelru.
//
// None of the types in this package are safe for concurrent use. The store
// package serializes access per session.
//
// Related Packages:
//
// The util package (github.com/ValentinKolb/rwKV/lib/db/util) provides the
// indexed priority heap used to evict whole sessions and the statistics
// helpers used for reporting.
package db
