// Package util provides supporting data structures for the store.
//
// The package contains:
//   - mapheap: An indexed min priority queue (MapHeap) that supports key-based
//     access and in-place priority updates. The session container uses it to
//     find and evict the least recently accessed session.
//   - statistics: Helpers computing mean, deviation and a distribution quality
//     score, used to report how records are spread across sessions.
package util
