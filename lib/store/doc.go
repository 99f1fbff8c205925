// Package store holds the per-session data of the RealWorld API and the
// container that maps sessions to their data.
//
// Key Components:
//
//   - Records: User, Article and Comment. They are stored as pointers, so a
//     record returned by a lookup can be mutated in place.
//
//   - Bundle: The isolated data set of one session. It owns three bounded
//     tables (users, articles, comments) and two bounded link indexes
//     (follows, favorites). Every collection evicts its least recently used
//     entry when full. The bundle embeds a mutex that a request holds for its
//     whole duration, cascading deletes (DeleteArticle) rely on it.
//
//   - Container: Maps session tokens to bundles. Sessions are ordered by last
//     access in an indexed min-heap (util.MapHeap), the least recently
//     accessed session is dropped once MaxSessions is reached. With isolation
//     disabled all callers share a single bundle, an empty token gets a
//     throwaway bundle that is never stored.
//
// Capacities are configured through Limits. Eviction is silent: callers
// cannot observe it other than by a later lookup failing.
package store
