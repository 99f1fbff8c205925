// Package server implements the RealWorld REST API on top of a session
// container (store.Container).
//
// Every request is bound to a session by the UNDOCUMENTED_DEMO_SESSION
// cookie. The session's bundle is resolved before the handler runs and its
// lock is held until the handler returns, so handlers work on a consistent
// view of one session without further locking.
//
// Key Components:
//
//   - Server: Owns the container, the router and the helpers below. Serve
//     runs an http.Server until the context is cancelled.
//
//   - Router: chi router with request ids, real ip, logging, metrics and
//     panic recovery. The credential routes (POST /users, POST /users/login)
//     check the Origin header and mint a session for clients without one.
//
//   - Authentication: HS256 tokens (golang-jwt) sent as "Authorization: Token
//     <jwt>". A token is only accepted while it is the latest token issued to
//     its user. Passwords are hashed with bcrypt.
//
//   - Session rate limit: the creation of new sessions is limited per client
//     (IPv4 address or IPv6 /64) with a token bucket.
//
//   - Metrics: session gauges and per route request counters and durations in
//     the Prometheus text format at /metrics.
//
// Usage Example:
//
//	config := common.DefaultServerConfig()
//	config.AllowedOrigins = []string{"http://localhost:3000"}
//
//	s, err := server.NewServer(config)
//	if err != nil {
//	  log.Fatal(err)
//	}
//	_ = s.Serve(ctx)
package server
