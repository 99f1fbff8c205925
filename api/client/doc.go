// Package client is a small HTTP client for the rwKV REST API.
//
// A Client remembers the session cookie assigned by the server and the token
// of the last Register or Login call. Failed requests return an *APIError
// carrying the status code and the error messages of the response.
//
// Usage Example:
//
//	c, err := client.NewClient(common.ClientConfig{
//	  Endpoint:      "http://localhost:8000",
//	  Origin:        "http://localhost:3000",
//	  TimeoutSecond: 10,
//	})
//	if err != nil {
//	  log.Fatal(err)
//	}
//
//	if _, err = c.Register(ctx, "alice", "alice@example.com", "secret"); err != nil {
//	  log.Fatal(err)
//	}
//	tags, err := c.Tags(ctx)
package client
