// Package api implements the HTTP REST API and WebSocket server for itemvault.
//
// This package provides:
//   - Signup, form login and token refresh endpoints
//   - Bearer-protected item CRUD under /items
//   - The audit trail query endpoint and a WebSocket item event stream
//   - Middleware stack (request ID, logging, metrics, recovery, CORS, body limit)
//   - Health and Prometheus endpoints
//
// # Security
//
// Every /items, /audit and WebSocket request needs a valid access token in
// the Authorization header. A missing token and an invalid one produce
// different messages; why a token was invalid is never revealed.
//
// # Lifecycle
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Store errors are translated to status codes here and nowhere else.
package api
