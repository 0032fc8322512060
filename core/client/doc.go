// Package client implements the HTTP/JSON client for the remote inventory service.
//
// The service owns users, projects and hardware sets. This package only speaks its
// wire contract; it keeps no state beyond the bearer token supplied by a TokenSource.
//
// # Endpoints
//
//   - POST /login, POST /register
//   - GET /home/user (bearer token)
//   - GET /hardware, POST /hardware/checkout, POST /hardware/checkin
//   - GET /projects/{username}, POST /projects/addproject, POST /projects/toggleproject
//
// # Errors
//
// Non-2xx responses are returned as *APIError, with the message taken from the
// "error" or "message" field of the body. Transport failures wrap ErrUnreachable.
// Use IsUnauthorized to detect an expired session.
//
// # Retries
//
// GET requests are retried with exponential backoff and jitter on transport errors
// and 5xx/429 responses. POST requests are sent exactly once: a check-out that
// reached the server must not be replayed.
package client
