// Package middleware groups the Fiber middleware installed in front of every console
// route.
//
//   - rayid: tags each request with an X-Ray-ID (reusing one sent by the caller) so
//     the log lines of a single check-out or refresh can be correlated.
//   - auth: requires the configured X-API-Key. With no key configured the console is
//     open, which is the default for a loopback listener.
//
// Order matters: rayid runs first so rejected requests are still traceable.
package middleware
