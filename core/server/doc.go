// Package server holds the console HTTP server configuration.
//
// The cmd package starts the Fiber application; this package only defines where it
// listens, the optional API key protecting it, and the per-request timeout applied
// to console requests (which include a round trip to the remote inventory service).
package server
