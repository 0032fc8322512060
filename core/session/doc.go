// Package session holds the authenticated session as an explicit object.
//
// A Session carries the username and bearer token of the operator and is passed to
// every component that needs them (the remote client reads the token through the
// client.TokenSource interface). The token is persisted in a Store so the console and
// CLI survive restarts; GormStore keeps it in the local session database.
//
// # Lifecycle
//
//	sess := session.New(store, logger)
//	_ = sess.Restore(ctx)                   // load a previously stored token
//	_ = sess.Begin(ctx, "alice", token)     // after a successful login
//	sess.OnLogout(reconciler.Reset)         // dependent state
//	_ = sess.Logout(ctx)                    // explicit logout or a 401 from the service
//
// Logout always clears the in-memory session and runs the registered hooks, even when
// the store cannot be cleared; the store error is still returned.
package session
