// Package reconcile holds the allocation reconciler: the in-memory view of hardware
// sets and projects that the console keeps consistent with the remote inventory service.
//
// The reconciler never computes availability itself. Every quantity it stores is an
// absolute value confirmed by the remote service, applied after the round trip succeeds.
// This keeps the conservation invariant
//
//	available + sum(project allocations) == capacity
//
// intact while other clients check hardware in and out concurrently.
//
// # Rows
//
// Each hardware set and each project is a "row" with a request state
// (idle, pending, error). A row accepts one outstanding request at a time; Begin
// returns ErrRowBusy while a request is pending. Rows of different hardware sets may
// be in flight simultaneously.
//
// # Ordering
//
// Every ticket issued by Begin carries a per-row sequence number. A confirmation whose
// sequence number is not newer than the last applied one for that row is discarded
// (ErrStaleConfirmation), so responses completing out of order never overwrite a newer
// value. Refreshes follow the same rule through RefreshTicket.
//
// # Membership
//
// Membership toggles are the one optimistic mutation: BeginToggle flips the project
// locally and RollbackToggle restores it if the remote service rejects the change.
//
// # Usage
//
//	r := reconcile.New()
//	r.SetUser("alice")
//	_ = r.ApplyRefresh(r.BeginRefresh(), sets)
//	r.ReplaceProjects(projects)
//
//	if err := r.ValidateCheckOut("HWSet1", 30, "P1"); err != nil {
//	    return err // nothing sent
//	}
//	t, err := r.Begin(reconcile.HardwareRow("HWSet1"))
//	// ... call the remote service ...
//	err = r.ApplyCheckOut(t, "P1", *resp.Available, *resp.CheckedOut)
package reconcile
