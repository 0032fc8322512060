// Package integrity provides environment health checks for the hardware manager.
//
// It validates the collaborators the console depends on, not the inventory itself
// (the allocation audit lives in the inventory package).
//
// # Checks Provided
//
//   - Remote: The inventory service answers GET /hardware and every hardware set it
//     reports satisfies 0 <= available <= capacity.
//   - Storage: The snapshot bucket exists and contains the snapshots/ folder.
//   - Session: The sessions table has every column the session store writes.
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs all checks.
//   - GET /integrity/remote : Runs the remote check.
//   - GET /integrity/storage : Runs the storage check (supports ?fix=true).
//   - GET /integrity/session : Runs the session schema check.
package integrity
