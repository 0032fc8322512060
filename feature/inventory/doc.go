// Package inventory drives hardware check-in/check-out and project membership.
//
// The Service composes the remote inventory client, the operator session and the
// allocation reconciler. Every mutation follows the same path:
//
//  1. Validate locally. Failures are returned before any request is sent.
//  2. Mark the row pending. A second submission on the same row is rejected.
//  3. Call the remote service.
//  4. Apply the server-confirmed values, or mark the row failed and leave state untouched.
//
// A 401 from the remote service ends the session: the stored token is cleared and the
// reconciled view is emptied.
//
// # HTTP Endpoints
//
//   - GET  /inventory/hardware : Hardware sets with their row state.
//   - POST /inventory/hardware/:name/checkout : Check out {amount, project_id}.
//   - POST /inventory/hardware/:name/checkin : Check in {amount, project_id}.
//   - GET  /inventory/projects : Projects visible to the operator.
//   - POST /inventory/projects : Create a project {name, description}.
//   - POST /inventory/projects/:id/toggle : Join or leave a project.
//   - POST /inventory/refresh : Re-fetch hardware sets and projects.
//   - GET  /inventory/audit : Allocation drift report.
//   - GET  /inventory/rows/* : Request state of a single row.
//   - POST /inventory/snapshots : Export the current view to object storage.
//   - GET  /inventory/snapshots : List exported snapshots.
package inventory
