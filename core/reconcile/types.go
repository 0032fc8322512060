package reconcile

import "strings"

const (
	hardwareRowPrefix = "hardware/"
	projectRowPrefix  = "project/"

	// NewProjectRow is the row key used while a project is being created.
	NewProjectRow = projectRowPrefix + "new"
)

// HardwareRow returns the row key for a hardware set.
func HardwareRow(name string) string {
	return hardwareRowPrefix + name
}

// ProjectRow returns the row key for a project.
func ProjectRow(id string) string {
	return projectRowPrefix + id
}

// subject strips the row prefix from a row key.
func subject(key string) string {
	if s, ok := strings.CutPrefix(key, hardwareRowPrefix); ok {
		return s
	}
	return strings.TrimPrefix(key, projectRowPrefix)
}

// RowStatus is the request state of a single row.
type RowStatus string

const (
	// RowIdle means no request is outstanding.
	RowIdle RowStatus = "idle"
	// RowPending means a request was sent and has not completed.
	RowPending RowStatus = "pending"
	// RowError means the last request failed; values are unchanged.
	RowError RowStatus = "error"
)

// RowState is the request state of a row plus the last error message.
type RowState struct {
	Status RowStatus `json:"status"`
	Error  string    `json:"error,omitempty"`
}

// Ticket identifies one outstanding request on a row.
type Ticket struct {
	// Key is the row key (see HardwareRow and ProjectRow).
	Key string
	// Subject is the hardware set name or project ID the row refers to.
	Subject string
	// Seq is the per-row sequence number of the request.
	Seq uint64

	epoch uint64
}

// RefreshTicket records the applied sequence numbers when a hardware fetch was issued.
type RefreshTicket struct {
	applied map[string]uint64
	epoch   uint64
}

// MembershipTicket is returned by BeginToggle and holds what is needed to roll back.
type MembershipTicket struct {
	Ticket

	// Joined is the optimistic membership state after the toggle.
	Joined bool

	prevJoined bool
}

// AuditEntry describes the allocation balance of one hardware set.
type AuditEntry struct {
	Name      string `json:"name"`
	Capacity  int    `json:"capacity"`
	Available int    `json:"available"`
	// Allocated is the sum of the quantities held by the visible projects.
	Allocated int `json:"allocated"`
	// Drift is Capacity - Available - Allocated. A positive drift usually means
	// allocations held by projects this session cannot see.
	Drift int `json:"drift"`
}

// AuditReport summarizes the conservation balance across all hardware sets.
type AuditReport struct {
	Entries  []AuditEntry `json:"entries"`
	Balanced bool         `json:"balanced"`
}
