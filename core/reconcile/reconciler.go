package reconcile

import (
	"fmt"
	"slices"
	"sync"

	"hardware-manager/core/models"
)

// Reconciler is the client-held view of hardware sets and projects.
// It is safe for concurrent use; every mutation is serialized.
type Reconciler struct {
	mu sync.RWMutex

	user     string
	hardware map[string]models.HardwareSet
	order    []string
	projects []models.Project

	rows    map[string]RowState
	issued  map[string]uint64
	applied map[string]uint64

	// epoch is bumped by Reset so tickets issued before it are discarded.
	epoch uint64
}

// New creates an empty reconciler.
func New() *Reconciler {
	r := &Reconciler{issued: make(map[string]uint64)}
	r.clearLocked()
	return r
}

func (r *Reconciler) clearLocked() {
	r.hardware = make(map[string]models.HardwareSet)
	r.order = nil
	r.projects = nil
	r.rows = make(map[string]RowState)
	r.applied = make(map[string]uint64)
}

// Reset empties both collections and forgets the current user.
func (r *Reconciler) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.user = ""
	r.epoch++
	r.clearLocked()
}

// SetUser sets the username used for membership changes.
func (r *Reconciler) SetUser(username string) {
	r.mu.Lock()
	r.user = username
	r.mu.Unlock()
}

// User returns the current username.
func (r *Reconciler) User() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.user
}

// BeginRefresh must be called before fetching hardware sets. The returned ticket is
// passed to ApplyRefresh with the fetched sets.
func (r *Reconciler) BeginRefresh() RefreshTicket {
	r.mu.RLock()
	defer r.mu.RUnlock()

	applied := make(map[string]uint64, len(r.applied))
	for k, v := range r.applied {
		applied[k] = v
	}
	return RefreshTicket{applied: applied, epoch: r.epoch}
}

// ApplyRefresh replaces the hardware collection with a fetched one. Sets confirmed by a
// check-in or check-out after the ticket was taken keep their newer local value.
func (r *Reconciler) ApplyRefresh(t RefreshTicket, sets []models.HardwareSet) error {
	for _, s := range sets {
		if !s.Valid() {
			return fmt.Errorf("%w: %s reports %d/%d", ErrInvalidConfirmation, s.Name, s.Available, s.Capacity)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if t.epoch != r.epoch {
		return ErrStaleConfirmation
	}

	next := make(map[string]models.HardwareSet, len(sets))
	order := make([]string, 0, len(sets))
	for _, s := range sets {
		key := HardwareRow(s.Name)
		if r.applied[key] > t.applied[key] {
			if cur, ok := r.hardware[s.Name]; ok && cur.Capacity == s.Capacity {
				s.Available = cur.Available
			}
		}
		if _, dup := next[s.Name]; !dup {
			order = append(order, s.Name)
		}
		next[s.Name] = s
	}

	r.hardware = next
	r.order = order
	return nil
}

// ReplaceProjects replaces the project collection with an authoritative list.
func (r *Reconciler) ReplaceProjects(projects []models.Project) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replaceProjectsLocked(projects)
}

func (r *Reconciler) replaceProjectsLocked(projects []models.Project) {
	next := make([]models.Project, 0, len(projects))
	for _, p := range projects {
		next = append(next, p.Clone())
	}
	r.projects = next
}

// Hardware returns a copy of the hardware sets in fetch order.
func (r *Reconciler) Hardware() []models.HardwareSet {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.HardwareSet, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.hardware[name])
	}
	return out
}

// HardwareSet returns a single hardware set.
func (r *Reconciler) HardwareSet(name string) (models.HardwareSet, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.hardware[name]
	return s, ok
}

// Projects returns deep copies of the projects in server order.
func (r *Reconciler) Projects() []models.Project {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Project, 0, len(r.projects))
	for _, p := range r.projects {
		out = append(out, p.Clone())
	}
	return out
}

// Project returns a deep copy of a single project.
func (r *Reconciler) Project(id string) (models.Project, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.projectIndexLocked(id); i >= 0 {
		return r.projects[i].Clone(), true
	}
	return models.Project{}, false
}

func (r *Reconciler) projectIndexLocked(id string) int {
	return slices.IndexFunc(r.projects, func(p models.Project) bool { return p.ID == id })
}

// Row returns the request state of a row. Unknown rows are idle.
func (r *Reconciler) Row(key string) RowState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if st, ok := r.rows[key]; ok {
		return st
	}
	return RowState{Status: RowIdle}
}

// ValidateCheckOut checks a check-out before any request is sent.
func (r *Reconciler) ValidateCheckOut(name string, qty int, projectID string) error {
	if qty <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidQuantity, qty)
	}
	if projectID == "" {
		return ErrNoProject
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.hardware[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHardware, name)
	}
	if r.projectIndexLocked(projectID) < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownProject, projectID)
	}
	if qty > set.Available {
		return fmt.Errorf("%w: %d requested, %d available", ErrInsufficientAvailability, qty, set.Available)
	}
	return nil
}

// ValidateCheckIn checks a check-in before any request is sent. The bound is
// available + qty <= capacity.
func (r *Reconciler) ValidateCheckIn(name string, qty int, projectID string) error {
	if qty <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidQuantity, qty)
	}
	if projectID == "" {
		return ErrNoProject
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.hardware[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHardware, name)
	}
	if r.projectIndexLocked(projectID) < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownProject, projectID)
	}
	if qty > set.Capacity-set.Available {
		return fmt.Errorf("%w: %d + %d > %d", ErrExceedsCapacity, set.Available, qty, set.Capacity)
	}
	return nil
}

// Begin marks a row pending and issues a ticket for the request.
func (r *Reconciler) Begin(key string) (Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.beginLocked(key)
}

func (r *Reconciler) beginLocked(key string) (Ticket, error) {
	if r.rows[key].Status == RowPending {
		return Ticket{}, fmt.Errorf("%w: %s", ErrRowBusy, key)
	}
	r.issued[key]++
	r.rows[key] = RowState{Status: RowPending}
	return Ticket{Key: key, Subject: subject(key), Seq: r.issued[key], epoch: r.epoch}, nil
}

// Fail records a rejected or failed request. No collection is mutated.
func (r *Reconciler) Fail(t Ticket, cause error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failLocked(t, cause)
}

func (r *Reconciler) failLocked(t Ticket, cause error) {
	if t.epoch != r.epoch {
		return
	}
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	r.rows[t.Key] = RowState{Status: RowError, Error: msg}
}

// Finish returns a row to idle without applying anything.
func (r *Reconciler) Finish(t Ticket) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.epoch == r.epoch {
		r.rows[t.Key] = RowState{Status: RowIdle}
	}
}

// ApplyCheckOut applies a confirmed check-out: the hardware set takes the server's
// available value and the project's allocation takes the server's checked-out total.
func (r *Reconciler) ApplyCheckOut(t Ticket, projectID string, available, checkedOut int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t.epoch != r.epoch {
		return ErrStaleConfirmation
	}

	set, idx, err := r.confirmTargetLocked(t, projectID, available)
	if err != nil {
		return err
	}
	if checkedOut < 0 {
		err := fmt.Errorf("%w: checked out %d", ErrInvalidConfirmation, checkedOut)
		r.failLocked(t, err)
		return err
	}

	r.rows[t.Key] = RowState{Status: RowIdle}
	if t.Seq <= r.applied[t.Key] {
		return ErrStaleConfirmation
	}

	set.Available = available
	r.hardware[set.Name] = set
	r.projects[idx].Hardware[set.Name] = checkedOut
	r.applied[t.Key] = t.Seq
	return nil
}

// ApplyCheckIn applies a confirmed check-in: the hardware set takes the server's
// available value and the project's allocation drops by qty, floored at zero.
// A stale ticket still applies the allocation decrement but not the available value,
// and reports ErrStaleConfirmation.
func (r *Reconciler) ApplyCheckIn(t Ticket, projectID string, qty, available int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t.epoch != r.epoch {
		return ErrStaleConfirmation
	}

	set, idx, err := r.confirmTargetLocked(t, projectID, available)
	if err != nil {
		return err
	}

	r.rows[t.Key] = RowState{Status: RowIdle}
	r.projects[idx].Hardware[set.Name] = max(0, r.projects[idx].Hardware[set.Name]-qty)

	if t.Seq <= r.applied[t.Key] {
		return ErrStaleConfirmation
	}
	set.Available = available
	r.hardware[set.Name] = set
	r.applied[t.Key] = t.Seq
	return nil
}

// confirmTargetLocked resolves the hardware set and project a confirmation refers to
// and checks the confirmed available value against the set's bounds.
func (r *Reconciler) confirmTargetLocked(t Ticket, projectID string, available int) (models.HardwareSet, int, error) {
	set, ok := r.hardware[t.Subject]
	if !ok {
		err := fmt.Errorf("%w: %s", ErrUnknownHardware, t.Subject)
		r.failLocked(t, err)
		return set, -1, err
	}
	idx := r.projectIndexLocked(projectID)
	if idx < 0 {
		err := fmt.Errorf("%w: %s", ErrUnknownProject, projectID)
		r.failLocked(t, err)
		return set, -1, err
	}
	if available < 0 || available > set.Capacity {
		err := fmt.Errorf("%w: %s available %d of %d", ErrInvalidConfirmation, set.Name, available, set.Capacity)
		r.failLocked(t, err)
		return set, -1, err
	}
	if r.projects[idx].Hardware == nil {
		r.projects[idx].Hardware = make(map[string]int)
	}
	return set, idx, nil
}

// BeginToggle optimistically flips the current user's membership of a project.
func (r *Reconciler) BeginToggle(projectID string) (MembershipTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.user == "" {
		return MembershipTicket{}, ErrNoUser
	}
	idx := r.projectIndexLocked(projectID)
	if idx < 0 {
		return MembershipTicket{}, fmt.Errorf("%w: %s", ErrUnknownProject, projectID)
	}

	t, err := r.beginLocked(ProjectRow(projectID))
	if err != nil {
		return MembershipTicket{}, err
	}

	p := &r.projects[idx]
	mt := MembershipTicket{
		Ticket:     t,
		prevJoined: p.Joined,
	}

	p.Joined = !p.Joined
	if p.Joined {
		if !p.HasUser(r.user) {
			p.Users = append(p.Users, r.user)
		}
	} else {
		p.Users = slices.DeleteFunc(p.Users, func(u string) bool { return u == r.user })
	}
	mt.Joined = p.Joined
	return mt, nil
}

// ConfirmToggle completes a membership change. A non-nil project list from the
// server replaces the collection; otherwise the optimistic state is kept.
func (r *Reconciler) ConfirmToggle(t MembershipTicket, projects []models.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t.epoch != r.epoch {
		return ErrStaleConfirmation
	}
	if projects != nil {
		r.replaceProjectsLocked(projects)
	}
	r.rows[t.Key] = RowState{Status: RowIdle}
	return nil
}

// RollbackToggle undoes the current user's membership flip. Users added or
// removed by a concurrent replacement of the collection are left alone.
func (r *Reconciler) RollbackToggle(t MembershipTicket, cause error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t.epoch != r.epoch {
		return
	}
	if idx := r.projectIndexLocked(t.Subject); idx >= 0 {
		p := &r.projects[idx]
		p.Joined = t.prevJoined
		if t.prevJoined {
			if !p.HasUser(r.user) {
				p.Users = append(p.Users, r.user)
			}
		} else {
			p.Users = slices.DeleteFunc(p.Users, func(u string) bool { return u == r.user })
		}
	}
	r.failLocked(t.Ticket, cause)
}

// Audit reports, per hardware set, how far available plus the visible allocations
// are from capacity. It is diagnostic only and never mutates state.
func (r *Reconciler) Audit() AuditReport {
	r.mu.RLock()
	defer r.mu.RUnlock()

	report := AuditReport{Entries: make([]AuditEntry, 0, len(r.order)), Balanced: true}
	for _, name := range r.order {
		set := r.hardware[name]
		allocated := 0
		for _, p := range r.projects {
			allocated += p.Hardware[name]
		}
		e := AuditEntry{
			Name:      name,
			Capacity:  set.Capacity,
			Available: set.Available,
			Allocated: allocated,
			Drift:     set.Capacity - set.Available - allocated,
		}
		if e.Drift != 0 {
			report.Balanced = false
		}
		report.Entries = append(report.Entries, e)
	}
	return report
}
