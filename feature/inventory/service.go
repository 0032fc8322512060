package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hardware-manager/core/client"
	"hardware-manager/core/models"
	"hardware-manager/core/reconcile"
	"hardware-manager/core/session"
	"hardware-manager/core/storage"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// API is the part of the remote inventory service used by this feature.
type API interface {
	CurrentUser(ctx context.Context) (client.UserProfile, error)
	ListHardware(ctx context.Context) ([]models.HardwareSet, error)
	CheckOut(ctx context.Context, req client.CheckRequest) (*client.CheckOutResponse, error)
	CheckIn(ctx context.Context, req client.CheckRequest) (*client.CheckInResponse, error)
	ListProjects(ctx context.Context, username string) ([]models.Project, error)
	AddProject(ctx context.Context, req client.AddProjectRequest) ([]models.Project, error)
	ToggleProject(ctx context.Context, projectID, user string) (*client.ToggleProjectResponse, error)
}

// Result describes the state of a hardware row after a check-in or check-out.
type Result struct {
	Hardware   models.HardwareSet `json:"hardware"`
	ProjectID  string             `json:"project_id"`
	CheckedOut int                `json:"checked_out"`
	// Stale is set when a newer confirmation for the same hardware set was already
	// applied, so the values shown are from that newer request.
	Stale bool `json:"stale,omitempty"`
}

// ToggleResult describes a completed membership change.
// Project is nil when the confirmed project list no longer contains it.
type ToggleResult struct {
	ProjectID string          `json:"project_id"`
	Project   *models.Project `json:"project,omitempty"`
	Joined    bool            `json:"joined"`
	Message   string          `json:"message,omitempty"`
}

// Service orchestrates inventory operations.
type Service struct {
	api     API
	session *session.Session
	state   *reconcile.Reconciler
	store   storage.Client
	bucket  string
	region  string
	logger  *zap.Logger
	group   singleflight.Group
}

// NewService creates an inventory service. store may be nil, which disables snapshots.
func NewService(api API, sess *session.Session, store storage.Client, bucket, region string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		api:     api,
		session: sess,
		state:   reconcile.New(),
		store:   store,
		bucket:  bucket,
		region:  region,
		logger:  logger.Named("inventory"),
	}
	sess.OnLogout(s.state.Reset)
	return s
}

// State exposes the reconciled view.
func (s *Service) State() *reconcile.Reconciler {
	return s.state
}

// requireSession fails when nobody is logged in and keeps the reconciler's user in
// step with the session.
func (s *Service) requireSession() (string, error) {
	user := s.session.Username()
	if user == "" || !s.session.Authenticated() {
		return "", ErrNotAuthenticated
	}
	if current := s.state.User(); current != user {
		if current != "" {
			s.state.Reset()
		}
		s.state.SetUser(user)
	}
	return user, nil
}

// remoteErr wraps a remote failure. A 401 ends the session.
func (s *Service) remoteErr(ctx context.Context, err error) error {
	if !client.IsUnauthorized(err) {
		return err
	}
	s.logger.Warn("Remote service rejected the session token, logging out")
	if logoutErr := s.session.Logout(context.WithoutCancel(ctx)); logoutErr != nil {
		s.logger.Error("Failed to clear stored session", zap.Error(logoutErr))
	}
	return fmt.Errorf("%w: %w", ErrSessionExpired, err)
}

// Load verifies the session against the remote service and fetches hardware sets and
// projects in parallel. Concurrent calls share one round of requests.
func (s *Service) Load(ctx context.Context) error {
	if _, err := s.requireSession(); err != nil {
		return err
	}
	_, err, _ := s.group.Do("load", func() (any, error) {
		// The flight is shared, so one caller's cancellation must not fail the others.
		ctx := context.WithoutCancel(ctx)
		if _, err := s.api.CurrentUser(ctx); err != nil {
			return nil, s.remoteErr(ctx, err)
		}
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return s.RefreshHardware(gctx) })
		g.Go(func() error { return s.RefreshProjects(gctx) })
		return nil, g.Wait()
	})
	return err
}

// RefreshHardware re-fetches the hardware sets.
func (s *Service) RefreshHardware(ctx context.Context) error {
	if _, err := s.requireSession(); err != nil {
		return err
	}
	_, err, _ := s.group.Do("hardware", func() (any, error) {
		ctx := context.WithoutCancel(ctx)
		ticket := s.state.BeginRefresh()
		sets, err := s.api.ListHardware(ctx)
		if err != nil {
			return nil, s.remoteErr(ctx, err)
		}
		err = s.state.ApplyRefresh(ticket, sets)
		if errors.Is(err, reconcile.ErrStaleConfirmation) {
			s.logger.Debug("Discarded hardware fetch for a reset view")
			return nil, nil
		}
		return nil, err
	})
	return err
}

// RefreshProjects re-fetches the projects visible to the operator.
func (s *Service) RefreshProjects(ctx context.Context) error {
	user, err := s.requireSession()
	if err != nil {
		return err
	}
	_, err, _ = s.group.Do("projects", func() (any, error) {
		ctx := context.WithoutCancel(ctx)
		projects, err := s.api.ListProjects(ctx, user)
		if err != nil {
			return nil, s.remoteErr(ctx, err)
		}
		if s.session.Username() != user {
			return nil, nil
		}
		s.state.ReplaceProjects(projects)
		return nil, nil
	})
	return err
}

// Hardware returns the hardware sets in fetch order.
func (s *Service) Hardware() []models.HardwareSet {
	return s.state.Hardware()
}

// Projects returns the projects in server order.
func (s *Service) Projects() []models.Project {
	return s.state.Projects()
}

// Row returns the request state of a row.
func (s *Service) Row(key string) reconcile.RowState {
	return s.state.Row(key)
}

// Audit returns the allocation drift report.
func (s *Service) Audit() reconcile.AuditReport {
	return s.state.Audit()
}

// CheckOut moves qty units of a hardware set to a project.
func (s *Service) CheckOut(ctx context.Context, name string, qty int, projectID string) (*Result, error) {
	if _, err := s.requireSession(); err != nil {
		return nil, err
	}
	if err := s.state.ValidateCheckOut(name, qty, projectID); err != nil {
		return nil, err
	}

	ticket, err := s.state.Begin(reconcile.HardwareRow(name))
	if err != nil {
		return nil, err
	}

	resp, err := s.api.CheckOut(ctx, client.CheckRequest{Name: name, Amount: qty, ProjectID: projectID})
	if err == nil && (resp == nil || resp.Available == nil || resp.CheckedOut == nil) {
		err = fmt.Errorf("%w: incomplete check-out response", reconcile.ErrInvalidConfirmation)
	}
	if errors.Is(err, reconcile.ErrInvalidConfirmation) {
		s.state.Fail(ticket, err)
		return s.confirm(ctx, ticket, projectID, err)
	}
	if err != nil {
		s.state.Fail(ticket, errors.New(client.Message(err)))
		s.logger.Warn("Check-out rejected", zap.String("hardware", name), zap.String("project", projectID), zap.Error(err))
		return nil, s.remoteErr(ctx, err)
	}

	err = s.state.ApplyCheckOut(ticket, projectID, *resp.Available, *resp.CheckedOut)
	return s.confirm(ctx, ticket, projectID, err)
}

// CheckIn returns qty units of a hardware set from a project.
func (s *Service) CheckIn(ctx context.Context, name string, qty int, projectID string) (*Result, error) {
	if _, err := s.requireSession(); err != nil {
		return nil, err
	}
	if err := s.state.ValidateCheckIn(name, qty, projectID); err != nil {
		return nil, err
	}

	ticket, err := s.state.Begin(reconcile.HardwareRow(name))
	if err != nil {
		return nil, err
	}

	resp, err := s.api.CheckIn(ctx, client.CheckRequest{Name: name, Amount: qty, ProjectID: projectID})
	if err == nil && (resp == nil || resp.Available == nil) {
		err = fmt.Errorf("%w: incomplete check-in response", reconcile.ErrInvalidConfirmation)
	}
	if errors.Is(err, reconcile.ErrInvalidConfirmation) {
		s.state.Fail(ticket, err)
		return s.confirm(ctx, ticket, projectID, err)
	}
	if err != nil {
		s.state.Fail(ticket, errors.New(client.Message(err)))
		s.logger.Warn("Check-in rejected", zap.String("hardware", name), zap.String("project", projectID), zap.Error(err))
		return nil, s.remoteErr(ctx, err)
	}

	err = s.state.ApplyCheckIn(ticket, projectID, qty, *resp.Available)
	return s.confirm(ctx, ticket, projectID, err)
}

// confirm turns the outcome of applying a confirmation into a Result. A stale
// confirmation still means the operation was committed remotely.
func (s *Service) confirm(ctx context.Context, ticket reconcile.Ticket, projectID string, err error) (*Result, error) {
	stale := false
	switch {
	case err == nil:
	case errors.Is(err, reconcile.ErrStaleConfirmation):
		s.logger.Debug("Discarded stale confirmation", zap.String("row", ticket.Key), zap.Uint64("seq", ticket.Seq))
		stale = true
	case errors.Is(err, reconcile.ErrInvalidConfirmation):
		s.logger.Warn("Remote service confirmed out-of-range values, re-fetching", zap.String("row", ticket.Key), zap.Error(err))
		if refreshErr := s.RefreshHardware(ctx); refreshErr != nil {
			s.logger.Error("Re-fetch after invalid confirmation failed", zap.Error(refreshErr))
		}
		return nil, err
	default:
		return nil, err
	}

	set, _ := s.state.HardwareSet(ticket.Subject)
	res := &Result{Hardware: set, ProjectID: projectID, Stale: stale}
	if p, ok := s.state.Project(projectID); ok {
		res.CheckedOut = p.CheckedOut(ticket.Subject)
	}
	return res, nil
}

// ToggleMembership joins or leaves a project. The change is shown immediately and
// rolled back if the remote service rejects it.
func (s *Service) ToggleMembership(ctx context.Context, projectID string) (*ToggleResult, error) {
	user, err := s.requireSession()
	if err != nil {
		return nil, err
	}

	ticket, err := s.state.BeginToggle(projectID)
	if err != nil {
		return nil, err
	}

	resp, err := s.api.ToggleProject(ctx, projectID, user)
	if err != nil {
		s.state.RollbackToggle(ticket, errors.New(client.Message(err)))
		s.logger.Warn("Membership change rejected", zap.String("project", projectID), zap.Error(err))
		return nil, s.remoteErr(ctx, err)
	}

	if err := s.state.ConfirmToggle(ticket, resp.Projects); err != nil {
		return nil, err
	}
	if resp.Projects == nil && resp.NewStatus != ticket.Joined {
		s.logger.Warn("Remote membership differs from the local toggle, re-fetching projects",
			zap.String("project", projectID), zap.Bool("joined", resp.NewStatus))
		if err := s.RefreshProjects(ctx); err != nil {
			return nil, err
		}
	}

	res := &ToggleResult{ProjectID: projectID, Joined: resp.NewStatus, Message: resp.Message}
	if project, ok := s.state.Project(projectID); ok {
		res.Project = &project
	} else {
		s.logger.Warn("Project missing from the confirmed project list", zap.String("project", projectID))
	}
	return res, nil
}

// AddProject creates a project owned by the operator and replaces the project list
// with the one returned by the remote service.
func (s *Service) AddProject(ctx context.Context, name, description string) ([]models.Project, error) {
	user, err := s.requireSession()
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrMissingName
	}

	ticket, err := s.state.Begin(reconcile.NewProjectRow)
	if err != nil {
		return nil, err
	}

	projects, err := s.api.AddProject(ctx, client.AddProjectRequest{Name: name, User: user, Description: description})
	if err != nil {
		s.state.Fail(ticket, errors.New(client.Message(err)))
		return nil, s.remoteErr(ctx, err)
	}

	s.state.ReplaceProjects(projects)
	s.state.Finish(ticket)
	s.logger.Info("Project created", zap.String("name", name), zap.String("user", user))
	return s.state.Projects(), nil
}
