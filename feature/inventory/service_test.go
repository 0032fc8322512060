package inventory

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"hardware-manager/core/client"
	"hardware-manager/core/models"
	"hardware-manager/core/reconcile"
	"hardware-manager/core/session"
	"hardware-manager/core/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) CurrentUser(ctx context.Context) (client.UserProfile, error) {
	args := m.Called(ctx)
	if p, ok := args.Get(0).(client.UserProfile); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAPI) ListHardware(ctx context.Context) ([]models.HardwareSet, error) {
	args := m.Called(ctx)
	if s, ok := args.Get(0).([]models.HardwareSet); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAPI) CheckOut(ctx context.Context, req client.CheckRequest) (*client.CheckOutResponse, error) {
	args := m.Called(ctx, req)
	if r, ok := args.Get(0).(*client.CheckOutResponse); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAPI) CheckIn(ctx context.Context, req client.CheckRequest) (*client.CheckInResponse, error) {
	args := m.Called(ctx, req)
	if r, ok := args.Get(0).(*client.CheckInResponse); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAPI) ListProjects(ctx context.Context, username string) ([]models.Project, error) {
	args := m.Called(ctx, username)
	if p, ok := args.Get(0).([]models.Project); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAPI) AddProject(ctx context.Context, req client.AddProjectRequest) ([]models.Project, error) {
	args := m.Called(ctx, req)
	if p, ok := args.Get(0).([]models.Project); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAPI) ToggleProject(ctx context.Context, projectID, user string) (*client.ToggleProjectResponse, error) {
	args := m.Called(ctx, projectID, user)
	if r, ok := args.Get(0).(*client.ToggleProjectResponse); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func intPtr(i int) *int { return &i }

var unauthorized = &client.APIError{StatusCode: http.StatusUnauthorized, Message: "token expired"}

func seedHardware() []models.HardwareSet {
	return []models.HardwareSet{
		{Name: "HWSet1", Available: 100, Capacity: 100},
		{Name: "HWSet2", Available: 50, Capacity: 60},
	}
}

func seedProjects() []models.Project {
	return []models.Project{
		{ID: "P1", Name: "Rover", Users: []string{"alice"}, Hardware: map[string]int{}, Joined: true},
		{ID: "P2", Name: "Probe", Users: []string{"bob"}, Hardware: map[string]int{"HWSet2": 10}},
	}
}

// setupService returns a service whose view is loaded for user alice.
func setupService(t *testing.T) (*Service, *mockAPI, *mocks.Client, *session.Session) {
	t.Helper()
	ctx := context.Background()

	api := new(mockAPI)
	store := new(mocks.Client)
	sess := session.New(session.NewMemoryStore(), zap.NewNop())
	require.NoError(t, sess.Begin(ctx, "alice", "tok"))

	svc := NewService(api, sess, store, "hardware-manager", "", zap.NewNop())

	api.On("CurrentUser", mock.Anything).Return(client.UserProfile{"username": "alice"}, nil).Once()
	api.On("ListHardware", mock.Anything).Return(seedHardware(), nil).Once()
	api.On("ListProjects", mock.Anything, "alice").Return(seedProjects(), nil).Once()
	require.NoError(t, svc.Load(ctx))

	return svc, api, store, sess
}

func TestLoad(t *testing.T) {
	svc, api, _, _ := setupService(t)

	assert.Equal(t, seedHardware(), svc.Hardware())
	assert.Len(t, svc.Projects(), 2)
	assert.Equal(t, "alice", svc.State().User())
	api.AssertExpectations(t)
}

func TestLoad_NotAuthenticated(t *testing.T) {
	sess := session.New(session.NewMemoryStore(), nil)
	svc := NewService(new(mockAPI), sess, nil, "", "", nil)

	assert.ErrorIs(t, svc.Load(context.Background()), ErrNotAuthenticated)
}

func TestLoad_UnauthorizedLogsOut(t *testing.T) {
	svc, api, _, sess := setupService(t)

	api.On("CurrentUser", mock.Anything).Return(nil, unauthorized).Once()

	err := svc.Load(context.Background())
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.True(t, client.IsUnauthorized(err))
	assert.False(t, sess.Authenticated())
	assert.Empty(t, svc.Hardware())
	assert.Empty(t, svc.Projects())
}

func TestRefreshHardware_Idempotent(t *testing.T) {
	svc, api, _, _ := setupService(t)
	ctx := context.Background()

	api.On("ListHardware", mock.Anything).Return(seedHardware(), nil).Twice()

	require.NoError(t, svc.RefreshHardware(ctx))
	first := svc.Hardware()
	require.NoError(t, svc.RefreshHardware(ctx))
	assert.Equal(t, first, svc.Hardware())
}

func TestCheckOutThenCheckIn(t *testing.T) {
	svc, api, _, _ := setupService(t)
	ctx := context.Background()

	api.On("CheckOut", mock.Anything, client.CheckRequest{Name: "HWSet1", Amount: 30, ProjectID: "P1"}).
		Return(&client.CheckOutResponse{Available: intPtr(70), CheckedOut: intPtr(30)}, nil).Once()

	res, err := svc.CheckOut(ctx, "HWSet1", 30, "P1")
	require.NoError(t, err)
	assert.Equal(t, 70, res.Hardware.Available)
	assert.Equal(t, 30, res.CheckedOut)
	assert.False(t, res.Stale)

	api.On("CheckIn", mock.Anything, client.CheckRequest{Name: "HWSet1", Amount: 10, ProjectID: "P1"}).
		Return(&client.CheckInResponse{Available: intPtr(80)}, nil).Once()

	res, err = svc.CheckIn(ctx, "HWSet1", 10, "P1")
	require.NoError(t, err)
	assert.Equal(t, 80, res.Hardware.Available)
	assert.Equal(t, 20, res.CheckedOut)
	assert.Equal(t, reconcile.RowIdle, svc.Row(reconcile.HardwareRow("HWSet1")).Status)
	api.AssertExpectations(t)
}

func TestCheckOut_ValidationSendsNothing(t *testing.T) {
	svc, api, _, _ := setupService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		qty     int
		project string
		want    error
	}{
		{"TooMany", 150, "P1", reconcile.ErrInsufficientAvailability},
		{"Zero", 0, "P1", reconcile.ErrInvalidQuantity},
		{"NoProject", 5, "", reconcile.ErrNoProject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CheckOut(ctx, "HWSet1", tt.qty, tt.project)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, 400, StatusFor(err))
		})
	}

	api.AssertNotCalled(t, "CheckOut", mock.Anything, mock.Anything)
	set, _ := svc.State().HardwareSet("HWSet1")
	assert.Equal(t, 100, set.Available)
}

func TestCheckIn_ExceedsCapacity(t *testing.T) {
	svc, api, _, _ := setupService(t)

	_, err := svc.CheckIn(context.Background(), "HWSet2", 11, "P2")
	assert.ErrorIs(t, err, reconcile.ErrExceedsCapacity)
	api.AssertNotCalled(t, "CheckIn", mock.Anything, mock.Anything)
}

func TestCheckOut_RejectedLeavesState(t *testing.T) {
	svc, api, _, _ := setupService(t)

	api.On("CheckOut", mock.Anything, mock.Anything).
		Return(nil, &client.APIError{StatusCode: http.StatusBadRequest, Message: "Insufficient hardware available"}).Once()

	_, err := svc.CheckOut(context.Background(), "HWSet1", 30, "P1")
	require.Error(t, err)
	assert.Equal(t, 502, StatusFor(err))

	set, _ := svc.State().HardwareSet("HWSet1")
	assert.Equal(t, 100, set.Available)
	row := svc.Row(reconcile.HardwareRow("HWSet1"))
	assert.Equal(t, reconcile.RowError, row.Status)
	assert.Equal(t, "Insufficient hardware available", row.Error)
}

func TestCheckIn_UnauthorizedLogsOut(t *testing.T) {
	svc, api, _, sess := setupService(t)

	api.On("CheckIn", mock.Anything, mock.Anything).Return(nil, unauthorized).Once()

	_, err := svc.CheckIn(context.Background(), "HWSet2", 5, "P2")
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, 401, StatusFor(err))
	assert.False(t, sess.Authenticated())
	assert.Empty(t, svc.Hardware())
}

func TestCheckOut_InvalidConfirmationRefetches(t *testing.T) {
	svc, api, _, _ := setupService(t)

	api.On("CheckOut", mock.Anything, mock.Anything).
		Return(&client.CheckOutResponse{Available: intPtr(120), CheckedOut: intPtr(5)}, nil).Once()
	refreshed := seedHardware()
	refreshed[0].Available = 95
	api.On("ListHardware", mock.Anything).Return(refreshed, nil).Once()

	_, err := svc.CheckOut(context.Background(), "HWSet1", 5, "P1")
	assert.ErrorIs(t, err, reconcile.ErrInvalidConfirmation)
	assert.Equal(t, 502, StatusFor(err))

	set, _ := svc.State().HardwareSet("HWSet1")
	assert.Equal(t, 95, set.Available)
	api.AssertExpectations(t)
}

func TestIncompleteConfirmationRefetches(t *testing.T) {
	refreshed := seedHardware()
	refreshed[0].Available = 95

	t.Run("CheckOutClientError", func(t *testing.T) {
		svc, api, _, _ := setupService(t)
		api.On("CheckOut", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("%w: check-out response lacks available or checked_out", reconcile.ErrInvalidConfirmation)).Once()
		api.On("ListHardware", mock.Anything).Return(refreshed, nil).Once()

		_, err := svc.CheckOut(context.Background(), "HWSet1", 5, "P1")
		assert.ErrorIs(t, err, reconcile.ErrInvalidConfirmation)
		assert.Equal(t, 502, StatusFor(err))

		set, _ := svc.State().HardwareSet("HWSet1")
		assert.Equal(t, 95, set.Available)
		assert.Equal(t, reconcile.RowError, svc.Row(reconcile.HardwareRow("HWSet1")).Status)
		api.AssertExpectations(t)
	})

	t.Run("CheckOutMissingField", func(t *testing.T) {
		svc, api, _, _ := setupService(t)
		api.On("CheckOut", mock.Anything, mock.Anything).
			Return(&client.CheckOutResponse{Available: intPtr(95)}, nil).Once()
		api.On("ListHardware", mock.Anything).Return(refreshed, nil).Once()

		_, err := svc.CheckOut(context.Background(), "HWSet1", 5, "P1")
		assert.ErrorIs(t, err, reconcile.ErrInvalidConfirmation)

		p, _ := svc.State().Project("P1")
		assert.Zero(t, p.Hardware["HWSet1"])
		assert.Equal(t, reconcile.RowError, svc.Row(reconcile.HardwareRow("HWSet1")).Status)
		api.AssertExpectations(t)
	})

	t.Run("CheckInEmptyBody", func(t *testing.T) {
		svc, api, _, _ := setupService(t)
		api.On("CheckIn", mock.Anything, mock.Anything).Return(&client.CheckInResponse{}, nil).Once()
		api.On("ListHardware", mock.Anything).Return(seedHardware(), nil).Once()

		_, err := svc.CheckIn(context.Background(), "HWSet2", 5, "P2")
		assert.ErrorIs(t, err, reconcile.ErrInvalidConfirmation)
		assert.Equal(t, 502, StatusFor(err))

		set, _ := svc.State().HardwareSet("HWSet2")
		assert.Equal(t, 50, set.Available)
		p, _ := svc.State().Project("P2")
		assert.Equal(t, 10, p.Hardware["HWSet2"])
		assert.Equal(t, reconcile.RowError, svc.Row(reconcile.HardwareRow("HWSet2")).Status)
		api.AssertExpectations(t)
	})
}

func TestToggleMembership_Confirmed(t *testing.T) {
	svc, api, _, _ := setupService(t)

	joined := seedProjects()
	joined[1].Users = append(joined[1].Users, "alice")
	joined[1].Joined = true
	api.On("ToggleProject", mock.Anything, "P2", "alice").
		Return(&client.ToggleProjectResponse{Message: "joined", NewStatus: true, Projects: joined}, nil).Once()

	res, err := svc.ToggleMembership(context.Background(), "P2")
	require.NoError(t, err)
	assert.True(t, res.Joined)
	require.NotNil(t, res.Project)
	assert.True(t, res.Project.HasUser("alice"))
	assert.Equal(t, "joined", res.Message)
	assert.Equal(t, reconcile.RowIdle, svc.Row(reconcile.ProjectRow("P2")).Status)
}

func TestToggleMembership_RolledBack(t *testing.T) {
	svc, api, _, _ := setupService(t)

	api.On("ToggleProject", mock.Anything, "P2", "alice").
		Return(nil, &client.APIError{StatusCode: http.StatusNotFound, Message: "Project not found"}).Once()

	_, err := svc.ToggleMembership(context.Background(), "P2")
	require.Error(t, err)

	p, ok := svc.State().Project("P2")
	require.True(t, ok)
	assert.False(t, p.Joined)
	assert.Equal(t, []string{"bob"}, p.Users)
	assert.Equal(t, reconcile.RowError, svc.Row(reconcile.ProjectRow("P2")).Status)
}

func TestToggleMembership_StatusMismatchRefetches(t *testing.T) {
	svc, api, _, _ := setupService(t)

	api.On("ToggleProject", mock.Anything, "P2", "alice").
		Return(&client.ToggleProjectResponse{NewStatus: false}, nil).Once()
	api.On("ListProjects", mock.Anything, "alice").Return(seedProjects(), nil).Once()

	res, err := svc.ToggleMembership(context.Background(), "P2")
	require.NoError(t, err)
	assert.False(t, res.Joined)
	require.NotNil(t, res.Project)
	assert.False(t, res.Project.Joined)
	api.AssertExpectations(t)
}

func TestToggleMembership_ProjectGoneAfterConfirm(t *testing.T) {
	svc, api, _, _ := setupService(t)

	api.On("ToggleProject", mock.Anything, "P2", "alice").
		Return(&client.ToggleProjectResponse{NewStatus: true, Projects: seedProjects()[:1]}, nil).Once()

	res, err := svc.ToggleMembership(context.Background(), "P2")
	require.NoError(t, err)
	assert.Nil(t, res.Project)
	assert.Equal(t, "P2", res.ProjectID)
	assert.True(t, res.Joined)
	assert.Len(t, svc.Projects(), 1)
}

func TestLoad_CancelledCallerDoesNotAbortFlight(t *testing.T) {
	api := new(mockAPI)
	sess := session.New(session.NewMemoryStore(), zap.NewNop())
	require.NoError(t, sess.Begin(context.Background(), "alice", "tok"))
	svc := NewService(api, sess, new(mocks.Client), "hardware-manager", "", zap.NewNop())

	live := mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil })
	api.On("CurrentUser", live).Return(client.UserProfile{"username": "alice"}, nil).Once()
	api.On("ListHardware", live).Return(seedHardware(), nil).Once()
	api.On("ListProjects", live, "alice").Return(seedProjects(), nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, svc.Load(ctx))
	assert.Len(t, svc.Hardware(), 2)
	assert.Len(t, svc.Projects(), 2)
	api.AssertExpectations(t)
}

func TestAddProject(t *testing.T) {
	svc, api, _, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.AddProject(ctx, "  ", "d")
	assert.ErrorIs(t, err, ErrMissingName)

	created := append(seedProjects(), models.Project{ID: "P3", Name: "Lander", Users: []string{"alice"}})
	api.On("AddProject", mock.Anything, client.AddProjectRequest{Name: "Lander", User: "alice", Description: "moon"}).
		Return(created, nil).Once()

	projects, err := svc.AddProject(ctx, "Lander", "moon")
	require.NoError(t, err)
	require.Len(t, projects, 3)
	assert.Equal(t, "P3", projects[2].ID)
	assert.NotNil(t, projects[2].Hardware)
	assert.Equal(t, reconcile.RowIdle, svc.Row(reconcile.NewProjectRow).Status)
}

func TestAudit(t *testing.T) {
	svc, _, _, _ := setupService(t)

	report := svc.Audit()
	require.Len(t, report.Entries, 2)
	assert.True(t, report.Balanced)
	assert.Equal(t, 10, report.Entries[1].Allocated)
}

func TestLogoutResetsView(t *testing.T) {
	svc, _, _, sess := setupService(t)

	require.NoError(t, sess.Logout(context.Background()))
	assert.Empty(t, svc.Hardware())
	assert.Empty(t, svc.Projects())
	assert.Equal(t, "", svc.State().User())
}
