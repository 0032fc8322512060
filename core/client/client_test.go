package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"hardware-manager/core/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestClient(t *testing.T, h http.HandlerFunc, tokens TokenSource) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c := New(Config{BaseURL: srv.URL + "/", MaxRetries: 2}, tokens, zap.NewNop())
	c.retryDelay = time.Millisecond
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew_Defaults(t *testing.T) {
	c := New(Config{}, nil, nil)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
	assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)
	assert.Equal(t, "hardware-manager", c.userAgent)
	assert.Equal(t, rate.Inf, c.limiter.Limit())
}

func TestRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusOK, map[string]any{"hardwareSets": []any{}})
	}))
	t.Cleanup(srv.Close)

	c := New(Config{BaseURL: srv.URL, RateLimit: 0.5, Burst: 1}, nil, zap.NewNop())

	_, err := c.ListHardware(context.Background())
	require.NoError(t, err)

	// The next token is two seconds away, past the deadline
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.ListHardware(ctx)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestListHardware(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/hardware", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{
			"hardwareSets": []map[string]any{
				{"name": "HWSet1", "available": 100, "capacity": 100},
				{"name": "HWSet2", "available": 40, "capacity": 100},
			},
		})
	}, staticToken("tok"))

	sets, err := c.ListHardware(context.Background())
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.Equal(t, "HWSet2", sets[1].Name)
	assert.Equal(t, 40, sets[1].Available)
}

func TestCheckOut(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/hardware/checkout", r.URL.Path)
		var req CheckRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, CheckRequest{Name: "HWSet1", Amount: 30, ProjectID: "P1"}, req)
		writeJSON(w, http.StatusOK, map[string]int{"available": 70, "checked_out": 30})
	}, nil)

	resp, err := c.CheckOut(context.Background(), CheckRequest{Name: "HWSet1", Amount: 30, ProjectID: "P1"})
	require.NoError(t, err)
	require.NotNil(t, resp.Available)
	require.NotNil(t, resp.CheckedOut)
	assert.Equal(t, 70, *resp.Available)
	assert.Equal(t, 30, *resp.CheckedOut)
}

func TestCheckOut_ZeroIsConfirmed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]int{"available": 0, "checked_out": 100})
	}, nil)

	resp, err := c.CheckOut(context.Background(), CheckRequest{Name: "HWSet1", Amount: 100, ProjectID: "P1"})
	require.NoError(t, err)
	assert.Equal(t, 0, *resp.Available)
	assert.Equal(t, 100, *resp.CheckedOut)
}

func TestIncompleteConfirmation(t *testing.T) {
	bodies := map[string]any{
		"Empty":         map[string]any{},
		"MessageOnly":   map[string]string{"message": "ok"},
		"NoCheckedOut":  map[string]int{"available": 70},
		"NullAvailable": map[string]any{"available": nil, "checked_out": 30},
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, body)
			}, nil)

			_, err := c.CheckOut(context.Background(), CheckRequest{Name: "HWSet1", Amount: 30, ProjectID: "P1"})
			assert.ErrorIs(t, err, reconcile.ErrInvalidConfirmation)
		})
	}

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	}, nil)
	_, err := c.CheckIn(context.Background(), CheckRequest{Name: "HWSet1", Amount: 10, ProjectID: "P1"})
	assert.ErrorIs(t, err, reconcile.ErrInvalidConfirmation)
}

func TestCheckOut_RejectedIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"message": "busy"})
	}, nil)

	_, err := c.CheckOut(context.Background(), CheckRequest{Name: "HWSet1", Amount: 1, ProjectID: "P1"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "busy", Message(err))
}

func TestCheckIn_ErrorMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Insufficient hardware checked out"})
	}, nil)

	_, err := c.CheckIn(context.Background(), CheckRequest{Name: "HWSet1", Amount: 10, ProjectID: "P1"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Insufficient hardware checked out", apiErr.Message)
	assert.Contains(t, err.Error(), "status 400")
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"hardwareSets": []any{}})
	}, nil)

	sets, err := c.ListHardware(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sets)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}, nil)

	_, err := c.ListHardware(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries exceeded")
	assert.True(t, IsRetryable(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestUnauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "token expired"})
	}, staticToken("old"))

	_, err := c.CurrentUser(context.Background())
	assert.True(t, IsUnauthorized(err))
	assert.False(t, IsNotFound(err))
	assert.False(t, IsConflict(err))
}

func TestUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := New(Config{BaseURL: srv.URL}, nil, zap.NewNop())
	_, err := c.CheckOut(context.Background(), CheckRequest{Name: "HWSet1", Amount: 1, ProjectID: "P1"})
	assert.True(t, IsUnreachable(err))
	assert.Equal(t, "error connecting to server", Message(err))
}

func TestLoginAndProfile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			var creds Credentials
			require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
			assert.Equal(t, "testuser", creds.Username)
			writeJSON(w, http.StatusOK, map[string]string{"token": "abc", "message": "Login successful"})
		case "/home/user":
			writeJSON(w, http.StatusOK, map[string]string{"username": "testuser"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}, nil)

	login, err := c.Login(context.Background(), "testuser", "password123")
	require.NoError(t, err)
	assert.Equal(t, "abc", login.Token)
	assert.Equal(t, "Login successful", login.Message)

	profile, err := c.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "testuser", profile.Username())
}

func TestProjects(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/projects/alice":
			writeJSON(w, http.StatusOK, map[string]any{
				"projects": []map[string]any{{"id": "P1", "name": "Rover", "users": []string{"alice"}, "joined": true}},
			})
		case "/projects/addproject":
			var req AddProjectRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "alice", req.User)
			writeJSON(w, http.StatusOK, map[string]any{
				"projects": []map[string]any{
					{"id": "P1", "name": "Rover"},
					{"id": "P2", "name": req.Name, "description": req.Description, "users": []string{"alice"}},
				},
			})
		case "/projects/toggleproject":
			var req ToggleProjectRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			if req.ProjectID != "P1" {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "Project not found"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"message": "left", "new_status": false, "projects": []any{}})
		}
	}, nil)
	ctx := context.Background()

	projects, err := c.ListProjects(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.NotNil(t, projects[0].Hardware)

	projects, err = c.AddProject(ctx, AddProjectRequest{Name: "Probe", User: "alice", Description: "d"})
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "Probe", projects[1].Name)

	toggled, err := c.ToggleProject(ctx, "P1", "alice")
	require.NoError(t, err)
	assert.False(t, toggled.NewStatus)
	assert.NotNil(t, toggled.Projects)

	_, err = c.ToggleProject(ctx, "P9", "alice")
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "Project not found", Message(err))
}
