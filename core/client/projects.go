package client

import (
	"context"
	"net/http"
	"net/url"

	"hardware-manager/core/models"
)

// AddProjectRequest is the request body for POST /projects/addproject.
type AddProjectRequest struct {
	Name        string `json:"name"`
	User        string `json:"user"`
	Description string `json:"description"`
}

// ToggleProjectRequest is the request body for POST /projects/toggleproject.
type ToggleProjectRequest struct {
	ProjectID string `json:"projectid"`
	User      string `json:"user"`
}

// ToggleProjectResponse is returned by POST /projects/toggleproject.
type ToggleProjectResponse struct {
	Message   string           `json:"message"`
	NewStatus bool             `json:"new_status"`
	Projects  []models.Project `json:"projects"`
}

type projectList struct {
	Projects []models.Project `json:"projects"`
}

// ListProjects fetches the projects visible to username.
func (c *Client) ListProjects(ctx context.Context, username string) ([]models.Project, error) {
	var resp projectList
	if err := c.doRequest(ctx, http.MethodGet, "/projects/"+url.PathEscape(username), nil, &resp); err != nil {
		return nil, err
	}
	return normalizeProjects(resp.Projects), nil
}

// AddProject creates a project and returns the full, server-assigned project list.
func (c *Client) AddProject(ctx context.Context, req AddProjectRequest) ([]models.Project, error) {
	var resp projectList
	if err := c.doRequest(ctx, http.MethodPost, "/projects/addproject", req, &resp); err != nil {
		return nil, err
	}
	return normalizeProjects(resp.Projects), nil
}

// ToggleProject flips the user's membership of a project.
func (c *Client) ToggleProject(ctx context.Context, projectID, user string) (*ToggleProjectResponse, error) {
	var resp ToggleProjectResponse
	req := ToggleProjectRequest{ProjectID: projectID, User: user}
	if err := c.doRequest(ctx, http.MethodPost, "/projects/toggleproject", req, &resp); err != nil {
		return nil, err
	}
	if resp.Projects != nil {
		resp.Projects = normalizeProjects(resp.Projects)
	}
	return &resp, nil
}

// normalizeProjects replaces nil users/hardware with empty collections.
func normalizeProjects(projects []models.Project) []models.Project {
	out := make([]models.Project, 0, len(projects))
	for _, p := range projects {
		out = append(out, p.Clone())
	}
	return out
}
