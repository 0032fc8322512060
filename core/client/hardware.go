package client

import (
	"context"
	"fmt"
	"net/http"

	"hardware-manager/core/models"
	"hardware-manager/core/reconcile"
)

// CheckRequest is the request body for check-in and check-out.
type CheckRequest struct {
	Name      string `json:"name"`
	Amount    int    `json:"amount"`
	ProjectID string `json:"projectId"`
}

// CheckOutResponse carries the post-operation values confirmed by the service.
// Both fields are required; a 2xx body lacking either is rejected.
type CheckOutResponse struct {
	// Available is the new available count of the hardware set.
	Available *int `json:"available"`
	// CheckedOut is the project's new total for the hardware set.
	CheckedOut *int `json:"checked_out"`
}

// CheckInResponse carries the new available count confirmed by the service.
type CheckInResponse struct {
	Available *int `json:"available"`
}

type hardwareList struct {
	HardwareSets []models.HardwareSet `json:"hardwareSets"`
}

// ListHardware fetches every hardware set.
func (c *Client) ListHardware(ctx context.Context) ([]models.HardwareSet, error) {
	var resp hardwareList
	if err := c.doRequest(ctx, http.MethodGet, "/hardware", nil, &resp); err != nil {
		return nil, err
	}
	if resp.HardwareSets == nil {
		return []models.HardwareSet{}, nil
	}
	return resp.HardwareSets, nil
}

// CheckOut moves units from a hardware set to a project.
func (c *Client) CheckOut(ctx context.Context, req CheckRequest) (*CheckOutResponse, error) {
	var resp CheckOutResponse
	if err := c.doRequest(ctx, http.MethodPost, "/hardware/checkout", req, &resp); err != nil {
		return nil, err
	}
	if resp.Available == nil || resp.CheckedOut == nil {
		return nil, fmt.Errorf("%w: check-out response lacks available or checked_out", reconcile.ErrInvalidConfirmation)
	}
	return &resp, nil
}

// CheckIn returns units from a project to a hardware set.
func (c *Client) CheckIn(ctx context.Context, req CheckRequest) (*CheckInResponse, error) {
	var resp CheckInResponse
	if err := c.doRequest(ctx, http.MethodPost, "/hardware/checkin", req, &resp); err != nil {
		return nil, err
	}
	if resp.Available == nil {
		return nil, fmt.Errorf("%w: check-in response lacks available", reconcile.ErrInvalidConfirmation)
	}
	return &resp, nil
}
