package checks

import (
	"context"
	"fmt"
	"time"

	"hardware-manager/core/client"
	"hardware-manager/core/models"
)

// HardwareLister is satisfied by the remote inventory client.
type HardwareLister interface {
	ListHardware(ctx context.Context) ([]models.HardwareSet, error)
}

// RemoteReport is the result of probing the remote inventory service.
type RemoteReport struct {
	Reachable    bool          `json:"reachable"`
	Latency      time.Duration `json:"latency_ns"`
	HardwareSets int           `json:"hardware_sets"`
	// Invalid lists hardware sets reported with available outside [0, capacity].
	Invalid []string `json:"invalid"`
	Error   string   `json:"error,omitempty"`
	Status  string   `json:"status"` // "ok", "error"
}

// CheckRemote fetches the hardware sets and validates their bounds. An unreachable
// service is reported, not returned as an error; other failures are returned.
func CheckRemote(ctx context.Context, api HardwareLister) (*RemoteReport, error) {
	report := &RemoteReport{Invalid: []string{}, Status: "ok"}

	start := time.Now()
	sets, err := api.ListHardware(ctx)
	report.Latency = time.Since(start)

	if err != nil {
		if client.IsUnreachable(err) {
			report.Status = "error"
			report.Error = client.Message(err)
			return report, nil
		}
		return nil, fmt.Errorf("failed to list hardware sets: %w", err)
	}

	report.Reachable = true
	report.HardwareSets = len(sets)
	for _, s := range sets {
		if !s.Valid() {
			report.Invalid = append(report.Invalid, fmt.Sprintf("%s: %d/%d", s.Name, s.Available, s.Capacity))
			report.Status = "error"
		}
	}
	return report, nil
}
