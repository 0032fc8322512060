package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"hardware-manager/core/models"
	"hardware-manager/core/reconcile"
	"hardware-manager/feature/inventory"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by --output.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

var outputFormat string

// emit writes v as JSON or YAML when --output asks for it and reports whether it did.
func emit(w io.Writer, v any) (bool, error) {
	switch outputFormat {
	case formatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return true, fmt.Errorf("failed to encode output: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return true, err
	case formatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return true, fmt.Errorf("failed to encode output: %w", err)
		}
		_, err = w.Write(data)
		return true, err
	case formatTable, "":
		return false, nil
	default:
		return true, fmt.Errorf("unknown output format %q (want table, json or yaml)", outputFormat)
	}
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func renderHardware(w io.Writer, sets []models.HardwareSet, rows func(string) reconcile.RowState) {
	t := newTable("HARDWARE SET", "AVAILABLE", "CAPACITY", "STATE")
	for _, s := range sets {
		t.Row(s.Name, strconv.Itoa(s.Available), strconv.Itoa(s.Capacity), string(rows(reconcile.HardwareRow(s.Name)).Status))
	}
	fmt.Fprintln(w, t.Render())
}

func renderProjects(w io.Writer, projects []models.Project, hardware []models.HardwareSet) {
	headers := []string{"ID", "NAME", "MEMBERS", "JOINED"}
	for _, s := range hardware {
		headers = append(headers, s.Name)
	}

	t := newTable(headers...)
	for _, p := range projects {
		joined := "no"
		if p.Joined {
			joined = okStyle.Render("yes")
		}
		row := []string{p.ID, p.Name, strconv.Itoa(len(p.Users)), joined}
		for _, s := range hardware {
			row = append(row, strconv.Itoa(p.CheckedOut(s.Name)))
		}
		t.Row(row...)
	}
	fmt.Fprintln(w, t.Render())
}

func renderAudit(w io.Writer, report reconcile.AuditReport) {
	t := newTable("HARDWARE SET", "CAPACITY", "AVAILABLE", "ALLOCATED", "DRIFT")
	for _, e := range report.Entries {
		drift := strconv.Itoa(e.Drift)
		if e.Drift != 0 {
			drift = warnStyle.Render(drift)
		}
		t.Row(e.Name, strconv.Itoa(e.Capacity), strconv.Itoa(e.Available), strconv.Itoa(e.Allocated), drift)
	}
	fmt.Fprintln(w, t.Render())

	if report.Balanced {
		fmt.Fprintln(w, okStyle.Render("All hardware sets balance against the visible projects."))
	} else {
		fmt.Fprintln(w, warnStyle.Render("Drift detected: some units are held by projects not visible to this account."))
	}
}

func renderResult(w io.Writer, verb string, qty int, res *inventory.Result) {
	fmt.Fprintf(w, "%s %d x %s for project %s\n", verb, qty, res.Hardware.Name, res.ProjectID)
	fmt.Fprintf(w, "  available: %d/%d\n", res.Hardware.Available, res.Hardware.Capacity)
	fmt.Fprintf(w, "  checked out by project: %d\n", res.CheckedOut)
	if res.Stale {
		fmt.Fprintln(w, warnStyle.Render("  a newer confirmation was already applied; values shown are from it"))
	}
}

func renderSnapshots(w io.Writer, snaps []inventory.SnapshotInfo) {
	t := newTable("KEY", "SIZE", "LAST MODIFIED")
	for _, s := range snaps {
		t.Row(s.Key, strconv.FormatInt(s.Size, 10), s.LastModified.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintln(w, t.Render())
}

func status(ok bool, msg string) string {
	if ok {
		return okStyle.Render("✓ " + msg)
	}
	return errStyle.Render("✗ " + msg)
}
