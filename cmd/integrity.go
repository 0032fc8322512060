package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"hardware-manager/feature/integrity"
	"hardware-manager/feature/integrity/checks"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var fixFlag bool
var jsonFlag bool

// integrityReport is the combined result written by --json.
type integrityReport struct {
	Remote  *checks.RemoteReport `json:"remote,omitempty"`
	Storage map[string]any       `json:"storage,omitempty"`
	Session *checks.SchemaReport `json:"session,omitempty"`
}

// integrityCmd represents the integrity command
var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Check the remote service, snapshot storage and session table",
	Long: `Runs every integrity check. The remote check fetches hardware sets and validates
their counts, the storage check looks for the snapshot bucket layout, and the session
check verifies the local session table schema.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrity(cmd, true, true, true)
	},
}

var integrityRemoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Check that the inventory service is reachable and consistent",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrity(cmd, true, false, false)
	},
}

var integrityStorageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Check and fix the snapshot bucket layout",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrity(cmd, false, true, false)
	},
}

var integritySessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Check the local session table schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrity(cmd, false, false, true)
	},
}

func runIntegrity(cmd *cobra.Command, remote, store, sess bool) error {
	ctx := cmd.Context()
	start := time.Now()

	rt, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	svc := rt.integrity()
	out := cmd.OutOrStdout()
	report := integrityReport{}
	failed := false

	if remote {
		rep, err := svc.CheckRemote(ctx)
		if err != nil {
			return fmt.Errorf("remote check failed: %w", err)
		}
		report.Remote = rep
		failed = failed || rep.Status != "ok"
		printRemote(out, rep)
	}

	if store {
		res, ok := checkStorage(ctx, out, svc, rt.logger)
		report.Storage = res
		failed = failed || !ok
	}

	if sess {
		rep, err := svc.CheckSession()
		switch {
		case err != nil:
			fmt.Fprintln(out, status(false, "Session table: "+err.Error()))
			failed = true
		default:
			report.Session = rep
			failed = failed || rep.Status != "ok"
			if rep.Status == "ok" {
				fmt.Fprintln(out, status(true, "Session table "+rep.Table+" has every column"))
			} else {
				fmt.Fprintln(out, status(false, fmt.Sprintf("Session table %s is missing %v", rep.Table, rep.MissingColumns)))
			}
		}
	}

	if jsonFlag {
		filename := fmt.Sprintf("integrity_%d.json", time.Now().Unix())
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		if err := os.WriteFile(filename, data, 0644); err != nil {
			return fmt.Errorf("failed to save JSON file: %w", err)
		}
		fmt.Fprintf(out, "\nDetailed JSON saved to: %s\n", filename)
	}

	rt.logger.Info("Integrity checks completed",
		zap.Bool("failed", failed),
		zap.Duration("execution_time", time.Since(start)),
	)
	if failed {
		return errors.New("integrity checks reported problems")
	}
	return nil
}

func printRemote(w io.Writer, rep *checks.RemoteReport) {
	if !rep.Reachable {
		fmt.Fprintln(w, status(false, "Remote service unreachable: "+rep.Error))
		return
	}

	t := newTable("CHECK", "RESULT")
	t.Row("latency", rep.Latency.Round(time.Millisecond).String())
	t.Row("hardware sets", strconv.Itoa(rep.HardwareSets))
	for _, name := range rep.Invalid {
		t.Row("invalid counts", errStyle.Render(name))
	}
	if rep.Error != "" {
		t.Row("error", errStyle.Render(rep.Error))
	}
	fmt.Fprintln(w, t.Render())
	fmt.Fprintln(w, status(rep.Status == "ok", "Remote service "+rep.Status))
}

func checkStorage(ctx context.Context, w io.Writer, svc *integrity.Service, logg *zap.Logger) (map[string]any, bool) {
	missing, err := svc.CheckStructure(ctx)
	res := map[string]any{"missing": missing}

	switch {
	case errors.Is(err, checks.ErrBucketMissing) && fixFlag:
		fmt.Fprintln(w, warnStyle.Render("Snapshot bucket missing, creating it"))
	case err != nil:
		res["error"] = err.Error()
		fmt.Fprintln(w, status(false, "Snapshot storage: "+err.Error()))
		return res, false
	case len(missing) == 0:
		fmt.Fprintln(w, status(true, "Snapshot storage layout is complete"))
		return res, true
	case !fixFlag:
		fmt.Fprintln(w, status(false, fmt.Sprintf("Snapshot storage is missing %v (run with --fix)", missing)))
		return res, false
	}

	if len(missing) == 0 {
		missing = checks.RequiredFolders
	}
	if err := svc.FixStructure(ctx, missing); err != nil {
		logg.Error("Failed to fix storage layout", zap.Error(err))
		res["error"] = err.Error()
		fmt.Fprintln(w, status(false, "Fix failed: "+err.Error()))
		return res, false
	}
	res["fixed"] = missing
	fmt.Fprintln(w, status(true, fmt.Sprintf("Created %v", missing)))
	return res, true
}

func init() {
	RootCmd.AddCommand(integrityCmd)
	integrityCmd.AddCommand(integrityRemoteCmd, integrityStorageCmd, integritySessionCmd)
	integrityCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Save a detailed JSON report")
	integrityCmd.PersistentFlags().BoolVar(&fixFlag, "fix", false, "Create missing storage folders")
}
