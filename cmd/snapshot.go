package cmd

import (
	"fmt"

	"hardware-manager/core/reconcile"

	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Export the reconciled view to object storage",
}

var snapshotExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the current hardware, projects and audit to the snapshot bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.close()

		svc, err := rt.loadedInventory(cmd.Context())
		if err != nil {
			return err
		}

		info, err := svc.ExportSnapshot(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), status(true, fmt.Sprintf("Snapshot written to %s (%d bytes)", info.Key, info.Size)))
		return nil
	},
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored snapshots, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.close()

		snaps, err := rt.inventory().ListSnapshots(cmd.Context())
		if err != nil {
			return err
		}
		if ok, err := emit(cmd.OutOrStdout(), snaps); ok {
			return err
		}
		renderSnapshots(cmd.OutOrStdout(), snaps)
		return nil
	},
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show <key>",
	Short: "Print a stored snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.close()

		snap, err := rt.inventory().GetSnapshot(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if ok, err := emit(out, snap); ok {
			return err
		}
		fmt.Fprintf(out, "Snapshot of %s taken %s\n", snap.User, snap.TakenAt.Local().Format("2006-01-02 15:04:05"))
		renderHardware(out, snap.Hardware, func(string) reconcile.RowState { return reconcile.RowState{Status: reconcile.RowIdle} })
		renderProjects(out, snap.Projects, snap.Hardware)
		renderAudit(out, snap.Audit)
		return nil
	},
}

var snapshotDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Delete a stored snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.close()

		if err := rt.inventory().DeleteSnapshot(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), status(true, "Deleted "+args[0]))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(snapshotCmd)
	snapshotCmd.AddCommand(snapshotExportCmd, snapshotListCmd, snapshotShowCmd, snapshotDeleteCmd)
}
