package cmd

import (
	"context"
	"fmt"

	"hardware-manager/core/utils"
	"hardware-manager/feature/inventory"

	"github.com/spf13/cobra"
)

var projectFlag string

var hardwareCmd = &cobra.Command{
	Use:   "hardware",
	Short: "Inspect and allocate hardware sets",
}

var hardwareListCmd = &cobra.Command{
	Use:   "list",
	Short: "List hardware sets with availability and capacity",
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
		if ok, err := emit(cmd.OutOrStdout(), svc.Hardware()); ok {
			return err
		}
		renderHardware(cmd.OutOrStdout(), svc.Hardware(), svc.Row)
		return nil
	},
}

var checkoutCmd = &cobra.Command{
	Use:     "checkout <hardware-set> <quantity>",
	Short:   "Check units of a hardware set out to a project",
	Example: `  hardware-manager hardware checkout HWSet1 10 --project P1`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheck(cmd, args, "Checked out", (*inventory.Service).CheckOut)
	},
}

var checkinCmd = &cobra.Command{
	Use:     "checkin <hardware-set> <quantity>",
	Short:   "Return units of a hardware set from a project",
	Example: `  hardware-manager hardware checkin HWSet1 10 --project P1`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheck(cmd, args, "Checked in", (*inventory.Service).CheckIn)
	},
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Compare hardware capacity against the visible project allocations",
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
		report := svc.Audit()
		if ok, err := emit(cmd.OutOrStdout(), report); ok {
			return err
		}
		renderAudit(cmd.OutOrStdout(), report)
		return nil
	},
}

func runCheck(cmd *cobra.Command, args []string, verb string, fn func(*inventory.Service, context.Context, string, int, string) (*inventory.Result, error)) error {
	qty, err := utils.ToInt(args[1])
	if err != nil {
		return fmt.Errorf("invalid quantity %q: %w", args[1], err)
	}

	rt, err := bootstrap(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.close()

	svc, err := rt.loadedInventory(cmd.Context())
	if err != nil {
		return err
	}

	res, err := fn(svc, cmd.Context(), args[0], qty, projectFlag)
	if err != nil {
		return err
	}
	if ok, err := emit(cmd.OutOrStdout(), res); ok {
		return err
	}
	renderResult(cmd.OutOrStdout(), verb, qty, res)
	return nil
}

func init() {
	RootCmd.AddCommand(hardwareCmd)
	hardwareCmd.AddCommand(hardwareListCmd, checkoutCmd, checkinCmd, auditCmd)
	for _, c := range []*cobra.Command{checkoutCmd, checkinCmd} {
		c.Flags().StringVar(&projectFlag, "project", "", "ID of the project the units are charged to")
		_ = c.MarkFlagRequired("project")
	}
}
