package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var descriptionFlag string

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List, create and join projects",
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects with their hardware allocations",
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
		if ok, err := emit(cmd.OutOrStdout(), svc.Projects()); ok {
			return err
		}
		renderProjects(cmd.OutOrStdout(), svc.Projects(), svc.Hardware())
		return nil
	},
}

var projectsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a project owned by the logged-in operator",
	Args:  cobra.ExactArgs(1),
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

		projects, err := svc.AddProject(cmd.Context(), args[0], descriptionFlag)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), status(true, "Project "+args[0]+" created"))
		renderProjects(cmd.OutOrStdout(), projects, svc.Hardware())
		return nil
	},
}

var projectsToggleCmd = &cobra.Command{
	Use:     "toggle <project-id>",
	Aliases: []string{"join", "leave"},
	Short:   "Join a project, or leave it when already a member",
	Args:    cobra.ExactArgs(1),
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

		res, err := svc.ToggleMembership(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		name := res.ProjectID
		if res.Project != nil {
			name = res.Project.Name
		}
		msg := "Left project " + name
		if res.Joined {
			msg = "Joined project " + name
		}
		fmt.Fprintln(cmd.OutOrStdout(), status(true, orDefault(res.Message, msg)))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(projectsCmd)
	projectsCmd.AddCommand(projectsListCmd, projectsAddCmd, projectsToggleCmd)
	projectsAddCmd.Flags().StringVarP(&descriptionFlag, "description", "d", "", "Project description")
}
