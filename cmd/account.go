package cmd

import (
	"bufio"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var passwordFlag string

var loginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Log in to the inventory service",
	Long: `Logs in and stores the session token in the local session database so later
commands stay authenticated. The password is read from stdin when --password is not set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.close()

		password, err := readPassword(cmd)
		if err != nil {
			return err
		}

		msg, err := rt.account().Login(cmd.Context(), args[0], password)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), status(true, orDefault(msg, "Logged in as "+args[0])))
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register <username>",
	Short: "Create an account on the inventory service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.close()

		password, err := readPassword(cmd)
		if err != nil {
			return err
		}

		msg, err := rt.account().Register(cmd.Context(), args[0], password)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), status(true, orDefault(msg, "Account created, you can now log in")))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session and clear the stored token",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.close()

		if err := rt.account().Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), status(true, "Logged out"))
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the profile of the logged-in operator",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.close()

		profile, err := rt.account().WhoAmI(cmd.Context())
		if err != nil {
			return err
		}

		if ok, err := emit(cmd.OutOrStdout(), profile); ok {
			return err
		}

		keys := make([]string, 0, len(profile))
		for k := range profile {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		t := newTable("FIELD", "VALUE")
		for _, k := range keys {
			t.Row(k, fmt.Sprint(profile[k]))
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.Render())
		return nil
	},
}

func readPassword(cmd *cobra.Command) (string, error) {
	if passwordFlag != "" {
		return passwordFlag, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func init() {
	RootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)
	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringVarP(&passwordFlag, "password", "p", "", "Password (read from stdin when empty)")
	}
}
