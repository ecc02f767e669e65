package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tanmayyjais/hostelMate-frontend/internal/session"
)

func newLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to Hostel Mate",
		Long: `Sign in with your hostel account. The token and profile are stored
locally so later commands stay signed in until you log out.

Missing credentials are read from standard input.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if _, err := a.restore(ctx); err != nil {
				return err
			}

			in := bufio.NewReader(cmd.InOrStdin())
			if email == "" {
				if email, err = prompt(cmd.OutOrStdout(), in, "Email: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = prompt(cmd.OutOrStdout(), in, "Password: "); err != nil {
					return err
				}
			}

			payload, err := a.session.Login(ctx, email, password)
			if err != nil {
				return a.explain(err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, successStyle.Render("Signed in as "+displayName(payload.User)))
			fmt.Fprintf(out, "Area: %s\n", session.Route(a.session.State()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password")
	return cmd
}

func prompt(out io.Writer, in *bufio.Reader, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.ToLower(label), ": "), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()

			st, err := a.restore(cmd.Context())
			if err != nil {
				return err
			}

			a.session.Logout(cmd.Context())
			if st.Authenticated() {
				fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Signed out."))
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
			}
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the signed-in user and where the app would navigate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()

			st, err := a.restore(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, titleStyle.Render("Hostel Mate"))
			if st.Authenticated() {
				fmt.Fprintf(out, "Signed in:   %s\n", displayName(st.Profile))
				fmt.Fprintf(out, "Member type: %s\n", st.Profile.MemberType())
			} else {
				fmt.Fprintln(out, "Not signed in.")
			}
			fmt.Fprintf(out, "Area:        %s\n", session.Route(st))
			fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("API %s · assistant over %s", a.cfg.API.URL, a.cfg.Assistant.Transport)))
			return nil
		},
	}
}
