package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tanmayyjais/hostelMate-frontend/internal/domain"
)

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show the stored profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()

			st, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			return printProfile(cmd.OutOrStdout(), st.Profile)
		},
	}
	cmd.AddCommand(newProfileSetCmd())
	return cmd
}

func newProfileSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set key=value...",
		Short: "Merge attributes into the stored profile",
		Example: `  hostelmate profile set phone=9876543210
  hostelmate profile set department=electrical room=B-112`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			partial, err := parsePairs(args)
			if err != nil {
				return err
			}

			a, err := newApp(cmd, os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.requireSession(cmd.Context()); err != nil {
				return err
			}
			merged, err := a.session.UpdateUser(cmd.Context(), partial)
			if err != nil {
				return a.explain(err)
			}
			return printProfile(cmd.OutOrStdout(), merged)
		},
	}
}

func parsePairs(args []string) (domain.Profile, error) {
	partial := make(domain.Profile, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid attribute %q, expected key=value", arg)
		}
		partial[k] = v
	}
	return partial, nil
}

func printProfile(w io.Writer, p domain.Profile) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
