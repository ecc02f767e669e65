package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tanmayyjais/hostelMate-frontend/internal/domain"
)

func newAPICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "api",
		Short: "Call the hostel API with the stored session",
	}
	cmd.AddCommand(&cobra.Command{
		Use:     "get <path>",
		Short:   "Send an authorized GET request and print the response body",
		Example: "  hostelmate api get /announcements",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()

			st, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}

			body, err := a.api.Get(cmd.Context(), st.Token, args[0])
			if errors.Is(err, domain.ErrUnauthorized) {
				return errors.New("the server rejected the stored session; run `hostelmate login` again")
			}
			if err != nil {
				return a.explain(err)
			}

			var pretty bytes.Buffer
			if json.Indent(&pretty, body, "", "  ") == nil {
				body = pretty.Bytes()
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(bytes.TrimSpace(body)))
			return err
		},
	})
	return cmd
}
