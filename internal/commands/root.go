package commands

import "github.com/spf13/cobra"

// NewRootCmd builds the hostelmate command tree.
func NewRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "hostelmate",
		Short: "Hostel Mate - hostel services from the terminal",
		Long: `Hostel Mate signs you in to your hostel account and talks to the
college assistant.

Quick Start:
  hostelmate mock                  Run a local API with demo accounts
  hostelmate login                 Sign in
  hostelmate chat                  Talk to the assistant

Configuration is read from the environment and an optional .env file.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().Bool("ephemeral", false, "Keep session and chat history in memory only")

	root.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newStatusCmd(),
		newProfileCmd(),
		newChatCmd(),
		newHistoryCmd(),
		newAPICmd(),
		newMockCmd(),
	)
	return root
}
