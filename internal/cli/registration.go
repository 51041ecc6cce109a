package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRegistrationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "registration",
		Aliases: []string{"reg"},
		Short:   "Tournament registration commands",
	}

	cmd.AddCommand(newRegisterCmd())
	cmd.AddCommand(newWithdrawCmd())

	return cmd
}

func newRegisterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register <tournament-id> <member-id>",
		Short: "Register a member for a tournament",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := registrationPath(args)
			if err != nil {
				return err
			}

			var result TournamentDetail

			if err := client.Post(path, nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newWithdrawCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "withdraw <tournament-id> <member-id>",
		Short: "Withdraw a member from a tournament",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := registrationPath(args)
			if err != nil {
				return err
			}

			var result TournamentDetail

			if err := client.Delete(path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func registrationPath(args []string) (string, error) {
	tid, err := parseID(args[0])
	if err != nil {
		return "", err
	}
	mid, err := parseID(args[1])
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("/api/v1/tournaments/%d/members/%d", tid, mid), nil
}
