package cli

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

// memberBody matches the API's member request shape
type memberBody struct {
	Name           string `json:"name"`
	Address        string `json:"address"`
	Email          string `json:"email"`
	Phone          string `json:"phone,omitempty"`
	StartDate      string `json:"start_date"`
	DurationMonths int    `json:"duration_months"`
}

func newMemberCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "member",
		Aliases: []string{"members"},
		Short:   "Member management commands",
	}

	cmd.AddCommand(newMemberCreateCmd())
	cmd.AddCommand(newMemberGetCmd())
	cmd.AddCommand(newMemberListCmd())
	cmd.AddCommand(newMemberUpdateCmd())
	cmd.AddCommand(newMemberDeleteCmd())
	cmd.AddCommand(newMemberStatusCmd())
	cmd.AddCommand(newMemberExtendCmd())
	cmd.AddCommand(newMemberCheckCmd())
	cmd.AddCommand(newMemberWinningsCmd())
	cmd.AddCommand(newMemberTournamentsCmd())
	cmd.AddCommand(newMemberSearchCmd())
	cmd.AddCommand(newMemberTopCmd())

	return cmd
}

func memberFlags(cmd *cobra.Command, body *memberBody) {
	cmd.Flags().StringVar(&body.Name, "name", "", "Full name")
	cmd.Flags().StringVar(&body.Address, "address", "", "Postal address")
	cmd.Flags().StringVar(&body.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&body.Phone, "phone", "", "Phone number (XXX-XXX-XXXX)")
	cmd.Flags().StringVar(&body.StartDate, "start-date", "", "Membership start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&body.DurationMonths, "months", 12, "Membership duration in months")
}

func newMemberCreateCmd() *cobra.Command {
	var body memberBody

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new member",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Member

			if err := client.Post("/api/v1/members", body, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}

	memberFlags(cmd, &body)
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("address")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("start-date")

	return cmd
}

func newMemberGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get member details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var result Member

			if err := client.Get(fmt.Sprintf("/api/v1/members/%d", id), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newMemberListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all members",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printMembers(cmd, "/api/v1/members")
		},
	}
}

func newMemberUpdateCmd() *cobra.Command {
	var body memberBody

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a member's profile",
		Long:  "Update a member's profile. Fields without a flag keep their current value.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			path := fmt.Sprintf("/api/v1/members/%d", id)

			var current Member
			if err := client.Get(path, &current); err != nil {
				return err
			}

			merged := memberBody{
				Name:           current.Name,
				Address:        current.Address,
				Email:          current.Email,
				Phone:          current.Phone,
				StartDate:      current.StartDate,
				DurationMonths: current.DurationMonths,
			}
			flags := cmd.Flags()
			if flags.Changed("name") {
				merged.Name = body.Name
			}
			if flags.Changed("address") {
				merged.Address = body.Address
			}
			if flags.Changed("email") {
				merged.Email = body.Email
			}
			if flags.Changed("phone") {
				merged.Phone = body.Phone
			}
			if flags.Changed("start-date") {
				merged.StartDate = body.StartDate
			}
			if flags.Changed("months") {
				merged.DurationMonths = body.DurationMonths
			}

			var result Member

			if err := client.Put(path, merged, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}

	memberFlags(cmd, &body)

	return cmd
}

func newMemberDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a member and their registrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			if err := client.Delete(fmt.Sprintf("/api/v1/members/%d", id), nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.PrintMessage(fmt.Sprintf("Deleted member %d", id))
			return nil
		},
	}
}

func newMemberStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <ACTIVE|EXPIRED|SUSPENDED|PENDING>",
		Short: "Override a member's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			req := map[string]string{"status": args[1]}
			if err := client.Patch(fmt.Sprintf("/api/v1/members/%d/status", id), req, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.PrintMessage(fmt.Sprintf("Member %d status set to %s", id, args[1]))
			return nil
		},
	}
}

func newMemberExtendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extend <id> <months>",
		Short: "Extend a membership",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			months, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid months %q", args[1])
			}

			var result Member

			req := map[string]int{"months": months}
			if err := client.Patch(fmt.Sprintf("/api/v1/members/%d/duration", id), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newMemberCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-status <id>",
		Short: "Expire the member if their term has lapsed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			path := fmt.Sprintf("/api/v1/members/%d", id)

			if err := client.Post(path+"/check-status", nil, nil); err != nil {
				return err
			}

			var result Member

			if err := client.Get(path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newMemberWinningsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "winnings <id> <amount>",
		Short: "Add prize money to a member's total",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			amount, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q", args[1])
			}

			var result Member

			req := map[string]float64{"amount": amount}
			if err := client.Post(fmt.Sprintf("/api/v1/members/%d/winnings", id), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newMemberTournamentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tournaments <id>",
		Short: "List the tournaments a member is registered for",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return printTournaments(cmd, fmt.Sprintf("/api/v1/members/%d/tournaments", id))
		},
	}
}

func newMemberSearchCmd() *cobra.Command {
	var (
		name, phone, email, status string
		from, to, tournamentDate   string
		active                     bool
		minPlayed                  int
		minWinnings                float64
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search members",
		Long:  "Search members by exactly one criterion.",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			switch {
			case flags.Changed("email"):
				var result Member
				if err := client.Get("/api/v1/members/search/email/"+url.PathEscape(email), &result); err != nil {
					return err
				}
				NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
				return nil
			case flags.Changed("name"):
				return printMembers(cmd, "/api/v1/members/search/name/"+url.PathEscape(name))
			case flags.Changed("phone"):
				return printMembers(cmd, "/api/v1/members/search/phone/"+url.PathEscape(phone))
			case flags.Changed("status"):
				return printMembers(cmd, "/api/v1/members/search/status/"+url.PathEscape(status))
			case active:
				return printMembers(cmd, "/api/v1/members/search/active")
			case flags.Changed("from") || flags.Changed("to"):
				q := url.Values{"from": {from}, "to": {to}}
				return printMembers(cmd, "/api/v1/members/search/start-dates?"+q.Encode())
			case flags.Changed("min-played"):
				return printMembers(cmd, "/api/v1/members/search/tournaments?minCount="+strconv.Itoa(minPlayed))
			case flags.Changed("min-winnings"):
				return printMembers(cmd, "/api/v1/members/search/winnings?min="+strconv.FormatFloat(minWinnings, 'f', -1, 64))
			case flags.Changed("tournament-date"):
				return printMembers(cmd, "/api/v1/members/search/tournament-date?date="+url.QueryEscape(tournamentDate))
			}
			return errors.New("no search criterion given")
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Name contains (case-insensitive)")
	cmd.Flags().StringVar(&phone, "phone", "", "Phone contains")
	cmd.Flags().StringVar(&email, "email", "", "Exact email")
	cmd.Flags().StringVar(&status, "status", "", "Status")
	cmd.Flags().BoolVar(&active, "active", false, "Memberships covering today")
	cmd.Flags().StringVar(&from, "from", "", "Start date on or after (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Start date on or before (YYYY-MM-DD)")
	cmd.Flags().IntVar(&minPlayed, "min-played", 0, "Played more than this many tournaments")
	cmd.Flags().Float64Var(&minWinnings, "min-winnings", 0, "Winnings above this amount")
	cmd.Flags().StringVar(&tournamentDate, "tournament-date", "", "Registered for a tournament running on this date")
	cmd.MarkFlagsMutuallyExclusive("name", "phone", "email", "status", "active", "min-played", "min-winnings", "tournament-date")

	return cmd
}

func newMemberTopCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "top",
		Short: "Active members ranked by tournaments played",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printMembers(cmd, "/api/v1/members/top-participants?limit="+strconv.Itoa(limit))
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Number of members to show")

	return cmd
}

func printMembers(cmd *cobra.Command, path string) error {
	var result []Member

	if err := client.Get(path, &result); err != nil {
		return err
	}

	out := NewOutput(cfg.Output, cmd.OutOrStdout())
	out.Print(result)
	return nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
