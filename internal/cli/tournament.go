package cli

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

// tournamentBody matches the API's tournament request shape
type tournamentBody struct {
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
	Location        string  `json:"location"`
	EntryFee        float64 `json:"entry_fee"`
	CashPrize       float64 `json:"cash_prize"`
	MinParticipants int     `json:"min_participants,omitempty"`
	MaxParticipants int     `json:"max_participants,omitempty"`
}

func newTournamentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tournament",
		Aliases: []string{"tournaments"},
		Short:   "Tournament management commands",
	}

	cmd.AddCommand(newTournamentCreateCmd())
	cmd.AddCommand(newTournamentGetCmd())
	cmd.AddCommand(newTournamentListCmd())
	cmd.AddCommand(newTournamentUpdateCmd())
	cmd.AddCommand(newTournamentDeleteCmd())
	cmd.AddCommand(newTournamentStatusCmd())
	cmd.AddCommand(newTournamentMembersCmd())
	cmd.AddCommand(newTournamentRevenueCmd())
	cmd.AddCommand(newTournamentSearchCmd())
	cmd.AddCommand(newTournamentListingCmd("current", "Tournaments running today", "/api/v1/tournaments/current"))
	cmd.AddCommand(newTournamentListingCmd("available", "Scheduled tournaments with places left", "/api/v1/tournaments/available"))
	cmd.AddCommand(newTournamentListingCmd("upcoming", "Scheduled tournaments starting after today", "/api/v1/tournaments/upcoming"))
	cmd.AddCommand(newTournamentListingCmd("completed", "Completed tournaments, latest first", "/api/v1/tournaments/recently-completed"))

	return cmd
}

func tournamentFlags(cmd *cobra.Command, body *tournamentBody) {
	cmd.Flags().StringVar(&body.StartDate, "start-date", "", "First day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&body.EndDate, "end-date", "", "Last day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&body.Location, "location", "", "Course or venue")
	cmd.Flags().Float64Var(&body.EntryFee, "fee", 0, "Entry fee")
	cmd.Flags().Float64Var(&body.CashPrize, "prize", 0, "Cash prize")
	cmd.Flags().IntVar(&body.MinParticipants, "min", 0, "Minimum participants (default: server default)")
	cmd.Flags().IntVar(&body.MaxParticipants, "max", 0, "Maximum participants (default: server default)")
}

func newTournamentCreateCmd() *cobra.Command {
	var body tournamentBody

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Schedule a new tournament",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Tournament

			if err := client.Post("/api/v1/tournaments", body, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}

	tournamentFlags(cmd, &body)
	_ = cmd.MarkFlagRequired("start-date")
	_ = cmd.MarkFlagRequired("end-date")
	_ = cmd.MarkFlagRequired("location")
	_ = cmd.MarkFlagRequired("fee")

	return cmd
}

func newTournamentGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get tournament details with registration figures",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var result TournamentDetail

			if err := client.Get(fmt.Sprintf("/api/v1/tournaments/%d", id), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newTournamentListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all tournaments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printTournaments(cmd, "/api/v1/tournaments")
		},
	}
}

func newTournamentUpdateCmd() *cobra.Command {
	var body tournamentBody

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a tournament's definition",
		Long:  "Update a tournament's definition. Fields without a flag keep their current value.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			path := fmt.Sprintf("/api/v1/tournaments/%d", id)

			var current TournamentDetail
			if err := client.Get(path, &current); err != nil {
				return err
			}

			merged := tournamentBody{
				StartDate:       current.StartDate,
				EndDate:         current.EndDate,
				Location:        current.Location,
				EntryFee:        current.EntryFee,
				CashPrize:       current.CashPrize,
				MinParticipants: current.MinParticipants,
				MaxParticipants: current.MaxParticipants,
			}
			flags := cmd.Flags()
			if flags.Changed("start-date") {
				merged.StartDate = body.StartDate
			}
			if flags.Changed("end-date") {
				merged.EndDate = body.EndDate
			}
			if flags.Changed("location") {
				merged.Location = body.Location
			}
			if flags.Changed("fee") {
				merged.EntryFee = body.EntryFee
			}
			if flags.Changed("prize") {
				merged.CashPrize = body.CashPrize
			}
			if flags.Changed("min") {
				merged.MinParticipants = body.MinParticipants
			}
			if flags.Changed("max") {
				merged.MaxParticipants = body.MaxParticipants
			}

			var result Tournament

			if err := client.Put(path, merged, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}

	tournamentFlags(cmd, &body)

	return cmd
}

func newTournamentDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a tournament and its registrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			if err := client.Delete(fmt.Sprintf("/api/v1/tournaments/%d", id), nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.PrintMessage(fmt.Sprintf("Deleted tournament %d", id))
			return nil
		},
	}
}

func newTournamentStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <SCHEDULED|IN_PROGRESS|COMPLETED|CANCELLED>",
		Short: "Move a tournament through its lifecycle",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			req := map[string]string{"status": args[1]}
			if err := client.Patch(fmt.Sprintf("/api/v1/tournaments/%d/status", id), req, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.PrintMessage(fmt.Sprintf("Tournament %d status set to %s", id, args[1]))
			return nil
		},
	}
}

func newTournamentMembersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "members <id>",
		Short: "List registered members",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return printMembers(cmd, fmt.Sprintf("/api/v1/tournaments/%d/members", id))
		},
	}
}

func newTournamentRevenueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revenue [id]",
		Short: "Entry fee revenue for one tournament, or all completed ones",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/tournaments/revenue"
			if len(args) == 1 {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				path = fmt.Sprintf("/api/v1/tournaments/%d/revenue", id)
			}

			var result Revenue

			if err := client.Get(path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newTournamentSearchCmd() *cobra.Command {
	var (
		location, status, from, to string
		minPrize, maxFee           float64
		minParticipants            int
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search tournaments",
		Long:  "Search tournaments by exactly one criterion.",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			switch {
			case flags.Changed("location"):
				return printTournaments(cmd, "/api/v1/tournaments/search/location/"+url.PathEscape(location))
			case flags.Changed("status"):
				return printTournaments(cmd, "/api/v1/tournaments/search/status/"+url.PathEscape(status))
			case flags.Changed("from") || flags.Changed("to"):
				q := url.Values{"from": {from}, "to": {to}}
				return printTournaments(cmd, "/api/v1/tournaments/search/dates?"+q.Encode())
			case flags.Changed("min-prize"):
				return printTournaments(cmd, "/api/v1/tournaments/search/prize?min="+strconv.FormatFloat(minPrize, 'f', -1, 64))
			case flags.Changed("max-fee"):
				return printTournaments(cmd, "/api/v1/tournaments/search/fee?max="+strconv.FormatFloat(maxFee, 'f', -1, 64))
			case flags.Changed("min-participants"):
				return printTournaments(cmd, "/api/v1/tournaments/search/participants?minCount="+strconv.Itoa(minParticipants))
			}
			return errors.New("no search criterion given")
		},
	}

	cmd.Flags().StringVar(&location, "location", "", "Location contains (case-insensitive)")
	cmd.Flags().StringVar(&status, "status", "", "Status")
	cmd.Flags().StringVar(&from, "from", "", "Start date on or after (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Start date on or before (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&minPrize, "min-prize", 0, "Cash prize at least")
	cmd.Flags().Float64Var(&maxFee, "max-fee", 0, "Entry fee at most")
	cmd.Flags().IntVar(&minParticipants, "min-participants", 0, "At least this many registered")
	cmd.MarkFlagsMutuallyExclusive("location", "status", "min-prize", "max-fee", "min-participants")

	return cmd
}

func newTournamentListingCmd(use, short, path string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printTournaments(cmd, path)
		},
	}
}

func printTournaments(cmd *cobra.Command, path string) error {
	var result []Tournament

	if err := client.Get(path, &result); err != nil {
		return err
	}

	out := NewOutput(cfg.Output, cmd.OutOrStdout())
	out.Print(result)
	return nil
}
