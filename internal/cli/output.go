package cli

import (
	"encoding/json"
	"fmt"
	"io"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		o.printJSON(map[string]string{"message": msg})
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Member:
		o.printMember(v)
	case []Member:
		o.printMembers(v)
	case Tournament:
		o.printTournament(v)
	case []Tournament:
		o.printTournaments(v)
	case TournamentDetail:
		o.printTournamentDetail(v)
	case Revenue:
		o.printRevenue(v)
	case Report:
		o.printReport(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Member response type (matches API)
type Member struct {
	ID                int64   `json:"id"`
	Name              string  `json:"name"`
	Address           string  `json:"address"`
	Email             string  `json:"email"`
	Phone             string  `json:"phone,omitempty"`
	StartDate         string  `json:"start_date"`
	DurationMonths    int     `json:"duration_months"`
	ExpiresOn         string  `json:"expires_on"`
	Status            string  `json:"status"`
	TournamentsPlayed int     `json:"tournaments_played"`
	TotalWinnings     float64 `json:"total_winnings"`
	Version           int64   `json:"version"`
}

// Tournament response type
type Tournament struct {
	ID              int64   `json:"id"`
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
	Location        string  `json:"location"`
	EntryFee        float64 `json:"entry_fee"`
	CashPrize       float64 `json:"cash_prize"`
	Status          string  `json:"status"`
	MinParticipants int     `json:"min_participants"`
	MaxParticipants int     `json:"max_participants"`
	Version         int64   `json:"version"`
}

// TournamentDetail is a tournament with its registration figures
type TournamentDetail struct {
	Tournament
	Participants     int     `json:"participants"`
	Revenue          float64 `json:"revenue"`
	RegistrationOpen bool    `json:"registration_open"`
	HasMinimum       bool    `json:"has_minimum"`
}

// Revenue response type
type Revenue struct {
	TournamentID *int64  `json:"tournament_id,omitempty"`
	Revenue      float64 `json:"revenue"`
}

// Report combines the club-wide figures shown by `golfctl report`
type Report struct {
	TotalRevenue    float64      `json:"total_revenue"`
	Upcoming        []Tournament `json:"upcoming"`
	TopParticipants []Member     `json:"top_participants"`
}

// HealthResult response type
type HealthResult struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}

func (o *Output) printMember(m Member) {
	fmt.Fprintf(o.w, "Member: %s (%d)\n", m.Name, m.ID)
	fmt.Fprintf(o.w, "Status: %s\n", m.Status)
	fmt.Fprintf(o.w, "Email: %s\n", m.Email)
	if m.Phone != "" {
		fmt.Fprintf(o.w, "Phone: %s\n", m.Phone)
	}
	fmt.Fprintf(o.w, "Address: %s\n", m.Address)
	fmt.Fprintf(o.w, "Membership: %s for %d months (expires %s)\n", m.StartDate, m.DurationMonths, m.ExpiresOn)
	fmt.Fprintf(o.w, "Tournaments played: %d\n", m.TournamentsPlayed)
	fmt.Fprintf(o.w, "Winnings: $%.2f\n", m.TotalWinnings)
}

func (o *Output) printMembers(members []Member) {
	if len(members) == 0 {
		fmt.Fprintln(o.w, "No members")
		return
	}
	for _, m := range members {
		fmt.Fprintf(o.w, "%4d  %-24s %-10s played %d\n", m.ID, m.Name, m.Status, m.TournamentsPlayed)
	}
}

func (o *Output) printTournament(t Tournament) {
	fmt.Fprintf(o.w, "Tournament: %s (%d)\n", t.Location, t.ID)
	fmt.Fprintf(o.w, "Status: %s\n", t.Status)
	fmt.Fprintf(o.w, "Dates: %s to %s\n", t.StartDate, t.EndDate)
	fmt.Fprintf(o.w, "Entry fee: $%.2f\n", t.EntryFee)
	fmt.Fprintf(o.w, "Prize: $%.2f\n", t.CashPrize)
	fmt.Fprintf(o.w, "Participants: %d-%d\n", t.MinParticipants, t.MaxParticipants)
}

func (o *Output) printTournaments(tournaments []Tournament) {
	if len(tournaments) == 0 {
		fmt.Fprintln(o.w, "No tournaments")
		return
	}
	for _, t := range tournaments {
		fmt.Fprintf(o.w, "%4d  %s  %-20s %s\n", t.ID, t.StartDate, t.Location, t.Status)
	}
}

func (o *Output) printTournamentDetail(d TournamentDetail) {
	o.printTournament(d.Tournament)
	fmt.Fprintf(o.w, "Registered: %d\n", d.Participants)
	fmt.Fprintf(o.w, "Revenue: $%.2f\n", d.Revenue)
	fmt.Fprintf(o.w, "Registration open: %s\n", yesNo(d.RegistrationOpen))
	fmt.Fprintf(o.w, "Minimum reached: %s\n", yesNo(d.HasMinimum))
}

func (o *Output) printRevenue(r Revenue) {
	if r.TournamentID != nil {
		fmt.Fprintf(o.w, "Tournament %d revenue: $%.2f\n", *r.TournamentID, r.Revenue)
		return
	}
	fmt.Fprintf(o.w, "Completed tournament revenue: $%.2f\n", r.Revenue)
}

func (o *Output) printReport(r Report) {
	fmt.Fprintf(o.w, "Completed tournament revenue: $%.2f\n", r.TotalRevenue)
	fmt.Fprintln(o.w, "\nUpcoming:")
	o.printTournaments(r.Upcoming)
	fmt.Fprintln(o.w, "\nTop participants:")
	o.printMembers(r.TopParticipants)
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	if h.Storage != "" {
		fmt.Fprintf(o.w, "Storage: %s\n", h.Storage)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
