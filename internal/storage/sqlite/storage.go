// Package sqlite provides a SQLite-backed club storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/mcoot/golfclub/internal/model"
	"github.com/mcoot/golfclub/internal/storage"
	"github.com/mcoot/golfclub/internal/storage/sqlite/migrations"
)

// Storage persists club state in SQLite. Every versioned write is an
// UPDATE guarded by "version = ?" inside a transaction.
type Storage struct {
	db *sql.DB
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Open opens a SQLite store at path and applies embedded migrations
func Open(path string) (*Storage, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer at a time; transactions queue on the pool instead of failing with SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Storage{db: db}, nil
}

// Close closes the SQLite handle
func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func toDate(value time.Time) string {
	return model.DateOf(value).Format(model.DateLayout)
}

func nullable(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

// withTx runs fn in a transaction, rolling back on any error
func (s *Storage) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Member operations

const memberColumns = `id, name, address, email, phone, start_date, duration_months, status,
	tournaments_played, total_winnings, version, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanMember(row scanner) (*model.Member, error) {
	var (
		m         model.Member
		phone     sql.NullString
		startDate string
		status    string
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&m.ID, &m.Name, &m.Address, &m.Email, &phone, &startDate, &m.DurationMonths, &status,
		&m.TournamentsPlayed, &m.TotalWinnings, &m.Version, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	start, err := model.ParseDate(startDate)
	if err != nil {
		return nil, fmt.Errorf("parse start date: %w", err)
	}
	m.Phone = phone.String
	m.StartDate = start
	m.Status = model.MemberStatus(status)
	m.CreatedAt = fromMillis(createdAt)
	m.UpdatedAt = fromMillis(updatedAt)
	return &m, nil
}

func (s *Storage) CreateMember(ctx context.Context, member *model.Member) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO members (name, address, email, phone, start_date, duration_months, status,
		   tournaments_played, total_winnings, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		member.Name, member.Address, member.Email, nullable(member.Phone), toDate(member.StartDate),
		member.DurationMonths, string(member.Status), member.TournamentsPlayed, member.TotalWinnings,
		toMillis(member.CreatedAt), toMillis(member.UpdatedAt),
	)
	if err != nil {
		if dup := contactViolation(err, member); dup != nil {
			return dup
		}
		return fmt.Errorf("create member: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create member: %w", err)
	}
	member.ID = model.MemberID(id)
	member.Version = 1
	return nil
}

func (s *Storage) SaveMember(ctx context.Context, member *model.Member) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		return updateMember(ctx, tx, member)
	})
	if err != nil {
		return err
	}
	member.Version++
	return nil
}

func updateMember(ctx context.Context, tx *sql.Tx, member *model.Member) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE members SET name = ?, address = ?, email = ?, phone = ?, start_date = ?, duration_months = ?,
		   status = ?, tournaments_played = ?, total_winnings = ?, updated_at = ?, version = version + 1
		 WHERE id = ? AND version = ?`,
		member.Name, member.Address, member.Email, nullable(member.Phone), toDate(member.StartDate),
		member.DurationMonths, string(member.Status), member.TournamentsPlayed, member.TotalWinnings,
		toMillis(member.UpdatedAt), int64(member.ID), member.Version,
	)
	if err != nil {
		if dup := contactViolation(err, member); dup != nil {
			return dup
		}
		return fmt.Errorf("update member %d: %w", member.ID, err)
	}
	return expectOneRow(res, "member", int64(member.ID))
}

func (s *Storage) GetMember(ctx context.Context, id model.MemberID) (*model.Member, error) {
	return s.queryMember(ctx, "id = ?", int64(id))
}

func (s *Storage) GetMemberByEmail(ctx context.Context, email string) (*model.Member, error) {
	return s.queryMember(ctx, "email = ?", email)
}

func (s *Storage) GetMemberByPhone(ctx context.Context, phone string) (*model.Member, error) {
	if phone == "" {
		return nil, model.ErrMemberNotFound
	}
	return s.queryMember(ctx, "phone = ?", phone)
}

func (s *Storage) queryMember(ctx context.Context, where string, arg any) (*model.Member, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+memberColumns+" FROM members WHERE "+where, arg)
	m, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *Storage) ListMembers(ctx context.Context) ([]*model.Member, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+memberColumns+" FROM members ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var members []*model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (s *Storage) DeleteMember(ctx context.Context, id model.MemberID) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM registrations WHERE member_id = ?", int64(id)); err != nil {
			return fmt.Errorf("delete member registrations: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM members WHERE id = ?", int64(id)); err != nil {
			return fmt.Errorf("delete member: %w", err)
		}
		return nil
	})
}

// Tournament operations

const tournamentColumns = `id, start_date, end_date, location, entry_fee, cash_prize, status,
	min_participants, max_participants, version, created_at, updated_at`

func scanTournament(row scanner) (*model.Tournament, error) {
	var (
		t         model.Tournament
		startDate string
		endDate   string
		status    string
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&t.ID, &startDate, &endDate, &t.Location, &t.EntryFee, &t.CashPrize, &status,
		&t.MinParticipants, &t.MaxParticipants, &t.Version, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	start, err := model.ParseDate(startDate)
	if err != nil {
		return nil, fmt.Errorf("parse start date: %w", err)
	}
	end, err := model.ParseDate(endDate)
	if err != nil {
		return nil, fmt.Errorf("parse end date: %w", err)
	}
	t.StartDate = start
	t.EndDate = end
	t.Status = model.TournamentStatus(status)
	t.CreatedAt = fromMillis(createdAt)
	t.UpdatedAt = fromMillis(updatedAt)
	return &t, nil
}

func (s *Storage) CreateTournament(ctx context.Context, tournament *model.Tournament) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tournaments (start_date, end_date, location, entry_fee, cash_prize, status,
		   min_participants, max_participants, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		toDate(tournament.StartDate), toDate(tournament.EndDate), tournament.Location, tournament.EntryFee,
		tournament.CashPrize, string(tournament.Status), tournament.MinParticipants, tournament.MaxParticipants,
		toMillis(tournament.CreatedAt), toMillis(tournament.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create tournament: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create tournament: %w", err)
	}
	tournament.ID = model.TournamentID(id)
	tournament.Version = 1
	return nil
}

func (s *Storage) SaveTournament(ctx context.Context, tournament *model.Tournament) error {
	return s.SaveTournamentWithMembers(ctx, tournament, nil)
}

func updateTournament(ctx context.Context, tx *sql.Tx, tournament *model.Tournament) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE tournaments SET start_date = ?, end_date = ?, location = ?, entry_fee = ?, cash_prize = ?,
		   status = ?, min_participants = ?, max_participants = ?, updated_at = ?, version = version + 1
		 WHERE id = ? AND version = ?`,
		toDate(tournament.StartDate), toDate(tournament.EndDate), tournament.Location, tournament.EntryFee,
		tournament.CashPrize, string(tournament.Status), tournament.MinParticipants, tournament.MaxParticipants,
		toMillis(tournament.UpdatedAt), int64(tournament.ID), tournament.Version,
	)
	if err != nil {
		return fmt.Errorf("update tournament %d: %w", tournament.ID, err)
	}
	return expectOneRow(res, "tournament", int64(tournament.ID))
}

func (s *Storage) GetTournament(ctx context.Context, id model.TournamentID) (*model.Tournament, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+tournamentColumns+" FROM tournaments WHERE id = ?", int64(id))
	t, err := scanTournament(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrTournamentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tournament: %w", err)
	}
	return t, nil
}

func (s *Storage) ListTournaments(ctx context.Context) ([]*model.Tournament, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+tournamentColumns+" FROM tournaments ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list tournaments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tournaments []*model.Tournament
	for rows.Next() {
		t, err := scanTournament(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tournament: %w", err)
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, rows.Err()
}

func (s *Storage) DeleteTournament(ctx context.Context, id model.TournamentID) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM registrations WHERE tournament_id = ?", int64(id)); err != nil {
			return fmt.Errorf("delete tournament registrations: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM tournaments WHERE id = ?", int64(id)); err != nil {
			return fmt.Errorf("delete tournament: %w", err)
		}
		return nil
	})
}

func (s *Storage) SaveTournamentWithMembers(ctx context.Context, tournament *model.Tournament, members []*model.Member) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := updateTournament(ctx, tx, tournament); err != nil {
			return err
		}
		for _, m := range members {
			if err := updateMember(ctx, tx, m); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	tournament.Version++
	for _, m := range members {
		m.Version++
	}
	return nil
}

// Registration operations

func (s *Storage) AddRegistration(ctx context.Context, tournament *model.Tournament, member *model.Member, at time.Time) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := bumpVersions(ctx, tx, tournament, member); err != nil {
			return err
		}
		registered, err := isRegistered(ctx, tx, tournament.ID, member.ID)
		if err != nil {
			return err
		}
		if registered {
			return model.ErrAlreadyRegistered
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO registrations (tournament_id, member_id, registered_at) VALUES (?, ?, ?)",
			int64(tournament.ID), int64(member.ID), toMillis(at),
		); err != nil {
			if isConstraint(err, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY) {
				return model.ErrAlreadyRegistered
			}
			return fmt.Errorf("insert registration: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	tournament.Version++
	member.Version++
	return nil
}

func (s *Storage) RemoveRegistration(ctx context.Context, tournament *model.Tournament, member *model.Member) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := bumpVersions(ctx, tx, tournament, member); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			"DELETE FROM registrations WHERE tournament_id = ? AND member_id = ?",
			int64(tournament.ID), int64(member.ID),
		)
		if err != nil {
			return fmt.Errorf("delete registration: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete registration: %w", err)
		}
		if n == 0 {
			return model.ErrNotRegistered
		}
		return nil
	})
	if err != nil {
		return err
	}

	tournament.Version++
	member.Version++
	return nil
}

func (s *Storage) ListTournamentRegistrations(ctx context.Context, id model.TournamentID) ([]model.Registration, error) {
	return s.queryRegistrations(ctx,
		"SELECT tournament_id, member_id, registered_at FROM registrations WHERE tournament_id = ? ORDER BY member_id",
		int64(id))
}

func (s *Storage) ListMemberRegistrations(ctx context.Context, id model.MemberID) ([]model.Registration, error) {
	return s.queryRegistrations(ctx,
		"SELECT tournament_id, member_id, registered_at FROM registrations WHERE member_id = ? ORDER BY tournament_id",
		int64(id))
}

func (s *Storage) queryRegistrations(ctx context.Context, query string, arg any) ([]model.Registration, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	regs := []model.Registration{}
	for rows.Next() {
		var (
			reg model.Registration
			at  int64
		)
		if err := rows.Scan(&reg.TournamentID, &reg.MemberID, &at); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		reg.RegisteredAt = fromMillis(at)
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

func (s *Storage) CountRegistrations(ctx context.Context, id model.TournamentID) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM registrations WHERE tournament_id = ?", int64(id),
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return n, nil
}

// Helpers

func bumpVersions(ctx context.Context, tx *sql.Tx, tournament *model.Tournament, member *model.Member) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE tournaments SET version = version + 1 WHERE id = ? AND version = ?",
		int64(tournament.ID), tournament.Version)
	if err != nil {
		return fmt.Errorf("bump tournament %d: %w", tournament.ID, err)
	}
	if err := expectOneRow(res, "tournament", int64(tournament.ID)); err != nil {
		return err
	}
	res, err = tx.ExecContext(ctx,
		"UPDATE members SET version = version + 1 WHERE id = ? AND version = ?",
		int64(member.ID), member.Version)
	if err != nil {
		return fmt.Errorf("bump member %d: %w", member.ID, err)
	}
	return expectOneRow(res, "member", int64(member.ID))
}

func isRegistered(ctx context.Context, tx *sql.Tx, tid model.TournamentID, mid model.MemberID) (bool, error) {
	var found int
	err := tx.QueryRowContext(ctx,
		"SELECT 1 FROM registrations WHERE tournament_id = ? AND member_id = ?", int64(tid), int64(mid),
	).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check registration: %w", err)
	}
	return true, nil
}

// expectOneRow turns a guarded UPDATE that matched nothing into a version conflict
func expectOneRow(res sql.Result, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s %d: %w", kind, id, err)
	}
	if n != 1 {
		return fmt.Errorf("%s %d: %w", kind, id, model.ErrVersionConflict)
	}
	return nil
}

func isConstraint(err error, codes ...int) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	for _, code := range codes {
		if sqliteErr.Code() == code {
			return true
		}
	}
	return false
}

// contactViolation maps a UNIQUE failure on email or phone to ErrDuplicateContact
func contactViolation(err error, member *model.Member) error {
	if !isConstraint(err, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE) {
		return nil
	}
	message := strings.ToLower(err.Error())
	if strings.Contains(message, "members.phone") {
		return fmt.Errorf("phone %s: %w", member.Phone, model.ErrDuplicateContact)
	}
	return fmt.Errorf("email %s: %w", member.Email, model.ErrDuplicateContact)
}
