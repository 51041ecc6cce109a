package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/golfclub/internal/model"
	"github.com/mcoot/golfclub/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface.
// Versioned writes run under WATCH on every touched key and commit with
// MULTI/EXEC, so a concurrent writer aborts the transaction.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	timeout := cfg.DialTimeout
	if timeout == 0 {
		timeout = DefaultConfig().DialTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// watch runs fn under WATCH on keys and maps an aborted EXEC to a version conflict
func (s *Storage) watch(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	err := s.client.Watch(ctx, fn, keys...)
	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("watched keys changed: %w", model.ErrVersionConflict)
	}
	return err
}

// Member operations

func (s *Storage) CreateMember(ctx context.Context, member *model.Member) error {
	var id int64
	err := s.watch(ctx, func(tx *redis.Tx) error {
		if err := checkContact(ctx, tx, member); err != nil {
			return err
		}

		var err error
		id, err = tx.Incr(ctx, memberSeqKey()).Result()
		if err != nil {
			return err
		}

		next := member.Clone()
		next.ID = model.MemberID(id)
		next.Version = 1

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return stageMember(ctx, pipe, next, nil)
		})
		return err
	}, contactKeys(member)...)
	if err != nil {
		return err
	}

	member.ID = model.MemberID(id)
	member.Version = 1
	return nil
}

func (s *Storage) SaveMember(ctx context.Context, member *model.Member) error {
	var next *model.Member
	err := s.watch(ctx, func(tx *redis.Tx) error {
		var err error
		next, err = prepareMember(ctx, tx, member)
		if err != nil {
			return err
		}
		old, _ := loadMember(ctx, tx, member.ID)

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return stageMember(ctx, pipe, next, old)
		})
		return err
	}, memberWatchKeys(member)...)
	if err != nil {
		return err
	}

	member.Version = next.Version
	return nil
}

func (s *Storage) GetMember(ctx context.Context, id model.MemberID) (*model.Member, error) {
	return loadMember(ctx, s.client, id)
}

func (s *Storage) GetMemberByEmail(ctx context.Context, email string) (*model.Member, error) {
	return s.getMemberByIndex(ctx, emailIndexKey(email))
}

func (s *Storage) GetMemberByPhone(ctx context.Context, phone string) (*model.Member, error) {
	if phone == "" {
		return nil, model.ErrMemberNotFound
	}
	return s.getMemberByIndex(ctx, phoneIndexKey(phone))
}

func (s *Storage) getMemberByIndex(ctx context.Context, key string) (*model.Member, error) {
	// Look up member ID from the contact index
	idStr, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrMemberNotFound
		}
		return nil, err
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt index %s: %w", key, err)
	}
	return loadMember(ctx, s.client, model.MemberID(id))
}

func (s *Storage) ListMembers(ctx context.Context) ([]*model.Member, error) {
	ids, err := s.sortedIDs(ctx, membersKey())
	if err != nil {
		return nil, err
	}

	members := make([]*model.Member, 0, len(ids))
	for _, id := range ids {
		m, err := loadMember(ctx, s.client, model.MemberID(id))
		if errors.Is(err, model.ErrMemberNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, nil
}

func (s *Storage) DeleteMember(ctx context.Context, id model.MemberID) error {
	return s.watch(ctx, func(tx *redis.Tx) error {
		member, err := loadMember(ctx, tx, id)
		if errors.Is(err, model.ErrMemberNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		tids, err := tx.SMembers(ctx, memberRegistrationsKey(id)).Result()
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, memberKey(id), memberRegistrationsKey(id), emailIndexKey(member.Email))
			if member.Phone != "" {
				pipe.Del(ctx, phoneIndexKey(member.Phone))
			}
			pipe.SRem(ctx, membersKey(), int64(id))
			for _, tid := range tids {
				parsed, err := strconv.ParseInt(tid, 10, 64)
				if err != nil {
					return fmt.Errorf("corrupt registration set: %w", err)
				}
				pipe.HDel(ctx, tournamentRegistrationsKey(model.TournamentID(parsed)), id.String())
			}
			return nil
		})
		return err
	}, memberKey(id), memberRegistrationsKey(id))
}

// Tournament operations

func (s *Storage) CreateTournament(ctx context.Context, tournament *model.Tournament) error {
	id, err := s.client.Incr(ctx, tournamentSeqKey()).Result()
	if err != nil {
		return fmt.Errorf("allocate tournament id: %w", err)
	}

	next := tournament.Clone()
	next.ID = model.TournamentID(id)
	next.Version = 1

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		return stageTournament(ctx, pipe, next)
	})
	if err != nil {
		return err
	}

	tournament.ID = next.ID
	tournament.Version = next.Version
	return nil
}

func (s *Storage) SaveTournament(ctx context.Context, tournament *model.Tournament) error {
	return s.SaveTournamentWithMembers(ctx, tournament, nil)
}

func (s *Storage) GetTournament(ctx context.Context, id model.TournamentID) (*model.Tournament, error) {
	return loadTournament(ctx, s.client, id)
}

func (s *Storage) ListTournaments(ctx context.Context) ([]*model.Tournament, error) {
	ids, err := s.sortedIDs(ctx, tournamentsKey())
	if err != nil {
		return nil, err
	}

	tournaments := make([]*model.Tournament, 0, len(ids))
	for _, id := range ids {
		t, err := loadTournament(ctx, s.client, model.TournamentID(id))
		if errors.Is(err, model.ErrTournamentNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, nil
}

func (s *Storage) DeleteTournament(ctx context.Context, id model.TournamentID) error {
	return s.watch(ctx, func(tx *redis.Tx) error {
		mids, err := tx.HKeys(ctx, tournamentRegistrationsKey(id)).Result()
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, tournamentKey(id), tournamentRegistrationsKey(id))
			pipe.SRem(ctx, tournamentsKey(), int64(id))
			for _, mid := range mids {
				parsed, err := strconv.ParseInt(mid, 10, 64)
				if err != nil {
					return fmt.Errorf("corrupt registration hash: %w", err)
				}
				pipe.SRem(ctx, memberRegistrationsKey(model.MemberID(parsed)), int64(id))
			}
			return nil
		})
		return err
	}, tournamentKey(id), tournamentRegistrationsKey(id))
}

func (s *Storage) SaveTournamentWithMembers(ctx context.Context, tournament *model.Tournament, members []*model.Member) error {
	keys := []string{tournamentKey(tournament.ID)}
	for _, m := range members {
		keys = append(keys, memberWatchKeys(m)...)
	}

	var nextTournament *model.Tournament
	nextMembers := make([]*model.Member, len(members))
	err := s.watch(ctx, func(tx *redis.Tx) error {
		stored, err := loadTournament(ctx, tx, tournament.ID)
		if err != nil {
			return versionMiss("tournament", int64(tournament.ID), err)
		}
		if stored.Version != tournament.Version {
			return staleVersion("tournament", int64(tournament.ID), stored.Version, tournament.Version)
		}
		nextTournament = tournament.Clone()
		nextTournament.Version = stored.Version + 1

		olds := make([]*model.Member, len(members))
		for i, m := range members {
			if nextMembers[i], err = prepareMember(ctx, tx, m); err != nil {
				return err
			}
			olds[i], _ = loadMember(ctx, tx, m.ID)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if err := stageTournament(ctx, pipe, nextTournament); err != nil {
				return err
			}
			for i := range nextMembers {
				if err := stageMember(ctx, pipe, nextMembers[i], olds[i]); err != nil {
					return err
				}
			}
			return nil
		})
		return err
	}, keys...)
	if err != nil {
		return err
	}

	tournament.Version = nextTournament.Version
	for i, m := range members {
		m.Version = nextMembers[i].Version
	}
	return nil
}

// Registration operations

func (s *Storage) AddRegistration(ctx context.Context, tournament *model.Tournament, member *model.Member, at time.Time) error {
	return s.linkPair(ctx, tournament, member, func(ctx context.Context, tx *redis.Tx, pipe redis.Pipeliner) error {
		pipe.HSet(ctx, tournamentRegistrationsKey(tournament.ID), member.ID.String(), at.UTC().Format(time.RFC3339Nano))
		pipe.SAdd(ctx, memberRegistrationsKey(member.ID), int64(tournament.ID))
		return nil
	}, func(registered bool) error {
		if registered {
			return model.ErrAlreadyRegistered
		}
		return nil
	})
}

func (s *Storage) RemoveRegistration(ctx context.Context, tournament *model.Tournament, member *model.Member) error {
	return s.linkPair(ctx, tournament, member, func(ctx context.Context, tx *redis.Tx, pipe redis.Pipeliner) error {
		pipe.HDel(ctx, tournamentRegistrationsKey(tournament.ID), member.ID.String())
		pipe.SRem(ctx, memberRegistrationsKey(member.ID), int64(tournament.ID))
		return nil
	}, func(registered bool) error {
		if !registered {
			return model.ErrNotRegistered
		}
		return nil
	})
}

// linkPair version-checks a tournament and member, then applies a link change
// and bumps both versions in one MULTI/EXEC
func (s *Storage) linkPair(
	ctx context.Context,
	tournament *model.Tournament,
	member *model.Member,
	stage func(ctx context.Context, tx *redis.Tx, pipe redis.Pipeliner) error,
	precondition func(registered bool) error,
) error {
	var storedT *model.Tournament
	var storedM *model.Member
	err := s.watch(ctx, func(tx *redis.Tx) error {
		var err error
		storedT, err = loadTournament(ctx, tx, tournament.ID)
		if err != nil {
			return versionMiss("tournament", int64(tournament.ID), err)
		}
		if storedT.Version != tournament.Version {
			return staleVersion("tournament", int64(tournament.ID), storedT.Version, tournament.Version)
		}
		storedM, err = loadMember(ctx, tx, member.ID)
		if err != nil {
			return versionMiss("member", int64(member.ID), err)
		}
		if storedM.Version != member.Version {
			return staleVersion("member", int64(member.ID), storedM.Version, member.Version)
		}

		registered, err := tx.HExists(ctx, tournamentRegistrationsKey(tournament.ID), member.ID.String()).Result()
		if err != nil {
			return err
		}
		if err := precondition(registered); err != nil {
			return err
		}

		storedT.Version++
		storedM.Version++

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if err := stage(ctx, tx, pipe); err != nil {
				return err
			}
			if err := setJSON(ctx, pipe, tournamentKey(storedT.ID), storedT); err != nil {
				return err
			}
			return setJSON(ctx, pipe, memberKey(storedM.ID), storedM)
		})
		return err
	}, tournamentKey(tournament.ID), memberKey(member.ID), tournamentRegistrationsKey(tournament.ID))
	if err != nil {
		return err
	}

	tournament.Version = storedT.Version
	member.Version = storedM.Version
	return nil
}

func (s *Storage) ListTournamentRegistrations(ctx context.Context, id model.TournamentID) ([]model.Registration, error) {
	entries, err := s.client.HGetAll(ctx, tournamentRegistrationsKey(id)).Result()
	if err != nil {
		return nil, err
	}

	regs := make([]model.Registration, 0, len(entries))
	for mid, at := range entries {
		parsed, err := strconv.ParseInt(mid, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt registration hash: %w", err)
		}
		reg, err := newRegistration(id, model.MemberID(parsed), at)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	sort.Slice(regs, func(i, j int) bool { return regs[i].MemberID < regs[j].MemberID })
	return regs, nil
}

func (s *Storage) ListMemberRegistrations(ctx context.Context, id model.MemberID) ([]model.Registration, error) {
	tids, err := s.sortedIDs(ctx, memberRegistrationsKey(id))
	if err != nil {
		return nil, err
	}

	regs := make([]model.Registration, 0, len(tids))
	for _, tid := range tids {
		at, err := s.client.HGet(ctx, tournamentRegistrationsKey(model.TournamentID(tid)), id.String()).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, err
		}
		reg, err := newRegistration(model.TournamentID(tid), id, at)
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	return regs, nil
}

func (s *Storage) CountRegistrations(ctx context.Context, id model.TournamentID) (int, error) {
	n, err := s.client.HLen(ctx, tournamentRegistrationsKey(id)).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// sortedIDs reads a SET of numeric IDs in ascending order
func (s *Storage) sortedIDs(ctx context.Context, key string) ([]int64, error) {
	raw, err := s.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(raw))
	for _, r := range raw {
		id, err := strconv.ParseInt(r, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt id set %s: %w", key, err)
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Helpers

// reader is the read surface shared by *redis.Client and *redis.Tx
type reader interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func loadMember(ctx context.Context, c reader, id model.MemberID) (*model.Member, error) {
	var m model.Member
	if err := getJSON(ctx, c, memberKey(id), &m); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrMemberNotFound
		}
		return nil, err
	}
	return &m, nil
}

func loadTournament(ctx context.Context, c reader, id model.TournamentID) (*model.Tournament, error) {
	var t model.Tournament
	if err := getJSON(ctx, c, tournamentKey(id), &t); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrTournamentNotFound
		}
		return nil, err
	}
	return &t, nil
}

func getJSON(ctx context.Context, c reader, key string, out any) error {
	data, err := c.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func setJSON(ctx context.Context, pipe redis.Pipeliner, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	pipe.Set(ctx, key, data, 0)
	return nil
}

// prepareMember version-checks a member write and returns the value to store
func prepareMember(ctx context.Context, tx *redis.Tx, member *model.Member) (*model.Member, error) {
	stored, err := loadMember(ctx, tx, member.ID)
	if err != nil {
		return nil, versionMiss("member", int64(member.ID), err)
	}
	if stored.Version != member.Version {
		return nil, staleVersion("member", int64(member.ID), stored.Version, member.Version)
	}
	if err := checkContact(ctx, tx, member); err != nil {
		return nil, err
	}
	next := member.Clone()
	next.Version = stored.Version + 1
	return next, nil
}

// stageMember queues a member write plus its contact index moves
func stageMember(ctx context.Context, pipe redis.Pipeliner, member, old *model.Member) error {
	if err := setJSON(ctx, pipe, memberKey(member.ID), member); err != nil {
		return err
	}
	if old != nil && old.Email != member.Email {
		pipe.Del(ctx, emailIndexKey(old.Email))
	}
	if old != nil && old.Phone != "" && old.Phone != member.Phone {
		pipe.Del(ctx, phoneIndexKey(old.Phone))
	}
	pipe.Set(ctx, emailIndexKey(member.Email), member.ID.String(), 0)
	if member.Phone != "" {
		pipe.Set(ctx, phoneIndexKey(member.Phone), member.ID.String(), 0)
	}
	pipe.SAdd(ctx, membersKey(), int64(member.ID))
	return nil
}

func stageTournament(ctx context.Context, pipe redis.Pipeliner, tournament *model.Tournament) error {
	if err := setJSON(ctx, pipe, tournamentKey(tournament.ID), tournament); err != nil {
		return err
	}
	pipe.SAdd(ctx, tournamentsKey(), int64(tournament.ID))
	return nil
}

// checkContact rejects an email or phone already indexed to another member
func checkContact(ctx context.Context, c reader, member *model.Member) error {
	taken, err := indexTaken(ctx, c, emailIndexKey(member.Email), member.ID)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("email %s: %w", member.Email, model.ErrDuplicateContact)
	}
	if member.Phone == "" {
		return nil
	}
	taken, err = indexTaken(ctx, c, phoneIndexKey(member.Phone), member.ID)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("phone %s: %w", member.Phone, model.ErrDuplicateContact)
	}
	return nil
}

func indexTaken(ctx context.Context, c reader, key string, owner model.MemberID) (bool, error) {
	val, err := c.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return val != owner.String(), nil
}

func contactKeys(member *model.Member) []string {
	keys := []string{emailIndexKey(member.Email)}
	if member.Phone != "" {
		keys = append(keys, phoneIndexKey(member.Phone))
	}
	return keys
}

func memberWatchKeys(member *model.Member) []string {
	return append([]string{memberKey(member.ID)}, contactKeys(member)...)
}

func newRegistration(tid model.TournamentID, mid model.MemberID, at string) (model.Registration, error) {
	ts, err := time.Parse(time.RFC3339Nano, at)
	if err != nil {
		return model.Registration{}, fmt.Errorf("corrupt registration time: %w", err)
	}
	return model.Registration{TournamentID: tid, MemberID: mid, RegisteredAt: ts}, nil
}

func versionMiss(kind string, id int64, err error) error {
	if errors.Is(err, model.ErrMemberNotFound) || errors.Is(err, model.ErrTournamentNotFound) {
		return fmt.Errorf("%s %d: %w", kind, id, model.ErrVersionConflict)
	}
	return err
}

func staleVersion(kind string, id int64, stored, have int64) error {
	return fmt.Errorf("%s %d at version %d, have %d: %w", kind, id, stored, have, model.ErrVersionConflict)
}
