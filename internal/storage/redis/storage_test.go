package redis

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/golfclub/internal/model"
	"github.com/mcoot/golfclub/internal/storage"
	"github.com/mcoot/golfclub/internal/storage/storagetest"
)

type StorageSuite struct {
	storagetest.Suite
	mini    *miniredis.Miniredis
	storage *Storage
}

func TestStorageSuite(t *testing.T) {
	s := new(StorageSuite)
	s.NewStorage = func() storage.Storage {
		s.mini = miniredis.RunT(s.T())
		client := redis.NewClient(&redis.Options{
			Addr: s.mini.Addr(),
		})
		s.storage = NewWithClient(client, DefaultConfig())
		return s.storage
	}
	suite.Run(t, s)
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) TestKeysUsePrefix() {
	m := &model.Member{Name: "Alice", Email: "alice@example.com", Phone: "555-111-2222", StartDate: model.Date(2024, time.January, 1)}
	s.Require().NoError(s.Store.CreateMember(s.Ctx, m))

	s.True(s.mini.Exists("golfclub:member:1"))
	s.True(s.mini.Exists("golfclub:idx:email:alice@example.com"))
	s.True(s.mini.Exists("golfclub:idx:phone:555-111-2222"))

	id, err := s.mini.Get("golfclub:idx:email:alice@example.com")
	s.Require().NoError(err)
	s.Equal("1", id)
}

func (s *StorageSuite) TestRegistrationStoredOnBothSides() {
	m := &model.Member{Name: "Alice", Email: "alice@example.com", StartDate: model.Date(2024, time.January, 1)}
	s.Require().NoError(s.Store.CreateMember(s.Ctx, m))
	t := &model.Tournament{Location: "Augusta", StartDate: model.Date(2024, time.March, 1), EndDate: model.Date(2024, time.March, 2)}
	s.Require().NoError(s.Store.CreateTournament(s.Ctx, t))

	at := time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC)
	s.Require().NoError(s.Store.AddRegistration(s.Ctx, t, m, at))

	s.Equal("2024-02-01T09:30:00Z", s.mini.HGet("golfclub:reg:tournament:1", "1"))
	isMember, err := s.mini.SIsMember("golfclub:reg:member:1", "1")
	s.Require().NoError(err)
	s.True(isMember)

	regs, err := s.Store.ListMemberRegistrations(s.Ctx, m.ID)
	s.Require().NoError(err)
	s.Require().Len(regs, 1)
	s.True(at.Equal(regs[0].RegisteredAt))
}

func (s *StorageSuite) TestNewRejectsBadURL() {
	_, err := New(Config{URL: "not-a-url"})
	s.Error(err)
}

func (s *StorageSuite) TestNewConnects() {
	cfg := DefaultConfig()
	cfg.URL = "redis://" + s.mini.Addr()
	st, err := New(cfg)
	s.Require().NoError(err)
	s.NoError(st.Close())
}
