package memory

import (
	"testing"

	"github.com/competecore/competecore/internal/model"
	"github.com/competecore/competecore/internal/storage"
	"github.com/competecore/competecore/internal/storage/storagetest"
	"github.com/stretchr/testify/suite"
)

type StorageSuite struct {
	storagetest.Suite
}

func TestStorageSuite(t *testing.T) {
	s := new(StorageSuite)
	s.NewStorage = func() storage.Storage { return New() }
	suite.Run(t, s)
}

func (s *StorageSuite) TestReturnedUsersAreCopies() {
	user := &model.User{ID: "user-1", Email: "a@example.com", Username: "alice"}
	s.Require().NoError(s.Storage.CreateUser(s.Ctx, user))

	got, err := s.Storage.GetUser(s.Ctx, "user-1")
	s.Require().NoError(err)
	got.Stats.Wins = 10

	again, err := s.Storage.GetUser(s.Ctx, "user-1")
	s.Require().NoError(err)
	s.Equal(0, again.Stats.Wins)
}

func (s *StorageSuite) TestCreateMatchDuplicateInviteCode() {
	first := &model.Match{ID: "match-1", InviteCode: "ABC123", CreatedBy: "user-1"}
	second := &model.Match{ID: "match-2", InviteCode: "ABC123", CreatedBy: "user-1"}
	s.Require().NoError(s.Storage.CreateMatch(s.Ctx, first))
	s.ErrorIs(s.Storage.CreateMatch(s.Ctx, second), model.ErrConflict)
}
