package leaderboard

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/competecore/competecore/internal/model"
	"github.com/competecore/competecore/internal/storage/memory"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	service *Service
	ctx     context.Context
	n       int
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.service = New(s.storage)
	s.ctx = context.Background()
	s.n = 0
}

func (s *ServiceSuite) addUser(name string, stats model.UserStats) model.UserID {
	s.n++
	user := &model.User{
		ID:       model.UserID(name),
		Email:    name + "@example.com",
		Username: name,
		JoinedAt: time.Date(2024, 1, 1, 12, s.n, 0, 0, time.UTC),
		Stats:    stats,
	}
	s.Require().NoError(s.storage.CreateUser(s.ctx, user))
	return user.ID
}

func usernames(entries []Entry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.User.Username
	}
	return names
}

func (s *ServiceSuite) TestTopPlayersOrdersByWins() {
	s.addUser("low", model.UserStats{Wins: 1, Losses: 0})
	s.addUser("high", model.UserStats{Wins: 5, Losses: 5})
	s.addUser("mid", model.UserStats{Wins: 3, Losses: 0})

	entries, err := s.service.TopPlayers(s.ctx, 0)
	s.Require().NoError(err)
	s.Equal([]string{"high", "mid", "low"}, usernames(entries))
	s.Equal(1, entries[0].Rank)
	s.Equal(50, entries[0].WinRate)
	s.Equal(10, entries[0].GamesPlayed)
}

func (s *ServiceSuite) TestTopPlayersBreaksTiesByWinRate() {
	s.addUser("sloppy", model.UserStats{Wins: 4, Losses: 4})
	s.addUser("clean", model.UserStats{Wins: 4, Losses: 1})

	entries, err := s.service.TopPlayers(s.ctx, 10)
	s.Require().NoError(err)
	s.Equal([]string{"clean", "sloppy"}, usernames(entries))
}

func (s *ServiceSuite) TestTopPlayersStableOnFullTie() {
	s.addUser("first", model.UserStats{})
	s.addUser("second", model.UserStats{})
	s.addUser("third", model.UserStats{})

	entries, err := s.service.TopPlayers(s.ctx, 10)
	s.Require().NoError(err)
	s.Equal([]string{"first", "second", "third"}, usernames(entries))
	s.Equal(0, entries[0].WinRate)
}

func (s *ServiceSuite) TestTopPlayersDefaultLimit() {
	for i := 0; i < 15; i++ {
		s.addUser(fmt.Sprintf("user%02d", i), model.UserStats{Wins: i})
	}

	entries, err := s.service.TopPlayers(s.ctx, 0)
	s.Require().NoError(err)
	s.Len(entries, DefaultLimit)
	s.Equal("user14", entries[0].User.Username)
}

func (s *ServiceSuite) TestTopEarners() {
	s.addUser("broke", model.UserStats{Wins: 10})
	s.addUser("rich", model.UserStats{Wins: 1, Earnings: 100})
	s.addUser("comfy", model.UserStats{Wins: 2, Earnings: 40})

	entries, err := s.service.TopEarners(s.ctx, 2)
	s.Require().NoError(err)
	s.Equal([]string{"rich", "comfy"}, usernames(entries))
}

func (s *ServiceSuite) TestTopEarnersTiesKeepRegistrationOrder() {
	s.addUser("early", model.UserStats{Wins: 1, Earnings: 50})
	s.addUser("late", model.UserStats{Wins: 9, Earnings: 50})

	entries, err := s.service.TopEarners(s.ctx, 10)
	s.Require().NoError(err)
	s.Equal([]string{"early", "late"}, usernames(entries))
}

func (s *ServiceSuite) TestProfile() {
	s.addUser("alice", model.UserStats{Wins: 2, Losses: 1})
	bob := s.addUser("bob", model.UserStats{Wins: 1, Losses: 2})

	profile, err := s.service.Profile(s.ctx, bob)
	s.Require().NoError(err)
	s.Equal("bob", profile.User.Username)
	s.Equal(33, profile.WinRate)
	s.Equal(3, profile.GamesPlayed)
	s.Equal(2, profile.Rank)
}

func (s *ServiceSuite) TestProfileUnknownUser() {
	_, err := s.service.Profile(s.ctx, "missing")
	s.ErrorIs(err, model.ErrUserNotFound)
}
