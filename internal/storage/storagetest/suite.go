// Package storagetest holds the behaviour every storage backend must share
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/competecore/competecore/internal/model"
	"github.com/competecore/competecore/internal/storage"
	"github.com/stretchr/testify/suite"
)

// Suite runs the storage contract against a backend. Backends embed it
// and set NewStorage, which must return an empty store.
type Suite struct {
	suite.Suite
	NewStorage func() storage.Storage

	Storage storage.Storage
	Ctx     context.Context
	base    time.Time
}

func (s *Suite) SetupTest() {
	s.Require().NotNil(s.NewStorage, "NewStorage must be set")
	s.Storage = s.NewStorage()
	s.Ctx = context.Background()
	s.base = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *Suite) TearDownTest() {
	if s.Storage != nil {
		_ = s.Storage.Close()
	}
}

func (s *Suite) newUser(n int) *model.User {
	return &model.User{
		ID:           model.UserID(fmt.Sprintf("user-%d", n)),
		Email:        fmt.Sprintf("user%d@example.com", n),
		Username:     fmt.Sprintf("player%d", n),
		PasswordHash: "hash",
		JoinedAt:     s.base.Add(time.Duration(n) * time.Minute),
	}
}

func (s *Suite) newMatch(n int, creator model.UserID) *model.Match {
	return &model.Match{
		ID:                model.MatchID(fmt.Sprintf("match-%d", n)),
		InviteCode:        model.InviteCode(fmt.Sprintf("CODE%02d", n)),
		CreatedBy:         creator,
		CreatedByUsername: "creator",
		MatchSettings: model.MatchSettings{
			GameMode:          "snd",
			InputMethod:       "controller",
			WeaponRestriction: "all",
			ScoreLimit:        50,
			TimeLimit:         10,
			Type:              model.MatchTypeCasual,
		},
		Status:    model.MatchStatusOpen,
		CreatedAt: s.base.Add(time.Duration(n) * time.Minute),
	}
}

// User tests

func (s *Suite) TestCreateAndGetUser() {
	user := s.newUser(1)
	s.Require().NoError(s.Storage.CreateUser(s.Ctx, user))

	got, err := s.Storage.GetUser(s.Ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(user.Email, got.Email)
	s.Equal(user.Username, got.Username)
	s.Equal(user.PasswordHash, got.PasswordHash)
	s.True(user.JoinedAt.Equal(got.JoinedAt))
	s.Equal(model.UserStats{}, got.Stats)
}

func (s *Suite) TestGetUserNotFound() {
	_, err := s.Storage.GetUser(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrUserNotFound)

	_, err = s.Storage.GetUserByEmail(s.Ctx, "missing@example.com")
	s.ErrorIs(err, model.ErrUserNotFound)

	_, err = s.Storage.GetUserByUsername(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *Suite) TestGetUserByEmailAndUsername() {
	user := s.newUser(1)
	s.Require().NoError(s.Storage.CreateUser(s.Ctx, user))

	byEmail, err := s.Storage.GetUserByEmail(s.Ctx, user.Email)
	s.Require().NoError(err)
	s.Equal(user.ID, byEmail.ID)

	byName, err := s.Storage.GetUserByUsername(s.Ctx, user.Username)
	s.Require().NoError(err)
	s.Equal(user.ID, byName.ID)
}

func (s *Suite) TestCreateUserDuplicateEmail() {
	s.Require().NoError(s.Storage.CreateUser(s.Ctx, s.newUser(1)))

	dup := s.newUser(2)
	dup.Email = "user1@example.com"
	s.ErrorIs(s.Storage.CreateUser(s.Ctx, dup), model.ErrUserExists)

	users, err := s.Storage.ListUsers(s.Ctx)
	s.Require().NoError(err)
	s.Len(users, 1)
}

func (s *Suite) TestCreateUserDuplicateUsername() {
	s.Require().NoError(s.Storage.CreateUser(s.Ctx, s.newUser(1)))

	dup := s.newUser(2)
	dup.Username = "player1"
	s.ErrorIs(s.Storage.CreateUser(s.Ctx, dup), model.ErrUserExists)

	_, err := s.Storage.GetUserByEmail(s.Ctx, dup.Email)
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *Suite) TestConcurrentSignupsWithSameEmail() {
	const attempts = 10
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u := s.newUser(i)
			u.Email = "race@example.com"
			errs[i] = s.Storage.CreateUser(s.Ctx, u)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			s.ErrorIs(err, model.ErrUserExists)
		}
	}
	s.Equal(1, succeeded)
}

func (s *Suite) TestListUsersInRegistrationOrder() {
	for i := 1; i <= 3; i++ {
		s.Require().NoError(s.Storage.CreateUser(s.Ctx, s.newUser(i)))
	}

	users, err := s.Storage.ListUsers(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(users, 3)
	s.Equal(model.UserID("user-1"), users[0].ID)
	s.Equal(model.UserID("user-2"), users[1].ID)
	s.Equal(model.UserID("user-3"), users[2].ID)
}

func (s *Suite) TestListUsersEmpty() {
	users, err := s.Storage.ListUsers(s.Ctx)
	s.Require().NoError(err)
	s.Empty(users)
}

func (s *Suite) TestUpdateUser() {
	user := s.newUser(1)
	s.Require().NoError(s.Storage.CreateUser(s.Ctx, user))

	updated, err := s.Storage.UpdateUser(s.Ctx, user.ID, func(u *model.User) error {
		u.Stats.Wins++
		u.Stats.Earnings += 25
		return nil
	})
	s.Require().NoError(err)
	s.Equal(1, updated.Stats.Wins)

	got, err := s.Storage.GetUser(s.Ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(1, got.Stats.Wins)
	s.Equal(25.0, got.Stats.Earnings)
}

func (s *Suite) TestUpdateUserAbort() {
	user := s.newUser(1)
	s.Require().NoError(s.Storage.CreateUser(s.Ctx, user))

	abort := errors.New("abort")
	_, err := s.Storage.UpdateUser(s.Ctx, user.ID, func(u *model.User) error {
		u.Stats.Wins = 99
		return abort
	})
	s.ErrorIs(err, abort)

	got, err := s.Storage.GetUser(s.Ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(0, got.Stats.Wins)
}

func (s *Suite) TestUpdateUserNotFound() {
	_, err := s.Storage.UpdateUser(s.Ctx, "missing", func(u *model.User) error { return nil })
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *Suite) TestConcurrentUserUpdates() {
	user := s.newUser(1)
	s.Require().NoError(s.Storage.CreateUser(s.Ctx, user))

	const workers = 5
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Storage.UpdateUser(s.Ctx, user.ID, func(u *model.User) error {
				u.Stats.Wins++
				return nil
			})
			s.NoError(err)
		}()
	}
	wg.Wait()

	got, err := s.Storage.GetUser(s.Ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(workers, got.Stats.Wins)
}

// Session tests

func (s *Suite) TestSaveAndGetSession() {
	user := s.newUser(1)
	session := &model.Session{
		ID:        "session-1",
		UserID:    user.ID,
		User:      user.Public(),
		CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	s.Require().NoError(s.Storage.SaveSession(s.Ctx, session))

	got, err := s.Storage.GetSession(s.Ctx, "session-1")
	s.Require().NoError(err)
	s.Equal(user.ID, got.UserID)
	s.Equal(user.Username, got.User.Username)
}

func (s *Suite) TestGetSessionNotFound() {
	_, err := s.Storage.GetSession(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *Suite) TestDeleteSession() {
	session := &model.Session{
		ID:        "session-1",
		UserID:    "user-1",
		CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	s.Require().NoError(s.Storage.SaveSession(s.Ctx, session))
	s.Require().NoError(s.Storage.DeleteSession(s.Ctx, "session-1"))

	_, err := s.Storage.GetSession(s.Ctx, "session-1")
	s.ErrorIs(err, model.ErrSessionNotFound)

	// Deleting again is a no-op
	s.NoError(s.Storage.DeleteSession(s.Ctx, "session-1"))
}

// Match tests

func (s *Suite) TestCreateAndGetMatch() {
	match := s.newMatch(1, "user-1")
	s.Require().NoError(s.Storage.CreateMatch(s.Ctx, match))

	got, err := s.Storage.GetMatch(s.Ctx, match.ID)
	s.Require().NoError(err)
	s.Equal(match.InviteCode, got.InviteCode)
	s.Equal(match.CreatedBy, got.CreatedBy)
	s.Equal(match.MatchSettings, got.MatchSettings)
	s.Equal(model.MatchStatusOpen, got.Status)
	s.Nil(got.JoinedAt)
}

func (s *Suite) TestGetMatchNotFound() {
	_, err := s.Storage.GetMatch(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrMatchNotFound)
}

func (s *Suite) TestGetMatchByInviteCode() {
	match := s.newMatch(1, "user-1")
	s.Require().NoError(s.Storage.CreateMatch(s.Ctx, match))

	got, err := s.Storage.GetMatchByInviteCode(s.Ctx, match.InviteCode)
	s.Require().NoError(err)
	s.Equal(match.ID, got.ID)

	_, err = s.Storage.GetMatchByInviteCode(s.Ctx, "NOPE00")
	s.ErrorIs(err, model.ErrInviteCodeNotFound)
}

func (s *Suite) TestInviteCodeExists() {
	match := s.newMatch(1, "user-1")

	exists, err := s.Storage.InviteCodeExists(s.Ctx, match.InviteCode)
	s.Require().NoError(err)
	s.False(exists)

	s.Require().NoError(s.Storage.CreateMatch(s.Ctx, match))

	exists, err = s.Storage.InviteCodeExists(s.Ctx, match.InviteCode)
	s.Require().NoError(err)
	s.True(exists)
}

func (s *Suite) TestListMatchesNewestFirst() {
	for i := 1; i <= 3; i++ {
		s.Require().NoError(s.Storage.CreateMatch(s.Ctx, s.newMatch(i, "user-1")))
	}

	matches, err := s.Storage.ListMatches(s.Ctx)
	s.Require().NoError(err)
	s.Require().Len(matches, 3)
	s.Equal(model.MatchID("match-3"), matches[0].ID)
	s.Equal(model.MatchID("match-2"), matches[1].ID)
	s.Equal(model.MatchID("match-1"), matches[2].ID)
}

func (s *Suite) TestUpdateMatch() {
	match := s.newMatch(1, "user-1")
	s.Require().NoError(s.Storage.CreateMatch(s.Ctx, match))

	joined := s.base.Add(time.Hour)
	updated, err := s.Storage.UpdateMatch(s.Ctx, match.ID, func(m *model.Match) error {
		m.Opponent = "user-2"
		m.OpponentUsername = "player2"
		m.Status = model.MatchStatusInProgress
		m.JoinedAt = &joined
		return nil
	})
	s.Require().NoError(err)
	s.Equal(match.Version+1, updated.Version)

	got, err := s.Storage.GetMatch(s.Ctx, match.ID)
	s.Require().NoError(err)
	s.Equal(model.MatchStatusInProgress, got.Status)
	s.Equal(model.UserID("user-2"), got.Opponent)
	s.Require().NotNil(got.JoinedAt)
	s.True(joined.Equal(*got.JoinedAt))
	s.Equal(updated.Version, got.Version)
}

func (s *Suite) TestUpdateMatchNotFound() {
	_, err := s.Storage.UpdateMatch(s.Ctx, "missing", func(m *model.Match) error { return nil })
	s.ErrorIs(err, model.ErrMatchNotFound)

	matches, err := s.Storage.ListMatches(s.Ctx)
	s.Require().NoError(err)
	s.Empty(matches)
}

func (s *Suite) TestUpdateMatchAbortLeavesMatchUnchanged() {
	match := s.newMatch(1, "user-1")
	s.Require().NoError(s.Storage.CreateMatch(s.Ctx, match))

	_, err := s.Storage.UpdateMatch(s.Ctx, match.ID, func(m *model.Match) error {
		m.Status = model.MatchStatusCompleted
		return model.ErrMatchNotOpen
	})
	s.ErrorIs(err, model.ErrMatchNotOpen)

	got, err := s.Storage.GetMatch(s.Ctx, match.ID)
	s.Require().NoError(err)
	s.Equal(model.MatchStatusOpen, got.Status)
	s.Equal(match.Version, got.Version)
}

func (s *Suite) TestRacingJoinersOnlyOneWins() {
	match := s.newMatch(1, "user-1")
	s.Require().NoError(s.Storage.CreateMatch(s.Ctx, match))

	const joiners = 6
	var wg sync.WaitGroup
	errs := make([]error, joiners)
	for i := 0; i < joiners; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Storage.UpdateMatch(s.Ctx, match.ID, func(m *model.Match) error {
				if !m.IsOpen() {
					return model.ErrMatchNotOpen
				}
				m.Opponent = model.UserID(fmt.Sprintf("joiner-%d", i))
				m.Status = model.MatchStatusInProgress
				return nil
			})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		s.True(errors.Is(err, model.ErrMatchNotOpen) || errors.Is(err, model.ErrConflict), "unexpected error: %v", err)
	}
	s.Equal(1, winners)

	got, err := s.Storage.GetMatch(s.Ctx, match.ID)
	s.Require().NoError(err)
	s.Equal(model.MatchStatusInProgress, got.Status)
	s.Equal(int64(1), got.Version)
}
