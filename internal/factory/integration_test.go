package factory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/competecore/competecore/internal/model"
	redisstorage "github.com/competecore/competecore/internal/storage/redis"
	"github.com/competecore/competecore/internal/stream"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
}

func (s *IntegrationSuite) TearDownTest() {
	s.NoError(s.app.Close())
}

func (s *IntegrationSuite) signup(email, username string) model.PublicUser {
	session, err := s.app.AuthService.Signup(s.ctx, email, "secret123", username)
	s.Require().NoError(err)
	return session.User
}

func (s *IntegrationSuite) settings(matchType model.MatchType, wager float64) model.MatchSettings {
	return model.MatchSettings{
		GameMode:          "snd",
		InputMethod:       "cross",
		WeaponRestriction: "all",
		ScoreLimit:        50,
		TimeLimit:         10,
		WagerAmount:       wager,
		Type:              matchType,
	}
}

func (s *IntegrationSuite) nextEvent(client *stream.Client) model.Event {
	select {
	case msg := <-client.Messages():
		var event model.Event
		s.Require().NoError(json.Unmarshal(msg.Data, &event))
		s.Equal(string(event.Type), msg.Event)
		return event
	case <-time.After(time.Second):
		s.FailNow("timed out waiting for event")
		return model.Event{}
	}
}

// Test: signup, post a wager match, join by invite code, report the result
func (s *IntegrationSuite) TestCompleteMatchFlow() {
	s.app.MockRandom.QueueString("ABC234")

	alice := s.signup("alice@example.com", "alice")
	bob := s.signup("bob@example.com", "bob")

	// Step 1: Alice posts a wager match
	match, err := s.app.MatchesController.CreateMatch(s.ctx, alice, s.settings(model.MatchTypeWager, 25))
	s.Require().NoError(err)
	s.Equal(model.InviteCode("ABC234"), match.InviteCode)

	open, err := s.app.MatchesController.GetOpenMatches(s.ctx)
	s.Require().NoError(err)
	s.Len(open, 1)

	// Step 2: Bob joins with the code
	s.app.MockClock.Advance(5 * time.Minute)
	joined, err := s.app.MatchesController.JoinByInviteCode(s.ctx, "ABC234", bob)
	s.Require().NoError(err)
	s.Equal(model.MatchStatusInProgress, joined.Status)
	s.Equal("bob", joined.OpponentUsername)

	open, err = s.app.MatchesController.GetOpenMatches(s.ctx)
	s.Require().NoError(err)
	s.Empty(open)

	// Step 3: Bob reports that Alice won
	completed, err := s.app.MatchesController.CompleteMatch(s.ctx, match.ID, bob.ID, alice.ID)
	s.Require().NoError(err)
	s.Equal(model.MatchStatusCompleted, completed.Status)
	s.Equal(alice.ID, completed.WinnerID)

	// Step 4: Stats and leaderboard reflect the result
	top, err := s.app.LeaderboardService.TopPlayers(s.ctx, 0)
	s.Require().NoError(err)
	s.Require().Len(top, 2)
	s.Equal("alice", top[0].User.Username)
	s.Equal(model.UserStats{Wins: 1, Earnings: 25}, top[0].User.Stats)
	s.Equal(100, top[0].WinRate)
	s.Equal(model.UserStats{Losses: 1}, top[1].User.Stats)

	profile, err := s.app.LeaderboardService.Profile(s.ctx, bob.ID)
	s.Require().NoError(err)
	s.Equal(2, profile.Rank)
	s.Equal(0, profile.WinRate)
}

// Test: events reach the public feed and the personal topics of participants
func (s *IntegrationSuite) TestEventsReachSubscribers() {
	alice := s.signup("alice@example.com", "alice")
	bob := s.signup("bob@example.com", "bob")

	feed, unsubscribeFeed := s.app.HubManager.Subscribe("", stream.TopicMatches)
	defer unsubscribeFeed()
	aliceClient, unsubscribeAlice := s.app.HubManager.Subscribe(alice.ID, stream.UserTopic(alice.ID))
	defer unsubscribeAlice()

	match, err := s.app.MatchesController.CreateMatch(s.ctx, alice, s.settings(model.MatchTypeCasual, 0))
	s.Require().NoError(err)

	event := s.nextEvent(feed)
	s.Equal(model.EventMatchCreated, event.Type)
	s.Equal(match.ID, event.MatchID)
	s.Equal(model.EventMatchCreated, s.nextEvent(aliceClient).Type)

	_, err = s.app.MatchesController.JoinMatch(s.ctx, match.ID, bob)
	s.Require().NoError(err)

	event = s.nextEvent(aliceClient)
	s.Equal(model.EventMatchJoined, event.Type)
	s.Equal(bob.ID, event.UserID)
	s.Require().NotNil(event.Match)
	s.Equal(bob.ID, event.Match.Opponent)
	s.Equal(model.EventMatchJoined, s.nextEvent(feed).Type)
}

// Test: sessions survive across services sharing one storage
func (s *IntegrationSuite) TestSessionLifecycle() {
	session, err := s.app.AuthService.Signup(s.ctx, "carol@example.com", "secret123", "carol")
	s.Require().NoError(err)

	validated, err := s.app.AuthService.ValidateSession(s.ctx, session.Token)
	s.Require().NoError(err)
	s.Equal(session.ID, validated.ID)

	s.app.MockClock.Advance(25 * time.Hour)
	_, err = s.app.AuthService.ValidateSession(s.ctx, session.Token)
	s.Error(err)

	_, err = s.app.Storage.GetSession(s.ctx, session.ID)
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func TestNewDefaultsToMemory(t *testing.T) {
	app, err := New(context.Background(), Config{})
	require.NoError(t, err)
	defer app.Close()

	assert.Equal(t, StorageTypeMemory, app.StorageType)
	assert.NotNil(t, app.AuthService)
	assert.NotNil(t, app.MatchesController)
	assert.NotNil(t, app.LeaderboardService)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	ctx := context.Background()

	_, err := New(ctx, Config{StorageType: "cassandra"})
	assert.Error(t, err)

	_, err = New(ctx, Config{StorageType: StorageTypeRedis})
	assert.Error(t, err)

	_, err = New(ctx, Config{StorageType: StorageTypePostgres})
	assert.Error(t, err)

	_, err = New(ctx, Config{StorageType: StorageTypeMongo})
	assert.Error(t, err)

	_, err = New(ctx, Config{EventRelay: "kafka"})
	assert.Error(t, err)

	_, err = New(ctx, Config{EventRelay: EventRelayRedis})
	assert.Error(t, err)
}

func TestRedisStorageWithRedisRelay(t *testing.T) {
	mr := miniredis.RunT(t)
	redisCfg := redisstorage.DefaultConfig()
	redisCfg.URL = "redis://" + mr.Addr()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := New(ctx, Config{
		StorageType: StorageTypeRedis,
		RedisConfig: &redisCfg,
		EventRelay:  EventRelayRedis,
	})
	require.NoError(t, err)
	defer app.Close()
	app.Start(ctx)

	feed, unsubscribe := app.HubManager.Subscribe("", stream.TopicMatches)
	defer unsubscribe()

	session, err := app.AuthService.Signup(ctx, "dave@example.com", "secret123", "dave")
	require.NoError(t, err)

	select {
	case msg := <-feed.Messages():
		assert.Equal(t, string(model.EventUserRegistered), msg.Event)
		assert.Contains(t, string(msg.Data), string(session.UserID))
	case <-time.After(2 * time.Second):
		t.Fatal("event was not relayed through redis")
	}

	stored, err := app.Storage.GetUserByEmail(ctx, "dave@example.com")
	require.NoError(t, err)
	assert.Equal(t, "dave", stored.Username)
}
