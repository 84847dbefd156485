package leaderboard

import (
	"context"
	"sort"

	"github.com/competecore/competecore/internal/model"
	"github.com/competecore/competecore/internal/storage"
)

// DefaultLimit is the number of entries shown when no limit is given
const DefaultLimit = 10

// Ranking selects how players are ordered
type Ranking string

const (
	RankByWins     Ranking = "wins"
	RankByEarnings Ranking = "earnings"
)

// Entry is one row of a leaderboard
type Entry struct {
	Rank        int              `json:"rank"`
	User        model.PublicUser `json:"user"`
	WinRate     int              `json:"win_rate"`
	GamesPlayed int              `json:"games_played"`
}

// Profile is a user's public record with derived values
type Profile struct {
	User        model.PublicUser `json:"user"`
	WinRate     int              `json:"win_rate"`
	GamesPlayed int              `json:"games_played"`
	Rank        int              `json:"rank"`
}

// Service derives rankings from user stats
type Service struct {
	storage storage.Storage
}

// New creates a new leaderboard Service
func New(storage storage.Storage) *Service {
	return &Service{storage: storage}
}

// TopPlayers orders users by wins, then by win rate. Ties keep
// registration order.
func (s *Service) TopPlayers(ctx context.Context, n int) ([]Entry, error) {
	return s.top(ctx, RankByWins, n)
}

// TopEarners orders users by total earnings, then by wins
func (s *Service) TopEarners(ctx context.Context, n int) ([]Entry, error) {
	return s.top(ctx, RankByEarnings, n)
}

// Top returns the leaderboard for the given ranking
func (s *Service) Top(ctx context.Context, by Ranking, n int) ([]Entry, error) {
	return s.top(ctx, by, n)
}

// Profile returns the user's record and their position on the wins board
func (s *Service) Profile(ctx context.Context, id model.UserID) (*Profile, error) {
	users, err := s.ranked(ctx, RankByWins)
	if err != nil {
		return nil, err
	}
	for i, u := range users {
		if u.ID == id {
			return &Profile{
				User:        u.Public(),
				WinRate:     u.Stats.WinRate(),
				GamesPlayed: u.Stats.GamesPlayed(),
				Rank:        i + 1,
			}, nil
		}
	}
	return nil, model.ErrUserNotFound
}

func (s *Service) top(ctx context.Context, by Ranking, n int) ([]Entry, error) {
	if n <= 0 {
		n = DefaultLimit
	}
	users, err := s.ranked(ctx, by)
	if err != nil {
		return nil, err
	}
	if len(users) > n {
		users = users[:n]
	}

	entries := make([]Entry, 0, len(users))
	for i, u := range users {
		entries = append(entries, Entry{
			Rank:        i + 1,
			User:        u.Public(),
			WinRate:     u.Stats.WinRate(),
			GamesPlayed: u.Stats.GamesPlayed(),
		})
	}
	return entries, nil
}

func (s *Service) ranked(ctx context.Context, by Ranking) ([]*model.User, error) {
	users, err := s.storage.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	var less func(a, b *model.User) bool
	switch by {
	case RankByEarnings:
		// Equal earnings keep registration order
		less = func(a, b *model.User) bool {
			return a.Stats.Earnings > b.Stats.Earnings
		}
	default:
		less = func(a, b *model.User) bool {
			if a.Stats.Wins != b.Stats.Wins {
				return a.Stats.Wins > b.Stats.Wins
			}
			return winRatio(a.Stats) > winRatio(b.Stats)
		}
	}

	sort.SliceStable(users, func(i, j int) bool { return less(users[i], users[j]) })
	return users, nil
}

// winRatio is wins / max(games, 1), unrounded so close records still order
func winRatio(s model.UserStats) float64 {
	games := s.GamesPlayed()
	if games < 1 {
		games = 1
	}
	return float64(s.Wins) / float64(games)
}
