package mongo

import (
	"time"

	"github.com/competecore/competecore/internal/model"
)

type userDoc struct {
	ID           string    `bson:"_id"`
	Seq          int64     `bson:"seq"`
	Email        string    `bson:"email"`
	Username     string    `bson:"username"`
	PasswordHash string    `bson:"password_hash"`
	JoinedAt     time.Time `bson:"joined_at"`
	Wins         int       `bson:"wins"`
	Losses       int       `bson:"losses"`
	Earnings     float64   `bson:"earnings"`
	Version      int64     `bson:"version"`
}

func toUserDoc(u *model.User) userDoc {
	return userDoc{
		ID:           string(u.ID),
		Email:        u.Email,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		JoinedAt:     u.JoinedAt,
		Wins:         u.Stats.Wins,
		Losses:       u.Stats.Losses,
		Earnings:     u.Stats.Earnings,
	}
}

func (d userDoc) model() *model.User {
	return &model.User{
		ID:           model.UserID(d.ID),
		Email:        d.Email,
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		JoinedAt:     d.JoinedAt.UTC(),
		Stats: model.UserStats{
			Wins:     d.Wins,
			Losses:   d.Losses,
			Earnings: d.Earnings,
		},
	}
}

type sessionDoc struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	Username  string    `bson:"username"`
	Email     string    `bson:"email"`
	JoinedAt  time.Time `bson:"joined_at"`
	Wins      int       `bson:"wins"`
	Losses    int       `bson:"losses"`
	Earnings  float64   `bson:"earnings"`
	CreatedAt time.Time `bson:"created_at"`
	ExpiresAt time.Time `bson:"expires_at"`
}

func toSessionDoc(s *model.Session) sessionDoc {
	return sessionDoc{
		ID:        string(s.ID),
		UserID:    string(s.UserID),
		Username:  s.User.Username,
		Email:     s.User.Email,
		JoinedAt:  s.User.JoinedAt,
		Wins:      s.User.Stats.Wins,
		Losses:    s.User.Stats.Losses,
		Earnings:  s.User.Stats.Earnings,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	}
}

func (d sessionDoc) model() *model.Session {
	return &model.Session{
		ID:     model.SessionID(d.ID),
		UserID: model.UserID(d.UserID),
		User: model.PublicUser{
			ID:       model.UserID(d.UserID),
			Email:    d.Email,
			Username: d.Username,
			JoinedAt: d.JoinedAt.UTC(),
			Stats: model.UserStats{
				Wins:     d.Wins,
				Losses:   d.Losses,
				Earnings: d.Earnings,
			},
		},
		CreatedAt: d.CreatedAt.UTC(),
		ExpiresAt: d.ExpiresAt.UTC(),
	}
}

type matchDoc struct {
	ID                string     `bson:"_id"`
	Seq               int64      `bson:"seq"`
	InviteCode        string     `bson:"invite_code"`
	CreatedBy         string     `bson:"created_by"`
	CreatedByUsername string     `bson:"created_by_username"`
	Opponent          string     `bson:"opponent"`
	OpponentUsername  string     `bson:"opponent_username"`
	GameMode          string     `bson:"game_mode"`
	InputMethod       string     `bson:"input_method"`
	WeaponRestriction string     `bson:"weapon_restriction"`
	ScoreLimit        int        `bson:"score_limit"`
	TimeLimit         int        `bson:"time_limit"`
	WagerAmount       float64    `bson:"wager_amount"`
	Type              string     `bson:"type"`
	Status            string     `bson:"status"`
	WinnerID          string     `bson:"winner_id"`
	CreatedAt         time.Time  `bson:"created_at"`
	JoinedAt          *time.Time `bson:"joined_at,omitempty"`
	CompletedAt       *time.Time `bson:"completed_at,omitempty"`
	Version           int64      `bson:"version"`
}

func toMatchDoc(m *model.Match) matchDoc {
	return matchDoc{
		ID:                string(m.ID),
		InviteCode:        string(m.InviteCode),
		CreatedBy:         string(m.CreatedBy),
		CreatedByUsername: m.CreatedByUsername,
		Opponent:          string(m.Opponent),
		OpponentUsername:  m.OpponentUsername,
		GameMode:          m.GameMode,
		InputMethod:       m.InputMethod,
		WeaponRestriction: m.WeaponRestriction,
		ScoreLimit:        m.ScoreLimit,
		TimeLimit:         m.TimeLimit,
		WagerAmount:       m.WagerAmount,
		Type:              string(m.Type),
		Status:            string(m.Status),
		WinnerID:          string(m.WinnerID),
		CreatedAt:         m.CreatedAt,
		JoinedAt:          m.JoinedAt,
		CompletedAt:       m.CompletedAt,
		Version:           m.Version,
	}
}

func (d matchDoc) model() *model.Match {
	m := &model.Match{
		ID:                model.MatchID(d.ID),
		InviteCode:        model.InviteCode(d.InviteCode),
		CreatedBy:         model.UserID(d.CreatedBy),
		CreatedByUsername: d.CreatedByUsername,
		Opponent:          model.UserID(d.Opponent),
		OpponentUsername:  d.OpponentUsername,
		MatchSettings: model.MatchSettings{
			GameMode:          d.GameMode,
			InputMethod:       d.InputMethod,
			WeaponRestriction: d.WeaponRestriction,
			ScoreLimit:        d.ScoreLimit,
			TimeLimit:         d.TimeLimit,
			WagerAmount:       d.WagerAmount,
			Type:              model.MatchType(d.Type),
		},
		Status:    model.MatchStatus(d.Status),
		WinnerID:  model.UserID(d.WinnerID),
		CreatedAt: d.CreatedAt.UTC(),
		Version:   d.Version,
	}
	if d.JoinedAt != nil {
		t := d.JoinedAt.UTC()
		m.JoinedAt = &t
	}
	if d.CompletedAt != nil {
		t := d.CompletedAt.UTC()
		m.CompletedAt = &t
	}
	return m
}
