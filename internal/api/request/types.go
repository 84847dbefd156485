package request

import "github.com/competecore/competecore/internal/model"

// SignupRequest is the request body for creating an account
type SignupRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password,omitempty"`
	Username        string `json:"username"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateMatchRequest is the request body for posting a match
type CreateMatchRequest struct {
	GameMode          string  `json:"game_mode"`
	InputMethod       string  `json:"input_method"`
	WeaponRestriction string  `json:"weapon_restriction"`
	ScoreLimit        int     `json:"score_limit"`
	TimeLimit         int     `json:"time_limit"`
	WagerAmount       float64 `json:"wager_amount,omitempty"`
	Type              string  `json:"type"`
}

// Settings converts the request into match settings
func (r CreateMatchRequest) Settings() model.MatchSettings {
	return model.MatchSettings{
		GameMode:          r.GameMode,
		InputMethod:       r.InputMethod,
		WeaponRestriction: r.WeaponRestriction,
		ScoreLimit:        r.ScoreLimit,
		TimeLimit:         r.TimeLimit,
		WagerAmount:       r.WagerAmount,
		Type:              model.MatchType(r.Type),
	}
}

// JoinByCodeRequest is the request body for joining with an invite code
type JoinByCodeRequest struct {
	InviteCode string `json:"invite_code"`
}

// CompleteMatchRequest is the request body for reporting a result
type CompleteMatchRequest struct {
	WinnerID string `json:"winner_id"`
}
