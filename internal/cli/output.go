package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case User:
		o.printUser(v)
	case []User:
		o.printUsers(v)
	case AuthResult:
		o.printAuthResult(v)
	case Profile:
		o.printProfile(v)
	case Match:
		o.printMatch(v)
	case []Match:
		o.printMatches(v)
	case Leaderboard:
		o.printLeaderboard(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Stats response type (matches API)
type Stats struct {
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	Earnings    float64 `json:"earnings"`
	WinRate     int     `json:"win_rate"`
	GamesPlayed int     `json:"games_played"`
}

// User response type
type User struct {
	ID       string    `json:"id"`
	Email    string    `json:"email"`
	Username string    `json:"username"`
	JoinedAt time.Time `json:"joined_at"`
	Stats    Stats     `json:"stats"`
}

// AuthResult combines user and token
type AuthResult struct {
	User         User      `json:"user"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Profile response type
type Profile struct {
	User User `json:"user"`
	Rank int  `json:"rank"`
}

// Match response type
type Match struct {
	ID                string     `json:"id"`
	InviteCode        string     `json:"invite_code"`
	CreatedBy         string     `json:"created_by"`
	CreatedByUsername string     `json:"created_by_username"`
	Opponent          string     `json:"opponent,omitempty"`
	OpponentUsername  string     `json:"opponent_username,omitempty"`
	GameMode          string     `json:"game_mode"`
	InputMethod       string     `json:"input_method"`
	WeaponRestriction string     `json:"weapon_restriction"`
	ScoreLimit        int        `json:"score_limit"`
	TimeLimit         int        `json:"time_limit"`
	WagerAmount       float64    `json:"wager_amount"`
	Type              string     `json:"type"`
	Status            string     `json:"status"`
	WinnerID          string     `json:"winner_id,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	JoinedAt          *time.Time `json:"joined_at,omitempty"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
}

// LeaderboardEntry response type
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Stats    Stats  `json:"stats"`
}

// Leaderboard response type
type Leaderboard struct {
	By      string             `json:"by"`
	Entries []LeaderboardEntry `json:"entries"`
}

// HealthResult response type
type HealthResult struct {
	Status  string `json:"status"`
	Storage string `json:"storage,omitempty"`
}

func (o *Output) printUser(u User) {
	fmt.Printf("User: %s (%s)\n", u.Username, u.ID)
	fmt.Printf("Email: %s\n", u.Email)
	fmt.Printf("Joined: %s\n", u.JoinedAt.Format("2006-01-02"))
	fmt.Printf("Record: %dW-%dL (%d%% win rate)\n", u.Stats.Wins, u.Stats.Losses, u.Stats.WinRate)
	fmt.Printf("Earnings: $%.2f\n", u.Stats.Earnings)
}

func (o *Output) printUsers(users []User) {
	if len(users) == 0 {
		fmt.Println("No users")
		return
	}
	for _, u := range users {
		fmt.Printf("  %-20s %dW-%dL  %s\n", u.Username, u.Stats.Wins, u.Stats.Losses, u.ID)
	}
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printUser(a.User)
	fmt.Printf("Token: %s\n", a.SessionToken)
}

func (o *Output) printProfile(p Profile) {
	o.printUser(p.User)
	fmt.Printf("Rank: #%d\n", p.Rank)
}

func (o *Output) printMatch(m Match) {
	fmt.Printf("Match: %s\n", m.ID)
	fmt.Printf("Invite Code: %s\n", m.InviteCode)
	fmt.Printf("Status: %s\n", m.Status)
	fmt.Printf("Type: %s", m.Type)
	if m.Type == "wager" {
		fmt.Printf(" ($%.2f)", m.WagerAmount)
	}
	fmt.Println()
	fmt.Printf("Settings: %s, %s, weapons %s, first to %d, %d min\n",
		m.GameMode, m.InputMethod, m.WeaponRestriction, m.ScoreLimit, m.TimeLimit)
	fmt.Printf("Created by: %s\n", m.CreatedByUsername)
	if m.Opponent != "" {
		fmt.Printf("Opponent: %s\n", m.OpponentUsername)
	}
	if m.WinnerID != "" {
		winner := m.CreatedByUsername
		if m.WinnerID == m.Opponent {
			winner = m.OpponentUsername
		}
		fmt.Printf("Winner: %s\n", winner)
	}
}

func (o *Output) printMatches(matches []Match) {
	if len(matches) == 0 {
		fmt.Println("No matches")
		return
	}
	for _, m := range matches {
		opponent := "-"
		if m.OpponentUsername != "" {
			opponent = m.OpponentUsername
		}
		fmt.Printf("  %s  %-11s %-8s %-10s %s vs %s  (%s)\n",
			m.InviteCode, m.Status, m.Type, m.GameMode, m.CreatedByUsername, opponent, m.ID)
	}
}

func (o *Output) printLeaderboard(l Leaderboard) {
	fmt.Printf("Leaderboard by %s\n", l.By)
	if len(l.Entries) == 0 {
		fmt.Println("No players yet")
		return
	}
	for _, e := range l.Entries {
		fmt.Printf("  %3d. %-20s %3dW %3dL %3d%%  $%.2f\n",
			e.Rank, e.Username, e.Stats.Wins, e.Stats.Losses, e.Stats.WinRate, e.Stats.Earnings)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
	if h.Storage != "" {
		fmt.Printf("Storage: %s\n", h.Storage)
	}
}
