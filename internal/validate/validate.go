// Package validate holds the input rules shared by the API and the CLI
package validate

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/competecore/competecore/internal/model"
)

const (
	UsernameMinLength = 3
	UsernameMaxLength = 20
	PasswordMinLength = 6

	ScoreLimitMin = 10
	ScoreLimitMax = 100
	TimeLimitMin  = 5
	TimeLimitMax  = 30
	WagerMin      = 1.0
	WagerMax      = 100.0
)

// Allowed match setting values
var (
	GameModes          = []string{"gunfight", "tdm", "hardpoint", "snd", "control", "ffa"}
	InputMethods       = []string{"controller", "kbm", "cross"}
	WeaponRestrictions = []string{"all", "snipers", "ar", "no-shotguns", "no-lmg"}
	MatchTypes         = []model.MatchType{model.MatchTypeCasual, model.MatchTypeWager, model.MatchTypeRanked}
)

// Error is a validation failure on a single field
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func fail(field, format string, args ...any) *Error {
	return &Error{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Username checks length, character set and rejects emoji
func Username(s string) error {
	n := utf8.RuneCountInString(s)
	if n < UsernameMinLength || n > UsernameMaxLength {
		return fail("username", "must be between %d and %d characters", UsernameMinLength, UsernameMaxLength)
	}
	for _, r := range s {
		if isPictographic(r) {
			return fail("username", "cannot contain emoji")
		}
	}
	for _, r := range s {
		if !isUsernameRune(r) {
			return fail("username", "can only contain letters, numbers, hyphens, underscores and periods")
		}
	}
	return nil
}

// Password checks the minimum length and, when confirm is non-empty, that it matches
func Password(password, confirm string) error {
	if utf8.RuneCountInString(password) < PasswordMinLength {
		return fail("password", "must be at least %d characters", PasswordMinLength)
	}
	if confirm != "" && confirm != password {
		return fail("confirm_password", "passwords do not match")
	}
	return nil
}

// Email checks that the address is present and well formed
func Email(s string) error {
	if strings.TrimSpace(s) == "" {
		return fail("email", "is required")
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return fail("email", "is not a valid email address")
	}
	return nil
}

// MatchSettings checks every field of the match form. Wager amounts are
// zeroed for non-wager matches.
func MatchSettings(s *model.MatchSettings) error {
	if !contains(GameModes, s.GameMode) {
		return fail("game_mode", "must be one of %s", strings.Join(GameModes, ", "))
	}
	if !contains(InputMethods, s.InputMethod) {
		return fail("input_method", "must be one of %s", strings.Join(InputMethods, ", "))
	}
	if !contains(WeaponRestrictions, s.WeaponRestriction) {
		return fail("weapon_restriction", "must be one of %s", strings.Join(WeaponRestrictions, ", "))
	}
	if s.ScoreLimit < ScoreLimitMin || s.ScoreLimit > ScoreLimitMax {
		return fail("score_limit", "must be between %d and %d", ScoreLimitMin, ScoreLimitMax)
	}
	if s.TimeLimit < TimeLimitMin || s.TimeLimit > TimeLimitMax {
		return fail("time_limit", "must be between %d and %d minutes", TimeLimitMin, TimeLimitMax)
	}

	switch s.Type {
	case model.MatchTypeWager:
		if s.WagerAmount < WagerMin || s.WagerAmount > WagerMax {
			return fail("wager_amount", "must be between %.0f and %.0f", WagerMin, WagerMax)
		}
	case model.MatchTypeCasual, model.MatchTypeRanked:
		s.WagerAmount = 0
	default:
		return fail("type", "must be one of casual, wager, ranked")
	}
	return nil
}

func isUsernameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-', r == '_', r == '.':
		return true
	}
	return false
}

func isPictographic(r rune) bool {
	switch {
	case r >= 0x1F000 && r <= 0x1FAFF: // emoticons, symbols, flags
		return true
	case r >= 0x2600 && r <= 0x27BF: // misc symbols, dingbats
		return true
	case r >= 0x2300 && r <= 0x23FF:
		return true
	case r >= 0x2B00 && r <= 0x2BFF:
		return true
	case r == 0xFE0F, r == 0x200D: // variation selector, zero width joiner
		return true
	}
	return false
}

func contains[T comparable](values []T, v T) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
