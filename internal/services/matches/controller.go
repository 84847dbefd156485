package matches

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/competecore/competecore/internal/dependencies/clock"
	"github.com/competecore/competecore/internal/dependencies/ids"
	"github.com/competecore/competecore/internal/dependencies/random"
	"github.com/competecore/competecore/internal/events"
	"github.com/competecore/competecore/internal/model"
	"github.com/competecore/competecore/internal/storage"
	"github.com/competecore/competecore/internal/validate"
)

const (
	// InviteCodeLength is the length of generated invite codes
	InviteCodeLength = 6

	// maxInviteCodeAttempts bounds the search for an unused invite code
	maxInviteCodeAttempts = 32
)

// ErrInviteCodeExhausted means no free invite code was found
var ErrInviteCodeExhausted = errors.New("could not allocate a unique invite code")

// Controller manages the match lifecycle: open, in-progress, completed
type Controller struct {
	storage   storage.Storage
	clock     clock.Clock
	random    random.Random
	ids       ids.Generator
	publisher events.Publisher
	logger    *slog.Logger
}

// NewController creates a new match Controller
func NewController(
	storage storage.Storage,
	clock clock.Clock,
	random random.Random,
	idGen ids.Generator,
	publisher events.Publisher,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage:   storage,
		clock:     clock,
		random:    random,
		ids:       idGen,
		publisher: publisher,
		logger:    logger.With(slog.String("component", "match-controller")),
	}
}

// CreateMatch posts a new open match on behalf of the creator
func (c *Controller) CreateMatch(ctx context.Context, creator model.PublicUser, settings model.MatchSettings) (*model.Match, error) {
	if err := validate.MatchSettings(&settings); err != nil {
		return nil, err
	}

	code, err := c.newInviteCode(ctx)
	if err != nil {
		return nil, err
	}

	match := &model.Match{
		ID:                model.MatchID(c.ids.NewID()),
		InviteCode:        code,
		CreatedBy:         creator.ID,
		CreatedByUsername: creator.Username,
		MatchSettings:     settings,
		Status:            model.MatchStatusOpen,
		CreatedAt:         c.clock.Now(),
	}

	if err := c.storage.CreateMatch(ctx, match); err != nil {
		return nil, err
	}

	c.logger.Info("match created",
		slog.String("match_id", string(match.ID)),
		slog.String("created_by", string(creator.ID)),
		slog.String("type", string(settings.Type)))

	c.publish(ctx, model.EventMatchCreated, creator.ID, match)
	return match, nil
}

// newInviteCode draws codes until it finds one no match is using
func (c *Controller) newInviteCode(ctx context.Context) (model.InviteCode, error) {
	for attempt := 0; attempt < maxInviteCodeAttempts; attempt++ {
		code := model.InviteCode(c.random.String(InviteCodeLength, random.InviteCodeAlphabet))
		exists, err := c.storage.InviteCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", ErrInviteCodeExhausted
}

// GetMatch retrieves a match by id
func (c *Controller) GetMatch(ctx context.Context, id model.MatchID) (*model.Match, error) {
	return c.storage.GetMatch(ctx, id)
}

// GetMatchByInviteCode retrieves a match by its invite code
func (c *Controller) GetMatchByInviteCode(ctx context.Context, code model.InviteCode) (*model.Match, error) {
	return c.storage.GetMatchByInviteCode(ctx, code)
}

// JoinMatch makes the user the opponent of an open match. The check and the
// write happen in one storage update, so of several racing joiners exactly
// one succeeds and the rest get model.ErrMatchNotOpen.
func (c *Controller) JoinMatch(ctx context.Context, id model.MatchID, user model.PublicUser) (*model.Match, error) {
	now := c.clock.Now()
	match, err := c.storage.UpdateMatch(ctx, id, func(m *model.Match) error {
		if m.CreatedBy == user.ID {
			return model.ErrCannotJoinOwnMatch
		}
		if !m.IsOpen() {
			return model.ErrMatchNotOpen
		}
		m.Opponent = user.ID
		m.OpponentUsername = user.Username
		m.Status = model.MatchStatusInProgress
		m.JoinedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("match joined",
		slog.String("match_id", string(match.ID)),
		slog.String("opponent", string(user.ID)))

	c.publish(ctx, model.EventMatchJoined, user.ID, match)
	return match, nil
}

// JoinByInviteCode joins the match that owns the invite code
func (c *Controller) JoinByInviteCode(ctx context.Context, code model.InviteCode, user model.PublicUser) (*model.Match, error) {
	match, err := c.storage.GetMatchByInviteCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return c.JoinMatch(ctx, match.ID, user)
}

// GetOpenMatches returns the matches still waiting for an opponent, newest first
func (c *Controller) GetOpenMatches(ctx context.Context) ([]*model.Match, error) {
	return c.filter(ctx, func(m *model.Match) bool { return m.IsOpen() })
}

// GetUserMatches returns the matches the user created or joined, newest first
func (c *Controller) GetUserMatches(ctx context.Context, userID model.UserID) ([]*model.Match, error) {
	return c.filter(ctx, func(m *model.Match) bool { return m.HasParticipant(userID) })
}

// GetAllMatches returns every match, newest first
func (c *Controller) GetAllMatches(ctx context.Context) ([]*model.Match, error) {
	return c.storage.ListMatches(ctx)
}

func (c *Controller) filter(ctx context.Context, keep func(*model.Match) bool) ([]*model.Match, error) {
	all, err := c.storage.ListMatches(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]*model.Match, 0, len(all))
	for _, m := range all {
		if keep(m) {
			result = append(result, m)
		}
	}
	return result, nil
}

// CompleteMatch records the result of an in-progress match. Only a
// participant may report, and the winner must be one of the two players.
// The winner gains a win (and the wager for wager matches); the other
// player gains a loss.
//
// Stats are written before the status flips to completed. If any step
// fails the stats already written are undone and the match stays in
// progress, so the report can be retried.
func (c *Controller) CompleteMatch(ctx context.Context, id model.MatchID, reporter, winner model.UserID) (*model.Match, error) {
	current, err := c.storage.GetMatch(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkCompletion(current, reporter, winner); err != nil {
		return nil, err
	}
	loser := current.OtherParticipant(winner)

	if err := c.recordResult(ctx, current, winner, loser); err != nil {
		return nil, err
	}

	now := c.clock.Now()
	match, err := c.storage.UpdateMatch(ctx, id, func(m *model.Match) error {
		if err := checkCompletion(m, reporter, winner); err != nil {
			return err
		}
		m.Status = model.MatchStatusCompleted
		m.WinnerID = winner
		m.CompletedAt = &now
		return nil
	})
	if err != nil {
		// Lost a race with another report, or the write failed
		c.undoStats(ctx, winner, winStats(current, -1))
		c.undoStats(ctx, loser, lossStats(-1))
		return nil, err
	}

	c.logger.Info("match completed",
		slog.String("match_id", string(match.ID)),
		slog.String("winner", string(winner)),
		slog.String("loser", string(loser)))

	c.publish(ctx, model.EventMatchCompleted, reporter, match)
	return match, nil
}

func checkCompletion(m *model.Match, reporter, winner model.UserID) error {
	if m.Status != model.MatchStatusInProgress {
		return model.ErrMatchNotInProgress
	}
	if !m.HasParticipant(reporter) {
		return model.ErrNotParticipant
	}
	if !m.HasParticipant(winner) {
		return model.ErrInvalidWinner
	}
	return nil
}

// recordResult credits both players. A failed loss update undoes the win.
func (c *Controller) recordResult(ctx context.Context, match *model.Match, winner, loser model.UserID) error {
	if err := c.adjustStats(ctx, winner, winStats(match, 1)); err != nil {
		return fmt.Errorf("recording win for %s: %w", winner, err)
	}
	if err := c.adjustStats(ctx, loser, lossStats(1)); err != nil {
		c.undoStats(ctx, winner, winStats(match, -1))
		return fmt.Errorf("recording loss for %s: %w", loser, err)
	}
	return nil
}

func (c *Controller) adjustStats(ctx context.Context, id model.UserID, apply func(*model.UserStats)) error {
	_, err := c.storage.UpdateUser(ctx, id, func(u *model.User) error {
		apply(&u.Stats)
		return nil
	})
	return err
}

// undoStats reverts a stats change. It runs even if ctx was cancelled.
func (c *Controller) undoStats(ctx context.Context, id model.UserID, apply func(*model.UserStats)) {
	if err := c.adjustStats(context.WithoutCancel(ctx), id, apply); err != nil {
		c.logger.Error("failed to undo stats change",
			slog.String("user_id", string(id)),
			slog.Any("error", err))
	}
}

func winStats(match *model.Match, delta int) func(*model.UserStats) {
	return func(s *model.UserStats) {
		s.Wins += delta
		if match.Type == model.MatchTypeWager {
			s.Earnings += float64(delta) * match.WagerAmount
		}
	}
}

func lossStats(delta int) func(*model.UserStats) {
	return func(s *model.UserStats) {
		s.Losses += delta
	}
}

func (c *Controller) publish(ctx context.Context, eventType model.EventType, actor model.UserID, match *model.Match) {
	c.publisher.Publish(ctx, model.Event{
		Type:      eventType,
		Timestamp: c.clock.Now(),
		MatchID:   match.ID,
		UserID:    actor,
		Match:     match,
	})
}
