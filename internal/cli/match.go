package cli

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"

	"github.com/competecore/competecore/internal/model"
	"github.com/competecore/competecore/internal/validate"
)

func newMatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match commands",
	}

	cmd.AddCommand(newMatchCreateCmd())
	cmd.AddCommand(newMatchListCmd())
	cmd.AddCommand(newMatchMineCmd())
	cmd.AddCommand(newMatchShowCmd())
	cmd.AddCommand(newMatchJoinCmd())
	cmd.AddCommand(newMatchCompleteCmd())
	cmd.AddCommand(newMatchQRCmd())

	return cmd
}

func matchPath(id string) string {
	return "/api/v1/matches/" + url.PathEscape(id)
}

func newMatchCreateCmd() *cobra.Command {
	settings := model.MatchSettings{}
	var matchType string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Post a new match",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings.Type = model.MatchType(matchType)
			if err := validate.MatchSettings(&settings); err != nil {
				return err
			}

			req := map[string]any{
				"game_mode":          settings.GameMode,
				"input_method":       settings.InputMethod,
				"weapon_restriction": settings.WeaponRestriction,
				"score_limit":        settings.ScoreLimit,
				"time_limit":         settings.TimeLimit,
				"wager_amount":       settings.WagerAmount,
				"type":               string(settings.Type),
			}
			var result Match

			if err := client.Post("/api/v1/matches", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&settings.GameMode, "mode", "hardpoint", "Game mode: "+strings.Join(validate.GameModes, ", "))
	cmd.Flags().StringVar(&settings.InputMethod, "input", "cross", "Input method: "+strings.Join(validate.InputMethods, ", "))
	cmd.Flags().StringVar(&settings.WeaponRestriction, "weapons", "all", "Weapon restriction: "+strings.Join(validate.WeaponRestrictions, ", "))
	cmd.Flags().IntVar(&settings.ScoreLimit, "score", 50, "Score limit")
	cmd.Flags().IntVar(&settings.TimeLimit, "time", 10, "Time limit in minutes")
	cmd.Flags().Float64Var(&settings.WagerAmount, "wager", 0, "Wager amount (wager matches only)")
	cmd.Flags().StringVar(&matchType, "type", "casual", "Match type: casual, wager, ranked")

	return cmd
}

func newMatchListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List open matches",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []Match

			if err := client.Get("/api/v1/matches/open", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newMatchMineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List matches you created or joined",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []Match

			if err := client.Get("/api/v1/matches/mine", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newMatchShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show match details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Match

			if err := client.Get(matchPath(args[0]), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newMatchJoinCmd() *cobra.Command {
	var code string

	cmd := &cobra.Command{
		Use:   "join [id]",
		Short: "Join an open match by id or invite code",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Match

			switch {
			case code != "" && len(args) == 0:
				req := map[string]string{"invite_code": code}
				if err := client.Post("/api/v1/matches/join", req, &result); err != nil {
					return err
				}
			case code == "" && len(args) == 1:
				if err := client.Post(matchPath(args[0])+"/join", nil, &result); err != nil {
					return err
				}
			default:
				return fmt.Errorf("give either a match id or --code")
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "Invite code")

	return cmd
}

func newMatchCompleteCmd() *cobra.Command {
	var winner string

	cmd := &cobra.Command{
		Use:   "complete <id>",
		Short: "Report the winner of a match you played",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if winner == "" {
				return fmt.Errorf("--winner is required")
			}

			req := map[string]string{"winner_id": winner}
			var result Match

			if err := client.Post(matchPath(args[0])+"/complete", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&winner, "winner", "", "User id of the winner (required)")
	_ = cmd.MarkFlagRequired("winner")

	return cmd
}

func newMatchQRCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "qr <id>",
		Short: "Show the match invite code as a QR code",
		Long: `Print the invite code as a QR code in the terminal, or save the
server-rendered PNG with --file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if file != "" {
				png, err := client.Raw(matchPath(args[0]) + "/qr")
				if err != nil {
					return err
				}
				if err := os.WriteFile(file, png, 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", file, err)
				}
				NewOutput(cfg.Output).PrintMessage("Saved QR code to " + file)
				return nil
			}

			var match Match
			if err := client.Get(matchPath(args[0]), &match); err != nil {
				return err
			}

			qr, err := qrcode.New(match.InviteCode, qrcode.Medium)
			if err != nil {
				return err
			}
			fmt.Print(qr.ToSmallString(false))
			fmt.Printf("Invite code: %s\n", match.InviteCode)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Write a PNG to this path")

	return cmd
}
