package cli

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

func newLeaderboardCmd() *cobra.Command {
	var by string
	var limit int

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the top players",
		RunE: func(cmd *cobra.Command, args []string) error {
			if by != "wins" && by != "earnings" {
				return fmt.Errorf("--by must be wins or earnings")
			}

			query := url.Values{}
			query.Set("by", by)
			if limit > 0 {
				query.Set("limit", strconv.Itoa(limit))
			}

			var result Leaderboard
			if err := client.Get("/api/v1/leaderboard?"+query.Encode(), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&by, "by", "wins", "Ranking: wins, earnings")
	cmd.Flags().IntVar(&limit, "limit", 0, "Number of players (default: server default)")

	return cmd
}
