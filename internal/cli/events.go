package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newEventsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Stream live match events",
		Long: `Connect to the server's event stream and print events as they happen.

Events include:
  - match_created: A match was posted
  - match_joined: An opponent joined a match
  - match_completed: A result was reported
  - user_registered: A new player signed up

When logged in, events concerning you are delivered as well.

Press Ctrl+C to disconnect.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return streamEvents(jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")

	return cmd
}

// SSEEvent represents a parsed SSE event
type SSEEvent struct {
	Time  time.Time `json:"time"`
	Event string    `json:"event"`
	Data  string    `json:"data"`
}

func streamEvents(jsonOutput bool) error {
	url := strings.TrimSuffix(cfg.ServerURL, "/") + "/api/v1/events"

	// Set up cancellation
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.Token)
	}

	// No timeout for SSE
	httpClient := &http.Client{}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if !jsonOutput {
		fmt.Println("Connected to event stream")
	}

	// Parse SSE stream
	scanner := bufio.NewScanner(resp.Body)
	var currentEvent string
	var dataLines []string

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "event: "):
			currentEvent = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		case line == "":
			// End of event
			if currentEvent != "" {
				printEvent(currentEvent, strings.Join(dataLines, "\n"), jsonOutput)
			}
			currentEvent = ""
			dataLines = nil
		}
	}

	if err := scanner.Err(); err != nil {
		// Context cancellation is expected
		if ctx.Err() != nil {
			if !jsonOutput {
				fmt.Println("\nDisconnected")
			}
			return nil
		}
		return fmt.Errorf("stream error: %w", err)
	}

	if !jsonOutput {
		fmt.Println("Disconnected")
	}
	return nil
}

func printEvent(event, data string, jsonOutput bool) {
	now := time.Now()

	if jsonOutput {
		evt := SSEEvent{
			Time:  now,
			Event: event,
			Data:  data,
		}
		jsonData, _ := json.Marshal(evt)
		fmt.Println(string(jsonData))
		return
	}

	timestamp := now.Format("2006-01-02 15:04:05")
	fmt.Printf("[%s] %s: %s\n", timestamp, event, summarizeEvent(event, data))
}

// summarizeEvent renders a one-line description of a known event, falling
// back to the raw payload
func summarizeEvent(event, data string) string {
	var payload struct {
		UserID string `json:"user_id"`
		Match  *Match `json:"match"`
		User   *User  `json:"user"`
	}
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return truncate(data)
	}

	switch {
	case payload.Match != nil:
		m := payload.Match
		switch event {
		case "match_created":
			return fmt.Sprintf("%s posted %s %s (code %s)", m.CreatedByUsername, m.Type, m.GameMode, m.InviteCode)
		case "match_joined":
			return fmt.Sprintf("%s joined %s's match %s", m.OpponentUsername, m.CreatedByUsername, m.ID)
		case "match_completed":
			return fmt.Sprintf("match %s completed, winner %s", m.ID, m.WinnerID)
		}
	case payload.User != nil:
		return fmt.Sprintf("%s signed up", payload.User.Username)
	}
	return truncate(data)
}

func truncate(data string) string {
	if len(data) > 100 {
		data = data[:100] + "..."
	}
	return strings.ReplaceAll(data, "\n", " ")
}
