package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/runnerr0/inboxlens/internal/features"
	"github.com/runnerr0/inboxlens/internal/pipeline"
	"github.com/runnerr0/inboxlens/internal/storage"
)

// Execute implements the go-flags Commander interface for ShowCommand.
func (c *ShowCommand) Execute(args []string) error {
	title := c.title(args)
	if title == "" {
		return fmt.Errorf("--title is required")
	}

	s, err := openSession(c.globals, "show", pipeline.Options{})
	if err != nil {
		return err
	}
	defer s.Close()

	return c.executeWithSession(s, args)
}

func (c *ShowCommand) title(args []string) string {
	if c.Title != "" {
		return c.Title
	}
	return strings.Join(args, " ")
}

type jsonShowOutput struct {
	Conversation features.ConversationRow `json:"conversation"`
	Monthly      []features.MonthlyRow    `json:"monthly"`
}

// executeWithSession prints one conversation from a prepared session (for testing).
func (c *ShowCommand) executeWithSession(s *session, args []string) error {
	title := c.title(args)
	if title == "" {
		return fmt.Errorf("--title is required")
	}

	row, err := s.store.GetConversation(s.ctx, title)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("conversation not found: %s", title)
		}
		return err
	}

	monthly, err := s.store.Monthly(s.ctx, storage.MonthlyQuery{Kind: storage.MonthlyConversation, Title: title})
	if err != nil {
		return fmt.Errorf("monthly rows: %w", err)
	}

	if c.globals.jsonOutput() {
		return printJSON(jsonShowOutput{Conversation: *row, Monthly: monthly})
	}

	fmt.Println(row.Title)
	fmt.Println(strings.Repeat("=", len([]rune(row.Title))))
	fmt.Printf("Messages:      %s (%s yours)\n", formatNumber(int64(row.MessageCount)), formatNumber(int64(row.SelfMessages)))
	fmt.Printf("Participants:  %d\n", row.ParticipantCount)
	fmt.Printf("Per head:      %.2f\n", row.MessagesPerParticipant)
	fmt.Printf("Active days:   %.2f\n", row.ActiveDays)
	if !row.FirstMessage.IsZero() {
		fmt.Printf("First message: %s\n", row.FirstMessage.Format("2006-01-02 15:04"))
		fmt.Printf("Last message:  %s\n", row.LastMessage.Format("2006-01-02 15:04"))
	}

	if len(monthly) > 0 {
		fmt.Println()
		fmt.Println("Monthly (per participant):")
		for _, m := range monthly {
			fmt.Printf("  %s %8s\n", m.Month, formatNumber(int64(m.Count)))
		}
	}
	return nil
}
