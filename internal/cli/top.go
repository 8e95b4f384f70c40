package cli

import (
	"fmt"

	"github.com/runnerr0/inboxlens/internal/features"
	"github.com/runnerr0/inboxlens/internal/pipeline"
	"github.com/runnerr0/inboxlens/internal/storage"
)

// Execute implements the go-flags Commander interface for TopCommand.
func (c *TopCommand) Execute(args []string) error {
	s, err := openSession(c.globals, "top", pipeline.Options{})
	if err != nil {
		return err
	}
	defer s.Close()

	return c.executeWithSession(s, args)
}

// executeWithSession ranks conversations from a prepared session (for testing).
func (c *TopCommand) executeWithSession(s *session, args []string) error {
	key, err := features.ParseSortKey(c.Sort)
	if err != nil {
		return fmt.Errorf("invalid --sort value: %w", err)
	}

	match := c.Match
	if match == "" && len(args) > 0 {
		match = args[0]
	}

	limit := c.Limit
	if limit <= 0 {
		limit = s.cfg.Report.TopN
	}

	rows, err := s.store.TopConversations(s.ctx, storage.RankQuery{
		SortBy:          key,
		Match:           match,
		MinParticipants: c.MinParticipants,
		Limit:           limit,
		Offset:          c.Offset,
	})
	if err != nil {
		return fmt.Errorf("rank conversations: %w", err)
	}

	if c.globals.jsonOutput() {
		return printJSON(jsonTopOutput{
			Count:         len(rows),
			Sort:          string(key),
			Match:         match,
			Conversations: rows,
		})
	}
	return c.printHuman(key, match, rows)
}

type jsonTopOutput struct {
	Count         int                        `json:"count"`
	Sort          string                     `json:"sort"`
	Match         string                     `json:"match,omitempty"`
	Conversations []features.ConversationRow `json:"conversations"`
}

func (c *TopCommand) printHuman(key features.SortKey, match string, rows []features.ConversationRow) error {
	if len(rows) == 0 {
		if match != "" {
			fmt.Printf("No conversations match %q\n", match)
		} else {
			fmt.Println("No conversations found")
		}
		return nil
	}

	fmt.Printf("Top %d %s by %s\n\n", len(rows), plural(len(rows), "conversation"), key)
	fmt.Printf("%4s  %-30s %9s %6s %9s %10s\n", "#", "Title", "Messages", "People", "Per head", "Days")
	for i, r := range rows {
		fmt.Printf("%4d  %-30s %9s %6d %9.1f %10.1f\n",
			i+1+c.Offset,
			truncate(r.Title, 30),
			formatNumber(int64(r.MessageCount)),
			r.ParticipantCount,
			r.MessagesPerParticipant,
			r.ActiveDays,
		)
	}
	return nil
}
