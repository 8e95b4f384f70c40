package cli

import (
	"fmt"
	"time"

	"github.com/runnerr0/inboxlens/internal/pipeline"
	"github.com/runnerr0/inboxlens/internal/storage"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version            string           `json:"version"`
	RunID              string           `json:"run_id"`
	Name               string           `json:"name"`
	ArchivePath        string           `json:"archive_path"`
	FramePath          string           `json:"frame_path"`
	Conversations      int64            `json:"conversations"`
	Fragments          int              `json:"fragments"`
	Messages           int64            `json:"messages"`
	SelfMessages       int64            `json:"self_messages"`
	Participants       int              `json:"participants"`
	GroupConversations int64            `json:"group_conversations"`
	StickersUsed       int              `json:"stickers_used"`
	FirstMessage       string           `json:"first_message,omitempty"`
	LastMessage        string           `json:"last_message,omitempty"`
	ActiveMonths       int64            `json:"active_months"`
	BusiestMonth       *monthCountJSON  `json:"busiest_month,omitempty"`
	TopConversations   []titleCountJSON `json:"top_conversations"`
}

type monthCountJSON struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

type titleCountJSON struct {
	Title string `json:"title"`
	Count int64  `json:"count"`
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	s, err := openSession(c.globals, "status", pipeline.Options{})
	if err != nil {
		return err
	}
	defer s.Close()

	return c.executeWithSession(s)
}

// executeWithSession runs status against a prepared session (for testing).
func (c *StatusCommand) executeWithSession(s *session) error {
	stats, err := s.store.GetStats(s.ctx)
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	if c.globals.jsonOutput() {
		return c.printStatusJSON(s, stats)
	}
	return c.printStatusHuman(s, stats)
}

func framePath(c *GlobalFlags) string {
	if c == nil || c.DB == "" {
		return "(in memory)"
	}
	return c.DB
}

func (c *StatusCommand) printStatusHuman(s *session, stats *storage.Stats) error {
	res := s.result

	fmt.Println("Inbox Status")
	fmt.Println("============")
	fmt.Printf("Version:       %s\n", c.version)
	fmt.Printf("Run:           %s\n", res.RunID)
	fmt.Printf("Name:          %s\n", s.cfg.Name)
	fmt.Printf("Archive:       %s\n", s.cfg.Archive.Path)
	fmt.Printf("Frame:         %s\n", framePath(c.globals))
	fmt.Printf("Conversations: %s (%s %s)\n",
		formatNumber(stats.TotalConversations), formatNumber(int64(res.Fragments)), plural(res.Fragments, "fragment"))
	fmt.Printf("Group chats:   %s\n", formatNumber(stats.GroupConversations))

	// Messages with own share
	if stats.TotalMessages > 0 {
		pct := float64(stats.SelfMessages) / float64(stats.TotalMessages) * 100
		fmt.Printf("Messages:      %s (%s yours, %.1f%%)\n",
			formatNumber(stats.TotalMessages), formatNumber(stats.SelfMessages), pct)
	} else {
		fmt.Printf("Messages:      %s\n", formatNumber(stats.TotalMessages))
	}

	fmt.Printf("Participants:  %s\n", formatNumber(int64(res.Participants())))
	fmt.Printf("Stickers used: %s\n", formatNumber(int64(res.StickersUsed)))

	// Time range
	if !stats.FirstMessage.IsZero() {
		fmt.Printf("First message: %s\n", stats.FirstMessage.Format("2006-01-02"))
		fmt.Printf("Last message:  %s\n", stats.LastMessage.Format("2006-01-02"))
		fmt.Printf("Active months: %s\n", formatNumber(stats.ActiveMonths))
	}
	if !stats.BusiestMonth.Month.IsZero() {
		fmt.Printf("Busiest month: %s (%s sent)\n", stats.BusiestMonth.Month, formatNumber(stats.BusiestMonth.Count))
	}

	if len(stats.TopConversations) > 0 {
		fmt.Println()
		fmt.Println("Top Conversations:")
		for _, tc := range stats.TopConversations {
			fmt.Printf("  %-30s %s\n", truncate(tc.Title, 30), formatNumber(tc.Count))
		}
	}

	return nil
}

func (c *StatusCommand) printStatusJSON(s *session, stats *storage.Stats) error {
	res := s.result
	out := statusJSON{
		Version:            c.version,
		RunID:              res.RunID,
		Name:               s.cfg.Name,
		ArchivePath:        s.cfg.Archive.Path,
		FramePath:          framePath(c.globals),
		Conversations:      stats.TotalConversations,
		Fragments:          res.Fragments,
		Messages:           stats.TotalMessages,
		SelfMessages:       stats.SelfMessages,
		Participants:       res.Participants(),
		GroupConversations: stats.GroupConversations,
		StickersUsed:       res.StickersUsed,
		ActiveMonths:       stats.ActiveMonths,
		TopConversations:   make([]titleCountJSON, len(stats.TopConversations)),
	}

	if !stats.FirstMessage.IsZero() {
		out.FirstMessage = stats.FirstMessage.UTC().Format(time.RFC3339)
		out.LastMessage = stats.LastMessage.UTC().Format(time.RFC3339)
	}
	if !stats.BusiestMonth.Month.IsZero() {
		out.BusiestMonth = &monthCountJSON{Month: stats.BusiestMonth.Month.String(), Count: stats.BusiestMonth.Count}
	}

	for i, tc := range stats.TopConversations {
		out.TopConversations[i] = titleCountJSON{Title: tc.Title, Count: tc.Count}
	}

	return printJSON(out)
}
