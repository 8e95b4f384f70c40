package cli

import (
	"fmt"

	"github.com/runnerr0/inboxlens/internal/features"
	"github.com/runnerr0/inboxlens/internal/pipeline"
	"github.com/runnerr0/inboxlens/internal/storage"
)

// Execute implements the go-flags Commander interface for TimelineCommand.
func (c *TimelineCommand) Execute(args []string) error {
	// Validate before loading the archive.
	if _, _, err := c.bounds(); err != nil {
		return err
	}

	s, err := openSession(c.globals, "timeline", pipeline.Options{})
	if err != nil {
		return err
	}
	defer s.Close()

	return c.executeWithSession(s)
}

func (c *TimelineCommand) bounds() (since, until features.Month, err error) {
	if c.Since != "" {
		if since, err = features.ParseMonth(c.Since); err != nil {
			return since, until, fmt.Errorf("invalid --since value: %w", err)
		}
	}
	if c.Until != "" {
		if until, err = features.ParseMonth(c.Until); err != nil {
			return since, until, fmt.Errorf("invalid --until value: %w", err)
		}
	}
	if !since.IsZero() && !until.IsZero() && until.Before(since) {
		return since, until, fmt.Errorf("--until %s is before --since %s", until, since)
	}
	return since, until, nil
}

// executeWithSession prints the self timeline from a prepared session (for testing).
func (c *TimelineCommand) executeWithSession(s *session) error {
	since, until, err := c.bounds()
	if err != nil {
		return err
	}

	rows, err := s.store.Monthly(s.ctx, storage.MonthlyQuery{
		Kind:  storage.MonthlyTimeline,
		Since: since,
		Until: until,
	})
	if err != nil {
		return fmt.Errorf("timeline rows: %w", err)
	}
	if c.Dense {
		rows = features.Densify(rows)
	}

	if c.globals.jsonOutput() {
		return printJSON(rows)
	}

	if len(rows) == 0 {
		fmt.Println("No messages sent in range")
		return nil
	}

	total := 0
	for _, r := range rows {
		total += r.Count
	}
	fmt.Printf("Messages sent by %s: %s over %d %s\n\n",
		s.cfg.Name, formatNumber(int64(total)), len(rows), plural(len(rows), "month"))
	for _, r := range rows {
		fmt.Printf("  %s %8s\n", r.Month, formatNumber(int64(r.Count)))
	}
	return nil
}
