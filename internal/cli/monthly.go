package cli

import (
	"fmt"

	"github.com/runnerr0/inboxlens/internal/features"
	"github.com/runnerr0/inboxlens/internal/pipeline"
	"github.com/runnerr0/inboxlens/internal/storage"
)

// Execute implements the go-flags Commander interface for MonthlyCommand.
func (c *MonthlyCommand) Execute(args []string) error {
	if err := c.validate(); err != nil {
		return err
	}

	s, err := openSession(c.globals, "monthly", pipeline.Options{})
	if err != nil {
		return err
	}
	defer s.Close()

	return c.executeWithSession(s)
}

// executeWithSession prints monthly rows from a prepared session (for testing).
func (c *MonthlyCommand) executeWithSession(s *session) error {
	if err := c.validate(); err != nil {
		return err
	}

	q := storage.MonthlyQuery{Kind: storage.MonthlyConversation, Title: c.Title}
	if c.SelfOnly {
		q = storage.MonthlyQuery{Kind: storage.MonthlySelf}
	}

	rows, err := s.store.Monthly(s.ctx, q)
	if err != nil {
		return fmt.Errorf("monthly rows: %w", err)
	}
	if c.Dense {
		rows = features.Densify(rows)
	}

	if c.globals.jsonOutput() {
		return printJSON(rows)
	}
	return printMonthlyHuman(rows)
}

// validate rejects flags that self-only rows cannot honour. Those rows are all
// titled with the owner's name, so a title filter cannot pick a conversation
// and filling gaps by title would merge every conversation into one series.
func (c *MonthlyCommand) validate() error {
	if !c.SelfOnly {
		return nil
	}
	if c.Title != "" {
		return fmt.Errorf("--title cannot be combined with --self-only")
	}
	if c.Dense {
		return fmt.Errorf("--dense cannot be combined with --self-only (use timeline --dense for a gap-free series)")
	}
	return nil
}

// printMonthlyHuman prints rows grouped under their title, in row order.
func printMonthlyHuman(rows []features.MonthlyRow) error {
	if len(rows) == 0 {
		fmt.Println("No monthly activity")
		return nil
	}

	title := ""
	for i, r := range rows {
		if i == 0 || r.Title != title {
			if i > 0 {
				fmt.Println()
			}
			title = r.Title
			fmt.Println(title)
		}
		fmt.Printf("  %s %8s\n", r.Month, formatNumber(int64(r.Count)))
	}
	return nil
}
