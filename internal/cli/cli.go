package cli

import (
	"context"
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Status   *StatusCommand
	Top      *TopCommand
	Monthly  *MonthlyCommand
	Timeline *TimelineCommand
	Network  *NetworkCommand
	Show     *ShowCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "inboxlens"
	parser.LongDescription = "Engagement analytics over a personal chat-export archive."

	cmds := &commands{
		Status:   &StatusCommand{globals: &globals, version: version},
		Top:      &TopCommand{globals: &globals, version: version},
		Monthly:  &MonthlyCommand{globals: &globals, version: version},
		Timeline: &TimelineCommand{globals: &globals, version: version},
		Network:  &NetworkCommand{globals: &globals, version: version},
		Show:     &ShowCommand{globals: &globals, version: version},
	}

	parser.AddCommand("status", "Summarize the archive", "Show archive totals, message range, busiest month and top conversations.", cmds.Status)
	parser.AddCommand("top", "Rank conversations", "Rank conversations by message count, messages per participant or active days.", cmds.Top)
	parser.AddCommand("monthly", "Monthly counts per conversation", "Show message counts per conversation and month, divided by participant count.", cmds.Monthly)
	parser.AddCommand("timeline", "Your messages per month", "Show how many messages you sent each month across all conversations.", cmds.Timeline)
	parser.AddCommand("network", "Interaction graph", "Show who messages whom, weighted by messages sent.", cmds.Network)
	parser.AddCommand("show", "Show one conversation", "Show the derived metrics and monthly series of one conversation.", cmds.Show)

	return parser, &globals, cmds
}

// Run is the main entry point for the inboxlens CLI using os.Args.
func Run(ctx context.Context, version string) error {
	return RunWithArgs(ctx, version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(ctx context.Context, version string, args []string) error {
	// Handle --version before parser (go-flags requires a subcommand, but
	// --version is valid without one).
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("inboxlens %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, globals, _ := buildParser(version)
	globals.ctx = ctx

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
