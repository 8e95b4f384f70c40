package cli

import "context"

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	Archive string `long:"archive" description:"Export inbox directory (overrides archive.path)"`
	Name    string `long:"name" description:"Your display name in the export (overrides name)"`
	DB      string `long:"db" description:"Write the derived tables to this SQLite file instead of memory"`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable verbose output"`
	Version bool   `long:"version" description:"Show version and exit"`

	ctx context.Context
}

func (g *GlobalFlags) context() context.Context {
	if g == nil || g.ctx == nil {
		return context.Background()
	}
	return g.ctx
}

func (g *GlobalFlags) jsonOutput() bool {
	return g != nil && g.JSON
}

// StatusCommand prints archive totals and frame statistics.
type StatusCommand struct {
	globals *GlobalFlags
	version string
}

// TopCommand ranks conversations by one metric.
type TopCommand struct {
	Limit           int    `long:"limit" description:"Maximum results (default: report.top_n)"`
	Offset          int    `long:"offset" description:"Skip first N results" default:"0"`
	Sort            string `long:"sort" description:"Rank by: messages | per-participant | active-days" default:"messages"`
	Match           string `long:"match" description:"Only titles containing this text (case-insensitive)"`
	MinParticipants int    `long:"min-participants" description:"Only conversations with at least N participants"`

	globals *GlobalFlags
	version string
}

// MonthlyCommand prints per-conversation message counts by month.
type MonthlyCommand struct {
	Title    string `long:"title" description:"Only this conversation"`
	SelfOnly bool   `long:"self-only" description:"Count only your own messages, undivided"`
	Dense    bool   `long:"dense" description:"Include zero rows for months without messages"`

	globals *GlobalFlags
	version string
}

// TimelineCommand prints the owner's messages per month across all conversations.
type TimelineCommand struct {
	Since string `long:"since" description:"First month to include (YYYY-MM)"`
	Until string `long:"until" description:"Last month to include (YYYY-MM)"`
	Dense bool   `long:"dense" description:"Include zero rows for months without messages"`

	globals *GlobalFlags
	version string
}

// NetworkCommand prints who messages whom, weighted by messages sent.
type NetworkCommand struct {
	Limit      int  `long:"limit" description:"Build the graph from the top N conversations only (0 = all)" default:"0"`
	GroupOnly  bool `long:"group-only" description:"Link participants to group chats instead of to each other"`
	Undirected bool `long:"undirected" description:"Sum both directions of each pair"`
	MinWeight  int  `long:"min-weight" description:"Drop edges lighter than this" default:"0"`
	Nodes      bool `long:"nodes" description:"List participants by total outgoing weight instead of edges"`

	globals *GlobalFlags
	version string
}

// ShowCommand prints one conversation's metrics and monthly series.
type ShowCommand struct {
	Title string `long:"title" description:"Conversation title (required)"`

	globals *GlobalFlags
	version string
}
