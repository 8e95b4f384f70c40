// Package pipeline runs the batch from export directory to derived tables.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/runnerr0/inboxlens/internal/archive"
	"github.com/runnerr0/inboxlens/internal/config"
	"github.com/runnerr0/inboxlens/internal/features"
	"github.com/runnerr0/inboxlens/internal/logging"
	"github.com/runnerr0/inboxlens/internal/network"
	"github.com/runnerr0/inboxlens/internal/storage"
)

// Options tunes a single run beyond what the config file holds.
type Options struct {
	// NetworkLimit restricts both graphs to the NetworkLimit conversations
	// with the most messages; 0 keeps all.
	NetworkLimit int
}

// Result holds every table derived from one archive.
type Result struct {
	// RunID identifies this run in logs and in the frame's meta record.
	RunID       string
	Self        string
	ArchivePath string
	Timezone    string

	Conversations []archive.Conversation

	Fragments    int
	StickersUsed int
	// Substituted counts conversations whose participants were unknown.
	Substituted int

	Rows        []features.ConversationRow
	Monthly     []features.MonthlyRow
	SelfMonthly []features.MonthlyRow
	Timeline    []features.MonthlyRow

	Edges      []network.Edge
	GroupEdges []network.Edge
}

// Run loads the archive named by cfg and derives every table from it.
func Run(ctx context.Context, cfg *config.Config, opts Options, logger *logging.Logger) (*Result, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))
	log := logger.Named("pipeline")

	root, err := cfg.ArchivePath()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	loader := archive.NewLoader(root, archive.LoaderOptions{
		FragmentPattern: cfg.Archive.FragmentPattern,
		StickersDir:     cfg.Archive.StickersDir,
	}, logger)
	a, err := loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load archive: %w", err)
	}

	convs, substituted := archive.NormalizeAll(a, cfg.Name)
	if substituted > 0 {
		log.Warn(ctx, "participants substituted with self",
			zap.Int("conversations", substituted),
			zap.String("self", cfg.Name),
		)
	}

	fopts := features.Options{Self: cfg.Name, Location: loc}
	res := &Result{
		RunID:         runID,
		Self:          cfg.Name,
		ArchivePath:   root,
		Timezone:      loc.String(),
		Conversations: convs,
		Fragments:     a.Fragments,
		StickersUsed:  a.StickersUsed,
		Substituted:   substituted,
		Rows:          features.Derive(convs, fopts),
		Monthly:       features.Monthly(convs, fopts, false),
		SelfMonthly:   features.Monthly(convs, fopts, true),
	}
	res.Timeline = features.SelfTimeline(res.SelfMonthly, cfg.Name)
	res.Edges = network.Build(convs, network.Options{Limit: opts.NetworkLimit})
	res.GroupEdges = network.Build(convs, network.Options{Limit: opts.NetworkLimit, GroupOnly: true})

	log.Info(ctx, "tables derived",
		zap.Int("conversations", len(res.Rows)),
		zap.Int("monthly_rows", len(res.Monthly)),
		zap.Int("timeline_months", len(res.Timeline)),
		zap.Int("edges", len(res.Edges)),
		zap.Int("group_edges", len(res.GroupEdges)),
	)
	return res, nil
}

// Participants returns the number of distinct participant names.
func (r *Result) Participants() int {
	seen := make(map[string]struct{})
	for _, c := range r.Conversations {
		for _, p := range c.Participants {
			seen[p.Name] = struct{}{}
		}
	}
	return len(seen)
}

// Fill writes every derived table into the frame.
func (r *Result) Fill(ctx context.Context, s storage.Store) error {
	meta := storage.Meta{RunID: r.RunID, Self: r.Self, ArchivePath: r.ArchivePath, Timezone: r.Timezone}
	if err := s.SetMeta(ctx, meta); err != nil {
		return err
	}

	if err := s.InsertConversations(ctx, r.Rows); err != nil {
		return fmt.Errorf("fill conversations: %w", err)
	}

	monthly := []struct {
		kind storage.MonthlyKind
		rows []features.MonthlyRow
	}{
		{storage.MonthlyConversation, r.Monthly},
		{storage.MonthlySelf, r.SelfMonthly},
		{storage.MonthlyTimeline, r.Timeline},
	}
	for _, m := range monthly {
		if err := s.InsertMonthly(ctx, m.kind, m.rows); err != nil {
			return fmt.Errorf("fill %s monthly: %w", m.kind, err)
		}
	}

	if err := s.InsertEdges(ctx, storage.EdgePairwise, r.Edges); err != nil {
		return fmt.Errorf("fill edges: %w", err)
	}
	if err := s.InsertEdges(ctx, storage.EdgeGroup, r.GroupEdges); err != nil {
		return fmt.Errorf("fill group edges: %w", err)
	}
	return nil
}
