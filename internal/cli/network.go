package cli

import (
	"fmt"

	"github.com/runnerr0/inboxlens/internal/network"
	"github.com/runnerr0/inboxlens/internal/pipeline"
	"github.com/runnerr0/inboxlens/internal/storage"
)

// Execute implements the go-flags Commander interface for NetworkCommand.
func (c *NetworkCommand) Execute(args []string) error {
	if c.Limit < 0 {
		return fmt.Errorf("--limit must not be negative")
	}

	s, err := openSession(c.globals, "network", pipeline.Options{NetworkLimit: c.Limit})
	if err != nil {
		return err
	}
	defer s.Close()

	return c.executeWithSession(s)
}

// executeWithSession prints the interaction graph from a prepared session (for testing).
func (c *NetworkCommand) executeWithSession(s *session) error {
	kind := storage.EdgePairwise
	if c.GroupOnly {
		kind = storage.EdgeGroup
	}

	// Undirected and node weights fold several edges together, so the
	// weight floor is applied after folding.
	q := storage.EdgeQuery{Kind: kind}
	if !c.Undirected && !c.Nodes {
		q.MinWeight = c.MinWeight
	}

	edges, err := s.store.Edges(s.ctx, q)
	if err != nil {
		return fmt.Errorf("load edges: %w", err)
	}

	switch {
	case c.Nodes:
		nodes := network.Nodes(edges)
		kept := nodes[:0]
		for _, n := range nodes {
			if n.Weight >= c.MinWeight {
				kept = append(kept, n)
			}
		}
		return c.printNodes(kept)
	case c.Undirected:
		pairs := network.Undirected(edges)
		kept := pairs[:0]
		for _, p := range pairs {
			if p.Weight >= c.MinWeight {
				kept = append(kept, p)
			}
		}
		return c.printUndirected(kept)
	default:
		return c.printEdges(edges)
	}
}

func (c *NetworkCommand) printEdges(edges []network.Edge) error {
	if c.globals.jsonOutput() {
		return printJSON(edges)
	}
	if len(edges) == 0 {
		fmt.Println("No edges")
		return nil
	}
	fmt.Printf("%d %s\n\n", len(edges), plural(len(edges), "edge"))
	for _, e := range edges {
		fmt.Printf("  %-25s -> %-25s %8s\n", truncate(e.Name, 25), truncate(e.Connection, 25), formatNumber(int64(e.Messages)))
	}
	return nil
}

func (c *NetworkCommand) printUndirected(pairs []network.UndirectedEdge) error {
	if c.globals.jsonOutput() {
		return printJSON(pairs)
	}
	if len(pairs) == 0 {
		fmt.Println("No edges")
		return nil
	}
	fmt.Printf("%d %s\n\n", len(pairs), plural(len(pairs), "pair"))
	for _, p := range pairs {
		fmt.Printf("  %-25s -- %-25s %8s\n", truncate(p.A, 25), truncate(p.B, 25), formatNumber(int64(p.Weight)))
	}
	return nil
}

func (c *NetworkCommand) printNodes(nodes []network.Node) error {
	if c.globals.jsonOutput() {
		return printJSON(nodes)
	}
	if len(nodes) == 0 {
		fmt.Println("No participants")
		return nil
	}
	fmt.Printf("%d %s\n\n", len(nodes), plural(len(nodes), "participant"))
	for _, n := range nodes {
		fmt.Printf("  %-30s %8s\n", truncate(n.Name, 30), formatNumber(int64(n.Weight)))
	}
	return nil
}
