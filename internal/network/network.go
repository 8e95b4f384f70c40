// Package network turns conversations into a weighted interaction graph.
package network

import (
	"sort"

	"github.com/runnerr0/inboxlens/internal/archive"
	"github.com/runnerr0/inboxlens/internal/features"
)

// Edge attributes messages from Name toward Connection. Connection is another
// participant, or a group title for the group variant. Messages is always the
// Name side's own count, so (A, B) and (B, A) usually differ.
type Edge struct {
	Name       string `json:"name"`
	Connection string `json:"connection"`
	Messages   int    `json:"messages"`
}

// UndirectedEdge is an unordered pair with both directions summed; A < B.
type UndirectedEdge struct {
	A      string `json:"a"`
	B      string `json:"b"`
	Weight int    `json:"weight"`
}

// Node is a name with the total weight of its outgoing edges.
type Node struct {
	Name   string `json:"name"`
	Weight int    `json:"weight"`
}

// Options selects which conversations feed the graph.
type Options struct {
	// Limit keeps only the Limit conversations with the most messages; 0 keeps all.
	Limit int

	// GroupOnly links participants to the titles of conversations with more
	// than two participants instead of to each other.
	GroupOnly bool
}

// Build emits edges for the selected conversations and aggregates duplicates.
func Build(convs []archive.Conversation, opts Options) []Edge {
	selected := features.TopConversations(convs, opts.Limit)
	if opts.GroupOnly {
		return Aggregate(EmitGroups(selected))
	}
	return Aggregate(Emit(selected))
}

// Emit produces one edge per ordered pair of distinct participants in each
// conversation, weighted by the first participant's message count there.
// Duplicate (Name, Connection) pairs across conversations are left for
// Aggregate.
func Emit(convs []archive.Conversation) []Edge {
	var edges []Edge
	for _, c := range convs {
		sent := c.SentBy()
		for i, p := range c.Participants {
			for j, q := range c.Participants {
				if i == j || p.Name == q.Name {
					continue
				}
				edges = append(edges, Edge{Name: p.Name, Connection: q.Name, Messages: sent[p.Name]})
			}
		}
	}
	return edges
}

// EmitGroups links every participant of a conversation with more than two
// participants to the conversation title, weighted by what they sent there.
func EmitGroups(convs []archive.Conversation) []Edge {
	var edges []Edge
	for _, c := range convs {
		if c.ParticipantCount() <= 2 {
			continue
		}
		sent := c.SentBy()
		for _, p := range c.Participants {
			if p.Name == c.Title {
				continue
			}
			edges = append(edges, Edge{Name: p.Name, Connection: c.Title, Messages: sent[p.Name]})
		}
	}
	return edges
}

type pair struct{ name, connection string }

// Aggregate sums Messages per (Name, Connection), keeping first-seen order.
func Aggregate(edges []Edge) []Edge {
	index := make(map[pair]int, len(edges))
	out := make([]Edge, 0, len(edges))
	for _, e := range edges {
		k := pair{e.Name, e.Connection}
		if i, ok := index[k]; ok {
			out[i].Messages += e.Messages
			continue
		}
		index[k] = len(out)
		out = append(out, e)
	}
	return out
}

// Undirected folds (A, B) and (B, A) into one edge, heaviest first, ties by names.
func Undirected(edges []Edge) []UndirectedEdge {
	weights := make(map[pair]int)
	for _, e := range edges {
		a, b := e.Name, e.Connection
		if b < a {
			a, b = b, a
		}
		weights[pair{a, b}] += e.Messages
	}

	out := make([]UndirectedEdge, 0, len(weights))
	for k, w := range weights {
		out = append(out, UndirectedEdge{A: k.name, B: k.connection, Weight: w})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}

// Nodes totals outgoing weight per name, heaviest first, ties by name.
func Nodes(edges []Edge) []Node {
	totals := make(map[string]int)
	for _, e := range edges {
		totals[e.Name] += e.Messages
	}
	out := make([]Node, 0, len(totals))
	for name, w := range totals {
		out = append(out, Node{Name: name, Weight: w})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Name < out[j].Name
	})
	return out
}
