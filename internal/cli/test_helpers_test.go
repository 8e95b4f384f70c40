package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/runnerr0/inboxlens/internal/config"
	"github.com/runnerr0/inboxlens/internal/logging"
	"github.com/runnerr0/inboxlens/internal/pipeline"
)

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

func ms(month time.Month, day int) int64 {
	return time.Date(2023, month, day, 12, 0, 0, 0, time.UTC).UnixMilli()
}

// writeFixtureArchive writes a small export: a two-person chat with Alice,
// a three-person group and a chat whose participants were not exported.
func writeFixtureArchive(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	write := func(dir string, v map[string]interface{}) {
		b, err := json.Marshal(v)
		require.NoError(t, err)
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(root, dir, "message_1.json"), b, 0o644))
	}
	m := func(sender string, ts int64) map[string]interface{} {
		return map[string]interface{}{"sender_name": sender, "timestamp_ms": ts}
	}
	people := func(names ...string) []map[string]string {
		out := make([]map[string]string, len(names))
		for i, n := range names {
			out[i] = map[string]string{"name": n}
		}
		return out
	}

	write("alice_1", map[string]interface{}{
		"title":        "Alice",
		"participants": people("Alice", "Me"),
		"messages": []interface{}{
			m("Alice", ms(time.January, 3)),
			m("Alice", ms(time.January, 4)),
			m("Me", ms(time.March, 1)),
			m("Alice", ms(time.January, 5)),
			m("Me", ms(time.January, 6)),
		},
	})
	write("club_1", map[string]interface{}{
		"title":        "Book Club",
		"participants": people("Alice", "Bob", "Me"),
		"messages": []interface{}{
			m("Bob", ms(time.January, 10)),
			m("Me", ms(time.January, 11)),
			m("Me", ms(time.January, 12)),
		},
	})
	write("ghost_1", map[string]interface{}{
		"title":    "Ghost",
		"messages": []interface{}{m("Me", ms(time.March, 2))},
	})
	return root
}

// newTestSession runs the pipeline over the fixture archive into an
// in-memory frame.
func newTestSession(t *testing.T, opts pipeline.Options) *session {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Name = "Me"
	cfg.Archive.Path = writeFixtureArchive(t)
	cfg.Report.Timezone = "UTC"

	s, err := buildSession(context.Background(), cfg, opts, logging.Nop(), "")
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}
