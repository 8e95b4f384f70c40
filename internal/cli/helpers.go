package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/runnerr0/inboxlens/internal/config"
	"github.com/runnerr0/inboxlens/internal/logging"
	"github.com/runnerr0/inboxlens/internal/pipeline"
	"github.com/runnerr0/inboxlens/internal/storage"
)

// session is one analysed archive: config, derived tables and the frame
// they were written to.
type session struct {
	ctx    context.Context
	cfg    *config.Config
	logger *logging.Logger
	result *pipeline.Result
	store  *storage.SQLiteStore
	db     *sql.DB
}

func (s *session) Close() {
	if s.store != nil {
		s.store.Close()
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil && s.logger != nil {
			s.logger.Error(s.ctx, "close frame", zap.Error(err))
		}
	}
	if s.logger != nil {
		_ = s.logger.Sync()
	}
}

// loadConfig reads --config, or the default config file (created on first
// use), then applies flag overrides and validates.
func loadConfig(globals *GlobalFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if globals != nil && globals.Config != "" {
		cfg, err = config.Load(globals.Config)
	} else {
		cfg, err = config.LoadOrCreate()
	}
	if err != nil {
		return nil, err
	}

	if globals != nil {
		if globals.Name != "" {
			cfg.Name = globals.Name
		}
		if globals.Archive != "" {
			cfg.Archive.Path = globals.Archive
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, verbose bool) (*logging.Logger, error) {
	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	return logging.NewLogger(logging.Config{Level: level, Format: cfg.Logging.Format})
}

// openSession loads the archive, derives every table and fills the frame.
// command tags every log line of the run.
func openSession(globals *GlobalFlags, command string, opts pipeline.Options) (*session, error) {
	cfg, err := loadConfig(globals)
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg, globals != nil && globals.Verbose)
	if err != nil {
		return nil, err
	}

	var dbPath string
	if globals != nil {
		dbPath = globals.DB
	}
	ctx := logging.WithCommand(globals.context(), command)
	s, err := buildSession(ctx, cfg, opts, logger, dbPath)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return s, nil
}

// buildSession runs the pipeline against cfg and writes the frame at dbPath
// (in memory when empty).
func buildSession(ctx context.Context, cfg *config.Config, opts pipeline.Options, logger *logging.Logger, dbPath string) (*session, error) {
	res, err := pipeline.Run(ctx, cfg, opts, logger)
	if err != nil {
		return nil, err
	}

	db, err := storage.Open(ctx, dbPath)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create store: %w", err)
	}

	if err := res.Fill(ctx, store); err != nil {
		store.Close()
		db.Close()
		return nil, err
	}

	return &session{ctx: ctx, cfg: cfg, logger: logger, result: res, store: store, db: db}, nil
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// plural returns word with an "s" unless n is 1.
func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// formatNumber formats an int64 with comma separators.
func formatNumber(n int64) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if i > 0 {
			result.WriteString(",")
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}
