package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/runnerr0/inboxlens/internal/features"
	"github.com/runnerr0/inboxlens/internal/network"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Store holds the derived tables of one run and answers ranking queries.
type Store interface {
	InsertConversations(ctx context.Context, rows []features.ConversationRow) error
	InsertMonthly(ctx context.Context, kind MonthlyKind, rows []features.MonthlyRow) error
	InsertEdges(ctx context.Context, kind EdgeKind, edges []network.Edge) error
	GetConversation(ctx context.Context, title string) (*features.ConversationRow, error)
	TopConversations(ctx context.Context, q RankQuery) ([]features.ConversationRow, error)
	Monthly(ctx context.Context, q MonthlyQuery) ([]features.MonthlyRow, error)
	Edges(ctx context.Context, q EdgeQuery) ([]network.Edge, error)
	GetStats(ctx context.Context) (*Stats, error)
	SetMeta(ctx context.Context, m Meta) error
	GetMeta(ctx context.Context) (*Meta, error)
	Close() error
}

// SQLiteStore implements Store backed by a SQLite database, normally ":memory:".
type SQLiteStore struct {
	db *sql.DB

	// Prepared statements
	getConversation *sql.Stmt
}

// NewSQLiteStore creates a new SQLiteStore from an already-opened and migrated database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}

	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	return s, nil
}

const conversationColumns = `title, message_count, participant_count, messages_per_participant,
	active_days, active_days_log_safe, self_messages, first_message, last_message`

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.getConversation, err = s.db.Prepare(`SELECT ` + conversationColumns + ` FROM conversations WHERE title = ?`)
	if err != nil {
		return err
	}

	return nil
}

// formatTime stores a zero time as NULL.
func formatTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339), Valid: true}
}

// parseTimestamp tries the formats the frame writes.
func parseTimestamp(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp: %s", s)
}

// InsertConversations writes all rows in a single transaction.
func (s *SQLiteStore) InsertConversations(ctx context.Context, rows []features.ConversationRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO conversations (`+conversationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		_, err := stmt.ExecContext(ctx,
			r.Title, r.MessageCount, r.ParticipantCount, r.MessagesPerParticipant,
			r.ActiveDays, r.ActiveDaysLogSafe, r.SelfMessages,
			formatTime(r.FirstMessage), formatTime(r.LastMessage),
		)
		if err != nil {
			return fmt.Errorf("insert conversation %q: %w", r.Title, err)
		}
	}

	return tx.Commit()
}

// InsertMonthly writes monthly rows of one kind in a single transaction.
func (s *SQLiteStore) InsertMonthly(ctx context.Context, kind MonthlyKind, rows []features.MonthlyRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO monthly (kind, title, month, count) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, string(kind), r.Title, r.Month.String(), r.Count); err != nil {
			return fmt.Errorf("insert %s month %s for %q: %w", kind, r.Month, r.Title, err)
		}
	}

	return tx.Commit()
}

// InsertEdges writes aggregated edges of one kind in a single transaction.
// Edges must already be aggregated: a repeated (name, connection) pair
// violates the table's unique constraint.
func (s *SQLiteStore) InsertEdges(ctx context.Context, kind EdgeKind, edges []network.Edge) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO edges (kind, name, connection, messages) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range edges {
		if _, err := stmt.ExecContext(ctx, string(kind), e.Name, e.Connection, e.Messages); err != nil {
			return fmt.Errorf("insert %s edge %q -> %q: %w", kind, e.Name, e.Connection, err)
		}
	}

	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanConversation(sc rowScanner) (features.ConversationRow, error) {
	var r features.ConversationRow
	var first, last sql.NullString
	err := sc.Scan(
		&r.Title, &r.MessageCount, &r.ParticipantCount, &r.MessagesPerParticipant,
		&r.ActiveDays, &r.ActiveDaysLogSafe, &r.SelfMessages, &first, &last,
	)
	if err != nil {
		return r, err
	}
	if first.Valid {
		r.FirstMessage, _ = parseTimestamp(first.String)
	}
	if last.Valid {
		r.LastMessage, _ = parseTimestamp(last.String)
	}
	return r, nil
}

// GetConversation retrieves a single conversation row by exact title.
func (s *SQLiteStore) GetConversation(ctx context.Context, title string) (*features.ConversationRow, error) {
	r, err := scanConversation(s.getConversation.QueryRowContext(ctx, title))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("conversation %q: %w", title, ErrNotFound)
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return &r, nil
}

// orderColumn maps a sort key to its column; unknown keys sort by message count.
func orderColumn(k features.SortKey) string {
	switch k {
	case features.ByPerParticipant:
		return "messages_per_participant"
	case features.ByActiveDays:
		return "active_days"
	default:
		return "message_count"
	}
}

// TopConversations ranks conversation rows descending by q.SortBy. Ties keep
// insertion order.
func (s *SQLiteStore) TopConversations(ctx context.Context, q RankQuery) ([]features.ConversationRow, error) {
	var clauses []string
	var args []interface{}

	if q.Match != "" {
		clauses = append(clauses, "LOWER(title) LIKE ? ESCAPE '\\'")
		args = append(args, "%"+escapeLike(strings.ToLower(q.Match))+"%")
	}
	if q.MinParticipants > 0 {
		clauses = append(clauses, "participant_count >= ?")
		args = append(args, q.MinParticipants)
	}

	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	limit := q.Limit
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	query := `SELECT ` + conversationColumns + ` FROM conversations` + where +
		` ORDER BY ` + orderColumn(q.SortBy) + ` DESC, rowid ASC LIMIT ? OFFSET ?`
	args = append(args, limit, q.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	out := []features.ConversationRow{}
	for rows.Next() {
		r, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// escapeLike quotes LIKE wildcards so a user's match string is literal.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Monthly returns rows of one kind ordered by title insertion then month.
func (s *SQLiteStore) Monthly(ctx context.Context, q MonthlyQuery) ([]features.MonthlyRow, error) {
	clauses := []string{"kind = ?"}
	args := []interface{}{string(q.Kind)}

	if q.Title != "" {
		clauses = append(clauses, "title = ?")
		args = append(args, q.Title)
	}
	if !q.Since.IsZero() {
		clauses = append(clauses, "month >= ?")
		args = append(args, q.Since.String())
	}
	if !q.Until.IsZero() {
		clauses = append(clauses, "month <= ?")
		args = append(args, q.Until.String())
	}

	query := `SELECT title, month, count FROM monthly WHERE ` + strings.Join(clauses, " AND ") + ` ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query monthly: %w", err)
	}
	defer rows.Close()

	out := []features.MonthlyRow{}
	for rows.Next() {
		var r features.MonthlyRow
		var month string
		if err := rows.Scan(&r.Title, &month, &r.Count); err != nil {
			return nil, fmt.Errorf("scan monthly: %w", err)
		}
		if r.Month, err = features.ParseMonth(month); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Edges returns edges of one kind, heaviest first, ties in insertion order.
func (s *SQLiteStore) Edges(ctx context.Context, q EdgeQuery) ([]network.Edge, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, connection, messages FROM edges
		WHERE kind = ? AND messages >= ?
		ORDER BY messages DESC, id ASC
		LIMIT ?`, string(q.Kind), q.MinWeight, limit)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer rows.Close()

	out := []network.Edge{}
	for rows.Next() {
		var e network.Edge
		if err := rows.Scan(&e.Name, &e.Connection, &e.Messages); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetStats returns archive-wide figures.
func (s *SQLiteStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(message_count), 0),
		       COALESCE(SUM(self_messages), 0),
		       COALESCE(SUM(CASE WHEN participant_count > 2 THEN 1 ELSE 0 END), 0)
		FROM conversations`,
	).Scan(&stats.TotalConversations, &stats.TotalMessages, &stats.SelfMessages, &stats.GroupConversations)
	if err != nil {
		return nil, fmt.Errorf("count conversations: %w", err)
	}

	// RFC3339 strings from mixed offsets do not sort as instants, so the
	// range is resolved in Go.
	var firsts, lasts []string
	rows, err := s.db.QueryContext(ctx, `SELECT first_message, last_message FROM conversations WHERE first_message IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("message range: %w", err)
	}
	for rows.Next() {
		var f, l string
		if err := rows.Scan(&f, &l); err != nil {
			rows.Close()
			return nil, err
		}
		firsts = append(firsts, f)
		lasts = append(lasts, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range firsts {
		f, _ := parseTimestamp(firsts[i])
		l, _ := parseTimestamp(lasts[i])
		if stats.FirstMessage.IsZero() || f.Before(stats.FirstMessage) {
			stats.FirstMessage = f
		}
		if l.After(stats.LastMessage) {
			stats.LastMessage = l
		}
	}

	err = s.db.QueryRowContext(ctx,
		"SELECT COUNT(DISTINCT month) FROM monthly WHERE kind = 'conversation'",
	).Scan(&stats.ActiveMonths)
	if err != nil {
		return nil, fmt.Errorf("active months: %w", err)
	}

	var month string
	err = s.db.QueryRowContext(ctx, `
		SELECT month, SUM(count) AS total FROM monthly
		WHERE kind = 'timeline'
		GROUP BY month ORDER BY total DESC, month ASC LIMIT 1`,
	).Scan(&month, &stats.BusiestMonth.Count)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return nil, fmt.Errorf("busiest month: %w", err)
	default:
		if stats.BusiestMonth.Month, err = features.ParseMonth(month); err != nil {
			return nil, err
		}
	}

	top, err := s.db.QueryContext(ctx,
		"SELECT title, message_count FROM conversations ORDER BY message_count DESC, rowid ASC LIMIT 10",
	)
	if err != nil {
		return nil, fmt.Errorf("top conversations: %w", err)
	}
	defer top.Close()

	for top.Next() {
		var cc ConversationCount
		if err := top.Scan(&cc.Title, &cc.Count); err != nil {
			return nil, err
		}
		stats.TopConversations = append(stats.TopConversations, cc)
	}

	return stats, top.Err()
}

// SetMeta records the run that produced the frame, replacing any earlier record.
func (s *SQLiteStore) SetMeta(ctx context.Context, m Meta) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO frame_meta (id, run_id, self, archive_path, timezone, created_at)
		VALUES (1, ?, ?, ?, ?, ?)`,
		m.RunID, m.Self, m.ArchivePath, m.Timezone, m.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("set meta: %w", err)
	}
	return nil
}

// GetMeta returns the frame's run record, or ErrNotFound before SetMeta.
func (s *SQLiteStore) GetMeta(ctx context.Context) (*Meta, error) {
	var m Meta
	var created string
	err := s.db.QueryRowContext(ctx,
		"SELECT run_id, self, archive_path, timezone, created_at FROM frame_meta WHERE id = 1",
	).Scan(&m.RunID, &m.Self, &m.ArchivePath, &m.Timezone, &created)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("frame meta: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get meta: %w", err)
	}
	if m.CreatedAt, err = parseTimestamp(created); err != nil {
		return nil, err
	}
	return &m, nil
}

// Close releases all prepared statements. The underlying *sql.DB is NOT
// closed; that is the caller's responsibility.
func (s *SQLiteStore) Close() error {
	if s.getConversation != nil {
		s.getConversation.Close()
	}
	return nil
}
