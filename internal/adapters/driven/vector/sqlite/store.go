// Package sqlite provides a persistent vector index backed by SQLite.
//
// Vectors are stored as little-endian float32 BLOBs and ranked by
// brute-force cosine similarity in process; at course-content scale
// (thousands of chunks) this is well below query latency budgets. The
// database is a derived cache: it is always reconstructible from the
// content store, so losing it only costs a rebuild.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/studyloop/studyloop-cli/internal/adapters/driven/vector"
	"github.com/studyloop/studyloop-cli/internal/core/domain"
	"github.com/studyloop/studyloop-cli/internal/core/ports/driven"
)

// Table names for the two parallel indexes.
const (
	chunkTable = "chunk_entries"
	unitTable  = "unit_entries"
)

// Store is a unified SQLite-based vector store exposing the chunk-level
// and unit-level indexes through wrapper types sharing one database.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite vector store at the specified data
// directory. If dataDir is empty, defaults to ~/.studyloop/data/index.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".studyloop", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "index.db")

	// WAL mode keeps readers unblocked during ingestion writes.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// createSchema creates the entry and metadata tables if needed.
func (s *Store) createSchema() error {
	for _, table := range []string{chunkTable, unitTable} {
		stmt := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT PRIMARY KEY,
				unit_id TEXT NOT NULL,
				module_path TEXT NOT NULL,
				seq INTEGER NOT NULL,
				content TEXT NOT NULL,
				embedding BLOB NOT NULL
			)`, table)
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
		idx := fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS idx_%s_unit ON %s (unit_id)", table, table)
		if _, err := s.db.Exec(idx); err != nil {
			return err
		}
	}

	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS index_meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`)
	return err
}

// ChunkIndex returns the chunk-level VectorIndex backed by this store.
func (s *Store) ChunkIndex() driven.VectorIndex {
	return &tableIndex{store: s, table: chunkTable}
}

// UnitIndex returns the unit-level VectorIndex backed by this store.
func (s *Store) UnitIndex() driven.VectorIndex {
	return &tableIndex{store: s, table: unitTable}
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// tableIndex implements driven.VectorIndex over one entry table.
type tableIndex struct {
	store *Store
	table string
}

// Ensure tableIndex implements the interface.
var _ driven.VectorIndex = (*tableIndex)(nil)

// Upsert inserts or replaces entries inside one transaction. The batch is
// validated against the recorded dimensionality before any write, so a
// mismatch rolls back cleanly.
func (t *tableIndex) Upsert(ctx context.Context, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := t.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	dims, err := t.metaInt(ctx, tx, t.dimsKey())
	if err != nil {
		return err
	}
	if dims == 0 {
		dims = len(entries[0].Embedding)
	}
	for _, e := range entries {
		if len(e.Embedding) != dims {
			return fmt.Errorf("%w: entry %s has %d dimensions, index has %d",
				domain.ErrDimensionMismatch, e.ID, len(e.Embedding), dims)
		}
	}

	// ON CONFLICT DO UPDATE keeps the original rowid, preserving
	// insertion order for score tie-breaks.
	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, unit_id, module_path, seq, content, embedding)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			unit_id = excluded.unit_id,
			module_path = excluded.module_path,
			seq = excluded.seq,
			content = excluded.content,
			embedding = excluded.embedding`, t.table)

	for _, e := range entries {
		blob := vector.EncodeFloat32s(e.Embedding)
		if _, err := tx.ExecContext(ctx, stmt,
			e.ID, e.UnitID, e.ModulePath, e.Seq, e.Text, blob); err != nil {
			return fmt.Errorf("upsert entry %s: %w", e.ID, err)
		}
	}

	if err := t.setMeta(ctx, tx, t.dimsKey(), fmt.Sprintf("%d", dims)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

// Query loads the candidate rows in insertion order and ranks them by
// cosine similarity in process.
func (t *tableIndex) Query(
	ctx context.Context, embedding []float32, k int, filter *driven.QueryFilter,
) ([]driven.VectorHit, error) {
	if k <= 0 {
		return []driven.VectorHit{}, nil
	}

	dims, err := t.metaInt(ctx, t.store.db, t.dimsKey())
	if err != nil {
		return nil, err
	}
	if dims == 0 {
		// Never written: empty index, empty result.
		return []driven.VectorHit{}, nil
	}
	if len(embedding) != dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			domain.ErrDimensionMismatch, len(embedding), dims)
	}

	query, args := t.selectSQL(filter)
	rows, err := t.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var hits []driven.VectorHit
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		hits = append(hits, driven.VectorHit{
			Entry:      *entry,
			Similarity: vector.Cosine(embedding, entry.Embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	if hits == nil {
		hits = []driven.VectorHit{}
	}
	return hits, nil
}

// selectSQL builds the candidate query for a filter. Rows come back in
// rowid (insertion) order so the stable sort preserves tie-breaks.
func (t *tableIndex) selectSQL(filter *driven.QueryFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if filter != nil && filter.ModulePath != "" {
		conds = append(conds, "(module_path = ? OR module_path LIKE ? || '/%')")
		args = append(args, filter.ModulePath, filter.ModulePath)
	}
	if filter != nil && len(filter.UnitIDs) > 0 {
		placeholders := strings.Repeat("?,", len(filter.UnitIDs))
		conds = append(conds, fmt.Sprintf("unit_id IN (%s)", placeholders[:len(placeholders)-1]))
		for _, id := range filter.UnitIDs {
			args = append(args, id)
		}
	}

	query := fmt.Sprintf(
		"SELECT id, unit_id, module_path, seq, content, embedding FROM %s", t.table)
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY rowid"

	return query, args
}

// Get returns the entry with the given ID.
func (t *tableIndex) Get(ctx context.Context, id string) (*domain.IndexEntry, error) {
	stmt := fmt.Sprintf(
		"SELECT id, unit_id, module_path, seq, content, embedding FROM %s WHERE id = ?", t.table)

	row := t.store.db.QueryRowContext(ctx, stmt, id)

	var (
		entry domain.IndexEntry
		blob  []byte
	)
	err := row.Scan(&entry.ID, &entry.UnitID, &entry.ModulePath,
		&entry.Seq, &entry.Text, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get entry %s: %w", id, err)
	}
	entry.Embedding = vector.DecodeFloat32s(blob)
	return &entry, nil
}

// ContainsUnit reports whether any entry references the content unit.
func (t *tableIndex) ContainsUnit(ctx context.Context, unitID string) (bool, error) {
	stmt := fmt.Sprintf(
		"SELECT EXISTS(SELECT 1 FROM %s WHERE unit_id = ?)", t.table)

	var exists int
	if err := t.store.db.QueryRowContext(ctx, stmt, unitID).Scan(&exists); err != nil {
		return false, fmt.Errorf("contains unit %s: %w", unitID, err)
	}
	return exists == 1, nil
}

// Clear removes all entries and resets the recorded dimensionality, so a
// rebuild may use a different embedding model.
func (t *tableIndex) Clear(ctx context.Context) error {
	tx, err := t.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", t.table)); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM index_meta WHERE key = ?", t.dimsKey()); err != nil {
		return fmt.Errorf("clear dimensions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clear: %w", err)
	}
	return nil
}

// Count returns the number of entries.
func (t *tableIndex) Count(ctx context.Context) (int, error) {
	var count int
	stmt := fmt.Sprintf("SELECT COUNT(*) FROM %s", t.table)
	if err := t.store.db.QueryRowContext(ctx, stmt).Scan(&count); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return count, nil
}

// Dimensions returns the recorded dimensionality, 0 while empty.
func (t *tableIndex) Dimensions(ctx context.Context) (int, error) {
	return t.metaInt(ctx, t.store.db, t.dimsKey())
}

// SetBuildTime records when the last ingestion run finished.
func (t *tableIndex) SetBuildTime(ctx context.Context, at time.Time) error {
	return t.setMeta(ctx, t.store.db, t.buildTimeKey(), at.UTC().Format(time.RFC3339Nano))
}

// BuildTime returns the last recorded build time (zero if never built).
func (t *tableIndex) BuildTime(ctx context.Context) (time.Time, error) {
	val, err := t.metaString(ctx, t.store.db, t.buildTimeKey())
	if err != nil || val == "" {
		return time.Time{}, err
	}
	at, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse build time: %w", err)
	}
	return at, nil
}

// Close is a no-op: the owning Store closes the shared connection.
func (t *tableIndex) Close() error {
	return nil
}

func (t *tableIndex) dimsKey() string {
	return t.table + "_dims"
}

func (t *tableIndex) buildTimeKey() string {
	return t.table + "_build_time"
}

// querier abstracts *sql.DB and *sql.Tx for the metadata helpers.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (t *tableIndex) metaString(ctx context.Context, q querier, key string) (string, error) {
	var val string
	err := q.QueryRowContext(ctx,
		"SELECT value FROM index_meta WHERE key = ?", key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read meta %s: %w", key, err)
	}
	return val, nil
}

func (t *tableIndex) metaInt(ctx context.Context, q querier, key string) (int, error) {
	val, err := t.metaString(ctx, q, key)
	if err != nil || val == "" {
		return 0, err
	}
	var n int
	if _, err := fmt.Sscanf(val, "%d", &n); err != nil {
		return 0, fmt.Errorf("parse meta %s: %w", key, err)
	}
	return n, nil
}

func (t *tableIndex) setMeta(ctx context.Context, q querier, key, value string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO index_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("write meta %s: %w", key, err)
	}
	return nil
}

// scanEntry reads one entry row.
func scanEntry(rows *sql.Rows) (*domain.IndexEntry, error) {
	var (
		entry domain.IndexEntry
		blob  []byte
	)
	if err := rows.Scan(&entry.ID, &entry.UnitID, &entry.ModulePath,
		&entry.Seq, &entry.Text, &blob); err != nil {
		return nil, fmt.Errorf("scan entry: %w", err)
	}
	entry.Embedding = vector.DecodeFloat32s(blob)
	return &entry, nil
}
