package almanac

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested entry does not exist.
var ErrNotFound = errors.New("entry not found")

// Store is a ContentStore backed by SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and creates the schema.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets the API read while the admin writes; busy_timeout makes
	// writers wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS entries (
    collection TEXT NOT NULL,
    id TEXT NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    lang TEXT NOT NULL DEFAULT '',
    pub_date TEXT NOT NULL,
    updated TEXT NOT NULL DEFAULT '',
    pin INTEGER NOT NULL DEFAULT 0,
    tags TEXT NOT NULL DEFAULT '[]',
    draft INTEGER NOT NULL DEFAULT 0,
    description TEXT NOT NULL DEFAULT '',
    body TEXT NOT NULL DEFAULT '',
    abbrlink TEXT NOT NULL DEFAULT '',
    toc INTEGER,
    PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS idx_entries_lang ON entries(collection, lang);
`)
	return err
}

const entryColumns = `collection, id, title, lang, pub_date, updated, pin, tags, draft, description, body, abbrlink, toc`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var (
		e                Entry
		collection       string
		pubDate, updated string
		tags             string
		draft            int
		toc              sql.NullInt64
	)
	if err := row.Scan(&collection, &e.ID, &e.Title, &e.Lang, &pubDate, &updated, &e.Pin, &tags, &draft, &e.Description, &e.Body, &e.Abbrlink, &toc); err != nil {
		return Entry{}, err
	}
	e.Collection = Collection(collection)
	e.Draft = draft == 1
	var err error
	if e.PubDate, err = time.Parse(time.RFC3339Nano, pubDate); err != nil {
		return Entry{}, fmt.Errorf("entry %s/%s: parse pub_date: %w", collection, e.ID, err)
	}
	if updated != "" {
		if e.Updated, err = time.Parse(time.RFC3339Nano, updated); err != nil {
			return Entry{}, fmt.Errorf("entry %s/%s: parse updated: %w", collection, e.ID, err)
		}
	}
	if err := json.Unmarshal([]byte(tags), &e.Tags); err != nil {
		return Entry{}, fmt.Errorf("entry %s/%s: parse tags: %w", collection, e.ID, err)
	}
	if toc.Valid {
		show := toc.Int64 == 1
		e.TOC = &show
	}
	return e, nil
}

// FetchEntries returns the entries of c accepted by pred, ordered by ID.
func (s *Store) FetchEntries(ctx context.Context, c Collection, pred func(Entry) bool) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE collection = ? ORDER BY id`, string(c))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		if pred == nil || pred(e) {
			entries = append(entries, e)
		}
	}
	return entries, rows.Err()
}

// GetEntry returns a single entry regardless of its draft status.
func (s *Store) GetEntry(ctx context.Context, c Collection, id string) (Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE collection = ? AND id = ?`, string(c), id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return e, err
}

// SaveEntry inserts or replaces e.
func (s *Store) SaveEntry(ctx context.Context, e Entry) error {
	if e.Collection != Posts && e.Collection != Weeks {
		return fmt.Errorf("unknown collection %q", e.Collection)
	}
	if e.ID == "" {
		return errors.New("entry id is required")
	}
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	tagJSON, err := json.Marshal(tags)
	if err != nil {
		return err
	}
	updated := ""
	if !e.Updated.IsZero() {
		updated = e.Updated.Format(time.RFC3339Nano)
	}
	draft := 0
	if e.Draft {
		draft = 1
	}
	var toc sql.NullInt64
	if e.TOC != nil {
		toc.Valid = true
		if *e.TOC {
			toc.Int64 = 1
		}
	}
	_, err = s.db.ExecContext(ctx, `INSERT OR REPLACE INTO entries (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(e.Collection), e.ID, e.Title, e.Lang, e.PubDate.Format(time.RFC3339Nano), updated,
		e.Pin, string(tagJSON), draft, e.Description, e.Body, e.Abbrlink, toc)
	return err
}

// DeleteEntry removes an entry. Deleting a missing entry returns ErrNotFound.
func (s *Store) DeleteEntry(ctx context.Context, c Collection, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE collection = ? AND id = ?`, string(c), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListAll returns every entry of c, drafts included.
func (s *Store) ListAll(ctx context.Context, c Collection) ([]Entry, error) {
	return s.FetchEntries(ctx, c, nil)
}
