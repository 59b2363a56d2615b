package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/shelfsearch/internal/core/domain"
	"github.com/custodia-labs/shelfsearch/internal/core/ports/driven"
	"github.com/custodia-labs/shelfsearch/internal/normalisers/html"
)

// Ensure Store implements the interface.
var _ driven.MetadataStore = (*Store)(nil)

// MetadataFile is the name of Calibre's metadata database.
const MetadataFile = "metadata.db"

// snippetWindow is the snippet length in characters.
const snippetWindow = 200

// isbnSubquery resolves an identifier when the legacy isbn column is empty.
const isbnSubquery = `(SELECT i.val FROM identifiers i WHERE i.book = b.id AND lower(i.type) IN ('isbn', 'isbn13') LIMIT 1)`

// Store reads a Calibre library's metadata.db.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens <libraryPath>/metadata.db read-only.
// A missing database is reported as domain.ErrStoreUnavailable.
func NewStore(libraryPath string) (*Store, error) {
	if libraryPath == "" {
		return nil, fmt.Errorf("library path is empty: %w", domain.ErrStoreUnavailable)
	}

	dbPath := filepath.Join(libraryPath, MetadataFile)
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("%s not found, check the library path: %w", dbPath, domain.ErrStoreUnavailable)
	}

	db, err := sql.Open("sqlite", readOnlyDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w: %w", domain.ErrStoreUnavailable, err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.Ping(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// readOnlyDSN builds a URI filename that SQLite opens with mode=ro.
func readOnlyDSN(path string) string {
	escaped := strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23").Replace(filepath.ToSlash(path))
	return "file:" + escaped + "?mode=ro&_pragma=busy_timeout(5000)&_pragma=query_only(1)"
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Ping checks that the database is readable and has a Calibre schema.
func (s *Store) Ping(ctx context.Context) error {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name IN ('books', 'comments', 'identifiers')",
	).Scan(&n)
	if err != nil {
		return fmt.Errorf("reading %s: %w: %w", s.path, domain.ErrStoreUnavailable, err)
	}
	if n < 3 {
		return fmt.Errorf("%s is not a Calibre library: %w", s.path, domain.ErrStoreUnavailable)
	}
	return nil
}

// SearchByTerm returns at most limit books matching the boolean query.
func (s *Store) SearchByTerm(ctx context.Context, term string, limit int) ([]domain.RawHit, error) {
	groups := parseBooleanQuery(term)
	if len(groups) == 0 || limit <= 0 {
		return nil, nil
	}

	where, args := buildWhere(groups)
	query := `
		SELECT b.id, b.title, COALESCE(NULLIF(b.isbn, ''), ` + isbnSubquery + `, ''), COALESCE(c.text, '')
		FROM books b
		LEFT JOIN comments c ON c.book = b.id
		WHERE ` + where + `
		ORDER BY b.id
		LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w: %w", term, domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	needles := flatten(groups)
	var hits []domain.RawHit
	for rows.Next() {
		var h domain.RawHit
		var comments string
		if err := rows.Scan(&h.BookID, &h.Title, &h.ISBN, &comments); err != nil {
			return nil, fmt.Errorf("scan search row: %w: %w", domain.ErrStoreUnavailable, err)
		}
		h.Snippet = buildSnippet(html.ToLine(comments), needles, snippetWindow)
		if h.Snippet == "" {
			h.Snippet = h.Title
		}
		h.Query = term
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search rows: %w: %w", domain.ErrStoreUnavailable, err)
	}
	return hits, nil
}

// FindByIdentifier resolves an ISBN. The identifiers table is searched
// first because Calibre usually keeps ISBNs there; the legacy
// books.isbn column is the fallback.
func (s *Store) FindByIdentifier(ctx context.Context, isbn string) (*domain.BookRecord, error) {
	normalized := normalizeISBN(isbn)
	if normalized == "" {
		return nil, fmt.Errorf("isbn %q: %w", isbn, domain.ErrNotFound)
	}

	rec, err := s.queryBook(ctx, `
		SELECT b.id, b.title, COALESCE(NULLIF(b.isbn, ''), i.val), COALESCE(c.text, '')
		FROM books b
		JOIN identifiers i ON i.book = b.id
		LEFT JOIN comments c ON c.book = b.id
		WHERE lower(i.type) IN ('isbn', 'isbn13')
		  AND upper(REPLACE(REPLACE(i.val, '-', ''), ' ', '')) = ?
		ORDER BY b.id
		LIMIT 1`, normalized)
	if !errors.Is(err, domain.ErrNotFound) {
		return rec, err
	}

	return s.queryBook(ctx, `
		SELECT b.id, b.title, COALESCE(b.isbn, ''), COALESCE(c.text, '')
		FROM books b
		LEFT JOIN comments c ON c.book = b.id
		WHERE upper(REPLACE(REPLACE(COALESCE(b.isbn, ''), '-', ''), ' ', '')) = ?
		ORDER BY b.id
		LIMIT 1`, normalized)
}

// FetchExcerptSource returns a book's title, identifier and plain-text comments.
func (s *Store) FetchExcerptSource(ctx context.Context, bookID int64) (*domain.BookRecord, error) {
	return s.queryBook(ctx, `
		SELECT b.id, b.title, COALESCE(NULLIF(b.isbn, ''), `+isbnSubquery+`, ''), COALESCE(c.text, '')
		FROM books b
		LEFT JOIN comments c ON c.book = b.id
		WHERE b.id = ?`, bookID)
}

func (s *Store) queryBook(ctx context.Context, query string, arg any) (*domain.BookRecord, error) {
	var rec domain.BookRecord
	var comments string
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&rec.BookID, &rec.Title, &rec.ISBN, &comments)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query book: %w: %w", domain.ErrStoreUnavailable, err)
	}
	rec.Comments = html.ToText(comments)
	return &rec, nil
}

func flatten(groups [][]string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
