package goferseo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/eringen/goferseo/content"
	"github.com/eringen/goferseo/sitemap"
)

const timeLayout = "2006-01-02T15:04:05Z"

// Store wraps a SQLite database holding the site's content and settings.
// It is the sitemap Source, the attachment resolver and the settings store.
type Store struct {
	db *sql.DB
}

var (
	_ sitemap.Source             = (*Store)(nil)
	_ sitemap.AttachmentResolver = (*Store)(nil)
	_ sitemap.SettingsStore      = (*Store)(nil)
)

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and creates the schema.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets sitemap readers run while an admin transition writes.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA foreign_keys=ON;
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
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    slug TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    priority INTEGER NOT NULL DEFAULT -1,
    frequency TEXT NOT NULL DEFAULT 'default',
    exclude INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS posts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    type TEXT NOT NULL DEFAULT 'post',
    slug TEXT NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'draft',
    author_id INTEGER REFERENCES users(id) ON DELETE SET NULL,
    published_at TEXT NOT NULL DEFAULT '',
    modified_at TEXT NOT NULL DEFAULT '',
    priority INTEGER NOT NULL DEFAULT -1,
    frequency TEXT NOT NULL DEFAULT 'default',
    exclude INTEGER NOT NULL DEFAULT 0,
    guid TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_posts_status_type ON posts(status, type);
CREATE TABLE IF NOT EXISTS terms (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    taxonomy TEXT NOT NULL,
    slug TEXT NOT NULL,
    name TEXT NOT NULL,
    priority INTEGER NOT NULL DEFAULT -1,
    frequency TEXT NOT NULL DEFAULT 'default',
    exclude INTEGER NOT NULL DEFAULT 0,
    UNIQUE (taxonomy, slug)
);
CREATE TABLE IF NOT EXISTS term_relationships (
    post_id INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
    term_id INTEGER NOT NULL REFERENCES terms(id) ON DELETE CASCADE,
    PRIMARY KEY (post_id, term_id)
);
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`)
	return err
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// GetSetting retrieves a setting value by key. Returns empty string if not found.
func (s *Store) GetSetting(key string) (string, error) {
	var val string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return val, err
}

// SetSetting stores a setting value by key (upsert).
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// CreateUser inserts an author and returns its id.
func (s *Store) CreateUser(ctx context.Context, u User) (int64, error) {
	if u.Slug == "" {
		u.Slug = Slugify(u.Name)
	}
	if u.Frequency == "" {
		u.Frequency = sitemap.FrequencyDefault
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO users (slug, name, priority, frequency, exclude) VALUES (?, ?, ?, ?, ?)`,
		u.Slug, u.Name, u.Priority, string(u.Frequency), boolInt(u.Exclude))
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return res.LastInsertId()
}

// CreateTerm inserts a taxonomy term and returns its id.
func (s *Store) CreateTerm(ctx context.Context, t Term) (int64, error) {
	if t.Slug == "" {
		t.Slug = Slugify(t.Name)
	}
	if t.Frequency == "" {
		t.Frequency = sitemap.FrequencyDefault
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO terms (taxonomy, slug, name, priority, frequency, exclude) VALUES (?, ?, ?, ?, ?, ?)`,
		t.Taxonomy, t.Slug, t.Name, t.Priority, string(t.Frequency), boolInt(t.Exclude))
	if err != nil {
		return 0, fmt.Errorf("insert term: %w", err)
	}
	return res.LastInsertId()
}

// AttachTerm links a post to a term.
func (s *Store) AttachTerm(ctx context.Context, postID, termID int64) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO term_relationships (post_id, term_id) VALUES (?, ?)`, postID, termID)
	return err
}

// CreatePost inserts a post and returns its id. Creating a post never emits
// a transition; use SetPostStatus to publish it.
func (s *Store) CreatePost(ctx context.Context, p Post) (int64, error) {
	if p.Type == "" {
		p.Type = "post"
	}
	if p.Slug == "" {
		p.Slug = Slugify(p.Title)
	}
	if p.Status == "" {
		p.Status = content.StatusDraft
	}
	if p.Frequency == "" {
		p.Frequency = sitemap.FrequencyDefault
	}
	if p.ModifiedAt.IsZero() {
		p.ModifiedAt = time.Now()
	}
	var author any
	if p.AuthorID != 0 {
		author = p.AuthorID
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO posts
		(type, slug, title, content, status, author_id, published_at, modified_at, priority, frequency, exclude, guid)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Type, p.Slug, p.Title, p.Content, string(p.Status), author,
		formatTime(p.PublishedAt), formatTime(p.ModifiedAt), p.Priority, string(p.Frequency), boolInt(p.Exclude), p.GUID)
	if err != nil {
		return 0, fmt.Errorf("insert post: %w", err)
	}
	return res.LastInsertId()
}

// GetPost returns a post by id regardless of status.
func (s *Store) GetPost(ctx context.Context, id int64) (Post, error) {
	var (
		p                   Post
		status, freq        string
		published, modified string
		author              sql.NullInt64
		exclude             int
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, type, slug, title, content, status, author_id, published_at, modified_at, priority, frequency, exclude, guid
		FROM posts WHERE id = ?`, id).
		Scan(&p.ID, &p.Type, &p.Slug, &p.Title, &p.Content, &status, &author, &published, &modified, &p.Priority, &freq, &exclude, &p.GUID)
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	if err != nil {
		return Post{}, err
	}
	p.Status = content.Status(status)
	p.AuthorID = author.Int64
	p.PublishedAt = parseTime(published)
	p.ModifiedAt = parseTime(modified)
	p.Frequency = sitemap.Frequency(freq)
	p.Exclude = exclude == 1
	return p, nil
}

// SetPostStatus moves a post to status and returns the transition. The
// first move to publish stamps the publication date.
func (s *Store) SetPostStatus(ctx context.Context, id int64, status content.Status) (content.Transitioned, error) {
	if !status.Valid() {
		return content.Transitioned{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return content.Transitioned{}, err
	}
	defer tx.Rollback()

	var old, typ, published string
	err = tx.QueryRowContext(ctx, `SELECT status, type, published_at FROM posts WHERE id = ?`, id).Scan(&old, &typ, &published)
	if errors.Is(err, sql.ErrNoRows) {
		return content.Transitioned{}, ErrNotFound
	}
	if err != nil {
		return content.Transitioned{}, err
	}
	now := formatTime(time.Now())
	if status == content.StatusPublish && published == "" {
		published = now
	}
	if _, err := tx.ExecContext(ctx, `UPDATE posts SET status = ?, published_at = ?, modified_at = ? WHERE id = ?`,
		string(status), published, now, id); err != nil {
		return content.Transitioned{}, fmt.Errorf("update post status: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return content.Transitioned{}, err
	}
	return content.Transitioned{
		OldStatus: content.Status(old),
		NewStatus: status,
		Kind:      typ,
		ID:        id,
	}, nil
}

// AttachmentURL implements sitemap.AttachmentResolver.
func (s *Store) AttachmentURL(ctx context.Context, id int64) (string, error) {
	var guid string
	err := s.db.QueryRowContext(ctx, `SELECT guid FROM posts WHERE id = ? AND type = 'attachment'`, id).Scan(&guid)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return guid, err
}

// Visible rows of each kind, projected to the same columns:
// id, subtype, path, title, content, published_at, modified_at, priority, frequency.
var kindQueries = map[sitemap.Kind]string{
	sitemap.KindPosts: `
SELECT id, type AS subtype,
       CASE WHEN type IN ('post', 'page') THEN '/' || slug || '/' ELSE '/' || type || '/' || slug || '/' END AS path,
       title, content, published_at, modified_at, priority, frequency
FROM posts
WHERE status = 'publish' AND exclude = 0 AND type <> 'attachment'`,

	sitemap.KindTaxonomies: `
SELECT t.id, t.taxonomy AS subtype,
       CASE t.taxonomy WHEN 'category' THEN '/category/' WHEN 'post_tag' THEN '/tag/' ELSE '/' || t.taxonomy || '/' END || t.slug || '/' AS path,
       t.name AS title, '' AS content, MIN(p.published_at) AS published_at, MAX(p.modified_at) AS modified_at, t.priority, t.frequency
FROM terms t
JOIN term_relationships r ON r.term_id = t.id
JOIN posts p ON p.id = r.post_id AND p.status = 'publish' AND p.exclude = 0
WHERE t.exclude = 0
GROUP BY t.id`,

	sitemap.KindUsers: `
SELECT u.id, '' AS subtype, '/author/' || u.slug || '/' AS path,
       u.name AS title, '' AS content, MIN(p.published_at) AS published_at, MAX(p.modified_at) AS modified_at, u.priority, u.frequency
FROM users u
JOIN posts p ON p.author_id = u.id AND p.status = 'publish' AND p.type = 'post' AND p.exclude = 0
WHERE u.exclude = 0
GROUP BY u.id`,

	sitemap.KindDates: `
SELECT CAST(strftime('%Y%m', published_at) AS INTEGER) AS id, strftime('%Y', published_at) AS subtype,
       '/' || strftime('%Y/%m', published_at) || '/' AS path,
       strftime('%Y-%m', published_at) AS title, '' AS content,
       MIN(published_at) AS published_at, MAX(modified_at) AS modified_at, -1 AS priority, 'default' AS frequency
FROM posts
WHERE status = 'publish' AND type = 'post' AND exclude = 0 AND published_at <> ''
GROUP BY 1`,
}

// where builds the filter over a kind query for q.
func where(q sitemap.Query) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if q.Subtypes != nil {
		if len(q.Subtypes) == 0 {
			conds = append(conds, "0")
		} else {
			conds = append(conds, "subtype IN ("+placeholders(len(q.Subtypes))+")")
			for _, st := range q.Subtypes {
				args = append(args, st)
			}
		}
	}
	if q.Kind == sitemap.KindPosts && len(q.ExcludeIDs) > 0 {
		conds = append(conds, "id NOT IN ("+placeholders(len(q.ExcludeIDs))+")")
		for _, id := range q.ExcludeIDs {
			args = append(args, id)
		}
	}
	if !q.Since.IsZero() {
		conds = append(conds, "published_at >= ?")
		args = append(args, formatTime(q.Since))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func kindQuery(kind sitemap.Kind) (string, error) {
	base, ok := kindQueries[kind.Base()]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return base, nil
}

// Subtypes implements sitemap.Source.
func (s *Store) Subtypes(ctx context.Context, kind sitemap.Kind) ([]string, error) {
	base, err := kindQuery(kind)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT subtype FROM (`+base+`) ORDER BY subtype`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var st string
		if err := rows.Scan(&st); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// Stat implements sitemap.Source.
func (s *Store) Stat(ctx context.Context, q sitemap.Query) (sitemap.Stat, error) {
	base, err := kindQuery(q.Kind)
	if err != nil {
		return sitemap.Stat{}, err
	}
	cond, args := where(q)
	var (
		total   int
		lastMod string
	)
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(MAX(modified_at), '') FROM (`+base+`)`+cond, args...).
		Scan(&total, &lastMod)
	if err != nil {
		return sitemap.Stat{}, err
	}
	return sitemap.Stat{Total: total, LastMod: parseTime(lastMod)}, nil
}

// List implements sitemap.Source.
func (s *Store) List(ctx context.Context, q sitemap.Query) ([]sitemap.Item, error) {
	base, err := kindQuery(q.Kind)
	if err != nil {
		return nil, err
	}
	cond, args := where(q)
	limit := q.Limit
	if limit <= 0 {
		limit = -1
	}
	args = append(args, limit, q.Offset)
	rows, err := s.db.QueryContext(ctx, `SELECT id, subtype, path, title, content, published_at, modified_at, priority, frequency
		FROM (`+base+`)`+cond+` ORDER BY id LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []sitemap.Item
	for rows.Next() {
		var (
			it                  sitemap.Item
			published, modified string
			freq                string
		)
		if err := rows.Scan(&it.ID, &it.Subtype, &it.URL, &it.Title, &it.Content, &published, &modified, &it.Priority, &freq); err != nil {
			return nil, err
		}
		it.Published = parseTime(published)
		it.LastMod = parseTime(modified)
		it.Frequency = sitemap.Frequency(freq)
		items = append(items, it)
	}
	return items, rows.Err()
}
