package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pbaille/memoir/internal/domain"
)

//go:embed schema.sql
var schema string

var (
	// ErrNotFound is returned when no story matches an ID or prefix
	ErrNotFound = errors.New("story not found")
	// ErrAmbiguousID is returned when an ID prefix matches several stories
	ErrAmbiguousID = errors.New("ambiguous story id")
)

const storyColumns = "id, title, content, chapter, confidence, sentiment, sentiment_score, created_at, updated_at"

// Store handles database operations
type Store struct {
	db *sql.DB
}

// New creates a new Store with the given database path
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite serializes writers anyway; one connection also keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// AddStory inserts a story, assigning its ID and timestamps
func (s *Store) AddStory(story domain.Story) (*domain.Story, error) {
	story.ID = uuid.New().String()
	now := time.Now().UTC()
	story.CreatedAt = now
	story.UpdatedAt = now
	if story.Tags == nil {
		story.Tags = []string{}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		"INSERT INTO stories ("+storyColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		story.ID, story.Title, story.Content, story.Chapter, story.Confidence,
		story.Sentiment, story.SentimentScore, story.CreatedAt, story.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert story: %w", err)
	}

	if err := replaceTags(tx, story.ID, story.Tags); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &story, nil
}

// GetStory retrieves a story by ID with its tags
func (s *Store) GetStory(id string) (*domain.Story, error) {
	row := s.db.QueryRow("SELECT "+storyColumns+" FROM stories WHERE id = ?", id)

	story, err := scanStory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get story %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get story: %w", err)
	}

	if story.Tags, err = s.storyTags(id); err != nil {
		return nil, err
	}
	return story, nil
}

// ResolveID expands an ID prefix to a full story ID
func (s *Store) ResolveID(prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", ErrNotFound
	}

	rows, err := s.db.Query(
		"SELECT id FROM stories WHERE id LIKE ? ESCAPE '\\' LIMIT 2",
		escapeLike(prefix)+"%",
	)
	if err != nil {
		return "", fmt.Errorf("resolve id: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("resolve id: %w", err)
	}

	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%s: %w", prefix, ErrNotFound)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("%s: %w", prefix, ErrAmbiguousID)
	}
}

// ListStories returns recent stories with pagination. A negative limit
// returns everything. A non-empty chapter restricts the listing to that
// chapter before the page is cut.
func (s *Store) ListStories(limit, offset int, chapter string) ([]domain.Story, error) {
	if chapter != "" {
		return s.queryStories(
			"SELECT "+storyColumns+" FROM stories WHERE chapter = ? ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?",
			chapter, limit, offset,
		)
	}
	return s.queryStories(
		"SELECT "+storyColumns+" FROM stories ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?",
		limit, offset,
	)
}

// AllStories returns every story, oldest first
func (s *Store) AllStories() ([]domain.Story, error) {
	return s.queryStories("SELECT " + storyColumns + " FROM stories ORDER BY created_at ASC, rowid ASC")
}

// UpdateStory overwrites a story's fields and tags
func (s *Store) UpdateStory(story domain.Story) (*domain.Story, error) {
	story.UpdatedAt = time.Now().UTC()
	if story.Tags == nil {
		story.Tags = []string{}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE stories
		SET title = ?, content = ?, chapter = ?, confidence = ?, sentiment = ?, sentiment_score = ?, updated_at = ?
		WHERE id = ?
	`, story.Title, story.Content, story.Chapter, story.Confidence, story.Sentiment,
		story.SentimentScore, story.UpdatedAt, story.ID)
	if err != nil {
		return nil, fmt.Errorf("update story: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("update story %s: %w", story.ID, ErrNotFound)
	}

	if err := replaceTags(tx, story.ID, story.Tags); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &story, nil
}

// DeleteStory removes a story and its tags
func (s *Store) DeleteStory(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM story_tags WHERE story_id = ?", id); err != nil {
		return fmt.Errorf("delete tags: %w", err)
	}
	res, err := tx.Exec("DELETE FROM stories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete story: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete story %s: %w", id, ErrNotFound)
	}

	return tx.Commit()
}

// SearchStories performs a simple text search over titles and content
func (s *Store) SearchStories(query string) ([]domain.Story, error) {
	pattern := "%" + escapeLike(query) + "%"
	return s.queryStories(
		"SELECT "+storyColumns+` FROM stories
		WHERE content LIKE ? ESCAPE '\' OR title LIKE ? ESCAPE '\'
		ORDER BY created_at DESC`,
		pattern, pattern,
	)
}

// ListTags returns every tag with its story count, most used first
func (s *Store) ListTags() ([]domain.TagCount, error) {
	rows, err := s.db.Query(
		"SELECT tag, COUNT(*) AS n FROM story_tags GROUP BY tag ORDER BY n DESC, tag ASC",
	)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	tags := []domain.TagCount{}
	for rows.Next() {
		var t domain.TagCount
		if err := rows.Scan(&t.Name, &t.Stories); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// ChapterCounts returns the number of stories per chapter
func (s *Store) ChapterCounts() (map[string]int, error) {
	rows, err := s.db.Query("SELECT chapter, COUNT(*) FROM stories GROUP BY chapter")
	if err != nil {
		return nil, fmt.Errorf("chapter counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var ch string
		var n int
		if err := rows.Scan(&ch, &n); err != nil {
			return nil, fmt.Errorf("scan chapter: %w", err)
		}
		counts[ch] = n
	}
	return counts, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStory(row scanner) (*domain.Story, error) {
	var st domain.Story
	err := row.Scan(&st.ID, &st.Title, &st.Content, &st.Chapter, &st.Confidence,
		&st.Sentiment, &st.SentimentScore, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Store) queryStories(query string, args ...any) ([]domain.Story, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query stories: %w", err)
	}

	stories := []domain.Story{}
	for rows.Next() {
		st, err := scanStory(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan story: %w", err)
		}
		stories = append(stories, *st)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query stories: %w", err)
	}

	// Tags are loaded after the rows are closed; the pool has a single connection.
	for i := range stories {
		if stories[i].Tags, err = s.storyTags(stories[i].ID); err != nil {
			return nil, err
		}
	}
	return stories, nil
}

func (s *Store) storyTags(storyID string) ([]string, error) {
	rows, err := s.db.Query(
		"SELECT tag FROM story_tags WHERE story_id = ? ORDER BY position",
		storyID,
	)
	if err != nil {
		return nil, fmt.Errorf("get story tags: %w", err)
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func replaceTags(tx *sql.Tx, storyID string, tags []string) error {
	if _, err := tx.Exec("DELETE FROM story_tags WHERE story_id = ?", storyID); err != nil {
		return fmt.Errorf("clear tags: %w", err)
	}
	for i, tag := range tags {
		_, err := tx.Exec(
			"INSERT OR IGNORE INTO story_tags (story_id, tag, position) VALUES (?, ?, ?)",
			storyID, tag, i,
		)
		if err != nil {
			return fmt.Errorf("link tag %s: %w", tag, err)
		}
	}
	return nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
