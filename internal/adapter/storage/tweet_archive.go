// internal/adapter/storage/tweet_archive.go

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"tweetscope/internal/domain/tweet"
)

// TweetArchive keeps every pulled tweet in a SQLite database, one row per tweet id
type TweetArchive struct {
	db *sql.DB
}

// NewTweetArchive opens (or creates) the archive at dbPath
func NewTweetArchive(dbPath string) (*TweetArchive, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	a := &TweetArchive{db: db}
	if err := a.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate archive: %w", err)
	}

	return a, nil
}

func (a *TweetArchive) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tweets (
		id TEXT PRIMARY KEY,
		author_id TEXT NOT NULL,
		author_handle TEXT NOT NULL,
		created_at INTEGER,
		lang TEXT,
		source TEXT,
		is_retweet BOOLEAN,
		is_quote BOOLEAN,
		raw TEXT NOT NULL,
		archived_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tweets_author ON tweets(author_handle, created_at);
	`

	_, err := a.db.Exec(schema)
	return err
}

// Record upserts one tweet
func (a *TweetArchive) Record(ctx context.Context, t tweet.Tweet) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("error marshaling tweet %s: %w", t.ID, err)
	}

	_, err = a.db.ExecContext(ctx, `
		INSERT INTO tweets (id, author_id, author_handle, created_at, lang, source,
			is_retweet, is_quote, raw, archived_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			lang = excluded.lang,
			source = excluded.source,
			raw = excluded.raw,
			archived_at = excluded.archived_at
	`, t.ID, t.Author.ID.String(), t.Author.Handle, t.CreatedAt.Unix(), t.Lang, t.Source,
		t.IsRetweet(), t.IsQuote, string(raw), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("error archiving tweet %s: %w", t.ID, err)
	}

	return nil
}

// Count returns the number of archived tweets of a handle
func (a *TweetArchive) Count(ctx context.Context, handle string) (int, error) {
	var n int
	err := a.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tweets WHERE author_handle = ? COLLATE NOCASE`, handle).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("error counting tweets: %w", err)
	}
	return n, nil
}

// Recent returns up to limit archived tweets of a handle, newest first
func (a *TweetArchive) Recent(ctx context.Context, handle string, limit int) ([]tweet.Tweet, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT raw FROM tweets
		WHERE author_handle = ? COLLATE NOCASE
		ORDER BY created_at DESC
		LIMIT ?
	`, handle, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying tweets: %w", err)
	}
	defer rows.Close()

	var tweets []tweet.Tweet
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("error scanning tweet: %w", err)
		}
		var t tweet.Tweet
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			return nil, fmt.Errorf("error unmarshaling tweet: %w", err)
		}
		tweets = append(tweets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tweets: %w", err)
	}

	return tweets, nil
}

// Close closes the database
func (a *TweetArchive) Close() error {
	return a.db.Close()
}
