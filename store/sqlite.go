package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/siteforge/harvest/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS pages (
	template_id      TEXT NOT NULL,
	path             TEXT NOT NULL,
	url              TEXT NOT NULL,
	depth            INTEGER NOT NULL,
	is_home_page     INTEGER NOT NULL,
	ord              INTEGER NOT NULL,
	html_content     TEXT NOT NULL,
	css_content      TEXT NOT NULL,
	js_content       TEXT NOT NULL,
	text_content     TEXT NOT NULL,
	content_markdown TEXT NOT NULL,
	resolved_url     TEXT NOT NULL,
	images           TEXT NOT NULL,
	structured_text  TEXT NOT NULL,
	design_tokens    TEXT NOT NULL,
	metadata         TEXT NOT NULL,
	created_at       TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (template_id, path)
);
CREATE INDEX IF NOT EXISTS idx_pages_template_order ON pages (template_id, ord);
`

// SQLiteStore persists page records in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and migrates) a SQLite store at path. ":memory:" works
// for throwaway runs.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// SavePage upserts one fully extracted record.
func (s *SQLiteStore) SavePage(ctx context.Context, templateID string, record *models.PageRecord) error {
	images, err := json.Marshal(record.Images)
	if err != nil {
		return fmt.Errorf("store: marshal images: %w", err)
	}
	text, err := json.Marshal(record.Text)
	if err != nil {
		return fmt.Errorf("store: marshal text: %w", err)
	}
	tokens, err := json.Marshal(record.Tokens)
	if err != nil {
		return fmt.Errorf("store: marshal tokens: %w", err)
	}
	metadata, err := json.Marshal(record.Metadata)
	if err != nil {
		return fmt.Errorf("store: marshal metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pages (
			template_id, path, url, depth, is_home_page, ord,
			html_content, css_content, js_content, text_content,
			content_markdown, resolved_url, images, structured_text,
			design_tokens, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (template_id, path) DO UPDATE SET
			url = excluded.url,
			depth = excluded.depth,
			is_home_page = excluded.is_home_page,
			ord = excluded.ord,
			html_content = excluded.html_content,
			css_content = excluded.css_content,
			js_content = excluded.js_content,
			text_content = excluded.text_content,
			content_markdown = excluded.content_markdown,
			resolved_url = excluded.resolved_url,
			images = excluded.images,
			structured_text = excluded.structured_text,
			design_tokens = excluded.design_tokens,
			metadata = excluded.metadata`,
		templateID, record.Path, record.URL, record.Depth,
		boolToInt(record.IsHomePage), record.Order,
		record.HTMLContent, record.CSSContent, record.JSContent,
		record.TextContent, record.ContentMarkdown, record.ResolvedURL,
		string(images), string(text), string(tokens), string(metadata),
	)
	if err != nil {
		return fmt.Errorf("store: save page %s: %w", record.Path, err)
	}
	return nil
}

// Pages returns all records for a template in discovery order.
func (s *SQLiteStore) Pages(ctx context.Context, templateID string) ([]*models.PageRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT url, path, depth, is_home_page, ord,
			html_content, css_content, js_content, text_content,
			content_markdown, resolved_url, images, structured_text,
			design_tokens, metadata
		FROM pages WHERE template_id = ? ORDER BY ord`, templateID)
	if err != nil {
		return nil, fmt.Errorf("store: query pages: %w", err)
	}
	defer rows.Close()

	var records []*models.PageRecord
	for rows.Next() {
		var rec models.PageRecord
		var isHome int
		var images, text, tokens, metadata string
		if err := rows.Scan(
			&rec.URL, &rec.Path, &rec.Depth, &isHome, &rec.Order,
			&rec.HTMLContent, &rec.CSSContent, &rec.JSContent,
			&rec.TextContent, &rec.ContentMarkdown, &rec.ResolvedURL,
			&images, &text, &tokens, &metadata,
		); err != nil {
			return nil, fmt.Errorf("store: scan page: %w", err)
		}
		rec.IsHomePage = isHome != 0
		// Stored JSON was produced by SavePage; unmarshal failures here
		// indicate corruption and surface as errors.
		if err := json.Unmarshal([]byte(images), &rec.Images); err != nil {
			return nil, fmt.Errorf("store: decode images: %w", err)
		}
		if err := json.Unmarshal([]byte(text), &rec.Text); err != nil {
			return nil, fmt.Errorf("store: decode text: %w", err)
		}
		if err := json.Unmarshal([]byte(tokens), &rec.Tokens); err != nil {
			return nil, fmt.Errorf("store: decode tokens: %w", err)
		}
		if err := json.Unmarshal([]byte(metadata), &rec.Metadata); err != nil {
			return nil, fmt.Errorf("store: decode metadata: %w", err)
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
