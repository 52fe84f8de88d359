package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dgallion1/stationd/internal/markup"
)

// versionHistoryLimit caps how many snapshots are kept per document.
const versionHistoryLimit = 50

// Document is a stored editor document. Content is the editor's native
// serialization, Markup the rendered rich-text form that exports and
// publishing consume.
type Document struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Content        string `json:"content"`
	Markup         string `json:"markup"`
	ProjectID      string `json:"project_id,omitempty"`
	Status         string `json:"status"`
	ScheduledAt    string `json:"scheduled_at,omitempty"`
	PublishedAt    string `json:"published_at,omitempty"`
	WordCount      int    `json:"word_count"`
	CharacterCount int    `json:"character_count"`
	Version        int    `json:"version"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// DocumentMeta is the listing shape: everything except the two bodies.
type DocumentMeta struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	ProjectID      string `json:"project_id,omitempty"`
	Status         string `json:"status"`
	WordCount      int    `json:"word_count"`
	CharacterCount int    `json:"character_count"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// SaveInput carries a document write. An empty ID means a new document.
type SaveInput struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Markup  string `json:"markup"`
}

// SaveDocument performs a full save: word counts are recomputed, the
// version is bumped and a history snapshot is written. created_at,
// project_id and status survive overwrites.
func (s *Store) SaveDocument(ctx context.Context, in SaveInput) (*Document, error) {
	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}
	ts := now()
	words := markup.WordCount(in.Markup)
	chars := markup.CharCount(in.Markup)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	var version int
	err = tx.QueryRowContext(ctx, "SELECT version FROM documents WHERE id = ?", id).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("read version: %w", err)
	}
	version++

	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO documents
			(id, title, content, html_content, project_id, status,
			 word_count, character_count, version, created_at, updated_at)
		 VALUES (?1, ?2, ?3, ?4,
			(SELECT project_id FROM documents WHERE id = ?1),
			COALESCE((SELECT status FROM documents WHERE id = ?1), 'draft'),
			?5, ?6, ?7,
			COALESCE((SELECT created_at FROM documents WHERE id = ?1), ?8),
			?8)`,
		id, in.Title, in.Content, in.Markup, words, chars, version, ts)
	if err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO document_versions (document_id, title, content, html_content, version, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, in.Title, in.Content, in.Markup, version, ts); err != nil {
		return nil, fmt.Errorf("snapshot version: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM document_versions
		 WHERE document_id = ?1 AND id NOT IN (
			SELECT id FROM document_versions WHERE document_id = ?1
			ORDER BY version DESC LIMIT ?2)`,
		id, versionHistoryLimit); err != nil {
		return nil, fmt.Errorf("prune versions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit save: %w", err)
	}

	s.LogActivity(ctx, "document.saved", "document", id, "")
	return s.GetDocument(ctx, id)
}

// AutoSave overwrites the document without bumping the version or
// writing history. Used by the editor's periodic background saves.
func (s *Store) AutoSave(ctx context.Context, in SaveInput) error {
	if in.ID == "" {
		return errors.New("auto-save needs a document id")
	}
	ts := now()
	words := markup.WordCount(in.Markup)
	chars := markup.CharCount(in.Markup)

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO documents
			(id, title, content, html_content, project_id, status,
			 word_count, character_count, version, created_at, updated_at)
		 VALUES (?1, ?2, ?3, ?4,
			(SELECT project_id FROM documents WHERE id = ?1),
			COALESCE((SELECT status FROM documents WHERE id = ?1), 'draft'),
			?5, ?6,
			COALESCE((SELECT version FROM documents WHERE id = ?1), 1),
			COALESCE((SELECT created_at FROM documents WHERE id = ?1), ?7),
			?7)`,
		in.ID, in.Title, in.Content, in.Markup, words, chars, ts)
	if err != nil {
		return fmt.Errorf("auto-save document: %w", err)
	}
	return nil
}

// GetDocument loads a full document by id.
func (s *Store) GetDocument(ctx context.Context, id string) (*Document, error) {
	var d Document
	var projectID, scheduledAt, publishedAt sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, content, html_content, project_id, status, scheduled_at,
			published_at, word_count, character_count, version, created_at, updated_at
		 FROM documents WHERE id = ?`, id).Scan(
		&d.ID, &d.Title, &d.Content, &d.Markup, &projectID, &d.Status, &scheduledAt,
		&publishedAt, &d.WordCount, &d.CharacterCount, &d.Version, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	d.ProjectID = projectID.String
	d.ScheduledAt = scheduledAt.String
	d.PublishedAt = publishedAt.String
	return &d, nil
}

// ListDocuments returns metadata for every document, newest update
// first.
func (s *Store) ListDocuments(ctx context.Context) ([]DocumentMeta, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, project_id, status, word_count, character_count, created_at, updated_at
		 FROM documents ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []DocumentMeta
	for rows.Next() {
		var m DocumentMeta
		var projectID sql.NullString
		if err := rows.Scan(&m.ID, &m.Title, &projectID, &m.Status, &m.WordCount,
			&m.CharacterCount, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		m.ProjectID = projectID.String
		docs = append(docs, m)
	}
	return docs, rows.Err()
}

// DeleteDocument removes the document along with its versions, tags and
// scheduled posts.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		"DELETE FROM document_versions WHERE document_id = ?",
		"DELETE FROM document_tags WHERE document_id = ?",
		"DELETE FROM scheduled_posts WHERE document_id = ?",
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("delete document children: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}

	s.LogActivity(ctx, "document.deleted", "document", id, "")
	return nil
}

// SetDocumentStatus updates the workflow status (draft, scheduled,
// published).
func (s *Store) SetDocumentStatus(ctx context.Context, id, status string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE documents SET status = ?, updated_at = ? WHERE id = ?", status, now(), id)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	return nil
}

// MoveDocumentToProject assigns the document to a project; an empty
// projectID detaches it.
func (s *Store) MoveDocumentToProject(ctx context.Context, id, projectID string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE documents SET project_id = ?, updated_at = ? WHERE id = ?",
		nullable(projectID), now(), id)
	if err != nil {
		return fmt.Errorf("move document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	return nil
}

// AddDocumentTags attaches tags, ignoring ones already present.
func (s *Store) AddDocumentTags(ctx context.Context, id string, tags []string) error {
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx,
			"INSERT OR IGNORE INTO document_tags (document_id, tag) VALUES (?, ?)", id, tag); err != nil {
			return fmt.Errorf("add tag: %w", err)
		}
	}
	return nil
}

// RemoveDocumentTag detaches one tag.
func (s *Store) RemoveDocumentTag(ctx context.Context, id, tag string) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM document_tags WHERE document_id = ? AND tag = ?", id, tag); err != nil {
		return fmt.Errorf("remove tag: %w", err)
	}
	return nil
}

// DocumentTags lists a document's tags in lexical order.
func (s *Store) DocumentTags(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT tag FROM document_tags WHERE document_id = ? ORDER BY tag", id)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// VersionMeta describes one history snapshot. The word count is
// computed from the snapshot body at query time.
type VersionMeta struct {
	ID         int64  `json:"id"`
	DocumentID string `json:"document_id"`
	Title      string `json:"title"`
	Version    int    `json:"version"`
	WordCount  int    `json:"word_count"`
	CreatedAt  string `json:"created_at"`
}

// ListVersions returns a document's history, newest version first.
func (s *Store) ListVersions(ctx context.Context, documentID string) ([]VersionMeta, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document_id, title, version, created_at, html_content
		 FROM document_versions WHERE document_id = ? ORDER BY version DESC`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var versions []VersionMeta
	for rows.Next() {
		var v VersionMeta
		var body string
		if err := rows.Scan(&v.ID, &v.DocumentID, &v.Title, &v.Version, &v.CreatedAt, &body); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		v.WordCount = markup.WordCount(body)
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// RestoreVersion copies a snapshot back onto the document under a fresh
// version number, so the restore itself is undoable.
func (s *Store) RestoreVersion(ctx context.Context, documentID string, version int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin restore: %w", err)
	}
	defer tx.Rollback()

	var title, content, body string
	err = tx.QueryRowContext(ctx,
		`SELECT title, content, html_content FROM document_versions
		 WHERE document_id = ? AND version = ?`, documentID, version).
		Scan(&title, &content, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("version %d of document %s: %w", version, documentID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("load version: %w", err)
	}

	var next int
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version), 0) + 1 FROM document_versions WHERE document_id = ?",
		documentID).Scan(&next); err != nil {
		return fmt.Errorf("next version: %w", err)
	}

	ts := now()
	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET title = ?, content = ?, html_content = ?, word_count = ?,
			character_count = ?, version = ?, updated_at = ? WHERE id = ?`,
		title, content, body, markup.WordCount(body), markup.CharCount(body),
		next, ts, documentID); err != nil {
		return fmt.Errorf("restore document: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO document_versions (document_id, title, content, html_content, version, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		documentID, title, content, body, next, ts); err != nil {
		return fmt.Errorf("snapshot restore: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit restore: %w", err)
	}

	s.LogActivity(ctx, "document.restored", "document", documentID,
		fmt.Sprintf("Restored to version %d", version))
	return nil
}
