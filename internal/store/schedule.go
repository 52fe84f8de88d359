package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Scheduled post lifecycle.
const (
	PostPending    = "pending"
	PostPublishing = "publishing"
	PostPublished  = "published"
	PostFailed     = "failed"
)

// ScheduledPost queues a document for publication on a platform.
type ScheduledPost struct {
	ID            string `json:"id"`
	DocumentID    string `json:"document_id"`
	Platform      string `json:"platform"`
	AccountID     string `json:"account_id"`
	PublicationID string `json:"publication_id,omitempty"`
	Title         string `json:"title"`
	ScheduledAt   string `json:"scheduled_at"`
	Status        string `json:"status"`
	ErrorMessage  string `json:"error_message,omitempty"`
	PublishedURL  string `json:"published_url,omitempty"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

// ScheduleInput creates a pending post.
type ScheduleInput struct {
	DocumentID    string
	Platform      string
	AccountID     string
	PublicationID string
	Title         string
	ScheduledAt   time.Time
}

// SchedulePost queues the document and flips its status to scheduled.
func (s *Store) SchedulePost(ctx context.Context, in ScheduleInput) (*ScheduledPost, error) {
	if in.DocumentID == "" || in.Platform == "" {
		return nil, errors.New("schedule needs a document id and platform")
	}

	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM documents WHERE id = ?", in.DocumentID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", in.DocumentID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("check document: %w", err)
	}

	id := uuid.NewString()
	ts := now()
	at := formatTime(in.ScheduledAt)

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO scheduled_posts
			(id, document_id, platform, account_id, publication_id, title,
			 scheduled_at, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 'pending', ?, ?)`,
		id, in.DocumentID, in.Platform, in.AccountID, nullable(in.PublicationID),
		in.Title, at, ts, ts); err != nil {
		return nil, fmt.Errorf("schedule post: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		"UPDATE documents SET status = 'scheduled', scheduled_at = ?, updated_at = ? WHERE id = ?",
		at, ts, in.DocumentID); err != nil {
		return nil, fmt.Errorf("mark document scheduled: %w", err)
	}

	s.LogActivity(ctx, "post.scheduled", "scheduled_post", id,
		fmt.Sprintf("Scheduled for %s on %s", in.Platform, at))

	return &ScheduledPost{
		ID: id, DocumentID: in.DocumentID, Platform: in.Platform,
		AccountID: in.AccountID, PublicationID: in.PublicationID, Title: in.Title,
		ScheduledAt: at, Status: PostPending, CreatedAt: ts, UpdatedAt: ts,
	}, nil
}

// ScheduleFilter narrows ListScheduledPosts. Zero values match
// everything.
type ScheduleFilter struct {
	From   time.Time
	To     time.Time
	Status string
}

// ListScheduledPosts returns posts in scheduled order, optionally
// filtered by window and status.
func (s *Store) ListScheduledPosts(ctx context.Context, f ScheduleFilter) ([]ScheduledPost, error) {
	query := `SELECT id, document_id, platform, account_id, publication_id, title,
		scheduled_at, status, error_message, published_url, created_at, updated_at
		FROM scheduled_posts`
	var conds []string
	var args []any
	if !f.From.IsZero() {
		conds = append(conds, "scheduled_at >= ?")
		args = append(args, formatTime(f.From))
	}
	if !f.To.IsZero() {
		conds = append(conds, "scheduled_at <= ?")
		args = append(args, formatTime(f.To))
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY scheduled_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list scheduled posts: %w", err)
	}
	defer rows.Close()
	return scanPosts(rows)
}

// DuePosts returns pending posts whose time has come, oldest first.
func (s *Store) DuePosts(ctx context.Context, cutoff time.Time) ([]ScheduledPost, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document_id, platform, account_id, publication_id, title,
			scheduled_at, status, error_message, published_url, created_at, updated_at
		 FROM scheduled_posts
		 WHERE scheduled_at <= ? AND status = 'pending'
		 ORDER BY scheduled_at ASC`, formatTime(cutoff))
	if err != nil {
		return nil, fmt.Errorf("query due posts: %w", err)
	}
	defer rows.Close()
	return scanPosts(rows)
}

func scanPosts(rows *sql.Rows) ([]ScheduledPost, error) {
	var posts []ScheduledPost
	for rows.Next() {
		var p ScheduledPost
		var publicationID, errorMessage, publishedURL sql.NullString
		if err := rows.Scan(&p.ID, &p.DocumentID, &p.Platform, &p.AccountID,
			&publicationID, &p.Title, &p.ScheduledAt, &p.Status,
			&errorMessage, &publishedURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan scheduled post: %w", err)
		}
		p.PublicationID = publicationID.String
		p.ErrorMessage = errorMessage.String
		p.PublishedURL = publishedURL.String
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// MarkPostPublishing claims the post for an in-flight publish attempt.
func (s *Store) MarkPostPublishing(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE scheduled_posts SET status = 'publishing', updated_at = ? WHERE id = ?",
		now(), id)
	if err != nil {
		return fmt.Errorf("mark publishing: %w", err)
	}
	return nil
}

// MarkPostPublished records the outcome and flips the document to
// published.
func (s *Store) MarkPostPublished(ctx context.Context, post ScheduledPost, publishedURL string) error {
	ts := now()
	if _, err := s.db.ExecContext(ctx,
		"UPDATE scheduled_posts SET status = 'published', published_url = ?, updated_at = ? WHERE id = ?",
		publishedURL, ts, post.ID); err != nil {
		return fmt.Errorf("mark published: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		"UPDATE documents SET status = 'published', published_at = ?, updated_at = ? WHERE id = ?",
		ts, ts, post.DocumentID); err != nil {
		return fmt.Errorf("mark document published: %w", err)
	}
	s.LogActivity(ctx, "post.published", "scheduled_post", post.ID,
		fmt.Sprintf("Published to %s via scheduler", post.Platform))
	return nil
}

// MarkPostFailed records a publish failure.
func (s *Store) MarkPostFailed(ctx context.Context, id, message string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE scheduled_posts SET status = 'failed', error_message = ?, updated_at = ? WHERE id = ?",
		message, now(), id)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return nil
}

// CancelScheduledPost deletes the post and, if the document was only
// scheduled, returns it to draft.
func (s *Store) CancelScheduledPost(ctx context.Context, id string) error {
	var documentID sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT document_id FROM scheduled_posts WHERE id = ?", id).Scan(&documentID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("scheduled post %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("load scheduled post: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM scheduled_posts WHERE id = ?", id); err != nil {
		return fmt.Errorf("cancel post: %w", err)
	}
	if documentID.Valid {
		if _, err := s.db.ExecContext(ctx,
			`UPDATE documents SET status = 'draft', scheduled_at = NULL, updated_at = ?
			 WHERE id = ? AND status = 'scheduled'`, now(), documentID.String); err != nil {
			return fmt.Errorf("reset document status: %w", err)
		}
	}
	return nil
}

// ReschedulePost moves the post to a new time and resets it to pending,
// clearing any previous failure.
func (s *Store) ReschedulePost(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE scheduled_posts
		 SET scheduled_at = ?, status = 'pending', error_message = NULL, updated_at = ?
		 WHERE id = ?`, formatTime(at), now(), id)
	if err != nil {
		return fmt.Errorf("reschedule post: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("scheduled post %s: %w", id, ErrNotFound)
	}
	return nil
}
