// Package scheduler publishes queued posts when their time arrives.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/stationd/internal/store"
)

// PublishRequest is what a Publisher receives for one post.
type PublishRequest struct {
	Title    string `json:"title"`
	Markup   string `json:"markup"`
	Platform string `json:"platform"`
}

// Publisher delivers a post to its destination and reports the public
// URL.
type Publisher interface {
	Publish(ctx context.Context, post PublishRequest) (url string, err error)
}

// Scheduler polls the store for due posts. One pass runs at startup
// (after a short delay, so the server finishes coming up first), then
// every interval.
type Scheduler struct {
	store     *store.Store
	publisher Publisher
	log       *slog.Logger

	interval     time.Duration
	startupDelay time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(st *store.Store, pub Publisher, log *slog.Logger, interval, startupDelay time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Scheduler{
		store:        st,
		publisher:    pub,
		log:          log,
		interval:     interval,
		startupDelay: startupDelay,
	}
}

// Start launches the polling goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		select {
		case <-runCtx.Done():
			return
		case <-time.After(s.startupDelay):
		}

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			s.runOnce(runCtx)
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

// Stop cancels the loop and waits for an in-flight pass to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// runOnce publishes everything currently due. Failures are recorded on
// the post and never stop the pass.
func (s *Scheduler) runOnce(ctx context.Context) {
	due, err := s.store.DuePosts(ctx, time.Now())
	if err != nil {
		s.log.Error("scheduler pass failed", "error", err)
		return
	}
	for _, post := range due {
		if ctx.Err() != nil {
			return
		}
		s.publish(ctx, post)
	}
}

func (s *Scheduler) publish(ctx context.Context, post store.ScheduledPost) {
	if err := s.store.MarkPostPublishing(ctx, post.ID); err != nil {
		s.log.Error("claim post", "post_id", post.ID, "error", err)
		return
	}

	doc, err := s.store.GetDocument(ctx, post.DocumentID)
	if err != nil || doc.Markup == "" {
		s.fail(ctx, post.ID, "Document content is empty")
		return
	}
	if s.publisher == nil {
		s.fail(ctx, post.ID, "No publisher configured")
		return
	}

	title := post.Title
	if title == "" {
		title = doc.Title
	}
	url, err := s.publisher.Publish(ctx, PublishRequest{
		Title:    title,
		Markup:   doc.Markup,
		Platform: post.Platform,
	})
	if err != nil {
		s.fail(ctx, post.ID, err.Error())
		return
	}

	if err := s.store.MarkPostPublished(ctx, post, url); err != nil {
		s.log.Error("record publish", "post_id", post.ID, "error", err)
		return
	}
	s.log.Info("post published",
		"post_id", post.ID,
		"document_id", post.DocumentID,
		"platform", post.Platform,
		"url", url)
}

func (s *Scheduler) fail(ctx context.Context, postID, reason string) {
	if err := s.store.MarkPostFailed(ctx, postID, reason); err != nil {
		s.log.Error("record failure", "post_id", postID, "error", err)
		return
	}
	s.log.Warn("post failed", "post_id", postID, "reason", reason)
}
