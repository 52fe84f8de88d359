package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/stationd/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "station.db"), testLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

type fakePublisher struct {
	mu    sync.Mutex
	calls []PublishRequest
	url   string
	err   error
}

func (f *fakePublisher) Publish(_ context.Context, post PublishRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, post)
	return f.url, f.err
}

func (f *fakePublisher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func scheduleDue(t *testing.T, st *store.Store, markup string) (*store.Document, *store.ScheduledPost) {
	t.Helper()
	ctx := context.Background()
	d, err := st.SaveDocument(ctx, store.SaveInput{Title: "Launch Post", Markup: markup})
	if err != nil {
		t.Fatalf("save document: %v", err)
	}
	post, err := st.SchedulePost(ctx, store.ScheduleInput{
		DocumentID:  d.ID,
		Platform:    "webhook",
		AccountID:   "main",
		ScheduledAt: time.Now().Add(-time.Minute),
	})
	if err != nil {
		t.Fatalf("schedule post: %v", err)
	}
	return d, post
}

func TestScheduler_PublishesDuePost(t *testing.T) {
	st := newTestStore(t)
	d, post := scheduleDue(t, st, "<p>body text</p>")

	pub := &fakePublisher{url: "https://example.com/p/1"}
	s := New(st, pub, testLogger(), time.Minute, 0)
	s.runOnce(context.Background())

	if pub.callCount() != 1 {
		t.Fatalf("expected 1 publish call, got %d", pub.callCount())
	}
	if got := pub.calls[0]; got.Title != "Launch Post" || got.Markup != "<p>body text</p>" {
		t.Errorf("publish request wrong: %+v", got)
	}

	ctx := context.Background()
	posts, err := st.ListScheduledPosts(ctx, store.ScheduleFilter{Status: store.PostPublished})
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(posts) != 1 || posts[0].ID != post.ID {
		t.Fatalf("post not published: %+v", posts)
	}
	if posts[0].PublishedURL != "https://example.com/p/1" {
		t.Errorf("published url %q", posts[0].PublishedURL)
	}

	doc, err := st.GetDocument(ctx, d.ID)
	if err != nil {
		t.Fatalf("reload document: %v", err)
	}
	if doc.Status != "published" {
		t.Errorf("document status %q", doc.Status)
	}
}

func TestScheduler_EmptyDocumentFails(t *testing.T) {
	st := newTestStore(t)
	_, post := scheduleDue(t, st, "")

	pub := &fakePublisher{url: "https://example.com/p/1"}
	s := New(st, pub, testLogger(), time.Minute, 0)
	s.runOnce(context.Background())

	if pub.callCount() != 0 {
		t.Errorf("publisher called for empty document")
	}
	posts, _ := st.ListScheduledPosts(context.Background(), store.ScheduleFilter{Status: store.PostFailed})
	if len(posts) != 1 || posts[0].ID != post.ID {
		t.Fatalf("post not failed: %+v", posts)
	}
	if posts[0].ErrorMessage != "Document content is empty" {
		t.Errorf("error message %q", posts[0].ErrorMessage)
	}
}

func TestScheduler_PublisherErrorRecorded(t *testing.T) {
	st := newTestStore(t)
	d, _ := scheduleDue(t, st, "<p>x</p>")

	pub := &fakePublisher{err: errors.New("remote rejected the post")}
	s := New(st, pub, testLogger(), time.Minute, 0)
	s.runOnce(context.Background())

	posts, _ := st.ListScheduledPosts(context.Background(), store.ScheduleFilter{Status: store.PostFailed})
	if len(posts) != 1 {
		t.Fatalf("expected 1 failed post, got %d", len(posts))
	}
	if posts[0].ErrorMessage != "remote rejected the post" {
		t.Errorf("error message %q", posts[0].ErrorMessage)
	}

	// The document stays scheduled; only the post records the failure.
	doc, _ := st.GetDocument(context.Background(), d.ID)
	if doc.Status != "scheduled" {
		t.Errorf("document status %q", doc.Status)
	}
}

func TestScheduler_NoPublisherConfigured(t *testing.T) {
	st := newTestStore(t)
	scheduleDue(t, st, "<p>x</p>")

	s := New(st, nil, testLogger(), time.Minute, 0)
	s.runOnce(context.Background())

	posts, _ := st.ListScheduledPosts(context.Background(), store.ScheduleFilter{Status: store.PostFailed})
	if len(posts) != 1 || posts[0].ErrorMessage != "No publisher configured" {
		t.Fatalf("expected unconfigured failure, got %+v", posts)
	}
}

func TestScheduler_FuturePostUntouched(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	d, err := st.SaveDocument(ctx, store.SaveInput{Title: "later", Markup: "<p>x</p>"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := st.SchedulePost(ctx, store.ScheduleInput{
		DocumentID: d.ID, Platform: "webhook", ScheduledAt: time.Now().Add(time.Hour),
	}); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	pub := &fakePublisher{}
	s := New(st, pub, testLogger(), time.Minute, 0)
	s.runOnce(ctx)

	if pub.callCount() != 0 {
		t.Error("future post was published early")
	}
	posts, _ := st.ListScheduledPosts(ctx, store.ScheduleFilter{})
	if len(posts) != 1 || posts[0].Status != store.PostPending {
		t.Errorf("future post changed: %+v", posts)
	}
}

func TestScheduler_StartStop(t *testing.T) {
	st := newTestStore(t)
	scheduleDue(t, st, "<p>x</p>")

	pub := &fakePublisher{url: "https://example.com/p/1"}
	s := New(st, pub, testLogger(), 10*time.Millisecond, 0)
	s.Start(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for pub.callCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	s.Stop()

	if pub.callCount() == 0 {
		t.Fatal("scheduler never published")
	}
}

func TestWebhookPublisher(t *testing.T) {
	var gotAuth, gotContentType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"url":"https://blog.example.com/hello"}`)
	}))
	defer srv.Close()

	p := NewWebhookPublisher(srv.URL, "secret-token")
	url, err := p.Publish(context.Background(), PublishRequest{
		Title: "Hello", Markup: "<p>hi</p>", Platform: "webhook",
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if url != "https://blog.example.com/hello" {
		t.Errorf("returned url %q", url)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("auth header %q", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Errorf("content type %q", gotContentType)
	}
	var sent PublishRequest
	if err := json.Unmarshal(gotBody, &sent); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if sent.Title != "Hello" || sent.Markup != "<p>hi</p>" || sent.Platform != "webhook" {
		t.Errorf("body %+v", sent)
	}
}

func TestWebhookPublisher_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewWebhookPublisher(srv.URL, "")
	_, err := p.Publish(context.Background(), PublishRequest{Platform: "webhook"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("error lacks status and body: %v", err)
	}
}
