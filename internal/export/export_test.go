package export

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestParseFormat(t *testing.T) {
	cases := []struct {
		in   string
		want Format
		ok   bool
	}{
		{"docx", FormatDOCX, true},
		{"DOCX", FormatDOCX, true},
		{"pdf", FormatPDF, true},
		{"Pdf", FormatPDF, true},
		{"odt", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseFormat(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Errorf("ParseFormat(%q): expected %q, got %q err=%v", tc.in, tc.want, got, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("ParseFormat(%q): expected error", tc.in)
		}
	}
}

func TestFormatContentType(t *testing.T) {
	if got := FormatDOCX.ContentType(); !strings.Contains(got, "wordprocessingml") {
		t.Errorf("docx content type: %q", got)
	}
	if got := FormatPDF.ContentType(); got != "application/pdf" {
		t.Errorf("pdf content type: %q", got)
	}
	if FormatDOCX.Ext() != ".docx" || FormatPDF.Ext() != ".pdf" {
		t.Error("unexpected extensions")
	}
}

func TestBuild_BothFormatsProduceOutput(t *testing.T) {
	const markup = "<h1>Title</h1><p>Hello <strong>world</strong></p>"
	for _, f := range []Format{FormatDOCX, FormatPDF} {
		data, err := Build(f, "Report", markup)
		if err != nil {
			t.Fatalf("%s: %v", f, err)
		}
		if len(data) == 0 {
			t.Errorf("%s: empty buffer", f)
		}
	}
}

func TestBuild_EmptyMarkupStillProducesDocument(t *testing.T) {
	for _, f := range []Format{FormatDOCX, FormatPDF} {
		data, err := Build(f, "Only A Title", "")
		if err != nil {
			t.Fatalf("%s: %v", f, err)
		}
		if len(data) == 0 {
			t.Errorf("%s: empty buffer", f)
		}
	}
}

func TestBuild_UnknownFormat(t *testing.T) {
	if _, err := Build(Format("rtf"), "t", "<p>x</p>"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestBuild_Deterministic(t *testing.T) {
	const markup = "<h2>Again</h2><p>same input, same bytes</p>"
	a, err := Build(FormatPDF, "Det", markup)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Build(FormatPDF, "Det", markup)
	if err != nil {
		t.Fatal(err)
	}
	// PDF embeds a creation timestamp; compare sizes as a cheap proxy.
	if len(a) != len(b) {
		t.Errorf("expected equal output sizes, got %d and %d", len(a), len(b))
	}

	c, err := Build(FormatDOCX, "Det", markup)
	if err != nil {
		t.Fatal(err)
	}
	d, err := Build(FormatDOCX, "Det", markup)
	if err != nil {
		t.Fatal(err)
	}
	if len(c) != len(d) {
		t.Errorf("expected equal docx sizes, got %d and %d", len(c), len(d))
	}
}

func TestExporter_Export(t *testing.T) {
	e := New(testLogger(), 2)
	data, err := e.Export(context.Background(), FormatDOCX, "Doc", "<p>body</p>")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	// A DOCX package is a zip archive.
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Error("expected zip magic in docx output")
	}
}

func TestExporter_PanicSurfacesAsError(t *testing.T) {
	e := New(testLogger(), 1)
	_, err := e.do(context.Background(), func() ([]byte, error) {
		panic("boom")
	})
	if err == nil {
		t.Fatal("expected error from panicking build")
	}
	if !strings.Contains(err.Error(), "panicked") {
		t.Errorf("expected panic to be named, got %v", err)
	}
}

func TestExporter_BuildErrorPassedThrough(t *testing.T) {
	e := New(testLogger(), 1)
	want := errors.New("broken")
	_, err := e.do(context.Background(), func() ([]byte, error) {
		return nil, want
	})
	if !errors.Is(err, want) {
		t.Errorf("expected build error, got %v", err)
	}
}

func TestExporter_AbandonedCallerGetsContextError(t *testing.T) {
	e := New(testLogger(), 1)
	ctx, cancel := context.WithCancel(context.Background())

	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := e.do(ctx, func() ([]byte, error) {
			<-release
			return []byte("late"), nil
		})
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("abandoned export did not return")
	}
	// The render keeps running to completion; let it finish.
	close(release)
}

func TestExporter_QueueWaitRespectsContext(t *testing.T) {
	e := New(testLogger(), 1)

	// Occupy the only slot.
	block := make(chan struct{})
	go e.do(context.Background(), func() ([]byte, error) {
		<-block
		return nil, nil
	})

	// Give the first render time to take the slot.
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := e.do(ctx, func() ([]byte, error) { return nil, nil })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error while queued, got %v", err)
	}
	close(block)
}

func TestSplitLines(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"a\nb", []string{"a", "b"}},
		{"a\nb\n", []string{"a", "b"}},
		{"a\r\nb\r\n", []string{"a", "b"}},
		{"", nil},
	}
	for _, tc := range cases {
		got := splitLines(tc.in)
		if len(got) != len(tc.want) {
			t.Errorf("splitLines(%q): expected %v, got %v", tc.in, tc.want, got)
			continue
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("splitLines(%q)[%d]: expected %q, got %q", tc.in, i, tc.want[i], got[i])
			}
		}
	}
}
