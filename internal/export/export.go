package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/stationd/internal/doc"
	"github.com/dgallion1/stationd/internal/markup"
)

// Format selects the output document type.
type Format string

const (
	FormatDOCX Format = "docx"
	FormatPDF  Format = "pdf"
)

// ParseFormat maps a request string onto a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "docx":
		return FormatDOCX, nil
	case "pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("unknown export format: %q", s)
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// Ext returns the filename extension, dot included.
func (f Format) Ext() string {
	return "." + string(f)
}

// Exporter renders documents on a bounded set of goroutines so CPU-bound
// layout work never stalls request handling.
type Exporter struct {
	log *slog.Logger
	sem chan struct{}
}

// New creates an Exporter allowing up to maxConcurrent simultaneous
// renders.
func New(log *slog.Logger, maxConcurrent int) *Exporter {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Exporter{
		log: log,
		sem: make(chan struct{}, maxConcurrent),
	}
}

// Export renders (title, content) to the requested format off the calling
// goroutine. The render itself is not cancellable: when ctx ends first the
// caller gets the context error and the finished buffer is discarded.
func (e *Exporter) Export(ctx context.Context, format Format, title, content string) ([]byte, error) {
	start := time.Now()
	data, err := e.do(ctx, func() ([]byte, error) {
		return Build(format, title, content)
	})
	if err != nil {
		return nil, err
	}
	e.log.Info("export complete",
		"format", string(format),
		"bytes", len(data),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return data, nil
}

// do runs build on its own goroutine under the render cap. A panic inside
// build surfaces as an error distinct from build failures.
func (e *Exporter) do(ctx context.Context, build func() ([]byte, error)) ([]byte, error) {
	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for export slot: %w", ctx.Err())
	}

	type result struct {
		data []byte
		err  error
	}
	ch := make(chan result, 1)

	go func() {
		defer func() { <-e.sem }()
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: fmt.Errorf("export task panicked: %v", r)}
			}
		}()
		data, err := build()
		ch <- result{data: data, err: err}
	}()

	select {
	case r := <-ch:
		return r.data, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("export abandoned: %w", ctx.Err())
	}
}

// Build renders synchronously on the calling goroutine. Output is a pure
// function of (title, content); repeated calls yield equivalent buffers.
func Build(format Format, title, content string) ([]byte, error) {
	blocks := markup.Parse(content)
	switch format {
	case FormatDOCX:
		return BuildDOCX(title, blocks)
	case FormatPDF:
		return BuildPDF(title, blocks)
	}
	return nil, fmt.Errorf("unknown export format: %q", format)
}

// splitLines splits code text into source lines: a trailing newline adds
// no empty final line, and \r\n is treated as \n.
func splitLines(s string) []string {
	lines := strings.Split(s, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// firstStyle returns the style flags of the first non-empty run; every
// line of a wrapped block is drawn with these, not per-run styling.
func firstStyle(runs []doc.Run) (bold, italic, code bool) {
	for _, r := range runs {
		if r.Text != "" {
			return r.Bold, r.Italic, r.Code
		}
	}
	return false, false, false
}
