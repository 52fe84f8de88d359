package importer

import (
	"strings"
	"testing"

	"github.com/dgallion1/stationd/internal/doc"
	"github.com/dgallion1/stationd/internal/markup"
)

func TestFromMarkdown_BasicBlocks(t *testing.T) {
	src := []byte("# Welcome\n\nSome **bold** and *italic* text.\n\n- one\n- two\n")
	out, err := FromMarkdown(src)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	for _, want := range []string{"<h1>Welcome</h1>", "<strong>bold</strong>", "<em>italic</em>", "<li>one</li>"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
}

func TestFromMarkdown_GFMTable(t *testing.T) {
	src := []byte("| name | value |\n|------|-------|\n| a | 1 |\n")
	out, err := FromMarkdown(src)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !strings.Contains(out, "<table>") || !strings.Contains(out, "<th>name</th>") {
		t.Errorf("table not rendered: %q", out)
	}
}

// The rendered markup must round-trip through the export parser.
func TestFromMarkdown_ParsesAsDocument(t *testing.T) {
	src := []byte("# Title\n\nHello **world**\n\n```\ncode here\n```\n")
	out, err := FromMarkdown(src)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	blocks := markup.Parse(out)
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d: %#v", len(blocks), blocks)
	}
	h, ok := blocks[0].(doc.Heading)
	if !ok || h.Level != 1 || doc.PlainText(h.Children) != "Title" {
		t.Errorf("first block not the h1: %#v", blocks[0])
	}
	if _, ok := blocks[1].(doc.Paragraph); !ok {
		t.Errorf("second block not a paragraph: %#v", blocks[1])
	}
	cb, ok := blocks[2].(doc.CodeBlock)
	if !ok || !strings.Contains(cb.Text, "code here") {
		t.Errorf("third block not the code block: %#v", blocks[2])
	}
}

func TestTitle(t *testing.T) {
	if got := Title([]byte("# My Post\n\nbody\n")); got != "My Post" {
		t.Errorf("expected %q, got %q", "My Post", got)
	}
	if got := Title([]byte("intro first\n\n## Later Heading\n")); got != "Later Heading" {
		t.Errorf("expected first heading anywhere, got %q", got)
	}
	if got := Title([]byte("no headings at all\n")); got != "" {
		t.Errorf("expected empty title, got %q", got)
	}
}
