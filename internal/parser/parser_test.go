package parser

import (
	"strings"
	"testing"
)

func TestParseDescriptor_Valid(t *testing.T) {
	line := "tg://proxy?server=1.2.3.4&port=443&secret=ee12ab"
	rec, ok := ParseDescriptor(line)
	if !ok {
		t.Fatalf("expected valid parse, got rejection")
	}
	if rec.Server != "1.2.3.4" || rec.Port != 443 || rec.Secret != "ee12ab" {
		t.Fatalf("bad parse: %#v", rec)
	}
	if rec.Raw != line {
		t.Fatalf("raw descriptor not preserved: %q", rec.Raw)
	}
}

func TestParseDescriptor_TrimsWhitespace(t *testing.T) {
	rec, ok := ParseDescriptor("  https://t.me/proxy?server=host.example&port=8080&secret=abc  \n")
	if !ok {
		t.Fatalf("expected valid parse")
	}
	if rec.Server != "host.example" || rec.Port != 8080 {
		t.Fatalf("bad parse: %#v", rec)
	}
	if strings.HasPrefix(rec.Raw, " ") || strings.HasSuffix(rec.Raw, " ") {
		t.Fatalf("raw should be trimmed: %q", rec.Raw)
	}
}

func TestParseDescriptor_ExtraParamsIgnored(t *testing.T) {
	rec, ok := ParseDescriptor("p://x?server=1.2.3.4&port=443&secret=abc&foo=bar")
	if !ok {
		t.Fatalf("expected valid parse")
	}
	if rec.Secret != "abc" {
		t.Fatalf("bad secret: %q", rec.Secret)
	}
}

func TestParseDescriptor_Idempotent(t *testing.T) {
	first, ok := ParseDescriptor("p://x?server=1.2.3.4&port=443&secret=abc")
	if !ok {
		t.Fatalf("first parse failed")
	}
	second, ok := ParseDescriptor(first.Raw)
	if !ok {
		t.Fatalf("reparse of preserved descriptor failed")
	}
	if first != second {
		t.Fatalf("parse not idempotent: %#v vs %#v", first, second)
	}
}

func TestParseDescriptor_Rejects(t *testing.T) {
	cases := []struct {
		name string
		line string
	}{
		{"empty", ""},
		{"whitespace", "   \t "},
		{"missing server", "p://x?port=443&secret=abc"},
		{"missing port", "p://x?server=1.2.3.4&secret=abc"},
		{"missing secret", "p://x?server=1.2.3.4&port=443"},
		{"non-integer port", "p://x?server=1.2.3.4&port=https&secret=abc"},
		{"port zero", "p://x?server=1.2.3.4&port=0&secret=abc"},
		{"port too large", "p://x?server=1.2.3.4&port=70000&secret=abc"},
		{"almost nothing", "p://x?server=bad"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if rec, ok := ParseDescriptor(tc.line); ok {
				t.Fatalf("expected rejection, got %#v", rec)
			}
		})
	}
}

func TestFromReader_DedupAndDrop(t *testing.T) {
	input := strings.Join([]string{
		"p://x?server=1.2.3.4&port=443&secret=abc",
		"p://x?server=bad",
		"p://x?server=1.2.3.4&port=443&secret=abc", // duplicate line
		"",
		"p://x?server=5.6.7.8&port=1080&secret=def",
	}, "\n")

	records, err := FromReader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("want 2 records, got %d: %#v", len(records), records)
	}
	if records[0].Server != "1.2.3.4" || records[1].Server != "5.6.7.8" {
		t.Fatalf("unexpected records: %#v", records)
	}
}

func TestFromReader_AllInvalid(t *testing.T) {
	records, err := FromReader(strings.NewReader("junk\nmore junk\n"))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("want no records, got %#v", records)
	}
}
