package genai

import (
	"strings"
	"testing"

	"github.com/goliatone/go-prompt-cache/pkg/testsupport"
)

func TestParseSuggestions_PlainLines(t *testing.T) {
	content := "Summarize my inbox\nPlan my week\nReview open pull requests"
	got := ParseSuggestions(content, 5)

	if len(got) != 3 {
		t.Fatalf("expected 3 suggestions, got %d", len(got))
	}
	if got[0].Text != "Summarize my inbox" {
		t.Errorf("unexpected first suggestion %q", got[0].Text)
	}
}

func TestParseSuggestions_StripsListMarkers(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"dash", "- Summarize my inbox", "Summarize my inbox"},
		{"asterisk", "* Summarize my inbox", "Summarize my inbox"},
		{"bullet", "• Summarize my inbox", "Summarize my inbox"},
		{"ordinal dot", "1. Summarize my inbox", "Summarize my inbox"},
		{"ordinal paren", "2) Summarize my inbox", "Summarize my inbox"},
		{"double digit ordinal", "10. Summarize my inbox", "Summarize my inbox"},
		{"no marker", "Summarize my inbox", "Summarize my inbox"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseSuggestions(tt.content, 1)
			if len(got) != 1 {
				t.Fatalf("expected 1 suggestion, got %d", len(got))
			}
			if got[0].Text != tt.want {
				t.Errorf("got %q, want %q", got[0].Text, tt.want)
			}
		})
	}
}

func TestParseSuggestions_SkipsBlankLines(t *testing.T) {
	content := "First suggestion\n\n   \nSecond suggestion\n"
	got := ParseSuggestions(content, 5)

	if len(got) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(got))
	}
}

func TestParseSuggestions_RespectsMax(t *testing.T) {
	content := "one\ntwo\nthree\nfour\nfive\nsix\nseven"
	got := ParseSuggestions(content, 3)

	if len(got) != 3 {
		t.Fatalf("expected max to cap the result, got %d", len(got))
	}
}

func TestParseSuggestions_EmptyContent(t *testing.T) {
	if got := ParseSuggestions("", 5); len(got) != 0 {
		t.Errorf("expected no suggestions, got %+v", got)
	}
	if got := ParseSuggestions("\n\n  \n", 5); len(got) != 0 {
		t.Errorf("expected no suggestions for whitespace, got %+v", got)
	}
}

func TestParseSuggestions_NumberOnlyLineIsKept(t *testing.T) {
	// A bare number has no marker suffix, so it is taken verbatim.
	got := ParseSuggestions("42", 5)
	if len(got) != 1 || got[0].Text != "42" {
		t.Errorf("unexpected result %+v", got)
	}
}

func TestParseSuggestions_BulletedFixture(t *testing.T) {
	content := string(testsupport.LoadFixture(t, testsupport.FixturePath("completion_bulleted.txt")))
	got := ParseSuggestions(content, 5)

	if len(got) != 5 {
		t.Fatalf("expected 5 suggestions, got %d", len(got))
	}
	for _, s := range got {
		if strings.HasPrefix(s.Text, "-") || s.Text != strings.TrimSpace(s.Text) {
			t.Errorf("marker not stripped from %q", s.Text)
		}
	}
	if got[0].Text != "Summarize my unread email threads" {
		t.Errorf("unexpected first suggestion %q", got[0].Text)
	}
}
