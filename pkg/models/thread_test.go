package models

import (
	"testing"
)

func TestComment_AuthorLogin(t *testing.T) {
	tests := []struct {
		name     string
		comment  Comment
		expected string
	}{
		{"known author", Comment{Author: &Actor{Login: "bob"}}, "bob"},
		{"deleted account", Comment{Author: nil}, GhostLogin},
		{"empty login", Comment{Author: &Actor{}}, GhostLogin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.comment.AuthorLogin(); got != tt.expected {
				t.Errorf("Expected login '%s', got '%s'", tt.expected, got)
			}
		})
	}
}

func TestRepositoryThreads_All(t *testing.T) {
	threads := &RepositoryThreads{
		Issues:       []Thread{{Title: "issue 1"}, {Title: "issue 2"}},
		PullRequests: []Thread{{Title: "pr 1"}},
	}

	all := threads.All()
	expected := []string{"issue 1", "issue 2", "pr 1"}
	if len(all) != len(expected) {
		t.Fatalf("Expected %d threads, got %d", len(expected), len(all))
	}
	for i, title := range expected {
		if all[i].Title != title {
			t.Errorf("Expected thread %d to be '%s', got '%s'", i, title, all[i].Title)
		}
	}
}

func TestDigest_Text(t *testing.T) {
	d := &Digest{
		Owner: "acme",
		Name:  "widgets",
		Lines: []AlertLine{
			{AgeInDays: 10, Text: "first"},
			{AgeInDays: 2, Text: "second"},
		},
	}

	expected := "<b>🚨 List of unanswered issues for acme/widgets</b>\n\nfirst\nsecond"
	if got := d.Text(); got != expected {
		t.Errorf("Expected digest text %q, got %q", expected, got)
	}
}

func TestDigest_TextSingleLine(t *testing.T) {
	d := &Digest{Owner: "o", Name: "n", Lines: []AlertLine{{AgeInDays: 1, Text: "only"}}}

	expected := "<b>🚨 List of unanswered issues for o/n</b>\n\nonly"
	if got := d.Text(); got != expected {
		t.Errorf("Expected digest text %q, got %q", expected, got)
	}
}
