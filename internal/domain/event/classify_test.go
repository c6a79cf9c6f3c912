package event

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestClassifyIssue(t *testing.T) {
	payload := []byte(`{
		"action": "opened",
		"issue": {"title": "Crash on start", "body": "stack trace here", "html_url": "https://example.com/i/1"},
		"sender": {"login": "octocat"}
	}`)

	c := Classify("issues", payload)
	if c.Title != "Crash on start" {
		t.Fatalf("title = %q", c.Title)
	}
	if c.Description != "stack trace here" {
		t.Fatalf("description = %q", c.Description)
	}
	if c.URL != "https://example.com/i/1" {
		t.Fatalf("url = %q", c.URL)
	}
	if c.Actor != "octocat" {
		t.Fatalf("actor = %q", c.Actor)
	}
}

func TestClassifyIssueTruncatesDescription(t *testing.T) {
	body := strings.Repeat("x", 1200)
	raw, _ := json.Marshal(map[string]any{
		"issue":  map[string]any{"title": "t", "body": body, "html_url": "u"},
		"sender": map[string]any{"login": "a"},
	})

	c := Classify("issues", raw)
	if len(c.Description) != MaxDescriptionLength {
		t.Fatalf("description length = %d, want %d", len(c.Description), MaxDescriptionLength)
	}
	if c.Description != body[:MaxDescriptionLength] {
		t.Fatal("description is not a prefix of the body")
	}
}

func TestClassifyIssueWithoutTitleKeepsProjection(t *testing.T) {
	payload := []byte(`{
		"issue": {"body": "details", "html_url": "https://example.com/i/2"},
		"sender": {"login": "octocat"}
	}`)

	c := Classify("issues", payload)
	if c.Title != "issues event" {
		t.Fatalf("title = %q", c.Title)
	}
	if c.Description != "details" {
		t.Fatalf("description = %q, want body preserved", c.Description)
	}
	if c.URL != "https://example.com/i/2" {
		t.Fatalf("url = %q, want url preserved", c.URL)
	}
	if c.Actor != "octocat" {
		t.Fatalf("actor = %q", c.Actor)
	}
}

func TestClassifyPullRequestWithoutTitleKeepsProjection(t *testing.T) {
	payload := []byte(`{
		"pull_request": {"body": "why", "html_url": "https://example.com/pr/3"},
		"sender": {"login": "dev"}
	}`)

	c := Classify("pull_request", payload)
	if c.Title != "pull_request event" || c.Description != "why" || c.URL != "https://example.com/pr/3" {
		t.Fatalf("unexpected classification: %+v", c)
	}
}

func TestClassifyPullRequest(t *testing.T) {
	payload := []byte(`{
		"pull_request": {"title": "Add feature", "body": "details", "html_url": "https://example.com/pr/2"},
		"sender": {"login": "dev"}
	}`)

	c := Classify("pull_request", payload)
	if c.Title != "Add feature" || c.URL != "https://example.com/pr/2" || c.Actor != "dev" {
		t.Fatalf("unexpected classification: %+v", c)
	}
}

func TestClassifyPush(t *testing.T) {
	payload := []byte(`{
		"ref": "refs/heads/main",
		"compare": "https://example.com/compare/a...b",
		"commits": [{"message": "fix build"}, {"message": "cleanup"}],
		"pusher": {"name": "dev"}
	}`)

	c := Classify("push", payload)
	if c.Title != "Push to refs/heads/main" {
		t.Fatalf("title = %q", c.Title)
	}
	if c.Description != "fix build" {
		t.Fatalf("description = %q", c.Description)
	}
	if c.URL != "https://example.com/compare/a...b" {
		t.Fatalf("url = %q", c.URL)
	}
	if c.Actor != "dev" {
		t.Fatalf("actor = %q", c.Actor)
	}
}

func TestClassifyPushWithoutCommits(t *testing.T) {
	payload := []byte(`{"ref": "refs/tags/v1", "compare": "c", "sender": {"login": "dev"}}`)

	c := Classify("push", payload)
	if c.Description != "" {
		t.Fatalf("description = %q, want empty", c.Description)
	}
}

func TestClassifyUnknownTypeFallback(t *testing.T) {
	c := Classify("deployment_status", []byte(`{"sender": {"login": "bot"}}`))
	if c.Title != "deployment_status event" {
		t.Fatalf("title = %q", c.Title)
	}
	if c.Description != "" || c.URL != "" {
		t.Fatalf("expected empty description and url, got %+v", c)
	}
	if c.Actor != "bot" {
		t.Fatalf("actor = %q", c.Actor)
	}
}

func TestClassifyMissingSender(t *testing.T) {
	c := Classify("watch", []byte(`{}`))
	if c.Actor != "unknown" {
		t.Fatalf("actor = %q, want unknown", c.Actor)
	}
}

func TestTruncateMultibyte(t *testing.T) {
	s := strings.Repeat("é", 600)
	got := Truncate(s, MaxDescriptionLength)
	if got != strings.Repeat("é", MaxDescriptionLength) {
		t.Fatal("rune truncation broke multibyte content")
	}
}
