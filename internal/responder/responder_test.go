package responder

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"hooksink/internal/domain/event"
)

type recordedCall struct {
	path string
	body map[string]any
}

type fakeProvider struct {
	mu     sync.Mutex
	calls  []recordedCall
	status int
}

func (f *fakeProvider) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)

		f.mu.Lock()
		f.calls = append(f.calls, recordedCall{path: r.URL.Path, body: body})
		status := f.status
		f.mu.Unlock()

		if status == 0 {
			status = http.StatusCreated
		}
		w.WriteHeader(status)
	}
}

func (f *fakeProvider) recorded() []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedCall(nil), f.calls...)
}

func newTestResponder(apiBase string) *Responder {
	return New(Config{APIBase: apiBase, Token: "tok", CallTimeout: 2 * time.Second}, nil)
}

func TestRespondIssueOpenedPostsComment(t *testing.T) {
	provider := &fakeProvider{}
	srv := httptest.NewServer(provider.handler())
	defer srv.Close()

	r := newTestResponder(srv.URL)
	r.Respond(context.Background(), event.Event{
		DeliveryID: "d1",
		EventType:  "issues",
		Action:     "opened",
		URL:        srv.URL + "/issues/1",
		Actor:      "octocat",
	})

	calls := provider.recorded()
	if len(calls) != 1 {
		t.Fatalf("provider calls = %d, want 1", len(calls))
	}
	if calls[0].path != "/issues/1/comments" {
		t.Fatalf("path = %q", calls[0].path)
	}
	if body, _ := calls[0].body["body"].(string); body == "" {
		t.Fatal("comment body is empty")
	}
}

func TestRespondUnknownTypeIsNoOp(t *testing.T) {
	provider := &fakeProvider{}
	srv := httptest.NewServer(provider.handler())
	defer srv.Close()

	r := newTestResponder(srv.URL)
	r.Respond(context.Background(), event.Event{
		DeliveryID: "d1",
		EventType:  "deployment_status",
		Action:     "created",
	})

	if len(provider.recorded()) != 0 {
		t.Fatal("unknown event type triggered a provider call")
	}
}

func TestRespondFailureReportsErrorActivityOnce(t *testing.T) {
	provider := &fakeProvider{status: http.StatusBadGateway}
	srv := httptest.NewServer(provider.handler())
	defer srv.Close()

	r := newTestResponder(srv.URL)
	r.Respond(context.Background(), event.Event{
		DeliveryID: "d1",
		EventType:  "issues",
		Action:     "opened",
		URL:        srv.URL + "/issues/1",
		Actor:      "octocat",
	})

	calls := provider.recorded()
	// One failing comment attempt plus exactly one error activity, which is
	// itself allowed to fail.
	if len(calls) != 2 {
		t.Fatalf("provider calls = %d, want 2", len(calls))
	}
	if calls[1].path != "/activity" {
		t.Fatalf("second call path = %q, want /activity", calls[1].path)
	}
	if kind, _ := calls[1].body["type"].(string); kind != "error" {
		t.Fatalf("activity type = %q, want error", kind)
	}
}

func TestRespondPushEmitsActivity(t *testing.T) {
	provider := &fakeProvider{}
	srv := httptest.NewServer(provider.handler())
	defer srv.Close()

	r := newTestResponder(srv.URL)
	r.Respond(context.Background(), event.Event{
		DeliveryID:  "d2",
		EventType:   "push",
		Title:       "Push to refs/heads/main",
		Actor:       "dev",
		ExternalRef: sql.NullString{String: "inst-1", Valid: true},
	})

	calls := provider.recorded()
	if len(calls) != 1 || calls[0].path != "/activity" {
		t.Fatalf("unexpected calls: %+v", calls)
	}
	if kind, _ := calls[0].body["type"].(string); kind != "message" {
		t.Fatalf("activity type = %q", kind)
	}
}

func TestClientCacheReusesClientPerRef(t *testing.T) {
	r := newTestResponder("http://provider.invalid")

	a := r.clientFor("inst-1")
	b := r.clientFor("inst-1")
	c := r.clientFor("inst-2")
	if a != b {
		t.Fatal("same ref returned different clients")
	}
	if a == c {
		t.Fatal("different refs shared a client")
	}
}

func TestDashboardActions(t *testing.T) {
	provider := &fakeProvider{}
	srv := httptest.NewServer(provider.handler())
	defer srv.Close()

	r := newTestResponder(srv.URL)
	ctx := context.Background()

	if err := r.Comment(ctx, "inst-1", srv.URL+"/issues/9", "hi"); err != nil {
		t.Fatalf("comment: %v", err)
	}
	if err := r.React(ctx, "inst-1", srv.URL+"/issues/9", "heart"); err != nil {
		t.Fatalf("react: %v", err)
	}
	if err := r.Label(ctx, "inst-1", srv.URL+"/issues/9", []string{"bug"}); err != nil {
		t.Fatalf("label: %v", err)
	}
	if err := r.Activity(ctx, "inst-1", "hello"); err != nil {
		t.Fatalf("activity: %v", err)
	}

	paths := []string{"/issues/9/comments", "/issues/9/reactions", "/issues/9/labels", "/activity"}
	calls := provider.recorded()
	if len(calls) != len(paths) {
		t.Fatalf("calls = %d, want %d", len(calls), len(paths))
	}
	for i, p := range paths {
		if calls[i].path != p {
			t.Fatalf("call %d path = %q, want %q", i, calls[i].path, p)
		}
	}
}
