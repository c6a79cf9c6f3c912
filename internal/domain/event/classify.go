package event

import (
	"encoding/json"
	"fmt"
)

// Classified holds the denormalized display fields extracted from a payload.
type Classified struct {
	Title       string
	Description string
	URL         string
	Actor       string
}

// payload variants, one per recognized event kind. Each variant carries only
// the fields its projection needs; everything else stays in the raw payload.

type issuePayload struct {
	Issue *struct {
		Title   string `json:"title"`
		Body    string `json:"body"`
		HTMLURL string `json:"html_url"`
	} `json:"issue"`
	Sender senderField `json:"sender"`
}

type changeRequestPayload struct {
	PullRequest *struct {
		Title   string `json:"title"`
		Body    string `json:"body"`
		HTMLURL string `json:"html_url"`
	} `json:"pull_request"`
	Sender senderField `json:"sender"`
}

type pushPayload struct {
	Ref     string `json:"ref"`
	Compare string `json:"compare"`
	Commits []struct {
		Message string `json:"message"`
	} `json:"commits"`
	Pusher struct {
		Name string `json:"name"`
	} `json:"pusher"`
	Sender senderField `json:"sender"`
}

type genericPayload struct {
	Sender senderField `json:"sender"`
}

type senderField struct {
	Login string `json:"login"`
}

const unknownActor = "unknown"

// Classify derives display fields from an already-verified payload. It is a
// pure function: unknown event types fall back to a generic title, and a
// missing sender falls back to the "unknown" actor sentinel.
func Classify(eventType string, payload []byte) Classified {
	switch eventType {
	case "issues", "issue_comment":
		var p issuePayload
		// Presence of the issue object is what selects this projection; an
		// empty title only degrades the headline, never the projection.
		if err := json.Unmarshal(payload, &p); err == nil && p.Issue != nil {
			return Classified{
				Title:       titleOr(p.Issue.Title, eventType),
				Description: Truncate(p.Issue.Body, MaxDescriptionLength),
				URL:         p.Issue.HTMLURL,
				Actor:       actorOr(p.Sender.Login),
			}
		}
	case "pull_request", "merge_request":
		var p changeRequestPayload
		if err := json.Unmarshal(payload, &p); err == nil && p.PullRequest != nil {
			return Classified{
				Title:       titleOr(p.PullRequest.Title, eventType),
				Description: Truncate(p.PullRequest.Body, MaxDescriptionLength),
				URL:         p.PullRequest.HTMLURL,
				Actor:       actorOr(p.Sender.Login),
			}
		}
	case "push":
		var p pushPayload
		if err := json.Unmarshal(payload, &p); err == nil && p.Ref != "" {
			desc := ""
			if len(p.Commits) > 0 {
				desc = Truncate(p.Commits[0].Message, MaxDescriptionLength)
			}
			actor := p.Sender.Login
			if actor == "" {
				actor = p.Pusher.Name
			}
			return Classified{
				Title:       fmt.Sprintf("Push to %s", p.Ref),
				Description: desc,
				URL:         p.Compare,
				Actor:       actorOr(actor),
			}
		}
	}

	var p genericPayload
	_ = json.Unmarshal(payload, &p)
	return Classified{
		Title: fmt.Sprintf("%s event", eventType),
		Actor: actorOr(p.Sender.Login),
	}
}

func titleOr(title, eventType string) string {
	if title == "" {
		return fmt.Sprintf("%s event", eventType)
	}
	return title
}

func actorOr(login string) string {
	if login == "" {
		return unknownActor
	}
	return login
}
