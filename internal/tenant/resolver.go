package tenant

import (
	"encoding/json"
	"strings"
)

// DefaultKey is the tenant used when a payload names no resource. The
// default tenant is an ordinary tenant, not a special case.
const DefaultKey = "default"

type routingProbe struct {
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
	Workspace struct {
		ID string `json:"id"`
	} `json:"workspace"`
}

// Resolve maps a raw inbound body to a tenant key. Repository full names win
// over workspace ids; unparseable or anonymous bodies fall back to the
// default key. Keys are normalized to a filesystem-safe form because they
// name the tenant's ledger file.
func Resolve(rawBody []byte) string {
	var probe routingProbe
	if err := json.Unmarshal(rawBody, &probe); err != nil {
		return DefaultKey
	}

	if probe.Repository.FullName != "" {
		return sanitizeKey(strings.ReplaceAll(probe.Repository.FullName, "/", "--"))
	}
	if probe.Workspace.ID != "" {
		return sanitizeKey(probe.Workspace.ID)
	}
	return DefaultKey
}

func sanitizeKey(key string) string {
	var b strings.Builder
	b.Grow(len(key))
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return DefaultKey
	}
	return b.String()
}
