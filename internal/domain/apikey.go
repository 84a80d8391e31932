package domain

import "time"

// Scope is the authorization level an APIKey carries. Handlers in
// internal/apiv1 check a request's resolved scope against the minimum
// scope the operation requires (spec §6: "scoped keys read | write | admin").
type Scope string

const (
	ScopeRead  Scope = "read"
	ScopeWrite Scope = "write"
	ScopeAdmin Scope = "admin"
)

// Satisfies reports whether a key carrying s may perform an operation that
// requires min. Scopes are ordered read < write < admin.
func (s Scope) Satisfies(min Scope) bool {
	rank := map[Scope]int{ScopeRead: 0, ScopeWrite: 1, ScopeAdmin: 2}
	return rank[s] >= rank[min]
}

// APIKey is the thin credential external callers present on the HTTP
// surface. The core never sees one; internal/apiv1's auth middleware
// resolves the presented secret to an APIKey and attaches its TeamID/Scope
// to the request context before calling into the core.
type APIKey struct {
	ID        string     `json:"id"`
	TeamID    string     `json:"team_id"`
	Scope     Scope      `json:"scope"`
	KeyHash   string     `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// Revoked reports whether the key has been revoked and must no longer
// authenticate requests.
func (k *APIKey) Revoked() bool { return k.RevokedAt != nil }

func (k *APIKey) Validate() error {
	if k.TeamID == "" {
		return errRequired("team_id")
	}
	switch k.Scope {
	case ScopeRead, ScopeWrite, ScopeAdmin:
	default:
		return errRequired("scope")
	}
	if k.KeyHash == "" {
		return errRequired("key_hash")
	}
	return nil
}
