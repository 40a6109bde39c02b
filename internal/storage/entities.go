package storage

const (
	// ScopeSelf is the record scope of the signed-in user's own entries.
	ScopeSelf = "self"
	// ScopeAll holds admin fetches across every user.
	ScopeAll = "all"

	MetaLastSync = "last_sync"
	MetaUserID   = "user_id"
)

// ScopeFor maps an optional user filter to a cache scope.
func ScopeFor(userID string, admin bool) string {
	switch {
	case userID != "":
		return "user:" + userID
	case admin:
		return ScopeAll
	default:
		return ScopeSelf
	}
}

type RecordFilter struct {
	Scope     string
	StartDay  string
	EndDay    string
	ProjectID string
	Limit     int
	Offset    int
}
