package search

import "strings"

// forbiddenKeywords is scanned in order; the first hit is the one reported.
// Matching is on raw substrings, not tokens, so identifiers such as
// "updated_at" or "created_by" are rejected too.
var forbiddenKeywords = []string{
	"drop", "delete", "truncate", "insert", "update", "alter", "create",
	"grant", "revoke", "--", ";--", "/*", "*/", "xp_", "sp_",
}

const (
	reasonValid      = "Valid"
	reasonSelectOnly = "Only SELECT queries are allowed"
)

// Verdict is the validator's decision. Keyword is set only when a
// forbidden substring caused the rejection.
type Verdict struct {
	Valid   bool   `json:"valid"`
	Reason  string `json:"reason"`
	Keyword string `json:"keyword,omitempty"`
}

// ValidateSQL is a denylist heuristic, not a parser. It cannot see through
// obfuscation or encoded characters.
func ValidateSQL(statement string) Verdict {
	lower := strings.ToLower(statement)

	for _, kw := range forbiddenKeywords {
		if strings.Contains(lower, kw) {
			return Verdict{
				Valid:   false,
				Reason:  "Forbidden SQL keyword detected: " + kw,
				Keyword: kw,
			}
		}
	}

	if !strings.HasPrefix(strings.TrimSpace(lower), "select") {
		return Verdict{Valid: false, Reason: reasonSelectOnly}
	}

	return Verdict{Valid: true, Reason: reasonValid}
}

// ForbiddenKeywords returns a copy of the denylist in scan order.
func ForbiddenKeywords() []string {
	out := make([]string, len(forbiddenKeywords))
	copy(out, forbiddenKeywords)
	return out
}
