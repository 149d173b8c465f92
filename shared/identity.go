package shared

import "strings"

// canonicalReplacer strips the characters the document-store key space forbids.
var canonicalReplacer = strings.NewReplacer(
	".", "_",
	"#", "_",
	"$", "_",
	"[", "_",
	"]", "_",
	"/", "_",
)

// CanonicalUserID maps a primary-auth email onto the identity key used for
// entitlement, progress and user records. The mapping is total: any input
// yields a key, illegal characters are replaced with underscores and
// surrounding whitespace is dropped. Case is folded so the same mailbox
// always resolves to the same key. An empty input yields an empty key, which
// callers treat as unauthenticated.
func CanonicalUserID(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ""
	}
	return canonicalReplacer.Replace(email)
}
