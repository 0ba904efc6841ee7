package repository

import "context"

// CodeIndex maps an invite code to the user whose ledger holds it.
// Implementations: Redis (production, shared across instances) or in-memory (local dev / tests).
type CodeIndex interface {
	// Reserve claims code for ownerUID. It returns false when the code is already taken.
	Reserve(ctx context.Context, code, ownerUID string) (bool, error)
	// Owner returns the owner of code, or "" when the code is not indexed.
	Owner(ctx context.Context, code string) (string, error)
	Release(ctx context.Context, code string) error
}

const codeIndexKeyPrefix = "invite:code:"

func codeIndexKey(code string) string {
	return codeIndexKeyPrefix + code
}
