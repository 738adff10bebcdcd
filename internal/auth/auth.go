// Package auth defines the AuthBackend port the handshake handler consumes,
// and two implementations: an HTTPS-backed one for production and a static
// table for local runs and tests.
package auth

import "context"

// Backend is the abstract identity-provider capability the core consumes.
// A polymorphic interface stands in for the source's trait-bound generic:
// the core takes a value exposing these three operations, never a concrete
// provider type.
type Backend interface {
	// CheckCredentials validates that the backend is reachable and
	// correctly configured. Called once at listener start; failure aborts
	// boot.
	CheckCredentials(ctx context.Context) error

	// VerifyAuthTicket resolves an opaque session ticket to an account id.
	// Called once per session during handshake; failure means the
	// handshake is rejected.
	VerifyAuthTicket(ctx context.Context, ticket []byte) (uint64, error)

	// GetPlayerNames resolves display names for a set of account ids.
	// Called once per successful handshake with a single id; a missing id
	// in the result means the handshake is rejected.
	GetPlayerNames(ctx context.Context, ids []uint64) (map[uint64]string, error)
}
