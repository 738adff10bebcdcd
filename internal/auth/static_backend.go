package auth

import (
	"context"
	"fmt"
)

// StaticBackend resolves a fixed table of ticket->account and
// account->name mappings. Used for local runs without an identity provider
// configured, and as the test double substituted in place of HTTPBackend —
// per the design note, tests verify a ticket against a single literal byte
// string.
type StaticBackend struct {
	Tickets map[string]uint64
	Names   map[uint64]string
}

// NewStaticBackend builds a StaticBackend from the given tables.
func NewStaticBackend(tickets map[string]uint64, names map[uint64]string) *StaticBackend {
	return &StaticBackend{Tickets: tickets, Names: names}
}

func (b *StaticBackend) CheckCredentials(ctx context.Context) error {
	return nil
}

func (b *StaticBackend) VerifyAuthTicket(ctx context.Context, ticket []byte) (uint64, error) {
	id, ok := b.Tickets[string(ticket)]
	if !ok {
		return 0, fmt.Errorf("auth: unknown ticket")
	}
	return id, nil
}

func (b *StaticBackend) GetPlayerNames(ctx context.Context, ids []uint64) (map[uint64]string, error) {
	out := make(map[uint64]string, len(ids))
	for _, id := range ids {
		name, ok := b.Names[id]
		if !ok {
			return nil, fmt.Errorf("auth: unknown account id %d", id)
		}
		out[id] = name
	}
	return out, nil
}
