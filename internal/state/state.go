package state

import (
	"math"
	"net"

	"github.com/jkmp/matchmakingd/internal/wire"
)

// nearbyYLevels is the y-level distance within which two clients in the
// same group are considered nearby.
const nearbyYLevels = 3

// yLevelBucket is the coarse vertical bucket used for proximity: floor(-round(y) / 360).
func yLevelBucket(y float32) int32 {
	return int32(math.Floor(float64(-roundFloat32(y)) / 360.0))
}

func roundFloat32(f float32) float32 {
	return float32(math.Round(float64(f)))
}

// SharedState owns the client directory, the group index, and the reverse
// membership map. It is the only process-wide mutable structure; every
// operation below runs synchronous with respect to whoever is holding the
// state lock (the lock itself lives in Store, not in SharedState —
// SharedState is a plain, non-self-locking data structure so its
// methods compose cleanly under one caller-held mutex).
type SharedState struct {
	clients map[string]*Client
	groups  map[matchmakingKey][]string
	// groupOptions records the MatchmakingOptions value each group key was
	// built from (the key holds the password as a string plus a presence
	// flag, not as a *string). It is kept in step with groups but no method
	// reads it; GetMatchmakingOptions answers from reverse.
	groupOptions map[matchmakingKey]MatchmakingOptions
	reverse      map[string]MatchmakingOptions
}

// NewSharedState creates an empty SharedState.
func NewSharedState() *SharedState {
	return &SharedState{
		clients:      make(map[string]*Client),
		groups:       make(map[matchmakingKey][]string),
		groupOptions: make(map[matchmakingKey]MatchmakingOptions),
		reverse:      make(map[string]MatchmakingOptions),
	}
}

// AddClient inserts client into the directory at addr and indexes it under
// options.
func (s *SharedState) AddClient(addr net.Addr, client *Client, options MatchmakingOptions) {
	key := addr.String()
	s.clients[key] = client
	s.setMatchmakingOptions(key, &options)
}

// RemoveClient removes the client at addr, if any, clearing its group
// membership. It returns the removed client so the caller can log
// disconnection.
func (s *SharedState) RemoveClient(addr net.Addr) *Client {
	key := addr.String()
	client, ok := s.clients[key]
	if !ok {
		return nil
	}
	delete(s.clients, key)
	s.setMatchmakingOptions(key, nil)
	return client
}

// SetMatchmakingOptions moves addr's group membership to options (or clears
// it, when options is nil). Exported for handlers that need to relocate an
// already-registered client (e.g. SetMatchmakingPassword).
func (s *SharedState) SetMatchmakingOptions(addr net.Addr, options *MatchmakingOptions) {
	s.setMatchmakingOptions(addr.String(), options)
}

func (s *SharedState) setMatchmakingOptions(addrKey string, options *MatchmakingOptions) {
	current, hasCurrent := s.reverse[addrKey]

	if options != nil && hasCurrent && current.Equal(*options) {
		return // idempotent: already indexed under this exact value
	}

	if hasCurrent {
		s.removeFromGroup(current.key(), addrKey)
		delete(s.reverse, addrKey)
	}

	if options == nil {
		return
	}

	newKey := options.key()
	s.groups[newKey] = append(s.groups[newKey], addrKey)
	s.groupOptions[newKey] = *options
	s.reverse[addrKey] = *options
}

func (s *SharedState) removeFromGroup(key matchmakingKey, addrKey string) {
	members := s.groups[key]
	for i, a := range members {
		if a == addrKey {
			members = append(members[:i], members[i+1:]...)
			break
		}
	}
	if len(members) == 0 {
		delete(s.groups, key)
		delete(s.groupOptions, key)
		return
	}
	s.groups[key] = members
}

// GetClient looks up the client at addr.
func (s *SharedState) GetClient(addr net.Addr) (*Client, bool) {
	c, ok := s.clients[addr.String()]
	return c, ok
}

// ClientCount returns the number of connected clients.
func (s *SharedState) ClientCount() int {
	return len(s.clients)
}

// AllClients returns every connected client, addr key included, for
// whole-directory fan-out (global chat, the broadcaster).
func (s *SharedState) AllClients() map[string]*Client {
	return s.clients
}

// GetMatchmakingOptions returns the options addr is currently indexed
// under. Callers guarantee addr is known (it always is once AddClient has
// run and before RemoveClient).
func (s *SharedState) GetMatchmakingOptions(addr net.Addr) MatchmakingOptions {
	return s.reverse[addr.String()]
}

// GetClientsInGroup returns every client currently indexed under options.
// Callers guarantee the group exists (it does iff some address's reverse
// entry names it).
func (s *SharedState) GetClientsInGroup(options MatchmakingOptions) []*Client {
	members := s.groups[options.key()]
	clients := make([]*Client, 0, len(members))
	for _, addrKey := range members {
		if c, ok := s.clients[addrKey]; ok {
			clients = append(clients, c)
		}
	}
	return clients
}

// GetNearbyClients collects every member of options' group whose y-level
// differs from position's by at most nearbyYLevels. The query position is
// not excluded from the result; callers that need to drop "self" filter by
// account id afterward.
func (s *SharedState) GetNearbyClients(position wire.Vector2, options MatchmakingOptions) []*Client {
	target := yLevelBucket(position.Y)
	members := s.groups[options.key()]

	nearby := make([]*Client, 0, len(members))
	for _, addrKey := range members {
		c, ok := s.clients[addrKey]
		if !ok {
			continue
		}
		if abs32(yLevelBucket(c.Position.Y) - target) <= nearbyYLevels {
			nearby = append(nearby, c)
		}
	}
	return nearby
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
