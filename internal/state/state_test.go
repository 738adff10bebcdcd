package state

import (
	"net"
	"testing"

	"github.com/jkmp/matchmakingd/internal/wire"
)

func addr(s string) net.Addr {
	a, err := net.ResolveTCPAddr("tcp", s)
	if err != nil {
		panic(err)
	}
	return a
}

func opts(password *string, level string) MatchmakingOptions {
	return MatchmakingOptions{Password: password, Level: level}
}

func str(s string) *string { return &s }

func newTestClient(id uint64, name string, pos wire.Vector2) *Client {
	return NewClient(id, name, pos, NewMailbox())
}

func (s *SharedState) assertInvariants(t *testing.T) {
	t.Helper()

	if got, want := len(s.reverse), len(s.clients); got != want {
		t.Fatalf("|reverse|=%d, |directory|=%d, want equal", got, want)
	}

	groupTotal := 0
	for key, members := range s.groups {
		if len(members) == 0 {
			t.Fatalf("group %v has empty member list, should have been deleted", key)
		}
		groupTotal += len(members)
		for _, m := range members {
			if s.reverse[m].key() != key {
				t.Fatalf("member %s of group %v has reverse entry %v", m, key, s.reverse[m])
			}
		}
	}
	if groupTotal != len(s.clients) {
		t.Fatalf("sum of group sizes = %d, |directory| = %d, want equal", groupTotal, len(s.clients))
	}

	for addrKey, o := range s.reverse {
		members := s.groups[o.key()]
		count := 0
		for _, m := range members {
			if m == addrKey {
				count++
			}
		}
		if count != 1 {
			t.Fatalf("addr %s appears %d times in group %v, want exactly 1", addrKey, count, o)
		}
	}
}

func TestMatchmakingOptionsEquality(t *testing.T) {
	if !opts(nil, "level1").Equal(opts(nil, "level1")) {
		t.Error("identical nil-password options should be equal")
	}
	if opts(nil, "level1").Equal(opts(str(""), "level1")) {
		t.Error("nil password and Some(\"\") must be distinct")
	}
	if opts(str("a"), "l").Equal(opts(str("b"), "l")) {
		t.Error("different passwords must not be equal")
	}
	if opts(str("a"), "l1").Equal(opts(str("a"), "l2")) {
		t.Error("different levels must not be equal")
	}
}

func TestAddRemoveClientInvariants(t *testing.T) {
	s := NewSharedState()
	a1, a2 := addr("1.1.1.1:1"), addr("1.1.1.1:2")

	s.AddClient(a1, newTestClient(1, "a", wire.Vector2{}), opts(nil, "l"))
	s.assertInvariants(t)
	s.AddClient(a2, newTestClient(2, "b", wire.Vector2{}), opts(nil, "l"))
	s.assertInvariants(t)

	if got := len(s.GetClientsInGroup(opts(nil, "l"))); got != 2 {
		t.Fatalf("group size = %d, want 2", got)
	}

	removed := s.RemoveClient(a1)
	if removed == nil || removed.AccountID != 1 {
		t.Fatalf("RemoveClient returned %#v", removed)
	}
	s.assertInvariants(t)

	if got := len(s.GetClientsInGroup(opts(nil, "l"))); got != 1 {
		t.Fatalf("group size after removal = %d, want 1", got)
	}

	s.RemoveClient(a2)
	s.assertInvariants(t)

	if _, ok := s.groups[opts(nil, "l").key()]; ok {
		t.Fatal("empty group key should have been deleted")
	}
}

func TestRemoveClientUnknownAddrIsNoop(t *testing.T) {
	s := NewSharedState()
	if removed := s.RemoveClient(addr("9.9.9.9:9")); removed != nil {
		t.Fatalf("expected nil for unknown addr, got %#v", removed)
	}
}

func TestSetMatchmakingOptionsMovesGroups(t *testing.T) {
	s := NewSharedState()
	a := addr("2.2.2.2:1")
	s.AddClient(a, newTestClient(1, "a", wire.Vector2{}), opts(str("p"), "l"))
	s.assertInvariants(t)

	newOpts := opts(str("q"), "l")
	s.SetMatchmakingOptions(a, &newOpts)
	s.assertInvariants(t)

	if len(s.GetClientsInGroup(opts(str("p"), "l"))) != 0 {
		t.Fatal("old group should be empty/gone")
	}
	if len(s.GetClientsInGroup(newOpts)) != 1 {
		t.Fatal("new group should contain the client")
	}
}

func TestSetMatchmakingOptionsIdempotent(t *testing.T) {
	s := NewSharedState()
	a := addr("3.3.3.3:1")
	o := opts(str("p"), "l")
	s.AddClient(a, newTestClient(1, "a", wire.Vector2{}), o)

	before := append([]string(nil), s.groups[o.key()]...)
	sameOpts := opts(str("p"), "l")
	s.SetMatchmakingOptions(a, &sameOpts)
	s.assertInvariants(t)

	after := s.groups[o.key()]
	if len(before) != len(after) {
		t.Fatalf("idempotent set changed group membership: %v -> %v", before, after)
	}
}

func TestGetNearbyClientsSymmetricAndThreshold(t *testing.T) {
	s := NewSharedState()
	o := opts(nil, "level1")

	aAddr, bAddr := addr("4.4.4.4:1"), addr("4.4.4.4:2")
	clientA := newTestClient(10, "A", wire.Vector2{X: 0, Y: 0})
	clientB := newTestClient(20, "B", wire.Vector2{X: 0, Y: -1079})
	s.AddClient(aAddr, clientA, o)
	s.AddClient(bAddr, clientB, o)

	nearbyFromA := s.GetNearbyClients(wire.Vector2{X: 0, Y: 0}, o)
	if !containsID(nearbyFromA, 20) {
		t.Fatalf("expected B nearby to A at y-level distance 2, got %v", ids(nearbyFromA))
	}

	nearbyFromB := s.GetNearbyClients(wire.Vector2{X: 0, Y: -1079}, o)
	if !containsID(nearbyFromB, 10) {
		t.Fatalf("expected A nearby to B (symmetric), got %v", ids(nearbyFromB))
	}

	// Move B far enough away (y-level 6, delta 6 from A's level-0 > 3).
	clientB.Position = wire.Vector2{X: 0, Y: -2160}
	farFromA := s.GetNearbyClients(wire.Vector2{X: 0, Y: 0}, o)
	if containsID(farFromA, 20) {
		t.Fatalf("B should no longer be nearby to A, got %v", ids(farFromA))
	}
}

func containsID(clients []*Client, id uint64) bool {
	for _, c := range clients {
		if c.AccountID == id {
			return true
		}
	}
	return false
}

func ids(clients []*Client) []uint64 {
	out := make([]uint64, len(clients))
	for i, c := range clients {
		out[i] = c.AccountID
	}
	return out
}
