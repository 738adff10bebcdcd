// Package handlers implements the steady-state message handlers: pure
// functions over (message, session handle, shared state) that mutate state
// and enqueue outbound messages on other sessions' mailboxes.
package handlers

import (
	"fmt"

	"github.com/jkmp/matchmakingd/internal/session"
	"github.com/jkmp/matchmakingd/internal/state"
	"github.com/jkmp/matchmakingd/internal/wire"
)

// nearbyChunkSize is the maximum number of account ids InformNearbyClients
// carries per frame.
const nearbyChunkSize = 50

// Dispatch routes one steady-state inbound message to its handler. A
// HandshakeRequest arriving here (i.e. not as the session's first frame) is
// a protocol error: only the first frame of a session may be a handshake.
func Dispatch(msg wire.Message, sess *session.Session, store *state.Store) error {
	switch m := msg.(type) {
	case wire.PositionUpdate:
		return handlePositionUpdate(m, sess, store)
	case wire.SetMatchmakingPassword:
		return handleSetMatchmakingPassword(m, sess, store)
	case wire.IncomingChatMessage:
		return handleIncomingChatMessage(m, sess, store)
	case wire.HandshakeRequest:
		return fmt.Errorf("unexpected handshake request outside of Opening state")
	default:
		return fmt.Errorf("unexpected message type %T in steady state", msg)
	}
}

func sendNearbyClients(sess *session.Session, nearby []*state.Client) {
	if len(nearby) < 2 {
		return
	}

	ids := make([]uint64, 0, len(nearby))
	for _, c := range nearby {
		if c.AccountID == sess.AccountID() {
			continue
		}
		ids = append(ids, c.AccountID)
	}

	for start := 0; start < len(ids); start += nearbyChunkSize {
		end := start + nearbyChunkSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk := append([]uint64(nil), ids[start:end]...)
		sess.SendSelf(wire.InformNearbyClients{ClientIDs: chunk})
	}
}

func handlePositionUpdate(m wire.PositionUpdate, sess *session.Session, store *state.Store) error {
	store.Lock()
	defer store.Unlock()

	client, ok := store.State.GetClient(sess.Addr())
	if !ok {
		return fmt.Errorf("lookup-miss: session address not found in directory")
	}
	client.Position = m.Position

	options := store.State.GetMatchmakingOptions(sess.Addr())
	nearby := store.State.GetNearbyClients(m.Position, options)
	sendNearbyClients(sess, nearby)

	return nil
}

func handleSetMatchmakingPassword(m wire.SetMatchmakingPassword, sess *session.Session, store *state.Store) error {
	store.Lock()
	defer store.Unlock()

	current := store.State.GetMatchmakingOptions(sess.Addr())
	newOptions := state.MatchmakingOptions{Password: m.Password, Level: current.Level}
	store.State.SetMatchmakingOptions(sess.Addr(), &newOptions)

	client, ok := store.State.GetClient(sess.Addr())
	if !ok {
		return fmt.Errorf("lookup-miss: session address not found in directory")
	}

	nearby := store.State.GetNearbyClients(client.Position, newOptions)
	sendNearbyClients(sess, nearby)

	return nil
}
