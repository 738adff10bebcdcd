package handlers

import (
	"fmt"
	"strings"

	"github.com/jkmp/matchmakingd/internal/session"
	"github.com/jkmp/matchmakingd/internal/state"
	"github.com/jkmp/matchmakingd/internal/wire"
)

// chatMaxScalars is the truncation limit for inbound chat bodies, counted
// in Unicode scalar values (runes), not bytes — this spec's resolution of
// the source's grapheme-unaware byte truncation.
const chatMaxScalars = 100

func truncateScalars(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func handleIncomingChatMessage(m wire.IncomingChatMessage, sess *session.Session, store *state.Store) error {
	trimmed := truncateScalars(strings.TrimSpace(m.Message), chatMaxScalars)
	if trimmed == "" {
		return nil
	}

	store.Lock()
	defer store.Unlock()

	client, ok := store.State.GetClient(sess.Addr())
	if !ok {
		return fmt.Errorf("lookup-miss: session address not found in directory")
	}

	senderID := client.AccountID
	senderName := client.Name

	var targets []*state.Client
	switch m.Channel {
	case wire.ChannelGlobal:
		for _, c := range store.State.AllClients() {
			targets = append(targets, c)
		}
	case wire.ChannelGroup:
		options := store.State.GetMatchmakingOptions(sess.Addr())
		targets = store.State.GetClientsInGroup(options)
	default:
		return &wire.ProtocolError{Reason: fmt.Sprintf("unexpected chat channel %d", m.Channel)}
	}

	outgoing := wire.OutgoingChatMessage{
		Channel:    m.Channel,
		SenderID:   &senderID,
		SenderName: &senderName,
		Message:    trimmed,
	}

	for _, target := range targets {
		target.Send(outgoing)
	}

	return nil
}
