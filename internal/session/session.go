// Package session implements the per-connection actor: handshake, the
// steady-state read/mailbox pump, and cleanup on exit.
package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"

	"github.com/jkmp/matchmakingd/internal/auth"
	"github.com/jkmp/matchmakingd/internal/metrics"
	"github.com/jkmp/matchmakingd/internal/state"
	"github.com/jkmp/matchmakingd/internal/wire"
)

// Dispatcher handles one steady-state inbound message. It is supplied by
// the caller (internal/handlers) to avoid session depending on the handler
// package — handlers depend on session for the Session type, not the other
// way around.
type Dispatcher func(msg wire.Message, sess *Session, store *state.Store) error

// Session is one accepted TCP connection and its logical handler task.
type Session struct {
	conn    net.Conn
	addr    net.Addr
	reader  *wire.FrameReader
	mailbox *state.Mailbox

	accountID uint64
	name      string

	logger  *zap.Logger
	metrics *metrics.Registry
}

// New creates a Session for an accepted connection.
func New(conn net.Conn, logger *zap.Logger, reg *metrics.Registry) *Session {
	return &Session{
		conn:    conn,
		addr:    conn.RemoteAddr(),
		reader:  wire.NewFrameReader(conn),
		mailbox: state.NewMailbox(),
		logger:  logger,
		metrics: reg,
	}
}

// NewForAddr builds a Session like New, but pins addr explicitly rather than
// reading conn.RemoteAddr() — net.Pipe connections have no meaningful
// address, so tests that need a stable, comparable net.Addr use this.
func NewForAddr(conn net.Conn, addr net.Addr, logger *zap.Logger, reg *metrics.Registry) *Session {
	return &Session{
		conn:    conn,
		addr:    addr,
		reader:  wire.NewFrameReader(conn),
		mailbox: state.NewMailbox(),
		logger:  logger,
		metrics: reg,
	}
}

// SetIdentity pins the session's account id and display name directly,
// bypassing the handshake — for tests that exercise steady-state handlers
// without driving a full handshake over the wire.
func (s *Session) SetIdentity(accountID uint64, name string) {
	s.accountID = accountID
	s.name = name
}

// MailboxForTest exposes the session's outbound mailbox so tests can assert
// on what handlers enqueued without standing up a real socket reader.
func (s *Session) MailboxForTest() *state.Mailbox { return s.mailbox }

// Addr returns the session's peer address, the directory's primary key.
func (s *Session) Addr() net.Addr { return s.addr }

// AccountID returns the authenticated account id, valid only after a
// successful handshake.
func (s *Session) AccountID() uint64 { return s.accountID }

// Name returns the resolved display name, valid only after a successful
// handshake.
func (s *Session) Name() string { return s.name }

// SendSelf enqueues msg on this session's own outbound mailbox. Handlers
// use this (rather than writing the socket directly) so that outbound
// frames from handlers and the broadcaster are always serialised through
// the one drain loop, in enqueue order.
func (s *Session) SendSelf(msg wire.Message) {
	s.mailbox.Send(msg)
}

// Run drives the full session lifecycle: Opening, Handshaking, Steady, and
// Terminating. It returns once the session has fully torn down.
func (s *Session) Run(ctx context.Context, backend auth.Backend, store *state.Store, dispatch Dispatcher) {
	defer s.conn.Close()
	defer s.mailbox.Close()

	first, err := s.reader.ReadMessage()
	if err != nil {
		s.logger.Debug("session closed before handshake", zap.Error(err))
		return
	}

	handshake, ok := first.(wire.HandshakeRequest)
	if !ok {
		s.logger.Warn("did not receive a valid handshake", zap.String("addr", s.addr.String()))
		return
	}

	if !s.handshake(ctx, backend, store, handshake) {
		return
	}

	s.steady(ctx, store, dispatch)

	store.Lock()
	removed := store.State.RemoveClient(s.addr)
	store.Unlock()
	if removed != nil {
		s.logger.Info("disconnected", zap.Uint64("account_id", removed.AccountID), zap.String("name", removed.Name))
	}
}

func (s *Session) steady(ctx context.Context, store *state.Store, dispatch Dispatcher) {
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.drainMailbox(connCtx)
	}()

	for {
		msg, err := s.reader.ReadMessage()
		if err != nil {
			var framingErr *wire.FramingError
			if errors.As(err, &framingErr) {
				s.logger.Warn("framing error", zap.String("addr", s.addr.String()), zap.Error(err))
				if s.metrics != nil {
					s.metrics.FramingErrors.Inc()
				}
			} else {
				s.logger.Debug("session read ended", zap.String("addr", s.addr.String()), zap.Error(err))
			}
			break
		}

		if _, isHandshake := msg.(wire.HandshakeRequest); isHandshake {
			s.logger.Warn("unexpected second handshake", zap.String("addr", s.addr.String()))
			break
		}

		if s.metrics != nil {
			s.metrics.FramesDecoded.Inc()
		}

		if err := dispatch(msg, s, store); err != nil {
			s.logger.Warn("handler error", zap.String("addr", s.addr.String()), zap.Error(err))
			if s.metrics != nil {
				s.metrics.ProtocolErrors.Inc()
			}
			break
		}
	}

	cancel()
	wg.Wait()
}

func (s *Session) drainMailbox(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-s.mailbox.Receive():
			if !ok {
				return
			}
			if err := wire.WriteMessage(s.conn, msg); err != nil {
				s.logger.Debug("write failed", zap.String("addr", s.addr.String()), zap.Error(err))
				return
			}
		}
	}
}

func (s *Session) handshake(ctx context.Context, backend auth.Backend, store *state.Store, req wire.HandshakeRequest) bool {
	if req.Version != wire.ProtocolVersion {
		s.sendHandshakeFailure("Your version is outdated")
		s.incHandshakeFailure()
		s.logger.Info("client version mismatch", zap.Uint32("version", req.Version))
		return false
	}

	accountID, err := backend.VerifyAuthTicket(ctx, req.AuthSessionTicket)
	if err != nil {
		s.logger.Info("failed to auth", zap.String("addr", s.addr.String()), zap.Error(err))
		s.sendHandshakeFailure("An unexpected error occurred when handling handshake request")
		s.incHandshakeFailure()
		return false
	}

	names, err := backend.GetPlayerNames(ctx, []uint64{accountID})
	if err != nil {
		s.logger.Info("failed to resolve player name", zap.Uint64("account_id", accountID), zap.Error(err))
		s.sendHandshakeFailure("An unexpected error occurred when handling handshake request")
		s.incHandshakeFailure()
		return false
	}
	name, ok := names[accountID]
	if !ok {
		s.logger.Info("identity provider omitted requested name", zap.Uint64("account_id", accountID))
		s.sendHandshakeFailure("An unexpected error occurred when handling handshake request")
		s.incHandshakeFailure()
		return false
	}

	s.accountID = accountID
	s.name = name

	options := state.MatchmakingOptions{Password: req.MatchmakingPassword, Level: req.LevelName}
	client := state.NewClient(accountID, name, req.Position, s.mailbox)

	store.Lock()
	totalBefore := store.State.ClientCount()
	groupBefore := len(store.State.GetClientsInGroup(options))
	welcome := welcomeMessage(totalBefore, groupBefore)
	store.State.AddClient(s.addr, client, options)
	totalAfter := store.State.ClientCount()
	groupAfter := len(store.State.GetClientsInGroup(options))
	store.Unlock()

	s.logger.Info("connected", zap.Uint64("account_id", accountID), zap.String("name", name))

	if err := wire.WriteMessage(s.conn, wire.HandshakeResponse{Success: true}); err != nil {
		return false
	}
	if err := wire.WriteMessage(s.conn, wire.OutgoingChatMessage{
		Channel: wire.ChannelGlobal,
		Message: welcome,
	}); err != nil {
		return false
	}
	if err := wire.WriteMessage(s.conn, wire.ServerStatusUpdate{
		TotalPlayers: uint32(totalAfter),
		GroupPlayers: uint32(groupAfter),
	}); err != nil {
		return false
	}

	return true
}

func (s *Session) sendHandshakeFailure(errMsg string) {
	_ = wire.WriteMessage(s.conn, wire.HandshakeResponse{Success: false, ErrorMessage: &errMsg})
}

func (s *Session) incHandshakeFailure() {
	if s.metrics != nil {
		s.metrics.HandshakeFailures.Inc()
	}
}

func welcomeMessage(total, group int) string {
	switch {
	case total == 0:
		return "Welcome! There are currently no other players online."
	case group == 0:
		return fmt.Sprintf("Welcome! There are %d other players online, but none of them in your group.", total)
	default:
		return fmt.Sprintf("Welcome! There are %d other players online. %d of them are in your group.", total, group)
	}
}
