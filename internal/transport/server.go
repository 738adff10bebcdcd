// Package transport owns the TCP listener: the accept loop that spawns one
// session.Session per connection, and the periodic status broadcaster.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jkmp/matchmakingd/internal/auth"
	"github.com/jkmp/matchmakingd/internal/config"
	"github.com/jkmp/matchmakingd/internal/handlers"
	"github.com/jkmp/matchmakingd/internal/metrics"
	"github.com/jkmp/matchmakingd/internal/session"
	"github.com/jkmp/matchmakingd/internal/state"
	"github.com/jkmp/matchmakingd/internal/wire"
)

// broadcastInterval is how often the server pushes a ServerStatusUpdate to
// every connected client.
const broadcastInterval = 60 * time.Second

// Server owns the matchmaking TCP listener, the per-connection sessions it
// spawns, and the periodic broadcaster.
type Server struct {
	cfg      config.ListenConfig
	logger   *zap.Logger
	store    *state.Store
	metrics  *metrics.Registry
	backend  auth.Backend
	listener net.Listener
	wg       sync.WaitGroup
}

func NewServer(cfg config.ListenConfig, logger *zap.Logger, store *state.Store, reg *metrics.Registry, backend auth.Backend) *Server {
	return &Server{cfg: cfg, logger: logger, store: store, metrics: reg, backend: backend}
}

// Start binds the listener and spawns the accept loop and the broadcaster.
// It returns once the bind has succeeded; both loops run in background
// goroutines tracked by the server's WaitGroup.
func (s *Server) Start(ctx context.Context) error {
	if s.listener != nil {
		return errors.New("transport already started")
	}

	if err := s.backend.CheckCredentials(ctx); err != nil {
		return fmt.Errorf("auth backend unreachable: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.listener = ln
	s.logger.Info("matchmaking listener up", zap.String("addr", addr))

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.acceptLoop(ctx)
	}()
	go func() {
		defer s.wg.Done()
		s.broadcastLoop(ctx)
	}()

	return nil
}

// Stop closes the listener and waits for both background loops and every
// in-flight session to exit.
func (s *Server) Stop() {
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
}

func (s *Server) acceptLoop(ctx context.Context) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if ne, ok := err.(net.Error); ok && ne.Temporary() {
				time.Sleep(50 * time.Millisecond)
				continue
			}
			s.logger.Error("accept error", zap.Error(err))
			return
		}

		if s.metrics != nil {
			s.metrics.ActiveSessions.Inc()
		}

		s.wg.Add(1)
		go func(c net.Conn) {
			defer s.wg.Done()
			sess := session.New(c, s.logger, s.metrics)
			sess.Run(ctx, s.backend, s.store, handlers.Dispatch)
			if s.metrics != nil {
				s.metrics.ActiveSessions.Dec()
			}
		}(conn)
	}
}

// broadcastLoop pushes a ServerStatusUpdate to every connected client every
// broadcastInterval, aligned to second 1 of the minute. It is skipped
// entirely while no clients are connected.
func (s *Server) broadcastLoop(ctx context.Context) {
	timer := time.NewTimer(durationUntilNextSecond1(time.Now()))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			s.broadcastStatus()
			timer.Reset(broadcastInterval)
		}
	}
}

// durationUntilNextSecond1 returns how long to wait until the next wall-clock
// HH:MM:01 boundary strictly after now.
func durationUntilNextSecond1(now time.Time) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), now.Minute(), 1, 0, now.Location())
	if !next.After(now) {
		next = next.Add(time.Minute)
	}
	return next.Sub(now)
}

func (s *Server) broadcastStatus() {
	s.store.Lock()
	clients := s.store.State.AllClients()
	total := uint32(len(clients))
	if total == 0 {
		s.store.Unlock()
		return
	}

	type target struct {
		client *state.Client
		group  uint32
	}
	targets := make([]target, 0, len(clients))
	for addrKey, client := range clients {
		options := s.store.State.GetMatchmakingOptions(addrKeyToAddr(addrKey))
		size := uint32(len(s.store.State.GetClientsInGroup(options)))
		targets = append(targets, target{client: client, group: size})
	}
	s.store.Unlock()

	for _, t := range targets {
		t.client.Send(wire.ServerStatusUpdate{TotalPlayers: total, GroupPlayers: t.group})
	}

	if s.metrics != nil {
		s.metrics.BroadcastTicks.Inc()
	}
}

// addrKeyToAddr recovers a net.Addr from a directory key for the reverse
// lookup GetMatchmakingOptions needs; only the String() value is ever used
// downstream, so a bare stringAddr is sufficient.
func addrKeyToAddr(key string) net.Addr {
	return stringAddr(key)
}

type stringAddr string

func (a stringAddr) Network() string { return "tcp" }
func (a stringAddr) String() string  { return string(a) }
