package server

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/undiscoveredWorld/chat-on-sockets/internal/config"
	"github.com/undiscoveredWorld/chat-on-sockets/internal/history"
	"github.com/undiscoveredWorld/chat-on-sockets/internal/logging"
)

// maxLineLength caps a single chat message, matching the original
// client read buffer.
const maxLineLength = 4096

// ChatServer accepts TCP connections on the chat port, assigns each
// client a name from the pool and broadcasts every received line to all
// connected users.
type ChatServer struct {
	cfg               *config.Config
	listener          net.Listener
	users             map[string]*User
	pool              *NamePool
	store             *history.Store
	logger            *logging.Logger
	stopping          bool
	mu                sync.RWMutex
	idleCheckInterval time.Duration
	idleCheckTimer    *time.Timer
}

// NewChatServer creates a new chat server instance
func NewChatServer(cfg *config.Config, store *history.Store, logger *logging.Logger) *ChatServer {
	// Enable trace logging if configured
	if cfg.Chat.TraceLogEnabled {
		if err := logger.EnableTrace(); err != nil {
			logger.Warning("Failed to enable trace logging: %v", err)
		}
	}

	return &ChatServer{
		cfg:               cfg,
		users:             make(map[string]*User),
		pool:              NewNamePool(cfg.Chat.Names),
		store:             store,
		logger:            logger,
		idleCheckInterval: time.Second * 30,
	}
}

// Start binds the chat port and runs the accept loop until Stop is
// called. A bind failure is returned to the caller; it is fatal and
// must not be retried.
func (s *ChatServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Chat.Interface, s.cfg.Chat.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind chat server on %s: %v", addr, err)
	}

	s.mu.Lock()
	if s.stopping {
		// Stop raced with startup
		s.mu.Unlock()
		listener.Close()
		return nil
	}
	s.listener = listener
	s.mu.Unlock()

	s.logger.Info("Chat server listening on %s", listener.Addr())
	s.logger.Info("Chat server can accept %d connections", s.pool.Capacity())

	if s.cfg.Chat.DropNoActivity > 0 {
		s.startIdleChecker()
	}

	for {
		conn, err := listener.Accept()
		if err != nil {
			if s.isStopping() {
				return nil // Server is shutting down
			}
			s.logger.Error("Failed to accept connection: %v", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// Stop closes the listener and all user connections. Safe to call from
// the signal path and idempotent.
func (s *ChatServer) Stop() {
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		return
	}
	s.stopping = true

	if s.idleCheckTimer != nil {
		s.idleCheckTimer.Stop()
	}

	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			s.logger.Warning("Error closing listener: %v", err)
		}
	}

	users := make([]*User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	s.users = make(map[string]*User)
	s.mu.Unlock()

	for _, user := range users {
		user.Close()
		s.pool.Return(user.Name())
	}

	s.logger.Info("Chat server stopped")
}

// Addr returns the bound listener address, or nil before Start.
func (s *ChatServer) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// UserCount returns the number of connected users.
func (s *ChatServer) UserCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// GetUsers returns detailed information about all connected users
func (s *ChatServer) GetUsers() []map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]map[string]interface{}, 0, len(s.users))
	for _, user := range s.users {
		result = append(result, user.GetDetailedInfo())
	}
	return result
}

// GetUser gets a connected user by name
func (s *ChatServer) GetUser(name string) *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.users[name]
}

func (s *ChatServer) isStopping() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stopping
}

// handleConnection runs the read loop for one client connection
func (s *ChatServer) handleConnection(conn net.Conn) {
	name, ok := s.pool.Take()
	if !ok {
		conn.Write([]byte("Server is full. You will disconnect\n"))
		s.logger.Info("Got new connection, but server is full")
		conn.Close()
		return
	}

	user := NewUser(conn, s.logger, name)

	s.mu.Lock()
	s.users[name] = user
	s.mu.Unlock()

	if err := user.Send(fmt.Sprintf("Your name: %s", name)); err != nil {
		s.logger.Error("Failed to greet %s: %v", name, err)
		s.disconnect(user)
		return
	}
	s.replayHistory(user)

	s.logger.Info("Accepted new connection. Places left: %d", s.pool.Free())
	s.logger.Info("%s connected as %s", conn.RemoteAddr(), name)

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, maxLineLength), maxLineLength)

	for scanner.Scan() {
		user.UpdateLastActivity()

		body := strings.TrimRight(scanner.Text(), "\r")
		if body == "" {
			continue
		}

		s.logger.Trace("Received from %s: %s", name, body)
		s.logger.UserLog(name, "%s", body)

		s.broadcast(name, body)
		s.logger.Info("Message got")
	}

	if err := scanner.Err(); err != nil && !s.isStopping() {
		s.logger.Warning("Read error from %s: %v", name, err)
	}

	s.disconnect(user)
}

// replayHistory sends recent messages to a newly connected user
func (s *ChatServer) replayHistory(user *User) {
	messages, err := s.store.Recent(s.cfg.History.ReplayLimit)
	if err != nil {
		s.logger.Error("Failed to load message history: %v", err)
		return
	}

	for _, m := range messages {
		if err := user.Send(fmt.Sprintf("%s:%s", m.Sender, m.Body)); err != nil {
			s.logger.Error("Failed to replay history to %s: %v", user.Name(), err)
			return
		}
	}

	if len(messages) > 0 {
		s.logger.Debug("Replayed %d messages to %s", len(messages), user.Name())
	}
}

// broadcast records the message in history and fans it out to every
// connected user, the sender included. A send failure disconnects the
// failed user but never interrupts delivery to the others.
func (s *ChatServer) broadcast(sender, body string) {
	if err := s.store.Append(sender, body); err != nil {
		s.logger.Error("Failed to record message from %s: %v", sender, err)
	}

	line := fmt.Sprintf("%s:%s", sender, body)

	s.mu.RLock()
	targets := make([]*User, 0, len(s.users))
	for _, user := range s.users {
		targets = append(targets, user)
	}
	s.mu.RUnlock()

	var failed []*User
	for _, user := range targets {
		if err := user.Send(line); err != nil {
			s.logger.Error("Failed to send to %s: %v", user.Name(), err)
			failed = append(failed, user)
		}
	}

	for _, user := range failed {
		s.disconnect(user)
	}
}

// disconnect removes a user, returns the name to the pool and closes
// the connection. Disconnecting an already removed user is a no-op.
func (s *ChatServer) disconnect(user *User) {
	s.mu.Lock()
	if _, ok := s.users[user.Name()]; !ok {
		s.mu.Unlock()
		user.Close()
		return
	}
	delete(s.users, user.Name())
	s.mu.Unlock()

	s.pool.Return(user.Name())
	user.Close()

	s.logger.Info("Client disconnected. Places left: %d", s.pool.Free())
}

// startIdleChecker arms the idle check timer. The timer field is only
// written under s.mu so Stop can safely cancel it, and re-arming is
// gated on the same stopping check.
func (s *ChatServer) startIdleChecker() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopping {
		return
	}

	s.idleCheckTimer = time.AfterFunc(s.idleCheckInterval, func() {
		s.checkIdleUsers()
		s.startIdleChecker()
	})
}

// checkIdleUsers drops users that have been silent past the configured
// timeout
func (s *ChatServer) checkIdleUsers() {
	timeout := time.Duration(s.cfg.Chat.DropNoActivity) * time.Second
	if timeout <= 0 {
		return
	}

	s.mu.RLock()
	var idle []*User
	for _, user := range s.users {
		if user.IdleTime() > timeout {
			idle = append(idle, user)
		}
	}
	s.mu.RUnlock()

	for _, user := range idle {
		s.logger.Info("Dropping %s due to inactivity (%s)", user.Name(), user.IdleTime().Round(time.Second))
		s.disconnect(user)
	}
}
