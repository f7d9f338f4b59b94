package server

import (
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/undiscoveredWorld/chat-on-sockets/internal/logging"
)

// UserInfo holds connection metadata for a chat user
type UserInfo struct {
	RemoteIP       string
	RemotePort     int
	ConnectTime    time.Time
	DisconnectTime time.Time
	LastAction     time.Time
}

// User represents a connected chat client with an assigned name
type User struct {
	conn    net.Conn
	name    string
	info    UserInfo
	closing bool
	mu      sync.Mutex
	logger  *logging.Logger
}

// NewUser wraps an accepted connection with its assigned chat name
func NewUser(conn net.Conn, logger *logging.Logger, name string) *User {
	now := time.Now()

	info := UserInfo{
		ConnectTime: now,
		LastAction:  now,
	}
	if addr, ok := conn.RemoteAddr().(*net.TCPAddr); ok {
		info.RemoteIP = addr.IP.String()
		info.RemotePort = addr.Port
	}

	return &User{
		conn:   conn,
		name:   name,
		info:   info,
		logger: logger,
	}
}

// Name returns the chat name assigned to this user
func (u *User) Name() string {
	return u.name
}

// IdleTime returns the time since the last activity
func (u *User) IdleTime() time.Duration {
	u.mu.Lock()
	defer u.mu.Unlock()
	return time.Since(u.info.LastAction)
}

// ConnectedTime returns how long the user has been connected
func (u *User) ConnectedTime() time.Duration {
	u.mu.Lock()
	defer u.mu.Unlock()
	return time.Since(u.info.ConnectTime)
}

// UpdateLastActivity updates the last activity timestamp
func (u *User) UpdateLastActivity() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.info.LastAction = time.Now()
}

// Send writes a line to the user's connection, appending the line
// terminator when missing
func (u *User) Send(message string) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.closing {
		return fmt.Errorf("connection is closing")
	}

	if !strings.HasSuffix(message, "\n") {
		message += "\n"
	}

	u.logger.Trace("Sending to %s: %s", u.name, strings.TrimSpace(message))

	_, err := u.conn.Write([]byte(message))
	return err
}

// Close closes the connection. Closing an already closed user is a no-op.
func (u *User) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.closing {
		return nil
	}

	u.closing = true
	u.info.DisconnectTime = time.Now()

	return u.conn.Close()
}

// GetDetailedInfo returns detailed information about the user for the
// admin API
func (u *User) GetDetailedInfo() map[string]interface{} {
	u.mu.Lock()
	defer u.mu.Unlock()

	return map[string]interface{}{
		"Name":          u.name,
		"RemoteIP":      u.info.RemoteIP,
		"RemotePort":    u.info.RemotePort,
		"Conn":          u.info.ConnectTime.Format("2006-01-02 15:04:05"),
		"Act":           u.info.LastAction.Format("2006-01-02 15:04:05"),
		"ConnectedTime": time.Since(u.info.ConnectTime).String(),
		"IdleTime":      time.Since(u.info.LastAction).String(),
	}
}
