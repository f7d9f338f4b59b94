package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/undiscoveredWorld/chat-on-sockets/internal/config"
	"github.com/undiscoveredWorld/chat-on-sockets/internal/history"
	"github.com/undiscoveredWorld/chat-on-sockets/internal/logging"
)

// HTTPServer exposes a small admin API over the chat server: who is
// connected and what has been said.
type HTTPServer struct {
	cfg        *config.Config
	logger     *logging.Logger
	chatServer *ChatServer
	store      *history.Store
	server     *http.Server
}

// NewHTTPServer creates a new admin HTTP server
func NewHTTPServer(cfg *config.Config, logger *logging.Logger, chatServer *ChatServer, store *history.Store) (*HTTPServer, error) {
	httpServer := &HTTPServer{
		cfg:        cfg,
		logger:     logger,
		chatServer: chatServer,
		store:      store,
	}

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Interface, cfg.HTTP.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      httpServer.createHandler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	httpServer.server = server

	return httpServer, nil
}

// Start starts the HTTP server
func (s *HTTPServer) Start() error {
	s.logger.Info("Starting admin HTTP server on %s:%d", s.cfg.HTTP.Interface, s.cfg.HTTP.Port)
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server
func (s *HTTPServer) Stop() {
	if s.server != nil {
		s.logger.Info("Stopping admin HTTP server")
		s.server.Close()
	}
}

// createHandler creates the HTTP handler for the server
func (s *HTTPServer) createHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/server/userlist/", s.handleUserList)
	mux.HandleFunc("/server/userstat/", s.handleUserStatus)
	mux.HandleFunc("/server/history/", s.handleHistory)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Trace("HTTP %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)

		// Basic authentication
		user, pass, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="Chat Server"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		if expectedPass, exists := s.cfg.HTTP.Logins[user]; !exists || expectedPass != pass {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		mux.ServeHTTP(w, r)
	})
}

// handleUserList returns all connected users
func (s *HTTPServer) handleUserList(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"ResultCode":    0,
		"ResultMessage": "OK",
		"Users":         s.chatServer.GetUsers(),
		"PlacesLeft":    s.chatServer.pool.Free(),
		"Capacity":      s.chatServer.pool.Capacity(),
	}

	writeJSON(w, response)
}

// handleUserStatus returns detailed information about one user
func (s *HTTPServer) handleUserStatus(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "Missing user name", http.StatusBadRequest)
		return
	}

	user := s.chatServer.GetUser(name)
	if user == nil {
		writeJSON(w, map[string]interface{}{
			"ResultCode":    200,
			"ResultMessage": "User is offline",
		})
		return
	}

	writeJSON(w, map[string]interface{}{
		"ResultCode":    0,
		"ResultMessage": "OK",
		"User":          user.GetDetailedInfo(),
	})
}

// handleHistory returns recent chat history
func (s *HTTPServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.History.ReplayLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	messages, err := s.store.Recent(limit)
	if err != nil {
		s.logger.Error("Failed to load history: %v", err)
		writeJSON(w, map[string]interface{}{
			"ResultCode":    500,
			"ResultMessage": "Failed to load history",
		})
		return
	}

	type entry struct {
		Sender string `json:"Sender"`
		Body   string `json:"Body"`
		SentAt string `json:"SentAt"`
	}

	entries := make([]entry, 0, len(messages))
	for _, m := range messages {
		entries = append(entries, entry{
			Sender: m.Sender,
			Body:   m.Body,
			SentAt: m.SentAt.Format("2006-01-02 15:04:05"),
		})
	}

	writeJSON(w, map[string]interface{}{
		"ResultCode":    0,
		"ResultMessage": "OK",
		"Messages":      entries,
	})
}

// writeJSON writes a JSON response with the standard headers
func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}
