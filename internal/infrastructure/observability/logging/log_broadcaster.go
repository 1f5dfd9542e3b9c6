// Package logging provides the log broadcaster for real-time log streaming.
package logging

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// LogEntry represents a single log entry to be sent to the client.
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Channel   string `json:"channel"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	TenantID  string `json:"tenantId,omitempty"`
}

// Client represents a single connected client (a browser tab) listening for logs.
type Client struct {
	id      string         // Unique ID for the client connection.
	Channel chan []byte    // Channel to send log messages to this client.
	filters AppliedFilters // Filters for channel, level and tenant.
}

// AppliedFilters defines the filtering criteria for a client.
type AppliedFilters struct {
	Channel  Channel    // e.g., "database", "drafts"; "all" matches every channel
	Level    slog.Level // e.g., slog.LevelInfo
	TenantID string     // empty matches every tenant
}

// LogBroadcaster manages clients and broadcasts log messages.
type LogBroadcaster struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	mu         sync.RWMutex
	logger     *slog.Logger // Use a standard slog logger for broadcaster's internal logging.
	stop       chan struct{}
}

var (
	broadcaster *LogBroadcaster
	once        sync.Once
)

// GetBroadcaster initializes and returns the singleton LogBroadcaster instance.
func GetBroadcaster() *LogBroadcaster {
	once.Do(func() {
		broadcaster = &LogBroadcaster{
			clients:    make(map[*Client]bool),
			register:   make(chan *Client),
			unregister: make(chan *Client),
			broadcast:  make(chan []byte, 1000), // Buffered channel for logs.
			logger:     slog.Default().With("component", "LogBroadcaster"),
			stop:       make(chan struct{}),
		}
		go broadcaster.run()
	})
	return broadcaster
}

// run is the central loop that manages the broadcaster's state and operations.
func (b *LogBroadcaster) run() {
	b.logger.Info("Log broadcaster is running.")
	for {
		select {
		case <-b.stop:
			b.logger.Info("Log broadcaster is shutting down.")
			return
		case client := <-b.register:
			b.add(client)
		case client := <-b.unregister:
			b.remove(client)
		case message := <-b.broadcast:
			b.distribute(message)
		}
	}
}

func (b *LogBroadcaster) add(client *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients[client] = true
	b.logger.Info("Client registered", "id", client.id, "filters", client.filters)
}

func (b *LogBroadcaster) remove(client *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[client]; ok {
		delete(b.clients, client)
		close(client.Channel)
		b.logger.Info("Client unregistered", "id", client.id)
	}
}

// parseLevel maps a slog level string back to its numeric value so the
// severity comparison is numeric, not lexicographic.
func parseLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// distribute sends a log message to all clients whose filters match.
func (b *LogBroadcaster) distribute(message []byte) {
	var entry LogEntry
	if err := json.Unmarshal(message, &entry); err != nil {
		b.logger.Error("Failed to unmarshal log entry for distribution", "error", err)
		return
	}

	entryLevel := parseLevel(entry.Level)

	b.mu.RLock()
	defer b.mu.RUnlock()

	for client := range b.clients {
		if !client.filters.matches(entry, entryLevel) {
			continue
		}
		select {
		case client.Channel <- message:
		default:
			// Slow or disconnected client. Drop the message rather
			// than block the logging path.
		}
	}
}

// matches reports whether an entry passes the client's channel, level and
// tenant filters. A "all" channel or empty tenant filter matches everything.
func (f AppliedFilters) matches(entry LogEntry, level slog.Level) bool {
	if f.Channel != "all" && f.Channel != Channel(entry.Channel) {
		return false
	}
	if level < f.Level {
		return false
	}
	return f.TenantID == "" || f.TenantID == entry.TenantID
}

// SubmitLog is the public method used by the logger to send a log entry to the broadcaster.
func (b *LogBroadcaster) SubmitLog(entry LogEntry) {
	message, err := json.Marshal(entry)
	if err != nil {
		b.logger.Error("Failed to marshal log entry for broadcast", "error", err)
		return
	}

	// Send to the broadcast channel without blocking.
	select {
	case b.broadcast <- message:
	default:
		// If the broadcast channel is full, this means the system is under very high logging load.
		// We drop the log to prevent blocking the application.
		fmt.Println("Log broadcaster channel full. Log message dropped.")
	}
}

// NewClient creates a new client for the broadcaster.
func (b *LogBroadcaster) NewClient(filters AppliedFilters) *Client {
	return &Client{
		id:      fmt.Sprintf("%d", time.Now().UnixNano()),
		Channel: make(chan []byte, 100), // Buffer for each client.
		filters: filters,
	}
}

// Shutdown gracefully stops the broadcaster.
func (b *LogBroadcaster) Shutdown() {
	close(b.stop)
}

// RegisterClient is the public method for adding a new client.
func (b *LogBroadcaster) RegisterClient(client *Client) {
	b.register <- client
}

// UnregisterClient is the public method for removing a client.
func (b *LogBroadcaster) UnregisterClient(client *Client) {
	b.unregister <- client
}
