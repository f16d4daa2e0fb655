package rest

import (
	"net/http"
	"sync"
)

// Manager owns one shared connection handle. Adapters draw from a
// manager instead of global state, so sharing is explicit: everything
// holding the same manager shares one physical handle.
//
// All methods are safe for concurrent use; the handle itself serializes
// nothing beyond what net/http provides.
type Manager struct {
	mu      sync.Mutex
	conn    *Connection
	newConn func() *Connection
}

// NewManager creates a manager whose connections wrap the given HTTP
// client. A nil client gets a default one per connection.
func NewManager(client *http.Client) *Manager {
	return &Manager{
		newConn: func() *Connection { return NewConnection(client) },
	}
}

// Get returns the shared connection, creating it on first use. The same
// handle is returned until Close or Open replaces it.
func (m *Manager) Get() *Connection {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil {
		m.conn = m.newConn()
	}
	return m.conn
}

// Open unconditionally creates a fresh connection, replacing the shared
// reference. Any previous handle is left to its remaining holders;
// callers that want it released must Close first.
func (m *Manager) Open() *Connection {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conn = m.newConn()
	return m.conn
}

// Reset clears the configured options on the shared connection while
// keeping it open for reuse. A no-op when no connection exists yet.
func (m *Manager) Reset() {
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn != nil {
		conn.Reset()
	}
}

// Close releases the shared connection and clears the reference, so the
// next Get creates a new handle.
func (m *Manager) Close() error {
	m.mu.Lock()
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}
