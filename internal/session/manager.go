// Package session drives the stream client from the user's session: a
// session start connects with the session credential, a session end
// disconnects.
package session

import (
	"sync"

	"github.com/rs/zerolog"
)

// Connector is the part of the stream client a session drives.
type Connector interface {
	Connect(url, credential string)
	Disconnect()
}

// Manager tracks the current session and keeps the stream client in step
// with it.
type Manager struct {
	connector Connector
	url       string
	logger    *zerolog.Logger

	mu         sync.Mutex
	active     bool
	credential string
}

// NewManager creates a manager that connects c to the stream at url.
func NewManager(c Connector, url string, logger *zerolog.Logger) *Manager {
	return &Manager{connector: c, url: url, logger: logger}
}

// Start begins a session with credential, or switches the running session
// to a new credential. Starting again with the same credential does nothing.
func (m *Manager) Start(credential string) {
	m.mu.Lock()
	if m.active && m.credential == credential {
		m.mu.Unlock()
		return
	}
	rotated := m.active
	m.active = true
	m.credential = credential
	m.mu.Unlock()

	if rotated {
		m.logger.Info().Msg("Session credential changed, reconnecting")
	} else {
		m.logger.Info().Msg("Session started")
	}
	m.connector.Connect(m.url, credential)
}

// End ends the session. Ending when no session is active does nothing.
func (m *Manager) End() {
	m.mu.Lock()
	if !m.active {
		m.mu.Unlock()
		return
	}
	m.active = false
	m.credential = ""
	m.mu.Unlock()

	m.logger.Info().Msg("Session ended")
	m.connector.Disconnect()
}

// Active reports whether a session is running.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}
