package ftp

import "sync"

// sessionManager tracks the live sessions of a server.
type sessionManager struct {
	sessions map[string]*session // Map of active sessions
	lock     sync.RWMutex        // Protects the sessions map
}

func newSessionManager() *sessionManager {
	return &sessionManager{
		sessions: make(map[string]*session),
	}
}

// Add adds a new session for the client.
func (manager *sessionManager) Add(id string, s *session) {
	manager.lock.Lock()
	defer manager.lock.Unlock()
	manager.sessions[id] = s
}

// Remove removes a session by its ID.
func (manager *sessionManager) Remove(id string) {
	manager.lock.Lock()
	defer manager.lock.Unlock()
	delete(manager.sessions, id)
}

// Len returns the number of registered sessions.
func (manager *sessionManager) Len() int {
	manager.lock.RLock()
	defer manager.lock.RUnlock()
	return len(manager.sessions)
}

// CloseAll closes the socket of every registered session. The sessions
// unregister themselves once their read fails.
func (manager *sessionManager) CloseAll() {
	manager.lock.RLock()
	defer manager.lock.RUnlock()
	for _, s := range manager.sessions {
		_ = s.conn.Close()
	}
}
