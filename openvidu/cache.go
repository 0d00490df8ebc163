package openvidu

import "sync"

// sessionCache is the active-session map owned exclusively by the Client.
// It reflects last-known state: entries are inserted by CreateSession,
// refreshed by the fetch operations, and removed when a close or deletion
// is observed. Nothing else touches it.
type sessionCache struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func newSessionCache() *sessionCache {
	return &sessionCache{sessions: make(map[string]*Session)}
}

func (c *sessionCache) get(id string) (*Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	session, ok := c.sessions[id]
	return session, ok
}

func (c *sessionCache) put(session *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[session.ID()] = session
}

// remove deletes the entry and reports whether it was present.
func (c *sessionCache) remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sessions[id]; !ok {
		return false
	}
	delete(c.sessions, id)
	return true
}

func (c *sessionCache) snapshot() []*Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sessions := make([]*Session, 0, len(c.sessions))
	for _, session := range c.sessions {
		sessions = append(sessions, session)
	}
	return sessions
}

func (c *sessionCache) ids() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.sessions))
	for id := range c.sessions {
		ids = append(ids, id)
	}
	return ids
}
