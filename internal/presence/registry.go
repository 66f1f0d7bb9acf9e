package presence

import (
	"hash/fnv"
	"sync"

	"github.com/storelink/chat-server-go/internal/push"
)

// Session is the live, in-memory record of one connected user: their
// canonical connection handle, the conversation they currently have open,
// and the online flag. Owned exclusively by the Registry.
type Session struct {
	UserID        string
	ConnectionID  string
	CurrentPeerID string
	Online        bool
}

type entry struct {
	session Session
	conns   map[string]push.Conn
}

const shardCount = 32

type shard struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// Registry maps user identity to session state. It is sharded by user id so
// presence changes from unrelated users do not serialize against each other.
type Registry struct {
	shards [shardCount]*shard
}

func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i] = &shard{entries: make(map[string]*entry)}
	}
	return r
}

func (r *Registry) shardFor(userID string) *shard {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return r.shards[h.Sum32()%shardCount]
}

// Register records a live connection for userID. The first registration
// creates the session and returns false; the caller should broadcast "came
// online". A repeat registration (second tab, reconnect) overwrites only the
// canonical connection handle and returns true, so no duplicate presence
// broadcast is emitted. Last connect wins for delivery targeting.
func (r *Registry) Register(userID string, conn push.Conn) (alreadyOnline bool) {
	s := r.shardFor(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[userID]
	if !ok {
		s.entries[userID] = &entry{
			session: Session{
				UserID:       userID,
				ConnectionID: conn.ID(),
				Online:       true,
			},
			conns: map[string]push.Conn{conn.ID(): conn},
		}
		return false
	}

	e.session.ConnectionID = conn.ID()
	e.conns[conn.ID()] = conn
	return true
}

// SetCurrentPeer records which conversation the user has open. No-op if the
// user is not connected.
func (r *Registry) SetCurrentPeer(userID, peerID string) {
	s := r.shardFor(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[userID]; ok {
		e.session.CurrentPeerID = peerID
	}
}

// Deregister removes one connection from the user's session. The session
// survives while other connections remain, so a stale socket closing after a
// reconnect cannot wipe the live one; if the closing connection was the
// canonical handle, one of the survivors is promoted. Reports whether the
// user went offline, in which case the caller broadcasts it.
func (r *Registry) Deregister(userID, connID string) (wentOffline bool) {
	s := r.shardFor(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[userID]
	if !ok {
		return false
	}

	delete(e.conns, connID)
	if len(e.conns) == 0 {
		delete(s.entries, userID)
		return true
	}

	if e.session.ConnectionID == connID {
		for id := range e.conns {
			e.session.ConnectionID = id
			break
		}
	}
	return false
}

func (r *Registry) IsOnline(userID string) bool {
	s := r.shardFor(userID)
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.entries[userID]
	return ok
}

// TryGetSession returns a copy of the user's session, if connected.
func (r *Registry) TryGetSession(userID string) (Session, bool) {
	s := r.shardFor(userID)
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[userID]
	if !ok {
		return Session{}, false
	}
	return e.session, true
}

func (r *Registry) AllOnlineUserIDs() []string {
	var ids []string
	for _, s := range r.shards {
		s.mu.RLock()
		for id := range s.entries {
			ids = append(ids, id)
		}
		s.mu.RUnlock()
	}
	return ids
}

// ConnsFor returns a snapshot of every live connection the user holds.
func (r *Registry) ConnsFor(userID string) []push.Conn {
	s := r.shardFor(userID)
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[userID]
	if !ok {
		return nil
	}
	conns := make([]push.Conn, 0, len(e.conns))
	for _, c := range e.conns {
		conns = append(conns, c)
	}
	return conns
}

// ConnsExcept returns every live connection except the named one. An empty
// connID matches nothing, so all connections are returned.
func (r *Registry) ConnsExcept(connID string) []push.Conn {
	var conns []push.Conn
	for _, s := range r.shards {
		s.mu.RLock()
		for _, e := range s.entries {
			for id, c := range e.conns {
				if id != connID {
					conns = append(conns, c)
				}
			}
		}
		s.mu.RUnlock()
	}
	return conns
}

var _ push.ConnSource = (*Registry)(nil)
