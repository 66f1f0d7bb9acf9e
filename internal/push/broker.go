package push

import (
	"github.com/rs/zerolog/log"
)

// Conn is one live client connection able to receive pushed events.
type Conn interface {
	ID() string
	// Deliver enqueues ev without blocking. It returns false when the
	// connection's buffer is full and the event was dropped.
	Deliver(ev Event) bool
}

// ConnSource yields the live connections to fan out over, keyed by user.
type ConnSource interface {
	ConnsFor(userID string) []Conn
	ConnsExcept(connID string) []Conn
}

// Broker addresses notifications by user identity, not by connection.
// Delivery to a user with no live connection is a no-op; the durable state
// is reconciled when they next connect.
type Broker struct {
	source ConnSource
}

func NewBroker(source ConnSource) *Broker {
	return &Broker{source: source}
}

// SendToUser fans ev out to every live connection the user currently holds.
func (b *Broker) SendToUser(userID string, ev Event) {
	for _, conn := range b.source.ConnsFor(userID) {
		if !conn.Deliver(ev) {
			log.Warn().
				Str("userId", userID).
				Str("connId", conn.ID()).
				Str("event", ev.Type).
				Msg("client event buffer full, dropping event")
		}
	}
}

// SendToAllExcept broadcasts ev to every live connection other than the
// originating one. Used only for presence changes.
func (b *Broker) SendToAllExcept(connID string, ev Event) {
	for _, conn := range b.source.ConnsExcept(connID) {
		if !conn.Deliver(ev) {
			log.Warn().
				Str("connId", conn.ID()).
				Str("event", ev.Type).
				Msg("client event buffer full, dropping event")
		}
	}
}

// SendToConn delivers ev to a single connection, for replies that must reach
// only the calling client.
func (b *Broker) SendToConn(conn Conn, ev Event) {
	if !conn.Deliver(ev) {
		log.Warn().
			Str("connId", conn.ID()).
			Str("event", ev.Type).
			Msg("client event buffer full, dropping event")
	}
}
