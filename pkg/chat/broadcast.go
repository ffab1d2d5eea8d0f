package chat

// Broadcaster is the capability the real-time hub exposes to everything that
// emits events: presence, typing, the dispatcher and the REST handlers. It is
// transport-agnostic; connection IDs are opaque.
type Broadcaster interface {
	// SendTo delivers to one connection.
	SendTo(connID, event string, payload any)
	// SendToRoom delivers to every connection joined to the room, skipping
	// the excluded connection IDs.
	SendToRoom(roomID, event string, payload any, exclude ...string)
	// SendToUser delivers to all live connections of one identity.
	SendToUser(userID, event string, payload any)
	// SendToAll delivers to every registered connection, skipping the
	// excluded connection IDs.
	SendToAll(event string, payload any, exclude ...string)
}
