package websocket

// SessionNotifier транслирует события жизненного цикла сессии в
// websocket-события владельцу сессии. Реализует testsession.Notifier.
type SessionNotifier struct {
	hub *Hub
}

// NewSessionNotifier создает нотификатор поверх hub
func NewSessionNotifier(hub *Hub) *SessionNotifier {
	return &SessionNotifier{hub: hub}
}

func (n *SessionNotifier) SessionTick(sessionID string, userID uint, secondsLeft int) {
	n.hub.SendToUser(userID, Event{
		Type: EventSessionTick,
		Data: map[string]interface{}{
			"session_id":   sessionID,
			"seconds_left": secondsLeft,
		},
	})
}

func (n *SessionNotifier) SessionAutoSubmitted(sessionID string, userID uint) {
	n.hub.SendToUser(userID, Event{
		Type: EventSessionAutoSubmitted,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"message":    "Time is up, your answers were submitted automatically",
		},
	})
}

func (n *SessionNotifier) SessionResultsAvailable(sessionID string, userID uint, attemptID uint) {
	n.hub.SendToUser(userID, Event{
		Type: EventSessionResultsAvailable,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"attempt_id": attemptID,
		},
	})
}
