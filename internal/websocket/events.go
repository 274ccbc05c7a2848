package websocket

import "encoding/json"

// Типы событий, отправляемых клиентам
const (
	EventSessionTick             = "session:tick"
	EventSessionAutoSubmitted    = "session:auto_submitted"
	EventSessionResultsAvailable = "session:results_available"
)

// Event представляет событие, отправляемое клиенту
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Marshal сериализует событие в JSON
func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
