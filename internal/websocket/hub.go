package websocket

import (
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Hub ведет реестр активных соединений и доставляет события.
// У одного пользователя может быть несколько соединений (вкладок):
// адресные события дублируются в каждое.
type Hub struct {
	mu sync.RWMutex
	// userID -> множество соединений
	clients map[uint]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client

	done chan struct{}
	once sync.Once
}

// NewHub создает новый hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run обрабатывает регистрацию и снятие соединений. Запускается одной
// горутиной при старте приложения.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.UserID] == nil {
				h.clients[client.UserID] = make(map[*Client]struct{})
			}
			h.clients[client.UserID][client] = struct{}{}
			h.mu.Unlock()
			log.Printf("[WebSocket] Соединение %s зарегистрировано (user %d)", client.ConnectionID, client.UserID)

		case client := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.clients[client.UserID]; ok {
				if _, exists := conns[client]; exists {
					delete(conns, client)
					close(client.send)
					if len(conns) == 0 {
						delete(h.clients, client.UserID)
					}
				}
			}
			h.mu.Unlock()
			log.Printf("[WebSocket] Соединение %s снято (user %d)", client.ConnectionID, client.UserID)

		case <-h.done:
			h.mu.Lock()
			for _, conns := range h.clients {
				for client := range conns {
					close(client.send)
				}
			}
			h.clients = make(map[uint]map[*Client]struct{})
			h.mu.Unlock()
			return
		}
	}
}

// Shutdown останавливает hub и закрывает все соединения
func (h *Hub) Shutdown() {
	h.once.Do(func() {
		close(h.done)
	})
}

// detach снимает соединение с учета. После Shutdown цикл Run уже не
// читает unregister, поэтому отправка не должна блокировать навсегда.
func (h *Hub) detach(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// SendToUser отправляет событие во все соединения пользователя.
// При переполненном буфере соединения событие пропускается: тики
// идут раз в секунду, отставший клиент получит следующий.
func (h *Hub) SendToUser(userID uint, event Event) {
	data, err := event.Marshal()
	if err != nil {
		log.Printf("[WebSocket] Ошибка сериализации события %s: %v", event.Type, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[userID] {
		select {
		case client.send <- data:
		default:
			log.Printf("[WebSocket] Буфер соединения %s переполнен, событие %s пропущено",
				client.ConnectionID, event.Type)
		}
	}
}

// ConnectionCount возвращает общее количество активных соединений
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, conns := range h.clients {
		total += len(conns)
	}
	return total
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Проверку Origin выполняет CORS middleware до апгрейда
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleConnection апгрейдит HTTP-запрос до WebSocket и запускает
// насосы чтения и записи для нового соединения
func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request, userID uint) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := &Client{
		UserID:       userID,
		ConnectionID: uuid.NewString(),
		hub:          h,
		conn:         conn,
		send:         make(chan []byte, clientBufferSize),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return http.ErrServerClosed
	}

	go client.writePump()
	go client.readPump()
	return nil
}
