package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rafabene/carelink-accounts/internal/domain/entities"
	"github.com/rafabene/carelink-accounts/internal/domain/ports"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 32

	defaultRecheckPeriod = time.Minute
)

// SessionCheck revalida o assinante durante a conexão; um erro encerra a sessão
type SessionCheck func(ctx context.Context) error

// Hub distribui eventos de conta para os websockets conectados.
// Implementa ports.EventPublisher.
type Hub struct {
	logger         ports.Logger
	upgrader       websocket.Upgrader
	allowedOrigins []string
	recheckPeriod  time.Duration

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
}

type client struct {
	conn    *websocket.Conn
	send    chan []byte
	check   SessionCheck
	ctx     context.Context
	recheck time.Duration
	logger  ports.Logger
}

// Option configura o Hub
type Option func(*Hub)

// WithAllowedOrigins restringe o header Origin do handshake.
// Lista vazia aceita qualquer origem.
func WithAllowedOrigins(origins []string) Option {
	return func(h *Hub) {
		h.allowedOrigins = origins
	}
}

// WithRecheckPeriod define de quanto em quanto tempo a SessionCheck roda
func WithRecheckPeriod(period time.Duration) Option {
	return func(h *Hub) {
		if period > 0 {
			h.recheckPeriod = period
		}
	}
}

// NewHub cria um hub sem clientes
func NewHub(logger ports.Logger, opts ...Option) *Hub {
	h := &Hub{
		logger:        logger,
		recheckPeriod: defaultRecheckPeriod,
		clients:       make(map[*client]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// checkOrigin aplica a lista de origens ao handshake, que o CORS não cobre.
// Clientes que não são navegadores não enviam Origin.
func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if len(h.allowedOrigins) == 0 || origin == "" {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if strings.EqualFold(origin, allowed) {
			return true
		}
	}
	return false
}

// Publish serializa o evento e o envia sem bloquear; clientes lentos perdem a mensagem
func (h *Hub) Publish(ctx context.Context, event entities.AccountEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.WithContext(ctx).Error("failed to encode account event", "type", event.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("dropping account event for slow subscriber", "type", event.Type)
		}
	}
}

// ServeWS faz o upgrade da conexão e bloqueia até o cliente desconectar.
// Se check não for nil, roda periodicamente e fecha a conexão ao falhar.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, check SessionCheck) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		check:   check,
		ctx:     r.Context(),
		recheck: h.recheckPeriod,
		logger:  h.logger,
	}
	if !h.add(c) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		return conn.Close()
	}

	go c.writePump()
	c.readPump()

	h.remove(c)
	return nil
}

// ClientCount retorna o número de assinantes conectados
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close desconecta todos os assinantes e recusa novos
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// readPump descarta mensagens do cliente e detecta a desconexão
func (c *client) readPump() {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	var recheck <-chan time.Time
	if c.check != nil {
		recheckTicker := time.NewTicker(c.recheck)
		defer recheckTicker.Stop()
		recheck = recheckTicker.C
	}
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-recheck:
			if err := c.check(c.ctx); err != nil {
				c.logger.WithContext(c.ctx).Info("closing event stream: session no longer valid", "error", err)
				_ = c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "session expired"),
					time.Now().Add(writeWait))
				return
			}
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
