package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/onsi/gomega"

	"github.com/rafabene/carelink-accounts/internal/domain/entities"
	domainerrors "github.com/rafabene/carelink-accounts/internal/domain/errors"
	"github.com/rafabene/carelink-accounts/internal/infrastructure/logging"
)

func newTestServer(t *testing.T, hub *Hub) *httptest.Server {
	return newCheckedServer(t, hub, nil)
}

func newCheckedServer(t *testing.T, hub *Hub, check SessionCheck) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.ServeWS(w, r, check)
	}))
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("falha ao conectar: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_PublishReachesSubscribers(t *testing.T) {
	g := NewWithT(t)
	hub := NewHub(logging.NewNopLogger())
	server := newTestServer(t, hub)

	first := dial(t, server)
	second := dial(t, server)
	g.Eventually(hub.ClientCount).Should(Equal(2))

	hub.Publish(context.Background(), entities.AccountEvent{
		Type:       entities.EventUserVerified,
		UserID:     7,
		OccurredAt: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	})

	for _, conn := range []*websocket.Conn{first, second} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		g.Expect(err).NotTo(HaveOccurred())

		var event entities.AccountEvent
		g.Expect(json.Unmarshal(data, &event)).To(Succeed())
		g.Expect(event.Type).To(Equal(entities.EventUserVerified))
		g.Expect(event.UserID).To(Equal(uint(7)))
	}
}

func TestHub_DisconnectRemovesClient(t *testing.T) {
	g := NewWithT(t)
	hub := NewHub(logging.NewNopLogger())
	server := newTestServer(t, hub)

	conn := dial(t, server)
	g.Eventually(hub.ClientCount).Should(Equal(1))

	conn.Close()
	g.Eventually(hub.ClientCount, 2*time.Second).Should(BeZero())

	// Publicar sem assinantes não pode bloquear
	hub.Publish(context.Background(), entities.AccountEvent{Type: entities.EventRoleCreated, RoleID: 1})
}

func TestHub_Close(t *testing.T) {
	g := NewWithT(t)
	hub := NewHub(logging.NewNopLogger())
	server := newTestServer(t, hub)

	conn := dial(t, server)
	g.Eventually(hub.ClientCount).Should(Equal(1))

	hub.Close()
	g.Expect(hub.ClientCount()).To(BeZero())

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	g.Expect(err).To(HaveOccurred())

	// Depois de fechado, novas conexões são recusadas
	late := dial(t, server)
	_ = late.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = late.ReadMessage()
	g.Expect(websocket.IsCloseError(err, websocket.CloseGoingAway)).To(BeTrue())

	hub.Close()
}

func TestHub_CheckOrigin(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		ok      bool
	}{
		{"sem lista aceita qualquer origem", nil, "https://evil.example.com", true},
		{"origem permitida", []string{"https://app.example.com"}, "https://app.example.com", true},
		{"comparação sem diferenciar maiúsculas", []string{"https://app.example.com"}, "https://APP.example.com", true},
		{"origem fora da lista", []string{"https://app.example.com"}, "https://evil.example.com", false},
		{"cliente sem Origin", []string{"https://app.example.com"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := NewHub(logging.NewNopLogger(), WithAllowedOrigins(tt.allowed))
			server := newTestServer(t, hub)

			header := http.Header{}
			if tt.origin != "" {
				header.Set("Origin", tt.origin)
			}
			url := "ws" + strings.TrimPrefix(server.URL, "http")
			conn, resp, err := websocket.DefaultDialer.Dial(url, header)
			if conn != nil {
				defer conn.Close()
			}

			if tt.ok && err != nil {
				t.Fatalf("esperava handshake aceito, obteve %v", err)
			}
			if !tt.ok {
				if err == nil {
					t.Fatal("esperava handshake recusado")
				}
				if resp == nil || resp.StatusCode != http.StatusForbidden {
					t.Errorf("esperava 403 no handshake, obteve %v", resp)
				}
			}
		})
	}
}

func TestHub_SessionCheckClosesStream(t *testing.T) {
	g := NewWithT(t)
	hub := NewHub(logging.NewNopLogger(), WithRecheckPeriod(20*time.Millisecond))

	var expired atomic.Bool
	var checks atomic.Int32
	server := newCheckedServer(t, hub, func(context.Context) error {
		checks.Add(1)
		if expired.Load() {
			return domainerrors.ErrTokenExpired
		}
		return nil
	})

	conn := dial(t, server)
	g.Eventually(hub.ClientCount).Should(Equal(1))
	g.Eventually(checks.Load).Should(BeNumerically(">=", 2))
	g.Expect(hub.ClientCount()).To(Equal(1))

	expired.Store(true)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	g.Expect(websocket.IsCloseError(err, websocket.ClosePolicyViolation)).To(BeTrue(), "erro: %v", err)
	g.Eventually(hub.ClientCount, 2*time.Second).Should(BeZero())
}
