package testsupport

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rafabene/carelink-accounts/internal/domain/entities"
)

// SentMessage é uma mensagem capturada pelo RecordingNotifier
type SentMessage struct {
	Destination string
	Message     string
}

// RecordingNotifier guarda as mensagens entregues; Fail simula o gateway fora do ar
type RecordingNotifier struct {
	mu       sync.Mutex
	messages []SentMessage
	fail     bool
}

var ErrGatewayDown = errors.New("sms gateway unavailable")

func (n *RecordingNotifier) Deliver(_ context.Context, destination, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return ErrGatewayDown
	}
	n.messages = append(n.messages, SentMessage{Destination: destination, Message: message})
	return nil
}

// SetFailing liga ou desliga a falha de entrega
func (n *RecordingNotifier) SetFailing(fail bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.fail = fail
}

// Messages retorna uma cópia das mensagens entregues
func (n *RecordingNotifier) Messages() []SentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]SentMessage(nil), n.messages...)
}

// RecordingPublisher guarda os eventos publicados
type RecordingPublisher struct {
	mu     sync.Mutex
	events []entities.AccountEvent
}

func (p *RecordingPublisher) Publish(_ context.Context, event entities.AccountEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

// Types retorna os tipos dos eventos na ordem de publicação
func (p *RecordingPublisher) Types() []entities.AccountEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]entities.AccountEventType, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

// Events retorna uma cópia dos eventos publicados
func (p *RecordingPublisher) Events() []entities.AccountEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]entities.AccountEvent(nil), p.events...)
}

// Clock é um relógio manual
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock cria um relógio parado em now
func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance move o relógio para frente
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// SequenceCodes gera códigos previsíveis: "100001", "100002", ...
type SequenceCodes struct {
	mu   sync.Mutex
	next int
	last string
}

// Last retorna o último código gerado
func (s *SequenceCodes) Last() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *SequenceCodes) NumericCode(length int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.last = padCode(100000+s.next, length)
	return s.last, nil
}

func (s *SequenceCodes) URLSafeToken() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.last = "token-" + padCode(s.next, 8)
	return s.last, nil
}

func padCode(n, length int) string {
	digits := make([]byte, length)
	for i := length - 1; i >= 0; i-- {
		digits[i] = byte('0' + n%10)
		n /= 10
	}
	return string(digits)
}
