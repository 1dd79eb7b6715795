package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rafabene/carelink-accounts/internal/domain/ports"
	"github.com/rafabene/carelink-accounts/internal/infrastructure/metrics"
)

// PindoNotifier entrega SMS pela API HTTP da Pindo
type PindoNotifier struct {
	client   *http.Client
	endpoint string
	token    string
	sender   string
	logger   ports.Logger
}

type pindoRequest struct {
	To     string `json:"to"`
	Text   string `json:"text"`
	Sender string `json:"sender"`
}

// NewPindoNotifier cria o cliente; timeout limita cada entrega
func NewPindoNotifier(endpoint, token, sender string, timeout time.Duration, logger ports.Logger) ports.Notifier {
	return &PindoNotifier{
		client:   &http.Client{Timeout: timeout},
		endpoint: endpoint,
		token:    token,
		sender:   sender,
		logger:   logger,
	}
}

func (p *PindoNotifier) Deliver(ctx context.Context, destination, message string) error {
	status, err := p.deliver(ctx, destination, message)
	if err != nil {
		metrics.SMSDeliveriesTotal.WithLabelValues("pindo", "failure").Inc()
		p.logger.WithContext(ctx).Warn("pindo sms delivery failed",
			"to", maskDestination(destination),
			"status", status,
			"error", err,
		)
		return err
	}

	metrics.SMSDeliveriesTotal.WithLabelValues("pindo", "success").Inc()
	p.logger.WithContext(ctx).Debug("pindo sms accepted", "to", maskDestination(destination), "status", status)
	return nil
}

// deliver retorna o status HTTP da Pindo, ou 0 se a requisição não chegou a ela
func (p *PindoNotifier) deliver(ctx context.Context, destination, message string) (int, error) {
	body, err := json.Marshal(pindoRequest{To: destination, Text: message, Sender: p.sender})
	if err != nil {
		return 0, fmt.Errorf("encode sms request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, fmt.Errorf("sms provider returned %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// maskDestination mantém só os 4 últimos dígitos
func maskDestination(destination string) string {
	if len(destination) <= 4 {
		return "****"
	}
	return "****" + destination[len(destination)-4:]
}

// LogNotifier apenas registra a mensagem; usado em desenvolvimento
type LogNotifier struct {
	logger ports.Logger
}

// NewLogNotifier cria o notifier de desenvolvimento
func NewLogNotifier(logger ports.Logger) ports.Notifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Deliver(ctx context.Context, destination, message string) error {
	l.logger.WithContext(ctx).Info("sms delivery (log provider)",
		"to", destination,
		"message", message,
	)
	metrics.SMSDeliveriesTotal.WithLabelValues("log", "success").Inc()
	return nil
}
