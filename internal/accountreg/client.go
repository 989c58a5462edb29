// Package accountreg is the HTTP adapter for the external account-registration
// system that assigns the account number of an approved solicitud.
package accountreg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"apertura/internal/ownership"
	"apertura/internal/perfil"
	dErrors "apertura/pkg/domain-errors"
	"apertura/pkg/platform/circuit"
	"apertura/pkg/requestcontext"
)

// Request carries the approved applicant data.
type Request struct {
	SolicitudID string          `json:"external_id"`
	Tipo        string          `json:"tipo"`
	Titular     *ownership.Node `json:"titular"`
	Perfil      *perfil.Perfil  `json:"perfil_inversor,omitempty"`
	ProductorID string          `json:"productor_id,omitempty"`
	AprobadaPor string          `json:"aprobada_por"`
	AprobadaEn  time.Time       `json:"aprobada_en"`
}

type registerResponse struct {
	AccountNumber string `json:"account_number"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *circuit.Breaker
	timeout    time.Duration
	logger     *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(cl *Client) {
		cl.breaker = b
	}
}

func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.timeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = logger
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		breaker:    circuit.New("account_registry"),
		timeout:    15 * time.Second,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register submits the approved applicant and returns the external account
// number. The solicitud id doubles as idempotency key, so a retried call for
// the same solicitud yields the same account.
func (c *Client) Register(ctx context.Context, req Request) (string, error) {
	if req.SolicitudID == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "solicitud id is required")
	}
	if !c.breaker.Allow() {
		return "", dErrors.New(dErrors.CodeBadGateway, "account registry unavailable")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal registration: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/accounts", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build registry request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.SolicitudID)
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		httpReq.Header.Set("X-Request-ID", requestID)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.breaker.RecordFailure()
		if errors.Is(err, context.DeadlineExceeded) {
			return "", dErrors.Wrap(err, dErrors.CodeTimeout, "account registry timed out")
		}
		return "", dErrors.Wrap(err, dErrors.CodeBadGateway, "account registry unreachable")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		c.breaker.RecordFailure()
		return "", dErrors.Wrap(err, dErrors.CodeBadGateway, "read account registry response")
	}
	if resp.StatusCode >= 500 {
		if _, change := c.breaker.RecordFailure(); change.Opened {
			c.logger.WarnContext(ctx, "account registry circuit opened")
		}
		return "", dErrors.New(dErrors.CodeBadGateway, fmt.Sprintf("account registry returned %d", resp.StatusCode))
	}
	c.breaker.RecordSuccess()
	if resp.StatusCode >= 400 {
		return "", dErrors.New(dErrors.CodeBadGateway,
			fmt.Sprintf("account registry rejected solicitud with %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))))
	}

	var out registerResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeBadGateway, "malformed account registry response")
	}
	if out.AccountNumber == "" {
		return "", dErrors.New(dErrors.CodeBadGateway, "account registry returned no account number")
	}
	return out.AccountNumber, nil
}
