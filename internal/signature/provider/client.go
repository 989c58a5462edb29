// Package provider is the HTTP adapter for the external digital-signature
// provider. It submits documents for signing and fetches their current state,
// mapping provider payloads into signature.Document.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"apertura/internal/signature"
	dErrors "apertura/pkg/domain-errors"
	"apertura/pkg/platform/circuit"
	"apertura/pkg/requestcontext"
)

const (
	headerRequestID = "X-Request-ID"
	maxBodyBytes    = 1 << 20
)

// Client talks to the provider's REST API.
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
		breaker:    circuit.New("signature_provider"),
		timeout:    10 * time.Second,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitRequest asks the provider to open a signing process.
type SubmitRequest struct {
	ExternalID string
	Titulo     string
	Firmantes  []signature.Firmante
}

type submitPayload struct {
	ExternalID string          `json:"external_id"`
	Title      string          `json:"title"`
	Signers    []signerPayload `json:"signers"`
}

type signerPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type documentPayload struct {
	ID           string                `json:"id"`
	Title        string                `json:"title"`
	URL          string                `json:"url"`
	Status       string                `json:"status"`
	CancelReason string                `json:"cancel_reason"`
	UpdatedAt    time.Time             `json:"updated_at"`
	Signers      []signerStatusPayload `json:"signers"`
}

type signerStatusPayload struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	URL       string    `json:"url"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Submit opens a signing process and returns the issued document with the
// per-signer URLs.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (*signature.Document, error) {
	if len(req.Firmantes) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "at least one signer is required")
	}
	payload := submitPayload{ExternalID: req.ExternalID, Title: req.Titulo}
	for _, f := range req.Firmantes {
		payload.Signers = append(payload.Signers, signerPayload{Name: f.Nombre, Email: f.Email, Role: string(f.Role)})
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal submit payload: %w", err)
	}

	var doc documentPayload
	if err := c.do(ctx, http.MethodPost, "/documents", body, &doc); err != nil {
		return nil, err
	}
	return toDocument(doc)
}

// Fetch returns the provider's current snapshot of a document.
func (c *Client) Fetch(ctx context.Context, documentID string) (*signature.Document, error) {
	if documentID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "document id is required")
	}
	var doc documentPayload
	if err := c.do(ctx, http.MethodGet, "/documents/"+url.PathEscape(documentID), nil, &doc); err != nil {
		return nil, err
	}
	out, err := toDocument(doc)
	if err != nil {
		return nil, err
	}
	if out.ID != documentID {
		return nil, &signature.ProviderSyncError{
			Kind:       signature.SyncDocumentMismatch,
			DocumentID: documentID,
			Message:    fmt.Sprintf("provider answered with document %q", out.ID),
		}
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	if !c.breaker.Allow() {
		return dErrors.New(dErrors.CodeBadGateway, "signature provider unavailable")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build provider request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		req.Header.Set(headerRequestID, requestID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordFailure(ctx)
		if errors.Is(err, context.DeadlineExceeded) {
			return dErrors.Wrap(err, dErrors.CodeTimeout, "signature provider timed out")
		}
		return dErrors.Wrap(err, dErrors.CodeBadGateway, "signature provider unreachable")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.recordFailure(ctx)
		return dErrors.Wrap(err, dErrors.CodeBadGateway, "read signature provider response")
	}

	switch {
	case resp.StatusCode >= 500:
		c.recordFailure(ctx)
		return dErrors.New(dErrors.CodeBadGateway, fmt.Sprintf("signature provider returned %d", resp.StatusCode))
	case resp.StatusCode == http.StatusNotFound:
		c.recordSuccess(ctx)
		return dErrors.New(dErrors.CodeNotFound, "document not found at signature provider")
	case resp.StatusCode >= 400:
		c.recordSuccess(ctx)
		c.logger.WarnContext(ctx, "signature provider rejected request",
			"status", resp.StatusCode,
			"path", path,
			"body", truncate(string(raw), 256),
		)
		return dErrors.New(dErrors.CodeBadGateway, fmt.Sprintf("signature provider rejected request with %d", resp.StatusCode))
	}
	c.recordSuccess(ctx)

	if err := json.Unmarshal(raw, out); err != nil {
		return &signature.ProviderSyncError{
			Kind:    signature.SyncInconsistentStatus,
			Message: "malformed provider response: " + err.Error(),
		}
	}
	return nil
}

func (c *Client) recordFailure(ctx context.Context) {
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.WarnContext(ctx, "signature provider circuit opened", "breaker", c.breaker.Name())
	}
}

func (c *Client) recordSuccess(ctx context.Context) {
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "signature provider circuit closed", "breaker", c.breaker.Name())
	}
}

func toDocument(p documentPayload) (*signature.Document, error) {
	estado, err := signature.ParseEstado(p.Status)
	if err != nil {
		return nil, withDocument(err, p.ID, "")
	}
	doc := &signature.Document{
		ID:        p.ID,
		Title:     p.Title,
		URL:       p.URL,
		Estado:    estado,
		UpdatedAt: p.UpdatedAt,
	}
	if estado == signature.Cancelado {
		doc.MotivoCancelacion = p.CancelReason
	}
	for _, s := range p.Signers {
		signerEstado, err := signature.ParseEstado(s.Status)
		if err != nil {
			return nil, withDocument(err, p.ID, s.ID)
		}
		doc.Signers = append(doc.Signers, signature.SignerStatus{
			ID:        s.ID,
			Email:     s.Email,
			URL:       s.URL,
			Estado:    signerEstado,
			UpdatedAt: s.UpdatedAt,
		})
	}
	return doc, nil
}

func withDocument(err error, documentID, signerID string) error {
	var syncErr *signature.ProviderSyncError
	if errors.As(err, &syncErr) {
		syncErr.DocumentID = documentID
		syncErr.SignerID = signerID
	}
	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
