package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"vouch/internal/domain"
)

// HTTPClient talks to the identity agent's REST surface. Boot and session
// endpoints may live on different ports, matching common agent deployments.
type HTTPClient struct {
	baseURL string
	bootURL string
	http    *http.Client

	mu    sync.Mutex
	token string

	// opPollInterval paces long-running-operation polls (OOBI resolution).
	opPollInterval time.Duration
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient swaps the underlying http.Client, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *HTTPClient) { c.http = h }
}

// WithOperationPollInterval overrides the long-running-operation poll pace.
func WithOperationPollInterval(d time.Duration) Option {
	return func(c *HTTPClient) { c.opPollInterval = d }
}

// NewHTTPClient builds a client against the given agent endpoints.
func NewHTTPClient(baseURL, bootURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:        baseURL,
		bootURL:        bootURL,
		http:           &http.Client{Timeout: 30 * time.Second},
		opPollInterval: 250 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var (
	_ Client = (*HTTPClient)(nil)
	_ Dialer = (*HTTPClient)(nil)
)

type sessionResponse struct {
	Token string `json:"token"`
}

// Dial opens a fresh session handle for the given secret. The handle shares
// the transport but owns its token, so calls on one handle never ride
// another session's credentials.
func (c *HTTPClient) Dial(ctx context.Context, secret string) (Client, error) {
	session := &HTTPClient{
		baseURL:        c.baseURL,
		bootURL:        c.bootURL,
		http:           c.http,
		opPollInterval: c.opPollInterval,
	}
	if err := session.Connect(ctx, secret); err != nil {
		return nil, err
	}
	return session, nil
}

// Connect boots the agent for this passcode if needed, then opens a session.
// Both calls are idempotent on the agent side: booting an already-booted
// passcode answers 409 and opening a session twice returns the same token.
func (c *HTTPClient) Connect(ctx context.Context, secret string) error {
	body := map[string]string{"passcode": secret}

	status, _, err := c.do(ctx, http.MethodPost, c.bootURL+"/boot", body)
	if err != nil {
		return fmt.Errorf("boot agent: %w", err)
	}
	if status != http.StatusAccepted && status != http.StatusConflict {
		return fmt.Errorf("boot agent: unexpected status %d", status)
	}

	status, raw, err := c.do(ctx, http.MethodPost, c.baseURL+"/sessions", body)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return fmt.Errorf("open session: unexpected status %d", status)
	}
	var session sessionResponse
	if err := json.Unmarshal(raw, &session); err != nil {
		return fmt.Errorf("decode session: %w", err)
	}

	c.mu.Lock()
	c.token = session.Token
	c.mu.Unlock()
	return nil
}

type wireIdentifier struct {
	Prefix   string `json:"prefix"`
	Name     string `json:"name"`
	Sequence int    `json:"sequence"`
}

func (w wireIdentifier) toDomain() domain.Identifier {
	return domain.Identifier{Prefix: w.Prefix, Name: w.Name, SequenceNumber: w.Sequence}
}

func (c *HTTPClient) Identifiers(ctx context.Context) ([]domain.Identifier, error) {
	var wire []wireIdentifier
	if err := c.getJSON(ctx, c.baseURL+"/identifiers", &wire); err != nil {
		return nil, err
	}
	out := make([]domain.Identifier, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.toDomain())
	}
	return out, nil
}

func (c *HTTPClient) KeyState(ctx context.Context, prefix string) (int, error) {
	var state struct {
		Sequence int `json:"sequence"`
	}
	endpoint := c.baseURL + "/identifiers/" + url.PathEscape(prefix) + "/keystate"
	if err := c.getJSON(ctx, endpoint, &state); err != nil {
		return 0, err
	}
	return state.Sequence, nil
}

func (c *HTTPClient) Rename(ctx context.Context, prefix, name string) (domain.Identifier, error) {
	endpoint := c.baseURL + "/identifiers/" + url.PathEscape(prefix)
	status, raw, err := c.authed(ctx, http.MethodPut, endpoint, map[string]string{"name": name})
	if err != nil {
		return domain.Identifier{}, err
	}
	if status != http.StatusOK {
		return domain.Identifier{}, fmt.Errorf("rename identifier: unexpected status %d", status)
	}
	var wire wireIdentifier
	if err := json.Unmarshal(raw, &wire); err != nil {
		return domain.Identifier{}, fmt.Errorf("decode identifier: %w", err)
	}
	return wire.toDomain(), nil
}

type wireNotification struct {
	ID        string          `json:"id"`
	Route     string          `json:"route"`
	Read      bool            `json:"read"`
	Sender    string          `json:"sender"`
	Exchange  string          `json:"exchange"`
	Timestamp time.Time       `json:"timestamp"`
	Embedded  json.RawMessage `json:"embedded,omitempty"`
}

func (c *HTTPClient) Notifications(ctx context.Context, filter domain.NotificationFilter) ([]domain.Notification, error) {
	query := url.Values{}
	if filter.Route != "" {
		query.Set("route", filter.Route)
	}
	if filter.ReadStatus != nil {
		query.Set("read", strconv.FormatBool(*filter.ReadStatus))
	}
	endpoint := c.baseURL + "/notifications"
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	var wire []wireNotification
	if err := c.getJSON(ctx, endpoint, &wire); err != nil {
		return nil, err
	}
	out := make([]domain.Notification, 0, len(wire))
	for _, w := range wire {
		out = append(out, domain.Notification{
			ID:           w.ID,
			Route:        w.Route,
			Read:         w.Read,
			Sender:       w.Sender,
			ExchangeSAID: w.Exchange,
			Timestamp:    w.Timestamp,
			Embedded:     w.Embedded,
		})
	}
	return out, nil
}

func (c *HTTPClient) MarkRead(ctx context.Context, notificationID string) error {
	endpoint := c.baseURL + "/notifications/" + url.PathEscape(notificationID) + "/read"
	status, _, err := c.authed(ctx, http.MethodPut, endpoint, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusNoContent {
		return fmt.Errorf("mark notification read: unexpected status %d", status)
	}
	return nil
}

type operationResponse struct {
	ID   string `json:"id"`
	Done bool   `json:"done"`
}

// ResolveIntroduction submits the OOBI for resolution and polls the
// resulting long-running operation until it completes or the timeout lapses.
func (c *HTTPClient) ResolveIntroduction(ctx context.Context, locator, alias string, timeout time.Duration) error {
	body := map[string]string{"url": locator}
	if alias != "" {
		body["alias"] = alias
	}
	status, raw, err := c.authed(ctx, http.MethodPost, c.baseURL+"/oobi", body)
	if err != nil {
		return err
	}
	if status != http.StatusAccepted && status != http.StatusOK {
		return fmt.Errorf("submit introduction: unexpected status %d", status)
	}
	var op operationResponse
	if err := json.Unmarshal(raw, &op); err != nil {
		return fmt.Errorf("decode operation: %w", err)
	}
	if op.Done {
		return nil
	}

	deadline := time.Now().Add(timeout)
	for {
		if time.Now().After(deadline) {
			return ErrIntroductionTimeout
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.opPollInterval):
		}

		endpoint := c.baseURL + "/operations/" + url.PathEscape(op.ID)
		if err := c.getJSON(ctx, endpoint, &op); err != nil {
			return err
		}
		if op.Done {
			return nil
		}
	}
}

func (c *HTTPClient) Exchange(ctx context.Context, said string) (domain.ExchangeMessage, error) {
	endpoint := c.baseURL + "/exchanges/" + url.PathEscape(said)
	status, raw, err := c.authed(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.ExchangeMessage{}, err
	}
	if status != http.StatusOK {
		return domain.ExchangeMessage{}, fmt.Errorf("fetch exchange %s: unexpected status %d", said, status)
	}
	return domain.ParseExchange(raw)
}

func (c *HTTPClient) AdmitGrant(ctx context.Context, identifierName, senderPrefix, grantSAID string) error {
	endpoint := c.baseURL + "/identifiers/" + url.PathEscape(identifierName) + "/ipex/admit"
	body := map[string]any{
		"sender": senderPrefix,
		"grant":  grantSAID,
		// Embeds stay empty: the agent derives proof material from the
		// grant's own attachments.
		"embeds": map[string]any{},
	}
	status, _, err := c.authed(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusAccepted {
		return fmt.Errorf("admit grant %s: unexpected status %d", grantSAID, status)
	}
	return nil
}

type wireCredential struct {
	SAID       string         `json:"said"`
	Schema     string         `json:"schema"`
	Issuer     string         `json:"issuer"`
	Subject    string         `json:"subject"`
	IssuedAt   time.Time      `json:"issued_at"`
	Attributes map[string]any `json:"attributes"`
}

func (w wireCredential) toDomain() domain.Credential {
	return domain.Credential{
		SAID:       w.SAID,
		Schema:     w.Schema,
		Issuer:     w.Issuer,
		Subject:    w.Subject,
		IssuedAt:   w.IssuedAt,
		Attributes: w.Attributes,
	}
}

func (c *HTTPClient) Credentials(ctx context.Context) ([]domain.Credential, error) {
	var wire []wireCredential
	if err := c.getJSON(ctx, c.baseURL+"/credentials", &wire); err != nil {
		return nil, err
	}
	out := make([]domain.Credential, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.toDomain())
	}
	return out, nil
}

func (c *HTTPClient) RotateKeys(ctx context.Context, identifierName string) error {
	endpoint := c.baseURL + "/identifiers/" + url.PathEscape(identifierName) + "/rotate"
	status, _, err := c.authed(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusAccepted {
		return fmt.Errorf("rotate keys: unexpected status %d", status)
	}
	return nil
}

func (c *HTTPClient) IssueCredential(ctx context.Context, req IssueCredentialRequest) (domain.Credential, error) {
	endpoint := c.baseURL + "/identifiers/" + url.PathEscape(req.Issuer) + "/credentials"
	body := map[string]any{
		"registry":   req.RegistryID,
		"schema":     req.Schema,
		"subject":    req.Subject,
		"attributes": req.Attributes,
		"message":    req.Message,
	}
	status, raw, err := c.authed(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return domain.Credential{}, err
	}
	if status != http.StatusOK && status != http.StatusCreated {
		return domain.Credential{}, fmt.Errorf("issue credential: unexpected status %d", status)
	}
	var wire wireCredential
	if err := json.Unmarshal(raw, &wire); err != nil {
		return domain.Credential{}, fmt.Errorf("decode credential: %w", err)
	}
	return wire.toDomain(), nil
}

func (c *HTTPClient) SendExchange(ctx context.Context, req SendExchangeRequest) error {
	endpoint := c.baseURL + "/identifiers/" + url.PathEscape(req.Sender) + "/exchanges"
	body := map[string]any{
		"recipient": req.Recipient,
		"route":     req.Route,
		"body":      req.Body,
	}
	status, _, err := c.authed(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusAccepted {
		return fmt.Errorf("send exchange: unexpected status %d", status)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Plumbing
// -----------------------------------------------------------------------------

func (c *HTTPClient) getJSON(ctx context.Context, endpoint string, out any) error {
	status, raw, err := c.authed(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %d", endpoint, status)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *HTTPClient) authed(ctx context.Context, method, endpoint string, body any) (int, []byte, error) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token == "" {
		return 0, nil, ErrNotConnected
	}
	return c.doWithToken(ctx, method, endpoint, body, token)
}

func (c *HTTPClient) do(ctx context.Context, method, endpoint string, body any) (int, []byte, error) {
	return c.doWithToken(ctx, method, endpoint, body, "")
}

func (c *HTTPClient) doWithToken(ctx context.Context, method, endpoint string, body any, token string) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, raw, nil
}
