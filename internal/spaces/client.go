// Package spaces is the client for the data-sync backend: identity binding,
// community-space invite generation, and space join. The backend replicates
// spaces with its own engine; this package only covers the REST surface the
// claim and admin flows depend on.
package spaces

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"vouch/internal/domain"
)

// BindIdentityRequest registers the backend identity binding for a claimed
// identifier. Mnemonic supplies the secondary key-material derivation; the
// backend never sees the boot passcode itself.
type BindIdentityRequest struct {
	AID              string `json:"aid"`
	Mnemonic         string `json:"mnemonic"`
	OrgAID           string `json:"org_aid,omitempty"`
	CommunitySpaceID string `json:"community_space_id,omitempty"`
	ReadOnlySpaceID  string `json:"read_only_space_id,omitempty"`
	Mode             string `json:"mode"`
}

// BindIdentityResult reports the binding outcome.
type BindIdentityResult struct {
	Success        bool   `json:"success"`
	PeerID         string `json:"peer_id,omitempty"`
	PrivateSpaceID string `json:"private_space_id,omitempty"`
	Error          string `json:"error,omitempty"`
}

// InviteRequest asks the backend to mint a community-space invite for a
// credential recipient.
type InviteRequest struct {
	RecipientAID   string `json:"recipientAid"`
	CredentialSAID string `json:"credentialSaid"`
	Schema         string `json:"schema"`
}

// JoinRequest redeems an invite for space membership.
type JoinRequest struct {
	UserAID           string `json:"userAid"`
	InviteKey         string `json:"inviteKey"`
	SpaceID           string `json:"spaceId,omitempty"`
	ReadOnlyInviteKey string `json:"readOnlyInviteKey,omitempty"`
	ReadOnlySpaceID   string `json:"readOnlySpaceId,omitempty"`
}

// JoinResult reports the join outcome.
type JoinResult struct {
	Success bool   `json:"success"`
	SpaceID string `json:"spaceId,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ProfileRecord is a private or shared profile document created after join.
type ProfileRecord struct {
	AID        string         `json:"aid"`
	SpaceID    string         `json:"spaceId"`
	Visibility string         `json:"visibility"`
	Fields     map[string]any `json:"fields"`
}

const (
	ProfilePrivate = "private"
	ProfileShared  = "shared"
)

// Client talks to the data-sync backend over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying http.Client, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient builds a backend client.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BindIdentity registers the identity binding. A response with Success false
// is returned as an error; binding is a required claim step.
func (c *Client) BindIdentity(ctx context.Context, req BindIdentityRequest) (BindIdentityResult, error) {
	var result BindIdentityResult
	if err := c.post(ctx, "/identity/bind", req, &result); err != nil {
		return BindIdentityResult{}, err
	}
	if !result.Success {
		return result, fmt.Errorf("bind identity: %s", orUnknown(result.Error))
	}
	return result, nil
}

// CreateInvite mints a community-space invite for the given recipient.
func (c *Client) CreateInvite(ctx context.Context, req InviteRequest) (domain.SpaceInvite, error) {
	var wire struct {
		CommunitySpaceID  string `json:"communitySpaceId"`
		InviteKey         string `json:"inviteKey"`
		ReadOnlyInviteKey string `json:"readOnlyInviteKey,omitempty"`
		ReadOnlySpaceID   string `json:"readOnlySpaceId,omitempty"`
	}
	if err := c.post(ctx, "/spaces/community/invite", req, &wire); err != nil {
		return domain.SpaceInvite{}, err
	}
	if wire.CommunitySpaceID == "" || wire.InviteKey == "" {
		return domain.SpaceInvite{}, fmt.Errorf("create invite: incomplete response")
	}
	return domain.SpaceInvite{
		SpaceID:           wire.CommunitySpaceID,
		InviteKey:         wire.InviteKey,
		ReadOnlySpaceID:   wire.ReadOnlySpaceID,
		ReadOnlyInviteKey: wire.ReadOnlyInviteKey,
	}, nil
}

// JoinCommunity redeems an invite. The backend may still be deriving the
// space's key material right after issuance; callers wrap this in the shared
// retry budget rather than retrying here.
func (c *Client) JoinCommunity(ctx context.Context, req JoinRequest) (JoinResult, error) {
	var result JoinResult
	if err := c.post(ctx, "/spaces/community/join", req, &result); err != nil {
		return JoinResult{}, err
	}
	if !result.Success {
		return result, fmt.Errorf("join community: %s", orUnknown(result.Error))
	}
	return result, nil
}

// CreateProfile creates a private or shared profile record in a space.
// Subject to the same eventual-consistency window as JoinCommunity.
func (c *Client) CreateProfile(ctx context.Context, rec ProfileRecord) error {
	var result struct {
		Success bool   `json:"success"`
		Error   string `json:"error,omitempty"`
	}
	if err := c.post(ctx, "/profiles", rec, &result); err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("create %s profile: %s", rec.Visibility, orUnknown(result.Error))
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("POST %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func orUnknown(msg string) string {
	if msg == "" {
		return "unknown backend error"
	}
	return msg
}
