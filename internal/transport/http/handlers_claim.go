package httptransport

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"vouch/internal/claim"
	"vouch/internal/domain"
	"vouch/internal/events"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/httputil"
)

// ClaimService is the claim engine surface the transport needs.
type ClaimService interface {
	Validate(ctx context.Context, token string) (*claim.Preview, error)
	Claim(ctx context.Context, req claim.Request) (*claim.Result, error)
	AdmitPending(ctx context.Context, sessionID, identifierName string) (int, error)
	Disconnect(ctx context.Context, sessionID string) error
}

type ClaimHandler struct {
	service ClaimService
	hub     *events.Hub
	logger  *slog.Logger
}

func NewClaimHandler(service ClaimService, hub *events.Hub, logger *slog.Logger) *ClaimHandler {
	return &ClaimHandler{service: service, hub: hub, logger: logger}
}

func (h *ClaimHandler) Register(r chi.Router) {
	r.Post("/claim/validate", h.handleValidate)
	r.Post("/claim", h.handleClaim)
	r.Post("/grants/admit", h.handleAdmitPending)
	r.Delete("/claim/sessions/{sessionID}", h.handleDisconnect)
}

type validateRequest struct {
	Token string `json:"token"`
}

type previewResponse struct {
	Prefix   string `json:"prefix"`
	Name     string `json:"name"`
	Sequence int    `json:"sequence"`
}

func (h *ClaimHandler) handleValidate(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[validateRequest](w, r)
	if !ok {
		return
	}
	if req.Token == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "token is required"))
		return
	}

	preview, err := h.service.Validate(r.Context(), req.Token)
	if err != nil {
		httputil.WriteError(w, translateClaimErr(err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, previewResponse{
		Prefix:   preview.Identifier.Prefix,
		Name:     preview.Identifier.Name,
		Sequence: preview.Identifier.SequenceNumber,
	})
}

type claimRequest struct {
	Token       string `json:"token"`
	DisplayName string `json:"display_name"`
	SessionID   string `json:"session_id"`
}

type claimResponse struct {
	Prefix         string `json:"prefix"`
	SessionID      string `json:"session_id"`
	SpaceID        string `json:"space_id"`
	PrivateSpaceID string `json:"private_space_id"`
	Admitted       int    `json:"admitted"`
}

func (h *ClaimHandler) handleClaim(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[claimRequest](w, r)
	if !ok {
		return
	}
	if req.Token == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "token is required"))
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	start := time.Now()
	result, err := h.service.Claim(r.Context(), claim.Request{
		Token:       req.Token,
		DisplayName: req.DisplayName,
		SessionID:   req.SessionID,
		OnTransition: func(state domain.ClaimState) {
			if h.hub != nil {
				h.hub.Emit(events.TypeClaimStep, map[string]string{
					"session_id": req.SessionID,
					"state":      string(state),
				})
			}
		},
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "claim failed",
			"session_id", req.SessionID,
			"error", err,
		)
		httputil.WriteError(w, translateClaimErr(err))
		return
	}

	h.logger.InfoContext(r.Context(), "claim completed",
		"session_id", req.SessionID,
		"identifier", result.Identifier.Prefix,
		"admitted", result.Admitted,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, claimResponse{
		Prefix:         result.Identifier.Prefix,
		SessionID:      req.SessionID,
		SpaceID:        result.SpaceID,
		PrivateSpaceID: result.PrivateSpaceID,
		Admitted:       result.Admitted,
	})
}

type admitRequest struct {
	SessionID  string `json:"session_id"`
	Identifier string `json:"identifier"`
}

func (h *ClaimHandler) handleAdmitPending(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeJSON[admitRequest](w, r)
	if !ok {
		return
	}
	if req.SessionID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "session_id is required"))
		return
	}
	if req.Identifier == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "identifier is required"))
		return
	}
	admitted, err := h.service.AdmitPending(r.Context(), req.SessionID, req.Identifier)
	if err != nil {
		httputil.WriteError(w, translateClaimErr(err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"admitted": admitted})
}

func (h *ClaimHandler) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := h.service.Disconnect(r.Context(), sessionID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// translateClaimErr maps claim sentinel errors onto coded responses. An
// already-claimed link reads the same as an invalid one to the caller; the
// distinction only matters inside the engine.
func translateClaimErr(err error) error {
	switch {
	case errors.Is(err, claim.ErrInvalidClaimLink), errors.Is(err, claim.ErrAlreadyClaimed):
		return dErrors.New(dErrors.CodeInvalidInput, "invalid claim link")
	case errors.Is(err, claim.ErrCredentialNotDelivered):
		return dErrors.New(dErrors.CodeUnavailable, "credential not delivered yet")
	case errors.Is(err, claim.ErrMissingSpaceInvite):
		return dErrors.New(dErrors.CodeConflict, "grant carried no community invite")
	case errors.Is(err, claim.ErrUnknownSession):
		return dErrors.New(dErrors.CodeNotFound, "unknown claim session")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "claim failed")
	}
}
