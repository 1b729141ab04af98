package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"vouch/internal/domain"
	dErrors "vouch/pkg/domain-errors"
	"vouch/pkg/platform/httputil"
)

// AdminService executes decisions on pending registrations.
type AdminService interface {
	Approve(ctx context.Context, app domain.RegistrationApplication) error
	Decline(ctx context.Context, app domain.RegistrationApplication, reason string) error
	Message(ctx context.Context, app domain.RegistrationApplication, text string) error
}

// RegistrationList is the watcher surface: the current snapshot, its
// fail-stop state, and the resume knob.
type RegistrationList interface {
	Items() []domain.RegistrationApplication
	Err() error
	Retry()
}

type AdminHandler struct {
	service       AdminService
	registrations RegistrationList
	logger        *slog.Logger
}

func NewAdminHandler(service AdminService, registrations RegistrationList, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{service: service, registrations: registrations, logger: logger}
}

func (h *AdminHandler) Register(r chi.Router) {
	r.Get("/registrations", h.handleList)
	r.Post("/registrations/watch/retry", h.handleWatchRetry)
	r.Post("/registrations/{aid}/approve", h.handleApprove)
	r.Post("/registrations/{aid}/decline", h.handleDecline)
	r.Post("/registrations/{aid}/message", h.handleMessage)
}

type registrationView struct {
	Applicant   string    `json:"applicant"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Bio         string    `json:"bio,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
	Verified    bool      `json:"verified"`
}

type registrationListResponse struct {
	Applications []registrationView `json:"applications"`
	PollError    string             `json:"poll_error,omitempty"`
}

func (h *AdminHandler) handleList(w http.ResponseWriter, r *http.Request) {
	items := h.registrations.Items()
	views := make([]registrationView, 0, len(items))
	for _, app := range items {
		views = append(views, registrationView{
			Applicant:   app.Applicant,
			Name:        app.Profile.Name,
			Email:       app.Profile.Email,
			Bio:         app.Profile.Bio,
			SubmittedAt: app.SubmittedAt,
			Verified:    app.Verified,
		})
	}
	resp := registrationListResponse{Applications: views}
	if err := h.registrations.Err(); err != nil {
		resp.PollError = err.Error()
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *AdminHandler) handleWatchRetry(w http.ResponseWriter, r *http.Request) {
	h.registrations.Retry()
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) handleApprove(w http.ResponseWriter, r *http.Request) {
	app, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := h.service.Approve(r.Context(), app); err != nil {
		h.logger.ErrorContext(r.Context(), "approve failed",
			"applicant", app.Applicant, "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "approve failed"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

type declineRequest struct {
	Reason string `json:"reason"`
}

func (h *AdminHandler) handleDecline(w http.ResponseWriter, r *http.Request) {
	app, ok := h.lookup(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeJSON[declineRequest](w, r)
	if !ok {
		return
	}
	if err := h.service.Decline(r.Context(), app, req.Reason); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "decline failed"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "declined"})
}

type messageRequest struct {
	Text string `json:"text"`
}

func (h *AdminHandler) handleMessage(w http.ResponseWriter, r *http.Request) {
	app, ok := h.lookup(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeJSON[messageRequest](w, r)
	if !ok {
		return
	}
	if req.Text == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "text is required"))
		return
	}
	if err := h.service.Message(r.Context(), app, req.Text); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "message delivery failed"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

// lookup resolves the path identifier against the current snapshot. Actions
// only apply to applications the admin can currently see; a stale link after
// a snapshot change is a 404, not a blind action.
func (h *AdminHandler) lookup(w http.ResponseWriter, r *http.Request) (domain.RegistrationApplication, bool) {
	aid := chi.URLParam(r, "aid")
	for _, app := range h.registrations.Items() {
		if app.Applicant == aid {
			return app, true
		}
	}
	httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no pending application for identifier"))
	return domain.RegistrationApplication{}, false
}
