package httptransport

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vouch/internal/claim"
	"vouch/internal/domain"
	"vouch/internal/events"
	"vouch/internal/jwttoken"
	"vouch/internal/platform/logger"
	"vouch/pkg/testutil"
)

type stubClaim struct {
	validateFn func(ctx context.Context, token string) (*claim.Preview, error)
	claimFn    func(ctx context.Context, req claim.Request) (*claim.Result, error)
	admitFn    func(ctx context.Context, sessionID, name string) (int, error)
	cleared    []string
}

func (s *stubClaim) Validate(ctx context.Context, token string) (*claim.Preview, error) {
	return s.validateFn(ctx, token)
}

func (s *stubClaim) Claim(ctx context.Context, req claim.Request) (*claim.Result, error) {
	return s.claimFn(ctx, req)
}

func (s *stubClaim) AdmitPending(ctx context.Context, sessionID, name string) (int, error) {
	return s.admitFn(ctx, sessionID, name)
}

func (s *stubClaim) Disconnect(_ context.Context, sessionID string) error {
	s.cleared = append(s.cleared, sessionID)
	return nil
}

type stubAdmin struct {
	approved []string
	declined []string
	err      error
}

func (s *stubAdmin) Approve(_ context.Context, app domain.RegistrationApplication) error {
	s.approved = append(s.approved, app.Applicant)
	return s.err
}

func (s *stubAdmin) Decline(_ context.Context, app domain.RegistrationApplication, _ string) error {
	s.declined = append(s.declined, app.Applicant)
	return s.err
}

func (s *stubAdmin) Message(_ context.Context, _ domain.RegistrationApplication, _ string) error {
	return s.err
}

type stubRegistrations struct {
	items   []domain.RegistrationApplication
	err     error
	retried bool
}

func (s *stubRegistrations) Items() []domain.RegistrationApplication { return s.items }
func (s *stubRegistrations) Err() error                              { return s.err }
func (s *stubRegistrations) Retry()                                  { s.retried = true }

func testRouter(t *testing.T, claimSvc ClaimService, adminSvc AdminService, regs RegistrationList) (http.Handler, string) {
	t.Helper()
	tokens := jwttoken.NewService("test-signing-key", "vouch-test")
	adminToken, err := tokens.Generate("ops", time.Hour)
	require.NoError(t, err)

	router := NewRouter(Deps{
		Claim:         claimSvc,
		Admin:         adminSvc,
		Registrations: regs,
		Hub:           events.NewHub(),
		Tokens:        tokens,
		Logger:        logger.Discard(),
		Registry:      prometheus.NewRegistry(),
	})
	return router, adminToken
}

func TestHandleValidate(t *testing.T) {
	t.Run("valid link previews the identifier", func(t *testing.T) {
		svc := &stubClaim{
			validateFn: func(_ context.Context, token string) (*claim.Preview, error) {
				assert.Equal(t, "tok", token)
				return &claim.Preview{
					Identifier: domain.Identifier{Prefix: "EAAA", Name: "member-0"},
				}, nil
			},
		}
		router, _ := testRouter(t, svc, &stubAdmin{}, &stubRegistrations{})

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/claim/validate",
			map[string]string{"token": "tok"}))

		testutil.AssertStatus(t, rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[previewResponse](t, rr)
		assert.Equal(t, "EAAA", resp.Prefix)
	})

	t.Run("invalid link reads as bad input", func(t *testing.T) {
		svc := &stubClaim{
			validateFn: func(context.Context, string) (*claim.Preview, error) {
				return nil, claim.ErrInvalidClaimLink
			},
		}
		router, _ := testRouter(t, svc, &stubAdmin{}, &stubRegistrations{})

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/claim/validate",
			map[string]string{"token": "tok"}))

		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
	})

	t.Run("already-claimed link is indistinguishable from invalid", func(t *testing.T) {
		svc := &stubClaim{
			validateFn: func(context.Context, string) (*claim.Preview, error) {
				return nil, claim.ErrAlreadyClaimed
			},
		}
		router, _ := testRouter(t, svc, &stubAdmin{}, &stubRegistrations{})

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/claim/validate",
			map[string]string{"token": "tok"}))

		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
	})

	t.Run("missing token is rejected before the service", func(t *testing.T) {
		router, _ := testRouter(t, &stubClaim{}, &stubAdmin{}, &stubRegistrations{})

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/claim/validate",
			map[string]string{}))

		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
	})
}

func TestHandleClaim(t *testing.T) {
	t.Run("returns the claim result", func(t *testing.T) {
		svc := &stubClaim{
			claimFn: func(_ context.Context, req claim.Request) (*claim.Result, error) {
				assert.NotEmpty(t, req.SessionID, "handler must assign a session id")
				return &claim.Result{
					Identifier: domain.Identifier{Prefix: "EAAA", Name: "alice", SequenceNumber: 1},
					SpaceID:    "space-1",
					Admitted:   1,
				}, nil
			},
		}
		router, _ := testRouter(t, svc, &stubAdmin{}, &stubRegistrations{})

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/claim",
			map[string]string{"token": "tok", "display_name": "alice"}))

		testutil.AssertStatus(t, rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[claimResponse](t, rr)
		assert.Equal(t, "EAAA", resp.Prefix)
		assert.Equal(t, "space-1", resp.SpaceID)
		assert.NotEmpty(t, resp.SessionID)
	})

	t.Run("undelivered credential maps to unavailable", func(t *testing.T) {
		svc := &stubClaim{
			claimFn: func(context.Context, claim.Request) (*claim.Result, error) {
				return nil, claim.ErrCredentialNotDelivered
			},
		}
		router, _ := testRouter(t, svc, &stubAdmin{}, &stubRegistrations{})

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/claim",
			map[string]string{"token": "tok"}))

		testutil.AssertStatusAndError(t, rr, http.StatusServiceUnavailable, "unavailable")
	})

	t.Run("missing invite maps to conflict", func(t *testing.T) {
		svc := &stubClaim{
			claimFn: func(context.Context, claim.Request) (*claim.Result, error) {
				return nil, claim.ErrMissingSpaceInvite
			},
		}
		router, _ := testRouter(t, svc, &stubAdmin{}, &stubRegistrations{})

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/claim",
			map[string]string{"token": "tok"}))

		testutil.AssertStatusAndError(t, rr, http.StatusConflict, "conflict")
	})

	t.Run("internal failures hide detail", func(t *testing.T) {
		svc := &stubClaim{
			claimFn: func(context.Context, claim.Request) (*claim.Result, error) {
				return nil, errors.New("agent exploded at 10.0.0.3")
			},
		}
		router, _ := testRouter(t, svc, &stubAdmin{}, &stubRegistrations{})

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/claim",
			map[string]string{"token": "tok"}))

		testutil.AssertStatusAndError(t, rr, http.StatusInternalServerError, "internal_error")
		assert.NotContains(t, rr.Body.String(), "10.0.0.3")
	})
}

func TestHandleAdmitPending(t *testing.T) {
	t.Run("forwards session and identifier", func(t *testing.T) {
		svc := &stubClaim{
			admitFn: func(_ context.Context, sessionID, name string) (int, error) {
				assert.Equal(t, "sess-1", sessionID)
				assert.Equal(t, "alice", name)
				return 2, nil
			},
		}
		router, _ := testRouter(t, svc, &stubAdmin{}, &stubRegistrations{})

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/grants/admit",
			map[string]string{"session_id": "sess-1", "identifier": "alice"}))

		testutil.AssertStatus(t, rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[map[string]int](t, rr)
		assert.Equal(t, 2, (*resp)["admitted"])
	})

	t.Run("missing session id is rejected before the service", func(t *testing.T) {
		router, _ := testRouter(t, &stubClaim{}, &stubAdmin{}, &stubRegistrations{})

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/grants/admit",
			map[string]string{"identifier": "alice"}))

		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
	})

	t.Run("unknown session maps to not found", func(t *testing.T) {
		svc := &stubClaim{
			admitFn: func(context.Context, string, string) (int, error) {
				return 0, claim.ErrUnknownSession
			},
		}
		router, _ := testRouter(t, svc, &stubAdmin{}, &stubRegistrations{})

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/grants/admit",
			map[string]string{"session_id": "gone", "identifier": "alice"}))

		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})
}

func TestHandleDisconnect(t *testing.T) {
	svc := &stubClaim{}
	router, _ := testRouter(t, svc, &stubAdmin{}, &stubRegistrations{})

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodDelete, "/claim/sessions/sess-9"))

	testutil.AssertStatus(t, rr, http.StatusNoContent)
	assert.Equal(t, []string{"sess-9"}, svc.cleared)
}

func TestAdminEndpoints(t *testing.T) {
	pending := []domain.RegistrationApplication{
		{
			Applicant:   "EAPPLICANT",
			Profile:     domain.RegistrationApply{Name: "Morgan", Email: "m@example.com"},
			SubmittedAt: time.Now(),
			Verified:    true,
		},
	}

	withAuth := func(req *http.Request, token string) *http.Request {
		req.Header.Set("Authorization", "Bearer "+token)
		return req
	}

	t.Run("requires a bearer token", func(t *testing.T) {
		router, _ := testRouter(t, &stubClaim{}, &stubAdmin{}, &stubRegistrations{})

		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/registrations"))
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	})

	t.Run("rejects a token signed with another key", func(t *testing.T) {
		router, _ := testRouter(t, &stubClaim{}, &stubAdmin{}, &stubRegistrations{})
		forged, err := jwttoken.NewService("other-key", "vouch-test").Generate("evil", time.Hour)
		require.NoError(t, err)

		rr := testutil.DoRequest(router,
			withAuth(testutil.NewRequest(t, http.MethodGet, "/registrations"), forged))
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	})

	t.Run("lists pending applications with poll state", func(t *testing.T) {
		regs := &stubRegistrations{items: pending, err: errors.New("agent flapping")}
		router, token := testRouter(t, &stubClaim{}, &stubAdmin{}, regs)

		rr := testutil.DoRequest(router,
			withAuth(testutil.NewRequest(t, http.MethodGet, "/registrations"), token))

		testutil.AssertStatus(t, rr, http.StatusOK)
		resp := testutil.UnmarshalResponse[registrationListResponse](t, rr)
		require.Len(t, resp.Applications, 1)
		assert.Equal(t, "Morgan", resp.Applications[0].Name)
		assert.Equal(t, "agent flapping", resp.PollError)
	})

	t.Run("approve hits the service for a listed applicant", func(t *testing.T) {
		adminSvc := &stubAdmin{}
		router, token := testRouter(t, &stubClaim{}, adminSvc, &stubRegistrations{items: pending})

		rr := testutil.DoRequest(router,
			withAuth(testutil.NewRequest(t, http.MethodPost, "/registrations/EAPPLICANT/approve"), token))

		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.Equal(t, []string{"EAPPLICANT"}, adminSvc.approved)
	})

	t.Run("unknown applicant is 404", func(t *testing.T) {
		adminSvc := &stubAdmin{}
		router, token := testRouter(t, &stubClaim{}, adminSvc, &stubRegistrations{})

		rr := testutil.DoRequest(router,
			withAuth(testutil.NewRequest(t, http.MethodPost, "/registrations/EGHOST/approve"), token))

		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
		assert.Empty(t, adminSvc.approved)
	})

	t.Run("decline forwards the reason", func(t *testing.T) {
		adminSvc := &stubAdmin{}
		router, token := testRouter(t, &stubClaim{}, adminSvc, &stubRegistrations{items: pending})

		rr := testutil.DoRequest(router,
			withAuth(testutil.NewJSONRequest(t, http.MethodPost, "/registrations/EAPPLICANT/decline",
				map[string]string{"reason": "incomplete"}), token))

		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.Equal(t, []string{"EAPPLICANT"}, adminSvc.declined)
	})

	t.Run("message requires text", func(t *testing.T) {
		router, token := testRouter(t, &stubClaim{}, &stubAdmin{}, &stubRegistrations{items: pending})

		rr := testutil.DoRequest(router,
			withAuth(testutil.NewJSONRequest(t, http.MethodPost, "/registrations/EAPPLICANT/message",
				map[string]string{}), token))

		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "invalid_input")
	})

	t.Run("watch retry resumes the poller", func(t *testing.T) {
		regs := &stubRegistrations{err: errors.New("halted")}
		router, token := testRouter(t, &stubClaim{}, &stubAdmin{}, regs)

		rr := testutil.DoRequest(router,
			withAuth(testutil.NewRequest(t, http.MethodPost, "/registrations/watch/retry"), token))

		testutil.AssertStatus(t, rr, http.StatusNoContent)
		assert.True(t, regs.retried)
	})
}

func TestHealthz(t *testing.T) {
	router, _ := testRouter(t, &stubClaim{}, &stubAdmin{}, &stubRegistrations{})
	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
	testutil.AssertStatus(t, rr, http.StatusOK)
}
