package admin

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"vouch/internal/agent"
	"vouch/internal/agent/mocks"
	"vouch/internal/domain"
	"vouch/internal/platform/logger"
	"vouch/internal/spaces"
	"vouch/pkg/testutil"
)

type fakeBackend struct {
	mu          sync.Mutex
	invites     []spaces.InviteRequest
	profiles    []spaces.ProfileRecord
	inviteErr   error
	profileErr  error
	mintedSpace string
}

func (f *fakeBackend) CreateInvite(_ context.Context, req spaces.InviteRequest) (domain.SpaceInvite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invites = append(f.invites, req)
	if f.inviteErr != nil {
		return domain.SpaceInvite{}, f.inviteErr
	}
	space := f.mintedSpace
	if space == "" {
		space = "space-community"
	}
	return domain.SpaceInvite{SpaceID: space, InviteKey: "key-1"}, nil
}

func (f *fakeBackend) CreateProfile(_ context.Context, rec spaces.ProfileRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles = append(f.profiles, rec)
	return f.profileErr
}

func testApplication() domain.RegistrationApplication {
	return domain.RegistrationApplication{
		Applicant: "EAPPLICANT",
		SAID:      "EAPPLY",
		Profile: domain.RegistrationApply{
			Name:        "Morgan",
			Email:       "morgan@example.com",
			Bio:         "hello",
			ContactOOBI: "http://agent.example/oobi/EAPPLICANT",
		},
		SubmittedAt: time.Now(),
		Verified:    true,
	}
}

func applyNotification(id, sender string, pending bool) domain.Notification {
	n := domain.Notification{
		ID:           id,
		Route:        domain.RouteApply,
		Sender:       sender,
		ExchangeSAID: "EX-" + id,
		Timestamp:    time.Now(),
	}
	if pending {
		n.Embedded = []byte(`{"said":"EX-` + id + `"}`)
	}
	return n
}

func TestServiceApprove(t *testing.T) {
	orgIdentifiers := []domain.Identifier{
		{Prefix: "EORG", Name: "community-org", SequenceNumber: 3},
	}

	t.Run("issues one credential carrying the invite", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := mocks.NewMockClient(ctrl)
		backend := &fakeBackend{}
		app := testApplication()

		client.EXPECT().ResolveIntroduction(gomock.Any(), app.Profile.ContactOOBI, "Morgan", gomock.Any()).Return(nil)
		client.EXPECT().Identifiers(gomock.Any()).Return(orgIdentifiers, nil)
		client.EXPECT().IssueCredential(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req agent.IssueCredentialRequest) (domain.Credential, error) {
				assert.Equal(t, "community-org", req.Issuer)
				assert.Equal(t, "EREG", req.RegistryID)
				assert.Equal(t, "EAPPLICANT", req.Subject)
				// The grant message must carry the embedded space invite.
				inv, ok := domain.ParseSpaceInvite(req.Message)
				require.True(t, ok)
				assert.Equal(t, "space-community", inv.SpaceID)
				return domain.Credential{SAID: "ECRED"}, nil
			})

		// Both the pending and the verified shape of the same application
		// must be marked read; an unrelated applicant's must not.
		client.EXPECT().Notifications(gomock.Any(), gomock.Any()).
			Return([]domain.Notification{
				applyNotification("n1", "EAPPLICANT", true),
				applyNotification("n2", "", false),
				applyNotification("n3", "EOTHER", true),
			}, nil)
		client.EXPECT().Exchange(gomock.Any(), "EX-n2").
			Return(domain.ExchangeMessage{SAID: "EX-n2", Sender: "EAPPLICANT", Kind: domain.KindRegistrationApply}, nil)
		client.EXPECT().MarkRead(gomock.Any(), "n1").Return(nil)
		client.EXPECT().MarkRead(gomock.Any(), "n2").Return(nil)

		svc := NewService(client, backend,
			Config{OrgAID: "EORG", RegistryID: "EREG", CredentialSchema: "ESCHEMA"},
			WithLogger(logger.Discard()))

		require.NoError(t, svc.Approve(context.Background(), app))

		require.Len(t, backend.invites, 1)
		assert.Equal(t, "EAPPLICANT", backend.invites[0].RecipientAID)
		require.Len(t, backend.profiles, 1)
		assert.Equal(t, spaces.ProfileShared, backend.profiles[0].Visibility)
	})

	t.Run("invite failure blocks issuance", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := mocks.NewMockClient(ctrl)
		backend := &fakeBackend{inviteErr: errors.New("backend down")}
		app := testApplication()

		client.EXPECT().ResolveIntroduction(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		client.EXPECT().Identifiers(gomock.Any()).Return(orgIdentifiers, nil)
		// No IssueCredential expectation: a credential without a working
		// invite would strand the member outside the community.

		svc := NewService(client, backend, Config{OrgAID: "EORG"},
			WithLogger(logger.Discard()))

		err := svc.Approve(context.Background(), app)
		require.Error(t, err)
	})

	t.Run("profile init failure is not fatal", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := mocks.NewMockClient(ctrl)
		backend := &fakeBackend{profileErr: errors.New("space not ready")}
		app := testApplication()

		client.EXPECT().ResolveIntroduction(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		client.EXPECT().Identifiers(gomock.Any()).Return(orgIdentifiers, nil)
		client.EXPECT().IssueCredential(gomock.Any(), gomock.Any()).
			Return(domain.Credential{SAID: "ECRED"}, nil)
		client.EXPECT().Notifications(gomock.Any(), gomock.Any()).Return(nil, nil)

		svc := NewService(client, backend, Config{OrgAID: "EORG"},
			WithLogger(logger.Discard()))

		require.NoError(t, svc.Approve(context.Background(), app))
	})

	t.Run("unresolvable contact does not block approval", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := mocks.NewMockClient(ctrl)
		backend := &fakeBackend{}
		app := testApplication()

		client.EXPECT().ResolveIntroduction(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(agent.ErrIntroductionTimeout)
		client.EXPECT().Identifiers(gomock.Any()).Return(orgIdentifiers, nil)
		client.EXPECT().IssueCredential(gomock.Any(), gomock.Any()).
			Return(domain.Credential{SAID: "ECRED"}, nil)
		client.EXPECT().Notifications(gomock.Any(), gomock.Any()).Return(nil, nil)

		svc := NewService(client, backend, Config{OrgAID: "EORG"},
			WithLogger(logger.Discard()))

		require.NoError(t, svc.Approve(context.Background(), app))
	})
}

func TestServiceDecline(t *testing.T) {
	testutil.Given(t, "a pending application", func(t *testing.T) {
		testutil.When(t, "the decline notice is delivered", func(t *testing.T) {
			ctrl := gomock.NewController(t)
			client := mocks.NewMockClient(ctrl)
			app := testApplication()

			client.EXPECT().ResolveIntroduction(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			client.EXPECT().Identifiers(gomock.Any()).
				Return([]domain.Identifier{{Prefix: "EORG", Name: "community-org"}}, nil)
			client.EXPECT().SendExchange(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, req agent.SendExchangeRequest) error {
					assert.Equal(t, domain.RouteDecline, req.Route)
					assert.Equal(t, "EAPPLICANT", req.Recipient)
					notice, ok := req.Body.(domain.DeclineNotice)
					require.True(t, ok)
					assert.Equal(t, "incomplete profile", notice.Reason)
					return nil
				})
			client.EXPECT().Notifications(gomock.Any(), gomock.Any()).
				Return([]domain.Notification{applyNotification("n1", "EAPPLICANT", true)}, nil)
			client.EXPECT().MarkRead(gomock.Any(), "n1").Return(nil)

			svc := NewService(client, &fakeBackend{}, Config{OrgAID: "EORG"},
				WithLogger(logger.Discard()))

			testutil.Then(t, "the application is marked read", func(t *testing.T) {
				require.NoError(t, svc.Decline(context.Background(), app, "incomplete profile"))
			})
		})

		testutil.When(t, "the notice cannot be delivered", func(t *testing.T) {
			ctrl := gomock.NewController(t)
			client := mocks.NewMockClient(ctrl)
			app := testApplication()

			client.EXPECT().ResolveIntroduction(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			client.EXPECT().Identifiers(gomock.Any()).
				Return([]domain.Identifier{{Prefix: "EORG", Name: "community-org"}}, nil)
			client.EXPECT().SendExchange(gomock.Any(), gomock.Any()).
				Return(errors.New("recipient unreachable"))
			client.EXPECT().Notifications(gomock.Any(), gomock.Any()).
				Return([]domain.Notification{applyNotification("n1", "EAPPLICANT", true)}, nil)
			client.EXPECT().MarkRead(gomock.Any(), "n1").Return(nil)

			svc := NewService(client, &fakeBackend{}, Config{OrgAID: "EORG"},
				WithLogger(logger.Discard()))

			testutil.Then(t, "the decline still counts as processed", func(t *testing.T) {
				require.NoError(t, svc.Decline(context.Background(), app, "nope"))
			})
		})
	})
}

func TestServiceMessage(t *testing.T) {
	t.Run("send failure is surfaced", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := mocks.NewMockClient(ctrl)
		app := testApplication()

		client.EXPECT().ResolveIntroduction(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		client.EXPECT().Identifiers(gomock.Any()).
			Return([]domain.Identifier{{Prefix: "EORG", Name: "community-org"}}, nil)
		client.EXPECT().SendExchange(gomock.Any(), gomock.Any()).
			Return(errors.New("recipient unreachable"))

		svc := NewService(client, &fakeBackend{}, Config{OrgAID: "EORG"},
			WithLogger(logger.Discard()))

		err := svc.Message(context.Background(), app, "please add a bio")
		require.Error(t, err)
	})
}

func TestIssuingIdentifier(t *testing.T) {
	svc := func(client agent.Client, orgAID string) *Service {
		return NewService(client, &fakeBackend{}, Config{OrgAID: orgAID},
			WithLogger(logger.Discard()))
	}

	t.Run("stored org identifier wins", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := mocks.NewMockClient(ctrl)
		client.EXPECT().Identifiers(gomock.Any()).Return([]domain.Identifier{
			{Prefix: "EFIRST", Name: "random"},
			{Prefix: "EORG", Name: "treasurer"},
		}, nil)

		id, err := svc(client, "EORG").issuingIdentifier(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "EORG", id.Prefix)
	})

	t.Run("name match is the fallback", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := mocks.NewMockClient(ctrl)
		client.EXPECT().Identifiers(gomock.Any()).Return([]domain.Identifier{
			{Prefix: "EFIRST", Name: "random"},
			{Prefix: "ESECOND", Name: "Community-Admin"},
		}, nil)

		id, err := svc(client, "").issuingIdentifier(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "ESECOND", id.Prefix)
	})

	t.Run("first identifier when nothing matches", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := mocks.NewMockClient(ctrl)
		client.EXPECT().Identifiers(gomock.Any()).Return([]domain.Identifier{
			{Prefix: "EFIRST", Name: "random"},
		}, nil)

		id, err := svc(client, "EMISSING").issuingIdentifier(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "EFIRST", id.Prefix)
	})

	t.Run("empty wallet errors", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := mocks.NewMockClient(ctrl)
		client.EXPECT().Identifiers(gomock.Any()).Return(nil, nil)

		_, err := svc(client, "").issuingIdentifier(context.Background())
		require.Error(t, err)
	})
}
