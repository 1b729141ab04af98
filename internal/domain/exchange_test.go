package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExchange(t *testing.T) {
	t.Run("grant", func(t *testing.T) {
		raw := []byte(`{
			"said": "EG1",
			"route": "/exn/ipex/grant",
			"sender": "EADMIN",
			"body": {"credential": "ECRED", "schema": "ES", "message": "welcome"}
		}`)

		msg, err := ParseExchange(raw)
		require.NoError(t, err)
		assert.Equal(t, KindGrant, msg.Kind)
		require.NotNil(t, msg.Grant)
		assert.Equal(t, "ECRED", msg.Grant.CredentialSAID)
		assert.Equal(t, "welcome", msg.Grant.Message)
		assert.Nil(t, msg.Apply)
	})

	t.Run("registration apply", func(t *testing.T) {
		raw := []byte(`{
			"said": "EA1",
			"route": "/exn/registration/apply",
			"sender": "EAPPLICANT",
			"body": {"name": "Morgan", "email": "m@example.com", "contact_oobi": "http://peer/oobi"}
		}`)

		msg, err := ParseExchange(raw)
		require.NoError(t, err)
		assert.Equal(t, KindRegistrationApply, msg.Kind)
		require.NotNil(t, msg.Apply)
		assert.Equal(t, "Morgan", msg.Apply.Name)
		assert.Equal(t, "http://peer/oobi", msg.Apply.ContactOOBI)
	})

	t.Run("decline", func(t *testing.T) {
		raw := []byte(`{
			"said": "ED1",
			"route": "/exn/registration/decline",
			"body": {"apply": "EA1", "reason": "incomplete"}
		}`)

		msg, err := ParseExchange(raw)
		require.NoError(t, err)
		assert.Equal(t, KindDecline, msg.Kind)
		require.NotNil(t, msg.Decline)
		assert.Equal(t, "incomplete", msg.Decline.Reason)
	})

	t.Run("member message", func(t *testing.T) {
		raw := []byte(`{
			"said": "EM1",
			"route": "/exn/registration/message",
			"body": {"text": "please add a bio"}
		}`)

		msg, err := ParseExchange(raw)
		require.NoError(t, err)
		assert.Equal(t, KindMemberMessage, msg.Kind)
		require.NotNil(t, msg.Note)
		assert.Equal(t, "please add a bio", msg.Note.Text)
	})

	t.Run("unknown route keeps the raw body", func(t *testing.T) {
		raw := []byte(`{
			"said": "EX1",
			"route": "/exn/future/thing",
			"body": {"anything": true}
		}`)

		msg, err := ParseExchange(raw)
		require.NoError(t, err)
		assert.Equal(t, KindUnknown, msg.Kind)
		assert.JSONEq(t, `{"anything": true}`, string(msg.RawBody))
	})

	t.Run("missing said is rejected", func(t *testing.T) {
		_, err := ParseExchange([]byte(`{"route": "/exn/ipex/grant", "body": {}}`))
		require.Error(t, err)
	})

	t.Run("malformed envelope is rejected", func(t *testing.T) {
		_, err := ParseExchange([]byte(`{not json`))
		require.Error(t, err)
	})

	t.Run("known route with malformed payload is rejected", func(t *testing.T) {
		_, err := ParseExchange([]byte(`{"said": "EG1", "route": "/exn/ipex/grant", "body": 42}`))
		require.Error(t, err)
	})
}
