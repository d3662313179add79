package messenger

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domerrors "github.com/torneiomaker/messenger-bot/internal/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(ClientConfig{BaseURL: srv.URL, AccessToken: "page-token", Timeout: 2 * time.Second})
}

func TestClientSend(t *testing.T) {
	t.Parallel()

	var gotBody SendRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/me/messages", r.URL.Path)
		assert.Equal(t, "page-token", r.URL.Query().Get("access_token"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = io.WriteString(w, `{"recipient_id":"42","message_id":"mid.1"}`)
	})

	resp, err := client.Send(context.Background(), "42", Text("oi"))
	require.NoError(t, err)
	assert.Equal(t, "42", resp.RecipientID)
	assert.Equal(t, "mid.1", resp.MessageID)
	assert.Equal(t, "42", gotBody.Recipient.ID)
	require.NotNil(t, gotBody.Message)
	assert.Equal(t, "oi", gotBody.Message.Text)
}

func TestClientSendPlatformError(t *testing.T) {
	t.Parallel()

	const platformErr = `{"error":{"message":"Invalid OAuth access token.","type":"OAuthException","code":190}}`
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, platformErr)
	})

	_, err := client.Send(context.Background(), "42", TypingOn())
	require.Error(t, err)

	var gwErr *domerrors.GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, http.StatusBadRequest, gwErr.StatusCode)
	assert.Equal(t, platformErr, gwErr.Body)
	assert.NotContains(t, gwErr.Error(), "page-token")
}

func TestClientSendTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	client := NewClient(ClientConfig{BaseURL: srv.URL, AccessToken: "t", Timeout: 50 * time.Millisecond})
	_, err := client.Send(context.Background(), "42", Text("slow"))
	require.Error(t, err)
	assert.Equal(t, 0, domerrors.StatusCode(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClientFirstName(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/1234", r.URL.Path)
		assert.Equal(t, "first_name", r.URL.Query().Get("fields"))
		_, _ = io.WriteString(w, `{"first_name":"Ana","id":"1234"}`)
	})

	name, err := client.FirstName(context.Background(), "1234")
	require.NoError(t, err)
	assert.Equal(t, "Ana", name)
}

func TestClientFirstNameBadJSON(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `not json`)
	})

	_, err := client.FirstName(context.Background(), "1234")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "decode response"))
}

func TestClientSetThreadSettings(t *testing.T) {
	t.Parallel()

	var got ThreadSetting
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me/thread_settings", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"result":"Successfully added new_thread's CTAs"}`)
	})

	err := client.SetThreadSettings(context.Background(), ThreadSetting{
		SettingType:   SettingCallToActions,
		ThreadState:   ThreadStateNew,
		CallToActions: []CallToAction{{Payload: "START"}},
	})
	require.NoError(t, err)
	assert.Equal(t, SettingCallToActions, got.SettingType)
	assert.Equal(t, ThreadStateNew, got.ThreadState)
	require.Len(t, got.CallToActions, 1)
	assert.Equal(t, "START", got.CallToActions[0].Payload)
}
