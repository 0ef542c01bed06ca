package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"careline/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserChannel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "notifications:user:1", UserChannel(1))
	assert.Equal(t, "notifications:user:100", UserChannel(100))

	id, ok := UserIDFromChannel("notifications:user:42")
	assert.True(t, ok)
	assert.EqualValues(t, 42, id)

	_, ok = UserIDFromChannel("chat:conv:1")
	assert.False(t, ok)
	_, ok = UserIDFromChannel("notifications:user:abc")
	assert.False(t, ok)
}

func TestNotifier_NilRedisIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	assert.NoError(t, n.PublishUser(context.Background(), 1, "payload"))
	assert.NoError(t, n.PublishEvent(context.Background(), 1, "x", nil))
	assert.NoError(t, n.StartPatternSubscriber(context.Background(), func(string, string) {}))
}

func TestNotifier_PatternSubscriberReceives(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	n := NewNotifier(rdb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan string, 1)
	require.NoError(t, n.StartPatternSubscriber(ctx, func(channel, payload string) {
		if channel == UserChannel(7) {
			received <- payload
		}
	}))

	require.NoError(t, n.PublishEvent(context.Background(), 7, "message_received", map[string]string{"subject": "hi"}))

	select {
	case payload := <-received:
		var ev Event
		require.NoError(t, json.Unmarshal([]byte(payload), &ev))
		assert.Equal(t, "message_received", ev.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

func TestMailClient_SendInvitation(t *testing.T) {
	var got MailMessage
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"m-1"}`))
	}))
	defer srv.Close()

	client := NewMailClient(srv.URL, "secret-key", "noreply@careline.test", "https://app.careline.test/")
	inv := models.Invitation{
		Token:         "abc+/=",
		Email:         "alice@example.com",
		Role:          models.RoleResident,
		ExpiresAt:     time.Date(2026, 3, 8, 9, 0, 0, 0, time.UTC),
		InvitedByName: "Ada Admin",
	}
	require.NoError(t, client.SendInvitation(context.Background(), inv))

	assert.Equal(t, "Bearer secret-key", auth)
	assert.Equal(t, "alice@example.com", got.To)
	assert.Equal(t, "noreply@careline.test", got.From)
	assert.Contains(t, got.Text, "https://app.careline.test/register?token=abc%2B%2F%3D")
	assert.Contains(t, got.Text, "Ada Admin")
}

func TestMailClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client := NewMailClient(srv.URL, "", "noreply@careline.test", "")
	err := client.SendActivationCode(context.Background(), "bob@example.com", "Ab3dE6gH")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "Ab3dE6gH")

	assert.Error(t, client.SendDenial(context.Background(), "", "no"))
}

type recordingMailer struct {
	mu    sync.Mutex
	calls []string
	fail  bool
}

func (m *recordingMailer) record(kind string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, kind)
	if m.fail {
		return errors.New("smtp down")
	}
	return nil
}

func (m *recordingMailer) SendInvitation(context.Context, models.Invitation) error {
	return m.record("invitation")
}

func (m *recordingMailer) SendActivationCode(context.Context, string, string) error {
	return m.record("activation_code")
}

func (m *recordingMailer) SendAccountCreatedConfirmation(context.Context, models.Account) error {
	return m.record("account_created")
}

func (m *recordingMailer) SendDenial(context.Context, string, string) error {
	return m.record("denial")
}

func TestDispatcher_DeliversInBackground(t *testing.T) {
	mailer := &recordingMailer{}
	d := NewDispatcher(mailer, nil)

	d.InvitationCreated(models.Invitation{Email: "a@example.com"})
	d.ActivationCodeIssued("b@example.com", "code")
	d.AccountCreated(models.Account{Email: "c@example.com"})
	d.RequestDenied("d@example.com", "")
	d.MessageReceived(models.Message{RecipientID: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, d.Wait(ctx))

	assert.ElementsMatch(t, []string{"invitation", "activation_code", "account_created", "denial"}, mailer.calls)
}

func TestDispatcher_FailureIsSwallowed(t *testing.T) {
	d := NewDispatcher(&recordingMailer{fail: true}, nil)
	d.RequestDenied("d@example.com", "duplicate")
	require.NoError(t, d.Wait(context.Background()))
}
