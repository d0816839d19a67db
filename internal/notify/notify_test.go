package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisPublisher(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()

	sub := client.Subscribe(ctx, "qa:test")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	pub := NewRedisPublisher(client, "qa:test")
	err = pub.Publish(ctx, Event{
		Kind:         KindProjectAssigned,
		ProjectID:    7,
		ProjectTitle: "Portal",
		Recipients:   []Recipient{{Name: "Ana", Email: "ana@acme.com"}},
	})
	require.NoError(t, err)

	select {
	case msg := <-sub.Channel():
		var ev Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &ev))
		assert.Equal(t, KindProjectAssigned, ev.Kind)
		assert.Equal(t, int64(7), ev.ProjectID)
		assert.NotEmpty(t, ev.ID, "publisher must assign an event id")
		assert.False(t, ev.At.IsZero(), "publisher must stamp the event")
	case <-time.After(2 * time.Second):
		t.Fatal("no event arrived on the channel")
	}
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (m *recordingMailer) Send(_ context.Context, to Recipient, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to.Email)
	return m.err
}

func TestDispatcherHandle(t *testing.T) {
	client := setupRedis(t)

	t.Run("delivers one mail per recipient", func(t *testing.T) {
		mailer := &recordingMailer{}
		d := NewDispatcher(client, "qa:test", mailer)

		payload, _ := json.Marshal(Event{
			ID:           "ev-1",
			Kind:         KindCommentAdded,
			ProjectTitle: "Portal",
			Actor:        "Luis",
			Recipients: []Recipient{
				{Name: "Ana", Email: "ana@acme.com"},
				{Name: "Pedro", Email: "pedro@acme.com"},
			},
		})
		d.handle(context.Background(), string(payload))

		assert.Equal(t, []string{"ana@acme.com", "pedro@acme.com"}, mailer.sent)
	})

	t.Run("skips recipients without email", func(t *testing.T) {
		mailer := &recordingMailer{}
		d := NewDispatcher(client, "qa:test", mailer)

		payload, _ := json.Marshal(Event{
			ID:         "ev-2",
			Kind:       KindDefectReported,
			Recipients: []Recipient{{Name: "Sin correo"}, {Name: "Ana", Email: "ana@acme.com"}},
		})
		d.handle(context.Background(), string(payload))

		assert.Equal(t, []string{"ana@acme.com"}, mailer.sent)
	})

	t.Run("mailer failure is swallowed", func(t *testing.T) {
		mailer := &recordingMailer{err: errors.New("relay down")}
		d := NewDispatcher(client, "qa:test", mailer)

		payload, _ := json.Marshal(Event{
			ID:         "ev-3",
			Kind:       KindProjectAssigned,
			Recipients: []Recipient{{Name: "Ana", Email: "ana@acme.com"}, {Name: "Pedro", Email: "pedro@acme.com"}},
		})
		// must not panic or stop at the first failure
		d.handle(context.Background(), string(payload))

		assert.Len(t, mailer.sent, 2)
	})

	t.Run("malformed payload is dropped", func(t *testing.T) {
		mailer := &recordingMailer{}
		d := NewDispatcher(client, "qa:test", mailer)

		d.handle(context.Background(), "{not json")
		assert.Empty(t, mailer.sent)
	})
}

func TestDispatcherRun(t *testing.T) {
	client := setupRedis(t)
	mailer := &recordingMailer{}
	d := NewDispatcher(client, "qa:run", mailer)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	// give the subscription time to establish before publishing
	time.Sleep(100 * time.Millisecond)

	pub := NewRedisPublisher(client, "qa:run")
	require.NoError(t, pub.Publish(ctx, Event{
		Kind:       KindProjectAssigned,
		Recipients: []Recipient{{Name: "Ana", Email: "ana@acme.com"}},
	}))

	require.Eventually(t, func() bool {
		mailer.mu.Lock()
		defer mailer.mu.Unlock()
		return len(mailer.sent) == 1
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop on context cancel")
	}
}

func TestRender(t *testing.T) {
	subject, body := render(Event{Kind: KindDefectReported, ProjectTitle: "Portal", Actor: "Luis", Detail: "Crítico: login roto"})
	assert.Contains(t, subject, "Portal")
	assert.Contains(t, body, "Luis")
	assert.Contains(t, body, "Crítico: login roto")

	subject, _ = render(Event{Kind: "something_else", Detail: "texto"})
	assert.Equal(t, "QA Manager - Notificación", subject)
}
