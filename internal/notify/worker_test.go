package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	members []string
	dueErr  error
	removed []string
}

func (q *fakeQueue) due(context.Context, time.Time) ([]string, error) {
	if q.dueErr != nil {
		return nil, q.dueErr
	}
	return q.members, nil
}

func (q *fakeQueue) remove(_ context.Context, member string) error {
	q.removed = append(q.removed, member)
	return nil
}

type fakeMailer struct {
	sent    []Envelope
	failIDs map[string]bool
}

func (m *fakeMailer) Send(_ context.Context, env Envelope) error {
	if m.failIDs[env.ID] {
		return errors.New("smtp: connection refused")
	}
	m.sent = append(m.sent, env)
	return nil
}

func marshalEnvelope(t *testing.T, env Envelope) string {
	t.Helper()
	raw, err := json.Marshal(env)
	require.NoError(t, err)
	return string(raw)
}

func TestWorker_DrainDeliversAndRemoves(t *testing.T) {
	confirmation := Envelope{
		ID:        "env-1",
		Kind:      KindOrderConfirmation,
		Recipient: "reader@example.com",
		Order: &OrderConfirmation{
			OrderCode:  "abc123xyz",
			BookName:   "The Go Programming Language",
			Quantity:   2,
			TotalPrice: decimal.RequireFromString("40.00"),
		},
	}
	reset := Envelope{
		ID:        "env-2",
		Kind:      KindPasswordReset,
		Recipient: "reader@example.com",
		Reset:     &PasswordReset{Token: "reset-token"},
	}

	queue := &fakeQueue{members: []string{
		marshalEnvelope(t, confirmation),
		marshalEnvelope(t, reset),
	}}
	mailer := &fakeMailer{}
	w := &Worker{queue: queue, mailer: mailer, pollInterval: time.Millisecond}

	w.drain(context.Background())

	require.Len(t, mailer.sent, 2)
	assert.Equal(t, "env-1", mailer.sent[0].ID)
	assert.Equal(t, "abc123xyz", mailer.sent[0].Order.OrderCode)
	assert.Equal(t, "env-2", mailer.sent[1].ID)
	assert.Equal(t, "reset-token", mailer.sent[1].Reset.Token)
	assert.Len(t, queue.removed, 2, "delivered envelopes must leave the queue")
}

func TestWorker_DrainKeepsFailedDeliveries(t *testing.T) {
	failing := Envelope{ID: "env-fail", Kind: KindPasswordReset, Reset: &PasswordReset{Token: "x"}}
	ok := Envelope{ID: "env-ok", Kind: KindPasswordReset, Reset: &PasswordReset{Token: "y"}}

	queue := &fakeQueue{members: []string{
		marshalEnvelope(t, failing),
		marshalEnvelope(t, ok),
	}}
	mailer := &fakeMailer{failIDs: map[string]bool{"env-fail": true}}
	w := &Worker{queue: queue, mailer: mailer, pollInterval: time.Millisecond}

	w.drain(context.Background())

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "env-ok", mailer.sent[0].ID)
	require.Len(t, queue.removed, 1, "failed delivery must stay queued for the next tick")
	assert.Contains(t, queue.removed[0], "env-ok")
}

func TestWorker_DrainDropsMalformedEnvelopes(t *testing.T) {
	queue := &fakeQueue{members: []string{"{not json"}}
	mailer := &fakeMailer{}
	w := &Worker{queue: queue, mailer: mailer, pollInterval: time.Millisecond}

	w.drain(context.Background())

	assert.Empty(t, mailer.sent)
	assert.Equal(t, []string{"{not json"}, queue.removed)
}

func TestWorker_RunStopsOnContextCancel(t *testing.T) {
	queue := &fakeQueue{}
	w := &Worker{queue: queue, mailer: &fakeMailer{}, pollInterval: time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
}
