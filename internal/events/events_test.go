package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/kyat/internal/events"
)

type failingPublisher struct {
	calls int
	err   error
}

func (f *failingPublisher) Publish(context.Context, events.Event) error {
	f.calls++
	return f.err
}

func TestEvent_ToJSON(t *testing.T) {
	group := uuid.New()
	e := events.New(events.KindTransferPosted, uuid.New(), 400)
	e.TransferGroupID = &group

	body, err := e.ToJSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "transfer.posted", decoded["kind"])
	assert.Equal(t, group.String(), decoded["transfer_group_id"])
	assert.EqualValues(t, 400, decoded["amount"])
}

func TestBreakerPublisher_TripsAfterConsecutiveFailures(t *testing.T) {
	inner := &failingPublisher{err: errors.New("broker down")}
	pub := events.NewBreakerPublisher(inner, events.BreakerConfig{
		ConsecutiveFailures: 3,
		OpenTimeout:         time.Minute,
	}, nil)

	for range 3 {
		err := pub.Publish(context.Background(), events.Event{})
		require.Error(t, err)
		assert.NotErrorIs(t, err, events.ErrPublisherUnavailable)
	}

	err := pub.Publish(context.Background(), events.Event{})
	assert.ErrorIs(t, err, events.ErrPublisherUnavailable)
	assert.Equal(t, 3, inner.calls, "open breaker must not reach the broker")
	assert.Equal(t, "open", pub.State())
}

func TestBreakerPublisher_PassesThrough(t *testing.T) {
	inner := &failingPublisher{}
	pub := events.NewBreakerPublisher(inner, events.DefaultBreakerConfig(), nil)

	require.NoError(t, pub.Publish(context.Background(), events.Event{}))
	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, "closed", pub.State())
}

func TestNop(t *testing.T) {
	assert.NoError(t, events.Nop{}.Publish(context.Background(), events.Event{}))
}
