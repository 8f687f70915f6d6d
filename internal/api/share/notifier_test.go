package share

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

type fakePublisher struct {
	msgs []*nats.Msg
	err  error
}

func (p *fakePublisher) PublishMsg(m *nats.Msg) error {
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, m)
	return nil
}

func TestNATSNotifier_Publish(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	n := newNATSNotifier(pub, "trip-planner", testLogger())

	event := types.ShareEvent{
		Type:          types.EventTripShareAccepted,
		ShareID:       uuid.New(),
		TripID:        uuid.New(),
		ClonedTripID:  uuid.New(),
		SenderID:      uuid.New(),
		ReceiverEmail: "bea@example.com",
		OccurredAt:    time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, n.Publish(ctx, event))
	require.Len(t, pub.msgs, 1)

	msg := pub.msgs[0]
	assert.Equal(t, "trip-planner.trip.share_accepted", msg.Subject)
	assert.Equal(t, types.EventTripShareAccepted, msg.Header.Get("Event-Type"))

	var decoded types.ShareEvent
	require.NoError(t, json.Unmarshal(msg.Data, &decoded))
	assert.Equal(t, event, decoded)
}

func TestNATSNotifier_DefaultPrefixAndErrors(t *testing.T) {
	pub := &fakePublisher{err: errors.New("nats: connection closed")}
	n := newNATSNotifier(pub, "", testLogger())

	err := n.Publish(context.Background(), types.ShareEvent{Type: types.EventTripShared})
	assert.ErrorContains(t, err, "notifications.trip.shared")
	assert.ErrorContains(t, err, "connection closed")
}

func TestLogNotifier_Publish(t *testing.T) {
	assert.NoError(t, NewLogNotifier(testLogger()).Publish(context.Background(), types.ShareEvent{Type: types.EventTripShared}))
}
