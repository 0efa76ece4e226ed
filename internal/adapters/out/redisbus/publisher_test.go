package redisbus_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"dispatch/internal/adapters/out/redisbus"
	"dispatch/internal/core/contracts"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) redis.UniversalClient {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func receiveEnvelope(t *testing.T, ch <-chan redisbus.Envelope) redisbus.Envelope {
	t.Helper()

	select {
	case env, ok := <-ch:
		require.True(t, ok, "subscription channel closed early")
		return env
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for message")
		return redisbus.Envelope{}
	}
}

func Test_Publisher_DeliversJSONToSubscribedTopic(t *testing.T) {
	client := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, closeSub := redisbus.NewSubscriber(client).Subscribe(ctx, "dispatch.alerts")
	defer func() { _ = closeSub() }()

	message := contracts.StatusUpdateMessage{
		Type:        contracts.EventStatusUpdate,
		OrderID:     "0d9cdb32-7f9f-4b3e-a5ce-9f8b6ce0a001",
		OrderNumber: "ORD-000042",
		Status:      "picked_up",
	}
	require.NoError(t, redisbus.NewPublisher(client).Publish(ctx, "dispatch.alerts", message))

	env := receiveEnvelope(t, messages)
	assert.Equal(t, "dispatch.alerts", env.Topic)

	var got contracts.StatusUpdateMessage
	require.NoError(t, json.Unmarshal(env.Payload, &got))
	assert.Equal(t, message, got)
}

func Test_Publisher_TopicsAreIsolated(t *testing.T) {
	client := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fleet, closeFleet := redisbus.NewSubscriber(client).Subscribe(ctx, contracts.FleetTopic)
	defer func() { _ = closeFleet() }()

	publisher := redisbus.NewPublisher(client)
	require.NoError(t, publisher.Publish(ctx, contracts.CourierTopic("c1"), map[string]string{"event": "offer"}))
	require.NoError(t, publisher.Publish(ctx, contracts.FleetTopic, map[string]string{"event": "location_update"}))

	env := receiveEnvelope(t, fleet)
	assert.Equal(t, contracts.FleetTopic, env.Topic)
	assert.JSONEq(t, `{"event":"location_update"}`, string(env.Payload))
}

func Test_Publisher_RejectsUnmarshalableMessage(t *testing.T) {
	client := newTestClient(t)

	err := redisbus.NewPublisher(client).Publish(context.Background(), "fleet", make(chan int))
	require.Error(t, err)
}

func Test_Subscriber_ClosesChannelOnContextCancel(t *testing.T) {
	client := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())

	messages, closeSub := redisbus.NewSubscriber(client).Subscribe(ctx, "fleet")
	defer func() { _ = closeSub() }()

	cancel()

	select {
	case _, ok := <-messages:
		assert.False(t, ok)
	case <-time.After(3 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}
