package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopcore-next/internal/config"
	"github.com/shopcore-next/internal/constants"

	"github.com/stretchr/testify/require"
)

func TestDisabledClientIsNoop(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	require.NoError(t, err)
	require.False(t, client.Enabled())
	require.NoError(t, client.EnqueueOrderTimeoutCancel(OrderTimeoutCancelPayload{OrderID: 1}, time.Minute))
	require.NoError(t, client.EnqueuePaymentEvent(PaymentEventPayload{OrderID: 1}))
	require.NoError(t, client.Close())

	var nilClient *Client
	require.False(t, nilClient.Enabled())
	require.NoError(t, nilClient.Close())
}

func TestBuildServerConfig(t *testing.T) {
	opt, cfg := BuildServerConfig(&config.QueueConfig{Host: " redis ", Port: 6380, DB: 2})
	require.Equal(t, "redis:6380", opt.Addr)
	require.Equal(t, 2, opt.DB)
	require.Equal(t, 10, cfg.Concurrency)
	require.Greater(t, cfg.Queues[constants.QueueCritical], cfg.Queues[DefaultQueue])

	opt, cfg = BuildServerConfig(&config.QueueConfig{Concurrency: 4, Queues: map[string]int{"only": 1}})
	require.Equal(t, "127.0.0.1:6379", opt.Addr)
	require.Equal(t, 4, cfg.Concurrency)
	require.Equal(t, map[string]int{"only": 1}, cfg.Queues)
}

func TestPaymentEventTask(t *testing.T) {
	task, err := NewPaymentEventTask(PaymentEventPayload{OrderID: 9, OrderNo: "SC1", From: "pending", To: "paid", Source: "provider"})
	require.NoError(t, err)
	require.Equal(t, TaskPaymentEvent, task.Type())

	var decoded PaymentEventPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &decoded))
	require.Equal(t, uint(9), decoded.OrderID)
	require.Equal(t, "paid", decoded.To)
}

func TestOrderTimeoutTaskID(t *testing.T) {
	require.Equal(t, TaskOrderTimeoutCancel+":42", OrderTimeoutTaskID(42))
	require.NotEqual(t, OrderTimeoutTaskID(1), OrderTimeoutTaskID(2))
}
