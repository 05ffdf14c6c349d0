package queue

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopcore-next/internal/config"
	"github.com/shopcore-next/internal/constants"

	"github.com/hibiken/asynq"
)

// DefaultQueue 默认队列名称
const DefaultQueue = constants.QueueDefault

const (
	defaultQueueHost        = "127.0.0.1"
	defaultQueuePort        = 6379
	defaultQueueConcurrency = 10
)

// Client 投递订单相关任务；队列未启用时所有投递为空操作
type Client struct {
	client *asynq.Client
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{}, nil
	}
	return &Client{client: asynq.NewClient(buildRedisOpt(cfg))}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}

// OrderTimeoutTaskID 订单超时任务的唯一 ID，同一订单只保留一个待执行任务
func OrderTimeoutTaskID(orderID uint) string {
	return fmt.Sprintf("%s:%d", TaskOrderTimeoutCancel, orderID)
}

// EnqueueOrderTimeoutCancel 延迟投递超时取消任务，重复投递视为成功
func (c *Client) EnqueueOrderTimeoutCancel(payload OrderTimeoutCancelPayload, delay time.Duration) error {
	return c.enqueue(TaskOrderTimeoutCancel, payload,
		asynq.Queue(DefaultQueue),
		asynq.ProcessIn(max(delay, 0)),
		asynq.TaskID(OrderTimeoutTaskID(payload.OrderID)),
	)
}

// EnqueuePaymentEvent 投递支付状态变更事件到高优先级队列
func (c *Client) EnqueuePaymentEvent(payload PaymentEventPayload) error {
	return c.enqueue(TaskPaymentEvent, payload, asynq.Queue(constants.QueueCritical), asynq.MaxRetry(paymentEventMaxRetry))
}

func (c *Client) enqueue(taskType string, payload interface{}, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := newTask(taskType, payload)
	if err != nil {
		return err
	}
	_, err = c.client.Enqueue(task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return nil
}

// BuildServerConfig 生成 worker 的连接与并发配置，未配置队列权重时 critical 优先
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	serverCfg := asynq.Config{
		Concurrency: defaultQueueConcurrency,
		Queues:      map[string]int{constants.QueueCritical: 6, DefaultQueue: 3},
	}
	if cfg != nil && cfg.Concurrency > 0 {
		serverCfg.Concurrency = cfg.Concurrency
	}
	if cfg != nil && len(cfg.Queues) > 0 {
		serverCfg.Queues = cfg.Queues
	}
	return buildRedisOpt(cfg), serverCfg
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	if cfg == nil {
		return asynq.RedisClientOpt{Addr: fmt.Sprintf("%s:%d", defaultQueueHost, defaultQueuePort)}
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = defaultQueueHost
	}
	port := cfg.Port
	if port <= 0 {
		port = defaultQueuePort
	}
	return asynq.RedisClientOpt{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}
