package queue

import (
	"encoding/json"

	"github.com/shopcore-next/internal/constants"

	"github.com/hibiken/asynq"
)

// 任务类型
const (
	TaskOrderTimeoutCancel = constants.TaskOrderTimeoutCancel
	TaskPaymentEvent       = constants.TaskPaymentEvent
)

const paymentEventMaxRetry = 5

// OrderTimeoutCancelPayload 超时取消任务载荷
type OrderTimeoutCancelPayload struct {
	OrderID uint `json:"order_id"`
}

// PaymentEventPayload 支付状态已变更，供下游通知使用
type PaymentEventPayload struct {
	OrderID uint   `json:"order_id"`
	OrderNo string `json:"order_no"`
	From    string `json:"from"`
	To      string `json:"to"`
	Source  string `json:"source"`
}

// NewPaymentEventTask 创建支付事件任务
func NewPaymentEventTask(payload PaymentEventPayload) (*asynq.Task, error) {
	return newTask(TaskPaymentEvent, payload)
}

func newTask(taskType string, payload interface{}) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, body), nil
}
