package service

import (
	"context"
	"sync"

	"github.com/shopcore-next/internal/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const tracerName = "github.com/shopcore-next/internal/service"

var (
	transitionCounterOnce sync.Once
	transitionCounter     metric.Int64Counter
)

// recordTransition 记录一次已生效的状态流转指标
func recordTransition(ctx context.Context, axis, from, to, source string) {
	transitionCounterOnce.Do(func() {
		counter, err := otel.Meter(tracerName).Int64Counter(
			"order_transitions_total",
			metric.WithDescription("Applied order status transitions"),
		)
		if err != nil {
			logger.Warnw("transition_counter_init_failed", "error", err)
			return
		}
		transitionCounter = counter
	})
	if transitionCounter == nil {
		return
	}
	transitionCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("axis", axis),
		attribute.String("from", from),
		attribute.String("to", to),
		attribute.String("source", source),
	))
}
